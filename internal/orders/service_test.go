package orders

import (
	"context"
	"regexp"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/vavipcommerce/vavip-backend/internal/products"
	"github.com/vavipcommerce/vavip-backend/internal/users"
	"github.com/vavipcommerce/vavip-backend/pkg/config"
	"github.com/vavipcommerce/vavip-backend/pkg/db"
	"github.com/vavipcommerce/vavip-backend/pkg/db/models"
	"github.com/vavipcommerce/vavip-backend/pkg/enums"
	pkgerrors "github.com/vavipcommerce/vavip-backend/pkg/errors"
	"github.com/vavipcommerce/vavip-backend/pkg/pagination"
)

func setupOrderTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	ddl := []string{`
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  first_name TEXT NOT NULL DEFAULT '',
  last_name TEXT NOT NULL DEFAULT '',
  phone TEXT UNIQUE,
  role TEXT NOT NULL DEFAULT 'customer',
  is_active INTEGER NOT NULL DEFAULT 1,
  last_login_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  slug TEXT NOT NULL UNIQUE,
  sku TEXT NOT NULL UNIQUE,
  description TEXT NOT NULL DEFAULT '',
  short_description TEXT NOT NULL DEFAULT '',
  price NUMERIC NOT NULL,
  old_price NUMERIC,
  currency TEXT NOT NULL DEFAULT 'RUB',
  category_id TEXT,
  stock_quantity INTEGER,
  is_active INTEGER NOT NULL DEFAULT 1,
  is_featured INTEGER NOT NULL DEFAULT 0,
  sort_order INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS product_images (
  id TEXT PRIMARY KEY,
  product_id TEXT NOT NULL,
  url TEXT NOT NULL,
  alt_text TEXT NOT NULL DEFAULT '',
  is_main INTEGER NOT NULL DEFAULT 0,
  sort_order INTEGER NOT NULL DEFAULT 0
);`, `
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  order_number TEXT NOT NULL UNIQUE,
  user_id TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  payment_status TEXT NOT NULL DEFAULT 'pending',
  payment_method TEXT,
  delivery_method TEXT,
  delivery_address TEXT NOT NULL DEFAULT '',
  delivery_cost NUMERIC NOT NULL DEFAULT 0,
  subtotal NUMERIC NOT NULL,
  discount NUMERIC NOT NULL DEFAULT 0,
  total NUMERIC NOT NULL,
  currency TEXT NOT NULL DEFAULT 'RUB',
  promo_code TEXT NOT NULL DEFAULT '',
  customer_name TEXT NOT NULL DEFAULT '',
  customer_email TEXT NOT NULL DEFAULT '',
  customer_phone TEXT NOT NULL DEFAULT '',
  customer_note TEXT NOT NULL DEFAULT '',
  admin_note TEXT NOT NULL DEFAULT '',
  created_at DATETIME,
  updated_at DATETIME,
  paid_at DATETIME,
  shipped_at DATETIME,
  delivered_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS order_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  product_name TEXT NOT NULL,
  product_sku TEXT NOT NULL,
  product_image TEXT NOT NULL DEFAULT '',
  quantity INTEGER NOT NULL,
  price NUMERIC NOT NULL,
  total NUMERIC NOT NULL
);`}
	for _, stmt := range ddl {
		require.NoError(t, conn.Exec(stmt).Error)
	}
	return conn
}

type recordedEvent struct {
	userID *uuid.UUID
	event  string
}

type fakePublisher struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (f *fakePublisher) ToUser(ctx context.Context, userID uuid.UUID, event string, payload any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := userID
	f.events = append(f.events, recordedEvent{userID: &id, event: event})
}

func (f *fakePublisher) ToAdmins(ctx context.Context, event string, payload any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, recordedEvent{event: event})
}

func (f *fakePublisher) names() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.events))
	for _, e := range f.events {
		out = append(out, e.event)
	}
	return out
}

func testOrderJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:                 "test-secret-0123456789abcdef0123456789abcdef",
		Issuer:                 "vavip-test",
		ExpirationMinutes:      15,
		RefreshTokenTTLMinutes: 60,
	}
}

func newOrderService(t *testing.T, conn *gorm.DB, pub *fakePublisher) Service {
	t.Helper()

	var publisher Publisher
	if pub != nil {
		publisher = pub
	}
	svc, err := NewService(ServiceParams{
		Client:         db.NewWithConn(conn),
		Repo:           NewRepository(conn),
		Products:       products.NewRepository(conn),
		Users:          users.NewRepository(conn),
		Publisher:      publisher,
		JWTConfig:      testOrderJWTConfig(),
		PasswordConfig: config.PasswordConfig{},
	})
	require.NoError(t, err)
	return svc
}

func seedOrderUser(t *testing.T, conn *gorm.DB, email string, phone *string) *models.User {
	t.Helper()
	user, err := users.NewRepository(conn).Create(context.Background(), users.CreateUserDTO{
		Email:        email,
		PasswordHash: "x",
		FirstName:    "Test",
		Phone:        phone,
		Role:         enums.UserRoleCustomer,
	})
	require.NoError(t, err)
	return user
}

func seedProduct(t *testing.T, conn *gorm.DB, name, slug, sku string, price int64) *models.Product {
	t.Helper()
	p := &models.Product{
		Name:     name,
		Slug:     slug,
		SKU:      sku,
		Price:    decimal.NewFromInt(price),
		Currency: enums.CurrencyRUB,
		IsActive: true,
		Images: []models.ProductImage{
			{URL: "https://cdn.example.com/" + slug + ".jpg", IsMain: true},
		},
	}
	require.NoError(t, conn.Create(p).Error)
	return p
}

func orderAssertCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	var typed *pkgerrors.Error
	require.ErrorAs(t, err, &typed)
	assert.Equal(t, code, typed.Code())
}

var orderNumberPattern = regexp.MustCompile(`^VAV-\d{8}-[0-9A-F]{6}$`)

func TestCreate_ComputesTotalsAndSnapshots(t *testing.T) {
	conn := setupOrderTestDB(t)
	pub := &fakePublisher{}
	svc := newOrderService(t, conn, pub)
	ctx := context.Background()

	user := seedOrderUser(t, conn, "buyer@example.com", nil)
	boot := seedProduct(t, conn, "Alpha Boot", "alpha-boot", "SKU-1", 100)
	hat := seedProduct(t, conn, "Charlie Hat", "charlie-hat", "SKU-3", 40)

	discount := decimal.NewFromInt(30)
	deliveryCost := decimal.NewFromInt(10)
	result, err := svc.Create(ctx, &user.ID, CreateOrderRequest{
		Items: []ItemInput{
			{ProductID: boot.ID, Quantity: 2},
			{ProductID: hat.ID, Quantity: 1},
		},
		Discount:     &discount,
		DeliveryCost: &deliveryCost,
	})
	require.NoError(t, err)
	require.NotNil(t, result.Order)
	assert.False(t, result.AccountCreated)
	assert.Nil(t, result.Tokens)

	order := result.Order
	assert.Regexp(t, orderNumberPattern, order.OrderNumber)
	assert.Equal(t, enums.OrderStatusPending, order.Status)
	assert.Equal(t, enums.PaymentStatusPending, order.PaymentStatus)
	assert.True(t, order.Subtotal.Equal(decimal.NewFromInt(240)))
	assert.True(t, order.Total.Equal(decimal.NewFromInt(220)))
	require.Len(t, order.Items, 2)
	for _, item := range order.Items {
		assert.True(t, item.Total.Equal(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))))
		assert.NotEmpty(t, item.ProductName)
		assert.NotEmpty(t, item.ProductSKU)
		assert.NotEmpty(t, item.ProductImage)
	}

	assert.Equal(t, []string{EventOrderCreated, EventNewOrder}, pub.names())
}

func TestCreate_NoFloorWhenDiscountExceedsSubtotal(t *testing.T) {
	conn := setupOrderTestDB(t)
	svc := newOrderService(t, conn, nil)

	user := seedOrderUser(t, conn, "buyer@example.com", nil)
	p := seedProduct(t, conn, "Cheap", "cheap", "SKU-C", 10)

	discount := decimal.NewFromInt(25)
	result, err := svc.Create(context.Background(), &user.ID, CreateOrderRequest{
		Items:    []ItemInput{{ProductID: p.ID, Quantity: 1}},
		Discount: &discount,
	})
	require.NoError(t, err)
	assert.True(t, result.Order.Total.Equal(decimal.NewFromInt(-15)))
}

func TestCreate_SkipsMissingAndInactiveProducts(t *testing.T) {
	conn := setupOrderTestDB(t)
	svc := newOrderService(t, conn, nil)
	ctx := context.Background()

	user := seedOrderUser(t, conn, "buyer@example.com", nil)
	live := seedProduct(t, conn, "Live", "live", "SKU-L", 50)
	dead := seedProduct(t, conn, "Dead", "dead", "SKU-D", 50)
	require.NoError(t, conn.Model(&models.Product{}).Where("id = ?", dead.ID).Update("is_active", false).Error)

	result, err := svc.Create(ctx, &user.ID, CreateOrderRequest{
		Items: []ItemInput{
			{ProductID: live.ID, Quantity: 1},
			{ProductID: dead.ID, Quantity: 1},
			{ProductID: uuid.New(), Quantity: 3},
		},
	})
	require.NoError(t, err)
	require.Len(t, result.Order.Items, 1)
	assert.Equal(t, "Live", result.Order.Items[0].ProductName)

	_, err = svc.Create(ctx, &user.ID, CreateOrderRequest{
		Items: []ItemInput{{ProductID: uuid.New(), Quantity: 1}},
	})
	orderAssertCode(t, err, pkgerrors.CodeNoItems)
}

func TestCreate_GuestCheckout(t *testing.T) {
	conn := setupOrderTestDB(t)
	svc := newOrderService(t, conn, nil)
	ctx := context.Background()

	p := seedProduct(t, conn, "Gift", "gift", "SKU-G", 75)

	_, err := svc.Create(ctx, nil, CreateOrderRequest{
		Items: []ItemInput{{ProductID: p.ID, Quantity: 1}},
	})
	orderAssertCode(t, err, pkgerrors.CodePhoneRequired)

	_, err = svc.Create(ctx, nil, CreateOrderRequest{
		Items:         []ItemInput{{ProductID: p.ID, Quantity: 1}},
		CustomerPhone: "banana",
	})
	orderAssertCode(t, err, pkgerrors.CodePhoneInvalid)

	result, err := svc.Create(ctx, nil, CreateOrderRequest{
		Items:         []ItemInput{{ProductID: p.ID, Quantity: 1}},
		CustomerPhone: "8 999 123 45 67",
		CustomerName:  "Ivan Petrov",
	})
	require.NoError(t, err)
	assert.True(t, result.AccountCreated)
	require.NotNil(t, result.User)
	require.NotNil(t, result.Tokens)
	assert.NotEmpty(t, result.Tokens.AccessToken)
	assert.Equal(t, "Ivan", result.User.FirstName)
	assert.Equal(t, "Petrov", result.User.LastName)
	assert.True(t, strings.HasPrefix(result.User.Email, "auto_79991234567_"))
	assert.Equal(t, "+79991234567", result.Order.CustomerPhone)

	// The same phone now belongs to an account, so the next guest attempt
	// is refused.
	_, err = svc.Create(ctx, nil, CreateOrderRequest{
		Items:         []ItemInput{{ProductID: p.ID, Quantity: 1}},
		CustomerPhone: "+79991234567",
	})
	orderAssertCode(t, err, pkgerrors.CodePhoneExists)
}

func TestGet_OwnershipChecks(t *testing.T) {
	conn := setupOrderTestDB(t)
	svc := newOrderService(t, conn, nil)
	ctx := context.Background()

	owner := seedOrderUser(t, conn, "owner@example.com", nil)
	other := seedOrderUser(t, conn, "other@example.com", nil)
	p := seedProduct(t, conn, "Item", "item", "SKU-I", 10)

	created, err := svc.Create(ctx, &owner.ID, CreateOrderRequest{
		Items: []ItemInput{{ProductID: p.ID, Quantity: 1}},
	})
	require.NoError(t, err)
	orderID := created.Order.ID

	got, err := svc.Get(ctx, owner.ID, enums.UserRoleCustomer, orderID)
	require.NoError(t, err)
	assert.Equal(t, orderID, got.ID)

	_, err = svc.Get(ctx, other.ID, enums.UserRoleCustomer, orderID)
	orderAssertCode(t, err, pkgerrors.CodeForbidden)

	_, err = svc.Get(ctx, other.ID, enums.UserRoleManager, orderID)
	require.NoError(t, err)

	_, err = svc.Get(ctx, owner.ID, enums.UserRoleCustomer, uuid.New())
	orderAssertCode(t, err, pkgerrors.CodeOrderNotFound)
}

func TestList_OwnVersusAll(t *testing.T) {
	conn := setupOrderTestDB(t)
	svc := newOrderService(t, conn, nil)
	ctx := context.Background()

	alice := seedOrderUser(t, conn, "alice@example.com", nil)
	bob := seedOrderUser(t, conn, "bob@example.com", nil)
	p := seedProduct(t, conn, "Item", "item", "SKU-I", 10)

	for _, id := range []uuid.UUID{alice.ID, alice.ID, bob.ID} {
		actor := id
		_, err := svc.Create(ctx, &actor, CreateOrderRequest{
			Items: []ItemInput{{ProductID: p.ID, Quantity: 1}},
		})
		require.NoError(t, err)
	}

	page, err := svc.List(ctx, alice.ID, enums.UserRoleCustomer, ListQuery{
		Pagination: pagination.Normalize(1, 20),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.PageMeta.Total)

	// all=true is ignored for customers.
	page, err = svc.List(ctx, alice.ID, enums.UserRoleCustomer, ListQuery{
		All:        true,
		Pagination: pagination.Normalize(1, 20),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.PageMeta.Total)

	page, err = svc.List(ctx, alice.ID, enums.UserRoleManager, ListQuery{
		All:        true,
		Pagination: pagination.Normalize(1, 20),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.PageMeta.Total)
}

func TestUpdateStatus_StampsTimestamps(t *testing.T) {
	conn := setupOrderTestDB(t)
	pub := &fakePublisher{}
	svc := newOrderService(t, conn, pub)
	ctx := context.Background()

	user := seedOrderUser(t, conn, "buyer@example.com", nil)
	p := seedProduct(t, conn, "Item", "item", "SKU-I", 10)
	created, err := svc.Create(ctx, &user.ID, CreateOrderRequest{
		Items: []ItemInput{{ProductID: p.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	shipped := "shipped"
	paid := "paid"
	note := "packed by warehouse 2"
	updated, err := svc.UpdateStatus(ctx, created.Order.ID, UpdateStatusRequest{
		Status:        &shipped,
		PaymentStatus: &paid,
		AdminNote:     &note,
	})
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusShipped, updated.Status)
	assert.Equal(t, enums.PaymentStatusPaid, updated.PaymentStatus)
	require.NotNil(t, updated.ShippedAt)
	require.NotNil(t, updated.PaidAt)
	assert.Nil(t, updated.DeliveredAt)
	assert.Equal(t, note, updated.AdminNote)

	assert.Contains(t, pub.names(), EventOrderStatusChanged)

	bogus := "teleported"
	_, err = svc.UpdateStatus(ctx, created.Order.ID, UpdateStatusRequest{Status: &bogus})
	orderAssertCode(t, err, pkgerrors.CodeValidation)

	_, err = svc.UpdateStatus(ctx, created.Order.ID, UpdateStatusRequest{})
	orderAssertCode(t, err, pkgerrors.CodeValidation)
}

func TestCancel_OnlyFromEarlyStatuses(t *testing.T) {
	conn := setupOrderTestDB(t)
	pub := &fakePublisher{}
	svc := newOrderService(t, conn, pub)
	ctx := context.Background()

	user := seedOrderUser(t, conn, "buyer@example.com", nil)
	stranger := seedOrderUser(t, conn, "stranger@example.com", nil)
	p := seedProduct(t, conn, "Item", "item", "SKU-I", 10)

	created, err := svc.Create(ctx, &user.ID, CreateOrderRequest{
		Items: []ItemInput{{ProductID: p.ID, Quantity: 1}},
	})
	require.NoError(t, err)
	orderID := created.Order.ID

	_, err = svc.Cancel(ctx, stranger.ID, enums.UserRoleCustomer, orderID)
	orderAssertCode(t, err, pkgerrors.CodeForbidden)

	cancelled, err := svc.Cancel(ctx, user.ID, enums.UserRoleCustomer, orderID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusCancelled, cancelled.Status)
	assert.Contains(t, pub.names(), EventOrderCancelled)

	// Already cancelled, a second attempt is refused.
	_, err = svc.Cancel(ctx, user.ID, enums.UserRoleCustomer, orderID)
	orderAssertCode(t, err, pkgerrors.CodeCancelFailed)

	shipped, err := svc.Create(ctx, &user.ID, CreateOrderRequest{
		Items: []ItemInput{{ProductID: p.ID, Quantity: 1}},
	})
	require.NoError(t, err)
	status := "shipped"
	_, err = svc.UpdateStatus(ctx, shipped.Order.ID, UpdateStatusRequest{Status: &status})
	require.NoError(t, err)
	_, err = svc.Cancel(ctx, user.ID, enums.UserRoleCustomer, shipped.Order.ID)
	orderAssertCode(t, err, pkgerrors.CodeCancelFailed)
}

func TestRepeat_RebuildsFromSnapshots(t *testing.T) {
	conn := setupOrderTestDB(t)
	svc := newOrderService(t, conn, nil)
	ctx := context.Background()

	user := seedOrderUser(t, conn, "buyer@example.com", nil)
	other := seedOrderUser(t, conn, "other@example.com", nil)
	boot := seedProduct(t, conn, "Alpha Boot", "alpha-boot", "SKU-1", 100)
	hat := seedProduct(t, conn, "Charlie Hat", "charlie-hat", "SKU-3", 40)

	created, err := svc.Create(ctx, &user.ID, CreateOrderRequest{
		Items: []ItemInput{
			{ProductID: boot.ID, Quantity: 2},
			{ProductID: hat.ID, Quantity: 1},
		},
	})
	require.NoError(t, err)

	_, err = svc.Repeat(ctx, other.ID, created.Order.ID)
	orderAssertCode(t, err, pkgerrors.CodeForbidden)

	// Retire one product; the repeat keeps only what is still sold.
	require.NoError(t, conn.Model(&models.Product{}).Where("id = ?", hat.ID).Update("is_active", false).Error)

	repeated, err := svc.Repeat(ctx, user.ID, created.Order.ID)
	require.NoError(t, err)
	assert.NotEqual(t, created.Order.ID, repeated.Order.ID)
	assert.NotEqual(t, created.Order.OrderNumber, repeated.Order.OrderNumber)
	require.Len(t, repeated.Order.Items, 1)
	assert.Equal(t, "Alpha Boot", repeated.Order.Items[0].ProductName)
	assert.Equal(t, 2, repeated.Order.Items[0].Quantity)
	assert.Equal(t, enums.OrderStatusPending, repeated.Order.Status)

	// Every product retired leaves nothing to repeat.
	require.NoError(t, conn.Model(&models.Product{}).Where("id = ?", boot.ID).Update("is_active", false).Error)
	_, err = svc.Repeat(ctx, user.ID, created.Order.ID)
	orderAssertCode(t, err, pkgerrors.CodeNoItems)
}
