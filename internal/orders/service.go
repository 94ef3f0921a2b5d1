package orders

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/vavipcommerce/vavip-backend/internal/otp"
	"github.com/vavipcommerce/vavip-backend/internal/users"
	pkgAuth "github.com/vavipcommerce/vavip-backend/pkg/auth"
	"github.com/vavipcommerce/vavip-backend/pkg/config"
	"github.com/vavipcommerce/vavip-backend/pkg/db"
	"github.com/vavipcommerce/vavip-backend/pkg/db/models"
	"github.com/vavipcommerce/vavip-backend/pkg/enums"
	pkgerrors "github.com/vavipcommerce/vavip-backend/pkg/errors"
	"github.com/vavipcommerce/vavip-backend/pkg/logger"
	"github.com/vavipcommerce/vavip-backend/pkg/pagination"
	"github.com/vavipcommerce/vavip-backend/pkg/security"
	"github.com/vavipcommerce/vavip-backend/pkg/types"
)

// Event names delivered to websocket rooms.
const (
	EventOrderCreated       = "order_created"
	EventNewOrder           = "new_order"
	EventOrderStatusChanged = "order_status_changed"
	EventOrderCancelled     = "order_cancelled"
)

const orderNumberAttempts = 5

// Publisher delivers best-effort events to websocket rooms. Implementations
// must never block the caller.
type Publisher interface {
	ToUser(ctx context.Context, userID uuid.UUID, event string, payload any)
	ToAdmins(ctx context.Context, event string, payload any)
}

type productCatalog interface {
	ListActiveByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
}

type userDirectory interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByPhone(ctx context.Context, phone string) (*models.User, error)
	Create(ctx context.Context, dto users.CreateUserDTO) (*models.User, error)
}

// Service defines the order operations used by the controllers.
type Service interface {
	Create(ctx context.Context, actorID *uuid.UUID, req CreateOrderRequest) (*CreateOrderResult, error)
	Get(ctx context.Context, actorID uuid.UUID, role enums.UserRole, id uuid.UUID) (*OrderDTO, error)
	List(ctx context.Context, actorID uuid.UUID, role enums.UserRole, query ListQuery) (*types.Page, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, req UpdateStatusRequest) (*OrderDTO, error)
	Cancel(ctx context.Context, actorID uuid.UUID, role enums.UserRole, id uuid.UUID) (*OrderDTO, error)
	Repeat(ctx context.Context, actorID uuid.UUID, id uuid.UUID) (*CreateOrderResult, error)
}

type service struct {
	client      *db.Client
	repo        *Repository
	products    productCatalog
	users       userDirectory
	publisher   Publisher
	jwtCfg      config.JWTConfig
	passwordCfg config.PasswordConfig
	logg        *logger.Logger
}

// ServiceParams bundles the dependencies required to build an order service.
type ServiceParams struct {
	Client         *db.Client
	Repo           *Repository
	Products       productCatalog
	Users          userDirectory
	Publisher      Publisher
	JWTConfig      config.JWTConfig
	PasswordConfig config.PasswordConfig
	Logger         *logger.Logger
}

// NewService constructs an order service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Client == nil {
		return nil, fmt.Errorf("db client is required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("repository is required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("product catalog is required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("user directory is required")
	}
	return &service{
		client:      params.Client,
		repo:        params.Repo,
		products:    params.Products,
		users:       params.Users,
		publisher:   params.Publisher,
		jwtCfg:      params.JWTConfig,
		passwordCfg: params.PasswordConfig,
		logg:        params.Logger,
	}, nil
}

func (s *service) Create(ctx context.Context, actorID *uuid.UUID, req CreateOrderRequest) (*CreateOrderResult, error) {
	result := &CreateOrderResult{}

	var owner *models.User
	switch {
	case actorID != nil:
		found, err := s.users.FindByID(ctx, *actorID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
		}
		owner = found
	default:
		provisioned, tokens, err := s.provisionGuest(ctx, req)
		if err != nil {
			return nil, err
		}
		owner = provisioned
		result.AccountCreated = true
		result.User = users.FromModel(owner)
		result.Tokens = tokens
	}

	order, err := s.buildOrder(ctx, owner, req)
	if err != nil {
		return nil, err
	}

	created, err := s.persist(ctx, order)
	if err != nil {
		return nil, err
	}
	result.Order = FromModel(created)

	s.publishToUser(ctx, owner.ID, EventOrderCreated, result.Order)
	s.publishToAdmins(ctx, EventNewOrder, result.Order)

	if s.logg != nil {
		s.logg.Info(s.logg.WithField(ctx, "order_number", created.OrderNumber), "order.created")
	}
	return result, nil
}

// buildOrder materializes the request into an unsaved order. Lines whose
// product no longer exists or is inactive are dropped rather than failing
// the whole checkout.
func (s *service) buildOrder(ctx context.Context, owner *models.User, req CreateOrderRequest) (*models.Order, error) {
	ids := make([]uuid.UUID, 0, len(req.Items))
	for _, line := range req.Items {
		ids = append(ids, line.ProductID)
	}
	available, err := s.products.ListActiveByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load products")
	}
	byID := make(map[uuid.UUID]*models.Product, len(available))
	for i := range available {
		byID[available[i].ID] = &available[i]
	}

	subtotal := decimal.Zero
	items := make([]models.OrderItem, 0, len(req.Items))
	for _, line := range req.Items {
		product, ok := byID[line.ProductID]
		if !ok {
			continue
		}
		lineTotal := product.Price.Mul(decimal.NewFromInt(int64(line.Quantity)))
		items = append(items, models.OrderItem{
			ProductID:    product.ID,
			ProductName:  product.Name,
			ProductSKU:   product.SKU,
			ProductImage: product.MainImageURL(),
			Quantity:     line.Quantity,
			Price:        product.Price,
			Total:        lineTotal,
		})
		subtotal = subtotal.Add(lineTotal)
	}
	if len(items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNoItems, "no valid items in order")
	}

	discount := decimal.Zero
	if req.Discount != nil {
		if req.Discount.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount must not be negative")
		}
		discount = *req.Discount
	}
	deliveryCost := decimal.Zero
	if req.DeliveryCost != nil {
		if req.DeliveryCost.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "delivery cost must not be negative")
		}
		deliveryCost = *req.DeliveryCost
	}
	total := subtotal.Sub(discount).Add(deliveryCost)

	order := &models.Order{
		UserID:          owner.ID,
		Status:          enums.OrderStatusPending,
		PaymentStatus:   enums.PaymentStatusPending,
		DeliveryAddress: strings.TrimSpace(req.DeliveryAddress),
		DeliveryCost:    deliveryCost,
		Subtotal:        subtotal,
		Discount:        discount,
		Total:           total,
		Currency:        enums.CurrencyRUB,
		PromoCode:       strings.TrimSpace(req.PromoCode),
		CustomerName:    strings.TrimSpace(req.CustomerName),
		CustomerEmail:   strings.TrimSpace(req.CustomerEmail),
		CustomerPhone:   strings.TrimSpace(req.CustomerPhone),
		CustomerNote:    strings.TrimSpace(req.CustomerNote),
		Items:           items,
	}
	if req.PaymentMethod != nil {
		method, err := enums.ParsePaymentMethod(*req.PaymentMethod)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "payment method")
		}
		order.PaymentMethod = &method
	}
	if req.DeliveryMethod != nil {
		method, err := enums.ParseDeliveryMethod(*req.DeliveryMethod)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "delivery method")
		}
		order.DeliveryMethod = &method
	}

	if order.CustomerName == "" {
		order.CustomerName = strings.TrimSpace(owner.FirstName + " " + owner.LastName)
	}
	if order.CustomerEmail == "" {
		order.CustomerEmail = owner.Email
	}
	if order.CustomerPhone == "" && owner.Phone != nil {
		order.CustomerPhone = *owner.Phone
	}
	return order, nil
}

func (s *service) persist(ctx context.Context, order *models.Order) (*models.Order, error) {
	number, err := s.reserveOrderNumber(ctx)
	if err != nil {
		return nil, err
	}
	order.OrderNumber = number

	err = s.client.WithTx(ctx, func(tx *gorm.DB) error {
		_, err := s.repo.WithTx(tx).Create(ctx, order)
		return err
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persist order")
	}
	return s.repo.FindByID(ctx, order.ID)
}

func (s *service) reserveOrderNumber(ctx context.Context) (string, error) {
	for attempt := 0; attempt < orderNumberAttempts; attempt++ {
		number, err := generateOrderNumber(time.Now().UTC())
		if err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "order number")
		}
		taken, err := s.repo.OrderNumberExists(ctx, number)
		if err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "order number")
		}
		if !taken {
			return number, nil
		}
	}
	return "", pkgerrors.New(pkgerrors.CodeInternal, "could not allocate order number")
}

func generateOrderNumber(now time.Time) (string, error) {
	suffix := make([]byte, 3)
	if _, err := rand.Read(suffix); err != nil {
		return "", err
	}
	return fmt.Sprintf("VAV-%s-%s", now.Format("20060102"), strings.ToUpper(hex.EncodeToString(suffix))), nil
}

// provisionGuest creates an account for an unauthenticated checkout. A phone
// already bound to an account rejects the request so an existing customer's
// history cannot be claimed by a stranger.
func (s *service) provisionGuest(ctx context.Context, req CreateOrderRequest) (*models.User, *pkgAuth.TokenPair, error) {
	if strings.TrimSpace(req.CustomerPhone) == "" {
		return nil, nil, pkgerrors.New(pkgerrors.CodePhoneRequired, "phone number is required")
	}
	phone, err := otp.NormalizePhone(req.CustomerPhone)
	if err != nil {
		return nil, nil, err
	}

	_, err = s.users.FindByPhone(ctx, phone)
	switch {
	case err == nil:
		return nil, nil, pkgerrors.New(pkgerrors.CodePhoneExists, "phone number already registered")
	case errors.Is(err, gorm.ErrRecordNotFound):
	default:
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup phone")
	}

	password, err := security.GenerateTempPassword(10)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "temp password")
	}
	hash, err := security.HashPassword(password, s.passwordCfg)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	suffix := make([]byte, 3)
	if _, err := rand.Read(suffix); err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "email suffix")
	}
	email := fmt.Sprintf("auto_%s_%s@auto.vavip", strings.TrimPrefix(phone, "+"), hex.EncodeToString(suffix))

	firstName, lastName := splitCustomerName(req.CustomerName)
	user, err := s.users.Create(ctx, users.CreateUserDTO{
		Email:        email,
		PasswordHash: hash,
		FirstName:    firstName,
		LastName:     lastName,
		Phone:        &phone,
		Role:         enums.UserRoleCustomer,
	})
	if err != nil {
		if db.IsUniqueViolation(err, "users_phone_key") || db.IsUniqueViolation(err, "idx_users_phone") {
			return nil, nil, pkgerrors.New(pkgerrors.CodePhoneExists, "phone number already registered")
		}
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
	}

	pair, err := pkgAuth.MintPair(s.jwtCfg, time.Now().UTC(), pkgAuth.TokenPayload{
		UserID: user.ID,
		Role:   user.Role,
	})
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint tokens")
	}
	if s.logg != nil {
		s.logg.Info(s.logg.WithField(ctx, "user_id", user.ID.String()), "order.guest_provisioned")
	}
	return user, &pair, nil
}

func splitCustomerName(full string) (string, string) {
	parts := strings.Fields(full)
	if len(parts) == 0 {
		return "", ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}

func (s *service) Get(ctx context.Context, actorID uuid.UUID, role enums.UserRole, id uuid.UUID) (*OrderDTO, error) {
	order, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.UserID != actorID && !role.IsStaff() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "not your order")
	}
	return FromModel(order), nil
}

func (s *service) List(ctx context.Context, actorID uuid.UUID, role enums.UserRole, query ListQuery) (*types.Page, error) {
	filter := ListFilter{Status: query.Status}
	if !query.All || !role.IsStaff() {
		userID := actorID
		filter.UserID = &userID
	}

	page := query.Pagination
	if page.PerPage == 0 {
		page = pagination.Normalize(page.Page, page.PerPage)
	}

	items, total, err := s.repo.List(ctx, filter, page)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}
	return &types.Page{
		Items:    FromModels(items),
		PageMeta: page.Meta(total),
	}, nil
}

func (s *service) UpdateStatus(ctx context.Context, id uuid.UUID, req UpdateStatusRequest) (*OrderDTO, error) {
	order, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	updates := map[string]any{}

	if req.Status != nil {
		status, err := enums.ParseOrderStatus(*req.Status)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "status")
		}
		updates["status"] = status
		if status == enums.OrderStatusShipped && order.ShippedAt == nil {
			updates["shipped_at"] = now
		}
		if status == enums.OrderStatusDelivered && order.DeliveredAt == nil {
			updates["delivered_at"] = now
		}
	}
	if req.PaymentStatus != nil {
		status, err := enums.ParsePaymentStatus(*req.PaymentStatus)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "payment status")
		}
		updates["payment_status"] = status
		if status == enums.PaymentStatusPaid && order.PaidAt == nil {
			updates["paid_at"] = now
		}
	}
	if req.AdminNote != nil {
		updates["admin_note"] = strings.TrimSpace(*req.AdminNote)
	}
	if len(updates) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "nothing to update")
	}

	if err := s.repo.Update(ctx, id, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update order")
	}

	updated, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := FromModel(updated)
	s.publishToUser(ctx, updated.UserID, EventOrderStatusChanged, dto)
	return dto, nil
}

func (s *service) Cancel(ctx context.Context, actorID uuid.UUID, role enums.UserRole, id uuid.UUID) (*OrderDTO, error) {
	order, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.UserID != actorID && !role.IsStaff() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "not your order")
	}
	if !order.Status.Cancellable() {
		return nil, pkgerrors.New(pkgerrors.CodeCancelFailed, "order can no longer be cancelled").
			WithDetails(map[string]any{"status": order.Status})
	}

	if err := s.repo.Update(ctx, id, map[string]any{"status": enums.OrderStatusCancelled}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "cancel order")
	}

	updated, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := FromModel(updated)
	s.publishToUser(ctx, updated.UserID, EventOrderCancelled, dto)
	s.publishToAdmins(ctx, EventOrderCancelled, dto)
	return dto, nil
}

// Repeat places a fresh order from the snapshot lines of a previous one.
// Products that have since vanished from the catalog are skipped by the
// normal creation path.
func (s *service) Repeat(ctx context.Context, actorID uuid.UUID, id uuid.UUID) (*CreateOrderResult, error) {
	order, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.UserID != actorID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "not your order")
	}
	if len(order.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNoItems, "order has no items to repeat")
	}

	req := CreateOrderRequest{
		DeliveryAddress: order.DeliveryAddress,
		CustomerName:    order.CustomerName,
		CustomerEmail:   order.CustomerEmail,
		CustomerPhone:   order.CustomerPhone,
	}
	if order.PaymentMethod != nil {
		method := order.PaymentMethod.String()
		req.PaymentMethod = &method
	}
	if order.DeliveryMethod != nil {
		method := order.DeliveryMethod.String()
		req.DeliveryMethod = &method
	}
	for _, item := range order.Items {
		req.Items = append(req.Items, ItemInput{ProductID: item.ProductID, Quantity: item.Quantity})
	}

	return s.Create(ctx, &actorID, req)
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeOrderNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	return order, nil
}

func (s *service) publishToUser(ctx context.Context, userID uuid.UUID, event string, payload any) {
	if s.publisher != nil {
		s.publisher.ToUser(ctx, userID, event, payload)
	}
}

func (s *service) publishToAdmins(ctx context.Context, event string, payload any) {
	if s.publisher != nil {
		s.publisher.ToAdmins(ctx, event, payload)
	}
}
