package products

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/vavipcommerce/vavip-backend/pkg/cache"
	"github.com/vavipcommerce/vavip-backend/pkg/config"
	"github.com/vavipcommerce/vavip-backend/pkg/db/models"
	pkgerrors "github.com/vavipcommerce/vavip-backend/pkg/errors"
	"github.com/vavipcommerce/vavip-backend/pkg/pagination"
)

type memStore struct {
	data map[string]string
}

func newMemStore() *memStore {
	return &memStore{data: make(map[string]string)}
}

func (m *memStore) Get(ctx context.Context, key string) (string, error) {
	v, ok := m.data[key]
	if !ok {
		return "", errors.New("miss")
	}
	return v, nil
}

func (m *memStore) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	m.data[key] = value.(string)
	return nil
}

func (m *memStore) CacheKey(family, hash string) string {
	return "vavip:cache:" + family + ":" + hash
}

func (m *memStore) CacheFamilyPattern(family string) string {
	return "vavip:cache:" + family + ":"
}

func (m *memStore) DeleteByPattern(ctx context.Context, pattern string) (int64, error) {
	var n int64
	for key := range m.data {
		if strings.HasPrefix(key, pattern) {
			delete(m.data, key)
			n++
		}
	}
	return n, nil
}

func newCatalogService(t *testing.T, conn *gorm.DB, store cache.Store) Service {
	t.Helper()

	var c *cache.Cache
	if store != nil {
		var err error
		c, err = cache.New(store, nil)
		require.NoError(t, err)
	}

	svc, err := NewService(ServiceParams{
		Repo:        NewRepository(conn),
		Cache:       c,
		CacheConfig: config.CacheConfig{FeaturedTTL: time.Minute, CategoriesTTL: time.Minute},
	})
	require.NoError(t, err)
	return svc
}

func assertCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	var typed *pkgerrors.Error
	require.ErrorAs(t, err, &typed)
	assert.Equal(t, code, typed.Code())
}

func TestList_RejectsUnknownSort(t *testing.T) {
	conn := setupCatalogTestDB(t)
	svc := newCatalogService(t, conn, nil)

	_, err := svc.List(context.Background(), ListQuery{
		Sort:       "password_hash",
		Pagination: pagination.Normalize(1, 20),
	})
	assertCode(t, err, pkgerrors.CodeValidation)
}

func TestList_UnknownCategorySlugReturnsEmptyPage(t *testing.T) {
	conn := setupCatalogTestDB(t)
	svc := newCatalogService(t, conn, nil)

	mustCreateProduct(t, conn, &models.Product{
		Name: "Visible", Slug: "visible", SKU: "SKU-V", Price: decimal.NewFromInt(10),
	})

	page, err := svc.List(context.Background(), ListQuery{
		CategorySlug: "no-such-category",
		Pagination:   pagination.Normalize(1, 20),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), page.PageMeta.Total)
	items, ok := page.Items.([]ProductDTO)
	require.True(t, ok)
	assert.Empty(t, items)
}

func TestList_ZeroPaginationIsNormalized(t *testing.T) {
	conn := setupCatalogTestDB(t)
	svc := newCatalogService(t, conn, nil)

	page, err := svc.List(context.Background(), ListQuery{CategorySlug: "no-such-category"})
	require.NoError(t, err)
	assert.Equal(t, pagination.DefaultPerPage, page.PageMeta.PerPage)
	assert.Equal(t, 1, page.PageMeta.CurrentPage)
}

func TestCreateProduct_Conflicts(t *testing.T) {
	conn := setupCatalogTestDB(t)
	svc := newCatalogService(t, conn, nil)
	ctx := context.Background()

	mustCreateProduct(t, conn, &models.Product{
		Name: "Existing", Slug: "existing", SKU: "SKU-X", Price: decimal.NewFromInt(10),
	})

	_, err := svc.CreateProduct(ctx, CreateProductRequest{
		Name: "Dup", Slug: "  EXISTING  ", SKU: "SKU-NEW", Price: decimal.NewFromInt(5),
	})
	assertCode(t, err, pkgerrors.CodeSlugExists)

	_, err = svc.CreateProduct(ctx, CreateProductRequest{
		Name: "Dup", Slug: "fresh", SKU: "SKU-X", Price: decimal.NewFromInt(5),
	})
	assertCode(t, err, pkgerrors.CodeSKUExists)

	missing := uuid.New()
	_, err = svc.CreateProduct(ctx, CreateProductRequest{
		Name: "Dup", Slug: "fresh", SKU: "SKU-NEW", Price: decimal.NewFromInt(5),
		CategoryID: &missing,
	})
	assertCode(t, err, pkgerrors.CodeCategoryNotFound)
}

func TestCreateProduct_DefaultsAndAssociations(t *testing.T) {
	conn := setupCatalogTestDB(t)
	svc := newCatalogService(t, conn, nil)

	dto, err := svc.CreateProduct(context.Background(), CreateProductRequest{
		Name:  "  Alpha Boot  ",
		Slug:  "Alpha-Boot",
		SKU:   "SKU-1",
		Price: decimal.NewFromInt(100),
		Images: []ImageInput{
			{URL: "https://cdn.example.com/a.jpg", IsMain: true},
		},
		Attributes: []AttributeInput{
			{Name: "material", Value: "leather"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "Alpha Boot", dto.Name)
	assert.Equal(t, "alpha-boot", dto.Slug)
	assert.Equal(t, "RUB", string(dto.Currency))
	assert.True(t, dto.IsActive)
	require.Len(t, dto.Images, 1)
	require.Len(t, dto.Attributes, 1)
	assert.Equal(t, "https://cdn.example.com/a.jpg", dto.MainImage)
}

func TestAdjustStock_OutOfStock(t *testing.T) {
	conn := setupCatalogTestDB(t)
	svc := newCatalogService(t, conn, nil)
	ctx := context.Background()

	tracked := mustCreateProduct(t, conn, &models.Product{
		Name: "Tracked", Slug: "tracked", SKU: "SKU-T",
		Price: decimal.NewFromInt(10), StockQuantity: intPtr(1),
	})

	dto, err := svc.AdjustStock(ctx, tracked.ID, -1)
	require.NoError(t, err)
	require.NotNil(t, dto.StockQuantity)
	assert.Equal(t, 0, *dto.StockQuantity)

	_, err = svc.AdjustStock(ctx, tracked.ID, -1)
	assertCode(t, err, pkgerrors.CodeOutOfStock)

	unlimited := mustCreateProduct(t, conn, &models.Product{
		Name: "Unlimited", Slug: "unlimited", SKU: "SKU-U", Price: decimal.NewFromInt(10),
	})
	dto, err = svc.AdjustStock(ctx, unlimited.ID, -100)
	require.NoError(t, err)
	assert.Nil(t, dto.StockQuantity)
}

func TestFeatured_CachedAndInvalidated(t *testing.T) {
	conn := setupCatalogTestDB(t)
	store := newMemStore()
	svc := newCatalogService(t, conn, store)
	ctx := context.Background()

	featured := true
	mustCreateProduct(t, conn, &models.Product{
		Name: "Star", Slug: "star", SKU: "SKU-S",
		Price: decimal.NewFromInt(10), IsFeatured: true,
	})

	got, err := svc.Featured(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)

	// Seeding a second featured product directly does not show up until
	// the family is invalidated.
	mustCreateProduct(t, conn, &models.Product{
		Name: "Star 2", Slug: "star-2", SKU: "SKU-S2",
		Price: decimal.NewFromInt(10), IsFeatured: true,
	})
	got, err = svc.Featured(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	_, err = svc.CreateProduct(ctx, CreateProductRequest{
		Name: "Star 3", Slug: "star-3", SKU: "SKU-S3",
		Price: decimal.NewFromInt(10), IsFeatured: &featured,
	})
	require.NoError(t, err)

	got, err = svc.Featured(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestCategoryTree_CacheRoundTrip(t *testing.T) {
	conn := setupCatalogTestDB(t)
	store := newMemStore()
	svc := newCatalogService(t, conn, store)
	ctx := context.Background()

	root := mustCreateCategory(t, conn, "Clothing", "clothing", nil)
	mustCreateCategory(t, conn, "Jackets", "jackets", &root.ID)

	tree, err := svc.CategoryTree(ctx)
	require.NoError(t, err)
	require.Len(t, tree, 1)
	require.Len(t, tree[0].Children, 1)

	// Cached copy survives a JSON round trip with the same shape.
	var cachedKey string
	for key := range store.data {
		cachedKey = key
	}
	require.NotEmpty(t, cachedKey)
	var cached []CategoryDTO
	require.NoError(t, json.Unmarshal([]byte(store.data[cachedKey]), &cached))
	assert.Equal(t, tree, cached)

	_, err = svc.CreateCategory(ctx, CreateCategoryRequest{Name: "Shoes", Slug: "shoes"})
	require.NoError(t, err)

	tree, err = svc.CategoryTree(ctx)
	require.NoError(t, err)
	assert.Len(t, tree, 2)
}

func TestUpdateCategory_RejectsSelfParent(t *testing.T) {
	conn := setupCatalogTestDB(t)
	svc := newCatalogService(t, conn, nil)

	root := mustCreateCategory(t, conn, "Clothing", "clothing", nil)
	_, err := svc.UpdateCategory(context.Background(), root.ID, UpdateCategoryRequest{
		ParentID: &root.ID,
	})
	assertCode(t, err, pkgerrors.CodeValidation)
}

func TestDeleteProduct_NotFound(t *testing.T) {
	conn := setupCatalogTestDB(t)
	svc := newCatalogService(t, conn, nil)

	err := svc.DeleteProduct(context.Background(), uuid.New())
	assertCode(t, err, pkgerrors.CodeProductNotFound)
}

func TestFavorites_AddRemoveRoundTrip(t *testing.T) {
	conn := setupCatalogTestDB(t)
	svc := newCatalogService(t, conn, nil)
	ctx := context.Background()
	userID := uuid.New()

	product := mustCreateProduct(t, conn, &models.Product{
		Name: "Saved", Slug: "saved", SKU: "SKU-F1", Price: decimal.NewFromInt(10),
	})

	created, err := svc.AddFavorite(ctx, userID, product.ID)
	require.NoError(t, err)
	assert.True(t, created)

	// Saving the same product again is a no-op.
	created, err = svc.AddFavorite(ctx, userID, product.ID)
	require.NoError(t, err)
	assert.False(t, created)

	items, err := svc.ListFavorites(ctx, userID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, product.ID, items[0].ID)

	removed, err := svc.RemoveFavorite(ctx, userID, product.ID)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = svc.RemoveFavorite(ctx, userID, product.ID)
	require.NoError(t, err)
	assert.False(t, removed)

	items, err = svc.ListFavorites(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestAddFavorite_UnknownProduct(t *testing.T) {
	conn := setupCatalogTestDB(t)
	svc := newCatalogService(t, conn, nil)

	_, err := svc.AddFavorite(context.Background(), uuid.New(), uuid.New())
	assertCode(t, err, pkgerrors.CodeProductNotFound)
}

func TestListFavorites_SkipsDeactivatedProducts(t *testing.T) {
	conn := setupCatalogTestDB(t)
	svc := newCatalogService(t, conn, nil)
	ctx := context.Background()
	userID := uuid.New()

	keep := mustCreateProduct(t, conn, &models.Product{
		Name: "Keep", Slug: "keep", SKU: "SKU-F2", Price: decimal.NewFromInt(10),
	})
	hidden := mustCreateProduct(t, conn, &models.Product{
		Name: "Hidden", Slug: "hidden", SKU: "SKU-F3", Price: decimal.NewFromInt(10),
	})

	for _, p := range []*models.Product{keep, hidden} {
		created, err := svc.AddFavorite(ctx, userID, p.ID)
		require.NoError(t, err)
		require.True(t, created)
	}
	require.NoError(t, conn.Model(&models.Product{}).Where("id = ?", hidden.ID).Update("is_active", false).Error)

	items, err := svc.ListFavorites(ctx, userID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, keep.ID, items[0].ID)
}

func TestListFavorites_ScopedToUser(t *testing.T) {
	conn := setupCatalogTestDB(t)
	svc := newCatalogService(t, conn, nil)
	ctx := context.Background()

	product := mustCreateProduct(t, conn, &models.Product{
		Name: "Mine", Slug: "mine", SKU: "SKU-F4", Price: decimal.NewFromInt(10),
	})

	owner := uuid.New()
	created, err := svc.AddFavorite(ctx, owner, product.ID)
	require.NoError(t, err)
	require.True(t, created)

	items, err := svc.ListFavorites(ctx, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, items)
}
