package products

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vavipcommerce/vavip-backend/pkg/db/models"
	"github.com/vavipcommerce/vavip-backend/pkg/pagination"
)

func intPtr(v int) *int { return &v }

func TestListProducts_FiltersAndSort(t *testing.T) {
	conn := setupCatalogTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	shoes := mustCreateCategory(t, conn, "Shoes", "shoes", nil)

	mustCreateProduct(t, conn, &models.Product{
		Name: "Alpha Boot", Slug: "alpha-boot", SKU: "SKU-1",
		Price: decimal.NewFromInt(100), CategoryID: &shoes.ID,
	})
	mustCreateProduct(t, conn, &models.Product{
		Name: "Bravo Sneaker", Slug: "bravo-sneaker", SKU: "SKU-2",
		Price: decimal.NewFromInt(50), CategoryID: &shoes.ID,
	})
	mustCreateProduct(t, conn, &models.Product{
		Name: "Charlie Hat", Slug: "charlie-hat", SKU: "SKU-3",
		Price: decimal.NewFromInt(200),
	})

	page := pagination.Normalize(1, 20)

	byCategory, total, err := repo.ListProducts(ctx, ListFilter{
		CategoryID: &shoes.ID, ActiveOnly: true, SortColumn: "price",
	}, page)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, byCategory, 2)
	assert.Equal(t, "Bravo Sneaker", byCategory[0].Name)
	assert.Equal(t, "Alpha Boot", byCategory[1].Name)

	minPrice := "90"
	above, total, err := repo.ListProducts(ctx, ListFilter{
		MinPrice: &minPrice, ActiveOnly: true, SortColumn: "price", SortDesc: true,
	}, page)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, above, 2)
	assert.Equal(t, "Charlie Hat", above[0].Name)

	bySearch, total, err := repo.ListProducts(ctx, ListFilter{
		Search: "bravo", ActiveOnly: true,
	}, page)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, bySearch, 1)
	assert.Equal(t, "Bravo Sneaker", bySearch[0].Name)
}

func TestListProducts_SkipsInactive(t *testing.T) {
	conn := setupCatalogTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	p := mustCreateProduct(t, conn, &models.Product{
		Name: "Hidden", Slug: "hidden", SKU: "SKU-H", Price: decimal.NewFromInt(10),
	})
	require.NoError(t, conn.Model(&models.Product{}).Where("id = ?", p.ID).Update("is_active", false).Error)

	_, total, err := repo.ListProducts(ctx, ListFilter{ActiveOnly: true}, pagination.Normalize(1, 20))
	require.NoError(t, err)
	assert.Equal(t, int64(0), total)
}

func TestListProducts_Pagination(t *testing.T) {
	conn := setupCatalogTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		mustCreateProduct(t, conn, &models.Product{
			Name: "Item", Slug: "item-" + string(rune('a'+i)), SKU: "SKU-" + string(rune('a'+i)),
			Price: decimal.NewFromInt(int64(i + 1)),
		})
	}

	items, total, err := repo.ListProducts(ctx, ListFilter{
		ActiveOnly: true, SortColumn: "price",
	}, pagination.Normalize(2, 2))
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	require.Len(t, items, 2)
	assert.True(t, items[0].Price.Equal(decimal.NewFromInt(3)))
}

func TestFindBySlug_PreloadsAssociations(t *testing.T) {
	conn := setupCatalogTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	category := mustCreateCategory(t, conn, "Shoes", "shoes", nil)
	p := mustCreateProduct(t, conn, &models.Product{
		Name: "Alpha Boot", Slug: "alpha-boot", SKU: "SKU-1",
		Price: decimal.NewFromInt(100), CategoryID: &category.ID,
		Images: []models.ProductImage{
			{URL: "https://cdn.example.com/b.jpg", SortOrder: 2},
			{URL: "https://cdn.example.com/a.jpg", IsMain: true, SortOrder: 1},
		},
		Attributes: []models.ProductAttribute{
			{Name: "material", Value: "leather"},
		},
	})

	loaded, err := repo.FindBySlug(ctx, "alpha-boot")
	require.NoError(t, err)
	assert.Equal(t, p.ID, loaded.ID)
	require.NotNil(t, loaded.Category)
	assert.Equal(t, "shoes", loaded.Category.Slug)
	require.Len(t, loaded.Images, 2)
	assert.Equal(t, "https://cdn.example.com/a.jpg", loaded.Images[0].URL)
	assert.Equal(t, "https://cdn.example.com/a.jpg", loaded.MainImageURL())
	require.Len(t, loaded.Attributes, 1)
}

func TestAdjustStock_GuardsNegative(t *testing.T) {
	conn := setupCatalogTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	tracked := mustCreateProduct(t, conn, &models.Product{
		Name: "Tracked", Slug: "tracked", SKU: "SKU-T",
		Price: decimal.NewFromInt(10), StockQuantity: intPtr(3),
	})
	unlimited := mustCreateProduct(t, conn, &models.Product{
		Name: "Unlimited", Slug: "unlimited", SKU: "SKU-U",
		Price: decimal.NewFromInt(10),
	})

	affected, err := repo.AdjustStock(ctx, tracked.ID, -2)
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	affected, err = repo.AdjustStock(ctx, tracked.ID, -5)
	require.NoError(t, err)
	assert.Equal(t, int64(0), affected)

	var reloaded models.Product
	require.NoError(t, conn.First(&reloaded, "id = ?", tracked.ID).Error)
	require.NotNil(t, reloaded.StockQuantity)
	assert.Equal(t, 1, *reloaded.StockQuantity)

	affected, err = repo.AdjustStock(ctx, unlimited.ID, -5)
	require.NoError(t, err)
	assert.Equal(t, int64(0), affected)
	ok, err := repo.HasUnlimitedStock(ctx, unlimited.ID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestListRootCategories_TreeShape(t *testing.T) {
	conn := setupCatalogTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	root := mustCreateCategory(t, conn, "Clothing", "clothing", nil)
	mustCreateCategory(t, conn, "Jackets", "jackets", &root.ID)
	hiddenChild := mustCreateCategory(t, conn, "Archive", "archive", &root.ID)
	require.NoError(t, conn.Model(&models.Category{}).Where("id = ?", hiddenChild.ID).Update("is_active", false).Error)

	hiddenRoot := mustCreateCategory(t, conn, "Old", "old", nil)
	require.NoError(t, conn.Model(&models.Category{}).Where("id = ?", hiddenRoot.ID).Update("is_active", false).Error)

	roots, err := repo.ListRootCategories(ctx)
	require.NoError(t, err)
	require.Len(t, roots, 1)
	assert.Equal(t, "clothing", roots[0].Slug)
	require.Len(t, roots[0].Children, 1)
	assert.Equal(t, "jackets", roots[0].Children[0].Slug)
}
