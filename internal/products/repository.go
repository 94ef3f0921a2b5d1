package products

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vavipcommerce/vavip-backend/pkg/db/models"
	"github.com/vavipcommerce/vavip-backend/pkg/pagination"
)

// Sortable columns for the browse endpoint. Anything else is rejected at the
// service layer.
var sortColumns = map[string]string{
	"created_at": "created_at",
	"price":      "price",
	"name":       "name",
	"sort_order": "sort_order",
}

// ListFilter narrows the product listing at the SQL level.
type ListFilter struct {
	CategoryID *uuid.UUID
	Search     string
	MinPrice   *string
	MaxPrice   *string
	Featured   *bool
	ActiveOnly bool
	SortColumn string
	SortDesc   bool
}

// Repository wires together catalog persistence helpers.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

func (r *Repository) applyFilter(query *gorm.DB, filter ListFilter) *gorm.DB {
	if filter.ActiveOnly {
		query = query.Where("is_active = ?", true)
	}
	if filter.CategoryID != nil {
		query = query.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.Featured != nil {
		query = query.Where("is_featured = ?", *filter.Featured)
	}
	if filter.MinPrice != nil {
		query = query.Where("price >= ?", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		query = query.Where("price <= ?", *filter.MaxPrice)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where(
			"LOWER(name) LIKE ? OR LOWER(description) LIKE ? OR LOWER(sku) LIKE ?",
			pattern, pattern, pattern,
		)
	}
	return query
}

// ListProducts returns a filtered page with preloaded associations and the
// total count before pagination.
func (r *Repository) ListProducts(ctx context.Context, filter ListFilter, page pagination.Params) ([]models.Product, int64, error) {
	base := r.applyFilter(r.db.WithContext(ctx).Model(&models.Product{}), filter)

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	column, ok := sortColumns[filter.SortColumn]
	if !ok {
		column = "created_at"
		filter.SortDesc = true
	}
	direction := "ASC"
	if filter.SortDesc {
		direction = "DESC"
	}

	var items []models.Product
	err := base.
		Preload("Category").
		Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order ASC") }).
		Order(column + " " + direction).
		Order("id ASC").
		Offset(page.Offset()).
		Limit(page.Limit()).
		Find(&items).Error
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// ListFeatured returns active featured products ordered for display.
func (r *Repository) ListFeatured(ctx context.Context, limit int) ([]models.Product, error) {
	var items []models.Product
	err := r.db.WithContext(ctx).
		Where("is_active = ? AND is_featured = ?", true, true).
		Preload("Category").
		Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order ASC") }).
		Order("sort_order ASC").
		Order("created_at DESC").
		Limit(limit).
		Find(&items).Error
	return items, err
}

func (r *Repository) detailQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Category").
		Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order ASC") }).
		Preload("Attributes", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order ASC") })
}

// FindBySlug loads the full product detail by slug.
func (r *Repository) FindBySlug(ctx context.Context, slug string) (*models.Product, error) {
	var product models.Product
	if err := r.detailQuery(ctx).First(&product, "slug = ?", slug).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindByID loads the full product detail by id.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.detailQuery(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// ListActiveByIDs loads active products for the given ids, images included so
// order snapshots can capture the main image.
func (r *Repository) ListActiveByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var items []models.Product
	err := r.db.WithContext(ctx).
		Where("id IN ? AND is_active = ?", ids, true).
		Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order ASC") }).
		Find(&items).Error
	return items, err
}

// CreateProduct inserts a new product row.
func (r *Repository) CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// UpdateProduct applies the provided column updates.
func (r *Repository) UpdateProduct(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// DeleteProduct removes the product row; images and attributes cascade.
func (r *Repository) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.Product{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ReplaceImages swaps the product's gallery for the provided set.
func (r *Repository) ReplaceImages(ctx context.Context, productID uuid.UUID, images []models.ProductImage) error {
	tx := r.db.WithContext(ctx)
	if err := tx.Where("product_id = ?", productID).Delete(&models.ProductImage{}).Error; err != nil {
		return err
	}
	if len(images) == 0 {
		return nil
	}
	return tx.Create(&images).Error
}

// ReplaceAttributes swaps the product's attribute set.
func (r *Repository) ReplaceAttributes(ctx context.Context, productID uuid.UUID, attrs []models.ProductAttribute) error {
	tx := r.db.WithContext(ctx)
	if err := tx.Where("product_id = ?", productID).Delete(&models.ProductAttribute{}).Error; err != nil {
		return err
	}
	if len(attrs) == 0 {
		return nil
	}
	return tx.Create(&attrs).Error
}

// AdjustStock applies a signed delta, refusing to drop below zero. Rows with
// NULL stock are unlimited and left untouched. Returns the affected row count
// so callers can tell a guarded no-op from success.
func (r *Repository) AdjustStock(ctx context.Context, id uuid.UUID, delta int) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND stock_quantity IS NOT NULL AND stock_quantity + ? >= 0", id, delta).
		UpdateColumn("stock_quantity", gorm.Expr("stock_quantity + ?", delta))
	return result.RowsAffected, result.Error
}

// HasUnlimitedStock reports whether the product tracks stock at all.
func (r *Repository) HasUnlimitedStock(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND stock_quantity IS NULL", id).
		Count(&count).Error
	return count > 0, err
}

// SlugInUse reports whether another product already claims the slug.
func (r *Repository) SlugInUse(ctx context.Context, slug string, excludeID *uuid.UUID) (bool, error) {
	query := r.db.WithContext(ctx).Model(&models.Product{}).Where("slug = ?", slug)
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}
	var count int64
	err := query.Count(&count).Error
	return count > 0, err
}

// FavoriteExists reports whether the user already saved the product.
func (r *Repository) FavoriteExists(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Favorite{}).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Count(&count).Error
	return count > 0, err
}

// CreateFavorite inserts a user/product pair.
func (r *Repository) CreateFavorite(ctx context.Context, fav *models.Favorite) error {
	return r.db.WithContext(ctx).Create(fav).Error
}

// DeleteFavorite removes the pair and returns the affected row count so the
// caller can tell a no-op apart.
func (r *Repository) DeleteFavorite(ctx context.Context, userID, productID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&models.Favorite{})
	return result.RowsAffected, result.Error
}

// ListFavoriteProducts returns the user's saved products that are still
// active, most recently saved first.
func (r *Repository) ListFavoriteProducts(ctx context.Context, userID uuid.UUID) ([]models.Product, error) {
	var items []models.Product
	err := r.db.WithContext(ctx).
		Joins("JOIN favorites ON favorites.product_id = products.id").
		Where("favorites.user_id = ? AND products.is_active = ?", userID, true).
		Preload("Category").
		Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order ASC") }).
		Order("favorites.created_at DESC").
		Find(&items).Error
	return items, err
}

// SKUInUse reports whether another product already claims the sku.
func (r *Repository) SKUInUse(ctx context.Context, sku string, excludeID *uuid.UUID) (bool, error) {
	query := r.db.WithContext(ctx).Model(&models.Product{}).Where("sku = ?", sku)
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}
	var count int64
	err := query.Count(&count).Error
	return count > 0, err
}

// CountActive reports the number of active products.
func (r *Repository) CountActive(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("is_active = ?", true).
		Count(&total).Error
	return total, err
}

// ListRootCategories returns active root categories with their active
// children, both ordered for display.
func (r *Repository) ListRootCategories(ctx context.Context) ([]models.Category, error) {
	var roots []models.Category
	err := r.db.WithContext(ctx).
		Where("parent_id IS NULL AND is_active = ?", true).
		Preload("Children", func(db *gorm.DB) *gorm.DB {
			return db.Where("is_active = ?", true).Order("sort_order ASC").Order("name ASC")
		}).
		Order("sort_order ASC").
		Order("name ASC").
		Find(&roots).Error
	return roots, err
}

// FindCategoryBySlug loads a category with children.
func (r *Repository) FindCategoryBySlug(ctx context.Context, slug string) (*models.Category, error) {
	var category models.Category
	err := r.db.WithContext(ctx).
		Preload("Children", func(db *gorm.DB) *gorm.DB {
			return db.Where("is_active = ?", true).Order("sort_order ASC")
		}).
		First(&category, "slug = ?", slug).Error
	if err != nil {
		return nil, err
	}
	return &category, nil
}

// FindCategoryByID loads a category without associations.
func (r *Repository) FindCategoryByID(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	var category models.Category
	if err := r.db.WithContext(ctx).First(&category, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

// CreateCategory inserts a new category row.
func (r *Repository) CreateCategory(ctx context.Context, category *models.Category) (*models.Category, error) {
	if err := r.db.WithContext(ctx).Create(category).Error; err != nil {
		return nil, err
	}
	return category, nil
}

// UpdateCategory applies the provided column updates.
func (r *Repository) UpdateCategory(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.Category{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// DeleteCategory removes the category; product links are severed by the
// ON DELETE SET NULL constraint.
func (r *Repository) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.Category{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CategorySlugInUse reports whether another category already claims the slug.
func (r *Repository) CategorySlugInUse(ctx context.Context, slug string, excludeID *uuid.UUID) (bool, error) {
	query := r.db.WithContext(ctx).Model(&models.Category{}).Where("slug = ?", slug)
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}
	var count int64
	err := query.Count(&count).Error
	return count > 0, err
}
