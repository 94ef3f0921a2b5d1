package products

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vavipcommerce/vavip-backend/pkg/cache"
	"github.com/vavipcommerce/vavip-backend/pkg/config"
	"github.com/vavipcommerce/vavip-backend/pkg/db"
	"github.com/vavipcommerce/vavip-backend/pkg/db/models"
	"github.com/vavipcommerce/vavip-backend/pkg/enums"
	pkgerrors "github.com/vavipcommerce/vavip-backend/pkg/errors"
	"github.com/vavipcommerce/vavip-backend/pkg/pagination"
	"github.com/vavipcommerce/vavip-backend/pkg/types"
)

// Cache families owned by the catalog.
const (
	cacheFamilyFeatured   = "products_featured"
	cacheFamilyCategories = "categories"
)

const featuredLimit = 20

// Service defines the catalog behavior needed by the controllers.
type Service interface {
	List(ctx context.Context, query ListQuery) (*types.Page, error)
	GetBySlug(ctx context.Context, slug string) (*ProductDTO, error)
	GetByID(ctx context.Context, id uuid.UUID) (*ProductDTO, error)
	Featured(ctx context.Context) ([]ProductDTO, error)
	CategoryTree(ctx context.Context) ([]CategoryDTO, error)
	GetCategoryBySlug(ctx context.Context, slug string) (*CategoryDTO, error)

	CreateProduct(ctx context.Context, req CreateProductRequest) (*ProductDTO, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, req UpdateProductRequest) (*ProductDTO, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	AdjustStock(ctx context.Context, id uuid.UUID, delta int) (*ProductDTO, error)

	CreateCategory(ctx context.Context, req CreateCategoryRequest) (*CategoryDTO, error)
	UpdateCategory(ctx context.Context, id uuid.UUID, req UpdateCategoryRequest) (*CategoryDTO, error)
	DeleteCategory(ctx context.Context, id uuid.UUID) error

	AddFavorite(ctx context.Context, userID, productID uuid.UUID) (bool, error)
	RemoveFavorite(ctx context.Context, userID, productID uuid.UUID) (bool, error)
	ListFavorites(ctx context.Context, userID uuid.UUID) ([]ProductDTO, error)
}

type service struct {
	repo     *Repository
	cache    *cache.Cache
	cacheCfg config.CacheConfig
}

// ServiceParams bundles the dependencies required to build a catalog service.
type ServiceParams struct {
	Repo        *Repository
	Cache       *cache.Cache
	CacheConfig config.CacheConfig
}

// NewService constructs a catalog service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("repository is required")
	}
	return &service{
		repo:     params.Repo,
		cache:    params.Cache,
		cacheCfg: params.CacheConfig,
	}, nil
}

func (s *service) List(ctx context.Context, query ListQuery) (*types.Page, error) {
	sortColumn := strings.TrimSpace(query.Sort)
	sortDesc := strings.EqualFold(query.Order, "desc")
	if sortColumn == "" {
		sortColumn = "created_at"
		if query.Order == "" {
			sortDesc = true
		}
	}
	if _, ok := sortColumns[sortColumn]; !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unsupported sort field").
			WithDetails(map[string]any{"sort": sortColumn})
	}

	page := query.Pagination
	if page.PerPage == 0 {
		page = pagination.Normalize(page.Page, page.PerPage)
	}

	filter := ListFilter{
		Search:     query.Search,
		Featured:   query.Featured,
		ActiveOnly: true,
		SortColumn: sortColumn,
		SortDesc:   sortDesc,
	}
	if query.MinPrice != nil {
		v := query.MinPrice.String()
		filter.MinPrice = &v
	}
	if query.MaxPrice != nil {
		v := query.MaxPrice.String()
		filter.MaxPrice = &v
	}

	if slug := strings.TrimSpace(query.CategorySlug); slug != "" {
		category, err := s.repo.FindCategoryBySlug(ctx, slug)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// Unknown slug filters everything out rather than erroring.
				return &types.Page{Items: []ProductDTO{}, PageMeta: page.Meta(0)}, nil
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolve category")
		}
		filter.CategoryID = &category.ID
	}

	items, total, err := s.repo.ListProducts(ctx, filter, page)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list products")
	}
	return &types.Page{
		Items:    FromProductModels(items),
		PageMeta: page.Meta(total),
	}, nil
}

func (s *service) GetBySlug(ctx context.Context, slug string) (*ProductDTO, error) {
	product, err := s.repo.FindBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeProductNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	return FromProductModel(product), nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*ProductDTO, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeProductNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	return FromProductModel(product), nil
}

func (s *service) Featured(ctx context.Context) ([]ProductDTO, error) {
	compute := func(ctx context.Context) (any, error) {
		items, err := s.repo.ListFeatured(ctx, featuredLimit)
		if err != nil {
			return nil, err
		}
		return FromProductModels(items), nil
	}

	var out []ProductDTO
	if s.cache != nil {
		if err := s.cache.GetOrCompute(ctx, &out, s.cacheCfg.FeaturedTTL, cacheFamilyFeatured, nil, compute); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "featured products")
		}
		return out, nil
	}

	result, err := compute(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "featured products")
	}
	return result.([]ProductDTO), nil
}

func (s *service) CategoryTree(ctx context.Context) ([]CategoryDTO, error) {
	compute := func(ctx context.Context) (any, error) {
		roots, err := s.repo.ListRootCategories(ctx)
		if err != nil {
			return nil, err
		}
		out := make([]CategoryDTO, 0, len(roots))
		for i := range roots {
			out = append(out, *FromCategoryModel(&roots[i]))
		}
		return out, nil
	}

	var out []CategoryDTO
	if s.cache != nil {
		if err := s.cache.GetOrCompute(ctx, &out, s.cacheCfg.CategoriesTTL, cacheFamilyCategories, nil, compute); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "category tree")
		}
		return out, nil
	}

	result, err := compute(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "category tree")
	}
	return result.([]CategoryDTO), nil
}

func (s *service) GetCategoryBySlug(ctx context.Context, slug string) (*CategoryDTO, error) {
	category, err := s.repo.FindCategoryBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeCategoryNotFound, "category not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load category")
	}
	return FromCategoryModel(category), nil
}

func (s *service) CreateProduct(ctx context.Context, req CreateProductRequest) (*ProductDTO, error) {
	slug := normalizeSlug(req.Slug)
	if taken, err := s.repo.SlugInUse(ctx, slug, nil); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check slug")
	} else if taken {
		return nil, pkgerrors.New(pkgerrors.CodeSlugExists, "slug already in use")
	}
	if taken, err := s.repo.SKUInUse(ctx, req.SKU, nil); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check sku")
	} else if taken {
		return nil, pkgerrors.New(pkgerrors.CodeSKUExists, "sku already in use")
	}
	if req.CategoryID != nil {
		if _, err := s.repo.FindCategoryByID(ctx, *req.CategoryID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeCategoryNotFound, "category not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check category")
		}
	}
	if req.Price.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must not be negative")
	}

	product := &models.Product{
		Name:             strings.TrimSpace(req.Name),
		Slug:             slug,
		SKU:              strings.TrimSpace(req.SKU),
		Description:      req.Description,
		ShortDescription: req.ShortDescription,
		Price:            req.Price,
		OldPrice:         req.OldPrice,
		Currency:         enums.CurrencyRUB,
		CategoryID:       req.CategoryID,
		StockQuantity:    req.StockQuantity,
		IsActive:         true,
		SortOrder:        req.SortOrder,
	}
	if req.Currency != "" {
		currency, err := enums.ParseCurrency(req.Currency)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid currency")
		}
		product.Currency = currency
	}
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}
	if req.IsFeatured != nil {
		product.IsFeatured = *req.IsFeatured
	}
	for _, img := range req.Images {
		product.Images = append(product.Images, models.ProductImage{
			URL:       img.URL,
			AltText:   img.AltText,
			IsMain:    img.IsMain,
			SortOrder: img.SortOrder,
		})
	}
	for _, attr := range req.Attributes {
		product.Attributes = append(product.Attributes, models.ProductAttribute{
			Name:      attr.Name,
			Value:     attr.Value,
			SortOrder: attr.SortOrder,
		})
	}

	created, err := s.repo.CreateProduct(ctx, product)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create product")
	}

	s.invalidate(ctx, cacheFamilyFeatured)
	return s.GetByID(ctx, created.ID)
}

func (s *service) UpdateProduct(ctx context.Context, id uuid.UUID, req UpdateProductRequest) (*ProductDTO, error) {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeProductNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}

	updates := map[string]any{}

	if req.Slug != nil {
		slug := normalizeSlug(*req.Slug)
		if taken, err := s.repo.SlugInUse(ctx, slug, &id); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check slug")
		} else if taken {
			return nil, pkgerrors.New(pkgerrors.CodeSlugExists, "slug already in use")
		}
		updates["slug"] = slug
	}
	if req.SKU != nil {
		if taken, err := s.repo.SKUInUse(ctx, *req.SKU, &id); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check sku")
		} else if taken {
			return nil, pkgerrors.New(pkgerrors.CodeSKUExists, "sku already in use")
		}
		updates["sku"] = strings.TrimSpace(*req.SKU)
	}
	if req.CategoryID != nil {
		if _, err := s.repo.FindCategoryByID(ctx, *req.CategoryID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeCategoryNotFound, "category not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check category")
		}
		updates["category_id"] = *req.CategoryID
	}
	if req.Name != nil {
		updates["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.ShortDescription != nil {
		updates["short_description"] = *req.ShortDescription
	}
	if req.Price != nil {
		if req.Price.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must not be negative")
		}
		updates["price"] = *req.Price
	}
	if req.OldPrice != nil {
		updates["old_price"] = *req.OldPrice
	}
	if req.Currency != nil {
		currency, err := enums.ParseCurrency(*req.Currency)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid currency")
		}
		updates["currency"] = currency
	}
	if req.StockQuantity != nil {
		updates["stock_quantity"] = *req.StockQuantity
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if req.IsFeatured != nil {
		updates["is_featured"] = *req.IsFeatured
	}
	if req.SortOrder != nil {
		updates["sort_order"] = *req.SortOrder
	}

	if err := s.repo.UpdateProduct(ctx, id, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update product")
	}

	if req.Images != nil {
		images := make([]models.ProductImage, 0, len(*req.Images))
		for _, img := range *req.Images {
			images = append(images, models.ProductImage{
				ProductID: id,
				URL:       img.URL,
				AltText:   img.AltText,
				IsMain:    img.IsMain,
				SortOrder: img.SortOrder,
			})
		}
		if err := s.repo.ReplaceImages(ctx, id, images); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "replace images")
		}
	}
	if req.Attributes != nil {
		attrs := make([]models.ProductAttribute, 0, len(*req.Attributes))
		for _, attr := range *req.Attributes {
			attrs = append(attrs, models.ProductAttribute{
				ProductID: id,
				Name:      attr.Name,
				Value:     attr.Value,
				SortOrder: attr.SortOrder,
			})
		}
		if err := s.repo.ReplaceAttributes(ctx, id, attrs); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "replace attributes")
		}
	}

	s.invalidate(ctx, cacheFamilyFeatured)
	return s.GetByID(ctx, id)
}

func (s *service) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeleteProduct(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeProductNotFound, "product not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete product")
	}
	s.invalidate(ctx, cacheFamilyFeatured)
	return nil
}

func (s *service) AdjustStock(ctx context.Context, id uuid.UUID, delta int) (*ProductDTO, error) {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeProductNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}

	affected, err := s.repo.AdjustStock(ctx, id, delta)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "adjust stock")
	}
	if affected == 0 {
		unlimited, err := s.repo.HasUnlimitedStock(ctx, id)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "adjust stock")
		}
		if !unlimited {
			return nil, pkgerrors.New(pkgerrors.CodeOutOfStock, "stock cannot go negative").
				WithDetails(map[string]any{"delta": delta})
		}
	}

	s.invalidate(ctx, cacheFamilyFeatured)
	return s.GetByID(ctx, id)
}

func (s *service) CreateCategory(ctx context.Context, req CreateCategoryRequest) (*CategoryDTO, error) {
	slug := normalizeSlug(req.Slug)
	if taken, err := s.repo.CategorySlugInUse(ctx, slug, nil); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check slug")
	} else if taken {
		return nil, pkgerrors.New(pkgerrors.CodeSlugExists, "slug already in use")
	}
	if req.ParentID != nil {
		if _, err := s.repo.FindCategoryByID(ctx, *req.ParentID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeCategoryNotFound, "parent category not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check parent")
		}
	}

	category := &models.Category{
		Name:        strings.TrimSpace(req.Name),
		Slug:        slug,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		ParentID:    req.ParentID,
		IsActive:    true,
		SortOrder:   req.SortOrder,
	}
	if req.IsActive != nil {
		category.IsActive = *req.IsActive
	}

	created, err := s.repo.CreateCategory(ctx, category)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create category")
	}

	s.invalidate(ctx, cacheFamilyCategories)
	return FromCategoryModel(created), nil
}

func (s *service) UpdateCategory(ctx context.Context, id uuid.UUID, req UpdateCategoryRequest) (*CategoryDTO, error) {
	if _, err := s.repo.FindCategoryByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeCategoryNotFound, "category not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load category")
	}

	updates := map[string]any{}
	if req.Slug != nil {
		slug := normalizeSlug(*req.Slug)
		if taken, err := s.repo.CategorySlugInUse(ctx, slug, &id); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check slug")
		} else if taken {
			return nil, pkgerrors.New(pkgerrors.CodeSlugExists, "slug already in use")
		}
		updates["slug"] = slug
	}
	if req.ParentID != nil {
		if *req.ParentID == id {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "category cannot be its own parent")
		}
		if _, err := s.repo.FindCategoryByID(ctx, *req.ParentID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeCategoryNotFound, "parent category not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check parent")
		}
		updates["parent_id"] = *req.ParentID
	}
	if req.Name != nil {
		updates["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.ImageURL != nil {
		updates["image_url"] = *req.ImageURL
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if req.SortOrder != nil {
		updates["sort_order"] = *req.SortOrder
	}

	if err := s.repo.UpdateCategory(ctx, id, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update category")
	}

	s.invalidate(ctx, cacheFamilyCategories)

	category, err := s.repo.FindCategoryByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload category")
	}
	return FromCategoryModel(category), nil
}

func (s *service) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeleteCategory(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeCategoryNotFound, "category not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete category")
	}
	s.invalidate(ctx, cacheFamilyCategories, cacheFamilyFeatured)
	return nil
}

// AddFavorite saves the product for the user. Returns false when the pair
// already exists.
func (s *service) AddFavorite(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	if _, err := s.repo.FindByID(ctx, productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, pkgerrors.New(pkgerrors.CodeProductNotFound, "product not found")
		}
		return false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}

	exists, err := s.repo.FavoriteExists(ctx, userID, productID)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check favorite")
	}
	if exists {
		return false, nil
	}

	fav := &models.Favorite{UserID: userID, ProductID: productID}
	if err := s.repo.CreateFavorite(ctx, fav); err != nil {
		// A concurrent save of the same pair is not an error.
		if db.IsUniqueViolation(err, "uq_favorites_user_product") {
			return false, nil
		}
		return false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save favorite")
	}
	return true, nil
}

// RemoveFavorite drops the pair if present. Removing a product that was never
// saved is a no-op.
func (s *service) RemoveFavorite(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	affected, err := s.repo.DeleteFavorite(ctx, userID, productID)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "remove favorite")
	}
	return affected > 0, nil
}

func (s *service) ListFavorites(ctx context.Context, userID uuid.UUID) ([]ProductDTO, error) {
	items, err := s.repo.ListFavoriteProducts(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list favorites")
	}
	return FromProductModels(items), nil
}

func (s *service) invalidate(ctx context.Context, families ...string) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, families...)
	}
}

func normalizeSlug(slug string) string {
	return strings.ToLower(strings.TrimSpace(slug))
}
