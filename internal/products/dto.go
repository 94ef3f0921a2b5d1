package products

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vavipcommerce/vavip-backend/pkg/db/models"
	"github.com/vavipcommerce/vavip-backend/pkg/enums"
	"github.com/vavipcommerce/vavip-backend/pkg/pagination"
)

// ListQuery captures the browse endpoint knobs after parsing.
type ListQuery struct {
	CategorySlug string
	Search       string
	MinPrice     *decimal.Decimal
	MaxPrice     *decimal.Decimal
	Featured     *bool
	Sort         string
	Order        string
	Pagination   pagination.Params
}

// ProductDTO is the catalog transport shape.
type ProductDTO struct {
	ID               uuid.UUID        `json:"id"`
	Name             string           `json:"name"`
	Slug             string           `json:"slug"`
	SKU              string           `json:"sku"`
	Description      string           `json:"description,omitempty"`
	ShortDescription string           `json:"short_description,omitempty"`
	Price            decimal.Decimal  `json:"price"`
	OldPrice         *decimal.Decimal `json:"old_price,omitempty"`
	Currency         enums.Currency   `json:"currency"`
	StockQuantity    *int             `json:"stock_quantity,omitempty"`
	IsActive         bool             `json:"is_active"`
	IsFeatured       bool             `json:"is_featured"`
	SortOrder        int              `json:"sort_order"`
	MainImage        string           `json:"main_image,omitempty"`
	Category         *CategoryDTO     `json:"category,omitempty"`
	Images           []ImageDTO       `json:"images,omitempty"`
	Attributes       []AttributeDTO   `json:"attributes,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// ImageDTO is a gallery entry.
type ImageDTO struct {
	ID        uuid.UUID `json:"id"`
	URL       string    `json:"url"`
	AltText   string    `json:"alt_text,omitempty"`
	IsMain    bool      `json:"is_main"`
	SortOrder int       `json:"sort_order"`
}

// AttributeDTO is a display key/value pair.
type AttributeDTO struct {
	Name      string `json:"name"`
	Value     string `json:"value"`
	SortOrder int    `json:"sort_order"`
}

// CategoryDTO is the category transport shape.
type CategoryDTO struct {
	ID          uuid.UUID     `json:"id"`
	Name        string        `json:"name"`
	Slug        string        `json:"slug"`
	Description string        `json:"description,omitempty"`
	ImageURL    string        `json:"image_url,omitempty"`
	ParentID    *uuid.UUID    `json:"parent_id,omitempty"`
	IsActive    bool          `json:"is_active"`
	SortOrder   int           `json:"sort_order"`
	Children    []CategoryDTO `json:"children,omitempty"`
}

// ImageInput is the write shape for gallery entries.
type ImageInput struct {
	URL       string `json:"url" validate:"required,url"`
	AltText   string `json:"alt_text" validate:"omitempty,max=255"`
	IsMain    bool   `json:"is_main"`
	SortOrder int    `json:"sort_order"`
}

// AttributeInput is the write shape for attributes.
type AttributeInput struct {
	Name      string `json:"name" validate:"required,max=100"`
	Value     string `json:"value" validate:"required,max=500"`
	SortOrder int    `json:"sort_order"`
}

// CreateProductRequest is the manager create payload.
type CreateProductRequest struct {
	Name             string           `json:"name" validate:"required,max=255"`
	Slug             string           `json:"slug" validate:"required,max=255"`
	SKU              string           `json:"sku" validate:"required,max=100"`
	Description      string           `json:"description" validate:"omitempty"`
	ShortDescription string           `json:"short_description" validate:"omitempty,max=500"`
	Price            decimal.Decimal  `json:"price" validate:"required"`
	OldPrice         *decimal.Decimal `json:"old_price,omitempty"`
	Currency         string           `json:"currency" validate:"omitempty,oneof=RUB USD EUR"`
	CategoryID       *uuid.UUID       `json:"category_id,omitempty"`
	StockQuantity    *int             `json:"stock_quantity,omitempty" validate:"omitempty,min=0"`
	IsActive         *bool            `json:"is_active,omitempty"`
	IsFeatured       *bool            `json:"is_featured,omitempty"`
	SortOrder        int              `json:"sort_order"`
	Images           []ImageInput     `json:"images" validate:"omitempty,dive"`
	Attributes       []AttributeInput `json:"attributes" validate:"omitempty,dive"`
}

// UpdateProductRequest is the manager update payload. Nil leaves a field
// untouched; Images/Attributes replace the whole set when present.
type UpdateProductRequest struct {
	Name             *string           `json:"name,omitempty" validate:"omitempty,max=255"`
	Slug             *string           `json:"slug,omitempty" validate:"omitempty,max=255"`
	SKU              *string           `json:"sku,omitempty" validate:"omitempty,max=100"`
	Description      *string           `json:"description,omitempty"`
	ShortDescription *string           `json:"short_description,omitempty" validate:"omitempty,max=500"`
	Price            *decimal.Decimal  `json:"price,omitempty"`
	OldPrice         *decimal.Decimal  `json:"old_price,omitempty"`
	Currency         *string           `json:"currency,omitempty" validate:"omitempty,oneof=RUB USD EUR"`
	CategoryID       *uuid.UUID        `json:"category_id,omitempty"`
	StockQuantity    *int              `json:"stock_quantity,omitempty" validate:"omitempty,min=0"`
	IsActive         *bool             `json:"is_active,omitempty"`
	IsFeatured       *bool             `json:"is_featured,omitempty"`
	SortOrder        *int              `json:"sort_order,omitempty"`
	Images           *[]ImageInput     `json:"images,omitempty" validate:"omitempty,dive"`
	Attributes       *[]AttributeInput `json:"attributes,omitempty" validate:"omitempty,dive"`
}

// AdjustStockRequest changes the available quantity by a signed delta.
type AdjustStockRequest struct {
	Delta int `json:"delta" validate:"required"`
}

// CreateCategoryRequest is the manager category create payload.
type CreateCategoryRequest struct {
	Name        string     `json:"name" validate:"required,max=255"`
	Slug        string     `json:"slug" validate:"required,max=255"`
	Description string     `json:"description" validate:"omitempty"`
	ImageURL    string     `json:"image_url" validate:"omitempty,url"`
	ParentID    *uuid.UUID `json:"parent_id,omitempty"`
	IsActive    *bool      `json:"is_active,omitempty"`
	SortOrder   int        `json:"sort_order"`
}

// UpdateCategoryRequest is the manager category update payload.
type UpdateCategoryRequest struct {
	Name        *string    `json:"name,omitempty" validate:"omitempty,max=255"`
	Slug        *string    `json:"slug,omitempty" validate:"omitempty,max=255"`
	Description *string    `json:"description,omitempty"`
	ImageURL    *string    `json:"image_url,omitempty" validate:"omitempty,url"`
	ParentID    *uuid.UUID `json:"parent_id,omitempty"`
	IsActive    *bool      `json:"is_active,omitempty"`
	SortOrder   *int       `json:"sort_order,omitempty"`
}

// FromProductModel converts a model with its preloaded associations.
func FromProductModel(p *models.Product) *ProductDTO {
	if p == nil {
		return nil
	}

	dto := &ProductDTO{
		ID:               p.ID,
		Name:             p.Name,
		Slug:             p.Slug,
		SKU:              p.SKU,
		Description:      p.Description,
		ShortDescription: p.ShortDescription,
		Price:            p.Price,
		OldPrice:         p.OldPrice,
		Currency:         p.Currency,
		StockQuantity:    p.StockQuantity,
		IsActive:         p.IsActive,
		IsFeatured:       p.IsFeatured,
		SortOrder:        p.SortOrder,
		MainImage:        p.MainImageURL(),
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
	if p.Category != nil {
		dto.Category = FromCategoryModel(p.Category)
	}
	for _, img := range p.Images {
		dto.Images = append(dto.Images, ImageDTO{
			ID:        img.ID,
			URL:       img.URL,
			AltText:   img.AltText,
			IsMain:    img.IsMain,
			SortOrder: img.SortOrder,
		})
	}
	for _, attr := range p.Attributes {
		dto.Attributes = append(dto.Attributes, AttributeDTO{
			Name:      attr.Name,
			Value:     attr.Value,
			SortOrder: attr.SortOrder,
		})
	}
	return dto
}

// FromCategoryModel converts a category and its children.
func FromCategoryModel(c *models.Category) *CategoryDTO {
	if c == nil {
		return nil
	}

	dto := &CategoryDTO{
		ID:          c.ID,
		Name:        c.Name,
		Slug:        c.Slug,
		Description: c.Description,
		ImageURL:    c.ImageURL,
		ParentID:    c.ParentID,
		IsActive:    c.IsActive,
		SortOrder:   c.SortOrder,
	}
	for i := range c.Children {
		dto.Children = append(dto.Children, *FromCategoryModel(&c.Children[i]))
	}
	return dto
}

// FromProductModels converts a slice keeping the order.
func FromProductModels(items []models.Product) []ProductDTO {
	out := make([]ProductDTO, 0, len(items))
	for i := range items {
		out = append(out, *FromProductModel(&items[i]))
	}
	return out
}
