package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vavipcommerce/vavip-backend/pkg/enums"
)

// Product is a sellable catalog entry.
type Product struct {
	ID               uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Name             string          `gorm:"column:name;not null"`
	Slug             string          `gorm:"column:slug;not null;uniqueIndex"`
	SKU              string          `gorm:"column:sku;not null;uniqueIndex"`
	Description      string          `gorm:"column:description;not null;default:''"`
	ShortDescription string          `gorm:"column:short_description;not null;default:''"`
	Price            decimal.Decimal `gorm:"column:price;type:numeric(10,2);not null"`
	OldPrice         *decimal.Decimal `gorm:"column:old_price;type:numeric(10,2)"`
	Currency         enums.Currency  `gorm:"column:currency;type:text;not null;default:'RUB'"`
	CategoryID       *uuid.UUID      `gorm:"column:category_id;type:uuid;index"`
	StockQuantity    *int            `gorm:"column:stock_quantity"`
	IsActive         bool            `gorm:"column:is_active;not null;default:true;index"`
	IsFeatured       bool            `gorm:"column:is_featured;not null;default:false"`
	SortOrder        int             `gorm:"column:sort_order;not null;default:0"`
	CreatedAt        time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time       `gorm:"column:updated_at;autoUpdateTime"`

	Category   *Category          `gorm:"foreignKey:CategoryID"`
	Images     []ProductImage     `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	Attributes []ProductAttribute `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
}

// MainImageURL returns the primary image, falling back to the first one.
func (p *Product) MainImageURL() string {
	if p == nil {
		return ""
	}
	for _, img := range p.Images {
		if img.IsMain {
			return img.URL
		}
	}
	if len(p.Images) > 0 {
		return p.Images[0].URL
	}
	return ""
}

// ProductImage is an ordered gallery entry for a product.
type ProductImage struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;not null;index"`
	URL       string    `gorm:"column:url;not null"`
	AltText   string    `gorm:"column:alt_text;not null;default:''"`
	IsMain    bool      `gorm:"column:is_main;not null;default:false"`
	SortOrder int       `gorm:"column:sort_order;not null;default:0"`
}

// ProductAttribute is a display key/value pair such as material or size.
type ProductAttribute struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;not null;index"`
	Name      string    `gorm:"column:name;not null"`
	Value     string    `gorm:"column:value;not null"`
	SortOrder int       `gorm:"column:sort_order;not null;default:0"`
}

// Favorite marks a product a user wants to find again. One row per
// user/product pair.
type Favorite struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex:uq_favorites_user_product"`
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;not null;uniqueIndex:uq_favorites_user_product"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`

	Product *Product `gorm:"foreignKey:ProductID"`
}
