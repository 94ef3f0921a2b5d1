package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vavipcommerce/vavip-backend/pkg/enums"
)

// Order is the purchase record. Money fields are computed server side at
// creation and never recalculated from the items afterwards.
type Order struct {
	ID          uuid.UUID         `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	OrderNumber string            `gorm:"column:order_number;not null;uniqueIndex"`
	UserID      uuid.UUID         `gorm:"column:user_id;type:uuid;not null;index"`
	Status      enums.OrderStatus `gorm:"column:status;type:text;not null;default:'pending';index"`

	PaymentStatus enums.PaymentStatus  `gorm:"column:payment_status;type:text;not null;default:'pending'"`
	PaymentMethod *enums.PaymentMethod `gorm:"column:payment_method;type:text"`

	DeliveryMethod  *enums.DeliveryMethod `gorm:"column:delivery_method;type:text"`
	DeliveryAddress string                `gorm:"column:delivery_address;not null;default:''"`
	DeliveryCost    decimal.Decimal       `gorm:"column:delivery_cost;type:numeric(10,2);not null;default:0"`

	Subtotal decimal.Decimal `gorm:"column:subtotal;type:numeric(10,2);not null"`
	Discount decimal.Decimal `gorm:"column:discount;type:numeric(10,2);not null;default:0"`
	Total    decimal.Decimal `gorm:"column:total;type:numeric(10,2);not null"`
	Currency enums.Currency  `gorm:"column:currency;type:text;not null;default:'RUB'"`

	PromoCode     string `gorm:"column:promo_code;not null;default:''"`
	CustomerName  string `gorm:"column:customer_name;not null;default:''"`
	CustomerEmail string `gorm:"column:customer_email;not null;default:''"`
	CustomerPhone string `gorm:"column:customer_phone;not null;default:''"`
	CustomerNote  string `gorm:"column:customer_note;not null;default:''"`
	AdminNote     string `gorm:"column:admin_note;not null;default:''"`

	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime;index"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime"`
	PaidAt      *time.Time `gorm:"column:paid_at"`
	ShippedAt   *time.Time `gorm:"column:shipped_at"`
	DeliveredAt *time.Time `gorm:"column:delivered_at"`

	User  *User       `gorm:"foreignKey:UserID"`
	Items []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

// OrderItem is a line captured at checkout. Product fields are snapshots so
// later catalog edits never rewrite order history.
type OrderItem struct {
	ID      uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID uuid.UUID `gorm:"column:order_id;type:uuid;not null;index"`

	ProductID    uuid.UUID `gorm:"column:product_id;type:uuid;not null;index"`
	ProductName  string    `gorm:"column:product_name;not null"`
	ProductSKU   string    `gorm:"column:product_sku;not null"`
	ProductImage string    `gorm:"column:product_image;not null;default:''"`

	Quantity int             `gorm:"column:quantity;not null"`
	Price    decimal.Decimal `gorm:"column:price;type:numeric(10,2);not null"`
	Total    decimal.Decimal `gorm:"column:total;type:numeric(10,2);not null"`
}
