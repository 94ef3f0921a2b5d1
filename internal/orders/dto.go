package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vavipcommerce/vavip-backend/internal/users"
	"github.com/vavipcommerce/vavip-backend/pkg/auth"
	"github.com/vavipcommerce/vavip-backend/pkg/db/models"
	"github.com/vavipcommerce/vavip-backend/pkg/enums"
	"github.com/vavipcommerce/vavip-backend/pkg/pagination"
)

// ItemInput is one requested line at checkout.
type ItemInput struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,min=1"`
}

// CreateOrderRequest is the checkout payload. Customer fields are required
// for guests and optional for authenticated users.
type CreateOrderRequest struct {
	Items []ItemInput `json:"items" validate:"required,min=1,dive"`

	PaymentMethod  *string `json:"payment_method,omitempty" validate:"omitempty,oneof=cash card online"`
	DeliveryMethod *string `json:"delivery_method,omitempty" validate:"omitempty,oneof=courier pickup post"`

	DeliveryAddress string           `json:"delivery_address" validate:"omitempty,max=1000"`
	DeliveryCost    *decimal.Decimal `json:"delivery_cost,omitempty"`
	Discount        *decimal.Decimal `json:"discount,omitempty"`
	PromoCode       string           `json:"promo_code" validate:"omitempty,max=100"`

	CustomerName  string `json:"customer_name" validate:"omitempty,max=255"`
	CustomerEmail string `json:"customer_email" validate:"omitempty,email"`
	CustomerPhone string `json:"customer_phone" validate:"omitempty,max=32"`
	CustomerNote  string `json:"customer_note" validate:"omitempty,max=2000"`
}

// UpdateStatusRequest is the manager transition payload. Nil fields are left
// untouched.
type UpdateStatusRequest struct {
	Status        *string `json:"status,omitempty" validate:"omitempty,oneof=pending confirmed processing shipped delivered cancelled"`
	PaymentStatus *string `json:"payment_status,omitempty" validate:"omitempty,oneof=pending paid failed refunded"`
	AdminNote     *string `json:"admin_note,omitempty" validate:"omitempty,max=2000"`
}

// ListQuery narrows the order listing.
type ListQuery struct {
	All        bool
	Status     *enums.OrderStatus
	Pagination pagination.Params
}

// ItemDTO is the transport shape of a captured line.
type ItemDTO struct {
	ID           uuid.UUID       `json:"id"`
	ProductID    uuid.UUID       `json:"product_id"`
	ProductName  string          `json:"product_name"`
	ProductSKU   string          `json:"product_sku"`
	ProductImage string          `json:"product_image,omitempty"`
	Quantity     int             `json:"quantity"`
	Price        decimal.Decimal `json:"price"`
	Total        decimal.Decimal `json:"total"`
}

// OrderDTO is the transport shape of an order.
type OrderDTO struct {
	ID          uuid.UUID         `json:"id"`
	OrderNumber string            `json:"order_number"`
	UserID      uuid.UUID         `json:"user_id"`
	Status      enums.OrderStatus `json:"status"`

	PaymentStatus enums.PaymentStatus  `json:"payment_status"`
	PaymentMethod *enums.PaymentMethod `json:"payment_method,omitempty"`

	DeliveryMethod  *enums.DeliveryMethod `json:"delivery_method,omitempty"`
	DeliveryAddress string                `json:"delivery_address,omitempty"`
	DeliveryCost    decimal.Decimal       `json:"delivery_cost"`

	Subtotal decimal.Decimal `json:"subtotal"`
	Discount decimal.Decimal `json:"discount"`
	Total    decimal.Decimal `json:"total"`
	Currency enums.Currency  `json:"currency"`

	PromoCode     string `json:"promo_code,omitempty"`
	CustomerName  string `json:"customer_name,omitempty"`
	CustomerEmail string `json:"customer_email,omitempty"`
	CustomerPhone string `json:"customer_phone,omitempty"`
	CustomerNote  string `json:"customer_note,omitempty"`
	AdminNote     string `json:"admin_note,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	PaidAt      *time.Time `json:"paid_at,omitempty"`
	ShippedAt   *time.Time `json:"shipped_at,omitempty"`
	DeliveredAt *time.Time `json:"delivered_at,omitempty"`

	Items []ItemDTO `json:"items,omitempty"`
}

// CreateOrderResult carries the persisted order plus the session material
// minted when a guest account was provisioned during checkout.
type CreateOrderResult struct {
	Order          *OrderDTO       `json:"order"`
	AccountCreated bool            `json:"account_created,omitempty"`
	User           *users.UserDTO  `json:"user,omitempty"`
	Tokens         *auth.TokenPair `json:"tokens,omitempty"`
}

// FromItemModel converts a stored line to its transport shape.
func FromItemModel(m *models.OrderItem) ItemDTO {
	return ItemDTO{
		ID:           m.ID,
		ProductID:    m.ProductID,
		ProductName:  m.ProductName,
		ProductSKU:   m.ProductSKU,
		ProductImage: m.ProductImage,
		Quantity:     m.Quantity,
		Price:        m.Price,
		Total:        m.Total,
	}
}

// FromModel converts a stored order to its transport shape.
func FromModel(m *models.Order) *OrderDTO {
	dto := &OrderDTO{
		ID:              m.ID,
		OrderNumber:     m.OrderNumber,
		UserID:          m.UserID,
		Status:          m.Status,
		PaymentStatus:   m.PaymentStatus,
		PaymentMethod:   m.PaymentMethod,
		DeliveryMethod:  m.DeliveryMethod,
		DeliveryAddress: m.DeliveryAddress,
		DeliveryCost:    m.DeliveryCost,
		Subtotal:        m.Subtotal,
		Discount:        m.Discount,
		Total:           m.Total,
		Currency:        m.Currency,
		PromoCode:       m.PromoCode,
		CustomerName:    m.CustomerName,
		CustomerEmail:   m.CustomerEmail,
		CustomerPhone:   m.CustomerPhone,
		CustomerNote:    m.CustomerNote,
		AdminNote:       m.AdminNote,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
		PaidAt:          m.PaidAt,
		ShippedAt:       m.ShippedAt,
		DeliveredAt:     m.DeliveredAt,
	}
	for i := range m.Items {
		dto.Items = append(dto.Items, FromItemModel(&m.Items[i]))
	}
	return dto
}

// FromModels converts a page of orders, items omitted.
func FromModels(items []models.Order) []OrderDTO {
	out := make([]OrderDTO, 0, len(items))
	for i := range items {
		out = append(out, *FromModel(&items[i]))
	}
	return out
}
