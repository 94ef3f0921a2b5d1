package analytics

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vavipcommerce/vavip-backend/pkg/enums"
)

// StatsDTO is the dashboard headline block.
type StatsDTO struct {
	TotalUsers     int64           `json:"total_users"`
	ActiveProducts int64           `json:"active_products"`
	TotalOrders    int64           `json:"total_orders"`
	PeriodOrders   int64           `json:"period_orders"`
	NewUsers       int64           `json:"new_users"`
	PeriodRevenue  decimal.Decimal `json:"period_revenue"`
	PendingOrders  int64           `json:"pending_orders"`
	UnreadFeedback int64           `json:"unread_feedback"`
	Days           int             `json:"days"`
}

// SalesPoint is one calendar day of paid revenue.
type SalesPoint struct {
	Day     string          `json:"day"`
	Revenue decimal.Decimal `json:"revenue"`
	Orders  int64           `json:"orders"`
}

// TopProduct is one best seller aggregated from order line snapshots.
type TopProduct struct {
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	ProductSKU  string          `json:"product_sku"`
	Quantity    int64           `json:"quantity"`
	Revenue     decimal.Decimal `json:"revenue"`
}

// StatusCount is one slice of the order status breakdown.
type StatusCount struct {
	Status enums.OrderStatus `json:"status"`
	Count  int64             `json:"count"`
}

// CategoryRevenue is paid revenue attributed to one category.
type CategoryRevenue struct {
	CategoryName string          `json:"category_name"`
	Revenue      decimal.Decimal `json:"revenue"`
	Quantity     int64           `json:"quantity"`
}

// UpdateUserRequest is the admin user management payload.
type UpdateUserRequest struct {
	Role     *string `json:"role,omitempty" validate:"omitempty,oneof=customer manager admin"`
	IsActive *bool   `json:"is_active,omitempty"`
}
