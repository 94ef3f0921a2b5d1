package analytics

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/vavipcommerce/vavip-backend/pkg/db/models"
	"github.com/vavipcommerce/vavip-backend/pkg/enums"
)

// Repository runs the dashboard aggregate queries. Everything reads from the
// order snapshots so catalog edits never skew historical numbers.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds the repository to a database handle.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Stats collects the headline counters in one pass per table.
func (r *Repository) Stats(ctx context.Context, since time.Time) (*StatsDTO, error) {
	stats := &StatsDTO{}
	q := r.db.WithContext(ctx)

	if err := q.Model(&models.User{}).Count(&stats.TotalUsers).Error; err != nil {
		return nil, err
	}
	if err := q.Model(&models.User{}).Where("created_at >= ?", since).Count(&stats.NewUsers).Error; err != nil {
		return nil, err
	}
	if err := q.Model(&models.Product{}).Where("is_active = ?", true).Count(&stats.ActiveProducts).Error; err != nil {
		return nil, err
	}
	if err := q.Model(&models.Order{}).Count(&stats.TotalOrders).Error; err != nil {
		return nil, err
	}
	if err := q.Model(&models.Order{}).Where("created_at >= ?", since).Count(&stats.PeriodOrders).Error; err != nil {
		return nil, err
	}
	if err := q.Model(&models.Order{}).Where("status = ?", enums.OrderStatusPending).Count(&stats.PendingOrders).Error; err != nil {
		return nil, err
	}
	if err := q.Model(&models.Feedback{}).Where("is_read = ?", false).Count(&stats.UnreadFeedback).Error; err != nil {
		return nil, err
	}

	err := q.Model(&models.Order{}).
		Select("COALESCE(SUM(total), 0)").
		Where("payment_status = ? AND created_at >= ?", enums.PaymentStatusPaid, since).
		Scan(&stats.PeriodRevenue).Error
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// SalesChart groups paid orders by calendar day.
func (r *Repository) SalesChart(ctx context.Context, since time.Time) ([]SalesPoint, error) {
	points := []SalesPoint{}
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Select("DATE(created_at) AS day, COALESCE(SUM(total), 0) AS revenue, COUNT(*) AS orders").
		Where("payment_status = ? AND created_at >= ?", enums.PaymentStatusPaid, since).
		Group("DATE(created_at)").
		Order("day ASC").
		Scan(&points).Error
	return points, err
}

// TopProducts ranks line snapshots by units sold in the window.
func (r *Repository) TopProducts(ctx context.Context, since time.Time, limit int) ([]TopProduct, error) {
	rows := []TopProduct{}
	err := r.db.WithContext(ctx).
		Table("order_items").
		Select(`order_items.product_id,
			order_items.product_name,
			order_items.product_sku,
			SUM(order_items.quantity) AS quantity,
			COALESCE(SUM(order_items.total), 0) AS revenue`).
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.created_at >= ? AND orders.status <> ?", since, enums.OrderStatusCancelled).
		Group("order_items.product_id, order_items.product_name, order_items.product_sku").
		Order("quantity DESC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

// RecentOrders returns the latest orders, items omitted.
func (r *Repository) RecentOrders(ctx context.Context, limit int) ([]models.Order, error) {
	var items []models.Order
	err := r.db.WithContext(ctx).
		Order("created_at DESC, id ASC").
		Limit(limit).
		Find(&items).Error
	return items, err
}

// StatusBreakdown counts orders per lifecycle status.
func (r *Repository) StatusBreakdown(ctx context.Context) ([]StatusCount, error) {
	rows := []StatusCount{}
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Order("count DESC").
		Scan(&rows).Error
	return rows, err
}

// RevenueByCategory attributes paid line revenue to the product's current
// category.
func (r *Repository) RevenueByCategory(ctx context.Context, since time.Time) ([]CategoryRevenue, error) {
	rows := []CategoryRevenue{}
	err := r.db.WithContext(ctx).
		Table("order_items").
		Select(`COALESCE(categories.name, 'uncategorized') AS category_name,
			COALESCE(SUM(order_items.total), 0) AS revenue,
			SUM(order_items.quantity) AS quantity`).
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Joins("JOIN products ON products.id = order_items.product_id").
		Joins("LEFT JOIN categories ON categories.id = products.category_id").
		Where("orders.payment_status = ? AND orders.created_at >= ?", enums.PaymentStatusPaid, since).
		Group("categories.name").
		Order("revenue DESC").
		Scan(&rows).Error
	return rows, err
}
