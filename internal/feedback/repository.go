package feedback

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vavipcommerce/vavip-backend/pkg/db/models"
	"github.com/vavipcommerce/vavip-backend/pkg/enums"
	"github.com/vavipcommerce/vavip-backend/pkg/pagination"
)

// ListFilter narrows the feedback listing.
type ListFilter struct {
	Status *enums.FeedbackStatus
	IsRead *bool
}

// Repository wraps feedback persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds the repository to a database handle.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create persists a new message.
func (r *Repository) Create(ctx context.Context, entry *models.Feedback) (*models.Feedback, error) {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return nil, err
	}
	return entry, nil
}

// FindByID loads a message.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Feedback, error) {
	var entry models.Feedback
	if err := r.db.WithContext(ctx).First(&entry, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

// List returns messages newest first.
func (r *Repository) List(ctx context.Context, filter ListFilter, page pagination.Params) ([]models.Feedback, int64, error) {
	base := r.db.WithContext(ctx).Model(&models.Feedback{})
	if filter.Status != nil {
		base = base.Where("status = ?", *filter.Status)
	}
	if filter.IsRead != nil {
		base = base.Where("is_read = ?", *filter.IsRead)
	}

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []models.Feedback
	err := base.
		Order("created_at DESC, id ASC").
		Offset(page.Offset()).
		Limit(page.Limit()).
		Find(&items).Error
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// Update applies a partial column update.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.Feedback{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// Delete removes a message.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.Feedback{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CountUnread counts messages not yet opened by a manager.
func (r *Repository) CountUnread(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Feedback{}).
		Where("is_read = ?", false).
		Count(&count).Error
	return count, err
}
