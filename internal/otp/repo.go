package otp

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vavipcommerce/vavip-backend/pkg/db/models"
)

// Repository exposes phone code persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs an otp repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a copy of the repository bound to the transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// Create inserts a new code row for the phone.
func (r *Repository) Create(ctx context.Context, row *models.PhoneOTP) error {
	return r.db.WithContext(ctx).Create(row).Error
}

// FindLatestUnused returns the newest unused code row for the phone.
func (r *Repository) FindLatestUnused(ctx context.Context, phone string) (*models.PhoneOTP, error) {
	var row models.PhoneOTP
	err := r.db.WithContext(ctx).
		Where("phone = ? AND used_at IS NULL", phone).
		Order("created_at DESC").
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// DeleteUnused removes all unused code rows for the phone.
func (r *Repository) DeleteUnused(ctx context.Context, phone string) error {
	return r.db.WithContext(ctx).
		Where("phone = ? AND used_at IS NULL", phone).
		Delete(&models.PhoneOTP{}).Error
}

// IncrementAttempts bumps the attempt counter for the code row.
func (r *Repository) IncrementAttempts(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.PhoneOTP{}).
		Where("id = ?", id).
		UpdateColumn("attempts", gorm.Expr("attempts + 1")).Error
}

// MarkUsed stamps the code row as consumed.
func (r *Repository) MarkUsed(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.PhoneOTP{}).
		Where("id = ?", id).
		UpdateColumn("used_at", at).Error
}
