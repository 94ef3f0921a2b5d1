package contacts

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vavipcommerce/vavip-backend/pkg/db/models"
)

// Repository wraps contact persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds the repository to a database handle.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) activeQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("country ASC, sort_order ASC, city ASC")
}

// ListActive returns all visible locations ordered for grouping.
func (r *Repository) ListActive(ctx context.Context) ([]models.Contact, error) {
	var items []models.Contact
	err := r.activeQuery(ctx).Find(&items).Error
	return items, err
}

// ListByCountryCode returns visible locations for one country.
func (r *Repository) ListByCountryCode(ctx context.Context, code string) ([]models.Contact, error) {
	var items []models.Contact
	err := r.activeQuery(ctx).
		Where("country_code = ?", strings.ToUpper(strings.TrimSpace(code))).
		Find(&items).Error
	return items, err
}

// ListByCity returns visible locations matching a city name.
func (r *Repository) ListByCity(ctx context.Context, city string) ([]models.Contact, error) {
	var items []models.Contact
	err := r.activeQuery(ctx).
		Where("LOWER(city) = ?", strings.ToLower(strings.TrimSpace(city))).
		Find(&items).Error
	return items, err
}

// FindByID loads a contact regardless of visibility.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Contact, error) {
	var contact models.Contact
	if err := r.db.WithContext(ctx).First(&contact, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &contact, nil
}

// Create persists a new location.
func (r *Repository) Create(ctx context.Context, contact *models.Contact) (*models.Contact, error) {
	if err := r.db.WithContext(ctx).Create(contact).Error; err != nil {
		return nil, err
	}
	return contact, nil
}

// Update applies a partial column update.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.Contact{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// Delete removes a location.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.Contact{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
