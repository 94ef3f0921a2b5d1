package contacts

import (
	"github.com/google/uuid"

	"github.com/vavipcommerce/vavip-backend/pkg/db/models"
)

// ContactDTO is the transport shape of an office location.
type ContactDTO struct {
	ID             uuid.UUID `json:"id"`
	Country        string    `json:"country"`
	CountryCode    string    `json:"country_code"`
	City           string    `json:"city"`
	Address        string    `json:"address,omitempty"`
	Phone          string    `json:"phone,omitempty"`
	Email          string    `json:"email,omitempty"`
	WorkingHours   string    `json:"working_hours,omitempty"`
	MapLat         *float64  `json:"map_lat,omitempty"`
	MapLng         *float64  `json:"map_lng,omitempty"`
	PhotoURL       string    `json:"photo_url,omitempty"`
	MapImageURL    string    `json:"map_image_url,omitempty"`
	IsHeadquarters bool      `json:"is_headquarters"`
	SortOrder      int       `json:"sort_order"`
}

// CountryGroup is one country's offices on the public contacts page.
type CountryGroup struct {
	Country     string       `json:"country"`
	CountryCode string       `json:"country_code"`
	Offices     []ContactDTO `json:"offices"`
}

// CountryDTO is a country summary for the selector.
type CountryDTO struct {
	Country     string `json:"country"`
	CountryCode string `json:"country_code"`
	Offices     int    `json:"offices"`
}

// CreateContactRequest is the manager create payload.
type CreateContactRequest struct {
	Country        string   `json:"country" validate:"required,max=100"`
	CountryCode    string   `json:"country_code" validate:"required,alpha,len=2"`
	City           string   `json:"city" validate:"required,max=100"`
	Address        string   `json:"address" validate:"omitempty,max=500"`
	Phone          string   `json:"phone" validate:"omitempty,max=32"`
	Email          string   `json:"email" validate:"omitempty,email"`
	WorkingHours   string   `json:"working_hours" validate:"omitempty,max=255"`
	MapLat         *float64 `json:"map_lat,omitempty" validate:"omitempty,latitude"`
	MapLng         *float64 `json:"map_lng,omitempty" validate:"omitempty,longitude"`
	PhotoURL       string   `json:"photo_url" validate:"omitempty,url"`
	MapImageURL    string   `json:"map_image_url" validate:"omitempty,url"`
	IsHeadquarters *bool    `json:"is_headquarters,omitempty"`
	IsActive       *bool    `json:"is_active,omitempty"`
	SortOrder      int      `json:"sort_order"`
}

// UpdateContactRequest is the manager update payload. Nil leaves a field
// untouched.
type UpdateContactRequest struct {
	Country        *string  `json:"country,omitempty" validate:"omitempty,max=100"`
	CountryCode    *string  `json:"country_code,omitempty" validate:"omitempty,alpha,len=2"`
	City           *string  `json:"city,omitempty" validate:"omitempty,max=100"`
	Address        *string  `json:"address,omitempty" validate:"omitempty,max=500"`
	Phone          *string  `json:"phone,omitempty" validate:"omitempty,max=32"`
	Email          *string  `json:"email,omitempty" validate:"omitempty,email"`
	WorkingHours   *string  `json:"working_hours,omitempty" validate:"omitempty,max=255"`
	MapLat         *float64 `json:"map_lat,omitempty" validate:"omitempty,latitude"`
	MapLng         *float64 `json:"map_lng,omitempty" validate:"omitempty,longitude"`
	PhotoURL       *string  `json:"photo_url,omitempty" validate:"omitempty,url"`
	MapImageURL    *string  `json:"map_image_url,omitempty" validate:"omitempty,url"`
	IsHeadquarters *bool    `json:"is_headquarters,omitempty"`
	IsActive       *bool    `json:"is_active,omitempty"`
	SortOrder      *int     `json:"sort_order,omitempty"`
}

// FromModel converts a stored contact to its transport shape.
func FromModel(m *models.Contact) *ContactDTO {
	return &ContactDTO{
		ID:             m.ID,
		Country:        m.Country,
		CountryCode:    m.CountryCode,
		City:           m.City,
		Address:        m.Address,
		Phone:          m.Phone,
		Email:          m.Email,
		WorkingHours:   m.WorkingHours,
		MapLat:         m.MapLat,
		MapLng:         m.MapLng,
		PhotoURL:       m.PhotoURL,
		MapImageURL:    m.MapImageURL,
		IsHeadquarters: m.IsHeadquarters,
		SortOrder:      m.SortOrder,
	}
}

// FromModels converts a list of stored contacts.
func FromModels(items []models.Contact) []ContactDTO {
	out := make([]ContactDTO, 0, len(items))
	for i := range items {
		out = append(out, *FromModel(&items[i]))
	}
	return out
}
