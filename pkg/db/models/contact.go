package models

import (
	"time"

	"github.com/google/uuid"
)

// Contact is a physical office or store location shown on the contacts page.
type Contact struct {
	ID           uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Country      string    `gorm:"column:country;not null"`
	CountryCode  string    `gorm:"column:country_code;not null;index"`
	City         string    `gorm:"column:city;not null"`
	Address      string    `gorm:"column:address;not null;default:''"`
	Phone        string    `gorm:"column:phone;not null;default:''"`
	Email        string    `gorm:"column:email;not null;default:''"`
	WorkingHours string    `gorm:"column:working_hours;not null;default:''"`
	MapLat       *float64  `gorm:"column:map_lat"`
	MapLng       *float64  `gorm:"column:map_lng"`
	PhotoURL     string    `gorm:"column:photo_url;not null;default:''"`
	MapImageURL  string    `gorm:"column:map_image_url;not null;default:''"`

	IsHeadquarters bool `gorm:"column:is_headquarters;not null;default:false"`
	IsActive       bool `gorm:"column:is_active;not null;default:true"`
	SortOrder      int  `gorm:"column:sort_order;not null;default:0"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
