package models

import (
	"time"

	"github.com/google/uuid"
)

// Category groups products into a shallow tree.
type Category struct {
	ID          uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Name        string     `gorm:"column:name;not null"`
	Slug        string     `gorm:"column:slug;not null;uniqueIndex"`
	Description string     `gorm:"column:description;not null;default:''"`
	ImageURL    string     `gorm:"column:image_url;not null;default:''"`
	ParentID    *uuid.UUID `gorm:"column:parent_id;type:uuid"`
	IsActive    bool       `gorm:"column:is_active;not null;default:true"`
	SortOrder   int        `gorm:"column:sort_order;not null;default:0"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`

	Children []Category `gorm:"foreignKey:ParentID"`
}
