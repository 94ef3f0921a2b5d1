package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/vavipcommerce/vavip-backend/pkg/enums"
)

// Feedback is a message submitted through the public contact form.
type Feedback struct {
	ID         uuid.UUID            `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Name       string               `gorm:"column:name;not null"`
	Email      string               `gorm:"column:email;not null;default:''"`
	Phone      string               `gorm:"column:phone;not null;default:''"`
	Subject    string               `gorm:"column:subject;not null;default:''"`
	Message    string               `gorm:"column:message;not null"`
	SourcePage string               `gorm:"column:source_page;not null;default:''"`
	Status     enums.FeedbackStatus `gorm:"column:status;type:text;not null;default:'new';index"`
	AdminNote  string               `gorm:"column:admin_note;not null;default:''"`
	IsRead     bool                 `gorm:"column:is_read;not null;default:false"`
	CreatedAt  time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName keeps the plural explicit since gorm would produce "feedbacks".
func (Feedback) TableName() string {
	return "feedback"
}
