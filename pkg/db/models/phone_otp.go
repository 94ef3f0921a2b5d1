package models

import (
	"time"

	"github.com/google/uuid"
)

// PhoneOTP stores a hashed confirmation code for a phone number.
// Only the newest unused row per phone is live; sending a new code
// deletes the previous unused ones.
type PhoneOTP struct {
	ID        uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Phone     string     `gorm:"column:phone;type:text;not null;index"`
	CodeHash  string     `gorm:"column:code_hash;not null"`
	ExpiresAt time.Time  `gorm:"column:expires_at;not null"`
	Attempts  int        `gorm:"column:attempts;not null;default:0"`
	UsedAt    *time.Time `gorm:"column:used_at"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
}

// TableName keeps the table name explicit.
func (PhoneOTP) TableName() string {
	return "phone_otps"
}
