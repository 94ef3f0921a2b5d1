package feedback

import (
	"time"

	"github.com/google/uuid"

	"github.com/vavipcommerce/vavip-backend/pkg/db/models"
	"github.com/vavipcommerce/vavip-backend/pkg/enums"
	"github.com/vavipcommerce/vavip-backend/pkg/pagination"
)

// CreateFeedbackRequest is the public contact form payload.
type CreateFeedbackRequest struct {
	Name       string `json:"name" validate:"required,max=255"`
	Email      string `json:"email" validate:"omitempty,email"`
	Phone      string `json:"phone" validate:"omitempty,max=32"`
	Subject    string `json:"subject" validate:"omitempty,max=255"`
	Message    string `json:"message" validate:"required,max=5000"`
	SourcePage string `json:"source_page" validate:"omitempty,max=255"`
}

// UpdateFeedbackRequest is the manager triage payload. Nil leaves a field
// untouched.
type UpdateFeedbackRequest struct {
	Status    *string `json:"status,omitempty" validate:"omitempty,oneof=new read replied closed"`
	AdminNote *string `json:"admin_note,omitempty" validate:"omitempty,max=2000"`
	IsRead    *bool   `json:"is_read,omitempty"`
}

// ListQuery narrows the manager feedback listing.
type ListQuery struct {
	Status     *enums.FeedbackStatus
	IsRead     *bool
	Pagination pagination.Params
}

// FeedbackDTO is the transport shape of a feedback message.
type FeedbackDTO struct {
	ID         uuid.UUID            `json:"id"`
	Name       string               `json:"name"`
	Email      string               `json:"email,omitempty"`
	Phone      string               `json:"phone,omitempty"`
	Subject    string               `json:"subject,omitempty"`
	Message    string               `json:"message"`
	SourcePage string               `json:"source_page,omitempty"`
	Status     enums.FeedbackStatus `json:"status"`
	AdminNote  string               `json:"admin_note,omitempty"`
	IsRead     bool                 `json:"is_read"`
	CreatedAt  time.Time            `json:"created_at"`
	UpdatedAt  time.Time            `json:"updated_at"`
}

// FromModel converts a stored message to its transport shape.
func FromModel(m *models.Feedback) *FeedbackDTO {
	return &FeedbackDTO{
		ID:         m.ID,
		Name:       m.Name,
		Email:      m.Email,
		Phone:      m.Phone,
		Subject:    m.Subject,
		Message:    m.Message,
		SourcePage: m.SourcePage,
		Status:     m.Status,
		AdminNote:  m.AdminNote,
		IsRead:     m.IsRead,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

// FromModels converts a page of stored messages.
func FromModels(items []models.Feedback) []FeedbackDTO {
	out := make([]FeedbackDTO, 0, len(items))
	for i := range items {
		out = append(out, *FromModel(&items[i]))
	}
	return out
}
