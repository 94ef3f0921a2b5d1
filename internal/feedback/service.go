package feedback

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vavipcommerce/vavip-backend/pkg/db/models"
	"github.com/vavipcommerce/vavip-backend/pkg/enums"
	pkgerrors "github.com/vavipcommerce/vavip-backend/pkg/errors"
	"github.com/vavipcommerce/vavip-backend/pkg/logger"
	"github.com/vavipcommerce/vavip-backend/pkg/types"
)

// EventNewFeedback is delivered to the admins room on every submission.
const EventNewFeedback = "new_feedback"

// Publisher delivers best-effort events to the admins room.
type Publisher interface {
	ToAdmins(ctx context.Context, event string, payload any)
}

// Service defines the feedback behavior needed by the controllers.
type Service interface {
	Create(ctx context.Context, req CreateFeedbackRequest) (*FeedbackDTO, error)
	List(ctx context.Context, query ListQuery) (*types.Page, error)
	Get(ctx context.Context, id uuid.UUID) (*FeedbackDTO, error)
	Update(ctx context.Context, id uuid.UUID, req UpdateFeedbackRequest) (*FeedbackDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo      *Repository
	publisher Publisher
	logg      *logger.Logger
}

// ServiceParams bundles the dependencies required to build a feedback service.
type ServiceParams struct {
	Repo      *Repository
	Publisher Publisher
	Logger    *logger.Logger
}

// NewService constructs a feedback service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("repository is required")
	}
	return &service{
		repo:      params.Repo,
		publisher: params.Publisher,
		logg:      params.Logger,
	}, nil
}

func (s *service) Create(ctx context.Context, req CreateFeedbackRequest) (*FeedbackDTO, error) {
	entry := &models.Feedback{
		Name:       strings.TrimSpace(req.Name),
		Email:      strings.TrimSpace(req.Email),
		Phone:      strings.TrimSpace(req.Phone),
		Subject:    strings.TrimSpace(req.Subject),
		Message:    strings.TrimSpace(req.Message),
		SourcePage: strings.TrimSpace(req.SourcePage),
		Status:     enums.FeedbackStatusNew,
	}
	if entry.Message == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "message is required")
	}

	created, err := s.repo.Create(ctx, entry)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create feedback")
	}

	dto := FromModel(created)
	if s.publisher != nil {
		s.publisher.ToAdmins(ctx, EventNewFeedback, dto)
	}
	if s.logg != nil {
		s.logg.Info(s.logg.WithField(ctx, "feedback_id", created.ID.String()), "feedback.received")
	}
	return dto, nil
}

func (s *service) List(ctx context.Context, query ListQuery) (*types.Page, error) {
	items, total, err := s.repo.List(ctx, ListFilter{
		Status: query.Status,
		IsRead: query.IsRead,
	}, query.Pagination)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list feedback")
	}
	return &types.Page{
		Items:    FromModels(items),
		PageMeta: query.Pagination.Meta(total),
	}, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*FeedbackDTO, error) {
	entry, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "feedback not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load feedback")
	}
	return FromModel(entry), nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, req UpdateFeedbackRequest) (*FeedbackDTO, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if req.Status != nil {
		status, err := enums.ParseFeedbackStatus(*req.Status)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "status")
		}
		updates["status"] = status
		// Opening a message for triage implies it has been read.
		if status != enums.FeedbackStatusNew {
			updates["is_read"] = true
		}
	}
	if req.AdminNote != nil {
		updates["admin_note"] = strings.TrimSpace(*req.AdminNote)
	}
	if req.IsRead != nil {
		updates["is_read"] = *req.IsRead
	}
	if len(updates) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "nothing to update")
	}

	if err := s.repo.Update(ctx, id, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update feedback")
	}
	return s.Get(ctx, id)
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "feedback not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete feedback")
	}
	return nil
}
