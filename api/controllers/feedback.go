package controllers

import (
	"net/http"
	"strings"

	"github.com/vavipcommerce/vavip-backend/api/responses"
	"github.com/vavipcommerce/vavip-backend/api/validators"
	feedbacksvc "github.com/vavipcommerce/vavip-backend/internal/feedback"
	"github.com/vavipcommerce/vavip-backend/pkg/enums"
	pkgerrors "github.com/vavipcommerce/vavip-backend/pkg/errors"
	"github.com/vavipcommerce/vavip-backend/pkg/logger"
)

// FeedbackCreate accepts a public contact-form submission.
func FeedbackCreate(svc feedbacksvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload feedbacksvc.CreateFeedbackRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		message, err := svc.Create(r.Context(), payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCreated(w, message)
	}
}

// FeedbackList serves the staff inbox with status and read filters.
func FeedbackList(svc feedbacksvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := paginationFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		q := r.URL.Query()
		query := feedbacksvc.ListQuery{Pagination: params}
		if raw := strings.TrimSpace(q.Get("status")); raw != "" {
			status, err := enums.ParseFeedbackStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter"))
				return
			}
			query.Status = &status
		}
		if raw := strings.TrimSpace(q.Get("is_read")); raw != "" {
			isRead := raw == "true" || raw == "1"
			query.IsRead = &isRead
		}

		page, err := svc.List(r.Context(), query)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

// FeedbackDetail serves one message.
func FeedbackDetail(svc feedbacksvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "feedbackId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		message, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, message)
	}
}

// FeedbackUpdate applies triage changes to a message.
func FeedbackUpdate(svc feedbacksvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "feedbackId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload feedbacksvc.UpdateFeedbackRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		message, err := svc.Update(r.Context(), id, payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, message)
	}
}

// FeedbackDelete removes a message.
func FeedbackDelete(svc feedbacksvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "feedbackId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(w, http.StatusOK, "feedback deleted")
	}
}
