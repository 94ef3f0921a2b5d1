package controllers

import (
	"net/http"
	"strings"

	"github.com/vavipcommerce/vavip-backend/api/responses"
	"github.com/vavipcommerce/vavip-backend/api/validators"
	analyticssvc "github.com/vavipcommerce/vavip-backend/internal/analytics"
	"github.com/vavipcommerce/vavip-backend/pkg/logger"
)

// DashboardStats serves the aggregate counters for the requested window.
func DashboardStats(svc analyticssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		days, err := validators.ParseQueryInt(r, "days", analyticssvc.DefaultWindowDays, 1, analyticssvc.MaxWindowDays)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		stats, err := svc.Stats(r.Context(), days)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, stats)
	}
}

// DashboardSalesChart serves per-day paid revenue for the window.
func DashboardSalesChart(svc analyticssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		days, err := validators.ParseQueryInt(r, "days", analyticssvc.DefaultWindowDays, 1, analyticssvc.MaxWindowDays)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		points, err := svc.SalesChart(r.Context(), days)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, points)
	}
}

// DashboardTopProducts ranks products by quantity sold in the window.
func DashboardTopProducts(svc analyticssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		days, err := validators.ParseQueryInt(r, "days", analyticssvc.DefaultWindowDays, 1, analyticssvc.MaxWindowDays)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", 0, 1, analyticssvc.MaxRecentOrders)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, err := svc.TopProducts(r.Context(), days, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, items)
	}
}

// DashboardRecentOrders serves the latest orders.
func DashboardRecentOrders(svc analyticssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", 0, 1, analyticssvc.MaxRecentOrders)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, err := svc.RecentOrders(r.Context(), limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, items)
	}
}

// DashboardStatusBreakdown serves the order count per status.
func DashboardStatusBreakdown(svc analyticssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.StatusBreakdown(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, items)
	}
}

// DashboardRevenueByCategory serves paid revenue per category for the window.
func DashboardRevenueByCategory(svc analyticssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		days, err := validators.ParseQueryInt(r, "days", analyticssvc.DefaultWindowDays, 1, analyticssvc.MaxWindowDays)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, err := svc.RevenueByCategory(r.Context(), days)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, items)
	}
}

// DashboardUsers lists accounts with role and search filters.
func DashboardUsers(svc analyticssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := paginationFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		q := r.URL.Query()
		page, err := svc.ListUsers(r.Context(), analyticssvc.UsersQuery{
			Role:       strings.TrimSpace(q.Get("role")),
			Search:     strings.TrimSpace(q.Get("search")),
			Pagination: params,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

// DashboardUpdateUser changes an account's role or active flag.
func DashboardUpdateUser(svc analyticssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "userId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload analyticssvc.UpdateUserRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		user, err := svc.UpdateUser(r.Context(), id, payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, user)
	}
}
