package analytics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vavipcommerce/vavip-backend/internal/orders"
	"github.com/vavipcommerce/vavip-backend/internal/users"
	"github.com/vavipcommerce/vavip-backend/pkg/cache"
	"github.com/vavipcommerce/vavip-backend/pkg/config"
	"github.com/vavipcommerce/vavip-backend/pkg/enums"
	pkgerrors "github.com/vavipcommerce/vavip-backend/pkg/errors"
	"github.com/vavipcommerce/vavip-backend/pkg/pagination"
	"github.com/vavipcommerce/vavip-backend/pkg/types"
)

const cacheFamilyDashboard = "dashboard"

// Window limits for the days parameter and the recent-orders clamp.
const (
	DefaultWindowDays = 30
	MaxWindowDays     = 365
	MaxRecentOrders   = 100
	defaultTopLimit   = 10
)

// UsersQuery narrows the admin user listing.
type UsersQuery struct {
	Role       string
	Search     string
	Pagination pagination.Params
}

// Service defines the dashboard behavior needed by the controllers.
type Service interface {
	Stats(ctx context.Context, days int) (*StatsDTO, error)
	SalesChart(ctx context.Context, days int) ([]SalesPoint, error)
	TopProducts(ctx context.Context, days, limit int) ([]TopProduct, error)
	RecentOrders(ctx context.Context, limit int) ([]orders.OrderDTO, error)
	StatusBreakdown(ctx context.Context) ([]StatusCount, error)
	RevenueByCategory(ctx context.Context, days int) ([]CategoryRevenue, error)

	ListUsers(ctx context.Context, query UsersQuery) (*types.Page, error)
	UpdateUser(ctx context.Context, id uuid.UUID, req UpdateUserRequest) (*users.UserDTO, error)
}

type service struct {
	repo     *Repository
	users    *users.Repository
	cache    *cache.Cache
	cacheCfg config.CacheConfig
}

func windowStart(days int) time.Time {
	return time.Now().UTC().AddDate(0, 0, -days)
}

// ServiceParams bundles the dependencies required to build the dashboard
// service.
type ServiceParams struct {
	Repo        *Repository
	Users       *users.Repository
	Cache       *cache.Cache
	CacheConfig config.CacheConfig
}

// NewService constructs a dashboard service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("repository is required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	return &service{
		repo:     params.Repo,
		users:    params.Users,
		cache:    params.Cache,
		cacheCfg: params.CacheConfig,
	}, nil
}

func clampDays(days int) int {
	if days <= 0 {
		return DefaultWindowDays
	}
	if days > MaxWindowDays {
		return MaxWindowDays
	}
	return days
}

func (s *service) Stats(ctx context.Context, days int) (*StatsDTO, error) {
	days = clampDays(days)

	compute := func(ctx context.Context) (any, error) {
		stats, err := s.repo.Stats(ctx, windowStart(days))
		if err != nil {
			return nil, err
		}
		stats.Days = days
		return stats, nil
	}

	if s.cache != nil {
		var out StatsDTO
		if err := s.cache.GetOrCompute(ctx, &out, s.cacheCfg.DashboardTTL, cacheFamilyDashboard, []any{"stats", days}, compute); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "dashboard stats")
		}
		return &out, nil
	}

	result, err := compute(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "dashboard stats")
	}
	return result.(*StatsDTO), nil
}

func (s *service) SalesChart(ctx context.Context, days int) ([]SalesPoint, error) {
	days = clampDays(days)
	points, err := s.repo.SalesChart(ctx, windowStart(days))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "sales chart")
	}
	return points, nil
}

func (s *service) TopProducts(ctx context.Context, days, limit int) ([]TopProduct, error) {
	days = clampDays(days)
	if limit <= 0 {
		limit = defaultTopLimit
	}
	if limit > MaxRecentOrders {
		limit = MaxRecentOrders
	}
	rows, err := s.repo.TopProducts(ctx, windowStart(days), limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "top products")
	}
	return rows, nil
}

func (s *service) RecentOrders(ctx context.Context, limit int) ([]orders.OrderDTO, error) {
	if limit <= 0 {
		limit = defaultTopLimit
	}
	if limit > MaxRecentOrders {
		limit = MaxRecentOrders
	}
	items, err := s.repo.RecentOrders(ctx, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "recent orders")
	}
	return orders.FromModels(items), nil
}

func (s *service) StatusBreakdown(ctx context.Context) ([]StatusCount, error) {
	rows, err := s.repo.StatusBreakdown(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "status breakdown")
	}
	return rows, nil
}

func (s *service) RevenueByCategory(ctx context.Context, days int) ([]CategoryRevenue, error) {
	days = clampDays(days)
	rows, err := s.repo.RevenueByCategory(ctx, windowStart(days))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "revenue by category")
	}
	return rows, nil
}

func (s *service) ListUsers(ctx context.Context, query UsersQuery) (*types.Page, error) {
	filter := users.ListFilter{Search: query.Search}
	if query.Role != "" {
		role, err := enums.ParseUserRole(query.Role)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "role")
		}
		filter.Role = role
	}

	items, total, err := s.users.List(ctx, filter, query.Pagination)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list users")
	}
	return &types.Page{
		Items:    users.FromModels(items),
		PageMeta: query.Pagination.Meta(total),
	}, nil
}

func (s *service) UpdateUser(ctx context.Context, id uuid.UUID, req UpdateUserRequest) (*users.UserDTO, error) {
	if _, err := s.users.FindByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}

	updates := map[string]any{}
	if req.Role != nil {
		role, err := enums.ParseUserRole(*req.Role)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "role")
		}
		updates["role"] = role
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if len(updates) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "nothing to update")
	}

	if err := s.users.UpdateProfile(ctx, id, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update user")
	}

	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload user")
	}
	return users.FromModel(user), nil
}
