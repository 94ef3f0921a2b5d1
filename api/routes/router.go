package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vavipcommerce/vavip-backend/api/controllers"
	"github.com/vavipcommerce/vavip-backend/api/middleware"
	analyticssvc "github.com/vavipcommerce/vavip-backend/internal/analytics"
	authsvc "github.com/vavipcommerce/vavip-backend/internal/auth"
	contactsvc "github.com/vavipcommerce/vavip-backend/internal/contacts"
	feedbacksvc "github.com/vavipcommerce/vavip-backend/internal/feedback"
	ordersvc "github.com/vavipcommerce/vavip-backend/internal/orders"
	productsvc "github.com/vavipcommerce/vavip-backend/internal/products"
	"github.com/vavipcommerce/vavip-backend/pkg/config"
	"github.com/vavipcommerce/vavip-backend/pkg/logger"
	"github.com/vavipcommerce/vavip-backend/pkg/metrics"
	"github.com/vavipcommerce/vavip-backend/pkg/ws"
)

// RateLimiterStore backs the auth throttling counters, redis in production.
type RateLimiterStore interface {
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

// Deps bundles everything the HTTP surface needs.
type Deps struct {
	Config  *config.Config
	Logger  *logger.Logger
	Metrics *metrics.HTTPMetrics

	DB          controllers.Pinger
	Redis       controllers.Pinger
	RateLimiter RateLimiterStore

	Revoked middleware.RevocationChecker
	Hub     *ws.Hub

	Auth      authsvc.Service
	Products  productsvc.Service
	Orders    ordersvc.Service
	Contacts  contactsvc.Service
	Feedback  feedbacksvc.Service
	Analytics analyticssvc.Service
}

// NewRouter assembles the full route map.
func NewRouter(d Deps) http.Handler {
	cfg := d.Config
	logg := d.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)
	if d.Metrics != nil {
		r.Use(middleware.Metrics(d.Metrics))
	}
	r.Use(middleware.CORS(cfg.CORS))

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginTargetLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterTargetLimit,
	)
	otpPolicy := middleware.NewAuthRateLimitPolicy(
		"otp_send",
		cfg.AuthRateLimit.OTPSendWindow,
		cfg.AuthRateLimit.OTPSendIPLimit,
		cfg.AuthRateLimit.OTPSendTargetLimit,
	)

	requireAuth := middleware.Auth(cfg.JWT, d.Revoked, logg)
	optionalAuth := middleware.OptionalAuth(cfg.JWT, d.Revoked, logg)
	requireStaff := middleware.RequireStaff(logg)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(logg, d.DB, d.Redis))
	})

	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics.Handler())
	}

	if d.Hub != nil {
		r.Get("/ws", d.Hub.HandleUpgrade)
	}

	r.Route("/api/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(registerPolicy, d.RateLimiter, logg)).Post("/register", controllers.AuthRegister(d.Auth, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, d.RateLimiter, logg)).Post("/login", controllers.AuthLogin(d.Auth, logg))
		r.With(middleware.AuthRateLimit(otpPolicy, d.RateLimiter, logg)).Post("/otp/send", controllers.AuthSendOTP(d.Auth, logg))
		r.Post("/otp/verify", controllers.AuthVerifyOTP(d.Auth, logg))
		r.Post("/refresh", controllers.AuthRefresh(d.Auth, logg))
		r.Post("/logout", controllers.AuthLogout(d.Auth, logg))

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/me", controllers.AuthMe(d.Auth, logg))
			r.Put("/me", controllers.AuthUpdateMe(d.Auth, logg))
			r.Post("/change-password", controllers.AuthChangePassword(d.Auth, logg))
		})
	})

	r.Route("/api/products", func(r chi.Router) {
		r.Get("/", controllers.ProductList(d.Products, logg))
		r.Get("/featured", controllers.ProductFeatured(d.Products, logg))
		r.Get("/categories", controllers.CategoryTree(d.Products, logg))
		r.Get("/categories/{slug}", controllers.CategoryBySlug(d.Products, logg))
		r.Get("/id/{productId}", controllers.ProductByID(d.Products, logg))
		r.Get("/{slug}", controllers.ProductBySlug(d.Products, logg))

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/favorites", controllers.ProductFavorites(d.Products, logg))
			r.Post("/{productId}/favorite", controllers.ProductFavorite(d.Products, logg))
			r.Delete("/{productId}/favorite", controllers.ProductUnfavorite(d.Products, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(requireAuth, requireStaff)
			r.Post("/", controllers.ProductCreate(d.Products, logg))
			r.Put("/{productId}", controllers.ProductUpdate(d.Products, logg))
			r.Delete("/{productId}", controllers.ProductDelete(d.Products, logg))
			r.Post("/{productId}/stock", controllers.ProductAdjustStock(d.Products, logg))
			r.Post("/categories", controllers.CategoryCreate(d.Products, logg))
			r.Put("/categories/{categoryId}", controllers.CategoryUpdate(d.Products, logg))
			r.Delete("/categories/{categoryId}", controllers.CategoryDelete(d.Products, logg))
		})
	})

	r.Route("/api/orders", func(r chi.Router) {
		r.With(optionalAuth).Post("/", controllers.OrderCreate(d.Orders, logg))

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/", controllers.OrderList(d.Orders, logg))
			r.Get("/{orderId}", controllers.OrderDetail(d.Orders, logg))
			r.Post("/{orderId}/cancel", controllers.OrderCancel(d.Orders, logg))
			r.Post("/{orderId}/repeat", controllers.OrderRepeat(d.Orders, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(requireAuth, requireStaff)
			r.Put("/{orderId}/status", controllers.OrderUpdateStatus(d.Orders, logg))
		})
	})

	r.Route("/api/contacts", func(r chi.Router) {
		r.Get("/", controllers.ContactList(d.Contacts, logg))
		r.Get("/countries", controllers.ContactCountries(d.Contacts, logg))
		r.Get("/country/{code}", controllers.ContactsByCountry(d.Contacts, logg))
		r.Get("/city/{city}", controllers.ContactsByCity(d.Contacts, logg))

		r.Group(func(r chi.Router) {
			r.Use(requireAuth, requireStaff)
			r.Post("/", controllers.ContactCreate(d.Contacts, logg))
			r.Put("/{contactId}", controllers.ContactUpdate(d.Contacts, logg))
			r.Delete("/{contactId}", controllers.ContactDelete(d.Contacts, logg))
		})
	})

	r.Route("/api/feedback", func(r chi.Router) {
		r.Post("/", controllers.FeedbackCreate(d.Feedback, logg))

		r.Group(func(r chi.Router) {
			r.Use(requireAuth, requireStaff)
			r.Get("/", controllers.FeedbackList(d.Feedback, logg))
			r.Get("/{feedbackId}", controllers.FeedbackDetail(d.Feedback, logg))
			r.Put("/{feedbackId}", controllers.FeedbackUpdate(d.Feedback, logg))
			r.Delete("/{feedbackId}", controllers.FeedbackDelete(d.Feedback, logg))
		})
	})

	r.Route("/api/dashboard", func(r chi.Router) {
		r.Use(requireAuth, requireStaff)
		r.Get("/stats", controllers.DashboardStats(d.Analytics, logg))
		r.Get("/sales-chart", controllers.DashboardSalesChart(d.Analytics, logg))
		r.Get("/top-products", controllers.DashboardTopProducts(d.Analytics, logg))
		r.Get("/recent-orders", controllers.DashboardRecentOrders(d.Analytics, logg))
		r.Get("/order-status-breakdown", controllers.DashboardStatusBreakdown(d.Analytics, logg))
		r.Get("/revenue-by-category", controllers.DashboardRevenueByCategory(d.Analytics, logg))
		r.Get("/users", controllers.DashboardUsers(d.Analytics, logg))
		r.Put("/users/{userId}", controllers.DashboardUpdateUser(d.Analytics, logg))
	})

	return r
}
