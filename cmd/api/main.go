package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/multierr"

	"github.com/vavipcommerce/vavip-backend/api/routes"
	"github.com/vavipcommerce/vavip-backend/internal/analytics"
	"github.com/vavipcommerce/vavip-backend/internal/auth"
	"github.com/vavipcommerce/vavip-backend/internal/contacts"
	"github.com/vavipcommerce/vavip-backend/internal/feedback"
	"github.com/vavipcommerce/vavip-backend/internal/notifications"
	"github.com/vavipcommerce/vavip-backend/internal/orders"
	"github.com/vavipcommerce/vavip-backend/internal/otp"
	"github.com/vavipcommerce/vavip-backend/internal/products"
	"github.com/vavipcommerce/vavip-backend/internal/users"
	"github.com/vavipcommerce/vavip-backend/pkg/auth/revocation"
	"github.com/vavipcommerce/vavip-backend/pkg/cache"
	"github.com/vavipcommerce/vavip-backend/pkg/config"
	"github.com/vavipcommerce/vavip-backend/pkg/db"
	"github.com/vavipcommerce/vavip-backend/pkg/logger"
	"github.com/vavipcommerce/vavip-backend/pkg/metrics"
	"github.com/vavipcommerce/vavip-backend/pkg/migrate"
	"github.com/vavipcommerce/vavip-backend/pkg/redis"
	"github.com/vavipcommerce/vavip-backend/pkg/ws"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	denylist, err := revocation.NewDenylist(redisClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create token denylist", err)
		os.Exit(1)
	}

	cacheClient, err := cache.New(redisClient, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create cache", err)
		os.Exit(1)
	}

	hub := ws.NewHub(cfg.WS, cfg.JWT, denylist, logg)
	publisher := notifications.NewPublisher(hub, logg)

	userRepo := users.NewRepository(dbClient.DB())

	otpService, err := otp.NewService(otp.ServiceParams{
		Client:         dbClient,
		CodeRepo:       otp.NewRepository(dbClient.DB()),
		UserRepo:       userRepo,
		Sender:         otp.NewLogSender(logg),
		Config:         cfg.OTP,
		PasswordConfig: cfg.Password,
		Logger:         logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create otp service", err)
		os.Exit(1)
	}

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       userRepo,
		OTPService:     otpService,
		Denylist:       denylist,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
		AppConfig:      cfg.App,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	productsRepo := products.NewRepository(dbClient.DB())
	productsService, err := products.NewService(products.ServiceParams{
		Repo:        productsRepo,
		Cache:       cacheClient,
		CacheConfig: cfg.Cache,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create products service", err)
		os.Exit(1)
	}

	ordersService, err := orders.NewService(orders.ServiceParams{
		Client:         dbClient,
		Repo:           orders.NewRepository(dbClient.DB()),
		Products:       productsRepo,
		Users:          userRepo,
		Publisher:      publisher,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
		Logger:         logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	contactsService, err := contacts.NewService(contacts.ServiceParams{
		Repo:        contacts.NewRepository(dbClient.DB()),
		Cache:       cacheClient,
		CacheConfig: cfg.Cache,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create contacts service", err)
		os.Exit(1)
	}

	feedbackService, err := feedback.NewService(feedback.ServiceParams{
		Repo:      feedback.NewRepository(dbClient.DB()),
		Publisher: publisher,
		Logger:    logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create feedback service", err)
		os.Exit(1)
	}

	analyticsService, err := analytics.NewService(analytics.ServiceParams{
		Repo:        analytics.NewRepository(dbClient.DB()),
		Users:       userRepo,
		Cache:       cacheClient,
		CacheConfig: cfg.Cache,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create analytics service", err)
		os.Exit(1)
	}

	httpMetrics := metrics.NewHTTPMetrics()

	handler := routes.NewRouter(routes.Deps{
		Config:      cfg,
		Logger:      logg,
		Metrics:     httpMetrics,
		DB:          dbClient,
		Redis:       redisClient,
		RateLimiter: redisClient,
		Revoked:     denylist,
		Hub:         hub,
		Auth:        authService,
		Products:    productsService,
		Orders:      ordersService,
		Contacts:    contactsService,
		Feedback:    feedbackService,
		Analytics:   analyticsService,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case sig := <-stop:
		logg.Info(logg.WithField(ctx, "signal", sig.String()), "shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		var errs error
		errs = multierr.Append(errs, server.Shutdown(shutdownCtx))
		if err := <-errCh; err != nil && err != http.ErrServerClosed {
			errs = multierr.Append(errs, err)
		}
		if errs != nil {
			logg.Error(ctx, "shutdown finished with errors", errs)
		}
	}
}
