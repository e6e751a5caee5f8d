package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/dlemos/billingsync-backend/api/routes"
	"github.com/dlemos/billingsync-backend/internal/customers"
	"github.com/dlemos/billingsync-backend/internal/invoices"
	"github.com/dlemos/billingsync-backend/internal/plans"
	"github.com/dlemos/billingsync-backend/internal/subscriptions"
	stripewebhook "github.com/dlemos/billingsync-backend/internal/webhooks/stripe"
	"github.com/dlemos/billingsync-backend/pkg/config"
	"github.com/dlemos/billingsync-backend/pkg/db"
	"github.com/dlemos/billingsync-backend/pkg/logger"
	"github.com/dlemos/billingsync-backend/pkg/metrics"
	"github.com/dlemos/billingsync-backend/pkg/migrate"
	"github.com/dlemos/billingsync-backend/pkg/redis"
	"github.com/dlemos/billingsync-backend/pkg/stripe"
)

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

	stripeClient, err := stripe.NewClient(context.Background(), cfg.Stripe, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap stripe client", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	webhookMetrics := metrics.NewWebhookMetrics(registry)

	plansRepo := plans.NewRepository(dbClient.DB())
	customersRepo := customers.NewRepository(dbClient.DB())

	plansService, err := plans.NewService(plansRepo, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create plans service", err)
		os.Exit(1)
	}

	customersService, err := customers.NewService(customers.ServiceParams{
		Repo:         customersRepo,
		StripeClient: stripeClient,
		Logger:       logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create customers service", err)
		os.Exit(1)
	}

	subscriptionsService, err := subscriptions.NewService(subscriptions.ServiceParams{
		Repo:      subscriptions.NewRepository(dbClient.DB()),
		Plans:     plansRepo,
		Customers: customersRepo,
		Logger:    logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create subscriptions service", err)
		os.Exit(1)
	}

	invoicesService, err := invoices.NewService(invoices.ServiceParams{
		Repo:              invoices.NewRepository(dbClient.DB()),
		Products:          plansRepo,
		Customers:         customersService,
		TransactionRunner: dbClient,
		Logger:            logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create invoices service", err)
		os.Exit(1)
	}

	catalogDispatcher, err := stripewebhook.NewCatalogDispatcher(plansService, logg, webhookMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog dispatcher", err)
		os.Exit(1)
	}
	subscriptionsDispatcher, err := stripewebhook.NewSubscriptionsDispatcher(subscriptionsService, logg, webhookMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create subscriptions dispatcher", err)
		os.Exit(1)
	}
	billingDispatcher, err := stripewebhook.NewBillingDispatcher(customersService, invoicesService, logg, webhookMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create billing dispatcher", err)
		os.Exit(1)
	}

	guard, err := stripewebhook.NewIdempotencyGuard(redisClient, cfg.Stripe.ReplayTTL, "stripe-webhook")
	if err != nil {
		logg.Error(context.Background(), "failed to create replay guard", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":        cfg.App.Env,
		"addr":       addr,
		"stripe_env": stripeClient.Environment(),
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			stripeClient,
			registry,
			webhookMetrics,
			catalogDispatcher,
			subscriptionsDispatcher,
			billingDispatcher,
			guard,
			customersService,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
