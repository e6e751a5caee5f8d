package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dlemos/billingsync-backend/api/controllers"
	webhookcontrollers "github.com/dlemos/billingsync-backend/api/controllers/webhooks"
	"github.com/dlemos/billingsync-backend/api/middleware"
	"github.com/dlemos/billingsync-backend/internal/customers"
	stripewebhook "github.com/dlemos/billingsync-backend/internal/webhooks/stripe"
	"github.com/dlemos/billingsync-backend/pkg/config"
	"github.com/dlemos/billingsync-backend/pkg/db"
	"github.com/dlemos/billingsync-backend/pkg/logger"
	"github.com/dlemos/billingsync-backend/pkg/metrics"
	"github.com/dlemos/billingsync-backend/pkg/redis"
	"github.com/dlemos/billingsync-backend/pkg/stripe"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	stripeClient *stripe.Client,
	registry *prometheus.Registry,
	webhookMetrics *metrics.WebhookMetrics,
	catalogDispatcher *stripewebhook.Dispatcher,
	subscriptionsDispatcher *stripewebhook.Dispatcher,
	billingDispatcher *stripewebhook.Dispatcher,
	guard *stripewebhook.IdempotencyGuard,
	customersService *customers.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/catalog", webhookcontrollers.StripeWebhook(catalogDispatcher, stripeClient, guard, webhookMetrics, logg))
		r.Post("/subscriptions", webhookcontrollers.StripeWebhook(subscriptionsDispatcher, stripeClient, guard, webhookMetrics, logg))
		r.Post("/billing", webhookcontrollers.StripeWebhook(billingDispatcher, stripeClient, guard, webhookMetrics, logg))
		r.Post("/users", webhookcontrollers.CreateUser(customersService, logg))
	})

	return r
}
