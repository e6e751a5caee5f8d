package webhooks

import (
	"context"
	"io"
	"net/http"

	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/webhook"

	"github.com/dlemos/billingsync-backend/api/responses"
	pkgerrors "github.com/dlemos/billingsync-backend/pkg/errors"
	"github.com/dlemos/billingsync-backend/pkg/logger"
	"github.com/dlemos/billingsync-backend/pkg/metrics"
)

// EventDispatcher routes one verified Stripe event to a domain service.
type EventDispatcher interface {
	Family() string
	HandleEvent(ctx context.Context, event *stripe.Event) error
}

type replayGuard interface {
	CheckAndMark(ctx context.Context, eventID string) (bool, error)
	Delete(ctx context.Context, eventID string) error
}

type signingClient interface {
	SigningSecret() string
}

// StripeWebhook is the single receiving pipeline shared by every Stripe
// surface: read body, require and verify the signature, dedupe by event id,
// dispatch. Only the dispatcher differs between surfaces.
func StripeWebhook(dispatcher EventDispatcher, client signingClient, guard replayGuard, m *metrics.WebhookMetrics, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if dispatcher == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook dispatcher unavailable"))
			return
		}
		if client == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "stripe client unavailable"))
			return
		}

		payload, err := io.ReadAll(r.Body)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request body"))
			return
		}

		sigHeader := r.Header.Get("Stripe-Signature")
		if sigHeader == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeSignature, "stripe signature missing"))
			return
		}

		event, err := webhook.ConstructEvent(payload, sigHeader, client.SigningSecret())
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeSignature, err, "verify signature"))
			return
		}

		if logg != nil {
			ctx = logg.WithEvent(ctx, event.ID, string(event.Type))
		}

		// The guard is an optimization; the upsert path is idempotent without
		// it, so a Redis failure degrades to processing the event again.
		marked := false
		if guard != nil {
			seen, err := guard.CheckAndMark(ctx, event.ID)
			if err != nil {
				if logg != nil {
					logg.Warn(logg.WithField(ctx, "guard_error", err.Error()), "replay guard unavailable, processing anyway")
				}
			} else if seen {
				m.ObserveEvent(dispatcher.Family(), string(event.Type), metrics.OutcomeReplayed)
				responses.WriteSuccess(w, "event already processed")
				return
			} else {
				marked = true
			}
		}

		if err := dispatcher.HandleEvent(ctx, &event); err != nil {
			if marked {
				_ = guard.Delete(ctx, event.ID)
			}
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, "event processed")
	}
}
