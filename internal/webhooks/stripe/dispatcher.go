// Package stripewebhook routes verified Stripe events to the domain services.
// Each webhook surface owns a dispatcher with an exact event-type table;
// anything outside the table is acknowledged and counted, never an error.
package stripewebhook

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/stripe/stripe-go/v84"

	pkgerrors "github.com/dlemos/billingsync-backend/pkg/errors"
	"github.com/dlemos/billingsync-backend/pkg/logger"
	"github.com/dlemos/billingsync-backend/pkg/metrics"
)

// ErrSkipEvent marks an event that is acknowledged without a write, for
// example a subscription whose plan has not been synced yet.
var ErrSkipEvent = errors.New("event acknowledged without a write")

// HandlerFunc processes the raw object of one verified event.
type HandlerFunc func(ctx context.Context, raw json.RawMessage) error

type Dispatcher struct {
	family   string
	handlers map[stripe.EventType]HandlerFunc
	logg     *logger.Logger
	metrics  *metrics.WebhookMetrics
}

func NewDispatcher(family string, handlers map[stripe.EventType]HandlerFunc, logg *logger.Logger, m *metrics.WebhookMetrics) (*Dispatcher, error) {
	if family == "" {
		return nil, errors.New("family is required")
	}
	if len(handlers) == 0 {
		return nil, errors.New("handlers are required")
	}
	return &Dispatcher{
		family:   family,
		handlers: handlers,
		logg:     logg,
		metrics:  m,
	}, nil
}

// Family names the webhook surface this dispatcher serves.
func (d *Dispatcher) Family() string {
	return d.family
}

// HandleEvent looks up the handler for the event type (exact, case-sensitive
// match) and runs it against the event's raw object.
func (d *Dispatcher) HandleEvent(ctx context.Context, event *stripe.Event) error {
	if event == nil || event.Data == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "stripe event data required")
	}

	eventType := string(event.Type)
	if d.logg != nil {
		ctx = d.logg.WithEvent(ctx, event.ID, eventType)
	}

	handler, ok := d.handlers[event.Type]
	if !ok {
		if d.logg != nil {
			d.logg.Info(ctx, "unhandled event type acknowledged")
		}
		d.metrics.ObserveEvent(d.family, eventType, metrics.OutcomeUnhandled)
		return nil
	}

	start := time.Now()
	err := handler(ctx, event.Data.Raw)
	d.metrics.ObserveDuration(d.family, time.Since(start))

	switch {
	case err == nil:
		d.metrics.ObserveEvent(d.family, eventType, metrics.OutcomeProcessed)
		return nil
	case errors.Is(err, ErrSkipEvent):
		if d.logg != nil {
			d.logg.Info(ctx, "event skipped: "+err.Error())
		}
		d.metrics.ObserveEvent(d.family, eventType, metrics.OutcomeSkipped)
		return nil
	default:
		d.metrics.ObserveEvent(d.family, eventType, metrics.OutcomeFailed)
		return err
	}
}
