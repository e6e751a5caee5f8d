package stripewebhook

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/stripe/stripe-go/v84"

	"github.com/dlemos/billingsync-backend/internal/subscriptions"
	"github.com/dlemos/billingsync-backend/pkg/logger"
	"github.com/dlemos/billingsync-backend/pkg/metrics"
)

const (
	FamilyCatalog       = "catalog"
	FamilySubscriptions = "subscriptions"
	FamilyBilling       = "billing"
)

// CatalogService syncs plan and product events.
type CatalogService interface {
	SyncPlan(ctx context.Context, raw json.RawMessage) error
	SyncProduct(ctx context.Context, raw json.RawMessage) error
}

// SubscriptionService syncs subscription lifecycle events.
type SubscriptionService interface {
	SyncSubscription(ctx context.Context, raw json.RawMessage) error
}

// CustomerService syncs customer events.
type CustomerService interface {
	SyncCustomer(ctx context.Context, raw json.RawMessage) error
}

// InvoiceService syncs invoice events.
type InvoiceService interface {
	SyncInvoice(ctx context.Context, raw json.RawMessage) error
}

func NewCatalogDispatcher(svc CatalogService, logg *logger.Logger, m *metrics.WebhookMetrics) (*Dispatcher, error) {
	if svc == nil {
		return nil, errors.New("catalog service is required")
	}
	return NewDispatcher(FamilyCatalog, map[stripe.EventType]HandlerFunc{
		stripe.EventTypePlanCreated:    svc.SyncPlan,
		stripe.EventTypePlanUpdated:    svc.SyncPlan,
		stripe.EventTypeProductCreated: svc.SyncProduct,
		stripe.EventTypeProductUpdated: svc.SyncProduct,
	}, logg, m)
}

func NewSubscriptionsDispatcher(svc SubscriptionService, logg *logger.Logger, m *metrics.WebhookMetrics) (*Dispatcher, error) {
	if svc == nil {
		return nil, errors.New("subscription service is required")
	}
	// An unsynced plan or customer acknowledges the event without a write.
	handler := func(ctx context.Context, raw json.RawMessage) error {
		err := svc.SyncSubscription(ctx, raw)
		if errors.Is(err, subscriptions.ErrReferenceNotSynced) {
			return errors.Join(ErrSkipEvent, err)
		}
		return err
	}
	return NewDispatcher(FamilySubscriptions, map[stripe.EventType]HandlerFunc{
		stripe.EventTypeCustomerSubscriptionCreated: handler,
		stripe.EventTypeCustomerSubscriptionUpdated: handler,
		stripe.EventTypeCustomerSubscriptionDeleted: handler,
	}, logg, m)
}

func NewBillingDispatcher(customersSvc CustomerService, invoicesSvc InvoiceService, logg *logger.Logger, m *metrics.WebhookMetrics) (*Dispatcher, error) {
	if customersSvc == nil {
		return nil, errors.New("customer service is required")
	}
	if invoicesSvc == nil {
		return nil, errors.New("invoice service is required")
	}
	return NewDispatcher(FamilyBilling, map[stripe.EventType]HandlerFunc{
		stripe.EventTypeCustomerCreated: customersSvc.SyncCustomer,
		stripe.EventTypeCustomerUpdated: customersSvc.SyncCustomer,
		stripe.EventTypeInvoiceCreated:  invoicesSvc.SyncInvoice,
		stripe.EventTypeInvoiceUpdated:  invoicesSvc.SyncInvoice,
	}, logg, m)
}
