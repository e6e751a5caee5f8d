package subscriptions

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/dlemos/billingsync-backend/internal/customers"
	"github.com/dlemos/billingsync-backend/internal/plans"
	"github.com/dlemos/billingsync-backend/pkg/db/models"
	"github.com/dlemos/billingsync-backend/pkg/enums"
	pkgerrors "github.com/dlemos/billingsync-backend/pkg/errors"
)

func setupSubscriptionsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Customer{}, &models.Plan{}, &models.Subscription{}))
	return db
}

func newSubscriptionsService(t *testing.T, db *gorm.DB) *Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Repo:      NewRepository(db),
		Plans:     plans.NewRepository(db),
		Customers: customers.NewRepository(db),
	})
	require.NoError(t, err)
	return svc
}

func seedReferences(t *testing.T, db *gorm.DB) (*models.Customer, *models.Plan) {
	t.Helper()

	customer := &models.Customer{StripeID: "cus_1", Email: "a@example.com"}
	require.NoError(t, db.Create(customer).Error)

	plan := &models.Plan{StripeID: "price_basic", Currency: "usd", Interval: enums.PlanIntervalMonth, IntervalCount: 1}
	require.NoError(t, db.Create(plan).Error)

	return customer, plan
}

func subscriptionEvent(status string, periodEnd int64) json.RawMessage {
	return json.RawMessage(fmt.Sprintf(`{
		"id": "sub_1",
		"customer": "cus_1",
		"status": %q,
		"cancel_at_period_end": false,
		"billing_cycle_anchor": 1700000000,
		"created": 1700000000,
		"items": {
			"data": [{
				"quantity": 2,
				"current_period_start": 1700000000,
				"current_period_end": %d,
				"plan": {"id": "price_basic"}
			}]
		}
	}`, status, periodEnd))
}

func TestSyncSubscriptionUpsertConverges(t *testing.T) {
	db := setupSubscriptionsTestDB(t)
	customer, plan := seedReferences(t, db)
	svc := newSubscriptionsService(t, db)
	ctx := context.Background()

	require.NoError(t, svc.SyncSubscription(ctx, subscriptionEvent("active", 1702592000)))
	require.NoError(t, svc.SyncSubscription(ctx, subscriptionEvent("past_due", 1705184000)))
	require.NoError(t, svc.SyncSubscription(ctx, subscriptionEvent("past_due", 1705184000)))

	var subs []models.Subscription
	require.NoError(t, db.Find(&subs).Error)
	require.Len(t, subs, 1)
	assert.Equal(t, "sub_1", subs[0].StripeID)
	assert.Equal(t, customer.ID, subs[0].CustomerID)
	assert.Equal(t, plan.ID, subs[0].PlanID)
	assert.Equal(t, enums.SubscriptionStatusPastDue, subs[0].Status)
	assert.Equal(t, int64(2), subs[0].Quantity)
	require.NotNil(t, subs[0].CurrentPeriodEnd)
	assert.Equal(t, int64(1705184000), subs[0].CurrentPeriodEnd.Unix())
}

func TestSyncSubscriptionSkipsUnknownCustomer(t *testing.T) {
	db := setupSubscriptionsTestDB(t)
	plan := &models.Plan{StripeID: "price_basic", Currency: "usd", Interval: enums.PlanIntervalMonth, IntervalCount: 1}
	require.NoError(t, db.Create(plan).Error)
	svc := newSubscriptionsService(t, db)

	err := svc.SyncSubscription(context.Background(), subscriptionEvent("active", 1702592000))
	require.ErrorIs(t, err, ErrReferenceNotSynced)

	var count int64
	require.NoError(t, db.Model(&models.Subscription{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestSyncSubscriptionSkipsUnknownPlan(t *testing.T) {
	db := setupSubscriptionsTestDB(t)
	require.NoError(t, db.Create(&models.Customer{StripeID: "cus_1", Email: "a@example.com"}).Error)
	svc := newSubscriptionsService(t, db)

	err := svc.SyncSubscription(context.Background(), subscriptionEvent("active", 1702592000))
	require.ErrorIs(t, err, ErrReferenceNotSynced)

	var count int64
	require.NoError(t, db.Model(&models.Subscription{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestSyncSubscriptionDeletedMarksCanceled(t *testing.T) {
	db := setupSubscriptionsTestDB(t)
	seedReferences(t, db)
	svc := newSubscriptionsService(t, db)
	ctx := context.Background()

	require.NoError(t, svc.SyncSubscription(ctx, subscriptionEvent("active", 1702592000)))
	require.NoError(t, svc.SyncSubscription(ctx, subscriptionEvent("canceled", 1702592000)))

	sub, err := NewRepository(db).FindByStripeID(ctx, "sub_1")
	require.NoError(t, err)
	require.NotNil(t, sub)
	assert.Equal(t, enums.SubscriptionStatusCanceled, sub.Status)
}

func TestSyncSubscriptionRejectsUnknownStatus(t *testing.T) {
	db := setupSubscriptionsTestDB(t)
	seedReferences(t, db)
	svc := newSubscriptionsService(t, db)

	err := svc.SyncSubscription(context.Background(), subscriptionEvent("meandering", 1702592000))
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestSyncSubscriptionRejectsMissingItems(t *testing.T) {
	db := setupSubscriptionsTestDB(t)
	seedReferences(t, db)
	svc := newSubscriptionsService(t, db)

	err := svc.SyncSubscription(context.Background(), json.RawMessage(`{
		"id": "sub_1",
		"customer": "cus_1",
		"status": "active",
		"items": {"data": []}
	}`))
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}
