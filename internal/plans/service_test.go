package plans

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/dlemos/billingsync-backend/pkg/db/models"
	pkgerrors "github.com/dlemos/billingsync-backend/pkg/errors"
)

func setupPlansTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Plan{}, &models.Product{}))
	return db
}

func newPlansService(t *testing.T, db *gorm.DB) *Service {
	t.Helper()
	svc, err := NewService(NewRepository(db), nil)
	require.NoError(t, err)
	return svc
}

func TestSyncPlanUpsertConverges(t *testing.T) {
	db := setupPlansTestDB(t)
	svc := newPlansService(t, db)
	ctx := context.Background()

	created := json.RawMessage(`{
		"id": "price_basic",
		"active": true,
		"amount": 999,
		"amount_decimal": "999",
		"currency": "usd",
		"interval": "month",
		"interval_count": 1,
		"created": 1700000000
	}`)
	require.NoError(t, svc.SyncPlan(ctx, created))

	updated := json.RawMessage(`{
		"id": "price_basic",
		"active": false,
		"amount": 1299,
		"amount_decimal": "1299",
		"currency": "usd",
		"interval": "month",
		"interval_count": 1,
		"created": 1700000000
	}`)
	require.NoError(t, svc.SyncPlan(ctx, updated))
	// Redelivery of the same event must not change the row again.
	require.NoError(t, svc.SyncPlan(ctx, updated))

	var plans []models.Plan
	require.NoError(t, db.Find(&plans).Error)
	require.Len(t, plans, 1)
	assert.Equal(t, "price_basic", plans[0].StripeID)
	assert.Equal(t, int64(1299), plans[0].Amount)
	assert.False(t, plans[0].Active)
	require.NotNil(t, plans[0].Created)
	assert.Equal(t, int64(1700000000), plans[0].Created.Unix())
}

func TestSyncPlanOutOfOrderDeliveryLastWriterWins(t *testing.T) {
	db := setupPlansTestDB(t)
	svc := newPlansService(t, db)
	ctx := context.Background()

	// The update event arrives before the create it supersedes; whichever
	// lands last owns the row.
	updated := json.RawMessage(`{"id":"price_basic","active":false,"amount":1299,"currency":"usd","interval":"month"}`)
	created := json.RawMessage(`{"id":"price_basic","active":true,"amount":999,"currency":"usd","interval":"month"}`)
	require.NoError(t, svc.SyncPlan(ctx, updated))
	require.NoError(t, svc.SyncPlan(ctx, created))

	plan, err := NewRepository(db).FindPlanByStripeID(ctx, "price_basic")
	require.NoError(t, err)
	require.NotNil(t, plan)
	assert.Equal(t, int64(999), plan.Amount)
	assert.True(t, plan.Active)
}

func TestSyncPlanRejectsMissingCurrency(t *testing.T) {
	db := setupPlansTestDB(t)
	svc := newPlansService(t, db)

	err := svc.SyncPlan(context.Background(), json.RawMessage(`{"id":"price_1","interval":"month"}`))
	require.Error(t, err)

	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	assert.Contains(t, typed.Message(), "currency")

	var count int64
	require.NoError(t, db.Model(&models.Plan{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestSyncPlanRejectsUnknownInterval(t *testing.T) {
	db := setupPlansTestDB(t)
	svc := newPlansService(t, db)

	err := svc.SyncPlan(context.Background(), json.RawMessage(`{"id":"price_1","currency":"usd","interval":"fortnight"}`))
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestSyncProductRequiresSyncedPlan(t *testing.T) {
	db := setupPlansTestDB(t)
	svc := newPlansService(t, db)

	err := svc.SyncProduct(context.Background(), json.RawMessage(`{
		"id": "prod_1",
		"name": "Starter",
		"active": true,
		"default_price": "price_missing"
	}`))
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())

	var count int64
	require.NoError(t, db.Model(&models.Product{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestSyncProductLinksOwningPlan(t *testing.T) {
	db := setupPlansTestDB(t)
	svc := newPlansService(t, db)
	ctx := context.Background()

	require.NoError(t, svc.SyncPlan(ctx, json.RawMessage(`{
		"id": "price_basic",
		"active": true,
		"amount": 999,
		"currency": "usd",
		"interval": "month"
	}`)))

	product := json.RawMessage(`{
		"id": "prod_1",
		"name": "Starter",
		"active": true,
		"default_price": "price_basic",
		"created": 1700000100
	}`)
	require.NoError(t, svc.SyncProduct(ctx, product))
	require.NoError(t, svc.SyncProduct(ctx, product))

	plan, err := NewRepository(db).FindPlanByStripeID(ctx, "price_basic")
	require.NoError(t, err)
	require.NotNil(t, plan)

	var products []models.Product
	require.NoError(t, db.Find(&products).Error)
	require.Len(t, products, 1)
	assert.Equal(t, "prod_1", products[0].StripeID)
	assert.Equal(t, plan.ID, products[0].PlanID)
	assert.Equal(t, "Starter", products[0].Name)
}
