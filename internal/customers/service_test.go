package customers

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/dlemos/billingsync-backend/pkg/db/models"
	pkgerrors "github.com/dlemos/billingsync-backend/pkg/errors"
)

func setupCustomersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Customer{}))
	return db
}

func newCustomersService(t *testing.T, db *gorm.DB, stripe StripeCustomerClient) *Service {
	t.Helper()
	svc, err := NewService(ServiceParams{Repo: NewRepository(db), StripeClient: stripe})
	require.NoError(t, err)
	return svc
}

type fakeStripeCustomers struct {
	created   int
	deleted   []string
	createErr error
	nextID    string
}

func (f *fakeStripeCustomers) CreateCustomer(ctx context.Context, userID, email, name string) (string, error) {
	if f.createErr != nil {
		return "", f.createErr
	}
	f.created++
	if f.nextID == "" {
		return "cus_fake", nil
	}
	return f.nextID, nil
}

func (f *fakeStripeCustomers) DeleteCustomer(ctx context.Context, customerID string) error {
	f.deleted = append(f.deleted, customerID)
	return nil
}

func TestSyncCustomerUpsertConverges(t *testing.T) {
	db := setupCustomersTestDB(t)
	svc := newCustomersService(t, db, nil)
	ctx := context.Background()

	created := json.RawMessage(`{"id":"cus_1","email":"a@example.com","name":"Ada"}`)
	require.NoError(t, svc.SyncCustomer(ctx, created))

	updated := json.RawMessage(`{"id":"cus_1","email":"a@example.com","name":"Ada Lovelace","phone":"+1555"}`)
	require.NoError(t, svc.SyncCustomer(ctx, updated))
	require.NoError(t, svc.SyncCustomer(ctx, updated))

	var customers []models.Customer
	require.NoError(t, db.Find(&customers).Error)
	require.Len(t, customers, 1)
	assert.Equal(t, "cus_1", customers[0].StripeID)
	assert.Equal(t, "Ada Lovelace", customers[0].Name)
	require.NotNil(t, customers[0].Phone)
	assert.Equal(t, "+1555", *customers[0].Phone)
}

func TestSyncCustomerAdoptsRowByEmail(t *testing.T) {
	db := setupCustomersTestDB(t)
	svc := newCustomersService(t, db, nil)
	ctx := context.Background()

	userID := "user-1"
	seeded := &models.Customer{StripeID: "cus_provisioned", UserID: &userID, Email: "a@example.com"}
	require.NoError(t, db.Create(seeded).Error)

	require.NoError(t, svc.SyncCustomer(ctx, json.RawMessage(`{"id":"cus_webhook","email":"a@example.com","name":"Ada"}`)))

	var customers []models.Customer
	require.NoError(t, db.Find(&customers).Error)
	require.Len(t, customers, 1)
	assert.Equal(t, seeded.ID, customers[0].ID)
	assert.Equal(t, "cus_webhook", customers[0].StripeID)
	require.NotNil(t, customers[0].UserID)
	assert.Equal(t, userID, *customers[0].UserID)
}

func TestSyncCustomerRejectsMissingID(t *testing.T) {
	db := setupCustomersTestDB(t)
	svc := newCustomersService(t, db, nil)

	err := svc.SyncCustomer(context.Background(), json.RawMessage(`{"email":"a@example.com"}`))
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestEnsureTxCreatesMissingCustomer(t *testing.T) {
	db := setupCustomersTestDB(t)
	svc := newCustomersService(t, db, nil)
	ctx := context.Background()

	customer, err := svc.EnsureTx(ctx, db, "cus_lazy", "b@example.com", "Bea")
	require.NoError(t, err)
	require.NotNil(t, customer)

	again, err := svc.EnsureTx(ctx, db, "cus_lazy", "ignored@example.com", "Ignored")
	require.NoError(t, err)
	assert.Equal(t, customer.ID, again.ID)
	assert.Equal(t, "b@example.com", again.Email)

	var count int64
	require.NoError(t, db.Model(&models.Customer{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestProvisionUserCreatesMapping(t *testing.T) {
	db := setupCustomersTestDB(t)
	stripe := &fakeStripeCustomers{nextID: "cus_new"}
	svc := newCustomersService(t, db, stripe)

	customer, created, err := svc.ProvisionUser(context.Background(), "user-1", "a@example.com", "Ada")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "cus_new", customer.StripeID)
	assert.Equal(t, 1, stripe.created)

	// Second call returns the existing mapping without another remote create.
	again, created, err := svc.ProvisionUser(context.Background(), "user-1", "a@example.com", "Ada")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, customer.ID, again.ID)
	assert.Equal(t, 1, stripe.created)
}

func TestProvisionUserCompensatesOnInsertFailure(t *testing.T) {
	db := setupCustomersTestDB(t)
	stripe := &fakeStripeCustomers{nextID: "cus_dupe"}
	svc := newCustomersService(t, db, stripe)

	// Occupy the stripe id so the insert hits the unique constraint.
	require.NoError(t, db.Create(&models.Customer{StripeID: "cus_dupe", Email: "x@example.com"}).Error)

	_, _, err := svc.ProvisionUser(context.Background(), "user-2", "y@example.com", "Yan")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.As(err).Code())
	assert.Equal(t, []string{"cus_dupe"}, stripe.deleted)
}

func TestProvisionUserRemoteFailure(t *testing.T) {
	db := setupCustomersTestDB(t)
	stripe := &fakeStripeCustomers{createErr: errors.New("stripe down")}
	svc := newCustomersService(t, db, stripe)

	_, _, err := svc.ProvisionUser(context.Background(), "user-3", "z@example.com", "Zoe")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeDependency, pkgerrors.As(err).Code())

	var count int64
	require.NoError(t, db.Model(&models.Customer{}).Count(&count).Error)
	assert.Zero(t, count)
}
