package webhooks

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dlemos/billingsync-backend/pkg/db/models"
	pkgerrors "github.com/dlemos/billingsync-backend/pkg/errors"
)

type fakeProvisioner struct {
	calls   int
	created bool
	err     error
}

func (f *fakeProvisioner) ProvisionUser(ctx context.Context, userID, email, name string) (*models.Customer, bool, error) {
	f.calls++
	if f.err != nil {
		return nil, false, f.err
	}
	return &models.Customer{StripeID: "cus_1", Email: email, Name: name}, f.created, nil
}

func postUserEvent(handler http.HandlerFunc, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/users", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestCreateUserProvisionsCustomer(t *testing.T) {
	svc := &fakeProvisioner{created: true}
	handler := CreateUser(svc, nil)

	rec := postUserEvent(handler, `{"type":"INSERT","table":"users","record":{"id":"user-1","email":"a@example.com","name":"Ada"}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 1, svc.calls)
	assert.Contains(t, rec.Body.String(), "cus_1")
}

func TestCreateUserReturnsExistingMapping(t *testing.T) {
	svc := &fakeProvisioner{created: false}
	handler := CreateUser(svc, nil)

	rec := postUserEvent(handler, `{"type":"INSERT","table":"users","record":{"id":"user-1","email":"a@example.com"}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "already exists")
}

func TestCreateUserRejectsMissingEmail(t *testing.T) {
	svc := &fakeProvisioner{}
	handler := CreateUser(svc, nil)

	rec := postUserEvent(handler, `{"type":"INSERT","table":"users","record":{"id":"user-1"}}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, svc.calls)
	assert.Contains(t, rec.Body.String(), "email")
}

func TestCreateUserDependencyFailure(t *testing.T) {
	svc := &fakeProvisioner{err: pkgerrors.Wrap(pkgerrors.CodeDependency, errors.New("stripe down"), "create stripe customer")}
	handler := CreateUser(svc, nil)

	rec := postUserEvent(handler, `{"type":"INSERT","table":"users","record":{"id":"user-1","email":"a@example.com"}}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}
