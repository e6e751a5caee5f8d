package webhooks

import (
	"context"
	"fmt"
	"net/http"

	"github.com/dlemos/billingsync-backend/api/responses"
	"github.com/dlemos/billingsync-backend/pkg/db/models"
	pkgerrors "github.com/dlemos/billingsync-backend/pkg/errors"
	"github.com/dlemos/billingsync-backend/pkg/logger"
	"github.com/dlemos/billingsync-backend/pkg/payload"
)

// UserProvisioner creates the Stripe customer for an internal user.
type UserProvisioner interface {
	ProvisionUser(ctx context.Context, userID, email, name string) (*models.Customer, bool, error)
}

// UserEventPayload is the database-trigger shape delivered to the users
// surface when a user row is inserted upstream.
type UserEventPayload struct {
	Type   string     `json:"type"`
	Table  string     `json:"table"`
	Record UserRecord `json:"record"`
}

type UserRecord struct {
	ID    string `json:"id" validate:"required"`
	Email string `json:"email" validate:"required,email"`
	Name  string `json:"name"`
}

// CreateUser provisions a Stripe customer for a newly created user and stores
// the mapping. Redeliveries return the existing mapping.
func CreateUser(svc UserProvisioner, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "customer service unavailable"))
			return
		}

		var event UserEventPayload
		if err := payload.DecodeRequest(r, &event); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		customer, created, err := svc.ProvisionUser(ctx, event.Record.ID, event.Record.Email, event.Record.Name)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if created {
			responses.WriteSuccess(w, fmt.Sprintf("customer %s created", customer.StripeID))
			return
		}
		responses.WriteSuccess(w, fmt.Sprintf("customer %s already exists", customer.StripeID))
	}
}
