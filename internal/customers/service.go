// Package customers syncs Stripe customer events into the customers table and
// provisions Stripe customers for internal users. Rows are matched by Stripe
// id first, then by email, so a customer created through the users surface is
// adopted by later webhook events instead of duplicated.
package customers

import (
	"context"
	"encoding/json"
	"fmt"

	"gorm.io/gorm"

	"github.com/dlemos/billingsync-backend/pkg/db"
	"github.com/dlemos/billingsync-backend/pkg/db/models"
	pkgerrors "github.com/dlemos/billingsync-backend/pkg/errors"
	"github.com/dlemos/billingsync-backend/pkg/logger"
	"github.com/dlemos/billingsync-backend/pkg/payload"
)

// StripeCustomerClient is the slice of the Stripe API the users surface needs.
type StripeCustomerClient interface {
	CreateCustomer(ctx context.Context, userID, email, name string) (string, error)
	DeleteCustomer(ctx context.Context, customerID string) error
}

type ServiceParams struct {
	Repo         Repository
	StripeClient StripeCustomerClient
	Logger       *logger.Logger
}

type Service struct {
	repo   Repository
	stripe StripeCustomerClient
	logg   *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "customers repo required")
	}
	return &Service{
		repo:   params.Repo,
		stripe: params.StripeClient,
		logg:   params.Logger,
	}, nil
}

// SyncCustomer decodes a customer event object and upserts the row. When no
// row carries the Stripe id yet, an existing row with the same email is
// adopted so the users surface and the webhook surface converge on one row.
func (s *Service) SyncCustomer(ctx context.Context, raw json.RawMessage) error {
	var p CustomerPayload
	if err := payload.Decode(raw, &p); err != nil {
		return err
	}

	existing, err := s.repo.FindByStripeID(ctx, p.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find customer")
	}

	if existing == nil && p.Email != "" {
		existing, err = s.repo.FindByEmail(ctx, p.Email)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find customer by email")
		}
	}

	if existing != nil {
		applyPayload(existing, p)
		if err := s.repo.Save(ctx, existing); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update customer")
		}
	} else {
		customer := &models.Customer{}
		applyPayload(customer, p)
		if err := s.repo.Upsert(ctx, customer); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upsert customer")
		}
	}

	if s.logg != nil {
		ctx = s.logg.WithStripeID(ctx, p.ID)
		s.logg.Info(ctx, "customer synced")
	}
	return nil
}

func applyPayload(customer *models.Customer, p CustomerPayload) {
	customer.StripeID = p.ID
	if p.Email != "" {
		customer.Email = p.Email
	}
	if p.Name != "" {
		customer.Name = p.Name
	}
	if p.Phone != nil {
		customer.Phone = p.Phone
	}
	if len(p.Address) > 0 {
		customer.Address = p.Address
	}
	if id := p.userID(); id != nil {
		customer.UserID = id
	}
}

// EnsureTx returns the customer row for the Stripe id, creating a minimal one
// inside the transaction when none exists yet. Invoice events reference
// customers that may not have been synced.
func (s *Service) EnsureTx(ctx context.Context, tx *gorm.DB, stripeID, email, name string) (*models.Customer, error) {
	repo := s.repo.WithTx(tx)

	existing, err := repo.FindByStripeID(ctx, stripeID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find customer")
	}
	if existing != nil {
		return existing, nil
	}

	customer := &models.Customer{
		StripeID: stripeID,
		Email:    email,
		Name:     name,
	}
	if err := repo.Create(ctx, customer); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create customer")
	}

	if s.logg != nil {
		s.logg.Info(s.logg.WithStripeID(ctx, stripeID), "customer created from invoice")
	}
	return customer, nil
}

// ProvisionUser creates a Stripe customer for an internal user and records the
// mapping. When the local insert fails the remote customer is deleted again so
// a retry does not leave an orphan on Stripe's side.
func (s *Service) ProvisionUser(ctx context.Context, userID, email, name string) (*models.Customer, bool, error) {
	if s.stripe == nil {
		return nil, false, pkgerrors.New(pkgerrors.CodeInternal, "stripe client unavailable")
	}

	existing, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find customer for user")
	}
	if existing != nil {
		return existing, false, nil
	}

	stripeID, err := s.stripe.CreateCustomer(ctx, userID, email, name)
	if err != nil {
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create stripe customer")
	}

	customer := &models.Customer{
		StripeID: stripeID,
		UserID:   &userID,
		Email:    email,
		Name:     name,
	}
	if err := s.repo.Create(ctx, customer); err != nil {
		if delErr := s.stripe.DeleteCustomer(ctx, stripeID); delErr != nil && s.logg != nil {
			s.logg.Error(ctx, fmt.Sprintf("compensating delete of stripe customer %s failed", stripeID), delErr)
		}
		if db.IsUniqueViolation(err, "stripe_id") {
			return nil, false, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "customer already mapped")
		}
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert customer")
	}

	if s.logg != nil {
		ctx = s.logg.WithStripeID(ctx, stripeID)
		s.logg.Info(ctx, "customer provisioned for user")
	}
	return customer, true, nil
}
