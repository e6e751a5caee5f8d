// Package subscriptions syncs Stripe subscription lifecycle events. A
// subscription whose plan or customer has not been synced yet is skipped
// without a write; Stripe redelivers state on the next update. Deletion
// events take the same path, the terminal status arrives in the payload.
package subscriptions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dlemos/billingsync-backend/pkg/db/models"
	pkgerrors "github.com/dlemos/billingsync-backend/pkg/errors"
	"github.com/dlemos/billingsync-backend/pkg/logger"
	"github.com/dlemos/billingsync-backend/pkg/payload"
)

// ErrReferenceNotSynced marks an event whose plan or customer is unknown
// locally. Callers acknowledge the event without persisting anything.
var ErrReferenceNotSynced = errors.New("referenced record not synced")

// PlanResolver looks up synced plans by Stripe id.
type PlanResolver interface {
	FindPlanByStripeID(ctx context.Context, stripeID string) (*models.Plan, error)
}

// CustomerResolver looks up synced customers by Stripe id.
type CustomerResolver interface {
	FindByStripeID(ctx context.Context, stripeID string) (*models.Customer, error)
}

type ServiceParams struct {
	Repo      Repository
	Plans     PlanResolver
	Customers CustomerResolver
	Logger    *logger.Logger
}

type Service struct {
	repo      Repository
	plans     PlanResolver
	customers CustomerResolver
	logg      *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "subscriptions repo required")
	}
	if params.Plans == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "plan resolver required")
	}
	if params.Customers == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "customer resolver required")
	}
	return &Service{
		repo:      params.Repo,
		plans:     params.Plans,
		customers: params.Customers,
		logg:      params.Logger,
	}, nil
}

// SyncSubscription decodes a subscription event object and upserts the row
// keyed on its Stripe id.
func (s *Service) SyncSubscription(ctx context.Context, raw json.RawMessage) error {
	var p SubscriptionPayload
	if err := payload.Decode(raw, &p); err != nil {
		return err
	}

	planID := p.planStripeID()
	if planID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "subscription item carries no plan reference")
	}

	customer, err := s.customers.FindByStripeID(ctx, p.Customer)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find customer for subscription")
	}
	if customer == nil {
		return fmt.Errorf("customer %s: %w", p.Customer, ErrReferenceNotSynced)
	}

	plan, err := s.plans.FindPlanByStripeID(ctx, planID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find plan for subscription")
	}
	if plan == nil {
		return fmt.Errorf("plan %s: %w", planID, ErrReferenceNotSynced)
	}

	subscription, err := toModel(p, customer, plan)
	if err != nil {
		return err
	}

	if err := s.repo.Upsert(ctx, subscription); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upsert subscription")
	}

	if s.logg != nil {
		ctx = s.logg.WithStripeID(ctx, p.ID)
		s.logg.Info(ctx, "subscription synced")
	}
	return nil
}
