// Package plans syncs Stripe plan and product events into the local catalog
// tables. Plans are standalone; products must resolve their owning plan
// through the product's default price before they are written.
package plans

import (
	"context"
	"encoding/json"
	"fmt"

	pkgerrors "github.com/dlemos/billingsync-backend/pkg/errors"
	"github.com/dlemos/billingsync-backend/pkg/logger"
	"github.com/dlemos/billingsync-backend/pkg/payload"
)

type Service struct {
	repo Repository
	logg *logger.Logger
}

func NewService(repo Repository, logg *logger.Logger) (*Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "plans repo required")
	}
	return &Service{repo: repo, logg: logg}, nil
}

// SyncPlan decodes a plan event object and upserts the plan keyed on its
// Stripe id.
func (s *Service) SyncPlan(ctx context.Context, raw json.RawMessage) error {
	var p PlanPayload
	if err := payload.Decode(raw, &p); err != nil {
		return err
	}

	plan, err := toPlanModel(p)
	if err != nil {
		return err
	}

	if err := s.repo.UpsertPlan(ctx, plan); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upsert plan")
	}

	if s.logg != nil {
		ctx = s.logg.WithStripeID(ctx, p.ID)
		s.logg.Info(ctx, "plan synced")
	}
	return nil
}

// SyncProduct decodes a product event object and upserts the product. The
// owning plan is resolved through default_price; a product whose plan has not
// been synced yet cannot be stored.
func (s *Service) SyncProduct(ctx context.Context, raw json.RawMessage) error {
	var p ProductPayload
	if err := payload.Decode(raw, &p); err != nil {
		return err
	}

	if p.DefaultPrice == "" {
		return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("plan for product %s not found", p.ID))
	}

	plan, err := s.repo.FindPlanByStripeID(ctx, p.DefaultPrice)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find plan for product")
	}
	if plan == nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("plan %s for product %s not found", p.DefaultPrice, p.ID))
	}

	if err := s.repo.UpsertProduct(ctx, toProductModel(p, plan)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upsert product")
	}

	if s.logg != nil {
		ctx = s.logg.WithStripeID(ctx, p.ID)
		s.logg.Info(ctx, "product synced")
	}
	return nil
}
