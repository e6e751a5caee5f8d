// Package invoices syncs Stripe invoice events. The referenced product must
// already be synced; the referenced customer is created on the fly from the
// invoice's own fields when no row exists. Both writes share one transaction.
package invoices

import (
	"context"
	"encoding/json"
	"fmt"

	"gorm.io/gorm"

	"github.com/dlemos/billingsync-backend/internal/plans"
	"github.com/dlemos/billingsync-backend/pkg/db/models"
	pkgerrors "github.com/dlemos/billingsync-backend/pkg/errors"
	"github.com/dlemos/billingsync-backend/pkg/logger"
	"github.com/dlemos/billingsync-backend/pkg/payload"
)

type customerEnsurer interface {
	EnsureTx(ctx context.Context, tx *gorm.DB, stripeID, email, name string) (*models.Customer, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type ServiceParams struct {
	Repo              Repository
	Products          plans.Repository
	Customers         customerEnsurer
	TransactionRunner txRunner
	Logger            *logger.Logger
}

type Service struct {
	repo      Repository
	products  plans.Repository
	customers customerEnsurer
	txRunner  txRunner
	logg      *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "invoices repo required")
	}
	if params.Products == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "products repo required")
	}
	if params.Customers == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "customer ensurer required")
	}
	if params.TransactionRunner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	return &Service{
		repo:      params.Repo,
		products:  params.Products,
		customers: params.Customers,
		txRunner:  params.TransactionRunner,
		logg:      params.Logger,
	}, nil
}

// SyncInvoice decodes an invoice event object and upserts the row keyed on its
// Stripe id. The lazy customer create and the invoice write commit together.
func (s *Service) SyncInvoice(ctx context.Context, raw json.RawMessage) error {
	var p InvoicePayload
	if err := payload.Decode(raw, &p); err != nil {
		return err
	}

	productRef := p.productStripeID()
	if productRef == "" {
		return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("product for invoice %s not found", p.ID))
	}

	err := s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		product, err := s.products.WithTx(tx).FindProductByStripeID(ctx, productRef)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find product for invoice")
		}
		if product == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("product %s for invoice %s not found", productRef, p.ID))
		}

		customer, err := s.customers.EnsureTx(ctx, tx, p.Customer, p.CustomerEmail, p.CustomerName)
		if err != nil {
			return err
		}

		invoice, err := toModel(p, product, customer)
		if err != nil {
			return err
		}

		if err := s.repo.WithTx(tx).Upsert(ctx, invoice); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upsert invoice")
		}
		return nil
	})
	if err != nil {
		return err
	}

	if s.logg != nil {
		ctx = s.logg.WithStripeID(ctx, p.ID)
		s.logg.Info(ctx, "invoice synced")
	}
	return nil
}
