package subscriptions

import (
	"github.com/dlemos/billingsync-backend/pkg/db/models"
	"github.com/dlemos/billingsync-backend/pkg/enums"
	pkgerrors "github.com/dlemos/billingsync-backend/pkg/errors"
	"github.com/dlemos/billingsync-backend/pkg/timeconv"
)

func toModel(p SubscriptionPayload, customer *models.Customer, plan *models.Plan) (*models.Subscription, error) {
	status, err := enums.ParseSubscriptionStatus(p.Status)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid subscription status")
	}

	item := p.firstItem()
	quantity := item.Quantity
	if quantity <= 0 {
		quantity = 1
	}

	return &models.Subscription{
		StripeID:           p.ID,
		CustomerID:         customer.ID,
		PlanID:             plan.ID,
		Status:             status,
		BillingCycleAnchor: timeconv.FromUnix(p.BillingCycleAnchor),
		CurrentPeriodStart: timeconv.FromUnix(item.CurrentPeriodStart),
		CurrentPeriodEnd:   timeconv.FromUnix(item.CurrentPeriodEnd),
		CancelAt:           timeconv.FromUnix(p.CancelAt),
		CanceledAt:         timeconv.FromUnix(p.CanceledAt),
		CancelAtPeriodEnd:  p.CancelAtPeriodEnd,
		Quantity:           quantity,
		Created:            timeconv.FromUnix(p.Created),
	}, nil
}
