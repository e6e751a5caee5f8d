package plans

import (
	"github.com/shopspring/decimal"

	"github.com/dlemos/billingsync-backend/pkg/db/models"
	"github.com/dlemos/billingsync-backend/pkg/enums"
	pkgerrors "github.com/dlemos/billingsync-backend/pkg/errors"
	"github.com/dlemos/billingsync-backend/pkg/timeconv"
)

func toPlanModel(p PlanPayload) (*models.Plan, error) {
	interval, err := enums.ParsePlanInterval(p.Interval)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid plan interval")
	}

	amountDecimal := decimal.NewFromInt(p.Amount)
	if p.AmountDecimal != "" {
		parsed, err := decimal.NewFromString(p.AmountDecimal)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid plan amount_decimal")
		}
		amountDecimal = parsed
	}

	intervalCount := p.IntervalCount
	if intervalCount <= 0 {
		intervalCount = 1
	}

	return &models.Plan{
		StripeID:      p.ID,
		Active:        p.Active,
		Amount:        p.Amount,
		AmountDecimal: amountDecimal,
		Currency:      p.Currency,
		Interval:      interval,
		IntervalCount: intervalCount,
		Created:       timeconv.FromUnix(p.Created),
	}, nil
}

func toProductModel(p ProductPayload, plan *models.Plan) *models.Product {
	return &models.Product{
		StripeID: p.ID,
		PlanID:   plan.ID,
		Name:     p.Name,
		Active:   p.Active,
		Created:  timeconv.FromUnix(p.Created),
	}
}
