package invoices

import (
	"github.com/dlemos/billingsync-backend/pkg/db/models"
	"github.com/dlemos/billingsync-backend/pkg/enums"
	pkgerrors "github.com/dlemos/billingsync-backend/pkg/errors"
	"github.com/dlemos/billingsync-backend/pkg/timeconv"
)

func toModel(p InvoicePayload, product *models.Product, customer *models.Customer) (*models.Invoice, error) {
	status, err := enums.ParseInvoiceStatus(p.Status)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid invoice status")
	}

	line := p.firstLine()
	quantity := line.Quantity
	if quantity <= 0 {
		quantity = 1
	}

	periodStart := p.PeriodStart
	periodEnd := p.PeriodEnd
	if periodStart == 0 {
		periodStart = line.Period.Start
	}
	if periodEnd == 0 {
		periodEnd = line.Period.End
	}

	return &models.Invoice{
		StripeID:        p.ID,
		ProductID:       product.ID,
		CustomerID:      customer.ID,
		Status:          status,
		AmountDue:       p.AmountDue,
		AmountPaid:      p.AmountPaid,
		AmountRemaining: p.AmountRemaining,
		Currency:        p.Currency,
		PeriodStart:     timeconv.FromUnix(periodStart),
		PeriodEnd:       timeconv.FromUnix(periodEnd),
		Quantity:        quantity,
		Created:         timeconv.FromUnix(p.Created),
	}, nil
}
