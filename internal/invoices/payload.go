package invoices

// InvoicePayload is the subset of a Stripe invoice event object that gets
// persisted. The product reference lives on the first invoice line.
type InvoicePayload struct {
	ID              string       `json:"id" validate:"required"`
	Customer        string       `json:"customer" validate:"required"`
	CustomerEmail   string       `json:"customer_email"`
	CustomerName    string       `json:"customer_name"`
	Status          string       `json:"status" validate:"required"`
	AmountDue       int64        `json:"amount_due"`
	AmountPaid      int64        `json:"amount_paid"`
	AmountRemaining int64        `json:"amount_remaining"`
	Currency        string       `json:"currency" validate:"required"`
	PeriodStart     int64        `json:"period_start"`
	PeriodEnd       int64        `json:"period_end"`
	Created         int64        `json:"created"`
	Lines           InvoiceLines `json:"lines"`
}

type InvoiceLines struct {
	Data []InvoiceLine `json:"data" validate:"min=1"`
}

type InvoiceLine struct {
	Quantity int64       `json:"quantity"`
	Price    priceRef    `json:"price"`
	Plan     planRef     `json:"plan"`
	Period   periodRange `json:"period"`
}

type priceRef struct {
	ID      string `json:"id"`
	Product string `json:"product"`
}

type planRef struct {
	ID      string `json:"id"`
	Product string `json:"product"`
}

type periodRange struct {
	Start int64 `json:"start"`
	End   int64 `json:"end"`
}

// productStripeID returns the product referenced by the first line, read from
// the price first and the legacy plan object second.
func (p InvoicePayload) productStripeID() string {
	if len(p.Lines.Data) == 0 {
		return ""
	}
	line := p.Lines.Data[0]
	if line.Price.Product != "" {
		return line.Price.Product
	}
	return line.Plan.Product
}

func (p InvoicePayload) firstLine() InvoiceLine {
	if len(p.Lines.Data) == 0 {
		return InvoiceLine{}
	}
	return p.Lines.Data[0]
}
