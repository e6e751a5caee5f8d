package plans

// PlanPayload is the subset of a Stripe plan event object that gets persisted.
type PlanPayload struct {
	ID            string `json:"id" validate:"required"`
	Active        bool   `json:"active"`
	Amount        int64  `json:"amount"`
	AmountDecimal string `json:"amount_decimal"`
	Currency      string `json:"currency" validate:"required"`
	Interval      string `json:"interval" validate:"required"`
	IntervalCount int64  `json:"interval_count"`
	Created       int64  `json:"created"`
	Product       string `json:"product"`
}

// ProductPayload is the subset of a Stripe product event object that gets
// persisted. DefaultPrice carries the id of the plan that owns the product.
type ProductPayload struct {
	ID           string `json:"id" validate:"required"`
	Name         string `json:"name" validate:"required"`
	Active       bool   `json:"active"`
	DefaultPrice string `json:"default_price"`
	Created      int64  `json:"created"`
}
