package subscriptions

// SubscriptionPayload is the subset of a Stripe subscription event object that
// gets persisted. Period bounds and the plan reference live on the first
// subscription item.
type SubscriptionPayload struct {
	ID                 string            `json:"id" validate:"required"`
	Customer           string            `json:"customer" validate:"required"`
	Status             string            `json:"status" validate:"required"`
	CancelAtPeriodEnd  bool              `json:"cancel_at_period_end"`
	BillingCycleAnchor int64             `json:"billing_cycle_anchor"`
	CancelAt           int64             `json:"cancel_at"`
	CanceledAt         int64             `json:"canceled_at"`
	Created            int64             `json:"created"`
	Items              SubscriptionItems `json:"items"`
}

type SubscriptionItems struct {
	Data []SubscriptionItem `json:"data" validate:"min=1"`
}

type SubscriptionItem struct {
	Quantity           int64 `json:"quantity"`
	CurrentPeriodStart int64 `json:"current_period_start"`
	CurrentPeriodEnd   int64 `json:"current_period_end"`
	Plan               idRef `json:"plan"`
	Price              idRef `json:"price"`
}

type idRef struct {
	ID string `json:"id"`
}

// planStripeID returns the plan reference from the first item, falling back to
// the price id (Stripe mirrors plans as prices).
func (p SubscriptionPayload) planStripeID() string {
	if len(p.Items.Data) == 0 {
		return ""
	}
	item := p.Items.Data[0]
	if item.Plan.ID != "" {
		return item.Plan.ID
	}
	return item.Price.ID
}

func (p SubscriptionPayload) firstItem() SubscriptionItem {
	if len(p.Items.Data) == 0 {
		return SubscriptionItem{}
	}
	return p.Items.Data[0]
}
