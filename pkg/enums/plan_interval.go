package enums

import "fmt"

// PlanInterval is the billing cadence Stripe attaches to a plan.
type PlanInterval string

const (
	PlanIntervalDay   PlanInterval = "day"
	PlanIntervalWeek  PlanInterval = "week"
	PlanIntervalMonth PlanInterval = "month"
	PlanIntervalYear  PlanInterval = "year"
)

var validPlanIntervals = []PlanInterval{
	PlanIntervalDay,
	PlanIntervalWeek,
	PlanIntervalMonth,
	PlanIntervalYear,
}

// String implements fmt.Stringer.
func (p PlanInterval) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PlanInterval.
func (p PlanInterval) IsValid() bool {
	for _, candidate := range validPlanIntervals {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePlanInterval converts raw input into a PlanInterval.
func ParsePlanInterval(value string) (PlanInterval, error) {
	for _, candidate := range validPlanIntervals {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid plan interval %q", value)
}
