// Package timeconv normalizes the epoch-second timestamps Stripe puts on
// event payloads. Zero means "not set" upstream, never the epoch instant.
package timeconv

import "time"

// FromUnix converts epoch seconds into a UTC time pointer. Zero and negative
// inputs normalize to nil.
func FromUnix(seconds int64) *time.Time {
	if seconds <= 0 {
		return nil
	}
	t := time.Unix(seconds, 0).UTC()
	return &t
}

// FromUnixPtr is FromUnix with absent-value passthrough.
func FromUnixPtr(seconds *int64) *time.Time {
	if seconds == nil {
		return nil
	}
	return FromUnix(*seconds)
}
