package customers

import "encoding/json"

// CustomerPayload is the subset of a Stripe customer event object that gets
// persisted. The internal user id travels in Stripe metadata when the
// customer was provisioned through the users surface.
type CustomerPayload struct {
	ID       string            `json:"id" validate:"required"`
	Email    string            `json:"email"`
	Name     string            `json:"name"`
	Phone    *string           `json:"phone"`
	Address  json.RawMessage   `json:"address"`
	Metadata map[string]string `json:"metadata"`
}

func (p CustomerPayload) userID() *string {
	if p.Metadata == nil {
		return nil
	}
	if id, ok := p.Metadata["user_id"]; ok && id != "" {
		return &id
	}
	return nil
}
