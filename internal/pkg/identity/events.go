package identity

import (
	"encoding/json"
	"strings"
)

// Clerk user lifecycle event tags.
const (
	EventUserCreated = "user.created"
	EventUserUpdated = "user.updated"
	EventUserDeleted = "user.deleted"
)

// Event is a parsed Clerk webhook envelope.
type Event struct {
	Type string      `json:"type"`
	Data userPayload `json:"data"`
}

type userPayload struct {
	ID                    string         `json:"id"`
	FirstName             string         `json:"first_name"`
	LastName              string         `json:"last_name"`
	ImageURL              string         `json:"image_url"`
	PrimaryEmailAddressID string         `json:"primary_email_address_id"`
	EmailAddresses        []emailAddress `json:"email_addresses"`
	// Deleted is only meaningful on user.deleted events; Clerk sets it to
	// distinguish a confirmed deletion from a placeholder payload.
	Deleted bool `json:"deleted"`
}

type emailAddress struct {
	ID           string `json:"id"`
	EmailAddress string `json:"email_address"`
	Verification *struct {
		Status string `json:"status"`
	} `json:"verification"`
}

// ParseEvent decodes a verified webhook body.
func ParseEvent(payload []byte) (*Event, error) {
	var evt Event
	if err := json.Unmarshal(payload, &evt); err != nil {
		return nil, err
	}
	return &evt, nil
}

// ClerkID returns the external identity the event refers to.
func (e *Event) ClerkID() string {
	return e.Data.ID
}

// PrimaryEmail returns the user's primary address, falling back to the first
// verified address when the primary reference does not resolve.
func (e *Event) PrimaryEmail() string {
	for _, addr := range e.Data.EmailAddresses {
		if addr.ID != "" && addr.ID == e.Data.PrimaryEmailAddressID {
			return addr.EmailAddress
		}
	}
	for _, addr := range e.Data.EmailAddresses {
		if addr.Verification != nil && addr.Verification.Status == "verified" {
			return addr.EmailAddress
		}
	}
	return ""
}

// FullName joins the profile name parts.
func (e *Event) FullName() string {
	return strings.TrimSpace(strings.TrimSpace(e.Data.FirstName) + " " + strings.TrimSpace(e.Data.LastName))
}

// ConfirmedDeleted reports whether a user.deleted event carries the explicit
// deletion flag. Without it the event is treated as a no-op, not a deletion.
func (e *Event) ConfirmedDeleted() bool {
	return e.Data.Deleted
}
