// Package model defines the core domain types for event registrations
// and ticket inventory.
package model

import "time"

// Status is the lifecycle state of a registration.
type Status string

const (
	StatusPendingPayment Status = "PENDING_PAYMENT"
	StatusPending        Status = "PENDING"
	StatusApproved       Status = "APPROVED"
	StatusWaitlisted     Status = "WAITLISTED"
	StatusRejected       Status = "REJECTED"
	StatusCancelled      Status = "CANCELLED"
)

// allStatuses lists every known status, used for validation.
var allStatuses = []Status{
	StatusPendingPayment,
	StatusPending,
	StatusApproved,
	StatusWaitlisted,
	StatusRejected,
	StatusCancelled,
}

// Statuses returns all known registration statuses.
func Statuses() []Status {
	out := make([]Status, len(allStatuses))
	copy(out, allStatuses)
	return out
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	for _, known := range allStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Occupies reports whether a registration in this status holds an
// inventory slot against its ticket type. PENDING_PAYMENT, PENDING and
// APPROVED occupy; WAITLISTED, REJECTED and CANCELLED do not.
func (s Status) Occupies() bool {
	switch s {
	case StatusPendingPayment, StatusPending, StatusApproved:
		return true
	default:
		return false
	}
}

// Event represents an event that users register for. Page content,
// scheduling and organizer details live in the surrounding platform;
// only the fields the registration engine needs are modeled here.
type Event struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Description      string    `json:"description"`
	RequiresApproval bool      `json:"requires_approval"`
	CreatedAt        time.Time `json:"created_at"`
}

// TicketType is a finite (or unlimited) pool of slots for one event.
// CurrentQuantity counts registrations in an occupying status and is
// only ever mutated through the store's conditional reserve/release.
type TicketType struct {
	ID               string    `json:"id"`
	EventID          string    `json:"event_id"`
	Name             string    `json:"name"`
	Price            float64   `json:"price"`
	CurrentQuantity  int       `json:"current_quantity"`
	MaxQuantity      *int      `json:"max_quantity"` // nil means unlimited
	RequiresApproval bool      `json:"requires_approval"`
	IsActive         bool      `json:"is_active"`
	CreatedAt        time.Time `json:"created_at"`
}

// Unlimited reports whether the ticket type has no capacity cap.
func (t *TicketType) Unlimited() bool {
	return t.MaxQuantity == nil
}

// SoldOut reports whether no slots remain.
func (t *TicketType) SoldOut() bool {
	return t.MaxQuantity != nil && t.CurrentQuantity >= *t.MaxQuantity
}

// InitialStatus returns the status a new registration for this ticket
// type starts in: paid tickets await payment, approval-gated tickets
// await review, everything else is approved immediately.
func (t *TicketType) InitialStatus() Status {
	switch {
	case t.Price > 0:
		return StatusPendingPayment
	case t.RequiresApproval:
		return StatusPending
	default:
		return StatusApproved
	}
}

// Registration is one user's registration for one event, unique per
// (event, user) pair. Status is only ever written by the registration
// service inside a store transaction.
type Registration struct {
	ID           string    `json:"id"`
	EventID      string    `json:"event_id"`
	UserID       string    `json:"user_id"`
	TicketTypeID *string   `json:"ticket_type_id"`
	Status       Status    `json:"status"`
	OrderID      *string   `json:"order_id,omitempty"`
	ReviewedBy   *string   `json:"reviewed_by,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// CreateEventRequest is the payload for creating a new event.
type CreateEventRequest struct {
	Name             string `json:"name"`
	Description      string `json:"description"`
	RequiresApproval bool   `json:"requires_approval"`
}

// CreateTicketTypeRequest is the payload for adding a ticket type to an event.
type CreateTicketTypeRequest struct {
	Name             string  `json:"name"`
	Price            float64 `json:"price"`
	MaxQuantity      *int    `json:"max_quantity"`
	RequiresApproval bool    `json:"requires_approval"`
}

// CreateRegistrationRequest is the payload for registering a user.
// JoinWaitlist creates the registration as WAITLISTED without touching
// inventory, for callers that already know the ticket type is full.
type CreateRegistrationRequest struct {
	UserID       string  `json:"user_id"`
	TicketTypeID *string `json:"ticket_type_id"`
	JoinWaitlist bool    `json:"join_waitlist"`
}

// UpdateRegistrationRequest is the payload for a status transition.
type UpdateRegistrationRequest struct {
	Status     Status `json:"status"`
	ReviewedBy string `json:"reviewed_by"`
}

// ErrorResponse is a standard JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}
