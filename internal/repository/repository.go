// Package repository defines the storage boundary for the registration
// engine and provides two implementations: PostgreSQL (production) and
// in-memory (tests, local development).
package repository

import (
	"context"
	"errors"

	"github.com/communityhub/registration-core/internal/model"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// ErrAlreadyRegistered is returned when the same user registers twice
// for one event.
var ErrAlreadyRegistered = errors.New("user already registered for this event")

// ErrSoldOut is returned when a reservation finds no remaining capacity,
// or loses the slot to a concurrent writer.
var ErrSoldOut = errors.New("ticket type is sold out")

// ErrAlreadyCancelled is returned when cancelling a registration that is
// already in the terminal CANCELLED state.
var ErrAlreadyCancelled = errors.New("registration is already cancelled")

// ErrTicketTypeInactive is returned when registering against a
// deactivated ticket type.
var ErrTicketTypeInactive = errors.New("ticket type is not active")

// ErrInventoryDrift is returned when a release finds current_quantity
// already at zero even though an occupying registration implied
// otherwise. It signals corrupted counters and is never auto-corrected.
var ErrInventoryDrift = errors.New("inventory drift: release on empty ticket type")

// Tx is the per-transaction contract the registration service requires.
// Every method sees the transaction's isolation scope; ReserveSlot and
// ReleaseSlot must each be a single conditional write so the storage
// engine, not the application, serializes concurrent attempts.
type Tx interface {
	// GetEvent returns an event or ErrNotFound.
	GetEvent(ctx context.Context, id string) (*model.Event, error)

	// GetRegistration returns the registration for (eventID, userID) or
	// ErrNotFound.
	GetRegistration(ctx context.Context, eventID, userID string) (*model.Registration, error)

	// InsertRegistration persists a new registration. Returns
	// ErrAlreadyRegistered if the (eventID, userID) pair exists.
	InsertRegistration(ctx context.Context, reg *model.Registration) error

	// UpdateRegistrationStatus writes the registration's status,
	// reviewer and updated-at timestamp.
	UpdateRegistrationStatus(ctx context.Context, reg *model.Registration) error

	// GetTicketType returns a ticket type with its current counters, or
	// ErrNotFound.
	GetTicketType(ctx context.Context, id string) (*model.TicketType, error)

	// ReserveSlot increments current_quantity by one, only if the row
	// still holds expectedQuantity and capacity remains (or is
	// unlimited). Reports whether the increment happened; false means
	// sold out or a lost race, with no mutation either way.
	ReserveSlot(ctx context.Context, ticketTypeID string, expectedQuantity int) (bool, error)

	// ReleaseSlot decrements current_quantity by one, only if it is
	// currently above zero. Reports whether the decrement happened.
	ReleaseSlot(ctx context.Context, ticketTypeID string) (bool, error)
}

// Store is the full storage surface: the transactional contract plus
// the plain reads and inserts the administration endpoints use.
type Store interface {
	Tx

	// WithinTx runs fn inside one transaction. If fn returns an error
	// the transaction is rolled back and no write is visible.
	WithinTx(ctx context.Context, fn func(tx Tx) error) error

	InsertEvent(ctx context.Context, event *model.Event) error
	ListEvents(ctx context.Context) ([]model.Event, error)
	InsertTicketType(ctx context.Context, tt *model.TicketType) error
	ListTicketTypes(ctx context.Context, eventID string) ([]model.TicketType, error)
	ListRegistrations(ctx context.Context, eventID string) ([]model.Registration, error)
}
