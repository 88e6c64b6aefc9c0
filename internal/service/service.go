// Package service implements the business logic between HTTP handlers
// and the store. RegistrationService is the transaction coordinator:
// the only code path that changes a registration's status or a ticket
// type's counters, always pairing the two inside one transaction.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/communityhub/registration-core/internal/metrics"
	"github.com/communityhub/registration-core/internal/model"
	"github.com/communityhub/registration-core/internal/repository"
	"github.com/communityhub/registration-core/internal/transition"
)

// RegistrationService coordinates registration status transitions with
// ticket inventory.
type RegistrationService struct {
	store repository.Store
}

// NewRegistrationService constructs a RegistrationService.
func NewRegistrationService(store repository.Store) *RegistrationService {
	return &RegistrationService{store: store}
}

// CreateRegistration registers a user for an event. The initial status
// comes from the ticket type (payment due, pending approval, or
// approved); all three occupy a slot, so one reservation happens in the
// same transaction as the insert. With JoinWaitlist the registration is
// created WAITLISTED and inventory is untouched.
func (s *RegistrationService) CreateRegistration(ctx context.Context, eventID string, req model.CreateRegistrationRequest) (*model.Registration, error) {
	req.UserID = strings.TrimSpace(req.UserID)
	if req.UserID == "" {
		return nil, fmt.Errorf("user_id is required")
	}
	if eventID == "" {
		return nil, fmt.Errorf("event id is required")
	}

	now := time.Now().UTC()
	reg := &model.Registration{
		ID:           uuid.New().String(),
		EventID:      eventID,
		UserID:       req.UserID,
		TicketTypeID: req.TicketTypeID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err := s.store.WithinTx(ctx, func(tx repository.Tx) error {
		event, err := tx.GetEvent(ctx, eventID)
		if err != nil {
			return err
		}

		// Fail duplicates before any inventory movement.
		if _, err := tx.GetRegistration(ctx, eventID, req.UserID); err == nil {
			return repository.ErrAlreadyRegistered
		} else if !errors.Is(err, repository.ErrNotFound) {
			return err
		}

		var tt *model.TicketType
		if req.TicketTypeID != nil {
			tt, err = tx.GetTicketType(ctx, *req.TicketTypeID)
			if err != nil {
				return err
			}
			if !tt.IsActive {
				return repository.ErrTicketTypeInactive
			}
			if tt.EventID != eventID {
				return fmt.Errorf("ticket type %s does not belong to event %s", tt.ID, eventID)
			}
		}

		reg.Status = initialStatus(event, tt, req.JoinWaitlist)

		if reg.Status.Occupies() && tt != nil {
			ok, err := tx.ReserveSlot(ctx, tt.ID, tt.CurrentQuantity)
			if err != nil {
				return err
			}
			if !ok {
				metrics.TrackReservation("sold_out")
				return repository.ErrSoldOut
			}
			metrics.TrackReservation("reserved")
		}

		return tx.InsertRegistration(ctx, reg)
	})
	if err != nil {
		return nil, err
	}

	metrics.TrackRegistrationCreated(string(reg.Status))
	return reg, nil
}

// initialStatus decides where a new registration starts. The ticket
// type wins when present; otherwise the event's approval flag decides.
func initialStatus(event *model.Event, tt *model.TicketType, joinWaitlist bool) model.Status {
	if joinWaitlist {
		return model.StatusWaitlisted
	}
	if tt != nil {
		return tt.InitialStatus()
	}
	if event.RequiresApproval {
		return model.StatusPending
	}
	return model.StatusApproved
}

// UpdateEventRegistration transitions the registration for
// (eventID, userID) to the requested status, recording the reviewer.
// Fails with repository.ErrSoldOut when the transition needs a slot and
// none remains.
func (s *RegistrationService) UpdateEventRegistration(ctx context.Context, eventID, userID string, req model.UpdateRegistrationRequest) (*model.Registration, error) {
	if !req.Status.Valid() {
		return nil, fmt.Errorf("unknown status %q", req.Status)
	}
	return s.transition(ctx, eventID, userID, req.Status, req.ReviewedBy, false)
}

// DeleteEventRegistration cancels the registration for
// (eventID, userID), releasing its slot when the prior status occupied
// one. A second cancel fails with repository.ErrAlreadyCancelled and
// leaves inventory unchanged.
func (s *RegistrationService) DeleteEventRegistration(ctx context.Context, eventID, userID string) error {
	_, err := s.transition(ctx, eventID, userID, model.StatusCancelled, "", true)
	return err
}

// transition runs the coordinated status change: load current state,
// plan the inventory delta, apply it conditionally, write the status.
// All of it happens inside one store transaction, so either every write
// lands or none does.
func (s *RegistrationService) transition(ctx context.Context, eventID, userID string, to model.Status, reviewedBy string, cancelling bool) (*model.Registration, error) {
	var (
		updated *model.Registration
		from    model.Status
	)

	err := s.store.WithinTx(ctx, func(tx repository.Tx) error {
		reg, err := tx.GetRegistration(ctx, eventID, userID)
		if err != nil {
			return err
		}
		from = reg.Status

		// Cancellation of an already-cancelled registration aborts
		// before inventory is even considered.
		if cancelling && reg.Status == model.StatusCancelled {
			return repository.ErrAlreadyCancelled
		}

		decision := transition.Plan(reg.Status, to)
		if !decision.Legal {
			switch decision.Reason {
			case transition.ReasonAlreadyCancelled:
				return repository.ErrAlreadyCancelled
			default:
				return fmt.Errorf("illegal transition %s -> %s", reg.Status, to)
			}
		}

		if decision.Action != transition.None && reg.TicketTypeID != nil {
			tt, err := tx.GetTicketType(ctx, *reg.TicketTypeID)
			if err != nil {
				return err
			}
			switch decision.Action {
			case transition.Reserve:
				ok, err := tx.ReserveSlot(ctx, tt.ID, tt.CurrentQuantity)
				if err != nil {
					return err
				}
				if !ok {
					metrics.TrackReservation("sold_out")
					return repository.ErrSoldOut
				}
				metrics.TrackReservation("reserved")
			case transition.Release:
				ok, err := tx.ReleaseSlot(ctx, tt.ID)
				if err != nil {
					return err
				}
				if !ok {
					// The counter says zero while an occupying
					// registration exists. Surface, never repair.
					metrics.TrackRelease("drift")
					return repository.ErrInventoryDrift
				}
				metrics.TrackRelease("released")
			}
		}

		reg.Status = to
		if reviewedBy != "" {
			reg.ReviewedBy = &reviewedBy
		}
		reg.UpdatedAt = time.Now().UTC()
		if err := tx.UpdateRegistrationStatus(ctx, reg); err != nil {
			return err
		}
		updated = reg
		return nil
	})
	if err != nil {
		if from != "" {
			metrics.TrackTransition(string(from), string(to), "error")
		}
		return nil, err
	}

	metrics.TrackTransition(string(from), string(to), "ok")
	return updated, nil
}

// GetRegistration returns one registration.
func (s *RegistrationService) GetRegistration(ctx context.Context, eventID, userID string) (*model.Registration, error) {
	return s.store.GetRegistration(ctx, eventID, userID)
}

// ListRegistrations returns all registrations for an event.
func (s *RegistrationService) ListRegistrations(ctx context.Context, eventID string) ([]model.Registration, error) {
	if _, err := s.store.GetEvent(ctx, eventID); err != nil {
		return nil, err
	}
	return s.store.ListRegistrations(ctx, eventID)
}

// EventService handles event and ticket-type administration. It is
// deliberately thin: nothing here touches registration status or
// inventory counters.
type EventService struct {
	store repository.Store
}

// NewEventService constructs an EventService.
func NewEventService(store repository.Store) *EventService {
	return &EventService{store: store}
}

// CreateEvent validates the request and persists a new event.
func (s *EventService) CreateEvent(ctx context.Context, req model.CreateEventRequest) (*model.Event, error) {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return nil, fmt.Errorf("event name is required")
	}

	event := &model.Event{
		ID:               uuid.New().String(),
		Name:             req.Name,
		Description:      req.Description,
		RequiresApproval: req.RequiresApproval,
		CreatedAt:        time.Now().UTC(),
	}
	if err := s.store.InsertEvent(ctx, event); err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	return event, nil
}

// GetEvent returns a single event by ID.
func (s *EventService) GetEvent(ctx context.Context, id string) (*model.Event, error) {
	if id == "" {
		return nil, fmt.Errorf("event id is required")
	}
	return s.store.GetEvent(ctx, id)
}

// ListEvents returns all events.
func (s *EventService) ListEvents(ctx context.Context) ([]model.Event, error) {
	return s.store.ListEvents(ctx)
}

// CreateTicketType validates the request and adds a ticket type to an
// existing event. New ticket types start active with zero occupancy.
func (s *EventService) CreateTicketType(ctx context.Context, eventID string, req model.CreateTicketTypeRequest) (*model.TicketType, error) {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return nil, fmt.Errorf("ticket type name is required")
	}
	if req.Price < 0 {
		return nil, fmt.Errorf("price cannot be negative")
	}
	if req.MaxQuantity != nil && *req.MaxQuantity < 0 {
		return nil, fmt.Errorf("max_quantity cannot be negative")
	}
	if _, err := s.store.GetEvent(ctx, eventID); err != nil {
		return nil, err
	}

	tt := &model.TicketType{
		ID:               uuid.New().String(),
		EventID:          eventID,
		Name:             req.Name,
		Price:            req.Price,
		CurrentQuantity:  0,
		MaxQuantity:      req.MaxQuantity,
		RequiresApproval: req.RequiresApproval,
		IsActive:         true,
		CreatedAt:        time.Now().UTC(),
	}
	if err := s.store.InsertTicketType(ctx, tt); err != nil {
		return nil, fmt.Errorf("create ticket type: %w", err)
	}
	return tt, nil
}

// ListTicketTypes returns all ticket types for an event.
func (s *EventService) ListTicketTypes(ctx context.Context, eventID string) ([]model.TicketType, error) {
	if _, err := s.store.GetEvent(ctx, eventID); err != nil {
		return nil, err
	}
	return s.store.ListTicketTypes(ctx, eventID)
}
