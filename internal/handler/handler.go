// Package handler contains chi HTTP handlers that translate HTTP
// requests/responses to and from the service layer.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/communityhub/registration-core/internal/model"
	"github.com/communityhub/registration-core/internal/repository"
	"github.com/communityhub/registration-core/internal/service"
)

// ─── Helper utilities ─────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, model.ErrorResponse{Error: msg})
}

func decodeJSON(r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, 1<<20) // 1 MB limit
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// ─── Events and ticket types ──────────────────────────────────────────────────

// EventHandler holds HTTP handlers for event and ticket-type administration.
type EventHandler struct {
	svc *service.EventService
}

// NewEventHandler constructs an EventHandler.
func NewEventHandler(svc *service.EventService) *EventHandler {
	return &EventHandler{svc: svc}
}

// CreateEvent handles POST /events
func (h *EventHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req model.CreateEventRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	event, err := h.svc.CreateEvent(r.Context(), req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, event)
}

// ListEvents handles GET /events
func (h *EventHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.svc.ListEvents(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list events")
		return
	}

	// Return an empty array rather than null for better client compatibility.
	if events == nil {
		events = []model.Event{}
	}

	writeJSON(w, http.StatusOK, events)
}

// GetEvent handles GET /events/{id}
func (h *EventHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	event, err := h.svc.GetEvent(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "event not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to get event")
		return
	}

	writeJSON(w, http.StatusOK, event)
}

// CreateTicketType handles POST /events/{id}/ticket-types
func (h *EventHandler) CreateTicketType(w http.ResponseWriter, r *http.Request) {
	var req model.CreateTicketTypeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	tt, err := h.svc.CreateTicketType(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "event not found")
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, tt)
}

// ListTicketTypes handles GET /events/{id}/ticket-types
func (h *EventHandler) ListTicketTypes(w http.ResponseWriter, r *http.Request) {
	types, err := h.svc.ListTicketTypes(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "event not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to list ticket types")
		return
	}

	if types == nil {
		types = []model.TicketType{}
	}

	writeJSON(w, http.StatusOK, types)
}

// ─── Registrations ────────────────────────────────────────────────────────────

// RegistrationHandler holds HTTP handlers for registration management.
type RegistrationHandler struct {
	svc *service.RegistrationService
}

// NewRegistrationHandler constructs a RegistrationHandler.
func NewRegistrationHandler(svc *service.RegistrationService) *RegistrationHandler {
	return &RegistrationHandler{svc: svc}
}

// registrationError maps domain errors to HTTP responses.
func registrationError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "registration not found")
	case errors.Is(err, repository.ErrAlreadyRegistered):
		writeError(w, http.StatusConflict, "user is already registered for this event")
	case errors.Is(err, repository.ErrSoldOut):
		writeError(w, http.StatusConflict, "ticket type is sold out")
	case errors.Is(err, repository.ErrAlreadyCancelled):
		writeError(w, http.StatusConflict, "registration is already cancelled")
	case errors.Is(err, repository.ErrTicketTypeInactive):
		writeError(w, http.StatusConflict, "ticket type is not active")
	case errors.Is(err, repository.ErrInventoryDrift):
		writeError(w, http.StatusInternalServerError, "inventory inconsistency detected")
	default:
		writeError(w, http.StatusBadRequest, err.Error())
	}
}

// CreateRegistration handles POST /events/{id}/registrations
func (h *RegistrationHandler) CreateRegistration(w http.ResponseWriter, r *http.Request) {
	var req model.CreateRegistrationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	reg, err := h.svc.CreateRegistration(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "event or ticket type not found")
			return
		}
		registrationError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, reg)
}

// GetRegistration handles GET /events/{id}/registrations/{userId}
func (h *RegistrationHandler) GetRegistration(w http.ResponseWriter, r *http.Request) {
	reg, err := h.svc.GetRegistration(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "userId"))
	if err != nil {
		registrationError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, reg)
}

// ListRegistrations handles GET /events/{id}/registrations
func (h *RegistrationHandler) ListRegistrations(w http.ResponseWriter, r *http.Request) {
	regs, err := h.svc.ListRegistrations(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "event not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to list registrations")
		return
	}

	if regs == nil {
		regs = []model.Registration{}
	}

	writeJSON(w, http.StatusOK, regs)
}

// UpdateRegistration handles PATCH /events/{id}/registrations/{userId}
// It transitions the registration to the requested status, recording
// the reviewer.
func (h *RegistrationHandler) UpdateRegistration(w http.ResponseWriter, r *http.Request) {
	var req model.UpdateRegistrationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	reg, err := h.svc.UpdateEventRegistration(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "userId"), req)
	if err != nil {
		registrationError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, reg)
}

// DeleteRegistration handles DELETE /events/{id}/registrations/{userId}
// It cancels the registration, releasing its inventory slot when the
// prior status held one.
func (h *RegistrationHandler) DeleteRegistration(w http.ResponseWriter, r *http.Request) {
	err := h.svc.DeleteEventRegistration(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "userId"))
	if err != nil {
		registrationError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ─── Health check ─────────────────────────────────────────────────────────────

// HealthCheck handles GET /health
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
