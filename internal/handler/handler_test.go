package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/communityhub/registration-core/internal/model"
	"github.com/communityhub/registration-core/internal/repository"
	"github.com/communityhub/registration-core/internal/service"
)

func intPtr(v int) *int { return &v }

func strPtr(s string) *string { return &s }

// newTestRouter wires the registration routes over an in-memory store
// seeded with one event, one single-slot ticket type and one pending
// registration for user-1.
func newTestRouter(t *testing.T) (chi.Router, *repository.MemoryStore) {
	t.Helper()
	ctx := context.Background()
	store := repository.NewMemoryStore()

	now := time.Now().UTC()
	require.NoError(t, store.InsertEvent(ctx, &model.Event{ID: "ev-1", Name: "Conference", CreatedAt: now}))
	require.NoError(t, store.InsertTicketType(ctx, &model.TicketType{
		ID: "tt-1", EventID: "ev-1", Name: "General",
		CurrentQuantity: 1, MaxQuantity: intPtr(1), IsActive: true, CreatedAt: now,
	}))
	require.NoError(t, store.InsertRegistration(ctx, &model.Registration{
		ID: "reg-1", EventID: "ev-1", UserID: "user-1",
		TicketTypeID: strPtr("tt-1"), Status: model.StatusPending, CreatedAt: now, UpdatedAt: now,
	}))

	eventHandler := NewEventHandler(service.NewEventService(store))
	regHandler := NewRegistrationHandler(service.NewRegistrationService(store))

	r := chi.NewRouter()
	r.Route("/events", func(r chi.Router) {
		r.Post("/", eventHandler.CreateEvent)
		r.Get("/{id}", eventHandler.GetEvent)
		r.Post("/{id}/registrations", regHandler.CreateRegistration)
		r.Get("/{id}/registrations/{userId}", regHandler.GetRegistration)
		r.Patch("/{id}/registrations/{userId}", regHandler.UpdateRegistration)
		r.Delete("/{id}/registrations/{userId}", regHandler.DeleteRegistration)
	})
	return r, store
}

func doJSON(t *testing.T, r chi.Router, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestUpdateRegistrationEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := doJSON(t, r, http.MethodPatch, "/events/ev-1/registrations/user-1", model.UpdateRegistrationRequest{
		Status: model.StatusApproved, ReviewedBy: "admin-1",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var reg model.Registration
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&reg))
	assert.Equal(t, model.StatusApproved, reg.Status)
	require.NotNil(t, reg.ReviewedBy)
	assert.Equal(t, "admin-1", *reg.ReviewedBy)
}

func TestDeleteRegistrationEndpointIdempotencyViolation(t *testing.T) {
	r, store := newTestRouter(t)

	rec := doJSON(t, r, http.MethodDelete, "/events/ev-1/registrations/user-1", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	tt, err := store.GetTicketType(context.Background(), "tt-1")
	require.NoError(t, err)
	assert.Equal(t, 0, tt.CurrentQuantity)

	// Cancelling again is a conflict, not a no-op.
	rec = doJSON(t, r, http.MethodDelete, "/events/ev-1/registrations/user-1", nil)
	require.Equal(t, http.StatusConflict, rec.Code)

	var resp model.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Contains(t, resp.Error, "already cancelled")
}

func TestCreateRegistrationEndpointSoldOut(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := doJSON(t, r, http.MethodPost, "/events/ev-1/registrations", model.CreateRegistrationRequest{
		UserID: "user-2", TicketTypeID: strPtr("tt-1"),
	})
	require.Equal(t, http.StatusConflict, rec.Code)

	var resp model.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Contains(t, resp.Error, "sold out")
}

func TestGetRegistrationEndpointNotFound(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := doJSON(t, r, http.MethodGet, "/events/ev-1/registrations/nobody", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateRegistrationEndpointRejectsBadBody(t *testing.T) {
	r, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPatch, "/events/ev-1/registrations/user-1",
		bytes.NewBufferString(`{"status": "APPROVED", "bogus": true}`))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
