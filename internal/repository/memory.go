package repository

import (
	"context"
	"maps"
	"sync"

	"github.com/communityhub/registration-core/internal/model"
)

// MemoryStore is an in-memory Store used by tests and local development.
// A single mutex spans every operation, and WithinTx snapshots the maps
// so a failing transaction leaves no partial effect, matching the
// all-or-nothing guarantee of the PostgreSQL store.
type MemoryStore struct {
	mu            sync.Mutex
	events        map[string]model.Event
	ticketTypes   map[string]model.TicketType
	registrations map[string]model.Registration // keyed by eventID + "/" + userID
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		events:        make(map[string]model.Event),
		ticketTypes:   make(map[string]model.TicketType),
		registrations: make(map[string]model.Registration),
	}
}

var _ Store = (*MemoryStore)(nil)

func regKey(eventID, userID string) string {
	return eventID + "/" + userID
}

type memorySnapshot struct {
	events        map[string]model.Event
	ticketTypes   map[string]model.TicketType
	registrations map[string]model.Registration
}

func (m *MemoryStore) snapshot() memorySnapshot {
	return memorySnapshot{
		events:        maps.Clone(m.events),
		ticketTypes:   maps.Clone(m.ticketTypes),
		registrations: maps.Clone(m.registrations),
	}
}

func (m *MemoryStore) restore(s memorySnapshot) {
	m.events = s.events
	m.ticketTypes = s.ticketTypes
	m.registrations = s.registrations
}

// WithinTx holds the store lock for the whole of fn and rolls the maps
// back to their pre-transaction snapshot when fn fails.
func (m *MemoryStore) WithinTx(ctx context.Context, fn func(tx Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := m.snapshot()
	if err := fn(&memoryTx{s: m}); err != nil {
		m.restore(snap)
		return err
	}
	return nil
}

// ─── Unlocked operations, shared by Store and Tx paths ───────────────────────

func (m *MemoryStore) getEvent(id string) (*model.Event, error) {
	e, ok := m.events[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &e, nil
}

func (m *MemoryStore) insertEvent(event *model.Event) error {
	m.events[event.ID] = *event
	return nil
}

func (m *MemoryStore) listEvents() ([]model.Event, error) {
	out := make([]model.Event, 0, len(m.events))
	for _, e := range m.events {
		out = append(out, e)
	}
	return out, nil
}

func (m *MemoryStore) getTicketType(id string) (*model.TicketType, error) {
	tt, ok := m.ticketTypes[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &tt, nil
}

func (m *MemoryStore) insertTicketType(tt *model.TicketType) error {
	m.ticketTypes[tt.ID] = *tt
	return nil
}

func (m *MemoryStore) listTicketTypes(eventID string) ([]model.TicketType, error) {
	var out []model.TicketType
	for _, tt := range m.ticketTypes {
		if tt.EventID == eventID {
			out = append(out, tt)
		}
	}
	return out, nil
}

func (m *MemoryStore) reserveSlot(ticketTypeID string, expectedQuantity int) (bool, error) {
	tt, ok := m.ticketTypes[ticketTypeID]
	if !ok {
		return false, nil
	}
	if tt.CurrentQuantity != expectedQuantity {
		return false, nil
	}
	if tt.MaxQuantity != nil && tt.CurrentQuantity >= *tt.MaxQuantity {
		return false, nil
	}
	tt.CurrentQuantity++
	m.ticketTypes[ticketTypeID] = tt
	return true, nil
}

func (m *MemoryStore) releaseSlot(ticketTypeID string) (bool, error) {
	tt, ok := m.ticketTypes[ticketTypeID]
	if !ok || tt.CurrentQuantity <= 0 {
		return false, nil
	}
	tt.CurrentQuantity--
	m.ticketTypes[ticketTypeID] = tt
	return true, nil
}

func (m *MemoryStore) getRegistration(eventID, userID string) (*model.Registration, error) {
	reg, ok := m.registrations[regKey(eventID, userID)]
	if !ok {
		return nil, ErrNotFound
	}
	return &reg, nil
}

func (m *MemoryStore) insertRegistration(reg *model.Registration) error {
	key := regKey(reg.EventID, reg.UserID)
	if _, exists := m.registrations[key]; exists {
		return ErrAlreadyRegistered
	}
	m.registrations[key] = *reg
	return nil
}

func (m *MemoryStore) updateRegistrationStatus(reg *model.Registration) error {
	key := regKey(reg.EventID, reg.UserID)
	stored, ok := m.registrations[key]
	if !ok {
		return ErrNotFound
	}
	stored.Status = reg.Status
	stored.ReviewedBy = reg.ReviewedBy
	stored.UpdatedAt = reg.UpdatedAt
	m.registrations[key] = stored
	return nil
}

func (m *MemoryStore) listRegistrations(eventID string) ([]model.Registration, error) {
	var out []model.Registration
	for _, reg := range m.registrations {
		if reg.EventID == eventID {
			out = append(out, reg)
		}
	}
	return out, nil
}

// ─── Locked Store surface ────────────────────────────────────────────────────

func (m *MemoryStore) GetEvent(_ context.Context, id string) (*model.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getEvent(id)
}

func (m *MemoryStore) InsertEvent(_ context.Context, event *model.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.insertEvent(event)
}

func (m *MemoryStore) ListEvents(_ context.Context) ([]model.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listEvents()
}

func (m *MemoryStore) GetTicketType(_ context.Context, id string) (*model.TicketType, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getTicketType(id)
}

func (m *MemoryStore) InsertTicketType(_ context.Context, tt *model.TicketType) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.insertTicketType(tt)
}

func (m *MemoryStore) ListTicketTypes(_ context.Context, eventID string) ([]model.TicketType, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listTicketTypes(eventID)
}

func (m *MemoryStore) ReserveSlot(_ context.Context, ticketTypeID string, expectedQuantity int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reserveSlot(ticketTypeID, expectedQuantity)
}

func (m *MemoryStore) ReleaseSlot(_ context.Context, ticketTypeID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.releaseSlot(ticketTypeID)
}

func (m *MemoryStore) GetRegistration(_ context.Context, eventID, userID string) (*model.Registration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getRegistration(eventID, userID)
}

func (m *MemoryStore) InsertRegistration(_ context.Context, reg *model.Registration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.insertRegistration(reg)
}

func (m *MemoryStore) UpdateRegistrationStatus(_ context.Context, reg *model.Registration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updateRegistrationStatus(reg)
}

func (m *MemoryStore) ListRegistrations(_ context.Context, eventID string) ([]model.Registration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listRegistrations(eventID)
}

// ─── Transaction view ────────────────────────────────────────────────────────

// memoryTx operates on the store while WithinTx holds the lock.
type memoryTx struct {
	s *MemoryStore
}

var _ Tx = (*memoryTx)(nil)

func (t *memoryTx) GetEvent(_ context.Context, id string) (*model.Event, error) {
	return t.s.getEvent(id)
}

func (t *memoryTx) GetRegistration(_ context.Context, eventID, userID string) (*model.Registration, error) {
	return t.s.getRegistration(eventID, userID)
}

func (t *memoryTx) InsertRegistration(_ context.Context, reg *model.Registration) error {
	return t.s.insertRegistration(reg)
}

func (t *memoryTx) UpdateRegistrationStatus(_ context.Context, reg *model.Registration) error {
	return t.s.updateRegistrationStatus(reg)
}

func (t *memoryTx) GetTicketType(_ context.Context, id string) (*model.TicketType, error) {
	return t.s.getTicketType(id)
}

func (t *memoryTx) ReserveSlot(_ context.Context, ticketTypeID string, expectedQuantity int) (bool, error) {
	return t.s.reserveSlot(ticketTypeID, expectedQuantity)
}

func (t *memoryTx) ReleaseSlot(_ context.Context, ticketTypeID string) (bool, error) {
	return t.s.releaseSlot(ticketTypeID)
}
