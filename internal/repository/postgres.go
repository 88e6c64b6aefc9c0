package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/communityhub/registration-core/internal/model"
)

// uniqueViolation is the PostgreSQL error code for duplicate keys.
const uniqueViolation = "23505"

// querier is the subset of pgx shared by *pgxpool.Pool and pgx.Tx, so
// the same query methods serve both transactional and plain calls.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// queries implements Tx against any querier.
type queries struct {
	db querier
}

// PostgresStore implements Store on a pgx connection pool. Outside
// WithinTx each call runs in its own implicit transaction.
type PostgresStore struct {
	queries
	pool *pgxpool.Pool
}

// NewPostgresStore constructs a PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{queries: queries{db: pool}, pool: pool}
}

var _ Store = (*PostgresStore)(nil)

// WithinTx runs fn inside one database transaction, rolling back on any
// error so no partial effect is ever visible.
func (s *PostgresStore) WithinTx(ctx context.Context, fn func(tx Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(queries{db: tx}); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// ─── Events ──────────────────────────────────────────────────────────────────

func (q queries) InsertEvent(ctx context.Context, event *model.Event) error {
	_, err := q.db.Exec(ctx,
		`INSERT INTO events (id, name, description, requires_approval, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		event.ID, event.Name, event.Description, event.RequiresApproval, event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

func (q queries) GetEvent(ctx context.Context, id string) (*model.Event, error) {
	var e model.Event
	err := q.db.QueryRow(ctx,
		`SELECT id, name, description, requires_approval, created_at
		 FROM events WHERE id = $1`,
		id,
	).Scan(&e.ID, &e.Name, &e.Description, &e.RequiresApproval, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return &e, nil
}

func (q queries) ListEvents(ctx context.Context) ([]model.Event, error) {
	rows, err := q.db.Query(ctx,
		`SELECT id, name, description, requires_approval, created_at
		 FROM events
		 ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		var e model.Event
		if err := rows.Scan(&e.ID, &e.Name, &e.Description, &e.RequiresApproval, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// ─── Ticket types ────────────────────────────────────────────────────────────

func (q queries) InsertTicketType(ctx context.Context, tt *model.TicketType) error {
	_, err := q.db.Exec(ctx,
		`INSERT INTO ticket_types
		   (id, event_id, name, price, current_quantity, max_quantity, requires_approval, is_active, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		tt.ID, tt.EventID, tt.Name, tt.Price, tt.CurrentQuantity, tt.MaxQuantity,
		tt.RequiresApproval, tt.IsActive, tt.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert ticket type: %w", err)
	}
	return nil
}

func (q queries) GetTicketType(ctx context.Context, id string) (*model.TicketType, error) {
	var tt model.TicketType
	err := q.db.QueryRow(ctx,
		`SELECT id, event_id, name, price, current_quantity, max_quantity, requires_approval, is_active, created_at
		 FROM ticket_types WHERE id = $1`,
		id,
	).Scan(&tt.ID, &tt.EventID, &tt.Name, &tt.Price, &tt.CurrentQuantity, &tt.MaxQuantity,
		&tt.RequiresApproval, &tt.IsActive, &tt.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get ticket type: %w", err)
	}
	return &tt, nil
}

func (q queries) ListTicketTypes(ctx context.Context, eventID string) ([]model.TicketType, error) {
	rows, err := q.db.Query(ctx,
		`SELECT id, event_id, name, price, current_quantity, max_quantity, requires_approval, is_active, created_at
		 FROM ticket_types
		 WHERE event_id = $1
		 ORDER BY created_at ASC`,
		eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("list ticket types: %w", err)
	}
	defer rows.Close()

	var types []model.TicketType
	for rows.Next() {
		var tt model.TicketType
		if err := rows.Scan(&tt.ID, &tt.EventID, &tt.Name, &tt.Price, &tt.CurrentQuantity,
			&tt.MaxQuantity, &tt.RequiresApproval, &tt.IsActive, &tt.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan ticket type: %w", err)
		}
		types = append(types, tt)
	}
	return types, rows.Err()
}

// ReserveSlot claims one slot with a single conditional UPDATE. The
// WHERE clause re-checks both the quantity snapshot read inside this
// transaction and the capacity cap at the moment of the write, so two
// concurrent reservations of the last slot resolve at the database:
// exactly one statement matches the row, the other affects zero rows.
func (q queries) ReserveSlot(ctx context.Context, ticketTypeID string, expectedQuantity int) (bool, error) {
	tag, err := q.db.Exec(ctx,
		`UPDATE ticket_types
		 SET current_quantity = current_quantity + 1
		 WHERE id = $1
		   AND current_quantity = $2
		   AND (max_quantity IS NULL OR current_quantity < max_quantity)`,
		ticketTypeID, expectedQuantity,
	)
	if err != nil {
		return false, fmt.Errorf("reserve slot: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// ReleaseSlot returns one slot with a floor-guarded conditional UPDATE,
// so a double release can never drive the counter negative.
func (q queries) ReleaseSlot(ctx context.Context, ticketTypeID string) (bool, error) {
	tag, err := q.db.Exec(ctx,
		`UPDATE ticket_types
		 SET current_quantity = current_quantity - 1
		 WHERE id = $1
		   AND current_quantity > 0`,
		ticketTypeID,
	)
	if err != nil {
		return false, fmt.Errorf("release slot: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// ─── Registrations ───────────────────────────────────────────────────────────

const registrationColumns = `id, event_id, user_id, ticket_type_id, status, order_id, reviewed_by, created_at, updated_at`

func scanRegistration(row pgx.Row) (*model.Registration, error) {
	var reg model.Registration
	err := row.Scan(&reg.ID, &reg.EventID, &reg.UserID, &reg.TicketTypeID, &reg.Status,
		&reg.OrderID, &reg.ReviewedBy, &reg.CreatedAt, &reg.UpdatedAt)
	return &reg, err
}

func (q queries) InsertRegistration(ctx context.Context, reg *model.Registration) error {
	_, err := q.db.Exec(ctx,
		`INSERT INTO registrations (`+registrationColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		reg.ID, reg.EventID, reg.UserID, reg.TicketTypeID, reg.Status,
		reg.OrderID, reg.ReviewedBy, reg.CreatedAt, reg.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrAlreadyRegistered
		}
		return fmt.Errorf("insert registration: %w", err)
	}
	return nil
}

func (q queries) GetRegistration(ctx context.Context, eventID, userID string) (*model.Registration, error) {
	reg, err := scanRegistration(q.db.QueryRow(ctx,
		`SELECT `+registrationColumns+`
		 FROM registrations
		 WHERE event_id = $1 AND user_id = $2`,
		eventID, userID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get registration: %w", err)
	}
	return reg, nil
}

func (q queries) UpdateRegistrationStatus(ctx context.Context, reg *model.Registration) error {
	tag, err := q.db.Exec(ctx,
		`UPDATE registrations
		 SET status = $1, reviewed_by = $2, updated_at = $3
		 WHERE id = $4`,
		reg.Status, reg.ReviewedBy, reg.UpdatedAt, reg.ID,
	)
	if err != nil {
		return fmt.Errorf("update registration status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (q queries) ListRegistrations(ctx context.Context, eventID string) ([]model.Registration, error) {
	rows, err := q.db.Query(ctx,
		`SELECT `+registrationColumns+`
		 FROM registrations
		 WHERE event_id = $1
		 ORDER BY created_at ASC`,
		eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	defer rows.Close()

	var regs []model.Registration
	for rows.Next() {
		var reg model.Registration
		if err := rows.Scan(&reg.ID, &reg.EventID, &reg.UserID, &reg.TicketTypeID, &reg.Status,
			&reg.OrderID, &reg.ReviewedBy, &reg.CreatedAt, &reg.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan registration: %w", err)
		}
		regs = append(regs, reg)
	}
	return regs, rows.Err()
}
