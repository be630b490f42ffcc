package postgres

import (
	"context"
	"fmt"

	"github.com/charlynbc/Entradas-de-teatro-sub000/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// InventoryRepository persists events and their bulk-generated ticket stock.
type InventoryRepository struct {
	pool *pgxpool.Pool
}

func NewInventoryRepository(pool *pgxpool.Pool) *InventoryRepository {
	return &InventoryRepository{pool: pool}
}

func (r *InventoryRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

func (r *InventoryRepository) CreateEvent(ctx context.Context, event domain.Event) error {
	const stmt = `
INSERT INTO events (id, name, venue, starts_at, capacity, base_price, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.exec(ctx, stmt,
		event.ID,
		event.Name,
		event.Venue,
		event.StartsAt,
		event.Capacity,
		event.BasePrice,
		event.CreatedAt,
	)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("create event: %w", err)
	}
	return nil
}

func (r *InventoryRepository) ListEvents(ctx context.Context) ([]domain.Event, error) {
	const query = `
SELECT id, name, venue, starts_at, capacity, base_price, created_at
FROM events
ORDER BY created_at ASC`

	rows, err := r.query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []domain.Event
	for rows.Next() {
		var event domain.Event
		if err := rows.Scan(
			&event.ID,
			&event.Name,
			&event.Venue,
			&event.StartsAt,
			&event.Capacity,
			&event.BasePrice,
			&event.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, event)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate events: %w", rows.Err())
	}
	return events, nil
}

func (r *InventoryRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM tickets WHERE code = $1)`
	var exists bool
	if err := r.queryRow(ctx, query, code).Scan(&exists); err != nil {
		return false, fmt.Errorf("check code: %w", err)
	}
	return exists, nil
}

func (r *InventoryRepository) CreateTickets(ctx context.Context, tickets []domain.Ticket) error {
	if len(tickets) == 0 {
		return nil
	}

	rows := make([][]any, 0, len(tickets))
	for _, t := range tickets {
		rows = append(rows, []any{t.Code, t.EventID, string(t.State), t.CreatedAt})
	}

	_, err := r.copyFrom(ctx,
		pgx.Identifier{"tickets"},
		[]string{"code", "event_id", "state", "created_at"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		// A collision that raced past the in-tx CodeExists check. Distinct
		// from generator exhaustion: the batch itself was fine, a concurrent
		// insert took one of its codes first.
		if isUniqueViolation(err) {
			return domain.ErrDuplicateTicketCode
		}
		return fmt.Errorf("create tickets: %w", err)
	}
	return nil
}

func (r *InventoryRepository) EventExists(ctx context.Context, eventID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM events WHERE id = $1)`
	var exists bool
	if err := r.queryRow(ctx, query, eventID).Scan(&exists); err != nil {
		if isInvalidUUID(err) {
			return false, domain.ErrInvalidID
		}
		return false, fmt.Errorf("check event: %w", err)
	}
	return exists, nil
}

func (r *InventoryRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *InventoryRepository) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Query(ctx, sql, args...)
	}
	return r.pool.Query(ctx, sql, args...)
}

func (r *InventoryRepository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}

func (r *InventoryRepository) copyFrom(ctx context.Context, table pgx.Identifier, columns []string, src pgx.CopyFromSource) (int64, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.CopyFrom(ctx, table, columns, src)
	}
	return r.pool.CopyFrom(ctx, table, columns, src)
}
