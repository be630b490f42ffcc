package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/charlynbc/Entradas-de-teatro-sub000/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AllocationRepository implements the bulk claim: lock matching rows, flip
// them in one statement, report the affected count so the engine can verify
// the claim before committing.
type AllocationRepository struct {
	pool *pgxpool.Pool
}

func NewAllocationRepository(pool *pgxpool.Pool) *AllocationRepository {
	return &AllocationRepository{pool: pool}
}

func (r *AllocationRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	err := withTx(ctx, r.pool, fn)
	if isSerializationFailure(err) {
		return domain.ErrAllocationConflict
	}
	return err
}

func (r *AllocationRepository) EventExists(ctx context.Context, eventID string) (bool, error) {
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

// LockTickets selects up to limit codes in creation order and locks the
// rows. Lock order is deterministic (code ascending) so concurrent
// allocations against the same pool queue up instead of deadlocking.
func (r *AllocationRepository) LockTickets(ctx context.Context, eventID string, state domain.TicketState, limit int) ([]string, error) {
	const query = `
SELECT code
FROM tickets
WHERE event_id = $1 AND state = $2
ORDER BY code ASC
LIMIT $3
FOR UPDATE`

	rows, err := r.query(ctx, query, eventID, state, limit)
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		return nil, fmt.Errorf("lock tickets: %w", err)
	}
	defer rows.Close()

	var codes []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, fmt.Errorf("scan code: %w", err)
		}
		codes = append(codes, code)
	}
	if rows.Err() != nil {
		if isInvalidUUID(rows.Err()) {
			return nil, domain.ErrInvalidID
		}
		return nil, fmt.Errorf("iterate codes: %w", rows.Err())
	}
	return codes, nil
}

// AssignTickets moves the locked rows into the seller's stock. The state
// predicate repeats the filter so a row that changed since the lock is
// counted out rather than silently overwritten.
func (r *AllocationRepository) AssignTickets(ctx context.Context, codes []string, from domain.TicketState, sellerID string, at time.Time) (int64, error) {
	const stmt = `
UPDATE tickets
SET state = $3, seller_id = $4, assigned_at = $5
WHERE code = ANY($1) AND state = $2`

	tag, err := r.exec(ctx, stmt, codes, from, domain.StateAssigned, sellerID, at)
	if err != nil {
		return 0, fmt.Errorf("assign tickets: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *AllocationRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *AllocationRepository) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Query(ctx, sql, args...)
	}
	return r.pool.Query(ctx, sql, args...)
}

func (r *AllocationRepository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}
