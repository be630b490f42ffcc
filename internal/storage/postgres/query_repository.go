package postgres

import (
	"context"
	"fmt"

	"github.com/charlynbc/Entradas-de-teatro-sub000/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

// QueryRepository serves the read-only projections. It runs outside any
// transaction on purpose: results are derived views, never a basis for
// transition decisions.
type QueryRepository struct {
	pool *pgxpool.Pool
}

func NewQueryRepository(pool *pgxpool.Pool) *QueryRepository {
	return &QueryRepository{pool: pool}
}

func (r *QueryRepository) EventExists(ctx context.Context, eventID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM events WHERE id = $1)`
	var exists bool
	if err := r.pool.QueryRow(ctx, query, eventID).Scan(&exists); err != nil {
		if isInvalidUUID(err) {
			return false, domain.ErrInvalidID
		}
		return false, fmt.Errorf("check event: %w", err)
	}
	return exists, nil
}

func (r *QueryRepository) SellerStock(ctx context.Context, sellerID string) ([]domain.TicketSummary, error) {
	const query = `
SELECT state, COUNT(*)
FROM tickets
WHERE seller_id = $1
GROUP BY state
ORDER BY state ASC`

	rows, err := r.pool.Query(ctx, query, sellerID)
	if err != nil {
		return nil, fmt.Errorf("seller stock: %w", err)
	}
	defer rows.Close()

	var summaries []domain.TicketSummary
	for rows.Next() {
		var s domain.TicketSummary
		if err := rows.Scan(&s.State, &s.Count); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		summaries = append(summaries, s)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate summaries: %w", rows.Err())
	}
	return summaries, nil
}

func (r *QueryRepository) ListReportedSold(ctx context.Context, eventID string) ([]domain.Ticket, error) {
	query := `
SELECT ` + ticketColumns + `
FROM tickets
WHERE event_id = $1 AND state = $2
ORDER BY reported_at ASC`

	rows, err := r.pool.Query(ctx, query, eventID, domain.StateReportedSold)
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		return nil, fmt.Errorf("list reported sold: %w", err)
	}
	defer rows.Close()

	var tickets []domain.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ticket: %w", err)
		}
		tickets = append(tickets, ticket)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate tickets: %w", rows.Err())
	}
	return tickets, nil
}

func (r *QueryRepository) EventSnapshot(ctx context.Context, eventID string) ([]domain.TicketSummary, error) {
	const query = `
SELECT state, COUNT(*)
FROM tickets
WHERE event_id = $1
GROUP BY state
ORDER BY state ASC`

	rows, err := r.pool.Query(ctx, query, eventID)
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		return nil, fmt.Errorf("event snapshot: %w", err)
	}
	defer rows.Close()

	var summaries []domain.TicketSummary
	for rows.Next() {
		var s domain.TicketSummary
		if err := rows.Scan(&s.State, &s.Count); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		summaries = append(summaries, s)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate summaries: %w", rows.Err())
	}
	return summaries, nil
}
