package postgres

import (
	"context"
	"fmt"

	"github.com/charlynbc/Entradas-de-teatro-sub000/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const ticketColumns = `code, event_id, state, seller_id, buyer_name, buyer_contact,
price, payment_method, reported_by, approved_by, created_at, assigned_at, reserved_at, reported_at, paid_at, used_at`

// TicketRepository backs the state transition engine: single-row reads with
// a lock and single-row writes, always inside the caller's transaction.
type TicketRepository struct {
	pool *pgxpool.Pool
}

func NewTicketRepository(pool *pgxpool.Pool) *TicketRepository {
	return &TicketRepository{pool: pool}
}

func (r *TicketRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

func (r *TicketRepository) GetTicketForUpdate(ctx context.Context, code string) (domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE code = $1 FOR UPDATE`

	ticket, err := scanTicket(r.queryRow(ctx, query, code))
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Ticket{}, domain.ErrTicketNotFound
		}
		return domain.Ticket{}, fmt.Errorf("get ticket: %w", err)
	}
	return ticket, nil
}

func (r *TicketRepository) UpdateTicket(ctx context.Context, t domain.Ticket) error {
	const stmt = `
UPDATE tickets
SET state = $2, seller_id = $3, buyer_name = $4, buyer_contact = $5,
    price = $6, payment_method = $7, reported_by = $8, approved_by = $9,
    assigned_at = $10, reserved_at = $11, reported_at = $12, paid_at = $13,
    used_at = $14
WHERE code = $1`

	tag, err := r.exec(ctx, stmt,
		t.Code,
		t.State,
		t.SellerID,
		t.BuyerName,
		t.BuyerContact,
		t.Price,
		t.PaymentMethod,
		t.ReportedBy,
		t.ApprovedBy,
		t.AssignedAt,
		t.ReservedAt,
		t.ReportedAt,
		t.PaidAt,
		t.UsedAt,
	)
	if err != nil {
		return fmt.Errorf("update ticket: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTicketNotFound
	}
	return nil
}

func (r *TicketRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *TicketRepository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}

func scanTicket(row pgx.Row) (domain.Ticket, error) {
	var t domain.Ticket
	var state string
	err := row.Scan(
		&t.Code,
		&t.EventID,
		&state,
		&t.SellerID,
		&t.BuyerName,
		&t.BuyerContact,
		&t.Price,
		&t.PaymentMethod,
		&t.ReportedBy,
		&t.ApprovedBy,
		&t.CreatedAt,
		&t.AssignedAt,
		&t.ReservedAt,
		&t.ReportedAt,
		&t.PaidAt,
		&t.UsedAt,
	)
	if err != nil {
		return domain.Ticket{}, err
	}
	t.State = domain.TicketState(state)
	return t, nil
}
