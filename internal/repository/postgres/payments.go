package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Josan88/Kuching-ART-Online-System-sub000/internal/domain"
	"github.com/Josan88/Kuching-ART-Online-System-sub000/internal/repository"
)

type PaymentRepo struct {
	s *Store
}

const paymentColumns = `id, user_id, order_id, ticket_id, amount, refunded_amount, method,
	status, transaction_ref, created_at`

func scanPayment(row interface{ Scan(...any) error }, p *domain.Payment) error {
	return row.Scan(
		&p.ID,
		&p.UserID,
		&p.OrderID,
		&p.TicketID,
		&p.Amount,
		&p.RefundedAmount,
		&p.Method,
		&p.Status,
		&p.TransactionRef,
		&p.CreatedAt,
	)
}

func (r *PaymentRepo) Create(ctx context.Context, p *domain.Payment) error {
	const op = "postgres.PaymentRepo.Create"

	db := r.s.conn(ctx)

	if err := db.QueryRow(ctx,
		`INSERT INTO payments(id, user_id, order_id, ticket_id, amount, refunded_amount,
		                      method, status, transaction_ref)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING created_at`,
		p.ID, p.UserID, p.OrderID, p.TicketID, p.Amount, p.RefundedAmount,
		p.Method, p.Status, p.TransactionRef,
	).Scan(&p.CreatedAt); err != nil {
		return wrapDBErr(op, err)
	}

	return nil
}

// Get retrieves a payment. With lock set the row stays locked until the
// surrounding transaction ends.
func (r *PaymentRepo) Get(ctx context.Context, id uuid.UUID, lock bool) (*domain.Payment, error) {
	const op = "postgres.PaymentRepo.Get"

	db := r.s.conn(ctx)

	q := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`
	if lock {
		q += ` FOR UPDATE`
	}

	var p domain.Payment
	if err := scanPayment(db.QueryRow(ctx, q, id), &p); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return &p, nil
}

// CompletedForTicket returns the latest completed payment for a ticket.
//
// Returns:
//   - error: repository.ErrNotFound if the ticket has no completed payment.
func (r *PaymentRepo) CompletedForTicket(ctx context.Context, ticketID uuid.UUID) (*domain.Payment, error) {
	const op = "postgres.PaymentRepo.CompletedForTicket"

	db := r.s.conn(ctx)

	var p domain.Payment
	if err := scanPayment(db.QueryRow(ctx,
		`SELECT `+paymentColumns+`
		 FROM payments
		 WHERE ticket_id = $1 AND status = 'completed'
		 ORDER BY created_at DESC
		 LIMIT 1
		 FOR UPDATE`,
		ticketID,
	), &p); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return &p, nil
}

func (r *PaymentRepo) SetRefund(
	ctx context.Context,
	id uuid.UUID,
	refunded decimal.Decimal,
	status domain.PaymentStatus,
) error {
	const op = "postgres.PaymentRepo.SetRefund"

	db := r.s.conn(ctx)

	tag, err := db.Exec(ctx,
		`UPDATE payments SET refunded_amount = $2, status = $3 WHERE id = $1`,
		id, refunded, status,
	)
	if err != nil {
		return wrapDBErr(op, err)
	}

	if tag.RowsAffected() == 0 {
		return wrapDBErr(op, repository.ErrNotFound)
	}

	return nil
}

func (r *PaymentRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Payment, error) {
	const op = "postgres.PaymentRepo.ListByUser"

	db := r.s.conn(ctx)

	rows, err := db.Query(ctx,
		`SELECT `+paymentColumns+`
		 FROM payments
		 WHERE user_id = $1
		 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	defer rows.Close()

	out := []domain.Payment{}
	for rows.Next() {
		var p domain.Payment
		if err := scanPayment(rows, &p); err != nil {
			return nil, wrapDBErr(op, err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return out, nil
}
