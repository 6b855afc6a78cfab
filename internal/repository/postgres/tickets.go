package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Josan88/Kuching-ART-Online-System-sub000/internal/domain"
	"github.com/Josan88/Kuching-ART-Online-System-sub000/internal/repository"
)

type TicketRepo struct {
	s *Store
}

const ticketColumns = `id, user_id, route_id, trip_id, origin, destination, departure_time,
	arrival_time, passengers, price, status, booked_at`

func scanTicket(row interface{ Scan(...any) error }, t *domain.Ticket) error {
	return row.Scan(
		&t.ID,
		&t.UserID,
		&t.RouteID,
		&t.TripID,
		&t.Origin,
		&t.Destination,
		&t.DepartureTime,
		&t.ArrivalTime,
		&t.Passengers,
		&t.Price,
		&t.Status,
		&t.BookedAt,
	)
}

// Create inserts a booked ticket.
//
// Parameters:
//   - ctx: request-scoped context; carries the booking transaction.
//   - t: ticket to insert; BookedAt is filled from the database.
//
// Returns:
//   - error: repository.ErrNotFound if the user, route or trip does not exist.
func (r *TicketRepo) Create(ctx context.Context, t *domain.Ticket) error {
	const op = "postgres.TicketRepo.Create"

	db := r.s.conn(ctx)

	if err := db.QueryRow(ctx,
		`INSERT INTO tickets(id, user_id, route_id, trip_id, origin, destination,
		                     departure_time, arrival_time, passengers, price, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING booked_at`,
		t.ID, t.UserID, t.RouteID, t.TripID, t.Origin, t.Destination,
		t.DepartureTime, t.ArrivalTime, t.Passengers, t.Price, t.Status,
	).Scan(&t.BookedAt); err != nil {
		return wrapDBErr(op, err)
	}

	return nil
}

func (r *TicketRepo) Get(ctx context.Context, id uuid.UUID) (*domain.Ticket, error) {
	const op = "postgres.TicketRepo.Get"

	db := r.s.conn(ctx)

	var t domain.Ticket
	if err := scanTicket(db.QueryRow(ctx,
		`SELECT `+ticketColumns+` FROM tickets WHERE id = $1`, id,
	), &t); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return &t, nil
}

func (r *TicketRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Ticket, error) {
	const op = "postgres.TicketRepo.ListByUser"

	db := r.s.conn(ctx)

	rows, err := db.Query(ctx,
		`SELECT `+ticketColumns+`
		 FROM tickets
		 WHERE user_id = $1
		 ORDER BY booked_at DESC`,
		userID,
	)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	defer rows.Close()

	out := []domain.Ticket{}
	for rows.Next() {
		var t domain.Ticket
		if err := scanTicket(rows, &t); err != nil {
			return nil, wrapDBErr(op, err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return out, nil
}

// TransitionStatus moves a ticket from one status to another.
//
// Returns:
//   - *domain.Ticket: the ticket after the change.
//   - error: repository.ErrStaleState if the ticket is not in status from.
//   - error: repository.ErrNotFound if the ticket does not exist.
func (r *TicketRepo) TransitionStatus(
	ctx context.Context,
	id uuid.UUID,
	from, to domain.TicketStatus,
) (*domain.Ticket, error) {
	const op = "postgres.TicketRepo.TransitionStatus"

	db := r.s.conn(ctx)

	var t domain.Ticket
	err := scanTicket(db.QueryRow(ctx,
		`UPDATE tickets SET status = $3
		 WHERE id = $1 AND status = $2
		 RETURNING `+ticketColumns,
		id, from, to,
	), &t)
	if err == nil {
		return &t, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, wrapDBErr(op, err)
	}

	if _, err := r.Get(ctx, id); err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return nil, fmt.Errorf("%s:%w", op, repository.ErrStaleState)
}

// MarkDeparted flags every booked ticket whose departure is before now as used.
func (r *TicketRepo) MarkDeparted(ctx context.Context, now time.Time) (int64, error) {
	const op = "postgres.TicketRepo.MarkDeparted"

	db := r.s.conn(ctx)

	tag, err := db.Exec(ctx,
		`UPDATE tickets SET status = 'used'
		 WHERE status = 'booked' AND departure_time <= $1`,
		now,
	)
	if err != nil {
		return 0, wrapDBErr(op, err)
	}

	return tag.RowsAffected(), nil
}
