package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/Josan88/Kuching-ART-Online-System-sub000/internal/domain"
	"github.com/Josan88/Kuching-ART-Online-System-sub000/internal/metrics"
	"github.com/Josan88/Kuching-ART-Online-System-sub000/internal/repository"
	"github.com/Josan88/Kuching-ART-Online-System-sub000/internal/uow"
)

type Catalog interface {
	GetRoute(ctx context.Context, id uuid.UUID) (*domain.Route, error)
	GetTrip(ctx context.Context, id uuid.UUID) (*domain.Trip, error)
	ReserveSeats(ctx context.Context, tripID uuid.UUID, n int) (*domain.Trip, error)
	ReleaseSeats(ctx context.Context, tripID uuid.UUID, n int) error
}

type Tickets interface {
	Create(ctx context.Context, t *domain.Ticket) error
	Get(ctx context.Context, id uuid.UUID) (*domain.Ticket, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Ticket, error)
	TransitionStatus(ctx context.Context, id uuid.UUID, from, to domain.TicketStatus) (*domain.Ticket, error)
	MarkDeparted(ctx context.Context, now time.Time) (int64, error)
}

type Payments interface {
	CompletedForTicket(ctx context.Context, ticketID uuid.UUID) (*domain.Payment, error)
	SetRefund(ctx context.Context, id uuid.UUID, refunded decimal.Decimal, status domain.PaymentStatus) error
}

// Drafts keeps the booking wizard state of each user.
type Drafts interface {
	Get(ctx context.Context, userID uuid.UUID) (*domain.BookingDraft, bool, error)
	Save(ctx context.Context, d *domain.BookingDraft) error
	Delete(ctx context.Context, userID uuid.UUID) error
}

type Notifier interface {
	Notify(
		ctx context.Context,
		userID uuid.UUID,
		typ domain.NotificationType,
		priority domain.NotificationPriority,
		title, message string,
	) (*domain.Notification, error)
}

type Service struct {
	catalog  Catalog
	tickets  Tickets
	payments Payments
	drafts   Drafts
	notifier Notifier
	uow      *uow.UoW
	now      func() time.Time
}

func New(
	tx uow.Transactor,
	catalog Catalog,
	tickets Tickets,
	payments Payments,
	drafts Drafts,
	notifier Notifier,
) *Service {
	return &Service{
		catalog:  catalog,
		tickets:  tickets,
		payments: payments,
		drafts:   drafts,
		notifier: notifier,
		uow:      uow.NewUoW(tx),
		now:      time.Now,
	}
}

type BookTicketInput struct {
	UserID      uuid.UUID
	TripID      uuid.UUID
	Origin      string
	Destination string
	// TravelDate is optional (YYYY-MM-DD); when set the trip must depart that day.
	TravelDate string
	Passengers int
}

// BookTicket reserves seats on a trip and issues a ticket priced at
// fare x passengers.
//
// Parameters:
//   - ctx: request-scoped context.
//   - in: the journey being booked.
//
// Returns:
//   - *domain.Ticket: the booked ticket.
//   - error: domain.ErrValidation if passengers or stations are invalid.
//   - error: booking.ErrTripNotFound if the trip does not exist.
//   - error: booking.ErrTripMismatch if the trip does not run between the stations or on the date.
//   - error: booking.ErrTripDeparted if the trip already left.
//   - error: booking.ErrRouteInactive if the route is switched off.
//   - error: booking.ErrNoSeats if fewer seats than passengers remain.
func (s *Service) BookTicket(ctx context.Context, in BookTicketInput) (*domain.Ticket, error) {
	const op = "service.booking.BookTicket"

	if in.Passengers < 1 || in.Passengers > domain.MaxPassengers {
		return nil, fmt.Errorf("%s:%w", op, &domain.FieldError{
			Field:  "passengers",
			Reason: fmt.Sprintf("must be between 1 and %d", domain.MaxPassengers),
		})
	}

	var ticket *domain.Ticket

	err := s.uow.DoWithOpts(ctx, &pgx.TxOptions{IsoLevel: pgx.Serializable}, func(
		ctx context.Context,
		after func(uow.AfterCommit),
	) error {
		trip, route, err := s.journey(ctx, in.TripID, in.Origin, in.Destination, in.TravelDate)
		if err != nil {
			return err
		}

		if _, err := s.catalog.ReserveSeats(ctx, trip.ID, in.Passengers); err != nil {
			switch {
			case errors.Is(err, repository.ErrNoSeats):
				return ErrNoSeats
			case errors.Is(err, repository.ErrNotFound):
				return ErrTripNotFound
			default:
				return err
			}
		}

		t := &domain.Ticket{
			ID:            uuid.New(),
			UserID:        in.UserID,
			RouteID:       route.ID,
			TripID:        trip.ID,
			Origin:        route.StartLocation,
			Destination:   route.EndLocation,
			DepartureTime: trip.DepartsAt,
			ArrivalTime:   trip.ArrivesAt,
			Passengers:    in.Passengers,
			Price:         domain.Money(route.Fare.Mul(decimal.NewFromInt(int64(in.Passengers)))),
			Status:        domain.TicketBooked,
		}

		if err := t.Validate(); err != nil {
			return err
		}

		if err := s.tickets.Create(ctx, t); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrTripNotFound
			}

			return err
		}

		ticket = t

		after(func(ctx context.Context) {
			metrics.TicketsBooked.Inc()
			_, _ = s.notifier.Notify(ctx, t.UserID, domain.NotifyBooking, domain.PriorityNormal,
				"Ticket booked",
				fmt.Sprintf("%s to %s on %s for %d passenger(s), RM %s.",
					t.Origin, t.Destination, t.DepartureTime.Format("02 Jan 2006 15:04"),
					t.Passengers, t.Price.StringFixed(2)))
		})

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return ticket, nil
}

// journey loads a trip and its route and checks they serve the requested
// stations and travel date.
func (s *Service) journey(
	ctx context.Context,
	tripID uuid.UUID,
	origin, destination, travelDate string,
) (*domain.Trip, *domain.Route, error) {
	trip, err := s.catalog.GetTrip(ctx, tripID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrTripNotFound
		}

		return nil, nil, err
	}

	route, err := s.catalog.GetRoute(ctx, trip.RouteID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrTripNotFound
		}

		return nil, nil, err
	}

	if !route.Active {
		return nil, nil, ErrRouteInactive
	}

	if !strings.EqualFold(strings.TrimSpace(origin), route.StartLocation) ||
		!strings.EqualFold(strings.TrimSpace(destination), route.EndLocation) {
		return nil, nil, ErrTripMismatch
	}

	if travelDate != "" && trip.DepartsAt.UTC().Format(domain.DateLayout) != travelDate {
		return nil, nil, ErrTripMismatch
	}

	if !trip.DepartsAt.After(s.now()) {
		return nil, nil, ErrTripDeparted
	}

	return trip, route, nil
}

type CancelResult struct {
	Ticket *domain.Ticket `json:"ticket"`
	// RefundPercentage is the share of the fare the cancellation window allows.
	RefundPercentage decimal.Decimal `json:"refund_percentage"`
	// Refunded is the amount returned to the ticket's payment, zero when the
	// ticket was never paid.
	Refunded decimal.Decimal `json:"refunded"`
}

// CancelTicket cancels a booked ticket, releases its seats and refunds the
// completed payment for it according to the time left before departure.
//
// Returns:
//   - *CancelResult: the cancelled ticket and refund details.
//   - error: booking.ErrTicketNotFound if the user has no such ticket.
//   - error: booking.ErrTicketNotCancellable if the ticket is not booked.
func (s *Service) CancelTicket(ctx context.Context, userID, ticketID uuid.UUID) (*CancelResult, error) {
	const op = "service.booking.CancelTicket"

	var res *CancelResult

	err := s.uow.Do(ctx, func(ctx context.Context, after func(uow.AfterCommit)) error {
		t, err := s.ownedTicket(ctx, userID, ticketID)
		if err != nil {
			return err
		}

		if t.Status != domain.TicketBooked {
			return ErrTicketNotCancellable
		}

		now := s.now()
		pct := domain.RefundPercentage(t.DepartureTime.Sub(now))

		t, err = s.tickets.TransitionStatus(ctx, t.ID, domain.TicketBooked, domain.TicketCancelled)
		if err != nil {
			if errors.Is(err, repository.ErrStaleState) {
				return ErrTicketNotCancellable
			}

			return err
		}

		if err := s.catalog.ReleaseSeats(ctx, t.TripID, t.Passengers); err != nil {
			return err
		}

		refunded := decimal.Zero

		p, err := s.payments.CompletedForTicket(ctx, t.ID)
		switch {
		case errors.Is(err, repository.ErrNotFound):
		case err != nil:
			return err
		default:
			// The window applies to what was paid for the ticket, which for
			// a ticket bought in an order includes its share of the tax.
			entitled := domain.RefundAmount(p.Amount, t.DepartureTime, now)
			refunded = decimal.Min(entitled, p.Amount.Sub(p.RefundedAmount))
			if refunded.IsPositive() {
				if err := s.payments.SetRefund(ctx, p.ID, p.RefundedAmount.Add(refunded), domain.PaymentRefunded); err != nil {
					return err
				}
			} else {
				refunded = decimal.Zero
			}
		}

		res = &CancelResult{
			Ticket:           t,
			RefundPercentage: pct,
			Refunded:         refunded,
		}

		after(func(ctx context.Context) {
			metrics.TicketsCancelled.WithLabelValues(metrics.RefundTier(pct)).Inc()
			if refunded.IsPositive() {
				metrics.Refunds.Inc()
			}
			_, _ = s.notifier.Notify(ctx, t.UserID, domain.NotifyBooking, domain.PriorityNormal,
				"Ticket cancelled",
				fmt.Sprintf("%s to %s cancelled. Refund: RM %s.",
					t.Origin, t.Destination, refunded.StringFixed(2)))
		})

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return res, nil
}

func (s *Service) GetTicket(ctx context.Context, userID, ticketID uuid.UUID) (*domain.Ticket, error) {
	const op = "service.booking.GetTicket"

	t, err := s.ownedTicket(ctx, userID, ticketID)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return t, nil
}

func (s *Service) ListTickets(ctx context.Context, userID uuid.UUID) ([]domain.Ticket, error) {
	const op = "service.booking.ListTickets"

	tickets, err := s.tickets.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return tickets, nil
}

// MarkDeparted flags booked tickets whose train has left as used.
func (s *Service) MarkDeparted(ctx context.Context) (int64, error) {
	const op = "service.booking.MarkDeparted"

	n, err := s.tickets.MarkDeparted(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("%s:%w", op, err)
	}

	return n, nil
}

func (s *Service) ownedTicket(ctx context.Context, userID, ticketID uuid.UUID) (*domain.Ticket, error) {
	t, err := s.tickets.Get(ctx, ticketID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTicketNotFound
		}

		return nil, err
	}

	if t.UserID != userID {
		return nil, ErrTicketNotFound
	}

	return t, nil
}
