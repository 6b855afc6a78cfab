package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Josan88/Kuching-ART-Online-System-sub000/internal/domain"
	"github.com/Josan88/Kuching-ART-Online-System-sub000/internal/metrics"
	"github.com/Josan88/Kuching-ART-Online-System-sub000/internal/repository"
	"github.com/Josan88/Kuching-ART-Online-System-sub000/internal/uow"
)

type Repository interface {
	Create(ctx context.Context, p *domain.Payment) error
	Get(ctx context.Context, id uuid.UUID, lock bool) (*domain.Payment, error)
	CompletedForTicket(ctx context.Context, ticketID uuid.UUID) (*domain.Payment, error)
	SetRefund(ctx context.Context, id uuid.UUID, refunded decimal.Decimal, status domain.PaymentStatus) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Payment, error)
}

type Tickets interface {
	Get(ctx context.Context, id uuid.UUID) (*domain.Ticket, error)
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
	repo     Repository
	tickets  Tickets
	notifier Notifier
	uow      *uow.UoW
	now      func() time.Time
}

func New(tx uow.Transactor, repo Repository, tickets Tickets, notifier Notifier) *Service {
	return &Service{
		repo:     repo,
		tickets:  tickets,
		notifier: notifier,
		uow:      uow.NewUoW(tx),
		now:      time.Now,
	}
}

type ProcessInput struct {
	UserID   uuid.UUID
	TicketID uuid.UUID
	Amount   decimal.Decimal
	Method   domain.PaymentMethod
}

// Process records a completed payment for a booked ticket.
//
// Parameters:
//   - ctx: request-scoped context.
//   - in: the payment; Amount must equal the ticket price.
//
// Returns:
//   - *domain.Payment: the recorded payment.
//   - error: domain.ErrValidation if the method is unknown or the amount is not positive.
//   - error: payments.ErrTicketNotFound if the user has no such ticket.
//   - error: payments.ErrTicketNotBooked if the ticket was cancelled or used.
//   - error: payments.ErrAmountMismatch if Amount differs from the ticket price.
//   - error: payments.ErrAlreadyPaid if the ticket already has a completed payment.
func (s *Service) Process(ctx context.Context, in ProcessInput) (*domain.Payment, error) {
	const op = "service.payments.Process"

	ticketID := in.TicketID
	p := &domain.Payment{
		ID:       uuid.New(),
		UserID:   in.UserID,
		TicketID: &ticketID,
		Amount:   domain.Money(in.Amount),
		Method:   in.Method,
		Status:   domain.PaymentCompleted,
	}

	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	err := s.uow.Do(ctx, func(ctx context.Context, after func(uow.AfterCommit)) error {
		t, err := s.tickets.Get(ctx, in.TicketID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrTicketNotFound
			}

			return err
		}

		if t.UserID != in.UserID {
			return ErrTicketNotFound
		}

		if t.Status != domain.TicketBooked {
			return ErrTicketNotBooked
		}

		if !p.Amount.Equal(t.Price) {
			return ErrAmountMismatch
		}

		_, err = s.repo.CompletedForTicket(ctx, t.ID)
		switch {
		case err == nil:
			return ErrAlreadyPaid
		case !errors.Is(err, repository.ErrNotFound):
			return err
		}

		p.TransactionRef = TransactionRef(p.ID, s.now())

		if err := s.repo.Create(ctx, p); err != nil {
			return err
		}

		after(func(ctx context.Context) {
			metrics.PaymentsProcessed.WithLabelValues(string(p.Method)).Inc()
			_, _ = s.notifier.Notify(ctx, p.UserID, domain.NotifyPayment, domain.PriorityNormal,
				"Payment received",
				fmt.Sprintf("RM %s paid for %s to %s. Reference %s.",
					p.Amount.StringFixed(2), t.Origin, t.Destination, p.TransactionRef))
		})

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return p, nil
}

// Refund returns amount from a completed payment.
//
// Returns:
//   - *domain.Payment: the payment after the refund.
//   - error: payments.ErrPaymentNotFound if the payment does not exist.
//   - error: payments.ErrNotRefundable if the payment is not completed.
//   - error: payments.ErrRefundExceeds if amount is more than what is left.
func (s *Service) Refund(ctx context.Context, paymentID uuid.UUID, amount decimal.Decimal) (*domain.Payment, error) {
	const op = "service.payments.Refund"

	amount = domain.Money(amount)
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%s:%w", op, &domain.FieldError{Field: "amount", Reason: "must be positive"})
	}

	var out *domain.Payment

	err := s.uow.Do(ctx, func(ctx context.Context, after func(uow.AfterCommit)) error {
		p, err := s.repo.Get(ctx, paymentID, true)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrPaymentNotFound
			}

			return err
		}

		if p.Status != domain.PaymentCompleted {
			return ErrNotRefundable
		}

		if amount.GreaterThan(p.Amount.Sub(p.RefundedAmount)) {
			return ErrRefundExceeds
		}

		p.RefundedAmount = p.RefundedAmount.Add(amount)
		p.Status = domain.PaymentRefunded

		if err := s.repo.SetRefund(ctx, p.ID, p.RefundedAmount, p.Status); err != nil {
			return err
		}

		out = p

		after(func(ctx context.Context) {
			metrics.Refunds.Inc()
			_, _ = s.notifier.Notify(ctx, p.UserID, domain.NotifyPayment, domain.PriorityNormal,
				"Refund issued",
				fmt.Sprintf("RM %s refunded for payment %s.", amount.StringFixed(2), p.TransactionRef))
		})

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*domain.Payment, error) {
	const op = "service.payments.Get"

	p, err := s.repo.Get(ctx, id, false)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s:%w", op, ErrPaymentNotFound)
		}

		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return p, nil
}

func (s *Service) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Payment, error) {
	const op = "service.payments.ListByUser"

	list, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return list, nil
}

// TransactionRef builds the customer-facing payment reference.
func TransactionRef(id uuid.UUID, at time.Time) string {
	return fmt.Sprintf("TXN%d%s", at.UnixMilli(), strings.ToUpper(id.String()[:8]))
}
