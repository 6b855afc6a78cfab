package points

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Josan88/Kuching-ART-Online-System-sub000/internal/domain"
	"github.com/Josan88/Kuching-ART-Online-System-sub000/internal/repository"
	"github.com/Josan88/Kuching-ART-Online-System-sub000/internal/uow"
)

// Ledger is the storage the points service needs.
type Ledger interface {
	LockBalance(ctx context.Context, userID uuid.UUID) (int64, error)
	Balance(ctx context.Context, userID uuid.UUID) (int64, error)
	Append(ctx context.Context, tx *domain.PointsTransaction) error
	History(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.PointsTransaction, error)
}

type Config struct {
	// Rate is the number of points earned per currency unit.
	Rate decimal.Decimal
}

type Service struct {
	ledger Ledger
	uow    *uow.UoW
	cfg    Config
}

func New(tx uow.Transactor, ledger Ledger, cfg Config) *Service {
	if !cfg.Rate.IsPositive() {
		cfg.Rate = domain.DefaultPointsRate
	}

	return &Service{
		ledger: ledger,
		uow:    uow.NewUoW(tx),
		cfg:    cfg,
	}
}

// Earn credits floor(amount * rate) points. A zero rate uses the configured
// rate. When nothing is earned no ledger row is written and the returned
// transaction only carries the current balance.
//
// Parameters:
//   - ctx: request-scoped context; joins the caller's transaction if any.
//   - userID: user to credit.
//   - amount: purchase amount the points are earned on.
//   - rate: points per currency unit.
//   - ref: reference of the purchase (order or payment id).
//
// Returns:
//   - *domain.PointsTransaction: the ledger row written.
//   - error: points.ErrUserNotFound if the user does not exist.
func (s *Service) Earn(
	ctx context.Context,
	userID uuid.UUID,
	amount, rate decimal.Decimal,
	ref string,
) (*domain.PointsTransaction, error) {
	const op = "service.points.Earn"

	if !rate.IsPositive() {
		rate = s.cfg.Rate
	}

	earned := domain.PointsEarned(amount, rate)

	tx, err := s.apply(ctx, userID, domain.PointsEarn, earned, ref,
		fmt.Sprintf("Earned on purchase of RM %s", domain.Money(amount).StringFixed(2)))
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return tx, nil
}

// Redeem debits points from the user's balance.
//
// Returns:
//   - error: points.ErrInsufficientPoints if the balance is lower than points.
//   - error: points.ErrInvalidAmount if points is not positive.
//   - error: points.ErrUserNotFound if the user does not exist.
func (s *Service) Redeem(
	ctx context.Context,
	userID uuid.UUID,
	points int64,
	ref string,
) (*domain.PointsTransaction, error) {
	const op = "service.points.Redeem"

	if points <= 0 {
		return nil, fmt.Errorf("%s:%w", op, ErrInvalidAmount)
	}

	tx, err := s.apply(ctx, userID, domain.PointsRedeem, -points, ref,
		fmt.Sprintf("Redeemed for RM %s discount", domain.PointsValue(points).StringFixed(2)))
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return tx, nil
}

// Adjust applies a manual correction of delta points.
func (s *Service) Adjust(
	ctx context.Context,
	userID uuid.UUID,
	delta int64,
	reason string,
) (*domain.PointsTransaction, error) {
	const op = "service.points.Adjust"

	if delta == 0 {
		return nil, fmt.Errorf("%s:%w", op, ErrInvalidAmount)
	}

	tx, err := s.apply(ctx, userID, domain.PointsAdjust, delta, "", reason)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return tx, nil
}

func (s *Service) Balance(ctx context.Context, userID uuid.UUID) (int64, error) {
	const op = "service.points.Balance"

	balance, err := s.ledger.Balance(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return 0, fmt.Errorf("%s:%w", op, ErrUserNotFound)
		}

		return 0, fmt.Errorf("%s:%w", op, err)
	}

	return balance, nil
}

func (s *Service) History(
	ctx context.Context,
	userID uuid.UUID,
	limit, offset int,
) ([]domain.PointsTransaction, error) {
	const op = "service.points.History"

	limit, offset = domain.ClampPage(limit, offset)

	if _, err := s.Balance(ctx, userID); err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	history, err := s.ledger.History(ctx, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return history, nil
}

func (s *Service) apply(
	ctx context.Context,
	userID uuid.UUID,
	kind domain.PointsKind,
	delta int64,
	ref, description string,
) (*domain.PointsTransaction, error) {
	var out *domain.PointsTransaction

	err := s.uow.Do(ctx, func(ctx context.Context, _ func(uow.AfterCommit)) error {
		balance, err := s.ledger.LockBalance(ctx, userID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrUserNotFound
			}

			return err
		}

		next, err := domain.ApplyPointsDelta(balance, delta)
		if err != nil {
			return ErrInsufficientPoints
		}

		out = &domain.PointsTransaction{
			ID:           uuid.New(),
			UserID:       userID,
			Kind:         kind,
			Points:       delta,
			BalanceAfter: next,
			Reference:    ref,
			Description:  description,
		}

		if delta == 0 {
			return nil
		}

		return s.ledger.Append(ctx, out)
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}
