package points

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Josan88/Kuching-ART-Online-System-sub000/internal/domain"
	"github.com/Josan88/Kuching-ART-Online-System-sub000/internal/repository"
)

type inlineTx struct{}

func (inlineTx) RunTx(ctx context.Context, _ *pgx.TxOptions, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeLedger struct {
	mu       sync.Mutex
	balances map[uuid.UUID]int64
	rows     []domain.PointsTransaction
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{balances: map[uuid.UUID]int64{}}
}

func (f *fakeLedger) LockBalance(_ context.Context, userID uuid.UUID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.balances[userID]
	if !ok {
		return 0, repository.ErrNotFound
	}
	return b, nil
}

func (f *fakeLedger) Balance(ctx context.Context, userID uuid.UUID) (int64, error) {
	return f.LockBalance(ctx, userID)
}

func (f *fakeLedger) Append(_ context.Context, tx *domain.PointsTransaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows = append(f.rows, *tx)
	f.balances[tx.UserID] = tx.BalanceAfter
	return nil
}

func (f *fakeLedger) History(_ context.Context, userID uuid.UUID, limit, offset int) ([]domain.PointsTransaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []domain.PointsTransaction{}
	for i := len(f.rows) - 1; i >= 0; i-- {
		if f.rows[i].UserID == userID {
			out = append(out, f.rows[i])
		}
	}
	if offset >= len(out) {
		return []domain.PointsTransaction{}, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func TestEarnRedeemFlow(t *testing.T) {
	ledger := newFakeLedger()
	user := uuid.New()
	ledger.balances[user] = 0
	svc := New(inlineTx{}, ledger, Config{})
	ctx := context.Background()

	tx, err := svc.Earn(ctx, user, decimal.RequireFromString("47.70"), decimal.Zero, "order-1")
	require.NoError(t, err)
	assert.Equal(t, int64(47), tx.Points)
	assert.Equal(t, int64(47), tx.BalanceAfter)

	tx, err = svc.Earn(ctx, user, decimal.RequireFromString("10.00"), decimal.NewFromInt(2), "order-2")
	require.NoError(t, err)
	assert.Equal(t, int64(20), tx.Points)

	tx, err = svc.Redeem(ctx, user, 30, "order-3")
	require.NoError(t, err)
	assert.Equal(t, int64(-30), tx.Points)
	assert.Equal(t, int64(37), tx.BalanceAfter)

	balance, err := svc.Balance(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, int64(37), balance)

	history, err := svc.History(ctx, user, 2, 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, domain.PointsRedeem, history[0].Kind)
}

func TestRedeem_Insufficient(t *testing.T) {
	ledger := newFakeLedger()
	user := uuid.New()
	ledger.balances[user] = 10
	svc := New(inlineTx{}, ledger, Config{})

	_, err := svc.Redeem(context.Background(), user, 11, "")
	assert.ErrorIs(t, err, ErrInsufficientPoints)
	assert.Empty(t, ledger.rows)
	assert.Equal(t, int64(10), ledger.balances[user])

	_, err = svc.Redeem(context.Background(), user, 0, "")
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestEarn_NothingEarnedWritesNoRow(t *testing.T) {
	ledger := newFakeLedger()
	user := uuid.New()
	ledger.balances[user] = 5
	svc := New(inlineTx{}, ledger, Config{})

	tx, err := svc.Earn(context.Background(), user, decimal.RequireFromString("0.99"), decimal.Zero, "")
	require.NoError(t, err)
	assert.Equal(t, int64(0), tx.Points)
	assert.Equal(t, int64(5), tx.BalanceAfter)
	assert.Empty(t, ledger.rows)
}

func TestUnknownUser(t *testing.T) {
	svc := New(inlineTx{}, newFakeLedger(), Config{})

	_, err := svc.Adjust(context.Background(), uuid.New(), 5, "goodwill")
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = svc.Balance(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestAdjust_Negative(t *testing.T) {
	ledger := newFakeLedger()
	user := uuid.New()
	ledger.balances[user] = 100
	svc := New(inlineTx{}, ledger, Config{Rate: decimal.NewFromInt(1)})

	tx, err := svc.Adjust(context.Background(), user, -40, "correction")
	require.NoError(t, err)
	assert.Equal(t, int64(60), tx.BalanceAfter)
	assert.Equal(t, domain.PointsAdjust, tx.Kind)

	_, err = svc.Adjust(context.Background(), user, -61, "too much")
	assert.ErrorIs(t, err, ErrInsufficientPoints)
}
