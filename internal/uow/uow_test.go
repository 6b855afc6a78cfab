package uow

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type retryingTx struct {
	attempts int
	calls    int
}

func (r *retryingTx) RunTx(ctx context.Context, _ *pgx.TxOptions, fn func(ctx context.Context) error) error {
	var err error
	for i := 0; i < r.attempts; i++ {
		r.calls++
		err = fn(ctx)
	}
	return err
}

func TestDo_RunsHooksAfterCommit(t *testing.T) {
	tx := &retryingTx{attempts: 1}
	u := NewUoW(tx)

	var ran []string
	err := u.Do(context.Background(), func(ctx context.Context, after func(AfterCommit)) error {
		after(func(context.Context) { ran = append(ran, "a") })
		after(func(context.Context) { ran = append(ran, "b") })
		assert.Empty(t, ran)
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ran)
}

func TestDo_SkipsHooksOnError(t *testing.T) {
	u := NewUoW(&retryingTx{attempts: 1})
	boom := errors.New("boom")

	ran := false
	err := u.Do(context.Background(), func(ctx context.Context, after func(AfterCommit)) error {
		after(func(context.Context) { ran = true })
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.False(t, ran)
}

func TestDo_DropsHooksFromRetriedAttempts(t *testing.T) {
	tx := &retryingTx{attempts: 3}
	u := NewUoW(tx)

	count := 0
	err := u.Do(context.Background(), func(ctx context.Context, after func(AfterCommit)) error {
		after(func(context.Context) { count++ })
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, tx.calls)
	assert.Equal(t, 1, count)
}
