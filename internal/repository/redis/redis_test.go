package redis

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Josan88/Kuching-ART-Online-System-sub000/internal/domain"
)

func newTestClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return mr, rdb
}

type routeList struct {
	Names []string `json:"names"`
}

func TestGetOrSetJSON_LoadsOnce(t *testing.T) {
	_, rdb := newTestClient(t)
	cache := NewCache(rdb)
	ctx := context.Background()

	var calls int32
	loader := func(ctx context.Context) (routeList, error) {
		atomic.AddInt32(&calls, 1)
		return routeList{Names: []string{"Kuching Sentral - Pending"}}, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := GetOrSetJSON(ctx, cache, KeyRoutes(true), time.Minute, loader)
			assert.NoError(t, err)
			assert.Equal(t, []string{"Kuching Sentral - Pending"}, v.Names)
		}()
	}
	wg.Wait()

	v, err := GetOrSetJSON(ctx, cache, KeyRoutes(true), time.Minute, loader)
	require.NoError(t, err)
	assert.Len(t, v.Names, 1)
	assert.LessOrEqual(t, atomic.LoadInt32(&calls), int32(1))
}

func TestInvalidateRoutes(t *testing.T) {
	mr, rdb := newTestClient(t)
	cache := NewCache(rdb)
	ctx := context.Background()
	id := uuid.New()

	require.NoError(t, SetJSON(ctx, cache, KeyRoutes(true), routeList{}, time.Minute))
	require.NoError(t, SetJSON(ctx, cache, KeyRoutes(false), routeList{}, time.Minute))
	require.NoError(t, SetJSON(ctx, cache, KeyRoute(id), routeList{}, time.Minute))

	require.NoError(t, cache.InvalidateRoutes(ctx, id))

	assert.False(t, mr.Exists(KeyRoutes(true)))
	assert.False(t, mr.Exists(KeyRoutes(false)))
	assert.False(t, mr.Exists(KeyRoute(id)))
}

func TestIdempotencyStore(t *testing.T) {
	_, rdb := newTestClient(t)
	s := NewIdempotencyStore(rdb, time.Hour)
	ctx := context.Background()
	key := KeyIdem("book", uuid.New(), "abc")

	ok, err := s.AcquireLock(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.AcquireLock(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	locked, err := s.IsLocked(ctx, key)
	require.NoError(t, err)
	assert.True(t, locked)

	_, found, err := s.GetResult(ctx, key)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, s.SaveResult(ctx, key, `{"id":"1"}`))
	payload, found, err := s.GetResult(ctx, key)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, `{"id":"1"}`, payload)

	require.NoError(t, s.Release(ctx, key))
	locked, err = s.IsLocked(ctx, key)
	require.NoError(t, err)
	assert.False(t, locked)
}

func TestSlidingWindowLimiter(t *testing.T) {
	_, rdb := newTestClient(t)
	l := NewSlidingWindowLimiter(rdb, "login", 3, time.Minute)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		allowed, current, _, err := l.Allow(ctx, "ip:1")
		require.NoError(t, err)
		assert.True(t, allowed)
		assert.Equal(t, int64(i), current)
	}

	allowed, _, retry, err := l.Allow(ctx, "ip:1")
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Greater(t, retry, time.Duration(0))

	allowed, _, _, err = l.Allow(ctx, "ip:2")
	require.NoError(t, err)
	assert.True(t, allowed)

	require.NoError(t, l.Reset(ctx, "ip:1"))
	allowed, _, _, err = l.Allow(ctx, "ip:1")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestDraftStore(t *testing.T) {
	mr, rdb := newTestClient(t)
	s := NewDraftStore(rdb, 30*time.Minute)
	ctx := context.Background()
	userID := uuid.New()

	_, found, err := s.Get(ctx, userID)
	require.NoError(t, err)
	assert.False(t, found)

	d := &domain.BookingDraft{
		UserID:      userID,
		Step:        domain.StepTrip,
		Origin:      "Kuching Sentral",
		Destination: "Samarahan",
		TravelDate:  "2026-11-02",
		TripID:      uuid.New(),
	}
	require.NoError(t, s.Save(ctx, d))

	got, found, err := s.Get(ctx, userID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, d.TripID, got.TripID)
	assert.Equal(t, domain.StepTrip, got.Step)

	mr.FastForward(31 * time.Minute)
	_, found, err = s.Get(ctx, userID)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, s.Save(ctx, d))
	require.NoError(t, s.Delete(ctx, userID))
	_, found, err = s.Get(ctx, userID)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestNotificationsPubSub(t *testing.T) {
	_, rdb := newTestClient(t)
	ps := NewNotificationsPubSub(rdb)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan domain.Notification, 16)
	done := make(chan error, 1)
	go func() {
		done <- ps.Subscribe(ctx, func(_ context.Context, n domain.Notification) {
			got <- n
		})
	}()

	n := domain.Notification{
		ID:       uuid.New(),
		UserID:   uuid.New(),
		Type:     domain.NotifyBooking,
		Priority: domain.PriorityNormal,
		Title:    "Ticket booked",
		Message:  "See you on board",
	}

	var received domain.Notification
	require.Eventually(t, func() bool {
		_ = ps.Publish(context.Background(), n)
		select {
		case received = <-got:
			return true
		case <-time.After(20 * time.Millisecond):
			return false
		}
	}, 2*time.Second, 10*time.Millisecond)

	assert.Equal(t, n.ID, received.ID)
	assert.Equal(t, "Ticket booked", received.Title)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("subscriber did not stop")
	}
}
