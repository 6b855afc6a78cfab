package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/Josan88/Kuching-ART-Online-System-sub000/internal/domain"
)

// DraftStore keeps the booking wizard state of each user. Drafts expire ttl
// after their last write.
type DraftStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewDraftStore(rdb *redis.Client, ttl time.Duration) *DraftStore {
	return &DraftStore{rdb: rdb, ttl: ttl}
}

func (s *DraftStore) Get(ctx context.Context, userID uuid.UUID) (*domain.BookingDraft, bool, error) {
	const op = "redis.DraftStore.Get"

	b, err := s.rdb.Get(ctx, KeyBookingDraft(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%s:%w", op, err)
	}

	var d domain.BookingDraft
	if err := json.Unmarshal(b, &d); err != nil {
		return nil, false, fmt.Errorf("%s:%w", op, err)
	}

	return &d, true, nil
}

func (s *DraftStore) Save(ctx context.Context, d *domain.BookingDraft) error {
	const op = "redis.DraftStore.Save"

	b, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	if err := s.rdb.Set(ctx, KeyBookingDraft(d.UserID), b, s.ttl).Err(); err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	return nil
}

func (s *DraftStore) Delete(ctx context.Context, userID uuid.UUID) error {
	return s.rdb.Del(ctx, KeyBookingDraft(userID)).Err()
}
