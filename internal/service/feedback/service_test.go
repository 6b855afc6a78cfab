package feedback

import (
	"context"
	"sort"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Josan88/Kuching-ART-Online-System-sub000/internal/domain"
	"github.com/Josan88/Kuching-ART-Online-System-sub000/internal/repository"
)

type memRepo struct {
	items []domain.Feedback
}

func (m *memRepo) Create(_ context.Context, f *domain.Feedback) error {
	m.items = append(m.items, *f)
	return nil
}

func (m *memRepo) Get(_ context.Context, id uuid.UUID) (*domain.Feedback, error) {
	for _, f := range m.items {
		if f.ID == id {
			return &f, nil
		}
	}
	return nil, repository.ErrNotFound
}

var priorityRank = map[domain.FeedbackPriority]int{
	domain.FeedbackHigh:   0,
	domain.FeedbackMedium: 1,
	domain.FeedbackLow:    2,
}

func (m *memRepo) List(_ context.Context, status domain.FeedbackStatus, userID *uuid.UUID, limit, offset int) ([]domain.Feedback, error) {
	out := []domain.Feedback{}
	for _, f := range m.items {
		if status != "" && f.Status != status {
			continue
		}
		if userID != nil && f.UserID != *userID {
			continue
		}
		out = append(out, f)
	}
	sort.SliceStable(out, func(i, j int) bool { return priorityRank[out[i].Priority] < priorityRank[out[j].Priority] })
	if offset >= len(out) {
		return []domain.Feedback{}, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memRepo) UpdateStatus(_ context.Context, id uuid.UUID, status domain.FeedbackStatus) (*domain.Feedback, error) {
	for i := range m.items {
		if m.items[i].ID == id {
			m.items[i].Status = status
			f := m.items[i]
			return &f, nil
		}
	}
	return nil, repository.ErrNotFound
}

type countingNotifier struct{ titles []string }

func (n *countingNotifier) Notify(
	_ context.Context,
	userID uuid.UUID,
	typ domain.NotificationType,
	_ domain.NotificationPriority,
	title, _ string,
) (*domain.Notification, error) {
	n.titles = append(n.titles, title)
	return &domain.Notification{ID: uuid.New(), UserID: userID, Type: typ, Title: title}, nil
}

func TestSubmit_Priority(t *testing.T) {
	svc := New(&memRepo{}, nil)

	tests := []struct {
		rating int
		want   domain.FeedbackPriority
	}{
		{1, domain.FeedbackHigh},
		{2, domain.FeedbackHigh},
		{3, domain.FeedbackMedium},
		{4, domain.FeedbackLow},
		{5, domain.FeedbackLow},
	}

	for _, tt := range tests {
		f, err := svc.Submit(context.Background(), SubmitInput{
			UserID:  uuid.New(),
			Subject: "Train delay",
			Message: "The 8am train was late",
			Rating:  tt.rating,
		})
		require.NoError(t, err)
		assert.Equal(t, tt.want, f.Priority, "rating %d", tt.rating)
		assert.Equal(t, domain.FeedbackNew, f.Status)
		assert.Equal(t, "general", f.Category)
	}
}

func TestSubmit_Rejects(t *testing.T) {
	svc := New(&memRepo{}, nil)

	for _, in := range []SubmitInput{
		{Subject: "x", Message: "y", Rating: 0},
		{Subject: "x", Message: "y", Rating: 6},
		{Subject: " ", Message: "y", Rating: 3},
		{Subject: "x", Message: "", Rating: 3},
	} {
		_, err := svc.Submit(context.Background(), in)
		assert.ErrorIs(t, err, domain.ErrValidation)
	}
}

func TestListAndUpdate(t *testing.T) {
	repo := &memRepo{}
	notifier := &countingNotifier{}
	svc := New(repo, notifier)
	ctx := context.Background()
	user := uuid.New()

	happy, err := svc.Submit(ctx, SubmitInput{UserID: user, Subject: "Great", Message: "Clean trains", Rating: 5})
	require.NoError(t, err)
	angry, err := svc.Submit(ctx, SubmitInput{UserID: uuid.New(), Subject: "Broken", Message: "Gate stuck", Rating: 1})
	require.NoError(t, err)

	all, err := svc.List(ctx, "", 0, 0)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, angry.ID, all[0].ID)

	mine, err := svc.ListByUser(ctx, user, 10, 0)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, happy.ID, mine[0].ID)

	_, err = svc.List(ctx, "archived", 10, 0)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.UpdateStatus(ctx, angry.ID, domain.FeedbackInReview)
	require.NoError(t, err)
	assert.Empty(t, notifier.titles)

	resolved, err := svc.UpdateStatus(ctx, angry.ID, domain.FeedbackResolved)
	require.NoError(t, err)
	assert.Equal(t, domain.FeedbackResolved, resolved.Status)
	assert.Equal(t, []string{"Feedback resolved"}, notifier.titles)

	open, err := svc.List(ctx, domain.FeedbackNew, 10, 0)
	require.NoError(t, err)
	assert.Len(t, open, 1)

	_, err = svc.UpdateStatus(ctx, uuid.New(), domain.FeedbackResolved)
	assert.ErrorIs(t, err, ErrFeedbackNotFound)

	_, err = svc.UpdateStatus(ctx, angry.ID, "done")
	assert.ErrorIs(t, err, domain.ErrValidation)

	got, err := svc.Get(ctx, happy.ID)
	require.NoError(t, err)
	assert.Equal(t, "Great", got.Subject)
}
