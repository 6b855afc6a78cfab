package feedback

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/Josan88/Kuching-ART-Online-System-sub000/internal/domain"
	"github.com/Josan88/Kuching-ART-Online-System-sub000/internal/repository"
)

type Repository interface {
	Create(ctx context.Context, f *domain.Feedback) error
	Get(ctx context.Context, id uuid.UUID) (*domain.Feedback, error)
	List(ctx context.Context, status domain.FeedbackStatus, userID *uuid.UUID, limit, offset int) ([]domain.Feedback, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.FeedbackStatus) (*domain.Feedback, error)
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
	notifier Notifier
}

func New(repo Repository, notifier Notifier) *Service {
	return &Service{
		repo:     repo,
		notifier: notifier,
	}
}

type SubmitInput struct {
	UserID   uuid.UUID
	Subject  string
	Message  string
	Rating   int
	Category string
}

// Submit stores feedback from a user. Priority follows from the rating: the
// lower the rating the sooner staff should look at it.
//
// Returns:
//   - *domain.Feedback: the stored feedback with status new.
//   - error: domain.ErrValidation if subject/message are empty or rating is outside 1-5.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (*domain.Feedback, error) {
	const op = "service.feedback.Submit"

	category := strings.TrimSpace(in.Category)
	if category == "" {
		category = "general"
	}

	f := &domain.Feedback{
		ID:       uuid.New(),
		UserID:   in.UserID,
		Subject:  strings.TrimSpace(in.Subject),
		Message:  strings.TrimSpace(in.Message),
		Rating:   in.Rating,
		Category: category,
		Status:   domain.FeedbackNew,
		Priority: domain.PriorityForRating(in.Rating),
	}

	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	if err := s.repo.Create(ctx, f); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s:%w", op, &domain.FieldError{Field: "user_id", Reason: "unknown user"})
		}

		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return f, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*domain.Feedback, error) {
	const op = "service.feedback.Get"

	f, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s:%w", op, ErrFeedbackNotFound)
		}

		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return f, nil
}

// List returns feedback for staff, most urgent first. An empty status lists
// every status.
func (s *Service) List(
	ctx context.Context,
	status domain.FeedbackStatus,
	limit, offset int,
) ([]domain.Feedback, error) {
	const op = "service.feedback.List"

	if status != "" && !status.Valid() {
		return nil, fmt.Errorf("%s:%w", op, &domain.FieldError{Field: "status", Reason: "unknown"})
	}

	limit, offset = domain.ClampPage(limit, offset)

	list, err := s.repo.List(ctx, status, nil, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return list, nil
}

func (s *Service) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.Feedback, error) {
	const op = "service.feedback.ListByUser"

	limit, offset = domain.ClampPage(limit, offset)

	list, err := s.repo.List(ctx, "", &userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return list, nil
}

// UpdateStatus moves feedback through review. The author is notified when it
// is resolved.
//
// Returns:
//   - error: feedback.ErrFeedbackNotFound if the feedback does not exist.
//   - error: domain.ErrValidation if status is unknown.
func (s *Service) UpdateStatus(
	ctx context.Context,
	id uuid.UUID,
	status domain.FeedbackStatus,
) (*domain.Feedback, error) {
	const op = "service.feedback.UpdateStatus"

	if !status.Valid() {
		return nil, fmt.Errorf("%s:%w", op, &domain.FieldError{Field: "status", Reason: "unknown"})
	}

	f, err := s.repo.UpdateStatus(ctx, id, status)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s:%w", op, ErrFeedbackNotFound)
		}

		return nil, fmt.Errorf("%s:%w", op, err)
	}

	if status == domain.FeedbackResolved && s.notifier != nil {
		_, _ = s.notifier.Notify(ctx, f.UserID, domain.NotifySystem, domain.PriorityLow,
			"Feedback resolved",
			fmt.Sprintf("Thanks for your feedback on %q. It has been resolved.", f.Subject))
	}

	return f, nil
}
