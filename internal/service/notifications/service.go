package notifications

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/Josan88/Kuching-ART-Online-System-sub000/internal/domain"
	"github.com/Josan88/Kuching-ART-Online-System-sub000/internal/repository"
)

type Repository interface {
	Create(ctx context.Context, n *domain.Notification) error
	List(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit int) ([]domain.Notification, error)
	UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error)
	MarkRead(ctx context.Context, userID, id uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
}

type Publisher interface {
	Publish(ctx context.Context, n domain.Notification) error
}

type Service struct {
	repo Repository
	pub  Publisher
}

func New(repo Repository, pub Publisher) *Service {
	return &Service{
		repo: repo,
		pub:  pub,
	}
}

// Notify stores a notification for a user and publishes it to live
// subscribers. A failed publish does not fail the call; the notification is
// already stored.
//
// Parameters:
//   - ctx: request-scoped context.
//   - userID: recipient.
//   - typ: notification category.
//   - priority: display priority; empty means normal.
//   - title, message: notification text.
//
// Returns:
//   - *domain.Notification: the stored notification.
//   - error: domain.ErrValidation if a field is invalid.
func (s *Service) Notify(
	ctx context.Context,
	userID uuid.UUID,
	typ domain.NotificationType,
	priority domain.NotificationPriority,
	title, message string,
) (*domain.Notification, error) {
	const op = "service.notifications.Notify"

	if priority == "" {
		priority = domain.PriorityNormal
	}

	n := &domain.Notification{
		ID:       uuid.New(),
		UserID:   userID,
		Type:     typ,
		Priority: priority,
		Title:    title,
		Message:  message,
	}

	if err := n.Validate(); err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	if err := s.repo.Create(ctx, n); err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	if s.pub != nil {
		_ = s.pub.Publish(ctx, *n)
	}

	return n, nil
}

func (s *Service) List(
	ctx context.Context,
	userID uuid.UUID,
	unreadOnly bool,
	limit int,
) ([]domain.Notification, error) {
	const op = "service.notifications.List"

	limit, _ = domain.ClampPage(limit, 0)

	list, err := s.repo.List(ctx, userID, unreadOnly, limit)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return list, nil
}

func (s *Service) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	const op = "service.notifications.UnreadCount"

	n, err := s.repo.UnreadCount(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("%s:%w", op, err)
	}

	return n, nil
}

// MarkRead flags one of the user's notifications as read.
//
// Returns:
//   - error: notifications.ErrNotificationNotFound if the user has no such notification.
func (s *Service) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	const op = "service.notifications.MarkRead"

	if err := s.repo.MarkRead(ctx, userID, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%s:%w", op, ErrNotificationNotFound)
		}

		return fmt.Errorf("%s:%w", op, err)
	}

	return nil
}

func (s *Service) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	const op = "service.notifications.MarkAllRead"

	n, err := s.repo.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("%s:%w", op, err)
	}

	return n, nil
}

func (s *Service) Delete(ctx context.Context, userID, id uuid.UUID) error {
	const op = "service.notifications.Delete"

	if err := s.repo.Delete(ctx, userID, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%s:%w", op, ErrNotificationNotFound)
		}

		return fmt.Errorf("%s:%w", op, err)
	}

	return nil
}
