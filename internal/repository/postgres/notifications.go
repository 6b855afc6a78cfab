package postgres

import (
	"context"

	"github.com/google/uuid"

	"github.com/Josan88/Kuching-ART-Online-System-sub000/internal/domain"
	"github.com/Josan88/Kuching-ART-Online-System-sub000/internal/repository"
)

type NotificationRepo struct {
	s *Store
}

func (r *NotificationRepo) Create(ctx context.Context, n *domain.Notification) error {
	const op = "postgres.NotificationRepo.Create"

	db := r.s.conn(ctx)

	if err := db.QueryRow(ctx,
		`INSERT INTO notifications(id, user_id, type, priority, title, message, read)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING created_at`,
		n.ID, n.UserID, n.Type, n.Priority, n.Title, n.Message, n.Read,
	).Scan(&n.CreatedAt); err != nil {
		return wrapDBErr(op, err)
	}

	return nil
}

func (r *NotificationRepo) List(
	ctx context.Context,
	userID uuid.UUID,
	unreadOnly bool,
	limit int,
) ([]domain.Notification, error) {
	const op = "postgres.NotificationRepo.List"

	db := r.s.conn(ctx)

	rows, err := db.Query(ctx,
		`SELECT id, user_id, type, priority, title, message, read, created_at
		 FROM notifications
		 WHERE user_id = $1 AND (NOT read OR NOT $2)
		 ORDER BY created_at DESC
		 LIMIT $3`,
		userID, unreadOnly, limit,
	)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	defer rows.Close()

	out := []domain.Notification{}
	for rows.Next() {
		var n domain.Notification
		if err := rows.Scan(
			&n.ID,
			&n.UserID,
			&n.Type,
			&n.Priority,
			&n.Title,
			&n.Message,
			&n.Read,
			&n.CreatedAt,
		); err != nil {
			return nil, wrapDBErr(op, err)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return out, nil
}

func (r *NotificationRepo) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	const op = "postgres.NotificationRepo.UnreadCount"

	db := r.s.conn(ctx)

	var n int64
	if err := db.QueryRow(ctx,
		`SELECT count(*) FROM notifications WHERE user_id = $1 AND NOT read`, userID,
	).Scan(&n); err != nil {
		return 0, wrapDBErr(op, err)
	}

	return n, nil
}

func (r *NotificationRepo) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	const op = "postgres.NotificationRepo.MarkRead"

	db := r.s.conn(ctx)

	tag, err := db.Exec(ctx,
		`UPDATE notifications SET read = TRUE WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	if err != nil {
		return wrapDBErr(op, err)
	}

	if tag.RowsAffected() == 0 {
		return wrapDBErr(op, repository.ErrNotFound)
	}

	return nil
}

func (r *NotificationRepo) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	const op = "postgres.NotificationRepo.MarkAllRead"

	db := r.s.conn(ctx)

	tag, err := db.Exec(ctx,
		`UPDATE notifications SET read = TRUE WHERE user_id = $1 AND NOT read`,
		userID,
	)
	if err != nil {
		return 0, wrapDBErr(op, err)
	}

	return tag.RowsAffected(), nil
}

func (r *NotificationRepo) Delete(ctx context.Context, userID, id uuid.UUID) error {
	const op = "postgres.NotificationRepo.Delete"

	db := r.s.conn(ctx)

	tag, err := db.Exec(ctx,
		`DELETE FROM notifications WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	if err != nil {
		return wrapDBErr(op, err)
	}

	if tag.RowsAffected() == 0 {
		return wrapDBErr(op, repository.ErrNotFound)
	}

	return nil
}
