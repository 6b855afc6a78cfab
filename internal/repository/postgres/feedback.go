package postgres

import (
	"context"

	"github.com/google/uuid"

	"github.com/Josan88/Kuching-ART-Online-System-sub000/internal/domain"
)

type FeedbackRepo struct {
	s *Store
}

const feedbackColumns = `id, user_id, subject, message, rating, category, status, priority, created_at`

func scanFeedback(row interface{ Scan(...any) error }, f *domain.Feedback) error {
	return row.Scan(
		&f.ID,
		&f.UserID,
		&f.Subject,
		&f.Message,
		&f.Rating,
		&f.Category,
		&f.Status,
		&f.Priority,
		&f.CreatedAt,
	)
}

func (r *FeedbackRepo) Create(ctx context.Context, f *domain.Feedback) error {
	const op = "postgres.FeedbackRepo.Create"

	db := r.s.conn(ctx)

	if err := db.QueryRow(ctx,
		`INSERT INTO feedback(id, user_id, subject, message, rating, category, status, priority)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING created_at`,
		f.ID, f.UserID, f.Subject, f.Message, f.Rating, f.Category, f.Status, f.Priority,
	).Scan(&f.CreatedAt); err != nil {
		return wrapDBErr(op, err)
	}

	return nil
}

func (r *FeedbackRepo) Get(ctx context.Context, id uuid.UUID) (*domain.Feedback, error) {
	const op = "postgres.FeedbackRepo.Get"

	db := r.s.conn(ctx)

	var f domain.Feedback
	if err := scanFeedback(db.QueryRow(ctx,
		`SELECT `+feedbackColumns+` FROM feedback WHERE id = $1`, id,
	), &f); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return &f, nil
}

// List returns feedback newest first. An empty status lists every status; a
// nil userID lists every user.
func (r *FeedbackRepo) List(
	ctx context.Context,
	status domain.FeedbackStatus,
	userID *uuid.UUID,
	limit, offset int,
) ([]domain.Feedback, error) {
	const op = "postgres.FeedbackRepo.List"

	db := r.s.conn(ctx)

	rows, err := db.Query(ctx,
		`SELECT `+feedbackColumns+`
		 FROM feedback
		 WHERE ($1 = '' OR status = $1)
		   AND ($2::uuid IS NULL OR user_id = $2)
		 ORDER BY
		   CASE priority WHEN 'high' THEN 0 WHEN 'medium' THEN 1 ELSE 2 END,
		   created_at DESC
		 LIMIT $3 OFFSET $4`,
		string(status), userID, limit, offset,
	)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	defer rows.Close()

	out := []domain.Feedback{}
	for rows.Next() {
		var f domain.Feedback
		if err := scanFeedback(rows, &f); err != nil {
			return nil, wrapDBErr(op, err)
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return out, nil
}

func (r *FeedbackRepo) UpdateStatus(
	ctx context.Context,
	id uuid.UUID,
	status domain.FeedbackStatus,
) (*domain.Feedback, error) {
	const op = "postgres.FeedbackRepo.UpdateStatus"

	db := r.s.conn(ctx)

	var f domain.Feedback
	if err := scanFeedback(db.QueryRow(ctx,
		`UPDATE feedback SET status = $2 WHERE id = $1 RETURNING `+feedbackColumns,
		id, status,
	), &f); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return &f, nil
}
