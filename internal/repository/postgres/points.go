package postgres

import (
	"context"

	"github.com/google/uuid"

	"github.com/Josan88/Kuching-ART-Online-System-sub000/internal/domain"
	"github.com/Josan88/Kuching-ART-Online-System-sub000/internal/repository"
)

type PointsRepo struct {
	s *Store
}

// LockBalance reads the user's balance and locks the row until the surrounding
// transaction ends.
func (r *PointsRepo) LockBalance(ctx context.Context, userID uuid.UUID) (int64, error) {
	const op = "postgres.PointsRepo.LockBalance"

	db := r.s.conn(ctx)

	var balance int64
	if err := db.QueryRow(ctx,
		`SELECT loyalty_points FROM users WHERE id = $1 FOR UPDATE`, userID,
	).Scan(&balance); err != nil {
		return 0, wrapDBErr(op, err)
	}

	return balance, nil
}

func (r *PointsRepo) Balance(ctx context.Context, userID uuid.UUID) (int64, error) {
	const op = "postgres.PointsRepo.Balance"

	db := r.s.conn(ctx)

	var balance int64
	if err := db.QueryRow(ctx,
		`SELECT loyalty_points FROM users WHERE id = $1`, userID,
	).Scan(&balance); err != nil {
		return 0, wrapDBErr(op, err)
	}

	return balance, nil
}

// Append writes a ledger row and stores its running balance on the user.
func (r *PointsRepo) Append(ctx context.Context, tx *domain.PointsTransaction) error {
	const op = "postgres.PointsRepo.Append"

	db := r.s.conn(ctx)

	if err := db.QueryRow(ctx,
		`INSERT INTO points_ledger(id, user_id, kind, points, balance_after, reference, description)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING created_at`,
		tx.ID, tx.UserID, tx.Kind, tx.Points, tx.BalanceAfter, tx.Reference, tx.Description,
	).Scan(&tx.CreatedAt); err != nil {
		return wrapDBErr(op, err)
	}

	tag, err := db.Exec(ctx,
		`UPDATE users SET loyalty_points = $2 WHERE id = $1`,
		tx.UserID, tx.BalanceAfter,
	)
	if err != nil {
		return wrapDBErr(op, err)
	}

	if tag.RowsAffected() == 0 {
		return wrapDBErr(op, repository.ErrNotFound)
	}

	return nil
}

func (r *PointsRepo) History(
	ctx context.Context,
	userID uuid.UUID,
	limit, offset int,
) ([]domain.PointsTransaction, error) {
	const op = "postgres.PointsRepo.History"

	db := r.s.conn(ctx)

	rows, err := db.Query(ctx,
		`SELECT id, user_id, kind, points, balance_after, reference, description, created_at
		 FROM points_ledger
		 WHERE user_id = $1
		 ORDER BY created_at DESC, id
		 LIMIT $2 OFFSET $3`,
		userID, limit, offset,
	)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	defer rows.Close()

	out := []domain.PointsTransaction{}
	for rows.Next() {
		var t domain.PointsTransaction
		if err := rows.Scan(
			&t.ID,
			&t.UserID,
			&t.Kind,
			&t.Points,
			&t.BalanceAfter,
			&t.Reference,
			&t.Description,
			&t.CreatedAt,
		); err != nil {
			return nil, wrapDBErr(op, err)
		}

		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return out, nil
}
