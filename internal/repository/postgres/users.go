package postgres

import (
	"context"

	"github.com/google/uuid"

	"github.com/Josan88/Kuching-ART-Online-System-sub000/internal/domain"
	"github.com/Josan88/Kuching-ART-Online-System-sub000/internal/repository"
)

type UserRepo struct {
	s *Store
}

const userColumns = `id, name, email, password_hash, phone, address, loyalty_points, registration_date`

func scanUser(row interface{ Scan(...any) error }, u *domain.User) error {
	return row.Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.PasswordHash,
		&u.Phone,
		&u.Address,
		&u.LoyaltyPoints,
		&u.RegistrationDate,
	)
}

// Create inserts a new user.
//
// Returns:
//   - error: repository.ErrConflict if the email is already registered.
func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	const op = "postgres.UserRepo.Create"

	db := r.s.conn(ctx)

	err := db.QueryRow(ctx,
		`INSERT INTO users(id, name, email, password_hash, phone, address, loyalty_points)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING registration_date`,
		u.ID, u.Name, u.Email, u.PasswordHash, u.Phone, u.Address, u.LoyaltyPoints,
	).Scan(&u.RegistrationDate)
	if err != nil {
		return wrapDBErr(op, err)
	}

	return nil
}

func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	const op = "postgres.UserRepo.GetByID"

	db := r.s.conn(ctx)

	var u domain.User
	if err := scanUser(db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id,
	), &u); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return &u, nil
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	const op = "postgres.UserRepo.GetByEmail"

	db := r.s.conn(ctx)

	var u domain.User
	if err := scanUser(db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email,
	), &u); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return &u, nil
}

func (r *UserRepo) UpdateProfile(
	ctx context.Context,
	id uuid.UUID,
	name, phone, address string,
) (*domain.User, error) {
	const op = "postgres.UserRepo.UpdateProfile"

	db := r.s.conn(ctx)

	var u domain.User
	if err := scanUser(db.QueryRow(ctx,
		`UPDATE users SET name = $2, phone = $3, address = $4
		 WHERE id = $1
		 RETURNING `+userColumns,
		id, name, phone, address,
	), &u); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return &u, nil
}

func (r *UserRepo) UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error {
	const op = "postgres.UserRepo.UpdatePassword"

	db := r.s.conn(ctx)

	tag, err := db.Exec(ctx, `UPDATE users SET password_hash = $2 WHERE id = $1`, id, hash)
	if err != nil {
		return wrapDBErr(op, err)
	}

	if tag.RowsAffected() == 0 {
		return wrapDBErr(op, repository.ErrNotFound)
	}

	return nil
}
