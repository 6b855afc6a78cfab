package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Josan88/Kuching-ART-Online-System-sub000/internal/domain"
)

type OrderRepo struct {
	s *Store
}

const orderColumns = `id, user_id, subtotal, tax, discount, total, points_redeemed,
	status, payment_status, created_at, updated_at`

func scanOrder(row interface{ Scan(...any) error }, o *domain.Order) error {
	return row.Scan(
		&o.ID,
		&o.UserID,
		&o.Subtotal,
		&o.Tax,
		&o.Discount,
		&o.Total,
		&o.PointsRedeemed,
		&o.Status,
		&o.PaymentStatus,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
}

// Create inserts an order header together with its items.
//
// Returns:
//   - error: repository.ErrConflict if the user already has an open cart.
func (r *OrderRepo) Create(ctx context.Context, o *domain.Order) error {
	const op = "postgres.OrderRepo.Create"

	db := r.s.conn(ctx)

	if err := db.QueryRow(ctx,
		`INSERT INTO orders(id, user_id, subtotal, tax, discount, total, points_redeemed, status, payment_status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING created_at, updated_at`,
		o.ID, o.UserID, o.Subtotal, o.Tax, o.Discount, o.Total, o.PointsRedeemed, o.Status, o.PaymentStatus,
	).Scan(&o.CreatedAt, &o.UpdatedAt); err != nil {
		return wrapDBErr(op, err)
	}

	if err := r.insertItems(ctx, db, o); err != nil {
		return wrapDBErr(op, err)
	}

	return nil
}

// Get retrieves an order with its items.
//
// Returns:
//   - error: repository.ErrNotFound if the order does not exist.
func (r *OrderRepo) Get(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	const op = "postgres.OrderRepo.Get"

	db := r.s.conn(ctx)

	var o domain.Order
	if err := scanOrder(db.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1`, id,
	), &o); err != nil {
		return nil, wrapDBErr(op, err)
	}

	if err := r.loadItems(ctx, db, &o); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return &o, nil
}

// GetCart retrieves the open cart of a user and locks it for the surrounding
// transaction.
//
// Returns:
//   - error: repository.ErrNotFound if the user has no open cart.
func (r *OrderRepo) GetCart(ctx context.Context, userID uuid.UUID) (*domain.Order, error) {
	const op = "postgres.OrderRepo.GetCart"

	db := r.s.conn(ctx)

	var o domain.Order
	if err := scanOrder(db.QueryRow(ctx,
		`SELECT `+orderColumns+`
		 FROM orders
		 WHERE user_id = $1 AND status = 'cart'
		 FOR UPDATE`,
		userID,
	), &o); err != nil {
		return nil, wrapDBErr(op, err)
	}

	if err := r.loadItems(ctx, db, &o); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return &o, nil
}

func (r *OrderRepo) ListByUser(
	ctx context.Context,
	userID uuid.UUID,
	limit, offset int,
) ([]domain.Order, error) {
	const op = "postgres.OrderRepo.ListByUser"

	db := r.s.conn(ctx)

	rows, err := db.Query(ctx,
		`SELECT `+orderColumns+`
		 FROM orders
		 WHERE user_id = $1 AND status <> 'cart'
		 ORDER BY created_at DESC
		 LIMIT $2 OFFSET $3`,
		userID, limit, offset,
	)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	out := []domain.Order{}
	for rows.Next() {
		var o domain.Order
		if err := scanOrder(rows, &o); err != nil {
			rows.Close()
			return nil, wrapDBErr(op, err)
		}
		out = append(out, o)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, wrapDBErr(op, err)
	}

	for i := range out {
		if err := r.loadItems(ctx, db, &out[i]); err != nil {
			return nil, wrapDBErr(op, err)
		}
	}

	return out, nil
}

// Save writes the order header and replaces its items.
//
// Returns:
//   - error: repository.ErrNotFound if the order does not exist.
func (r *OrderRepo) Save(ctx context.Context, o *domain.Order) error {
	const op = "postgres.OrderRepo.Save"

	db := r.s.conn(ctx)

	if err := db.QueryRow(ctx,
		`UPDATE orders
		 SET subtotal = $2, tax = $3, discount = $4, total = $5, points_redeemed = $6,
		     status = $7, payment_status = $8, updated_at = now()
		 WHERE id = $1
		 RETURNING updated_at`,
		o.ID, o.Subtotal, o.Tax, o.Discount, o.Total, o.PointsRedeemed, o.Status, o.PaymentStatus,
	).Scan(&o.UpdatedAt); err != nil {
		return wrapDBErr(op, err)
	}

	if _, err := db.Exec(ctx, `DELETE FROM order_items WHERE order_id = $1`, o.ID); err != nil {
		return wrapDBErr(op, err)
	}

	if err := r.insertItems(ctx, db, o); err != nil {
		return wrapDBErr(op, err)
	}

	return nil
}

func (r *OrderRepo) insertItems(ctx context.Context, db DB, o *domain.Order) error {
	if len(o.Items) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for i, it := range o.Items {
		batch.Queue(
			`INSERT INTO order_items(id, order_id, item_type, item_id, name, quantity, unit_price, subtotal, position)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			it.ID, o.ID, it.ItemType, it.ItemID, it.Name, it.Quantity, it.UnitPrice, it.Subtotal, i,
		)
	}

	return db.SendBatch(ctx, batch).Close()
}

func (r *OrderRepo) loadItems(ctx context.Context, db DB, o *domain.Order) error {
	rows, err := db.Query(ctx,
		`SELECT id, order_id, item_type, item_id, name, quantity, unit_price, subtotal
		 FROM order_items
		 WHERE order_id = $1
		 ORDER BY position`,
		o.ID,
	)
	if err != nil {
		return err
	}

	defer rows.Close()

	o.Items = []domain.OrderItem{}
	for rows.Next() {
		var it domain.OrderItem
		if err := rows.Scan(
			&it.ID,
			&it.OrderID,
			&it.ItemType,
			&it.ItemID,
			&it.Name,
			&it.Quantity,
			&it.UnitPrice,
			&it.Subtotal,
		); err != nil {
			return err
		}
		o.Items = append(o.Items, it)
	}

	return rows.Err()
}
