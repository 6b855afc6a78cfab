package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Josan88/Kuching-ART-Online-System-sub000/internal/domain"
	"github.com/Josan88/Kuching-ART-Online-System-sub000/internal/repository"
)

// CatalogRepo stores routes, their scheduled trips and merchandise.
type CatalogRepo struct {
	s *Store
}

const routeColumns = `id, start_location, end_location, distance_km, duration_min, fare, active`

func scanRoute(row interface{ Scan(...any) error }, rt *domain.Route) error {
	return row.Scan(
		&rt.ID,
		&rt.StartLocation,
		&rt.EndLocation,
		&rt.DistanceKm,
		&rt.DurationMin,
		&rt.Fare,
		&rt.Active,
	)
}

// ListRoutes lists routes ordered by start and end location.
//
// Parameters:
//   - ctx: request-scoped context for cancellation and timeouts.
//   - activeOnly: flag to filter out deactivated routes.
//
// Returns:
//   - []domain.Route: list of routes, empty when none match.
func (r *CatalogRepo) ListRoutes(ctx context.Context, activeOnly bool) ([]domain.Route, error) {
	const op = "postgres.CatalogRepo.ListRoutes"

	db := r.s.conn(ctx)

	rows, err := db.Query(ctx,
		`SELECT `+routeColumns+`
		 FROM routes
		 WHERE active OR NOT $1
		 ORDER BY start_location, end_location`,
		activeOnly,
	)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	defer rows.Close()

	out := []domain.Route{}
	for rows.Next() {
		var rt domain.Route
		if err := scanRoute(rows, &rt); err != nil {
			return nil, wrapDBErr(op, err)
		}
		out = append(out, rt)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return out, nil
}

// GetRoute retrieves a route by its ID.
//
// Returns:
//   - error: repository.ErrNotFound if the route does not exist.
func (r *CatalogRepo) GetRoute(ctx context.Context, id uuid.UUID) (*domain.Route, error) {
	const op = "postgres.CatalogRepo.GetRoute"

	db := r.s.conn(ctx)

	var rt domain.Route
	if err := scanRoute(db.QueryRow(ctx,
		`SELECT `+routeColumns+` FROM routes WHERE id = $1`, id,
	), &rt); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return &rt, nil
}

// CreateRoute inserts a route.
//
// Returns:
//   - error: repository.ErrConflict if the start/end pair already exists.
func (r *CatalogRepo) CreateRoute(ctx context.Context, rt *domain.Route) error {
	const op = "postgres.CatalogRepo.CreateRoute"

	db := r.s.conn(ctx)

	if _, err := db.Exec(ctx,
		`INSERT INTO routes(id, start_location, end_location, distance_km, duration_min, fare, active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		rt.ID, rt.StartLocation, rt.EndLocation, rt.DistanceKm, rt.DurationMin, rt.Fare, rt.Active,
	); err != nil {
		return wrapDBErr(op, err)
	}

	return nil
}

func (r *CatalogRepo) SetRouteActive(ctx context.Context, id uuid.UUID, active bool) error {
	const op = "postgres.CatalogRepo.SetRouteActive"

	db := r.s.conn(ctx)

	tag, err := db.Exec(ctx, `UPDATE routes SET active = $2 WHERE id = $1`, id, active)
	if err != nil {
		return wrapDBErr(op, err)
	}

	if tag.RowsAffected() == 0 {
		return wrapDBErr(op, repository.ErrNotFound)
	}

	return nil
}

const tripColumns = `id, route_id, departs_at, arrives_at, seats_total, seats_available`

func scanTrip(row interface{ Scan(...any) error }, t *domain.Trip) error {
	return row.Scan(
		&t.ID,
		&t.RouteID,
		&t.DepartsAt,
		&t.ArrivesAt,
		&t.SeatsTotal,
		&t.SeatsAvailable,
	)
}

func (r *CatalogRepo) CreateTrip(ctx context.Context, t *domain.Trip) error {
	const op = "postgres.CatalogRepo.CreateTrip"

	db := r.s.conn(ctx)

	if _, err := db.Exec(ctx,
		`INSERT INTO trips(id, route_id, departs_at, arrives_at, seats_total, seats_available)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		t.ID, t.RouteID, t.DepartsAt, t.ArrivesAt, t.SeatsTotal, t.SeatsAvailable,
	); err != nil {
		return wrapDBErr(op, err)
	}

	return nil
}

func (r *CatalogRepo) GetTrip(ctx context.Context, id uuid.UUID) (*domain.Trip, error) {
	const op = "postgres.CatalogRepo.GetTrip"

	db := r.s.conn(ctx)

	var t domain.Trip
	if err := scanTrip(db.QueryRow(ctx,
		`SELECT `+tripColumns+` FROM trips WHERE id = $1`, id,
	), &t); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return &t, nil
}

// SearchTrips lists trips on active routes between origin and destination
// departing in [from, to).
func (r *CatalogRepo) SearchTrips(
	ctx context.Context,
	origin, destination string,
	from, to time.Time,
) ([]domain.TripListing, error) {
	const op = "postgres.CatalogRepo.SearchTrips"

	db := r.s.conn(ctx)

	rows, err := db.Query(ctx,
		`SELECT t.id, t.route_id, t.departs_at, t.arrives_at, t.seats_total, t.seats_available,
		        r.start_location, r.end_location, r.fare
		 FROM trips t
		 JOIN routes r ON r.id = t.route_id
		 WHERE r.active
		   AND lower(r.start_location) = lower($1)
		   AND lower(r.end_location) = lower($2)
		   AND t.departs_at >= $3 AND t.departs_at < $4
		 ORDER BY t.departs_at`,
		origin, destination, from, to,
	)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	defer rows.Close()

	out := []domain.TripListing{}
	for rows.Next() {
		var l domain.TripListing
		if err := rows.Scan(
			&l.ID,
			&l.RouteID,
			&l.DepartsAt,
			&l.ArrivesAt,
			&l.SeatsTotal,
			&l.SeatsAvailable,
			&l.Origin,
			&l.Destination,
			&l.Fare,
		); err != nil {
			return nil, wrapDBErr(op, err)
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return out, nil
}

// ReserveSeats takes n seats from a trip.
//
// Returns:
//   - *domain.Trip: the trip after the seats were taken.
//   - error: repository.ErrNoSeats if fewer than n seats remain.
//   - error: repository.ErrNotFound if the trip does not exist.
func (r *CatalogRepo) ReserveSeats(ctx context.Context, tripID uuid.UUID, n int) (*domain.Trip, error) {
	const op = "postgres.CatalogRepo.ReserveSeats"

	db := r.s.conn(ctx)

	var t domain.Trip
	err := scanTrip(db.QueryRow(ctx,
		`UPDATE trips SET seats_available = seats_available - $2
		 WHERE id = $1 AND seats_available >= $2
		 RETURNING `+tripColumns,
		tripID, n,
	), &t)
	if err == nil {
		return &t, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, wrapDBErr(op, err)
	}

	if _, err := r.GetTrip(ctx, tripID); err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return nil, fmt.Errorf("%s:%w", op, repository.ErrNoSeats)
}

func (r *CatalogRepo) ReleaseSeats(ctx context.Context, tripID uuid.UUID, n int) error {
	const op = "postgres.CatalogRepo.ReleaseSeats"

	db := r.s.conn(ctx)

	tag, err := db.Exec(ctx,
		`UPDATE trips SET seats_available = LEAST(seats_total, seats_available + $2)
		 WHERE id = $1`,
		tripID, n,
	)
	if err != nil {
		return wrapDBErr(op, err)
	}

	if tag.RowsAffected() == 0 {
		return wrapDBErr(op, repository.ErrNotFound)
	}

	return nil
}

const merchColumns = `id, name, description, category, price, stock, active`

func scanMerch(row interface{ Scan(...any) error }, m *domain.Merchandise) error {
	return row.Scan(
		&m.ID,
		&m.Name,
		&m.Description,
		&m.Category,
		&m.Price,
		&m.Stock,
		&m.Active,
	)
}

func (r *CatalogRepo) ListMerchandise(ctx context.Context, activeOnly bool) ([]domain.Merchandise, error) {
	const op = "postgres.CatalogRepo.ListMerchandise"

	db := r.s.conn(ctx)

	rows, err := db.Query(ctx,
		`SELECT `+merchColumns+`
		 FROM merchandise
		 WHERE active OR NOT $1
		 ORDER BY category, name`,
		activeOnly,
	)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	defer rows.Close()

	out := []domain.Merchandise{}
	for rows.Next() {
		var m domain.Merchandise
		if err := scanMerch(rows, &m); err != nil {
			return nil, wrapDBErr(op, err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return out, nil
}

func (r *CatalogRepo) GetMerchandise(ctx context.Context, id uuid.UUID) (*domain.Merchandise, error) {
	const op = "postgres.CatalogRepo.GetMerchandise"

	db := r.s.conn(ctx)

	var m domain.Merchandise
	if err := scanMerch(db.QueryRow(ctx,
		`SELECT `+merchColumns+` FROM merchandise WHERE id = $1`, id,
	), &m); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return &m, nil
}

func (r *CatalogRepo) CreateMerchandise(ctx context.Context, m *domain.Merchandise) error {
	const op = "postgres.CatalogRepo.CreateMerchandise"

	db := r.s.conn(ctx)

	if _, err := db.Exec(ctx,
		`INSERT INTO merchandise(id, name, description, category, price, stock, active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		m.ID, m.Name, m.Description, m.Category, m.Price, m.Stock, m.Active,
	); err != nil {
		return wrapDBErr(op, err)
	}

	return nil
}

// AdjustStock adds delta (possibly negative) to the stock of an item.
//
// Returns:
//   - error: repository.ErrOutOfStock if the stock would drop below zero.
//   - error: repository.ErrNotFound if the item does not exist.
func (r *CatalogRepo) AdjustStock(ctx context.Context, id uuid.UUID, delta int) (*domain.Merchandise, error) {
	const op = "postgres.CatalogRepo.AdjustStock"

	db := r.s.conn(ctx)

	var m domain.Merchandise
	err := scanMerch(db.QueryRow(ctx,
		`UPDATE merchandise SET stock = stock + $2
		 WHERE id = $1 AND stock + $2 >= 0
		 RETURNING `+merchColumns,
		id, delta,
	), &m)
	if err == nil {
		return &m, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, wrapDBErr(op, err)
	}

	if _, err := r.GetMerchandise(ctx, id); err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return nil, fmt.Errorf("%s:%w", op, repository.ErrOutOfStock)
}
