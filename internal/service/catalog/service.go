package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Josan88/Kuching-ART-Online-System-sub000/internal/domain"
	"github.com/Josan88/Kuching-ART-Online-System-sub000/internal/repository"
	redisrepo "github.com/Josan88/Kuching-ART-Online-System-sub000/internal/repository/redis"
)

type Repository interface {
	ListRoutes(ctx context.Context, activeOnly bool) ([]domain.Route, error)
	GetRoute(ctx context.Context, id uuid.UUID) (*domain.Route, error)
	CreateRoute(ctx context.Context, rt *domain.Route) error
	SetRouteActive(ctx context.Context, id uuid.UUID, active bool) error

	CreateTrip(ctx context.Context, t *domain.Trip) error
	GetTrip(ctx context.Context, id uuid.UUID) (*domain.Trip, error)
	SearchTrips(ctx context.Context, origin, destination string, from, to time.Time) ([]domain.TripListing, error)

	ListMerchandise(ctx context.Context, activeOnly bool) ([]domain.Merchandise, error)
	GetMerchandise(ctx context.Context, id uuid.UUID) (*domain.Merchandise, error)
	CreateMerchandise(ctx context.Context, m *domain.Merchandise) error
	AdjustStock(ctx context.Context, id uuid.UUID, delta int) (*domain.Merchandise, error)
}

type Config struct {
	RoutesTTL      time.Duration
	MerchandiseTTL time.Duration
}

type Service struct {
	repo  Repository
	cache *redisrepo.Cache
	cfg   Config
	now   func() time.Time
}

func New(repo Repository, cache *redisrepo.Cache, cfg Config) *Service {
	if cfg.RoutesTTL <= 0 {
		cfg.RoutesTTL = 5 * time.Minute
	}

	if cfg.MerchandiseTTL <= 0 {
		cfg.MerchandiseTTL = time.Minute
	}

	return &Service{
		repo:  repo,
		cache: cache,
		cfg:   cfg,
		now:   time.Now,
	}
}

// ListRoutes returns routes ordered by start location, served from the cache
// when possible.
//
// Parameters:
//   - ctx: request-scoped context.
//   - activeOnly: hide routes that are switched off.
//
// Returns:
//   - []domain.Route: the routes, never nil.
//   - error: if neither cache nor database could serve the request.
func (s *Service) ListRoutes(ctx context.Context, activeOnly bool) ([]domain.Route, error) {
	const op = "service.catalog.ListRoutes"

	routes, err := redisrepo.GetOrSetJSON(
		ctx,
		s.cache,
		redisrepo.KeyRoutes(activeOnly),
		s.cfg.RoutesTTL,
		func(ctx context.Context) ([]domain.Route, error) {
			return s.repo.ListRoutes(ctx, activeOnly)
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	if routes == nil {
		routes = []domain.Route{}
	}

	return routes, nil
}

// GetRoute retrieves a route by its ID through the cache.
//
// Returns:
//   - error: catalog.ErrRouteNotFound if the route does not exist.
func (s *Service) GetRoute(ctx context.Context, id uuid.UUID) (*domain.Route, error) {
	const op = "service.catalog.GetRoute"

	rt, err := redisrepo.GetOrSetJSON(
		ctx,
		s.cache,
		redisrepo.KeyRoute(id),
		s.cfg.RoutesTTL,
		func(ctx context.Context) (domain.Route, error) {
			rt, err := s.repo.GetRoute(ctx, id)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return domain.Route{}, ErrRouteNotFound
				}

				return domain.Route{}, err
			}

			return *rt, nil
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return &rt, nil
}

type CreateRouteInput struct {
	StartLocation string
	EndLocation   string
	DistanceKm    float64
	DurationMin   int
	Fare          decimal.Decimal
}

// CreateRoute adds an active route.
//
// Returns:
//   - error: domain.ErrValidation if a field is invalid.
//   - error: catalog.ErrRouteConflict if the same start/end pair exists.
func (s *Service) CreateRoute(ctx context.Context, in CreateRouteInput) (*domain.Route, error) {
	const op = "service.catalog.CreateRoute"

	rt := &domain.Route{
		ID:            uuid.New(),
		StartLocation: strings.TrimSpace(in.StartLocation),
		EndLocation:   strings.TrimSpace(in.EndLocation),
		DistanceKm:    in.DistanceKm,
		DurationMin:   in.DurationMin,
		Fare:          domain.Money(in.Fare),
		Active:        true,
	}

	if err := rt.Validate(); err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	if err := s.repo.CreateRoute(ctx, rt); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, fmt.Errorf("%s:%w", op, ErrRouteConflict)
		}

		return nil, fmt.Errorf("%s:%w", op, err)
	}

	_ = s.cache.InvalidateRoutes(ctx)

	return rt, nil
}

func (s *Service) SetRouteActive(ctx context.Context, id uuid.UUID, active bool) error {
	const op = "service.catalog.SetRouteActive"

	if err := s.repo.SetRouteActive(ctx, id, active); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%s:%w", op, ErrRouteNotFound)
		}

		return fmt.Errorf("%s:%w", op, err)
	}

	_ = s.cache.InvalidateRoutes(ctx, id)

	return nil
}

// CreateTrip schedules a run of a route. The arrival time follows from the
// route's duration.
//
// Returns:
//   - error: catalog.ErrRouteNotFound if the route does not exist.
//   - error: catalog.ErrRouteInactive if the route is switched off.
//   - error: domain.ErrValidation if departsAt or seats are invalid.
func (s *Service) CreateTrip(
	ctx context.Context,
	routeID uuid.UUID,
	departsAt time.Time,
	seats int,
) (*domain.Trip, error) {
	const op = "service.catalog.CreateTrip"

	rt, err := s.repo.GetRoute(ctx, routeID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s:%w", op, ErrRouteNotFound)
		}

		return nil, fmt.Errorf("%s:%w", op, err)
	}

	if !rt.Active {
		return nil, fmt.Errorf("%s:%w", op, ErrRouteInactive)
	}

	t := &domain.Trip{
		ID:             uuid.New(),
		RouteID:        rt.ID,
		DepartsAt:      departsAt.UTC(),
		ArrivesAt:      departsAt.UTC().Add(time.Duration(rt.DurationMin) * time.Minute),
		SeatsTotal:     seats,
		SeatsAvailable: seats,
	}

	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	if err := s.repo.CreateTrip(ctx, t); err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return t, nil
}

func (s *Service) GetTrip(ctx context.Context, id uuid.UUID) (*domain.Trip, error) {
	const op = "service.catalog.GetTrip"

	t, err := s.repo.GetTrip(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s:%w", op, ErrTripNotFound)
		}

		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return t, nil
}

// SearchTrips lists trips between two stations on a calendar day
// (YYYY-MM-DD, UTC). Trips that already left are omitted.
func (s *Service) SearchTrips(
	ctx context.Context,
	origin, destination, date string,
) ([]domain.TripListing, error) {
	const op = "service.catalog.SearchTrips"

	origin = strings.TrimSpace(origin)
	destination = strings.TrimSpace(destination)

	if origin == "" {
		return nil, fmt.Errorf("%s:%w", op, &domain.FieldError{Field: "origin", Reason: "is required"})
	}

	if destination == "" {
		return nil, fmt.Errorf("%s:%w", op, &domain.FieldError{Field: "destination", Reason: "is required"})
	}

	day, err := time.Parse(domain.DateLayout, date)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, &domain.FieldError{Field: "date", Reason: "must be YYYY-MM-DD"})
	}

	from := day
	if now := s.now().UTC(); now.After(from) {
		from = now
	}

	trips, err := s.repo.SearchTrips(ctx, origin, destination, from, day.AddDate(0, 0, 1))
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return trips, nil
}

func (s *Service) ListMerchandise(ctx context.Context, activeOnly bool) ([]domain.Merchandise, error) {
	const op = "service.catalog.ListMerchandise"

	items, err := redisrepo.GetOrSetJSON(
		ctx,
		s.cache,
		redisrepo.KeyMerchandise(activeOnly),
		s.cfg.MerchandiseTTL,
		func(ctx context.Context) ([]domain.Merchandise, error) {
			return s.repo.ListMerchandise(ctx, activeOnly)
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	if items == nil {
		items = []domain.Merchandise{}
	}

	return items, nil
}

func (s *Service) GetMerchandise(ctx context.Context, id uuid.UUID) (*domain.Merchandise, error) {
	const op = "service.catalog.GetMerchandise"

	m, err := s.repo.GetMerchandise(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s:%w", op, ErrMerchandiseNotFound)
		}

		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return m, nil
}

type CreateMerchandiseInput struct {
	Name        string
	Description string
	Category    string
	Price       decimal.Decimal
	Stock       int
}

func (s *Service) CreateMerchandise(ctx context.Context, in CreateMerchandiseInput) (*domain.Merchandise, error) {
	const op = "service.catalog.CreateMerchandise"

	m := &domain.Merchandise{
		ID:          uuid.New(),
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		Category:    strings.TrimSpace(in.Category),
		Price:       domain.Money(in.Price),
		Stock:       in.Stock,
		Active:      true,
	}

	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	if err := s.repo.CreateMerchandise(ctx, m); err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	_ = s.cache.InvalidateMerchandise(ctx)

	return m, nil
}

// AdjustStock adds delta (possibly negative) to an item's stock.
//
// Returns:
//   - error: catalog.ErrOutOfStock if the stock would go negative.
//   - error: catalog.ErrMerchandiseNotFound if the item does not exist.
func (s *Service) AdjustStock(ctx context.Context, id uuid.UUID, delta int) (*domain.Merchandise, error) {
	const op = "service.catalog.AdjustStock"

	m, err := s.repo.AdjustStock(ctx, id, delta)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrOutOfStock):
			return nil, fmt.Errorf("%s:%w", op, ErrOutOfStock)
		case errors.Is(err, repository.ErrNotFound):
			return nil, fmt.Errorf("%s:%w", op, ErrMerchandiseNotFound)
		default:
			return nil, fmt.Errorf("%s:%w", op, err)
		}
	}

	_ = s.cache.InvalidateMerchandise(ctx)

	return m, nil
}
