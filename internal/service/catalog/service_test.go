package catalog

import (
	"context"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Josan88/Kuching-ART-Online-System-sub000/internal/domain"
	"github.com/Josan88/Kuching-ART-Online-System-sub000/internal/repository"
	redisrepo "github.com/Josan88/Kuching-ART-Online-System-sub000/internal/repository/redis"
)

type memCatalog struct {
	routes      map[uuid.UUID]domain.Route
	trips       map[uuid.UUID]domain.Trip
	merch       map[uuid.UUID]domain.Merchandise
	routeLoads  int
	searchRange [2]time.Time
}

func newMemCatalog() *memCatalog {
	return &memCatalog{
		routes: map[uuid.UUID]domain.Route{},
		trips:  map[uuid.UUID]domain.Trip{},
		merch:  map[uuid.UUID]domain.Merchandise{},
	}
}

func (m *memCatalog) ListRoutes(_ context.Context, activeOnly bool) ([]domain.Route, error) {
	m.routeLoads++
	out := []domain.Route{}
	for _, r := range m.routes {
		if !activeOnly || r.Active {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartLocation < out[j].StartLocation })
	return out, nil
}

func (m *memCatalog) GetRoute(_ context.Context, id uuid.UUID) (*domain.Route, error) {
	r, ok := m.routes[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &r, nil
}

func (m *memCatalog) CreateRoute(_ context.Context, rt *domain.Route) error {
	for _, r := range m.routes {
		if strings.EqualFold(r.StartLocation, rt.StartLocation) && strings.EqualFold(r.EndLocation, rt.EndLocation) {
			return repository.ErrConflict
		}
	}
	m.routes[rt.ID] = *rt
	return nil
}

func (m *memCatalog) SetRouteActive(_ context.Context, id uuid.UUID, active bool) error {
	r, ok := m.routes[id]
	if !ok {
		return repository.ErrNotFound
	}
	r.Active = active
	m.routes[id] = r
	return nil
}

func (m *memCatalog) CreateTrip(_ context.Context, t *domain.Trip) error {
	m.trips[t.ID] = *t
	return nil
}

func (m *memCatalog) GetTrip(_ context.Context, id uuid.UUID) (*domain.Trip, error) {
	t, ok := m.trips[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &t, nil
}

func (m *memCatalog) SearchTrips(_ context.Context, origin, destination string, from, to time.Time) ([]domain.TripListing, error) {
	m.searchRange = [2]time.Time{from, to}
	out := []domain.TripListing{}
	for _, t := range m.trips {
		r := m.routes[t.RouteID]
		if !r.Active || !strings.EqualFold(r.StartLocation, origin) || !strings.EqualFold(r.EndLocation, destination) {
			continue
		}
		if t.DepartsAt.Before(from) || !t.DepartsAt.Before(to) {
			continue
		}
		out = append(out, domain.TripListing{Trip: t, Origin: r.StartLocation, Destination: r.EndLocation, Fare: r.Fare})
	}
	return out, nil
}

func (m *memCatalog) ListMerchandise(_ context.Context, activeOnly bool) ([]domain.Merchandise, error) {
	out := []domain.Merchandise{}
	for _, it := range m.merch {
		if !activeOnly || it.Active {
			out = append(out, it)
		}
	}
	return out, nil
}

func (m *memCatalog) GetMerchandise(_ context.Context, id uuid.UUID) (*domain.Merchandise, error) {
	it, ok := m.merch[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &it, nil
}

func (m *memCatalog) CreateMerchandise(_ context.Context, it *domain.Merchandise) error {
	m.merch[it.ID] = *it
	return nil
}

func (m *memCatalog) AdjustStock(_ context.Context, id uuid.UUID, delta int) (*domain.Merchandise, error) {
	it, ok := m.merch[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if it.Stock+delta < 0 {
		return nil, repository.ErrOutOfStock
	}
	it.Stock += delta
	m.merch[id] = it
	return &it, nil
}

func newService(t *testing.T) (*Service, *memCatalog, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	repo := newMemCatalog()
	return New(repo, redisrepo.NewCache(rdb), Config{}), repo, mr
}

func sentralToSamarahan() CreateRouteInput {
	return CreateRouteInput{
		StartLocation: "Kuching Sentral",
		EndLocation:   "Samarahan",
		DistanceKm:    24.5,
		DurationMin:   35,
		Fare:          decimal.RequireFromString("5.05"),
	}
}

func TestListRoutes_CachedAndInvalidated(t *testing.T) {
	svc, repo, _ := newService(t)
	ctx := context.Background()

	_, err := svc.CreateRoute(ctx, sentralToSamarahan())
	require.NoError(t, err)

	routes, err := svc.ListRoutes(ctx, true)
	require.NoError(t, err)
	require.Len(t, routes, 1)
	assert.True(t, decimal.RequireFromString("5.05").Equal(routes[0].Fare))

	_, err = svc.ListRoutes(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.routeLoads)

	require.NoError(t, svc.SetRouteActive(ctx, routes[0].ID, false))

	routes, err = svc.ListRoutes(ctx, true)
	require.NoError(t, err)
	assert.Empty(t, routes)
	assert.Equal(t, 2, repo.routeLoads)
}

func TestCreateRoute_Rejects(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	in := sentralToSamarahan()
	in.EndLocation = "kuching sentral"
	_, err := svc.CreateRoute(ctx, in)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.CreateRoute(ctx, sentralToSamarahan())
	require.NoError(t, err)
	_, err = svc.CreateRoute(ctx, sentralToSamarahan())
	assert.ErrorIs(t, err, ErrRouteConflict)

	_, err = svc.GetRoute(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrRouteNotFound)
}

func TestCreateTripAndSearch(t *testing.T) {
	svc, repo, _ := newService(t)
	ctx := context.Background()
	svc.now = func() time.Time { return time.Date(2026, 11, 2, 6, 0, 0, 0, time.UTC) }

	rt, err := svc.CreateRoute(ctx, sentralToSamarahan())
	require.NoError(t, err)

	early, err := svc.CreateTrip(ctx, rt.ID, time.Date(2026, 11, 2, 5, 0, 0, 0, time.UTC), 120)
	require.NoError(t, err)
	assert.Equal(t, 120, early.SeatsAvailable)

	later, err := svc.CreateTrip(ctx, rt.ID, time.Date(2026, 11, 2, 8, 30, 0, 0, time.UTC), 120)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 11, 2, 9, 5, 0, 0, time.UTC), later.ArrivesAt)

	_, err = svc.CreateTrip(ctx, rt.ID, time.Date(2026, 11, 3, 8, 0, 0, 0, time.UTC), 120)
	require.NoError(t, err)

	trips, err := svc.SearchTrips(ctx, "kuching sentral", "SAMARAHAN", "2026-11-02")
	require.NoError(t, err)
	require.Len(t, trips, 1)
	assert.Equal(t, later.ID, trips[0].ID)
	assert.Equal(t, time.Date(2026, 11, 3, 0, 0, 0, 0, time.UTC), repo.searchRange[1])

	_, err = svc.SearchTrips(ctx, "a", "b", "02/11/2026")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.CreateTrip(ctx, rt.ID, time.Now(), 0)
	assert.ErrorIs(t, err, domain.ErrValidation)

	require.NoError(t, svc.SetRouteActive(ctx, rt.ID, false))
	_, err = svc.CreateTrip(ctx, rt.ID, time.Now(), 10)
	assert.ErrorIs(t, err, ErrRouteInactive)

	_, err = svc.CreateTrip(ctx, uuid.New(), time.Now(), 10)
	assert.ErrorIs(t, err, ErrRouteNotFound)
}

func TestMerchandiseStock(t *testing.T) {
	svc, _, mr := newService(t)
	ctx := context.Background()

	m, err := svc.CreateMerchandise(ctx, CreateMerchandiseInput{
		Name:     "ART Tumbler",
		Category: "drinkware",
		Price:    decimal.RequireFromString("25.00"),
		Stock:    3,
	})
	require.NoError(t, err)

	list, err := svc.ListMerchandise(ctx, true)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, mr.Exists(redisrepo.KeyMerchandise(true)))

	updated, err := svc.AdjustStock(ctx, m.ID, -2)
	require.NoError(t, err)
	assert.Equal(t, 1, updated.Stock)
	assert.False(t, mr.Exists(redisrepo.KeyMerchandise(true)))

	_, err = svc.AdjustStock(ctx, m.ID, -2)
	assert.ErrorIs(t, err, ErrOutOfStock)

	_, err = svc.AdjustStock(ctx, uuid.New(), 1)
	assert.ErrorIs(t, err, ErrMerchandiseNotFound)

	_, err = svc.CreateMerchandise(ctx, CreateMerchandiseInput{Name: "Cap", Price: decimal.NewFromInt(-1)})
	assert.ErrorIs(t, err, domain.ErrValidation)
}
