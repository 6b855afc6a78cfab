package httpgin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Josan88/Kuching-ART-Online-System-sub000/internal/domain"
	"github.com/Josan88/Kuching-ART-Online-System-sub000/internal/repository"
	redisrepo "github.com/Josan88/Kuching-ART-Online-System-sub000/internal/repository/redis"
	"github.com/Josan88/Kuching-ART-Online-System-sub000/internal/service"
	"github.com/Josan88/Kuching-ART-Online-System-sub000/internal/service/booking"
	"github.com/Josan88/Kuching-ART-Online-System-sub000/internal/service/catalog"
	"github.com/Josan88/Kuching-ART-Online-System-sub000/internal/service/orders"
	"github.com/Josan88/Kuching-ART-Online-System-sub000/internal/service/payments"
	"github.com/Josan88/Kuching-ART-Online-System-sub000/internal/service/users"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type inlineTx struct{}

func (inlineTx) RunTx(ctx context.Context, _ *pgx.TxOptions, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type nopNotifier struct{}

func (nopNotifier) Notify(
	_ context.Context,
	userID uuid.UUID,
	typ domain.NotificationType,
	_ domain.NotificationPriority,
	title, _ string,
) (*domain.Notification, error) {
	return &domain.Notification{ID: uuid.New(), UserID: userID, Type: typ, Title: title}, nil
}

type memUsers struct {
	byID map[uuid.UUID]domain.User
}

func (m *memUsers) Create(_ context.Context, u *domain.User) error {
	for _, existing := range m.byID {
		if existing.Email == u.Email {
			return repository.ErrConflict
		}
	}
	m.byID[u.ID] = *u
	return nil
}

func (m *memUsers) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	u, ok := m.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range m.byID {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memUsers) UpdateProfile(_ context.Context, id uuid.UUID, name, phone, address string) (*domain.User, error) {
	u, ok := m.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	u.Name, u.Phone, u.Address = name, phone, address
	m.byID[id] = u
	return &u, nil
}

func (m *memUsers) UpdatePassword(_ context.Context, id uuid.UUID, hash string) error {
	u, ok := m.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.PasswordHash = hash
	m.byID[id] = u
	return nil
}

// stubCatalog serves a fixed route list and counts how often it is read.
type stubCatalog struct {
	routes []domain.Route
	reads  int
}

func (s *stubCatalog) ListRoutes(_ context.Context, _ bool) ([]domain.Route, error) {
	s.reads++
	return s.routes, nil
}

func (s *stubCatalog) GetRoute(_ context.Context, id uuid.UUID) (*domain.Route, error) {
	for _, rt := range s.routes {
		if rt.ID == id {
			return &rt, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *stubCatalog) CreateRoute(context.Context, *domain.Route) error { return nil }

func (s *stubCatalog) SetRouteActive(context.Context, uuid.UUID, bool) error {
	return repository.ErrNotFound
}

func (s *stubCatalog) CreateTrip(context.Context, *domain.Trip) error { return nil }

func (s *stubCatalog) GetTrip(context.Context, uuid.UUID) (*domain.Trip, error) {
	return nil, repository.ErrNotFound
}

func (s *stubCatalog) SearchTrips(context.Context, string, string, time.Time, time.Time) ([]domain.TripListing, error) {
	return []domain.TripListing{}, nil
}

func (s *stubCatalog) ListMerchandise(context.Context, bool) ([]domain.Merchandise, error) {
	return []domain.Merchandise{}, nil
}

func (s *stubCatalog) GetMerchandise(context.Context, uuid.UUID) (*domain.Merchandise, error) {
	return nil, repository.ErrNotFound
}

func (s *stubCatalog) CreateMerchandise(context.Context, *domain.Merchandise) error { return nil }

func (s *stubCatalog) AdjustStock(context.Context, uuid.UUID, int) (*domain.Merchandise, error) {
	return nil, repository.ErrNotFound
}

type memPayments struct {
	tickets  map[uuid.UUID]domain.Ticket
	payments map[uuid.UUID]domain.Payment
}

func (m *memPayments) Create(_ context.Context, p *domain.Payment) error {
	m.payments[p.ID] = *p
	return nil
}

func (m *memPayments) Get(_ context.Context, id uuid.UUID, _ bool) (*domain.Payment, error) {
	p, ok := m.payments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (m *memPayments) CompletedForTicket(_ context.Context, ticketID uuid.UUID) (*domain.Payment, error) {
	for _, p := range m.payments {
		if p.TicketID != nil && *p.TicketID == ticketID && p.Status == domain.PaymentCompleted {
			return &p, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memPayments) SetRefund(_ context.Context, id uuid.UUID, refunded decimal.Decimal, status domain.PaymentStatus) error {
	p, ok := m.payments[id]
	if !ok {
		return repository.ErrNotFound
	}
	p.RefundedAmount, p.Status = refunded, status
	m.payments[id] = p
	return nil
}

func (m *memPayments) ListByUser(_ context.Context, userID uuid.UUID) ([]domain.Payment, error) {
	out := []domain.Payment{}
	for _, p := range m.payments {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

type ticketLookup struct{ m *memPayments }

func (t ticketLookup) Get(_ context.Context, id uuid.UUID) (*domain.Ticket, error) {
	tk, ok := t.m.tickets[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &tk, nil
}

type testEnv struct {
	router  *gin.Engine
	users   *memUsers
	catalog *stubCatalog
	pay     *memPayments
}

func newTestEnv(t *testing.T, checks ...HealthCheck) *testEnv {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	routes := []domain.Route{{
		ID:            uuid.New(),
		StartLocation: "Kuching Sentral",
		EndLocation:   "Samarahan",
		DistanceKm:    24.5,
		DurationMin:   35,
		Fare:          decimal.RequireFromString("5.05"),
		Active:        true,
	}}

	env := &testEnv{
		users:   &memUsers{byID: map[uuid.UUID]domain.User{}},
		catalog: &stubCatalog{routes: routes},
		pay: &memPayments{
			tickets:  map[uuid.UUID]domain.Ticket{},
			payments: map[uuid.UUID]domain.Payment{},
		},
	}

	limiter := redisrepo.NewSlidingWindowLimiter(rdb, "login", 3, time.Minute)

	svcs := &service.Services{
		Users:    users.New(inlineTx{}, env.users, nopNotifier{}, limiter, users.Config{BcryptCost: bcrypt.MinCost}),
		Catalog:  catalog.New(env.catalog, redisrepo.NewCache(rdb), catalog.Config{}),
		Payments: payments.New(inlineTx{}, env.pay, ticketLookup{env.pay}, nopNotifier{}),
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	idem := redisrepo.NewIdempotencyStore(rdb, time.Hour)

	env.router = NewRouter(svcs, idem, logger, checks)

	return env
}

func (e *testEnv) do(method, path, body string, headers ...string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Error
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t, func(context.Context) error { return nil })
	w := env.do(http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	down := newTestEnv(t, func(context.Context) error { return errors.New("connection refused") })
	w = down.do(http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestRegisterAndLogin(t *testing.T) {
	env := newTestEnv(t)

	body := `{"name":"Aisyah","email":"Aisyah@Example.com","password":"secret1","phone":"0123456789","address":"Jalan Padungan"}`

	w := env.do(http.MethodPost, "/api/users/register", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var u domain.User
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &u))
	assert.Equal(t, "aisyah@example.com", u.Email)
	assert.NotContains(t, w.Body.String(), "secret1")

	w = env.do(http.MethodPost, "/api/users/register", body)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, users.ErrEmailTaken.Error(), decodeError(t, w))

	w = env.do(http.MethodPost, "/api/users/register", `{"name":"","email":"x@example.com","password":"secret1"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(http.MethodPost, "/api/users/login", `{"email":"aisyah@example.com","password":"secret1"}`)
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(http.MethodGet, "/api/users/"+u.ID.String(), "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(http.MethodGet, "/api/users/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(http.MethodGet, "/api/users/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestLogin_RateLimited(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPost, "/api/users/register",
		`{"name":"Wei","email":"wei@example.com","password":"secret1","phone":"011","address":"Kuching"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	for i := 0; i < 3; i++ {
		w = env.do(http.MethodPost, "/api/users/login", `{"email":"wei@example.com","password":"wrong-pass"}`)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	}

	w = env.do(http.MethodPost, "/api/users/login", `{"email":"wei@example.com","password":"secret1"}`)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}

func TestListRoutes_ETag(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodGet, "/api/routes", "")
	require.Equal(t, http.StatusOK, w.Code)

	tag := w.Header().Get("ETag")
	require.NotEmpty(t, tag)
	assert.Equal(t, "public, max-age=60", w.Header().Get("Cache-Control"))

	var routes []domain.Route
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &routes))
	require.Len(t, routes, 1)
	assert.Equal(t, "5.05", routes[0].Fare.StringFixed(2))

	w = env.do(http.MethodGet, "/api/routes", "", "If-None-Match", tag)
	assert.Equal(t, http.StatusNotModified, w.Code)
	assert.Empty(t, w.Body.String())

	assert.Equal(t, 1, env.catalog.reads, "second read should come from the cache")
}

func TestProcessPayment_Idempotent(t *testing.T) {
	env := newTestEnv(t)

	userID := uuid.New()
	ticketID := uuid.New()
	env.pay.tickets[ticketID] = domain.Ticket{
		ID:          ticketID,
		UserID:      userID,
		Origin:      "Kuching Sentral",
		Destination: "Samarahan",
		Passengers:  2,
		Price:       decimal.RequireFromString("10.10"),
		Status:      domain.TicketBooked,
	}

	body := fmt.Sprintf(`{"user_id":%q,"ticket_id":%q,"amount":"10.10","method":"card"}`, userID, ticketID)

	first := env.do(http.MethodPost, "/api/process-payment", body, "Idempotency-Key", "pay-1")
	require.Equal(t, http.StatusCreated, first.Code, first.Body.String())
	assert.Equal(t, "pay-1", first.Header().Get("Idempotency-Key"))

	second := env.do(http.MethodPost, "/api/process-payment", body, "Idempotency-Key", "pay-1")
	require.Equal(t, http.StatusCreated, second.Code)
	assert.JSONEq(t, first.Body.String(), second.Body.String())
	assert.Len(t, env.pay.payments, 1)

	third := env.do(http.MethodPost, "/api/process-payment", body)
	assert.Equal(t, http.StatusConflict, third.Code)
	assert.Equal(t, payments.ErrAlreadyPaid.Error(), decodeError(t, third))

	wrong := fmt.Sprintf(`{"user_id":%q,"ticket_id":%q,"amount":"9.00","method":"card"}`, userID, ticketID)
	w := env.do(http.MethodPost, "/api/process-payment", wrong, "Idempotency-Key", "pay-2")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBookTicket_RejectsIncompleteBody(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPost, "/api/book-ticket", `{"origin":"Kuching Sentral","destination":"Samarahan","passengers":1}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRespondErr(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		msg    string
	}{
		{"not found", fmt.Errorf("service.orders.Get:%w", orders.ErrOrderNotFound), http.StatusNotFound, "order not found"},
		{"conflict", fmt.Errorf("service.booking.BookTicket:%w", booking.ErrNoSeats), http.StatusConflict, "not enough seats available"},
		{"wizard", fmt.Errorf("op:%w", domain.ErrWizardStep), http.StatusConflict, domain.ErrWizardStep.Error()},
		{"field", fmt.Errorf("op:%w", &domain.FieldError{Field: "passengers", Reason: "must be at least 1"}), http.StatusBadRequest, "passengers: must be at least 1"},
		{"unpaid", booking.ErrPaymentRequired, http.StatusPaymentRequired, booking.ErrPaymentRequired.Error()},
		{"unknown", errors.New("dial tcp: refused"), http.StatusInternalServerError, "internal error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			respondErr(c, tt.err)

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.msg, decodeError(t, w))
		})
	}

	t.Run("rate limited", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)

		respondErr(c, fmt.Errorf("op:%w", users.RateLimitedError{RetryAfter: 1500 * time.Millisecond}))

		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.Equal(t, "2", w.Header().Get("Retry-After"))
	})
}
