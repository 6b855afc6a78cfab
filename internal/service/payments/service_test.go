package payments

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Josan88/Kuching-ART-Online-System-sub000/internal/domain"
	"github.com/Josan88/Kuching-ART-Online-System-sub000/internal/repository"
)

type inlineTx struct{}

func (inlineTx) RunTx(ctx context.Context, _ *pgx.TxOptions, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeStore struct {
	payments map[uuid.UUID]domain.Payment
}

func (f *fakeStore) Create(_ context.Context, p *domain.Payment) error {
	p.CreatedAt = time.Now()
	f.payments[p.ID] = *p
	return nil
}

func (f *fakeStore) Get(_ context.Context, id uuid.UUID, _ bool) (*domain.Payment, error) {
	p, ok := f.payments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (f *fakeStore) CompletedForTicket(_ context.Context, ticketID uuid.UUID) (*domain.Payment, error) {
	for _, p := range f.payments {
		if p.TicketID != nil && *p.TicketID == ticketID && p.Status == domain.PaymentCompleted {
			return &p, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeStore) SetRefund(_ context.Context, id uuid.UUID, refunded decimal.Decimal, status domain.PaymentStatus) error {
	p, ok := f.payments[id]
	if !ok {
		return repository.ErrNotFound
	}
	p.RefundedAmount = refunded
	p.Status = status
	f.payments[id] = p
	return nil
}

func (f *fakeStore) ListByUser(_ context.Context, userID uuid.UUID) ([]domain.Payment, error) {
	out := []domain.Payment{}
	for _, p := range f.payments {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

type ticketsByID map[uuid.UUID]domain.Ticket

func (t ticketsByID) Get(_ context.Context, id uuid.UUID) (*domain.Ticket, error) {
	tk, ok := t[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &tk, nil
}

type nopNotifier struct{ calls int }

func (n *nopNotifier) Notify(
	_ context.Context,
	userID uuid.UUID,
	typ domain.NotificationType,
	_ domain.NotificationPriority,
	title, _ string,
) (*domain.Notification, error) {
	n.calls++
	return &domain.Notification{ID: uuid.New(), UserID: userID, Type: typ, Title: title}, nil
}

func setup() (*Service, *fakeStore, ticketsByID, *nopNotifier, domain.Ticket) {
	user := uuid.New()
	ticket := domain.Ticket{
		ID:          uuid.New(),
		UserID:      user,
		Origin:      "Kuching Sentral",
		Destination: "Samarahan",
		Passengers:  1,
		Price:       decimal.RequireFromString("5.05"),
		Status:      domain.TicketBooked,
	}
	tickets := ticketsByID{ticket.ID: ticket}
	store := &fakeStore{payments: map[uuid.UUID]domain.Payment{}}
	notifier := &nopNotifier{}
	return New(inlineTx{}, store, tickets, notifier), store, tickets, notifier, ticket
}

func TestProcess(t *testing.T) {
	svc, store, _, notifier, ticket := setup()
	ctx := context.Background()

	p, err := svc.Process(ctx, ProcessInput{
		UserID:   ticket.UserID,
		TicketID: ticket.ID,
		Amount:   decimal.RequireFromString("5.05"),
		Method:   domain.MethodEWallet,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentCompleted, p.Status)
	assert.True(t, strings.HasPrefix(p.TransactionRef, "TXN"))
	assert.Len(t, store.payments, 1)
	assert.Equal(t, 1, notifier.calls)

	_, err = svc.Process(ctx, ProcessInput{
		UserID:   ticket.UserID,
		TicketID: ticket.ID,
		Amount:   decimal.RequireFromString("5.05"),
		Method:   domain.MethodCard,
	})
	assert.ErrorIs(t, err, ErrAlreadyPaid)

	list, err := svc.ListByUser(ctx, ticket.UserID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestProcess_Rejects(t *testing.T) {
	svc, store, tickets, _, ticket := setup()
	ctx := context.Background()

	cancelled := ticket
	cancelled.ID = uuid.New()
	cancelled.Status = domain.TicketCancelled
	tickets[cancelled.ID] = cancelled

	valid := ProcessInput{
		UserID:   ticket.UserID,
		TicketID: ticket.ID,
		Amount:   decimal.RequireFromString("5.05"),
		Method:   domain.MethodCard,
	}

	tests := []struct {
		name   string
		mutate func(in *ProcessInput)
		want   error
	}{
		{"bad method", func(in *ProcessInput) { in.Method = "cheque" }, domain.ErrValidation},
		{"zero amount", func(in *ProcessInput) { in.Amount = decimal.Zero }, domain.ErrValidation},
		{"negative amount", func(in *ProcessInput) { in.Amount = decimal.NewFromInt(-5) }, domain.ErrValidation},
		{"wrong amount", func(in *ProcessInput) { in.Amount = decimal.RequireFromString("5.00") }, ErrAmountMismatch},
		{"other user", func(in *ProcessInput) { in.UserID = uuid.New() }, ErrTicketNotFound},
		{"unknown ticket", func(in *ProcessInput) { in.TicketID = uuid.New() }, ErrTicketNotFound},
		{"cancelled ticket", func(in *ProcessInput) { in.TicketID = cancelled.ID }, ErrTicketNotBooked},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid
			tt.mutate(&in)
			_, err := svc.Process(ctx, in)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	assert.Empty(t, store.payments)
}

func TestRefund(t *testing.T) {
	svc, _, _, _, ticket := setup()
	ctx := context.Background()

	p, err := svc.Process(ctx, ProcessInput{
		UserID:   ticket.UserID,
		TicketID: ticket.ID,
		Amount:   decimal.RequireFromString("5.05"),
		Method:   domain.MethodCard,
	})
	require.NoError(t, err)

	_, err = svc.Refund(ctx, p.ID, decimal.RequireFromString("5.06"))
	assert.ErrorIs(t, err, ErrRefundExceeds)

	_, err = svc.Refund(ctx, p.ID, decimal.Zero)
	assert.ErrorIs(t, err, domain.ErrValidation)

	refunded, err := svc.Refund(ctx, p.ID, decimal.RequireFromString("2.53"))
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentRefunded, refunded.Status)
	assert.Equal(t, "2.53", refunded.RefundedAmount.StringFixed(2))

	_, err = svc.Refund(ctx, p.ID, decimal.RequireFromString("1.00"))
	assert.ErrorIs(t, err, ErrNotRefundable)

	_, err = svc.Refund(ctx, uuid.New(), decimal.NewFromInt(1))
	assert.ErrorIs(t, err, ErrPaymentNotFound)

	got, err := svc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentRefunded, got.Status)
}

func TestTransactionRef(t *testing.T) {
	id := uuid.MustParse("3f2a9c1e-0000-4000-8000-000000000000")
	ref := TransactionRef(id, time.UnixMilli(1700000000000))
	assert.Equal(t, "TXN17000000000003F2A9C1E", ref)
}
