package orders

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Josan88/Kuching-ART-Online-System-sub000/internal/domain"
	"github.com/Josan88/Kuching-ART-Online-System-sub000/internal/repository"
	"github.com/Josan88/Kuching-ART-Online-System-sub000/internal/service/payments"
	"github.com/Josan88/Kuching-ART-Online-System-sub000/internal/service/points"
)

type inlineTx struct{}

func (inlineTx) RunTx(ctx context.Context, _ *pgx.TxOptions, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// memStore backs every repository the orders service needs. Values are copied
// in and out so the service cannot mutate stored state without Save.
type memStore struct {
	orders   map[uuid.UUID]domain.Order
	merch    map[uuid.UUID]domain.Merchandise
	tickets  map[uuid.UUID]domain.Ticket
	payments []domain.Payment
	balances map[uuid.UUID]int64
	ledger   []domain.PointsTransaction
}

func newMemStore() *memStore {
	return &memStore{
		orders:   map[uuid.UUID]domain.Order{},
		merch:    map[uuid.UUID]domain.Merchandise{},
		tickets:  map[uuid.UUID]domain.Ticket{},
		balances: map[uuid.UUID]int64{},
	}
}

func copyOrder(o domain.Order) *domain.Order {
	o.Items = append([]domain.OrderItem{}, o.Items...)
	return &o
}

func (m *memStore) Create(_ context.Context, o *domain.Order) error {
	if o.Status == domain.OrderCart {
		for _, existing := range m.orders {
			if existing.UserID == o.UserID && existing.Status == domain.OrderCart {
				return repository.ErrConflict
			}
		}
	}
	m.orders[o.ID] = *copyOrder(*o)
	return nil
}

func (m *memStore) Get(_ context.Context, id uuid.UUID) (*domain.Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return copyOrder(o), nil
}

func (m *memStore) GetCart(_ context.Context, userID uuid.UUID) (*domain.Order, error) {
	for _, o := range m.orders {
		if o.UserID == userID && o.Status == domain.OrderCart {
			return copyOrder(o), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memStore) ListByUser(_ context.Context, userID uuid.UUID, _, _ int) ([]domain.Order, error) {
	out := []domain.Order{}
	for _, o := range m.orders {
		if o.UserID == userID && o.Status != domain.OrderCart {
			out = append(out, *copyOrder(o))
		}
	}
	return out, nil
}

func (m *memStore) Save(_ context.Context, o *domain.Order) error {
	if _, ok := m.orders[o.ID]; !ok {
		return repository.ErrNotFound
	}
	m.orders[o.ID] = *copyOrder(*o)
	return nil
}

func (m *memStore) GetMerchandise(_ context.Context, id uuid.UUID) (*domain.Merchandise, error) {
	it, ok := m.merch[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &it, nil
}

func (m *memStore) AdjustStock(_ context.Context, id uuid.UUID, delta int) (*domain.Merchandise, error) {
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

type ticketRepo struct{ m *memStore }

func (t ticketRepo) Get(_ context.Context, id uuid.UUID) (*domain.Ticket, error) {
	tk, ok := t.m.tickets[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &tk, nil
}

type paymentRepo struct{ m *memStore }

func (p paymentRepo) Create(_ context.Context, pay *domain.Payment) error {
	p.m.payments = append(p.m.payments, *pay)
	return nil
}

func (p paymentRepo) Get(_ context.Context, id uuid.UUID, _ bool) (*domain.Payment, error) {
	for _, pay := range p.m.payments {
		if pay.ID == id {
			return &pay, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (p paymentRepo) CompletedForTicket(_ context.Context, ticketID uuid.UUID) (*domain.Payment, error) {
	for _, pay := range p.m.payments {
		if pay.TicketID != nil && *pay.TicketID == ticketID && pay.Status == domain.PaymentCompleted {
			return &pay, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (p paymentRepo) SetRefund(_ context.Context, id uuid.UUID, refunded decimal.Decimal, status domain.PaymentStatus) error {
	for i := range p.m.payments {
		if p.m.payments[i].ID == id {
			p.m.payments[i].RefundedAmount = refunded
			p.m.payments[i].Status = status
			return nil
		}
	}
	return repository.ErrNotFound
}

func (p paymentRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]domain.Payment, error) {
	out := []domain.Payment{}
	for _, pay := range p.m.payments {
		if pay.UserID == userID {
			out = append(out, pay)
		}
	}
	return out, nil
}

type ledgerRepo struct{ m *memStore }

func (l ledgerRepo) LockBalance(_ context.Context, userID uuid.UUID) (int64, error) {
	b, ok := l.m.balances[userID]
	if !ok {
		return 0, repository.ErrNotFound
	}
	return b, nil
}

func (l ledgerRepo) Balance(ctx context.Context, userID uuid.UUID) (int64, error) {
	return l.LockBalance(ctx, userID)
}

func (l ledgerRepo) Append(_ context.Context, tx *domain.PointsTransaction) error {
	l.m.ledger = append(l.m.ledger, *tx)
	l.m.balances[tx.UserID] = tx.BalanceAfter
	return nil
}

func (l ledgerRepo) History(_ context.Context, _ uuid.UUID, _, _ int) ([]domain.PointsTransaction, error) {
	return l.m.ledger, nil
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

type fixture struct {
	svc   *Service
	store *memStore
	user  uuid.UUID
}

func newFixture() *fixture {
	store := newMemStore()
	user := uuid.New()
	store.balances[user] = 0

	ledger := points.New(inlineTx{}, ledgerRepo{store}, points.Config{})
	svc := New(inlineTx{}, store, store, ticketRepo{store}, paymentRepo{store}, ledger, nopNotifier{})

	return &fixture{svc: svc, store: store, user: user}
}

func (f *fixture) addMerch(name, price string, stock int) uuid.UUID {
	id := uuid.New()
	f.store.merch[id] = domain.Merchandise{
		ID:     id,
		Name:   name,
		Price:  decimal.RequireFromString(price),
		Stock:  stock,
		Active: true,
	}
	return id
}

func (f *fixture) addTicket(price string) uuid.UUID {
	id := uuid.New()
	f.store.tickets[id] = domain.Ticket{
		ID:          id,
		UserID:      f.user,
		Origin:      "Kuching Sentral",
		Destination: "Samarahan",
		Passengers:  1,
		Price:       decimal.RequireFromString(price),
		Status:      domain.TicketBooked,
	}
	return id
}

func TestGetCart_CreatesOnce(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	first, err := f.svc.GetCart(ctx, f.user)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderCart, first.Status)
	assert.Equal(t, 0, first.ItemCount())
	assert.Equal(t, "0.00", first.Total.StringFixed(2))

	second, err := f.svc.GetCart(ctx, f.user)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, f.store.orders, 1)
}

func TestCartTotalsAndCheckout(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	tumbler := f.addMerch("ART Tumbler", "25.00", 5)
	capID := f.addMerch("ART Cap", "12.00", 5)
	ticket := f.addTicket("8.00")

	_, err := f.svc.AddItem(ctx, f.user, AddItemInput{ItemType: domain.ItemMerchandise, ItemID: tumbler, Quantity: 1})
	require.NoError(t, err)
	_, err = f.svc.AddItem(ctx, f.user, AddItemInput{ItemType: domain.ItemMerchandise, ItemID: capID, Quantity: 1})
	require.NoError(t, err)
	cart, err := f.svc.AddItem(ctx, f.user, AddItemInput{ItemType: domain.ItemTicket, ItemID: ticket, Quantity: 1})
	require.NoError(t, err)

	assert.Equal(t, 3, cart.ItemCount())
	assert.Equal(t, "45.00", cart.Subtotal.StringFixed(2))
	assert.Equal(t, "2.70", cart.Tax.StringFixed(2))
	assert.Equal(t, "47.70", cart.Total.StringFixed(2))

	res, err := f.svc.Checkout(ctx, f.user, domain.MethodCard)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderPaid, res.Order.Status)
	assert.Equal(t, domain.PaymentCompleted, res.Order.PaymentStatus)
	require.Len(t, res.Payments, 2)

	ticketPay := res.Payments[0]
	require.NotNil(t, ticketPay.TicketID)
	assert.Equal(t, ticket, *ticketPay.TicketID)
	assert.Equal(t, res.Order.ID, *ticketPay.OrderID)
	assert.Equal(t, "8.48", ticketPay.Amount.StringFixed(2))

	merchPay := res.Payments[1]
	assert.Nil(t, merchPay.TicketID)
	assert.Equal(t, res.Order.ID, *merchPay.OrderID)
	assert.Equal(t, "39.22", merchPay.Amount.StringFixed(2))

	assert.True(t, ticketPay.Amount.Add(merchPay.Amount).Equal(res.Order.Total))
	assert.Len(t, f.store.payments, 2)
	assert.Equal(t, int64(47), res.PointsEarned)
	assert.Equal(t, int64(47), f.store.balances[f.user])
	assert.Equal(t, 4, f.store.merch[tumbler].Stock)
	assert.Equal(t, 4, f.store.merch[capID].Stock)

	fresh, err := f.svc.GetCart(ctx, f.user)
	require.NoError(t, err)
	assert.NotEqual(t, res.Order.ID, fresh.ID)
	assert.Equal(t, 0, fresh.ItemCount())
	assert.Equal(t, "0.00", fresh.Total.StringFixed(2))

	orders, err := f.svc.ListOrders(ctx, f.user, 10, 0)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, res.Order.ID, orders[0].ID)
}

func TestCheckout_EmptyCart(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.svc.Checkout(ctx, f.user, domain.MethodCard)
	assert.ErrorIs(t, err, ErrEmptyCart)

	_, err = f.svc.GetCart(ctx, f.user)
	require.NoError(t, err)
	_, err = f.svc.Checkout(ctx, f.user, domain.MethodCard)
	assert.ErrorIs(t, err, ErrEmptyCart)

	_, err = f.svc.Checkout(ctx, f.user, "cash")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestApplyPointsAndPayWithPoints(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.store.balances[f.user] = 5000

	item := f.addMerch("Keychain", "10.00", 10)
	_, err := f.svc.AddItem(ctx, f.user, AddItemInput{ItemType: domain.ItemMerchandise, ItemID: item, Quantity: 1})
	require.NoError(t, err)

	_, err = f.svc.ApplyPoints(ctx, f.user, 6000)
	assert.ErrorIs(t, err, ErrInsufficientPoints)

	cart, err := f.svc.ApplyPoints(ctx, f.user, 100)
	require.NoError(t, err)
	assert.Equal(t, "1.00", cart.Discount.StringFixed(2))
	assert.Equal(t, "9.60", cart.Total.StringFixed(2))

	res, err := f.svc.Checkout(ctx, f.user, domain.MethodPoints)
	require.NoError(t, err)
	assert.Equal(t, "0.00", res.Order.Total.StringFixed(2))
	assert.Equal(t, int64(1060), res.Order.PointsRedeemed)
	require.Len(t, res.Payments, 1)
	assert.Equal(t, "9.60", res.Payments[0].Amount.StringFixed(2))
	assert.Equal(t, domain.MethodPoints, res.Payments[0].Method)
	assert.Equal(t, int64(0), res.PointsEarned)
	assert.Equal(t, int64(5000-1060), f.store.balances[f.user])
}

func TestApplyPoints_CappedAtTotal(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.store.balances[f.user] = 500

	item := f.addMerch("Sticker", "1.00", 10)
	_, err := f.svc.AddItem(ctx, f.user, AddItemInput{ItemType: domain.ItemMerchandise, ItemID: item, Quantity: 1})
	require.NoError(t, err)

	cart, err := f.svc.ApplyPoints(ctx, f.user, 500)
	require.NoError(t, err)
	assert.Equal(t, int64(106), cart.PointsRedeemed)
	assert.Equal(t, "0.00", cart.Total.StringFixed(2))

	res, err := f.svc.Checkout(ctx, f.user, domain.MethodCard)
	require.NoError(t, err)
	assert.Empty(t, res.Payments)
	assert.Equal(t, int64(500-106), f.store.balances[f.user])
	assert.Empty(t, f.store.payments)
}

func TestAddItem_Rejects(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	limited := f.addMerch("Limited Pin", "15.00", 2)
	ticket := f.addTicket("5.05")

	inactive := f.addMerch("Old Mug", "9.00", 5)
	m := f.store.merch[inactive]
	m.Active = false
	f.store.merch[inactive] = m

	other := uuid.New()
	f.store.tickets[other] = domain.Ticket{ID: other, UserID: uuid.New(), Status: domain.TicketBooked, Price: decimal.NewFromInt(5)}

	cancelled := f.addTicket("5.05")
	tk := f.store.tickets[cancelled]
	tk.Status = domain.TicketCancelled
	f.store.tickets[cancelled] = tk

	_, err := f.svc.AddItem(ctx, f.user, AddItemInput{ItemType: domain.ItemMerchandise, ItemID: limited, Quantity: 2})
	require.NoError(t, err)

	tests := []struct {
		name string
		in   AddItemInput
		want error
	}{
		{"over stock", AddItemInput{domain.ItemMerchandise, limited, 1}, ErrOutOfStock},
		{"unknown merch", AddItemInput{domain.ItemMerchandise, uuid.New(), 1}, ErrItemNotFound},
		{"inactive merch", AddItemInput{domain.ItemMerchandise, inactive, 1}, ErrItemUnavailable},
		{"zero quantity", AddItemInput{domain.ItemMerchandise, limited, 0}, domain.ErrValidation},
		{"bad type", AddItemInput{"voucher", limited, 1}, domain.ErrValidation},
		{"ticket twice quantity", AddItemInput{domain.ItemTicket, ticket, 2}, domain.ErrValidation},
		{"someone else's ticket", AddItemInput{domain.ItemTicket, other, 1}, ErrItemNotFound},
		{"cancelled ticket", AddItemInput{domain.ItemTicket, cancelled, 1}, ErrItemUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.AddItem(ctx, f.user, tt.in)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err = f.svc.AddItem(ctx, f.user, AddItemInput{ItemType: domain.ItemTicket, ItemID: ticket, Quantity: 1})
	require.NoError(t, err)
	_, err = f.svc.AddItem(ctx, f.user, AddItemInput{ItemType: domain.ItemTicket, ItemID: ticket, Quantity: 1})
	assert.ErrorIs(t, err, ErrTicketInCart)
}

func TestUpdateRemoveClear(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	item := f.addMerch("ART Tumbler", "25.00", 3)
	cart, err := f.svc.AddItem(ctx, f.user, AddItemInput{ItemType: domain.ItemMerchandise, ItemID: item, Quantity: 1})
	require.NoError(t, err)
	line := cart.Items[0].ID

	cart, err = f.svc.UpdateQuantity(ctx, f.user, line, 3)
	require.NoError(t, err)
	assert.Equal(t, "75.00", cart.Subtotal.StringFixed(2))

	_, err = f.svc.UpdateQuantity(ctx, f.user, line, 4)
	assert.ErrorIs(t, err, ErrOutOfStock)

	_, err = f.svc.UpdateQuantity(ctx, f.user, uuid.New(), 1)
	assert.ErrorIs(t, err, ErrItemNotInCart)

	_, err = f.svc.UpdateQuantity(ctx, f.user, line, -1)
	assert.ErrorIs(t, err, domain.ErrValidation)

	cart, err = f.svc.UpdateQuantity(ctx, f.user, line, 0)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)

	cart, err = f.svc.AddItem(ctx, f.user, AddItemInput{ItemType: domain.ItemMerchandise, ItemID: item, Quantity: 2})
	require.NoError(t, err)

	_, err = f.svc.RemoveItem(ctx, f.user, uuid.New())
	assert.ErrorIs(t, err, ErrItemNotInCart)

	cart, err = f.svc.RemoveItem(ctx, f.user, cart.Items[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 0, cart.ItemCount())

	_, err = f.svc.AddItem(ctx, f.user, AddItemInput{ItemType: domain.ItemMerchandise, ItemID: item, Quantity: 1})
	require.NoError(t, err)
	cart, err = f.svc.Clear(ctx, f.user)
	require.NoError(t, err)
	assert.Equal(t, "0.00", cart.Total.StringFixed(2))
	assert.NotNil(t, cart.Items)
}

func TestCheckout_StockRaceRollsBackNothingPaid(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	item := f.addMerch("Limited Pin", "15.00", 2)
	_, err := f.svc.AddItem(ctx, f.user, AddItemInput{ItemType: domain.ItemMerchandise, ItemID: item, Quantity: 2})
	require.NoError(t, err)

	m := f.store.merch[item]
	m.Stock = 1
	f.store.merch[item] = m

	_, err = f.svc.Checkout(ctx, f.user, domain.MethodCard)
	assert.ErrorIs(t, err, ErrOutOfStock)
	assert.Empty(t, f.store.payments)

	cart, err := f.svc.GetCart(ctx, f.user)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderCart, cart.Status)
}

func TestGetAndCancel(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	cart, err := f.svc.GetCart(ctx, f.user)
	require.NoError(t, err)

	_, err = f.svc.Get(ctx, uuid.New(), cart.ID)
	assert.ErrorIs(t, err, ErrOrderNotFound)

	cancelled, err := f.svc.Cancel(ctx, f.user, cart.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderCancelled, cancelled.Status)

	_, err = f.svc.Cancel(ctx, f.user, cart.ID)
	assert.ErrorIs(t, err, ErrOrderNotCancellable)

	got, err := f.svc.Get(ctx, f.user, cart.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderCancelled, got.Status)
}

func TestCheckout_PaidTicketIsNotChargedAgain(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	direct := payments.New(inlineTx{}, paymentRepo{f.store}, ticketRepo{f.store}, nopNotifier{})

	ticket := f.addTicket("8.00")
	_, err := f.svc.AddItem(ctx, f.user, AddItemInput{ItemType: domain.ItemTicket, ItemID: ticket, Quantity: 1})
	require.NoError(t, err)

	res, err := f.svc.Checkout(ctx, f.user, domain.MethodCard)
	require.NoError(t, err)
	require.Len(t, res.Payments, 1)
	assert.Equal(t, "8.48", res.Payments[0].Amount.StringFixed(2))

	_, err = f.svc.AddItem(ctx, f.user, AddItemInput{ItemType: domain.ItemTicket, ItemID: ticket, Quantity: 1})
	assert.ErrorIs(t, err, ErrTicketPaid)

	_, err = direct.Process(ctx, payments.ProcessInput{
		UserID:   f.user,
		TicketID: ticket,
		Amount:   decimal.RequireFromString("8.00"),
		Method:   domain.MethodCard,
	})
	assert.ErrorIs(t, err, payments.ErrAlreadyPaid)
	assert.Len(t, f.store.payments, 1)
}

func TestCheckout_TicketPaidDirectlyMeanwhile(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	direct := payments.New(inlineTx{}, paymentRepo{f.store}, ticketRepo{f.store}, nopNotifier{})

	ticket := f.addTicket("5.05")
	_, err := f.svc.AddItem(ctx, f.user, AddItemInput{ItemType: domain.ItemTicket, ItemID: ticket, Quantity: 1})
	require.NoError(t, err)

	_, err = direct.Process(ctx, payments.ProcessInput{
		UserID:   f.user,
		TicketID: ticket,
		Amount:   decimal.RequireFromString("5.05"),
		Method:   domain.MethodEWallet,
	})
	require.NoError(t, err)

	_, err = f.svc.Checkout(ctx, f.user, domain.MethodCard)
	assert.ErrorIs(t, err, ErrTicketPaid)
	assert.Len(t, f.store.payments, 1)
}

func TestCheckout_TicketCoveredByPoints(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.store.balances[f.user] = 1000

	ticket := f.addTicket("5.05")
	_, err := f.svc.AddItem(ctx, f.user, AddItemInput{ItemType: domain.ItemTicket, ItemID: ticket, Quantity: 1})
	require.NoError(t, err)

	cart, err := f.svc.ApplyPoints(ctx, f.user, 1000)
	require.NoError(t, err)
	assert.Equal(t, "0.00", cart.Total.StringFixed(2))

	res, err := f.svc.Checkout(ctx, f.user, domain.MethodCard)
	require.NoError(t, err)
	require.Len(t, res.Payments, 1)

	p := res.Payments[0]
	require.NotNil(t, p.TicketID)
	assert.Equal(t, ticket, *p.TicketID)
	assert.True(t, p.Amount.IsZero())
	assert.Equal(t, domain.MethodPoints, p.Method)
	assert.NoError(t, p.Validate())

	_, err = f.svc.AddItem(ctx, f.user, AddItemInput{ItemType: domain.ItemTicket, ItemID: ticket, Quantity: 1})
	assert.ErrorIs(t, err, ErrTicketPaid)
}
