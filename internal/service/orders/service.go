package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/Josan88/Kuching-ART-Online-System-sub000/internal/domain"
	"github.com/Josan88/Kuching-ART-Online-System-sub000/internal/metrics"
	"github.com/Josan88/Kuching-ART-Online-System-sub000/internal/repository"
	"github.com/Josan88/Kuching-ART-Online-System-sub000/internal/service/points"
	"github.com/Josan88/Kuching-ART-Online-System-sub000/internal/uow"
)

type Repository interface {
	Create(ctx context.Context, o *domain.Order) error
	Get(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	GetCart(ctx context.Context, userID uuid.UUID) (*domain.Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.Order, error)
	Save(ctx context.Context, o *domain.Order) error
}

type Merchandise interface {
	GetMerchandise(ctx context.Context, id uuid.UUID) (*domain.Merchandise, error)
	AdjustStock(ctx context.Context, id uuid.UUID, delta int) (*domain.Merchandise, error)
}

type Tickets interface {
	Get(ctx context.Context, id uuid.UUID) (*domain.Ticket, error)
}

type Payments interface {
	Create(ctx context.Context, p *domain.Payment) error
	CompletedForTicket(ctx context.Context, ticketID uuid.UUID) (*domain.Payment, error)
}

// Points is the loyalty ledger used for discounts and rewards.
type Points interface {
	Balance(ctx context.Context, userID uuid.UUID) (int64, error)
	Redeem(ctx context.Context, userID uuid.UUID, points int64, ref string) (*domain.PointsTransaction, error)
	Earn(ctx context.Context, userID uuid.UUID, amount, rate decimal.Decimal, ref string) (*domain.PointsTransaction, error)
}

type Notifier interface {
	Notify(
		ctx context.Context,
		userID uuid.UUID,
		typ domain.NotificationType,
		priority domain.NotificationPriority,
		title, message string,
	) (*domain.Notification, error)
}

type Service struct {
	orders   Repository
	merch    Merchandise
	tickets  Tickets
	payments Payments
	points   Points
	notifier Notifier
	uow      *uow.UoW
}

func New(
	tx uow.Transactor,
	orders Repository,
	merch Merchandise,
	tickets Tickets,
	payments Payments,
	ledger Points,
	notifier Notifier,
) *Service {
	return &Service{
		orders:   orders,
		merch:    merch,
		tickets:  tickets,
		payments: payments,
		points:   ledger,
		notifier: notifier,
		uow:      uow.NewUoW(tx),
	}
}

// GetCart returns the user's open cart, creating an empty one when the user
// has none.
func (s *Service) GetCart(ctx context.Context, userID uuid.UUID) (*domain.Order, error) {
	const op = "service.orders.GetCart"

	var cart *domain.Order

	err := s.uow.Do(ctx, func(ctx context.Context, _ func(uow.AfterCommit)) error {
		var err error
		cart, err = s.openCart(ctx, userID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return cart, nil
}

type AddItemInput struct {
	ItemType domain.ItemType
	ItemID   uuid.UUID
	Quantity int
}

// AddItem puts a ticket or merchandise item in the user's cart. Name and unit
// price are taken from the catalog, not from the caller.
//
// Returns:
//   - *domain.Order: the cart after the change.
//   - error: orders.ErrItemNotFound if the item does not exist or is not the user's ticket.
//   - error: orders.ErrItemUnavailable if the item is inactive or the ticket is not booked.
//   - error: orders.ErrTicketPaid if the ticket already has a completed payment.
//   - error: orders.ErrOutOfStock if the cart would hold more than the stock.
//   - error: orders.ErrTicketInCart if the ticket was already added.
//   - error: domain.ErrValidation if the quantity or item type is invalid.
func (s *Service) AddItem(ctx context.Context, userID uuid.UUID, in AddItemInput) (*domain.Order, error) {
	const op = "service.orders.AddItem"

	if in.Quantity < 1 {
		return nil, fmt.Errorf("%s:%w", op, &domain.FieldError{Field: "quantity", Reason: "must be at least 1"})
	}

	var cart *domain.Order

	err := s.uow.Do(ctx, func(ctx context.Context, _ func(uow.AfterCommit)) error {
		var err error
		cart, err = s.openCart(ctx, userID)
		if err != nil {
			return err
		}

		item := domain.OrderItem{
			ItemType: in.ItemType,
			ItemID:   in.ItemID,
			Quantity: in.Quantity,
		}

		switch in.ItemType {
		case domain.ItemMerchandise:
			m, err := s.merchandise(ctx, in.ItemID)
			if err != nil {
				return err
			}

			if quantityInCart(cart, in.ItemType, in.ItemID)+in.Quantity > m.Stock {
				return ErrOutOfStock
			}

			item.Name = m.Name
			item.UnitPrice = m.Price

		case domain.ItemTicket:
			if in.Quantity != 1 {
				return &domain.FieldError{Field: "quantity", Reason: "a ticket is added once"}
			}

			if quantityInCart(cart, in.ItemType, in.ItemID) > 0 {
				return ErrTicketInCart
			}

			t, err := s.unpaidTicket(ctx, userID, in.ItemID)
			if err != nil {
				return err
			}

			item.Name = fmt.Sprintf("Ticket %s - %s (%d pax)", t.Origin, t.Destination, t.Passengers)
			item.UnitPrice = t.Price

		default:
			return &domain.FieldError{Field: "item_type", Reason: "must be ticket or merchandise"}
		}

		if _, err := cart.AddItem(item); err != nil {
			return err
		}

		return s.orders.Save(ctx, cart)
	})
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return cart, nil
}

// UpdateQuantity sets the quantity of a cart line; zero removes the line.
//
// Returns:
//   - error: orders.ErrItemNotInCart if the line is not in the cart.
//   - error: orders.ErrOutOfStock if the new quantity exceeds the stock.
func (s *Service) UpdateQuantity(
	ctx context.Context,
	userID, lineID uuid.UUID,
	quantity int,
) (*domain.Order, error) {
	const op = "service.orders.UpdateQuantity"

	cart, err := s.mutateCart(ctx, userID, func(ctx context.Context, cart *domain.Order) error {
		line := findLine(cart, lineID)
		if line == nil {
			return ErrItemNotInCart
		}

		if quantity > line.Quantity {
			switch line.ItemType {
			case domain.ItemTicket:
				return &domain.FieldError{Field: "quantity", Reason: "a ticket is added once"}
			case domain.ItemMerchandise:
				m, err := s.merchandise(ctx, line.ItemID)
				if err != nil {
					return err
				}

				if quantity > m.Stock {
					return ErrOutOfStock
				}
			}
		}

		return cart.UpdateQuantity(lineID, quantity)
	})
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return cart, nil
}

func (s *Service) RemoveItem(ctx context.Context, userID, lineID uuid.UUID) (*domain.Order, error) {
	const op = "service.orders.RemoveItem"

	cart, err := s.mutateCart(ctx, userID, func(_ context.Context, cart *domain.Order) error {
		return cart.RemoveItem(lineID)
	})
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return cart, nil
}

// Clear empties the cart and drops any points applied to it.
func (s *Service) Clear(ctx context.Context, userID uuid.UUID) (*domain.Order, error) {
	const op = "service.orders.Clear"

	cart, err := s.mutateCart(ctx, userID, func(_ context.Context, cart *domain.Order) error {
		cart.Clear()
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return cart, nil
}

// ApplyPoints redeems points against the cart at checkout. Fewer points than
// requested are kept when they would exceed the cart total.
//
// Returns:
//   - error: orders.ErrInsufficientPoints if the user's balance is lower than points.
func (s *Service) ApplyPoints(ctx context.Context, userID uuid.UUID, pts int64) (*domain.Order, error) {
	const op = "service.orders.ApplyPoints"

	cart, err := s.mutateCart(ctx, userID, func(ctx context.Context, cart *domain.Order) error {
		balance, err := s.points.Balance(ctx, userID)
		if err != nil {
			return err
		}

		if pts > balance {
			return ErrInsufficientPoints
		}

		return cart.ApplyPoints(pts)
	})
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return cart, nil
}

type CheckoutResult struct {
	Order *domain.Order `json:"order"`
	// Payments holds one payment per ticket line and one for the merchandise.
	Payments     []domain.Payment `json:"payments"`
	PointsEarned int64            `json:"points_earned"`
}

// Checkout pays for the user's cart. Stock is taken, applied points are
// redeemed, the payment is recorded and points are earned on the amount paid,
// all in one transaction. The next GetCart starts a new empty cart.
//
// With method points the amount due is paid entirely in points. The amount is
// split across the lines so each ticket carries a payment of its own share.
//
// Returns:
//   - *CheckoutResult: the paid order, its payments and the points earned.
//   - error: orders.ErrEmptyCart if there is nothing to pay for.
//   - error: orders.ErrOutOfStock if an item sold out meanwhile.
//   - error: orders.ErrItemUnavailable if a ticket in the cart was cancelled.
//   - error: orders.ErrTicketPaid if a ticket in the cart was paid meanwhile.
//   - error: orders.ErrInsufficientPoints if the balance does not cover the points used.
func (s *Service) Checkout(
	ctx context.Context,
	userID uuid.UUID,
	method domain.PaymentMethod,
) (*CheckoutResult, error) {
	const op = "service.orders.Checkout"

	if !method.Valid() {
		return nil, fmt.Errorf("%s:%w", op, &domain.FieldError{Field: "method", Reason: "unsupported payment method"})
	}

	var res *CheckoutResult

	err := s.uow.DoWithOpts(ctx, &pgx.TxOptions{IsoLevel: pgx.Serializable}, func(
		ctx context.Context,
		after func(uow.AfterCommit),
	) error {
		cart, err := s.orders.GetCart(ctx, userID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrEmptyCart
			}

			return err
		}

		if len(cart.Items) == 0 {
			return ErrEmptyCart
		}

		for _, it := range cart.Items {
			switch it.ItemType {
			case domain.ItemMerchandise:
				if _, err := s.merch.AdjustStock(ctx, it.ItemID, -it.Quantity); err != nil {
					switch {
					case errors.Is(err, repository.ErrOutOfStock):
						return ErrOutOfStock
					case errors.Is(err, repository.ErrNotFound):
						return ErrItemUnavailable
					default:
						return err
					}
				}
			case domain.ItemTicket:
				if _, err := s.unpaidTicket(ctx, userID, it.ItemID); err != nil {
					return err
				}
			}
		}

		cart.Recalculate()
		due := cart.Total

		if method == domain.MethodPoints && due.IsPositive() {
			cart.PointsRedeemed += due.Div(domain.PointValue).Ceil().IntPart()
			cart.Recalculate()
		}

		ref := cart.ID.String()

		if cart.PointsRedeemed > 0 {
			if _, err := s.points.Redeem(ctx, userID, cart.PointsRedeemed, ref); err != nil {
				if errors.Is(err, points.ErrInsufficientPoints) {
					return ErrInsufficientPoints
				}

				return err
			}
		}

		res = &CheckoutResult{Order: cart, Payments: []domain.Payment{}}

		for _, p := range cart.Settle(due, method) {
			if err := s.payments.Create(ctx, &p); err != nil {
				return err
			}

			res.Payments = append(res.Payments, p)
		}

		if due.IsPositive() && method != domain.MethodPoints {
			earned, err := s.points.Earn(ctx, userID, due, decimal.Zero, ref)
			if err != nil {
				return err
			}

			res.PointsEarned = earned.Points
		}

		cart.Status = domain.OrderPaid
		cart.PaymentStatus = domain.PaymentCompleted

		if err := s.orders.Save(ctx, cart); err != nil {
			return err
		}

		after(func(ctx context.Context) {
			metrics.Checkouts.WithLabelValues(string(method)).Inc()
			_, _ = s.notifier.Notify(ctx, userID, domain.NotifyPayment, domain.PriorityNormal,
				"Order paid",
				fmt.Sprintf("Order of %d item(s) paid, total RM %s. You earned %d points.",
					cart.ItemCount(), due.StringFixed(2), res.PointsEarned))
		})

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return res, nil
}

func (s *Service) Get(ctx context.Context, userID, orderID uuid.UUID) (*domain.Order, error) {
	const op = "service.orders.Get"

	o, err := s.owned(ctx, userID, orderID)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return o, nil
}

// ListOrders returns the user's placed orders, newest first. The open cart is
// not included.
func (s *Service) ListOrders(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.Order, error) {
	const op = "service.orders.ListOrders"

	limit, offset = domain.ClampPage(limit, offset)

	list, err := s.orders.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return list, nil
}

// Cancel cancels an order that has not been paid.
//
// Returns:
//   - error: orders.ErrOrderNotFound if the user has no such order.
//   - error: orders.ErrOrderNotCancellable if the order is already paid or closed.
func (s *Service) Cancel(ctx context.Context, userID, orderID uuid.UUID) (*domain.Order, error) {
	const op = "service.orders.Cancel"

	var out *domain.Order

	err := s.uow.Do(ctx, func(ctx context.Context, _ func(uow.AfterCommit)) error {
		o, err := s.owned(ctx, userID, orderID)
		if err != nil {
			return err
		}

		if o.Status != domain.OrderCart && o.Status != domain.OrderPending {
			return ErrOrderNotCancellable
		}

		o.Status = domain.OrderCancelled

		if err := s.orders.Save(ctx, o); err != nil {
			return err
		}

		out = o

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}

func (s *Service) owned(ctx context.Context, userID, orderID uuid.UUID) (*domain.Order, error) {
	o, err := s.orders.Get(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrOrderNotFound
		}

		return nil, err
	}

	if o.UserID != userID {
		return nil, ErrOrderNotFound
	}

	return o, nil
}

// openCart loads the user's cart, creating it when missing. Must run inside a
// transaction.
func (s *Service) openCart(ctx context.Context, userID uuid.UUID) (*domain.Order, error) {
	cart, err := s.orders.GetCart(ctx, userID)
	if err == nil {
		return cart, nil
	}

	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	cart = &domain.Order{
		ID:            uuid.New(),
		UserID:        userID,
		Items:         []domain.OrderItem{},
		Status:        domain.OrderCart,
		PaymentStatus: domain.PaymentUnpaid,
	}
	cart.Recalculate()

	if err := s.orders.Create(ctx, cart); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrCartBusy
		}

		return nil, err
	}

	return cart, nil
}

func (s *Service) mutateCart(
	ctx context.Context,
	userID uuid.UUID,
	fn func(ctx context.Context, cart *domain.Order) error,
) (*domain.Order, error) {
	var cart *domain.Order

	err := s.uow.Do(ctx, func(ctx context.Context, _ func(uow.AfterCommit)) error {
		var err error
		cart, err = s.openCart(ctx, userID)
		if err != nil {
			return err
		}

		if err := fn(ctx, cart); err != nil {
			if errors.Is(err, domain.ErrItemNotInOrder) {
				return ErrItemNotInCart
			}

			return err
		}

		return s.orders.Save(ctx, cart)
	})
	if err != nil {
		return nil, err
	}

	return cart, nil
}

func (s *Service) merchandise(ctx context.Context, id uuid.UUID) (*domain.Merchandise, error) {
	m, err := s.merch.GetMerchandise(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrItemNotFound
		}

		return nil, err
	}

	if !m.Active {
		return nil, ErrItemUnavailable
	}

	return m, nil
}

func (s *Service) bookedTicket(ctx context.Context, userID, ticketID uuid.UUID) (*domain.Ticket, error) {
	t, err := s.tickets.Get(ctx, ticketID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrItemNotFound
		}

		return nil, err
	}

	if t.UserID != userID {
		return nil, ErrItemNotFound
	}

	if t.Status != domain.TicketBooked {
		return nil, ErrItemUnavailable
	}

	return t, nil
}

// unpaidTicket is bookedTicket that also rejects tickets already paid, either
// directly or through an earlier order.
func (s *Service) unpaidTicket(ctx context.Context, userID, ticketID uuid.UUID) (*domain.Ticket, error) {
	t, err := s.bookedTicket(ctx, userID, ticketID)
	if err != nil {
		return nil, err
	}

	_, err = s.payments.CompletedForTicket(ctx, ticketID)
	switch {
	case err == nil:
		return nil, ErrTicketPaid
	case !errors.Is(err, repository.ErrNotFound):
		return nil, err
	}

	return t, nil
}

func quantityInCart(cart *domain.Order, typ domain.ItemType, itemID uuid.UUID) int {
	for _, it := range cart.Items {
		if it.ItemType == typ && it.ItemID == itemID {
			return it.Quantity
		}
	}
	return 0
}

func findLine(cart *domain.Order, lineID uuid.UUID) *domain.OrderItem {
	for i := range cart.Items {
		if cart.Items[i].ID == lineID {
			return &cart.Items[i]
		}
	}
	return nil
}
