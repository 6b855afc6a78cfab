package domain

import (
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TaxRate is the flat service tax applied to every order subtotal.
var TaxRate = decimal.RequireFromString("0.06")

var (
	ErrItemNotInOrder = errors.New("item not in order")
	ErrOrderNotOpen   = errors.New("order is not open")
)

// Money rounds d half away from zero to two decimal places.
func Money(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

func (it *OrderItem) Recalculate() {
	it.Subtotal = Money(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))))
}

// Recalculate refreshes every derived amount of the order. The points discount
// is capped at subtotal+tax so the total never goes negative.
func (o *Order) Recalculate() {
	subtotal := decimal.Zero
	for i := range o.Items {
		o.Items[i].Recalculate()
		subtotal = subtotal.Add(o.Items[i].Subtotal)
	}

	o.Subtotal = Money(subtotal)
	o.Tax = Money(o.Subtotal.Mul(TaxRate))

	gross := o.Subtotal.Add(o.Tax)
	if PointsValue(o.PointsRedeemed).GreaterThan(gross) {
		o.PointsRedeemed = PointsCovering(gross)
	}
	if o.PointsRedeemed < 0 {
		o.PointsRedeemed = 0
	}
	o.Discount = PointsValue(o.PointsRedeemed)

	o.Total = Money(o.Subtotal.Add(o.Tax).Sub(o.Discount))
}

// ItemCount is the number of units across all lines.
func (o *Order) ItemCount() int {
	n := 0
	for _, it := range o.Items {
		n += it.Quantity
	}
	return n
}

func (o *Order) IsOpen() bool {
	return o.Status == OrderCart
}

// AddItem merges item into an existing line for the same product, or appends a
// new line. The returned pointer refers to the line now holding the item.
func (o *Order) AddItem(item OrderItem) (*OrderItem, error) {
	if !o.IsOpen() {
		return nil, ErrOrderNotOpen
	}
	if item.Quantity < 1 {
		return nil, invalid("quantity", "must be at least 1")
	}
	if err := item.Validate(); err != nil {
		return nil, err
	}

	for i := range o.Items {
		if o.Items[i].ItemType == item.ItemType && o.Items[i].ItemID == item.ItemID {
			o.Items[i].Quantity += item.Quantity
			o.Items[i].UnitPrice = item.UnitPrice
			o.Recalculate()
			return &o.Items[i], nil
		}
	}

	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	item.OrderID = o.ID
	o.Items = append(o.Items, item)
	o.Recalculate()

	return &o.Items[len(o.Items)-1], nil
}

// UpdateQuantity sets the quantity of a line; zero removes it.
func (o *Order) UpdateQuantity(lineID uuid.UUID, quantity int) error {
	if !o.IsOpen() {
		return ErrOrderNotOpen
	}
	if quantity < 0 {
		return invalid("quantity", "must not be negative")
	}
	if quantity == 0 {
		return o.RemoveItem(lineID)
	}

	for i := range o.Items {
		if o.Items[i].ID == lineID {
			o.Items[i].Quantity = quantity
			o.Recalculate()
			return nil
		}
	}

	return ErrItemNotInOrder
}

func (o *Order) RemoveItem(lineID uuid.UUID) error {
	if !o.IsOpen() {
		return ErrOrderNotOpen
	}

	for i := range o.Items {
		if o.Items[i].ID == lineID {
			o.Items = append(o.Items[:i], o.Items[i+1:]...)
			o.Recalculate()
			return nil
		}
	}

	return ErrItemNotInOrder
}

func (o *Order) Clear() {
	o.Items = []OrderItem{}
	o.PointsRedeemed = 0
	o.Recalculate()
}

// ApplyPoints sets the number of points redeemed against this order. The
// effective number may be lower than requested when it would exceed the total.
func (o *Order) ApplyPoints(points int64) error {
	if !o.IsOpen() {
		return ErrOrderNotOpen
	}
	if points < 0 {
		return invalid("points", "must not be negative")
	}
	o.PointsRedeemed = points
	o.Recalculate()
	return nil
}

// Settle splits amount across the order's lines in proportion to their
// subtotals and returns the payments that record it. Every ticket line gets
// its own payment carrying the ticket ID; merchandise lines share one payment
// against the order. Shares are cut at cumulative cent boundaries, so they
// add up to amount exactly.
//
// When points covered the whole order each ticket still gets a zero payment
// in points, so the ticket counts as paid.
func (o *Order) Settle(amount decimal.Decimal, method PaymentMethod) []Payment {
	if amount.IsZero() {
		method = MethodPoints
	}

	var (
		out   []Payment
		cum   = decimal.Zero
		prev  = decimal.Zero
		merch = decimal.Zero
	)

	for _, it := range o.Items {
		cum = cum.Add(it.Subtotal)

		upTo := decimal.Zero
		if o.Subtotal.IsPositive() {
			upTo = Money(amount.Mul(cum).Div(o.Subtotal))
		}
		share := upTo.Sub(prev)
		prev = upTo

		if it.ItemType != ItemTicket {
			merch = merch.Add(share)
			continue
		}

		ticketID := it.ItemID
		out = append(out, o.settlement(&ticketID, share, method))
	}

	if merch.IsPositive() {
		out = append(out, o.settlement(nil, merch, method))
	}

	return out
}

func (o *Order) settlement(ticketID *uuid.UUID, amount decimal.Decimal, method PaymentMethod) Payment {
	orderID := o.ID
	p := Payment{
		ID:       uuid.New(),
		UserID:   o.UserID,
		OrderID:  &orderID,
		TicketID: ticketID,
		Amount:   amount,
		Method:   method,
		Status:   PaymentCompleted,
	}
	p.TransactionRef = "ORD" + p.ID.String()[:8] + o.ID.String()[:8]

	return p
}
