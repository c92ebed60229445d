package store

import (
	"context"
	"fmt"
	"time"

	"github.com/marshallshelly/pebble-catalog/internal/catalog"
	"github.com/marshallshelly/pebble-catalog/pkg/builder"
	"github.com/marshallshelly/pebble-catalog/pkg/runtime"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

var orderTransitions = map[catalog.OrderStatus][]catalog.OrderStatus{
	catalog.OrderPending:    {catalog.OrderProcessing, catalog.OrderCancelled},
	catalog.OrderProcessing: {catalog.OrderShipped, catalog.OrderCancelled},
	catalog.OrderShipped:    {catalog.OrderDelivered},
}

var paymentTransitions = map[catalog.PaymentStatus][]catalog.PaymentStatus{
	catalog.PaymentPending: {catalog.PaymentPaid, catalog.PaymentFailed},
	catalog.PaymentPaid:    {catalog.PaymentFailed, catalog.PaymentRefunded},
}

// CanTransitionOrder reports whether an order may move from one status to
// another.
func CanTransitionOrder(from, to catalog.OrderStatus) bool {
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}

	return false
}

// CanTransitionPayment reports whether a payment may move from one status
// to another.
func CanTransitionPayment(from, to catalog.PaymentStatus) bool {
	for _, next := range paymentTransitions[from] {
		if next == to {
			return true
		}
	}

	return false
}

// OrderLine is one requested item. A nil UnitPrice takes the product's
// current price.
type OrderLine struct {
	ProductID int64
	Quantity  int
	UnitPrice *decimal.Decimal
}

type PlaceOrderInput struct {
	CustomerID    int64
	Lines         []OrderLine
	PaymentMethod *string
	Shipping      decimal.Decimal
	Discount      decimal.Decimal
	// OrderDate defaults to now.
	OrderDate time.Time
}

type PlacedOrder struct {
	Order catalog.Order
	Items []catalog.OrderItem
}

// LineTotal is quantity * unit price at the column scale.
func LineTotal(quantity int, unitPrice decimal.Decimal) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity))).Round(2)
}

// OrderTotal is the sum of the line totals plus shipping minus discount.
func OrderTotal(items []catalog.OrderItem, shipping, discount decimal.Decimal) decimal.Decimal {
	sum := decimal.Zero
	for _, item := range items {
		sum = sum.Add(item.TotalPrice)
	}

	return sum.Add(shipping).Sub(discount).Round(2)
}

// PlaceOrder inserts an order and its items in one transaction. Line totals
// and the order total are computed here, never taken from the caller.
func (s *Store) PlaceOrder(ctx context.Context, in PlaceOrderInput) (*PlacedOrder, error) {
	if len(in.Lines) == 0 {
		return nil, &runtime.ValidationError{Field: "lines", Message: "an order needs at least one item"}
	}

	var placed PlacedOrder
	err := s.db.InTx(ctx, func(tx *builder.DB) error {
		items := make([]catalog.OrderItem, 0, len(in.Lines))
		for i, line := range in.Lines {
			unitPrice, err := s.unitPrice(ctx, tx, line)
			if err != nil {
				return err
			}

			if line.Quantity <= 0 {
				return &runtime.ValidationError{
					Field:   "quantity",
					Message: fmt.Sprintf("line %d: must be > 0", i),
				}
			}

			items = append(items, catalog.OrderItem{
				ProductID:  line.ProductID,
				Quantity:   line.Quantity,
				UnitPrice:  unitPrice,
				TotalPrice: LineTotal(line.Quantity, unitPrice),
			})
		}

		total := OrderTotal(items, in.Shipping, in.Discount)
		if total.IsNegative() {
			return &runtime.ValidationError{
				Field:   "discount_amount",
				Message: fmt.Sprintf("discount %s exceeds the order value", in.Discount.StringFixed(2)),
			}
		}

		orderDate := in.OrderDate
		if orderDate.IsZero() {
			orderDate = s.timestamp()
		}

		order := catalog.Order{
			CustomerID:     in.CustomerID,
			OrderDate:      orderDate,
			TotalAmount:    total,
			PaymentMethod:  in.PaymentMethod,
			PaymentStatus:  catalog.PaymentPending,
			OrderStatus:    catalog.OrderPending,
			ShippingAmount: in.Shipping,
			DiscountAmount: in.Discount,
		}
		if err := catalog.Validate(order); err != nil {
			return err
		}

		orders, err := builder.Insert[catalog.Order](tx).Values(order).ExecReturning(ctx)
		if err != nil {
			return errors.Wrap(err, "insert order")
		}
		placed.Order = orders[0]

		for i := range items {
			items[i].OrderID = placed.Order.ID
			if err := catalog.Validate(items[i]); err != nil {
				return errors.Wrapf(err, "line %d", i)
			}
		}
		placed.Items, err = builder.Insert[catalog.OrderItem](tx).Values(items...).ExecReturning(ctx)

		return errors.Wrap(err, "insert order items")
	})
	if err != nil {
		return nil, err
	}

	return &placed, nil
}

// priceAtScale returns p at the column scale of two decimals. Prices that
// would lose digits are rejected rather than rounded.
func priceAtScale(p decimal.Decimal) (decimal.Decimal, error) {
	rounded := p.Round(2)
	if !rounded.Equal(p) {
		return decimal.Zero, &runtime.ValidationError{Field: "unit_price", Message: "must have at most 2 decimal places"}
	}
	return rounded, nil
}

func (s *Store) unitPrice(ctx context.Context, tx *builder.DB, line OrderLine) (decimal.Decimal, error) {
	if line.UnitPrice != nil {
		return priceAtScale(*line.UnitPrice)
	}

	product, err := builder.Select[catalog.Product](tx).
		Columns("id", "price").
		Where(builder.Eq("id", line.ProductID)).
		First(ctx)
	if errors.Is(err, runtime.ErrNotFound) {
		return decimal.Zero, &runtime.ReferentialIntegrityViolation{
			Table:      "order_items",
			Constraint: "fk_order_items_product_id",
			Detail:     fmt.Sprintf("product %d does not exist", line.ProductID),
			Err:        err,
		}
	}
	if err != nil {
		return decimal.Zero, errors.Wrapf(err, "load product %d", line.ProductID)
	}

	return product.Price, nil
}

// AdvanceOrderStatus moves an order along the order state machine.
func (s *Store) AdvanceOrderStatus(ctx context.Context, orderID int64, to catalog.OrderStatus) error {
	return s.db.InTx(ctx, func(tx *builder.DB) error {
		order, err := lockOrder(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if !CanTransitionOrder(order.OrderStatus, to) {
			return errors.Wrapf(ErrInvalidTransition, "order %d: %s -> %s", orderID, order.OrderStatus, to)
		}

		_, err = builder.Update[catalog.Order](tx).
			Set("order_status", to).
			Where(builder.Eq("id", orderID)).
			Exec(ctx)

		return errors.Wrapf(err, "update order %d", orderID)
	})
}

// SetPaymentStatus moves an order along the payment state machine.
func (s *Store) SetPaymentStatus(ctx context.Context, orderID int64, to catalog.PaymentStatus) error {
	return s.db.InTx(ctx, func(tx *builder.DB) error {
		order, err := lockOrder(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if !CanTransitionPayment(order.PaymentStatus, to) {
			return errors.Wrapf(ErrInvalidTransition, "payment of order %d: %s -> %s", orderID, order.PaymentStatus, to)
		}

		_, err = builder.Update[catalog.Order](tx).
			Set("payment_status", to).
			Where(builder.Eq("id", orderID)).
			Exec(ctx)

		return errors.Wrapf(err, "update order %d", orderID)
	})
}

func lockOrder(ctx context.Context, tx *builder.DB, orderID int64) (*catalog.Order, error) {
	order, err := builder.Select[catalog.Order](tx).
		Where(builder.Eq("id", orderID)).
		ForUpdate().
		First(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "load order %d", orderID)
	}

	return order, nil
}

// GetOrder loads an order with its items ordered by id.
func (s *Store) GetOrder(ctx context.Context, orderID int64) (*PlacedOrder, error) {
	order, err := builder.Select[catalog.Order](s.db).Where(builder.Eq("id", orderID)).First(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "get order %d", orderID)
	}

	items, err := builder.Select[catalog.OrderItem](s.db).
		Where(builder.Eq("order_id", orderID)).
		OrderByAsc("id").
		All(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "get items of order %d", orderID)
	}

	return &PlacedOrder{Order: *order, Items: items}, nil
}
