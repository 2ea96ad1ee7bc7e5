package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/solemart/solemart-api/models"
)

const taxRate = 0.05

// OrderService owns the order lifecycle: checkout, cancellation, item
// level status updates with cascade, payment outcome application and the
// read side used by the order endpoints.
type OrderService struct {
	store     Store
	inventory InventoryService
	notifier  Notifier
}

func NewOrderService(store Store, notifier Notifier) *OrderService {
	return &OrderService{store: store, notifier: notifier}
}

type CreateOrderInput struct {
	CartID    int
	AddressID int
	Total     float64
}

type OrderLineItem struct {
	ItemID    int     `json:"itemId"`
	ProductID int     `json:"productId"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	Status    string  `json:"status"`
	Subtotal  float64 `json:"subtotal"`
}

type OrderView struct {
	ID            int                    `json:"_id"`
	Created       time.Time              `json:"created"`
	UserID        int                    `json:"user"`
	CartID        int                    `json:"cartId"`
	Total         float64                `json:"total"`
	TotalTax      float64                `json:"totalTax"`
	TotalWithTax  float64                `json:"totalWithTax"`
	PaymentMethod string                 `json:"paymentMethod"`
	PaymentStatus string                 `json:"paymentStatus"`
	PaymentID     string                 `json:"paymentId,omitempty"`
	PaidAt        *time.Time             `json:"paidAt,omitempty"`
	Address       models.AddressSnapshot `json:"address"`
	Products      []OrderLineItem        `json:"products"`
}

// CreateOrder turns a cart into an order: it verifies the address belongs
// to the caller, claims the cart so no concurrent checkout can consume it,
// snapshots the line items and the address, reserves stock and persists
// the order, all inside one transaction. Notifications go out afterwards
// and never fail the checkout.
func (s *OrderService) CreateOrder(ctx context.Context, actor Actor, in CreateOrderInput) (*OrderView, error) {
	if in.CartID == 0 {
		return nil, fmt.Errorf("%w: cartId is required", ErrValidation)
	}
	if in.Total <= 0 {
		return nil, fmt.Errorf("%w: total is required", ErrValidation)
	}
	if in.AddressID == 0 {
		return nil, fmt.Errorf("%w: addressId is required", ErrValidation)
	}

	var view *OrderView
	err := s.store.Transact(ctx, func(tx Store) error {
		address, err := tx.GetAddress(ctx, in.AddressID, actor.ID)
		if errors.Is(err, ErrNotFound) {
			return fmt.Errorf("%w: invalid address selected", ErrValidation)
		}
		if err != nil {
			return err
		}

		if err := tx.ClaimCart(ctx, in.CartID); err != nil {
			if errors.Is(err, ErrPrecondition) {
				return fmt.Errorf("%w: cart has already been checked out", ErrValidation)
			}
			return err
		}

		cart, err := tx.GetCart(ctx, in.CartID)
		if err != nil {
			return err
		}

		total := activeItemsTotal(cart.Items)
		if math.Abs(total-in.Total) > 0.009 {
			return fmt.Errorf("%w: total %.2f does not match cart contents", ErrValidation, in.Total)
		}

		if err := s.inventory.ReserveItems(ctx, tx, cart.Items); err != nil {
			return err
		}

		snapshot := address.Snapshot()
		raw, err := json.Marshal(snapshot)
		if err != nil {
			return err
		}

		order := &models.Order{
			UserID:          actor.ID,
			CartID:          int(cart.ID),
			AddressSnapshot: raw,
			Total:           total,
			PaymentMethod:   models.PaymentMethodCreditCard,
			PaymentStatus:   models.PaymentStatusPending,
		}
		if err := tx.CreateOrder(ctx, order); err != nil {
			return err
		}

		view = buildOrderView(order, cart.Items, snapshot)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.OrderPlaced(view, actor)
	return view, nil
}

// CancelOrder cancels a whole order, restores stock for every active line
// item in one batched write and deletes the order and its cart. An absent
// order is a no-op success so that retries stay safe. An order with a
// delivered item cannot be cancelled and is left untouched.
func (s *OrderService) CancelOrder(ctx context.Context, actor Actor, orderID int) error {
	var cancelled *models.Order
	err := s.store.Transact(ctx, func(tx Store) error {
		// The row lock serializes this against concurrent item-level
		// cancellations, so the delivered check and the stock release
		// both see the latest item states.
		order, err := tx.GetOrderForUpdate(ctx, orderID)
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if !actor.IsAdmin() && order.UserID != actor.ID {
			return fmt.Errorf("%w: order %d", ErrNotFound, orderID)
		}

		cart, err := tx.GetCart(ctx, order.CartID)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}

		if cart != nil {
			for _, item := range cart.Items {
				if item.Status == models.ItemStatusDelivered {
					return fmt.Errorf("%w: cannot cancel a partially delivered order", ErrPrecondition)
				}
			}
			if err := s.inventory.ReleaseItems(ctx, tx, cart.Items); err != nil {
				return err
			}
		}

		if err := tx.DeleteOrder(ctx, int(order.ID)); err != nil {
			return err
		}
		if cart != nil {
			if err := tx.DeleteCart(ctx, int(cart.ID)); err != nil {
				return err
			}
		}
		cancelled = order
		return nil
	})
	if err != nil {
		return err
	}

	if cancelled != nil {
		s.notifier.OrderCancelled(int(cancelled.ID), actor)
	}
	return nil
}

// UpdateItemStatus sets a single line item's status. Cancelling an item
// restores its stock, and when the last active item of a cart is
// cancelled the whole order cascades to cancellation. The item, cart and
// order ids are cross-checked inside the transaction so a caller cannot
// mutate another order's items.
func (s *OrderService) UpdateItemStatus(ctx context.Context, actor Actor, itemID, orderID, cartID int, status string) (bool, error) {
	switch status {
	case models.ItemStatusOrdered, models.ItemStatusProcessing, models.ItemStatusShipped,
		models.ItemStatusDelivered, models.ItemStatusCancelled:
	default:
		return false, fmt.Errorf("%w: unknown item status %q", ErrValidation, status)
	}

	orderCancelled := false
	err := s.store.Transact(ctx, func(tx Store) error {
		// Lock the order row before anything else: two concurrent
		// cancellations of the same order serialize here, so the cascade
		// check below always sees the other one's finished writes.
		order, err := tx.GetOrderForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if order.CartID != cartID {
			return fmt.Errorf("%w: cart does not belong to the given order", ErrValidation)
		}
		if !actor.IsAdmin() && order.UserID != actor.ID {
			return fmt.Errorf("%w: order %d", ErrNotFound, orderID)
		}

		item, err := tx.GetCartItem(ctx, itemID)
		if err != nil {
			return err
		}
		if item.CartID != cartID {
			return fmt.Errorf("%w: item does not belong to the given cart", ErrValidation)
		}

		if status != models.ItemStatusCancelled {
			return tx.SetCartItemStatus(ctx, itemID, status)
		}

		// Already cancelled: nothing to restock, nothing to cascade.
		if item.Status == models.ItemStatusCancelled {
			return nil
		}

		if err := tx.SetCartItemStatus(ctx, itemID, models.ItemStatusCancelled); err != nil {
			return err
		}
		if err := s.inventory.ReleaseOne(ctx, tx, item.ProductId, item.Quantity); err != nil {
			return err
		}

		cart, err := tx.GetCart(ctx, cartID)
		if err != nil {
			return err
		}
		allCancelled := true
		for _, it := range cart.Items {
			if it.Status != models.ItemStatusCancelled {
				allCancelled = false
				break
			}
		}
		if !allCancelled {
			// Keep the order total in line with the remaining active items.
			return tx.UpdateOrder(ctx, orderID, map[string]any{"total": activeItemsTotal(cart.Items)})
		}

		// All items are cancelled, cancel the order itself.
		if err := tx.DeleteOrder(ctx, orderID); err != nil {
			return err
		}
		if err := tx.DeleteCart(ctx, cartID); err != nil {
			return err
		}
		orderCancelled = true
		return nil
	})
	if err != nil {
		return false, err
	}

	if orderCancelled {
		s.notifier.OrderCancelled(orderID, actor)
	}
	return orderCancelled, nil
}

// canTransitionPayment encodes the payment state machine. A retry after a
// failed payment creates a new session rather than transitioning, so the
// order stays Failed until the retried payment's webhook completes or
// cancels it.
func canTransitionPayment(from, to string) bool {
	switch from {
	case models.PaymentStatusPending:
		return to == models.PaymentStatusProcessing || to == models.PaymentStatusCancelled
	case models.PaymentStatusProcessing:
		return to == models.PaymentStatusCompleted || to == models.PaymentStatusFailed ||
			to == models.PaymentStatusCancelled
	case models.PaymentStatusFailed:
		return to == models.PaymentStatusCompleted || to == models.PaymentStatusCancelled
	}
	return false
}

// ApplyPaymentOutcome reconciles a gateway notification with local order
// state. Duplicate deliveries (same payment id, same status) are no-ops
// and anything arriving after a terminal state is rejected by the
// transition table, which makes the webhook handler safe to invoke any
// number of times in any order.
func (s *OrderService) ApplyPaymentOutcome(ctx context.Context, gatewayOrderID, status, paymentID string, paidAt *time.Time) error {
	return s.store.Transact(ctx, func(tx Store) error {
		order, err := tx.GetOrderByGatewayID(ctx, gatewayOrderID)
		if err != nil {
			return err
		}

		if order.PaymentStatus == status && order.PaymentID == paymentID {
			return nil
		}
		if !canTransitionPayment(order.PaymentStatus, status) {
			log.Printf("ignoring payment outcome %s for order %d in state %s", status, order.ID, order.PaymentStatus)
			return nil
		}

		fields := map[string]any{"payment_status": status}
		if paymentID != "" {
			fields["payment_id"] = paymentID
		}
		if paidAt != nil {
			fields["paid_at"] = paidAt
		}
		return tx.UpdateOrder(ctx, int(order.ID), fields)
	})
}

type OrderPage struct {
	Orders      []*OrderView `json:"orders"`
	TotalPages  int          `json:"totalPages"`
	CurrentPage int          `json:"currentPage"`
	Count       int64        `json:"count"`
}

// ListOrders returns a page of orders, newest first. Admins see every
// order, everyone else only their own.
func (s *OrderService) ListOrders(ctx context.Context, actor Actor, page, limit int, mineOnly bool) (*OrderPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	filter := OrderFilter{Page: page, Limit: limit}
	if mineOnly || !actor.IsAdmin() {
		filter.UserID = actor.ID
	}

	orders, count, err := s.store.ListOrders(ctx, filter)
	if err != nil {
		return nil, err
	}

	views := make([]*OrderView, 0, len(orders))
	for i := range orders {
		view, err := s.viewOf(ctx, &orders[i])
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}

	return &OrderPage{
		Orders:      views,
		TotalPages:  int(math.Ceil(float64(count) / float64(limit))),
		CurrentPage: page,
		Count:       count,
	}, nil
}

// SearchOrders looks up a single order by exact id. A caller who is not
// an admin only ever sees their own orders; anything else comes back as
// an empty result rather than an error, matching the list semantics.
func (s *OrderService) SearchOrders(ctx context.Context, actor Actor, orderID int) ([]*OrderView, error) {
	if orderID <= 0 {
		return []*OrderView{}, nil
	}

	order, err := s.store.GetOrder(ctx, orderID)
	if errors.Is(err, ErrNotFound) {
		return []*OrderView{}, nil
	}
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && order.UserID != actor.ID {
		return []*OrderView{}, nil
	}

	view, err := s.viewOf(ctx, order)
	if err != nil {
		return nil, err
	}
	return []*OrderView{view}, nil
}

// GetOrder returns one order with its line items, address snapshot and
// computed tax, scoped to the caller unless they are an admin.
func (s *OrderService) GetOrder(ctx context.Context, actor Actor, orderID int) (*OrderView, error) {
	order, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && order.UserID != actor.ID {
		return nil, fmt.Errorf("%w: order %d", ErrNotFound, orderID)
	}
	return s.viewOf(ctx, order)
}

func (s *OrderService) viewOf(ctx context.Context, order *models.Order) (*OrderView, error) {
	var items []models.CartItem
	cart, err := s.store.GetCart(ctx, order.CartID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	if cart != nil {
		items = cart.Items
	}

	var snapshot models.AddressSnapshot
	if len(order.AddressSnapshot) > 0 {
		if err := json.Unmarshal(order.AddressSnapshot, &snapshot); err != nil {
			return nil, err
		}
	}
	return buildOrderView(order, items, snapshot), nil
}

func buildOrderView(order *models.Order, items []models.CartItem, address models.AddressSnapshot) *OrderView {
	view := &OrderView{
		ID:            int(order.ID),
		Created:       order.CreatedAt,
		UserID:        order.UserID,
		CartID:        order.CartID,
		Total:         round2(order.Total),
		PaymentMethod: order.PaymentMethod,
		PaymentStatus: order.PaymentStatus,
		PaymentID:     order.PaymentID,
		PaidAt:        order.PaidAt,
		Address:       address,
		Products:      make([]OrderLineItem, 0, len(items)),
	}

	for _, item := range items {
		view.Products = append(view.Products, OrderLineItem{
			ItemID:    int(item.ID),
			ProductID: item.ProductId,
			Name:      item.ProductName,
			Price:     item.ProductPrice,
			Quantity:  item.Quantity,
			Status:    item.Status,
			Subtotal:  round2(item.ProductPrice * float64(item.Quantity)),
		})
		if item.Status != models.ItemStatusCancelled {
			view.TotalTax += item.ProductPrice * float64(item.Quantity) * taxRate
		}
	}
	view.TotalTax = round2(view.TotalTax)
	view.TotalWithTax = round2(view.Total + view.TotalTax)
	return view
}

func activeItemsTotal(items []models.CartItem) float64 {
	var total float64
	for _, item := range items {
		if item.Status == models.ItemStatusCancelled {
			continue
		}
		total += item.ProductPrice * float64(item.Quantity)
	}
	return round2(total)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
