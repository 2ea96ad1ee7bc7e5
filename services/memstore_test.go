package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/solemart/solemart-api/models"
)

// memStore is an in-memory Store used by the service tests. Transactions
// serialize on txMu and roll back by restoring a snapshot, which gives the
// same atomicity the GORM store gets from database transactions.
type memStore struct {
	txMu sync.Mutex
	mu   sync.Mutex

	addresses map[int]models.Address
	carts     map[int]models.Cart
	items     map[int]models.CartItem
	orders    map[int]models.Order
	products  map[int]models.Product

	nextID           int
	lockedOrderReads int
}

func newMemStore() *memStore {
	return &memStore{
		addresses: make(map[int]models.Address),
		carts:     make(map[int]models.Cart),
		items:     make(map[int]models.CartItem),
		orders:    make(map[int]models.Order),
		products:  make(map[int]models.Product),
	}
}

type memSnapshot struct {
	addresses map[int]models.Address
	carts     map[int]models.Cart
	items     map[int]models.CartItem
	orders    map[int]models.Order
	products  map[int]models.Product
	nextID    int
}

func copyMap[V any](src map[int]V) map[int]V {
	dst := make(map[int]V, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func (m *memStore) snapshot() memSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return memSnapshot{
		addresses: copyMap(m.addresses),
		carts:     copyMap(m.carts),
		items:     copyMap(m.items),
		orders:    copyMap(m.orders),
		products:  copyMap(m.products),
		nextID:    m.nextID,
	}
}

func (m *memStore) restore(s memSnapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.addresses = s.addresses
	m.carts = s.carts
	m.items = s.items
	m.orders = s.orders
	m.products = s.products
	m.nextID = s.nextID
}

func (m *memStore) Transact(ctx context.Context, fn func(Store) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	snap := m.snapshot()
	if err := fn(m); err != nil {
		m.restore(snap)
		return err
	}
	return nil
}

func (m *memStore) id() int {
	m.nextID++
	return m.nextID
}

func (m *memStore) GetAddress(ctx context.Context, addressID, userID int) (*models.Address, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	address, ok := m.addresses[addressID]
	if !ok || address.UserID != userID {
		return nil, fmt.Errorf("%w: address %d", ErrNotFound, addressID)
	}
	return &address, nil
}

func (m *memStore) cartItems(cartID int) []models.CartItem {
	var items []models.CartItem
	for _, item := range m.items {
		if item.CartID == cartID {
			items = append(items, item)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items
}

func (m *memStore) GetCart(ctx context.Context, cartID int) (*models.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cart, ok := m.carts[cartID]
	if !ok {
		return nil, fmt.Errorf("%w: cart %d", ErrNotFound, cartID)
	}
	cart.Items = m.cartItems(cartID)
	return &cart, nil
}

func (m *memStore) ClaimCart(ctx context.Context, cartID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cart, ok := m.carts[cartID]
	if !ok {
		return fmt.Errorf("%w: cart %d", ErrNotFound, cartID)
	}
	if cart.Status != models.CartStatusActive {
		return fmt.Errorf("%w: cart %d is already claimed", ErrPrecondition, cartID)
	}
	cart.Status = models.CartStatusCheckedOut
	m.carts[cartID] = cart
	return nil
}

func (m *memStore) DeleteCart(ctx context.Context, cartID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.carts, cartID)
	for id, item := range m.items {
		if item.CartID == cartID {
			delete(m.items, id)
		}
	}
	return nil
}

func (m *memStore) GetCartItem(ctx context.Context, itemID int) (*models.CartItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[itemID]
	if !ok {
		return nil, fmt.Errorf("%w: cart item %d", ErrNotFound, itemID)
	}
	return &item, nil
}

func (m *memStore) SetCartItemStatus(ctx context.Context, itemID int, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[itemID]
	if !ok {
		return fmt.Errorf("%w: cart item %d", ErrNotFound, itemID)
	}
	item.Status = status
	m.items[itemID] = item
	return nil
}

func (m *memStore) CreateOrder(ctx context.Context, order *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	order.ID = uint(m.id())
	order.CreatedAt = time.Now()
	m.orders[int(order.ID)] = *order
	return nil
}

func (m *memStore) GetOrder(ctx context.Context, orderID int) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[orderID]
	if !ok {
		return nil, fmt.Errorf("%w: order %d", ErrNotFound, orderID)
	}
	return &order, nil
}

// GetOrderForUpdate behaves like GetOrder here because Transact already
// serializes whole transactions; it only records that the caller asked
// for the locking read.
func (m *memStore) GetOrderForUpdate(ctx context.Context, orderID int) (*models.Order, error) {
	m.mu.Lock()
	m.lockedOrderReads++
	m.mu.Unlock()
	return m.GetOrder(ctx, orderID)
}

func (m *memStore) GetOrderByGatewayID(ctx context.Context, gatewayOrderID string) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, order := range m.orders {
		if order.GatewayOrderID == gatewayOrderID {
			return &order, nil
		}
	}
	return nil, fmt.Errorf("%w: gateway order %s", ErrNotFound, gatewayOrderID)
}

func (m *memStore) UpdateOrder(ctx context.Context, orderID int, fields map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[orderID]
	if !ok {
		return fmt.Errorf("%w: order %d", ErrNotFound, orderID)
	}
	for key, value := range fields {
		switch key {
		case "payment_status":
			order.PaymentStatus = value.(string)
		case "payment_id":
			order.PaymentID = value.(string)
		case "paid_at":
			order.PaidAt = value.(*time.Time)
		case "gateway_order_id":
			order.GatewayOrderID = value.(string)
		case "total":
			order.Total = value.(float64)
		default:
			return fmt.Errorf("memStore: unknown order field %q", key)
		}
	}
	m.orders[orderID] = order
	return nil
}

func (m *memStore) ClaimGatewayOrderID(ctx context.Context, orderID int, previous, next string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[orderID]
	if !ok {
		return fmt.Errorf("%w: order %d", ErrNotFound, orderID)
	}
	if order.GatewayOrderID != previous {
		return fmt.Errorf("%w: gateway order id for order %d changed concurrently", ErrPrecondition, orderID)
	}
	order.GatewayOrderID = next
	m.orders[orderID] = order
	return nil
}

func (m *memStore) DeleteOrder(ctx context.Context, orderID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.orders, orderID)
	return nil
}

func (m *memStore) ListOrders(ctx context.Context, filter OrderFilter) ([]models.Order, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var all []models.Order
	for _, order := range m.orders {
		if filter.UserID != 0 && order.UserID != filter.UserID {
			continue
		}
		all = append(all, order)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })

	count := int64(len(all))
	start := (filter.Page - 1) * filter.Limit
	if start >= len(all) {
		return nil, count, nil
	}
	end := start + filter.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], count, nil
}

func (m *memStore) ReserveStock(ctx context.Context, productID, quantity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	product, ok := m.products[productID]
	if !ok {
		return fmt.Errorf("%w: product %d", ErrNotFound, productID)
	}
	if product.Quantity < quantity {
		return fmt.Errorf("%w: product %d", ErrInsufficientStock, productID)
	}
	product.Quantity -= quantity
	m.products[productID] = product
	return nil
}

func (m *memStore) RestoreStock(ctx context.Context, quantities map[int]int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for productID, quantity := range quantities {
		product, ok := m.products[productID]
		if !ok {
			continue
		}
		product.Quantity += quantity
		m.products[productID] = product
	}
	return nil
}

// Seeding helpers.

func (m *memStore) addProduct(id int, price float64, quantity int) {
	product := models.Product{Price: price, Quantity: quantity}
	product.ID = uint(id)
	m.products[id] = product
}

func (m *memStore) addAddress(id, userID int) {
	address := models.Address{UserID: userID, Address: "12 Baker Street", City: "Pune", State: "MH", ZipCode: "411001"}
	address.ID = uint(id)
	m.addresses[id] = address
}

func (m *memStore) addCart(id, userID int) {
	cart := models.Cart{UserID: userID, Status: models.CartStatusActive}
	cart.ID = uint(id)
	m.carts[id] = cart
}

func (m *memStore) addItem(id, cartID, productID, quantity int, price float64) {
	item := models.CartItem{
		CartID:       cartID,
		ProductId:    productID,
		ProductName:  fmt.Sprintf("product-%d", productID),
		ProductPrice: price,
		Quantity:     quantity,
		Status:       models.ItemStatusOrdered,
	}
	item.ID = uint(id)
	m.items[id] = item
}

func (m *memStore) productQty(id int) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.products[id].Quantity
}

func (m *memStore) orderCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.orders)
}

func (m *memStore) lockedReads() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lockedOrderReads
}

// nopNotifier silences notifications in tests.
type nopNotifier struct{}

func (nopNotifier) OrderPlaced(*OrderView, Actor) {}
func (nopNotifier) OrderCancelled(int, Actor)     {}
