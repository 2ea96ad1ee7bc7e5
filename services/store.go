package services

import (
	"context"

	"github.com/solemart/solemart-api/models"
)

// Store is the persistence port of the engine. The production
// implementation lives in the store package on top of GORM; tests use an
// in-memory fake. Implementations must guarantee that ClaimCart,
// ReserveStock and RestoreStock are atomic and that Transact runs fn
// against a store whose writes either all commit or all roll back.
//
// Transact does not serialize transactions against each other. Under
// REPEATABLE READ, plain reads inside fn observe a snapshot taken at the
// first read, so check-then-act sequences over an order must start with
// GetOrderForUpdate: the row lock serializes mutators of the same order
// and every read after it observes the latest committed state.
type Store interface {
	Transact(ctx context.Context, fn func(Store) error) error

	// GetAddress returns the address only if it belongs to the user.
	GetAddress(ctx context.Context, addressID, userID int) (*models.Address, error)

	GetCart(ctx context.Context, cartID int) (*models.Cart, error)
	// ClaimCart flips the cart from Active to CheckedOut. It fails with
	// ErrPrecondition when the cart is already claimed, so two concurrent
	// checkouts can never consume the same cart.
	ClaimCart(ctx context.Context, cartID int) error
	DeleteCart(ctx context.Context, cartID int) error

	GetCartItem(ctx context.Context, itemID int) (*models.CartItem, error)
	SetCartItemStatus(ctx context.Context, itemID int, status string) error

	CreateOrder(ctx context.Context, order *models.Order) error
	GetOrder(ctx context.Context, orderID int) (*models.Order, error)
	// GetOrderForUpdate reads the order with a row lock. Must be the
	// first read of any transaction that mutates the order or its cart.
	GetOrderForUpdate(ctx context.Context, orderID int) (*models.Order, error)
	GetOrderByGatewayID(ctx context.Context, gatewayOrderID string) (*models.Order, error)
	UpdateOrder(ctx context.Context, orderID int, fields map[string]any) error
	// ClaimGatewayOrderID swaps the order's gateway order id from previous
	// to next only if it still holds previous, failing with ErrPrecondition
	// when a concurrent caller got there first.
	ClaimGatewayOrderID(ctx context.Context, orderID int, previous, next string) error
	DeleteOrder(ctx context.Context, orderID int) error
	ListOrders(ctx context.Context, filter OrderFilter) ([]models.Order, int64, error)

	// ReserveStock decrements product stock only if the result stays
	// non-negative, failing with ErrInsufficientStock otherwise.
	ReserveStock(ctx context.Context, productID, quantity int) error
	// RestoreStock increments stock for every product in one batched
	// write, never one statement per line item.
	RestoreStock(ctx context.Context, quantities map[int]int) error
}

// OrderFilter scopes and paginates order listings. A zero UserID means all
// users (admin listing).
type OrderFilter struct {
	UserID int
	Page   int
	Limit  int
}

// Actor is the authenticated caller, extracted from JWT claims.
type Actor struct {
	ID    int
	Email string
	Name  string
	Phone string
	Role  string
}

func (a Actor) IsAdmin() bool {
	return a.Role == "admin"
}
