package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/solemart/solemart-api/models"
	"github.com/solemart/solemart-api/services"
)

// GormStore implements services.Store on top of GORM/MySQL.
type GormStore struct {
	db *gorm.DB
}

func New(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Transact(ctx context.Context, fn func(services.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}

func (s *GormStore) GetAddress(ctx context.Context, addressID, userID int) (*models.Address, error) {
	var address models.Address
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", addressID, userID).
		First(&address).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: address %d", services.ErrNotFound, addressID)
	}
	if err != nil {
		return nil, err
	}
	return &address, nil
}

func (s *GormStore) GetCart(ctx context.Context, cartID int) (*models.Cart, error) {
	var cart models.Cart
	err := s.db.WithContext(ctx).Preload("Items").First(&cart, cartID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: cart %d", services.ErrNotFound, cartID)
	}
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

func (s *GormStore) ClaimCart(ctx context.Context, cartID int) error {
	result := s.db.WithContext(ctx).
		Model(&models.Cart{}).
		Where("id = ? AND status = ?", cartID, models.CartStatusActive).
		Update("status", models.CartStatusCheckedOut)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := s.db.WithContext(ctx).Model(&models.Cart{}).Where("id = ?", cartID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return fmt.Errorf("%w: cart %d", services.ErrNotFound, cartID)
		}
		return fmt.Errorf("%w: cart %d is already claimed", services.ErrPrecondition, cartID)
	}
	return nil
}

func (s *GormStore) DeleteCart(ctx context.Context, cartID int) error {
	if err := s.db.WithContext(ctx).Where("cart_id = ?", cartID).Delete(&models.CartItem{}).Error; err != nil {
		return err
	}
	return s.db.WithContext(ctx).Delete(&models.Cart{}, cartID).Error
}

func (s *GormStore) GetCartItem(ctx context.Context, itemID int) (*models.CartItem, error) {
	var item models.CartItem
	err := s.db.WithContext(ctx).First(&item, itemID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: cart item %d", services.ErrNotFound, itemID)
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *GormStore) SetCartItemStatus(ctx context.Context, itemID int, status string) error {
	result := s.db.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("id = ?", itemID).
		Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: cart item %d", services.ErrNotFound, itemID)
	}
	return nil
}

func (s *GormStore) CreateOrder(ctx context.Context, order *models.Order) error {
	return s.db.WithContext(ctx).Create(order).Error
}

func (s *GormStore) GetOrder(ctx context.Context, orderID int) (*models.Order, error) {
	var order models.Order
	err := s.db.WithContext(ctx).First(&order, orderID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: order %d", services.ErrNotFound, orderID)
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetOrderForUpdate takes a row lock on the order. Inside a transaction
// this serializes concurrent mutators of the same order, and because the
// locking read happens before any plain read, the REPEATABLE READ
// snapshot is established after the lock is acquired.
func (s *GormStore) GetOrderForUpdate(ctx context.Context, orderID int) (*models.Order, error) {
	var order models.Order
	err := s.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&order, orderID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: order %d", services.ErrNotFound, orderID)
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (s *GormStore) GetOrderByGatewayID(ctx context.Context, gatewayOrderID string) (*models.Order, error) {
	var order models.Order
	err := s.db.WithContext(ctx).Where("gateway_order_id = ?", gatewayOrderID).First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: gateway order %s", services.ErrNotFound, gatewayOrderID)
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (s *GormStore) UpdateOrder(ctx context.Context, orderID int, fields map[string]any) error {
	result := s.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: order %d", services.ErrNotFound, orderID)
	}
	return nil
}

func (s *GormStore) ClaimGatewayOrderID(ctx context.Context, orderID int, previous, next string) error {
	result := s.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND gateway_order_id = ?", orderID, previous).
		Update("gateway_order_id", next)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: gateway order id for order %d changed concurrently", services.ErrPrecondition, orderID)
	}
	return nil
}

func (s *GormStore) DeleteOrder(ctx context.Context, orderID int) error {
	return s.db.WithContext(ctx).Delete(&models.Order{}, orderID).Error
}

func (s *GormStore) ListOrders(ctx context.Context, filter services.OrderFilter) ([]models.Order, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Order{})
	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	var orders []models.Order
	err := query.Order("created_at desc").Limit(filter.Limit).Offset(offset).Find(&orders).Error
	if err != nil {
		return nil, 0, err
	}
	return orders, count, nil
}

func (s *GormStore) ReserveStock(ctx context.Context, productID, quantity int) error {
	result := s.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND quantity >= ?", productID, quantity).
		UpdateColumn("quantity", gorm.Expr("quantity - ?", quantity))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := s.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", productID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return fmt.Errorf("%w: product %d", services.ErrNotFound, productID)
		}
		return fmt.Errorf("%w: product %d", services.ErrInsufficientStock, productID)
	}
	return nil
}

// RestoreStock increments every product in one statement, mirroring a
// bulk write rather than a round trip per line item.
func (s *GormStore) RestoreStock(ctx context.Context, quantities map[int]int) error {
	if len(quantities) == 0 {
		return nil
	}

	var cases strings.Builder
	args := make([]any, 0, len(quantities)*3)
	ids := make([]any, 0, len(quantities))

	cases.WriteString("UPDATE products SET quantity = quantity + CASE id")
	for id, qty := range quantities {
		cases.WriteString(" WHEN ? THEN ?")
		args = append(args, id, qty)
		ids = append(ids, id)
	}
	cases.WriteString(" ELSE 0 END WHERE id IN (?")
	cases.WriteString(strings.Repeat(",?", len(ids)-1))
	cases.WriteString(") AND deleted_at IS NULL")
	args = append(args, ids...)

	return s.db.WithContext(ctx).Exec(cases.String(), args...).Error
}
