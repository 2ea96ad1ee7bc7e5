package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/solemart/solemart-api/models"
)

// InventoryService is the ledger for product stock, the only shared
// mutable resource contended across concurrent orders. Every mutation
// goes through the store's atomic conditional operations; callers never
// read-then-write quantities themselves.
type InventoryService struct{}

// ReserveItems holds stock for every active line item. A line whose
// product has been deleted is skipped: the denormalized item data still
// backs the order, but there is no stock left to hold for it.
func (InventoryService) ReserveItems(ctx context.Context, s Store, items []models.CartItem) error {
	for _, item := range items {
		if item.Status == models.ItemStatusCancelled {
			continue
		}
		if item.Quantity <= 0 {
			return fmt.Errorf("%w: item %d has non-positive quantity", ErrValidation, item.ID)
		}
		err := s.ReserveStock(ctx, item.ProductId, item.Quantity)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// ReleaseItems returns stock for every active line item in a single
// batched write, with quantities summed per distinct product.
func (InventoryService) ReleaseItems(ctx context.Context, s Store, items []models.CartItem) error {
	quantities := make(map[int]int)
	for _, item := range items {
		if item.Status == models.ItemStatusCancelled {
			continue
		}
		quantities[item.ProductId] += item.Quantity
	}
	if len(quantities) == 0 {
		return nil
	}
	return s.RestoreStock(ctx, quantities)
}

// ReleaseOne returns stock for a single cancelled line item.
func (InventoryService) ReleaseOne(ctx context.Context, s Store, productID, quantity int) error {
	return s.RestoreStock(ctx, map[int]int{productID: quantity})
}
