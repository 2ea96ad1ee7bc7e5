package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/solemart/solemart-api/models"
)

func TestReserveItemsInsufficientStock(t *testing.T) {
	ms := newMemStore()
	ms.addProduct(1, 100, 1)

	var inv InventoryService
	err := inv.ReserveItems(context.Background(), ms, []models.CartItem{
		{ProductId: 1, Quantity: 2, Status: models.ItemStatusOrdered},
	})
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}
	if got := ms.productQty(1); got != 1 {
		t.Errorf("expected stock to stay at 1, got %d", got)
	}
}

func TestReserveReleaseRoundTrip(t *testing.T) {
	ms := newMemStore()
	ms.addProduct(1, 100, 10)
	ms.addProduct(2, 50, 4)

	items := []models.CartItem{
		{ProductId: 1, Quantity: 3, Status: models.ItemStatusOrdered},
		{ProductId: 2, Quantity: 4, Status: models.ItemStatusOrdered},
	}

	var inv InventoryService
	ctx := context.Background()
	if err := inv.ReserveItems(ctx, ms, items); err != nil {
		t.Fatalf("reserve failed: %v", err)
	}
	if got := ms.productQty(1); got != 7 {
		t.Errorf("product 1: expected 7 after reserve, got %d", got)
	}
	if got := ms.productQty(2); got != 0 {
		t.Errorf("product 2: expected 0 after reserve, got %d", got)
	}

	if err := inv.ReleaseItems(ctx, ms, items); err != nil {
		t.Fatalf("release failed: %v", err)
	}
	if got := ms.productQty(1); got != 10 {
		t.Errorf("product 1: expected original 10 after release, got %d", got)
	}
	if got := ms.productQty(2); got != 4 {
		t.Errorf("product 2: expected original 4 after release, got %d", got)
	}
}

func TestReserveItemsSkipsCancelledAndDeleted(t *testing.T) {
	ms := newMemStore()
	ms.addProduct(1, 100, 5)

	var inv InventoryService
	err := inv.ReserveItems(context.Background(), ms, []models.CartItem{
		{ProductId: 1, Quantity: 2, Status: models.ItemStatusCancelled},
		// Product 99 was deleted after the item entered the cart.
		{ProductId: 99, Quantity: 1, Status: models.ItemStatusOrdered},
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got := ms.productQty(1); got != 5 {
		t.Errorf("cancelled item must not reserve stock, got %d", got)
	}
}

func TestReleaseItemsBatchesPerProduct(t *testing.T) {
	ms := newMemStore()
	ms.addProduct(1, 100, 0)

	var inv InventoryService
	err := inv.ReleaseItems(context.Background(), ms, []models.CartItem{
		{ProductId: 1, Quantity: 2, Status: models.ItemStatusOrdered},
		{ProductId: 1, Quantity: 3, Status: models.ItemStatusOrdered},
		{ProductId: 1, Quantity: 4, Status: models.ItemStatusCancelled},
	})
	if err != nil {
		t.Fatalf("release failed: %v", err)
	}
	if got := ms.productQty(1); got != 5 {
		t.Errorf("expected summed restore of 5, got %d", got)
	}
}

func TestConcurrentReservesNeverOversell(t *testing.T) {
	ms := newMemStore()
	ms.addProduct(1, 100, 5)

	var inv InventoryService
	ctx := context.Background()

	var wg sync.WaitGroup
	results := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- inv.ReserveItems(ctx, ms, []models.CartItem{
				{ProductId: 1, Quantity: 1, Status: models.ItemStatusOrdered},
			})
		}()
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for err := range results {
		if err == nil {
			succeeded++
		} else if !errors.Is(err, ErrInsufficientStock) {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if succeeded != 5 {
		t.Errorf("expected exactly 5 successful reservations, got %d", succeeded)
	}
	if got := ms.productQty(1); got != 0 {
		t.Errorf("expected stock 0, got %d", got)
	}
}
