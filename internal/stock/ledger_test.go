package stock

import (
	"context"
	"errors"
	"testing"

	"kasirbuku/backend/internal/domain"
	"kasirbuku/backend/internal/store"
	"kasirbuku/backend/internal/store/memory"
)

func TestAdjustMovesStockBothWays(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	p, _ := repo.CreateProduct(ctx, domain.Product{Name: "Teh", InitialStock: 10, Stock: 10})
	ledger := NewLedger(repo)

	updated, err := ledger.Adjust(ctx, p.ID, 3)
	if err != nil {
		t.Fatalf("adjust: %v", err)
	}
	if updated.Stock != 7 {
		t.Fatalf("expected stock 7, got %d", updated.Stock)
	}
	updated, err = ledger.Adjust(ctx, p.ID, -5)
	if err != nil {
		t.Fatalf("adjust: %v", err)
	}
	if updated.Stock != 12 {
		t.Fatalf("expected stock 12, got %d", updated.Stock)
	}
}

func TestAdjustAllowsNegativeStock(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	p, _ := repo.CreateProduct(ctx, domain.Product{Name: "Teh", Stock: 1})

	updated, err := NewLedger(repo).Adjust(ctx, p.ID, 4)
	if err != nil {
		t.Fatalf("adjust: %v", err)
	}
	if updated.Stock != -3 {
		t.Fatalf("expected stock -3, got %d", updated.Stock)
	}
}

func TestApplyStopsAtMissingProduct(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	p, _ := repo.CreateProduct(ctx, domain.Product{Name: "Teh", Stock: 10})

	err := NewLedger(repo).Apply(ctx, []domain.SaleItem{
		{ProductID: 99, Quantity: 1},
		{ProductID: p.ID, Quantity: 2},
	})
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	got, _ := repo.GetProduct(ctx, p.ID)
	if got.Stock != 10 {
		t.Fatalf("expected later lines to be skipped, stock is %d", got.Stock)
	}
}
