package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"kasirbuku/backend/internal/analytics"
	"kasirbuku/backend/internal/domain"
	"kasirbuku/backend/internal/service"
	"kasirbuku/backend/internal/store"
)

func TestSaleLifecycleKeepsStockConsistent(t *testing.T) {
	databaseURL := os.Getenv("KASIRBUKU_TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("set KASIRBUKU_TEST_DATABASE_URL to run postgres integration test")
	}

	ctx := context.Background()
	s, err := New(ctx, databaseURL)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
	})

	svc := service.New(s, analytics.NewEngine(nil, 0))
	name := fmt.Sprintf("Produk IT %d", time.Now().UnixNano())
	p, err := svc.CreateProduct(ctx, domain.ProductCreateRequest{Name: name, AcquisitionCost: 20, InitialStock: 10, SellPrice: 5})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}
	t.Cleanup(func() {
		_, _ = s.DB().ExecContext(ctx, `DELETE FROM products WHERE id = $1`, p.ID)
	})

	draft := domain.SaleDraft{Client: "IT", Date: "2026-10-16", Items: []domain.CartLine{{ProductID: p.ID, Quantity: 3}}}
	sale, err := svc.CreateSale(ctx, draft)
	if err != nil {
		t.Fatalf("create sale: %v", err)
	}

	draft.Items[0].Quantity = 5
	if _, err := svc.UpdateSale(ctx, sale.ID, draft); err != nil {
		t.Fatalf("update sale: %v", err)
	}
	got, err := s.GetProduct(ctx, p.ID)
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	if got.Stock != 5 {
		t.Fatalf("expected stock 5 after update, got %d", got.Stock)
	}

	draft.Items[0].Quantity = 11
	if _, err := svc.UpdateSale(ctx, sale.ID, draft); !errors.Is(err, store.ErrInsufficientStock) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}

	if err := svc.DeleteSale(ctx, sale.ID); err != nil {
		t.Fatalf("delete sale: %v", err)
	}
	got, _ = s.GetProduct(ctx, p.ID)
	if got.Stock != 10 {
		t.Fatalf("expected stock restored to 10, got %d", got.Stock)
	}
}
