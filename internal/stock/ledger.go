package stock

import (
	"context"
	"fmt"

	"kasirbuku/backend/internal/domain"
)

type ProductStore interface {
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
	UpdateProduct(ctx context.Context, product domain.Product) (*domain.Product, error)
}

// Ledger is the only writer of Product.Stock.
type Ledger struct {
	products ProductStore
}

func NewLedger(products ProductStore) *Ledger {
	return &Ledger{products: products}
}

// WithStore returns a ledger bound to another store, typically the view of
// an open transaction.
func (l *Ledger) WithStore(products ProductStore) *Ledger {
	return &Ledger{products: products}
}

// Adjust removes delta units from a product's stock. A negative delta puts
// units back. Stock is not bounds checked here.
func (l *Ledger) Adjust(ctx context.Context, productID int64, delta int) (*domain.Product, error) {
	product, err := l.products.GetProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("adjust stock of product %d: %w", productID, err)
	}
	product.Stock -= delta
	updated, err := l.products.UpdateProduct(ctx, *product)
	if err != nil {
		return nil, fmt.Errorf("adjust stock of product %d: %w", productID, err)
	}
	return updated, nil
}

// Apply takes every line out of stock, stopping at the first failure.
func (l *Ledger) Apply(ctx context.Context, items []domain.SaleItem) error {
	for _, item := range items {
		if _, err := l.Adjust(ctx, item.ProductID, item.Quantity); err != nil {
			return err
		}
	}
	return nil
}

// Reverse puts every line back into stock, stopping at the first failure.
func (l *Ledger) Reverse(ctx context.Context, items []domain.SaleItem) error {
	for _, item := range items {
		if _, err := l.Adjust(ctx, item.ProductID, -item.Quantity); err != nil {
			return err
		}
	}
	return nil
}
