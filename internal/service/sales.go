package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"kasirbuku/backend/internal/debt"
	"kasirbuku/backend/internal/domain"
	"kasirbuku/backend/internal/store"
	"kasirbuku/backend/internal/validator"
)

// CreateSale records a new cart sale and takes its lines out of stock.
// Nothing is written unless every line validates.
func (s *Service) CreateSale(ctx context.Context, draft domain.SaleDraft) (domain.Sale, error) {
	draft, err := checkDraft(draft)
	if err != nil {
		return domain.Sale{}, err
	}

	var created *domain.Sale
	err = s.repo.WithinTx(ctx, func(tx store.Repository) error {
		sale, err := buildSale(ctx, tx, draft)
		if err != nil {
			return err
		}
		created, err = tx.CreateSale(ctx, sale)
		if err != nil {
			return store.Wrap("create sale", err)
		}
		return s.ledger.WithStore(tx).Apply(ctx, created.Items)
	})
	if err != nil {
		return domain.Sale{}, err
	}

	s.afterCommit(ctx, "sale.create", "sale", strconv.FormatInt(created.ID, 10), saleDetail(*created))
	return *created, nil
}

// UpdateSale replaces a sale. The old lines go back into stock first, the
// draft is validated against that restored stock, then the new lines are
// taken out again.
func (s *Service) UpdateSale(ctx context.Context, id int64, draft domain.SaleDraft) (domain.Sale, error) {
	draft, err := checkDraft(draft)
	if err != nil {
		return domain.Sale{}, err
	}

	var updated *domain.Sale
	err = s.repo.WithinTx(ctx, func(tx store.Repository) error {
		existing, err := tx.GetSale(ctx, id)
		if err != nil {
			return store.Wrap("load sale", err)
		}

		ledger := s.ledger.WithStore(tx)
		if err := ledger.Reverse(ctx, existing.LineItems()); err != nil {
			return err
		}

		sale, err := buildSale(ctx, tx, draft)
		if err != nil {
			return err
		}
		sale.ID = existing.ID
		updated, err = tx.UpdateSale(ctx, sale)
		if err != nil {
			return store.Wrap("update sale", err)
		}
		return ledger.Apply(ctx, updated.Items)
	})
	if err != nil {
		return domain.Sale{}, err
	}

	s.afterCommit(ctx, "sale.update", "sale", strconv.FormatInt(updated.ID, 10), saleDetail(*updated))
	return *updated, nil
}

// DeleteSale removes a sale and puts its lines back into stock.
func (s *Service) DeleteSale(ctx context.Context, id int64) error {
	var removed *domain.Sale
	err := s.repo.WithinTx(ctx, func(tx store.Repository) error {
		existing, err := tx.GetSale(ctx, id)
		if err != nil {
			return store.Wrap("load sale", err)
		}
		if err := tx.DeleteSale(ctx, id); err != nil {
			return store.Wrap("delete sale", err)
		}
		removed = existing
		return s.ledger.WithStore(tx).Reverse(ctx, existing.LineItems())
	})
	if err != nil {
		return err
	}

	s.afterCommit(ctx, "sale.delete", "sale", strconv.FormatInt(removed.ID, 10), saleDetail(*removed))
	return nil
}

func (s *Service) GetSale(ctx context.Context, id int64) (domain.Sale, error) {
	sale, err := s.repo.GetSale(ctx, id)
	if err != nil {
		return domain.Sale{}, store.Wrap("get sale", err)
	}
	return *sale, nil
}

// ListSales returns sales newest first. Query matches the client or any
// product name on the sale, ignoring case.
func (s *Service) ListSales(ctx context.Context, filter domain.SaleFilter) ([]domain.Sale, error) {
	switch filter.Status {
	case "", domain.PaymentPaid, domain.PaymentPartial, domain.PaymentUnpaid:
	default:
		return nil, store.Validationf("unknown payment status %q", filter.Status)
	}

	sales, err := s.repo.ListSales(ctx)
	if err != nil {
		return nil, store.Wrap("list sales", err)
	}

	query := strings.ToLower(strings.TrimSpace(filter.Query))
	var names map[int64]string
	if query != "" {
		products, err := s.repo.ListProducts(ctx)
		if err != nil {
			return nil, store.Wrap("list products", err)
		}
		names = make(map[int64]string, len(products))
		for _, p := range products {
			names[p.ID] = strings.ToLower(p.Name)
		}
	}

	result := make([]domain.Sale, 0, len(sales))
	for _, sale := range sales {
		if filter.Status != "" && sale.Status() != filter.Status.Normalize() {
			continue
		}
		if query != "" && !saleMatches(sale, query, names) {
			continue
		}
		result = append(result, sale)
	}
	slices.SortStableFunc(result, func(a, b domain.Sale) int {
		if a.Date != b.Date {
			return strings.Compare(b.Date, a.Date)
		}
		switch {
		case a.ID > b.ID:
			return -1
		case a.ID < b.ID:
			return 1
		}
		return 0
	})
	return result, nil
}

func (s *Service) ClientSales(ctx context.Context, client string) ([]domain.Sale, error) {
	client = strings.TrimSpace(client)
	if client == "" {
		return nil, store.Validationf("client is required")
	}
	sales, err := s.repo.ListSales(ctx)
	if err != nil {
		return nil, store.Wrap("list sales", err)
	}
	return debt.ClientHistory(sales, client), nil
}

// AddToCart merges a product into a pending cart. A product already in the
// cart grows its line instead of adding a second one. On any error the
// returned cart is the input unchanged.
func (s *Service) AddToCart(ctx context.Context, cart []domain.CartLine, productID int64, quantity int) ([]domain.CartLine, error) {
	if quantity < 1 {
		return cart, store.Validationf("quantity must be at least 1")
	}
	product, err := s.repo.GetProduct(ctx, productID)
	if errors.Is(err, store.ErrNotFound) {
		return cart, store.Validationf("product %d not found", productID)
	}
	if err != nil {
		return cart, store.Wrap("get product", err)
	}

	merged := slices.Clone(cart)
	pos := slices.IndexFunc(merged, func(line domain.CartLine) bool { return line.ProductID == productID })
	combined := quantity
	if pos >= 0 {
		combined += merged[pos].Quantity
	}
	if combined > product.Stock {
		return cart, &store.StockError{ProductID: product.ID, Name: product.Name, Requested: combined, Available: product.Stock}
	}

	if pos >= 0 {
		merged[pos].Quantity = combined
	} else {
		merged = append(merged, domain.CartLine{ProductID: productID, Quantity: quantity})
	}
	return merged, nil
}

func checkDraft(draft domain.SaleDraft) (domain.SaleDraft, error) {
	draft.Client = strings.TrimSpace(draft.Client)
	draft.DueDate = strings.TrimSpace(draft.DueDate)
	if len(draft.Items) == 0 {
		return draft, store.Validationf("cart is empty")
	}
	if err := validator.Check(draft); err != nil {
		return draft, err
	}
	return draft, nil
}

// buildSale prices a draft from the catalog as it is inside tx. Requested
// quantities are summed per product before they are compared with stock.
func buildSale(ctx context.Context, tx store.Repository, draft domain.SaleDraft) (domain.Sale, error) {
	sale := domain.Sale{
		Client:        draft.Client,
		Date:          draft.Date,
		Items:         make([]domain.SaleItem, 0, len(draft.Items)),
		PaymentStatus: draft.PaymentStatus.Normalize(),
		DueDate:       draft.DueDate,
	}

	requested := make(map[int64]int, len(draft.Items))
	for _, line := range draft.Items {
		product, err := tx.GetProduct(ctx, line.ProductID)
		if errors.Is(err, store.ErrNotFound) {
			return domain.Sale{}, store.Validationf("product %d not found", line.ProductID)
		}
		if err != nil {
			return domain.Sale{}, store.Wrap("get product", err)
		}

		requested[product.ID] += line.Quantity
		if requested[product.ID] > product.Stock {
			return domain.Sale{}, &store.StockError{
				ProductID: product.ID,
				Name:      product.Name,
				Requested: requested[product.ID],
				Available: product.Stock,
			}
		}

		item := domain.SaleItem{
			ProductID:   product.ID,
			ProductName: product.Name,
			Quantity:    line.Quantity,
			Price:       product.SellPrice,
			Cost:        product.UnitCost(),
		}
		item.Subtotal = item.Price * float64(item.Quantity)
		sale.Items = append(sale.Items, item)
		sale.Total += item.Subtotal
		sale.Profit += (item.Price - item.Cost) * float64(item.Quantity)
	}

	if sale.PaymentStatus == domain.PaymentPaid {
		sale.AmountPaid = sale.Total
	} else {
		sale.AmountPaid = draft.AmountPaid
	}
	sale.Balance = sale.Total - sale.AmountPaid
	return sale, nil
}

func saleMatches(sale domain.Sale, query string, names map[int64]string) bool {
	if strings.Contains(strings.ToLower(sale.Client), query) {
		return true
	}
	for _, item := range sale.LineItems() {
		if strings.Contains(strings.ToLower(item.ProductName), query) {
			return true
		}
		if strings.Contains(names[item.ProductID], query) {
			return true
		}
	}
	return false
}

func saleDetail(sale domain.Sale) string {
	return fmt.Sprintf("client=%s date=%s lines=%d total=%.2f status=%s", sale.Client, sale.Date, len(sale.LineItems()), sale.Total, sale.Status())
}
