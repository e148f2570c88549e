package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"kasirbuku/backend/internal/domain"
	"kasirbuku/backend/internal/store"
	"kasirbuku/backend/internal/validator"
)

func (s *Service) ListProducts(ctx context.Context) ([]domain.ProductView, error) {
	return s.SearchProducts(ctx, "")
}

// SearchProducts matches query against product names, ignoring case.
func (s *Service) SearchProducts(ctx context.Context, query string) ([]domain.ProductView, error) {
	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return nil, store.Wrap("list products", err)
	}
	query = strings.ToLower(strings.TrimSpace(query))
	views := make([]domain.ProductView, 0, len(products))
	for _, p := range products {
		if query != "" && !strings.Contains(strings.ToLower(p.Name), query) {
			continue
		}
		views = append(views, domain.NewProductView(p))
	}
	return views, nil
}

func (s *Service) GetProduct(ctx context.Context, id int64) (domain.ProductView, error) {
	product, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		return domain.ProductView{}, store.Wrap("get product", err)
	}
	return domain.NewProductView(*product), nil
}

// CreateProduct adds a product whose stock starts at its initial stock.
func (s *Service) CreateProduct(ctx context.Context, req domain.ProductCreateRequest) (domain.ProductView, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := validator.Check(req); err != nil {
		return domain.ProductView{}, err
	}

	created, err := s.repo.CreateProduct(ctx, domain.Product{
		Name:            req.Name,
		AcquisitionCost: req.AcquisitionCost,
		InitialStock:    req.InitialStock,
		SellPrice:       req.SellPrice,
		Stock:           req.InitialStock,
	})
	if err != nil {
		return domain.ProductView{}, store.Wrap("create product", err)
	}

	s.afterCommit(ctx, "product.create", "product", strconv.FormatInt(created.ID, 10), productDetail(*created))
	return domain.NewProductView(*created), nil
}

// UpdateProduct patches catalog fields. Changing the initial stock moves the
// current stock by the same amount through the ledger, so units already sold
// stay accounted for.
func (s *Service) UpdateProduct(ctx context.Context, id int64, req domain.ProductUpdateRequest) (domain.ProductView, error) {
	if req.Name != nil {
		trimmed := strings.TrimSpace(*req.Name)
		if trimmed == "" {
			return domain.ProductView{}, store.Validationf("name must not be empty")
		}
		req.Name = &trimmed
	}
	if err := validator.Check(req); err != nil {
		return domain.ProductView{}, err
	}

	var saved *domain.Product
	err := s.repo.WithinTx(ctx, func(tx store.Repository) error {
		current, err := tx.GetProduct(ctx, id)
		if err != nil {
			return store.Wrap("get product", err)
		}

		next := *current
		if req.Name != nil {
			next.Name = *req.Name
		}
		if req.AcquisitionCost != nil {
			next.AcquisitionCost = *req.AcquisitionCost
		}
		if req.SellPrice != nil {
			next.SellPrice = *req.SellPrice
		}
		restock := 0
		if req.InitialStock != nil {
			restock = *req.InitialStock - current.InitialStock
			next.InitialStock = *req.InitialStock
		}

		saved, err = tx.UpdateProduct(ctx, next)
		if err != nil {
			return store.Wrap("update product", err)
		}
		if restock != 0 {
			saved, err = s.ledger.WithStore(tx).Adjust(ctx, id, -restock)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return domain.ProductView{}, err
	}

	s.afterCommit(ctx, "product.update", "product", strconv.FormatInt(saved.ID, 10), productDetail(*saved))
	return domain.NewProductView(*saved), nil
}

// DeleteProduct removes a product from the catalog. Past sales keep their
// snapshot lines; reports label the missing product instead.
func (s *Service) DeleteProduct(ctx context.Context, id int64) error {
	if err := s.repo.DeleteProduct(ctx, id); err != nil {
		return store.Wrap("delete product", err)
	}
	s.afterCommit(ctx, "product.delete", "product", strconv.FormatInt(id, 10), "")
	return nil
}

func productDetail(p domain.Product) string {
	return fmt.Sprintf("name=%s sell_price=%.2f initial_stock=%d stock=%d", p.Name, p.SellPrice, p.InitialStock, p.Stock)
}
