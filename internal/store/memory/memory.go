package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"kasirbuku/backend/internal/domain"
	"kasirbuku/backend/internal/store"
	"kasirbuku/backend/internal/xid"
)

type rwLocker interface {
	Lock()
	Unlock()
	RLock()
	RUnlock()
}

type nopLocker struct{}

func (nopLocker) Lock()    {}
func (nopLocker) Unlock()  {}
func (nopLocker) RLock()   {}
func (nopLocker) RUnlock() {}

type state struct {
	products      map[int64]domain.Product
	sales         map[int64]domain.Sale
	auditLogs     []domain.AuditLog
	nextProductID int64
	nextSaleID    int64
}

func newState() *state {
	return &state{
		products:      make(map[int64]domain.Product),
		sales:         make(map[int64]domain.Sale),
		auditLogs:     make([]domain.AuditLog, 0, 64),
		nextProductID: 1,
		nextSaleID:    1,
	}
}

func (st *state) clone() *state {
	dup := &state{
		products:      make(map[int64]domain.Product, len(st.products)),
		sales:         make(map[int64]domain.Sale, len(st.sales)),
		auditLogs:     slices.Clone(st.auditLogs),
		nextProductID: st.nextProductID,
		nextSaleID:    st.nextSaleID,
	}
	for id, p := range st.products {
		dup.products[id] = p
	}
	for id, sale := range st.sales {
		dup.sales[id] = sale.Clone()
	}
	return dup
}

// Store keeps everything in process memory. A transaction works on a private
// copy of the state that replaces the shared one on commit.
type Store struct {
	mu   rwLocker
	st   *state
	inTx bool
}

func New() *Store {
	return &Store{mu: &sync.RWMutex{}, st: newState()}
}

func (s *Store) WithinTx(_ context.Context, fn func(tx store.Repository) error) error {
	if s.inTx {
		return fn(s)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	working := s.st.clone()
	tx := &Store{mu: nopLocker{}, st: working, inTx: true}
	if err := fn(tx); err != nil {
		return err
	}
	s.st = working
	return nil
}

func (s *Store) ListProducts(_ context.Context) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	products := make([]domain.Product, 0, len(s.st.products))
	for _, p := range s.st.products {
		products = append(products, p)
	}
	slices.SortFunc(products, func(a, b domain.Product) int {
		if a.Name == b.Name {
			return cmpInt64(a.ID, b.ID)
		}
		return cmpString(a.Name, b.Name)
	})
	return products, nil
}

func (s *Store) GetProduct(_ context.Context, id int64) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	product, exists := s.st.products[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	return &product, nil
}

func (s *Store) CreateProduct(_ context.Context, product domain.Product) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	product.ID = s.st.nextProductID
	s.st.nextProductID++
	s.st.products[product.ID] = product
	created := product
	return &created, nil
}

func (s *Store) UpdateProduct(_ context.Context, product domain.Product) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.st.products[product.ID]; !exists {
		return nil, store.ErrNotFound
	}
	s.st.products[product.ID] = product
	updated := product
	return &updated, nil
}

func (s *Store) DeleteProduct(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.st.products[id]; !exists {
		return store.ErrNotFound
	}
	delete(s.st.products, id)
	return nil
}

func (s *Store) ListSales(_ context.Context) ([]domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sales := make([]domain.Sale, 0, len(s.st.sales))
	for _, sale := range s.st.sales {
		sales = append(sales, sale.Clone())
	}
	slices.SortFunc(sales, func(a, b domain.Sale) int {
		return cmpInt64(a.ID, b.ID)
	})
	return sales, nil
}

func (s *Store) GetSale(_ context.Context, id int64) (*domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sale, exists := s.st.sales[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	dup := sale.Clone()
	return &dup, nil
}

func (s *Store) CreateSale(_ context.Context, sale domain.Sale) (*domain.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sale.ID = s.st.nextSaleID
	s.st.nextSaleID++
	s.st.sales[sale.ID] = sale.Clone()
	created := sale.Clone()
	return &created, nil
}

func (s *Store) UpdateSale(_ context.Context, sale domain.Sale) (*domain.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.st.sales[sale.ID]; !exists {
		return nil, store.ErrNotFound
	}
	s.st.sales[sale.ID] = sale.Clone()
	updated := sale.Clone()
	return &updated, nil
}

func (s *Store) DeleteSale(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.st.sales[id]; !exists {
		return store.ErrNotFound
	}
	delete(s.st.sales, id)
	return nil
}

func (s *Store) ListSalesByDateRange(_ context.Context, start string, end string) ([]domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Sale, 0, 32)
	for _, sale := range s.st.sales {
		if sale.Date < start || sale.Date > end {
			continue
		}
		result = append(result, sale.Clone())
	}
	slices.SortFunc(result, func(a, b domain.Sale) int {
		if a.Date == b.Date {
			return cmpInt64(a.ID, b.ID)
		}
		return cmpString(a.Date, b.Date)
	})
	return result, nil
}

func (s *Store) CreateAuditLog(_ context.Context, entry domain.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.ID == "" {
		entry.ID = xid.New("audit")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	s.st.auditLogs = append(s.st.auditLogs, entry)
	return nil
}

func (s *Store) ListAuditLogs(_ context.Context, limit int) ([]domain.AuditLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := slices.Clone(s.st.auditLogs)
	slices.Reverse(result)
	slices.SortStableFunc(result, func(a, b domain.AuditLog) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func cmpString(a string, b string) int {
	if a == b {
		return 0
	}
	if a < b {
		return -1
	}
	return 1
}

func cmpInt64(a int64, b int64) int {
	if a == b {
		return 0
	}
	if a < b {
		return -1
	}
	return 1
}
