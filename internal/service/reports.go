package service

import (
	"context"
	"strings"

	"kasirbuku/backend/internal/analytics"
	"kasirbuku/backend/internal/debt"
	"kasirbuku/backend/internal/domain"
	"kasirbuku/backend/internal/store"
	"kasirbuku/backend/internal/validator"
)

// ComputeDebtors groups every open sale by client.
func (s *Service) ComputeDebtors(ctx context.Context) (domain.DebtorReport, error) {
	sales, err := s.repo.ListSales(ctx)
	if err != nil {
		return domain.DebtorReport{}, store.Wrap("list sales", err)
	}
	return debt.Aggregate(sales, s.todayString()), nil
}

func (s *Service) ComputeAnalytics(ctx context.Context, period domain.Period) (domain.Dashboard, error) {
	period = analytics.ParsePeriod(string(period))
	return s.analytics.Dashboard(ctx, period, s.today(), s.loadLedger)
}

// DateRangeReport covers sales dated from start to end, both included. An
// empty start means the first day of the current month and an empty end
// means today.
func (s *Service) DateRangeReport(ctx context.Context, start string, end string) (domain.DateRangeReport, error) {
	start = strings.TrimSpace(start)
	end = strings.TrimSpace(end)
	today := s.today()
	if start == "" {
		start = today.AddDate(0, 0, 1-today.Day()).Format(domain.DateLayout)
	}
	if end == "" {
		end = today.Format(domain.DateLayout)
	}
	if !validator.IsDate(start) || !validator.IsDate(end) {
		return domain.DateRangeReport{}, store.Validationf("start and end must be YYYY-MM-DD dates")
	}
	if start > end {
		return domain.DateRangeReport{}, store.Validationf("start %s is after end %s", start, end)
	}

	sales, err := s.repo.ListSalesByDateRange(ctx, start, end)
	if err != nil {
		return domain.DateRangeReport{}, store.Wrap("list sales by date range", err)
	}
	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return domain.DateRangeReport{}, store.Wrap("list products", err)
	}
	return analytics.RangeReport(sales, products, start, end), nil
}

func (s *Service) loadLedger(ctx context.Context) ([]domain.Sale, []domain.Product, error) {
	sales, err := s.repo.ListSales(ctx)
	if err != nil {
		return nil, nil, store.Wrap("list sales", err)
	}
	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return nil, nil, store.Wrap("list products", err)
	}
	return sales, products, nil
}
