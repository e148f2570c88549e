package analytics

import (
	"context"
	"fmt"
	"log"
	"time"

	"kasirbuku/backend/internal/cache"
	"kasirbuku/backend/internal/domain"
)

// Loader reads the full sale collection and catalog for one dashboard build.
type Loader func(ctx context.Context) ([]domain.Sale, []domain.Product, error)

type Engine struct {
	cache    cache.DashboardCache
	cacheTTL time.Duration
}

func NewEngine(cacheStore cache.DashboardCache, cacheTTL time.Duration) *Engine {
	if cacheStore == nil {
		cacheStore = cache.NoopDashboardCache{}
	}
	if cacheTTL <= 0 {
		cacheTTL = 30 * time.Second
	}

	return &Engine{
		cache:    cacheStore,
		cacheTTL: cacheTTL,
	}
}

// Dashboard builds the period view for today. Only the summary honors the
// period; the series and the top products always look at every sale.
func (e *Engine) Dashboard(ctx context.Context, period domain.Period, today time.Time, load Loader) (domain.Dashboard, error) {
	todayStr := today.Format(domain.DateLayout)
	cacheKey := buildCacheKey(period, todayStr)
	if cached, ok, err := e.cache.Get(ctx, cacheKey); err == nil && ok {
		return *cached, nil
	} else if err != nil {
		log.Printf("[analytics] WARN: cache read failed: %v", err)
	}

	sales, products, err := load(ctx)
	if err != nil {
		return domain.Dashboard{}, err
	}

	dashboard := Build(sales, products, period, today)
	if err := e.cache.Set(ctx, cacheKey, &dashboard, e.cacheTTL); err != nil {
		log.Printf("[analytics] WARN: cache write failed: %v", err)
	}
	return dashboard, nil
}

// Invalidate drops cached dashboards so the next read recomputes them.
func (e *Engine) Invalidate(ctx context.Context) error {
	return e.cache.Invalidate(ctx)
}

func Build(sales []domain.Sale, products []domain.Product, period domain.Period, today time.Time) domain.Dashboard {
	return domain.Dashboard{
		Period:           period,
		Today:            today.Format(domain.DateLayout),
		Summary:          Summarize(FilterByPeriod(sales, period, today), products),
		DailySales:       DailySales(sales, today, DailySalesDays),
		TopProducts:      TopProducts(sales, products, TopProductsLimit),
		CumulativeProfit: CumulativeProfit(sales, today, CumulativeProfitDays),
	}
}

func buildCacheKey(period domain.Period, today string) string {
	return fmt.Sprintf("%s:%s", period, today)
}
