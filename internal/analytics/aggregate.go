package analytics

import (
	"sort"
	"strings"
	"time"

	"kasirbuku/backend/internal/domain"
)

const (
	DailySalesDays       = 7
	CumulativeProfitDays = 30
	TopProductsLimit     = 5
	UnknownProductLabel  = "Unknown product"
)

// Today truncates now to local midnight in loc.
func Today(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	local := now.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

func ParsePeriod(raw string) domain.Period {
	switch domain.Period(strings.ToLower(strings.TrimSpace(raw))) {
	case domain.PeriodDay:
		return domain.PeriodDay
	case domain.PeriodWeek:
		return domain.PeriodWeek
	case domain.PeriodMonth:
		return domain.PeriodMonth
	default:
		return domain.PeriodAll
	}
}

// PeriodStart returns the first date included in period, or "" when the
// period has no lower bound. Month uses calendar subtraction, so the bound
// follows time.AddDate normalization for short months.
func PeriodStart(period domain.Period, today time.Time) string {
	switch period {
	case domain.PeriodDay:
		return today.Format(domain.DateLayout)
	case domain.PeriodWeek:
		return today.AddDate(0, 0, -7).Format(domain.DateLayout)
	case domain.PeriodMonth:
		return today.AddDate(0, -1, 0).Format(domain.DateLayout)
	default:
		return ""
	}
}

func FilterByPeriod(sales []domain.Sale, period domain.Period, today time.Time) []domain.Sale {
	start := PeriodStart(period, today)
	if start == "" {
		return sales
	}
	filtered := make([]domain.Sale, 0, len(sales))
	for _, sale := range sales {
		if sale.Date >= start {
			filtered = append(filtered, sale)
		}
	}
	return filtered
}

// Summarize totals the given sales. The in-stock count looks at the catalog
// only and does not depend on the sales passed in.
func Summarize(sales []domain.Sale, products []domain.Product) domain.SummaryStats {
	stats := domain.SummaryStats{SalesCount: len(sales)}
	for _, sale := range sales {
		stats.TotalSales += sale.Total
		stats.TotalProfit += sale.Profit
	}
	for _, p := range products {
		if p.Stock > 0 {
			stats.ProductsInStock++
		}
	}
	return stats
}

// DailySales returns one point per day for the last days days, today last.
func DailySales(sales []domain.Sale, today time.Time, days int) []domain.SeriesPoint {
	byDate := make(map[string]float64)
	for _, sale := range sales {
		byDate[sale.Date] += sale.Total
	}
	points := make([]domain.SeriesPoint, 0, days)
	for _, date := range window(today, days) {
		points = append(points, domain.SeriesPoint{Date: date, Value: byDate[date]})
	}
	return points
}

// CumulativeProfit is a running total of daily profit over the last days
// days, so the final point is the profit of the whole window.
func CumulativeProfit(sales []domain.Sale, today time.Time, days int) []domain.SeriesPoint {
	byDate := make(map[string]float64)
	for _, sale := range sales {
		byDate[sale.Date] += sale.Profit
	}
	points := make([]domain.SeriesPoint, 0, days)
	accumulated := 0.0
	for _, date := range window(today, days) {
		accumulated += byDate[date]
		points = append(points, domain.SeriesPoint{Date: date, Value: accumulated})
	}
	return points
}

// TopProducts ranks products by units sold across every sale given. Ties keep
// ascending product id order.
func TopProducts(sales []domain.Sale, products []domain.Product, limit int) []domain.TopProduct {
	quantities := make(map[int64]int)
	snapshotNames := make(map[int64]string)
	for _, sale := range sales {
		for _, item := range sale.LineItems() {
			quantities[item.ProductID] += item.Quantity
			if item.ProductName != "" {
				snapshotNames[item.ProductID] = item.ProductName
			}
		}
	}

	names := productNames(products)
	ranked := make([]domain.TopProduct, 0, len(quantities))
	for id, qty := range quantities {
		ranked = append(ranked, domain.TopProduct{
			ProductID: id,
			Name:      resolveName(id, names, snapshotNames[id]),
			Quantity:  qty,
		})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Quantity == ranked[j].Quantity {
			return ranked[i].ProductID < ranked[j].ProductID
		}
		return ranked[i].Quantity > ranked[j].Quantity
	})
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// RangeReport totals sales already restricted to [start, end] and renders one
// row per sale. Multi-line sales list their product names joined by ", ".
func RangeReport(sales []domain.Sale, products []domain.Product, start string, end string) domain.DateRangeReport {
	report := domain.DateRangeReport{
		Start: start,
		End:   end,
		Rows:  make([]domain.ReportRow, 0, len(sales)),
	}
	names := productNames(products)
	for _, sale := range sales {
		if sale.Date < start || sale.Date > end {
			continue
		}
		report.TotalSales += sale.Total
		report.TotalProfit += sale.Profit
		report.SalesCount++

		items := sale.LineItems()
		labels := make([]string, 0, len(items))
		for _, item := range items {
			labels = append(labels, resolveName(item.ProductID, names, item.ProductName))
		}
		report.Rows = append(report.Rows, domain.ReportRow{
			SaleID:   sale.ID,
			Date:     sale.Date,
			Client:   sale.Client,
			Product:  strings.Join(labels, ", "),
			Quantity: sale.ItemCount(),
			Total:    sale.Total,
			Profit:   sale.Profit,
		})
	}
	return report
}

func window(today time.Time, days int) []string {
	dates := make([]string, 0, days)
	for i := days - 1; i >= 0; i-- {
		dates = append(dates, today.AddDate(0, 0, -i).Format(domain.DateLayout))
	}
	return dates
}

func productNames(products []domain.Product) map[int64]string {
	names := make(map[int64]string, len(products))
	for _, p := range products {
		names[p.ID] = p.Name
	}
	return names
}

func resolveName(id int64, current map[int64]string, snapshot string) string {
	if name, ok := current[id]; ok {
		return name
	}
	if snapshot != "" {
		return snapshot
	}
	return UnknownProductLabel
}
