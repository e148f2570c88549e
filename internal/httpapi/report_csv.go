package httpapi

import (
	"bytes"
	"encoding/csv"
	"strconv"

	"github.com/shopspring/decimal"

	"kasirbuku/backend/internal/domain"
)

// salesReportToCSV writes one row per sale plus a closing totals row.
// Amounts are rendered with two decimals.
func salesReportToCSV(report domain.DateRangeReport) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	records := [][]string{{"date", "client", "product", "quantity", "total", "profit"}}
	for _, row := range report.Rows {
		records = append(records, []string{
			row.Date,
			row.Client,
			row.Product,
			strconv.Itoa(row.Quantity),
			money(row.Total),
			money(row.Profit),
		})
	}
	records = append(records, []string{"total", "", "", strconv.Itoa(report.SalesCount), money(report.TotalSales), money(report.TotalProfit)})

	if err := writer.WriteAll(records); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func money(value float64) string {
	return decimal.NewFromFloat(value).StringFixed(2)
}
