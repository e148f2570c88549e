package debt

import "kasirbuku/backend/internal/domain"

// Aggregate groups every sale that is not fully paid by client. Debtors come
// out in the order their first open sale appears in sales. today is a
// YYYY-MM-DD date used for the overdue flag.
func Aggregate(sales []domain.Sale, today string) domain.DebtorReport {
	report := domain.DebtorReport{Debtors: make([]domain.Debtor, 0)}
	index := make(map[string]int)

	for _, sale := range sales {
		if sale.Status() == domain.PaymentPaid {
			continue
		}
		pos, seen := index[sale.Client]
		if !seen {
			pos = len(report.Debtors)
			index[sale.Client] = pos
			report.Debtors = append(report.Debtors, domain.Debtor{Client: sale.Client, Sales: make([]domain.Sale, 0, 2)})
		}

		debtor := &report.Debtors[pos]
		debtor.TotalSales += sale.Total
		debtor.TotalPaid += sale.AmountPaid
		debtor.Balance += sale.Balance
		debtor.Sales = append(debtor.Sales, sale)
		// fixed-width ISO dates order correctly as strings
		if sale.DueDate != "" && (debtor.DueDate == "" || sale.DueDate < debtor.DueDate) {
			debtor.DueDate = sale.DueDate
		}
	}

	for i := range report.Debtors {
		debtor := &report.Debtors[i]
		debtor.Overdue = IsOverdue(debtor.DueDate, today)
		report.TotalDebt += debtor.Balance
	}
	report.DebtorsCount = len(report.Debtors)
	return report
}

// IsOverdue reports whether dueDate lies strictly before today. A debtor
// without a due date is never overdue.
func IsOverdue(dueDate string, today string) bool {
	return dueDate != "" && dueDate < today
}

// ClientHistory returns every sale of client, whatever its payment status.
func ClientHistory(sales []domain.Sale, client string) []domain.Sale {
	history := make([]domain.Sale, 0)
	for _, sale := range sales {
		if sale.Client == client {
			history = append(history, sale)
		}
	}
	return history
}
