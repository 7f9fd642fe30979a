// Package report computes the dashboard metrics: pure reductions over the
// owner's already-fetched records. No I/O and no hidden clock: the reference
// time is a parameter.
package report

import (
	"time"

	"github.com/ldelattre/microgest/internal/models"
	"github.com/ldelattre/microgest/internal/urssaf"
)

// Metrics is the flat record displayed on the dashboard. Empty inputs yield
// the zero value; no error path exists.
type Metrics struct {
	CurrentRevenue       float64 `json:"current_revenue"`
	PreviousRevenue      float64 `json:"previous_revenue"`
	PendingQuotesAmount  float64 `json:"pending_quotes_amount"`
	PendingQuotesCount   int     `json:"pending_quotes_count"`
	UnpaidInvoicesAmount float64 `json:"unpaid_invoices_amount"`
	OverdueInvoicesCount int     `json:"overdue_invoices_count"`
	ExpensesThisMonth    float64 `json:"expenses_this_month"`
	URSSAFEstimate       float64 `json:"urssaf_estimate"`
}

// Compute aggregates the owner's invoices, quotes and expenses as of now.
func Compute(now time.Time, invoices []models.Invoice, quotes []models.Quote, expenses []models.Expense) Metrics {
	var m Metrics

	monthStart := startOfMonth(now)
	prevStart := monthStart.AddDate(0, -1, 0)

	for _, inv := range invoices {
		if inv.Status == models.InvoiceStatusPaid {
			d, ok := invoiceDate(inv)
			if !ok {
				// unparseable/missing date: excluded from date-bucketed sums
				continue
			}
			switch {
			case !d.Before(monthStart) && d.Before(now.Add(time.Nanosecond)):
				m.CurrentRevenue += inv.Total
			case !d.Before(prevStart) && d.Before(monthStart):
				m.PreviousRevenue += inv.Total
			}
			continue
		}
		if inv.Status == models.InvoiceStatusDraft || inv.Status == models.InvoiceStatusCancelled {
			continue
		}
		m.UnpaidInvoicesAmount += inv.Total
		if inv.DueDate != nil && inv.DueDate.Before(now) {
			m.OverdueInvoicesCount++
		}
	}

	for _, q := range quotes {
		if q.Status == models.QuoteStatusSent {
			m.PendingQuotesAmount += q.Total
			m.PendingQuotesCount++
		}
	}

	for _, e := range expenses {
		if e.Date.IsZero() {
			continue
		}
		if !e.Date.Before(monthStart) && e.Date.Before(now.Add(time.Nanosecond)) {
			m.ExpensesThisMonth += e.Amount
		}
	}

	m.URSSAFEstimate = m.CurrentRevenue * urssaf.DefaultEstimateRate
	return m
}

// invoiceDate picks the date used for revenue bucketing: issue date when
// set, created-at otherwise.
func invoiceDate(inv models.Invoice) (time.Time, bool) {
	if inv.IssueDate != nil && !inv.IssueDate.IsZero() {
		return *inv.IssueDate, true
	}
	if !inv.CreatedAt.IsZero() {
		return inv.CreatedAt, true
	}
	return time.Time{}, false
}

func startOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}
