package invoice

import (
	"math"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const moneyPlaces = 4

// LineTotal returns quantity × unit price with negative operands coerced to zero.
func LineTotal(quantity, unitPrice float64) float64 {
	q := decimal.NewFromFloat(nonNegative(quantity))
	p := decimal.NewFromFloat(nonNegative(unitPrice))
	return q.Mul(p).Round(moneyPlaces).InexactFloat64()
}

// TotalAmount sums the line totals of all rows.
func TotalAmount(items []Item) float64 {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(decimal.NewFromFloat(it.TotalPrice))
	}
	return sum.Round(moneyPlaces).InexactFloat64()
}

// Recompute refreshes every line total and the invoice total.
func Recompute(inv *Invoice) {
	for i := range inv.Items {
		inv.Items[i].TotalPrice = LineTotal(inv.Items[i].Quantity, inv.Items[i].UnitPrice)
	}
	inv.TotalAmount = TotalAmount(inv.Items)
}

// Summary is the money block shown under the invoice table.
type Summary struct {
	TotalAmount    float64 `json:"total_amount"`
	Paid           float64 `json:"paid"`
	Remaining      float64 `json:"remaining"`
	TotalLabel     string  `json:"total_label"`
	PaidLabel      string  `json:"paid_label"`
	RemainingLabel string  `json:"remaining_label"`
}

// Summarize computes remaining = paid − total. Labels are formatted for tag.
func Summarize(inv Invoice, tag language.Tag) Summary {
	total := decimal.NewFromFloat(inv.TotalAmount)
	paid := decimal.NewFromFloat(inv.Paid)
	remaining := paid.Sub(total).Round(moneyPlaces).InexactFloat64()
	p := message.NewPrinter(tag)
	return Summary{
		TotalAmount:    inv.TotalAmount,
		Paid:           inv.Paid,
		Remaining:      remaining,
		TotalLabel:     p.Sprintf("%.2f", inv.TotalAmount),
		PaidLabel:      p.Sprintf("%.2f", inv.Paid),
		RemainingLabel: p.Sprintf("%.2f", remaining),
	}
}

func nonNegative(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}
