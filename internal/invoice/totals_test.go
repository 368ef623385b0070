package invoice

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/text/language"
)

func TestLineTotal(t *testing.T) {
	cases := []struct {
		name  string
		qty   float64
		price float64
		want  float64
	}{
		{"simple", 4, 5, 20},
		{"fractions stay exact", 3, 0.1, 0.3},
		{"negative quantity", -2, 5, 0},
		{"negative price", 2, -5, 0},
		{"nan", math.NaN(), 5, 0},
		{"inf", 2, math.Inf(1), 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, LineTotal(tc.qty, tc.price))
		})
	}
}

func TestRecompute(t *testing.T) {
	inv := Invoice{Items: []Item{
		{Quantity: 2, UnitPrice: 1.5, TotalPrice: 99},
		{Quantity: 4, UnitPrice: 0.25},
	}}
	Recompute(&inv)
	assert.Equal(t, 3.0, inv.Items[0].TotalPrice)
	assert.Equal(t, 1.0, inv.Items[1].TotalPrice)
	assert.Equal(t, 4.0, inv.TotalAmount)
}

func TestSummarizeRemaining(t *testing.T) {
	cases := []struct {
		total, paid, remaining float64
	}{
		{20, 0, -20},
		{20, 20, 0},
		{20, 25.5, 5.5},
		{0.3, 0.1, -0.2},
	}
	for _, tc := range cases {
		s := Summarize(Invoice{TotalAmount: tc.total, Paid: tc.paid}, language.English)
		assert.Equal(t, tc.remaining, s.Remaining)
		assert.Equal(t, tc.total, s.TotalAmount)
		assert.Equal(t, tc.paid, s.Paid)
	}
}

func TestSummarizeLabels(t *testing.T) {
	s := Summarize(Invoice{TotalAmount: 20, Paid: 5}, language.English)
	assert.Equal(t, "20.00", s.TotalLabel)
	assert.Equal(t, "5.00", s.PaidLabel)
	assert.Equal(t, "-15.00", s.RemainingLabel)
}
