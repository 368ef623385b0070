package perf

import (
	"sort"
	"strconv"
	"testing"
	"time"

	"github.com/odyssey-erp/stockdesk/internal/invoice"
)

const tableRows = 200

func stockItem(i int) invoice.ItemOption {
	return invoice.ItemOption{
		ItemID:   int64(i + 1),
		ItemName: "صنف",
		Barcode:  "B" + strconv.Itoa(i),
		Locations: []invoice.StockLocation{
			{Location: "L", Quantity: 100, Price: 2.5},
			{Location: "M", Quantity: 50, Price: 3},
		},
	}
}

// largeInvoice builds a disbursement with every row at location L.
func largeInvoice(tb testing.TB) invoice.Invoice {
	tb.Helper()
	e := invoice.NewEditor(invoice.ModeCreate, nil)
	inv := invoice.NewInvoice(invoice.TypeDisbursement)
	for i := 0; i < tableRows; i++ {
		if i > 0 {
			var err error
			if inv, err = e.AddRow(inv); err != nil {
				tb.Fatalf("add row: %v", err)
			}
		}
		for _, ch := range []invoice.Change{
			invoice.SelectItem(i, stockItem(i)),
			invoice.SetLocation(i, "L"),
			invoice.SetQuantity(i, 1),
		} {
			out, err := e.Apply(inv, ch)
			if err != nil {
				tb.Fatalf("row %d: %v", i, err)
			}
			inv = out.Invoice
		}
	}
	return inv
}

func TestRuleLatencyTargets(t *testing.T) {
	inv := largeInvoice(t)
	e := invoice.NewEditor(invoice.ModeEdit, nil)

	samples := make([]time.Duration, 0, 50)
	for i := 0; i < 50; i++ {
		start := time.Now()
		if _, err := e.Apply(inv, invoice.SetQuantity(i%tableRows, float64(i%7))); err != nil {
			t.Fatalf("apply: %v", err)
		}
		samples = append(samples, time.Since(start))
	}
	if p95 := percentile95(samples); p95 > 50*time.Millisecond {
		t.Fatalf("quantity change latency regression on %d rows: p95=%s", tableRows, p95)
	}
}

func BenchmarkQuantityChange(b *testing.B) {
	inv := largeInvoice(b)
	e := invoice.NewEditor(invoice.ModeEdit, nil)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := e.Apply(inv, invoice.SetQuantity(i%tableRows, 3)); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkLocationChange(b *testing.B) {
	inv := largeInvoice(b)
	e := invoice.NewEditor(invoice.ModeEdit, nil)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := e.Apply(inv, invoice.SetLocation(i%tableRows, "M")); err != nil {
			b.Fatal(err)
		}
	}
}

func percentile95(samples []time.Duration) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	sorted := append([]time.Duration(nil), samples...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	index := int(float64(len(sorted)-1) * 0.95)
	return sorted[index]
}
