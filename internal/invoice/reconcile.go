package invoice

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// ReturnState tracks a custody row through its returns.
type ReturnState string

const (
	ReturnOutstanding ReturnState = "outstanding"
	ReturnPartial     ReturnState = "partially_returned"
	ReturnFull        ReturnState = "fully_returned"
)

// ReturnStateOf derives the state from the returned quantity. A line whose
// returns cover its quantity is full, including a zero-quantity line.
func ReturnStateOf(it Item) ReturnState {
	switch {
	case it.TotalReturned >= it.Quantity:
		return ReturnFull
	case it.TotalReturned > 0:
		return ReturnPartial
	default:
		return ReturnOutstanding
	}
}

// ReturnStatus is the server-reported return aggregate of one custody line.
type ReturnStatus struct {
	ItemName      string  `json:"item_name"`
	Barcode       string  `json:"barcode"`
	Location      string  `json:"location"`
	TotalReturned float64 `json:"total_returned"`
}

// ReturnRequest records a return against one custody row.
type ReturnRequest struct {
	ItemName string  `json:"item_name" validate:"required"`
	Barcode  string  `json:"barcode"`
	Location string  `json:"location" validate:"required"`
	Quantity float64 `json:"quantity" validate:"gt=0"`
}

// Outstanding is the quantity still out on custody.
func Outstanding(it Item) float64 {
	rest := it.Quantity - it.TotalReturned
	if rest < 0 {
		return 0
	}
	return rest
}

// ValidateReturn checks 0 < q ≤ quantity − total_returned.
func ValidateReturn(it Item, row int, q float64) error {
	if q <= 0 || q > Outstanding(it) {
		return reject(ErrReturnQuantity, LevelWarning, FieldQuantity, row,
			"كمية الإرجاع يجب أن تكون بين 0 و "+formatQty(Outstanding(it)))
	}
	return nil
}

// MergeReturnStatus folds return aggregates into the custody rows and derives
// the invoice status. Rows without a reported status keep their values.
func MergeReturnStatus(inv Invoice, statuses []ReturnStatus) Invoice {
	out := inv.Clone()
	index := make(map[string]ReturnStatus, len(statuses))
	for _, st := range statuses {
		index[lineKey(st.ItemName, st.Barcode, st.Location)] = st
	}
	for i := range out.Items {
		it := &out.Items[i]
		if st, ok := index[lineKey(it.ItemName, it.Barcode, it.Location)]; ok {
			it.TotalReturned = nonNegative(st.TotalReturned)
		}
		it.IsFullyReturned = it.TotalReturned >= it.Quantity
	}
	out.Status = DeriveReturnStatus(out)
	return out
}

// DeriveReturnStatus computes the invoice status from its rows.
func DeriveReturnStatus(inv Invoice) Status {
	if len(inv.Items) == 0 {
		return inv.Status
	}
	all := true
	some := false
	for _, it := range inv.Items {
		if !it.IsFullyReturned {
			all = false
		}
		if it.TotalReturned > 0 {
			some = true
		}
	}
	switch {
	case all:
		return StatusFullyReturned
	case some:
		return StatusPartiallyReturned
	default:
		return inv.Status
	}
}

// FindLine returns the index of the row matching the triple, or -1.
func FindLine(inv Invoice, itemName, barcode, location string) int {
	key := lineKey(itemName, barcode, location)
	for i, it := range inv.Items {
		if lineKey(it.ItemName, it.Barcode, it.Location) == key {
			return i
		}
	}
	return -1
}

// Deduction is how much of a reserved line was consumed by other invoices.
type Deduction struct {
	ItemID            int64   `json:"item_id"`
	ItemName          string  `json:"item_name"`
	Barcode           string  `json:"barcode"`
	DeductedQuantity  float64 `json:"deducted_quantity"`
	RemainingQuantity float64 `json:"remaining_quantity"`
}

// MergeDeductions overlays booking deductions on reservation rows. Matching is
// by item id when both sides carry one, else by barcode and item name.
func MergeDeductions(inv Invoice, deductions []Deduction) Invoice {
	out := inv.Clone()
	for i := range out.Items {
		it := &out.Items[i]
		for _, d := range deductions {
			if deductionMatches(*it, d) {
				it.BorrowedToMainQuantity = nonNegative(d.DeductedQuantity)
				it.RemainingQuantity = nonNegative(d.RemainingQuantity)
				break
			}
		}
	}
	return out
}

func deductionMatches(it Item, d Deduction) bool {
	if it.ItemID != 0 && d.ItemID != 0 {
		return it.ItemID == d.ItemID
	}
	return sameKey(it.Barcode, d.Barcode) && sameKey(it.ItemName, d.ItemName)
}

// duplicateLine matches rows on (barcode, location), falling back to the
// item name for items without a barcode.
func duplicateLine(it Item, itemName, barcode, location string) bool {
	if !sameKey(it.Location, location) {
		return false
	}
	if normalize(barcode) != "" || normalize(it.Barcode) != "" {
		return sameKey(it.Barcode, barcode)
	}
	return sameKey(it.ItemName, itemName)
}

func sameLine(it Item, itemName, barcode, location string) bool {
	return lineKey(it.ItemName, it.Barcode, it.Location) == lineKey(itemName, barcode, location)
}

func lineKey(itemName, barcode, location string) string {
	return normalize(itemName) + "\x00" + normalize(barcode) + "\x00" + normalize(location)
}

func sameKey(a, b string) bool {
	return normalize(a) == normalize(b)
}

// normalize folds Arabic text typed with different composition into one form.
func normalize(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}
