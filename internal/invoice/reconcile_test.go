package invoice

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func custodyInvoice() Invoice {
	return Invoice{ID: 3, Type: TypeCustody, Status: StatusConfirmed, Items: []Item{
		{ItemName: "شاكوش", Barcode: "55", Location: "L", Quantity: 10, TotalReturned: 4},
		{ItemName: "منشار", Barcode: "66", Location: "M", Quantity: 2},
	}}
}

func TestCustodyReturnScenario(t *testing.T) {
	inv := custodyInvoice()
	it := inv.Items[0]

	err := ValidateReturn(it, 0, 7)
	ruleErr := requireRule(t, err, ErrReturnQuantity)
	assert.Equal(t, LevelWarning, ruleErr.Level)

	require.NoError(t, ValidateReturn(it, 0, 6))

	merged := MergeReturnStatus(inv, []ReturnStatus{{ItemName: "شاكوش", Barcode: "55", Location: "L", TotalReturned: 10}})
	assert.Equal(t, 10.0, merged.Items[0].TotalReturned)
	assert.True(t, merged.Items[0].IsFullyReturned)
	assert.Equal(t, ReturnFull, ReturnStateOf(merged.Items[0]))
	assert.Equal(t, StatusPartiallyReturned, merged.Status)
}

func TestValidateReturnBounds(t *testing.T) {
	it := Item{Quantity: 5, TotalReturned: 5}
	requireRule(t, ValidateReturn(it, 0, 1), ErrReturnQuantity)
	requireRule(t, ValidateReturn(Item{Quantity: 5}, 0, 0), ErrReturnQuantity)
	requireRule(t, ValidateReturn(Item{Quantity: 5}, 0, -1), ErrReturnQuantity)
	require.NoError(t, ValidateReturn(Item{Quantity: 5}, 0, 5))
}

func TestReturnStateMachine(t *testing.T) {
	assert.Equal(t, ReturnOutstanding, ReturnStateOf(Item{Quantity: 3}))
	assert.Equal(t, ReturnPartial, ReturnStateOf(Item{Quantity: 3, TotalReturned: 1}))
	assert.Equal(t, ReturnFull, ReturnStateOf(Item{Quantity: 3, TotalReturned: 3}))
	assert.Equal(t, ReturnFull, ReturnStateOf(Item{}))
}

func TestMergeReturnStatusZeroQuantityLine(t *testing.T) {
	inv := Invoice{Type: TypeCustody, Items: []Item{
		{ItemName: "شاكوش", Barcode: "55", Location: "L", Quantity: 4},
		{ItemName: "منشار", Barcode: "66", Location: "M"},
	}}
	merged := MergeReturnStatus(inv, []ReturnStatus{{ItemName: "شاكوش", Barcode: "55", Location: "L", TotalReturned: 1}})
	assert.False(t, merged.Items[0].IsFullyReturned)
	assert.True(t, merged.Items[1].IsFullyReturned)
	assert.Equal(t, StatusPartiallyReturned, merged.Status)
}

func TestMergeReturnStatusDerivesInvoiceStatus(t *testing.T) {
	inv := custodyInvoice()
	inv.Items[0].TotalReturned = 0

	untouched := MergeReturnStatus(inv, nil)
	assert.Equal(t, StatusConfirmed, untouched.Status)

	full := MergeReturnStatus(inv, []ReturnStatus{
		{ItemName: "شاكوش", Barcode: "55", Location: "L", TotalReturned: 10},
		{ItemName: "منشار", Barcode: "66", Location: "M", TotalReturned: 2},
	})
	assert.Equal(t, StatusFullyReturned, full.Status)
	for _, it := range full.Items {
		assert.Equal(t, it.TotalReturned >= it.Quantity, it.IsFullyReturned)
	}

	// a status for another location does not match
	other := MergeReturnStatus(inv, []ReturnStatus{{ItemName: "منشار", Barcode: "66", Location: "L", TotalReturned: 2}})
	assert.Zero(t, other.Items[1].TotalReturned)
	assert.Zero(t, inv.Items[1].TotalReturned)
}

func TestMergeReturnStatusNormalizesText(t *testing.T) {
	// U+0627 U+0653 composes to U+0622
	inv := Invoice{Type: TypeCustody, Items: []Item{{ItemName: "\u0622لة", Location: "L", Quantity: 1}}}
	merged := MergeReturnStatus(inv, []ReturnStatus{{ItemName: "\u0627\u0653لة ", Location: "L", TotalReturned: 1}})
	assert.True(t, merged.Items[0].IsFullyReturned)
}

func TestReservationDeductionScenario(t *testing.T) {
	inv := Invoice{Type: TypeReservation, Items: []Item{
		{ItemID: 9, ItemName: "X", Barcode: "900", Location: "L", Quantity: 10},
		{ItemName: "Y", Barcode: "901", Location: "L", Quantity: 4},
	}}
	merged := MergeDeductions(inv, []Deduction{
		{ItemID: 9, ItemName: "renamed", DeductedQuantity: 3, RemainingQuantity: 7},
		{ItemName: "Y", Barcode: "901", DeductedQuantity: 1, RemainingQuantity: 3},
	})

	assert.Equal(t, 3.0, merged.Items[0].BorrowedToMainQuantity)
	assert.Equal(t, 7.0, merged.Items[0].RemainingQuantity)
	assert.Equal(t, 1.0, merged.Items[1].BorrowedToMainQuantity)
	assert.Zero(t, inv.Items[0].BorrowedToMainQuantity)
}

func TestMergeDeductionsPrefersItemID(t *testing.T) {
	inv := Invoice{Type: TypeReservation, Items: []Item{{ItemID: 1, ItemName: "X", Barcode: "900"}}}
	merged := MergeDeductions(inv, []Deduction{{ItemID: 2, ItemName: "X", Barcode: "900", DeductedQuantity: 5}})
	assert.Zero(t, merged.Items[0].BorrowedToMainQuantity)
}

func TestFindLine(t *testing.T) {
	inv := custodyInvoice()
	assert.Equal(t, 1, FindLine(inv, "منشار", "66", " M"))
	assert.Equal(t, -1, FindLine(inv, "منشار", "66", "L"))
}
