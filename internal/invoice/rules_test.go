package invoice

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bolt() ItemOption {
	return ItemOption{
		ItemID:   1,
		ItemName: "مسمار",
		Barcode:  "111",
		Locations: []StockLocation{
			{Location: "L", Quantity: 10, Price: 5},
			{Location: "M", Quantity: 3, Price: 7},
		},
	}
}

func apply(t *testing.T, e Editor, inv Invoice, chs ...Change) Outcome {
	t.Helper()
	out := Outcome{Invoice: inv}
	for _, ch := range chs {
		var err error
		out, err = e.Apply(out.Invoice, ch)
		require.NoError(t, err, "change %s on row %d", ch.Field, ch.Row)
	}
	return out
}

func requireRule(t *testing.T, err error, target error) *RuleError {
	t.Helper()
	require.ErrorIs(t, err, target)
	var ruleErr *RuleError
	require.ErrorAs(t, err, &ruleErr)
	return ruleErr
}

func TestAdditionInvoiceTotals(t *testing.T) {
	e := NewEditor(ModeCreate, nil)
	out := apply(t, e, NewInvoice(TypeAddition),
		SelectItem(0, bolt()),
		SetLocation(0, "L"),
		SetUnitPrice(0, 5),
		SetQuantity(0, 4),
	)

	it := out.Invoice.Items[0]
	assert.Equal(t, 4.0, it.Quantity)
	assert.Equal(t, 20.0, it.TotalPrice)
	assert.Equal(t, 20.0, out.Invoice.TotalAmount)
	assert.Empty(t, out.Notices)
}

func TestAdditionLocationKeepsOperatorPrice(t *testing.T) {
	e := NewEditor(ModeCreate, nil)
	out := apply(t, e, NewInvoice(TypeAddition), SelectItem(0, bolt()), SetLocation(0, "L"))
	assert.Zero(t, out.Invoice.Items[0].UnitPrice)

	// a location with no stock yet is allowed for stock-in
	out = apply(t, e, out.Invoice, SetLocation(0, "NEW"))
	assert.Equal(t, "NEW", out.Invoice.Items[0].Location)
}

func TestSelectItemResetsRow(t *testing.T) {
	e := NewEditor(ModeCreate, nil)
	out := apply(t, e, NewInvoice(TypeDisbursement), SelectItem(0, bolt()), SetLocation(0, "L"), SetQuantity(0, 2))

	other := ItemOption{ItemID: 2, ItemName: "صامولة", Barcode: "222", Locations: []StockLocation{{Location: "K", Quantity: 1, Price: 9}}}
	out = apply(t, e, out.Invoice, SelectItem(0, other))

	it := out.Invoice.Items[0]
	assert.Equal(t, "صامولة", it.ItemName)
	assert.Equal(t, "222", it.Barcode)
	assert.Empty(t, it.Location)
	assert.Zero(t, it.Quantity)
	assert.Zero(t, it.UnitPrice)
	assert.Zero(t, it.TotalPrice)
	assert.Zero(t, it.MaxQuantity)
	assert.Equal(t, other.Locations, it.AvailableLocations)
	assert.Zero(t, out.Invoice.TotalAmount)
}

func TestSelectItemRequiresName(t *testing.T) {
	_, err := NewEditor(ModeCreate, nil).Apply(NewInvoice(TypeDisbursement), SelectItem(0, ItemOption{}))
	requireRule(t, err, ErrItemRequired)
}

func TestQuantityRequiresLocation(t *testing.T) {
	e := NewEditor(ModeCreate, nil)
	inv := apply(t, e, NewInvoice(TypeDisbursement), SelectItem(0, bolt())).Invoice

	out, err := e.Apply(inv, SetQuantity(0, 3))
	requireRule(t, err, ErrLocationRequired)
	assert.Equal(t, inv, out.Invoice)

	_, err = e.Apply(inv, SetUnitPrice(0, 3))
	requireRule(t, err, ErrLocationRequired)
}

func TestLocationSetsBoundsAndPrice(t *testing.T) {
	e := NewEditor(ModeCreate, nil)
	out := apply(t, e, NewInvoice(TypeDisbursement), SelectItem(0, bolt()), SetLocation(0, "M"))

	it := out.Invoice.Items[0]
	assert.Equal(t, 3.0, it.MaxQuantity)
	assert.Equal(t, 7.0, it.UnitPrice)
	assert.Zero(t, it.Quantity)
}

func TestLocationChangeResetsQuantity(t *testing.T) {
	e := NewEditor(ModeCreate, nil)
	out := apply(t, e, NewInvoice(TypeDisbursement), SelectItem(0, bolt()), SetLocation(0, "L"), SetQuantity(0, 4))
	require.Equal(t, 20.0, out.Invoice.TotalAmount)

	out = apply(t, e, out.Invoice, SetLocation(0, "M"))
	assert.Zero(t, out.Invoice.Items[0].Quantity)
	assert.Zero(t, out.Invoice.Items[0].TotalPrice)
	assert.Zero(t, out.Invoice.TotalAmount)
}

func TestUnknownLocationRejected(t *testing.T) {
	e := NewEditor(ModeCreate, nil)
	inv := apply(t, e, NewInvoice(TypeDisbursement), SelectItem(0, bolt())).Invoice

	_, err := e.Apply(inv, SetLocation(0, "Z"))
	requireRule(t, err, ErrUnknownLocation)
}

func TestDuplicateLocationRejected(t *testing.T) {
	e := NewEditor(ModeCreate, nil)
	inv, err := e.AddRow(apply(t, e, NewInvoice(TypeDisbursement), SelectItem(0, bolt()), SetLocation(0, "L")).Invoice)
	require.NoError(t, err)
	inv = apply(t, e, inv, SelectItem(1, bolt())).Invoice

	out, err := e.Apply(inv, SetLocation(1, " L "))
	ruleErr := requireRule(t, err, ErrDuplicateLine)
	assert.Equal(t, LevelWarning, ruleErr.Level)
	assert.Equal(t, inv, out.Invoice)

	notice, ok := NoticeFromError(err)
	require.True(t, ok)
	assert.Equal(t, "duplicate_item", notice.Code)
	assert.Equal(t, 1, notice.Row)

	// the same item at another location is fine
	out = apply(t, e, inv, SetLocation(1, "M"))
	assert.Equal(t, "M", out.Invoice.Items[1].Location)
}

func TestDuplicateDetectionWithoutBarcodeUsesName(t *testing.T) {
	e := NewEditor(ModeCreate, nil)
	plain := ItemOption{ItemName: "زيت", Locations: []StockLocation{{Location: "L", Quantity: 5, Price: 1}}}
	inv, err := e.AddRow(apply(t, e, NewInvoice(TypeDamage), SelectItem(0, plain), SetLocation(0, "L")).Invoice)
	require.NoError(t, err)
	inv = apply(t, e, inv, SelectItem(1, plain)).Invoice

	_, err = e.Apply(inv, SetLocation(1, "L"))
	requireRule(t, err, ErrDuplicateLine)
}

func TestQuantityClampedToStock(t *testing.T) {
	e := NewEditor(ModeCreate, nil)
	out := apply(t, e, NewInvoice(TypeDisbursement), SelectItem(0, bolt()), SetLocation(0, "L"), SetQuantity(0, 15))

	it := out.Invoice.Items[0]
	assert.Equal(t, 10.0, it.Quantity)
	assert.Equal(t, 50.0, it.TotalPrice)
	require.Len(t, out.Notices, 1)
	assert.Equal(t, NoticeQuantityClamped, out.Notices[0].Code)

	out = apply(t, e, out.Invoice, SetQuantity(0, -3))
	assert.Zero(t, out.Invoice.Items[0].Quantity)
	assert.Zero(t, out.Invoice.TotalAmount)
}

func TestStockInQuantityHasNoStockBound(t *testing.T) {
	e := NewEditor(ModeCreate, nil)
	for _, typ := range []Type{TypeAddition, TypePurchaseOrder} {
		out := apply(t, e, NewInvoice(typ), SelectItem(0, bolt()), SetLocation(0, "L"), SetUnitPrice(0, 2), SetQuantity(0, 50))

		it := out.Invoice.Items[0]
		assert.Equal(t, 50.0, it.Quantity, typ)
		assert.Zero(t, it.MaxQuantity, "stock-in rows carry no maxquantity")
		assert.Empty(t, out.Notices)
		require.NoError(t, ValidateForSave(out.Invoice))

		out = apply(t, e, out.Invoice, SetQuantity(0, -1))
		assert.Zero(t, out.Invoice.Items[0].Quantity)
	}
}

func TestCustodyQuantityNotBelowReturned(t *testing.T) {
	e := NewEditor(ModeEdit, nil)
	inv := Invoice{Type: TypeCustody, Items: []Item{{
		ItemName: "مفك", Barcode: "9", Location: "L", Quantity: 10, MaxQuantity: 10, UnitPrice: 2, TotalReturned: 4,
	}}}

	out := apply(t, e, inv, SetQuantity(0, 1))
	assert.Equal(t, 4.0, out.Invoice.Items[0].Quantity)
	require.Len(t, out.Notices, 1)
}

func TestUnitPriceOnlyForAdditionKinds(t *testing.T) {
	e := NewEditor(ModeCreate, nil)
	for _, typ := range []Type{TypeDisbursement, TypeCustody, TypeReturn, TypeDamage, TypeReservation, TypeTransfer} {
		inv := NewInvoice(typ)
		_, err := e.Apply(inv, SetUnitPrice(0, 3))
		requireRule(t, err, ErrPriceLocked)
	}

	out := apply(t, e, NewInvoice(TypePurchaseOrder), SelectItem(0, bolt()), SetLocation(0, "L"), SetQuantity(0, 2), SetUnitPrice(0, 2.5))
	assert.Equal(t, 5.0, out.Invoice.TotalAmount)
}

func TestTransferRejectsSameDestination(t *testing.T) {
	e := NewEditor(ModeCreate, nil)
	inv := apply(t, e, NewInvoice(TypeTransfer), SelectItem(0, bolt()), SetLocation(0, "L")).Invoice
	require.Equal(t, "L", inv.Items[0].FromLocation)

	out, err := e.Apply(inv, SetToLocation(0, "L"))
	ruleErr := requireRule(t, err, ErrSameLocation)
	assert.Equal(t, LevelError, ruleErr.Level)
	assert.Equal(t, inv, out.Invoice)

	out = apply(t, e, inv, SetToLocation(0, "M"))
	assert.Equal(t, "M", out.Invoice.Items[0].ToLocation)
	assert.Equal(t, "M", out.Invoice.Items[0].NewLocation)

	// moving the source onto the destination clears the destination
	out = apply(t, e, out.Invoice, SetLocation(0, "M"))
	assert.Empty(t, out.Invoice.Items[0].ToLocation)
}

func TestToLocationRequiresSource(t *testing.T) {
	e := NewEditor(ModeCreate, nil)
	inv := apply(t, e, NewInvoice(TypeTransfer), SelectItem(0, bolt())).Invoice
	_, err := e.Apply(inv, SetToLocation(0, "M"))
	requireRule(t, err, ErrLocationRequired)
}

func TestReturnBoundsComeFromOriginal(t *testing.T) {
	original := Invoice{ID: 7, Type: TypeDisbursement, Items: []Item{
		{ItemID: 1, ItemName: "مسمار", Barcode: "111", Location: "L", Quantity: 3, UnitPrice: 6},
	}}
	e := NewEditor(ModeCreate, &original)
	inv := NewInvoice(TypeReturn)
	inv.OriginalInvoiceID = 7

	out := apply(t, e, inv, SelectItem(0, bolt()), SetLocation(0, "L"), SetQuantity(0, 5))
	it := out.Invoice.Items[0]
	assert.Equal(t, 3.0, it.MaxQuantity)
	assert.Equal(t, 6.0, it.UnitPrice)
	assert.Equal(t, 3.0, it.Quantity)
	assert.Equal(t, 18.0, out.Invoice.TotalAmount)

	_, err := e.Apply(out.Invoice, SetLocation(0, "M"))
	requireRule(t, err, ErrUnknownLocation)
}

func TestDescriptionHasNoSideEffects(t *testing.T) {
	e := NewEditor(ModeCreate, nil)
	inv := apply(t, e, NewInvoice(TypeDisbursement), SelectItem(0, bolt()), SetLocation(0, "L"), SetQuantity(0, 2)).Invoice

	out := apply(t, e, inv, SetText(0, FieldDescription, "للصيانة"))
	want := inv.Clone()
	want.Items[0].Description = "للصيانة"
	assert.Equal(t, want, out.Invoice)
}

func TestHeaderFields(t *testing.T) {
	e := NewEditor(ModeCreate, nil)
	out := apply(t, e, NewInvoice(TypeAddition),
		SetPaid(-5),
		SetText(0, FieldClient, "  شركة النور "),
		SetText(0, FieldComment, "ملاحظة"),
	)
	assert.Zero(t, out.Invoice.Paid)
	assert.Equal(t, "شركة النور", out.Invoice.ClientName)
	assert.Equal(t, "ملاحظة", out.Invoice.Comment)

	_, err := e.Apply(NewInvoice(TypeTransfer), SetPaid(10))
	requireRule(t, err, ErrFieldNotEditable)
	_, err = e.Apply(NewInvoice(TypeDisbursement), SetText(0, FieldCustodyPerson, "x"))
	requireRule(t, err, ErrFieldNotEditable)
}

func TestViewModeRejectsChanges(t *testing.T) {
	e := NewEditor(ModeView, nil)
	inv := Invoice{Type: TypeDisbursement, Items: []Item{{ItemName: "مسمار", Location: "L", Quantity: 1}}}

	out, err := e.Apply(inv, SetQuantity(0, 9))
	requireRule(t, err, ErrReadOnly)
	assert.Equal(t, inv, out.Invoice)

	_, err = e.AddRow(inv)
	requireRule(t, err, ErrReadOnly)
	_, err = e.RemoveRow(inv, 0)
	requireRule(t, err, ErrReadOnly)
}

func TestRowOutOfRange(t *testing.T) {
	e := NewEditor(ModeCreate, nil)
	_, err := e.Apply(NewInvoice(TypeDisbursement), SetQuantity(3, 1))
	requireRule(t, err, ErrRowOutOfRange)
	_, err = e.Apply(NewInvoice(TypeDisbursement), SetQuantity(-1, 1))
	requireRule(t, err, ErrRowOutOfRange)
}

func TestUnknownTypeRejected(t *testing.T) {
	_, err := NewEditor(ModeCreate, nil).Apply(NewInvoice(Type("bogus")), SetQuantity(0, 1))
	require.ErrorIs(t, err, ErrUnknownType)
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	e := NewEditor(ModeCreate, nil)
	inv := apply(t, e, NewInvoice(TypeDisbursement), SelectItem(0, bolt()), SetLocation(0, "L")).Invoice
	before := inv.Clone()

	_ = apply(t, e, inv, SetQuantity(0, 4))
	_ = apply(t, e, inv, SelectItem(0, ItemOption{ItemName: "آخر"}))
	assert.Equal(t, before, inv)
}

func TestRowsAddAndRemove(t *testing.T) {
	e := NewEditor(ModeCreate, nil)
	inv := apply(t, e, NewInvoice(TypeDisbursement), SelectItem(0, bolt()), SetLocation(0, "L"), SetQuantity(0, 2)).Invoice
	inv, err := e.AddRow(inv)
	require.NoError(t, err)
	require.Len(t, inv.Items, 2)

	inv = apply(t, e, inv, SelectItem(1, bolt()), SetLocation(1, "M"), SetQuantity(1, 1)).Invoice
	require.Equal(t, 17.0, inv.TotalAmount)

	inv, err = e.RemoveRow(inv, 0)
	require.NoError(t, err)
	require.Len(t, inv.Items, 1)
	assert.Equal(t, 7.0, inv.TotalAmount)

	inv, err = e.RemoveRow(inv, 0)
	require.NoError(t, err)
	require.Len(t, inv.Items, 1)
	assert.Equal(t, Item{}, inv.Items[0])

	_, err = e.RemoveRow(inv, 5)
	requireRule(t, err, ErrRowOutOfRange)
}

func TestTotalsHoldAfterEveryChange(t *testing.T) {
	e := NewEditor(ModeCreate, nil)
	inv := NewInvoice(TypeAddition)
	inv, err := e.AddRow(inv)
	require.NoError(t, err)

	steps := []Change{
		SelectItem(0, bolt()), SetLocation(0, "L"), SetQuantity(0, 3), SetUnitPrice(0, 1.1),
		SelectItem(1, bolt()), SetLocation(1, "M"), SetUnitPrice(1, 0.7), SetQuantity(1, 9),
		SetQuantity(0, -2), SetUnitPrice(1, -4), SetQuantity(0, 0.5), SetUnitPrice(0, 12.25),
	}
	for _, ch := range steps {
		out, err := e.Apply(inv, ch)
		require.NoError(t, err)
		inv = out.Invoice
		sum := 0.0
		for _, it := range inv.Items {
			assert.Equal(t, LineTotal(it.Quantity, it.UnitPrice), it.TotalPrice)
			sum += it.TotalPrice
		}
		assert.InDelta(t, sum, inv.TotalAmount, 1e-9)
	}
}
