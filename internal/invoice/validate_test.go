package invoice

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validInvoice() Invoice {
	return Invoice{Type: TypeDisbursement, Items: []Item{
		{ItemName: "مسمار", Barcode: "111", Location: "L", Quantity: 2, UnitPrice: 5, MaxQuantity: 10},
	}}
}

func paths(t *testing.T, err error) []string {
	t.Helper()
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.ErrorIs(t, err, ErrInvalidInvoice)
	out := make([]string, 0, len(verr.Fields))
	for _, f := range verr.Fields {
		out = append(out, f.Path)
	}
	return out
}

func TestValidateForSaveAcceptsValidInvoice(t *testing.T) {
	require.NoError(t, ValidateForSave(validInvoice()))
}

func TestValidateForSaveRowErrors(t *testing.T) {
	inv := validInvoice()
	inv.Items = append(inv.Items, Item{ItemName: "", Location: "", Quantity: 0})
	got := paths(t, ValidateForSave(inv))
	assert.ElementsMatch(t, []string{"items[1].item_name", "items[1].location", "items[1].quantity"}, got)
}

func TestValidateForSaveRequiresItems(t *testing.T) {
	inv := validInvoice()
	inv.Items = []Item{}
	assert.Contains(t, paths(t, ValidateForSave(inv)), "items")
}

func TestValidateForSaveQuantityAboveStock(t *testing.T) {
	inv := validInvoice()
	inv.Items[0].Quantity = 11
	assert.Equal(t, []string{"items[0].quantity"}, paths(t, ValidateForSave(inv)))

	inv.Type = TypeAddition
	require.NoError(t, ValidateForSave(inv))
}

func TestValidateForSaveTransferDestination(t *testing.T) {
	inv := validInvoice()
	inv.Type = TypeTransfer
	assert.Equal(t, []string{"items[0].to_location"}, paths(t, ValidateForSave(inv)))

	inv.Items[0].ToLocation = "L"
	assert.Equal(t, []string{"items[0].to_location"}, paths(t, ValidateForSave(inv)))

	inv.Items[0].ToLocation = "M"
	require.NoError(t, ValidateForSave(inv))
}

func TestValidateForSaveReturnNeedsOriginal(t *testing.T) {
	inv := validInvoice()
	inv.Type = TypeReturn
	assert.Equal(t, []string{"original_invoice_id"}, paths(t, ValidateForSave(inv)))
}

func TestValidateForSaveUnknownType(t *testing.T) {
	inv := validInvoice()
	inv.Type = "x"
	assert.Equal(t, []string{"type"}, paths(t, ValidateForSave(inv)))

	inv.Type = ""
	assert.Contains(t, paths(t, ValidateForSave(inv)), "type")
}

func TestValidateForSaveNegativePaid(t *testing.T) {
	inv := validInvoice()
	inv.Paid = -1
	assert.Equal(t, []string{"paid"}, paths(t, ValidateForSave(inv)))
}
