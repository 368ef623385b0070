package invoice

import (
	"fmt"
	"strconv"
	"strings"
)

// Field identifies an editable value of an invoice or of one of its rows.
type Field int

const (
	FieldItem Field = iota + 1
	FieldLocation
	FieldQuantity
	FieldUnitPrice
	FieldDescription
	FieldToLocation
	FieldSupplier

	FieldPaid
	FieldEmployee
	FieldClient
	FieldWarehouseManager
	FieldPaymentMethod
	FieldCustodyPerson
	FieldComment
	FieldDate
	FieldTime
)

var fieldNames = map[Field]string{
	FieldItem:             "item_name",
	FieldLocation:         "location",
	FieldQuantity:         "quantity",
	FieldUnitPrice:        "unit_price",
	FieldDescription:      "description",
	FieldToLocation:       "to_location",
	FieldSupplier:         "supplier_name",
	FieldPaid:             "paid",
	FieldEmployee:         "employee_name",
	FieldClient:           "client_name",
	FieldWarehouseManager: "warehouse_manager",
	FieldPaymentMethod:    "payment_method",
	FieldCustodyPerson:    "custody_person",
	FieldComment:          "comment",
	FieldDate:             "date",
	FieldTime:             "time",
}

// Fields lists all fields in declaration order.
func Fields() []Field {
	out := make([]Field, 0, len(fieldNames))
	for f := FieldItem; f <= FieldTime; f++ {
		out = append(out, f)
	}
	return out
}

func (f Field) String() string {
	if name, ok := fieldNames[f]; ok {
		return name
	}
	return "field(" + strconv.Itoa(int(f)) + ")"
}

// ParseField maps the JSON name of a field to its enum value.
func ParseField(s string) (Field, error) {
	for f, name := range fieldNames {
		if name == s {
			return f, nil
		}
	}
	return 0, fmt.Errorf("invoice: unknown field %q", s)
}

// IsRowField reports whether the field belongs to an invoice row.
func (f Field) IsRowField() bool {
	return f >= FieldItem && f <= FieldSupplier
}

// MarshalText implements encoding.TextMarshaler.
func (f Field) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *Field) UnmarshalText(b []byte) error {
	parsed, err := ParseField(string(b))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// Option is a raw autocomplete choice or typed value.
type Option struct {
	ItemName string  `json:"item_name,omitempty"`
	Barcode  string  `json:"barcode,omitempty"`
	Location string  `json:"location,omitempty"`
	Quantity float64 `json:"quantity,omitempty"`
	Name     string  `json:"name,omitempty"`
	Text     string  `json:"text,omitempty"`
}

// Resolved is what the panel displays for an option and what gets stored.
type Resolved struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

type resolver func(Option) Resolved

var resolvers = map[Field]resolver{
	FieldItem:             resolveItem,
	FieldLocation:         resolveLocation,
	FieldToLocation:       resolveLocation,
	FieldSupplier:         resolveName,
	FieldEmployee:         resolveName,
	FieldClient:           resolveName,
	FieldWarehouseManager: resolveName,
	FieldCustodyPerson:    resolveName,
	FieldPaymentMethod:    resolveText,
	FieldQuantity:         resolveText,
	FieldUnitPrice:        resolveText,
	FieldDescription:      resolveText,
	FieldPaid:             resolveText,
	FieldComment:          resolveText,
	FieldDate:             resolveText,
	FieldTime:             resolveText,
}

// Resolve maps an option to its label and stored value for the given field.
func Resolve(f Field, opt Option) (Resolved, error) {
	fn, ok := resolvers[f]
	if !ok {
		return Resolved{}, fmt.Errorf("invoice: no resolver for %s", f)
	}
	return fn(opt), nil
}

func resolveItem(opt Option) Resolved {
	name := strings.TrimSpace(opt.ItemName)
	label := name
	if barcode := strings.TrimSpace(opt.Barcode); barcode != "" {
		label = name + " - " + barcode
	}
	return Resolved{Label: label, Value: name}
}

func resolveLocation(opt Option) Resolved {
	loc := strings.TrimSpace(opt.Location)
	return Resolved{Label: fmt.Sprintf("%s (%s)", loc, formatQty(opt.Quantity)), Value: loc}
}

func resolveName(opt Option) Resolved {
	name := strings.TrimSpace(opt.Name)
	return Resolved{Label: name, Value: name}
}

func resolveText(opt Option) Resolved {
	return Resolved{Label: opt.Text, Value: opt.Text}
}

func formatQty(q float64) string {
	return strconv.FormatFloat(q, 'f', -1, 64)
}
