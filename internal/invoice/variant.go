package invoice

import (
	"fmt"

	"golang.org/x/text/language"
)

// VariantKind names the rendering variant of an invoice type.
type VariantKind string

const (
	KindAddition     VariantKind = "addition"
	KindReturn       VariantKind = "return"
	KindCustody      VariantKind = "custody"
	KindTransfer     VariantKind = "transfer"
	KindDisbursement VariantKind = "disbursement"
	KindReservation  VariantKind = "reservation"
	KindDamage       VariantKind = "damage"
)

// Column describes a table column. Field is zero for derived columns.
type Column struct {
	Key      string `json:"key"`
	Title    string `json:"title"`
	Field    Field  `json:"-"`
	Editable bool   `json:"editable"`
}

// Variant is the closed set of invoice renderings. Only this package can
// implement it, so type switches over the exported variants are exhaustive.
type Variant interface {
	Kind() VariantKind
	Columns() []Column
	Editable(f Field) bool
	sealed()
}

type base struct {
	kind    VariantKind
	columns []Column
	header  []Field
}

func (b base) Kind() VariantKind { return b.kind }

func (b base) Columns() []Column {
	out := make([]Column, len(b.columns))
	copy(out, b.columns)
	return out
}

func (b base) Editable(f Field) bool {
	for _, c := range b.columns {
		if c.Editable && c.Field == f {
			return true
		}
	}
	for _, h := range b.header {
		if h == f {
			return true
		}
	}
	return false
}

func (base) sealed() {}

type (
	AdditionVariant     struct{ base }
	ReturnVariant       struct{ base }
	CustodyVariant      struct{ base }
	TransferVariant     struct{ base }
	DisbursementVariant struct{ base }
	ReservationVariant  struct{ base }
	DamageVariant       struct{ base }
)

var (
	colItem        = Column{Key: "item_name", Title: "اسم الصنف", Field: FieldItem, Editable: true}
	colBarcode     = Column{Key: "barcode", Title: "الباركود"}
	colLocation    = Column{Key: "location", Title: "الموقع", Field: FieldLocation, Editable: true}
	colFrom        = Column{Key: "from_location", Title: "من موقع", Field: FieldLocation, Editable: true}
	colTo          = Column{Key: "to_location", Title: "إلى موقع", Field: FieldToLocation, Editable: true}
	colSupplier    = Column{Key: "supplier_name", Title: "المورد", Field: FieldSupplier, Editable: true}
	colMax         = Column{Key: "maxquantity", Title: "الكمية المتاحة"}
	colQuantity    = Column{Key: "quantity", Title: "الكمية", Field: FieldQuantity, Editable: true}
	colPriceEdit   = Column{Key: "unit_price", Title: "سعر الوحدة", Field: FieldUnitPrice, Editable: true}
	colPrice       = Column{Key: "unit_price", Title: "سعر الوحدة", Field: FieldUnitPrice}
	colTotal       = Column{Key: "total_price", Title: "الإجمالي"}
	colReturned    = Column{Key: "total_returned", Title: "المرتجع"}
	colFully       = Column{Key: "is_fully_returned", Title: "تم الإرجاع بالكامل"}
	colBorrowed    = Column{Key: "borrowed_to_main_quantity", Title: "المخصوم"}
	colRemaining   = Column{Key: "remaining_quantity", Title: "المتبقي"}
	colDescription = Column{Key: "description", Title: "الوصف", Field: FieldDescription, Editable: true}
)

var commonHeader = []Field{FieldEmployee, FieldWarehouseManager, FieldComment, FieldDate, FieldTime}

func header(extra ...Field) []Field {
	return append(append([]Field(nil), commonHeader...), extra...)
}

var (
	additionVariant = AdditionVariant{base{
		kind:    KindAddition,
		columns: []Column{colItem, colBarcode, colLocation, colSupplier, colQuantity, colPriceEdit, colTotal, colDescription},
		header:  header(FieldClient, FieldPaid, FieldPaymentMethod),
	}}
	returnVariant = ReturnVariant{base{
		kind:    KindReturn,
		columns: []Column{colItem, colBarcode, colLocation, colMax, colQuantity, colPrice, colTotal, colDescription},
		header:  header(FieldClient, FieldPaid, FieldPaymentMethod),
	}}
	custodyVariant = CustodyVariant{base{
		kind:    KindCustody,
		columns: []Column{colItem, colBarcode, colLocation, colMax, colQuantity, colPrice, colTotal, colReturned, colFully, colDescription},
		header:  header(FieldClient, FieldCustodyPerson),
	}}
	transferVariant = TransferVariant{base{
		kind:    KindTransfer,
		columns: []Column{colItem, colBarcode, colFrom, colTo, colMax, colQuantity, colPrice, colTotal, colDescription},
		header:  header(),
	}}
	disbursementVariant = DisbursementVariant{base{
		kind:    KindDisbursement,
		columns: []Column{colItem, colBarcode, colLocation, colMax, colQuantity, colPrice, colTotal, colDescription},
		header:  header(FieldClient, FieldPaid, FieldPaymentMethod),
	}}
	reservationVariant = ReservationVariant{base{
		kind:    KindReservation,
		columns: []Column{colItem, colBarcode, colLocation, colMax, colQuantity, colPrice, colTotal, colBorrowed, colRemaining, colDescription},
		header:  header(FieldClient),
	}}
	damageVariant = DamageVariant{base{
		kind:    KindDamage,
		columns: []Column{colItem, colBarcode, colLocation, colMax, colQuantity, colPrice, colTotal, colDescription},
		header:  header(),
	}}
)

// VariantFor maps an invoice type to its rendering variant.
func VariantFor(t Type) (Variant, error) {
	switch t {
	case TypeAddition, TypePurchaseOrder:
		return additionVariant, nil
	case TypeReturn:
		return returnVariant, nil
	case TypeCustody:
		return custodyVariant, nil
	case TypeTransfer:
		return transferVariant, nil
	case TypeDisbursement:
		return disbursementVariant, nil
	case TypeReservation:
		return reservationVariant, nil
	case TypeDamage:
		return damageVariant, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, string(t))
	}
}

// UnknownTypeMessage is shown in place of the table for unsupported types.
const UnknownTypeMessage = "نوع فاتورة غير معروف"

// Table is the assembled view of an invoice for the panel.
type Table struct {
	Kind     VariantKind `json:"kind"`
	Type     Type        `json:"type"`
	Mode     string      `json:"mode"`
	ReadOnly bool        `json:"read_only"`
	Columns  []Column    `json:"columns"`
	Rows     []TableRow  `json:"rows"`
	Summary  Summary     `json:"summary"`
	Status   Status      `json:"status,omitempty"`
}

// TableRow is one rendered row. Locked rows reject quantity and price edits.
type TableRow struct {
	Index       int         `json:"index"`
	Item        Item        `json:"item"`
	Label       string      `json:"label"`
	Locked      bool        `json:"locked"`
	ReturnState ReturnState `json:"return_state,omitempty"`
}

// BuildTable assembles the rows and columns for the invoice in the given mode.
func BuildTable(inv Invoice, mode Mode, tag language.Tag) (Table, error) {
	v, err := VariantFor(inv.Type)
	if err != nil {
		return Table{}, err
	}
	readOnly := mode == ModeView
	cols := v.Columns()
	if readOnly {
		for i := range cols {
			cols[i].Editable = false
		}
	}
	rows := make([]TableRow, len(inv.Items))
	for i, it := range inv.Items {
		label, _ := Resolve(FieldItem, Option{ItemName: it.ItemName, Barcode: it.Barcode})
		row := TableRow{Index: i, Item: it, Label: label.Label, Locked: readOnly || it.Location == ""}
		if _, ok := v.(CustodyVariant); ok {
			row.ReturnState = ReturnStateOf(it)
		}
		rows[i] = row
	}
	return Table{
		Kind:     v.Kind(),
		Type:     inv.Type,
		Mode:     mode.String(),
		ReadOnly: readOnly,
		Columns:  cols,
		Rows:     rows,
		Summary:  Summarize(inv, tag),
		Status:   inv.Status,
	}, nil
}
