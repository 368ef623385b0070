package invoice

import (
	"fmt"
	"strings"
)

// Change is a single operator edit. Which payload member is read depends on Field.
type Change struct {
	Row    int
	Field  Field
	Item   *ItemOption
	Text   string
	Number float64
}

// SelectItem builds an item selection change.
func SelectItem(row int, opt ItemOption) Change {
	return Change{Row: row, Field: FieldItem, Item: &opt}
}

// SetLocation builds a location change.
func SetLocation(row int, location string) Change {
	return Change{Row: row, Field: FieldLocation, Text: location}
}

// SetQuantity builds a quantity change.
func SetQuantity(row int, qty float64) Change {
	return Change{Row: row, Field: FieldQuantity, Number: qty}
}

// SetUnitPrice builds a unit price change.
func SetUnitPrice(row int, price float64) Change {
	return Change{Row: row, Field: FieldUnitPrice, Number: price}
}

// SetToLocation builds a transfer destination change.
func SetToLocation(row int, location string) Change {
	return Change{Row: row, Field: FieldToLocation, Text: location}
}

// SetText builds a change for a free-text field.
func SetText(row int, f Field, text string) Change {
	return Change{Row: row, Field: f, Text: text}
}

// SetPaid builds a change of the paid amount.
func SetPaid(amount float64) Change {
	return Change{Field: FieldPaid, Number: amount}
}

// Outcome is the result of an accepted change.
type Outcome struct {
	Invoice Invoice  `json:"invoice"`
	Notices []Notice `json:"notices,omitempty"`
}

// Editor applies field-change rules. It holds no mutable state; every call
// returns a new invoice and never touches the one passed in.
type Editor struct {
	mode     Mode
	original *Invoice
}

// NewEditor builds an editor. original is the referenced invoice for return
// invoices (and optionally transfers) and bounds their quantities.
func NewEditor(mode Mode, original *Invoice) Editor {
	return Editor{mode: mode, original: original}
}

// Mode reports the editing mode.
func (e Editor) Mode() Mode { return e.mode }

// Apply validates and applies a change.
func (e Editor) Apply(inv Invoice, ch Change) (Outcome, error) {
	if e.mode == ModeView {
		return Outcome{Invoice: inv}, reject(ErrReadOnly, LevelWarning, ch.Field, ch.Row, "الفاتورة للعرض فقط")
	}
	v, err := VariantFor(inv.Type)
	if err != nil {
		return Outcome{Invoice: inv}, err
	}
	if ch.Field.IsRowField() && (ch.Row < 0 || ch.Row >= len(inv.Items)) {
		return Outcome{Invoice: inv}, reject(ErrRowOutOfRange, LevelError, ch.Field, ch.Row, "الصف غير موجود")
	}
	if !v.Editable(ch.Field) {
		if ch.Field == FieldUnitPrice {
			return Outcome{Invoice: inv}, reject(ErrPriceLocked, LevelWarning, ch.Field, ch.Row, "لا يمكن تعديل السعر في هذا النوع من الفواتير")
		}
		return Outcome{Invoice: inv}, reject(ErrFieldNotEditable, LevelWarning, ch.Field, ch.Row, "لا يمكن تعديل هذا الحقل")
	}

	out := inv.Clone()
	var notices []Notice
	switch ch.Field {
	case FieldItem:
		err = e.selectItem(&out, ch)
	case FieldLocation:
		err = e.setLocation(&out, ch.Row, ch.Text)
	case FieldQuantity:
		notices, err = e.setQuantity(&out, ch.Row, ch.Number)
	case FieldUnitPrice:
		err = e.setUnitPrice(&out, ch.Row, ch.Number)
	case FieldToLocation:
		err = e.setToLocation(&out, ch.Row, ch.Text)
	case FieldDescription:
		out.Items[ch.Row].Description = ch.Text
	case FieldSupplier:
		out.Items[ch.Row].SupplierName = strings.TrimSpace(ch.Text)
	case FieldPaid:
		out.Paid = nonNegative(ch.Number)
	case FieldEmployee:
		out.EmployeeName = strings.TrimSpace(ch.Text)
	case FieldClient:
		out.ClientName = strings.TrimSpace(ch.Text)
	case FieldWarehouseManager:
		out.WarehouseManager = strings.TrimSpace(ch.Text)
	case FieldPaymentMethod:
		out.PaymentMethod = strings.TrimSpace(ch.Text)
	case FieldCustodyPerson:
		out.CustodyPerson = strings.TrimSpace(ch.Text)
	case FieldComment:
		out.Comment = ch.Text
	case FieldDate:
		out.Date = strings.TrimSpace(ch.Text)
	case FieldTime:
		out.Time = strings.TrimSpace(ch.Text)
	default:
		err = fmt.Errorf("invoice: unhandled field %s", ch.Field)
	}
	if err != nil {
		return Outcome{Invoice: inv}, err
	}
	return Outcome{Invoice: out, Notices: notices}, nil
}

func (e Editor) selectItem(inv *Invoice, ch Change) error {
	if ch.Item == nil || strings.TrimSpace(ch.Item.ItemName) == "" {
		return reject(ErrItemRequired, LevelWarning, ch.Field, ch.Row, "يجب اختيار الصنف")
	}
	opt := ch.Item
	it := &inv.Items[ch.Row]
	it.ItemID = opt.ItemID
	it.ItemName = strings.TrimSpace(opt.ItemName)
	it.Barcode = strings.TrimSpace(opt.Barcode)
	it.Location = ""
	it.FromLocation = ""
	it.ToLocation = ""
	it.NewLocation = ""
	it.Quantity = 0
	it.UnitPrice = 0
	it.TotalPrice = 0
	it.MaxQuantity = 0
	it.AvailableLocations = append([]StockLocation(nil), opt.Locations...)
	inv.TotalAmount = TotalAmount(inv.Items)
	return nil
}

func (e Editor) setLocation(inv *Invoice, row int, location string) error {
	location = strings.TrimSpace(location)
	it := &inv.Items[row]
	if it.ItemName == "" {
		return reject(ErrItemRequired, LevelWarning, FieldLocation, row, "يجب اختيار الصنف قبل الموقع")
	}
	if location != "" {
		for j, other := range inv.Items {
			if j != row && duplicateLine(other, it.ItemName, it.Barcode, location) {
				return reject(ErrDuplicateLine, LevelWarning, FieldLocation, row, "هذا الصنف مضاف بالفعل في نفس الموقع")
			}
		}
	}

	maxQty, price, err := e.locationBounds(inv.Type, *it, row, location)
	if err != nil {
		return err
	}

	it.Location = location
	it.Quantity = 0
	it.TotalPrice = 0
	it.MaxQuantity = maxQty
	if !inv.Type.IsAdditionKind() {
		it.UnitPrice = price
	}
	if inv.Type == TypeTransfer {
		it.FromLocation = location
		if sameKey(it.ToLocation, location) {
			it.ToLocation = ""
			it.NewLocation = ""
		}
	}
	inv.TotalAmount = TotalAmount(inv.Items)
	return nil
}

// locationBounds resolves the max quantity and suggested price for a row at location.
func (e Editor) locationBounds(t Type, it Item, row int, location string) (float64, float64, error) {
	if location == "" {
		return 0, 0, nil
	}
	if e.original != nil && (t == TypeReturn || t == TypeTransfer) {
		for _, line := range e.original.Items {
			if sameLine(line, it.ItemName, it.Barcode, location) {
				return line.Quantity, line.UnitPrice, nil
			}
		}
		return 0, 0, reject(ErrUnknownLocation, LevelWarning, FieldLocation, row, "الصنف غير موجود في الفاتورة الأصلية بهذا الموقع")
	}
	for _, loc := range it.AvailableLocations {
		if sameKey(loc.Location, location) {
			if t.IsAdditionKind() {
				return 0, loc.Price, nil
			}
			return loc.Quantity, loc.Price, nil
		}
	}
	if t.IsAdditionKind() {
		// stock-in may open a location that holds none of the item yet
		return 0, 0, nil
	}
	return 0, 0, reject(ErrUnknownLocation, LevelWarning, FieldLocation, row, "الموقع غير متاح لهذا الصنف")
}

func (e Editor) setQuantity(inv *Invoice, row int, qty float64) ([]Notice, error) {
	it := &inv.Items[row]
	if it.Location == "" {
		return nil, reject(ErrLocationRequired, LevelWarning, FieldQuantity, row, "يجب اختيار الموقع أولاً")
	}
	var notices []Notice
	q := nonNegative(qty)
	if !inv.Type.IsAdditionKind() && q > it.MaxQuantity {
		q = it.MaxQuantity
		notices = append(notices, Notice{
			Code:    NoticeQuantityClamped,
			Level:   LevelWarning,
			Row:     row,
			Message: fmt.Sprintf("الكمية المتاحة %s فقط", formatQty(it.MaxQuantity)),
		})
	}
	if inv.Type == TypeCustody && q < it.TotalReturned {
		q = it.TotalReturned
		notices = append(notices, Notice{
			Code:    NoticeQuantityClamped,
			Level:   LevelWarning,
			Row:     row,
			Message: fmt.Sprintf("لا يمكن أن تقل الكمية عن المرتجع %s", formatQty(it.TotalReturned)),
		})
	}
	it.Quantity = q
	it.TotalPrice = LineTotal(it.Quantity, it.UnitPrice)
	inv.TotalAmount = TotalAmount(inv.Items)
	return notices, nil
}

func (e Editor) setUnitPrice(inv *Invoice, row int, price float64) error {
	it := &inv.Items[row]
	if it.Location == "" {
		return reject(ErrLocationRequired, LevelWarning, FieldUnitPrice, row, "يجب اختيار الموقع أولاً")
	}
	it.UnitPrice = nonNegative(price)
	it.TotalPrice = LineTotal(it.Quantity, it.UnitPrice)
	inv.TotalAmount = TotalAmount(inv.Items)
	return nil
}

func (e Editor) setToLocation(inv *Invoice, row int, location string) error {
	location = strings.TrimSpace(location)
	it := &inv.Items[row]
	if it.Location == "" {
		return reject(ErrLocationRequired, LevelWarning, FieldToLocation, row, "يجب اختيار موقع المصدر أولاً")
	}
	from := it.FromLocation
	if from == "" {
		from = it.Location
	}
	if location != "" && sameKey(location, from) {
		return reject(ErrSameLocation, LevelError, FieldToLocation, row, "لا يمكن التحويل إلى نفس الموقع")
	}
	it.ToLocation = location
	it.NewLocation = location
	return nil
}

// AddRow appends an empty row.
func (e Editor) AddRow(inv Invoice) (Invoice, error) {
	if e.mode == ModeView {
		return inv, reject(ErrReadOnly, LevelWarning, 0, len(inv.Items), "الفاتورة للعرض فقط")
	}
	out := inv.Clone()
	out.Items = append(out.Items, Item{})
	out.TotalAmount = TotalAmount(out.Items)
	return out, nil
}

// RemoveRow deletes a row. Removing the only row leaves one empty row.
func (e Editor) RemoveRow(inv Invoice, row int) (Invoice, error) {
	if e.mode == ModeView {
		return inv, reject(ErrReadOnly, LevelWarning, 0, row, "الفاتورة للعرض فقط")
	}
	if row < 0 || row >= len(inv.Items) {
		return inv, reject(ErrRowOutOfRange, LevelError, 0, row, "الصف غير موجود")
	}
	out := inv.Clone()
	out.Items = append(out.Items[:row], out.Items[row+1:]...)
	if len(out.Items) == 0 {
		out.Items = []Item{{}}
	}
	out.TotalAmount = TotalAmount(out.Items)
	return out, nil
}
