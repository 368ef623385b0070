package invoice

import (
	"errors"
	"fmt"
)

// Type enumerates the supported invoice operations. The value is the Arabic
// label used by the upstream API.
type Type string

const (
	// TypeAddition records stock received from a supplier.
	TypeAddition Type = "اضافه"
	// TypePurchaseOrder records stock ordered from a supplier.
	TypePurchaseOrder Type = "طلب شراء"
	// TypeDisbursement issues stock to a recipient.
	TypeDisbursement Type = "صرف"
	// TypeTransfer moves stock between locations.
	TypeTransfer Type = "تحويل"
	// TypeCustody issues items on trust, subject to return.
	TypeCustody Type = "أمانات"
	// TypeReturn reverses lines of an original invoice.
	TypeReturn Type = "مرتجع"
	// TypeDamage writes stock off as damaged.
	TypeDamage Type = "توالف"
	// TypeReservation holds stock against future allocation.
	TypeReservation Type = "حجز"
)

// Types lists every invoice type in display order.
var Types = []Type{
	TypeAddition,
	TypePurchaseOrder,
	TypeDisbursement,
	TypeTransfer,
	TypeCustody,
	TypeReturn,
	TypeDamage,
	TypeReservation,
}

// ParseType validates a wire value.
func ParseType(s string) (Type, error) {
	for _, t := range Types {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownType, s)
}

// Status is the server-side invoice status. Return statuses are derived
// locally from item reconciliation.
type Status string

const (
	StatusDraft             Status = "draft"
	StatusConfirmed         Status = "confirmed"
	StatusPartiallyReturned Status = "partially_returned"
	StatusFullyReturned     Status = "fully_returned"
)

// Mode selects how an invoice is being worked on.
type Mode int

const (
	// ModeCreate builds a new invoice that is POSTed once.
	ModeCreate Mode = iota
	// ModeEdit edits an existing invoice that is PUT as a whole.
	ModeEdit
	// ModeView renders an invoice read-only.
	ModeView
)

func (m Mode) String() string {
	switch m {
	case ModeCreate:
		return "create"
	case ModeEdit:
		return "edit"
	case ModeView:
		return "view"
	default:
		return "unknown"
	}
}

// MarshalText encodes the mode by name.
func (m Mode) MarshalText() ([]byte, error) {
	if m < ModeCreate || m > ModeView {
		return nil, fmt.Errorf("invoice: invalid mode %d", int(m))
	}
	return []byte(m.String()), nil
}

// UnmarshalText decodes a mode name.
func (m *Mode) UnmarshalText(text []byte) error {
	for _, candidate := range []Mode{ModeCreate, ModeEdit, ModeView} {
		if candidate.String() == string(text) {
			*m = candidate
			return nil
		}
	}
	return fmt.Errorf("invoice: invalid mode %q", text)
}

// Invoice is the whole document edited by the panel.
type Invoice struct {
	ID                int64   `json:"id,omitempty"`
	Type              Type    `json:"type" validate:"required"`
	Date              string  `json:"date"`
	Time              string  `json:"time"`
	EmployeeName      string  `json:"employee_name"`
	ClientName        string  `json:"client_name"`
	WarehouseManager  string  `json:"warehouse_manager"`
	PaymentMethod     string  `json:"payment_method"`
	CustodyPerson     string  `json:"custody_person,omitempty"`
	Paid              float64 `json:"paid" validate:"gte=0"`
	TotalAmount       float64 `json:"total_amount"`
	Comment           string  `json:"comment"`
	Status            Status  `json:"status,omitempty"`
	OriginalInvoiceID int64   `json:"original_invoice_id,omitempty"`
	Items             []Item  `json:"items" validate:"required,min=1,dive"`
}

// Item is a single invoice row.
type Item struct {
	ItemID      int64   `json:"item_id,omitempty"`
	ItemName    string  `json:"item_name" validate:"required"`
	Barcode     string  `json:"barcode"`
	Location    string  `json:"location" validate:"required"`
	Quantity    float64 `json:"quantity" validate:"gt=0"`
	UnitPrice   float64 `json:"unit_price" validate:"gte=0"`
	TotalPrice  float64 `json:"total_price"`
	Description string  `json:"description"`

	SupplierName string `json:"supplier_name,omitempty"`
	FromLocation string `json:"from_location,omitempty"`
	ToLocation   string `json:"to_location,omitempty"`
	NewLocation  string `json:"new_location,omitempty"`

	TotalReturned          float64 `json:"total_returned,omitempty"`
	IsFullyReturned        bool    `json:"is_fully_returned,omitempty"`
	BorrowedToMainQuantity float64 `json:"borrowed_to_main_quantity,omitempty"`
	RemainingQuantity      float64 `json:"remaining_quantity,omitempty"`

	// Derived while editing, never sent upstream.
	MaxQuantity        float64         `json:"maxquantity,omitempty"`
	AvailableLocations []StockLocation `json:"availableLocations,omitempty"`
}

// StockLocation is the stock of one item at one warehouse location.
type StockLocation struct {
	Location string  `json:"location"`
	Quantity float64 `json:"quantity"`
	Price    float64 `json:"price"`
}

// ItemOption is an item picked from the stock autocomplete.
type ItemOption struct {
	ItemID    int64           `json:"item_id"`
	ItemName  string          `json:"item_name"`
	Barcode   string          `json:"barcode"`
	Locations []StockLocation `json:"locations"`
}

// NewInvoice returns an invoice in create mode with one empty row.
func NewInvoice(t Type) Invoice {
	return Invoice{Type: t, Status: StatusDraft, Items: []Item{{}}}
}

// Clone deep-copies the invoice so rule functions never alias the caller's rows.
func (inv Invoice) Clone() Invoice {
	out := inv
	out.Items = make([]Item, len(inv.Items))
	for i, it := range inv.Items {
		if it.AvailableLocations != nil {
			it.AvailableLocations = append([]StockLocation(nil), it.AvailableLocations...)
		}
		out.Items[i] = it
	}
	return out
}

// Payload strips derived editing state before the invoice is sent upstream.
func (inv Invoice) Payload() Invoice {
	out := inv.Clone()
	for i := range out.Items {
		out.Items[i].MaxQuantity = 0
		out.Items[i].AvailableLocations = nil
	}
	return out
}

// IsAdditionKind reports whether unit prices are entered by the operator.
func (t Type) IsAdditionKind() bool {
	return t == TypeAddition || t == TypePurchaseOrder
}

var (
	// ErrUnknownType indicates an invoice type outside the closed set.
	ErrUnknownType = errors.New("invoice: unknown invoice type")
	// ErrInvalidInvoice indicates save-time validation failure.
	ErrInvalidInvoice = errors.New("invoice: invalid invoice")
	// ErrNotFound indicates an unknown invoice.
	ErrNotFound = errors.New("invoice: not found")
)
