package invoice

import (
	"errors"
	"fmt"
)

// Level is the severity a notice is shown with.
type Level string

const (
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Rule rejections. Each is wrapped in a RuleError carrying the operator message.
var (
	ErrReadOnly         = errors.New("invoice: invoice is read-only")
	ErrRowOutOfRange    = errors.New("invoice: row out of range")
	ErrLocationRequired = errors.New("invoice: location must be selected first")
	ErrDuplicateLine    = errors.New("invoice: item already added at this location")
	ErrUnknownLocation  = errors.New("invoice: location not available for item")
	ErrPriceLocked      = errors.New("invoice: unit price is not editable for this invoice type")
	ErrSameLocation     = errors.New("invoice: destination equals source location")
	ErrFieldNotEditable = errors.New("invoice: field not editable for this invoice type")
	ErrItemRequired     = errors.New("invoice: item must be selected first")
	ErrReturnQuantity   = errors.New("invoice: return quantity out of range")
	ErrNotCustody       = errors.New("invoice: returns are only recorded on custody invoices")
)

// RuleError is a local validation failure surfaced to the operator as a notice.
// No state changes and no network call happen when one is returned.
type RuleError struct {
	Err     error
	Level   Level
	Field   Field
	Row     int
	Message string
}

func (e *RuleError) Error() string {
	return fmt.Sprintf("%s (row %d, %s)", e.Err.Error(), e.Row, e.Field)
}

func (e *RuleError) Unwrap() error {
	return e.Err
}

func reject(err error, level Level, field Field, row int, message string) *RuleError {
	return &RuleError{Err: err, Level: level, Field: field, Row: row, Message: message}
}

// Notice is a non-blocking message attached to an accepted change.
type Notice struct {
	Code    string `json:"code"`
	Level   Level  `json:"level"`
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// NoticeQuantityClamped is emitted when a quantity was reduced to the allowed maximum.
const NoticeQuantityClamped = "quantity_clamped"

// NoticeFromError converts a rejection to the notice shown by the panel.
func NoticeFromError(err error) (Notice, bool) {
	var ruleErr *RuleError
	if !errors.As(err, &ruleErr) {
		return Notice{}, false
	}
	return Notice{Code: code(ruleErr.Err), Level: ruleErr.Level, Row: ruleErr.Row, Message: ruleErr.Message}, true
}

func code(err error) string {
	switch {
	case errors.Is(err, ErrReadOnly):
		return "read_only"
	case errors.Is(err, ErrRowOutOfRange):
		return "row_out_of_range"
	case errors.Is(err, ErrLocationRequired):
		return "location_required"
	case errors.Is(err, ErrDuplicateLine):
		return "duplicate_item"
	case errors.Is(err, ErrUnknownLocation):
		return "unknown_location"
	case errors.Is(err, ErrPriceLocked):
		return "price_locked"
	case errors.Is(err, ErrSameLocation):
		return "same_location"
	case errors.Is(err, ErrFieldNotEditable):
		return "field_not_editable"
	case errors.Is(err, ErrItemRequired):
		return "item_required"
	case errors.Is(err, ErrReturnQuantity):
		return "return_quantity"
	case errors.Is(err, ErrNotCustody):
		return "not_custody"
	default:
		return "invalid"
	}
}
