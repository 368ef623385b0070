package invoice

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FieldError is one save-time validation failure.
type FieldError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// ValidationError lists every problem found before saving.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Path+": "+f.Message)
	}
	return fmt.Sprintf("%s: %s", ErrInvalidInvoice.Error(), strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInvoice }

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

var tagMessages = map[string]string{
	"required": "حقل مطلوب",
	"min":      "يجب إضافة صنف واحد على الأقل",
	"gt":       "يجب أن تكون القيمة أكبر من صفر",
	"gte":      "لا يمكن أن تكون القيمة سالبة",
}

// ValidateForSave checks the invoice before it is POSTed or PUT.
func ValidateForSave(inv Invoice) error {
	var fields []FieldError
	if err := validate.Struct(inv); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		for _, fe := range verrs {
			msg, ok := tagMessages[fe.Tag()]
			if !ok {
				msg = "قيمة غير صالحة"
			}
			fields = append(fields, FieldError{Path: fieldPath(fe.Namespace()), Message: msg})
		}
	}
	if _, err := VariantFor(inv.Type); err != nil && inv.Type != "" {
		fields = append(fields, FieldError{Path: "type", Message: UnknownTypeMessage})
	}
	for i, it := range inv.Items {
		if it.MaxQuantity > 0 && it.Quantity > it.MaxQuantity && !inv.Type.IsAdditionKind() {
			fields = append(fields, FieldError{Path: fmt.Sprintf("items[%d].quantity", i), Message: "الكمية أكبر من المتاح"})
		}
		if inv.Type == TypeTransfer {
			if it.ToLocation == "" {
				fields = append(fields, FieldError{Path: fmt.Sprintf("items[%d].to_location", i), Message: "حقل مطلوب"})
			} else if sameKey(it.ToLocation, it.Location) {
				fields = append(fields, FieldError{Path: fmt.Sprintf("items[%d].to_location", i), Message: "لا يمكن التحويل إلى نفس الموقع"})
			}
		}
	}
	if inv.Type == TypeReturn && inv.OriginalInvoiceID == 0 {
		fields = append(fields, FieldError{Path: "original_invoice_id", Message: "حقل مطلوب"})
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// fieldPath turns "Invoice.items[0].item_name" into "items[0].item_name".
func fieldPath(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}
