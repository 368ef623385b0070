package export

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/odyssey-erp/stockdesk/internal/api"
	"github.com/odyssey-erp/stockdesk/internal/invoice"
)

const (
	invoiceSheet = "الفواتير"
	lookupSheet  = "البيانات"
	// MaxImportRows bounds an accepted import workbook.
	MaxImportRows = 5000
)

// ErrEmptyWorkbook reports an import without sheets or data rows.
var ErrEmptyWorkbook = errors.New("export: workbook has no data")

// lookupHeader titles lookup columns. Imports accept either language.
var lookupHeader = []struct {
	arabic  string
	english string
}{
	{"الاسم", "name"},
	{"الوصف", "description"},
	{"الهاتف", "phone"},
	{"العنوان", "address"},
}

// WriteInvoicesXLSX writes invoice lines to a right-to-left workbook.
func WriteInvoicesXLSX(w io.Writer, invoices []invoice.Invoice) error {
	f, err := newRTLWorkbook(invoiceSheet)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	if err := writeHeader(f, invoiceSheet, invoiceHeader); err != nil {
		return err
	}
	row := 2
	for _, inv := range invoices {
		for _, it := range inv.Items {
			values := []any{
				inv.ID, string(inv.Type), inv.Date, inv.EmployeeName, inv.ClientName, string(inv.Status),
				it.ItemName, it.Barcode, it.Location, it.Quantity, it.UnitPrice, it.TotalPrice, it.Description,
			}
			if err := setRow(f, invoiceSheet, row, values); err != nil {
				return err
			}
			row++
		}
	}
	return f.Write(w)
}

// WriteLookupsXLSX writes a lookup collection to a workbook shaped like the
// one the import endpoint accepts.
func WriteLookupsXLSX(w io.Writer, lookups []api.Lookup) error {
	f, err := newRTLWorkbook(lookupSheet)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	titles := make([]string, len(lookupHeader))
	for i, h := range lookupHeader {
		titles[i] = h.arabic
	}
	if err := writeHeader(f, lookupSheet, titles); err != nil {
		return err
	}
	for i, l := range lookups {
		if err := setRow(f, lookupSheet, i+2, []any{l.Name, l.Description, l.Phone, l.Address}); err != nil {
			return err
		}
	}
	return f.Write(w)
}

// ImportIssue is a problem found in one row of an upload.
type ImportIssue struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// ImportCheck is the outcome of pre-checking an upload.
type ImportCheck struct {
	Lookups []api.Lookup  `json:"lookups"`
	Issues  []ImportIssue `json:"issues,omitempty"`
}

// OK reports whether the upload can be forwarded.
func (c ImportCheck) OK() bool {
	return len(c.Issues) == 0
}

// ReadLookups parses the first sheet of an uploaded workbook. The first row
// holds headers. Rows without a name or repeating an earlier name are reported.
func ReadLookups(r io.Reader) (ImportCheck, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return ImportCheck{}, fmt.Errorf("export: unable to read excel file: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return ImportCheck{}, ErrEmptyWorkbook
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return ImportCheck{}, fmt.Errorf("export: unable to read rows: %w", err)
	}
	if len(rows) < 2 {
		return ImportCheck{}, ErrEmptyWorkbook
	}
	if len(rows)-1 > MaxImportRows {
		return ImportCheck{}, fmt.Errorf("export: workbook has %d rows, limit is %d", len(rows)-1, MaxImportRows)
	}

	columns := make([]int, len(lookupHeader))
	for i := range columns {
		columns[i] = -1
	}
	for j, h := range rows[0] {
		h = strings.TrimSpace(h)
		for i, want := range lookupHeader {
			if h == want.arabic || strings.EqualFold(h, want.english) {
				columns[i] = j
			}
		}
	}
	if columns[0] < 0 {
		return ImportCheck{}, fmt.Errorf("export: missing %q column", lookupHeader[0].arabic)
	}

	var check ImportCheck
	seen := make(map[string]int)
	for i, row := range rows[1:] {
		rowNum := i + 2
		cell := func(col int) string {
			if col < 0 || col >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[col])
		}
		l := api.Lookup{Name: cell(columns[0]), Description: cell(columns[1]), Phone: cell(columns[2]), Address: cell(columns[3])}
		if l == (api.Lookup{}) {
			continue
		}
		if l.Name == "" {
			check.Issues = append(check.Issues, ImportIssue{Row: rowNum, Message: "الاسم مطلوب"})
			continue
		}
		key := strings.ToLower(l.Name)
		if first, ok := seen[key]; ok {
			check.Issues = append(check.Issues, ImportIssue{Row: rowNum, Message: fmt.Sprintf("الاسم مكرر مع الصف %d", first)})
			continue
		}
		seen[key] = rowNum
		check.Lookups = append(check.Lookups, l)
	}
	if len(check.Lookups) == 0 && len(check.Issues) == 0 {
		return ImportCheck{}, ErrEmptyWorkbook
	}
	return check, nil
}

func newRTLWorkbook(sheet string) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		_ = f.Close()
		return nil, err
	}
	rtl := true
	if err := f.SetSheetView(sheet, 0, &excelize.ViewOptions{RightToLeft: &rtl}); err != nil {
		_ = f.Close()
		return nil, err
	}
	return f, nil
}

func writeHeader(f *excelize.File, sheet string, titles []string) error {
	values := make([]any, len(titles))
	for i, t := range titles {
		values[i] = t
	}
	if err := setRow(f, sheet, 1, values); err != nil {
		return err
	}
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	return f.SetRowStyle(sheet, 1, 1, style)
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}
