// Package export renders invoices and lookups as CSV and Excel files and
// pre-checks uploaded Excel imports.
package export

import (
	"bufio"
	"encoding/csv"
	"errors"
	"io"
	"strconv"

	"github.com/odyssey-erp/stockdesk/internal/invoice"
)

const (
	csvFlushEvery = 200
	csvBufferSize = 32 * 1024
)

// utf8BOM makes spreadsheet apps detect UTF-8 so Arabic text survives.
const utf8BOM = "\ufeff"

var errStreamerClosed = errors.New("export: csv streamer not initialised")

type csvStreamer struct {
	buf          *bufio.Writer
	csv          *csv.Writer
	flushEvery   int
	pendingLines int
}

func newCSVStreamer(w io.Writer) *csvStreamer {
	buf := bufio.NewWriterSize(w, csvBufferSize)
	writer := csv.NewWriter(buf)
	writer.UseCRLF = true
	return &csvStreamer{buf: buf, csv: writer, flushEvery: csvFlushEvery}
}

func (s *csvStreamer) writeBOM() error {
	if s == nil || s.buf == nil {
		return errStreamerClosed
	}
	_, err := s.buf.WriteString(utf8BOM)
	return err
}

func (s *csvStreamer) writeRow(row []string) error {
	if s == nil || s.csv == nil {
		return errStreamerClosed
	}
	if err := s.csv.Write(row); err != nil {
		return err
	}
	s.pendingLines++
	if s.flushEvery > 0 && s.pendingLines >= s.flushEvery {
		return s.flush()
	}
	return nil
}

func (s *csvStreamer) flush() error {
	if s == nil || s.csv == nil || s.buf == nil {
		return errStreamerClosed
	}
	s.csv.Flush()
	if err := s.csv.Error(); err != nil {
		return err
	}
	if err := s.buf.Flush(); err != nil {
		return err
	}
	s.pendingLines = 0
	return nil
}

// invoiceHeader titles the flattened invoice line columns.
var invoiceHeader = []string{
	"رقم الفاتورة", "النوع", "التاريخ", "الموظف", "العميل", "الحالة",
	"الصنف", "الباركود", "الموقع", "الكمية", "سعر الوحدة", "الإجمالي", "الوصف",
}

func invoiceRecords(inv invoice.Invoice) [][]string {
	records := make([][]string, 0, len(inv.Items))
	for _, it := range inv.Items {
		records = append(records, []string{
			strconv.FormatInt(inv.ID, 10),
			string(inv.Type),
			inv.Date,
			inv.EmployeeName,
			inv.ClientName,
			string(inv.Status),
			it.ItemName,
			it.Barcode,
			it.Location,
			formatNumber(it.Quantity),
			formatNumber(it.UnitPrice),
			formatNumber(it.TotalPrice),
			it.Description,
		})
	}
	return records
}

// WriteInvoicesCSV streams one CSV row per invoice line.
func WriteInvoicesCSV(w io.Writer, invoices []invoice.Invoice) error {
	s := newCSVStreamer(w)
	if err := s.writeBOM(); err != nil {
		return err
	}
	if err := s.writeRow(invoiceHeader); err != nil {
		return err
	}
	for _, inv := range invoices {
		for _, rec := range invoiceRecords(inv) {
			if err := s.writeRow(rec); err != nil {
				return err
			}
		}
	}
	return s.flush()
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
