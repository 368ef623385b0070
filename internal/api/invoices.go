package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/odyssey-erp/stockdesk/internal/invoice"
)

// GetInvoice fetches one invoice.
func (c *Client) GetInvoice(ctx context.Context, id int64) (invoice.Invoice, error) {
	var inv invoice.Invoice
	err := c.getJSON(ctx, idPath("/invoices/%d", id), nil, &inv)
	return inv, err
}

// ListInvoices fetches the invoices of one type.
func (c *Client) ListInvoices(ctx context.Context, t invoice.Type) ([]invoice.Invoice, error) {
	var list []invoice.Invoice
	err := c.getJSON(ctx, "/invoices", url.Values{"type": {string(t)}}, &list)
	return list, err
}

// CreateInvoice posts a new invoice.
func (c *Client) CreateInvoice(ctx context.Context, inv invoice.Invoice) (invoice.Invoice, error) {
	var saved invoice.Invoice
	err := c.doJSON(ctx, http.MethodPost, "/invoices", inv, &saved)
	return saved, err
}

// UpdateInvoice replaces an invoice as a whole document.
func (c *Client) UpdateInvoice(ctx context.Context, inv invoice.Invoice) (invoice.Invoice, error) {
	var saved invoice.Invoice
	err := c.doJSON(ctx, http.MethodPut, idPath("/invoices/%d", inv.ID), inv, &saved)
	return saved, err
}

// DeleteInvoice deletes an invoice.
func (c *Client) DeleteInvoice(ctx context.Context, id int64) error {
	return c.doJSON(ctx, http.MethodDelete, idPath("/invoices/%d", id), nil, nil)
}

// ConfirmInvoice confirms an invoice.
func (c *Client) ConfirmInvoice(ctx context.Context, id int64) error {
	return c.doJSON(ctx, http.MethodPost, idPath("/invoices/%d/confirm", id), nil, nil)
}

// ReturnWarranty records a custody return.
func (c *Client) ReturnWarranty(ctx context.Context, id int64, req invoice.ReturnRequest) error {
	return c.doJSON(ctx, http.MethodPost, idPath("/invoices/%d/return-warranty", id), req, nil)
}

// ReturnWarrantyStatus fetches the per-line return aggregates of a custody invoice.
func (c *Client) ReturnWarrantyStatus(ctx context.Context, id int64) ([]invoice.ReturnStatus, error) {
	var body struct {
		Items []invoice.ReturnStatus `json:"items"`
	}
	err := c.getJSON(ctx, idPath("/invoices/%d/return-warranty-status", id), nil, &body)
	return body.Items, err
}

// BookingDeductions fetches deductions taken against a reservation invoice.
func (c *Client) BookingDeductions(ctx context.Context, id int64) ([]invoice.Deduction, error) {
	var body struct {
		Items []invoice.Deduction `json:"items"`
	}
	err := c.getJSON(ctx, idPath("/invoices/%d/booking-deductions", id), nil, &body)
	return body.Items, err
}

// PriceReportRow is one line of the price report.
type PriceReportRow struct {
	ItemName     string  `json:"item_name"`
	Barcode      string  `json:"barcode"`
	Location     string  `json:"location"`
	Quantity     float64 `json:"quantity"`
	AveragePrice float64 `json:"average_price"`
	LastPrice    float64 `json:"last_price"`
}

// PriceReportFilter narrows the price report.
type PriceReportFilter struct {
	ItemName string
	From     string
	To       string
}

// PriceReport fetches the price report.
func (c *Client) PriceReport(ctx context.Context, filter PriceReportFilter) ([]PriceReportRow, error) {
	q := url.Values{}
	if filter.ItemName != "" {
		q.Set("item_name", filter.ItemName)
	}
	if filter.From != "" {
		q.Set("from", filter.From)
	}
	if filter.To != "" {
		q.Set("to", filter.To)
	}
	var rows []PriceReportRow
	err := c.getJSON(ctx, "/invoices/price-report", q, &rows)
	return rows, err
}

// LastInvoiceID returns the id of the most recent invoice, used to number new ones.
func (c *Client) LastInvoiceID(ctx context.Context) (int64, error) {
	var body struct {
		LastID int64 `json:"last_id"`
	}
	err := c.getJSON(ctx, "/invoices/last-id", nil, &body)
	return body.LastID, err
}
