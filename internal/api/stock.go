package api

import (
	"context"
	"net/url"

	"github.com/odyssey-erp/stockdesk/internal/invoice"
)

// StockItem is a warehouse item with its stock per location.
type StockItem struct {
	ID        int64                   `json:"id"`
	ItemName  string                  `json:"item_name"`
	Barcode   string                  `json:"barcode"`
	Unit      string                  `json:"unit,omitempty"`
	Locations []invoice.StockLocation `json:"locations"`
}

// Option converts the stock item to an autocomplete option.
func (s StockItem) Option() invoice.ItemOption {
	return invoice.ItemOption{ItemID: s.ID, ItemName: s.ItemName, Barcode: s.Barcode, Locations: s.Locations}
}

// ListStock fetches the whole warehouse stock.
func (c *Client) ListStock(ctx context.Context) ([]StockItem, error) {
	var items []StockItem
	err := c.getJSON(ctx, "/warehouse", nil, &items)
	return items, err
}

// GetStock fetches one warehouse item.
func (c *Client) GetStock(ctx context.Context, id int64) (StockItem, error) {
	var item StockItem
	err := c.getJSON(ctx, idPath("/warehouse/%d", id), nil, &item)
	return item, err
}

// FIFOBatch is one received batch still in stock.
type FIFOBatch struct {
	Date      string  `json:"date"`
	Quantity  float64 `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
	InvoiceID int64   `json:"invoice_id,omitempty"`
}

// FIFOPriceDetail is the batch breakdown of an item at a location.
type FIFOPriceDetail struct {
	ItemID   int64       `json:"item_id"`
	Location string      `json:"location"`
	Batches  []FIFOBatch `json:"batches"`
}

// FIFOPriceDetail fetches the batch prices of an item at a location.
func (c *Client) FIFOPriceDetail(ctx context.Context, id int64, location string) (FIFOPriceDetail, error) {
	var detail FIFOPriceDetail
	q := url.Values{}
	if location != "" {
		q.Set("location", location)
	}
	err := c.getJSON(ctx, idPath("/warehouse/%d/fifo-price-detail", id), q, &detail)
	return detail, err
}
