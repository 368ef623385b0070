package invoice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// API abstracts the upstream invoice endpoints.
type API interface {
	GetInvoice(ctx context.Context, id int64) (Invoice, error)
	ListInvoices(ctx context.Context, t Type) ([]Invoice, error)
	CreateInvoice(ctx context.Context, inv Invoice) (Invoice, error)
	UpdateInvoice(ctx context.Context, inv Invoice) (Invoice, error)
	DeleteInvoice(ctx context.Context, id int64) error
	ConfirmInvoice(ctx context.Context, id int64) error
	ReturnWarranty(ctx context.Context, id int64, req ReturnRequest) error
	ReturnWarrantyStatus(ctx context.Context, id int64) ([]ReturnStatus, error)
	BookingDeductions(ctx context.Context, id int64) ([]Deduction, error)
}

// StockSource provides the items that can be picked with their locations.
type StockSource interface {
	Stock(ctx context.Context) ([]ItemOption, error)
}

// stockInvalidator is implemented by stock sources that cache; it is called
// after writes that move stock.
type stockInvalidator interface {
	Invalidate(ctx context.Context) error
}

// ErrUnknownItem indicates an item that is not in the warehouse stock.
var ErrUnknownItem = errors.New("invoice: item not in stock")

// Service coordinates drafts, rules and the upstream API.
type Service struct {
	api    API
	stock  StockSource
	drafts DraftStore
	logger *slog.Logger
	clock  func() time.Time
}

// NewService builds Service.
func NewService(api API, stock StockSource, drafts DraftStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{api: api, stock: stock, drafts: drafts, logger: logger, clock: func() time.Time { return time.Now().UTC() }}
}

// NewDraftInput describes a draft to start.
type NewDraftInput struct {
	Type              Type  `json:"type" validate:"required"`
	OriginalInvoiceID int64 `json:"original_invoice_id"`
}

// NewDraft starts a create-mode draft with one empty row. Return invoices load
// the original they reverse.
func (s *Service) NewDraft(ctx context.Context, owner string, input NewDraftInput) (Draft, error) {
	if _, err := VariantFor(input.Type); err != nil {
		return Draft{}, err
	}
	d := Draft{ID: uuid.NewString(), Mode: ModeCreate, Invoice: NewInvoice(input.Type)}
	if input.Type == TypeReturn {
		if input.OriginalInvoiceID == 0 {
			return Draft{}, &ValidationError{Fields: []FieldError{{Path: "original_invoice_id", Message: "حقل مطلوب"}}}
		}
		original, err := s.api.GetInvoice(ctx, input.OriginalInvoiceID)
		if err != nil {
			return Draft{}, fmt.Errorf("load original invoice: %w", err)
		}
		d.Original = &original
		d.Invoice.OriginalInvoiceID = original.ID
		d.Invoice.ClientName = original.ClientName
	}
	if err := s.save(ctx, owner, &d); err != nil {
		return Draft{}, err
	}
	return d, nil
}

// OpenEdit loads an invoice into an edit-mode draft with its derived row state.
func (s *Service) OpenEdit(ctx context.Context, owner string, id int64) (Draft, error) {
	inv, err := s.load(ctx, id)
	if err != nil {
		return Draft{}, err
	}
	d := Draft{ID: uuid.NewString(), Mode: ModeEdit, Invoice: inv}
	if inv.OriginalInvoiceID != 0 && inv.Type == TypeReturn {
		original, err := s.api.GetInvoice(ctx, inv.OriginalInvoiceID)
		if err != nil {
			return Draft{}, fmt.Errorf("load original invoice: %w", err)
		}
		d.Original = &original
	}
	if err := s.attachStock(ctx, &d); err != nil {
		return Draft{}, err
	}
	if err := ctx.Err(); err != nil {
		return Draft{}, err
	}
	if err := s.save(ctx, owner, &d); err != nil {
		return Draft{}, err
	}
	return d, nil
}

// View loads an invoice read-only, enriched with return or deduction status.
func (s *Service) View(ctx context.Context, id int64) (Invoice, error) {
	return s.load(ctx, id)
}

// List returns invoices of one type.
func (s *Service) List(ctx context.Context, t Type) ([]Invoice, error) {
	if _, err := VariantFor(t); err != nil {
		return nil, err
	}
	return s.api.ListInvoices(ctx, t)
}

// Draft loads a stored draft.
func (s *Service) Draft(ctx context.Context, owner, id string) (Draft, error) {
	return s.drafts.Load(ctx, owner, id)
}

// DiscardDraft removes a draft without saving.
func (s *Service) DiscardDraft(ctx context.Context, owner, id string) error {
	return s.drafts.Delete(ctx, owner, id)
}

// Apply runs one change against a draft. A rejected change leaves the stored
// draft untouched and returns a *RuleError.
func (s *Service) Apply(ctx context.Context, owner, id string, ch Change) (Draft, []Notice, error) {
	d, err := s.drafts.Load(ctx, owner, id)
	if err != nil {
		return Draft{}, nil, err
	}
	if d.Mode != ModeView && ch.Field == FieldItem && ch.Item != nil {
		opt, err := s.LookupItem(ctx, d.Invoice.Type, *ch.Item)
		if err != nil {
			return d, nil, err
		}
		ch.Item = &opt
	}
	outcome, err := d.Editor().Apply(d.Invoice, ch)
	if err != nil {
		return d, nil, err
	}
	d.Invoice = outcome.Invoice
	if err := s.save(ctx, owner, &d); err != nil {
		return Draft{}, nil, err
	}
	return d, outcome.Notices, nil
}

// LookupItem resolves a picked item against the warehouse stock and replaces
// its locations with the server's list. Addition kinds may pick items with no
// stock yet; those pass through unchanged.
func (s *Service) LookupItem(ctx context.Context, t Type, opt ItemOption) (ItemOption, error) {
	if s.stock == nil {
		return opt, nil
	}
	options, err := s.stock.Stock(ctx)
	if err != nil {
		return ItemOption{}, fmt.Errorf("load stock: %w", err)
	}
	for _, candidate := range options {
		if opt.ItemID != 0 && candidate.ItemID == opt.ItemID {
			return candidate, nil
		}
		if opt.ItemID == 0 && sameKey(candidate.ItemName, opt.ItemName) && sameKey(candidate.Barcode, opt.Barcode) {
			return candidate, nil
		}
	}
	if !t.IsAdditionKind() || opt.ItemName == "" {
		return ItemOption{}, ErrUnknownItem
	}
	return opt, nil
}

// AddRow appends an empty row to a draft.
func (s *Service) AddRow(ctx context.Context, owner, id string) (Draft, error) {
	return s.mutate(ctx, owner, id, func(e Editor, inv Invoice) (Invoice, error) {
		return e.AddRow(inv)
	})
}

// RemoveRow deletes a row from a draft.
func (s *Service) RemoveRow(ctx context.Context, owner, id string, row int) (Draft, error) {
	return s.mutate(ctx, owner, id, func(e Editor, inv Invoice) (Invoice, error) {
		return e.RemoveRow(inv, row)
	})
}

// Save validates a draft and sends it upstream: POST in create mode, a full
// PUT in edit mode. The draft is kept when saving fails.
func (s *Service) Save(ctx context.Context, owner, id string) (Invoice, error) {
	d, err := s.drafts.Load(ctx, owner, id)
	if err != nil {
		return Invoice{}, err
	}
	inv := d.Invoice.Clone()
	Recompute(&inv)
	if err := ValidateForSave(inv); err != nil {
		return Invoice{}, err
	}
	var saved Invoice
	switch d.Mode {
	case ModeCreate:
		saved, err = s.api.CreateInvoice(ctx, inv.Payload())
	case ModeEdit:
		saved, err = s.api.UpdateInvoice(ctx, inv.Payload())
	default:
		return Invoice{}, reject(ErrReadOnly, LevelWarning, 0, 0, "الفاتورة للعرض فقط")
	}
	if err != nil {
		return Invoice{}, fmt.Errorf("save invoice: %w", err)
	}
	s.stockMoved(ctx)
	if err := s.drafts.Delete(ctx, owner, id); err != nil && !errors.Is(err, ErrDraftNotFound) {
		return saved, fmt.Errorf("discard saved draft: %w", err)
	}
	return saved, nil
}

// Delete removes an invoice upstream.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.api.DeleteInvoice(ctx, id); err != nil {
		return err
	}
	s.stockMoved(ctx)
	return nil
}

// Confirm confirms an invoice upstream.
func (s *Service) Confirm(ctx context.Context, id int64) error {
	if err := s.api.ConfirmInvoice(ctx, id); err != nil {
		return err
	}
	s.stockMoved(ctx)
	return nil
}

// RecordReturn records a custody return for one row and returns the invoice
// with refreshed return status.
func (s *Service) RecordReturn(ctx context.Context, id int64, row int, qty float64) (Invoice, error) {
	inv, err := s.api.GetInvoice(ctx, id)
	if err != nil {
		return Invoice{}, err
	}
	if inv.Type != TypeCustody {
		return Invoice{}, reject(ErrNotCustody, LevelError, FieldQuantity, row, "الإرجاع متاح لفواتير الأمانات فقط")
	}
	statuses, err := s.api.ReturnWarrantyStatus(ctx, id)
	if err != nil {
		return Invoice{}, fmt.Errorf("load return status: %w", err)
	}
	inv = MergeReturnStatus(inv, statuses)
	if row < 0 || row >= len(inv.Items) {
		return Invoice{}, reject(ErrRowOutOfRange, LevelError, FieldQuantity, row, "الصف غير موجود")
	}
	it := inv.Items[row]
	if err := ValidateReturn(it, row, qty); err != nil {
		return Invoice{}, err
	}
	req := ReturnRequest{ItemName: it.ItemName, Barcode: it.Barcode, Location: it.Location, Quantity: qty}
	if err := s.api.ReturnWarranty(ctx, id, req); err != nil {
		return Invoice{}, fmt.Errorf("record return: %w", err)
	}
	s.stockMoved(ctx)
	statuses, err = s.api.ReturnWarrantyStatus(ctx, id)
	if err != nil {
		return Invoice{}, fmt.Errorf("reload return status: %w", err)
	}
	return MergeReturnStatus(inv, statuses), nil
}

func (s *Service) load(ctx context.Context, id int64) (Invoice, error) {
	inv, err := s.api.GetInvoice(ctx, id)
	if err != nil {
		return Invoice{}, err
	}
	switch inv.Type {
	case TypeCustody:
		statuses, err := s.api.ReturnWarrantyStatus(ctx, id)
		if err != nil {
			return Invoice{}, fmt.Errorf("load return status: %w", err)
		}
		inv = MergeReturnStatus(inv, statuses)
	case TypeReservation:
		deductions, err := s.api.BookingDeductions(ctx, id)
		if err != nil {
			return Invoice{}, fmt.Errorf("load booking deductions: %w", err)
		}
		inv = MergeDeductions(inv, deductions)
	}
	return inv, nil
}

// attachStock restores the derived per-row state an edit needs. Upstream stock
// already excludes the quantities of saved stock-out invoices, so the row's own
// quantity is given back to its location before bounds are set.
func (s *Service) attachStock(ctx context.Context, d *Draft) error {
	if s.stock == nil {
		return nil
	}
	options, err := s.stock.Stock(ctx)
	if err != nil {
		return fmt.Errorf("load stock: %w", err)
	}
	stockOut := !d.Invoice.Type.IsAdditionKind() && d.Original == nil
	for i := range d.Invoice.Items {
		it := &d.Invoice.Items[i]
		for _, opt := range options {
			if !matchesOption(*it, opt) {
				continue
			}
			it.AvailableLocations = append([]StockLocation(nil), opt.Locations...)
			break
		}
		if stockOut && it.Location != "" {
			it.AvailableLocations = releaseLine(it.AvailableLocations, *it)
		}
		for _, loc := range it.AvailableLocations {
			if sameKey(loc.Location, it.Location) && !d.Invoice.Type.IsAdditionKind() {
				it.MaxQuantity = loc.Quantity
			}
		}
		if d.Original != nil {
			if j := FindLine(*d.Original, it.ItemName, it.Barcode, it.Location); j >= 0 {
				it.MaxQuantity = d.Original.Items[j].Quantity
			}
		}
		// a stored quantity stays valid even when stock has since moved
		if it.Quantity > it.MaxQuantity && !d.Invoice.Type.IsAdditionKind() {
			it.MaxQuantity = it.Quantity
		}
	}
	return nil
}

// releaseLine adds the row's quantity back to its location.
func releaseLine(locations []StockLocation, it Item) []StockLocation {
	for k := range locations {
		if sameKey(locations[k].Location, it.Location) {
			locations[k].Quantity += it.Quantity
			return locations
		}
	}
	return append(locations, StockLocation{Location: it.Location, Quantity: it.Quantity, Price: it.UnitPrice})
}

func matchesOption(it Item, opt ItemOption) bool {
	if it.ItemID != 0 && opt.ItemID != 0 {
		return it.ItemID == opt.ItemID
	}
	return sameKey(it.ItemName, opt.ItemName) && sameKey(it.Barcode, opt.Barcode)
}

func (s *Service) mutate(ctx context.Context, owner, id string, fn func(Editor, Invoice) (Invoice, error)) (Draft, error) {
	d, err := s.drafts.Load(ctx, owner, id)
	if err != nil {
		return Draft{}, err
	}
	inv, err := fn(d.Editor(), d.Invoice)
	if err != nil {
		return d, err
	}
	d.Invoice = inv
	if err := s.save(ctx, owner, &d); err != nil {
		return Draft{}, err
	}
	return d, nil
}

func (s *Service) stockMoved(ctx context.Context) {
	inv, ok := s.stock.(stockInvalidator)
	if !ok {
		return
	}
	if err := inv.Invalidate(ctx); err != nil {
		s.logger.WarnContext(ctx, "stock cache invalidation failed", slog.Any("error", err))
	}
}

func (s *Service) save(ctx context.Context, owner string, d *Draft) error {
	d.UpdatedAt = s.clock()
	if err := s.drafts.Save(ctx, owner, *d); err != nil {
		return fmt.Errorf("store draft: %w", err)
	}
	return nil
}
