package invoicehttp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/cast"
	"golang.org/x/text/language"

	"github.com/odyssey-erp/stockdesk/internal/export"
	"github.com/odyssey-erp/stockdesk/internal/invoice"
	"github.com/odyssey-erp/stockdesk/internal/platform/httpx"
	"github.com/odyssey-erp/stockdesk/internal/shared"
)

// InvoiceService is the invoice workflow used by the handler.
type InvoiceService interface {
	NewDraft(ctx context.Context, owner string, input invoice.NewDraftInput) (invoice.Draft, error)
	OpenEdit(ctx context.Context, owner string, id int64) (invoice.Draft, error)
	Draft(ctx context.Context, owner, id string) (invoice.Draft, error)
	DiscardDraft(ctx context.Context, owner, id string) error
	Apply(ctx context.Context, owner, id string, ch invoice.Change) (invoice.Draft, []invoice.Notice, error)
	AddRow(ctx context.Context, owner, id string) (invoice.Draft, error)
	RemoveRow(ctx context.Context, owner, id string, row int) (invoice.Draft, error)
	Save(ctx context.Context, owner, id string) (invoice.Invoice, error)
	View(ctx context.Context, id int64) (invoice.Invoice, error)
	List(ctx context.Context, t invoice.Type) ([]invoice.Invoice, error)
	Delete(ctx context.Context, id int64) error
	Confirm(ctx context.Context, id int64) error
	RecordReturn(ctx context.Context, id int64, row int, qty float64) (invoice.Invoice, error)
}

// Handler serves the invoice panel JSON endpoints.
type Handler struct {
	logger    *slog.Logger
	service   InvoiceService
	validator *validator.Validate
	lang      language.Tag
}

// NewHandler constructs the invoice handler.
func NewHandler(logger *slog.Logger, service InvoiceService) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, validator: validator.New(), lang: language.Arabic}
}

type draftView struct {
	ID                string        `json:"id"`
	Mode              string        `json:"mode"`
	OriginalInvoiceID int64         `json:"original_invoice_id,omitempty"`
	UpdatedAt         time.Time     `json:"updated_at"`
	Table             invoice.Table `json:"table"`
}

type changeRequest struct {
	Row   int             `json:"row" validate:"gte=0"`
	Field invoice.Field   `json:"field" validate:"required"`
	Value json.RawMessage `json:"value"`
}

type returnRequest struct {
	Row      int     `json:"row" validate:"gte=0"`
	Quantity float64 `json:"quantity"`
}

type listResponse struct {
	Invoices   []invoice.Invoice `json:"invoices"`
	Pagination shared.Pagination `json:"pagination"`
}

type changeResponse struct {
	Draft   draftView        `json:"draft"`
	Notices []invoice.Notice `json:"notices,omitempty"`
}

type rejectionResponse struct {
	Notice invoice.Notice `json:"notice"`
	Draft  *draftView     `json:"draft,omitempty"`
}

type validationResponse struct {
	Message string               `json:"message"`
	Fields  []invoice.FieldError `json:"fields,omitempty"`
}

func (h *Handler) createDraft(w http.ResponseWriter, r *http.Request) {
	var input invoice.NewDraftInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validator.Struct(input); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrValidation, err))
		return
	}
	d, err := h.service.NewDraft(r.Context(), h.owner(r), input)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respondDraft(w, r, http.StatusCreated, d)
}

func (h *Handler) getDraft(w http.ResponseWriter, r *http.Request) {
	d, err := h.service.Draft(r.Context(), h.owner(r), chi.URLParam(r, "draftID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respondDraft(w, r, http.StatusOK, d)
}

func (h *Handler) discardDraft(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DiscardDraft(r.Context(), h.owner(r), chi.URLParam(r, "draftID")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) applyChange(w http.ResponseWriter, r *http.Request) {
	var req changeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrValidation, err))
		return
	}
	ch, err := toChange(req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	d, notices, err := h.service.Apply(r.Context(), h.owner(r), chi.URLParam(r, "draftID"), ch)
	if err != nil {
		h.reject(w, r, d, err)
		return
	}
	view, err := h.draftView(d)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, changeResponse{Draft: view, Notices: notices})
}

func (h *Handler) addRow(w http.ResponseWriter, r *http.Request) {
	d, err := h.service.AddRow(r.Context(), h.owner(r), chi.URLParam(r, "draftID"))
	if err != nil {
		h.reject(w, r, d, err)
		return
	}
	h.respondDraft(w, r, http.StatusOK, d)
}

func (h *Handler) removeRow(w http.ResponseWriter, r *http.Request) {
	row, err := strconv.Atoi(chi.URLParam(r, "row"))
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: row must be a number", httpx.ErrValidation))
		return
	}
	d, err := h.service.RemoveRow(r.Context(), h.owner(r), chi.URLParam(r, "draftID"), row)
	if err != nil {
		h.reject(w, r, d, err)
		return
	}
	h.respondDraft(w, r, http.StatusOK, d)
}

func (h *Handler) saveDraft(w http.ResponseWriter, r *http.Request) {
	saved, err := h.service.Save(r.Context(), h.owner(r), chi.URLParam(r, "draftID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.logger.InfoContext(r.Context(), "invoice saved", slog.Int64("invoice_id", saved.ID), slog.String("type", string(saved.Type)))
	h.respondTable(w, r, http.StatusOK, saved, invoice.ModeView)
}

func (h *Handler) listInvoices(w http.ResponseWriter, r *http.Request) {
	t, err := invoice.ParseType(r.URL.Query().Get("type"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	list, err := h.service.List(r.Context(), t)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	p := shared.PaginationFromQuery(r.URL.Query(), len(list))
	start, end := p.Bounds()
	httpx.JSON(w, http.StatusOK, listResponse{Invoices: list[start:end], Pagination: p})
}

func (h *Handler) exportInvoices(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	t, err := invoice.ParseType(q.Get("type"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	list, err := h.service.List(r.Context(), t)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	name := "invoices-" + time.Now().UTC().Format("20060102")
	switch q.Get("format") {
	case "", "csv":
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name+".csv"))
		err = export.WriteInvoicesCSV(w, list)
	case "xlsx":
		w.Header().Set("Content-Type", xlsxContentType)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name+".xlsx"))
		err = export.WriteInvoicesXLSX(w, list)
	default:
		httpx.RespondError(w, fmt.Errorf("%w: unsupported format %q", httpx.ErrValidation, q.Get("format")))
		return
	}
	if err != nil {
		h.logger.ErrorContext(r.Context(), "invoice export failed", slog.Any("error", err))
	}
}

func (h *Handler) viewInvoice(w http.ResponseWriter, r *http.Request) {
	id, ok := h.invoiceID(w, r)
	if !ok {
		return
	}
	inv, err := h.service.View(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respondTable(w, r, http.StatusOK, inv, invoice.ModeView)
}

func (h *Handler) openEdit(w http.ResponseWriter, r *http.Request) {
	id, ok := h.invoiceID(w, r)
	if !ok {
		return
	}
	d, err := h.service.OpenEdit(r.Context(), h.owner(r), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respondDraft(w, r, http.StatusCreated, d)
}

func (h *Handler) deleteInvoice(w http.ResponseWriter, r *http.Request) {
	id, ok := h.invoiceID(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) confirmInvoice(w http.ResponseWriter, r *http.Request) {
	id, ok := h.invoiceID(w, r)
	if !ok {
		return
	}
	if err := h.service.Confirm(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) recordReturn(w http.ResponseWriter, r *http.Request) {
	id, ok := h.invoiceID(w, r)
	if !ok {
		return
	}
	var req returnRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrValidation, err))
		return
	}
	inv, err := h.service.RecordReturn(r.Context(), id, req.Row, req.Quantity)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respondTable(w, r, http.StatusOK, inv, invoice.ModeView)
}

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// toChange turns the loosely typed request value into a typed change. Numbers
// may arrive as JSON numbers or strings; anything non-numeric counts as zero.
func toChange(req changeRequest) (invoice.Change, error) {
	if req.Field == invoice.FieldItem {
		var opt invoice.ItemOption
		if err := json.Unmarshal(req.Value, &opt); err != nil {
			var raw any
			if err := json.Unmarshal(req.Value, &raw); err != nil {
				return invoice.Change{}, fmt.Errorf("%w: invalid item value", httpx.ErrValidation)
			}
			switch v := raw.(type) {
			case float64:
				opt = invoice.ItemOption{ItemID: int64(v)}
			case string:
				opt = invoice.ItemOption{ItemName: v}
			default:
				return invoice.Change{}, fmt.Errorf("%w: invalid item value", httpx.ErrValidation)
			}
		}
		return invoice.SelectItem(req.Row, opt), nil
	}
	var raw any
	if len(req.Value) > 0 {
		if err := json.Unmarshal(req.Value, &raw); err != nil {
			return invoice.Change{}, fmt.Errorf("%w: invalid value", httpx.ErrValidation)
		}
	}
	switch req.Field {
	case invoice.FieldQuantity:
		return invoice.SetQuantity(req.Row, cast.ToFloat64(raw)), nil
	case invoice.FieldUnitPrice:
		return invoice.SetUnitPrice(req.Row, cast.ToFloat64(raw)), nil
	case invoice.FieldPaid:
		return invoice.SetPaid(cast.ToFloat64(raw)), nil
	case invoice.FieldLocation:
		return invoice.SetLocation(req.Row, cast.ToString(raw)), nil
	case invoice.FieldToLocation:
		return invoice.SetToLocation(req.Row, cast.ToString(raw)), nil
	default:
		return invoice.SetText(req.Row, req.Field, cast.ToString(raw)), nil
	}
}

func (h *Handler) owner(r *http.Request) string {
	return shared.OwnerFromContext(r.Context())
}

func (h *Handler) invoiceID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "invoiceID"), 10, 64)
	if err != nil || id <= 0 {
		httpx.RespondError(w, fmt.Errorf("%w: invalid invoice id", httpx.ErrValidation))
		return 0, false
	}
	return id, true
}

func (h *Handler) draftView(d invoice.Draft) (draftView, error) {
	table, err := invoice.BuildTable(d.Invoice, d.Mode, h.lang)
	if err != nil {
		return draftView{}, err
	}
	view := draftView{ID: d.ID, Mode: d.Mode.String(), UpdatedAt: d.UpdatedAt, Table: table}
	if d.Original != nil {
		view.OriginalInvoiceID = d.Original.ID
	}
	return view, nil
}

func (h *Handler) respondDraft(w http.ResponseWriter, r *http.Request, status int, d invoice.Draft) {
	view, err := h.draftView(d)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, status, view)
}

func (h *Handler) respondTable(w http.ResponseWriter, r *http.Request, status int, inv invoice.Invoice, mode invoice.Mode) {
	table, err := invoice.BuildTable(inv, mode, h.lang)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, status, table)
}

// reject answers a rule rejection with the notice and the unchanged draft.
func (h *Handler) reject(w http.ResponseWriter, r *http.Request, d invoice.Draft, err error) {
	notice, ok := invoice.NoticeFromError(err)
	if !ok {
		h.fail(w, r, err)
		return
	}
	resp := rejectionResponse{Notice: notice}
	if d.ID != "" {
		if view, err := h.draftView(d); err == nil {
			resp.Draft = &view
		}
	}
	httpx.JSON(w, http.StatusUnprocessableEntity, resp)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	var validationErr *invoice.ValidationError
	switch {
	case errors.As(err, &validationErr):
		httpx.JSON(w, http.StatusUnprocessableEntity, validationResponse{Message: "بيانات الفاتورة غير صالحة", Fields: validationErr.Fields})
	case errors.Is(err, invoice.ErrUnknownType):
		httpx.JSON(w, http.StatusUnprocessableEntity, validationResponse{Message: invoice.UnknownTypeMessage})
	case errors.Is(err, invoice.ErrUnknownItem):
		httpx.JSON(w, http.StatusUnprocessableEntity, validationResponse{Message: "الصنف غير موجود في المخزن"})
	case errors.Is(err, invoice.ErrDraftNotFound), errors.Is(err, invoice.ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	default:
		if notice, ok := invoice.NoticeFromError(err); ok {
			httpx.JSON(w, http.StatusUnprocessableEntity, rejectionResponse{Notice: notice})
			return
		}
		if !errors.Is(err, shared.ErrNotLoggedIn) && !errors.Is(err, httpx.ErrNotFound) {
			h.logger.ErrorContext(r.Context(), "invoice request failed", slog.String("path", r.URL.Path), slog.Any("error", err))
		}
		httpx.RespondError(w, err)
	}
}
