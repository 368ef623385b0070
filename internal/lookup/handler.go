// Package lookup serves reference data, lookup collections and the stock
// reports of the panel.
package lookup

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/odyssey-erp/stockdesk/internal/api"
	"github.com/odyssey-erp/stockdesk/internal/export"
	"github.com/odyssey-erp/stockdesk/internal/platform/httpx"
	"github.com/odyssey-erp/stockdesk/internal/refdata"
)

const maxUploadBytes = 10 << 20

// Upstream is the part of the API client the handler uses.
type Upstream interface {
	ListLookups(ctx context.Context, kind api.LookupKind) ([]api.Lookup, error)
	GetLookup(ctx context.Context, kind api.LookupKind, id int64) (api.Lookup, error)
	CreateLookup(ctx context.Context, kind api.LookupKind, l api.Lookup) (api.Lookup, error)
	UpdateLookup(ctx context.Context, kind api.LookupKind, l api.Lookup) (api.Lookup, error)
	DeleteLookup(ctx context.Context, kind api.LookupKind, id int64) error
	ImportLookups(ctx context.Context, kind api.LookupKind, filename string, file io.Reader) (api.ImportResult, error)
	FIFOPriceDetail(ctx context.Context, id int64, location string) (api.FIFOPriceDetail, error)
	PriceReport(ctx context.Context, filter api.PriceReportFilter) ([]api.PriceReportRow, error)
}

// RefData loads and invalidates the cached snapshot.
type RefData interface {
	Load(ctx context.Context) (refdata.Snapshot, error)
	Invalidate(ctx context.Context) error
}

// Handler wires the lookup endpoints.
type Handler struct {
	logger    *slog.Logger
	upstream  Upstream
	refdata   RefData
	validator *validator.Validate
}

// NewHandler constructs the lookup handler.
func NewHandler(logger *slog.Logger, upstream Upstream, refdata RefData) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, upstream: upstream, refdata: refdata, validator: validator.New()}
}

// MountRoutes registers the lookup routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/refdata", h.snapshot)
	r.Get("/reports/prices", h.priceReport)
	r.Get("/stock/{itemID}/fifo", h.fifoDetail)
	r.Route("/lookups/{kind}", func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Post("/import", h.importExcel)
		r.Get("/export", h.exportExcel)
		r.Get("/{id}", h.get)
		r.Put("/{id}", h.update)
		r.Delete("/{id}", h.delete)
	})
}

func (h *Handler) snapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := h.refdata.Load(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, snap)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	kind, ok := h.kind(w, r)
	if !ok {
		return
	}
	list, err := h.upstream.ListLookups(r.Context(), kind)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	kind, ok := h.kind(w, r)
	if !ok {
		return
	}
	id, ok := h.id(w, r, "id")
	if !ok {
		return
	}
	l, err := h.upstream.GetLookup(r.Context(), kind, id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, l)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	kind, ok := h.kind(w, r)
	if !ok {
		return
	}
	l, ok := h.decodeLookup(w, r)
	if !ok {
		return
	}
	saved, err := h.upstream.CreateLookup(r.Context(), kind, l)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.invalidate(r)
	httpx.JSON(w, http.StatusCreated, saved)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	kind, ok := h.kind(w, r)
	if !ok {
		return
	}
	id, ok := h.id(w, r, "id")
	if !ok {
		return
	}
	l, ok := h.decodeLookup(w, r)
	if !ok {
		return
	}
	l.ID = id
	saved, err := h.upstream.UpdateLookup(r.Context(), kind, l)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.invalidate(r)
	httpx.JSON(w, http.StatusOK, saved)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	kind, ok := h.kind(w, r)
	if !ok {
		return
	}
	id, ok := h.id(w, r, "id")
	if !ok {
		return
	}
	if err := h.upstream.DeleteLookup(r.Context(), kind, id); err != nil {
		h.fail(w, r, err)
		return
	}
	h.invalidate(r)
	w.WriteHeader(http.StatusNoContent)
}

type importRejected struct {
	Message string               `json:"message"`
	Issues  []export.ImportIssue `json:"issues"`
}

// importExcel pre-checks the workbook locally and forwards it only when
// every row is acceptable.
func (h *Handler) importExcel(w http.ResponseWriter, r *http.Request) {
	kind, ok := h.kind(w, r)
	if !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: file upload error: %v", httpx.ErrValidation, err))
		return
	}
	defer file.Close()
	raw, err := io.ReadAll(file)
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: unable to read upload: %v", httpx.ErrValidation, err))
		return
	}

	check, err := export.ReadLookups(bytes.NewReader(raw))
	if err != nil {
		httpx.JSON(w, http.StatusUnprocessableEntity, importRejected{Message: err.Error()})
		return
	}
	if !check.OK() {
		httpx.JSON(w, http.StatusUnprocessableEntity, importRejected{Message: "الملف يحتوي على صفوف غير صالحة", Issues: check.Issues})
		return
	}
	result, err := h.upstream.ImportLookups(r.Context(), kind, header.Filename, bytes.NewReader(raw))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.invalidate(r)
	h.logger.InfoContext(r.Context(), "lookups imported", slog.String("kind", string(kind)), slog.Int("imported", result.Imported))
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) exportExcel(w http.ResponseWriter, r *http.Request) {
	kind, ok := h.kind(w, r)
	if !ok {
		return
	}
	list, err := h.upstream.ListLookups(r.Context(), kind)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", string(kind)+".xlsx"))
	if err := export.WriteLookupsXLSX(w, list); err != nil {
		h.logger.ErrorContext(r.Context(), "lookup export failed", slog.Any("error", err))
	}
}

func (h *Handler) fifoDetail(w http.ResponseWriter, r *http.Request) {
	id, ok := h.id(w, r, "itemID")
	if !ok {
		return
	}
	detail, err := h.upstream.FIFOPriceDetail(r.Context(), id, r.URL.Query().Get("location"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, detail)
}

func (h *Handler) priceReport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	rows, err := h.upstream.PriceReport(r.Context(), api.PriceReportFilter{
		ItemName: q.Get("item_name"),
		From:     q.Get("from"),
		To:       q.Get("to"),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, rows)
}

func (h *Handler) decodeLookup(w http.ResponseWriter, r *http.Request) (api.Lookup, bool) {
	var l api.Lookup
	if err := httpx.DecodeJSON(r, &l); err != nil {
		httpx.RespondError(w, err)
		return api.Lookup{}, false
	}
	if err := h.validator.Struct(l); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrValidation, err))
		return api.Lookup{}, false
	}
	return l, true
}

func (h *Handler) kind(w http.ResponseWriter, r *http.Request) (api.LookupKind, bool) {
	kind, err := api.ParseLookupKind(chi.URLParam(r, "kind"))
	if err != nil {
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
		return "", false
	}
	return kind, true
}

func (h *Handler) id(w http.ResponseWriter, r *http.Request, param string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, param), 10, 64)
	if err != nil || id <= 0 {
		httpx.RespondError(w, fmt.Errorf("%w: invalid id", httpx.ErrValidation))
		return 0, false
	}
	return id, true
}

func (h *Handler) invalidate(r *http.Request) {
	if err := h.refdata.Invalidate(r.Context()); err != nil {
		h.logger.WarnContext(r.Context(), "refdata invalidation failed", slog.Any("error", err))
	}
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *api.Error
	if !errors.As(err, &apiErr) || apiErr.Status >= 500 {
		h.logger.ErrorContext(r.Context(), "lookup request failed", slog.String("path", r.URL.Path), slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
