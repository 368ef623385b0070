// Package account proxies the user endpoints of the upstream API.
package account

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/odyssey-erp/stockdesk/internal/api"
	"github.com/odyssey-erp/stockdesk/internal/platform/httpx"
)

// Users is the part of the API client the handler uses.
type Users interface {
	CurrentUser(ctx context.Context) (api.User, error)
	ListUsers(ctx context.Context) ([]api.User, error)
	ChangePassword(ctx context.Context, change api.PasswordChange) error
	DeleteUser(ctx context.Context, id int64) error
}

// Handler serves account routes.
type Handler struct {
	logger    *slog.Logger
	users     Users
	validator *validator.Validate
}

// NewHandler constructs the account handler.
func NewHandler(logger *slog.Logger, users Users) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, users: users, validator: validator.New()}
}

// MountRoutes registers account routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/me", h.me)
	r.Post("/me/password", h.changePassword)
	r.Get("/users", h.list)
	r.Delete("/users/{id}", h.delete)
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	u, err := h.users.CurrentUser(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, u)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.ListUsers(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, users)
}

func (h *Handler) changePassword(w http.ResponseWriter, r *http.Request) {
	var change api.PasswordChange
	if err := httpx.DecodeJSON(r, &change); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validator.Struct(change); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrValidation, err))
		return
	}
	if err := h.users.ChangePassword(r.Context(), change); err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.logger.InfoContext(r.Context(), "password changed")
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.RespondError(w, fmt.Errorf("%w: invalid user id", httpx.ErrValidation))
		return
	}
	if err := h.users.DeleteUser(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
