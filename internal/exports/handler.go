package exports

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/greenledger/greenledger/internal/platform/httpx"
	"github.com/greenledger/greenledger/internal/rbac"
	"github.com/greenledger/greenledger/internal/shared"
)

// Handler serves export requests, status and downloads.
type Handler struct {
	logger  *slog.Logger
	service *Service
	rbac    rbac.Middleware
}

// NewHandler builds a Handler.
func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: rbac}
}

// MountPartyRoutes registers the export request route under a party router.
func (h *Handler) MountPartyRoutes(r chi.Router) {
	r.With(h.rbac.RequireAny(shared.PermLedgerExport)).Post("/{id}/statement/exports", h.create)
}

// MountRoutes registers status and download routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermLedgerExport))
		r.Get("/{id}", h.show)
		r.With(h.rbac.RequireAll(shared.PermLedgerView, shared.PermLedgerExport)).Get("/{id}/download", h.download)
	})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	partyID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || partyID <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid party id")
		return
	}
	var req CreateExportRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid request body")
		return
	}
	identity, _ := shared.IdentityFromContext(r.Context())
	e, err := h.service.Request(r.Context(), partyID, identity.UserID, req)
	if err != nil {
		h.respondError(w, err)
		return
	}
	w.Header().Set("Location", "/api/exports/"+e.ID)
	httpx.JSON(w, http.StatusAccepted, NewExportResponse(e))
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	identity, _ := shared.IdentityFromContext(r.Context())
	e, err := h.service.Get(r.Context(), chi.URLParam(r, "id"), identity.UserID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, NewExportResponse(e))
}

func (h *Handler) download(w http.ResponseWriter, r *http.Request) {
	identity, _ := shared.IdentityFromContext(r.Context())
	e, f, err := h.service.Open(r.Context(), chi.URLParam(r, "id"), identity.UserID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	defer func() {
		_ = f.Close()
	}()
	info, err := f.Stat()
	if err != nil {
		h.respondError(w, err)
		return
	}
	name := e.Filename
	if name == "" {
		name = e.File()
	}
	w.Header().Set("Content-Type", e.Format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	http.ServeContent(w, r, name, info.ModTime(), f)
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	if !errors.Is(err, httpx.ErrNotFound) && !errors.Is(err, httpx.ErrValidation) {
		h.logger.Error("statement export", slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
