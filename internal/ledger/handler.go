package ledger

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/greenledger/greenledger/internal/platform/httpx"
	"github.com/greenledger/greenledger/internal/rbac"
	"github.com/greenledger/greenledger/internal/shared"
)

// Renderer writes a statement as a file.
type Renderer interface {
	Render(ctx context.Context, w io.Writer, st Statement, out Output) error
}

// Handler serves statements over HTTP.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	renderer  Renderer
	rbac      rbac.Middleware
	validator *validator.Validate
	now       func() time.Time
}

// NewHandler builds a Handler.
func NewHandler(logger *slog.Logger, service *Service, renderer Renderer, rbac rbac.Middleware) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		renderer:  renderer,
		rbac:      rbac,
		validator: validator.New(),
		now:       time.Now,
	}
}

// MountRoutes registers the statement route under a party router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.rbac.RequireAny(shared.PermLedgerView)).Get("/{id}/statement", h.statement)
}

// ParseRequest turns a party id and query into a validated Request and the
// requested output.
func (h *Handler) ParseRequest(partyID string, q StatementQuery) (Request, Output, error) {
	id, err := strconv.ParseInt(partyID, 10, 64)
	if err != nil || id <= 0 {
		return Request{}, "", fmt.Errorf("%w: invalid party id", httpx.ErrValidation)
	}
	if err := h.validator.Struct(q); err != nil {
		return Request{}, "", fmt.Errorf("%w: %s", httpx.ErrValidation, err.Error())
	}
	out, err := ParseOutput(q.Format)
	if err != nil {
		return Request{}, "", err
	}
	r, err := ParseRange(q.From, q.To, h.now())
	if err != nil {
		return Request{}, "", err
	}
	opening := OpeningCarryForward
	if q.Opening != "" {
		opening = OpeningMode(q.Opening)
	}
	return Request{PartyID: id, Range: r, Opening: opening}, out, nil
}

func (h *Handler) statement(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req, out, err := h.ParseRequest(chi.URLParam(r, "id"), StatementQuery{
		From:    q.Get("from"),
		To:      q.Get("to"),
		Format:  q.Get("format"),
		Opening: q.Get("opening"),
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	st, err := h.service.Statement(r.Context(), req)
	if err != nil {
		h.respondError(w, req, err)
		return
	}

	if out == OutputJSON {
		httpx.JSON(w, http.StatusOK, NewStatementResponse(st))
		return
	}

	var buf bytes.Buffer
	if err := h.renderer.Render(r.Context(), &buf, st, out); err != nil {
		h.logger.Error("render statement", slog.Int64("party_id", req.PartyID), slog.String("format", string(out)), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.Header().Set("Content-Type", out.ContentType())
	if out != OutputHTML {
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", st.Filename(out)))
	}
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (h *Handler) respondError(w http.ResponseWriter, req Request, err error) {
	switch {
	case errors.Is(err, httpx.ErrNotFound), errors.Is(err, httpx.ErrValidation):
	default:
		h.logger.Error("build statement", slog.Int64("party_id", req.PartyID), slog.String("range", req.Range.String()), slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
