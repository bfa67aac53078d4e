package parties

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greenledger/greenledger/internal/platform/httpx"
	"github.com/greenledger/greenledger/internal/rbac"
	"github.com/greenledger/greenledger/internal/shared"
)

// ============================================================================
// MOCK DEPENDENCIES
// ============================================================================

type mockRepository struct {
	parties []Party
	err     error
	lastReq ListPartiesRequest
}

func (m *mockRepository) Get(_ context.Context, id int64) (Party, error) {
	if m.err != nil {
		return Party{}, m.err
	}
	for _, p := range m.parties {
		if p.ID == id {
			return p, nil
		}
	}
	return Party{}, ErrNotFound
}

func (m *mockRepository) List(_ context.Context, req ListPartiesRequest) ([]Party, int, error) {
	m.lastReq = req
	if m.err != nil {
		return nil, 0, m.err
	}
	var out []Party
	for _, p := range m.parties {
		if req.Type != "" && p.Type != req.Type {
			continue
		}
		if req.Search != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(req.Search)) {
			continue
		}
		out = append(out, p)
	}
	return out, len(out), nil
}

type grants map[int64][]string

func (g grants) EffectivePermissions(_ context.Context, userID int64) ([]string, error) {
	return g[userID], nil
}

func seeded() *mockRepository {
	return &mockRepository{parties: []Party{
		{ID: 1, Name: "Acme Traders", Type: TypeCustomer, OpeningBalance: decimal.NewFromInt(150)},
		{ID: 2, Name: "Northwind Supplies", Type: TypeSupplier, OpeningBalance: decimal.RequireFromString("-250.50")},
	}}
}

// ============================================================================
// SERVICE
// ============================================================================

func TestServiceGet(t *testing.T) {
	svc := NewService(seeded())

	p, err := svc.Get(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, "Northwind Supplies", p.Name)
	assert.Equal(t, "-250.5", p.OpeningBalance.String())

	_, err = svc.Get(context.Background(), 99)
	assert.True(t, IsNotFound(err))

	_, err = svc.Get(context.Background(), 0)
	assert.True(t, IsNotFound(err))
}

func TestServiceListDefaultsPagination(t *testing.T) {
	repo := seeded()
	svc := NewService(repo)

	items, page, err := svc.List(context.Background(), ListPartiesRequest{})
	require.NoError(t, err)
	assert.Len(t, items, 2)
	assert.Equal(t, shared.Pagination{Page: 1, PerPage: 20, Total: 2, TotalPages: 1}, page)
	assert.Equal(t, 1, repo.lastReq.Page)
	assert.Equal(t, 20, repo.lastReq.PerPage)
}

func TestServiceListValidates(t *testing.T) {
	svc := NewService(seeded())

	_, _, err := svc.List(context.Background(), ListPartiesRequest{Type: "employee"})
	assert.True(t, errors.Is(err, httpx.ErrValidation))

	_, _, err = svc.List(context.Background(), ListPartiesRequest{PerPage: 500})
	assert.True(t, errors.Is(err, httpx.ErrValidation))
}

func TestServiceListEmptyIsNotNil(t *testing.T) {
	items, _, err := NewService(&mockRepository{}).List(context.Background(), ListPartiesRequest{})
	require.NoError(t, err)
	assert.NotNil(t, items)
}

// ============================================================================
// HANDLER
// ============================================================================

func newPartiesRouter(repo Repository) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mw := rbac.Middleware{Service: grants{1: {shared.PermPartiesView}}, Logger: logger}
	r := chi.NewRouter()
	r.Use(rbac.Identify(""))
	r.Route("/parties", NewHandler(logger, NewService(repo), mw).MountRoutes)
	return r
}

func serve(h http.Handler, target, user string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if user != "" {
		req.Header.Set(rbac.DefaultIdentityHeader, user)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandlerList(t *testing.T) {
	rec := serve(newPartiesRouter(seeded()), "/parties?type=supplier", "1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"name":"Northwind Supplies"`)
	assert.NotContains(t, rec.Body.String(), "Acme")
	assert.Contains(t, rec.Body.String(), `"openingBalance":"-250.5"`)
}

func TestHandlerShow(t *testing.T) {
	h := newPartiesRouter(seeded())

	assert.Equal(t, http.StatusOK, serve(h, "/parties/1", "1").Code)
	assert.Equal(t, http.StatusNotFound, serve(h, "/parties/99", "1").Code)
	assert.Equal(t, http.StatusBadRequest, serve(h, "/parties/x", "1").Code)
	assert.Equal(t, http.StatusForbidden, serve(h, "/parties/1", "2").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(h, "/parties/1", "").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(h, "/parties/1", "alice").Code)
}

func TestHandlerRepositoryFailure(t *testing.T) {
	rec := serve(newPartiesRouter(&mockRepository{err: errors.New("pool exhausted")}), "/parties", "1")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "pool exhausted")
}
