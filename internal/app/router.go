package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/greenledger/greenledger/internal/exports"
	"github.com/greenledger/greenledger/internal/ledger"
	"github.com/greenledger/greenledger/internal/observability"
	"github.com/greenledger/greenledger/internal/parties"
	"github.com/greenledger/greenledger/internal/platform/httpx"
	"github.com/greenledger/greenledger/internal/rbac"
	"github.com/greenledger/greenledger/internal/shared"
	"github.com/greenledger/greenledger/jobs"
	"github.com/greenledger/greenledger/report"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger             *slog.Logger
	Config             *Config
	RBACMiddleware     rbac.Middleware
	PartiesHandler     *parties.Handler
	LedgerHandler      *ledger.Handler
	ExportsHandler     *exports.Handler
	PermissionsHandler *rbac.PermissionsHandler
	ReportHandler      *report.Handler
	JobHandler         *jobs.Handler
	Metrics            *observability.Metrics
}

// NewRouter constructs the chi.Router with GreenLedger defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "")
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/parties", func(r chi.Router) {
			if params.PartiesHandler != nil {
				params.PartiesHandler.MountRoutes(r)
			}
			if params.LedgerHandler != nil {
				params.LedgerHandler.MountRoutes(r)
			}
			if params.ExportsHandler != nil {
				params.ExportsHandler.MountPartyRoutes(r)
			}
		})
		if params.ExportsHandler != nil {
			r.Route("/exports", params.ExportsHandler.MountRoutes)
		}
		if params.PermissionsHandler != nil {
			r.Route("/permissions", params.PermissionsHandler.MountRoutes)
		}
		r.Group(func(r chi.Router) {
			r.Use(params.RBACMiddleware.RequireAny(shared.PermJobsView))
			if params.JobHandler != nil {
				r.Route("/jobs", params.JobHandler.MountRoutes)
			}
			if params.ReportHandler != nil {
				r.Route("/reports", params.ReportHandler.MountRoutes)
			}
		})
	})

	return r
}
