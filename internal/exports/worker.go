package exports

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/greenledger/greenledger/internal/jobs"
	"github.com/greenledger/greenledger/internal/ledger"
	"github.com/greenledger/greenledger/internal/platform/httpx"
	"github.com/greenledger/greenledger/jobs"
)

// StatementBuilder produces statements.
type StatementBuilder interface {
	Statement(ctx context.Context, req ledger.Request) (ledger.Statement, error)
}

// Worker renders queued exports into the export directory.
type Worker struct {
	statements StatementBuilder
	renderer   ledger.Renderer
	store      *Store
	dir        string
	logger     *slog.Logger
	metrics    *jobmetrics.Metrics
	now        func() time.Time
}

// NewWorker builds the export task handler.
func NewWorker(statements StatementBuilder, renderer ledger.Renderer, store *Store, dir string, logger *slog.Logger, metrics *jobmetrics.Metrics) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{
		statements: statements,
		renderer:   renderer,
		store:      store,
		dir:        dir,
		logger:     logger,
		metrics:    metrics,
		now:        time.Now,
	}
}

// TaskHandler registers the worker with a jobs.Worker.
func (w *Worker) TaskHandler() jobs.TaskHandler {
	return jobs.TaskHandler{Type: jobs.TaskStatementExport, Handler: w.Handle}
}

// Handle processes one statement export task.
func (w *Worker) Handle(ctx context.Context, t *asynq.Task) (err error) {
	payload, err := jobs.ParseStatementExportPayload(t)
	if err != nil {
		w.logger.Warn("discard statement export", slog.Any("error", err))
		return err
	}
	tracker := w.metrics.Track(jobs.TaskStatementExport)
	defer func() {
		err = tracker.End(err)
	}()

	logger := w.logger.With(slog.String("export_id", payload.ExportID), slog.Int64("party_id", payload.PartyID))
	if _, err := w.store.Transition(ctx, payload.ExportID, w.now().UTC(), func(e *Export) {
		e.State = StateRunning
		e.Error = ""
	}); err != nil {
		if errors.Is(err, ErrNotFound) {
			logger.Warn("statement export expired before it ran")
			return fmt.Errorf("exports: %s: %w: %w", payload.ExportID, err, asynq.SkipRetry)
		}
		return err
	}

	name, err := w.render(ctx, payload)
	if err != nil {
		logger.Error("statement export failed", slog.Any("error", err))
		if _, saveErr := w.store.Transition(ctx, payload.ExportID, w.now().UTC(), func(e *Export) {
			e.State = StateFailed
			e.Error = publicMessage(err)
		}); saveErr != nil {
			logger.Warn("record export failure", slog.Any("error", saveErr))
		}
		if permanent(err) {
			return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
		}
		return err
	}

	if _, err := w.store.Transition(ctx, payload.ExportID, w.now().UTC(), func(e *Export) {
		e.State = StateDone
		e.Filename = name
	}); err != nil {
		return err
	}
	logger.Info("statement export done", slog.String("file", name))
	return nil
}

func (w *Worker) render(ctx context.Context, payload jobs.StatementExportPayload) (string, error) {
	out, err := ledger.ParseOutput(payload.Format)
	if err != nil {
		return "", err
	}
	if out == ledger.OutputJSON || out == ledger.OutputHTML {
		return "", fmt.Errorf("%w: %s is not an export format", httpx.ErrValidation, out)
	}
	r, err := ledger.ParseRange(payload.From, payload.To, w.now())
	if err != nil {
		return "", err
	}
	opening := ledger.OpeningCarryForward
	if payload.Opening != "" {
		opening = ledger.OpeningMode(payload.Opening)
	}
	st, err := w.statements.Statement(ctx, ledger.Request{PartyID: payload.PartyID, Range: r, Opening: opening})
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("exports: create dir: %w", err)
	}
	tmp, err := os.CreateTemp(w.dir, payload.ExportID+"-*.tmp")
	if err != nil {
		return "", fmt.Errorf("exports: create temp file: %w", err)
	}
	defer func() {
		_ = os.Remove(tmp.Name())
	}()
	if err := w.renderer.Render(ctx, tmp, st, out); err != nil {
		_ = tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("exports: close temp file: %w", err)
	}
	final := filepath.Join(w.dir, payload.ExportID+out.Extension())
	if err := os.Rename(tmp.Name(), final); err != nil {
		return "", fmt.Errorf("exports: move file: %w", err)
	}
	return st.Filename(out), nil
}

func permanent(err error) bool {
	return errors.Is(err, httpx.ErrNotFound) || errors.Is(err, httpx.ErrValidation) || errors.Is(err, httpx.ErrInvariant)
}

func publicMessage(err error) string {
	var sd httpx.SafeDetailer
	switch {
	case errors.As(err, &sd):
		return sd.SafeDetail()
	case permanent(err):
		return err.Error()
	default:
		return "export failed"
	}
}
