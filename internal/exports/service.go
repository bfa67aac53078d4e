package exports

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/greenledger/greenledger/internal/ledger"
	"github.com/greenledger/greenledger/internal/parties"
	"github.com/greenledger/greenledger/internal/platform/httpx"
	"github.com/greenledger/greenledger/jobs"
)

// ErrNotReady is returned when downloading an export that has not finished.
var ErrNotReady = fmt.Errorf("exports: file not ready: %w", httpx.ErrNotFound)

// Enqueuer hands export tasks to the queue.
type Enqueuer interface {
	EnqueueStatementExport(ctx context.Context, payload jobs.StatementExportPayload) (*asynq.TaskInfo, error)
}

// Service accepts export requests and resolves finished files.
type Service struct {
	parties   ledger.PartyDirectory
	store     *Store
	queue     Enqueuer
	dir       string
	logger    *slog.Logger
	validator *validator.Validate
	now       func() time.Time
}

// NewService builds a Service writing to and reading from dir.
func NewService(parties ledger.PartyDirectory, store *Store, queue Enqueuer, dir string, logger *slog.Logger) *Service {
	return &Service{
		parties:   parties,
		store:     store,
		queue:     queue,
		dir:       dir,
		logger:    logger,
		validator: validator.New(),
		now:       time.Now,
	}
}

// Request validates the request, records it as queued and enqueues the task.
func (s *Service) Request(ctx context.Context, partyID, userID int64, req CreateExportRequest) (Export, error) {
	if err := s.validator.Struct(req); err != nil {
		return Export{}, fmt.Errorf("%w: %s", httpx.ErrValidation, err.Error())
	}
	out, err := ledger.ParseOutput(req.Format)
	if err != nil {
		return Export{}, err
	}
	now := s.now().UTC()
	r, err := ledger.ParseRange(req.From, req.To, now)
	if err != nil {
		return Export{}, err
	}
	if _, err := s.parties.Get(ctx, partyID); err != nil {
		if parties.IsNotFound(err) {
			return Export{}, fmt.Errorf("%w: %d", ledger.ErrPartyNotFound, partyID)
		}
		return Export{}, fmt.Errorf("exports: party %d: %w: %w", partyID, httpx.ErrUnavailable, err)
	}

	e := Export{
		ID:          uuid.NewString(),
		PartyID:     partyID,
		From:        r.From.Format(ledger.DateLayout),
		To:          r.To.Format(ledger.DateLayout),
		Format:      out,
		Opening:     req.Opening,
		State:       StateQueued,
		RequestedBy: userID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.Save(ctx, e); err != nil {
		return Export{}, err
	}
	_, err = s.queue.EnqueueStatementExport(ctx, jobs.StatementExportPayload{
		ExportID:    e.ID,
		PartyID:     e.PartyID,
		From:        e.From,
		To:          e.To,
		Format:      string(e.Format),
		Opening:     e.Opening,
		RequestedBy: userID,
	})
	if err != nil {
		s.logger.Error("enqueue statement export", slog.String("export_id", e.ID), slog.Any("error", err))
		e.State = StateFailed
		e.Error = "could not be queued"
		if saveErr := s.store.Save(ctx, e); saveErr != nil {
			s.logger.Warn("record enqueue failure", slog.String("export_id", e.ID), slog.Any("error", saveErr))
		}
		return Export{}, fmt.Errorf("exports: enqueue %s: %w: %w", e.ID, httpx.ErrUnavailable, err)
	}
	s.logger.Info("statement export queued", slog.String("export_id", e.ID), slog.Int64("party_id", partyID), slog.String("format", string(out)))
	return e, nil
}

// Get returns the status of an export requested by userID. Exports of other
// users read as not found.
func (s *Service) Get(ctx context.Context, id string, userID int64) (Export, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Export{}, ErrNotFound
	}
	e, err := s.store.Get(ctx, id)
	if err != nil {
		return Export{}, err
	}
	if e.RequestedBy != userID {
		return Export{}, ErrNotFound
	}
	return e, nil
}

// Open returns a finished export of userID and its file. The caller closes
// the file.
func (s *Service) Open(ctx context.Context, id string, userID int64) (Export, *os.File, error) {
	e, err := s.Get(ctx, id, userID)
	if err != nil {
		return Export{}, nil, err
	}
	if e.State != StateDone {
		return Export{}, nil, fmt.Errorf("%w: export %s is %s", ErrNotReady, id, e.State)
	}
	f, err := os.Open(filepath.Join(s.dir, e.File()))
	if errors.Is(err, os.ErrNotExist) {
		return Export{}, nil, fmt.Errorf("%w: export %s file missing", ErrNotReady, id)
	}
	if err != nil {
		return Export{}, nil, fmt.Errorf("exports: open %s: %w", id, err)
	}
	return e, f, nil
}
