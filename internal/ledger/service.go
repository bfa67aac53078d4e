package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/greenledger/greenledger/internal/parties"
)

// PartyDirectory looks parties up by id.
type PartyDirectory interface {
	Get(ctx context.Context, id int64) (parties.Party, error)
}

// Observer records statement builds.
type Observer interface {
	ObserveStatement(result string, lines int, elapsed time.Duration)
}

// Service builds statements. It holds no per-request state.
type Service struct {
	parties PartyDirectory
	sources []Source
	logger  *slog.Logger
	observe Observer
}

// NewService wires the party directory and the transaction store.
func NewService(directory PartyDirectory, store Store, logger *slog.Logger, observer Observer) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{parties: directory, sources: Sources(store), logger: logger, observe: observer}
}

// Statement merges every source for the party and range and accumulates the
// running balance. Any source failure fails the whole statement.
func (s *Service) Statement(ctx context.Context, req Request) (Statement, error) {
	start := time.Now()
	st, err := s.build(ctx, req)
	result := "ok"
	switch {
	case err == nil:
	case IsInvariant(err):
		result = "invariant"
		s.logger.Error("statement invariant violated", slog.Int64("party_id", req.PartyID), slog.String("range", req.Range.String()), slog.Any("error", err))
	default:
		result = "error"
	}
	if s.observe != nil {
		s.observe.ObserveStatement(result, len(st.Entries), time.Since(start))
	}
	if err != nil {
		return Statement{}, err
	}
	s.logger.Info("statement built",
		slog.Int64("party_id", st.PartyID),
		slog.String("from", st.Range.From.Format(DateLayout)),
		slog.String("to", st.Range.To.Format(DateLayout)),
		slog.Int("lines", len(st.Entries)),
		slog.Duration("duration", time.Since(start)),
	)
	return st, nil
}

func (s *Service) build(ctx context.Context, req Request) (Statement, error) {
	if err := req.Range.Validate(); err != nil {
		return Statement{}, err
	}
	party, err := s.parties.Get(ctx, req.PartyID)
	if err != nil {
		if parties.IsNotFound(err) {
			return Statement{}, fmt.Errorf("%w: %d", ErrPartyNotFound, req.PartyID)
		}
		return Statement{}, &StageError{Stage: StageParty, PartyID: req.PartyID, Range: req.Range, Err: err}
	}

	var prior, current []Line
	g, gctx := errgroup.WithContext(ctx)
	if req.Opening != OpeningSnapshot {
		g.Go(func() error {
			lines, err := s.collect(gctx, StageOpening, req.Range, req.Range.Before(party.ID))
			prior = lines
			return err
		})
	}
	g.Go(func() error {
		lines, err := s.collect(gctx, StageFetch, req.Range, req.Range.Within(party.ID))
		current = lines
		return err
	})
	if err := g.Wait(); err != nil {
		return Statement{}, err
	}

	opening := party.OpeningBalance
	if len(prior) > 0 {
		carried, err := Accumulate(opening, prior)
		if err != nil {
			return Statement{}, s.annotate(party.ID, req.Range, err)
		}
		opening = carried.Closing
	}

	acc, err := Accumulate(opening, current)
	if err != nil {
		return Statement{}, s.annotate(party.ID, req.Range, err)
	}
	return Statement{
		PartyID:        party.ID,
		PartyName:      party.Name,
		Range:          req.Range,
		OpeningBalance: acc.Opening,
		Entries:        acc.Entries,
		TotalDebit:     acc.TotalDebit,
		TotalCredit:    acc.TotalCredit,
		ClosingBalance: acc.Closing,
	}, nil
}

// collect runs every source concurrently and merges once all have returned.
// Each goroutine writes only its own slot.
func (s *Service) collect(ctx context.Context, stage Stage, r Range, q Query) ([]Line, error) {
	batches := make([][]Line, len(s.sources))
	g, gctx := errgroup.WithContext(ctx)
	for i, src := range s.sources {
		g.Go(func() error {
			lines, err := src.Lines(gctx, q)
			if err != nil {
				if IsInvariant(err) {
					return s.annotate(q.PartyID, r, err)
				}
				s.logger.Error("statement source failed", slog.String("stage", string(stage)), slog.String("source", src.Name()), slog.Int64("party_id", q.PartyID), slog.Any("error", err))
				return &StageError{Stage: stage, Source: src.Name(), PartyID: q.PartyID, Range: r, Err: err}
			}
			batches[i] = lines
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	merged, err := Merge(batches...)
	if err != nil {
		return nil, s.annotate(q.PartyID, r, err)
	}
	return merged, nil
}

func (s *Service) annotate(partyID int64, r Range, err error) error {
	return fmt.Errorf("party %d range %s: %w", partyID, r, err)
}
