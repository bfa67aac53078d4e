package ledger

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/greenledger/greenledger/internal/platform/httpx"
)

var (
	// ErrPartyNotFound indicates the requested party does not exist.
	ErrPartyNotFound = fmt.Errorf("ledger: party %w", httpx.ErrNotFound)
	// ErrInvalidRange indicates a malformed or inverted date range.
	ErrInvalidRange = fmt.Errorf("ledger: date range %w", httpx.ErrValidation)
)

// Stage names a step of the statement pipeline.
type Stage string

const (
	StageParty   Stage = "party"
	StageFetch   Stage = "fetch"
	StageOpening Stage = "opening"
)

// StageError reports a persistence failure together with the party, range
// and stage it interrupted.
type StageError struct {
	Stage   Stage
	Source  string
	PartyID int64
	Range   Range
	Err     error
}

func (e *StageError) Error() string {
	return e.SafeDetail() + ": " + e.Err.Error()
}

// SafeDetail omits the driver error so it can be shown to clients.
func (e *StageError) SafeDetail() string {
	step := string(e.Stage)
	if e.Source != "" {
		step += " " + e.Source
	}
	return fmt.Sprintf("ledger: party %d range %s: %s failed", e.PartyID, e.Range, step)
}

func (e *StageError) Unwrap() []error {
	return []error{httpx.ErrUnavailable, e.Err}
}

// InvariantError rejects a line that would corrupt totals.
type InvariantError struct {
	SourceID uuid.UUID
	Kind     Kind
	Reason   string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("ledger: %s line %s: %s", e.Kind, e.SourceID, e.Reason)
}

func (e *InvariantError) Unwrap() error { return httpx.ErrInvariant }

// IsInvariant reports whether err carries an InvariantError.
func IsInvariant(err error) bool {
	var ie *InvariantError
	return errors.As(err, &ie)
}
