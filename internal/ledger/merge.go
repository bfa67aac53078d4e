package ledger

import (
	"sort"

	"github.com/google/uuid"
)

// Merge concatenates source batches into one chronological sequence. Lines
// sharing a timestamp keep source order (sales, purchases, expenses,
// payments, returns), then record id, then source id, so identical inputs
// always produce identical output.
func Merge(batches ...[]Line) ([]Line, error) {
	total := 0
	for _, batch := range batches {
		total += len(batch)
	}
	merged := make([]Line, 0, total)
	seen := make(map[uuid.UUID]struct{}, total)
	for _, batch := range batches {
		for _, line := range batch {
			if _, dup := seen[line.SourceID]; dup {
				return nil, &InvariantError{SourceID: line.SourceID, Kind: line.Kind, Reason: "appears more than once"}
			}
			seen[line.SourceID] = struct{}{}
			merged = append(merged, line)
		}
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return lineLess(merged[i], merged[j])
	})
	return merged, nil
}

func lineLess(a, b Line) bool {
	if !a.Date.Equal(b.Date) {
		return a.Date.Before(b.Date)
	}
	if ra, rb := a.Kind.rank(), b.Kind.rank(); ra != rb {
		return ra < rb
	}
	if a.RecordID != b.RecordID {
		return a.RecordID < b.RecordID
	}
	return a.SourceID.String() < b.SourceID.String()
}
