package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWindowPredicate(t *testing.T) {
	r := januaryRange(t)
	feb1 := time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name   string
		column string
		query  Query
		clause string
		args   []any
	}{
		{
			name:   "within range",
			column: "invoice_date",
			query:  r.Within(acmeID),
			clause: "party_id = $1 AND invoice_date < $2 AND invoice_date >= $3",
			args:   []any{int64(acmeID), feb1, jan(1)},
		},
		{
			name:   "before range",
			column: "payment_date",
			query:  r.Before(acmeID),
			clause: "party_id = $1 AND payment_date < $2",
			args:   []any{int64(acmeID), jan(1)},
		},
		{
			name:   "single day",
			column: "return_date",
			query:  Range{From: jan(15), To: jan(15)}.Within(acmeID),
			clause: "party_id = $1 AND return_date < $2 AND return_date >= $3",
			args:   []any{int64(acmeID), jan(16), jan(15)},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			clause, args := window(tc.column, tc.query)
			assert.Equal(t, tc.clause, clause)
			require.Len(t, args, len(tc.args))
			assert.Equal(t, tc.args[0], args[0])
			for i := 1; i < len(args); i++ {
				got, ok := args[i].(time.Time)
				require.True(t, ok, "arg $%d is %T", i+1, args[i])
				assert.True(t, tc.args[i].(time.Time).Equal(got), "arg $%d: got %s want %s", i+1, got, tc.args[i])
			}
		})
	}
}

// The SQL bounds must select exactly the days Query.Matches accepts.
func TestWindowBoundsAgreeWithMatches(t *testing.T) {
	r := januaryRange(t)
	q := r.Within(acmeID)
	_, args := window("bill_date", q)
	end, start := args[1].(time.Time), args[2].(time.Time)

	sqlSelects := func(d time.Time) bool { return !d.Before(start) && d.Before(end) }
	for _, d := range []time.Time{jan(1).AddDate(0, 0, -1), jan(1), jan(31), jan(31).AddDate(0, 0, 1)} {
		assert.Equal(t, q.Matches(d), sqlSelects(d), d.Format(DateLayout))
	}
	assert.True(t, sqlSelects(jan(1)))
	assert.True(t, sqlSelects(jan(31)))
	assert.False(t, sqlSelects(jan(31).AddDate(0, 0, 1)))
}
