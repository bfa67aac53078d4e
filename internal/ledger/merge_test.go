package ledger

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func line(kind Kind, day int, recordID int64) Line {
	l := Line{Date: jan(day), Kind: kind, PartyID: acmeID, RecordID: recordID, SourceID: SourceID(string(kind), recordID)}
	switch kind {
	case KindSale, KindPaymentReceived, KindReturnDebit:
		l.Credit = decimal.NewFromInt(10)
	default:
		l.Debit = decimal.NewFromInt(10)
	}
	return l
}

func kinds(lines []Line) []Kind {
	out := make([]Kind, len(lines))
	for i, l := range lines {
		out[i] = l.Kind
	}
	return out
}

func TestMergeOrdersByDateThenSource(t *testing.T) {
	merged, err := Merge(
		[]Line{line(KindSale, 5, 1)},
		[]Line{line(KindPurchase, 5, 1), line(KindPurchase, 2, 2)},
		nil,
		[]Line{line(KindPaymentReceived, 5, 1)},
		[]Line{line(KindReturnCredit, 1, 1)},
	)
	require.NoError(t, err)
	assert.Equal(t, []Kind{KindReturnCredit, KindPurchase, KindSale, KindPurchase, KindPaymentReceived}, kinds(merged))
}

func TestMergeTieBreaksOnRecordID(t *testing.T) {
	merged, err := Merge([]Line{line(KindSale, 3, 9), line(KindSale, 3, 2), line(KindSale, 3, 5)})
	require.NoError(t, err)
	require.Len(t, merged, 3)
	assert.Equal(t, int64(2), merged[0].RecordID)
	assert.Equal(t, int64(5), merged[1].RecordID)
	assert.Equal(t, int64(9), merged[2].RecordID)
}

func TestMergeIsDeterministicAcrossInputOrder(t *testing.T) {
	a := []Line{line(KindSale, 3, 1), line(KindPaymentPaid, 3, 1), line(KindExpense, 1, 4)}
	b := []Line{line(KindExpense, 1, 4), line(KindPaymentPaid, 3, 1), line(KindSale, 3, 1)}

	first, err := Merge(a)
	require.NoError(t, err)
	second, err := Merge(b)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestMergeRejectsDuplicateSourceID(t *testing.T) {
	dup := line(KindSale, 1, 1)
	_, err := Merge([]Line{dup}, []Line{dup})
	require.Error(t, err)
	assert.True(t, IsInvariant(err))
}

func TestMergeEmpty(t *testing.T) {
	merged, err := Merge()
	require.NoError(t, err)
	assert.Empty(t, merged)
}
