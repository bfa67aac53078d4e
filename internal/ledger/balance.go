package ledger

import (
	"github.com/shopspring/decimal"
)

// CreditIncreasesBalance fixes the statement sign convention: credits raise
// the running balance and debits lower it. Kind only decides which side a
// source populates.
const CreditIncreasesBalance = true

// Accumulation is the output of a single pass over a sorted sequence.
type Accumulation struct {
	Opening     decimal.Decimal
	Entries     []Entry
	TotalDebit  decimal.Decimal
	TotalCredit decimal.Decimal
	Closing     decimal.Decimal
}

// Accumulate walks lines once, carrying the running balance from opening.
// A line with both sides set or a negative side is rejected.
func Accumulate(opening decimal.Decimal, lines []Line) (Accumulation, error) {
	acc := Accumulation{
		Opening:     opening,
		Entries:     make([]Entry, 0, len(lines)),
		TotalDebit:  decimal.Zero,
		TotalCredit: decimal.Zero,
	}
	balance := opening
	for _, line := range lines {
		if err := checkLine(line); err != nil {
			return Accumulation{}, err
		}
		balance = balance.Add(Movement(line))
		acc.TotalDebit = acc.TotalDebit.Add(line.Debit)
		acc.TotalCredit = acc.TotalCredit.Add(line.Credit)
		acc.Entries = append(acc.Entries, Entry{Line: line, RunningBalance: balance})
	}
	acc.Closing = balance
	return acc, nil
}

// Movement is the signed effect of a line on the balance.
func Movement(line Line) decimal.Decimal {
	if CreditIncreasesBalance {
		return line.Credit.Sub(line.Debit)
	}
	return line.Debit.Sub(line.Credit)
}

func checkLine(line Line) error {
	switch {
	case line.Debit.IsNegative() || line.Credit.IsNegative():
		return &InvariantError{SourceID: line.SourceID, Kind: line.Kind, Reason: "negative amount"}
	case !line.Debit.IsZero() && !line.Credit.IsZero():
		return &InvariantError{SourceID: line.SourceID, Kind: line.Kind, Reason: "both debit and credit are set"}
	case !line.Kind.Valid():
		return &InvariantError{SourceID: line.SourceID, Kind: line.Kind, Reason: "unknown kind"}
	}
	return nil
}
