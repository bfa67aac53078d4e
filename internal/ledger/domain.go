// Package ledger builds party account statements by merging sales,
// purchases, expenses, payments and returns into one chronological
// sequence with a running balance.
package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Kind discriminates the transaction a Line was built from.
type Kind string

const (
	KindSale            Kind = "SALE"
	KindPurchase        Kind = "PURCHASE"
	KindExpense         Kind = "EXPENSE"
	KindPaymentReceived Kind = "PAYMENT_RECEIVED"
	KindPaymentPaid     Kind = "PAYMENT_PAID"
	KindReturnCredit    Kind = "RETURN_CREDIT"
	KindReturnDebit     Kind = "RETURN_DEBIT"
)

// Label is the type column shown on statements.
func (k Kind) Label() string {
	switch k {
	case KindSale:
		return "Sale"
	case KindPurchase:
		return "Purchase"
	case KindExpense:
		return "Expense"
	case KindPaymentReceived:
		return "Payment Received"
	case KindPaymentPaid:
		return "Payment Paid"
	case KindReturnCredit:
		return "Returns: Credit Note"
	case KindReturnDebit:
		return "Returns: Debit Note"
	default:
		return string(k)
	}
}

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	return k.rank() >= 0
}

// rank orders lines sharing a timestamp: sales, purchases, expenses,
// payments, returns.
func (k Kind) rank() int {
	switch k {
	case KindSale:
		return 0
	case KindPurchase:
		return 1
	case KindExpense:
		return 2
	case KindPaymentReceived, KindPaymentPaid:
		return 3
	case KindReturnCredit, KindReturnDebit:
		return 4
	default:
		return -1
	}
}

// Line is one normalised, dated monetary entry of a party ledger. Lines are
// values; nothing downstream of the sources mutates them.
type Line struct {
	Date        time.Time
	Kind        Kind
	PartyID     int64
	Reference   string
	Particulars string
	Debit       decimal.Decimal
	Credit      decimal.Decimal
	SourceID    uuid.UUID
	RecordID    int64
}

// Entry is a Line together with the balance after applying it.
type Entry struct {
	Line
	RunningBalance decimal.Decimal
}

// Statement is the derived account statement for one party and range.
type Statement struct {
	PartyID        int64
	PartyName      string
	Range          Range
	OpeningBalance decimal.Decimal
	Entries        []Entry
	TotalDebit     decimal.Decimal
	TotalCredit    decimal.Decimal
	ClosingBalance decimal.Decimal
}

// OpeningMode selects how the accumulator is seeded.
type OpeningMode string

const (
	// OpeningCarryForward seeds with the party snapshot plus every line
	// dated before the range.
	OpeningCarryForward OpeningMode = "carry"
	// OpeningSnapshot seeds with the stored party snapshot only.
	OpeningSnapshot OpeningMode = "snapshot"
)

// Request describes one statement build.
type Request struct {
	PartyID int64
	Range   Range
	Opening OpeningMode
}
