package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SaleRecord is a sales invoice as persisted.
type SaleRecord struct {
	ID                 int64
	PartyID            int64
	InvoiceNumber      string
	InvoiceDate        time.Time
	GrandTotal         decimal.Decimal
	BillingDescription string
}

// PurchaseRecord is a supplier bill as persisted.
type PurchaseRecord struct {
	ID         int64
	PartyID    int64
	BillNumber string
	BillDate   time.Time
	Amount     decimal.Decimal
}

// ExpenseRecord is an expense voucher. Most expenses are company level and
// carry no party.
type ExpenseRecord struct {
	ID            int64
	PartyID       *int64
	VoucherNumber string
	Date          time.Time
	Amount        decimal.Decimal
	Category      string
	Description   string
}

// PaymentDirection tells whether money came in or went out.
type PaymentDirection string

const (
	PaymentReceived PaymentDirection = "received"
	PaymentPaid     PaymentDirection = "paid"
)

// PaymentRecord is a payment voucher.
type PaymentRecord struct {
	ID             int64
	PartyID        int64
	Date           time.Time
	Amount         decimal.Decimal
	ReceivedOrPaid PaymentDirection
	Reference      string
	Method         string
	Remarks        string
}

// ReturnType distinguishes customer returns from supplier returns.
type ReturnType string

const (
	ReturnCreditNote ReturnType = "credit_note"
	ReturnDebitNote  ReturnType = "debit_note"
)

// ReturnRecord is a credit or debit note.
type ReturnRecord struct {
	ID         int64
	PartyID    int64
	Number     string
	Date       time.Time
	Amount     decimal.Decimal
	ReturnType ReturnType
	Reason     string
}

// Store reads raw transaction records for one party and window. All
// methods are pure reads.
type Store interface {
	Sales(ctx context.Context, q Query) ([]SaleRecord, error)
	Purchases(ctx context.Context, q Query) ([]PurchaseRecord, error)
	Expenses(ctx context.Context, q Query) ([]ExpenseRecord, error)
	Payments(ctx context.Context, q Query) ([]PaymentRecord, error)
	Returns(ctx context.Context, q Query) ([]ReturnRecord, error)
}

// Source turns one transaction collection into ledger lines.
type Source interface {
	Name() string
	Lines(ctx context.Context, q Query) ([]Line, error)
}

// Sources returns the adapters in tie-break order.
func Sources(store Store) []Source {
	return []Source{
		saleSource{store},
		purchaseSource{store},
		expenseSource{store},
		paymentSource{store},
		returnSource{store},
	}
}

type saleSource struct{ store Store }

func (saleSource) Name() string { return "sales" }

func (s saleSource) Lines(ctx context.Context, q Query) ([]Line, error) {
	records, err := s.store.Sales(ctx, q)
	if err != nil {
		return nil, err
	}
	return mapRecords(q, records, SaleLine)
}

type purchaseSource struct{ store Store }

func (purchaseSource) Name() string { return "purchases" }

func (s purchaseSource) Lines(ctx context.Context, q Query) ([]Line, error) {
	records, err := s.store.Purchases(ctx, q)
	if err != nil {
		return nil, err
	}
	return mapRecords(q, records, PurchaseLine)
}

type expenseSource struct{ store Store }

func (expenseSource) Name() string { return "expenses" }

func (s expenseSource) Lines(ctx context.Context, q Query) ([]Line, error) {
	records, err := s.store.Expenses(ctx, q)
	if err != nil {
		return nil, err
	}
	attributed := make([]ExpenseRecord, 0, len(records))
	for _, rec := range records {
		if rec.PartyID != nil && *rec.PartyID == q.PartyID {
			attributed = append(attributed, rec)
		}
	}
	return mapRecords(q, attributed, ExpenseLine)
}

type paymentSource struct{ store Store }

func (paymentSource) Name() string { return "payments" }

func (s paymentSource) Lines(ctx context.Context, q Query) ([]Line, error) {
	records, err := s.store.Payments(ctx, q)
	if err != nil {
		return nil, err
	}
	return mapRecords(q, records, PaymentLine)
}

type returnSource struct{ store Store }

func (returnSource) Name() string { return "returns" }

func (s returnSource) Lines(ctx context.Context, q Query) ([]Line, error) {
	records, err := s.store.Returns(ctx, q)
	if err != nil {
		return nil, err
	}
	return mapRecords(q, records, ReturnLine)
}

func mapRecords[T any](q Query, records []T, mapFn func(T) (Line, error)) ([]Line, error) {
	lines := make([]Line, 0, len(records))
	for _, rec := range records {
		line, err := mapFn(rec)
		if err != nil {
			return nil, err
		}
		if line.PartyID != q.PartyID {
			return nil, &InvariantError{SourceID: line.SourceID, Kind: line.Kind, Reason: fmt.Sprintf("belongs to party %d", line.PartyID)}
		}
		if !q.Matches(line.Date) {
			return nil, &InvariantError{SourceID: line.SourceID, Kind: line.Kind, Reason: "dated " + line.Date.Format(DateLayout) + " outside the requested window"}
		}
		lines = append(lines, line)
	}
	return lines, nil
}

// SaleLine credits the party with the invoice grand total.
func SaleLine(rec SaleRecord) (Line, error) {
	line := Line{
		Date:        rec.InvoiceDate,
		Kind:        KindSale,
		PartyID:     rec.PartyID,
		Reference:   rec.InvoiceNumber,
		Particulars: firstNonEmpty(rec.BillingDescription, "Sale"),
		Credit:      money(rec.GrandTotal),
		SourceID:    SourceID("SALE", rec.ID),
		RecordID:    rec.ID,
	}
	return line, checkAmount(line, rec.GrandTotal)
}

// PurchaseLine debits the party with the bill amount.
func PurchaseLine(rec PurchaseRecord) (Line, error) {
	line := Line{
		Date:        rec.BillDate,
		Kind:        KindPurchase,
		PartyID:     rec.PartyID,
		Reference:   rec.BillNumber,
		Particulars: "Purchase",
		Debit:       money(rec.Amount),
		SourceID:    SourceID("PURCHASE", rec.ID),
		RecordID:    rec.ID,
	}
	return line, checkAmount(line, rec.Amount)
}

// ExpenseLine debits the party the expense is attributed to.
func ExpenseLine(rec ExpenseRecord) (Line, error) {
	line := Line{
		Date:        rec.Date,
		Kind:        KindExpense,
		Reference:   rec.VoucherNumber,
		Particulars: firstNonEmpty(rec.Description, rec.Category, "Expense"),
		Debit:       money(rec.Amount),
		SourceID:    SourceID("EXPENSE", rec.ID),
		RecordID:    rec.ID,
	}
	if rec.PartyID == nil {
		return line, &InvariantError{SourceID: line.SourceID, Kind: line.Kind, Reason: "expense is not attributed to a party"}
	}
	line.PartyID = *rec.PartyID
	return line, checkAmount(line, rec.Amount)
}

// PaymentLine credits received payments and debits paid ones.
func PaymentLine(rec PaymentRecord) (Line, error) {
	line := Line{
		Date:      rec.Date,
		PartyID:   rec.PartyID,
		Reference: rec.Reference,
		SourceID:  SourceID("PAYMENT", rec.ID),
		RecordID:  rec.ID,
	}
	switch PaymentDirection(strings.ToLower(string(rec.ReceivedOrPaid))) {
	case PaymentReceived:
		line.Kind = KindPaymentReceived
		line.Credit = money(rec.Amount)
	case PaymentPaid:
		line.Kind = KindPaymentPaid
		line.Debit = money(rec.Amount)
	default:
		return line, &InvariantError{SourceID: line.SourceID, Kind: "PAYMENT", Reason: fmt.Sprintf("unknown direction %q", rec.ReceivedOrPaid)}
	}
	line.Particulars = firstNonEmpty(rec.Remarks, paymentParticulars(line.Kind, rec.Method))
	return line, checkAmount(line, rec.Amount)
}

// ReturnLine debits the party for credit notes and credits it for debit
// notes.
func ReturnLine(rec ReturnRecord) (Line, error) {
	line := Line{
		Date:      rec.Date,
		PartyID:   rec.PartyID,
		Reference: rec.Number,
		SourceID:  SourceID("RETURN", rec.ID),
		RecordID:  rec.ID,
	}
	switch ReturnType(strings.ToLower(string(rec.ReturnType))) {
	case ReturnCreditNote:
		line.Kind = KindReturnCredit
		line.Debit = money(rec.Amount)
	case ReturnDebitNote:
		line.Kind = KindReturnDebit
		line.Credit = money(rec.Amount)
	default:
		return line, &InvariantError{SourceID: line.SourceID, Kind: "RETURN", Reason: fmt.Sprintf("unknown return type %q", rec.ReturnType)}
	}
	line.Particulars = firstNonEmpty(rec.Reason, line.Kind.Label())
	return line, checkAmount(line, rec.Amount)
}

// SourceID derives a stable identifier for a persisted record.
func SourceID(collection string, id int64) uuid.UUID {
	return uuid.NewSHA1(uuid.Nil, []byte(fmt.Sprintf("%s:%d", collection, id)))
}

func paymentParticulars(kind Kind, method string) string {
	if method = strings.TrimSpace(method); method != "" {
		return kind.Label() + " (" + method + ")"
	}
	return kind.Label()
}

func checkAmount(line Line, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return &InvariantError{SourceID: line.SourceID, Kind: line.Kind, Reason: "negative amount " + amount.String()}
	}
	if line.Date.IsZero() {
		return &InvariantError{SourceID: line.SourceID, Kind: line.Kind, Reason: "missing date"}
	}
	return nil
}

// money rounds to currency precision so displayed totals equal the sum of
// displayed lines.
func money(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
