package ledger

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/greenledger/greenledger/internal/parties"
)

// ============================================================================
// TEST DOUBLES
// ============================================================================

type fakeStore struct {
	mu        sync.Mutex
	sales     []SaleRecord
	purchases []PurchaseRecord
	expenses  []ExpenseRecord
	payments  []PaymentRecord
	returns   []ReturnRecord
	failOn    string
	err       error
	queries   []Query
}

func (s *fakeStore) record(name string, q Query) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries = append(s.queries, q)
	if s.failOn == name {
		return s.err
	}
	return nil
}

func (s *fakeStore) Sales(_ context.Context, q Query) ([]SaleRecord, error) {
	if err := s.record("sales", q); err != nil {
		return nil, err
	}
	var out []SaleRecord
	for _, rec := range s.sales {
		if rec.PartyID == q.PartyID && q.Matches(rec.InvoiceDate) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (s *fakeStore) Purchases(_ context.Context, q Query) ([]PurchaseRecord, error) {
	if err := s.record("purchases", q); err != nil {
		return nil, err
	}
	var out []PurchaseRecord
	for _, rec := range s.purchases {
		if rec.PartyID == q.PartyID && q.Matches(rec.BillDate) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (s *fakeStore) Expenses(_ context.Context, q Query) ([]ExpenseRecord, error) {
	if err := s.record("expenses", q); err != nil {
		return nil, err
	}
	var out []ExpenseRecord
	for _, rec := range s.expenses {
		if q.Matches(rec.Date) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (s *fakeStore) Payments(_ context.Context, q Query) ([]PaymentRecord, error) {
	if err := s.record("payments", q); err != nil {
		return nil, err
	}
	var out []PaymentRecord
	for _, rec := range s.payments {
		if rec.PartyID == q.PartyID && q.Matches(rec.Date) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (s *fakeStore) Returns(_ context.Context, q Query) ([]ReturnRecord, error) {
	if err := s.record("returns", q); err != nil {
		return nil, err
	}
	var out []ReturnRecord
	for _, rec := range s.returns {
		if rec.PartyID == q.PartyID && q.Matches(rec.Date) {
			out = append(out, rec)
		}
	}
	return out, nil
}

type fakeDirectory struct {
	parties map[int64]parties.Party
	err     error
}

func (d fakeDirectory) Get(_ context.Context, id int64) (parties.Party, error) {
	if d.err != nil {
		return parties.Party{}, d.err
	}
	p, ok := d.parties[id]
	if !ok {
		return parties.Party{}, parties.ErrNotFound
	}
	return p, nil
}

type observation struct {
	result string
	lines  int
}

type fakeObserver struct {
	mu   sync.Mutex
	seen []observation
}

func (o *fakeObserver) ObserveStatement(result string, lines int, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.seen = append(o.seen, observation{result: result, lines: lines})
}

// ============================================================================
// HELPERS
// ============================================================================

const acmeID int64 = 7

func jan(d int) time.Time {
	return time.Date(2024, time.January, d, 0, 0, 0, 0, time.UTC)
}

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("decimal %q: %v", s, err)
	}
	return d
}

func januaryRange(t *testing.T) Range {
	t.Helper()
	r, err := NewRange(jan(1), jan(31))
	if err != nil {
		t.Fatalf("range: %v", err)
	}
	return r
}

// workedExample is a sale on day 1, a payment received on day 3 and a
// purchase on day 5.
func workedExample() *fakeStore {
	return &fakeStore{
		sales: []SaleRecord{
			{ID: 1, PartyID: acmeID, InvoiceNumber: "INV-1", InvoiceDate: jan(1), GrandTotal: decimal.NewFromInt(1000)},
		},
		payments: []PaymentRecord{
			{ID: 1, PartyID: acmeID, Date: jan(3), Amount: decimal.NewFromInt(600), ReceivedOrPaid: PaymentReceived, Reference: "TXN-1"},
		},
		purchases: []PurchaseRecord{
			{ID: 1, PartyID: acmeID, BillNumber: "BILL-1", BillDate: jan(5), Amount: decimal.NewFromInt(200)},
		},
	}
}

func acmeDirectory(opening decimal.Decimal) fakeDirectory {
	return fakeDirectory{parties: map[int64]parties.Party{
		acmeID: {ID: acmeID, Name: "Acme Traders", Type: parties.TypeCustomer, OpeningBalance: opening},
	}}
}
