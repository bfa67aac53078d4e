package ledger

import "github.com/shopspring/decimal"

// StatementQuery is the validated query string of a statement request.
type StatementQuery struct {
	From    string `validate:"omitempty,datetime=2006-01-02"`
	To      string `validate:"omitempty,datetime=2006-01-02"`
	Format  string `validate:"omitempty,oneof=json csv html pdf"`
	Opening string `validate:"omitempty,oneof=carry snapshot"`
}

// DateRangeResponse is the inclusive statement period.
type DateRangeResponse struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// EntryResponse is one statement line on the wire.
type EntryResponse struct {
	Date            string `json:"date"`
	Type            string `json:"type"`
	Kind            Kind   `json:"kind"`
	ReferenceNumber string `json:"referenceNumber"`
	Particulars     string `json:"particulars"`
	DebitAmount     string `json:"debitAmount"`
	CreditAmount    string `json:"creditAmount"`
	RunningBalance  string `json:"runningBalance"`
	BalanceSide     string `json:"balanceSide,omitempty"`
	SourceID        string `json:"sourceId"`
}

// TotalsResponse is the statement footer on the wire.
type TotalsResponse struct {
	Debit          string `json:"debit"`
	Credit         string `json:"credit"`
	ClosingBalance string `json:"closingBalance"`
	ClosingSide    string `json:"closingSide,omitempty"`
}

// StatementResponse is the JSON statement object. Amounts are fixed two
// decimal strings so no precision is lost in transit.
type StatementResponse struct {
	PartyID        int64             `json:"partyId"`
	PartyName      string            `json:"partyName"`
	DateRange      DateRangeResponse `json:"dateRange"`
	OpeningBalance string            `json:"openingBalance"`
	Entries        []EntryResponse   `json:"entries"`
	Totals         TotalsResponse    `json:"totals"`
}

// NewStatementResponse maps a statement onto its wire shape.
func NewStatementResponse(st Statement) StatementResponse {
	resp := StatementResponse{
		PartyID:   st.PartyID,
		PartyName: st.PartyName,
		DateRange: DateRangeResponse{
			From: st.Range.From.Format(DateLayout),
			To:   st.Range.To.Format(DateLayout),
		},
		OpeningBalance: fixed(st.OpeningBalance),
		Entries:        make([]EntryResponse, 0, len(st.Entries)),
		Totals: TotalsResponse{
			Debit:          fixed(st.TotalDebit),
			Credit:         fixed(st.TotalCredit),
			ClosingBalance: fixed(st.ClosingBalance),
			ClosingSide:    Side(st.ClosingBalance),
		},
	}
	for _, e := range st.Entries {
		resp.Entries = append(resp.Entries, EntryResponse{
			Date:            e.Date.Format(DateLayout),
			Type:            e.Kind.Label(),
			Kind:            e.Kind,
			ReferenceNumber: e.Reference,
			Particulars:     e.Particulars,
			DebitAmount:     fixed(e.Debit),
			CreditAmount:    fixed(e.Credit),
			RunningBalance:  fixed(e.RunningBalance),
			BalanceSide:     Side(e.RunningBalance),
			SourceID:        e.SourceID.String(),
		})
	}
	return resp
}

func fixed(d decimal.Decimal) string {
	return d.StringFixed(2)
}
