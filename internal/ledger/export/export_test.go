package export

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/greenledger/greenledger/internal/ledger"
	"github.com/greenledger/greenledger/internal/platform/httpx"
	"github.com/greenledger/greenledger/internal/view"
)

type fakePDF struct {
	html []byte
	err  error
}

func (f *fakePDF) RenderHTML(_ context.Context, html []byte) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.html = html
	return []byte("%PDF-1.7 fake"), nil
}

func day(d int) time.Time {
	return time.Date(2024, time.January, d, 0, 0, 0, 0, time.UTC)
}

func workedStatement(t *testing.T) ledger.Statement {
	t.Helper()
	r, err := ledger.NewRange(day(1), day(31))
	require.NoError(t, err)
	acc, err := ledger.Accumulate(decimal.Zero, []ledger.Line{
		{Date: day(1), Kind: ledger.KindSale, Reference: "INV-1", Particulars: "Goods, boxed", Credit: decimal.NewFromInt(1000), SourceID: ledger.SourceID("SALE", 1)},
		{Date: day(3), Kind: ledger.KindPaymentReceived, Reference: "TXN-1", Particulars: "Payment Received", Credit: decimal.NewFromInt(600), SourceID: ledger.SourceID("PAYMENT", 1)},
		{Date: day(5), Kind: ledger.KindPurchase, Reference: "BILL-1", Particulars: "<Packaging>", Debit: decimal.NewFromInt(200), SourceID: ledger.SourceID("PURCHASE", 1)},
	})
	require.NoError(t, err)
	return ledger.Statement{
		PartyID:        7,
		PartyName:      "Acme Traders",
		Range:          r,
		OpeningBalance: acc.Opening,
		Entries:        acc.Entries,
		TotalDebit:     acc.TotalDebit,
		TotalCredit:    acc.TotalCredit,
		ClosingBalance: acc.Closing,
	}
}

func newTestRenderer(t *testing.T, pdf PDFRenderer) *Renderer {
	t.Helper()
	formatter, err := ledger.NewFormatter(ledger.FormatOptions{Language: language.English, Currency: "USD"})
	require.NoError(t, err)
	engine, err := view.NewEngine()
	require.NoError(t, err)
	r := NewRenderer(formatter, engine, pdf)
	r.now = func() time.Time { return time.Date(2024, time.February, 1, 9, 0, 0, 0, time.UTC) }
	return r
}

func TestRenderCSV(t *testing.T) {
	r := newTestRenderer(t, nil)
	var buf bytes.Buffer
	require.NoError(t, r.Render(context.Background(), &buf, workedStatement(t), ledger.OutputCSV))

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 6)
	if want := "Date,Type,Reference,Particulars,Debit,Credit,Balance"; lines[0] != want {
		t.Fatalf("unexpected header: %q", lines[0])
	}
	assert.Equal(t, "01 Jan 2024,,,Opening Balance,,,0.00", lines[1])
	assert.Equal(t, `01 Jan 2024,Sale,INV-1,"Goods, boxed",,"1,000.00","1,000.00 CR"`, lines[2])
	assert.Equal(t, `05 Jan 2024,Purchase,BILL-1,<Packaging>,200.00,,"1,400.00 CR"`, lines[4])
	assert.Equal(t, `31 Jan 2024,,,Total,200.00,"1,600.00","1,400.00 CR"`, lines[5])
}

func TestRenderHTML(t *testing.T) {
	r := newTestRenderer(t, nil)
	var buf bytes.Buffer
	require.NoError(t, r.Render(context.Background(), &buf, workedStatement(t), ledger.OutputHTML))

	page := buf.String()
	assert.Contains(t, page, "<title>Statement of Account: Acme Traders</title>")
	assert.Contains(t, page, "Amounts in USD")
	assert.Contains(t, page, "&lt;Packaging&gt;")
	assert.Contains(t, page, "1,400.00 CR")
	assert.Contains(t, page, "Generated 01 Feb 2024 09:00 UTC")
	assert.NotContains(t, page, "No transactions in this period.")
}

func TestRenderPDF(t *testing.T) {
	pdf := &fakePDF{}
	r := newTestRenderer(t, pdf)
	var buf bytes.Buffer
	require.NoError(t, r.Render(context.Background(), &buf, workedStatement(t), ledger.OutputPDF))

	assert.Equal(t, "%PDF-1.7 fake", buf.String())
	assert.Contains(t, string(pdf.html), "Statement of Account: Acme Traders")
}

func TestRenderPDFErrors(t *testing.T) {
	var buf bytes.Buffer

	err := newTestRenderer(t, nil).Render(context.Background(), &buf, workedStatement(t), ledger.OutputPDF)
	assert.True(t, errors.Is(err, httpx.ErrUnavailable))

	cause := errors.New("gotenberg: 502")
	err = newTestRenderer(t, &fakePDF{err: cause}).Render(context.Background(), &buf, workedStatement(t), ledger.OutputPDF)
	assert.True(t, errors.Is(err, cause))
	assert.Zero(t, buf.Len())
}

func TestRenderRejectsJSON(t *testing.T) {
	err := newTestRenderer(t, nil).Render(context.Background(), &bytes.Buffer{}, workedStatement(t), ledger.OutputJSON)
	assert.True(t, errors.Is(err, ErrUnsupported))
	assert.True(t, errors.Is(err, httpx.ErrValidation))
}
