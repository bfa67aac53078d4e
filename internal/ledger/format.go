package ledger

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Balance side suffixes. With CreditIncreasesBalance a positive balance is
// a credit balance.
const (
	SideCredit = "CR"
	SideDebit  = "DR"
)

// Side returns the DR/CR suffix for a balance, or "" when it is zero.
func Side(balance decimal.Decimal) string {
	switch {
	case balance.IsZero():
		return ""
	case balance.IsPositive() == CreditIncreasesBalance:
		return SideCredit
	default:
		return SideDebit
	}
}

// Row is one rendered statement line.
type Row struct {
	Date        string
	Type        string
	Reference   string
	Particulars string
	Debit       string
	Credit      string
	Balance     string
}

// TotalsRow is the statement footer.
type TotalsRow struct {
	Debit   string
	Credit  string
	Closing string
}

// View is the print and export shape of a statement.
type View struct {
	PartyName string
	Currency  string
	From      string
	To        string
	Opening   string
	Rows      []Row
	Totals    TotalsRow
}

// FormatOptions configures a Formatter.
type FormatOptions struct {
	Language   language.Tag
	Currency   string
	DateLayout string
}

// Formatter renders statements for people. It never recomputes balances.
type Formatter struct {
	printer    *message.Printer
	point      string
	currency   string
	dateLayout string
}

// NewFormatter validates the ISO currency code and builds a Formatter.
func NewFormatter(opts FormatOptions) (*Formatter, error) {
	tag := opts.Language
	if tag == language.Und {
		tag = language.English
	}
	code := strings.ToUpper(strings.TrimSpace(opts.Currency))
	if code != "" {
		unit, err := currency.ParseISO(code)
		if err != nil {
			return nil, fmt.Errorf("ledger: currency %q: %w", opts.Currency, err)
		}
		code = unit.String()
	}
	layout := opts.DateLayout
	if layout == "" {
		layout = "02 Jan 2006"
	}
	printer := message.NewPrinter(tag)
	return &Formatter{printer: printer, point: decimalPoint(printer), currency: code, dateLayout: layout}, nil
}

// Format shapes a statement into rows and a totals footer.
func (f *Formatter) Format(st Statement) View {
	view := View{
		PartyName: st.PartyName,
		Currency:  f.currency,
		From:      st.Range.From.Format(f.dateLayout),
		To:        st.Range.To.Format(f.dateLayout),
		Opening:   f.Balance(st.OpeningBalance),
		Rows:      make([]Row, 0, len(st.Entries)),
		Totals: TotalsRow{
			Debit:   f.Amount(st.TotalDebit),
			Credit:  f.Amount(st.TotalCredit),
			Closing: f.Balance(st.ClosingBalance),
		},
	}
	for _, e := range st.Entries {
		view.Rows = append(view.Rows, Row{
			Date:        e.Date.Format(f.dateLayout),
			Type:        e.Kind.Label(),
			Reference:   e.Reference,
			Particulars: e.Particulars,
			Debit:       f.optional(e.Debit),
			Credit:      f.optional(e.Credit),
			Balance:     f.Balance(e.RunningBalance),
		})
	}
	return view
}

// Amount prints the absolute value rounded to two decimals with the
// locale's digits, grouping and decimal separator. Whole units and cents are
// formatted as integers so large amounts keep every digit.
func (f *Formatter) Amount(d decimal.Decimal) string {
	abs := d.Abs().Round(2)
	whole := abs.Truncate(0)
	cents := abs.Sub(whole).Shift(2).IntPart()
	return f.printer.Sprint(number.Decimal(whole.IntPart())) +
		f.point +
		f.printer.Sprint(number.Decimal(cents, number.MinIntegerDigits(2)))
}

// decimalPoint reads the locale's decimal separator off a formatted 0.5.
func decimalPoint(p *message.Printer) string {
	sample := []rune(p.Sprint(number.Decimal(0.5, number.Scale(1))))
	if len(sample) < 3 {
		return "."
	}
	return string(sample[1 : len(sample)-1])
}

// Balance prints an amount followed by its DR/CR side.
func (f *Formatter) Balance(d decimal.Decimal) string {
	side := Side(d)
	if side == "" {
		return f.Amount(d)
	}
	return f.Amount(d) + " " + side
}

func (f *Formatter) optional(d decimal.Decimal) string {
	if d.IsZero() {
		return ""
	}
	return f.Amount(d)
}
