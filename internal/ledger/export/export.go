// Package export renders formatted statements as CSV, printable HTML or PDF.
package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/greenledger/greenledger/internal/ledger"
	"github.com/greenledger/greenledger/internal/platform/httpx"
	"github.com/greenledger/greenledger/internal/view"
)

// ErrUnsupported is returned for outputs that are not files.
var ErrUnsupported = fmt.Errorf("export: unsupported format: %w", httpx.ErrValidation)

// PDFRenderer converts an HTML document to PDF.
type PDFRenderer interface {
	RenderHTML(ctx context.Context, html []byte) ([]byte, error)
}

// Renderer writes statements in the file formats.
type Renderer struct {
	formatter *ledger.Formatter
	engine    *view.Engine
	pdf       PDFRenderer
	now       func() time.Time
}

// NewRenderer builds a Renderer. pdf may be nil when PDF output is not
// configured.
func NewRenderer(formatter *ledger.Formatter, engine *view.Engine, pdf PDFRenderer) *Renderer {
	return &Renderer{formatter: formatter, engine: engine, pdf: pdf, now: time.Now}
}

// Render writes st to w as out.
func (r *Renderer) Render(ctx context.Context, w io.Writer, st ledger.Statement, out ledger.Output) error {
	v := r.formatter.Format(st)
	switch out {
	case ledger.OutputCSV:
		return r.CSV(w, v)
	case ledger.OutputHTML:
		return r.HTML(w, v)
	case ledger.OutputPDF:
		return r.PDF(ctx, w, v)
	default:
		return fmt.Errorf("%w %q", ErrUnsupported, out)
	}
}

var csvHeader = []string{"Date", "Type", "Reference", "Particulars", "Debit", "Credit", "Balance"}

// CSV writes the opening row, one row per entry and the totals row.
func (r *Renderer) CSV(w io.Writer, v ledger.View) error {
	cw := csv.NewWriter(w)
	records := make([][]string, 0, len(v.Rows)+3)
	records = append(records, csvHeader, []string{v.From, "", "", "Opening Balance", "", "", v.Opening})
	for _, row := range v.Rows {
		records = append(records, []string{row.Date, row.Type, row.Reference, row.Particulars, row.Debit, row.Credit, row.Balance})
	}
	records = append(records, []string{v.To, "", "", "Total", v.Totals.Debit, v.Totals.Credit, v.Totals.Closing})
	if err := cw.WriteAll(records); err != nil {
		return fmt.Errorf("export: write csv: %w", err)
	}
	return nil
}

// HTML writes the printable statement page.
func (r *Renderer) HTML(w io.Writer, v ledger.View) error {
	data := view.TemplateData{
		Title:       "Statement of Account: " + v.PartyName,
		GeneratedAt: r.now(),
		Data:        v,
	}
	if err := r.engine.Render(w, "statement.html", data); err != nil {
		return fmt.Errorf("export: render html: %w", err)
	}
	return nil
}

// PDF renders the printable page and converts it.
func (r *Renderer) PDF(ctx context.Context, w io.Writer, v ledger.View) error {
	if r.pdf == nil {
		return fmt.Errorf("export: pdf renderer not configured: %w", httpx.ErrUnavailable)
	}
	var page bytes.Buffer
	if err := r.HTML(&page, v); err != nil {
		return err
	}
	doc, err := r.pdf.RenderHTML(ctx, page.Bytes())
	if err != nil {
		return fmt.Errorf("export: render pdf: %w", err)
	}
	_, err = w.Write(doc)
	return err
}
