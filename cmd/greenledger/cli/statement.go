// Package cli implements the operator commands of the greenledger binary.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/greenledger/greenledger/internal/ledger"
	"github.com/greenledger/greenledger/internal/platform/httpx"
)

// Exit codes of the statement command.
const (
	ExitOK        = 0
	ExitUsage     = 1
	ExitNotFound  = 2
	ExitFailure   = 3
	ExitInvariant = 4
)

// StatementBuilder produces statements.
type StatementBuilder interface {
	Statement(ctx context.Context, req ledger.Request) (ledger.Statement, error)
}

// StatementOptions defines the flags of the statement command.
type StatementOptions struct {
	PartyID int64
	From    string
	To      string
	Format  string
	Opening string
	Stdout  io.Writer
	Stderr  io.Writer
	Now     func() time.Time
}

// StatementCLI prints statements from the command line.
type StatementCLI struct {
	builder   StatementBuilder
	renderer  ledger.Renderer
	formatter *ledger.Formatter
}

// NewStatementCLI wires the CLI.
func NewStatementCLI(builder StatementBuilder, renderer ledger.Renderer, formatter *ledger.Formatter) *StatementCLI {
	return &StatementCLI{builder: builder, renderer: renderer, formatter: formatter}
}

// StatementCommand builds one statement and writes it to Stdout. Format
// "text" prints an aligned table; the other formats match the HTTP API.
func (c *StatementCLI) StatementCommand(ctx context.Context, opts StatementOptions) int {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.PartyID <= 0 {
		_, _ = fmt.Fprintln(opts.Stderr, "statement: --party is required and must be positive")
		return ExitUsage
	}
	text := opts.Format == "" || opts.Format == "text"
	out := ledger.OutputJSON
	if !text {
		parsed, err := ledger.ParseOutput(opts.Format)
		if err != nil {
			_, _ = fmt.Fprintf(opts.Stderr, "statement: %v\n", err)
			return ExitUsage
		}
		out = parsed
	}
	r, err := ledger.ParseRange(opts.From, opts.To, opts.Now())
	if err != nil {
		_, _ = fmt.Fprintf(opts.Stderr, "statement: %v\n", err)
		return ExitUsage
	}
	mode := ledger.OpeningCarryForward
	if opts.Opening != "" {
		mode = ledger.OpeningMode(opts.Opening)
	}
	if mode != ledger.OpeningCarryForward && mode != ledger.OpeningSnapshot {
		_, _ = fmt.Fprintf(opts.Stderr, "statement: unknown opening mode %q\n", opts.Opening)
		return ExitUsage
	}

	st, err := c.builder.Statement(ctx, ledger.Request{PartyID: opts.PartyID, Range: r, Opening: mode})
	if err != nil {
		_, _ = fmt.Fprintf(opts.Stderr, "statement: %v\n", err)
		return exitCode(err)
	}

	switch {
	case text:
		renderText(opts.Stdout, c.formatter.Format(st))
	case out == ledger.OutputJSON:
		enc := json.NewEncoder(opts.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(ledger.NewStatementResponse(st)); err != nil {
			_, _ = fmt.Fprintf(opts.Stderr, "statement: encode json: %v\n", err)
			return ExitFailure
		}
	default:
		if err := c.renderer.Render(ctx, opts.Stdout, st, out); err != nil {
			_, _ = fmt.Fprintf(opts.Stderr, "statement: %v\n", err)
			return exitCode(err)
		}
	}
	return ExitOK
}

func exitCode(err error) int {
	switch {
	case errors.Is(err, httpx.ErrNotFound):
		return ExitNotFound
	case errors.Is(err, httpx.ErrValidation):
		return ExitUsage
	case errors.Is(err, httpx.ErrInvariant):
		return ExitInvariant
	default:
		return ExitFailure
	}
}

func renderText(out io.Writer, v ledger.View) {
	_, _ = fmt.Fprintf(out, "Statement of Account: %s\n%s to %s", v.PartyName, v.From, v.To)
	if v.Currency != "" {
		_, _ = fmt.Fprintf(out, " (%s)", v.Currency)
	}
	_, _ = fmt.Fprintln(out)
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	_, _ = fmt.Fprintln(tw, "Date\tType\tReference\tParticulars\tDebit\tCredit\tBalance\t")
	_, _ = fmt.Fprintf(tw, "\t\t\tOpening Balance\t\t\t%s\t\n", v.Opening)
	for _, row := range v.Rows {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t\n", row.Date, row.Type, row.Reference, row.Particulars, row.Debit, row.Credit, row.Balance)
	}
	_, _ = fmt.Fprintf(tw, "\t\t\tTotal\t%s\t%s\t%s\t\n", v.Totals.Debit, v.Totals.Credit, v.Totals.Closing)
	_ = tw.Flush()
}
