package ledger

import (
	"fmt"
	"strings"

	"github.com/greenledger/greenledger/internal/platform/httpx"
)

// Output names a statement representation.
type Output string

const (
	OutputJSON Output = "json"
	OutputCSV  Output = "csv"
	OutputHTML Output = "html"
	OutputPDF  Output = "pdf"
)

// ErrUnsupportedOutput is returned for unknown output names.
var ErrUnsupportedOutput = fmt.Errorf("ledger: unsupported format: %w", httpx.ErrValidation)

// ParseOutput reads an output name. Empty means JSON.
func ParseOutput(s string) (Output, error) {
	switch o := Output(strings.ToLower(strings.TrimSpace(s))); o {
	case "":
		return OutputJSON, nil
	case OutputJSON, OutputCSV, OutputHTML, OutputPDF:
		return o, nil
	default:
		return "", fmt.Errorf("%w %q", ErrUnsupportedOutput, s)
	}
}

// Extension is the file suffix, dot included.
func (o Output) Extension() string { return "." + string(o) }

// ContentType is the MIME type served for the output.
func (o Output) ContentType() string {
	switch o {
	case OutputCSV:
		return "text/csv; charset=utf-8"
	case OutputHTML:
		return "text/html; charset=utf-8"
	case OutputPDF:
		return "application/pdf"
	default:
		return "application/json"
	}
}

// Filename suggests a download name for a statement.
func (st Statement) Filename(o Output) string {
	return fmt.Sprintf("statement-%d-%s-%s%s", st.PartyID,
		st.Range.From.Format(DateLayout), st.Range.To.Format(DateLayout), o.Extension())
}
