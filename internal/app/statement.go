package app

import (
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/text/language"

	"github.com/greenledger/greenledger/internal/ledger"
	"github.com/greenledger/greenledger/internal/ledger/export"
	"github.com/greenledger/greenledger/internal/parties"
	"github.com/greenledger/greenledger/internal/view"
	"github.com/greenledger/greenledger/report"
)

// StatementStack is everything needed to build and render statements.
type StatementStack struct {
	Parties   *parties.Service
	Ledger    *ledger.Service
	Formatter *ledger.Formatter
	Renderer  *export.Renderer
}

// NewStatementStack wires the party directory, ledger service and renderer
// over one pool. observer may be nil.
func NewStatementStack(cfg *Config, pool *pgxpool.Pool, logger *slog.Logger, observer ledger.Observer) (*StatementStack, error) {
	lang, err := language.Parse(cfg.Language)
	if err != nil {
		return nil, fmt.Errorf("app: STATEMENT_LANGUAGE %q: %w", cfg.Language, err)
	}
	formatter, err := ledger.NewFormatter(ledger.FormatOptions{Language: lang, Currency: cfg.CurrencySymbol})
	if err != nil {
		return nil, err
	}
	templates, err := view.NewEngine()
	if err != nil {
		return nil, err
	}
	var pdf export.PDFRenderer
	if cfg.GotenbergURL != "" {
		pdf = report.NewClient(cfg.GotenbergURL)
	}

	partyService := parties.NewService(parties.NewRepository(pool))
	return &StatementStack{
		Parties:   partyService,
		Ledger:    ledger.NewService(partyService, ledger.NewRepository(pool), logger, observer),
		Formatter: formatter,
		Renderer:  export.NewRenderer(formatter, templates, pdf),
	}, nil
}
