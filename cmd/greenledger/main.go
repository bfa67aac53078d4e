package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/spf13/cobra"

	"github.com/greenledger/greenledger/cmd/greenledger/cli"
	"github.com/greenledger/greenledger/internal/app"
	"github.com/greenledger/greenledger/internal/exports"
	"github.com/greenledger/greenledger/internal/ledger"
	"github.com/greenledger/greenledger/internal/observability"
	"github.com/greenledger/greenledger/internal/parties"
	"github.com/greenledger/greenledger/internal/platform/cache"
	"github.com/greenledger/greenledger/internal/platform/db"
	"github.com/greenledger/greenledger/internal/rbac"
	"github.com/greenledger/greenledger/jobs"
	"github.com/greenledger/greenledger/report"
)

var envFile string

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	root := &cobra.Command{
		Use:           "greenledger",
		Short:         "Party ledger and statement of account service",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "optional dotenv file loaded before the environment")
	root.AddCommand(serveCmd(), statementCmd(), jobsCmd())

	if err := root.ExecuteContext(ctx); err != nil {
		var exit exitError
		if errors.As(err, &exit) {
			os.Exit(int(exit))
		}
		slog.Default().Error("greenledger", slog.Any("error", err))
		os.Exit(1)
	}
}

type exitError int

func (e exitError) Error() string { return fmt.Sprintf("exit status %d", int(e)) }

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}
}

func statementCmd() *cobra.Command {
	var opts cli.StatementOptions
	cmd := &cobra.Command{
		Use:   "statement",
		Short: "Print a party statement",
		Example: `  greenledger statement --party 42 --from 2024-01-01 --to 2024-03-31
  greenledger statement --party 42 --format csv > statement.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			pool, err := db.New(cmd.Context(), db.Options{DSN: cfg.PGDSN, MaxConns: cfg.PGMaxConns})
			if err != nil {
				return err
			}
			defer pool.Close()
			stack, err := app.NewStatementStack(cfg, pool, logger, nil)
			if err != nil {
				return err
			}
			opts.Stdout = cmd.OutOrStdout()
			opts.Stderr = cmd.ErrOrStderr()
			if code := cli.NewStatementCLI(stack.Ledger, stack.Renderer, stack.Formatter).StatementCommand(cmd.Context(), opts); code != cli.ExitOK {
				return exitError(code)
			}
			return nil
		},
	}
	cmd.Flags().Int64Var(&opts.PartyID, "party", 0, "party id")
	cmd.Flags().StringVar(&opts.From, "from", "", "first day, YYYY-MM-DD (default first day of the --to month)")
	cmd.Flags().StringVar(&opts.To, "to", "", "last day, YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&opts.Format, "format", "text", "text, json, csv, html or pdf")
	cmd.Flags().StringVar(&opts.Opening, "opening", "carry", "carry or snapshot")
	_ = cmd.MarkFlagRequired("party")
	return cmd
}

func jobsCmd() *cobra.Command {
	var failed int
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Inspect the export queue",
	}
	stats := &cobra.Command{
		Use:   "stats",
		Short: "Print queue statistics and recent failures",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := setup()
			if err != nil {
				return err
			}
			jobsCLI := cli.NewJobsCLI(cfg.RedisAddr)
			defer func() {
				_ = jobsCLI.Close()
			}()
			return jobsCLI.StatsCommand(cmd.Context(), cmd.OutOrStdout(), failed)
		},
	}
	stats.Flags().IntVar(&failed, "failed", 10, "number of archived tasks to list")
	cmd.AddCommand(stats)
	return cmd
}

func setup() (*app.Config, *slog.Logger, error) {
	cfg, err := app.LoadConfig(envFile)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, app.NewLogger(cfg), nil
}

func serve(ctx context.Context) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}

	dbpool, err := db.New(ctx, db.Options{DSN: cfg.PGDSN, MaxConns: cfg.PGMaxConns, MaxConnLifetime: time.Hour})
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()

	rbacService := rbac.NewService(rbac.NewStore(dbpool), redisClient, cfg.RBACCacheTTL)
	rbacMiddleware := rbac.Middleware{Service: rbacService, Logger: logger}

	stack, err := app.NewStatementStack(cfg, dbpool, logger, metrics)
	if err != nil {
		return fmt.Errorf("statement stack: %w", err)
	}

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	jobClient := jobs.NewClient(redisOpts)
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()
	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	exportStore := exports.NewStore(redisClient, cfg.ExportTTL)
	exportService := exports.NewService(stack.Parties, exportStore, jobClient, cfg.ExportDir, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		RBACMiddleware:     rbacMiddleware,
		PartiesHandler:     parties.NewHandler(logger, stack.Parties, rbacMiddleware),
		LedgerHandler:      ledger.NewHandler(logger, stack.Ledger, stack.Renderer, rbacMiddleware),
		ExportsHandler:     exports.NewHandler(logger, exportService, rbacMiddleware),
		PermissionsHandler: rbac.NewPermissionsHandler(logger, rbacService, rbacMiddleware),
		ReportHandler:      report.NewHandler(report.NewClient(cfg.GotenbergURL), logger),
		JobHandler:         jobs.NewHandler(inspector, logger),
		Metrics:            metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
	return nil
}
