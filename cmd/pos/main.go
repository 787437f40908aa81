package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/pharmapos/backend/internal/application/checkout"
	"github.com/pharmapos/backend/internal/domain/cart"
	"github.com/pharmapos/backend/internal/domain/finance"
	"github.com/pharmapos/backend/internal/domain/identity"
	"github.com/pharmapos/backend/internal/domain/shared/valueobject"
	"github.com/pharmapos/backend/internal/infrastructure/catalogcsv"
	"github.com/pharmapos/backend/internal/infrastructure/config"
	"github.com/pharmapos/backend/internal/infrastructure/logger"
	"github.com/pharmapos/backend/internal/infrastructure/strategy"
	"github.com/pharmapos/backend/internal/interfaces/cli"
	"go.uber.org/zap"
	"golang.org/x/text/language"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "Path to config.toml (default: search ., ./config, /etc/pharmapos)")
	flag.Parse()

	// A .env file is optional; real environment variables win
	_ = godotenv.Load()

	// Load configuration
	cfg, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Unblock the pending read on shutdown
	go func() {
		<-ctx.Done()
		_ = os.Stdin.Close()
	}()

	code := 0
	if err := run(ctx, cfg, log, os.Stdin, os.Stdout); err != nil {
		log.Error("Till stopped", zap.Error(err))
		code = 1
	}
	log.Info("Till shut down")
	logger.Sync(log)
	os.Exit(code)
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}

// run wires the till from configuration and serves the REPL until it ends
func run(ctx context.Context, cfg *config.Config, log *zap.Logger, in io.Reader, out io.Writer) error {
	operator, err := operatorFromConfig(cfg.Operator, log)
	if err != nil {
		return fmt.Errorf("operator: %w", err)
	}

	registry, err := strategy.NewRegistryWithDefaults()
	if err != nil {
		return fmt.Errorf("strategy registry: %w", err)
	}
	ordering, err := registry.GetBatchStrategy(cfg.Sale.BatchStrategy)
	if err != nil {
		return fmt.Errorf("batch strategy: %w", err)
	}
	policy, err := cart.ParsePartialPolicy(cfg.Sale.PartialAllocation)
	if err != nil {
		return err
	}
	method, err := finance.ParsePaymentMethod(cfg.Sale.DefaultPaymentMethod)
	if err != nil {
		return err
	}

	searcher, err := catalogcsv.Open(cfg.Sale.CatalogFile, log)
	if err != nil {
		return fmt.Errorf("catalog: %w", err)
	}

	currency := valueobject.Currency(cfg.Sale.Currency)
	session, err := checkout.NewSession(
		operator,
		searcher,
		cli.NewLogSubmitter(cfg.App.TerminalID, log),
		log,
		checkout.WithCartOptions(
			cart.WithBatchOrdering(ordering),
			cart.WithPartialPolicy(policy),
		),
		checkout.WithCurrency(currency),
		checkout.WithDefaultPaymentMethod(method),
	)
	if err != nil {
		return err
	}

	log.Info("Starting till",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("terminal_id", cfg.App.TerminalID),
		zap.String("session_id", session.ID().String()),
		zap.String("batch_strategy", ordering.Name()),
		zap.String("partial_allocation", string(policy)),
		zap.Int("catalog_size", searcher.Len()),
	)

	repl := cli.NewREPL(session, in, out, cli.NewFormatter(language.English, currency), log)
	if err := repl.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// operatorFromConfig builds the till operator. Without a configured ID a
// per-run ID is issued, which config validation only allows outside
// production.
func operatorFromConfig(cfg config.OperatorConfig, log *zap.Logger) (identity.Operator, error) {
	role, err := identity.ParseRole(cfg.Role)
	if err != nil {
		return identity.Operator{}, err
	}

	id := uuid.New()
	if cfg.ID != "" {
		if id, err = uuid.Parse(cfg.ID); err != nil {
			return identity.Operator{}, fmt.Errorf("invalid operator id %q: %w", cfg.ID, err)
		}
	} else {
		log.Warn("operator.id not set, using a per-run id", zap.String("operator_id", id.String()))
	}
	return identity.NewOperator(id, cfg.Name, role)
}
