package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App      AppConfig
	Log      LogConfig
	Sale     SaleConfig
	Operator OperatorConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name       string
	Env        string
	TerminalID string // Identifies the till in logs and submissions
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// SaleConfig holds checkout behavior
type SaleConfig struct {
	BatchStrategy        string // lifo, fifo, fefo
	PartialAllocation    string // commit, reject
	Currency             string
	DefaultPaymentMethod string
	CatalogFile          string // CSV catalog used by the file searcher
}

// OperatorConfig identifies who runs the till when no identity service is wired
type OperatorConfig struct {
	ID   string
	Name string
	Role string // admin, staff
}

var (
	batchStrategies   = []string{"lifo", "fifo", "fefo"}
	partialPolicies   = []string{"commit", "reject"}
	paymentMethods    = []string{"CASH", "CARD", "MOBILE_BANKING", "OTHER"}
	operatorRoles     = []string{"admin", "staff"}
	supportedCurrency = []string{"BDT", "USD", "EUR", "INR"}
)

// Load loads configuration from config.toml and environment variables.
// Priority (highest to lowest):
// 1. Environment variables with POS_ prefix (e.g., POS_SALE_BATCH_STRATEGY)
// 2. config.toml in ., ./config or /etc/pharmapos
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/pharmapos")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Defaults and env vars only
	}
	return build(v)
}

// LoadFile loads configuration from an explicit TOML file, still allowing
// environment overrides
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}
	return build(v)
}

func build(v *viper.Viper) (*Config, error) {
	v.SetEnvPrefix("POS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name:       v.GetString("app.name"),
			Env:        v.GetString("app.env"),
			TerminalID: v.GetString("app.terminal_id"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		Sale: SaleConfig{
			BatchStrategy:        strings.ToLower(v.GetString("sale.batch_strategy")),
			PartialAllocation:    strings.ToLower(v.GetString("sale.partial_allocation")),
			Currency:             strings.ToUpper(v.GetString("sale.currency")),
			DefaultPaymentMethod: strings.ToUpper(v.GetString("sale.default_payment_method")),
			CatalogFile:          v.GetString("sale.catalog_file"),
		},
		Operator: OperatorConfig{
			ID:   v.GetString("operator.id"),
			Name: v.GetString("operator.name"),
			Role: strings.ToLower(v.GetString("operator.role")),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "pharmapos"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.TerminalID == "" {
		cfg.App.TerminalID = "till-1"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stderr"
	}
	// LIFO is the house policy: newest stock leaves first
	if cfg.Sale.BatchStrategy == "" {
		cfg.Sale.BatchStrategy = "lifo"
	}
	if cfg.Sale.PartialAllocation == "" {
		cfg.Sale.PartialAllocation = "commit"
	}
	if cfg.Sale.Currency == "" {
		cfg.Sale.Currency = "BDT"
	}
	if cfg.Sale.DefaultPaymentMethod == "" {
		cfg.Sale.DefaultPaymentMethod = "CASH"
	}
	if cfg.Sale.CatalogFile == "" {
		cfg.Sale.CatalogFile = "catalog.csv"
	}
	if cfg.Operator.Name == "" {
		cfg.Operator.Name = "Counter"
	}
	if cfg.Operator.Role == "" {
		cfg.Operator.Role = "staff"
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if !slices.Contains(batchStrategies, c.Sale.BatchStrategy) {
		return fmt.Errorf("sale.batch_strategy must be one of %v, got %q", batchStrategies, c.Sale.BatchStrategy)
	}
	if !slices.Contains(partialPolicies, c.Sale.PartialAllocation) {
		return fmt.Errorf("sale.partial_allocation must be one of %v, got %q", partialPolicies, c.Sale.PartialAllocation)
	}
	if !slices.Contains(paymentMethods, c.Sale.DefaultPaymentMethod) {
		return fmt.Errorf("sale.default_payment_method must be one of %v, got %q", paymentMethods, c.Sale.DefaultPaymentMethod)
	}
	if !slices.Contains(supportedCurrency, c.Sale.Currency) {
		return fmt.Errorf("sale.currency must be one of %v, got %q", supportedCurrency, c.Sale.Currency)
	}
	if !slices.Contains(operatorRoles, c.Operator.Role) {
		return fmt.Errorf("operator.role must be one of %v, got %q", operatorRoles, c.Operator.Role)
	}
	if c.Operator.ID != "" {
		if _, err := uuid.Parse(c.Operator.ID); err != nil {
			return fmt.Errorf("operator.id must be a UUID: %w", err)
		}
	}

	// Production terminals run as a named operator, never the fallback
	if c.App.Env == "production" && c.Operator.ID == "" {
		return fmt.Errorf("operator.id is required in production")
	}
	return nil
}
