package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/pflag"

	"github.com/nkiryanov/minibank/internal/logger"
	"github.com/nkiryanov/minibank/internal/service/reserve"
)

const (
	defaultListenAddr    = "localhost:8000"
	defaultLoggingLevel  = logger.LevelInfo
	defaultEnvironment   = logger.EnvProduction
	defaultAuditInterval = time.Minute
)

type Config struct {
	// Default logging level
	LogLevel string

	// Address on which the service will be run
	ListenAddr string

	// Database to connect to
	DatabaseDSN string

	// Secret key
	// Some internal parts (like signing JWT tokens) uses symmetric encryption, so this key is used for that purpose
	SecretKey string

	// Environment
	Environment string

	// Balance the bank reserve starts with. Used only when the reserve is created
	ReserveSeed decimal.Decimal

	// How often reserve is compared with the ledger. Zero disables periodic audit
	AuditInterval time.Duration
}

func NewConfig() *Config {
	return &Config{
		LogLevel:      defaultLoggingLevel,
		ListenAddr:    defaultListenAddr,
		Environment:   defaultEnvironment,
		ReserveSeed:   reserve.DefaultSeed,
		AuditInterval: defaultAuditInterval,
	}
}

// Load variable from '.env' file (should be located at working directory)
func (c *Config) LoadDotEnv(getwd func() (string, error)) error {
	wd, err := getwd()
	if err != nil {
		return err
	}

	envMap, err := godotenv.Read(filepath.Join(wd, ".env"))

	switch {
	case err == nil:
		return c.LoadEnv(func(key string) string {
			return envMap[key]
		})
	case errors.Is(err, os.ErrNotExist):
		return nil
	default:
		return err
	}
}

func (c *Config) LoadEnv(getenv func(string) string) error {
	// Set option to value if it not empty
	setString := func(o *string) func(value string) error {
		return func(value string) error {
			if value != "" {
				*o = value
			}
			return nil
		}
	}
	setDecimal := func(o *decimal.Decimal) func(value string) error {
		return func(value string) error {
			if value == "" {
				return nil
			}
			return o.UnmarshalText([]byte(value))
		}
	}
	setDuration := func(o *time.Duration) func(value string) error {
		return func(value string) error {
			if value == "" {
				return nil
			}
			d, err := time.ParseDuration(value)
			if err != nil {
				return err
			}
			*o = d
			return nil
		}
	}

	envMap := map[string]func(string) error{
		"RUN_ADDRESS":    setString(&c.ListenAddr),
		"DATABASE_URI":   setString(&c.DatabaseDSN),
		"SECRET_KEY":     setString(&c.SecretKey),
		"LOG_LEVEL":      setString(&c.LogLevel),
		"ENVIRONMENT":    setString(&c.Environment),
		"RESERVE_SEED":   setDecimal(&c.ReserveSeed),
		"AUDIT_INTERVAL": setDuration(&c.AuditInterval),
	}

	for key, parseFn := range envMap {
		if err := parseFn(getenv(key)); err != nil {
			return fmt.Errorf("invalid %s. Err: %w", key, err)
		}
	}

	return nil
}

func (c *Config) ParseFlags(args []string) error {
	fs := pflag.NewFlagSet("minibank", pflag.ContinueOnError)

	fs.StringVarP(&c.ListenAddr, "address", "a", c.ListenAddr, "Server listen address")
	fs.StringVarP(&c.DatabaseDSN, "database", "d", c.DatabaseDSN, "Database connection string")
	fs.StringVarP(&c.SecretKey, "secret-key", "s", c.SecretKey, "Secret key")
	fs.StringVarP(&c.LogLevel, "log-level", "l", c.LogLevel, "Logging level (debug, info, warn, error)")
	fs.StringVarP(&c.Environment, "environment", "e", c.Environment, "Environment (dev, prod)")
	fs.Var(&decimalValue{&c.ReserveSeed}, "reserve-seed", "Initial bank reserve balance")
	fs.DurationVar(&c.AuditInterval, "audit-interval", c.AuditInterval, "Reserve audit interval, 0 disables")

	return fs.Parse(args)
}

func (c *Config) Validate() error {
	switch {
	case c.DatabaseDSN == "":
		return errors.New("database dsn must be set")
	case c.SecretKey == "":
		return errors.New("secret key must be set")
	case !c.ReserveSeed.IsPositive():
		return errors.New("reserve seed must be positive")
	case c.AuditInterval < 0:
		return errors.New("audit interval must not be negative")
	}

	return nil
}

// pflag.Value for decimals
type decimalValue struct {
	d *decimal.Decimal
}

func (v *decimalValue) String() string {
	if v.d == nil {
		return ""
	}
	return v.d.String()
}

func (v *decimalValue) Set(s string) error {
	return v.d.UnmarshalText([]byte(s))
}

func (v *decimalValue) Type() string {
	return "decimal"
}
