package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Logger   LoggerConfig   `mapstructure:"logger"`
	Database DatabaseConfig `mapstructure:"database"`
	Gateway  GatewayConfig  `mapstructure:"gateway"`
	App      AppConfig      `mapstructure:"app"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	Host            string        `mapstructure:"host"`
	Port            string        `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	SQLitePath      string        `mapstructure:"sqlite_path"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// GatewayConfig holds payment gateway credentials and endpoints
type GatewayConfig struct {
	MerchantKey  string        `mapstructure:"merchant_key"`
	MerchantSalt string        `mapstructure:"merchant_salt"`
	Mode         string        `mapstructure:"mode"`
	PaymentURL   string        `mapstructure:"payment_url"`
	InfoURL      string        `mapstructure:"info_url"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

// AppConfig holds application-specific configuration
type AppConfig struct {
	BackendURL               string        `mapstructure:"backend_url"`
	FrontendURL              string        `mapstructure:"frontend_url"`
	SuccessPath              string        `mapstructure:"success_path"`
	FailurePath              string        `mapstructure:"failure_path"`
	ErrorPath                string        `mapstructure:"error_path"`
	DefaultServiceDuration   string        `mapstructure:"default_service_duration"`
	IdempotencyTTL           time.Duration `mapstructure:"idempotency_ttl"`
	IdempotencySweepInterval time.Duration `mapstructure:"idempotency_sweep_interval"`
}

// LoggerConfig holds logging configuration
type LoggerConfig struct {
	Level string `mapstructure:"level"` // debug, info, warn, error
}

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	ModeTest       = "test"
	ModeProduction = "production"
)

var gatewayEndpoints = map[string][2]string{
	ModeTest: {
		"https://test.payu.in/_payment",
		"https://test.payu.in/merchant/postservice.php?form=2",
	},
	ModeProduction: {
		"https://secure.payu.in/_payment",
		"https://info.payu.in/merchant/postservice.php?form=2",
	},
}

// envBindings maps config keys to the environment variables that set them
var envBindings = map[string]string{
	"server.port":          "PORT",
	"server.read_timeout":  "SERVER_READ_TIMEOUT",
	"server.write_timeout": "SERVER_WRITE_TIMEOUT",
	"server.idle_timeout":  "SERVER_IDLE_TIMEOUT",

	"database.driver":            "DB_DRIVER",
	"database.host":              "DB_HOST",
	"database.port":              "DB_PORT",
	"database.user":              "DB_USER",
	"database.password":          "DB_PASSWORD",
	"database.name":              "DB_NAME",
	"database.sslmode":           "DB_SSLMODE",
	"database.sqlite_path":       "DB_SQLITE_PATH",
	"database.max_open_conns":    "DB_MAX_OPEN_CONNS",
	"database.max_idle_conns":    "DB_MAX_IDLE_CONNS",
	"database.conn_max_lifetime": "DB_CONN_MAX_LIFETIME",
	"database.auto_migrate":      "DB_AUTO_MIGRATE",

	"gateway.merchant_key":  "MERCHANT_KEY",
	"gateway.merchant_salt": "MERCHANT_SALT",
	"gateway.mode":          "MERCHANT_MODE",
	"gateway.payment_url":   "PAYU_PAYMENT_URL",
	"gateway.info_url":      "PAYU_INFO_URL",
	"gateway.timeout":       "GATEWAY_TIMEOUT",

	"app.backend_url":                "BACKEND_URL",
	"app.frontend_url":               "FRONTEND_URL",
	"app.success_path":               "SUCCESS_PATH",
	"app.failure_path":               "FAILURE_PATH",
	"app.error_path":                 "ERROR_PATH",
	"app.default_service_duration":   "DEFAULT_SERVICE_DURATION",
	"app.idempotency_ttl":            "IDEMPOTENCY_TTL",
	"app.idempotency_sweep_interval": "IDEMPOTENCY_SWEEP_INTERVAL",

	"logger.level": "LOG_LEVEL",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "3000")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.idle_timeout", "60s")

	v.SetDefault("database.driver", DriverPostgres)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.name", "checkout")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.sqlite_path", "checkout.db")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "5m")
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("gateway.mode", ModeTest)
	v.SetDefault("gateway.timeout", "10s")

	v.SetDefault("app.backend_url", "http://localhost:3000")
	v.SetDefault("app.frontend_url", "http://localhost:5173")
	v.SetDefault("app.success_path", "/payment-success")
	v.SetDefault("app.failure_path", "/payment-failed")
	v.SetDefault("app.error_path", "/payment-error")
	v.SetDefault("app.default_service_duration", "1-Month")
	v.SetDefault("app.idempotency_ttl", "24h")
	v.SetDefault("app.idempotency_sweep_interval", "1h")

	v.SetDefault("logger.level", "info")
}

// Load loads configuration from defaults, an optional YAML file named by
// CONFIG_FILE, and environment variables, in increasing precedence.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", env, err)
		}
	}

	if err := v.BindEnv("config_file", "CONFIG_FILE"); err != nil {
		return nil, fmt.Errorf("bind CONFIG_FILE: %w", err)
	}
	if path := v.GetString("config_file"); path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode configuration: %w", err)
	}

	cfg.Gateway.applyModeDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (g *GatewayConfig) applyModeDefaults() {
	endpoints, ok := gatewayEndpoints[g.Mode]
	if !ok {
		return
	}
	if g.PaymentURL == "" {
		g.PaymentURL = endpoints[0]
	}
	if g.InfoURL == "" {
		g.InfoURL = endpoints[1]
	}
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port cannot be empty")
	}

	switch c.Database.Driver {
	case DriverPostgres:
		if c.Database.Host == "" {
			return fmt.Errorf("database host cannot be empty")
		}
		if c.Database.DBName == "" {
			return fmt.Errorf("database name cannot be empty")
		}
	case DriverSQLite:
		if c.Database.SQLitePath == "" {
			return fmt.Errorf("sqlite path cannot be empty")
		}
	default:
		return fmt.Errorf("invalid database driver: %s (must be postgres or sqlite)", c.Database.Driver)
	}

	if c.Gateway.MerchantKey == "" || c.Gateway.MerchantSalt == "" {
		return fmt.Errorf("merchant key and salt are required")
	}
	if _, ok := gatewayEndpoints[c.Gateway.Mode]; !ok {
		return fmt.Errorf("invalid gateway mode: %s (must be test or production)", c.Gateway.Mode)
	}
	if c.Gateway.Timeout <= 0 {
		return fmt.Errorf("gateway timeout must be positive")
	}
	for name, raw := range map[string]string{
		"payment url":  c.Gateway.PaymentURL,
		"info url":     c.Gateway.InfoURL,
		"backend url":  c.App.BackendURL,
		"frontend url": c.App.FrontendURL,
	} {
		if err := validateAbsoluteURL(raw); err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
	}

	if c.App.DefaultServiceDuration == "" {
		return fmt.Errorf("default service duration cannot be empty")
	}
	if c.App.IdempotencyTTL <= 0 {
		return fmt.Errorf("idempotency ttl must be positive")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logger.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	return nil
}

func validateAbsoluteURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%q is not an absolute URL", raw)
	}
	return nil
}

// DSN returns the driver-specific connection string
func (c *DatabaseConfig) DSN() string {
	if c.Driver == DriverSQLite {
		return c.SQLitePath
	}
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// RedirectBase returns the frontend URL without a trailing slash
func (a *AppConfig) RedirectBase() string {
	return strings.TrimSuffix(a.FrontendURL, "/")
}
