package config

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("MERCHANT_KEY", "mkey")
	t.Setenv("MERCHANT_SALT", "msalt")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, 25, cfg.Database.MaxOpenConns)
	assert.Equal(t, 5*time.Minute, cfg.Database.ConnMaxLifetime)
	assert.True(t, cfg.Database.AutoMigrate)
	assert.Equal(t, ModeTest, cfg.Gateway.Mode)
	assert.Equal(t, "https://test.payu.in/_payment", cfg.Gateway.PaymentURL)
	assert.Equal(t, "https://test.payu.in/merchant/postservice.php?form=2", cfg.Gateway.InfoURL)
	assert.Equal(t, 10*time.Second, cfg.Gateway.Timeout)
	assert.Equal(t, "1-Month", cfg.App.DefaultServiceDuration)
	assert.Equal(t, 24*time.Hour, cfg.App.IdempotencyTTL)
	assert.Equal(t, "info", cfg.Logger.Level)
}

func TestLoad_EnvOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_SQLITE_PATH", "/tmp/x.db")
	t.Setenv("DB_AUTO_MIGRATE", "false")
	t.Setenv("MERCHANT_MODE", "production")
	t.Setenv("GATEWAY_TIMEOUT", "3s")
	t.Setenv("FRONTEND_URL", "https://shop.example.com/")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, "/tmp/x.db", cfg.Database.DSN())
	assert.False(t, cfg.Database.AutoMigrate)
	assert.Equal(t, "https://secure.payu.in/_payment", cfg.Gateway.PaymentURL)
	assert.Equal(t, 3*time.Second, cfg.Gateway.Timeout)
	assert.Equal(t, "https://shop.example.com", cfg.App.RedirectBase())
}

func TestLoad_ExplicitGatewayURLsWin(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PAYU_PAYMENT_URL", "http://127.0.0.1:9999/_payment")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://127.0.0.1:9999/_payment", cfg.Gateway.PaymentURL)
	assert.Equal(t, "https://test.payu.in/merchant/postservice.php?form=2", cfg.Gateway.InfoURL)
}

func TestLoad_ConfigFile(t *testing.T) {
	setRequiredEnv(t)

	path := filepath.Join(t.TempDir(), "checkout.yaml")
	content := []byte("server:\n  port: \"7070\"\napp:\n  default_service_duration: 3-Months\n")
	require.NoError(t, os.WriteFile(path, content, 0o600))
	t.Setenv("CONFIG_FILE", path)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "7070", cfg.Server.Port)
	assert.Equal(t, "3-Months", cfg.App.DefaultServiceDuration)
}

func TestLoad_MissingCredentials(t *testing.T) {
	t.Setenv("MERCHANT_KEY", "")
	t.Setenv("MERCHANT_SALT", "")

	_, err := Load()
	assert.ErrorContains(t, err, "merchant key and salt are required")
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:   ServerConfig{Port: "3000"},
			Database: DatabaseConfig{Driver: DriverSQLite, SQLitePath: ":memory:"},
			Gateway: GatewayConfig{
				MerchantKey:  "k",
				MerchantSalt: "s",
				Mode:         ModeTest,
				PaymentURL:   "https://test.payu.in/_payment",
				InfoURL:      "https://test.payu.in/merchant/postservice.php?form=2",
				Timeout:      time.Second,
			},
			App: AppConfig{
				BackendURL:             "http://localhost:3000",
				FrontendURL:            "http://localhost:5173",
				DefaultServiceDuration: "1-Month",
				IdempotencyTTL:         time.Hour,
			},
			Logger: LoggerConfig{Level: "info"},
		}
	}

	tests := []struct {
		mutate  func(c *Config)
		name    string
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "unknown driver", mutate: func(c *Config) { c.Database.Driver = "mysql" }, wantErr: "invalid database driver"},
		{name: "unknown mode", mutate: func(c *Config) { c.Gateway.Mode = "sandbox" }, wantErr: "invalid gateway mode"},
		{name: "relative frontend", mutate: func(c *Config) { c.App.FrontendURL = "/shop" }, wantErr: "invalid frontend url"},
		{name: "zero timeout", mutate: func(c *Config) { c.Gateway.Timeout = 0 }, wantErr: "gateway timeout"},
		{name: "bad log level", mutate: func(c *Config) { c.Logger.Level = "trace" }, wantErr: "invalid log level"},
		{name: "postgres without host", mutate: func(c *Config) { c.Database.Driver = DriverPostgres }, wantErr: "database host"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestNewLoggerTo(t *testing.T) {
	var buf bytes.Buffer
	logger := (&LoggerConfig{Level: "warn"}).NewLoggerTo(&buf)

	logger.Info("dropped")
	logger.Warn("kept", "txnid", "TXN1")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "kept", entry["msg"])
	assert.Equal(t, "checkout", entry["service"])
	assert.Equal(t, "TXN1", entry["txnid"])
	assert.Equal(t, slog.LevelWarn.String(), entry["level"])
}
