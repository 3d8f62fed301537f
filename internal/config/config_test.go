package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("BROKER_URL", "nats://localhost:4222")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "nats", cfg.Broker.Driver)
	assert.Equal(t, "nats://localhost:4222", cfg.Broker.URL)
	assert.Equal(t, 5*time.Second, cfg.Broker.RequestTimeout)
	assert.Equal(t, 10, cfg.Security.SaltRounds)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Zero(t, cfg.RateLimit.RequestsPerSecond)
}

func TestLoadConfig_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "scheduler.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
broker:
  driver: redis
  url: redis://file:6379/0
database:
  host: db.internal
  port: 6543
security:
  salt_rounds: 8
rate_limit:
  requests_per_second: 25.5
`), 0o600))

	t.Setenv("CONFIG_FILE", file)
	t.Setenv("BROKER_URL", "redis://env:6379/0")
	t.Setenv("SALT_ROUNDS", "12")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "redis", cfg.Broker.Driver)
	assert.Equal(t, "redis://env:6379/0", cfg.Broker.URL)
	assert.Equal(t, 12, cfg.Security.SaltRounds)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 6543, cfg.Database.Port)
	assert.Equal(t, 25.5, cfg.RateLimit.RequestsPerSecond)
}

func TestLoadConfig_RequiresBrokerURL(t *testing.T) {
	t.Setenv("BROKER_URL", "")

	_, err := LoadConfig()
	assert.ErrorContains(t, err, "BROKER_URL")
}

func TestValidate_RejectsUnknownDriver(t *testing.T) {
	cfg := &Config{Broker: BrokerConfig{Driver: "mqtt", URL: "tcp://x"}}
	assert.ErrorContains(t, cfg.Validate(), "mqtt")
}

func TestDatabaseDSN(t *testing.T) {
	d := DatabaseConfig{Host: "h", Port: 1, User: "u", Password: "p", Name: "n", SSLMode: "disable"}
	assert.Equal(t, "host=h port=1 user=u password=p dbname=n sslmode=disable", d.DSN())

	d.URL = "postgres://u:p@h/n"
	assert.Equal(t, "postgres://u:p@h/n", d.DSN())
}
