package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Service   ServiceConfig   `mapstructure:"service"`
	Broker    BrokerConfig    `mapstructure:"broker"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Security  SecurityConfig  `mapstructure:"security"`
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

type ServiceConfig struct {
	Name string `mapstructure:"name"`
}

type BrokerConfig struct {
	// Driver selects the transport: "nats" or "redis".
	Driver         string        `mapstructure:"driver"`
	URL            string        `mapstructure:"url"`
	QueueGroup     string        `mapstructure:"queue_group"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	// HandlerTimeout bounds each handler's context. 0 leaves handlers
	// unbounded.
	HandlerTimeout time.Duration `mapstructure:"handler_timeout"`
}

type DatabaseConfig struct {
	// URL takes precedence over the discrete connection fields.
	URL             string        `mapstructure:"url"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

type SecurityConfig struct {
	// SaltRounds is the bcrypt cost factor.
	SaltRounds int `mapstructure:"salt_rounds"`
}

// ServerConfig configures the operational HTTP surface. Port 0 disables it.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

// RateLimitConfig throttles dispatch. A non-positive rate disables it.
type RateLimitConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

// envBindings maps config keys to the variable names deployments already use.
var envBindings = map[string]string{
	"broker.url":           "BROKER_URL",
	"broker.driver":        "BROKER_DRIVER",
	"security.salt_rounds": "SALT_ROUNDS",
	"database.url":         "DATABASE_URL",
	"database.host":        "DB_HOST",
	"database.port":        "DB_PORT",
	"database.user":        "DB_USER",
	"database.password":    "DB_PASSWORD",
	"database.name":        "DB_NAME",
	"database.sslmode":     "DB_SSLMODE",
	"log.level":            "LOG_LEVEL",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("service.name", "scheduling-service")
	v.SetDefault("broker.driver", "nats")
	v.SetDefault("broker.queue_group", "scheduling-service")
	v.SetDefault("broker.request_timeout", 5000*time.Millisecond)
	v.SetDefault("broker.handler_timeout", time.Duration(0))
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.name", "dentist")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 30*time.Minute)
	v.SetDefault("security.salt_rounds", 10)
	v.SetDefault("server.port", 9090)
	v.SetDefault("server.shutdown_timeout", 5*time.Second)
	v.SetDefault("log.level", "info")
	v.SetDefault("rate_limit.requests_per_second", 0)
	v.SetDefault("rate_limit.burst", 50)
}

// LoadConfig reads an optional .env file, an optional config.yaml (from ".",
// "./config" or the path in CONFIG_FILE) and the environment, in increasing
// order of precedence.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	if file := os.Getenv("CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate checks the settings the service cannot start without.
func (c *Config) Validate() error {
	if c.Broker.URL == "" {
		return errors.New("broker url is required (BROKER_URL)")
	}
	switch c.Broker.Driver {
	case "nats", "redis":
	default:
		return fmt.Errorf("unsupported broker driver %q", c.Broker.Driver)
	}
	if c.Security.SaltRounds <= 0 {
		c.Security.SaltRounds = 10
	}
	return nil
}

// DSN returns the lib/pq connection string.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host,
		d.Port,
		d.User,
		d.Password,
		d.Name,
		d.SSLMode,
	)
}
