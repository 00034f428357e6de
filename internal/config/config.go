// Package config loads connection and logging settings from an optional
// YAML file and the environment.
package config

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/viper"

	"github.com/roach88/uniorm/internal/store"
)

// Backend names.
const (
	BackendSQLite = "sqlite"
	BackendMySQL  = "mysql"
)

// Config is the resolved configuration.
type Config struct {
	Backend string `mapstructure:"backend"`

	SQLite struct {
		Path string `mapstructure:"path"`
	} `mapstructure:"sqlite"`

	MySQL struct {
		Host     string `mapstructure:"host"`
		Port     int    `mapstructure:"port"`
		User     string `mapstructure:"user"`
		Password string `mapstructure:"password"`
		Database string `mapstructure:"database"`
		Charset  string `mapstructure:"charset"`
	} `mapstructure:"mysql"`

	Audit struct {
		Path string `mapstructure:"path"`
	} `mapstructure:"audit"`

	Log struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"log"`
}

var defaults = map[string]any{
	"backend":        BackendSQLite,
	"sqlite.path":    "local.db",
	"mysql.host":     "localhost",
	"mysql.port":     3306,
	"mysql.user":     "root",
	"mysql.password": "",
	"mysql.database": "",
	"mysql.charset":  "utf8mb4",
	"audit.path":     "logs.db",
	"log.level":      "info",
}

// envBindings maps config keys to the environment variables that override
// them.
var envBindings = map[string]string{
	"mysql.host":     "DB_HOST",
	"mysql.user":     "DB_USER",
	"mysql.password": "DB_PASSWORD",
	"mysql.database": "DB_NAME",
	"sqlite.path":    "DB_BASE_PATH",
	"audit.path":     "DB_LOG_PATH",
	"log.level":      "UNIORM_LOG_LEVEL",
}

// Load reads the YAML file at path, if path is not empty, then applies
// environment overrides on top of it.
//
// A non-empty DB_SQL selects the mysql backend unless it parses as a false
// boolean.
func Load(path string) (*Config, error) {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	for k, env := range envBindings {
		if err := v.BindEnv(k, env); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", env, err)
		}
	}
	if err := v.BindEnv("db_sql", "DB_SQL"); err != nil {
		return nil, fmt.Errorf("bind env DB_SQL: %w", err)
	}

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if truthy(v.GetString("db_sql")) {
		cfg.Backend = BackendMySQL
	}
	cfg.Backend = strings.ToLower(cfg.Backend)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func truthy(s string) bool {
	if s == "" {
		return false
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	return true
}

// Validate checks the backend name and log level.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendSQLite, BackendMySQL:
	default:
		return fmt.Errorf("invalid backend %q (want %s or %s)", c.Backend, BackendSQLite, BackendMySQL)
	}
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	return nil
}

// LogLevel parses log.level.
func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", c.Log.Level, err)
	}
	return level, nil
}

// MySQLConfig returns the networked backend settings.
func (c *Config) MySQLConfig() store.MySQLConfig {
	return store.MySQLConfig{
		Host:     c.MySQL.Host,
		Port:     c.MySQL.Port,
		User:     c.MySQL.User,
		Password: c.MySQL.Password,
		Database: c.MySQL.Database,
		Charset:  c.MySQL.Charset,
	}
}

// Open connects to the configured main backend.
func (c *Config) Open() (*sqlx.DB, error) {
	if c.Backend == BackendMySQL {
		return store.OpenMySQL(c.MySQLConfig())
	}
	return store.OpenSQLite(c.SQLite.Path)
}
