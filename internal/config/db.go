package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// DBConfig is read from DB_* variables (DB_HOST, DB_MAX_OPEN_CONNS, ...).
type DBConfig struct {
	Driver             string `default:"postgres"`
	Host               string `default:"postgres"`
	Port               int    `default:"5432"`
	User               string `default:"sfbs"`
	Password           string `default:"sfbs"`
	Name               string `default:"sfbs_db"`
	SSLMode            string `default:"disable"`
	Timezone           string `default:"UTC"`
	Path               string `default:"sfbs.db"` // только для sqlite
	MaxOpenConns       int    `split_words:"true" default:"10"`
	MaxIdleConns       int    `split_words:"true" default:"5"`
	ConnMaxLifetimeMin int    `split_words:"true" default:"30"` // минут
}

func LoadDBConfig() (*DBConfig, error) {
	var cfg DBConfig
	if err := envconfig.Process("DB", &cfg); err != nil {
		return nil, fmt.Errorf("load db config: %w", err)
	}

	// минимальная валидация
	switch cfg.Driver {
	case DriverPostgres:
		if cfg.Host == "" || cfg.User == "" || cfg.Name == "" {
			return nil, fmt.Errorf("invalid DB config: host/user/name must not be empty")
		}
	case DriverSQLite:
		if cfg.Path == "" {
			return nil, fmt.Errorf("invalid DB config: path must not be empty for sqlite")
		}
	default:
		return nil, fmt.Errorf("invalid DB config: unknown driver %q", cfg.Driver)
	}

	return &cfg, nil
}

// DSN renders the postgres connection string.
func (c *DBConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%d sslmode=%s TimeZone=%s",
		c.Host, c.User, c.Password, c.Name, c.Port, c.SSLMode, c.Timezone,
	)
}
