package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Storage backends.
const (
	BackendCSV    = "csv"
	BackendSQLite = "sqlite"
)

// Config holds runtime configuration sourced from an optional YAML file and env vars.
type Config struct {
	ContactsPath string `yaml:"contacts_path"`
	AuditLogPath string `yaml:"audit_log_path"`
	Backend      string `yaml:"backend"`
	SQLitePath   string `yaml:"sqlite_path"`
	MetricsFile  string `yaml:"metrics_file"`
	LogLevel     string `yaml:"log_level"`
	UniquePhones bool   `yaml:"unique_phones"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		ContactsPath: "contacts.csv",
		AuditLogPath: "log.txt",
		Backend:      BackendCSV,
		SQLitePath:   "contacts.db",
		LogLevel:     "info",
	}
}

// Load layers defaults, the YAML file at path (PHONEBOOK_CONFIG when path is
// empty; skipped when both are empty) and the environment, then validates.
func Load(path string) (Config, error) {
	cfg := Default()

	path = fallback(path, os.Getenv("PHONEBOOK_CONFIG"))
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	cfg.ContactsPath = fallback(os.Getenv("PHONEBOOK_CONTACTS_FILE"), cfg.ContactsPath)
	cfg.AuditLogPath = fallback(os.Getenv("PHONEBOOK_AUDIT_LOG"), cfg.AuditLogPath)
	cfg.Backend = strings.ToLower(fallback(os.Getenv("PHONEBOOK_BACKEND"), cfg.Backend))
	cfg.SQLitePath = fallback(os.Getenv("PHONEBOOK_SQLITE_PATH"), cfg.SQLitePath)
	cfg.MetricsFile = fallback(os.Getenv("PHONEBOOK_METRICS_FILE"), cfg.MetricsFile)
	cfg.LogLevel = strings.ToLower(fallback(os.Getenv("PHONEBOOK_LOG_LEVEL"), cfg.LogLevel))
	if v := strings.TrimSpace(os.Getenv("PHONEBOOK_UNIQUE_PHONES")); v != "" {
		unique, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("PHONEBOOK_UNIQUE_PHONES: %w", err)
		}
		cfg.UniquePhones = unique
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate performs minimal consistency checks.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendCSV:
		if strings.TrimSpace(c.ContactsPath) == "" {
			return errors.New("contacts_path is required for the csv backend")
		}
	case BackendSQLite:
		if strings.TrimSpace(c.SQLitePath) == "" {
			return errors.New("sqlite_path is required for the sqlite backend")
		}
	default:
		return fmt.Errorf("unknown backend %q (want %s or %s)", c.Backend, BackendCSV, BackendSQLite)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	return nil
}

func fallback(value, def string) string {
	if strings.TrimSpace(value) == "" {
		return def
	}
	return strings.TrimSpace(value)
}
