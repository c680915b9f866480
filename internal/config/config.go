// Package config handles gateway configuration and environment loading.
package config

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// SourceConfig describes one external data source registered at startup.
// Parsed from SOURCES as a comma-separated list of name=driver:dsn entries.
type SourceConfig struct {
	Name   string
	Driver string
	DSN    string
}

// Config holds the gateway's configuration.
type Config struct {
	Org        string // organization whose catalog this gateway serves
	MetaDBPath string // path to the SQLite catalog metastore
	LocalDB    string // DSN of the embedded local engine ("" = in-memory DuckDB)
	ListenAddr string // HTTP listen address (default ":8080")
	NATSURL    string // coordinator messaging URL
	LogLevel   string

	Sources []SourceConfig

	// Auth
	JWTSecret  string // HS256 shared secret; empty disables bearer auth
	UserHeader string // trusted identity header when bearer auth is off

	// Rate limiting on the query endpoint
	RateLimitRPS   float64
	RateLimitBurst int

	CORSAllowedOrigins []string
}

// LoadFromEnv reads configuration from the environment.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		Org:        os.Getenv("FEDSQL_ORG"),
		MetaDBPath: os.Getenv("META_DB_PATH"),
		LocalDB:    os.Getenv("LOCAL_DB"),
		ListenAddr: os.Getenv("LISTEN_ADDR"),
		NATSURL:    os.Getenv("NATS_URL"),
		LogLevel:   os.Getenv("LOG_LEVEL"),
		JWTSecret:  os.Getenv("AUTH_JWT_SECRET"),
		UserHeader: os.Getenv("AUTH_USER_HEADER"),
	}

	if cfg.Org == "" {
		cfg.Org = "default"
	}
	if cfg.MetaDBPath == "" {
		cfg.MetaDBPath = "fedsql_meta.db"
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}
	if cfg.UserHeader == "" {
		cfg.UserHeader = "X-Fedsql-User"
	}
	if cfg.NATSURL == "" {
		cfg.NATSURL = "nats://127.0.0.1:4222"
	}

	if v := os.Getenv("RATE_LIMIT_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.RateLimitRPS = f
		}
	}
	if v := os.Getenv("RATE_LIMIT_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RateLimitBurst = n
		}
	}

	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		origins := strings.Split(v, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		cfg.CORSAllowedOrigins = origins
	}

	if v := os.Getenv("SOURCES"); v != "" {
		sources, err := parseSources(v)
		if err != nil {
			return nil, err
		}
		cfg.Sources = sources
	}

	return cfg, nil
}

// SlogLevel maps the configured log level to slog.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// parseSources parses "name=driver:dsn,name2=driver:dsn" entries.
func parseSources(raw string) ([]SourceConfig, error) {
	var out []SourceConfig
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		name, rest, ok := strings.Cut(entry, "=")
		if !ok {
			return nil, fmt.Errorf("invalid SOURCES entry %q: want name=driver:dsn", entry)
		}
		driver, dsn, ok := strings.Cut(rest, ":")
		if !ok {
			return nil, fmt.Errorf("invalid SOURCES entry %q: want name=driver:dsn", entry)
		}
		out = append(out, SourceConfig{
			Name:   strings.TrimSpace(name),
			Driver: strings.TrimSpace(driver),
			DSN:    strings.TrimSpace(dsn),
		})
	}
	return out, nil
}

// LoadDotEnv loads KEY=VALUE pairs from the given file into the process
// environment. Existing environment variables take precedence; a missing
// file is not an error.
func LoadDotEnv(path string) error {
	f, err := os.Open(path) //nolint:gosec // path is caller-controlled
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = stripQuotes(strings.TrimSpace(value))
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("setenv %s: %w", key, err)
			}
		}
	}
	return scanner.Err()
}

func stripQuotes(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
