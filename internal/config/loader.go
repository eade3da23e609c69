package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config captures environment driven configuration values for the migration
// tool.
type Config struct {
	Driver        string
	DSN           string
	LockTimeout   time.Duration
	LogLevel      string
	MigrationsDir string
}

// Load reads a .env file when one is present and then parses configuration
// from the process environment. Environment variables always win over .env
// entries.
//
// The loader applies sensible defaults for optional fields while validating
// the rest, and reports every invalid entry in one error instead of stopping
// at the first.
func Load() (Config, error) {
	// A missing .env is the normal case outside local development.
	_ = godotenv.Load()

	cfg := Config{
		Driver:        "sqlite",
		DSN:           "file:instagram_scraper.db?_pragma=foreign_keys(1)",
		LockTimeout:   30 * time.Second,
		LogLevel:      "info",
		MigrationsDir: "internal/schema",
	}

	invalid := make([]string, 0, 2)

	if driver := strings.TrimSpace(os.Getenv("IG_DB_DRIVER")); driver != "" {
		switch strings.ToLower(driver) {
		case "sqlite", "sqlite3", "mysql", "mariadb":
			cfg.Driver = strings.ToLower(driver)
		default:
			invalid = append(invalid, "IG_DB_DRIVER")
		}
	}

	if dsn := strings.TrimSpace(os.Getenv("IG_DB_DSN")); dsn != "" {
		cfg.DSN = dsn
	} else if cfg.Driver == "mysql" || cfg.Driver == "mariadb" {
		// Production deployments set the split DB_* variables instead of a
		// full DSN; compose one from them.
		dsn, err := mysqlDSNFromParts()
		if err != nil {
			return Config{}, err
		}
		cfg.DSN = dsn
	}

	if timeoutValue := strings.TrimSpace(os.Getenv("IG_LOCK_TIMEOUT")); timeoutValue != "" {
		timeout, err := time.ParseDuration(timeoutValue)
		if err != nil || timeout <= 0 {
			invalid = append(invalid, "IG_LOCK_TIMEOUT")
		} else {
			cfg.LockTimeout = timeout
		}
	}

	if level := strings.TrimSpace(os.Getenv("IG_LOG_LEVEL")); level != "" {
		switch strings.ToLower(level) {
		case "debug", "info", "warn", "error":
			cfg.LogLevel = strings.ToLower(level)
		default:
			invalid = append(invalid, "IG_LOG_LEVEL")
		}
	}

	if dir := strings.TrimSpace(os.Getenv("IG_MIGRATIONS_DIR")); dir != "" {
		cfg.MigrationsDir = dir
	}

	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment variables: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}

// mysqlDSNFromParts builds a go-sql-driver DSN from the DB_HOST style
// variables the deployment scripts export.
func mysqlDSNFromParts() (string, error) {
	host := strings.TrimSpace(os.Getenv("DB_HOST"))
	name := strings.TrimSpace(os.Getenv("DB_NAME"))
	if host == "" || name == "" {
		return "", fmt.Errorf("mysql driver selected but neither IG_DB_DSN nor DB_HOST/DB_NAME are set")
	}

	port := strings.TrimSpace(os.Getenv("DB_PORT"))
	if port == "" {
		port = "3306"
	}
	user := strings.TrimSpace(os.Getenv("DB_USER"))
	if user == "" {
		user = "root"
	}
	pass := os.Getenv("DB_PASSWORD")

	// go-sql-driver reads the password verbatim, no percent escaping.
	credentials := user
	if pass != "" {
		credentials = user + ":" + pass
	}
	return fmt.Sprintf("%s@tcp(%s:%s)/%s?parseTime=true&charset=utf8mb4", credentials, host, port, name), nil
}
