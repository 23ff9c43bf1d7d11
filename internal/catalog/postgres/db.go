package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
)

const (
	DriverPGX = "pgx"
	DriverPQ  = "postgres"
)

type DBConfig struct {
	Driver          string
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxIdleTime time.Duration
	ConnMaxLifetime time.Duration
}

func Open(ctx context.Context, cfg DBConfig) (*sql.DB, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("catalog dsn is required")
	}
	driver := cfg.Driver
	if driver == "" {
		driver = DriverPGX
	}
	if driver != DriverPGX && driver != DriverPQ {
		return nil, fmt.Errorf("unsupported catalog driver %q (supported: %s, %s)", driver, DriverPGX, DriverPQ)
	}

	db, err := sql.Open(driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open catalog db: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping catalog db: %w", err)
	}

	return db, nil
}

// DSNWithDatabase points dsn at databaseName, for both URL and keyword=value
// forms. An empty name leaves dsn unchanged.
func DSNWithDatabase(dsn, databaseName string) string {
	databaseName = strings.TrimSpace(databaseName)
	if databaseName == "" || strings.TrimSpace(dsn) == "" {
		return dsn
	}
	u, err := url.Parse(strings.TrimSpace(dsn))
	if err == nil && u.Scheme != "" {
		u.Path = "/" + databaseName
		u.RawPath = ""
		return u.String()
	}
	quoted := "dbname='" + strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(databaseName) + "'"
	parts := strings.Fields(dsn)
	for i, part := range parts {
		if strings.HasPrefix(part, "dbname=") {
			parts[i] = quoted
			return strings.Join(parts, " ")
		}
	}
	return strings.Join(append(parts, quoted), " ")
}

// DatabaseNameFromDSN returns the database a DSN points at, for both URL and
// keyword=value forms.
func DatabaseNameFromDSN(dsn string) string {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return ""
	}
	u, err := url.Parse(dsn)
	if err == nil && u.Scheme != "" {
		return strings.TrimPrefix(u.Path, "/")
	}
	for _, part := range strings.Fields(dsn) {
		if strings.HasPrefix(part, "dbname=") {
			return strings.Trim(strings.TrimPrefix(part, "dbname="), "'")
		}
	}
	return ""
}
