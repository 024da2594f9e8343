package database

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/noah-isme/uniportal-api/pkg/config"
)

// DSN renders cfg as a postgres:// URL. Credentials are escaped.
func DSN(cfg config.DatabaseConfig) string {
	q := url.Values{}
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	q.Set("sslmode", sslMode)
	q.Set("application_name", "uniportal-api")
	q.Set("connect_timeout", "5")
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Path:     "/" + cfg.Name,
		RawQuery: q.Encode(),
	}
	return u.String()
}

// NewPostgres opens the pool backing registration records and pings it.
func NewPostgres(ctx context.Context, cfg config.DatabaseConfig) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", DSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	db.SetConnMaxLifetime(time.Hour)
	db.SetConnMaxIdleTime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres %s/%s: %w", net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)), cfg.Name, err)
	}
	return db, nil
}

// Schema creates the tables owned by this service. Registration records are
// the only state the portal persists itself; everything else lives upstream.
const Schema = `CREATE TABLE IF NOT EXISTS registrations (
    id TEXT PRIMARY KEY,
    student_id TEXT NOT NULL,
    student_email TEXT NOT NULL DEFAULT '',
    student_name TEXT NOT NULL DEFAULT '',
    courses JSONB NOT NULL,
    total_units INTEGER NOT NULL,
    amount BIGINT NOT NULL,
    currency TEXT NOT NULL,
    status TEXT NOT NULL,
    provider TEXT NOT NULL,
    payment_token TEXT NOT NULL DEFAULT '',
    payment_url TEXT NOT NULL DEFAULT '',
    upstream_id TEXT,
    slip_path TEXT,
    created_at TIMESTAMPTZ NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_registrations_student ON registrations (student_id, created_at DESC);`

// Migrate applies Schema. It is idempotent.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("migrate registrations: %w", err)
	}
	return nil
}
