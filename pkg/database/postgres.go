package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/noah-isme/vaccination-api/pkg/config"
)

const applicationName = "vaccination-api"

// NewPostgres opens the shared connection pool. It is created once at
// process start and handed to every repository.
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
		return nil, fmt.Errorf("ping postgres at %s:%d: %w", cfg.Host, cfg.Port, err)
	}

	return db, nil
}

// DSN builds a lib/pq connection string. Unknown keys such as
// statement_timeout are forwarded to the server as run-time parameters.
func DSN(cfg config.DatabaseConfig) string {
	parts := []string{
		"host=" + cfg.Host,
		fmt.Sprintf("port=%d", cfg.Port),
		"user=" + cfg.User,
		"password=" + cfg.Password,
		"dbname=" + cfg.Name,
		"sslmode=" + cfg.SSLMode,
		"application_name=" + applicationName,
	}
	if cfg.StatementTimeout > 0 {
		parts = append(parts, fmt.Sprintf("statement_timeout=%d", cfg.StatementTimeout.Milliseconds()))
	}
	return strings.Join(parts, " ")
}
