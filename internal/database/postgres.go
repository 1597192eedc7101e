// Package database opens the Postgres pool shared by both binaries.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"creatorhub/internal/config"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Open opens the Postgres pool through the pgx stdlib driver.
func Open(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open("pgx", normalizeDSN(cfg.DBConnectionString, cfg.IsDevelopment()))
	if err != nil {
		return nil, fmt.Errorf("failed to open DB connection: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping DB: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return db, nil
}

// normalizeDSN disables SSL for local development and forces the simple
// query protocol elsewhere, where a transaction pooler may sit in front.
func normalizeDSN(dsn string, development bool) string {
	isURL := strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
	appendParam := func(param string) {
		switch {
		case !isURL:
			dsn += " " + param
		case strings.Contains(dsn, "?"):
			dsn += "&" + param
		default:
			dsn += "?" + param
		}
	}
	if development && !strings.Contains(dsn, "sslmode") {
		appendParam("sslmode=disable")
	}
	if !development && !strings.Contains(dsn, "prefer_simple_protocol") {
		appendParam("prefer_simple_protocol=true")
	}
	return dsn
}
