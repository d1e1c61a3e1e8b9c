package db

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// The schema is portable between Postgres and SQLite: text columns and a
// timestamp stored as unix seconds so the TTL filter is a plain comparison.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS pending_request_tokens (
		id         VARCHAR(36)  PRIMARY KEY,
		service    VARCHAR(32)  NOT NULL,
		token      VARCHAR(255) NOT NULL,
		secret     TEXT         NOT NULL,
		created_at BIGINT       NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS pending_request_tokens_service_token
		ON pending_request_tokens (service, token)`,
	`CREATE INDEX IF NOT EXISTS pending_request_tokens_created_at
		ON pending_request_tokens (created_at)`,
}

// Migrate creates the tables used by the pending-token store.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
