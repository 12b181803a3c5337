package database

import (
	"context"
	"fmt"
)

// schemaStatements are applied in order by Migrate; each one is idempotent.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id                 UUID PRIMARY KEY,
		full_name          TEXT NOT NULL,
		email              TEXT NOT NULL,
		password_hash      TEXT NOT NULL,
		payment_status     TEXT NOT NULL DEFAULT 'pending',
		ihc_code           TEXT NOT NULL DEFAULT '',
		reset_token        TEXT NOT NULL DEFAULT '',
		reset_token_expiry TIMESTAMPTZ NULL,
		created_at         TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at         TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS users_email_key ON users (email)`,
	`CREATE INDEX IF NOT EXISTS users_reset_token_idx ON users (reset_token) WHERE reset_token <> ''`,
	`CREATE TABLE IF NOT EXISTS bookings (
		booking_id      TEXT PRIMARY KEY,
		user_id         UUID NOT NULL REFERENCES users (id),
		first_name      TEXT NOT NULL,
		middle_name     TEXT NOT NULL DEFAULT '',
		last_name       TEXT NOT NULL,
		email           TEXT NOT NULL,
		passport_number TEXT NOT NULL,
		nationality     TEXT NOT NULL,
		dob             TEXT NOT NULL,
		address         TEXT NOT NULL,
		sponsor_company TEXT NOT NULL,
		sponsor_airline TEXT NOT NULL,
		booking_date    TEXT NOT NULL,
		time_slot       TEXT NOT NULL,
		booking_status  TEXT NOT NULL DEFAULT 'pendingApproval',
		payment_method  TEXT NOT NULL DEFAULT '',
		payment_status  TEXT NOT NULL DEFAULT 'pending',
		invoice_url     TEXT NOT NULL DEFAULT '',
		ihc_code        TEXT NOT NULL DEFAULT '',
		version         INTEGER NOT NULL DEFAULT 1,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS bookings_user_id_idx ON bookings (user_id, created_at)`,
	`CREATE INDEX IF NOT EXISTS bookings_created_at_idx ON bookings (created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS audit_logs (
		id          UUID PRIMARY KEY,
		user_id     TEXT NULL,
		action      TEXT NOT NULL,
		entity_type TEXT NULL,
		entity_id   TEXT NULL,
		ip_address  TEXT NULL,
		user_agent  TEXT NULL,
		details     JSONB NULL,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS audit_logs_entity_idx ON audit_logs (entity_type, entity_id)`,
}

// Migrate creates the Postgres schema if it does not exist
func Migrate(ctx context.Context, db DB) error {
	for i, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement %d: %w", i+1, err)
		}
	}
	return nil
}

// ClearData truncates bookings and audit logs
func ClearData(ctx context.Context, db DB) error {
	if _, err := db.ExecContext(ctx, `TRUNCATE TABLE audit_logs, bookings`); err != nil {
		return fmt.Errorf("failed to truncate tables: %w", err)
	}
	return nil
}
