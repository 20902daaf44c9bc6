package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Migrate bootstraps the schema. Three tables, so plain idempotent DDL
// instead of a migration tool.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS transactions (
			id UUID PRIMARY KEY,
			user_id UUID NOT NULL REFERENCES users(id),
			amount BIGINT NOT NULL CHECK (amount > 0),
			type TEXT NOT NULL CHECK (type IN ('income', 'expense')),
			category TEXT NOT NULL,
			date DATE NOT NULL DEFAULT CURRENT_DATE,
			note TEXT NOT NULL DEFAULT 'NA'
		)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_user_date ON transactions (user_id, date)`,
		`CREATE TABLE IF NOT EXISTS revoked_tokens (
			jti UUID PRIMARY KEY,
			expires_at TIMESTAMPTZ NOT NULL,
			revoked_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_revoked_tokens_expires_at ON revoked_tokens (expires_at)`,
	}

	for _, stmt := range stmts {
		_, err := pool.Exec(ctx, stmt)

		if err != nil {
			return err
		}
	}

	return nil
}
