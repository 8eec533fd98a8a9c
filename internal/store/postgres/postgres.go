// Package postgres implements store.Store on pgx. The approve path relies
// on SELECT ... FOR UPDATE row locks; delivery acceptance uses a
// conditional UPDATE checked via RowsAffected.
package postgres

import (
	"context"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/foodbridge/foodbridge/internal/store"
)

type Store struct {
	pool *pgxpool.Pool
}

// Connect opens a pool, pings it, and ensures the schema.
func Connect(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	log.Println("[db] connected to Postgres")

	s := &Store{pool: pool}
	s.ensureSchema(ctx)
	return s, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

// WithinTx runs fn inside one database transaction; any error from fn
// rolls back every write.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx store.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := fn(ctx, &sqlTx{tx: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// ensureSchema creates the tables the fulfillment workflow needs if they
// are missing. Failures are logged, not fatal: the schema may be managed
// externally in production.
func (s *Store) ensureSchema(ctx context.Context) {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY,
			name TEXT NOT NULL DEFAULT '',
			email TEXT NOT NULL DEFAULT '',
			role TEXT NOT NULL,
			verified BOOLEAN NOT NULL DEFAULT FALSE,
			completed_deliveries INTEGER NOT NULL DEFAULT 0,
			total_impact NUMERIC(12,3) NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS listings (
			id UUID PRIMARY KEY,
			supplier_id UUID NOT NULL REFERENCES users(id),
			title TEXT NOT NULL DEFAULT '',
			quantity NUMERIC(12,3) NOT NULL CHECK (quantity >= 0),
			unit_price NUMERIC(12,2) NULL,
			minimum_quantity NUMERIC(12,3) NULL,
			listing_type TEXT NOT NULL DEFAULT 'ANYONE',
			requires_verification BOOLEAN NOT NULL DEFAULT FALSE,
			status TEXT NOT NULL,
			expiry_date TIMESTAMPTZ NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS requests (
			id UUID PRIMARY KEY,
			listing_id UUID NOT NULL REFERENCES listings(id),
			requester_id UUID NOT NULL REFERENCES users(id),
			quantity_requested NUMERIC(12,3) NOT NULL CHECK (quantity_requested > 0),
			status TEXT NOT NULL,
			pickup_date TIMESTAMPTZ NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS transactions (
			id UUID PRIMARY KEY,
			request_id UUID NOT NULL UNIQUE REFERENCES requests(id),
			status TEXT NOT NULL,
			transaction_date TIMESTAMPTZ NOT NULL,
			completion_date TIMESTAMPTZ NULL
		)`,
		`CREATE TABLE IF NOT EXISTS deliveries (
			id UUID PRIMARY KEY,
			transaction_id UUID NOT NULL UNIQUE REFERENCES transactions(id),
			volunteer_id UUID NULL REFERENCES users(id),
			status TEXT NOT NULL,
			pickup_window_start TIMESTAMPTZ NOT NULL,
			pickup_window_end TIMESTAMPTZ NOT NULL,
			delivery_window_start TIMESTAMPTZ NOT NULL,
			delivery_window_end TIMESTAMPTZ NOT NULL,
			estimated_weight NUMERIC(12,3) NOT NULL,
			assigned_at TIMESTAMPTZ NULL,
			picked_up_at TIMESTAMPTZ NULL,
			delivered_at TIMESTAMPTZ NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS ratings (
			id UUID PRIMARY KEY,
			transaction_id UUID NOT NULL REFERENCES transactions(id),
			rater_id UUID NOT NULL REFERENCES users(id),
			rated_user_id UUID NOT NULL REFERENCES users(id),
			rating INTEGER NOT NULL CHECK (rating BETWEEN 1 AND 5),
			comment TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (transaction_id, rater_id)
		)`,
		`CREATE TABLE IF NOT EXISTS daily_analytics (
			date DATE PRIMARY KEY,
			requests_created INTEGER NOT NULL DEFAULT 0,
			requests_approved INTEGER NOT NULL DEFAULT 0,
			transactions_completed INTEGER NOT NULL DEFAULT 0,
			deliveries_completed INTEGER NOT NULL DEFAULT 0,
			total_quantity NUMERIC(12,3) NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS impact_metrics (
			date DATE PRIMARY KEY,
			food_kg NUMERIC(12,3) NOT NULL DEFAULT 0,
			co2_saved_kg NUMERIC(12,3) NOT NULL DEFAULT 0,
			meals NUMERIC(12,3) NOT NULL DEFAULT 0,
			monetary_value NUMERIC(12,2) NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS notifications (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			user_id UUID NULL,
			type TEXT NOT NULL,
			title TEXT NOT NULL,
			body TEXT,
			link TEXT,
			metadata JSONB NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			read_at TIMESTAMPTZ NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_requests_listing_status ON requests(listing_id, status)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_completion ON transactions(status, completion_date)`,
		`CREATE INDEX IF NOT EXISTS idx_deliveries_status ON deliveries(status)`,
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			log.Printf("[db] schema ensure failed: %v", err)
		}
	}
}
