package postgres

import (
	"context"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"

	"kasirbuku/backend/internal/store/sqlstore"
)

var Dialect = sqlstore.Dialect{
	Name:       "postgres",
	LockClause: " FOR UPDATE",
	Schema: []string{
		`CREATE TABLE IF NOT EXISTS products (
			id BIGSERIAL PRIMARY KEY,
			name TEXT NOT NULL,
			acquisition_cost DOUBLE PRECISION NOT NULL DEFAULT 0,
			initial_stock INTEGER NOT NULL DEFAULT 0,
			sell_price DOUBLE PRECISION NOT NULL DEFAULT 0,
			stock INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS sales (
			id BIGSERIAL PRIMARY KEY,
			client TEXT NOT NULL,
			sale_date TEXT NOT NULL,
			product_id BIGINT,
			quantity INTEGER,
			total DOUBLE PRECISION NOT NULL DEFAULT 0,
			profit DOUBLE PRECISION NOT NULL DEFAULT 0,
			payment_status TEXT NOT NULL DEFAULT '',
			amount_paid DOUBLE PRECISION NOT NULL DEFAULT 0,
			balance DOUBLE PRECISION NOT NULL DEFAULT 0,
			due_date TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sales_sale_date ON sales (sale_date, id)`,
		`CREATE TABLE IF NOT EXISTS sale_items (
			sale_id BIGINT NOT NULL REFERENCES sales(id) ON DELETE CASCADE,
			line_no INTEGER NOT NULL,
			product_id BIGINT NOT NULL,
			product_name TEXT NOT NULL,
			quantity INTEGER NOT NULL,
			price DOUBLE PRECISION NOT NULL,
			cost DOUBLE PRECISION NOT NULL,
			subtotal DOUBLE PRECISION NOT NULL,
			PRIMARY KEY (sale_id, line_no)
		)`,
		`CREATE TABLE IF NOT EXISTS audit_logs (
			seq BIGSERIAL PRIMARY KEY,
			id TEXT NOT NULL UNIQUE,
			action TEXT NOT NULL,
			entity_type TEXT NOT NULL,
			entity_id TEXT NOT NULL,
			detail TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL
		)`,
	},
}

// New connects through the pgx stdlib driver and creates missing tables.
func New(ctx context.Context, databaseURL string) (*sqlstore.Store, error) {
	db, err := sqlx.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := sqlstore.New(db, Dialect)
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}
