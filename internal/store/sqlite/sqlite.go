package sqlite

import (
	"context"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"kasirbuku/backend/internal/store/sqlstore"
)

func init() {
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

var Dialect = sqlstore.Dialect{
	Name: "sqlite",
	Schema: []string{
		`CREATE TABLE IF NOT EXISTS products (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			acquisition_cost REAL NOT NULL DEFAULT 0,
			initial_stock INTEGER NOT NULL DEFAULT 0,
			sell_price REAL NOT NULL DEFAULT 0,
			stock INTEGER NOT NULL DEFAULT 0
		);`,
		`CREATE TABLE IF NOT EXISTS sales (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			client TEXT NOT NULL,
			sale_date TEXT NOT NULL,
			product_id INTEGER,
			quantity INTEGER,
			total REAL NOT NULL DEFAULT 0,
			profit REAL NOT NULL DEFAULT 0,
			payment_status TEXT NOT NULL DEFAULT '',
			amount_paid REAL NOT NULL DEFAULT 0,
			balance REAL NOT NULL DEFAULT 0,
			due_date TEXT
		);`,
		`CREATE INDEX IF NOT EXISTS idx_sales_sale_date ON sales (sale_date, id);`,
		`CREATE TABLE IF NOT EXISTS sale_items (
			sale_id INTEGER NOT NULL,
			line_no INTEGER NOT NULL,
			product_id INTEGER NOT NULL,
			product_name TEXT NOT NULL,
			quantity INTEGER NOT NULL,
			price REAL NOT NULL,
			cost REAL NOT NULL,
			subtotal REAL NOT NULL,
			PRIMARY KEY (sale_id, line_no),
			FOREIGN KEY(sale_id) REFERENCES sales(id)
		);`,
		`CREATE TABLE IF NOT EXISTS audit_logs (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			action TEXT NOT NULL,
			entity_type TEXT NOT NULL,
			entity_id TEXT NOT NULL,
			detail TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL
		);`,
	},
}

// New opens a SQLite file (or ":memory:") and creates missing tables. The
// pool is pinned to one connection so every query sees the same database.
func New(ctx context.Context, path string) (*sqlstore.Store, error) {
	db, err := sqlx.ConnectContext(ctx, "sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	s := sqlstore.New(db, Dialect)
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}
