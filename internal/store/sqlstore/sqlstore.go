package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"kasirbuku/backend/internal/domain"
	"kasirbuku/backend/internal/store"
	"kasirbuku/backend/internal/xid"
)

// Dialect carries what differs between the SQL backends. Queries are written
// with ? placeholders and rebound for the driver.
type Dialect struct {
	Name string
	// LockClause is appended to reads made inside a transaction that will be
	// followed by a write to the same row.
	LockClause string
	Schema     []string
}

const auditTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

type Store struct {
	db      *sqlx.DB
	q       sqlx.ExtContext
	dialect Dialect
	inTx    bool
}

func New(db *sqlx.DB, dialect Dialect) *Store {
	return &Store{db: db, q: db, dialect: dialect}
}

func (s *Store) DB() *sqlx.DB {
	return s.db
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate creates the tables if they do not exist yet.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range s.dialect.Schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return store.Wrap(s.dialect.Name+" migrate", err)
		}
	}
	return nil
}

func (s *Store) WithinTx(ctx context.Context, fn func(tx store.Repository) error) error {
	if s.inTx {
		return fn(s)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return store.Wrap("begin tx", err)
	}
	txStore := &Store{db: s.db, q: tx, dialect: s.dialect, inTx: true}
	if err := fn(txStore); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return store.Wrap("commit tx", err)
	}
	return nil
}

func (s *Store) lock() string {
	if !s.inTx {
		return ""
	}
	return s.dialect.LockClause
}

func (s *Store) ListProducts(ctx context.Context) ([]domain.Product, error) {
	products := make([]domain.Product, 0, 64)
	err := sqlx.SelectContext(ctx, s.q, &products, `
		SELECT id, name, acquisition_cost, initial_stock, sell_price, stock
		FROM products
		ORDER BY name, id
	`)
	if err != nil {
		return nil, store.Wrap("list products", err)
	}
	return products, nil
}

func (s *Store) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	var p domain.Product
	err := sqlx.GetContext(ctx, s.q, &p, s.q.Rebind(`
		SELECT id, name, acquisition_cost, initial_stock, sell_price, stock
		FROM products
		WHERE id = ?`+s.lock()), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, store.Wrap("get product", err)
	}
	return &p, nil
}

func (s *Store) CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	err := sqlx.GetContext(ctx, s.q, &product.ID, s.q.Rebind(`
		INSERT INTO products (name, acquisition_cost, initial_stock, sell_price, stock)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id
	`), product.Name, product.AcquisitionCost, product.InitialStock, product.SellPrice, product.Stock)
	if err != nil {
		return nil, store.Wrap("create product", err)
	}
	return &product, nil
}

func (s *Store) UpdateProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	res, err := s.q.ExecContext(ctx, s.q.Rebind(`
		UPDATE products
		SET name = ?, acquisition_cost = ?, initial_stock = ?, sell_price = ?, stock = ?
		WHERE id = ?
	`), product.Name, product.AcquisitionCost, product.InitialStock, product.SellPrice, product.Stock, product.ID)
	if err != nil {
		return nil, store.Wrap("update product", err)
	}
	if err := expectOneRow(res); err != nil {
		return nil, err
	}
	return &product, nil
}

func (s *Store) DeleteProduct(ctx context.Context, id int64) error {
	res, err := s.q.ExecContext(ctx, s.q.Rebind(`DELETE FROM products WHERE id = ?`), id)
	if err != nil {
		return store.Wrap("delete product", err)
	}
	return expectOneRow(res)
}

type saleRow struct {
	ID            int64          `db:"id"`
	Client        string         `db:"client"`
	Date          string         `db:"sale_date"`
	ProductID     sql.NullInt64  `db:"product_id"`
	Quantity      sql.NullInt64  `db:"quantity"`
	Total         float64        `db:"total"`
	Profit        float64        `db:"profit"`
	PaymentStatus string         `db:"payment_status"`
	AmountPaid    float64        `db:"amount_paid"`
	Balance       float64        `db:"balance"`
	DueDate       sql.NullString `db:"due_date"`
}

type itemRow struct {
	SaleID      int64   `db:"sale_id"`
	LineNo      int     `db:"line_no"`
	ProductID   int64   `db:"product_id"`
	ProductName string  `db:"product_name"`
	Quantity    int     `db:"quantity"`
	Price       float64 `db:"price"`
	Cost        float64 `db:"cost"`
	Subtotal    float64 `db:"subtotal"`
}

const saleColumns = `id, client, sale_date, product_id, quantity, total, profit, payment_status, amount_paid, balance, due_date`

func (r saleRow) toDomain() domain.Sale {
	sale := domain.Sale{
		ID:            r.ID,
		Client:        r.Client,
		Date:          r.Date,
		Total:         r.Total,
		Profit:        r.Profit,
		PaymentStatus: domain.PaymentStatus(r.PaymentStatus),
		AmountPaid:    r.AmountPaid,
		Balance:       r.Balance,
		DueDate:       r.DueDate.String,
	}
	if r.ProductID.Valid {
		sale.ProductID = r.ProductID.Int64
		sale.Quantity = int(r.Quantity.Int64)
	}
	return sale
}

func legacyColumns(sale domain.Sale) (sql.NullInt64, sql.NullInt64) {
	if sale.Shape() != domain.ShapeLegacy {
		return sql.NullInt64{}, sql.NullInt64{}
	}
	return sql.NullInt64{Int64: sale.ProductID, Valid: true}, sql.NullInt64{Int64: int64(sale.Quantity), Valid: true}
}

func nullString(value string) sql.NullString {
	return sql.NullString{String: value, Valid: value != ""}
}

func (s *Store) ListSales(ctx context.Context) ([]domain.Sale, error) {
	rows := make([]saleRow, 0, 64)
	if err := sqlx.SelectContext(ctx, s.q, &rows, `SELECT `+saleColumns+` FROM sales ORDER BY id`); err != nil {
		return nil, store.Wrap("list sales", err)
	}
	return s.attachItems(ctx, rows)
}

func (s *Store) ListSalesByDateRange(ctx context.Context, start string, end string) ([]domain.Sale, error) {
	rows := make([]saleRow, 0, 64)
	err := sqlx.SelectContext(ctx, s.q, &rows, s.q.Rebind(`
		SELECT `+saleColumns+`
		FROM sales
		WHERE sale_date >= ? AND sale_date <= ?
		ORDER BY sale_date, id
	`), start, end)
	if err != nil {
		return nil, store.Wrap("list sales by date range", err)
	}
	return s.attachItems(ctx, rows)
}

func (s *Store) GetSale(ctx context.Context, id int64) (*domain.Sale, error) {
	var row saleRow
	err := sqlx.GetContext(ctx, s.q, &row, s.q.Rebind(`SELECT `+saleColumns+` FROM sales WHERE id = ?`+s.lock()), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, store.Wrap("get sale", err)
	}
	sales, err := s.attachItems(ctx, []saleRow{row})
	if err != nil {
		return nil, err
	}
	return &sales[0], nil
}

func (s *Store) CreateSale(ctx context.Context, sale domain.Sale) (*domain.Sale, error) {
	created := sale.Clone()
	err := s.WithinTx(ctx, func(tx store.Repository) error {
		txs := tx.(*Store)
		productID, quantity := legacyColumns(sale)
		err := sqlx.GetContext(ctx, txs.q, &created.ID, txs.q.Rebind(`
			INSERT INTO sales (client, sale_date, product_id, quantity, total, profit, payment_status, amount_paid, balance, due_date)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			RETURNING id
		`), sale.Client, sale.Date, productID, quantity, sale.Total, sale.Profit, string(sale.PaymentStatus), sale.AmountPaid, sale.Balance, nullString(sale.DueDate))
		if err != nil {
			return store.Wrap("create sale", err)
		}
		return txs.insertItems(ctx, created.ID, sale.Items)
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (s *Store) UpdateSale(ctx context.Context, sale domain.Sale) (*domain.Sale, error) {
	err := s.WithinTx(ctx, func(tx store.Repository) error {
		txs := tx.(*Store)
		productID, quantity := legacyColumns(sale)
		res, err := txs.q.ExecContext(ctx, txs.q.Rebind(`
			UPDATE sales
			SET client = ?, sale_date = ?, product_id = ?, quantity = ?, total = ?, profit = ?,
				payment_status = ?, amount_paid = ?, balance = ?, due_date = ?
			WHERE id = ?
		`), sale.Client, sale.Date, productID, quantity, sale.Total, sale.Profit, string(sale.PaymentStatus), sale.AmountPaid, sale.Balance, nullString(sale.DueDate), sale.ID)
		if err != nil {
			return store.Wrap("update sale", err)
		}
		if err := expectOneRow(res); err != nil {
			return err
		}
		if _, err := txs.q.ExecContext(ctx, txs.q.Rebind(`DELETE FROM sale_items WHERE sale_id = ?`), sale.ID); err != nil {
			return store.Wrap("replace sale items", err)
		}
		return txs.insertItems(ctx, sale.ID, sale.Items)
	})
	if err != nil {
		return nil, err
	}
	updated := sale.Clone()
	return &updated, nil
}

func (s *Store) DeleteSale(ctx context.Context, id int64) error {
	return s.WithinTx(ctx, func(tx store.Repository) error {
		txs := tx.(*Store)
		if _, err := txs.q.ExecContext(ctx, txs.q.Rebind(`DELETE FROM sale_items WHERE sale_id = ?`), id); err != nil {
			return store.Wrap("delete sale items", err)
		}
		res, err := txs.q.ExecContext(ctx, txs.q.Rebind(`DELETE FROM sales WHERE id = ?`), id)
		if err != nil {
			return store.Wrap("delete sale", err)
		}
		return expectOneRow(res)
	})
}

func (s *Store) insertItems(ctx context.Context, saleID int64, items []domain.SaleItem) error {
	for i, item := range items {
		_, err := s.q.ExecContext(ctx, s.q.Rebind(`
			INSERT INTO sale_items (sale_id, line_no, product_id, product_name, quantity, price, cost, subtotal)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`), saleID, i, item.ProductID, item.ProductName, item.Quantity, item.Price, item.Cost, item.Subtotal)
		if err != nil {
			return store.Wrap("insert sale item", err)
		}
	}
	return nil
}

func (s *Store) attachItems(ctx context.Context, rows []saleRow) ([]domain.Sale, error) {
	sales := make([]domain.Sale, len(rows))
	if len(rows) == 0 {
		return sales, nil
	}

	ids := make([]int64, len(rows))
	for i, row := range rows {
		ids[i] = row.ID
		sales[i] = row.toDomain()
	}

	query, args, err := sqlx.In(`
		SELECT sale_id, line_no, product_id, product_name, quantity, price, cost, subtotal
		FROM sale_items
		WHERE sale_id IN (?)
		ORDER BY sale_id, line_no
	`, ids)
	if err != nil {
		return nil, store.Wrap("prepare sale items query", err)
	}
	items := make([]itemRow, 0, len(rows)*2)
	if err := sqlx.SelectContext(ctx, s.q, &items, s.q.Rebind(query), args...); err != nil {
		return nil, store.Wrap("load sale items", err)
	}

	bySale := make(map[int64][]domain.SaleItem, len(rows))
	for _, item := range items {
		bySale[item.SaleID] = append(bySale[item.SaleID], domain.SaleItem{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			Price:       item.Price,
			Cost:        item.Cost,
			Subtotal:    item.Subtotal,
		})
	}
	for i := range sales {
		sales[i].Items = bySale[sales[i].ID]
	}
	return sales, nil
}

type auditRow struct {
	ID         string `db:"id"`
	Action     string `db:"action"`
	EntityType string `db:"entity_type"`
	EntityID   string `db:"entity_id"`
	Detail     string `db:"detail"`
	CreatedAt  string `db:"created_at"`
}

func (s *Store) CreateAuditLog(ctx context.Context, entry domain.AuditLog) error {
	if entry.ID == "" {
		entry.ID = xid.New("audit")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	_, err := s.q.ExecContext(ctx, s.q.Rebind(`
		INSERT INTO audit_logs (id, action, entity_type, entity_id, detail, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`), entry.ID, entry.Action, entry.EntityType, entry.EntityID, entry.Detail, entry.CreatedAt.UTC().Format(auditTimeLayout))
	if err != nil {
		return store.Wrap("create audit log", err)
	}
	return nil
}

func (s *Store) ListAuditLogs(ctx context.Context, limit int) ([]domain.AuditLog, error) {
	if limit <= 0 {
		limit = 100
	}
	rows := make([]auditRow, 0, limit)
	err := sqlx.SelectContext(ctx, s.q, &rows, s.q.Rebind(`
		SELECT id, action, entity_type, entity_id, detail, created_at
		FROM audit_logs
		ORDER BY created_at DESC, seq DESC
		LIMIT ?
	`), limit)
	if err != nil {
		return nil, store.Wrap("list audit logs", err)
	}

	logs := make([]domain.AuditLog, 0, len(rows))
	for _, row := range rows {
		createdAt, err := time.Parse(auditTimeLayout, row.CreatedAt)
		if err != nil {
			return nil, store.Wrap("parse audit time", fmt.Errorf("audit %s: %w", row.ID, err))
		}
		logs = append(logs, domain.AuditLog{
			ID:         row.ID,
			Action:     row.Action,
			EntityType: row.EntityType,
			EntityID:   row.EntityID,
			Detail:     row.Detail,
			CreatedAt:  createdAt,
		})
	}
	return logs, nil
}

func expectOneRow(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return store.Wrap("rows affected", err)
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}
