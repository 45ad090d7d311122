package repository

import (
	"campus-market/internal/marketerrors"
	model "campus-market/internal/models"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
)

const productColumns = `id, title, description, category, price, seller_contact, whatsapp_link,
	location, is_coupon, mess_name, meal_type, quantity, created_at, is_sold, sold_at, is_banned`

const bidColumns = `id, product_id, bidder_name, bidder_contact, bid_price, created_at`

var schema = []string{
	`CREATE TABLE IF NOT EXISTS products (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL,
		price DOUBLE PRECISION NOT NULL CHECK (price > 0),
		seller_contact TEXT NOT NULL,
		whatsapp_link TEXT NOT NULL,
		location TEXT NOT NULL,
		is_coupon BOOLEAN NOT NULL DEFAULT FALSE,
		mess_name TEXT NOT NULL DEFAULT '',
		meal_type TEXT NOT NULL DEFAULT '',
		quantity INT,
		created_at TIMESTAMP WITH TIME ZONE NOT NULL,
		is_sold BOOLEAN NOT NULL DEFAULT FALSE,
		sold_at TIMESTAMP WITH TIME ZONE,
		is_banned BOOLEAN NOT NULL DEFAULT FALSE
	)`,
	`ALTER TABLE products ADD COLUMN IF NOT EXISTS sold_at TIMESTAMP WITH TIME ZONE`,
	`ALTER TABLE products ADD COLUMN IF NOT EXISTS is_banned BOOLEAN NOT NULL DEFAULT FALSE`,
	`CREATE TABLE IF NOT EXISTS bids (
		id TEXT PRIMARY KEY,
		product_id TEXT NOT NULL REFERENCES products(id),
		bidder_name TEXT NOT NULL,
		bidder_contact TEXT NOT NULL,
		bid_price DOUBLE PRECISION NOT NULL CHECK (bid_price > 0),
		created_at TIMESTAMP WITH TIME ZONE NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS reports (
		id TEXT PRIMARY KEY,
		product_id TEXT NOT NULL REFERENCES products(id),
		reason TEXT NOT NULL,
		reporter_contact TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP WITH TIME ZONE NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_products_created_at ON products(created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_products_category ON products(category)`,
	`CREATE INDEX IF NOT EXISTS idx_bids_product_id_price ON bids(product_id, bid_price DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_reports_created_at ON reports(created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_reports_product_id ON reports(product_id)`,
}

// PoolOptions tunes the database/sql connection pool
type PoolOptions struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// PostgresRepo implements MarketDB on PostgreSQL
type PostgresRepo struct {
	db *sql.DB
}

// NewPostgresRepo opens and pings a PostgreSQL connection pool
func NewPostgresRepo(ctx context.Context, connStr string, pool PoolOptions) (*PostgresRepo, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(pool.MaxOpenConns)
	db.SetMaxIdleConns(pool.MaxIdleConns)
	db.SetConnMaxLifetime(pool.ConnMaxLifetime)
	db.SetConnMaxIdleTime(pool.ConnMaxIdleTime)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresRepo{db: db}, nil
}

// InitSchema creates the tables and indexes when missing
func (r *PostgresRepo) InitSchema(ctx context.Context) error {
	for _, query := range schema {
		if _, err := r.db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %s, error: %w", query, err)
		}
	}
	return nil
}

// Close releases the connection pool
func (r *PostgresRepo) Close() error {
	if err := r.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}

// Ping checks database connectivity
func (r *PostgresRepo) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *PostgresRepo) CreateProduct(ctx context.Context, p model.Product) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO products (`+productColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		p.ID, p.Title, p.Description, p.Category, p.Price, p.SellerContact, p.WhatsAppLink,
		p.Location, p.IsCoupon, p.MessName, p.MealType, nullableInt(p.Quantity), p.CreatedAt, p.IsSold,
		nullableTime(p.SoldAt), p.IsBanned,
	)
	if err != nil {
		return fmt.Errorf("failed to insert product %s: %w", p.ID, err)
	}
	return nil
}

func (r *PostgresRepo) GetProduct(ctx context.Context, productID string) (model.Product, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, productID)
	product, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Product{}, fmt.Errorf("get product %s: %w", productID, marketerrors.ErrProductNotFound)
	}
	if err != nil {
		return model.Product{}, fmt.Errorf("failed to query product %s: %w", productID, err)
	}
	return product, nil
}

func (r *PostgresRepo) ListProducts(ctx context.Context, filter model.ProductFilter) ([]model.Product, error) {
	query, args := buildProductQuery(filter)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	products := []model.Product{}
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product row: %w", err)
		}
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating through products: %w", err)
	}
	return products, nil
}

func (r *PostgresRepo) SetProductSold(ctx context.Context, productID string, isSold bool, at time.Time) (model.Product, error) {
	var soldAt *time.Time
	if isSold {
		soldAt = &at
	}
	row := r.db.QueryRowContext(ctx,
		`UPDATE products SET is_sold = $2, sold_at = $3 WHERE id = $1 RETURNING `+productColumns,
		productID, isSold, nullableTime(soldAt),
	)
	product, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Product{}, fmt.Errorf("set sold on product %s: %w", productID, marketerrors.ErrProductNotFound)
	}
	if err != nil {
		return model.Product{}, fmt.Errorf("failed to update product %s: %w", productID, err)
	}
	return product, nil
}

func (r *PostgresRepo) SetProductBanned(ctx context.Context, productID string, isBanned bool) (model.Product, error) {
	row := r.db.QueryRowContext(ctx,
		`UPDATE products SET is_banned = $2 WHERE id = $1 RETURNING `+productColumns,
		productID, isBanned,
	)
	product, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Product{}, fmt.Errorf("set banned on product %s: %w", productID, marketerrors.ErrProductNotFound)
	}
	if err != nil {
		return model.Product{}, fmt.Errorf("failed to update product %s: %w", productID, err)
	}
	return product, nil
}

// RecordBid locks the product row for the duration of the transaction so that
// concurrent bids on the same product are checked one at a time.
func (r *PostgresRepo) RecordBid(ctx context.Context, bid model.Bid) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin bid transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var isSold, isBanned bool
	err = tx.QueryRowContext(ctx, `SELECT is_sold, is_banned FROM products WHERE id = $1 FOR UPDATE`, bid.ProductID).
		Scan(&isSold, &isBanned)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("record bid for product %s: %w", bid.ProductID, marketerrors.ErrProductNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to lock product %s: %w", bid.ProductID, err)
	}
	if isBanned {
		return fmt.Errorf("record bid for product %s: %w", bid.ProductID, marketerrors.ErrProductBanned)
	}
	if isSold {
		return fmt.Errorf("record bid for product %s: %w", bid.ProductID, marketerrors.ErrProductSold)
	}

	var highest sql.NullFloat64
	if err := tx.QueryRowContext(ctx, `SELECT MAX(bid_price) FROM bids WHERE product_id = $1`, bid.ProductID).Scan(&highest); err != nil {
		return fmt.Errorf("failed to query highest bid for product %s: %w", bid.ProductID, err)
	}
	if highest.Valid && bid.BidPrice <= highest.Float64 {
		return fmt.Errorf("record bid for product %s: %w", bid.ProductID, &marketerrors.BidTooLowError{Highest: highest.Float64})
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO bids (`+bidColumns+`) VALUES ($1, $2, $3, $4, $5, $6)`,
		bid.ID, bid.ProductID, bid.BidderName, bid.BidderContact, bid.BidPrice, bid.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert bid %s: %w", bid.ID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit bid %s: %w", bid.ID, err)
	}
	return nil
}

func (r *PostgresRepo) GetBidsByProduct(ctx context.Context, productID string) ([]model.Bid, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+bidColumns+` FROM bids WHERE product_id = $1 ORDER BY bid_price DESC, created_at ASC`,
		productID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query bids for product %s: %w", productID, err)
	}
	defer rows.Close()

	bids := []model.Bid{}
	for rows.Next() {
		var b model.Bid
		if err := rows.Scan(&b.ID, &b.ProductID, &b.BidderName, &b.BidderContact, &b.BidPrice, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan bid row: %w", err)
		}
		bids = append(bids, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating through bids: %w", err)
	}
	return bids, nil
}

func (r *PostgresRepo) GetHighestBid(ctx context.Context, productID string) (model.Bid, error) {
	var b model.Bid
	err := r.db.QueryRowContext(ctx,
		`SELECT `+bidColumns+` FROM bids WHERE product_id = $1 ORDER BY bid_price DESC, created_at ASC LIMIT 1`,
		productID,
	).Scan(&b.ID, &b.ProductID, &b.BidderName, &b.BidderContact, &b.BidPrice, &b.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Bid{}, fmt.Errorf("get highest bid for product %s: %w", productID, marketerrors.ErrNoBids)
	}
	if err != nil {
		return model.Bid{}, fmt.Errorf("failed to query highest bid for product %s: %w", productID, err)
	}
	return b, nil
}

func (r *PostgresRepo) CountBids(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM bids`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count bids: %w", err)
	}
	return count, nil
}

func (r *PostgresRepo) CreateReport(ctx context.Context, report model.Report) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO reports (id, product_id, reason, reporter_contact, created_at)
		SELECT $1::text, id, $3::text, $4::text, $5::timestamptz FROM products WHERE id = $2`,
		report.ID, report.ProductID, report.Reason, report.ReporterContact, report.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert report %s: %w", report.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("create report for product %s: %w", report.ProductID, marketerrors.ErrProductNotFound)
	}
	return nil
}

func (r *PostgresRepo) ListReports(ctx context.Context) ([]model.Report, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, product_id, reason, reporter_contact, created_at FROM reports ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query reports: %w", err)
	}
	defer rows.Close()

	reports := []model.Report{}
	for rows.Next() {
		var rep model.Report
		if err := rows.Scan(&rep.ID, &rep.ProductID, &rep.Reason, &rep.ReporterContact, &rep.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan report row: %w", err)
		}
		reports = append(reports, rep)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating through reports: %w", err)
	}
	return reports, nil
}

func (r *PostgresRepo) CountReportsByProduct(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT product_id, COUNT(*) FROM reports GROUP BY product_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to count reports: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			productID string
			n         int
		)
		if err := rows.Scan(&productID, &n); err != nil {
			return nil, fmt.Errorf("failed to scan report count: %w", err)
		}
		counts[productID] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating through report counts: %w", err)
	}
	return counts, nil
}

// buildProductQuery turns a filter into a parameterised SELECT ordered newest first
func buildProductQuery(filter model.ProductFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if filter.Category != "" {
		add("category = $%d", filter.Category)
	}
	if filter.IsCoupon != nil {
		add("is_coupon = $%d", *filter.IsCoupon)
	}
	if filter.MessName != "" {
		add("mess_name = $%d", filter.MessName)
	}
	if filter.MealType != "" {
		add("meal_type = $%d", filter.MealType)
	}
	if filter.Location != "" {
		add("location = $%d", filter.Location)
	}
	if filter.IsSold != nil {
		add("is_sold = $%d", *filter.IsSold)
	}
	if filter.IsBanned != nil {
		add("is_banned = $%d", *filter.IsBanned)
	}
	if filter.Search != "" {
		args = append(args, "%"+escapeLike(filter.Search)+"%")
		n := len(args)
		conds = append(conds, fmt.Sprintf("(title ILIKE $%d OR description ILIKE $%d)", n, n))
	}

	query := `SELECT ` + productColumns + ` FROM products`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC"
	return query, args
}

// escapeLike escapes the LIKE wildcards so a search term matches literally
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (model.Product, error) {
	var (
		p        model.Product
		quantity sql.NullInt64
		soldAt   sql.NullTime
	)
	err := row.Scan(&p.ID, &p.Title, &p.Description, &p.Category, &p.Price, &p.SellerContact, &p.WhatsAppLink,
		&p.Location, &p.IsCoupon, &p.MessName, &p.MealType, &quantity, &p.CreatedAt, &p.IsSold, &soldAt, &p.IsBanned)
	if err != nil {
		return model.Product{}, err
	}
	if quantity.Valid {
		q := int(quantity.Int64)
		p.Quantity = &q
	}
	if soldAt.Valid {
		t := soldAt.Time
		p.SoldAt = &t
	}
	return p, nil
}

func nullableInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func nullableTime(v *time.Time) sql.NullTime {
	if v == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *v, Valid: true}
}
