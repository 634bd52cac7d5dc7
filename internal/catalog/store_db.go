package catalog

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

const (
	pingTimeout  = 1 * time.Second
	queryTimeout = 3 * time.Second

	productColumns = `id, name, price, description, category, in_stock, created_at`
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate brings the schema up to date. Already-current schemas are not an
// error.
func Migrate(db *sql.DB) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}

	driver, err := migratepgx.WithInstance(db, &migratepgx.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "pgx5", driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

// SeedIfEmpty loads SeedProducts into an empty table and moves the id
// sequence past them. It reports whether anything was inserted.
func (s *PostgresStore) SeedIfEmpty(ctx context.Context) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback() }()

	var n int
	if err := tx.QueryRowContext(ctx, `SELECT count(*) FROM products`).Scan(&n); err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO products (`+productColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`)
	if err != nil {
		return false, err
	}
	defer stmt.Close()

	for _, p := range SeedProducts() {
		if _, err := stmt.ExecContext(ctx, p.ID, p.Name, p.Price, p.Description, p.Category, p.InStock, p.CreatedAt); err != nil {
			return false, err
		}
	}

	if _, err := tx.ExecContext(ctx, `
		SELECT setval(pg_get_serial_sequence('products', 'id'), (SELECT max(id) FROM products))
	`); err != nil {
		return false, err
	}

	return true, tx.Commit()
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return withTimeout(ctx, pingTimeout, func(ctx context.Context) error {
		return s.db.PingContext(ctx)
	})
}

func (s *PostgresStore) List(ctx context.Context) ([]Product, error) {
	return s.query(ctx, `SELECT `+productColumns+` FROM products ORDER BY id ASC`)
}

func (s *PostgresStore) Get(ctx context.Context, id int64) (Product, bool, error) {
	return s.queryOne(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
}

func (s *PostgresStore) Create(ctx context.Context, np NewProduct) (Product, error) {
	p, _, err := s.queryOne(ctx, `
		INSERT INTO products (name, price, description, category, in_stock, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+productColumns,
		np.Name, np.Price, np.Description, np.Category, np.InStock, time.Now().UTC())
	return p, err
}

func (s *PostgresStore) Update(ctx context.Context, id int64, patch ProductPatch) (Product, bool, error) {
	return s.queryOne(ctx, `
		UPDATE products SET
			name        = COALESCE($2, name),
			price       = COALESCE($3, price),
			description = COALESCE($4, description),
			category    = COALESCE($5, category),
			in_stock    = COALESCE($6, in_stock)
		WHERE id = $1
		RETURNING `+productColumns,
		id, patch.Name, patch.Price, patch.Description, patch.Category, patch.InStock)
}

func (s *PostgresStore) Delete(ctx context.Context, id int64) (bool, error) {
	var n int64
	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		res, err := s.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
		if err != nil {
			return err
		}
		n, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *PostgresStore) ListByCategory(ctx context.Context, category string) ([]Product, error) {
	return s.query(ctx, `SELECT `+productColumns+` FROM products WHERE category = $1 ORDER BY id ASC`, category)
}

func (s *PostgresStore) ListInStock(ctx context.Context) ([]Product, error) {
	return s.query(ctx, `SELECT `+productColumns+` FROM products WHERE in_stock ORDER BY id ASC`)
}

func (s *PostgresStore) Search(ctx context.Context, query string, f SearchFilter) ([]Product, error) {
	q, args := searchSQL(query, f)
	return s.query(ctx, q, args...)
}

// searchSQL mirrors matchesQuery and SearchFilter.Match. strpos keeps the
// query literal, unlike LIKE which would treat % and _ as wildcards.
func searchSQL(query string, f SearchFilter) (string, []any) {
	args := []any{query}
	where := []string{
		`(strpos(lower(name), lower($1)) > 0 OR strpos(lower(description), lower($1)) > 0)`,
	}

	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, strings.Replace(cond, "?", "$"+strconv.Itoa(len(args)), 1))
	}
	if f.Category != nil {
		add(`category = ?`, *f.Category)
	}
	if f.MinPrice != nil {
		add(`price >= ?`, *f.MinPrice)
	}
	if f.MaxPrice != nil {
		add(`price <= ?`, *f.MaxPrice)
	}
	if f.InStock != nil {
		add(`in_stock = ?`, *f.InStock)
	}

	return `SELECT ` + productColumns + ` FROM products WHERE ` +
		strings.Join(where, " AND ") + ` ORDER BY id ASC`, args
}

func (s *PostgresStore) query(ctx context.Context, q string, args ...any) ([]Product, error) {
	var out []Product

	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		rows, err := s.db.QueryContext(ctx, q, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		out = make([]Product, 0, 16)
		for rows.Next() {
			p, err := scanProduct(rows)
			if err != nil {
				return err
			}
			out = append(out, p)
		}
		return rows.Err()
	})

	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *PostgresStore) queryOne(ctx context.Context, q string, args ...any) (Product, bool, error) {
	var (
		p   Product
		err error
	)

	err = withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		p, err = scanProduct(s.db.QueryRowContext(ctx, q, args...))
		return err
	})

	if errors.Is(err, sql.ErrNoRows) {
		return Product{}, false, nil
	}
	if err != nil {
		return Product{}, false, err
	}
	return p, true, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProduct(row scanner) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Name, &p.Price, &p.Description, &p.Category, &p.InStock, &p.CreatedAt)
	p.CreatedAt = p.CreatedAt.UTC()
	return p, err
}

func withTimeout(parent context.Context, d time.Duration, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(parent, d)
	defer cancel()
	return fn(ctx)
}
