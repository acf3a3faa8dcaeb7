package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/apperr"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/db"
)

type Repository interface {
	Get(ctx context.Context, productID string) (Product, error)
	ListActive(ctx context.Context) ([]Product, error)
	ListByCategory(ctx context.Context, category string) ([]Product, error)
	Search(ctx context.Context, q string) ([]Product, error)
	ListAll(ctx context.Context) ([]Product, error)
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product) error
	Deactivate(ctx context.Context, productID string) error
	SetImage(ctx context.Context, productID, imageURL string) error

	ListCategories(ctx context.Context) ([]Category, error)
	CreateCategory(ctx context.Context, c *Category) error
}

const productColumns = `id, name, description, category, subcategory, price, original_price,
	weight, stock_quantity, image_url, is_active, created_at, updated_at`

type PostgresRepository struct {
	pool db.DBPool
}

func NewPostgresRepository(pool db.DBPool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) Get(ctx context.Context, productID string) (Product, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id=$1`, productID)
	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, apperr.NotFound("product %s not found", productID)
		}
		return Product{}, fmt.Errorf("select product: %w", err)
	}
	return p, nil
}

func (r *PostgresRepository) ListActive(ctx context.Context) ([]Product, error) {
	return r.list(ctx, `SELECT `+productColumns+` FROM products WHERE is_active ORDER BY name, id`)
}

func (r *PostgresRepository) ListByCategory(ctx context.Context, category string) ([]Product, error) {
	return r.list(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE is_active AND lower(category) = lower($1)
		ORDER BY name, id
	`, category)
}

func (r *PostgresRepository) Search(ctx context.Context, q string) ([]Product, error) {
	return r.list(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE is_active
		  AND (strpos(lower(name), lower($1)) > 0
		    OR strpos(lower(description), lower($1)) > 0
		    OR strpos(lower(category), lower($1)) > 0)
		ORDER BY name, id
	`, q)
}

func (r *PostgresRepository) ListAll(ctx context.Context) ([]Product, error) {
	return r.list(ctx, `SELECT `+productColumns+` FROM products ORDER BY created_at DESC, id`)
}

func (r *PostgresRepository) Create(ctx context.Context, p *Product) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO products (id, name, description, category, subcategory, price, original_price,
			weight, stock_quantity, image_url, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`, p.ID, p.Name, p.Description, p.Category, p.Subcategory, p.Price, nullDecimal(p.OriginalPrice),
		p.Weight, p.StockQuantity, p.ImageURL, p.Active, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Update(ctx context.Context, p *Product) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE products
		SET name=$2, description=$3, category=$4, subcategory=$5, price=$6, original_price=$7,
			weight=$8, stock_quantity=$9, is_active=$10, updated_at=$11
		WHERE id=$1
	`, p.ID, p.Name, p.Description, p.Category, p.Subcategory, p.Price, nullDecimal(p.OriginalPrice),
		p.Weight, p.StockQuantity, p.Active, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("product %s not found", p.ID)
	}
	return nil
}

func (r *PostgresRepository) Deactivate(ctx context.Context, productID string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE products SET is_active=false, updated_at=now() WHERE id=$1`, productID)
	if err != nil {
		return fmt.Errorf("deactivate product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("product %s not found", productID)
	}
	return nil
}

func (r *PostgresRepository) SetImage(ctx context.Context, productID, imageURL string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE products SET image_url=$2, updated_at=now() WHERE id=$1`, productID, imageURL)
	if err != nil {
		return fmt.Errorf("set product image: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("product %s not found", productID)
	}
	return nil
}

func (r *PostgresRepository) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, description, created_at FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("select categories: %w", err)
	}
	defer rows.Close()

	out := []Category{}
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) CreateCategory(ctx context.Context, c *Category) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO categories (id, name, description, created_at)
		VALUES ($1, $2, $3, $4)
	`, c.ID, c.Name, c.Description, c.CreatedAt)
	if err != nil {
		if db.IsUniqueViolation(err, "categories_name_key") {
			return apperr.Conflict("category %q already exists", c.Name)
		}
		return fmt.Errorf("insert category: %w", err)
	}
	return nil
}

func (r *PostgresRepository) list(ctx context.Context, sql string, args ...any) ([]Product, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("select products: %w", err)
	}
	defer rows.Close()

	out := []Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (Product, error) {
	var (
		p        Product
		original decimal.NullDecimal
	)
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Category, &p.Subcategory, &p.Price, &original,
		&p.Weight, &p.StockQuantity, &p.ImageURL, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return Product{}, err
	}
	if original.Valid {
		p.OriginalPrice = &original.Decimal
	}
	return p, nil
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}
