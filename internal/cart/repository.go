package cart

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/apperr"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/db"
)

type Repository interface {
	AddOrIncrement(ctx context.Context, userID, productID string, quantity int) (int, error)
	SetQuantity(ctx context.Context, userID, productID string, quantity int) error
	Remove(ctx context.Context, userID, productID string) error
	List(ctx context.Context, userID string) ([]Line, error)
	Clear(ctx context.Context, userID string) error
}

type PostgresRepository struct {
	q db.Querier
}

func NewPostgresRepository(q db.Querier) *PostgresRepository {
	return &PostgresRepository{q: q}
}

// WithExecutor returns a shallow copy using the provided executor (e.g., a transaction).
func (r *PostgresRepository) WithExecutor(q db.Querier) *PostgresRepository {
	return &PostgresRepository{q: q}
}

// AddOrIncrement inserts the line or adds quantity to the existing one in a
// single statement and returns the resulting quantity.
func (r *PostgresRepository) AddOrIncrement(ctx context.Context, userID, productID string, quantity int) (int, error) {
	var total int
	err := r.q.QueryRow(ctx, `
		INSERT INTO cart_items (id, user_id, product_id, quantity)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, product_id)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity, updated_at = now()
		RETURNING quantity
	`, uuid.NewString(), userID, productID, quantity).Scan(&total)
	if err != nil {
		return 0, translateWriteErr("add cart item", err)
	}
	return total, nil
}

func (r *PostgresRepository) SetQuantity(ctx context.Context, userID, productID string, quantity int) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO cart_items (id, user_id, product_id, quantity)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, product_id)
		DO UPDATE SET quantity = EXCLUDED.quantity, updated_at = now()
	`, uuid.NewString(), userID, productID, quantity)
	if err != nil {
		return translateWriteErr("set cart quantity", err)
	}
	return nil
}

func (r *PostgresRepository) Remove(ctx context.Context, userID, productID string) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM cart_items WHERE user_id=$1 AND product_id=$2`, userID, productID); err != nil {
		return fmt.Errorf("delete cart item: %w", err)
	}
	return nil
}

func (r *PostgresRepository) List(ctx context.Context, userID string) ([]Line, error) {
	rows, err := r.q.Query(ctx, `
		SELECT c.product_id, p.name, p.price, c.quantity, p.is_active, c.created_at
		FROM cart_items c
		JOIN products p ON p.id = c.product_id
		WHERE c.user_id = $1
		ORDER BY c.created_at, c.id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("select cart: %w", err)
	}
	defer rows.Close()

	lines := []Line{}
	for rows.Next() {
		var l Line
		if err := rows.Scan(&l.ProductID, &l.ProductName, &l.UnitPrice, &l.Quantity, &l.Active, &l.AddedAt); err != nil {
			return nil, fmt.Errorf("scan cart line: %w", err)
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func (r *PostgresRepository) Clear(ctx context.Context, userID string) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM cart_items WHERE user_id=$1`, userID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

// LockForCheckout locks the user's cart rows and share-locks the products they
// reference so neither can change until the surrounding transaction ends.
// It must run on a transaction executor.
func (r *PostgresRepository) LockForCheckout(ctx context.Context, userID string) ([]CheckoutLine, error) {
	rows, err := r.q.Query(ctx, `
		SELECT c.product_id, p.name, p.price, c.quantity, p.is_active
		FROM cart_items c
		JOIN products p ON p.id = c.product_id
		WHERE c.user_id = $1
		ORDER BY c.created_at, c.id
		FOR UPDATE OF c
		FOR SHARE OF p
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("lock cart: %w", err)
	}
	defer rows.Close()

	lines := []CheckoutLine{}
	for rows.Next() {
		var l CheckoutLine
		if err := rows.Scan(&l.ProductID, &l.ProductName, &l.UnitPrice, &l.Quantity, &l.Active); err != nil {
			return nil, fmt.Errorf("scan locked cart line: %w", err)
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func translateWriteErr(op string, err error) error {
	if db.IsForeignKeyViolation(err) {
		return apperr.NotFound("user or product not found")
	}
	if db.IsNumericOutOfRange(err) {
		return apperr.Validation("quantity must be at most %d", MaxQuantity)
	}
	return fmt.Errorf("%s: %w", op, err)
}
