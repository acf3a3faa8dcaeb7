package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/apperr"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/db"
)

// ErrDuplicateIdempotencyKey means another checkout with the same key won the race.
var ErrDuplicateIdempotencyKey = errors.New("order with this idempotency key already exists")

// CheckoutCart is the Cart Manager bound to the checkout transaction.
type CheckoutCart interface {
	LockForCheckout(ctx context.Context, userID string) ([]cart.CheckoutLine, error)
	Clear(ctx context.Context, userID string) error
}

// BuildFunc prices the locked cart lines into a new order. It runs inside
// the checkout transaction and must not perform I/O.
type BuildFunc func(lines []cart.CheckoutLine) (*Order, error)

type Repository interface {
	Place(ctx context.Context, userID string, build BuildFunc) (*Order, error)
	GetByID(ctx context.Context, orderID string) (*Order, error)
	GetByIdempotencyKey(ctx context.Context, userID, key string) (*Order, error)
	ListByUser(ctx context.Context, userID string) ([]Order, error)
	List(ctx context.Context, status Status) ([]Order, error)
	UpdateStatus(ctx context.Context, orderID string, to Status, at time.Time) (*Order, Status, error)
}

type TransactionalRepository interface {
	Repository
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
	UpdateStatusWithTx(ctx context.Context, tx pgx.Tx, orderID string, to Status, at time.Time) (*Order, Status, error)
}

const orderColumns = `id, user_id, idempotency_key, delivery_option, payment_method, status,
	subtotal, shipping_fee, total, ship_full_name, ship_phone, ship_line1, ship_line2, ship_city,
	ship_state, ship_postal_code, ship_country, created_at, updated_at`

type PostgresRepository struct {
	pool  db.DBPool
	carts func(q db.Querier) CheckoutCart
}

// NewPostgresRepository wires the order store. carts binds the Cart Manager's
// storage to the checkout transaction.
func NewPostgresRepository(pool db.DBPool, carts func(q db.Querier) CheckoutCart) *PostgresRepository {
	return &PostgresRepository{pool: pool, carts: carts}
}

// Place runs the checkout commit: lock the cart and its products, build the
// order, persist it with its items, empty the cart and credit the user. Any
// failure rolls everything back.
func (r *PostgresRepository) Place(ctx context.Context, userID string, build BuildFunc) (*Order, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return nil, fmt.Errorf("begin checkout: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	carts := r.carts(tx)

	lines, err := carts.LockForCheckout(ctx, userID)
	if err != nil {
		return nil, translateTxErr(err)
	}
	if len(lines) == 0 {
		return nil, apperr.EmptyCart()
	}

	o, err := build(lines)
	if err != nil {
		return nil, err
	}

	if err := insertOrder(ctx, tx, o); err != nil {
		return nil, translateTxErr(err)
	}
	if err := carts.Clear(ctx, userID); err != nil {
		return nil, translateTxErr(err)
	}

	_, err = tx.Exec(ctx, `
		UPDATE users
		SET total_orders = total_orders + 1, loyalty_points = loyalty_points + $2, updated_at = now()
		WHERE id = $1
	`, userID, o.PointsEarned)
	if err != nil {
		return nil, translateTxErr(fmt.Errorf("credit user: %w", err))
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, translateTxErr(fmt.Errorf("commit checkout: %w", err))
	}
	return o, nil
}

func insertOrder(ctx context.Context, tx pgx.Tx, o *Order) error {
	var key *string
	if o.IdempotencyKey != "" {
		key = &o.IdempotencyKey
	}

	_, err := tx.Exec(ctx, `
		INSERT INTO orders (id, user_id, idempotency_key, delivery_option, payment_method, status,
			subtotal, shipping_fee, total, ship_full_name, ship_phone, ship_line1, ship_line2, ship_city,
			ship_state, ship_postal_code, ship_country, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
	`, o.ID, o.UserID, key, string(o.DeliveryOption), string(o.PaymentMethod), string(o.Status),
		o.Subtotal, o.ShippingFee, o.Total,
		o.Shipping.FullName, o.Shipping.Phone, o.Shipping.Line1, o.Shipping.Line2, o.Shipping.City,
		o.Shipping.State, o.Shipping.PostalCode, o.Shipping.Country,
		o.CreatedAt, o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for i, it := range o.Items {
		_, err := tx.Exec(ctx, `
			INSERT INTO order_items (id, order_id, position, product_id, product_name, unit_price, quantity, line_total)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, uuid.NewString(), o.ID, i, it.ProductID, it.ProductName, it.UnitPrice, it.Quantity, it.LineTotal)
		if err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}
	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, orderID string) (*Order, error) {
	return r.getOne(ctx, r.pool, `SELECT `+orderColumns+` FROM orders WHERE id=$1`, orderID)
}

func (r *PostgresRepository) GetByIdempotencyKey(ctx context.Context, userID, key string) (*Order, error) {
	return r.getOne(ctx, r.pool, `SELECT `+orderColumns+` FROM orders WHERE user_id=$1 AND idempotency_key=$2`, userID, key)
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]Order, error) {
	return r.list(ctx, `SELECT `+orderColumns+` FROM orders WHERE user_id=$1 ORDER BY created_at DESC, id`, userID)
}

func (r *PostgresRepository) List(ctx context.Context, status Status) ([]Order, error) {
	if status == "" {
		return r.list(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC, id`)
	}
	return r.list(ctx, `SELECT `+orderColumns+` FROM orders WHERE status=$1 ORDER BY created_at DESC, id`, string(status))
}

func (r *PostgresRepository) BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error) {
	return r.pool.BeginTx(ctx, txOptions)
}

func (r *PostgresRepository) UpdateStatus(ctx context.Context, orderID string, to Status, at time.Time) (*Order, Status, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, "", fmt.Errorf("begin status update: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	o, from, err := r.UpdateStatusWithTx(ctx, tx, orderID, to, at)
	if err != nil {
		return nil, from, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, "", fmt.Errorf("commit status update: %w", err)
	}
	return o, from, nil
}

// UpdateStatusWithTx locks the order row, checks the transition and applies it.
func (r *PostgresRepository) UpdateStatusWithTx(ctx context.Context, tx pgx.Tx, orderID string, to Status, at time.Time) (*Order, Status, error) {
	var current string
	err := tx.QueryRow(ctx, `SELECT status FROM orders WHERE id=$1 FOR UPDATE`, orderID).Scan(&current)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", apperr.NotFound("order %s not found", orderID)
		}
		return nil, "", fmt.Errorf("lock order: %w", err)
	}

	from := Status(current)
	if err := checkTransition(from, to); err != nil {
		return nil, from, err
	}

	if _, err := tx.Exec(ctx, `UPDATE orders SET status=$2, updated_at=$3 WHERE id=$1`, orderID, string(to), at); err != nil {
		return nil, from, fmt.Errorf("update order status: %w", err)
	}

	o, err := r.getOne(ctx, tx, `SELECT `+orderColumns+` FROM orders WHERE id=$1`, orderID)
	if err != nil {
		return nil, from, err
	}
	return o, from, nil
}

func (r *PostgresRepository) getOne(ctx context.Context, q db.Querier, sql string, args ...any) (*Order, error) {
	o, err := scanOrder(q.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("order not found")
		}
		return nil, fmt.Errorf("select order: %w", err)
	}

	orders := []Order{o}
	if err := loadItems(ctx, q, orders); err != nil {
		return nil, err
	}
	return &orders[0], nil
}

func (r *PostgresRepository) list(ctx context.Context, sql string, args ...any) ([]Order, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("select orders: %w", err)
	}

	orders := []Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("select orders: %w", err)
	}

	if err := loadItems(ctx, r.pool, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// loadItems fills Items of every order with one query, in checkout order.
func loadItems(ctx context.Context, q db.Querier, orders []Order) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]string, len(orders))
	index := make(map[string]int, len(orders))
	for i := range orders {
		ids[i] = orders[i].ID
		index[orders[i].ID] = i
		orders[i].Items = []Item{}
	}

	rows, err := q.Query(ctx, `
		SELECT order_id, product_id, product_name, unit_price, quantity, line_total
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY order_id, position
	`, ids)
	if err != nil {
		return fmt.Errorf("select order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			orderID   string
			productID *string
			it        Item
		)
		if err := rows.Scan(&orderID, &productID, &it.ProductName, &it.UnitPrice, &it.Quantity, &it.LineTotal); err != nil {
			return fmt.Errorf("scan order item: %w", err)
		}
		if productID != nil {
			it.ProductID = *productID
		}
		if i, ok := index[orderID]; ok {
			orders[i].Items = append(orders[i].Items, it)
		}
	}
	return rows.Err()
}

func scanOrder(row pgx.Row) (Order, error) {
	var (
		o        Order
		key      *string
		delivery string
		payment  string
		status   string
	)
	err := row.Scan(&o.ID, &o.UserID, &key, &delivery, &payment, &status,
		&o.Subtotal, &o.ShippingFee, &o.Total,
		&o.Shipping.FullName, &o.Shipping.Phone, &o.Shipping.Line1, &o.Shipping.Line2, &o.Shipping.City,
		&o.Shipping.State, &o.Shipping.PostalCode, &o.Shipping.Country,
		&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return Order{}, err
	}
	if key != nil {
		o.IdempotencyKey = *key
	}
	o.DeliveryOption = DeliveryOption(delivery)
	o.PaymentMethod = PaymentMethod(payment)
	o.Status = Status(status)
	return o, nil
}

func translateTxErr(err error) error {
	switch {
	case db.IsUniqueViolation(err, "orders_user_idempotency_key"):
		return ErrDuplicateIdempotencyKey
	case db.IsRetryable(err):
		return apperr.Conflict("checkout conflicted with a concurrent cart change, please retry")
	case db.IsForeignKeyViolation(err):
		return apperr.NotFound("user not found")
	default:
		return err
	}
}
