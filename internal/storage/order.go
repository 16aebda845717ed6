package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/grocerydev/grocery-shop/internal/domain/models"
)

var ErrOrderNotFound = errors.New("order not found")

// OrderStorage persists the order aggregate. The order row and all its item
// rows are written inside the caller's transaction, so either the whole
// aggregate commits or nothing does.
type OrderStorage interface {
	// CreateTx inserts the order and its items, assigning ids as it goes.
	CreateTx(ctx context.Context, tx *sql.Tx, order *models.Order) error
	GetAll(ctx context.Context) ([]*models.Order, error)
	GetByID(ctx context.Context, id int64) (*models.Order, error)
	// GetByUserID returns the user's orders with items loaded, newest first.
	GetByUserID(ctx context.Context, userID int64) ([]*models.Order, error)
	// Update overwrites the order row; items are immutable once placed.
	Update(ctx context.Context, order *models.Order) error
	Delete(ctx context.Context, id int64) error
}

type orderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) OrderStorage {
	return &orderRepository{db: db}
}

func (r *orderRepository) CreateTx(ctx context.Context, tx *sql.Tx, order *models.Order) error {
	query := `INSERT INTO orders (user_id, payment_method_id, order_date, postal_code, state, city, address)
	          VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
	err := tx.QueryRowContext(ctx, query,
		order.UserID, order.PaymentMethodID, order.OrderDate,
		order.PostalCode, order.State, order.City, order.Address,
	).Scan(&order.ID)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	for i := range order.Items {
		item := &order.Items[i]
		item.OrderID = order.ID
		err := tx.QueryRowContext(ctx,
			`INSERT INTO order_items (order_id, product_id, quantity, unit_price_cents)
			 VALUES ($1, $2, $3, $4) RETURNING id`,
			item.OrderID, item.ProductID, item.Quantity, item.UnitPriceCents,
		).Scan(&item.ID)
		if err != nil {
			return fmt.Errorf("failed to insert order item: %w", err)
		}
	}
	return nil
}

func (r *orderRepository) GetAll(ctx context.Context) ([]*models.Order, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, payment_method_id, order_date, postal_code, state, city, address
		 FROM orders ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders, err := scanOrders(rows)
	if err != nil {
		return nil, err
	}
	for _, order := range orders {
		if err := r.loadItems(ctx, order); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

func (r *orderRepository) GetByID(ctx context.Context, id int64) (*models.Order, error) {
	order := &models.Order{}
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, payment_method_id, order_date, postal_code, state, city, address
		 FROM orders WHERE id = $1`, id)
	if err := row.Scan(&order.ID, &order.UserID, &order.PaymentMethodID, &order.OrderDate,
		&order.PostalCode, &order.State, &order.City, &order.Address); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	if err := r.loadItems(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

func (r *orderRepository) GetByUserID(ctx context.Context, userID int64) ([]*models.Order, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, payment_method_id, order_date, postal_code, state, city, address
		 FROM orders WHERE user_id = $1 ORDER BY order_date DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders, err := scanOrders(rows)
	if err != nil {
		return nil, err
	}
	for _, order := range orders {
		if err := r.loadItems(ctx, order); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

func (r *orderRepository) Update(ctx context.Context, order *models.Order) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE orders SET user_id = $1, payment_method_id = $2, order_date = $3,
		 postal_code = $4, state = $5, city = $6, address = $7 WHERE id = $8`,
		order.UserID, order.PaymentMethodID, order.OrderDate,
		order.PostalCode, order.State, order.City, order.Address, order.ID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func (r *orderRepository) Delete(ctx context.Context, id int64) error {
	// order_items go with the order (ON DELETE CASCADE)
	res, err := r.db.ExecContext(ctx, "DELETE FROM orders WHERE id = $1", id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrOrderNotFound
	}
	return nil
}

// loadItems eagerly fills the order's item collection; there is no
// on-access lazy fetching anywhere in the aggregate.
func (r *orderRepository) loadItems(ctx context.Context, order *models.Order) error {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, order_id, product_id, quantity, unit_price_cents
		 FROM order_items WHERE order_id = $1 ORDER BY id`, order.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var item models.OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Quantity, &item.UnitPriceCents); err != nil {
			return err
		}
		order.Items = append(order.Items, item)
	}
	return rows.Err()
}

func scanOrders(rows *sql.Rows) ([]*models.Order, error) {
	var orders []*models.Order
	for rows.Next() {
		order := &models.Order{}
		if err := rows.Scan(&order.ID, &order.UserID, &order.PaymentMethodID, &order.OrderDate,
			&order.PostalCode, &order.State, &order.City, &order.Address); err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return orders, nil
}
