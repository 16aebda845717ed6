package storage

import (
	"context"
	"database/sql"
	"errors"

	"github.com/grocerydev/grocery-shop/internal/domain/models"
)

var ErrPaymentMethodNotFound = errors.New("payment method not found")

// PaymentMethodStorage reads the seeded payment method rows.
type PaymentMethodStorage interface {
	GetAll(ctx context.Context) ([]*models.PaymentMethod, error)
	GetByID(ctx context.Context, id int64) (*models.PaymentMethod, error)
	GetByIDTx(ctx context.Context, tx *sql.Tx, id int64) (*models.PaymentMethod, error)
}

type paymentMethodRepository struct {
	db *sql.DB
}

func NewPaymentMethodRepository(db *sql.DB) PaymentMethodStorage {
	return &paymentMethodRepository{db: db}
}

func (r *paymentMethodRepository) GetAll(ctx context.Context) ([]*models.PaymentMethod, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, name, description FROM payment_methods ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var methods []*models.PaymentMethod
	for rows.Next() {
		method := &models.PaymentMethod{}
		if err := rows.Scan(&method.ID, &method.Name, &method.Description); err != nil {
			return nil, err
		}
		methods = append(methods, method)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return methods, nil
}

func (r *paymentMethodRepository) GetByID(ctx context.Context, id int64) (*models.PaymentMethod, error) {
	method := &models.PaymentMethod{}
	row := r.db.QueryRowContext(ctx,
		"SELECT id, name, description FROM payment_methods WHERE id = $1", id)
	if err := row.Scan(&method.ID, &method.Name, &method.Description); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPaymentMethodNotFound
		}
		return nil, err
	}
	return method, nil
}

func (r *paymentMethodRepository) GetByIDTx(ctx context.Context, tx *sql.Tx, id int64) (*models.PaymentMethod, error) {
	method := &models.PaymentMethod{}
	row := tx.QueryRowContext(ctx,
		"SELECT id, name, description FROM payment_methods WHERE id = $1", id)
	if err := row.Scan(&method.ID, &method.Name, &method.Description); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPaymentMethodNotFound
		}
		return nil, err
	}
	return method, nil
}
