package storage

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"github.com/grocerydev/grocery-shop/internal/domain/models"
)

var ErrProductNotFound = errors.New("product not found")

// ErrProductReferenced is returned when a delete is blocked because order
// items still reference the product (FK is ON DELETE RESTRICT).
var ErrProductReferenced = errors.New("product referenced by existing orders")

type ProductStorage interface {
	Create(ctx context.Context, product *models.Product) (*models.Product, error)
	GetAll(ctx context.Context) ([]*models.Product, error)
	GetByID(ctx context.Context, id int64) (*models.Product, error)
	// GetByIDTx resolves a product inside an open transaction; order
	// placement uses it to validate line items against live products.
	GetByIDTx(ctx context.Context, tx *sql.Tx, id int64) (*models.Product, error)
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id int64) error
}

type productRepository struct {
	db *sql.DB
}

func NewProductRepository(db *sql.DB) ProductStorage {
	return &productRepository{db: db}
}

func (r *productRepository) Create(ctx context.Context, product *models.Product) (*models.Product, error) {
	var id int64
	err := r.db.QueryRowContext(ctx,
		"INSERT INTO products (name, description, price_cents, image_file) VALUES ($1, $2, $3, $4) RETURNING id",
		product.Name, product.Description, product.PriceCents, product.ImageFile,
	).Scan(&id)
	if err != nil {
		return nil, err
	}
	product.ID = id
	return product, nil
}

func (r *productRepository) GetAll(ctx context.Context) ([]*models.Product, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, name, description, price_cents, image_file FROM products ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []*models.Product
	for rows.Next() {
		product := &models.Product{}
		if err := rows.Scan(&product.ID, &product.Name, &product.Description, &product.PriceCents, &product.ImageFile); err != nil {
			return nil, err
		}
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return products, nil
}

func (r *productRepository) GetByID(ctx context.Context, id int64) (*models.Product, error) {
	product := &models.Product{}
	row := r.db.QueryRowContext(ctx,
		"SELECT id, name, description, price_cents, image_file FROM products WHERE id = $1", id)
	if err := row.Scan(&product.ID, &product.Name, &product.Description, &product.PriceCents, &product.ImageFile); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return product, nil
}

func (r *productRepository) GetByIDTx(ctx context.Context, tx *sql.Tx, id int64) (*models.Product, error) {
	product := &models.Product{}
	row := tx.QueryRowContext(ctx,
		"SELECT id, name, description, price_cents, image_file FROM products WHERE id = $1", id)
	if err := row.Scan(&product.ID, &product.Name, &product.Description, &product.PriceCents, &product.ImageFile); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return product, nil
}

func (r *productRepository) Update(ctx context.Context, product *models.Product) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE products SET name = $1, description = $2, price_cents = $3, image_file = $4 WHERE id = $5",
		product.Name, product.Description, product.PriceCents, product.ImageFile, product.ID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *productRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM products WHERE id = $1", id)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" { // foreign key violation
			return ErrProductReferenced
		}
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrProductNotFound
	}
	return nil
}
