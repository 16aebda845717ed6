package storage_test

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"

	"github.com/grocerydev/grocery-shop/internal/domain/models"
	"github.com/grocerydev/grocery-shop/internal/storage"
)

func TestUserRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(
		"INSERT INTO users (email, pass_hash, name, surname) VALUES ($1, $2, $3, $4) RETURNING id")).
		WithArgs("test@example.com", []byte("hash"), "Test", "User").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))

	repo := storage.NewUserRepository(db)
	user, err := repo.Create(context.Background(), &models.User{
		Email:    "test@example.com",
		PassHash: []byte("hash"),
		Name:     "Test",
		Surname:  "User",
	})
	assert.NoError(t, err)
	assert.Equal(t, int64(1), user.ID)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_Create_DuplicateEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(
		"INSERT INTO users (email, pass_hash, name, surname) VALUES ($1, $2, $3, $4) RETURNING id")).
		WithArgs("test@example.com", []byte("hash"), "", "").
		WillReturnError(&pq.Error{Code: "23505"})

	repo := storage.NewUserRepository(db)
	_, err = repo.Create(context.Background(), &models.User{
		Email:    "test@example.com",
		PassHash: []byte("hash"),
	})
	assert.ErrorIs(t, err, storage.ErrEmailTaken)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_GetByEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id", "email", "pass_hash", "name", "surname"}).
		AddRow(1, "test@example.com", []byte("hash"), "Test", "User")
	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT id, email, pass_hash, name, surname FROM users WHERE email = $1")).
		WithArgs("test@example.com").
		WillReturnRows(rows)

	repo := storage.NewUserRepository(db)
	user, err := repo.GetByEmail(context.Background(), "test@example.com")
	assert.NoError(t, err)
	assert.Equal(t, int64(1), user.ID)
	assert.Equal(t, []byte("hash"), user.PassHash)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_GetByEmail_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT id, email, pass_hash, name, surname FROM users WHERE email = $1")).
		WithArgs("nobody@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "pass_hash", "name", "surname"}))

	repo := storage.NewUserRepository(db)
	_, err = repo.GetByEmail(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, storage.ErrUserNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_GetByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id", "name", "description", "price_cents", "image_file"}).
		AddRow(5, "Rice", "White rice 1kg", 1000, "rice.png")
	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT id, name, description, price_cents, image_file FROM products WHERE id = $1")).
		WithArgs(int64(5)).
		WillReturnRows(rows)

	repo := storage.NewProductRepository(db)
	product, err := repo.GetByID(context.Background(), 5)
	assert.NoError(t, err)
	assert.Equal(t, "Rice", product.Name)
	assert.Equal(t, int64(1000), product.PriceCents)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_GetByID_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT id, name, description, price_cents, image_file FROM products WHERE id = $1")).
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "description", "price_cents", "image_file"}))

	repo := storage.NewProductRepository(db)
	_, err = repo.GetByID(context.Background(), 99)
	assert.ErrorIs(t, err, storage.ErrProductNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_Delete_Referenced(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM products WHERE id = $1")).
		WithArgs(int64(5)).
		WillReturnError(&pq.Error{Code: "23503"})

	repo := storage.NewProductRepository(db)
	err = repo.Delete(context.Background(), 5)
	assert.ErrorIs(t, err, storage.ErrProductReferenced)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_CreateTx(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(
		`INSERT INTO orders (user_id, payment_method_id, order_date, postal_code, state, city, address)
		          VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`)).
		WithArgs(int64(1), int64(2), sqlmock.AnyArg(), "12345-678", "SP", "Sao Paulo", "Test St, 123").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(10))
	mock.ExpectQuery(regexp.QuoteMeta(
		`INSERT INTO order_items (order_id, product_id, quantity, unit_price_cents)
				 VALUES ($1, $2, $3, $4) RETURNING id`)).
		WithArgs(int64(10), int64(5), 2, int64(1000)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(100))
	mock.ExpectCommit()

	tx, err := db.Begin()
	assert.NoError(t, err)

	order := &models.Order{
		UserID:          1,
		PaymentMethodID: 2,
		OrderDate:       time.Now(),
		PostalCode:      "12345-678",
		State:           "SP",
		City:            "Sao Paulo",
		Address:         "Test St, 123",
		Items: []models.OrderItem{
			{ProductID: 5, Quantity: 2, UnitPriceCents: 1000},
		},
	}

	repo := storage.NewOrderRepository(db)
	err = repo.CreateTx(context.Background(), tx, order)
	assert.NoError(t, err)
	assert.Equal(t, int64(10), order.ID)
	assert.Equal(t, int64(100), order.Items[0].ID)
	assert.Equal(t, int64(10), order.Items[0].OrderID)

	assert.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_Update(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta(
		`UPDATE orders SET user_id = $1, payment_method_id = $2, order_date = $3,
		 postal_code = $4, state = $5, city = $6, address = $7 WHERE id = $8`)).
		WithArgs(int64(1), int64(2), sqlmock.AnyArg(), "12345-678", "SP", "Sao Paulo", "New St, 456", int64(10)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := storage.NewOrderRepository(db)
	err = repo.Update(context.Background(), &models.Order{
		ID:              10,
		UserID:          1,
		PaymentMethodID: 2,
		OrderDate:       time.Now(),
		PostalCode:      "12345-678",
		State:           "SP",
		City:            "Sao Paulo",
		Address:         "New St, 456",
	})
	assert.NoError(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_Update_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta(
		`UPDATE orders SET user_id = $1, payment_method_id = $2, order_date = $3,
		 postal_code = $4, state = $5, city = $6, address = $7 WHERE id = $8`)).
		WithArgs(int64(1), int64(2), sqlmock.AnyArg(), "12345-678", "SP", "Sao Paulo", "New St, 456", int64(99)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := storage.NewOrderRepository(db)
	err = repo.Update(context.Background(), &models.Order{
		ID:              99,
		UserID:          1,
		PaymentMethodID: 2,
		OrderDate:       time.Now(),
		PostalCode:      "12345-678",
		State:           "SP",
		City:            "Sao Paulo",
		Address:         "New St, 456",
	})
	assert.ErrorIs(t, err, storage.ErrOrderNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentMethodRepository_GetAll(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id", "name", "description"}).
		AddRow(1, "Bank slip", "Payment by bank slip").
		AddRow(2, "Credit card", "Payment by credit card").
		AddRow(3, "Deposit", "Payment by bank deposit")
	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT id, name, description FROM payment_methods ORDER BY id")).
		WillReturnRows(rows)

	repo := storage.NewPaymentMethodRepository(db)
	methods, err := repo.GetAll(context.Background())
	assert.NoError(t, err)
	assert.Len(t, methods, 3)
	assert.Equal(t, "Bank slip", methods[0].Name)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCartKVRepository_GetSetDelete(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	payload := `[{"product_id":1,"quantity":2,"unit_price_cents":1000}]`

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT payload FROM cart_sessions WHERE session_key = $1")).
		WithArgs("cart:1").
		WillReturnRows(sqlmock.NewRows([]string{"payload"}))
	mock.ExpectExec(regexp.QuoteMeta(
		`INSERT INTO cart_sessions (session_key, payload, updated_at)
			 VALUES ($1, $2, NOW())
			 ON CONFLICT (session_key) DO UPDATE SET payload = $2, updated_at = NOW()`)).
		WithArgs("cart:1", payload).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT payload FROM cart_sessions WHERE session_key = $1")).
		WithArgs("cart:1").
		WillReturnRows(sqlmock.NewRows([]string{"payload"}).AddRow(payload))
	mock.ExpectExec(regexp.QuoteMeta(
		"DELETE FROM cart_sessions WHERE session_key = $1")).
		WithArgs("cart:1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	kv := storage.NewCartKVRepository(db)
	ctx := context.Background()

	_, found, err := kv.Get(ctx, "cart:1")
	assert.NoError(t, err)
	assert.False(t, found)

	err = kv.Set(ctx, "cart:1", payload)
	assert.NoError(t, err)

	value, found, err := kv.Get(ctx, "cart:1")
	assert.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, payload, value)

	err = kv.Delete(ctx, "cart:1")
	assert.NoError(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMemoryCartKV_EmptyValueIsNotFound(t *testing.T) {
	kv := storage.NewMemoryCartKV()
	ctx := context.Background()

	assert.NoError(t, kv.Set(ctx, "cart:1", ""))

	_, found, err := kv.Get(ctx, "cart:1")
	assert.NoError(t, err)
	assert.False(t, found)
}
