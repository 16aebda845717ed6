package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/grocerydev/grocery-shop/internal/domain/models"
	"github.com/grocerydev/grocery-shop/internal/storage"
)

var ErrEmptyCart = errors.New("cart has no items")

// DeliveryAddress carries the checkout address fields.
type DeliveryAddress struct {
	PostalCode string
	State      string
	City       string
	Address    string
}

type OrderService interface {
	// PlaceOrder turns the cart lines into one order aggregate and commits
	// it in a single transaction; on any failure nothing is persisted.
	PlaceOrder(ctx context.Context, userID, paymentMethodID int64, lines []models.CartLine, addr DeliveryAddress) (*models.Order, error)
	GetOrdersByUser(ctx context.Context, userID int64) ([]*models.Order, error)
	ListPaymentMethods(ctx context.Context) ([]*models.PaymentMethod, error)
}

type orderService struct {
	log         *slog.Logger
	db          *sql.DB
	userRepo    storage.UserStorage
	productRepo storage.ProductStorage
	orderRepo   storage.OrderStorage
	paymentRepo storage.PaymentMethodStorage
}

func NewOrderService(log *slog.Logger, db *sql.DB, userRepo storage.UserStorage, productRepo storage.ProductStorage, orderRepo storage.OrderStorage, paymentRepo storage.PaymentMethodStorage) OrderService {
	return &orderService{
		log:         log,
		db:          db,
		userRepo:    userRepo,
		productRepo: productRepo,
		orderRepo:   orderRepo,
		paymentRepo: paymentRepo,
	}
}

func (s *orderService) PlaceOrder(ctx context.Context, userID, paymentMethodID int64, lines []models.CartLine, addr DeliveryAddress) (*models.Order, error) {
	const op = "service.OrderService.PlaceOrder"
	logger := s.log.With(
		slog.String("op", op),
		slog.Int64("userID", userID),
		slog.Int64("paymentMethodID", paymentMethodID),
		slog.Int("lines", len(lines)),
	)
	logger.Info("starting order transaction")

	if len(lines) == 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrEmptyCart)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		logger.Error("failed to begin transaction", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to begin transaction: %w", op, err)
	}

	if _, err := s.userRepo.GetByIDTx(ctx, tx, userID); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		logger.Error("failed to get user", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to get user: %w", op, err)
	}

	if _, err := s.paymentRepo.GetByIDTx(ctx, tx, paymentMethodID); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		logger.Error("failed to get payment method", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to get payment method: %w", op, err)
	}

	order := &models.Order{
		UserID:          userID,
		PaymentMethodID: paymentMethodID,
		OrderDate:       time.Now(),
		PostalCode:      addr.PostalCode,
		State:           addr.State,
		City:            addr.City,
		Address:         addr.Address,
		Items:           make([]models.OrderItem, 0, len(lines)),
	}

	for _, line := range lines {
		// every line must still point at a live product when the order
		// is created; afterwards the item stands on its own
		if _, err := s.productRepo.GetByIDTx(ctx, tx, line.ProductID); err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				logger.Error("transaction rollback failed", slog.Any("error", rbErr))
			}
			logger.Error("failed to get product", slog.Int64("productID", line.ProductID), slog.Any("error", err))
			return nil, fmt.Errorf("%s: failed to get product %d: %w", op, line.ProductID, err)
		}
		order.Items = append(order.Items, models.OrderItem{
			ProductID:      line.ProductID,
			Quantity:       line.Quantity,
			UnitPriceCents: line.UnitPriceCents,
		})
	}

	if err := s.orderRepo.CreateTx(ctx, tx, order); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		logger.Error("failed to create order", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to create order: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		logger.Error("failed to commit transaction", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to commit transaction: %w", op, err)
	}

	logger.Info("order placed", slog.Int64("orderID", order.ID))
	return order, nil
}

func (s *orderService) GetOrdersByUser(ctx context.Context, userID int64) ([]*models.Order, error) {
	const op = "service.OrderService.GetOrdersByUser"

	orders, err := s.orderRepo.GetByUserID(ctx, userID)
	if err != nil {
		s.log.Error("failed to get orders", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to get orders: %w", op, err)
	}
	return orders, nil
}

func (s *orderService) ListPaymentMethods(ctx context.Context) ([]*models.PaymentMethod, error) {
	const op = "service.OrderService.ListPaymentMethods"

	methods, err := s.paymentRepo.GetAll(ctx)
	if err != nil {
		s.log.Error("failed to list payment methods", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to list payment methods: %w", op, err)
	}
	return methods, nil
}
