package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/grocerydev/grocery-shop/internal/domain/models"
	"github.com/grocerydev/grocery-shop/internal/security/authmw"
	"github.com/grocerydev/grocery-shop/internal/service"
	"github.com/grocerydev/grocery-shop/internal/storage"
)

// CheckoutRequest carries payment choice and delivery address; the lines
// themselves come from the stored cart.
type CheckoutRequest struct {
	PaymentMethodID int64  `json:"payment_method_id" validate:"required,gt=0"`
	PostalCode      string `json:"postal_code" validate:"required"`
	State           string `json:"state" validate:"required"`
	City            string `json:"city" validate:"required"`
	Address         string `json:"address" validate:"required"`
}

// CheckoutHandler handles POST /api/checkout: places the order from the
// current cart and clears the cart once the order is committed.
func CheckoutHandler(log *slog.Logger, orderService service.OrderService, cartService service.CartService, keyPrefix string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.CheckoutHandler"
		logger := log.With(slog.String("op", op))

		userID, ok := authmw.FromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req CheckoutRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Error("invalid request: decoding error", slog.Any("error", err))
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}

		if err := validate.Struct(req); err != nil {
			logger.Error("invalid request: validation error", slog.Any("error", err))
			http.Error(w, "validation error", http.StatusBadRequest)
			return
		}

		key := cartKey(keyPrefix, userID)
		lines, err := cartService.ListItems(r.Context(), key)
		if err != nil {
			logger.Error("failed to load cart", slog.Any("error", err))
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}

		order, err := orderService.PlaceOrder(r.Context(), userID, req.PaymentMethodID, lines, service.DeliveryAddress{
			PostalCode: req.PostalCode,
			State:      req.State,
			City:       req.City,
			Address:    req.Address,
		})
		if err != nil {
			switch {
			case errors.Is(err, service.ErrEmptyCart):
				http.Error(w, "cart is empty", http.StatusBadRequest)
			case errors.Is(err, storage.ErrPaymentMethodNotFound):
				http.Error(w, "payment method not found", http.StatusBadRequest)
			case errors.Is(err, storage.ErrProductNotFound):
				http.Error(w, "product no longer available", http.StatusBadRequest)
			default:
				logger.Error("failed to place order", slog.Any("error", err))
				http.Error(w, "internal server error", http.StatusInternalServerError)
			}
			return
		}

		// the order is committed; a failed cart clear only leaves stale lines
		if err := cartService.Clear(r.Context(), key); err != nil {
			logger.Error("failed to clear cart after checkout", slog.Any("error", err))
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		if err := json.NewEncoder(w).Encode(order); err != nil {
			logger.Error("failed to encode response", slog.Any("error", err))
		}
	}
}

// ListOrdersHandler handles GET /api/orders (the caller's order history)
func ListOrdersHandler(log *slog.Logger, orderService service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.ListOrdersHandler"
		logger := log.With(slog.String("op", op))

		userID, ok := authmw.FromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		orders, err := orderService.GetOrdersByUser(r.Context(), userID)
		if err != nil {
			logger.Error("failed to get orders", slog.Any("error", err))
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}
		if orders == nil {
			orders = []*models.Order{}
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(orders); err != nil {
			logger.Error("failed to encode response", slog.Any("error", err))
		}
	}
}

// ListPaymentMethodsHandler handles GET /api/payment-methods
func ListPaymentMethodsHandler(log *slog.Logger, orderService service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.ListPaymentMethodsHandler"
		logger := log.With(slog.String("op", op))

		methods, err := orderService.ListPaymentMethods(r.Context())
		if err != nil {
			logger.Error("failed to list payment methods", slog.Any("error", err))
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(methods); err != nil {
			logger.Error("failed to encode response", slog.Any("error", err))
		}
	}
}
