package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/grocerydev/grocery-shop/internal/domain/models"
	"github.com/grocerydev/grocery-shop/internal/security/authmw"
	"github.com/grocerydev/grocery-shop/internal/service"
	"github.com/grocerydev/grocery-shop/internal/storage"
)

// AddToCartRequest asks to merge a product into the session cart
type AddToCartRequest struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
	Quantity  int   `json:"quantity"` // zero/unset means one
}

// ReplaceCartRequest overwrites the whole cart
type ReplaceCartRequest struct {
	Items []models.CartLine `json:"items" validate:"required,dive"`
}

// CartResponse returns the full cart state after an operation
type CartResponse struct {
	Items []models.CartLine `json:"items"`
}

// cartKey derives the storage key for the authenticated user's cart.
func cartKey(prefix string, userID int64) string {
	return prefix + strconv.FormatInt(userID, 10)
}

// GetCartHandler handles GET /api/cart
func GetCartHandler(log *slog.Logger, cartService service.CartService, keyPrefix string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.GetCartHandler"
		logger := log.With(slog.String("op", op))

		userID, ok := authmw.FromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		items, err := cartService.ListItems(r.Context(), cartKey(keyPrefix, userID))
		if err != nil {
			logger.Error("failed to list cart items", slog.Any("error", err))
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(CartResponse{Items: items}); err != nil {
			logger.Error("failed to encode response", slog.Any("error", err))
		}
	}
}

// AddToCartHandler handles POST /api/cart
func AddToCartHandler(log *slog.Logger, cartService service.CartService, keyPrefix string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.AddToCartHandler"
		logger := log.With(slog.String("op", op))

		userID, ok := authmw.FromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req AddToCartRequest
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

		items, err := cartService.AddToCart(r.Context(), cartKey(keyPrefix, userID), req.ProductID, req.Quantity)
		if err != nil {
			if errors.Is(err, storage.ErrProductNotFound) {
				http.Error(w, "product not found", http.StatusNotFound)
				return
			}
			logger.Error("failed to add to cart", slog.Any("error", err))
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(CartResponse{Items: items}); err != nil {
			logger.Error("failed to encode response", slog.Any("error", err))
		}
	}
}

// RemoveCartItemHandler handles DELETE /api/cart/{productID}
func RemoveCartItemHandler(log *slog.Logger, cartService service.CartService, keyPrefix string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.RemoveCartItemHandler"
		logger := log.With(slog.String("op", op))

		userID, ok := authmw.FromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		productID, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
		if err != nil {
			http.Error(w, "invalid product id", http.StatusBadRequest)
			return
		}

		items, err := cartService.RemoveItem(r.Context(), cartKey(keyPrefix, userID), productID)
		if err != nil {
			logger.Error("failed to remove cart item", slog.Any("error", err))
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(CartResponse{Items: items}); err != nil {
			logger.Error("failed to encode response", slog.Any("error", err))
		}
	}
}

// ReplaceCartHandler handles PUT /api/cart
func ReplaceCartHandler(log *slog.Logger, cartService service.CartService, keyPrefix string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.ReplaceCartHandler"
		logger := log.With(slog.String("op", op))

		userID, ok := authmw.FromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req ReplaceCartRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Error("invalid request: decoding error", slog.Any("error", err))
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}

		if err := cartService.ReplaceAll(r.Context(), cartKey(keyPrefix, userID), req.Items); err != nil {
			logger.Error("failed to replace cart", slog.Any("error", err))
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(CartResponse{Items: req.Items}); err != nil {
			logger.Error("failed to encode response", slog.Any("error", err))
		}
	}
}

// ClearCartHandler handles DELETE /api/cart
func ClearCartHandler(log *slog.Logger, cartService service.CartService, keyPrefix string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.ClearCartHandler"
		logger := log.With(slog.String("op", op))

		userID, ok := authmw.FromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		if err := cartService.Clear(r.Context(), cartKey(keyPrefix, userID)); err != nil {
			logger.Error("failed to clear cart", slog.Any("error", err))
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
