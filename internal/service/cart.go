package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/grocerydev/grocery-shop/internal/domain/models"
	"github.com/grocerydev/grocery-shop/internal/storage"
)

// CartService keeps one pending-purchase list per session key. The list is
// stored as a single serialized blob in the injected CartKV and is rewritten
// in full on every mutation.
type CartService interface {
	// AddToCart merges the product into the cart: a new line captures the
	// product's current price, an existing line only accumulates quantity.
	AddToCart(ctx context.Context, sessionKey string, productID int64, quantity int) ([]models.CartLine, error)
	ListItems(ctx context.Context, sessionKey string) ([]models.CartLine, error)
	RemoveItem(ctx context.Context, sessionKey string, productID int64) ([]models.CartLine, error)
	ReplaceAll(ctx context.Context, sessionKey string, items []models.CartLine) error
	HasItems(ctx context.Context, sessionKey string) (bool, error)
	Clear(ctx context.Context, sessionKey string) error
}

type cartService struct {
	log         *slog.Logger
	kv          storage.CartKV
	productRepo storage.ProductStorage
}

func NewCartService(log *slog.Logger, kv storage.CartKV, productRepo storage.ProductStorage) CartService {
	return &cartService{
		log:         log,
		kv:          kv,
		productRepo: productRepo,
	}
}

func (s *cartService) AddToCart(ctx context.Context, sessionKey string, productID int64, quantity int) ([]models.CartLine, error) {
	const op = "service.CartService.AddToCart"
	logger := s.log.With(
		slog.String("op", op),
		slog.String("sessionKey", sessionKey),
		slog.Int64("productID", productID),
	)

	// requests without a quantity mean "one of it"
	if quantity <= 0 {
		quantity = 1
	}

	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, storage.ErrProductNotFound) {
			logger.Warn("product not found")
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		logger.Error("failed to get product", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to get product: %w", op, err)
	}

	blob, found, err := s.kv.Get(ctx, sessionKey)
	if err != nil {
		logger.Error("failed to load cart", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to load cart: %w", op, err)
	}

	if !found {
		// nothing stored yet: skip the load-then-merge path entirely
		lines := []models.CartLine{{
			ProductID:      product.ID,
			Quantity:       quantity,
			UnitPriceCents: product.PriceCents,
		}}
		if err := s.writeCart(ctx, sessionKey, lines); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		logger.Info("cart created with first line", slog.Int("quantity", quantity))
		return lines, nil
	}

	lines, err := decodeCart(blob)
	if err != nil {
		logger.Error("failed to decode cart", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to decode cart: %w", op, err)
	}

	merged := false
	for i := range lines {
		if lines[i].ProductID == product.ID {
			// captured price stays as it was on the first add
			lines[i].Quantity += quantity
			merged = true
			break
		}
	}
	if !merged {
		lines = append(lines, models.CartLine{
			ProductID:      product.ID,
			Quantity:       quantity,
			UnitPriceCents: product.PriceCents,
		})
	}

	if err := s.writeCart(ctx, sessionKey, lines); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	logger.Info("cart updated", slog.Int("lines", len(lines)), slog.Bool("merged", merged))
	return lines, nil
}

func (s *cartService) ListItems(ctx context.Context, sessionKey string) ([]models.CartLine, error) {
	const op = "service.CartService.ListItems"

	blob, found, err := s.kv.Get(ctx, sessionKey)
	if err != nil {
		s.log.Error("failed to load cart", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to load cart: %w", op, err)
	}
	if !found {
		return []models.CartLine{}, nil
	}

	lines, err := decodeCart(blob)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to decode cart: %w", op, err)
	}
	return lines, nil
}

func (s *cartService) RemoveItem(ctx context.Context, sessionKey string, productID int64) ([]models.CartLine, error) {
	const op = "service.CartService.RemoveItem"
	logger := s.log.With(slog.String("op", op), slog.String("sessionKey", sessionKey), slog.Int64("productID", productID))

	blob, found, err := s.kv.Get(ctx, sessionKey)
	if err != nil {
		logger.Error("failed to load cart", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to load cart: %w", op, err)
	}
	if !found {
		return []models.CartLine{}, nil
	}

	lines, err := decodeCart(blob)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to decode cart: %w", op, err)
	}

	// keep everything but the matching product, preserving order
	kept := lines[:0]
	for _, line := range lines {
		if line.ProductID != productID {
			kept = append(kept, line)
		}
	}

	if err := s.writeCart(ctx, sessionKey, kept); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	logger.Info("item removed", slog.Int("lines", len(kept)))
	return kept, nil
}

func (s *cartService) ReplaceAll(ctx context.Context, sessionKey string, items []models.CartLine) error {
	const op = "service.CartService.ReplaceAll"

	if err := s.writeCart(ctx, sessionKey, items); err != nil {
		s.log.Error("failed to replace cart", slog.String("op", op), slog.Any("error", err))
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *cartService) HasItems(ctx context.Context, sessionKey string) (bool, error) {
	const op = "service.CartService.HasItems"

	lines, err := s.ListItems(ctx, sessionKey)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return len(lines) > 0, nil
}

func (s *cartService) Clear(ctx context.Context, sessionKey string) error {
	const op = "service.CartService.Clear"

	if err := s.kv.Delete(ctx, sessionKey); err != nil {
		s.log.Error("failed to clear cart", slog.String("op", op), slog.Any("error", err))
		return fmt.Errorf("%s: failed to clear cart: %w", op, err)
	}
	return nil
}

func (s *cartService) writeCart(ctx context.Context, sessionKey string, lines []models.CartLine) error {
	blob, err := json.Marshal(lines)
	if err != nil {
		return fmt.Errorf("failed to encode cart: %w", err)
	}
	if err := s.kv.Set(ctx, sessionKey, string(blob)); err != nil {
		return fmt.Errorf("failed to store cart: %w", err)
	}
	return nil
}

func decodeCart(blob string) ([]models.CartLine, error) {
	var lines []models.CartLine
	if err := json.Unmarshal([]byte(blob), &lines); err != nil {
		return nil, err
	}
	return lines, nil
}
