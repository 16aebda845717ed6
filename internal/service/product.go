package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/grocerydev/grocery-shop/internal/domain/models"
	"github.com/grocerydev/grocery-shop/internal/storage"
)

type ProductService interface {
	List(ctx context.Context) ([]*models.Product, error)
	Get(ctx context.Context, id int64) (*models.Product, error)
	Create(ctx context.Context, product *models.Product) (*models.Product, error)
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id int64) error
}

type productService struct {
	log         *slog.Logger
	productRepo storage.ProductStorage
}

func NewProductService(log *slog.Logger, productRepo storage.ProductStorage) ProductService {
	return &productService{
		log:         log,
		productRepo: productRepo,
	}
}

func (s *productService) List(ctx context.Context) ([]*models.Product, error) {
	const op = "service.ProductService.List"

	products, err := s.productRepo.GetAll(ctx)
	if err != nil {
		s.log.Error("failed to list products", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to list products: %w", op, err)
	}
	return products, nil
}

func (s *productService) Get(ctx context.Context, id int64) (*models.Product, error) {
	const op = "service.ProductService.Get"

	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return product, nil
}

func (s *productService) Create(ctx context.Context, product *models.Product) (*models.Product, error) {
	const op = "service.ProductService.Create"
	logger := s.log.With(slog.String("op", op), slog.String("name", product.Name))

	created, err := s.productRepo.Create(ctx, product)
	if err != nil {
		logger.Error("failed to create product", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to create product: %w", op, err)
	}
	logger.Info("product created", slog.Int64("productID", created.ID))
	return created, nil
}

func (s *productService) Update(ctx context.Context, product *models.Product) error {
	const op = "service.ProductService.Update"

	if err := s.productRepo.Update(ctx, product); err != nil {
		s.log.Error("failed to update product", slog.String("op", op), slog.Any("error", err))
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *productService) Delete(ctx context.Context, id int64) error {
	const op = "service.ProductService.Delete"

	if err := s.productRepo.Delete(ctx, id); err != nil {
		s.log.Error("failed to delete product", slog.String("op", op), slog.Int64("productID", id), slog.Any("error", err))
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
