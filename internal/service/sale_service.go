package service

import (
	"context"
	"errors"
	"fmt"

	"bazar/internal/domain"
	"bazar/internal/repository"
	"bazar/internal/validation"

	"go.uber.org/zap"
)

// CreateSaleInput holds the raw decoded create-sale body.
type CreateSaleInput struct {
	ProductID interface{}
	Quantity  interface{}
	Total     interface{}
}

// SaleService defines the interface for sale business logic
type SaleService interface {
	Create(ctx context.Context, in CreateSaleInput) (*domain.Sale, error)
	List(ctx context.Context, paging Paging) (*domain.SalePage, error)
}

type saleService struct {
	sales    repository.SaleRepository
	products repository.ProductRepository
	logger   *zap.Logger
}

// NewSaleService creates a new instance of SaleService
func NewSaleService(sales repository.SaleRepository, products repository.ProductRepository, logger *zap.Logger) SaleService {
	return &saleService{
		sales:    sales,
		products: products,
		logger:   logger,
	}
}

// Create records a sale of an existing, active product. Validation errors are
// returned as *validation.FieldError.
func (s *saleService) Create(ctx context.Context, in CreateSaleInput) (*domain.Sale, error) {
	fields, err := validation.ValidateSale(in.ProductID, in.Quantity, in.Total)
	if err != nil {
		return nil, err
	}

	product, err := s.products.FindByID(ctx, fields.ProductID)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, repository.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product: %w", err)
	}
	if !product.IsActive() {
		return nil, ErrProductInactive
	}

	sale := &domain.Sale{
		ProductID: fields.ProductID,
		Quantity:  fields.Quantity,
		Total:     fields.Total,
	}
	if err := s.sales.Create(ctx, sale); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, repository.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to create sale: %w", err)
	}

	s.logger.Info("Sale recorded",
		zap.Int64("sale_id", sale.ID),
		zap.Int64("product_id", sale.ProductID),
		zap.Int64("quantity", sale.Quantity),
	)
	return sale, nil
}

// List returns one page of sales joined with their products plus pagination metadata
func (s *saleService) List(ctx context.Context, paging Paging) (*domain.SalePage, error) {
	total, err := s.sales.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count sales: %w", err)
	}

	sales, err := s.sales.List(ctx, paging.Limit, paging.Offset())
	if err != nil {
		return nil, fmt.Errorf("failed to list sales: %w", err)
	}

	return &domain.SalePage{
		Data:       sales,
		Pagination: domain.NewPagination(total, paging.Page, paging.Limit),
	}, nil
}
