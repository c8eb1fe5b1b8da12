package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"bazar/internal/domain"
	"bazar/internal/repository"
	"bazar/internal/upload"
	"bazar/internal/validation"

	"go.uber.org/zap"
)

// PhotoStore persists product photos.
type PhotoStore interface {
	Save(f upload.Incoming) (string, error)
	Remove(publicPath string) error
}

// CreateProductInput holds the raw create-product fields. A nil field was
// absent from the request.
type CreateProductInput struct {
	Name        interface{}
	Description interface{}
	Price       interface{}
	Photo       *upload.Incoming
}

// ListProductsInput holds the raw list-products query values.
type ListProductsInput struct {
	Page   string
	Limit  string
	Status string
}

// ProductService defines the interface for product business logic
type ProductService interface {
	Create(ctx context.Context, in CreateProductInput) (*domain.Product, error)
	List(ctx context.Context, in ListProductsInput) ([]*domain.Product, error)
	Delete(ctx context.Context, id int64) error
}

type productService struct {
	products repository.ProductRepository
	photos   PhotoStore
	logger   *zap.Logger
}

// NewProductService creates a new instance of ProductService
func NewProductService(products repository.ProductRepository, photos PhotoStore, logger *zap.Logger) ProductService {
	return &productService{
		products: products,
		photos:   photos,
		logger:   logger,
	}
}

// Create validates the fields, stores the photo if any and inserts the
// product as active. The photo is removed again if the insert fails.
func (s *productService) Create(ctx context.Context, in CreateProductInput) (*domain.Product, error) {
	if errs := validation.ValidateProduct(in.Name, in.Price, in.Description); len(errs) > 0 {
		return nil, &ValidationError{Errors: errs}
	}

	product := &domain.Product{
		Name:   strings.TrimSpace(in.Name.(string)),
		Price:  validation.ParsePrice(in.Price),
		Status: domain.ProductStatusActive,
	}
	if desc, ok := in.Description.(string); ok {
		if desc = strings.TrimSpace(desc); desc != "" {
			product.Description = &desc
		}
	}

	if in.Photo != nil {
		photo, err := s.photos.Save(*in.Photo)
		if err != nil {
			if errors.Is(err, upload.ErrRejected) {
				return nil, err
			}
			return nil, fmt.Errorf("failed to store photo: %w", err)
		}
		product.Photo = &photo
	}

	if err := s.products.Create(ctx, product); err != nil {
		if product.Photo != nil {
			s.removePhoto(*product.Photo)
		}
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	s.logger.Info("Product created",
		zap.Int64("product_id", product.ID),
		zap.Bool("has_photo", product.Photo != nil),
	)
	return product, nil
}

// List returns one page of products, newest first
func (s *productService) List(ctx context.Context, in ListProductsInput) ([]*domain.Product, error) {
	var status *domain.ProductStatus
	if raw := strings.TrimSpace(in.Status); raw != "" {
		st := domain.ProductStatus(strings.ToLower(raw))
		if !st.Valid() {
			return nil, &ValidationError{Errors: []string{"status must be active or inactive"}}
		}
		status = &st
	}

	paging := ParsePaging(in.Page, in.Limit)
	products, err := s.products.List(ctx, status, paging.Limit, paging.Offset())
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

// Delete removes a product with its sales, then its photo on a best-effort basis
func (s *productService) Delete(ctx context.Context, id int64) error {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return repository.ErrProductNotFound
		}
		return fmt.Errorf("failed to find product: %w", err)
	}

	removed, err := s.products.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if removed == 0 {
		// Deleted concurrently after the lookup.
		return repository.ErrProductNotFound
	}

	if product.Photo != nil {
		s.removePhoto(*product.Photo)
	}

	s.logger.Info("Product deleted", zap.Int64("product_id", id))
	return nil
}

func (s *productService) removePhoto(path string) {
	if err := s.photos.Remove(path); err != nil {
		s.logger.Warn("Failed to remove photo",
			zap.String("photo", path),
			zap.Error(err),
		)
	}
}
