package service

import (
	"context"
	"errors"
	"fmt"

	"lens-catalog/internal/domain"
	"lens-catalog/internal/repository"

	"github.com/google/uuid"
)

// ProductService defines the interface for product catalog operations
type ProductService interface {
	// List returns one page of products selected by the active filter
	List(ctx context.Context, active domain.ActiveFilter, page domain.Pagination) (*domain.ProductPage, error)

	// Search returns every product matching the filter. An empty result is
	// not an error.
	Search(ctx context.Context, filter domain.ProductFilter) ([]*domain.Product, error)

	// Get returns repository.ErrProductNotFound when id does not exist
	Get(ctx context.Context, id uuid.UUID) (*domain.Product, error)

	// Create assigns a new id and stores the product
	Create(ctx context.Context, in domain.CreateProductInput) (*domain.Product, error)

	Update(ctx context.Context, id uuid.UUID, in domain.UpdateProductInput) (*domain.Product, error)
	ToggleActive(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type productService struct {
	productRepo repository.ProductRepository
	newID       func() uuid.UUID
}

// Option configures a ProductService
type Option func(*productService)

// WithIDGenerator replaces uuid.New as the source of product ids
func WithIDGenerator(fn func() uuid.UUID) Option {
	return func(s *productService) {
		s.newID = fn
	}
}

// NewProductService creates a new instance of ProductService
func NewProductService(productRepo repository.ProductRepository, opts ...Option) ProductService {
	s := &productService{
		productRepo: productRepo,
		newID:       uuid.New,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *productService) List(ctx context.Context, active domain.ActiveFilter, page domain.Pagination) (*domain.ProductPage, error) {
	products, total, err := s.productRepo.List(ctx, active, page.Page, page.Limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	return &domain.ProductPage{
		Products: products,
		Total:    total,
		Page:     page.Page,
		Limit:    page.Limit,
	}, nil
}

func (s *productService) Search(ctx context.Context, filter domain.ProductFilter) ([]*domain.Product, error) {
	products, err := s.productRepo.Search(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to search products: %w", err)
	}
	return products, nil
}

func (s *productService) Get(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, wrap("get product", err)
	}
	return product, nil
}

func (s *productService) Create(ctx context.Context, in domain.CreateProductInput) (*domain.Product, error) {
	product := domain.NewProduct(s.newID(), in)

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return product, nil
}

// Update writes the present fields; an empty update returns the stored product
func (s *productService) Update(ctx context.Context, id uuid.UUID, in domain.UpdateProductInput) (*domain.Product, error) {
	if in.IsEmpty() {
		return s.Get(ctx, id)
	}

	product, err := s.productRepo.Update(ctx, id, in)
	if err != nil {
		return nil, wrap("update product", err)
	}
	return product, nil
}

func (s *productService) ToggleActive(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	product, err := s.productRepo.ToggleActive(ctx, id)
	if err != nil {
		return nil, wrap("toggle product", err)
	}
	return product, nil
}

func (s *productService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.productRepo.Delete(ctx, id); err != nil {
		return wrap("delete product", err)
	}
	return nil
}

// wrap passes the not-found sentinel through untouched so callers can match
// it directly
func wrap(op string, err error) error {
	if errors.Is(err, repository.ErrProductNotFound) {
		return repository.ErrProductNotFound
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}
