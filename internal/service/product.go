package service

import (
	"context"
	"strings"

	"github.com/catalog-api/backend/internal/model"
)

type ProductStore interface {
	CreateProduct(ctx context.Context, p model.Product) (*model.Product, error)
	ListProducts(ctx context.Context, filter model.ProductFilter) ([]model.Product, error)
	GetProduct(ctx context.Context, id int64) (*model.Product, error)
	UpdateProduct(ctx context.Context, id int64, req model.UpdateProductRequest) (*model.Product, error)
	DeleteProduct(ctx context.Context, id int64) error
}

type ProductService struct {
	repo ProductStore
}

func NewProductService(repo ProductStore) *ProductService {
	return &ProductService{repo: repo}
}

func (s *ProductService) Create(ctx context.Context, req model.CreateProductRequest) (*model.Product, error) {
	if req.Price == nil || *req.Price < 0 {
		return nil, ErrInvalidInput
	}

	inStock := true
	if req.InStock != nil {
		inStock = *req.InStock
	}

	return s.repo.CreateProduct(ctx, model.Product{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Price:       *req.Price,
		Category:    strings.TrimSpace(req.Category),
		InStock:     inStock,
	})
}

func (s *ProductService) List(ctx context.Context, filter model.ProductFilter) ([]model.Product, error) {
	if filter.MinPrice != nil && filter.MaxPrice != nil && *filter.MinPrice > *filter.MaxPrice {
		return nil, ErrInvalidInput
	}
	products, err := s.repo.ListProducts(ctx, filter)
	if err != nil {
		return nil, err
	}
	if products == nil {
		products = []model.Product{}
	}
	return products, nil
}

func (s *ProductService) Get(ctx context.Context, id int64) (*model.Product, error) {
	return s.repo.GetProduct(ctx, id)
}

// Update applies a partial update. An empty request is rejected.
func (s *ProductService) Update(ctx context.Context, id int64, req model.UpdateProductRequest) (*model.Product, error) {
	if req.IsEmpty() {
		return nil, ErrInvalidInput
	}
	return s.repo.UpdateProduct(ctx, id, req)
}

func (s *ProductService) Delete(ctx context.Context, id int64) error {
	return s.repo.DeleteProduct(ctx, id)
}
