package catalog

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/KobiNisim21/destiny-commerce/internal/cache"
	"github.com/KobiNisim21/destiny-commerce/internal/domain/product"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

// Store is the product repository surface the catalog needs.
type Store interface {
	Create(ctx context.Context, p *product.Product) error
	FindByID(ctx context.Context, id int64) (*product.Product, error)
	FindBySlug(ctx context.Context, slug string) (*product.Product, error)
	ListActive(ctx context.Context, filters product.ListFilters) ([]product.Product, error)
	Update(ctx context.Context, id int64, p *product.Product) error
	Delete(ctx context.Context, id int64) error
}

type Service struct {
	products Store
	listings *cache.ProductCache
	logger   *zap.Logger
}

func NewService(products Store, listings *cache.ProductCache, logger *zap.Logger) *Service {
	return &Service{
		products: products,
		listings: listings,
		logger:   logger,
	}
}

// ListProducts serves the public listing through the TTL cache.
func (s *Service) ListProducts(ctx context.Context, filters product.ListFilters) ([]product.Product, error) {
	key := cacheKey(filters)

	if cached, ok := s.listings.Get(key); ok {
		return cached, nil
	}

	products, err := s.products.ListActive(ctx, filters)
	if err != nil {
		return nil, err
	}

	s.listings.Set(key, products)
	return products, nil
}

// GetProduct fetches a single product by its public slug.
func (s *Service) GetProduct(ctx context.Context, slug string) (*product.Product, error) {
	return s.products.FindBySlug(ctx, slug)
}

// ========== Admin Operations ==========

func (s *Service) CreateProduct(ctx context.Context, req *product.CreateProductRequest) (*product.Product, error) {
	p := &product.Product{
		Slug:          req.Slug,
		NameHe:        req.NameHe,
		NameEn:        req.NameEn,
		DescriptionHe: sql.NullString{String: req.DescriptionHe, Valid: req.DescriptionHe != ""},
		DescriptionEn: sql.NullString{String: req.DescriptionEn, Valid: req.DescriptionEn != ""},
		Price:         req.Price,
		Section:       req.Section,
		Category:      req.Category,
		Images:        pq.StringArray(req.Images),
		Stock:         req.Stock,
		IsActive:      true,
	}

	if err := s.products.Create(ctx, p); err != nil {
		return nil, err
	}

	s.listings.Invalidate()
	s.logger.Info("product created",
		zap.Int64("product_id", p.ID),
		zap.String("slug", p.Slug),
	)

	return p, nil
}

func (s *Service) UpdateProduct(ctx context.Context, id int64, req *product.UpdateProductRequest) (*product.Product, error) {
	p, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.NameHe != nil {
		p.NameHe = *req.NameHe
	}
	if req.NameEn != nil {
		p.NameEn = *req.NameEn
	}
	if req.DescriptionHe != nil {
		p.DescriptionHe = sql.NullString{String: *req.DescriptionHe, Valid: *req.DescriptionHe != ""}
	}
	if req.DescriptionEn != nil {
		p.DescriptionEn = sql.NullString{String: *req.DescriptionEn, Valid: *req.DescriptionEn != ""}
	}
	if req.Price != nil {
		if *req.Price <= 0 {
			return nil, fmt.Errorf("price must be positive")
		}
		p.Price = *req.Price
	}
	if req.Section != nil {
		p.Section = *req.Section
	}
	if req.Category != nil {
		p.Category = *req.Category
	}
	if req.Images != nil {
		p.Images = pq.StringArray(req.Images)
	}
	if req.Stock != nil {
		if *req.Stock < 0 {
			return nil, fmt.Errorf("stock cannot be negative")
		}
		p.Stock = *req.Stock
	}
	if req.IsActive != nil {
		p.IsActive = *req.IsActive
	}

	if err := s.products.Update(ctx, id, p); err != nil {
		return nil, err
	}

	s.listings.Invalidate()
	s.logger.Info("product updated", zap.Int64("product_id", id))

	return p, nil
}

func (s *Service) DeleteProduct(ctx context.Context, id int64) error {
	if err := s.products.Delete(ctx, id); err != nil {
		return err
	}

	s.listings.Invalidate()
	s.logger.Info("product deleted", zap.Int64("product_id", id))

	return nil
}

func cacheKey(filters product.ListFilters) string {
	return fmt.Sprintf("listing:%s:%s", filters.Section, filters.Category)
}
