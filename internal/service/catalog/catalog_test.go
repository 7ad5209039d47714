package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/KobiNisim21/destiny-commerce/internal/cache"
	"github.com/KobiNisim21/destiny-commerce/internal/domain/product"
	xerrors "github.com/KobiNisim21/destiny-commerce/internal/pkg/errors"

	"go.uber.org/zap"
)

type fakeProductStore struct {
	products  []product.Product
	listCalls int
}

func (s *fakeProductStore) Create(ctx context.Context, p *product.Product) error {
	p.ID = int64(len(s.products) + 1)
	s.products = append(s.products, *p)
	return nil
}

func (s *fakeProductStore) FindByID(ctx context.Context, id int64) (*product.Product, error) {
	for _, p := range s.products {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, xerrors.ErrNotFound
}

func (s *fakeProductStore) FindBySlug(ctx context.Context, slug string) (*product.Product, error) {
	for _, p := range s.products {
		if p.Slug == slug {
			return &p, nil
		}
	}
	return nil, xerrors.ErrNotFound
}

func (s *fakeProductStore) ListActive(ctx context.Context, filters product.ListFilters) ([]product.Product, error) {
	s.listCalls++
	var out []product.Product
	for _, p := range s.products {
		if !p.IsActive {
			continue
		}
		if filters.Section != "" && p.Section != filters.Section {
			continue
		}
		if filters.Category != "" && p.Category != filters.Category {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *fakeProductStore) Update(ctx context.Context, id int64, p *product.Product) error {
	for i := range s.products {
		if s.products[i].ID == id {
			s.products[i] = *p
			return nil
		}
	}
	return xerrors.ErrNotFound
}

func (s *fakeProductStore) Delete(ctx context.Context, id int64) error {
	for i := range s.products {
		if s.products[i].ID == id {
			s.products = append(s.products[:i], s.products[i+1:]...)
			return nil
		}
	}
	return xerrors.ErrNotFound
}

func TestListProducts_ServesFromCache(t *testing.T) {
	store := &fakeProductStore{products: []product.Product{
		{ID: 1, Slug: "ceramic-hamsa", Section: "judaica", IsActive: true},
	}}
	svc := NewService(store, cache.NewProductCache(5*time.Minute, nil), zap.NewNop())

	for i := 0; i < 3; i++ {
		got, err := svc.ListProducts(context.Background(), product.ListFilters{})
		if err != nil {
			t.Fatalf("ListProducts: %v", err)
		}
		if len(got) != 1 {
			t.Fatalf("got %d products, want 1", len(got))
		}
	}

	if store.listCalls != 1 {
		t.Errorf("store queried %d times, want 1 (cache should serve repeats)", store.listCalls)
	}
}

func TestListProducts_FilterKeysAreSeparate(t *testing.T) {
	store := &fakeProductStore{products: []product.Product{
		{ID: 1, Slug: "ceramic-hamsa", Section: "judaica", IsActive: true},
		{ID: 2, Slug: "olive-bowl", Section: "kitchen", IsActive: true},
	}}
	svc := NewService(store, cache.NewProductCache(5*time.Minute, nil), zap.NewNop())

	all, err := svc.ListProducts(context.Background(), product.ListFilters{})
	if err != nil {
		t.Fatalf("ListProducts: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("got %d products, want 2", len(all))
	}

	judaica, err := svc.ListProducts(context.Background(), product.ListFilters{Section: "judaica"})
	if err != nil {
		t.Fatalf("ListProducts: %v", err)
	}
	if len(judaica) != 1 || judaica[0].Slug != "ceramic-hamsa" {
		t.Errorf("filtered listing = %+v, want only ceramic-hamsa", judaica)
	}
}

func TestCreateProduct_InvalidatesListings(t *testing.T) {
	store := &fakeProductStore{products: []product.Product{
		{ID: 1, Slug: "ceramic-hamsa", Section: "judaica", IsActive: true},
	}}
	svc := NewService(store, cache.NewProductCache(time.Hour, nil), zap.NewNop())

	// Prime the cache.
	if _, err := svc.ListProducts(context.Background(), product.ListFilters{}); err != nil {
		t.Fatalf("ListProducts: %v", err)
	}

	_, err := svc.CreateProduct(context.Background(), &product.CreateProductRequest{
		Slug:    "olive-bowl",
		NameHe:  "קערת עץ זית",
		Price:   40,
		Section: "kitchen",
	})
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}

	got, err := svc.ListProducts(context.Background(), product.ListFilters{})
	if err != nil {
		t.Fatalf("ListProducts: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("got %d products after create, want 2 (stale cache served?)", len(got))
	}
}
