package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/pricescout/backend/internal/domain"
)

var _ domain.ProductRepository = (*ProductRepository)(nil)

// ProductRepository keeps products in insertion order in memory.
// Returned products are copies; callers write back with UpdateFunc.
type ProductRepository struct {
	mu       sync.RWMutex
	products []domain.Product
}

// NewProductRepository creates an empty repository
func NewProductRepository() *ProductRepository {
	return &ProductRepository{}
}

func (r *ProductRepository) List(ctx context.Context) ([]domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Product, len(r.products))
	copy(out, r.products)
	return out, nil
}

func (r *ProductRepository) Get(ctx context.Context, id string) (*domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i := r.indexOf(id)
	if i < 0 {
		return nil, domain.ErrProductNotFound
	}
	p := r.products[i]
	return &p, nil
}

func (r *ProductRepository) Create(ctx context.Context, p *domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.indexOf(p.ID) >= 0 {
		return fmt.Errorf("product %q already exists", p.ID)
	}
	r.products = append(r.products, *p)
	return nil
}

// UpdateFunc runs fn on a copy under the write lock and stores it when fn succeeds
func (r *ProductRepository) UpdateFunc(ctx context.Context, id string, fn func(*domain.Product) error) (*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return nil, domain.ErrProductNotFound
	}
	p := r.products[i]
	if err := fn(&p); err != nil {
		return nil, err
	}
	p.ID = id
	r.products[i] = p
	return &p, nil
}

func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return domain.ErrProductNotFound
	}
	r.products = slices.Delete(r.products, i, i+1)
	return nil
}

func (r *ProductRepository) ReplaceAll(ctx context.Context, products []domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.products = slices.Clone(products)
	return nil
}

func (r *ProductRepository) indexOf(id string) int {
	return slices.IndexFunc(r.products, func(p domain.Product) bool { return p.ID == id })
}
