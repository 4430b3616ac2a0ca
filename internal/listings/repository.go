package listings

import (
	"context"
	"sync"
)

// Repository stores listed products. List returns them in insertion order.
type Repository interface {
	Insert(ctx context.Context, p ListedProduct) error
	FindByID(ctx context.Context, id string) (ListedProduct, error)
	List(ctx context.Context) ([]ListedProduct, error)
}

type MemoryRepository struct {
	mu       sync.RWMutex
	products []ListedProduct
	index    map[string]int
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{index: map[string]int{}}
}

func (r *MemoryRepository) Insert(_ context.Context, p ListedProduct) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.index[p.ID] = len(r.products)
	r.products = append(r.products, p)
	return nil
}

func (r *MemoryRepository) FindByID(_ context.Context, id string) (ListedProduct, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i, ok := r.index[id]
	if !ok {
		return ListedProduct{}, ErrListingNotFound
	}
	return r.products[i], nil
}

func (r *MemoryRepository) List(_ context.Context) ([]ListedProduct, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]ListedProduct, len(r.products))
	copy(out, r.products)
	return out, nil
}
