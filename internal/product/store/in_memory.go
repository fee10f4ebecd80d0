package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/abgdnv/product-catalog/internal/product/errors"
)

var _ ProductStore = (*InMemoryStore)(nil)

// InMemoryStore implements ProductStore using a map guarded by a RWMutex.
// Listings are ordered by id.
type InMemoryStore struct {
	mu       sync.RWMutex
	products map[int64]Product
}

// NewInMemoryStore creates a new, empty InMemoryStore.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		products: make(map[int64]Product),
	}
}

// FindByID retrieves a product by its ID.
func (s *InMemoryStore) FindByID(_ context.Context, id int64) (*Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	if !ok {
		return nil, errors.ErrProductNotFound
	}
	return &p, nil
}

func (s *InMemoryStore) FindByIDs(_ context.Context, ids []int64) ([]Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]Product, 0, len(ids))
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if p, ok := s.products[id]; ok {
			list = append(list, p)
		}
	}
	return list, nil
}

// FindAll retrieves all products.
func (s *InMemoryStore) FindAll(_ context.Context) ([]Product, error) {
	return s.snapshot(), nil
}

func (s *InMemoryStore) FindAllSortedByPrice(_ context.Context, order SortOrder) ([]Product, error) {
	list := s.snapshot()
	SortByPrice(list, order)
	return list, nil
}

func (s *InMemoryStore) Insert(_ context.Context, products []Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range products {
		if _, exists := s.products[p.ID]; exists {
			return fmt.Errorf("id %d: %w", p.ID, errors.ErrProductExists)
		}
	}
	for _, p := range products {
		s.products[p.ID] = p
	}
	return nil
}

func (s *InMemoryStore) Upsert(_ context.Context, products []Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range products {
		s.products[p.ID] = p
	}
	return nil
}

// DeleteByID deletes a product by its ID.
func (s *InMemoryStore) DeleteByID(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[id]; !ok {
		return errors.ErrProductNotFound
	}
	delete(s.products, id)
	return nil
}

func (s *InMemoryStore) Ping(_ context.Context) error {
	return nil
}

func (s *InMemoryStore) snapshot() []Product {
	s.mu.RLock()
	list := make([]Product, 0, len(s.products))
	for _, p := range s.products {
		list = append(list, p)
	}
	s.mu.RUnlock()
	SortByID(list)
	return list
}
