// Package service provides the implementation of product-related business logic.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/abgdnv/product-catalog/internal/product/errors"
	"github.com/abgdnv/product-catalog/internal/product/store"
	"github.com/abgdnv/product-catalog/pkg/messaging"
	"github.com/abgdnv/product-catalog/pkg/messaging/events"
)

// ProductService defines the methods for managing products.
// It abstracts the underlying business logic and data access.
type ProductService interface {
	// FindByID retrieves a single product by its unique identifier.
	// Returns ErrProductNotFound if no product exists with the given ID.
	FindByID(ctx context.Context, id int64) (*ProductDto, error)

	// FindAll returns all available products.
	// Returns an empty slice if no products exist.
	FindAll(ctx context.Context) ([]ProductDto, error)

	// FindAllSortedByPrice returns all products ordered by price.
	FindAllSortedByPrice(ctx context.Context, order store.SortOrder) ([]ProductDto, error)

	// Create stores the products whose id is not taken yet.
	// Nothing is written when every id is a duplicate; Summary.Created is 0 then.
	Create(ctx context.Context, products []ProductDto) (*BulkResult, error)

	// Upsert replaces the given products as a whole, inserting unknown ids.
	Upsert(ctx context.Context, products []ProductDto) (*BulkResult, error)

	// Patch merges the non-nil fields of each item onto the stored product,
	// storing items with unknown ids as given.
	Patch(ctx context.Context, patches []ProductDto) (*PatchResult, error)

	// DeleteByID removes a product by its ID.
	// Returns ErrProductNotFound if no product exists with the given ID.
	DeleteByID(ctx context.Context, id int64) error

	// CheckAvailability reports whether count units of the product are in stock.
	// Returns ErrInvalidInput if count is not positive and ErrProductNotFound if the id is unknown.
	CheckAvailability(ctx context.Context, id int64, count int32) (*AvailabilityDto, error)
}

// Service implements ProductService and provides methods to manage products.
type Service struct {
	repository store.ProductStore
	publisher  messaging.Publisher
	logger     *slog.Logger
	now        func() time.Time
}

// NewService creates a new instance of ProductService with the provided repository.
// publisher may be nil, in which case no change events are emitted.
func NewService(repo store.ProductStore, publisher messaging.Publisher, logger *slog.Logger) *Service {
	return &Service{
		repository: repo,
		publisher:  publisher,
		logger:     logger.With("component", "product_service"),
		now:        time.Now,
	}
}

// FindByID retrieves a product by its ID and returns it as a ProductDto.
func (s *Service) FindByID(ctx context.Context, id int64) (*ProductDto, error) {
	product, err := s.repository.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch product by ID %d: %w", id, err)
	}
	dto := toDto(*product)
	return &dto, nil
}

// FindAll retrieves a list of all products and returns them as ProductDTOs.
func (s *Service) FindAll(ctx context.Context) ([]ProductDto, error) {
	products, err := s.repository.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch products: %w", err)
	}
	return toDtos(products), nil
}

func (s *Service) FindAllSortedByPrice(ctx context.Context, order store.SortOrder) ([]ProductDto, error) {
	products, err := s.repository.FindAllSortedByPrice(ctx, order)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch products sorted by price %s: %w", order, err)
	}
	return toDtos(products), nil
}

// Create inserts the products with new ids. An id repeated within the batch
// counts as a duplicate of its first occurrence.
func (s *Service) Create(ctx context.Context, products []ProductDto) (*BulkResult, error) {
	if len(products) == 0 {
		return nil, fmt.Errorf("nothing to create: %w", errors.ErrInvalidInput)
	}
	existing, err := s.repository.FindByIDs(ctx, distinctIDs(products))
	if err != nil {
		return nil, fmt.Errorf("failed to look up existing products: %w", err)
	}
	taken := existingIDs(existing)

	onlyNew := make([]store.Product, 0, len(products))
	for _, p := range products {
		if _, ok := taken[p.ID]; ok {
			continue
		}
		product := toProduct(p)
		taken[p.ID] = product
		onlyNew = append(onlyNew, product)
	}

	result := &BulkResult{
		Summary: SummaryDto{
			Created:    len(onlyNew),
			Duplicates: len(products) - len(onlyNew),
			Total:      len(products),
		},
		Items: products,
	}
	if len(onlyNew) == 0 {
		s.logger.InfoContext(ctx, "All products already exist, nothing created", "total", len(products))
		return result, nil
	}
	if err := s.repository.Insert(ctx, onlyNew); err != nil {
		return nil, fmt.Errorf("failed to create products: %w", err)
	}
	s.logger.InfoContext(ctx, "Products created", "created", result.Summary.Created, "duplicates", result.Summary.Duplicates)
	s.publish(ctx, events.ProductsCreated, productIDs(onlyNew), result.Summary)
	return result, nil
}

// Upsert writes every product as given. The last occurrence of a repeated id wins.
func (s *Service) Upsert(ctx context.Context, products []ProductDto) (*BulkResult, error) {
	if len(products) == 0 {
		return nil, fmt.Errorf("nothing to upsert: %w", errors.ErrInvalidInput)
	}
	ids := distinctIDs(products)
	existing, err := s.repository.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to look up existing products: %w", err)
	}
	present := existingIDs(existing)

	var summary SummaryDto
	latest := make(map[int64]store.Product, len(ids))
	for _, p := range products {
		if _, ok := present[p.ID]; ok {
			summary.Updated++
		} else {
			summary.Created++
			present[p.ID] = store.Product{}
		}
		latest[p.ID] = toProduct(p)
	}
	summary.Total = len(products)

	toWrite := make([]store.Product, 0, len(ids))
	for _, id := range ids {
		toWrite = append(toWrite, latest[id])
	}
	if err := s.repository.Upsert(ctx, toWrite); err != nil {
		return nil, fmt.Errorf("failed to upsert products: %w", err)
	}
	s.logger.InfoContext(ctx, "Products upserted", "created", summary.Created, "updated", summary.Updated)
	s.publish(ctx, events.ProductsUpserted, ids, summary)
	return &BulkResult{Summary: summary, Items: products}, nil
}

// Patch merges each item onto the stored product with the same id.
// A repeated id merges onto the result of its previous occurrence.
func (s *Service) Patch(ctx context.Context, patches []ProductDto) (*PatchResult, error) {
	if len(patches) == 0 {
		return nil, fmt.Errorf("nothing to patch: %w", errors.ErrInvalidInput)
	}
	ids := distinctIDs(patches)
	existing, err := s.repository.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to look up existing products: %w", err)
	}
	merged := existingIDs(existing)

	var summary SummaryDto
	for _, patch := range patches {
		current, ok := merged[patch.ID]
		if !ok {
			merged[patch.ID] = toProduct(patch)
			summary.Created++
			continue
		}
		merge(&current, toProduct(patch))
		merged[patch.ID] = current
		summary.Updated++
	}
	summary.Total = len(patches)

	toWrite := make([]store.Product, 0, len(ids))
	for _, id := range ids {
		toWrite = append(toWrite, merged[id])
	}
	if err := s.repository.Upsert(ctx, toWrite); err != nil {
		return nil, fmt.Errorf("failed to patch products: %w", err)
	}
	s.logger.InfoContext(ctx, "Products patched", "created", summary.Created, "updated", summary.Updated)
	s.publish(ctx, events.ProductsPatched, ids, summary)
	return &PatchResult{Summary: summary, Items: toDtos(toWrite)}, nil
}

// DeleteByID deletes a product by its ID.
func (s *Service) DeleteByID(ctx context.Context, id int64) error {
	if err := s.repository.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("failed to delete product %d: %w", id, err)
	}
	s.logger.InfoContext(ctx, "Product deleted", "id", id)
	s.publish(ctx, events.ProductsDeleted, []int64{id}, SummaryDto{Total: 1})
	return nil
}

func (s *Service) CheckAvailability(ctx context.Context, id int64, count int32) (*AvailabilityDto, error) {
	if count <= 0 {
		return nil, fmt.Errorf("count %d must be positive: %w", count, errors.ErrInvalidInput)
	}
	product, err := s.repository.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch product by ID %d: %w", id, err)
	}
	var quantity int32
	if product.Quantity != nil {
		quantity = *product.Quantity
	}
	return &AvailabilityDto{
		ID:                id,
		Requested:         count,
		Available:         product.Quantity != nil && quantity >= count,
		AvailableQuantity: quantity,
	}, nil
}

// publish emits a change event. Failures are logged and never returned.
func (s *Service) publish(ctx context.Context, action events.ProductAction, ids []int64, summary SummaryDto) {
	if s.publisher == nil {
		return
	}
	event := events.ProductsChangedEvent{
		Action:     action,
		IDs:        ids,
		Created:    summary.Created,
		Updated:    summary.Updated,
		OccurredAt: s.now().UTC(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish product event", "subject", event.Subject(), "error", err)
	}
}

func productIDs(products []store.Product) []int64 {
	ids := make([]int64, len(products))
	for i, p := range products {
		ids[i] = p.ID
	}
	return ids
}
