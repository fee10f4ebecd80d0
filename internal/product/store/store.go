// Package store provides an interface for product storage operations.
package store

import (
	"context"

	"github.com/shopspring/decimal"
)

// Product represents a product entity in the store.
// Optional attributes are pointers so that an absent value is distinguishable from a zero value.
type Product struct {
	ID          int64
	Name        *string
	Description *string
	Price       *decimal.Decimal
	Quantity    *int32
}

// SortOrder is the direction of a price ordered listing.
type SortOrder int

const (
	Ascending SortOrder = iota
	Descending
)

func (o SortOrder) String() string {
	if o == Descending {
		return "DESC"
	}
	return "ASC"
}

// ProductStore is an interface for product storage operations.
// It abstracts the underlying data store, allowing for different implementations
// (document database, CSV file, PostgreSQL, in-memory).
type ProductStore interface {
	// FindByID retrieves a single product by its unique identifier.
	// Returns ErrProductNotFound if no product exists with the given ID.
	FindByID(ctx context.Context, id int64) (*Product, error)

	// FindByIDs returns the stored products whose id is in ids, in no particular order.
	// Unknown ids are ignored.
	FindByIDs(ctx context.Context, ids []int64) ([]Product, error)

	// FindAll returns all available products.
	// Returns an empty slice if no products exist.
	FindAll(ctx context.Context) ([]Product, error)

	// FindAllSortedByPrice returns all products ordered by price.
	// Products without a price come first in ascending and last in descending order,
	// equal prices are ordered by id.
	FindAllSortedByPrice(ctx context.Context, order SortOrder) ([]Product, error)

	// Insert stores new products.
	// Returns ErrProductExists if one of the ids is already taken.
	Insert(ctx context.Context, products []Product) error

	// Upsert replaces stored products with the given ones, inserting the ids that are missing.
	Upsert(ctx context.Context, products []Product) error

	// DeleteByID removes a product by its ID.
	// Returns ErrProductNotFound if no product exists with the given ID.
	DeleteByID(ctx context.Context, id int64) error

	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error
}
