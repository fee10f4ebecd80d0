package service

import (
	"github.com/abgdnv/product-catalog/internal/product/store"
	"github.com/shopspring/decimal"
)

func init() {
	// prices travel as JSON numbers, not strings
	decimal.MarshalJSONWithoutQuotes = true
}

// ProductDto represents the data transfer object for a product.
// Absent optional fields are encoded as null.
type ProductDto struct {
	ID          int64            `json:"id"          validate:"required"`
	Name        *string          `json:"name"        validate:"required"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"       validate:"required"`
	Quantity    *int32           `json:"quantity"    validate:"required"`
}

// ProductPatchDto is the body of a merge-patch. Every field is optional.
type ProductPatchDto struct {
	ID          *int64           `json:"id"`
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Quantity    *int32           `json:"quantity"`
}

// ToProductDto binds the patch to id.
func (p ProductPatchDto) ToProductDto(id int64) ProductDto {
	return ProductDto{
		ID:          id,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Quantity:    p.Quantity,
	}
}

// SummaryDto counts the outcome of a bulk write.
type SummaryDto struct {
	Created    int `json:"created"`
	Updated    int `json:"updated"`
	Duplicates int `json:"duplicates"`
	Total      int `json:"total"`
}

// BulkResult is returned by Create and Upsert. Items echo the request.
type BulkResult struct {
	Summary SummaryDto   `json:"summary"`
	Items   []ProductDto `json:"items"`
}

// PatchResult holds the stored state of every patched id, in request order.
type PatchResult struct {
	Summary SummaryDto
	Items   []ProductDto
}

// AvailabilityDto answers whether count units of a product can be served.
type AvailabilityDto struct {
	ID                int64 `json:"id"`
	Requested         int32 `json:"requested"`
	Available         bool  `json:"available"`
	AvailableQuantity int32 `json:"availableQuantity"`
}

func toDto(p store.Product) ProductDto {
	return ProductDto{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Quantity:    p.Quantity,
	}
}

func toDtos(products []store.Product) []ProductDto {
	dtos := make([]ProductDto, len(products))
	for i, p := range products {
		dtos[i] = toDto(p)
	}
	return dtos
}

func toProduct(d ProductDto) store.Product {
	return store.Product{
		ID:          d.ID,
		Name:        d.Name,
		Description: d.Description,
		Price:       d.Price,
		Quantity:    d.Quantity,
	}
}
