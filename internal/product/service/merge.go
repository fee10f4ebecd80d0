package service

import "github.com/abgdnv/product-catalog/internal/product/store"

// merge copies every non-nil field of patch onto target.
func merge(target *store.Product, patch store.Product) {
	if patch.Name != nil {
		target.Name = patch.Name
	}
	if patch.Description != nil {
		target.Description = patch.Description
	}
	if patch.Price != nil {
		target.Price = patch.Price
	}
	if patch.Quantity != nil {
		target.Quantity = patch.Quantity
	}
}

func distinctIDs(products []ProductDto) []int64 {
	seen := make(map[int64]struct{}, len(products))
	ids := make([]int64, 0, len(products))
	for _, p := range products {
		if _, ok := seen[p.ID]; ok {
			continue
		}
		seen[p.ID] = struct{}{}
		ids = append(ids, p.ID)
	}
	return ids
}

func existingIDs(products []store.Product) map[int64]store.Product {
	byID := make(map[int64]store.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	return byID
}
