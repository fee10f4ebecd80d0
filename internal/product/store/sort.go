package store

import (
	"cmp"
	"slices"
)

// SortByPrice orders products in place the way FindAllSortedByPrice promises.
// Equal prices are ordered by id in the same direction, so DESC is exactly ASC reversed.
func SortByPrice(products []Product, order SortOrder) {
	slices.SortFunc(products, func(a, b Product) int {
		if c := comparePrice(a, b, order); c != 0 {
			return c
		}
		if order == Descending {
			return cmp.Compare(b.ID, a.ID)
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

func comparePrice(a, b Product, order SortOrder) int {
	switch {
	case a.Price == nil && b.Price == nil:
		return 0
	case a.Price == nil:
		if order == Descending {
			return 1
		}
		return -1
	case b.Price == nil:
		if order == Descending {
			return -1
		}
		return 1
	}
	c := a.Price.Cmp(*b.Price)
	if order == Descending {
		return -c
	}
	return c
}

// SortByID orders products by ascending id.
func SortByID(products []Product) {
	slices.SortFunc(products, func(a, b Product) int {
		return cmp.Compare(a.ID, b.ID)
	})
}
