// Package errors provides custom error types for product-related operations.
package errors

import "errors"

var (
	// ErrProductNotFound is returned when no product exists with the requested id.
	ErrProductNotFound = errors.New("product not found")
	// ErrInvalidInput marks a request the caller has to fix before retrying.
	ErrInvalidInput = errors.New("invalid input")
	// ErrProductExists is returned by inserts that hit an id stored in the meantime.
	ErrProductExists = errors.New("product already exists")
)
