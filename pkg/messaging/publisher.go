// Package messaging defines the events the service emits and the publisher abstraction.
package messaging

import (
	"context"
)

const (
	// ProductsSubjectPrefix is shared by every product change subject.
	ProductsSubjectPrefix = "products"
	// ProductsSubjectWildcard matches all product change subjects.
	ProductsSubjectWildcard = ProductsSubjectPrefix + ".>"
)

type Event interface {
	Subject() string
	Payload() ([]byte, error)
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}
