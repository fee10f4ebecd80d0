package events

import (
	"encoding/json"
	"time"

	"github.com/abgdnv/product-catalog/pkg/messaging"
)

// ProductAction names the write that produced a ProductsChangedEvent.
type ProductAction string

const (
	ProductsCreated  ProductAction = "created"
	ProductsUpserted ProductAction = "upserted"
	ProductsPatched  ProductAction = "patched"
	ProductsDeleted  ProductAction = "deleted"
)

// ProductsChangedEvent is published after a successful write to the catalog.
type ProductsChangedEvent struct {
	Action     ProductAction `json:"action"`
	IDs        []int64       `json:"ids"`
	Created    int           `json:"created"`
	Updated    int           `json:"updated"`
	OccurredAt time.Time     `json:"occurred_at"`
}

func (e ProductsChangedEvent) Subject() string {
	return messaging.ProductsSubjectPrefix + "." + string(e.Action)
}

func (e ProductsChangedEvent) Payload() ([]byte, error) {
	return json.Marshal(e)
}
