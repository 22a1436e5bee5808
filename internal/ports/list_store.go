package ports

import (
	"context"
	"errors"
)

var ErrItemNotFound = errors.New("list item not found")

// FieldMap is one list record as the remote store returns it: internal field
// names mapped to raw values. Typed row mapping happens in the usecase layer.
type FieldMap map[string]any

// ItemUpdate is one pending write against a list item.
type ItemUpdate struct {
	ID     int
	Fields FieldMap
}

// ListStore abstracts the remote list-based backend.
//
// LoadList reads are retried by the adapter; an error after exhaustion means
// "store unavailable", never "no data exists". UpdateBatch attempts every
// update on a bounded worker pool and reports how many succeeded; per-item
// failures are tallied, not raised.
type ListStore interface {
	LoadList(ctx context.Context, name string, limit int) ([]FieldMap, error)
	UpdateItem(ctx context.Context, id int, fields FieldMap) error
	UpdateBatch(ctx context.Context, listName string, updates []ItemUpdate) (int, error)
}
