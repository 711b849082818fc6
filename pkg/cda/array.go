package cda

import (
	"encoding/json"
	"fmt"
	"iter"
)

// ItemError records a collection item that could not be materialized. The
// rest of the collection is unaffected.
type ItemError struct {
	Index    int
	Identity Identity
	Err      error
}

// Error implements the error interface.
func (e ItemError) Error() string {
	return fmt.Sprintf("item %d (%s): %v", e.Index, e.Identity, e.Err)
}

// Unwrap returns the underlying error.
func (e ItemError) Unwrap() error {
	return e.Err
}

// ResourceArray is an immutable page of materialized resources in the order
// the API returned them, with the page's pagination metadata.
type ResourceArray[T Resource] struct {
	items  []T
	total  int
	skip   int
	limit  int
	errors []ItemError
}

// NewResourceArray builds a ResourceArray. The items slice is copied.
func NewResourceArray[T Resource](items []T, total, skip, limit int, errs ...ItemError) *ResourceArray[T] {
	return &ResourceArray[T]{
		items:  append([]T(nil), items...),
		total:  total,
		skip:   skip,
		limit:  limit,
		errors: append([]ItemError(nil), errs...),
	}
}

// Len returns the number of items on this page.
func (a *ResourceArray[T]) Len() int {
	return len(a.items)
}

// At returns the item at index i.
func (a *ResourceArray[T]) At(i int) (T, error) {
	if i < 0 || i >= len(a.items) {
		var zero T

		return zero, fmt.Errorf("%w: %d (length %d)", ErrOutOfRange, i, len(a.items))
	}

	return a.items[i], nil
}

// Items returns a copy of the items.
func (a *ResourceArray[T]) Items() []T {
	return append([]T(nil), a.items...)
}

// All iterates over index and item pairs in order.
func (a *ResourceArray[T]) All() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		for i, item := range a.items {
			if !yield(i, item) {
				return
			}
		}
	}
}

// Total returns the total number of matches across all pages.
func (a *ResourceArray[T]) Total() int {
	return a.total
}

// Skip returns the offset of this page.
func (a *ResourceArray[T]) Skip() int {
	return a.skip
}

// Limit returns the page size that was applied.
func (a *ResourceArray[T]) Limit() int {
	return a.limit
}

// Errors returns the items that failed to materialize.
func (a *ResourceArray[T]) Errors() []ItemError {
	return append([]ItemError(nil), a.errors...)
}

// MarshalJSON renders the page in the API's collection shape.
func (a *ResourceArray[T]) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(struct {
		Sys   Sys `json:"sys"`
		Total int `json:"total"`
		Skip  int `json:"skip"`
		Limit int `json:"limit"`
		Items []T `json:"items"`
	}{
		Sys:   Sys{Type: string(TypeArray)},
		Total: a.total,
		Skip:  a.skip,
		Limit: a.limit,
		Items: a.items,
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling resource array: %w", err)
	}

	return data, nil
}
