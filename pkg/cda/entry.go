package cda

import (
	"context"
	"fmt"
)

// Entry is a materialized content entry.
//
// Field values are scalars, nested maps and slices as decoded from JSON, with
// every link replaced by a *Link. Entries are immutable once handed out; only
// their links change state as they are resolved.
type Entry struct {
	fieldSet

	contentType *Link
}

// NewEntry builds an entry. Sessions call this while materializing responses;
// the fields map is owned by the entry afterwards.
func NewEntry(identity Identity, sys Sys, fields map[string]any, opts ...ResourceOption) *Entry {
	options := &resourceOptions{}
	for _, opt := range opts {
		opt(options)
	}

	return &Entry{
		fieldSet:    newFieldSet(identity, sys, fields, options),
		contentType: options.contentType,
	}
}

// ContentTypeID returns the id of the entry's content type, or "".
func (e *Entry) ContentTypeID() string {
	if e.sys.ContentType == nil {
		return ""
	}

	return e.sys.ContentType.Sys.ID
}

// ContentType resolves the entry's content type. This may fetch it.
func (e *Entry) ContentType(ctx context.Context) (*ContentType, error) {
	if e.contentType == nil {
		return nil, fmt.Errorf("%s content type: %w", e.identity, ErrFieldNotFound)
	}

	return resolveAs[*ContentType](ctx, e.contentType)
}

// MarshalJSON renders the entry with links in their wire form.
func (e *Entry) MarshalJSON() ([]byte, error) {
	return e.marshal()
}
