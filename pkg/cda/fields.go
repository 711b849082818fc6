package cda

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
)

// fieldSet holds the identity and field values shared by entries and assets.
//
// For an all-locales resource every field value is a map keyed by locale code.
// For a single-locale resource values are stored as they are.
type fieldSet struct {
	identity      Identity
	sys           Sys
	fields        map[string]any
	defaultLocale string
}

// ResourceOption configures a materialized entry or asset.
type ResourceOption func(*resourceOptions)

type resourceOptions struct {
	defaultLocale string
	contentType   *Link
}

// WithDefaultLocale sets the locale used when an all-locales resource is read
// without naming a locale, and as the fallback for missing locale values.
func WithDefaultLocale(locale string) ResourceOption {
	return func(o *resourceOptions) {
		o.defaultLocale = locale
	}
}

// WithContentTypeLink sets the link to the entry's content type.
func WithContentTypeLink(link *Link) ResourceOption {
	return func(o *resourceOptions) {
		o.contentType = link
	}
}

func newFieldSet(identity Identity, sys Sys, fields map[string]any, opts *resourceOptions) fieldSet {
	if fields == nil {
		fields = make(map[string]any)
	}

	return fieldSet{
		identity:      identity,
		sys:           sys,
		fields:        fields,
		defaultLocale: opts.defaultLocale,
	}
}

// ID returns sys.id.
func (f *fieldSet) ID() string {
	return f.identity.ID
}

// Identity implements Resource.
func (f *fieldSet) Identity() Identity {
	return f.identity
}

// Sys implements Resource.
func (f *fieldSet) Sys() Sys {
	return f.sys
}

// Locale returns the locale this object was materialized for, LocaleAll included.
func (f *fieldSet) Locale() string {
	return f.identity.Locale
}

// IsLocalized reports whether the object exposes all locale variants.
func (f *fieldSet) IsLocalized() bool {
	return f.identity.Locale == LocaleAll
}

// FieldNames returns the names of all fields present, sorted.
func (f *fieldSet) FieldNames() []string {
	return slices.Sorted(maps.Keys(f.fields))
}

// Field returns a field value. All-locales objects answer in their default locale.
func (f *fieldSet) Field(name string) (any, bool) {
	value, err := f.FieldIn(name, "")
	if err != nil {
		return nil, false
	}

	return value, true
}

// FieldIn returns a field value for a locale. An empty locale means the
// object's own locale (or the default locale for all-locales objects).
//
// On an all-locales object a missing locale value falls back to the default
// locale. Without a configured default locale the lookup fails with
// LocaleNotFoundError. With a default locale that has no value either, the
// field is absent and ErrFieldNotFound is returned.
func (f *fieldSet) FieldIn(name, locale string) (any, error) {
	raw, ok := f.fields[name]
	if !ok {
		return nil, fmt.Errorf("%s: %w: %s", f.identity, ErrFieldNotFound, name)
	}

	if !f.IsLocalized() {
		if locale == "" || locale == f.identity.Locale {
			return raw, nil
		}

		return nil, &LocaleNotFoundError{Identity: f.identity, Field: name, Locale: locale}
	}

	variants, _ := raw.(map[string]any)

	if locale == "" {
		locale = f.defaultLocale
	}

	if value, ok := variants[locale]; ok {
		return value, nil
	}

	if f.defaultLocale == "" {
		return nil, &LocaleNotFoundError{Identity: f.identity, Field: name, Locale: locale}
	}

	if value, ok := variants[f.defaultLocale]; ok {
		return value, nil
	}

	return nil, fmt.Errorf("%s: %w: %s (locale %s)", f.identity, ErrFieldNotFound, name, locale)
}

// String returns a text field, or "" when the field is absent or not text.
func (f *fieldSet) String(name string) string {
	value, _ := f.Field(name)
	text, _ := value.(string)

	return text
}

// Link returns the link stored in a field without resolving it.
func (f *fieldSet) Link(name string) (*Link, error) {
	value, err := f.FieldIn(name, "")
	if err != nil {
		return nil, err
	}

	link, ok := value.(*Link)
	if !ok {
		return nil, fmt.Errorf("%s field %q: %w", f.identity, name, ErrNotALink)
	}

	return link, nil
}

// Links returns the links stored in an array field without resolving them.
func (f *fieldSet) Links(name string) ([]*Link, error) {
	value, err := f.FieldIn(name, "")
	if err != nil {
		return nil, err
	}

	values, ok := value.([]any)
	if !ok {
		return nil, fmt.Errorf("%s field %q: %w", f.identity, name, ErrNotALink)
	}

	links := make([]*Link, 0, len(values))

	for _, item := range values {
		link, ok := item.(*Link)
		if !ok {
			return nil, fmt.Errorf("%s field %q: %w", f.identity, name, ErrNotALink)
		}

		links = append(links, link)
	}

	return links, nil
}

// Entry resolves a link field to an entry. This may fetch the target.
func (f *fieldSet) Entry(ctx context.Context, name string) (*Entry, error) {
	link, err := f.Link(name)
	if err != nil {
		return nil, err
	}

	return resolveAs[*Entry](ctx, link)
}

// Entries resolves an array of links to entries. Links whose targets do not
// exist are skipped; any other failure aborts. This may fetch targets.
func (f *fieldSet) Entries(ctx context.Context, name string) ([]*Entry, error) {
	links, err := f.Links(name)
	if err != nil {
		return nil, err
	}

	entries := make([]*Entry, 0, len(links))

	for _, link := range links {
		entry, err := resolveAs[*Entry](ctx, link)
		if err != nil {
			if IsNotFound(err) {
				continue
			}

			return nil, err
		}

		entries = append(entries, entry)
	}

	return entries, nil
}

// Asset resolves a link field to an asset. This may fetch the target.
func (f *fieldSet) Asset(ctx context.Context, name string) (*Asset, error) {
	link, err := f.Link(name)
	if err != nil {
		return nil, err
	}

	return resolveAs[*Asset](ctx, link)
}

func (f *fieldSet) marshal() ([]byte, error) {
	data, err := json.Marshal(struct {
		Sys    Sys            `json:"sys"`
		Fields map[string]any `json:"fields"`
	}{Sys: f.sys, Fields: f.fields})
	if err != nil {
		return nil, fmt.Errorf("marshaling %s: %w", f.identity, err)
	}

	return data, nil
}

func resolveAs[T Resource](ctx context.Context, link *Link) (T, error) {
	var zero T

	resource, err := link.Resolve(ctx)
	if err != nil {
		return zero, err
	}

	typed, ok := resource.(T)
	if !ok {
		return zero, fmt.Errorf("link to %s: %w", link.Target(), ErrUnexpectedLinkType)
	}

	return typed, nil
}
