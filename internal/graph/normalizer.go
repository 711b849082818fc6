package graph

import (
	"encoding/json"
	"fmt"

	"github.com/fivetwenty-io/delivery-client/pkg/cda"
)

// Source records where a descriptor came from.
type Source int

const (
	SourcePrimary Source = iota
	SourceIncluded
	SourceFetched
	SourceProjected
)

// Descriptor is one normalized resource: identity, metadata and field values
// with links replaced by Placeholders.
type Descriptor struct {
	Identity cda.Identity
	Sys      cda.Sys
	// Fields maps field names to values. When Localized is set, every value
	// is itself a map keyed by locale code.
	Fields    map[string]any
	Localized bool
	Source    Source
	// Position is the index among the envelope's primary items, or -1.
	Position int
	// Body is the original document, used to decode content types and spaces.
	Body json.RawMessage
}

// Options scope normalization to a session and a request.
type Options struct {
	Space         string
	Environment   string
	Locale        string
	DefaultLocale string
}

// Table is a normalized response: descriptors keyed by identity, the primary
// items in response order, and the links the API reported as unresolvable.
type Table struct {
	descriptors  map[cda.Identity]*Descriptor
	primary      []*Descriptor
	unresolvable map[Placeholder]struct{}

	Total int
	Skip  int
	Limit int
}

func newTable() *Table {
	return &Table{
		descriptors:  make(map[cda.Identity]*Descriptor),
		unresolvable: make(map[Placeholder]struct{}),
	}
}

// NewTable returns a table holding the given descriptors as primary items.
func NewTable(descriptors ...*Descriptor) *Table {
	table := newTable()

	for _, descriptor := range descriptors {
		if _, ok := table.descriptors[descriptor.Identity]; ok {
			continue
		}

		table.descriptors[descriptor.Identity] = descriptor
		table.primary = append(table.primary, descriptor)
	}

	table.Total = len(table.primary)

	return table
}

// Lookup returns the descriptor for identity.
func (t *Table) Lookup(identity cda.Identity) (*Descriptor, bool) {
	descriptor, ok := t.descriptors[identity]

	return descriptor, ok
}

// Primary returns the primary items in response order.
func (t *Table) Primary() []*Descriptor {
	return t.primary
}

// Len returns the number of distinct descriptors, includes counted.
func (t *Table) Len() int {
	return len(t.descriptors)
}

// IsUnresolvable reports whether the response declared the link target missing.
func (t *Table) IsUnresolvable(placeholder Placeholder) bool {
	_, ok := t.unresolvable[placeholder]

	return ok
}

// Normalize flattens a collection envelope into a Table.
//
// Items and includes are deduplicated by identity; a primary item wins over
// an include of the same identity. Structural problems (an envelope that is
// not an Array, resources without sys.id or sys.type, unknown resource types)
// fail the whole envelope with a *cda.MalformedResponseError.
func Normalize(envelope *cda.Envelope, opts Options) (*Table, error) {
	if envelope == nil {
		return nil, &cda.MalformedResponseError{Reason: "empty response"}
	}

	if envelope.Sys.Type != string(cda.TypeArray) {
		return nil, &cda.MalformedResponseError{
			Path:   "sys.type",
			Reason: fmt.Sprintf("expected %q, got %q", cda.TypeArray, envelope.Sys.Type),
		}
	}

	table := newTable()
	table.Total = envelope.Total
	table.Skip = envelope.Skip
	table.Limit = envelope.Limit

	for i := range envelope.Items {
		descriptor, err := describe(&envelope.Items[i], opts, fmt.Sprintf("items[%d]", i), "")
		if err != nil {
			return nil, err
		}

		if _, ok := table.descriptors[descriptor.Identity]; ok {
			continue
		}

		descriptor.Source = SourcePrimary
		descriptor.Position = len(table.primary)
		table.descriptors[descriptor.Identity] = descriptor
		table.primary = append(table.primary, descriptor)
	}

	includes := []struct {
		resourceType cda.ResourceType
		resources    []cda.RawResource
	}{
		{cda.TypeEntry, envelope.Includes.Entry},
		{cda.TypeAsset, envelope.Includes.Asset},
	}

	for _, group := range includes {
		for i := range group.resources {
			path := fmt.Sprintf("includes.%s[%d]", group.resourceType, i)

			descriptor, err := describe(&group.resources[i], opts, path, group.resourceType)
			if err != nil {
				return nil, err
			}

			if _, ok := table.descriptors[descriptor.Identity]; ok {
				continue
			}

			descriptor.Source = SourceIncluded
			descriptor.Position = -1
			table.descriptors[descriptor.Identity] = descriptor
		}
	}

	for _, apiErr := range envelope.Errors {
		if apiErr.Sys.ID != cda.ErrorIDNotResolvable {
			continue
		}

		placeholder := Placeholder{Type: cda.ResourceType(apiErr.Details.LinkType), ID: apiErr.Details.ID}
		if placeholder.ID != "" && placeholder.Type.IsResource() {
			table.unresolvable[placeholder] = struct{}{}
		}
	}

	return table, nil
}

// NormalizeResource normalizes a single fetched resource.
func NormalizeResource(raw *cda.RawResource, opts Options) (*Descriptor, error) {
	if raw == nil {
		return nil, &cda.MalformedResponseError{Reason: "empty response"}
	}

	descriptor, err := describe(raw, opts, "", "")
	if err != nil {
		return nil, err
	}

	descriptor.Source = SourceFetched
	descriptor.Position = -1

	return descriptor, nil
}

func describe(raw *cda.RawResource, opts Options, path string, want cda.ResourceType) (*Descriptor, error) {
	if raw.Sys.ID == "" {
		return nil, &cda.MalformedResponseError{Path: joinPath(path, "sys.id"), Reason: "missing"}
	}

	if raw.Sys.Type == "" {
		return nil, &cda.MalformedResponseError{Path: joinPath(path, "sys.type"), Reason: "missing"}
	}

	resourceType := cda.ResourceType(raw.Sys.Type)
	if !resourceType.IsResource() {
		return nil, &cda.MalformedResponseError{
			Path:   joinPath(path, "sys.type"),
			Reason: fmt.Sprintf("unsupported resource type %q", raw.Sys.Type),
		}
	}

	if want != "" && resourceType != want {
		return nil, &cda.MalformedResponseError{
			Path:   joinPath(path, "sys.type"),
			Reason: fmt.Sprintf("expected %q, got %q", want, raw.Sys.Type),
		}
	}

	identity := cda.Identity{
		Space:       opts.Space,
		Environment: opts.Environment,
		Type:        resourceType,
		ID:          raw.Sys.ID,
	}

	if raw.Sys.Space != nil && raw.Sys.Space.Sys.ID != "" {
		identity.Space = raw.Sys.Space.Sys.ID
	}

	if raw.Sys.Environment != nil && raw.Sys.Environment.Sys.ID != "" {
		identity.Environment = raw.Sys.Environment.Sys.ID
	}

	if resourceType.IsLocalized() {
		identity.Locale = identityLocale(raw.Sys.Locale, opts)
	}

	descriptor := &Descriptor{
		Identity:  identity,
		Sys:       raw.Sys,
		Fields:    make(map[string]any, len(raw.Fields)),
		Localized: identity.Locale == cda.LocaleAll,
		Body:      raw.Body,
	}

	for name, value := range raw.Fields {
		descriptor.Fields[name] = replaceLinks(value)
	}

	return descriptor, nil
}

// identityLocale picks the locale a resource is registered under: all
// locales when they were requested, else the locale the API reports, else
// the requested locale, else the session default.
func identityLocale(itemLocale string, opts Options) string {
	switch {
	case opts.Locale == cda.LocaleAll:
		return cda.LocaleAll
	case itemLocale != "":
		return itemLocale
	case opts.Locale != "":
		return opts.Locale
	default:
		return opts.DefaultLocale
	}
}

func joinPath(prefix, field string) string {
	if prefix == "" {
		return field
	}

	return prefix + "." + field
}
