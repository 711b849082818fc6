package cda

import (
	"fmt"
	"time"
)

// ResourceType names the kind of a delivery API resource as reported in sys.type.
type ResourceType string

const (
	TypeEntry       ResourceType = "Entry"
	TypeAsset       ResourceType = "Asset"
	TypeContentType ResourceType = "ContentType"
	TypeSpace       ResourceType = "Space"

	// Envelope and placeholder types. These never identify a resource.
	TypeArray ResourceType = "Array"
	TypeLink  ResourceType = "Link"
	TypeError ResourceType = "Error"
)

// LocaleAll requests every locale variant of a resource at once.
const LocaleAll = "*"

// IsLocalized reports whether resources of this type carry per-locale field values.
func (t ResourceType) IsLocalized() bool {
	return t == TypeEntry || t == TypeAsset
}

// IsResource reports whether the type identifies an addressable resource.
func (t ResourceType) IsResource() bool {
	switch t {
	case TypeEntry, TypeAsset, TypeContentType, TypeSpace:
		return true
	default:
		return false
	}
}

// Identity is the registry key of a resource within one client session.
//
// Space and Environment scope the identity so that clients for different spaces
// never share instances. Locale is a locale code, LocaleAll, or empty for types
// that are not localized (content types, spaces).
type Identity struct {
	Space       string
	Environment string
	Type        ResourceType
	ID          string
	Locale      string
}

// WithLocale returns a copy of the identity for another locale variant.
func (i Identity) WithLocale(locale string) Identity {
	i.Locale = locale
	return i
}

// SameScope reports whether both identities belong to the same space and environment.
func (i Identity) SameScope(other Identity) bool {
	return i.Space == other.Space && i.Environment == other.Environment
}

// Key returns a stable string form, suitable for deduplication keys and logs.
func (i Identity) Key() string {
	return fmt.Sprintf("%s/%s/%s/%s@%s", i.Space, i.Environment, i.Type, i.ID, i.Locale)
}

// String implements fmt.Stringer.
func (i Identity) String() string {
	if i.Locale == "" {
		return fmt.Sprintf("%s %q", i.Type, i.ID)
	}

	return fmt.Sprintf("%s %q (locale %s)", i.Type, i.ID, i.Locale)
}

// Sys is the system metadata block every delivery API object carries.
type Sys struct {
	ID          string     `json:"id,omitempty"          yaml:"id,omitempty"`
	Type        string     `json:"type,omitempty"        yaml:"type,omitempty"`
	LinkType    string     `json:"linkType,omitempty"    yaml:"linkType,omitempty"`
	Locale      string     `json:"locale,omitempty"      yaml:"locale,omitempty"`
	Revision    int        `json:"revision,omitempty"    yaml:"revision,omitempty"`
	CreatedAt   *time.Time `json:"createdAt,omitempty"   yaml:"createdAt,omitempty"`
	UpdatedAt   *time.Time `json:"updatedAt,omitempty"   yaml:"updatedAt,omitempty"`
	Space       *LinkRef   `json:"space,omitempty"       yaml:"space,omitempty"`
	Environment *LinkRef   `json:"environment,omitempty" yaml:"environment,omitempty"`
	ContentType *LinkRef   `json:"contentType,omitempty" yaml:"contentType,omitempty"`
}

// LinkRef is the wire form of a link: an object holding only a sys block.
type LinkRef struct {
	Sys Sys `json:"sys" yaml:"sys"`
}

// NewLinkRef returns the wire form of a link to the given type and id.
func NewLinkRef(linkType ResourceType, id string) *LinkRef {
	return &LinkRef{Sys: Sys{Type: string(TypeLink), LinkType: string(linkType), ID: id}}
}

// Resource is implemented by every materialized object a session hands out.
type Resource interface {
	Identity() Identity
	Sys() Sys
}
