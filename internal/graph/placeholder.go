package graph

import (
	"github.com/fivetwenty-io/delivery-client/pkg/cda"
)

// Placeholder stands in for a link found in a payload until the resolver
// replaces it. It never holds the target's data.
type Placeholder struct {
	Type cda.ResourceType
	ID   string
}

// Target returns the identity the placeholder points at when it appears in
// a resource with the given owner identity. Links inherit the owner's scope
// and locale; non-localized targets have no locale.
func (p Placeholder) Target(owner cda.Identity) cda.Identity {
	target := cda.Identity{
		Space:       owner.Space,
		Environment: owner.Environment,
		Type:        p.Type,
		ID:          p.ID,
	}

	if p.Type.IsLocalized() {
		target.Locale = owner.Locale
	}

	return target
}

// placeholderFrom reports whether value is a link object and returns its
// placeholder.
func placeholderFrom(value map[string]any) (Placeholder, bool) {
	sys, ok := value["sys"].(map[string]any)
	if !ok {
		return Placeholder{}, false
	}

	if kind, _ := sys["type"].(string); kind != string(cda.TypeLink) {
		return Placeholder{}, false
	}

	linkType, _ := sys["linkType"].(string)
	id, _ := sys["id"].(string)

	if id == "" || !cda.ResourceType(linkType).IsResource() {
		return Placeholder{}, false
	}

	return Placeholder{Type: cda.ResourceType(linkType), ID: id}, true
}

// replaceLinks returns a copy of value with every link object, at any depth,
// replaced by a Placeholder.
func replaceLinks(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		if placeholder, ok := placeholderFrom(typed); ok {
			return placeholder
		}

		out := make(map[string]any, len(typed))
		for key, item := range typed {
			out[key] = replaceLinks(item)
		}

		return out
	case []any:
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = replaceLinks(item)
		}

		return out
	default:
		return value
	}
}
