package graph

import (
	"context"
	"errors"

	"github.com/fivetwenty-io/delivery-client/internal/registry"
	"github.com/fivetwenty-io/delivery-client/pkg/cda"
)

// LinkResolver turns placeholders into links while a resource is built.
type LinkResolver struct {
	registry     *registry.Registry
	loader       cda.LinkLoader
	materializer *Materializer
	logger       cda.Logger
}

// Resolve returns the link for placeholder as seen from owner.
//
// Targets the response reported missing become unresolvable links. Targets
// present in the table are materialized now; if the target is still being
// built further up the stack (a cycle) the link is left pending and later
// served from the registry. Registered targets are linked directly.
// Everything else is loaded on first dereference.
func (r *LinkResolver) Resolve(ctx context.Context, table *Table, owner cda.Identity, placeholder Placeholder) *cda.Link {
	target := placeholder.Target(owner)

	if table.IsUnresolvable(placeholder) {
		return cda.NewUnresolvableLink(target)
	}

	if descriptor, ok := table.Lookup(target); ok {
		resource, err := r.materializer.Materialize(ctx, table, descriptor)

		switch {
		case err == nil:
			return cda.NewResolvedLink(target, resource)
		case errors.Is(err, registry.ErrInProgress):
			r.logger.Debug("Link target in progress", map[string]interface{}{
				"owner":  owner.Key(),
				"target": target.Key(),
				"depth":  len(registry.BuildChain(ctx)),
			})

			return cda.NewPendingLink(target, r.loader)
		default:
			r.logger.Warn("Link target could not be built, falling back to lazy loading", map[string]interface{}{
				"owner":  owner.Key(),
				"target": target.Key(),
				"error":  err.Error(),
			})

			return cda.NewLazyLink(target, r.loader)
		}
	}

	if resource, ok := r.registry.Lookup(target); ok {
		return cda.NewResolvedLink(target, resource)
	}

	return cda.NewLazyLink(target, r.loader)
}

// resolveValue returns a copy of value with every Placeholder replaced by a link.
func (r *LinkResolver) resolveValue(ctx context.Context, table *Table, owner cda.Identity, value any) any {
	switch typed := value.(type) {
	case Placeholder:
		return r.Resolve(ctx, table, owner, typed)
	case map[string]any:
		out := make(map[string]any, len(typed))
		for key, item := range typed {
			out[key] = r.resolveValue(ctx, table, owner, item)
		}

		return out
	case []any:
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = r.resolveValue(ctx, table, owner, item)
		}

		return out
	default:
		return value
	}
}

// resolveFields resolves every field of a descriptor.
func (r *LinkResolver) resolveFields(ctx context.Context, table *Table, descriptor *Descriptor) map[string]any {
	fields := make(map[string]any, len(descriptor.Fields))

	for name, value := range descriptor.Fields {
		fields[name] = r.resolveValue(ctx, table, descriptor.Identity, value)
	}

	return fields
}
