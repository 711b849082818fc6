package client

import (
	"context"
	"fmt"

	"github.com/fivetwenty-io/delivery-client/internal/graph"
	"github.com/fivetwenty-io/delivery-client/internal/registry"
	"github.com/fivetwenty-io/delivery-client/pkg/cda"
)

// LoadLink implements cda.LinkLoader. Registered targets and locale variants
// that can be projected from a registered all-locales object cost nothing;
// anything else is fetched once.
func (c *Client) LoadLink(ctx context.Context, target cda.Identity) (cda.Resource, error) {
	if target.Space != c.space || target.Environment != c.environment {
		return nil, fmt.Errorf("loading %s: %w", target, registry.ErrForeignIdentity)
	}

	c.metrics.recordLazyLoad()

	return c.resolve(ctx, target)
}

// resolve returns the session's object for target, fetching it if needed.
//
// The fetch is shared by every concurrent caller for target and is detached
// from their contexts; a caller whose context ends stops waiting, the fetch
// does not.
func (c *Client) resolve(ctx context.Context, target cda.Identity) (cda.Resource, error) {
	if resource, ok := c.lookup(target); ok {
		return resource, nil
	}

	if resource, ok, err := c.materializer.Project(ctx, target); ok {
		return resource, err
	}

	fetchCtx := context.WithoutCancel(ctx)

	results := c.loads.DoChan(target.Key(), func() (interface{}, error) {
		// A fetch that finished just before this call has registered the target.
		if resource, ok := c.lookup(target); ok {
			return resource, nil
		}

		return c.fetch(fetchCtx, target)
	})

	select {
	case result := <-results:
		if result.Err != nil {
			return nil, result.Err
		}

		if result.Shared {
			c.logger.Debug("Shared in-flight fetch", map[string]interface{}{"identity": target.Key()})
		}

		resource, _ := result.Val.(cda.Resource)

		return resource, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("waiting for %s: %w", target, ctx.Err())
	}
}

// lookup finds target in the registry or among the identities fetched
// resources were requested under.
func (c *Client) lookup(target cda.Identity) (cda.Resource, bool) {
	if resource, ok := c.registry.Lookup(target); ok {
		return resource, true
	}

	c.aliasMu.Lock()
	defer c.aliasMu.Unlock()

	resource, ok := c.aliases[target]

	return resource, ok
}

// fetch retrieves one resource and materializes it into the registry.
func (c *Client) fetch(ctx context.Context, target cda.Identity) (cda.Resource, error) {
	c.logger.Debug("Fetching resource", map[string]interface{}{"identity": target.Key()})
	c.metrics.recordFetch(target.Type, "resource")

	raw, err := c.fetcher.FetchResource(ctx, target.Type, target.ID, target.Locale)
	if err != nil {
		if cda.IsNotFound(err) {
			c.logger.Info("Resource not found", map[string]interface{}{"identity": target.Key()})
		}

		return nil, err
	}

	descriptor, err := graph.NormalizeResource(raw, c.normalizeOptions(target.Locale))
	if err != nil {
		return nil, err
	}

	resource, err := c.materializer.Materialize(ctx, graph.NewTable(descriptor), descriptor)
	if err != nil {
		return nil, err
	}

	// The API may answer in another locale than the one asked for.
	if resource.Identity() != target {
		c.aliasMu.Lock()
		c.aliases[target] = resource
		c.aliasMu.Unlock()
	}

	return resource, nil
}

// fetchAll retrieves one page of a collection and materializes its items in
// response order.
func (c *Client) fetchAll(ctx context.Context, resourceType cda.ResourceType, query *cda.Query) (*graph.Table, []cda.Resource, []cda.ItemError, error) {
	if query == nil {
		query = cda.NewQuery()
	} else {
		query = query.Clone()
	}

	if query.Locale == "" && resourceType.IsLocalized() {
		query.Locale = c.defaultLocale
	}

	c.metrics.recordFetch(resourceType, "collection")

	envelope, err := c.fetcher.FetchCollection(ctx, resourceType, query)
	if err != nil {
		return nil, nil, nil, err
	}

	table, err := graph.Normalize(envelope, c.normalizeOptions(query.Locale))
	if err != nil {
		return nil, nil, nil, err
	}

	resources, itemErrors := c.materializer.MaterializeAll(ctx, table)

	return table, resources, itemErrors, nil
}

// collect converts a materialized page to a typed ResourceArray. Items of an
// unexpected type are reported as item errors.
func collect[T cda.Resource](table *graph.Table, resources []cda.Resource, itemErrors []cda.ItemError) *cda.ResourceArray[T] {
	items := make([]T, 0, len(resources))

	for _, resource := range resources {
		item, ok := resource.(T)
		if !ok {
			itemErrors = append(itemErrors, cda.ItemError{
				Index:    -1,
				Identity: resource.Identity(),
				Err:      fmt.Errorf("%s: %w", resource.Identity(), cda.ErrUnexpectedLinkType),
			})

			continue
		}

		items = append(items, item)
	}

	return cda.NewResourceArray(items, table.Total, table.Skip, table.Limit, itemErrors...)
}

// resolveAs returns the object for target as T.
func resolveAs[T cda.Resource](ctx context.Context, c *Client, target cda.Identity) (T, error) {
	var zero T

	resource, err := c.resolve(ctx, target)
	if err != nil {
		return zero, err
	}

	typed, ok := resource.(T)
	if !ok {
		return zero, fmt.Errorf("%s: %w", target, cda.ErrUnexpectedLinkType)
	}

	return typed, nil
}
