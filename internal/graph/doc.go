// Package graph turns delivery API payloads into a graph of materialized
// resources.
//
// A response passes through three stages:
//
//   - Normalize flattens an envelope's items and includes into a Table of
//     Descriptors keyed by identity, replacing every link object found in
//     field values with a Placeholder.
//   - The LinkResolver turns each Placeholder into a *cda.Link: resolved when
//     the target is in the same response or already registered, pending when
//     the target is still being built further up the stack, unresolvable when
//     the envelope reported it missing, and lazy otherwise.
//   - The Materializer builds typed objects from Descriptors and registers
//     them in the session registry, which owns every instance.
//
// Nothing in this package performs network I/O. Lazy links call back into
// the session through cda.LinkLoader, and Fetcher describes the transport
// the session uses to serve them.
package graph

import (
	"context"

	"github.com/fivetwenty-io/delivery-client/pkg/cda"
)

// Fetcher retrieves raw payloads from the delivery API.
type Fetcher interface {
	// FetchResource fetches one resource. An empty locale omits the locale
	// parameter.
	FetchResource(ctx context.Context, resourceType cda.ResourceType, id, locale string) (*cda.RawResource, error)
	// FetchCollection fetches one page of a collection. The returned
	// envelope records the requested locale.
	FetchCollection(ctx context.Context, resourceType cda.ResourceType, query *cda.Query) (*cda.Envelope, error)
}
