package cda

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// LinkState describes how far a Link has been resolved.
type LinkState int

const (
	// LinkLazy links point at a resource that was not part of the response
	// they came from. Resolving them fetches the target once.
	LinkLazy LinkState = iota
	// LinkResolved links already hold their target.
	LinkResolved
	// LinkPending links were created while their target was still being
	// materialized (a cycle). They resolve from the session registry.
	LinkPending
	// LinkUnresolvable links point at a target known not to exist.
	LinkUnresolvable
)

// String implements fmt.Stringer.
func (s LinkState) String() string {
	switch s {
	case LinkLazy:
		return "lazy"
	case LinkResolved:
		return "resolved"
	case LinkPending:
		return "pending"
	case LinkUnresolvable:
		return "unresolvable"
	default:
		return fmt.Sprintf("LinkState(%d)", int(s))
	}
}

// LinkLoader loads the target of a link that is not resolved yet. Sessions
// implement it; it consults the session registry before fetching.
type LinkLoader interface {
	LoadLink(ctx context.Context, target Identity) (Resource, error)
}

// Link is a field value referencing another resource.
//
// Reading a Link from a field never performs I/O. Only Resolve may call the
// network, at most once per successful resolution; the result is cached on
// the link.
type Link struct {
	target Identity
	loader LinkLoader

	mu       sync.Mutex
	state    LinkState
	resource Resource
	err      error
}

// NewResolvedLink returns a link that already holds its target.
func NewResolvedLink(target Identity, resource Resource) *Link {
	return &Link{target: target, state: LinkResolved, resource: resource}
}

// NewLazyLink returns a link whose target is loaded on first Resolve.
func NewLazyLink(target Identity, loader LinkLoader) *Link {
	return &Link{target: target, state: LinkLazy, loader: loader}
}

// NewPendingLink returns a link to a resource whose materialization is in
// progress further up the call stack.
func NewPendingLink(target Identity, loader LinkLoader) *Link {
	return &Link{target: target, state: LinkPending, loader: loader}
}

// NewUnresolvableLink returns a link whose Resolve always fails with NotFoundError.
func NewUnresolvableLink(target Identity) *Link {
	return &Link{target: target, state: LinkUnresolvable, err: &NotFoundError{Identity: target}}
}

// Target returns the identity the link points at.
func (l *Link) Target() Identity {
	return l.target
}

// State returns the current resolution state.
func (l *Link) State() LinkState {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.state
}

// Resolve returns the linked resource, loading it on first use.
//
// A NotFound outcome is cached and the link becomes unresolvable; any other
// failure is returned without changing the link so a later call can retry.
// Concurrent callers are serialized, so one link triggers at most one load.
func (l *Link) Resolve(ctx context.Context) (Resource, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	switch l.state {
	case LinkResolved:
		return l.resource, nil
	case LinkUnresolvable:
		return nil, l.err
	case LinkLazy, LinkPending:
	}

	if l.loader == nil {
		return nil, fmt.Errorf("resolving link to %s: %w", l.target, ErrNoLinkLoader)
	}

	resource, err := l.loader.LoadLink(ctx, l.target)
	if err != nil {
		if IsNotFound(err) {
			l.state = LinkUnresolvable
			l.err = &NotFoundError{Identity: l.target, Err: err}

			return nil, l.err
		}

		return nil, fmt.Errorf("resolving link to %s: %w", l.target, err)
	}

	l.state = LinkResolved
	l.resource = resource
	l.loader = nil

	return resource, nil
}

// MarshalJSON renders the link in its wire form.
func (l *Link) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(NewLinkRef(l.target.Type, l.target.ID))
	if err != nil {
		return nil, fmt.Errorf("marshaling link: %w", err)
	}

	return data, nil
}
