// Package registry implements the per-session identity registry: the single
// owner of every materialized resource, keyed by cda.Identity.
package registry

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/fivetwenty-io/delivery-client/pkg/cda"
)

var (
	// ErrInProgress is returned to a builder that asks for an identity whose
	// build has not finished yet. The caller should link to it instead.
	ErrInProgress = errors.New("materialization in progress")
	// ErrForeignIdentity is returned for identities outside the registry's
	// space and environment.
	ErrForeignIdentity = errors.New("identity belongs to another space or environment")
	// ErrNilResource is returned when a builder reports success without a resource.
	ErrNilResource = errors.New("builder returned no resource")
	// ErrBuildPanicked is returned to callers that waited on a build whose
	// builder panicked.
	ErrBuildPanicked = errors.New("builder panicked")
)

// Builder constructs the resource for one identity. The context it receives
// marks the build, so nested GetOrCreate calls can detect cycles.
type Builder func(ctx context.Context) (cda.Resource, error)

// Registry maps identities to the one instance a session hands out for them.
// Entries are never evicted.
type Registry struct {
	space       string
	environment string
	metrics     *Metrics

	// mu guards resources and building; it is never held while a builder runs.
	mu        sync.Mutex
	resources map[cda.Identity]cda.Resource
	building  map[cda.Identity]*build
}

type build struct {
	done     chan struct{}
	resource cda.Resource
	err      error
}

// Option configures a Registry.
type Option func(*Registry)

// WithMetrics records registry activity in m.
func WithMetrics(m *Metrics) Option {
	return func(r *Registry) {
		r.metrics = m
	}
}

// New creates an empty registry scoped to one space and environment.
func New(space, environment string, opts ...Option) *Registry {
	r := &Registry{
		space:       space,
		environment: environment,
		resources:   make(map[cda.Identity]cda.Resource),
		building:    make(map[cda.Identity]*build),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Scope returns the space and environment the registry accepts.
func (r *Registry) Scope() (space, environment string) {
	return r.space, r.environment
}

// GetOrCreate returns the registered resource for identity, building and
// registering it first if needed.
//
// Only one build per identity runs at a time. A caller that is itself inside
// a build and asks for an identity still being built gets ErrInProgress; a
// top-level caller waits for the running build and shares its outcome,
// unless that build ended with its own context error while the caller's
// context is live, in which case the caller builds again.
// Failed builds register nothing.
func (r *Registry) GetOrCreate(ctx context.Context, identity cda.Identity, builder Builder) (cda.Resource, error) {
	if identity.Space != r.space || identity.Environment != r.environment {
		return nil, fmt.Errorf("%s in %s/%s: %w", identity, identity.Space, identity.Environment, ErrForeignIdentity)
	}

	for {
		r.mu.Lock()

		if resource, ok := r.resources[identity]; ok {
			r.mu.Unlock()
			r.metrics.recordHit()

			return resource, nil
		}

		pending, ok := r.building[identity]
		if !ok {
			current := &build{done: make(chan struct{})}
			r.building[identity] = current
			r.mu.Unlock()
			r.metrics.recordMiss()

			return r.build(ctx, identity, current, builder)
		}

		r.mu.Unlock()

		if InBuild(ctx) {
			r.metrics.recordInProgress()

			return nil, fmt.Errorf("%s: %w", identity, ErrInProgress)
		}

		select {
		case <-pending.done:
			if isContextError(pending.err) && ctx.Err() == nil {
				continue
			}

			return pending.resource, pending.err
		case <-ctx.Done():
			return nil, fmt.Errorf("waiting for %s: %w", identity, ctx.Err())
		}
	}
}

// build runs builder for identity and publishes the outcome to waiters. A
// panicking builder releases its waiters with ErrBuildPanicked before the
// panic continues.
func (r *Registry) build(ctx context.Context, identity cda.Identity, current *build, builder Builder) (cda.Resource, error) {
	finished := false

	defer func() {
		if finished {
			return
		}

		r.mu.Lock()
		delete(r.building, identity)
		current.err = fmt.Errorf("%s: %w", identity, ErrBuildPanicked)
		r.mu.Unlock()
		close(current.done)
		r.metrics.recordBuildFailure()
	}()

	resource, err := builder(withBuild(ctx, identity))
	finished = true

	if err == nil && resource == nil {
		err = fmt.Errorf("%s: %w", identity, ErrNilResource)
	}

	if err != nil {
		resource = nil
	}

	r.mu.Lock()
	delete(r.building, identity)

	if err == nil {
		r.resources[identity] = resource
	}

	size := len(r.resources)
	current.resource, current.err = resource, err
	r.mu.Unlock()
	close(current.done)

	if err != nil {
		r.metrics.recordBuildFailure()

		return nil, err
	}

	r.metrics.recordBuild(size)

	return resource, nil
}

func isContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// Lookup returns the registered resource for identity without building it.
func (r *Registry) Lookup(identity cda.Identity) (cda.Resource, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	resource, ok := r.resources[identity]

	return resource, ok
}

// Len returns the number of registered resources.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.resources)
}

// Identities returns a sorted snapshot of the registered identities.
func (r *Registry) Identities() []cda.Identity {
	r.mu.Lock()
	identities := make([]cda.Identity, 0, len(r.resources))

	for identity := range r.resources {
		identities = append(identities, identity)
	}
	r.mu.Unlock()

	slices.SortFunc(identities, func(a, b cda.Identity) int {
		return strings.Compare(a.Key(), b.Key())
	})

	return identities
}
