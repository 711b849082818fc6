package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/fivetwenty-io/delivery-client/internal/registry"
	"github.com/fivetwenty-io/delivery-client/pkg/cda"
)

// Materializer builds typed resources from descriptors and registers them.
type Materializer struct {
	registry      *registry.Registry
	resolver      *LinkResolver
	defaultLocale string
	logger        cda.Logger

	// allLocales keeps the descriptors of registered all-locales entries and
	// assets so single-locale variants can be projected without a fetch.
	mu         sync.Mutex
	allLocales map[cda.Identity]*Descriptor
}

// Option configures a Materializer.
type Option func(*Materializer)

// WithLogger sets the logger.
func WithLogger(logger cda.Logger) Option {
	return func(m *Materializer) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithDefaultLocale sets the locale materialized objects fall back to.
func WithDefaultLocale(locale string) Option {
	return func(m *Materializer) {
		m.defaultLocale = locale
	}
}

// NewMaterializer creates a Materializer that registers into reg and hands
// loader to every link it cannot resolve immediately.
func NewMaterializer(reg *registry.Registry, loader cda.LinkLoader, opts ...Option) *Materializer {
	m := &Materializer{
		registry:   reg,
		logger:     nopLogger{},
		allLocales: make(map[cda.Identity]*Descriptor),
	}

	for _, opt := range opts {
		opt(m)
	}

	m.resolver = &LinkResolver{
		registry:     reg,
		loader:       loader,
		materializer: m,
		logger:       m.logger,
	}

	return m
}

// Resolver returns the link resolver bound to this materializer.
func (m *Materializer) Resolver() *LinkResolver {
	return m.resolver
}

// Materialize returns the registered object for descriptor, building it
// from the table when it is not registered yet.
func (m *Materializer) Materialize(ctx context.Context, table *Table, descriptor *Descriptor) (cda.Resource, error) {
	return m.registry.GetOrCreate(ctx, descriptor.Identity, func(ctx context.Context) (cda.Resource, error) {
		return m.build(ctx, table, descriptor)
	})
}

// MaterializeAll materializes the table's primary items in order. Items that
// fail are reported as ItemErrors and left out.
func (m *Materializer) MaterializeAll(ctx context.Context, table *Table) ([]cda.Resource, []cda.ItemError) {
	resources := make([]cda.Resource, 0, len(table.Primary()))

	var itemErrors []cda.ItemError

	for i, descriptor := range table.Primary() {
		resource, err := m.Materialize(ctx, table, descriptor)
		if err != nil {
			m.logger.Warn("Item could not be materialized", map[string]interface{}{
				"index":    i,
				"identity": descriptor.Identity.Key(),
				"error":    err.Error(),
			})

			itemErrors = append(itemErrors, cda.ItemError{Index: i, Identity: descriptor.Identity, Err: err})

			continue
		}

		resources = append(resources, resource)
	}

	return resources, itemErrors
}

// Project materializes a single-locale variant of target from its registered
// all-locales variant. It reports false when no such variant is known.
func (m *Materializer) Project(ctx context.Context, target cda.Identity) (cda.Resource, bool, error) {
	if !target.Type.IsLocalized() || target.Locale == "" || target.Locale == cda.LocaleAll {
		return nil, false, nil
	}

	m.mu.Lock()
	source, ok := m.allLocales[target.WithLocale(cda.LocaleAll)]
	m.mu.Unlock()

	if !ok {
		return nil, false, nil
	}

	descriptor := project(source, target, m.defaultLocale)

	resource, err := m.Materialize(ctx, NewTable(descriptor), descriptor)
	if err != nil {
		return nil, true, err
	}

	return resource, true, nil
}

func (m *Materializer) build(ctx context.Context, table *Table, descriptor *Descriptor) (cda.Resource, error) {
	identity := descriptor.Identity

	switch identity.Type {
	case cda.TypeEntry:
		opts := []cda.ResourceOption{cda.WithDefaultLocale(m.defaultLocale)}

		if ref := descriptor.Sys.ContentType; ref != nil && ref.Sys.ID != "" {
			link := m.resolver.Resolve(ctx, table, identity, Placeholder{Type: cda.TypeContentType, ID: ref.Sys.ID})
			opts = append(opts, cda.WithContentTypeLink(link))
		}

		entry := cda.NewEntry(identity, descriptor.Sys, m.resolver.resolveFields(ctx, table, descriptor), opts...)
		m.remember(descriptor)

		return entry, nil
	case cda.TypeAsset:
		asset := cda.NewAsset(identity, descriptor.Sys, m.resolver.resolveFields(ctx, table, descriptor),
			cda.WithDefaultLocale(m.defaultLocale))
		m.remember(descriptor)

		return asset, nil
	case cda.TypeContentType:
		contentType := &cda.ContentType{}

		err := json.Unmarshal(descriptor.Body, contentType)
		if err != nil {
			return nil, fmt.Errorf("decoding %s: %w", identity, err)
		}

		contentType.BindIdentity(identity)

		return contentType, nil
	case cda.TypeSpace:
		space := &cda.Space{}

		err := json.Unmarshal(descriptor.Body, space)
		if err != nil {
			return nil, fmt.Errorf("decoding %s: %w", identity, err)
		}

		space.BindIdentity(identity)

		return space, nil
	default:
		return nil, &cda.MalformedResponseError{Reason: fmt.Sprintf("unsupported resource type %q", identity.Type)}
	}
}

func (m *Materializer) remember(descriptor *Descriptor) {
	if !descriptor.Localized {
		return
	}

	m.mu.Lock()
	m.allLocales[descriptor.Identity] = descriptor
	m.mu.Unlock()
}

// project derives a single-locale descriptor from an all-locales one: each
// field takes the locale's value, else the default locale's value, else it
// is left out.
func project(source *Descriptor, target cda.Identity, defaultLocale string) *Descriptor {
	sys := source.Sys
	sys.Locale = target.Locale

	descriptor := &Descriptor{
		Identity: target,
		Sys:      sys,
		Fields:   make(map[string]any, len(source.Fields)),
		Source:   SourceProjected,
		Position: -1,
	}

	for name, value := range source.Fields {
		variants, ok := value.(map[string]any)
		if !ok {
			continue
		}

		if localized, ok := variants[target.Locale]; ok {
			descriptor.Fields[name] = localized

			continue
		}

		if defaultLocale == "" {
			continue
		}

		if fallback, ok := variants[defaultLocale]; ok {
			descriptor.Fields[name] = fallback
		}
	}

	return descriptor
}

type nopLogger struct{}

func (nopLogger) Debug(string, map[string]interface{}) {}
func (nopLogger) Info(string, map[string]interface{})  {}
func (nopLogger) Warn(string, map[string]interface{})  {}
func (nopLogger) Error(string, map[string]interface{}) {}
