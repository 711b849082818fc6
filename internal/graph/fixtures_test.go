package graph_test

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/delivery-client/internal/graph"
	"github.com/fivetwenty-io/delivery-client/internal/registry"
	"github.com/fivetwenty-io/delivery-client/pkg/cda"
)

const (
	testSpace       = "cfexampleapi"
	testEnvironment = "master"
)

func link(linkType, id string) string {
	return fmt.Sprintf(`{"sys":{"type":"Link","linkType":%q,"id":%q}}`, linkType, id)
}

func catEntry(id, name, friend, locale string) string {
	localeField := ""
	if locale != "" {
		localeField = fmt.Sprintf(`,"locale":%q`, locale)
	}

	return fmt.Sprintf(`{
		"sys": {"id": %q, "type": "Entry", "revision": 5%s,
			"space": %s, "contentType": %s},
		"fields": {"name": %q, "likes": ["rainbows", "fish"], "lives": 1337,
			"bestFriend": %s, "image": %s}
	}`, id, localeField, link("Space", testSpace), link("ContentType", "cat"), name, link("Entry", friend), link("Asset", id))
}

func catEntryAllLocales(id, name, tlhName, friend string) string {
	return fmt.Sprintf(`{
		"sys": {"id": %q, "type": "Entry", "space": %s, "contentType": %s},
		"fields": {
			"name": {"en-US": %q, "tlh": %q},
			"lives": {"en-US": 1337},
			"bestFriend": {"en-US": %s}
		}
	}`, id, link("Space", testSpace), link("ContentType", "cat"), name, tlhName, link("Entry", friend))
}

func catAsset(id, title, locale string) string {
	localeField := ""
	if locale != "" {
		localeField = fmt.Sprintf(`,"locale":%q`, locale)
	}

	return fmt.Sprintf(`{
		"sys": {"id": %q, "type": "Asset"%s},
		"fields": {"title": %q, "file": {
			"fileName": "%s.png", "contentType": "image/png",
			"url": "//images.ctfassets.net/%s.png",
			"details": {"size": 12273, "image": {"width": 250, "height": 250}}}}
	}`, id, localeField, title, id, id)
}

func envelope(items []string, entries []string, assets []string, errs ...string) string {
	return fmt.Sprintf(`{
		"sys": {"type": "Array"}, "total": %d, "skip": 0, "limit": 100,
		"items": [%s],
		"includes": {"Entry": [%s], "Asset": [%s]},
		"errors": [%s]
	}`, len(items), strings.Join(items, ","), strings.Join(entries, ","), strings.Join(assets, ","), strings.Join(errs, ","))
}

func notResolvable(linkType, id string) string {
	return fmt.Sprintf(`{"sys":{"id":"notResolvable","type":"error"},"details":{"type":"Link","linkType":%q,"id":%q}}`, linkType, id)
}

func decodeEnvelope(t *testing.T, body string) *cda.Envelope {
	t.Helper()

	env := &cda.Envelope{}
	require.NoError(t, json.Unmarshal([]byte(body), env))

	return env
}

func decodeResource(t *testing.T, body string) *cda.RawResource {
	t.Helper()

	raw := &cda.RawResource{}
	require.NoError(t, json.Unmarshal([]byte(body), raw))

	return raw
}

func options(locale string) graph.Options {
	return graph.Options{Space: testSpace, Environment: testEnvironment, Locale: locale, DefaultLocale: "en-US"}
}

func identity(resourceType cda.ResourceType, id, locale string) cda.Identity {
	return cda.Identity{Space: testSpace, Environment: testEnvironment, Type: resourceType, ID: id, Locale: locale}
}

// countingLoader serves links from the registry or by projection and records
// every identity that would have required a fetch.
type countingLoader struct {
	registry     *registry.Registry
	materializer *graph.Materializer

	mu      sync.Mutex
	fetches []cda.Identity
	serve   map[cda.Identity]cda.Resource
}

func (l *countingLoader) LoadLink(ctx context.Context, target cda.Identity) (cda.Resource, error) {
	if resource, ok := l.registry.Lookup(target); ok {
		return resource, nil
	}

	if resource, ok, err := l.materializer.Project(ctx, target); ok {
		return resource, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.fetches = append(l.fetches, target)

	if resource, ok := l.serve[target]; ok {
		return resource, nil
	}

	return nil, &cda.NotFoundError{Identity: target}
}

func (l *countingLoader) fetchCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.fetches)
}

func newSession() (*registry.Registry, *countingLoader, *graph.Materializer) {
	reg := registry.New(testSpace, testEnvironment)
	loader := &countingLoader{registry: reg, serve: make(map[cda.Identity]cda.Resource)}
	materializer := graph.NewMaterializer(reg, loader, graph.WithDefaultLocale("en-US"))
	loader.materializer = materializer

	return reg, loader, materializer
}
