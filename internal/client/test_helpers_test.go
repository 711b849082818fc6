package client

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/delivery-client/pkg/cda"
)

const (
	testSpace       = "cfexampleapi"
	testEnvironment = "master"
	testToken       = "b4c0n73n7fu1"
	entriesPath     = "/spaces/cfexampleapi/environments/master/entries"
	assetsPath      = "/spaces/cfexampleapi/environments/master/assets"
	contentTypePath = "/spaces/cfexampleapi/environments/master/content_types"
)

// fakeAPI is a delivery API double that serves canned bodies and counts
// every request it receives.
type fakeAPI struct {
	t      *testing.T
	server *httptest.Server

	mu       sync.Mutex
	routes   map[string]string
	requests []string
}

func newFakeAPI(t *testing.T) *fakeAPI {
	t.Helper()

	api := &fakeAPI{t: t, routes: make(map[string]string)}
	api.server = httptest.NewServer(http.HandlerFunc(api.serve))
	t.Cleanup(api.server.Close)

	return api
}

func routeKey(path string, query url.Values) string {
	if len(query) == 0 {
		return path
	}

	return path + "?" + query.Encode()
}

// route registers a body for a path and exact query.
func (f *fakeAPI) route(path string, query url.Values, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.routes[routeKey(path, query)] = body
}

func (f *fakeAPI) serve(writer http.ResponseWriter, request *http.Request) {
	if request.Header.Get("Authorization") != "Bearer "+testToken {
		f.t.Errorf("unexpected Authorization header %q", request.Header.Get("Authorization"))
	}

	key := routeKey(request.URL.Path, request.URL.Query())

	f.mu.Lock()
	f.requests = append(f.requests, key)
	body, ok := f.routes[key]
	f.mu.Unlock()

	writer.Header().Set("Content-Type", "application/vnd.contentful.delivery.v1+json")

	if !ok {
		writer.WriteHeader(http.StatusNotFound)
		_, _ = writer.Write([]byte(`{"sys":{"type":"Error","id":"NotFound"},"message":"The resource could not be found.","requestId":"test"}`))

		return
	}

	_, _ = writer.Write([]byte(body))
}

// requestCount returns the number of requests received so far.
func (f *fakeAPI) requestCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.requests)
}

// requestsFor returns how many requests hit a path, any query.
func (f *fakeAPI) requestsFor(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	count := 0

	for _, key := range f.requests {
		if key == path || strings.HasPrefix(key, path+"?") {
			count++
		}
	}

	return count
}

func (f *fakeAPI) config() *cda.Config {
	return &cda.Config{
		SpaceID:       testSpace,
		AccessToken:   testToken,
		APIEndpoint:   f.server.URL,
		DefaultLocale: "en-US",
	}
}

func (f *fakeAPI) newClient() *Client {
	f.t.Helper()

	client, err := New(f.config())
	require.NoError(f.t, err)

	return client
}

func locale(code string) url.Values {
	return url.Values{"locale": []string{code}}
}

func link(linkType, id string) string {
	return fmt.Sprintf(`{"sys":{"type":"Link","linkType":%q,"id":%q}}`, linkType, id)
}

func catEntry(id, name, friend, locale string) string {
	return fmt.Sprintf(`{
		"sys": {"id": %q, "type": "Entry", "revision": 5, "locale": %q,
			"space": %s, "contentType": %s},
		"fields": {"name": %q, "likes": ["rainbows", "fish"], "lives": 1337,
			"bestFriend": %s, "image": %s}
	}`, id, locale, link("Space", testSpace), link("ContentType", "cat"), name, link("Entry", friend), link("Asset", id))
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
	return fmt.Sprintf(`{
		"sys": {"id": %q, "type": "Asset", "locale": %q, "space": %s},
		"fields": {"title": %q, "file": {
			"fileName": "%s.png", "contentType": "image/png",
			"url": "//images.ctfassets.net/%s.png",
			"details": {"size": 12273, "image": {"width": 250, "height": 250}}}}
	}`, id, locale, link("Space", testSpace), title, id, id)
}

func envelope(items []string, entries []string, assets []string, errs ...string) string {
	return fmt.Sprintf(`{
		"sys": {"type": "Array"}, "total": %d, "skip": 0, "limit": 100,
		"items": [%s],
		"includes": {"Entry": [%s], "Asset": [%s]},
		"errors": [%s]
	}`, len(items), strings.Join(items, ","), strings.Join(entries, ","), strings.Join(assets, ","), strings.Join(errs, ","))
}

const catContentType = `{
	"sys": {"id": "cat", "type": "ContentType"},
	"name": "Cat", "displayField": "name",
	"fields": [
		{"id": "name", "name": "Name", "type": "Text", "localized": true},
		{"id": "bestFriend", "name": "Best Friend", "type": "Link", "linkType": "Entry"},
		{"id": "image", "name": "Image", "type": "Link", "linkType": "Asset"}
	]
}`

const exampleSpace = `{
	"sys": {"id": "cfexampleapi", "type": "Space"},
	"name": "Contentful Example API",
	"locales": [
		{"code": "en-US", "name": "English", "default": true},
		{"code": "tlh", "name": "Klingon", "fallbackCode": "en-US"}
	]
}`

// recordingLogger collects log records.
type recordingLogger struct {
	mu      sync.Mutex
	records []logRecord
}

type logRecord struct {
	level  string
	msg    string
	fields map[string]interface{}
}

func (l *recordingLogger) record(level, msg string, fields map[string]interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.records = append(l.records, logRecord{level: level, msg: msg, fields: fields})
}

func (l *recordingLogger) Debug(msg string, fields map[string]interface{}) {
	l.record("debug", msg, fields)
}

func (l *recordingLogger) Info(msg string, fields map[string]interface{}) {
	l.record("info", msg, fields)
}

func (l *recordingLogger) Warn(msg string, fields map[string]interface{}) {
	l.record("warn", msg, fields)
}

func (l *recordingLogger) Error(msg string, fields map[string]interface{}) {
	l.record("error", msg, fields)
}

func (l *recordingLogger) messages() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]string, 0, len(l.records))
	for _, record := range l.records {
		out = append(out, record.msg)
	}

	return out
}
