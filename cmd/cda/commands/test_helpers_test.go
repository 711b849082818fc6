package commands

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fivetwenty-io/delivery-client/internal/constants"
)

const (
	testToken   = "b4c0n73n7fu1"
	entriesPath = "/spaces/cfexampleapi/environments/master/entries"
)

const entriesBody = `{
  "sys": {"type": "Array"},
  "total": 2, "skip": 0, "limit": 100,
  "items": [
    {
      "sys": {"id": "nyancat", "type": "Entry", "locale": "en-US",
        "contentType": {"sys": {"type": "Link", "linkType": "ContentType", "id": "cat"}}},
      "fields": {"name": "Nyan Cat", "color": "rainbow",
        "bestFriend": {"sys": {"type": "Link", "linkType": "Entry", "id": "happycat"}}}
    },
    {
      "sys": {"id": "happycat", "type": "Entry", "locale": "en-US",
        "contentType": {"sys": {"type": "Link", "linkType": "ContentType", "id": "cat"}}},
      "fields": {"name": "Happy Cat", "color": "gray"}
    }
  ]
}`

const nyancatBody = `{
  "sys": {"id": "nyancat", "type": "Entry", "locale": "en-US",
    "contentType": {"sys": {"type": "Link", "linkType": "ContentType", "id": "cat"}}},
  "fields": {"name": "Nyan Cat",
    "bestFriend": {"sys": {"type": "Link", "linkType": "Entry", "id": "happycat"}},
    "enemies": [
      {"sys": {"type": "Link", "linkType": "Entry", "id": "happycat"}},
      {"sys": {"type": "Link", "linkType": "Entry", "id": "ghostcat"}}
    ]}
}`

const happycatBody = `{
  "sys": {"id": "happycat", "type": "Entry", "locale": "en-US",
    "contentType": {"sys": {"type": "Link", "linkType": "ContentType", "id": "cat"}}},
  "fields": {"name": "Happy Cat"}
}`

// fakeAPI serves canned bodies by path and records the paths it was asked for.
type fakeAPI struct {
	server *httptest.Server

	mu       sync.Mutex
	requests []string
}

func newFakeAPI(t *testing.T, routes map[string]string) *fakeAPI {
	t.Helper()

	api := &fakeAPI{}
	api.server = httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		api.mu.Lock()
		api.requests = append(api.requests, request.URL.Path)
		api.mu.Unlock()

		if request.Header.Get("Authorization") != "Bearer "+testToken {
			writer.WriteHeader(http.StatusUnauthorized)
			_, _ = writer.Write([]byte(`{"sys":{"type":"Error","id":"AccessTokenInvalid"},"message":"The access token you sent could not be found or is invalid."}`))

			return
		}

		body, ok := routes[request.URL.Path]
		if !ok {
			writer.WriteHeader(http.StatusNotFound)
			_, _ = writer.Write([]byte(`{"sys":{"type":"Error","id":"NotFound"},"message":"The resource could not be found."}`))

			return
		}

		writer.Header().Set("Content-Type", "application/json")
		_, _ = writer.Write([]byte(body))
	}))
	t.Cleanup(api.server.Close)

	return api
}

func (f *fakeAPI) requestCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.requests)
}

// configure points the CLI settings at the fake API. Settings are global, so
// tests calling this must not run in parallel.
func configure(t *testing.T, api *fakeAPI, settings map[string]any) {
	t.Helper()

	viper.Reset()
	t.Cleanup(viper.Reset)

	viper.Set("space", "cfexampleapi")
	viper.Set("token", testToken)
	viper.Set("api", api.server.URL)
	viper.Set("output", constants.FormatJSON)

	for key, value := range settings {
		viper.Set(key, value)
	}
}

// execute runs a command and returns what it wrote to stdout and stderr.
func execute(cmd *cobra.Command, args ...string) (string, string, error) {
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}

	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs(args)

	err := cmd.Execute()

	return stdout.String(), strings.TrimSpace(stderr.String()), err
}
