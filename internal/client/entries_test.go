package client

import (
	"context"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/delivery-client/internal/graph"
	"github.com/fivetwenty-io/delivery-client/pkg/cda"
)

func entriesQuery(values map[string]string) url.Values {
	query := url.Values{}
	for key, value := range values {
		query.Set(key, value)
	}

	return query
}

func TestGetEntries(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("default locale", func(t *testing.T) {
		t.Parallel()

		api := newFakeAPI(t)
		api.route(entriesPath, locale("en-US"), envelope(
			[]string{catEntry("nyancat", "Nyan Cat", "happycat", "en-US"), catEntry("happycat", "Happy Cat", "nyancat", "en-US")},
			nil, nil,
		))

		client := api.newClient()

		entries, err := client.GetEntries(ctx, nil)
		require.NoError(t, err)
		assert.Equal(t, 2, entries.Len())
		assert.Equal(t, 2, entries.Total())
		assert.Equal(t, 100, entries.Limit())
		assert.Empty(t, entries.Errors())

		first, err := entries.At(0)
		require.NoError(t, err)
		assert.Equal(t, "nyancat", first.ID())
		assert.Equal(t, "en-US", first.Locale())

		_, err = entries.At(2)
		require.ErrorIs(t, err, cda.ErrOutOfRange)
	})

	t.Run("all locales", func(t *testing.T) {
		t.Parallel()

		api := newFakeAPI(t)
		api.route(entriesPath, locale(cda.LocaleAll), envelope(
			[]string{catEntryAllLocales("nyancat", "Nyan Cat", "Nyan vIghro'", "happycat")},
			[]string{catEntryAllLocales("happycat", "Happy Cat", "Quch vIghro'", "nyancat")},
			nil,
		))

		client := api.newClient()

		entries, err := client.GetEntries(ctx, cda.NewQuery().WithLocale(cda.LocaleAll))
		require.NoError(t, err)
		require.Equal(t, 1, entries.Len())

		nyancat := entries.Items()[0]
		assert.Equal(t, cda.LocaleAll, nyancat.Locale())

		name, err := nyancat.FieldIn("name", "tlh")
		require.NoError(t, err)
		assert.Equal(t, "Nyan vIghro'", name)

		friend, err := nyancat.Entry(ctx, "bestFriend")
		require.NoError(t, err)
		assert.Equal(t, "Quch vIghro'", mustFieldIn(t, friend, "name", "tlh"))
		assert.Equal(t, 1, api.requestCount())
	})

	t.Run("order follows items, not includes", func(t *testing.T) {
		t.Parallel()

		api := newFakeAPI(t)
		api.route(entriesPath, locale("en-US"), envelope(
			[]string{catEntry("happycat", "Happy Cat", "nyancat", "en-US"), catEntry("nyancat", "Nyan Cat", "happycat", "en-US")},
			[]string{catEntry("nyancat", "Nyan Cat", "happycat", "en-US"), catEntry("happycat", "Happy Cat", "nyancat", "en-US")},
			nil,
		))

		client := api.newClient()

		entries, err := client.GetEntries(ctx, nil)
		require.NoError(t, err)

		ids := []string{}
		for _, entry := range entries.All() {
			ids = append(ids, entry.ID())
		}

		assert.Equal(t, []string{"happycat", "nyancat"}, ids)
	})

	t.Run("malformed envelope fails the whole call", func(t *testing.T) {
		t.Parallel()

		api := newFakeAPI(t)
		api.route(entriesPath, locale("en-US"), `{"sys": {"type": "Entry"}, "items": []}`)

		client := api.newClient()

		_, err := client.GetEntries(ctx, nil)
		require.Error(t, err)
		assert.True(t, cda.IsMalformed(err))
		assert.Empty(t, client.Registered())
	})

	t.Run("item without sys.id fails the whole call", func(t *testing.T) {
		t.Parallel()

		api := newFakeAPI(t)
		api.route(entriesPath, locale("en-US"), envelope(
			[]string{catEntry("nyancat", "Nyan Cat", "happycat", "en-US"), `{"sys": {"type": "Entry"}, "fields": {}}`},
			nil, nil,
		))

		client := api.newClient()

		_, err := client.GetEntries(ctx, nil)
		require.Error(t, err)
		assert.True(t, cda.IsMalformed(err))
		assert.Empty(t, client.Registered())
	})

	t.Run("api error", func(t *testing.T) {
		t.Parallel()

		api := newFakeAPI(t)
		client := api.newClient()

		_, err := client.GetEntries(ctx, cda.NewQuery().WithContentType("dog"))
		require.Error(t, err)
		assert.True(t, cda.IsNotFound(err))
	})
}

func mustFieldIn(t *testing.T, entry *cda.Entry, name, locale string) any {
	t.Helper()

	value, err := entry.FieldIn(name, locale)
	require.NoError(t, err)

	return value
}

// TestEntriesWithinGraphAreIdentical follows nyancat -> happycat -> nyancat
// through a single response.
func TestEntriesWithinGraphAreIdentical(t *testing.T) {
	t.Parallel()

	api := newFakeAPI(t)
	api.route(entriesPath, entriesQuery(map[string]string{"locale": "en-US", "sys.id": "nyancat"}), envelope(
		[]string{catEntry("nyancat", "Nyan Cat", "happycat", "en-US")},
		[]string{catEntry("happycat", "Happy Cat", "nyancat", "en-US")},
		[]string{catAsset("nyancat", "Nyan Cat", "en-US"), catAsset("happycat", "Happy Cat", "en-US")},
	))

	client := api.newClient()
	ctx := context.Background()

	entries, err := client.GetEntries(ctx, cda.NewQuery().WithID("nyancat"))
	require.NoError(t, err)

	nyancat, err := entries.At(0)
	require.NoError(t, err)

	bestFriend, err := nyancat.Entry(ctx, "bestFriend")
	require.NoError(t, err)
	assert.Equal(t, "happycat", bestFriend.ID())

	bestFriendsBestFriend, err := bestFriend.Entry(ctx, "bestFriend")
	require.NoError(t, err)
	assert.Same(t, nyancat, bestFriendsBestFriend)

	image, err := nyancat.Asset(ctx, "image")
	require.NoError(t, err)
	assert.Equal(t, "nyancat", image.ID())

	happyImage, err := bestFriend.Asset(ctx, "image")
	require.NoError(t, err)
	assert.Equal(t, "Happy Cat", happyImage.Title())

	assert.Equal(t, 1, api.requestCount())
}

func TestLazyLoading(t *testing.T) {
	t.Parallel()

	api := newFakeAPI(t)
	api.route(entriesPath+"/nyancat", locale("en-US"), catEntry("nyancat", "Nyan Cat", "happycat", "en-US"))
	api.route(entriesPath+"/happycat", locale("en-US"), catEntry("happycat", "Happy Cat", "nyancat", "en-US"))
	api.route(assetsPath+"/nyancat", locale("en-US"), catAsset("nyancat", "Nyan Cat", "en-US"))

	client := api.newClient()
	ctx := context.Background()

	nyancat, err := client.GetEntry(ctx, "nyancat", "")
	require.NoError(t, err)
	assert.Equal(t, 1, api.requestCount())

	friendLink, err := nyancat.Link("bestFriend")
	require.NoError(t, err)
	assert.Equal(t, cda.LinkLazy, friendLink.State())
	assert.Equal(t, 1, api.requestCount(), "reading a link never fetches")

	bestFriend, err := nyancat.Entry(ctx, "bestFriend")
	require.NoError(t, err)
	assert.Equal(t, "happycat", bestFriend.ID())
	assert.Equal(t, 2, api.requestCount())

	again, err := nyancat.Entry(ctx, "bestFriend")
	require.NoError(t, err)
	assert.Same(t, bestFriend, again)
	assert.Equal(t, 2, api.requestCount())

	// The lazily loaded entry is owned by the session, not just the link.
	happycat, err := client.GetEntry(ctx, "happycat", "")
	require.NoError(t, err)
	assert.Same(t, bestFriend, happycat)

	back, err := happycat.Entry(ctx, "bestFriend")
	require.NoError(t, err)
	assert.Same(t, nyancat, back)
	assert.Equal(t, 2, api.requestCount())

	image, err := nyancat.Asset(ctx, "image")
	require.NoError(t, err)
	assert.Equal(t, "nyancat", image.ID())
	assert.Equal(t, 3, api.requestCount())
}

func TestMissingLinkTarget(t *testing.T) {
	t.Parallel()

	api := newFakeAPI(t)
	api.route(entriesPath, locale("en-US"), envelope(
		[]string{catEntry("nyancat", "Nyan Cat", "missingcat", "en-US"), catEntry("garfield", "Garfield", "ghostcat", "en-US")},
		nil, nil,
		`{"sys":{"id":"notResolvable","type":"error"},"details":{"type":"Link","linkType":"Entry","id":"ghostcat"}}`,
	))

	client := api.newClient()
	ctx := context.Background()

	entries, err := client.GetEntries(ctx, nil)
	require.NoError(t, err)
	require.Equal(t, 2, entries.Len())

	nyancat := entries.Items()[0]
	assert.Equal(t, "Nyan Cat", nyancat.String("name"))

	_, err = nyancat.Entry(ctx, "bestFriend")
	require.Error(t, err)
	assert.True(t, cda.IsNotFound(err))
	assert.Equal(t, 1, api.requestsFor(entriesPath+"/missingcat"))

	_, err = nyancat.Entry(ctx, "bestFriend")
	require.Error(t, err)
	assert.Equal(t, 1, api.requestsFor(entriesPath+"/missingcat"), "not found is cached on the link")

	garfield := entries.Items()[1]

	_, err = garfield.Entry(ctx, "bestFriend")
	require.Error(t, err)
	assert.True(t, cda.IsNotFound(err))
	assert.Equal(t, 0, api.requestsFor(entriesPath+"/ghostcat"), "declared unresolvable links never fetch")
}

func TestGetEntry_NotFound(t *testing.T) {
	t.Parallel()

	api := newFakeAPI(t)
	client := api.newClient()

	_, err := client.GetEntry(context.Background(), "missingcat", "")
	require.Error(t, err)

	notFound := &cda.NotFoundError{}
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "missingcat", notFound.Identity.ID)
	assert.Empty(t, client.Registered())
}

func TestLocaleVariants(t *testing.T) {
	t.Parallel()

	newLocaleAPI := func(t *testing.T) *fakeAPI {
		t.Helper()

		api := newFakeAPI(t)
		api.route(entriesPath+"/nyancat", locale(cda.LocaleAll), catEntryAllLocales("nyancat", "Nyan Cat", "Nyan vIghro'", "happycat"))
		api.route(entriesPath+"/nyancat", locale("en-US"), catEntry("nyancat", "Nyan Cat", "happycat", "en-US"))
		api.route(entriesPath+"/nyancat", locale("tlh"), catEntry("nyancat", "Nyan vIghro'", "happycat", "tlh"))

		return api
	}

	ctx := context.Background()

	t.Run("all locales and a single locale are distinct", func(t *testing.T) {
		t.Parallel()

		api := newLocaleAPI(t)
		client := api.newClient()

		english, err := client.GetEntry(ctx, "nyancat", "en-US")
		require.NoError(t, err)

		all, err := client.GetEntry(ctx, "nyancat", cda.LocaleAll)
		require.NoError(t, err)

		assert.NotSame(t, english, all)
		assert.Len(t, client.Registered(), 2)

		name, ok := english.Field("name")
		require.True(t, ok)
		assert.Equal(t, mustFieldIn(t, all, "name", "en-US"), name)
	})

	t.Run("single locale is projected from all locales", func(t *testing.T) {
		t.Parallel()

		api := newLocaleAPI(t)
		client := api.newClient()

		all, err := client.GetEntry(ctx, "nyancat", cda.LocaleAll)
		require.NoError(t, err)

		before := api.requestCount()

		klingon, err := client.GetEntry(ctx, "nyancat", "tlh")
		require.NoError(t, err)
		assert.Equal(t, before, api.requestCount())

		name, ok := klingon.Field("name")
		require.True(t, ok)
		assert.Equal(t, mustFieldIn(t, all, "name", "tlh"), name)

		lives, ok := klingon.Field("lives")
		require.True(t, ok, "missing locale values fall back to the default locale")
		assert.InDelta(t, 1337, lives, 0)

		again, err := client.GetEntry(ctx, "nyancat", "tlh")
		require.NoError(t, err)
		assert.Same(t, klingon, again)
	})

	t.Run("single locale is fetched when nothing can be projected", func(t *testing.T) {
		t.Parallel()

		api := newLocaleAPI(t)
		client := api.newClient()

		klingon, err := client.GetEntry(ctx, "nyancat", "tlh")
		require.NoError(t, err)
		assert.Equal(t, "Nyan vIghro'", klingon.String("name"))
		assert.Equal(t, "tlh", klingon.Locale())

		_, err = klingon.FieldIn("name", "en-US")
		locErr := &cda.LocaleNotFoundError{}
		require.ErrorAs(t, err, &locErr)
	})
}

func TestLazyLoadsAreDeduplicated(t *testing.T) {
	t.Parallel()

	api := newFakeAPI(t)
	api.route(entriesPath, locale("en-US"), envelope(
		[]string{
			catEntry("nyancat", "Nyan Cat", "happycat", "en-US"),
			catEntry("garfield", "Garfield", "happycat", "en-US"),
			catEntry("grumpycat", "Grumpy Cat", "happycat", "en-US"),
		},
		nil, nil,
	))
	api.route(entriesPath+"/happycat", locale("en-US"), catEntry("happycat", "Happy Cat", "nyancat", "en-US"))

	client := api.newClient()
	ctx := context.Background()

	entries, err := client.GetEntries(ctx, nil)
	require.NoError(t, err)

	friends := make([]*cda.Entry, entries.Len())
	wg := sync.WaitGroup{}

	for i, entry := range entries.All() {
		wg.Add(1)

		go func() {
			defer wg.Done()

			friend, err := entry.Entry(ctx, "bestFriend")
			if err != nil {
				t.Errorf("resolving %s: %v", entry.ID(), err)

				return
			}

			friends[i] = friend
		}()
	}

	wg.Wait()

	assert.Same(t, friends[0], friends[1])
	assert.Same(t, friends[0], friends[2])
	assert.Equal(t, 1, api.requestsFor(entriesPath+"/happycat"))
}

// gatedFetcher holds every single-resource fetch until release is closed.
type gatedFetcher struct {
	graph.Fetcher

	once    sync.Once
	started chan struct{}
	release chan struct{}
}

func newGatedFetcher(next graph.Fetcher) *gatedFetcher {
	return &gatedFetcher{Fetcher: next, started: make(chan struct{}), release: make(chan struct{})}
}

func (f *gatedFetcher) FetchResource(ctx context.Context, resourceType cda.ResourceType, id, locale string) (*cda.RawResource, error) {
	f.once.Do(func() { close(f.started) })

	select {
	case <-f.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	return f.Fetcher.FetchResource(ctx, resourceType, id, locale)
}

func TestSharedFetchSurvivesCallerCancellation(t *testing.T) {
	t.Parallel()

	api := newFakeAPI(t)
	api.route(entriesPath+"/nyancat", locale("en-US"), catEntry("nyancat", "Nyan Cat", "happycat", "en-US"))

	fetcher := newGatedFetcher(api.newClient().fetcher)
	client, err := NewWithFetcher(api.config(), fetcher)
	require.NoError(t, err)

	cancelled, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)

	go func() {
		_, err := client.GetEntry(cancelled, "nyancat", "")
		firstErr <- err
	}()

	<-fetcher.started

	type result struct {
		entry *cda.Entry
		err   error
	}

	second := make(chan result, 1)

	go func() {
		entry, err := client.GetEntry(context.Background(), "nyancat", "")
		second <- result{entry: entry, err: err}
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	require.ErrorIs(t, <-firstErr, context.Canceled)

	close(fetcher.release)

	got := <-second
	require.NoError(t, got.err)
	assert.Equal(t, "Nyan Cat", got.entry.String("name"))
	assert.Equal(t, 1, api.requestsFor(entriesPath+"/nyancat"))

	again, err := client.GetEntry(context.Background(), "nyancat", "")
	require.NoError(t, err)
	assert.Same(t, got.entry, again)
}

func TestFetchAnsweredInAnotherLocale(t *testing.T) {
	t.Parallel()

	api := newFakeAPI(t)
	api.route(entriesPath+"/happycat", locale("tlh"), catEntry("happycat", "Happy Cat", "nyancat", "en-US"))

	client := api.newClient()
	ctx := context.Background()

	target := client.identity(cda.TypeEntry, "happycat", "tlh")

	first, err := client.LoadLink(ctx, target)
	require.NoError(t, err)
	assert.Equal(t, "en-US", first.Identity().Locale)

	second, err := client.LoadLink(ctx, target)
	require.NoError(t, err)
	assert.Same(t, first, second)

	entry, err := client.GetEntry(ctx, "happycat", "tlh")
	require.NoError(t, err)
	assert.Same(t, first, entry)

	reported, err := client.GetEntry(ctx, "happycat", "en-US")
	require.NoError(t, err)
	assert.Same(t, first, reported)

	assert.Equal(t, 1, api.requestsFor(entriesPath+"/happycat"))
}

func TestEntryContentType(t *testing.T) {
	t.Parallel()

	api := newFakeAPI(t)
	api.route(entriesPath+"/nyancat", locale("en-US"), catEntry("nyancat", "Nyan Cat", "happycat", "en-US"))
	api.route(contentTypePath+"/cat", nil, catContentType)

	client := api.newClient()
	ctx := context.Background()

	nyancat, err := client.GetEntry(ctx, "nyancat", "")
	require.NoError(t, err)
	assert.Equal(t, "cat", nyancat.ContentTypeID())

	contentType, err := nyancat.ContentType(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Cat", contentType.Name)
	assert.Equal(t, "name", contentType.DisplayField)

	direct, err := client.GetContentType(ctx, "cat")
	require.NoError(t, err)
	assert.Same(t, contentType, direct)
	assert.Equal(t, 1, api.requestsFor(contentTypePath+"/cat"))
}
