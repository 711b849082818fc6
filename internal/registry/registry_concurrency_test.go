package registry_test

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/delivery-client/internal/registry"
	"github.com/fivetwenty-io/delivery-client/pkg/cda"
)

// TestConcurrentGetOrCreate verifies that concurrent callers asking for the
// same identities trigger one build each and all observe the same instance.
func TestConcurrentGetOrCreate(t *testing.T) {
	t.Parallel()

	reg := registry.New("cfexampleapi", "master")

	identities := make([]cda.Identity, 10)
	for i := range identities {
		identities[i] = entryIdentity(fmt.Sprintf("cat-%d", i), "en-US")
	}

	builds := make([]atomic.Int32, len(identities))
	start := make(chan struct{})

	workers := runtime.GOMAXPROCS(0) * 4
	results := make([][]cda.Resource, workers)

	wg := sync.WaitGroup{}
	wg.Add(workers)

	for w := range workers {
		go func() {
			defer wg.Done()

			<-start

			results[w] = make([]cda.Resource, len(identities))

			for i, identity := range identities {
				resource, err := reg.GetOrCreate(context.Background(), identity, func(ctx context.Context) (cda.Resource, error) {
					builds[i].Add(1)
					runtime.Gosched()

					return cda.NewEntry(identity, cda.Sys{ID: identity.ID}, nil), nil
				})
				if err != nil {
					t.Errorf("get %s: %v", identity, err)

					return
				}

				results[w][i] = resource
				_ = reg.Len()
				_ = reg.Identities()
			}
		}()
	}

	close(start)
	wg.Wait()

	for i := range identities {
		assert.Equal(t, int32(1), builds[i].Load(), "identity %d built more than once", i)

		for w := 1; w < workers; w++ {
			require.Same(t, results[0][i], results[w][i])
		}
	}

	assert.Equal(t, len(identities), reg.Len())
}

// TestWaiterHonorsContext verifies that waiting for another caller's build
// stops when the context is cancelled.
func TestWaiterHonorsContext(t *testing.T) {
	t.Parallel()

	reg := registry.New("cfexampleapi", "master")
	identity := entryIdentity("nyancat", "en-US")

	started := make(chan struct{})
	release := make(chan struct{})

	go func() {
		_, _ = reg.GetOrCreate(context.Background(), identity, func(ctx context.Context) (cda.Resource, error) {
			close(started)
			<-release

			return cda.NewEntry(identity, cda.Sys{}, nil), nil
		})
	}()

	<-started

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := reg.GetOrCreate(ctx, identity, func(ctx context.Context) (cda.Resource, error) {
		return cda.NewEntry(identity, cda.Sys{}, nil), nil
	})
	require.ErrorIs(t, err, context.Canceled)

	close(release)
}

// TestWaiterRebuildsAfterBuilderContextEnds verifies that a waiter with a live
// context does not inherit the context error of the build it waited on.
func TestWaiterRebuildsAfterBuilderContextEnds(t *testing.T) {
	t.Parallel()

	reg := registry.New("cfexampleapi", "master")
	identity := entryIdentity("nyancat", "en-US")

	buildCtx, cancel := context.WithCancel(context.Background())
	started := make(chan struct{})
	firstDone := make(chan error, 1)

	go func() {
		_, err := reg.GetOrCreate(buildCtx, identity, func(ctx context.Context) (cda.Resource, error) {
			close(started)
			<-ctx.Done()

			return nil, ctx.Err()
		})
		firstDone <- err
	}()

	<-started

	waiterDone := make(chan struct{})

	var (
		resource cda.Resource
		err      error
	)

	go func() {
		defer close(waiterDone)

		resource, err = reg.GetOrCreate(context.Background(), identity, func(ctx context.Context) (cda.Resource, error) {
			return cda.NewEntry(identity, cda.Sys{ID: identity.ID}, nil), nil
		})
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	require.ErrorIs(t, <-firstDone, context.Canceled)
	<-waiterDone

	require.NoError(t, err)
	require.NotNil(t, resource)

	registered, ok := reg.Lookup(identity)
	require.True(t, ok)
	assert.Same(t, registered, resource)
}

// TestPanickingBuilderReleasesIdentity verifies that a builder panic neither
// strands waiters nor blocks later builds of the same identity.
func TestPanickingBuilderReleasesIdentity(t *testing.T) {
	t.Parallel()

	reg := registry.New("cfexampleapi", "master")
	identity := entryIdentity("nyancat", "en-US")

	started := make(chan struct{})
	release := make(chan struct{})
	recovered := make(chan any, 1)

	go func() {
		defer func() {
			recovered <- recover()
		}()

		_, _ = reg.GetOrCreate(context.Background(), identity, func(ctx context.Context) (cda.Resource, error) {
			close(started)
			<-release

			panic("malformed resource")
		})
	}()

	<-started

	waiterErr := make(chan error, 1)

	go func() {
		_, err := reg.GetOrCreate(context.Background(), identity, func(ctx context.Context) (cda.Resource, error) {
			return cda.NewEntry(identity, cda.Sys{ID: identity.ID}, nil), nil
		})
		waiterErr <- err
	}()

	time.Sleep(20 * time.Millisecond)
	close(release)

	assert.Equal(t, "malformed resource", <-recovered)

	// The waiter either observed the panic or built after it.
	if err := <-waiterErr; err != nil {
		require.ErrorIs(t, err, registry.ErrBuildPanicked)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	calls := 0
	resource, err := reg.GetOrCreate(ctx, identity, entryBuilder(identity, &calls))
	require.NoError(t, err)
	assert.NotNil(t, resource)
}
