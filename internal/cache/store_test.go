package cache

import (
	"context"
	"errors"
	"maps"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type entry struct {
	Title  string
	Counts map[string]string
}

func cloneEntry(e entry) entry {
	cp := e
	cp.Counts = maps.Clone(e.Counts)
	return cp
}

func countingFetch(calls *atomic.Int32, value entry) FetchFunc[entry] {
	return func(context.Context) (entry, error) {
		calls.Add(1)
		return value, nil
	}
}

func TestGetOrFetchCachesValue(t *testing.T) {
	t.Parallel()

	store, err := New[entry]("film", cloneEntry, Options{})
	require.NoError(t, err)

	var calls atomic.Int32
	want := entry{Title: "Heat", Counts: map[string]string{"likes": "1.0k"}}

	first, err := store.GetOrFetch(context.Background(), "Heat", countingFetch(&calls, want))
	require.NoError(t, err)
	second, err := store.GetOrFetch(context.Background(), "Heat", countingFetch(&calls, entry{Title: "other"}))
	require.NoError(t, err)

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, want, first)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, store.Len())
}

func TestGetOrFetchReturnsCopies(t *testing.T) {
	t.Parallel()

	store, err := New[entry]("film", cloneEntry, Options{})
	require.NoError(t, err)

	var calls atomic.Int32
	got, err := store.GetOrFetch(context.Background(), "Heat",
		countingFetch(&calls, entry{Title: "Heat", Counts: map[string]string{"likes": "1.0k"}}))
	require.NoError(t, err)

	got.Counts["likes"] = "mutated"

	again, ok := store.Get("Heat")
	require.True(t, ok)
	assert.Equal(t, "1.0k", again.Counts["likes"])
}

func TestGetOrFetchKeysAreCaseSensitive(t *testing.T) {
	t.Parallel()

	store, err := New[entry]("film", cloneEntry, Options{})
	require.NoError(t, err)

	var calls atomic.Int32
	for _, key := range []string{"Heat", "heat", "HEAT", "heat"} {
		_, err := store.GetOrFetch(context.Background(), key, countingFetch(&calls, entry{Title: key}))
		require.NoError(t, err)
	}
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, 3, store.Len())
}

func TestGetOrFetchDoesNotStoreErrors(t *testing.T) {
	t.Parallel()

	store, err := New[entry]("profile", cloneEntry, Options{})
	require.NoError(t, err)

	boom := errors.New("upstream down")
	_, err = store.GetOrFetch(context.Background(), "kim", func(context.Context) (entry, error) {
		return entry{}, boom
	})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 0, store.Len())

	var calls atomic.Int32
	_, err = store.GetOrFetch(context.Background(), "kim", countingFetch(&calls, entry{Title: "kim"}))
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestNotFoundValuesAreCached(t *testing.T) {
	t.Parallel()

	store, err := New[entry]("film", cloneEntry, Options{})
	require.NoError(t, err)

	var calls atomic.Int32
	for i := 0; i < 3; i++ {
		got, err := store.GetOrFetch(context.Background(), "zzzz", countingFetch(&calls, entry{}))
		require.NoError(t, err)
		assert.Equal(t, entry{}, got)
	}
	assert.Equal(t, int32(1), calls.Load())
}

func TestBoundedStoreEvictsLeastRecentlyUsed(t *testing.T) {
	t.Parallel()

	store, err := New[entry]("film", cloneEntry, Options{MaxEntries: 2})
	require.NoError(t, err)

	var calls atomic.Int32
	ctx := context.Background()
	for _, key := range []string{"a", "b", "c"} {
		_, err := store.GetOrFetch(ctx, key, countingFetch(&calls, entry{Title: key}))
		require.NoError(t, err)
	}
	assert.Equal(t, 2, store.Len())

	_, ok := store.Get("a")
	assert.False(t, ok)
	_, ok = store.Get("c")
	assert.True(t, ok)
}

func TestDedupeInflightCollapsesConcurrentMisses(t *testing.T) {
	t.Parallel()

	store, err := New[entry]("diary", cloneEntry, Options{DedupeInflight: true})
	require.NoError(t, err)

	var calls atomic.Int32
	release := make(chan struct{})
	fetch := func(context.Context) (entry, error) {
		calls.Add(1)
		<-release
		return entry{Title: "kim"}, nil
	}

	var wg sync.WaitGroup
	results := make([]entry, 5)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := store.GetOrFetch(context.Background(), "kim", fetch)
			assert.NoError(t, err)
			results[i] = v
		}(i)
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, r := range results {
		assert.Equal(t, "kim", r.Title)
	}
}

func TestNewDefaultsToIdentityClone(t *testing.T) {
	t.Parallel()

	store, err := New[string]("poster", nil, Options{})
	require.NoError(t, err)
	assert.Equal(t, "poster", store.Kind())

	v, err := store.GetOrFetch(context.Background(), "k", func(context.Context) (string, error) {
		return "v", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "v", v)
}
