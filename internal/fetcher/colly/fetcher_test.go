package collyfetcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/gocolly/colly/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wildanrfq/filmbro/internal/scraper"
)

func TestFetcherBuildCollector(t *testing.T) {
	t.Parallel()

	f := New(Config{UserAgent: "coverage-agent", Timeout: time.Second})
	collector := f.buildCollector(scraper.FetchRequest{URL: "https://example.com"}, time.Unix(0, 0),
		&scraper.FetchResponse{}, new(error))

	assert.Equal(t, "coverage-agent", collector.UserAgent)
	assert.True(t, collector.IgnoreRobotsTxt)
	assert.True(t, collector.AllowURLRevisit)
	assert.True(t, collector.ParseHTTPErrorResponse)
}

func TestConfigureCollectorHooks(t *testing.T) {
	t.Parallel()

	f := New(Config{})
	req := scraper.FetchRequest{
		URL:     "https://example.com",
		Headers: http.Header{"X-Trace": {"yes"}},
	}
	var result scraper.FetchResponse
	var fetchErr error

	hooks := &stubHooks{}
	f.configureCollectorHooks(hooks, req, time.Unix(0, 0), &result, &fetchErr)
	require.NotNil(t, hooks.onRequest)
	require.NotNil(t, hooks.onResponse)
	require.NotNil(t, hooks.onError)

	collyReq := &colly.Request{Headers: &http.Header{}}
	hooks.onRequest(collyReq)
	assert.Equal(t, "yes", collyReq.Headers.Get("X-Trace"))

	hooks.onResponse(&colly.Response{
		StatusCode: http.StatusNotFound,
		Body:       []byte("body"),
		Headers:    &http.Header{"X-Letterboxd-Type": {"Film"}},
		Request:    &colly.Request{URL: mustParseURL(t, "https://example.com")},
	})
	assert.Equal(t, http.StatusNotFound, result.StatusCode)
	assert.Equal(t, "body", string(result.Body))
	assert.Equal(t, "Film", result.Headers.Get("X-Letterboxd-Type"))

	hooks.onError(nil, errors.New("boom"))
	require.EqualError(t, fetchErr, "boom")
}

func TestCopyHeadersHandlesNil(t *testing.T) {
	t.Parallel()

	f := New(Config{})
	collyReq := &colly.Request{Headers: &http.Header{}}
	f.copyHeaders(scraper.FetchRequest{}, collyReq)
	assert.Empty(t, *collyReq.Headers)
}

func TestFetchFollowsRedirectsAndKeepsErrorBodies(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/abc", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/film/heat/", http.StatusFound)
	})
	mux.HandleFunc("/film/heat/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("X-Letterboxd-Type", "Film")
		_, _ = w.Write([]byte("<html>heat</html>"))
	})
	mux.HandleFunc("/missing", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("Sorry, we can’t find the page you’ve requested."))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	f := New(Config{UserAgent: "filmbro-test", Timeout: 5 * time.Second})

	resp, err := f.Fetch(context.Background(), scraper.FetchRequest{URL: srv.URL + "/abc"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Film", resp.Headers.Get("X-Letterboxd-Type"))

	// Same URL twice must not trip colly's visited check.
	_, err = f.Fetch(context.Background(), scraper.FetchRequest{URL: srv.URL + "/abc"})
	require.NoError(t, err)

	resp, err = f.Fetch(context.Background(), scraper.FetchRequest{URL: srv.URL + "/missing"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, string(resp.Body), "Sorry, we can’t find")
}

func TestFetchConcurrentCallsShareCollector(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(r.URL.Path))
	}))
	defer srv.Close()

	f := New(Config{Timeout: 5 * time.Second})
	const workers = 8
	var wg sync.WaitGroup
	bodies := make([]string, workers)
	errs := make([]error, workers)
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := f.Fetch(context.Background(), scraper.FetchRequest{URL: srv.URL + "/film/" + string(rune('a'+i))})
			bodies[i], errs[i] = string(resp.Body), err
		}()
	}
	wg.Wait()

	for i := range workers {
		require.NoError(t, errs[i])
		assert.Equal(t, "/film/"+string(rune('a'+i)), bodies[i])
	}
}

func TestFetchHonorsContext(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		<-release
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := New(Config{Timeout: 5 * time.Second}).Fetch(ctx, scraper.FetchRequest{URL: srv.URL})
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func mustParseURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

type stubHooks struct {
	onRequest  colly.RequestCallback
	onResponse colly.ResponseCallback
	onError    colly.ErrorCallback
}

func (s *stubHooks) OnRequest(cb colly.RequestCallback) {
	s.onRequest = cb
}

func (s *stubHooks) OnResponse(cb colly.ResponseCallback) {
	s.onResponse = cb
}

func (s *stubHooks) OnError(cb colly.ErrorCallback) {
	s.onError = cb
}
