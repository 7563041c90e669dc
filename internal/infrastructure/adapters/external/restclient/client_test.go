package restclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	apperrors "github.com/narwhalmedia/fantasycards/pkg/errors"
	"github.com/narwhalmedia/fantasycards/pkg/logger"
)

func newTestClient(t *testing.T, srv *httptest.Server, retry RetryPolicy) *Client {
	t.Helper()
	return New(Config{
		Name:          "test",
		BaseURL:       srv.URL + "/",
		Timeout:       2 * time.Second,
		DefaultParams: Params{"api_key": "secret"},
		Retry:         retry,
	}, logger.NewFromZap(zaptest.NewLogger(t)), WithHTTPClient(srv.Client()))
}

func TestGet_RetriesRateLimitThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"title":"The Hobbit"}`))
	}))
	defer srv.Close()

	base := 20 * time.Millisecond
	c := newTestClient(t, srv, RetryPolicy{MaxAttempts: 3, BaseDelay: base, MaxDelay: time.Second})

	var out struct {
		Title string `json:"title"`
	}
	start := time.Now()
	err := c.Get(context.Background(), "/works/OL1W.json", nil, &out)
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Equal(t, "The Hobbit", out.Title)
	assert.EqualValues(t, 3, calls.Load())
	assert.GreaterOrEqual(t, elapsed, base+2*base)
}

func TestGet_RateLimitExhausted(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := newTestClient(t, srv, RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond})

	err := c.Get(context.Background(), "search.json", nil, nil)
	require.Error(t, err)

	var upErr *apperrors.UpstreamError
	require.True(t, errors.As(err, &upErr))
	assert.Equal(t, http.StatusTooManyRequests, upErr.Status)
	assert.EqualValues(t, 3, calls.Load())
}

func TestGet_OtherStatusFailsImmediately(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := newTestClient(t, srv, RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond})

	err := c.Get(context.Background(), "/movie/0", nil, nil)

	var upErr *apperrors.UpstreamError
	require.True(t, errors.As(err, &upErr))
	assert.Equal(t, http.StatusNotFound, upErr.Status)
	assert.NotContains(t, upErr.URL, "secret")
	assert.EqualValues(t, 1, calls.Load())
}

func TestGet_EncodesParams(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "/discover/movie", r.URL.Path)
		assert.Equal(t, "secret", q.Get("api_key"))
		assert.Equal(t, "14,12", q.Get("with_genres"))
		assert.Equal(t, "2", q.Get("page"))
		assert.Equal(t, "7.5", q.Get("vote_average.gte"))
		assert.False(t, q.Has("primary_release_date.gte"))
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv, RetryPolicy{MaxAttempts: 1})
	minRating := 7.5
	var yearFrom *int

	err := c.Get(context.Background(), "discover/movie", Params{
		"with_genres":              []int{14, 12},
		"page":                     2,
		"vote_average.gte":         &minRating,
		"primary_release_date.gte": yearFrom,
	}, nil)
	require.NoError(t, err)
}

func TestGet_ContextCancelledDuringBackoff(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := newTestClient(t, srv, RetryPolicy{MaxAttempts: 3, BaseDelay: time.Hour, MaxDelay: time.Hour})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := c.Get(ctx, "/slow", nil, nil)
	require.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestGet_BadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv, RetryPolicy{MaxAttempts: 1})
	var out map[string]any
	err := c.Get(context.Background(), "/x", nil, &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decoding test response")
}
