package openlibrary

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const dunePayload = `{"ISBN:9780441172719":{"title":"Dune","subtitle":"Deluxe Edition","authors":[{"url":"/authors/OL1","name":"Frank Herbert"}],"number_of_pages":604}}`

func newTestClient(srv *httptest.Server, retries int) *Client {
	return NewClient("libraryapi-test", 1000, retries, WithBaseURL(srv.URL), WithBackoff(time.Millisecond))
}

func TestGetBookByISBN(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/books", r.URL.Path)
		assert.Equal(t, "ISBN:9780441172719", r.URL.Query().Get("bibkeys"))
		assert.Equal(t, "libraryapi-test", r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(dunePayload))
	}))
	defer srv.Close()

	details, err := newTestClient(srv, 0).GetBookByISBN(context.Background(), "9780441172719")
	require.NoError(t, err)
	assert.Equal(t, "Dune: Deluxe Edition", details.FullTitle())
	assert.Equal(t, "Frank Herbert", details.AuthorNames())
}

func TestGetBookByISBN_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv, 0).GetBookByISBN(context.Background(), "0000000000")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetBookByISBN_RetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(dunePayload))
	}))
	defer srv.Close()

	details, err := newTestClient(srv, 3).GetBookByISBN(context.Background(), "9780441172719")
	require.NoError(t, err)
	assert.Equal(t, "Dune", details.Title)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestGetBookByISBN_DoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := newTestClient(srv, 3).GetBookByISBN(context.Background(), "9780441172719")
	assert.ErrorContains(t, err, "400")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestGetBookByISBN_GivesUp(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := newTestClient(srv, 2).GetBookByISBN(context.Background(), "9780441172719")
	assert.ErrorContains(t, err, "after 2 retries")
}
