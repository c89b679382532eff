package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"libraryapi/internal/auth"
	"libraryapi/internal/book"
	"libraryapi/internal/borrowing"
	"libraryapi/internal/config"
	"libraryapi/internal/httpx"
	"libraryapi/internal/session"
	"libraryapi/internal/testutil"
	"libraryapi/internal/user"
)

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

type noBlacklist struct{}

func (noBlacklist) IsBlacklisted(context.Context, string) (bool, error) { return false, nil }

// testRouter wires handlers without services: every request here is expected
// to be answered by middleware or request decoding before a service is used.
func testRouter(db pinger) http.Handler {
	return newRouter(routerDeps{
		cfg: config.Config{
			JWTSecret:      testutil.TestSecret,
			AllowedOrigins: []string{"http://localhost:3000"},
			MaxBodyBytes:   1 << 20,
		},
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		handlers: handlers{
			books:      book.NewHTTPHandler(nil),
			borrowings: borrowing.NewHTTPHandler(nil),
			users:      user.NewHTTPHandler(nil),
			auth:       auth.NewHTTPHandler(nil),
			sessions:   session.NewHTTPHandler(nil),
		},
		blacklist: noBlacklist{},
		db:        db,
		limiter:   httpx.NewRateLimitMiddleware(100, 100),
	})
}

func TestV1Routing(t *testing.T) {
	router := testRouter(stubPinger{})
	userToken := testutil.GenerateTestToken(testutil.TestSecret, "u-1", user.RoleUser)
	staffToken := testutil.GenerateTestToken(testutil.TestSecret, "s-1", user.RoleStaff)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		token  string
		status int
	}{
		{"health", http.MethodGet, "/healthz", nil, "", http.StatusOK},
		{"unprefixed books", http.MethodGet, "/books", nil, "", http.StatusNotFound},
		{"create book anonymous", http.MethodPost, "/v1/books", nil, "", http.StatusUnauthorized},
		{"create book as user", http.MethodPost, "/v1/books", nil, userToken, http.StatusForbidden},
		{"create book as staff", http.MethodPost, "/v1/books", "{", staffToken, http.StatusBadRequest},
		{"delete book as user", http.MethodDelete, "/v1/books/1", nil, userToken, http.StatusForbidden},
		{"import as user", http.MethodPost, "/v1/books/import", nil, userToken, http.StatusForbidden},
		{"borrowings anonymous", http.MethodGet, "/v1/borrowings", nil, "", http.StatusUnauthorized},
		{"borrow with bad body", http.MethodPost, "/v1/borrowings", "{", userToken, http.StatusBadRequest},
		{"return with bad body", http.MethodPatch, "/v1/borrowings/1/return", "{", userToken, http.StatusBadRequest},
		{"me anonymous", http.MethodGet, "/v1/me", nil, "", http.StatusUnauthorized},
		{"register bad body", http.MethodPost, "/v1/users/register", "{", "", http.StatusBadRequest},
		{"expired token", http.MethodGet, "/v1/me/sessions", nil, testutil.GenerateExpiredToken(testutil.TestSecret, "u-1", user.RoleUser), http.StatusUnauthorized},
		{"wrong method", http.MethodDelete, "/v1/borrowings", nil, userToken, http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, testutil.NewRequestWithAuth(tt.method, tt.path, tt.body, tt.token))

			assert.Equal(t, tt.status, w.Code)
			assert.NotEmpty(t, w.Header().Get("X-Request-Id"))
		})
	}
}

func TestReadyz(t *testing.T) {
	w := httptest.NewRecorder()
	testRouter(stubPinger{}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	testRouter(stubPinger{err: errors.New("down")}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestCORSPreflight(t *testing.T) {
	r := httptest.NewRequest(http.MethodOptions, "/v1/books", nil)
	r.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	testRouter(stubPinger{}).ServeHTTP(w, r)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
}
