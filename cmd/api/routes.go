package main

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"libraryapi/internal/auth"
	"libraryapi/internal/book"
	"libraryapi/internal/borrowing"
	"libraryapi/internal/config"
	"libraryapi/internal/httpx"
	"libraryapi/internal/session"
	"libraryapi/internal/user"
)

type pinger interface {
	Ping(ctx context.Context) error
}

type handlers struct {
	books      *book.HTTPHandler
	borrowings *borrowing.HTTPHandler
	users      *user.HTTPHandler
	auth       *auth.HTTPHandler
	sessions   *session.HTTPHandler
}

type routerDeps struct {
	cfg       config.Config
	logger    *slog.Logger
	handlers  handlers
	blacklist httpx.BlacklistChecker
	db        pinger
	limiter   *httpx.RateLimitMiddleware
}

func newRouter(d routerDeps) http.Handler {
	h := d.handlers
	authed := httpx.AuthMiddleware(d.cfg.JWTSecret, d.blacklist)
	staff := func(fn http.HandlerFunc) http.Handler {
		return authed(httpx.RequireRole(user.RoleStaff)(fn))
	}
	limited := func(fn http.HandlerFunc) http.Handler {
		return d.limiter.Middleware(fn)
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()
		if err := d.db.Ping(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	mux.HandleFunc("GET /v1/books", h.books.List)
	mux.HandleFunc("GET /v1/books/{id}", h.books.Get)
	mux.Handle("POST /v1/books", staff(h.books.Create))
	mux.Handle("POST /v1/books/import", staff(h.books.Import))
	mux.Handle("PUT /v1/books/{id}", staff(h.books.Update))
	mux.Handle("PATCH /v1/books/{id}", staff(h.books.Patch))
	mux.Handle("DELETE /v1/books/{id}", staff(h.books.Delete))

	mux.Handle("GET /v1/borrowings", authed(http.HandlerFunc(h.borrowings.List)))
	mux.Handle("POST /v1/borrowings", authed(http.HandlerFunc(h.borrowings.Create)))
	mux.Handle("GET /v1/borrowings/{id}", authed(http.HandlerFunc(h.borrowings.Get)))
	mux.Handle("PUT /v1/borrowings/{id}/return", authed(http.HandlerFunc(h.borrowings.Return)))
	mux.Handle("PATCH /v1/borrowings/{id}/return", authed(http.HandlerFunc(h.borrowings.Return)))

	mux.Handle("POST /v1/users/register", limited(h.users.RegisterUser))
	mux.Handle("POST /v1/users/login", limited(h.auth.Login))
	mux.Handle("POST /v1/auth/refresh", limited(h.auth.RefreshToken))
	mux.Handle("POST /v1/auth/logout", authed(http.HandlerFunc(h.auth.Logout)))

	mux.Handle("GET /v1/me", authed(http.HandlerFunc(h.users.GetCurrentUser)))
	mux.Handle("GET /v1/me/sessions", authed(http.HandlerFunc(h.sessions.ListSessions)))
	mux.Handle("DELETE /v1/me/sessions/{id}", authed(http.HandlerFunc(h.sessions.DeleteSession)))

	return httpx.Chain(mux,
		httpx.RequestIDMiddleware,
		httpx.AccessLogMiddleware(d.logger),
		httpx.RecoveryMiddleware(d.logger),
		httpx.SecurityHeadersMiddleware(d.cfg.EnableHSTS),
		httpx.CORSMiddleware(d.cfg.AllowedOrigins),
		httpx.RequestSizeLimitMiddleware(d.cfg.MaxBodyBytes),
	)
}
