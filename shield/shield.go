// Package shield provides the HTTP hardening middleware for the sitechat
// API: security headers, per-IP rate limiting, and HEAD handling.
//
// Usage:
//
//	r := chi.NewRouter()
//	r.Use(shield.SecurityHeaders(shield.DefaultHeaders()))
//	r.Use(shield.NewRateLimiter(shield.DefaultLimits()).Middleware)
//	r.Use(shield.HeadToGet)
package shield

import "net/http"

// DefaultStack returns the standard middleware stack for the public API.
// Order: HeadToGet → SecurityHeaders → RateLimiter.
func DefaultStack() []func(http.Handler) http.Handler {
	rl := NewRateLimiter(DefaultLimits())
	return []func(http.Handler) http.Handler{
		HeadToGet,
		SecurityHeaders(DefaultHeaders()),
		rl.Middleware,
	}
}

// HeadToGet converts HEAD requests to GET so that route handlers registered
// with r.Get() respond with 200 instead of 405 (Method Not Allowed).
// Go's net/http automatically strips the body for HEAD responses.
func HeadToGet(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			r.Method = http.MethodGet
		}
		next.ServeHTTP(w, r)
	})
}
