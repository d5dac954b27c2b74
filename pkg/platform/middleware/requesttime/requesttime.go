// Package requesttime freezes one "now" per HTTP request. Every expiry
// comparison, audit timestamp, and session lifetime within a request reads
// the same instant.
package requesttime

import (
	"net/http"
	"time"

	"ghostlogin/pkg/requestcontext"
)

// Middleware captures the current time at the start of the request and
// stores it in the context.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now().UTC())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
