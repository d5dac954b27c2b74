// Package adminauth guards the back-office routes. Redemption stays public;
// everything that mints tokens or reads the audit trail requires an
// authenticated admin.
package adminauth

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"ghostlogin/internal/admintoken"
	"ghostlogin/pkg/requestcontext"
)

// Validator verifies an admin bearer token.
type Validator interface {
	ValidateToken(tokenString string) (*admintoken.Claims, error)
}

func writeJSONError(w http.ResponseWriter, status int, errCode, errDesc string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(fmt.Appendf(nil, `{"error":%q,"error_description":%q}`, errCode, errDesc))
}

// RequireAdmin validates the Authorization header and stores the admin
// identity in the request context.
func RequireAdmin(validator Validator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			authHeader := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok || token == "" {
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "admin token required")
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized admin access",
					"request_id", requestcontext.RequestID(ctx),
					"error", err.Error(),
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "invalid or expired token")
				return
			}

			ctx = requestcontext.WithAdmin(ctx, requestcontext.Admin{
				ID:       claims.AdminID,
				Username: claims.Username,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
