package auth

import (
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"github.com/abgdnv/gomarket/pkg/web"
)

// BearerMiddleware rejects requests without a valid bearer token.
// When scope is not empty the token's space separated "scope" claim must contain it.
func BearerMiddleware(logger *slog.Logger, verifier Verifier, scope string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				web.RespondErrorCode(w, logger, http.StatusUnauthorized, "Authorization header is required")
				return
			}

			tokenString, found := strings.CutPrefix(authHeader, "Bearer ")
			if !found {
				web.RespondErrorCode(w, logger, http.StatusUnauthorized, "Bearer token is required")
				return
			}

			token, err := verifier.Verify(r.Context(), tokenString)
			if err != nil {
				web.RespondErrorCode(w, logger, http.StatusUnauthorized, "Invalid token")
				return
			}

			if scope != "" {
				var granted string
				if err := token.Get("scope", &granted); err != nil || !slices.Contains(strings.Fields(granted), scope) {
					web.RespondErrorCode(w, logger, http.StatusForbidden, "Missing required scope")
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}
