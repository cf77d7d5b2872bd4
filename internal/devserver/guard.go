package devserver

import (
	"context"
	"net/http"
	"strings"

	"github.com/MrEthical07/authflow/internal/token"
)

type claimsContextKey struct{}

// ClaimsFromContext returns the claims Guard attached to the request.
func ClaimsFromContext(ctx context.Context) (*token.Claims, bool) {
	claims, ok := ctx.Value(claimsContextKey{}).(*token.Claims)
	return claims, ok
}

// Guard rejects requests without a valid bearer token.
func Guard(tokens *token.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if tokens == nil {
				writeJSON(w, http.StatusUnauthorized, failure{Code: "unauthorized"})
				return
			}

			raw, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				writeJSON(w, http.StatusUnauthorized, failure{Code: "missing_token"})
				return
			}

			claims, err := tokens.Parse(raw)
			if err != nil {
				writeJSON(w, http.StatusUnauthorized, failure{Code: "invalid_token"})
				return
			}

			ctx := context.WithValue(r.Context(), claimsContextKey{}, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	tok := value[len(bearer):]
	if tok == "" {
		return "", false
	}

	return tok, true
}
