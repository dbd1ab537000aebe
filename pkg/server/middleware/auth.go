package middleware

import (
	"net/http"
	"strings"

	"github.com/quillworks/quill/pkg/security"
)

// TokenAuthenticator is middleware that validates bearer tokens.
type TokenAuthenticator struct {
	Signer *security.Signer
}

// NewTokenAuthenticator creates a new token authenticator middleware
func NewTokenAuthenticator(signer *security.Signer) *TokenAuthenticator {
	return &TokenAuthenticator{Signer: signer}
}

// Middleware returns an HTTP middleware that validates bearer tokens
// and stores the caller's identity on the request context.
func (a *TokenAuthenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")

		if len(authHeader) == 0 {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte("Authorization missing"))
			return
		}

		token, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte("Malformed authorization header"))
			return
		}

		claims, err := a.Signer.Parse(token)
		if err != nil {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte("Invalid authorization token"))
			return
		}

		ctx := WithIdentity(r.Context(), Identity{
			UserID:      claims.Subject,
			Username:    claims.Username,
			Role:        claims.Role,
			Permissions: claims.Permissions,
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
