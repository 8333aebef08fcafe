package httpapi

import (
	"context"
	"net/http"

	"github.com/dmitrijs2005/goblog/internal/logging"
	"github.com/dmitrijs2005/goblog/internal/server/auth"
	"github.com/dmitrijs2005/goblog/internal/server/revocation"
)

// authCookieName is the cookie carrying the bearer token.
const authCookieName = "auth_token"

type ctxKeyUserID struct{}
type ctxKeyToken struct{}

// userID returns the authenticated subject, or "" for anonymous requests.
func userID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKeyUserID{}).(string)
	return id
}

// bearerToken returns the raw token the request authenticated with.
func bearerToken(ctx context.Context) string {
	token, _ := ctx.Value(ctxKeyToken{}).(string)
	return token
}

type authenticator struct {
	secret      []byte
	revocations *revocation.Store
	logger      logging.Logger
}

// authenticate resolves the request to a subject id, or "" when the request
// carries no usable credential. A missing, malformed, expired or revoked
// token all land in the same anonymous outcome so a caller cannot probe which
// failure it was. Only a revocation backend failure surfaces as an error.
func (a *authenticator) authenticate(r *http.Request) (string, string, error) {
	cookie, err := r.Cookie(authCookieName)
	if err != nil || cookie.Value == "" {
		return "", "", nil
	}
	token := cookie.Value

	subject, _, err := auth.ParseToken(token, a.secret)
	if err != nil {
		return "", "", nil
	}

	revoked, err := a.revocations.IsRevoked(r.Context(), token)
	if err != nil {
		return "", "", err
	}
	if revoked {
		return "", "", nil
	}

	return subject, token, nil
}

func (a *authenticator) middleware(require bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			subject, token, err := a.authenticate(r)
			if err != nil {
				a.logger.Error(r.Context(), "authentication backend failure", "error", err)
				writeJSON(w, http.StatusInternalServerError, errorBody("Internal server error"))
				return
			}

			if subject == "" {
				if require {
					writeJSON(w, http.StatusUnauthorized, errorBody("Unauthorized"))
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), ctxKeyUserID{}, subject)
			ctx = context.WithValue(ctx, ctxKeyToken{}, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func (a *authenticator) required(next http.Handler) http.Handler {
	return a.middleware(true)(next)
}

func (a *authenticator) optional(next http.Handler) http.Handler {
	return a.middleware(false)(next)
}
