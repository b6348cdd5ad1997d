package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// contextKey is unexported so only this package can read or write the
// authenticated identity in a request context.
type contextKey string

const userIDKey contextKey = "userID"

// AccessTokenCookie and RefreshTokenCookie are the cookie names the API sets
// on login and refresh. Both are HttpOnly so scripts cannot read them.
const (
	AccessTokenCookie  = "accessToken"
	RefreshTokenCookie = "refreshToken"
)

// RequireAuth enforces authentication on protected routes.
//
// The access token is read from the accessToken cookie or, failing that,
// from an Authorization: Bearer header (for non-browser clients). On
// success the user ID lands in the request context; otherwise the chain
// stops with 401.
func RequireAuth(tokens *TokenIssuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := authenticate(r, tokens)
			if err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				fmt.Fprintln(w, `{"error":"unauthorized","message":"valid authentication required"}`)
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth attaches the identity when a valid token is present but never
// blocks the request. Used on public routes whose responses are richer for a
// logged-in viewer, like the channel profile's isSubscribed flag.
func OptionalAuth(tokens *TokenIssuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if userID, err := authenticate(r, tokens); err == nil && userID != "" {
				r = r.WithContext(context.WithValue(r.Context(), userIDKey, userID))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// UserIDFromContext returns the authenticated user ID, or ("", false) for an
// anonymous request.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}

func authenticate(r *http.Request, tokens *TokenIssuer) (string, error) {
	if cookie, err := r.Cookie(AccessTokenCookie); err == nil && cookie.Value != "" {
		return tokens.VerifyAccessToken(cookie.Value)
	}

	header := r.Header.Get("Authorization")
	if after, ok := strings.CutPrefix(header, "Bearer "); ok {
		return tokens.VerifyAccessToken(after)
	}

	return "", http.ErrNoCookie
}
