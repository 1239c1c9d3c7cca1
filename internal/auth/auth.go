// Package auth resolves session tokens to user ids. Every cart, address and
// checkout operation takes the caller's token explicitly and asks an
// Authenticator who it belongs to.
package auth

import (
	"context"
	"net/http"
	"strings"
)

const SessionCookie = "session_token"

type Authenticator interface {
	// Authenticate returns the id of the user owning token, or a
	// domain.AuthError when the token is missing, unknown or expired.
	Authenticate(ctx context.Context, token string) (string, error)
}

type AuthenticatorFunc func(ctx context.Context, token string) (string, error)

func (f AuthenticatorFunc) Authenticate(ctx context.Context, token string) (string, error) {
	return f(ctx, token)
}

// TokenFromRequest reads the bearer token, falling back to the session
// cookie. It returns "" when neither is present.
func TokenFromRequest(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		scheme, token, ok := strings.Cut(header, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
	}

	if cookie, err := r.Cookie(SessionCookie); err == nil {
		return strings.TrimSpace(cookie.Value)
	}

	return ""
}
