package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	fbauth "firebase.google.com/go/v4/auth"

	"github.com/joao-fontenele/storefront/internal/domain"
)

func TestTokenFromRequest(t *testing.T) {
	tests := []struct {
		name   string
		header string
		cookie string
		want   string
	}{
		{name: "bearer header", header: "Bearer abc123", want: "abc123"},
		{name: "case insensitive scheme", header: "bearer  abc123 ", want: "abc123"},
		{name: "cookie fallback", cookie: "from-cookie", want: "from-cookie"},
		{name: "header wins over cookie", header: "Bearer h", cookie: "c", want: "h"},
		{name: "non bearer scheme ignored", header: "Basic dXNlcjpwYXNz", want: ""},
		{name: "nothing", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/cart", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: SessionCookie, Value: tt.cookie})
			}

			if got := TokenFromRequest(req); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestHashToken(t *testing.T) {
	a := HashToken("token")
	if len(a) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(a))
	}
	if a != HashToken("token") {
		t.Error("hash must be deterministic")
	}
	if a == HashToken("other") {
		t.Error("different tokens must hash differently")
	}
}

func TestNewToken(t *testing.T) {
	first, err := NewToken()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := NewToken()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first == second {
		t.Error("tokens must be unique")
	}
	if len(first) != 43 {
		t.Errorf("expected 43 chars, got %d", len(first))
	}
}

func TestSessionStore_EmptyTokenSkipsStore(t *testing.T) {
	// A nil db would panic if the store were queried.
	store := NewSessionStore(nil)

	_, err := store.Authenticate(context.Background(), "  ")
	if !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected auth error, got %v", err)
	}
}

type fakeVerifier struct {
	uid string
	err error
}

func (f fakeVerifier) VerifyIDToken(_ context.Context, _ string) (*fbauth.Token, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &fbauth.Token{UID: f.uid}, nil
}

func TestFirebaseAuthenticator(t *testing.T) {
	t.Run("valid token", func(t *testing.T) {
		a := NewFirebaseAuthenticator(fakeVerifier{uid: "firebase-uid"})
		got, err := a.Authenticate(context.Background(), "id-token")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != "firebase-uid" {
			t.Errorf("expected firebase-uid, got %s", got)
		}
	})

	t.Run("rejected token", func(t *testing.T) {
		a := NewFirebaseAuthenticator(fakeVerifier{err: errors.New("token expired")})
		_, err := a.Authenticate(context.Background(), "id-token")
		if !errors.Is(err, domain.ErrUnauthenticated) {
			t.Fatalf("expected auth error, got %v", err)
		}
	})

	t.Run("empty token", func(t *testing.T) {
		a := NewFirebaseAuthenticator(fakeVerifier{err: errors.New("must not be called")})
		_, err := a.Authenticate(context.Background(), "")
		if domain.KindOf(err) != domain.KindAuth {
			t.Fatalf("expected auth kind, got %v", err)
		}
	})
}
