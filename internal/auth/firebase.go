package auth

import (
	"context"
	"fmt"
	"strings"

	firebase "firebase.google.com/go/v4"
	fbauth "firebase.google.com/go/v4/auth"

	"github.com/joao-fontenele/storefront/internal/domain"
)

// TokenVerifier is the part of the Firebase auth client used here.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*fbauth.Token, error)
}

// FirebaseAuthenticator accepts Firebase ID tokens as session tokens; the
// Firebase UID becomes the user id.
type FirebaseAuthenticator struct {
	verifier TokenVerifier
}

func NewFirebaseAuthenticator(verifier TokenVerifier) *FirebaseAuthenticator {
	return &FirebaseAuthenticator{verifier: verifier}
}

// NewFirebaseClient initialises the Firebase app with application default
// credentials.
func NewFirebaseClient(ctx context.Context, projectID string) (*fbauth.Client, error) {
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID})
	if err != nil {
		return nil, fmt.Errorf("init firebase app: %w", err)
	}

	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("init firebase auth: %w", err)
	}

	return client, nil
}

func (a *FirebaseAuthenticator) Authenticate(ctx context.Context, token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", domain.AuthError("missing session token")
	}

	verified, err := a.verifier.VerifyIDToken(ctx, token)
	if err != nil {
		return "", &domain.Error{Kind: domain.KindAuth, Message: "invalid or expired session", Err: err}
	}

	uid := strings.TrimSpace(verified.UID)
	if uid == "" {
		return "", domain.AuthError("invalid or expired session")
	}

	return uid, nil
}
