package config

import (
	"context"
	"errors"
	"fmt"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
)

// ResolveSecret reads the payload of a Secret Manager version. name is a
// full resource name, e.g. projects/p/secrets/stripe-key/versions/latest.
func ResolveSecret(ctx context.Context, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errors.New("secret name is empty")
	}

	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return "", fmt.Errorf("create secret manager client: %w", err)
	}
	defer func() { _ = client.Close() }()

	resp, err := client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{Name: name})
	if err != nil {
		return "", fmt.Errorf("access secret version %s: %w", name, err)
	}
	if resp.GetPayload() == nil {
		return "", fmt.Errorf("secret %s has an empty payload", name)
	}

	return strings.TrimSpace(string(resp.GetPayload().GetData())), nil
}

// StripeKey returns the configured Stripe secret key, falling back to Secret
// Manager when only the secret's resource name is set. An empty result means
// payments are not configured.
func (c Config) StripeKey(ctx context.Context) (string, error) {
	if c.StripeSecretKey != "" {
		return c.StripeSecretKey, nil
	}
	if c.StripeSecretKeySecret == "" {
		return "", nil
	}
	return ResolveSecret(ctx, c.StripeSecretKeySecret)
}
