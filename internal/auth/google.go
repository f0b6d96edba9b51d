// Package auth verifies federated identity tokens.
package auth

import (
	"context"
	"fmt"

	"google.golang.org/api/idtoken"
)

// Profile is the identity extracted from a verified provider token.
type Profile struct {
	Subject string
	Email   string
	Name    string
	Picture string
}

// TokenVerifier validates a raw provider ID token and returns the
// caller's profile.
type TokenVerifier interface {
	Verify(ctx context.Context, rawToken string) (*Profile, error)
}

// GoogleVerifier validates Google ID tokens against the configured
// OAuth client ID.
type GoogleVerifier struct {
	clientID string
}

// NewGoogleVerifier creates a verifier for the given client ID.
func NewGoogleVerifier(clientID string) *GoogleVerifier {
	return &GoogleVerifier{clientID: clientID}
}

// Verify checks the token signature, expiry and audience.
func (v *GoogleVerifier) Verify(ctx context.Context, rawToken string) (*Profile, error) {
	payload, err := idtoken.Validate(ctx, rawToken, v.clientID)
	if err != nil {
		return nil, fmt.Errorf("validate google id token: %w", err)
	}

	profile := &Profile{
		Subject: payload.Subject,
		Email:   claimString(payload.Claims, "email"),
		Name:    claimString(payload.Claims, "name"),
		Picture: claimString(payload.Claims, "picture"),
	}
	if profile.Email == "" {
		return nil, fmt.Errorf("google id token has no email claim")
	}
	return profile, nil
}

func claimString(claims map[string]interface{}, key string) string {
	if v, ok := claims[key].(string); ok {
		return v
	}
	return ""
}
