package port

import "context"

// SocialAuthClaims holds the verified claims from a social identity provider.
type SocialAuthClaims struct {
	Subject       string // provider user id, Google "sub"
	Email         string
	EmailVerified bool
	FullName      string
	Picture       string
}

// SocialTokenVerifier validates an ID token from a social identity provider.
type SocialTokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*SocialAuthClaims, error)
	Provider() string
}
