package service

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"excellerator/internal/config"
	"excellerator/internal/domain"
	"excellerator/internal/port"
)

// Claims represents the JWT claims identifying a signed-in user.
type Claims struct {
	jwt.RegisteredClaims
	Email    string `json:"email"`
	Name     string `json:"name,omitempty"`
	Picture  string `json:"picture,omitempty"`
	Provider string `json:"provider"`
}

// TokenPair holds access and refresh tokens.
type TokenPair struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Identity is the signed-in user as reported by the identity provider.
type Identity struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Picture  string `json:"picture,omitempty"`
	Provider string `json:"provider"`
}

// SocialLoginInput is the DTO for social login requests.
type SocialLoginInput struct {
	Provider string `json:"provider"`
	IDToken  string `json:"id_token" binding:"required"`
}

// RefreshInput is the DTO for token refresh requests.
type RefreshInput struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// SocialLoginOutput contains the results of a social login.
type SocialLoginOutput struct {
	User   Identity   `json:"user"`
	Tokens *TokenPair `json:"tokens"`
}

// AuthService defines the authentication contract. There is no local user
// store: the identity travels in the signed tokens.
type AuthService interface {
	SocialLogin(ctx context.Context, input SocialLoginInput) (*SocialLoginOutput, error)
	RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error)
	ValidateToken(tokenString string) (*Claims, error)
}

type authService struct {
	verifiers map[string]port.SocialTokenVerifier
	cfg       config.JWTConfig
}

// NewAuthService creates a new AuthService. verifiers is keyed by provider
// name; a login without a provider uses "google".
func NewAuthService(verifiers map[string]port.SocialTokenVerifier, cfg config.JWTConfig) AuthService {
	return &authService{verifiers: verifiers, cfg: cfg}
}

func (s *authService) SocialLogin(ctx context.Context, input SocialLoginInput) (*SocialLoginOutput, error) {
	provider := strings.ToLower(strings.TrimSpace(input.Provider))
	if provider == "" {
		provider = "google"
	}
	verifier, ok := s.verifiers[provider]
	if !ok {
		return nil, fmt.Errorf("unsupported social auth provider %q: %w", input.Provider, domain.ErrSocialAuthTokenInvalid)
	}

	claims, err := verifier.VerifyIDToken(ctx, input.IDToken)
	if err != nil {
		return nil, domain.ErrSocialAuthTokenInvalid
	}
	if claims.Email == "" {
		return nil, domain.ErrSocialAuthEmailMissing
	}
	if !claims.EmailVerified {
		return nil, fmt.Errorf("email not verified by %s: %w", provider, domain.ErrSocialAuthTokenInvalid)
	}

	user := Identity{
		Email:    strings.ToLower(claims.Email),
		Name:     claims.FullName,
		Picture:  claims.Picture,
		Provider: verifier.Provider(),
	}
	tokens, err := s.generateTokenPair(user)
	if err != nil {
		return nil, err
	}
	return &SocialLoginOutput{User: user, Tokens: tokens}, nil
}

func (s *authService) RefreshToken(_ context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.validateTokenString(refreshToken, "refresh")
	if err != nil {
		return nil, domain.ErrUnauthorized
	}
	return s.generateTokenPair(Identity{
		Email:    claims.Email,
		Name:     claims.Name,
		Picture:  claims.Picture,
		Provider: claims.Provider,
	})
}

func (s *authService) ValidateToken(tokenString string) (*Claims, error) {
	return s.validateTokenString(tokenString, "access")
}

func (s *authService) generateTokenPair(user Identity) (*TokenPair, error) {
	now := time.Now()
	accessExpiry := now.Add(s.cfg.AccessTokenExpiry)

	access, err := s.sign(user, "access", now, accessExpiry)
	if err != nil {
		return nil, fmt.Errorf("signing access token: %w", err)
	}
	refresh, err := s.sign(user, "refresh", now, now.Add(s.cfg.RefreshTokenExpiry))
	if err != nil {
		return nil, fmt.Errorf("signing refresh token: %w", err)
	}

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    accessExpiry,
	}, nil
}

func (s *authService) sign(user Identity, audience string, issuedAt, expiresAt time.Time) (string, error) {
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Email,
			Issuer:    s.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.New().String(),
			Audience:  jwt.ClaimStrings{audience},
		},
		Email:    user.Email,
		Name:     user.Name,
		Picture:  user.Picture,
		Provider: user.Provider,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.Secret))
}

func (s *authService) validateTokenString(tokenString, audience string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.cfg.Secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("parsing token: %w", err)
	}
	if !token.Valid || claims.Email == "" {
		return nil, domain.ErrUnauthorized
	}

	aud, _ := claims.GetAudience()
	if !slices.Contains(aud, audience) {
		return nil, domain.ErrUnauthorized
	}
	return claims, nil
}
