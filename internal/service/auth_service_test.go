package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"excellerator/internal/config"
	"excellerator/internal/domain"
	"excellerator/internal/port"
	"excellerator/internal/service"
	"excellerator/mocks"
)

var testJWTConfig = config.JWTConfig{
	Secret:             "test-secret-key-for-testing-only",
	AccessTokenExpiry:  15 * time.Minute,
	RefreshTokenExpiry: time.Hour,
	Issuer:             "excellerator-test",
}

func newAuth(verifier *mocks.MockSocialTokenVerifier) service.AuthService {
	verifier.On("Provider").Return("google").Maybe()
	return service.NewAuthService(map[string]port.SocialTokenVerifier{"google": verifier}, testJWTConfig)
}

func TestSocialLogin_Success(t *testing.T) {
	verifier := new(mocks.MockSocialTokenVerifier)
	verifier.On("VerifyIDToken", mock.Anything, "good-token").Return(&port.SocialAuthClaims{
		Subject: "123", Email: "Jane@Example.com", EmailVerified: true, FullName: "Jane",
	}, nil)
	svc := newAuth(verifier)

	out, err := svc.SocialLogin(context.Background(), service.SocialLoginInput{IDToken: "good-token"})

	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", out.User.Email)
	assert.Equal(t, "google", out.User.Provider)

	claims, err := svc.ValidateToken(out.Tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", claims.Email)
	assert.Equal(t, "Jane", claims.Name)
}

func TestSocialLogin_InvalidToken(t *testing.T) {
	verifier := new(mocks.MockSocialTokenVerifier)
	verifier.On("VerifyIDToken", mock.Anything, "bad").Return(nil, errors.New("expired"))

	_, err := newAuth(verifier).SocialLogin(context.Background(), service.SocialLoginInput{IDToken: "bad"})

	assert.ErrorIs(t, err, domain.ErrSocialAuthTokenInvalid)
}

func TestSocialLogin_UnverifiedEmail(t *testing.T) {
	verifier := new(mocks.MockSocialTokenVerifier)
	verifier.On("VerifyIDToken", mock.Anything, "tok").Return(&port.SocialAuthClaims{Email: "a@b.c"}, nil)

	_, err := newAuth(verifier).SocialLogin(context.Background(), service.SocialLoginInput{IDToken: "tok"})

	assert.ErrorIs(t, err, domain.ErrSocialAuthTokenInvalid)
}

func TestSocialLogin_MissingEmail(t *testing.T) {
	verifier := new(mocks.MockSocialTokenVerifier)
	verifier.On("VerifyIDToken", mock.Anything, "tok").Return(&port.SocialAuthClaims{EmailVerified: true}, nil)

	_, err := newAuth(verifier).SocialLogin(context.Background(), service.SocialLoginInput{IDToken: "tok"})

	assert.ErrorIs(t, err, domain.ErrSocialAuthEmailMissing)
}

func TestSocialLogin_UnknownProvider(t *testing.T) {
	_, err := newAuth(new(mocks.MockSocialTokenVerifier)).SocialLogin(context.Background(),
		service.SocialLoginInput{Provider: "myspace", IDToken: "tok"})

	assert.ErrorIs(t, err, domain.ErrSocialAuthTokenInvalid)
}

func TestRefreshToken(t *testing.T) {
	verifier := new(mocks.MockSocialTokenVerifier)
	verifier.On("VerifyIDToken", mock.Anything, "tok").Return(&port.SocialAuthClaims{
		Email: "jane@example.com", EmailVerified: true,
	}, nil)
	svc := newAuth(verifier)
	out, err := svc.SocialLogin(context.Background(), service.SocialLoginInput{IDToken: "tok"})
	require.NoError(t, err)

	pair, err := svc.RefreshToken(context.Background(), out.Tokens.RefreshToken)
	require.NoError(t, err)
	claims, err := svc.ValidateToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", claims.Email)

	_, err = svc.RefreshToken(context.Background(), out.Tokens.AccessToken)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestValidateToken_RejectsRefreshAndGarbage(t *testing.T) {
	verifier := new(mocks.MockSocialTokenVerifier)
	verifier.On("VerifyIDToken", mock.Anything, "tok").Return(&port.SocialAuthClaims{
		Email: "jane@example.com", EmailVerified: true,
	}, nil)
	svc := newAuth(verifier)
	out, err := svc.SocialLogin(context.Background(), service.SocialLoginInput{IDToken: "tok"})
	require.NoError(t, err)

	_, err = svc.ValidateToken(out.Tokens.RefreshToken)
	assert.Error(t, err)
	_, err = svc.ValidateToken("not-a-jwt")
	assert.Error(t, err)
}
