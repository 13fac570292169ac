package google

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"excellerator/internal/domain"
)

func tokenInfoServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "tok+en/=", r.URL.Query().Get("id_token"))
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestVerifyIDToken_Valid(t *testing.T) {
	srv := tokenInfoServer(t, http.StatusOK, `{
		"iss":"https://accounts.google.com","aud":"client-1","sub":"42",
		"email":"jane@example.com","email_verified":"true","name":"Jane","picture":"https://pic"
	}`)

	claims, err := NewVerifierWithEndpoint("client-1", srv.URL).VerifyIDToken(context.Background(), "tok+en/=")

	require.NoError(t, err)
	assert.Equal(t, "42", claims.Subject)
	assert.Equal(t, "jane@example.com", claims.Email)
	assert.True(t, claims.EmailVerified)
	assert.Equal(t, "https://pic", claims.Picture)
}

func TestVerifyIDToken_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"wrong audience", http.StatusOK, `{"iss":"accounts.google.com","aud":"other","email":"a@b.c"}`},
		{"wrong issuer", http.StatusOK, `{"iss":"evil.example","aud":"client-1","email":"a@b.c"}`},
		{"google rejects", http.StatusBadRequest, `{"error":"invalid_token"}`},
		{"garbage body", http.StatusOK, `not json`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := tokenInfoServer(t, tt.status, tt.body)
			_, err := NewVerifierWithEndpoint("client-1", srv.URL).VerifyIDToken(context.Background(), "tok+en/=")
			assert.ErrorIs(t, err, domain.ErrSocialAuthTokenInvalid)
		})
	}
}

func TestVerifyIDToken_NoClientConfigured(t *testing.T) {
	_, err := NewVerifier("").VerifyIDToken(context.Background(), "tok")
	assert.ErrorIs(t, err, domain.ErrSocialAuthTokenInvalid)
}

func TestProvider(t *testing.T) {
	assert.Equal(t, "google", NewVerifier("x").Provider())
}
