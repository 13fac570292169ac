package google

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"excellerator/internal/domain"
	"excellerator/internal/port"
)

// ProviderName identifies Google sign-in.
const ProviderName = "google"

const tokenInfoURL = "https://oauth2.googleapis.com/tokeninfo"

type tokenInfoResponse struct {
	Iss           string `json:"iss"`
	Aud           string `json:"aud"`
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified string `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
	Exp           string `json:"exp"`
}

// Verifier validates Google ID tokens via the tokeninfo endpoint.
type Verifier struct {
	clientID   string
	endpoint   string
	httpClient *http.Client
}

// NewVerifier creates a Google ID token verifier for the given OAuth client.
func NewVerifier(clientID string) *Verifier {
	return NewVerifierWithEndpoint(clientID, tokenInfoURL)
}

// NewVerifierWithEndpoint is NewVerifier against a different tokeninfo URL.
func NewVerifierWithEndpoint(clientID, endpoint string) *Verifier {
	return &Verifier{
		clientID: clientID,
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (v *Verifier) VerifyIDToken(ctx context.Context, idToken string) (*port.SocialAuthClaims, error) {
	if v.clientID == "" || idToken == "" {
		return nil, domain.ErrSocialAuthTokenInvalid
	}

	reqURL := v.endpoint + "?" + url.Values{"id_token": {idToken}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating tokeninfo request: %w", err)
	}

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return nil, domain.ErrSocialAuthTokenInvalid
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, domain.ErrSocialAuthTokenInvalid
	}

	var info tokenInfoResponse
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, domain.ErrSocialAuthTokenInvalid
	}

	if info.Aud != v.clientID {
		return nil, domain.ErrSocialAuthTokenInvalid
	}
	if info.Iss != "accounts.google.com" && info.Iss != "https://accounts.google.com" {
		return nil, domain.ErrSocialAuthTokenInvalid
	}

	return &port.SocialAuthClaims{
		Subject:       info.Sub,
		Email:         info.Email,
		EmailVerified: info.EmailVerified == "true",
		FullName:      info.Name,
		Picture:       info.Picture,
	}, nil
}

func (v *Verifier) Provider() string {
	return ProviderName
}

var _ port.SocialTokenVerifier = (*Verifier)(nil)
