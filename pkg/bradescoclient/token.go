/**
 * @description
 * OAuth2 token acquisition for the Bradesco Open API using the JWT bearer
 * assertion flow (RS256, signed with the registered private key). Tokens are
 * cached process-wide and reused until shortly before expiry.
 *
 * When credentials are not configured the provider degrades to a simulated
 * token so billing flows stay exercisable in disconnected environments.
 */
package bradescoclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/JhonatanGabrelTI/Iaudit.alanturing.com/internal/domain"
)

const (
	tokenPath = "/auth/server/v1.1/token"

	// Safety margin against clock skew and in-flight use of an expiring token.
	tokenReuseMargin = 60 * time.Second
)

// TokenProvider obtains and caches bearer tokens for the Bradesco API.
type TokenProvider struct {
	tokenURL       string
	clientID       string
	privateKeyPath string
	httpClient     *http.Client
	logger         *slog.Logger

	mu        sync.Mutex
	cached    string
	expiresAt time.Time
	now       func() time.Time
}

// NewTokenProvider creates a token provider for the given API base URL.
func NewTokenProvider(baseURL, clientID, privateKeyPath string, logger *slog.Logger) *TokenProvider {
	return &TokenProvider{
		tokenURL:       baseURL + tokenPath,
		clientID:       clientID,
		privateKeyPath: privateKeyPath,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
		now:    time.Now,
	}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

// GetToken returns a cached token while it is still comfortably valid,
// otherwise performs a signed-assertion exchange. Missing credentials yield
// a simulated token; a key parse failure or a non-2xx exchange response is
// fatal for the current operation.
func (p *TokenProvider) GetToken(ctx context.Context) (domain.Token, error) {
	if p.clientID == "" || p.privateKeyPath == "" {
		p.logger.Warn("bradesco credentials not fully configured, running in simulated mode")
		return domain.Token{Simulated: true}, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cached != "" && p.now().Before(p.expiresAt.Add(-tokenReuseMargin)) {
		return domain.Token{Value: p.cached}, nil
	}

	assertion, err := p.signAssertion()
	if err != nil {
		return domain.Token{}, err
	}

	form := url.Values{}
	form.Set("grant_type", "urn:ietf:params:oauth:grant-type:jwt-bearer")
	form.Set("assertion", assertion)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return domain.Token{}, fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return domain.Token{}, fmt.Errorf("token exchange failed: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return domain.Token{}, fmt.Errorf("token endpoint returned status %d: %s", resp.StatusCode, string(body))
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return domain.Token{}, fmt.Errorf("failed to decode token response: %w", err)
	}
	if tr.ExpiresIn <= 0 {
		tr.ExpiresIn = 3600
	}

	p.cached = tr.AccessToken
	p.expiresAt = p.now().Add(time.Duration(tr.ExpiresIn) * time.Second)

	return domain.Token{Value: p.cached}, nil
}

// signAssertion builds and signs the JWT claim set required by the exchange.
func (p *TokenProvider) signAssertion() (string, error) {
	keyPEM, err := os.ReadFile(p.privateKeyPath)
	if err != nil {
		return "", fmt.Errorf("failed to read private key: %w", err)
	}

	key, err := jwt.ParseRSAPrivateKeyFromPEM(keyPEM)
	if err != nil {
		return "", fmt.Errorf("failed to parse private key: %w", err)
	}

	now := p.now()
	claims := jwt.MapClaims{
		"aud": p.tokenURL,
		"sub": p.clientID,
		"iat": now.Unix(),
		"exp": now.Add(time.Hour).Unix(),
		"jti": uuid.New().String(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	if err != nil {
		return "", fmt.Errorf("failed to sign assertion: %w", err)
	}
	return signed, nil
}
