// Package sheetsauth is the auth-token provider (C1): it mints and
// caches short-lived access tokens for the spreadsheet-backed store by
// signing and exchanging an RS256 service-account JWT assertion.
package sheetsauth

import (
	"context"
	"crypto/rsa"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/zeventbooks/eventgateway/config"
	"github.com/zeventbooks/eventgateway/store"
)

const (
	scope     = "https://www.googleapis.com/auth/spreadsheets"
	grantType = "urn:ietf:params:oauth:grant-type:jwt-bearer"
	// expiryBuffer is how long before the real expiry a cached token is
	// treated as stale, matching the "expiry - 60s" rule in §3/§4.1.
	expiryBuffer = 60 * time.Second
	// mintWait bounds how long a concurrent caller waits on an in-flight
	// single-flight mint before giving up (§5).
	mintWait = 10 * time.Second
)

// RedisCache is the subset of redisclient.Client the provider needs to
// share a minted token across gateway replicas. Optional: when nil the
// provider caches in-process only.
type RedisCache interface {
	GetToken(ctx context.Context) (token string, expiryEpoch int64, ok bool)
	SetToken(ctx context.Context, token string, expiryEpoch int64, ttl time.Duration) error
}

// Provider mints and caches access tokens per §4.1. It is safe for
// concurrent use; minting is single-flighted behind a plain
// sync.Mutex, matching the teacher's double-checked connection-pool
// locking pattern rather than a busy poll.
type Provider struct {
	clientEmail string
	privateKey  *rsa.PrivateKey
	tokenURL    string
	httpClient  *http.Client
	logger      zerolog.Logger
	redis       RedisCache

	mu     sync.Mutex
	token  string
	expiry time.Time
}

// New builds a Provider from configuration. If the PEM-encoded private
// key is absent or malformed, AccessToken will fail with
// store.NotConfigured rather than erroring here, so startup never
// aborts on bad credentials in dev.
func New(cfg *config.Config, logger zerolog.Logger, redis RedisCache) *Provider {
	p := &Provider{
		clientEmail: cfg.GoogleClientEmail,
		tokenURL:    "https://oauth2.googleapis.com/token",
		httpClient:  &http.Client{Timeout: cfg.StoreTimeout},
		logger:      logger.With().Str("component", "sheetsauth").Logger(),
		redis:       redis,
	}
	if key, err := parsePrivateKey(cfg.GooglePrivateKey); err == nil {
		p.privateKey = key
	}
	return p
}

func parsePrivateKey(pemKey string) (*rsa.PrivateKey, error) {
	if pemKey == "" {
		return nil, fmt.Errorf("no private key configured")
	}
	normalized := strings.ReplaceAll(pemKey, `\n`, "\n")
	return jwt.ParseRSAPrivateKeyFromPEM([]byte(normalized))
}

// AccessToken implements store.TokenSource.
func (p *Provider) AccessToken(ctx context.Context) (string, error) {
	if p.clientEmail == "" || p.privateKey == nil {
		return "", &store.Error{Kind: store.NotConfigured, Message: "google service account credentials are not configured"}
	}

	if tok, ok := p.cachedLocal(); ok {
		return tok, nil
	}

	if p.redis != nil {
		if tok, expiry, ok := p.redis.GetToken(ctx); ok {
			p.adoptRemote(tok, expiry)
			return tok, nil
		}
	}

	ctx, cancel := context.WithTimeout(ctx, mintWait)
	defer cancel()

	done := make(chan struct{})
	var tok string
	var mintErr error

	go func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		// Re-check: another goroutine may have minted while we waited
		// for the lock.
		if t, ok := p.cachedLocalLocked(); ok {
			tok = t
			close(done)
			return
		}
		var expiresIn int64
		tok, expiresIn, mintErr = p.mint(ctx)
		if mintErr == nil {
			if expiresIn <= 0 {
				expiresIn = 3600
			}
			p.token = tok
			p.expiry = time.Now().Add(time.Duration(expiresIn) * time.Second)
			if p.redis != nil {
				ttl := time.Duration(expiresIn)*time.Second - expiryBuffer
				_ = p.redis.SetToken(ctx, tok, p.expiry.Unix(), ttl)
			}
		}
		close(done)
	}()

	select {
	case <-done:
		if mintErr != nil {
			return "", mintErr
		}
		return tok, nil
	case <-ctx.Done():
		return "", &store.Error{Kind: store.UpstreamTransient, Message: "timed out waiting for access token"}
	}
}

func (p *Provider) cachedLocal() (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cachedLocalLocked()
}

func (p *Provider) cachedLocalLocked() (string, bool) {
	if p.token != "" && time.Now().Before(p.expiry.Add(-expiryBuffer)) {
		return p.token, true
	}
	return "", false
}

func (p *Provider) adoptRemote(token string, expiryEpoch int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	expiry := time.Unix(expiryEpoch, 0)
	if expiry.After(p.expiry) {
		p.token = token
		p.expiry = expiry
	}
}

// mint signs and exchanges a fresh JWT assertion. Caller must hold p.mu.
func (p *Provider) mint(ctx context.Context) (string, int64, error) {
	assertion, err := p.signedAssertion(time.Now())
	if err != nil {
		return "", 0, &store.Error{Kind: store.NotConfigured, Message: "failed to sign service-account assertion"}
	}

	form := url.Values{}
	form.Set("grant_type", grantType)
	form.Set("assertion", assertion)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", 0, &store.Error{Kind: store.Internal, Message: "failed to build token exchange request"}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", 0, &store.Error{Kind: store.UpstreamTransient, Message: "network error exchanging token"}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		return "", 0, &store.Error{Kind: store.AuthFailed, Message: fmt.Sprintf("token exchange rejected (%d)", resp.StatusCode)}
	}
	if resp.StatusCode >= 500 {
		return "", 0, &store.Error{Kind: store.UpstreamTransient, Message: fmt.Sprintf("token endpoint unavailable (%d)", resp.StatusCode)}
	}

	var body struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", 0, &store.Error{Kind: store.Internal, Message: "failed to decode token response"}
	}
	if body.AccessToken == "" {
		return "", 0, &store.Error{Kind: store.AuthFailed, Message: "token endpoint returned no access_token"}
	}

	p.logger.Debug().Int64("expires_in", body.ExpiresIn).Msg("minted access token")
	return body.AccessToken, body.ExpiresIn, nil
}

func (p *Provider) signedAssertion(now time.Time) (string, error) {
	claims := jwt.MapClaims{
		"iss":   p.clientEmail,
		"scope": scope,
		"aud":   p.tokenURL,
		"iat":   now.Unix(),
		"exp":   now.Add(time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	return token.SignedString(p.privateKey)
}
