package vendapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"
)

// TokenCache shares a live access token between processes. Implementations
// must expire entries no later than the token itself. Get returns an empty
// token (and no error) on a cache miss.
type TokenCache interface {
	Get(ctx context.Context) (token string, ttl time.Duration, err error)
	Set(ctx context.Context, token string, ttl time.Duration) error
	Delete(ctx context.Context) error
}

// tokenSkew keeps a token from being used this close to its expiry.
const tokenSkew = 60 * time.Second

// Session owns the telemetry API credentials and the current access token.
// It replaces any notion of a process-wide token variable: construct one,
// inject it where needed. AcquireToken is safe for concurrent use; at most
// one login runs at a time.
type Session struct {
	httpClient *http.Client
	baseURL    string
	login      string
	password   string
	cache      TokenCache // optional

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

// NewSession returns a Session for the API at baseURL. cache may be nil.
func NewSession(httpClient *http.Client, baseURL, login, password string, cache TokenCache) *Session {
	return &Session{
		httpClient: httpClient,
		baseURL:    baseURL,
		login:      login,
		password:   password,
		cache:      cache,
	}
}

// AcquireToken returns a valid access token, reusing the in-memory one, then
// the shared cache, and only then logging in against the API.
func (s *Session) AcquireToken(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if s.token != "" && now.Add(tokenSkew).Before(s.expiresAt) {
		return s.token, nil
	}

	if s.cache != nil {
		token, ttl, err := s.cache.Get(ctx)
		if err != nil {
			// cache trouble must not block the dashboard
			log.Printf("vendapi: token cache get: %v", err)
		} else if token != "" && ttl > tokenSkew {
			s.token = token
			s.expiresAt = now.Add(ttl)
			return s.token, nil
		}
	}

	tr, err := s.authenticate(ctx)
	if err != nil {
		return "", err
	}
	ttl := time.Duration(tr.ExpiresIn) * time.Second
	if ttl == 0 {
		ttl = time.Hour
	}
	s.token = tr.Token
	s.expiresAt = now.Add(ttl)

	if s.cache != nil {
		if err := s.cache.Set(ctx, tr.Token, ttl-tokenSkew); err != nil {
			log.Printf("vendapi: token cache set: %v", err)
		}
	}
	return s.token, nil
}

// Invalidate drops the current token after the API rejected it.
func (s *Session) Invalidate(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.expiresAt = time.Time{}
	if s.cache != nil {
		if err := s.cache.Delete(ctx); err != nil {
			log.Printf("vendapi: token cache delete: %v", err)
		}
	}
}

// tokenResponse is the POST /auth result.
type tokenResponse struct {
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expires_in"`
}

func (s *Session) authenticate(ctx context.Context) (*tokenResponse, error) {
	payload, err := json.Marshal(map[string]string{
		"login":    s.login,
		"password": s.password,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/auth", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("auth failed: status=%d", resp.StatusCode)
	}
	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return nil, err
	}
	if tr.Token == "" {
		return nil, fmt.Errorf("auth response missing token")
	}
	return &tr, nil
}
