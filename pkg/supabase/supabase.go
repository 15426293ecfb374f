package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	contractx "github.com/tanpawarit/agentic-services/agent/contract"
)

const maxResponseSizeBytes = 1 << 20

type Config struct {
	URL     string        `envconfig:"URL" split_words:"true"`
	AnonKey string        `envconfig:"ANON_KEY" split_words:"true"`
	Timeout time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"5s"`
}

type Option func(*Client)

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// Client resolves bearer tokens against the Supabase auth REST API.
type Client struct {
	baseURL    string
	anonKey    string
	httpClient *http.Client
}

var _ contractx.IdentityProvider = (*Client)(nil)

type authUser struct {
	ID           string         `json:"id"`
	Email        string         `json:"email"`
	IsAnonymous  bool           `json:"is_anonymous"`
	UserMetadata map[string]any `json:"user_metadata"`
}

func NewClient(cfg Config, opts ...Option) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.URL), "/")
	if baseURL == "" {
		return nil, errors.New("supabase url is required")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid supabase url: %w", err)
	}
	anonKey := strings.TrimSpace(cfg.AnonKey)
	if anonKey == "" {
		return nil, errors.New("supabase anon key is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	c := &Client{
		baseURL:    baseURL,
		anonKey:    anonKey,
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

// GetUser returns nil, nil when the token is empty, expired or unknown.
func (c *Client) GetUser(ctx context.Context, token string) (*contractx.UserIdentity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/auth/v1/user", nil)
	if err != nil {
		return nil, fmt.Errorf("build auth request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("apikey", c.anonKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute auth request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSizeBytes))
	if err != nil {
		return nil, fmt.Errorf("read auth response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, nil
	case resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices:
		return nil, fmt.Errorf("auth http status=%d body=%s", resp.StatusCode, string(raw))
	}

	var u authUser
	if err := json.Unmarshal(raw, &u); err != nil {
		return nil, fmt.Errorf("decode auth user: %w", err)
	}
	if strings.TrimSpace(u.ID) == "" {
		return nil, nil
	}

	return &contractx.UserIdentity{
		ExternalID:  u.ID,
		Email:       u.Email,
		FullName:    fullName(u.UserMetadata),
		IsAnonymous: u.IsAnonymous,
	}, nil
}

func fullName(meta map[string]any) string {
	for _, key := range []string{"full_name", "name"} {
		if v, ok := meta[key].(string); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
