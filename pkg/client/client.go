// Package client is a typed HTTP client for the devconnect REST API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	dialTimeout = 10 * time.Second
	reqTimeout  = 30 * time.Second
)

// Client talks to the API under BaseURL (for example http://localhost:8080/api).
// A Client carries at most one access token; use WithToken for per-user copies.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	token   string
}

func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{
			Transport: &http.Transport{DialContext: (&net.Dialer{Timeout: dialTimeout}).DialContext},
			Timeout:   reqTimeout,
		}
	}
	return &Client{BaseURL: strings.TrimRight(baseURL, "/"), HTTP: httpClient}
}

// WithToken returns a copy of c that authenticates with token.
func (c *Client) WithToken(token string) *Client {
	cp := *c
	cp.token = token
	return &cp
}

func (c *Client) Token() string { return c.token }

func do[T any](ctx context.Context, c *Client, method, path string, body any) (T, error) {
	var zero T
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return zero, fmt.Errorf("encode request: %w", err)
		}
		rdr = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, rdr)
	if err != nil {
		return zero, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return zero, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return zero, fmt.Errorf("read response: %w", err)
	}
	var env envelope[T]
	if err := json.Unmarshal(raw, &env); err != nil {
		if resp.StatusCode >= 400 {
			return zero, &APIError{Status: resp.StatusCode, Message: strings.TrimSpace(string(raw))}
		}
		return zero, fmt.Errorf("decode response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return zero, &APIError{Status: resp.StatusCode, Message: env.Message, Details: env.Error}
	}
	return env.Data, nil
}

// Register creates an account and returns an authenticated copy of c.
func (c *Client) Register(ctx context.Context, name, email, password string) (*Client, error) {
	d, err := do[authData](ctx, c, http.MethodPost, "/users", map[string]string{"name": name, "email": email, "password": password})
	if err != nil {
		return nil, err
	}
	return c.WithToken(d.Token), nil
}

// Login returns an authenticated copy of c.
func (c *Client) Login(ctx context.Context, email, password string) (*Client, error) {
	d, err := do[authData](ctx, c, http.MethodPost, "/login", map[string]string{"email": email, "password": password})
	if err != nil {
		return nil, err
	}
	return c.WithToken(d.Token), nil
}

func (c *Client) Logout(ctx context.Context) error {
	_, err := do[json.RawMessage](ctx, c, http.MethodPost, "/logout", nil)
	return err
}

// LoadUser returns the user the token belongs to.
func (c *Client) LoadUser(ctx context.Context) (*User, error) {
	u, err := do[User](ctx, c, http.MethodGet, "/auth", nil)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) ListPosts(ctx context.Context) ([]Post, error) {
	return do[[]Post](ctx, c, http.MethodGet, "/posts", nil)
}

func (c *Client) SearchPosts(ctx context.Context, q string) ([]Post, error) {
	return do[[]Post](ctx, c, http.MethodGet, "/posts/search?q="+url.QueryEscape(q), nil)
}

func (c *Client) GetPost(ctx context.Context, id string) (*Post, error) {
	p, err := do[Post](ctx, c, http.MethodGet, "/posts/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) CreatePost(ctx context.Context, text string) (*Post, error) {
	p, err := do[Post](ctx, c, http.MethodPost, "/posts", map[string]string{"text": text})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) DeletePost(ctx context.Context, id string) error {
	_, err := do[json.RawMessage](ctx, c, http.MethodDelete, "/posts/"+url.PathEscape(id), nil)
	return err
}

func (c *Client) Like(ctx context.Context, id string) ([]Like, error) {
	return do[[]Like](ctx, c, http.MethodPut, "/posts/like/"+url.PathEscape(id), nil)
}

func (c *Client) Unlike(ctx context.Context, id string) ([]Like, error) {
	return do[[]Like](ctx, c, http.MethodPut, "/posts/unlike/"+url.PathEscape(id), nil)
}

func (c *Client) AddComment(ctx context.Context, id, text string) ([]Comment, error) {
	return do[[]Comment](ctx, c, http.MethodPost, "/posts/comment/"+url.PathEscape(id), map[string]string{"text": text})
}

func (c *Client) DeleteComment(ctx context.Context, id, commentID string) ([]Comment, error) {
	return do[[]Comment](ctx, c, http.MethodDelete, "/posts/comment/"+url.PathEscape(id)+"/"+url.PathEscape(commentID), nil)
}
