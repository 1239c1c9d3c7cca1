// Package client is the caller-side counterpart of the storefront HTTP
// surface. Queries are cached per client; a successful mutation drops the
// queries it makes stale and tells registered listeners, and a failed one
// tells them the typed error.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/singleflight"

	"github.com/joao-fontenele/storefront/internal/domain"
)

// Notification is delivered to listeners after every mutation.
type Notification struct {
	Operation   string
	Err         error
	Invalidated []string
}

type Listener func(Notification)

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithSessionToken sends token as a bearer credential on every call.
func WithSessionToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

func WithListener(l Listener) Option {
	return func(c *Client) {
		c.listeners = append(c.listeners, l)
	}
}

type Client struct {
	baseURL   string
	token     string
	http      *http.Client
	listeners []Listener

	mu    sync.Mutex
	cache map[string]json.RawMessage
	gen   map[string]uint64
	group singleflight.Group
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout:   10 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		cache: make(map[string]json.RawMessage),
		gen:   make(map[string]uint64),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Subscribe registers l for mutation notifications.
func (c *Client) Subscribe(l Listener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, l)
}

// Invalidate drops the cached results of the named queries.
func (c *Client) Invalidate(queries ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, q := range queries {
		delete(c.cache, q)
		c.gen[q]++
	}
}

func (c *Client) do(ctx context.Context, method, path string, body, dst any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return domain.UpstreamError("storefront unavailable", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(resp)
	}

	if dst == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}

// decodeError turns a {"error","code"} body back into a *domain.Error so
// callers can match it with errors.Is against the domain sentinels.
func decodeError(resp *http.Response) error {
	var body struct {
		Error string `json:"error"`
		Code  string `json:"code"`
	}
	_ = json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&body)

	if body.Error == "" {
		body.Error = http.StatusText(resp.StatusCode)
	}

	switch kind := domain.ErrorKind(body.Code); kind {
	case domain.KindValidation, domain.KindAuth, domain.KindNotFound, domain.KindConfiguration, domain.KindUpstream:
		return &domain.Error{Kind: kind, Message: body.Error}
	default:
		return fmt.Errorf("storefront: %s (status %d)", body.Error, resp.StatusCode)
	}
}

// query serves key from the cache, fetching it at most once concurrently.
// A fetch that overlaps an invalidation of key returns its result to its
// callers but does not cache it.
func (c *Client) query(ctx context.Context, key, path string, dst any) error {
	c.mu.Lock()
	raw, ok := c.cache[key]
	gen := c.gen[key]
	c.mu.Unlock()

	if !ok {
		v, err, _ := c.group.Do(fmt.Sprintf("%s#%d", key, gen), func() (any, error) {
			var fetched json.RawMessage
			if err := c.do(ctx, http.MethodGet, path, nil, &fetched); err != nil {
				return nil, err
			}
			c.mu.Lock()
			if c.gen[key] == gen {
				c.cache[key] = fetched
			}
			c.mu.Unlock()
			return fetched, nil
		})
		if err != nil {
			return err
		}
		raw = v.(json.RawMessage)
	}

	return json.Unmarshal(raw, dst)
}

// mutate runs a state-changing call, then invalidates and notifies.
func (c *Client) mutate(ctx context.Context, operation, method, path string, body, dst any, changed domain.EventType) error {
	err := c.do(ctx, method, path, body, dst)

	n := Notification{Operation: operation, Err: err}
	if err == nil {
		n.Invalidated = domain.Event{Type: changed}.InvalidatedQueries()
		c.Invalidate(n.Invalidated...)
	}

	c.mu.Lock()
	listeners := append([]Listener(nil), c.listeners...)
	c.mu.Unlock()
	for _, l := range listeners {
		l(n)
	}

	return err
}
