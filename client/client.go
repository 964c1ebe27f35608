// Package client talks to the intent classification service under test.
// It wraps the three endpoints the harness needs: GET /ready, GET /info
// and POST /intent. The client never retries; callers decide policy.
package client

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/greynewell/intentbench/errors"
	"github.com/greynewell/intentbench/trace"
)

// DefaultTimeout bounds every request, including connection setup.
const DefaultTimeout = 10 * time.Second

// maxBody caps how much of a response body is read.
const maxBody = 1 << 20

// Client is an HTTP client for the intent service. It is safe for
// concurrent use.
type Client struct {
	base  string
	model string
	http  *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithModel sets the model key sent with every classification request.
// An empty key sends none and lets the service pick its default.
func WithModel(key string) Option {
	return func(c *Client) { c.model = key }
}

// WithPoolSize sizes the idle connection pool. Set it to the number of
// concurrent workers so connections are reused instead of re-dialed.
func WithPoolSize(n int) Option {
	return func(c *Client) {
		if t, ok := c.http.Transport.(*http.Transport); ok && n > 0 {
			t.MaxIdleConns = n
			t.MaxIdleConnsPerHost = n
		}
	}
}

// New creates a client for the service at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		base: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout: DefaultTimeout,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{
					MinVersion: tls.VersionTLS12,
				},
				MaxIdleConns:        16,
				MaxIdleConnsPerHost: 16,
				IdleConnTimeout:     30 * time.Second,
				ForceAttemptHTTP2:   true,
			},
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// BaseURL returns the service base URL without a trailing slash.
func (c *Client) BaseURL() string { return c.base }

// Ready reports whether GET /ready answers 200. Any transport error or
// other status reports false.
func (c *Client) Ready(ctx context.Context) bool {
	ctx, span := trace.Start(ctx, "intent.ready")
	defer span.End()

	resp, err := c.get(ctx, "/ready")
	if err != nil {
		trace.Fail(span, err)
		return false
	}
	defer drain(resp)
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	return resp.StatusCode == http.StatusOK
}

// Info fetches and validates the served-model metadata.
func (c *Client) Info(ctx context.Context) (*Info, error) {
	ctx, span := trace.Start(ctx, "intent.info")
	defer span.End()

	info, err := c.info(ctx)
	trace.Fail(span, err)
	return info, err
}

func (c *Client) info(ctx context.Context) (*Info, error) {
	resp, err := c.get(ctx, "/info")
	if err != nil {
		return nil, errors.Wrap(errors.CodeTransport, err, "GET /info")
	}
	defer drain(resp)

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, errors.Wrap(errors.CodeTransport, err, "GET /info: read body")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Newf(errors.CodeUnavailable, "GET /info: status %d", resp.StatusCode)
	}
	return parseInfo(body)
}

// Classify posts text to /intent and returns the ranked labels exactly as
// received. A non-200 status or a body without "intents" is an error; an
// empty label list is returned as-is.
func (c *Client) Classify(ctx context.Context, text string) ([]string, error) {
	ctx, span := trace.Start(ctx, "intent.classify")
	defer span.End()

	labels, err := c.classify(ctx, text)
	trace.Fail(span, err)
	if len(labels) > 0 {
		span.SetAttributes(attribute.String("intent.label", labels[0]))
	}
	return labels, err
}

type intentRequest struct {
	Text  string `json:"text"`
	Model string `json:"model,omitempty"`
}

type intentResponse struct {
	Intents *[]struct {
		Label string `json:"label"`
	} `json:"intents"`

	// Error bodies carry a machine label and a message instead.
	Label   string `json:"label"`
	Message string `json:"message"`
}

func (c *Client) classify(ctx context.Context, text string) ([]string, error) {
	data, err := json.Marshal(intentRequest{Text: text, Model: c.model})
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/intent", bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "POST /intent")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(errors.CodeTransport, err, "POST /intent")
	}
	defer drain(resp)

	var out intentResponse
	decodeErr := json.NewDecoder(io.LimitReader(resp.Body, maxBody)).Decode(&out)

	if resp.StatusCode != http.StatusOK {
		if decodeErr == nil && out.Label != "" {
			return nil, errors.Newf(errors.CodeUnavailable, "POST /intent: status %d: %s: %s", resp.StatusCode, out.Label, out.Message)
		}
		return nil, errors.Newf(errors.CodeUnavailable, "POST /intent: status %d", resp.StatusCode)
	}
	if decodeErr != nil {
		return nil, errors.Wrap(errors.CodeProtocol, decodeErr, "POST /intent: decode body")
	}
	if out.Intents == nil {
		return nil, errors.New(errors.CodeProtocol, `POST /intent: response has no "intents"`)
	}

	labels := make([]string, len(*out.Intents))
	for i, in := range *out.Intents {
		labels[i] = in.Label
	}
	return labels, nil
}

func (c *Client) get(ctx context.Context, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	return c.http.Do(req)
}

// drain discards the rest of the body so the connection can be reused.
func drain(resp *http.Response) {
	io.Copy(io.Discard, io.LimitReader(resp.Body, maxBody))
	resp.Body.Close()
}
