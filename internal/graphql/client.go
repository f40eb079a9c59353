package graphql

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/jamesprial/pmkin-mcp/internal/config"
)

const defaultTimeout = 30 * time.Second

// HTTPDoer is the part of *http.Client the transport needs.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// Option configures an HTTPClient.
type Option func(*HTTPClient)

// WithHTTPDoer replaces the HTTP client used for the exchange. The configured
// timeout does not apply to a replacement doer.
func WithHTTPDoer(doer HTTPDoer) Option {
	return func(c *HTTPClient) {
		c.doer = doer
	}
}

// HTTPClient implements Client over HTTP with bearer token authentication.
// It holds no mutable state and is safe for concurrent use.
type HTTPClient struct {
	doer  HTTPDoer
	url   string
	token string
}

// NewHTTPClient constructs an HTTPClient from cfg. Both cfg.URL and cfg.Token
// are required. When cfg.Timeout is zero or negative a 30 second timeout is
// used.
func NewHTTPClient(cfg config.GraphQLConfig, opts ...Option) (*HTTPClient, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("graphql: URL is required")
	}
	if cfg.Token == "" {
		return nil, fmt.Errorf("graphql: token is required")
	}

	timeout := time.Duration(cfg.Timeout) * time.Second
	if cfg.Timeout <= 0 {
		timeout = defaultTimeout
	}

	c := &HTTPClient{
		doer:  &http.Client{Timeout: timeout},
		url:   cfg.URL,
		token: cfg.Token,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Execute POSTs query and variables to the endpoint and returns the raw JSON
// of the "data" field. Nil variables are sent as an empty object.
//
// Failures are classified in this order:
//   - the HTTP exchange itself fails: that error is returned unchanged
//   - 400 with a non-empty "errors" list: KindGraphQL
//   - 401, 429, 503: KindUnauthorized, KindRateLimited, KindServiceUnavailable
//     (the body is not read)
//   - any other non-2xx: KindRequest
//   - 2xx with a non-empty "errors" list: KindGraphQL
//   - 2xx with "data" missing or null: KindNoData
func (c *HTTPClient) Execute(ctx context.Context, query string, variables map[string]any) ([]byte, error) {
	if variables == nil {
		variables = map[string]any{}
	}

	bodyBytes, err := json.Marshal(graphqlRequest{Query: query, Variables: variables})
	if err != nil {
		return nil, fmt.Errorf("graphql: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("graphql: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.doer.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, classifyStatus(resp)
	}

	var gqlResp graphqlResponse
	if err := json.NewDecoder(resp.Body).Decode(&gqlResp); err != nil {
		return nil, fmt.Errorf("graphql: decode response: %w", err)
	}

	if len(gqlResp.Errors) > 0 {
		return nil, newGraphQLError(resp.StatusCode, gqlResp.Errors)
	}
	if !gqlResp.hasData() {
		return nil, &Error{Kind: KindNoData, Message: msgNoData, StatusCode: resp.StatusCode}
	}

	return []byte(gqlResp.Data), nil
}

// classifyStatus maps a non-2xx response to a typed error. Only a 400 body
// is ever read.
func classifyStatus(resp *http.Response) error {
	switch resp.StatusCode {
	case http.StatusBadRequest:
		var gqlResp graphqlResponse
		if err := json.NewDecoder(resp.Body).Decode(&gqlResp); err == nil && len(gqlResp.Errors) > 0 {
			return newGraphQLError(resp.StatusCode, gqlResp.Errors)
		}
	case http.StatusUnauthorized:
		return &Error{Kind: KindUnauthorized, Message: msgUnauthorized, StatusCode: resp.StatusCode}
	case http.StatusTooManyRequests:
		return &Error{Kind: KindRateLimited, Message: msgRateLimited, StatusCode: resp.StatusCode}
	case http.StatusServiceUnavailable:
		return &Error{Kind: KindServiceUnavailable, Message: msgServiceUnavailable, StatusCode: resp.StatusCode}
	}
	return newRequestError(resp.StatusCode, statusText(resp))
}

// statusText returns the reason phrase the server sent, falling back to the
// standard text for the code.
func statusText(resp *http.Response) string {
	text := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if text == "" {
		text = http.StatusText(resp.StatusCode)
	}
	return text
}

// Decode runs query through client and decodes the returned data into T.
// No schema validation is performed; fields T does not declare are ignored.
func Decode[T any](ctx context.Context, client Client, query string, variables map[string]any) (T, error) {
	var out T
	data, err := client.Execute(ctx, query, variables)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("graphql: decode data: %w", err)
	}
	return out, nil
}
