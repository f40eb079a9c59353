package graphql

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jamesprial/pmkin-mcp/internal/config"
)

// ---------------------------------------------------------------------------
// Compile-time interface satisfaction check
// ---------------------------------------------------------------------------

var _ Client = (*HTTPClient)(nil)

// ---------------------------------------------------------------------------
// Test helpers
// ---------------------------------------------------------------------------

// newTestClient returns an HTTPClient pointed at url with token "test-token".
func newTestClient(t *testing.T, url string) *HTTPClient {
	t.Helper()
	c, err := NewHTTPClient(config.GraphQLConfig{URL: url, Token: "test-token", Timeout: 5})
	if err != nil {
		t.Fatalf("NewHTTPClient: %v", err)
	}
	return c
}

// respond returns a handler that writes status and body.
func respond(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}
}

// graphqlRequestBody is the expected shape of a GraphQL HTTP request body.
type graphqlRequestBody struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

// doerFunc adapts a function to HTTPDoer.
type doerFunc func(*http.Request) (*http.Response, error)

func (f doerFunc) Do(req *http.Request) (*http.Response, error) { return f(req) }

// trackingBody records whether it was read.
type trackingBody struct {
	r    io.Reader
	read bool
}

func (b *trackingBody) Read(p []byte) (int, error) {
	b.read = true
	return b.r.Read(p)
}

func (b *trackingBody) Close() error { return nil }

// ---------------------------------------------------------------------------
// NewHTTPClient tests
// ---------------------------------------------------------------------------

func Test_NewHTTPClient_Cases(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.GraphQLConfig
		wantErr string
	}{
		{
			name: "valid config",
			cfg:  config.GraphQLConfig{URL: "https://content.pmkin.io/graphql", Token: "abc", Timeout: 30},
		},
		{
			name: "zero timeout uses default",
			cfg:  config.GraphQLConfig{URL: "https://content.pmkin.io/graphql", Token: "abc"},
		},
		{
			name:    "empty URL",
			cfg:     config.GraphQLConfig{Token: "abc"},
			wantErr: "URL is required",
		},
		{
			name:    "empty token",
			cfg:     config.GraphQLConfig{URL: "https://content.pmkin.io/graphql"},
			wantErr: "token is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewHTTPClient(tt.cfg)
			if tt.wantErr != "" {
				if err == nil {
					t.Fatalf("expected error containing %q", tt.wantErr)
				}
				if !strings.Contains(err.Error(), tt.wantErr) {
					t.Errorf("error = %q, want it to contain %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if c.url != tt.cfg.URL {
				t.Errorf("url = %q, want %q unchanged", c.url, tt.cfg.URL)
			}
		})
	}
}

func Test_NewHTTPClient_Timeout(t *testing.T) {
	tests := []struct {
		name    string
		timeout int
		want    time.Duration
	}{
		{name: "configured", timeout: 5, want: 5 * time.Second},
		{name: "zero", timeout: 0, want: 30 * time.Second},
		{name: "negative", timeout: -1, want: 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewHTTPClient(config.GraphQLConfig{URL: "http://x", Token: "t", Timeout: tt.timeout})
			if err != nil {
				t.Fatalf("NewHTTPClient: %v", err)
			}
			hc, ok := c.doer.(*http.Client)
			if !ok {
				t.Fatalf("doer is %T, want *http.Client", c.doer)
			}
			if hc.Timeout != tt.want {
				t.Errorf("Timeout = %v, want %v", hc.Timeout, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Execute: request shape
// ---------------------------------------------------------------------------

func Test_Execute_RequestShape(t *testing.T) {
	const query = "query GetUser($userId: Int!) { user(id: $userId) { name } }"

	var (
		gotMethod string
		gotHeader http.Header
		gotBody   graphqlRequestBody
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotHeader = r.Header.Clone()
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request body: %v", err)
		}
		respond(http.StatusOK, `{"data":{"user":{"name":"Ada"}}}`)(w, r)
	}))
	defer srv.Close()

	data, err := newTestClient(t, srv.URL).Execute(context.Background(), query, map[string]any{"userId": 1})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if string(data) != `{"user":{"name":"Ada"}}` {
		t.Errorf("data = %s", data)
	}

	if gotMethod != http.MethodPost {
		t.Errorf("method = %s, want POST", gotMethod)
	}
	wantHeaders := map[string]string{
		"Accept":        "application/json",
		"Authorization": "Bearer test-token",
		"Content-Type":  "application/json",
	}
	for k, v := range wantHeaders {
		if got := gotHeader.Get(k); got != v {
			t.Errorf("header %s = %q, want %q", k, got, v)
		}
	}
	if gotBody.Query != query {
		t.Errorf("query = %q, want %q", gotBody.Query, query)
	}
	if v, ok := gotBody.Variables["userId"].(float64); !ok || v != 1 {
		t.Errorf("variables = %v, want userId=1", gotBody.Variables)
	}
}

func Test_Execute_NilVariablesSentAsEmptyObject(t *testing.T) {
	var raw map[string]json.RawMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			t.Errorf("decode request body: %v", err)
		}
		respond(http.StatusOK, `{"data":{"ok":true}}`)(w, r)
	}))
	defer srv.Close()

	if _, err := newTestClient(t, srv.URL).Execute(context.Background(), "{ ok }", nil); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if got := string(raw["variables"]); got != "{}" {
		t.Errorf("variables = %s, want {}", got)
	}
}

func Test_Execute_DataReturnedUnmodified(t *testing.T) {
	const data = `{"documents":[{"id":"d1","extra":{"nested":[1,2,3]}}],"unknownField":"kept"}`
	srv := httptest.NewServer(respond(http.StatusOK, `{"data":`+data+`}`))
	defer srv.Close()

	got, err := newTestClient(t, srv.URL).Execute(context.Background(), "{ documents { id } }", nil)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if string(got) != data {
		t.Errorf("data = %s, want %s", got, data)
	}
}

// ---------------------------------------------------------------------------
// Execute: classification
// ---------------------------------------------------------------------------

func Test_Execute_Classification(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantKind    Kind
		wantSent    error
		wantMessage string
		wantCount   int
	}{
		{
			name:        "graphql error on 200",
			status:      http.StatusOK,
			body:        `{"data":null,"errors":[{"message":"Field x unknown"},{"message":"second"}]}`,
			wantKind:    KindGraphQL,
			wantSent:    ErrGraphQL,
			wantMessage: "Field x unknown",
			wantCount:   2,
		},
		{
			name:        "graphql error on 200 wins over data",
			status:      http.StatusOK,
			body:        `{"data":{"category":null},"errors":[{"message":"partial"}]}`,
			wantKind:    KindGraphQL,
			wantSent:    ErrGraphQL,
			wantMessage: "partial",
			wantCount:   1,
		},
		{
			name:        "graphql error on 400",
			status:      http.StatusBadRequest,
			body:        `{"errors":[{"message":"Syntax Error: Expected Name"}]}`,
			wantKind:    KindGraphQL,
			wantSent:    ErrGraphQL,
			wantMessage: "Syntax Error: Expected Name",
			wantCount:   1,
		},
		{
			name:        "400 with empty errors is generic",
			status:      http.StatusBadRequest,
			body:        `{"errors":[]}`,
			wantKind:    KindRequest,
			wantSent:    ErrRequest,
			wantMessage: "GraphQL request failed with status 400: Bad Request",
		},
		{
			name:        "400 with non-JSON body is generic",
			status:      http.StatusBadRequest,
			body:        `<html>bad</html>`,
			wantKind:    KindRequest,
			wantSent:    ErrRequest,
			wantMessage: "GraphQL request failed with status 400: Bad Request",
		},
		{
			name:        "401",
			status:      http.StatusUnauthorized,
			body:        `{"errors":[{"message":"ignored"}]}`,
			wantKind:    KindUnauthorized,
			wantSent:    ErrUnauthorized,
			wantMessage: "You are not authorized to access this resource. Make sure that you pass a valid token.",
		},
		{
			name:        "429",
			status:      http.StatusTooManyRequests,
			body:        `not json`,
			wantKind:    KindRateLimited,
			wantSent:    ErrRateLimited,
			wantMessage: "You have reached the rate limit. Please try again later.",
		},
		{
			name:        "503",
			status:      http.StatusServiceUnavailable,
			body:        `not json`,
			wantKind:    KindServiceUnavailable,
			wantSent:    ErrServiceUnavailable,
			wantMessage: "Service unavailable. Please try again later.",
		},
		{
			name:        "500",
			status:      http.StatusInternalServerError,
			body:        `{"errors":[{"message":"ignored"}]}`,
			wantKind:    KindRequest,
			wantSent:    ErrRequest,
			wantMessage: "GraphQL request failed with status 500: Internal Server Error",
		},
		{
			name:        "404",
			status:      http.StatusNotFound,
			body:        ``,
			wantKind:    KindRequest,
			wantSent:    ErrRequest,
			wantMessage: "GraphQL request failed with status 404: Not Found",
		},
		{
			name:        "data null",
			status:      http.StatusOK,
			body:        `{"data":null}`,
			wantKind:    KindNoData,
			wantSent:    ErrNoData,
			wantMessage: "There is no data in the response.",
		},
		{
			name:        "data absent",
			status:      http.StatusOK,
			body:        `{}`,
			wantKind:    KindNoData,
			wantSent:    ErrNoData,
			wantMessage: "There is no data in the response.",
		},
		{
			name:        "empty errors with data null",
			status:      http.StatusOK,
			body:        `{"data":null,"errors":[]}`,
			wantKind:    KindNoData,
			wantSent:    ErrNoData,
			wantMessage: "There is no data in the response.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(respond(tt.status, tt.body))
			defer srv.Close()

			data, err := newTestClient(t, srv.URL).Execute(context.Background(), "{ x }", nil)
			if err == nil {
				t.Fatalf("expected error, got data %s", data)
			}
			if data != nil {
				t.Errorf("data = %s, want nil", data)
			}

			var gqlErr *Error
			if !errors.As(err, &gqlErr) {
				t.Fatalf("error %T is not *Error: %v", err, err)
			}
			if gqlErr.Kind != tt.wantKind {
				t.Errorf("Kind = %v, want %v", gqlErr.Kind, tt.wantKind)
			}
			if !errors.Is(err, tt.wantSent) {
				t.Errorf("errors.Is(err, %v sentinel) = false", tt.wantKind)
			}
			if err.Error() != tt.wantMessage {
				t.Errorf("message = %q, want %q", err.Error(), tt.wantMessage)
			}
			if gqlErr.StatusCode != tt.status {
				t.Errorf("StatusCode = %d, want %d", gqlErr.StatusCode, tt.status)
			}
			if len(gqlErr.Errors) != tt.wantCount {
				t.Errorf("len(Errors) = %d, want %d", len(gqlErr.Errors), tt.wantCount)
			}
		})
	}
}

func Test_Execute_FixedStatusBodiesNotRead(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusTooManyRequests, http.StatusServiceUnavailable, http.StatusInternalServerError} {
		body := &trackingBody{r: strings.NewReader(`{"errors":[{"message":"x"}]}`)}
		doer := doerFunc(func(*http.Request) (*http.Response, error) {
			return &http.Response{StatusCode: status, Status: http.StatusText(status), Body: body}, nil
		})
		c, err := NewHTTPClient(config.GraphQLConfig{URL: "http://x", Token: "t"}, WithHTTPDoer(doer))
		if err != nil {
			t.Fatalf("NewHTTPClient: %v", err)
		}

		if _, err := c.Execute(context.Background(), "{ x }", nil); err == nil {
			t.Errorf("status %d: expected error", status)
		}
		if body.read {
			t.Errorf("status %d: body was read", status)
		}
	}
}

func Test_Execute_StatusTextFromServer(t *testing.T) {
	doer := doerFunc(func(*http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: 502,
			Status:     "502 Upstream Exploded",
			Body:       io.NopCloser(strings.NewReader("")),
		}, nil
	})
	c, err := NewHTTPClient(config.GraphQLConfig{URL: "http://x", Token: "t"}, WithHTTPDoer(doer))
	if err != nil {
		t.Fatalf("NewHTTPClient: %v", err)
	}

	_, err = c.Execute(context.Background(), "{ x }", nil)
	want := "GraphQL request failed with status 502: Upstream Exploded"
	if err == nil || err.Error() != want {
		t.Errorf("error = %v, want %q", err, want)
	}
}

func Test_Execute_TransportErrorReturnedUnchanged(t *testing.T) {
	sentinel := errors.New("dial tcp: connection refused")
	doer := doerFunc(func(*http.Request) (*http.Response, error) {
		return nil, sentinel
	})
	c, err := NewHTTPClient(config.GraphQLConfig{URL: "http://x", Token: "t"}, WithHTTPDoer(doer))
	if err != nil {
		t.Fatalf("NewHTTPClient: %v", err)
	}

	_, err = c.Execute(context.Background(), "{ x }", nil)
	if err != sentinel {
		t.Errorf("error = %v, want the transport error unchanged", err)
	}
	if KindOf(err) != 0 {
		t.Errorf("KindOf(transport error) = %v, want 0", KindOf(err))
	}
}

func Test_Execute_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := newTestClient(t, url).Execute(context.Background(), "{ x }", nil)
	if err == nil {
		t.Fatal("expected error for closed server")
	}
	var gqlErr *Error
	if errors.As(err, &gqlErr) {
		t.Errorf("transport failure classified as %v", gqlErr.Kind)
	}
}

func Test_Execute_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(respond(http.StatusOK, `{"data":{}}`))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestClient(t, srv.URL).Execute(ctx, "{ x }", nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func Test_Execute_MalformedJSONResponse(t *testing.T) {
	srv := httptest.NewServer(respond(http.StatusOK, `{"data": {`))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL).Execute(context.Background(), "{ x }", nil)
	if err == nil {
		t.Fatal("expected decode error")
	}
	if !strings.Contains(err.Error(), "decode response") {
		t.Errorf("error = %q, want decode response context", err)
	}
}

func Test_Execute_ConcurrentRequests(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body graphqlRequestBody
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"data": map[string]any{"echo": body.Variables["n"]}})
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)

	const workers = 10
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			data, err := c.Execute(context.Background(), "query Echo($n: Int) { echo(n: $n) }", map[string]any{"n": n})
			if err != nil {
				errs <- err
				return
			}
			var got struct{ Echo int }
			if err := json.Unmarshal(data, &got); err != nil {
				errs <- err
				return
			}
			if got.Echo != n {
				errs <- errors.New("response mixed up between goroutines")
			}
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
}

// ---------------------------------------------------------------------------
// Decode tests
// ---------------------------------------------------------------------------

type stubClient struct {
	data []byte
	err  error
}

func (s stubClient) Execute(context.Context, string, map[string]any) ([]byte, error) {
	return s.data, s.err
}

func Test_Decode_Cases(t *testing.T) {
	type category struct {
		ID   string `json:"id"`
		Slug string `json:"slug"`
	}
	type result struct {
		Category *category `json:"category"`
	}

	t.Run("decodes data", func(t *testing.T) {
		got, err := Decode[result](context.Background(), stubClient{data: []byte(`{"category":{"id":"c1","slug":"travel","ignored":1}}`)}, "q", nil)
		if err != nil {
			t.Fatalf("Decode: %v", err)
		}
		if got.Category == nil || got.Category.ID != "c1" || got.Category.Slug != "travel" {
			t.Errorf("got %+v", got.Category)
		}
	})

	t.Run("propagates execute error", func(t *testing.T) {
		_, err := Decode[result](context.Background(), stubClient{err: ErrUnauthorized}, "q", nil)
		if err != ErrUnauthorized {
			t.Errorf("error = %v, want ErrUnauthorized unchanged", err)
		}
	})

	t.Run("shape mismatch", func(t *testing.T) {
		_, err := Decode[result](context.Background(), stubClient{data: []byte(`{"category":"nope"}`)}, "q", nil)
		if err == nil || !strings.Contains(err.Error(), "decode data") {
			t.Errorf("error = %v, want decode data error", err)
		}
	})
}

// ---------------------------------------------------------------------------
// Error tests
// ---------------------------------------------------------------------------

func Test_Error_IsMatchesKindOnly(t *testing.T) {
	err := &Error{Kind: KindRateLimited, Message: "slow down", StatusCode: 429}

	if !errors.Is(err, ErrRateLimited) {
		t.Error("errors.Is(err, ErrRateLimited) = false")
	}
	if errors.Is(err, ErrUnauthorized) {
		t.Error("errors.Is(err, ErrUnauthorized) = true")
	}

	wrapped := errors.Join(errors.New("context"), err)
	if !errors.Is(wrapped, ErrRateLimited) {
		t.Error("wrapped error lost its kind")
	}
	if KindOf(wrapped) != KindRateLimited {
		t.Errorf("KindOf = %v", KindOf(wrapped))
	}
}

func Test_Kind_String(t *testing.T) {
	tests := map[Kind]string{
		KindGraphQL:            "graphql",
		KindUnauthorized:       "unauthorized",
		KindRateLimited:        "rate_limited",
		KindServiceUnavailable: "service_unavailable",
		KindRequest:            "request",
		KindNoData:             "no_data",
		Kind(42):               "Kind(42)",
	}
	for k, want := range tests {
		if got := k.String(); got != want {
			t.Errorf("Kind(%d).String() = %q, want %q", int(k), got, want)
		}
	}
}

// ---------------------------------------------------------------------------
// Benchmarks
// ---------------------------------------------------------------------------

func Benchmark_Execute_HappyPath(b *testing.B) {
	srv := httptest.NewServer(respond(http.StatusOK, `{"data":{"categories":[]}}`))
	defer srv.Close()

	c, err := NewHTTPClient(config.GraphQLConfig{URL: srv.URL, Token: "t", Timeout: 5})
	if err != nil {
		b.Fatal(err)
	}
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := c.Execute(ctx, "{ categories { id } }", nil); err != nil {
			b.Fatal(err)
		}
	}
}
