package server_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/calcagent/calcagent/internal/config"
	"github.com/calcagent/calcagent/internal/models"
	"github.com/calcagent/calcagent/internal/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		Host:               "127.0.0.1",
		Port:               8000,
		Environment:        "test",
		APIPrefix:          config.DefaultAPIPrefix,
		CORSOrigins:        []string{"*"},
		CORSMaxAge:         config.DefaultCORSMaxAge,
		APIKeyHeader:       config.DefaultAPIKeyHeader,
		RateLimitPerMinute: 100,
		ModelProvider:      "openai",
		ModelName:          "gpt-4o-mini",
		RoundTimeout:       5,
		MaxMessageLength:   config.DefaultMaxMessageLength,
		EnablePromptGuard:  true,
	}
}

// fakeOpenAI answers the first round with a multiply call and the second
// round with a sentence.
func fakeOpenAI(t *testing.T) (*httptest.Server, *int32) {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			http.NotFound(w, r)
			return
		}
		body, _ := io.ReadAll(r.Body)
		n := atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "application/json")
		if n == 1 {
			if !strings.Contains(string(body), `"tools"`) {
				t.Errorf("round 1 should declare tools: %s", body)
			}
			io.WriteString(w, `{"id":"c1","object":"chat.completion","model":"gpt-4o-mini","choices":[{"index":0,"finish_reason":"tool_calls","message":{"role":"assistant","content":null,"tool_calls":[{"id":"call_1","type":"function","function":{"name":"multiply","arguments":"{\"a\":18,\"b\":7}"}}]}}]}`)
			return
		}
		io.WriteString(w, `{"id":"c2","object":"chat.completion","model":"gpt-4o-mini","choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"18 times 7 is 126."}}]}`)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func newHandler(t *testing.T, cfg *config.Config) http.Handler {
	t.Helper()
	s, err := server.New(cfg)
	require.NoError(t, err)
	return s.Handler()
}

func TestCalculateEndToEnd(t *testing.T) {
	upstream, calls := fakeOpenAI(t)
	cfg := testConfig()
	cfg.ModelAPIKey = "test-key"
	cfg.ModelBaseURL = upstream.URL + "/v1"
	h := newHandler(t, cfg)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/calculate", strings.NewReader(`{"message":"What is 18 times 7?"}`))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, int32(2), atomic.LoadInt32(calls))

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, "multiply", got["toolUsed"])
	assert.Equal(t, map[string]interface{}{"a": 18.0, "b": 7.0}, got["arguments"])
	assert.Equal(t, 126.0, got["result"])
	assert.Equal(t, "18 times 7 is 126.", got["finalAnswer"])
	assert.NotContains(t, got, "error")
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
}

func TestCalculateWithoutModelKey(t *testing.T) {
	h := newHandler(t, testConfig())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/calculate", strings.NewReader(`{"message":"2+2"}`))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	var reply models.CalculationReply
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &reply))
	assert.True(t, reply.Failed())
	assert.Equal(t, "AI service is not configured", reply.Error)
	assert.Nil(t, reply.ToolUsed)
}

func TestHealthDegradedWithoutModel(t *testing.T) {
	h := newHandler(t, testConfig())

	for _, path := range []string{"/health", "/"} {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusServiceUnavailable, rr.Code, path)

		var health models.HealthResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &health))
		assert.Equal(t, "degraded", health.Status)
		assert.Equal(t, "not configured", health.Checks["model"])
		assert.Equal(t, "disabled", health.Checks["redis"])
	}
}

func TestHealthWithModel(t *testing.T) {
	cfg := testConfig()
	cfg.ModelAPIKey = "test-key"
	h := newHandler(t, cfg)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "openai/gpt-4o-mini")
}

func TestPreflight(t *testing.T) {
	cfg := testConfig()
	cfg.CORSMaxAge = 600
	h := newHandler(t, cfg)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/calculate", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "600", rr.Header().Get("Access-Control-Max-Age"))
	assert.Zero(t, rr.Body.Len())
}

func TestRateLimitedAPIRoute(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimitPerMinute = 1
	h := newHandler(t, cfg)

	codes := make([]int, 0, 2)
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/calculate", strings.NewReader(`{"message":"2+2"}`))
		req.RemoteAddr = "10.1.1.1:5000"
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		codes = append(codes, rr.Code)
	}
	assert.NotEqual(t, http.StatusTooManyRequests, codes[0])
	assert.Equal(t, http.StatusTooManyRequests, codes[1])

	// health is outside the limited group
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.NotEqual(t, http.StatusTooManyRequests, rr.Code)
}

func TestRateLimitKeysByConfiguredHeader(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimitPerMinute = 1
	cfg.APIKeyHeader = "X-Client-Key"
	h := newHandler(t, cfg)

	var codes []int
	for _, addr := range []string{"10.0.0.1:1111", "10.0.0.1:2222", "10.0.0.1:3333"} {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/calculate", strings.NewReader(`{"message":"2+2"}`))
		req.RemoteAddr = addr
		req.Header.Set("X-Client-Key", "caller-1")
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		codes = append(codes, rr.Code)
	}
	assert.NotEqual(t, http.StatusTooManyRequests, codes[0])
	assert.Equal(t, []int{http.StatusTooManyRequests, http.StatusTooManyRequests}, codes[1:])
}

func TestUnknownRoute(t *testing.T) {
	h := newHandler(t, testConfig())

	tests := []struct {
		method string
		path   string
		status int
	}{
		{http.MethodGet, "/api/v1/calculate", http.StatusMethodNotAllowed},
		{http.MethodPost, "/api/v1/nope", http.StatusNotFound},
		{http.MethodGet, "/missing", http.StatusNotFound},
	}
	for _, tt := range tests {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(tt.method, tt.path, nil))
		assert.Equal(t, tt.status, rr.Code, tt.path)
		assert.Contains(t, rr.Header().Get("Content-Type"), "application/json", tt.path)

		var body models.ErrorResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body), tt.path)
		assert.NotEmpty(t, body.Error, tt.path)
	}
}

func TestNewModelClient(t *testing.T) {
	cfg := testConfig()
	assert.Nil(t, server.NewModelClient(cfg))

	cfg.ModelAPIKey = "k"
	client := server.NewModelClient(cfg)
	require.NotNil(t, client)
	assert.Equal(t, "openai", client.Provider())

	cfg.ModelProvider = "anthropic"
	cfg.ModelName = "claude-sonnet-4-6"
	client = server.NewModelClient(cfg)
	require.NotNil(t, client)
	assert.Equal(t, "anthropic", client.Provider())
	assert.Equal(t, "claude-sonnet-4-6", client.Model())
}
