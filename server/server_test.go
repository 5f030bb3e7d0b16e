package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/jonwraymond/chatops/auth"
	"github.com/jonwraymond/chatops/cache"
	"github.com/jonwraymond/chatops/health"
	"github.com/jonwraymond/chatops/observe"
)

type resetFailStore struct {
	*cache.MemoryStore
}

func (resetFailStore) Reset(context.Context) error {
	return errors.New("redis: connection refused")
}

func newEndpoints(healthy bool) *health.Endpoints {
	agg := health.NewAggregator()
	agg.Register(health.ComponentDatabase, health.NewCheckerFunc(health.ComponentDatabase, func(context.Context) health.Result {
		if healthy {
			return health.Healthy(map[string]any{"database": "chat", "readyState": 1})
		}
		return health.Unhealthy(errors.New("connection refused"), nil)
	}))
	return health.NewEndpoints(agg)
}

func newAuthenticator(t *testing.T) *auth.JWTAuthenticator {
	t.Helper()
	a, err := auth.NewJWTAuthenticator(auth.JWTConfig{Secret: []byte("0123456789abcdef0123456789abcdef")})
	require.NoError(t, err)
	return a
}

func serve(h http.Handler, method, path string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRouter_HealthMounted(t *testing.T) {
	h := NewRouter(newEndpoints(false), Config{})

	rec := serve(h, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = serve(h, http.MethodGet, "/health/live", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(h, http.MethodGet, "/health/ready", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"not ready"`)
}

func TestRouter_RequestID(t *testing.T) {
	h := NewRouter(newEndpoints(true), Config{})

	rec := serve(h, http.MethodGet, "/health/live", nil)
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))

	rec = serve(h, http.MethodGet, "/health/live", http.Header{RequestIDHeader: {"req-42"}})
	assert.Equal(t, "req-42", rec.Header().Get(RequestIDHeader))
}

func TestRouter_SecurityHeaders(t *testing.T) {
	rec := serve(NewRouter(newEndpoints(true), Config{}), http.MethodGet, "/health/live", nil)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "no-referrer", rec.Header().Get("Referrer-Policy"))
	assert.Empty(t, rec.Header().Get("Strict-Transport-Security"))

	rec = serve(NewRouter(newEndpoints(true), Config{HSTS: true}), http.MethodGet, "/health/live", nil)
	assert.NotEmpty(t, rec.Header().Get("Strict-Transport-Security"))
}

func TestRouter_CORS(t *testing.T) {
	h := NewRouter(newEndpoints(true), Config{CORSOrigins: []string{"https://chat.example.com"}})

	rec := serve(h, http.MethodGet, "/health/live", http.Header{"Origin": {"https://chat.example.com"}})
	assert.Equal(t, "https://chat.example.com", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = serve(h, http.MethodGet, "/health/live", http.Header{"Origin": {"https://evil.example.com"}})
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))

	rec = serve(h, http.MethodOptions, "/health/ready", http.Header{
		"Origin":                        {"https://chat.example.com"},
		"Access-Control-Request-Method": {"GET"},
	})
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "GET")

	wildcard := NewRouter(newEndpoints(true), Config{CORSOrigins: []string{"*"}})
	rec = serve(wildcard, http.MethodGet, "/health/live", http.Header{"Origin": {"https://any.example.com"}})
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouter_NotFoundEnvelope(t *testing.T) {
	rec := serve(NewRouter(newEndpoints(true), Config{}), http.MethodGet, "/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var body errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "error", body.Status)
	assert.Equal(t, "NOT_FOUND", body.Code)
	assert.NotEmpty(t, body.RequestID)
}

func TestRouter_Metrics(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("# HELP health_probe_total\n"))
	})

	rec := serve(NewRouter(newEndpoints(true), Config{Metrics: metrics}), http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Body.String(), "# HELP"))

	rec = serve(NewRouter(newEndpoints(true), Config{}), http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRecoverer(t *testing.T) {
	h := requestID(recoverer(observe.Nop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})))

	rec := serve(h, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), `"INTERNAL"`)
}

func TestAdminCacheClear(t *testing.T) {
	a := newAuthenticator(t)
	admin, err := a.Sign("ops", []string{auth.RoleAdmin}, time.Minute)
	require.NoError(t, err)
	bearer := http.Header{"Authorization": {"Bearer " + admin}}

	t.Run("clears", func(t *testing.T) {
		store := cache.NewMemoryStore()
		facade, err := cache.NewFacade(store)
		require.NoError(t, err)
		facade.Set(context.Background(), "room:1", "general", 0)

		h := NewRouter(newEndpoints(true), Config{Admin: a, Cache: facade})
		rec := serve(h, http.MethodPost, "/admin/cache/clear", bearer)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 0, store.Len())
	})

	t.Run("unauthorized", func(t *testing.T) {
		facade, err := cache.NewFacade(cache.NewMemoryStore())
		require.NoError(t, err)

		h := NewRouter(newEndpoints(true), Config{Admin: a, Cache: facade})
		rec := serve(h, http.MethodPost, "/admin/cache/clear", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("store failure", func(t *testing.T) {
		facade, err := cache.NewFacade(resetFailStore{cache.NewMemoryStore()})
		require.NoError(t, err)

		h := NewRouter(newEndpoints(true), Config{Admin: a, Cache: facade})
		rec := serve(h, http.MethodPost, "/admin/cache/clear", bearer)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)

		var body errorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "CACHE_CLEAR_FAILED", body.Code)
	})

	t.Run("not mounted without authenticator", func(t *testing.T) {
		facade, err := cache.NewFacade(cache.NewMemoryStore())
		require.NoError(t, err)

		h := NewRouter(newEndpoints(true), Config{Cache: facade})
		rec := serve(h, http.MethodPost, "/admin/cache/clear", bearer)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestGRPCHealth(t *testing.T) {
	srv, g := NewGRPCServer("chatops")
	t.Cleanup(srv.Stop)

	check := func(service string) healthpb.HealthCheckResponse_ServingStatus {
		resp, err := g.server.Check(context.Background(), &healthpb.HealthCheckRequest{Service: service})
		require.NoError(t, err)
		return resp.GetStatus()
	}

	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, check("chatops"))

	g.SetHealthy(true)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, check("chatops"))
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, check(""))

	g.SetHealthy(false)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, check(""))
}
