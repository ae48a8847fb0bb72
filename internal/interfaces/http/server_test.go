package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/tailor-marketplace/internal/config"
	"github.com/your-org/tailor-marketplace/internal/interfaces/http/handlers"
	"github.com/your-org/tailor-marketplace/internal/interfaces/http/routes"
)

type checkFunc func() error

func (f checkFunc) Health() error { return f() }

func newTestServer(checks map[string]HealthChecker) *Server {
	gin.SetMode(gin.TestMode)
	logger, _ := test.NewNullLogger()
	cfg := &config.Config{
		App:    config.AppConfig{Version: "1.0.0", Environment: "test"},
		Server: config.ServerConfig{Port: "0", RequestTimeout: time.Second},
		JWT:    config.JWTConfig{Secret: "0123456789abcdef0123456789abcdef", AccessTokenExpiry: time.Hour},
		Security: config.SecurityConfig{
			MaxRequestBytes:    1 << 20,
			CORSAllowedOrigins: []string{"*"},
		},
	}
	return NewServer(cfg, logger, Options{
		Handlers: routes.Handlers{
			Cart:     handlers.NewCartHandler(nil, logger),
			Checkout: handlers.NewCheckoutHandler(nil, nil, logger),
			Orders:   handlers.NewOrderHandler(nil, logger),
			Sellers:  handlers.NewSellerHandler(nil, logger),
			Catalog:  handlers.NewCatalogHandler(nil, nil, logger),
		},
		Checks: checks,
		Metrics: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("checkout_groups_total 1\n"))
		}),
	})
}

func TestServer_Health(t *testing.T) {
	s := newTestServer(map[string]HealthChecker{
		"database": checkFunc(func() error { return nil }),
		"redis":    checkFunc(func() error { return errors.New("connection refused") }),
	})

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var body struct {
		Status     string            `json:"status"`
		Components map[string]string `json:"components"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "unhealthy", body.Status)
	assert.Equal(t, map[string]string{"database": "healthy", "redis": "unhealthy"}, body.Components)
}

func TestServer_ReadyAndMetrics(t *testing.T) {
	s := newTestServer(nil)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "checkout_groups_total")
}

func TestServer_APIRequiresAuth(t *testing.T) {
	s := newTestServer(nil)

	for _, path := range []string{"/api/v1/cart", "/api/v1/orders", "/api/v1/checkout/quote", "/api/v1/admin/sellers/1/bulk-tiers"} {
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}
}
