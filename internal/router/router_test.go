package router_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HaikalHH/mugifumiapp-sub000/internal/auth"
	"github.com/HaikalHH/mugifumiapp-sub000/internal/config"
	"github.com/HaikalHH/mugifumiapp-sub000/internal/enum"
	"github.com/HaikalHH/mugifumiapp-sub000/internal/logger"
	"github.com/HaikalHH/mugifumiapp-sub000/internal/metrics"
	"github.com/HaikalHH/mugifumiapp-sub000/internal/router"
	"github.com/HaikalHH/mugifumiapp-sub000/internal/ws"
)

const testSecret = "router-test-secret"

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	reg := prometheus.NewRegistry()
	m := metrics.NewFulfillment(reg)
	m.IncWebhook("settlement", "paid")

	return router.New(router.Deps{
		Config: &config.Config{
			App: config.AppConfig{CORSOrigins: []string{"http://localhost:5173"}, Locations: []string{"Bandung"}},
			JWT: config.JWTConfig{Secret: testSecret},
		},
		Logger:   logger.Nop(),
		Hub:      ws.NewHub(),
		Gatherer: reg,
		Metrics:  m,
	})
}

func serve(r http.Handler, method, path string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func TestHealth(t *testing.T) {
	rr := serve(newTestRouter(t), http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
}

func TestMetricsExposition(t *testing.T) {
	rr := serve(newTestRouter(t), http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `webhook_events_total{result="paid",status="settlement"} 1`)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	r := newTestRouter(t)
	for _, path := range []string{"/products", "/orders", "/orders/pending", "/inventory/availability", "/deliveries/1"} {
		rr := serve(r, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusUnauthorized, rr.Code, path)
	}
}

func TestWebhookIsPublic(t *testing.T) {
	// A malformed body is rejected by the handler, not the auth layer.
	req := httptest.NewRequest(http.MethodPost, "/payments/callback", strings.NewReader(`{`))
	rr := httptest.NewRecorder()
	newTestRouter(t).ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestWebSocketAuth(t *testing.T) {
	r := newTestRouter(t)

	rr := serve(r, http.MethodGet, "/ws/locations/Bandung/events", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	token, err := auth.GenerateToken(testSecret, "staff-1", "Bandung", enum.RoleStaff)
	require.NoError(t, err)

	rr = serve(r, http.MethodGet, "/ws/locations/Jakarta/events?token="+token, nil)
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestCORSPreflight(t *testing.T) {
	rr := serve(newTestRouter(t), http.MethodOptions, "/orders", http.Header{
		"Origin":                        {"http://localhost:5173"},
		"Access-Control-Request-Method": {"POST"},
	})
	assert.Equal(t, "http://localhost:5173", rr.Header().Get("Access-Control-Allow-Origin"))
}
