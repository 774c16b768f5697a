package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"cedarworks/internal/app/erp/viewkit"

	"github.com/stretchr/testify/assert"
)

// ===================== Router Tests =====================

func setupRouterTest() http.Handler {
	h := NewERPHandler(nil, nil, nil, nil, viewkit.NewSessionStore())
	return SetupRoutes(h, NewAuthMiddleware(testSecret))
}

func TestRouter_HealthEndpoint(t *testing.T) {
	router := setupRouterTest()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/health", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestRouter_MetricsEndpoint(t *testing.T) {
	router := setupRouterTest()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/metrics", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	// Отдача в текстовом формате Prometheus
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func TestRouter_PagesRequireAuth(t *testing.T) {
	router := setupRouterTest()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/pages", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
