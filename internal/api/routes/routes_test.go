package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Wikid82/formguard/internal/config"
	"github.com/Wikid82/formguard/internal/database"
	"github.com/Wikid82/formguard/internal/metrics"
)

func setupRouter(t *testing.T) (*gin.Engine, Dependencies) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.Connect(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()))
	require.NoError(t, err)

	cfg := config.Default()
	cfg.JWTSecret = "test-secret"
	cfg.Guard.RateLimit = 2

	registry := prometheus.NewRegistry()
	metrics.Register(registry)
	deps := NewDependencies(db, cfg, registry)
	router := gin.New()
	Register(router, deps)
	return router, deps
}

func doJSON(t *testing.T, router *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = "203.0.113.9:4000"
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRegister(t *testing.T) {
	router, _ := setupRouter(t)

	paths := map[string]bool{}
	for _, r := range router.Routes() {
		paths[r.Method+" "+r.Path] = true
	}
	for _, want := range []string{
		"GET /api/v1/health",
		"GET /metrics",
		"POST /api/v1/submissions/validate",
		"POST /api/v1/auth/login",
		"GET /api/v1/logs",
		"GET /api/v1/stats",
		"POST /api/v1/visitors/:visitor_id/spam",
		"DELETE /api/v1/visitors/:visitor_id/spam",
		"PUT /api/v1/settings",
	} {
		assert.True(t, paths[want], "route %s should be registered", want)
	}
}

func TestAdminRoutesRequireAuth(t *testing.T) {
	router, _ := setupRouter(t)

	w := doJSON(t, router, http.MethodGet, "/api/v1/logs", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/v1/visitors/abc/spam", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSubmissionAndReviewFlow(t *testing.T) {
	router, deps := setupRouter(t)

	_, err := deps.Auth.Register("admin@example.com", "password123", "Admin")
	require.NoError(t, err)

	w := doJSON(t, router, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email": "admin@example.com", "password": "password123",
	})
	require.Equal(t, http.StatusOK, w.Code)
	var login map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &login))
	token := login["token"]
	require.NotEmpty(t, token)

	submit := func(entry int) *httptest.ResponseRecorder {
		return doJSON(t, router, http.MethodPost, "/api/v1/submissions/validate", "", map[string]interface{}{
			"visitor_fingerprint": "abc",
			"visitor_confidence":  "0.9",
			"entry_id":            entry,
		})
	}

	assert.Equal(t, http.StatusOK, submit(1).Code)
	assert.Equal(t, http.StatusOK, submit(2).Code)
	w = submit(3)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "Too many submissions detected")

	w = doJSON(t, router, http.MethodGet, "/api/v1/logs?status=allowed", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var logs []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &logs))
	require.Len(t, logs, 2)
	assert.Equal(t, "203.0.113.9", logs[0]["ip_address"])

	w = doJSON(t, router, http.MethodGet, "/api/v1/stats", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"total":3,"allowed":2,"blocked":1,"spam":0,"suspicious":0}`, w.Body.String())

	w = doJSON(t, router, http.MethodPost, "/api/v1/visitors/abc/spam", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"affected":3}`, w.Body.String())

	w = doJSON(t, router, http.MethodGet, "/api/v1/audits", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "mark_spam")

	w = doJSON(t, router, http.MethodDelete, "/api/v1/visitors/abc/spam", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"affected":3}`, w.Body.String())

	w = doJSON(t, router, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "formguard_decisions_total"))
}
