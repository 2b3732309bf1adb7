package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"student-manager/internal/config"
	"student-manager/internal/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		Env: "test",
		Server: config.ServerConfig{
			Host:        "127.0.0.1",
			Port:        "0",
			CORSOrigins: []string{"http://localhost:5173"},
		},
		Database: config.DatabaseConfig{
			Driver:         config.DriverSQLite,
			Path:           ":memory:",
			SeedSampleData: true,
		},
		Majors: config.DefaultMajors,
	}
}

func TestNew_ServesSeededWorkingSet(t *testing.T) {
	ctx := context.Background()
	a, err := New(ctx, testConfig(), logger.Discard())
	require.NoError(t, err)
	defer func() { assert.NoError(t, a.Shutdown(ctx)) }()

	w := httptest.NewRecorder()
	a.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	a.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/students", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var students []map[string]any
	require.NoError(t, json.NewDecoder(w.Body).Decode(&students))
	assert.Len(t, students, 8)

	req := httptest.NewRequest(http.MethodOptions, "/api/students", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	w = httptest.NewRecorder()
	a.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestNew_WithoutSeed(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()
	cfg.Database.SeedSampleData = false

	a, err := New(ctx, cfg, logger.Discard())
	require.NoError(t, err)
	defer a.Shutdown(ctx)

	w := httptest.NewRecorder()
	a.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/statistics", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, 0.0, resp["visibleCount"])
}

func TestNew_UnsupportedMessagingFallsBackToNoop(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()
	cfg.Messaging.Driver = "carrier-pigeon"

	a, err := New(ctx, cfg, logger.Discard())
	require.NoError(t, err)
	defer a.Shutdown(ctx)

	w := httptest.NewRecorder()
	a.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
