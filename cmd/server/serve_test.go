package main

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/soaringjerry/hrpulse/internal/api"
	"github.com/soaringjerry/hrpulse/internal/catalog"
	"github.com/soaringjerry/hrpulse/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	logger = zap.NewNop()
	return &config.Config{
		Server:  config.ServerConfig{Addr: ":0", CORSOrigins: []string{"http://ui.test"}},
		Auth:    config.AuthConfig{JWTSecret: "s", SessionTTL: time.Hour, CookieName: "hrpulse_session"},
		Storage: config.StorageConfig{Driver: "memory"},
		AI:      config.AIConfig{Timeout: time.Second},
	}
}

func TestHandlerChain(t *testing.T) {
	c := testConfig(t)
	h := buildHandler(c, api.NewMemoryStore(catalog.Default().Departments))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://ui.test")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "http://ui.test", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/dashboard", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Header().Get("Cache-Control"), "no-store")
}

func TestStaticFrontend(t *testing.T) {
	c := testConfig(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>hrpulse</h1>"), 0o600))
	c.Server.StaticDir = dir
	h := buildHandler(c, api.NewMemoryStore(nil))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "hrpulse")
}

func TestOpenSQLiteStore(t *testing.T) {
	logger = zap.NewNop()
	store, closeStore, err := openStore(config.StorageConfig{
		Driver:     "sqlite",
		SQLitePath: filepath.Join(t.TempDir(), "nested", "hrpulse.db"),
	})
	require.NoError(t, err)
	defer closeStore()
	depts, err := store.GetDepartments()
	require.NoError(t, err)
	assert.Len(t, depts, 6)
}
