package routes

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ELDEREASE_BACK-END/internal/config"
	"ELDEREASE_BACK-END/internal/handlers"
	"ELDEREASE_BACK-END/internal/logging"
	"ELDEREASE_BACK-END/internal/metrics"
	"ELDEREASE_BACK-END/internal/middleware"
	"ELDEREASE_BACK-END/internal/security"
	"ELDEREASE_BACK-END/internal/services"
	"ELDEREASE_BACK-END/internal/store"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	jwtCfg := config.JWTConfig{Secret: "0123456789abcdef0123456789abcdef", AccessTokenTTL: time.Hour}
	st := store.NewMemoryStore()
	tokens := middleware.NewTokenIssuer(jwtCfg)
	m := metrics.New()
	logger := logging.Discard()

	svc, err := services.NewAuthService(st, security.NewBcryptHasher(security.MinCost, 2), tokens,
		services.WithLogger(logger), services.WithMetrics(m))
	require.NoError(t, err)

	h := Handlers{
		Auth:    handlers.NewAuthHandler(svc, logger),
		Health:  handlers.NewHealthHandler(st, logger),
		Tokens:  tokens,
		Metrics: m,
	}
	srv := httptest.NewServer(NewHandler(h, config.CORSConfig{
		AllowedOrigins: []string{"https://app.example"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}))
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url, body string) (int, map[string]any) {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func get(t *testing.T, url, bearer string) (int, string) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(t, err)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestJaneScenario(t *testing.T) {
	srv := newTestServer(t)
	register := srv.URL + "/api/auth/register"
	login := srv.URL + "/api/auth/login"

	janeBody := `{"name":"Jane","gender":"Female","age":"30","mobile":"9171234567","email":"jane@x.com","password":"secret1"}`

	status, body := postJSON(t, register, janeBody)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "User registered successfully", body["message"])
	assert.Equal(t, "Jane", body["userName"])

	status, body = postJSON(t, register, janeBody)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "User already exists", body["message"])

	status, body = postJSON(t, login, `{"email":"jane@x.com","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Invalid email or password", body["message"])

	status, body = postJSON(t, login, `{"email":"jane@x.com","password":"secret1"}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Login successful", body["message"])
	token, ok := body["token"].(string)
	require.True(t, ok)
	user, ok := body["user"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Jane", user["name"])

	status, profile := get(t, srv.URL+"/api/auth/profile", token)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, profile, `"email":"jane@x.com"`)
	assert.NotContains(t, profile, "password")

	status, profile = get(t, srv.URL+"/api/auth/profile", "")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.JSONEq(t, `{"message":"Unauthorized"}`, profile)

	_, metricsBody := get(t, srv.URL+"/metrics", "")
	assert.Contains(t, metricsBody, `elderease_auth_attempts_total{operation="register",outcome="duplicate"} 1`)
	assert.Contains(t, metricsBody, `elderease_auth_attempts_total{operation="login",outcome="invalid_credentials"} 1`)
}

func TestRoutes_Misc(t *testing.T) {
	srv := newTestServer(t)

	status, body := get(t, srv.URL+"/readyz", "")
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"status":"ready","details":{"db":"ok"}}`, body)

	status, _ = get(t, srv.URL+"/api/auth/register", "")
	assert.Equal(t, http.StatusMethodNotAllowed, status)

	status, body = get(t, srv.URL+"/", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ElderEase backend is running.", body)

	status, _ = get(t, srv.URL+"/nope", "")
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = get(t, srv.URL+"/api/auth/google/login", "")
	assert.Equal(t, http.StatusNotFound, status, "google routes are not mounted without credentials")
}

func TestRoutes_CORS(t *testing.T) {
	srv := newTestServer(t)

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/api/auth/login", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://app.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "https://app.example", resp.Header.Get("Access-Control-Allow-Origin"))

	req.Header.Set("Origin", "https://evil.example")
	resp2, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp2.Body.Close()

	assert.Empty(t, resp2.Header.Get("Access-Control-Allow-Origin"))
}
