package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/user-registry/internal/api/http/handlers"
	"github.com/spec-kit/user-registry/internal/api/rpc"
	"github.com/spec-kit/user-registry/internal/auth"
	"github.com/spec-kit/user-registry/internal/config"
	"github.com/spec-kit/user-registry/internal/observability"
	"github.com/spec-kit/user-registry/internal/repository"
	"github.com/spec-kit/user-registry/internal/service"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func newTestApp(t *testing.T, deps map[string]handlers.Pinger) (*fiber.App, *auth.TokenManager) {
	t.Helper()

	tokens := auth.NewTokenManager("http-secret", 5)
	metrics := observability.NewMetrics()
	cfg := config.Config{Auth: config.AuthConfig{BcryptCost: bcrypt.MinCost}}
	svc := service.NewAuthService(cfg, service.AuthDependencies{
		UserRepo: repository.NewInMemoryUserRepository(),
		Tokens:   tokens,
		Metrics:  metrics,
	})
	router := rpc.NewRouter(zap.NewNop(), metrics, rpc.AuthProcedures(svc)...)

	app := fiber.New()
	RegisterMiddlewares(app, zap.NewNop(), metrics, time.Second)
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler("user-registry", "test", deps),
		Procedures:     handlers.NewProcedureHandler(router),
		AuthMiddleware: auth.NewBearerMiddleware(tokens),
		Metrics:        metrics,
	})
	return app, tokens
}

func post(t *testing.T, app *fiber.App, path, body, token string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(nethttp.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	return resp.StatusCode, out
}

func TestProcedures_SignUpFlow(t *testing.T) {
	app, _ := newTestApp(t, nil)
	alice := `{"name":"Alice","email":"alice@example.com","password":"password123"}`

	status, body := post(t, app, "/trpc/auth.signup", alice, "")
	assert.Equal(t, nethttp.StatusOK, status)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "User registered successfully", body["message"])
	assert.Equal(t, map[string]any{"name": "Alice", "email": "alice@example.com"}, body["user"])

	status, body = post(t, app, "/trpc/auth.signup", alice, "")
	assert.Equal(t, nethttp.StatusConflict, status)
	assert.Equal(t, "CONFLICT", body["code"])
	assert.Contains(t, body["message"], "already exists")

	status, body = post(t, app, "/trpc/auth.signup", `{"name":"","email":"a@b.com","password":"password123"}`, "")
	assert.Equal(t, nethttp.StatusBadRequest, status)
	assert.Equal(t, "BAD_REQUEST", body["code"])
	assert.Equal(t, map[string]any{"name": "Name is required"}, body["fields"])

	status, body = post(t, app, "/trpc/auth.signup", `not json`, "")
	assert.Equal(t, nethttp.StatusBadRequest, status)
	assert.Equal(t, "invalid payload", body["message"])
}

func TestProcedures_SignInAndMe(t *testing.T) {
	app, _ := newTestApp(t, nil)
	_, _ = post(t, app, "/trpc/auth.signup", `{"name":"Bob","email":"bob@example.com","password":"password123"}`, "")

	status, body := post(t, app, "/trpc/auth.signin", `{"email":"bob@example.com","password":"password123"}`, "")
	require.Equal(t, nethttp.StatusOK, status)
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)
	assert.NotEmpty(t, body["expiresAt"])

	status, body = post(t, app, "/trpc/auth.signin", `{"email":"bob@example.com","password":"not-the-one"}`, "")
	assert.Equal(t, nethttp.StatusUnauthorized, status)
	assert.Equal(t, "Invalid email or password.", body["message"])

	status, body = post(t, app, "/trpc/auth.me", ``, token)
	require.Equal(t, nethttp.StatusOK, status)
	assert.Equal(t, "bob@example.com", body["user"].(map[string]any)["email"])

	status, body = post(t, app, "/trpc/auth.me", ``, "")
	assert.Equal(t, nethttp.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHORIZED", body["code"])

	status, _ = post(t, app, "/trpc/auth.me", ``, "garbage")
	assert.Equal(t, nethttp.StatusUnauthorized, status)

	status, body = post(t, app, "/trpc/users.list", ``, "")
	require.Equal(t, nethttp.StatusOK, status)
	assert.Len(t, body["users"], 1)
}

func TestProcedures_Unknown(t *testing.T) {
	app, _ := newTestApp(t, nil)

	status, body := post(t, app, "/trpc/auth.reset", `{}`, "")
	assert.Equal(t, nethttp.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", body["code"])
}

func TestHealth(t *testing.T) {
	t.Run("live", func(t *testing.T) {
		app, _ := newTestApp(t, nil)
		resp, err := app.Test(httptest.NewRequest(nethttp.MethodGet, "/health/live", nil))
		require.NoError(t, err)
		assert.Equal(t, nethttp.StatusOK, resp.StatusCode)
	})

	t.Run("ready without dependencies", func(t *testing.T) {
		app, _ := newTestApp(t, nil)
		resp, err := app.Test(httptest.NewRequest(nethttp.MethodGet, "/health/ready", nil))
		require.NoError(t, err)
		assert.Equal(t, nethttp.StatusOK, resp.StatusCode)
	})

	t.Run("not ready when a dependency fails", func(t *testing.T) {
		app, _ := newTestApp(t, map[string]handlers.Pinger{
			"postgres": pingFunc(func(context.Context) error { return nil }),
			"redis":    pingFunc(func(context.Context) error { return errors.New("connection refused") }),
		})
		resp, err := app.Test(httptest.NewRequest(nethttp.MethodGet, "/health/ready", nil))
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, nethttp.StatusServiceUnavailable, resp.StatusCode)

		var body map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "UNAVAILABLE", body["code"])
		assert.Equal(t, map[string]any{"postgres": "ok", "redis": "connection refused"}, body["fields"])
	})
}

func TestMetricsEndpoint(t *testing.T) {
	app, _ := newTestApp(t, nil)
	_, _ = post(t, app, "/trpc/auth.signup", `{"name":"Carol","email":"carol@example.com","password":"password123"}`, "")

	resp, err := app.Test(httptest.NewRequest(nethttp.MethodGet, "/metrics", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Contains(t, string(raw), `user_registry_procedure_calls_total{code="OK",procedure="auth.signup"} 1`)
	assert.Contains(t, string(raw), "user_registry_users_registered_total 1")
}

func TestErrorMiddleware_RecoversPanics(t *testing.T) {
	app := fiber.New()
	RegisterMiddlewares(app, nil, nil, 0)
	app.Get("/boom", func(*fiber.Ctx) error { panic("boom") })

	resp, err := app.Test(httptest.NewRequest(nethttp.MethodGet, "/boom", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, nethttp.StatusInternalServerError, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, map[string]any{"code": "INTERNAL", "message": "internal server error"}, body)
}

func TestErrorMiddleware_FiberErrors(t *testing.T) {
	app := fiber.New()
	RegisterMiddlewares(app, nil, nil, 0)

	resp, err := app.Test(httptest.NewRequest(nethttp.MethodGet, "/nowhere", nil))
	require.NoError(t, err)
	assert.Equal(t, nethttp.StatusNotFound, resp.StatusCode)
}
