package cli

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	httptransport "github.com/spec-kit/user-registry/internal/api/http"
	"github.com/spec-kit/user-registry/internal/api/http/handlers"
	"github.com/spec-kit/user-registry/internal/api/rpc"
	"github.com/spec-kit/user-registry/internal/auth"
	"github.com/spec-kit/user-registry/internal/client"
	"github.com/spec-kit/user-registry/internal/config"
	"github.com/spec-kit/user-registry/internal/repository"
	"github.com/spec-kit/user-registry/internal/service"
	"github.com/spec-kit/user-registry/internal/session"
)

func newFlow(t *testing.T) *client.Flow {
	t.Helper()
	tokens := auth.NewTokenManager("cli-secret", 5)
	svc := service.NewAuthService(
		config.Config{Auth: config.AuthConfig{BcryptCost: bcrypt.MinCost}},
		service.AuthDependencies{UserRepo: repository.NewInMemoryUserRepository(), Tokens: tokens},
	)
	app := fiber.New()
	httptransport.RegisterMiddlewares(app, nil, nil, time.Second)
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler("user-registry", "test", nil),
		Procedures:     handlers.NewProcedureHandler(rpc.NewRouter(nil, nil, rpc.AuthProcedures(svc)...)),
		AuthMiddleware: auth.NewBearerMiddleware(tokens),
	})
	srv := httptest.NewServer(adaptor.FiberApp(app))
	t.Cleanup(srv.Close)

	return client.NewFlow(client.New(srv.URL, client.WithHTTPClient(srv.Client())), session.New())
}

func runScript(t *testing.T, flow *client.Flow, lines ...string) string {
	t.Helper()
	var out bytes.Buffer
	app := NewApp(flow, strings.NewReader(strings.Join(lines, "\n")+"\n"), -1, &out)
	require.NoError(t, app.Run(context.Background()))
	return out.String()
}

func TestApp_RegisterLoginLogout(t *testing.T) {
	flow := newFlow(t)

	out := runScript(t, flow,
		"register", "Alice", "alice@example.com", "password123",
		"login", "alice@example.com", "password123",
		"whoami",
		"users",
		"logout",
		"logout",
		"quit",
	)

	assert.Contains(t, out, "User registered successfully: Alice <alice@example.com>")
	assert.Contains(t, out, "Signed in as Alice <alice@example.com>")
	assert.Contains(t, out, "alice@example.com> ")
	assert.Equal(t, 1, strings.Count(out, "Signed out"), "second logout must not render")
	assert.Contains(t, out, "Bye!")
	assert.False(t, flow.Session().IsAuthenticated())
}

func TestApp_ReportsFailures(t *testing.T) {
	flow := newFlow(t)

	out := runScript(t, flow,
		"register", "", "nope", "short",
		"login", "ghost@example.com", "password123",
		"whoami",
		"dance",
	)

	assert.Contains(t, out, "BAD_REQUEST: invalid input\n  email: Invalid email address\n  name: Name is required\n  password: Password must be at least 8 characters long\n")
	assert.Contains(t, out, "UNAUTHORIZED: Invalid email or password.")
	assert.Contains(t, out, "UNAUTHORIZED: not signed in")
	assert.Contains(t, out, "Unknown command: dance")
	assert.NotContains(t, out, "Signed in")
}

func TestGetPassword_Terminal(t *testing.T) {
	origIsTerminal, origRead := isTerminal, readPassword
	t.Cleanup(func() { isTerminal, readPassword = origIsTerminal, origRead })

	isTerminal = func(int) bool { return true }
	readPassword = func(int) ([]byte, error) { return []byte("s3cret-pass"), nil }

	var out bytes.Buffer
	pw, err := GetPassword(bufio.NewReader(strings.NewReader("")), 0, &out)
	require.NoError(t, err)
	assert.Equal(t, "s3cret-pass", pw)
	assert.Equal(t, "Password: \n", out.String())

	readPassword = func(int) ([]byte, error) { return nil, errors.New("inappropriate ioctl") }
	_, err = GetPassword(bufio.NewReader(strings.NewReader("")), 0, &out)
	assert.Error(t, err)
}

func TestGetSimpleText(t *testing.T) {
	var out bytes.Buffer
	r := bufio.NewReader(strings.NewReader("  Alice  \nlast"))

	got, err := GetSimpleText(r, "Name", &out)
	require.NoError(t, err)
	assert.Equal(t, "Alice", got)

	got, err = GetSimpleText(r, "Name", &out)
	require.NoError(t, err)
	assert.Equal(t, "last", got)

	_, err = GetSimpleText(r, "Name", &out)
	assert.Error(t, err)
}
