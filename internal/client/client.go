// Package client calls the auth procedures over HTTP and keeps a session
// context in step with the results.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/user-registry/internal/api/rpc"
	apperrors "github.com/spec-kit/user-registry/pkg/util"
)

const defaultTimeout = 10 * time.Second

// Client is a procedure client. Failures the server reports come back as
// *util.DomainError; transport failures are returned wrapped.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New returns a client for the server at baseURL, e.g. "http://localhost:8080".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SignUp calls auth.signup.
func (c *Client) SignUp(ctx context.Context, name, email, password string) (*rpc.SignUpOutput, error) {
	var out rpc.SignUpOutput
	in := rpc.SignUpInput{Name: name, Email: email, Password: password}
	if err := c.call(ctx, rpc.ProcSignUp, "", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SignIn calls auth.signin.
func (c *Client) SignIn(ctx context.Context, email, password string) (*rpc.SignInOutput, error) {
	var out rpc.SignInOutput
	in := rpc.SignInInput{Email: email, Password: password}
	if err := c.call(ctx, rpc.ProcSignIn, "", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Me calls auth.me with the bearer token.
func (c *Client) Me(ctx context.Context, token string) (*rpc.MeOutput, error) {
	var out rpc.MeOutput
	if err := c.call(ctx, rpc.ProcMe, token, rpc.Empty{}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListUsers calls users.list.
func (c *Client) ListUsers(ctx context.Context) (*rpc.ListUsersOutput, error) {
	var out rpc.ListUsersOutput
	if err := c.call(ctx, rpc.ProcListUsers, "", rpc.Empty{}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) call(ctx context.Context, procedure, token string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode %s input: %w", procedure, err)
	}

	url := c.baseURL + "/trpc/" + procedure
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build %s request: %w", procedure, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("call %s: %w", procedure, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s response: %w", procedure, err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeFailure(resp.StatusCode, raw)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s response: %w", procedure, err)
	}
	return nil
}

// decodeFailure turns an error response into a DomainError. A body without a
// code, such as a proxy error page, is classified by status alone.
func decodeFailure(status int, raw []byte) *apperrors.DomainError {
	var derr apperrors.DomainError
	if err := json.Unmarshal(raw, &derr); err != nil || derr.Code == "" {
		derr = *apperrors.ToDomainError(fiber.NewError(status, http.StatusText(status)))
	}
	derr.HTTPStatus = status
	return &derr
}
