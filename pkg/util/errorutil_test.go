package util

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToDomainError_PassesThroughWrapped(t *testing.T) {
	conflict := NewConflict("User with this email already exists.")
	got := ToDomainError(fmt.Errorf("signup: %w", conflict))

	assert.Same(t, conflict, got)
	assert.Equal(t, http.StatusConflict, got.HTTPStatus)
}

func TestToDomainError_UnknownBecomesInternal(t *testing.T) {
	got := ToDomainError(errors.New("pq: connection refused at 10.0.0.3"))

	assert.Equal(t, CodeInternal, got.Code)
	assert.Equal(t, "internal server error", got.Message)
	assert.Equal(t, http.StatusInternalServerError, got.HTTPStatus)

	raw, err := json.Marshal(got)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "10.0.0.3")
	assert.JSONEq(t, `{"code":"INTERNAL","message":"internal server error"}`, string(raw))
}

func TestToDomainError_FiberErrors(t *testing.T) {
	cases := []struct {
		status int
		code   string
	}{
		{fiber.StatusBadRequest, CodeBadRequest},
		{fiber.StatusUnauthorized, CodeUnauthorized},
		{fiber.StatusNotFound, CodeNotFound},
		{fiber.StatusMethodNotAllowed, CodeNotFound},
		{fiber.StatusConflict, CodeConflict},
		{fiber.StatusRequestTimeout, CodeUnavailable},
		{fiber.StatusTeapot, CodeInternal},
	}
	for _, tc := range cases {
		got := ToDomainError(fiber.NewError(tc.status, "boom"))
		assert.Equal(t, tc.code, got.Code, "status %d", tc.status)
	}
}

func TestToDomainError_Nil(t *testing.T) {
	assert.Nil(t, ToDomainError(nil))
}

func TestDomainError_WireShape(t *testing.T) {
	bad := NewBadRequest("invalid input", map[string]string{"name": "Name is required"})

	raw, err := json.Marshal(bad)
	require.NoError(t, err)
	assert.JSONEq(t, `{"code":"BAD_REQUEST","message":"invalid input","fields":{"name":"Name is required"}}`, string(raw))
	assert.False(t, bad.Retryable())
	assert.True(t, NewUnavailable(errors.New("timeout")).Retryable())
}
