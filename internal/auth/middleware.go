package auth

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	apperrors "github.com/spec-kit/user-registry/pkg/util"
)

type claimsKey struct{}

// WithClaims stores verified claims on ctx.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, claims)
}

// ClaimsFromContext retrieves the verified claims, if any.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsKey{}).(*Claims)
	return claims, ok && claims != nil
}

// BearerMiddleware verifies an optional bearer token and puts its claims on
// the request's user context. Requests without an Authorization header pass
// through; procedures that need a caller check ClaimsFromContext.
type BearerMiddleware struct {
	tokens *TokenManager
}

// NewBearerMiddleware constructs middleware.
func NewBearerMiddleware(tokens *TokenManager) *BearerMiddleware {
	return &BearerMiddleware{tokens: tokens}
}

// Handle rejects malformed or invalid tokens with UNAUTHORIZED.
func (m *BearerMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return c.Next()
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	claims, err := m.tokens.ParseToken(strings.TrimSpace(parts[1]))
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}

	c.SetUserContext(WithClaims(c.UserContext(), claims))
	return c.Next()
}
