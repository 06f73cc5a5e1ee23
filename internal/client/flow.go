package client

import (
	"context"
	"errors"
	"sync"

	"github.com/spec-kit/user-registry/internal/api/rpc"
	"github.com/spec-kit/user-registry/internal/domain"
	"github.com/spec-kit/user-registry/internal/session"
	apperrors "github.com/spec-kit/user-registry/pkg/util"
)

// Flow drives a session.Context from procedure results: a successful sign-in
// logs the session in, sign-out logs it out. Registration leaves the session
// untouched.
type Flow struct {
	client  *Client
	session *session.Context

	mu    sync.Mutex
	token string
}

// NewFlow binds c to s.
func NewFlow(c *Client, s *session.Context) *Flow {
	return &Flow{client: c, session: s}
}

// Session returns the bound session.
func (f *Flow) Session() *session.Context { return f.session }

// SignUp registers a user. The session is not changed.
func (f *Flow) SignUp(ctx context.Context, name, email, password string) (*rpc.SignUpOutput, error) {
	return f.client.SignUp(ctx, name, email, password)
}

// SignIn authenticates and, on success, logs the session in as the returned
// user. On failure the session keeps its previous state.
func (f *Flow) SignIn(ctx context.Context, email, password string) (*domain.PublicUser, error) {
	out, err := f.client.SignIn(ctx, email, password)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	f.token = out.Token
	f.mu.Unlock()

	f.session.Login(out.User)
	user := out.User
	return &user, nil
}

// SignOut forgets the token and logs the session out.
func (f *Flow) SignOut() {
	f.mu.Lock()
	f.token = ""
	f.mu.Unlock()

	f.session.Logout()
}

// Token returns the current bearer token, or "" when signed out.
func (f *Flow) Token() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.token
}

// WhoAmI asks the server who the token belongs to. A token the server no
// longer accepts signs the session out.
func (f *Flow) WhoAmI(ctx context.Context) (*domain.PublicUser, error) {
	token := f.Token()
	if token == "" {
		return nil, apperrors.NewUnauthorized("not signed in")
	}

	out, err := f.client.Me(ctx, token)
	if err != nil {
		var derr *apperrors.DomainError
		if errors.As(err, &derr) && (derr.Code == apperrors.CodeUnauthorized || derr.Code == apperrors.CodeNotFound) {
			f.SignOut()
		}
		return nil, err
	}
	return &out.User, nil
}

// ListUsers lists registered users.
func (f *Flow) ListUsers(ctx context.Context) ([]domain.PublicUser, error) {
	out, err := f.client.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	return out.Users, nil
}
