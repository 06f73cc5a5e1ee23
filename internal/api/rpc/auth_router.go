package rpc

import (
	"context"
	"time"

	"github.com/spec-kit/user-registry/internal/auth"
	"github.com/spec-kit/user-registry/internal/domain"
	"github.com/spec-kit/user-registry/internal/service"
	apperrors "github.com/spec-kit/user-registry/pkg/util"
)

// Procedure names.
const (
	ProcSignUp    = "auth.signup"
	ProcSignIn    = "auth.signin"
	ProcMe        = "auth.me"
	ProcListUsers = "users.list"
)

const (
	msgRegistered = "User registered successfully"
	msgSignedIn   = "Signed in successfully"
)

// AuthAPI is the slice of the auth service the procedures call.
type AuthAPI interface {
	Register(ctx context.Context, name, email, password string) (*domain.PublicUser, error)
	SignIn(ctx context.Context, email, password string) (*service.SignInResult, error)
	Me(ctx context.Context, userID string) (*domain.PublicUser, error)
	ListUsers(ctx context.Context) ([]domain.PublicUser, error)
}

// SignUpInput is the auth.signup schema.
type SignUpInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (in SignUpInput) Validate() map[string]string {
	return service.ValidateRegistration(in.Name, in.Email, in.Password)
}

// SignUpUser is the projection returned by auth.signup.
type SignUpUser struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// SignUpOutput is the auth.signup success shape.
type SignUpOutput struct {
	Success bool       `json:"success"`
	Message string     `json:"message"`
	User    SignUpUser `json:"user"`
}

// SignInInput is the auth.signin schema.
type SignInInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (in SignInInput) Validate() map[string]string {
	return service.ValidateSignIn(in.Email, in.Password)
}

// SignInOutput is the auth.signin success shape.
type SignInOutput struct {
	Success   bool              `json:"success"`
	Message   string            `json:"message"`
	User      domain.PublicUser `json:"user"`
	Token     string            `json:"token"`
	ExpiresAt time.Time         `json:"expiresAt"`
}

// Empty is the input of procedures that take no arguments.
type Empty struct{}

func (Empty) Validate() map[string]string { return nil }

// MeOutput is the auth.me success shape.
type MeOutput struct {
	User domain.PublicUser `json:"user"`
}

// ListUsersOutput is the users.list success shape.
type ListUsersOutput struct {
	Users []domain.PublicUser `json:"users"`
}

// AuthProcedures declares the auth and user procedures over svc.
func AuthProcedures(svc AuthAPI) []Procedure {
	return []Procedure{
		New(ProcSignUp, func(ctx context.Context, in SignUpInput) (SignUpOutput, error) {
			user, err := svc.Register(ctx, in.Name, in.Email, in.Password)
			if err != nil {
				return SignUpOutput{}, err
			}
			return SignUpOutput{
				Success: true,
				Message: msgRegistered,
				User:    SignUpUser{Name: user.Name, Email: user.Email},
			}, nil
		}),
		New(ProcSignIn, func(ctx context.Context, in SignInInput) (SignInOutput, error) {
			res, err := svc.SignIn(ctx, in.Email, in.Password)
			if err != nil {
				return SignInOutput{}, err
			}
			return SignInOutput{
				Success:   true,
				Message:   msgSignedIn,
				User:      res.User,
				Token:     res.Token,
				ExpiresAt: res.ExpiresAt,
			}, nil
		}),
		New(ProcMe, func(ctx context.Context, _ Empty) (MeOutput, error) {
			claims, ok := auth.ClaimsFromContext(ctx)
			if !ok {
				return MeOutput{}, apperrors.NewUnauthorized("authentication required")
			}
			user, err := svc.Me(ctx, claims.UserID)
			if err != nil {
				return MeOutput{}, err
			}
			return MeOutput{User: *user}, nil
		}),
		New(ProcListUsers, func(ctx context.Context, _ Empty) (ListUsersOutput, error) {
			users, err := svc.ListUsers(ctx)
			if err != nil {
				return ListUsersOutput{}, err
			}
			return ListUsersOutput{Users: users}, nil
		}),
	}
}
