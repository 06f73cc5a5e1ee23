// Package seed loads demo users for development. It goes through the
// registration service so seeded accounts obey the same rules as real ones.
package seed

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/user-registry/internal/domain"
	"github.com/spec-kit/user-registry/internal/service"
)

// DemoUser is one account to seed.
type DemoUser struct {
	Name  string
	Email string
}

// DefaultUsers are the accounts created when none are given.
var DefaultUsers = []DemoUser{
	{Name: "Alice", Email: "alice@example.com"},
	{Name: "Bob", Email: "bob@example.com"},
	{Name: "Charlie", Email: "charlie@example.com"},
}

// Registrar creates accounts.
type Registrar interface {
	Register(ctx context.Context, name, email, password string) (*domain.PublicUser, error)
}

// Resetter wipes every account.
type Resetter interface {
	DeleteAll(ctx context.Context) (int64, error)
}

// Options controls a run.
type Options struct {
	Users    []DemoUser
	Password string
	Reset    bool
}

// Result summarizes a run.
type Result struct {
	Deleted int64
	Created []domain.PublicUser
	Skipped []string
}

// Run optionally clears the store, then registers each user. Users whose
// email is already taken are skipped, so repeated runs are safe.
func Run(ctx context.Context, reg Registrar, store Resetter, opts Options, logger *zap.Logger) (*Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	users := opts.Users
	if len(users) == 0 {
		users = DefaultUsers
	}

	res := &Result{}
	if opts.Reset {
		n, err := store.DeleteAll(ctx)
		if err != nil {
			return nil, fmt.Errorf("clear users: %w", err)
		}
		res.Deleted = n
		logger.Info("cleared existing users", zap.Int64("deleted", n))
	}

	for _, u := range users {
		created, err := reg.Register(ctx, u.Name, u.Email, opts.Password)
		var conflict *service.ConflictError
		switch {
		case errors.As(err, &conflict):
			res.Skipped = append(res.Skipped, u.Email)
			logger.Info("user exists, skipping", zap.String("email", u.Email))
		case err != nil:
			return res, fmt.Errorf("seed %s: %w", u.Email, err)
		default:
			res.Created = append(res.Created, *created)
		}
	}

	logger.Info("seed complete", zap.Int("created", len(res.Created)), zap.Int("skipped", len(res.Skipped)))
	return res, nil
}
