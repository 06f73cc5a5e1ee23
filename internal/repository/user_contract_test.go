package repository

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/user-registry/internal/domain"
)

// runUserRepositoryContract checks the behaviour every UserRepository
// implementation has to share. newRepo must return an empty store.
func runUserRepositoryContract(t *testing.T, newRepo func(t *testing.T) UserRepository) {
	t.Helper()
	ctx := context.Background()

	t.Run("create assigns id and round-trips by id and email", func(t *testing.T) {
		repo := newRepo(t)
		user := &domain.User{Name: "Alice", Email: "alice@example.com", PasswordHash: "hash"}
		require.NoError(t, repo.Create(ctx, user))
		require.NotEmpty(t, user.ID)
		assert.False(t, user.CreatedAt.IsZero())

		byID, err := repo.GetByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, user.Public(), byID.Public())
		assert.Equal(t, "hash", byID.PasswordHash)

		byEmail, err := repo.GetByEmail(ctx, "alice@example.com")
		require.NoError(t, err)
		assert.Equal(t, user.ID, byEmail.ID)
	})

	t.Run("missing lookups return ErrNotFound", func(t *testing.T) {
		repo := newRepo(t)
		_, err := repo.GetByEmail(ctx, "nobody@example.com")
		assert.ErrorIs(t, err, ErrNotFound)

		_, err = repo.GetByID(ctx, "3f1c4a5e-0000-4000-8000-000000000000")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("duplicate email is rejected by the store", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Create(ctx, &domain.User{Name: "A", Email: "dup@example.com", PasswordHash: "h1"}))

		err := repo.Create(ctx, &domain.User{Name: "B", Email: "dup@example.com", PasswordHash: "h2"})
		assert.ErrorIs(t, err, ErrDuplicateEmail)

		users, err := repo.List(ctx)
		require.NoError(t, err)
		assert.Len(t, users, 1)
		assert.Equal(t, "A", users[0].Name)
	})

	t.Run("concurrent creates for one email admit exactly one", func(t *testing.T) {
		repo := newRepo(t)
		const racers = 16
		var wg sync.WaitGroup
		var created, duplicates atomic.Int32
		for i := 0; i < racers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				err := repo.Create(ctx, &domain.User{Name: "Racer", Email: "race@example.com", PasswordHash: "h"})
				switch {
				case err == nil:
					created.Add(1)
				case assert.ErrorIs(t, err, ErrDuplicateEmail):
					duplicates.Add(1)
				}
			}()
		}
		wg.Wait()

		assert.EqualValues(t, 1, created.Load())
		assert.EqualValues(t, racers-1, duplicates.Load())
	})

	t.Run("list returns creation order and delete all empties the store", func(t *testing.T) {
		repo := newRepo(t)
		for _, email := range []string{"a@example.com", "b@example.com", "c@example.com"} {
			require.NoError(t, repo.Create(ctx, &domain.User{Name: email, Email: email, PasswordHash: "h"}))
		}

		users, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, users, 3)
		assert.Equal(t, "a@example.com", users[0].Email)
		assert.Equal(t, "c@example.com", users[2].Email)

		n, err := repo.DeleteAll(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 3, n)

		users, err = repo.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, users)

		require.NoError(t, repo.Create(ctx, &domain.User{Name: "again", Email: "a@example.com", PasswordHash: "h"}))
	})
}
