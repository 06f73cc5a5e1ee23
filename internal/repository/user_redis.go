package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/user-registry/internal/domain"
)

const defaultRedisKeyPrefix = "registry:"

// redisUserRepository stores each user as a hash, claims the email with SETNX
// and keeps a sorted set of ids ordered by creation time.
type redisUserRepository struct {
	client redis.Cmdable
	prefix string
	now    func() time.Time
}

// NewRedisUserRepository returns a Redis-backed implementation. An empty
// prefix selects "registry:".
func NewRedisUserRepository(client redis.Cmdable, prefix string) UserRepository {
	if prefix == "" {
		prefix = defaultRedisKeyPrefix
	}
	return &redisUserRepository{client: client, prefix: prefix, now: time.Now}
}

func (r *redisUserRepository) userKey(id string) string     { return r.prefix + "user:" + id }
func (r *redisUserRepository) emailKey(email string) string { return r.prefix + "email:" + email }
func (r *redisUserRepository) indexKey() string             { return r.prefix + "users" }

func (r *redisUserRepository) Create(ctx context.Context, user *domain.User) error {
	id := uuid.NewString()
	createdAt := r.now().UTC()

	claimed, err := r.client.SetNX(ctx, r.emailKey(user.Email), id, 0).Result()
	if err != nil {
		return fmt.Errorf("claim email: %w", err)
	}
	if !claimed {
		return ErrDuplicateEmail
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, r.userKey(id), map[string]interface{}{
			"id":            id,
			"name":          user.Name,
			"email":         user.Email,
			"password_hash": user.PasswordHash,
			"created_at":    strconv.FormatInt(createdAt.UnixNano(), 10),
		})
		pipe.ZAdd(ctx, r.indexKey(), redis.Z{Score: float64(createdAt.UnixNano()), Member: id})
		return nil
	})
	if err != nil {
		// release the claim so the email is not stuck without a record
		_ = r.client.Del(context.WithoutCancel(ctx), r.emailKey(user.Email)).Err()
		return fmt.Errorf("store user: %w", err)
	}

	user.ID = id
	user.CreatedAt = createdAt
	return nil
}

func (r *redisUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	fields, err := r.client.HGetAll(ctx, r.userKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	return userFromHash(fields)
}

func (r *redisUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	id, err := r.client.Get(ctx, r.emailKey(email)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("lookup email: %w", err)
	}
	return r.GetByID(ctx, id)
}

func (r *redisUserRepository) List(ctx context.Context) ([]domain.User, error) {
	ids, err := r.client.ZRange(ctx, r.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	cmds := make([]*redis.MapStringStringCmd, len(ids))
	_, err = r.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, id := range ids {
			cmds[i] = pipe.HGetAll(ctx, r.userKey(id))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	users := make([]domain.User, 0, len(ids))
	for _, cmd := range cmds {
		user, err := userFromHash(cmd.Val())
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		users = append(users, *user)
	}
	return users, nil
}

func (r *redisUserRepository) DeleteAll(ctx context.Context) (int64, error) {
	count, err := r.client.ZCard(ctx, r.indexKey()).Result()
	if err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}

	iter := r.client.Scan(ctx, 0, r.prefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return 0, fmt.Errorf("scan keys: %w", err)
	}
	if len(keys) > 0 {
		if err := r.client.Del(ctx, keys...).Err(); err != nil {
			return 0, fmt.Errorf("delete users: %w", err)
		}
	}
	return count, nil
}

func userFromHash(fields map[string]string) (*domain.User, error) {
	if len(fields) == 0 {
		return nil, ErrNotFound
	}
	nanos, err := strconv.ParseInt(fields["created_at"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("decode created_at: %w", err)
	}
	return &domain.User{
		ID:           fields["id"],
		Name:         fields["name"],
		Email:        fields["email"],
		PasswordHash: fields["password_hash"],
		CreatedAt:    time.Unix(0, nanos).UTC(),
	}, nil
}
