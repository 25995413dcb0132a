package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/edustack/authuser/domain"
	"github.com/edustack/authuser/repository"
)

// userCache decorates a UserRepository with a read-through cache on point
// lookups. Every mutation drops the cached entry, so readers going through
// the decorator never see a stale user after a write. Listings and
// existence checks always hit the backing store.
type userCache struct {
	inner  repository.UserRepository
	client *redislib.Client
	prefix string
	ttl    time.Duration
	logger *zap.Logger
}

// NewUserCache wraps a user repository with a Redis cache.
func NewUserCache(inner repository.UserRepository, client *redislib.Client, ttl time.Duration, logger *zap.Logger) repository.UserRepository {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &userCache{
		inner:  inner,
		client: client,
		prefix: "user:",
		ttl:    ttl,
		logger: logger,
	}
}

// cacheRecord carries every persistent field, including the password the
// public JSON shape of domain.User deliberately omits.
type cacheRecord struct {
	User     domain.User `json:"user"`
	Password string      `json:"password"`
}

func (c *userCache) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	if cached, err := c.client.Get(ctx, c.key(id)).Result(); err == nil {
		var rec cacheRecord
		if err := json.Unmarshal([]byte(cached), &rec); err == nil {
			user := rec.User
			user.Password = rec.Password
			return &user, nil
		}
	} else if err != redislib.Nil {
		c.logger.Warn("user cache read failed", zap.Error(err))
	}

	user, err := c.inner.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c.store(ctx, user)
	return user, nil
}

func (c *userCache) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return c.inner.ExistsByUsername(ctx, username)
}

func (c *userCache) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return c.inner.ExistsByEmail(ctx, email)
}

func (c *userCache) List(ctx context.Context, spec repository.Specification, page repository.PageRequest) (domain.UserPage, error) {
	return c.inner.List(ctx, spec, page)
}

func (c *userCache) Save(ctx context.Context, user *domain.User) error {
	if err := c.inner.Save(ctx, user); err != nil {
		return err
	}
	c.invalidate(ctx, user.ID)
	return nil
}

func (c *userCache) Delete(ctx context.Context, user *domain.User) error {
	if err := c.inner.Delete(ctx, user); err != nil {
		return err
	}
	c.invalidate(ctx, user.ID)
	return nil
}

func (c *userCache) store(ctx context.Context, user *domain.User) {
	payload, err := json.Marshal(cacheRecord{User: *user, Password: user.Password})
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, c.key(user.ID), payload, c.ttl).Err(); err != nil {
		c.logger.Warn("user cache write failed", zap.Error(err))
	}
}

func (c *userCache) invalidate(ctx context.Context, id uuid.UUID) {
	if err := c.client.Del(ctx, c.key(id)).Err(); err != nil {
		c.logger.Warn("user cache invalidation failed", zap.String("user_id", id.String()), zap.Error(err))
	}
}

func (c *userCache) key(id uuid.UUID) string {
	return fmt.Sprintf("%s%s", c.prefix, id)
}
