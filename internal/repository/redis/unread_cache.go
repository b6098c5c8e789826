package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"equiprent-backend/internal/repository"
)

const unreadTTL = 10 * time.Minute

type UnreadCache struct {
	client *goredis.Client
	ttl    time.Duration
}

func NewUnreadCache(client *goredis.Client) repository.UnreadCounter {
	return &UnreadCache{client: client, ttl: unreadTTL}
}

func unreadKey(userID int32) string {
	return fmt.Sprintf("notifications:unread:%d", userID)
}

func (c *UnreadCache) Get(ctx context.Context, userID int32) (int64, bool, error) {
	n, err := c.client.Get(ctx, unreadKey(userID)).Int64()
	if errors.Is(err, goredis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("get unread count: %w", err)
	}
	return n, true, nil
}

func (c *UnreadCache) Set(ctx context.Context, userID int32, count int64) error {
	if err := c.client.Set(ctx, unreadKey(userID), count, c.ttl).Err(); err != nil {
		return fmt.Errorf("set unread count: %w", err)
	}
	return nil
}

func (c *UnreadCache) Invalidate(ctx context.Context, userIDs ...int32) error {
	if len(userIDs) == 0 {
		return nil
	}
	keys := make([]string, len(userIDs))
	for i, id := range userIDs {
		keys[i] = unreadKey(id)
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("invalidate unread count: %w", err)
	}
	return nil
}
