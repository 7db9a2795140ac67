package cache

import (
	"context"
	"fmt"
)

// SAdd adds members to a Redis set, used for the session store's secondary
// indexes (client_sessions:{user}:{client}, user_sessions:{user}).
func (c *Cache) SAdd(ctx context.Context, key string, members ...string) error {
	if !c.IsEnabled() {
		return nil
	}
	args := make([]interface{}, len(members))
	for i, m := range members {
		args[i] = m
	}
	if err := c.client.SAdd(ctx, key, args...).Err(); err != nil {
		return fmt.Errorf("failed to sadd key %s: %w", key, err)
	}
	return nil
}

// SRem removes members from a Redis set.
func (c *Cache) SRem(ctx context.Context, key string, members ...string) error {
	if !c.IsEnabled() {
		return nil
	}
	args := make([]interface{}, len(members))
	for i, m := range members {
		args[i] = m
	}
	if err := c.client.SRem(ctx, key, args...).Err(); err != nil {
		return fmt.Errorf("failed to srem key %s: %w", key, err)
	}
	return nil
}

// SMembers returns all members of a Redis set. Returns an empty slice
// (never an error) when the key does not exist, matching the
// self-healing enumeration semantics sessions indexes rely on.
func (c *Cache) SMembers(ctx context.Context, key string) ([]string, error) {
	if !c.IsEnabled() {
		return nil, nil
	}
	members, err := c.client.SMembers(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to smembers key %s: %w", key, err)
	}
	return members, nil
}

// SIsMember reports whether a value is a member of a Redis set.
func (c *Cache) SIsMember(ctx context.Context, key, member string) (bool, error) {
	if !c.IsEnabled() {
		return false, nil
	}
	ok, err := c.client.SIsMember(ctx, key, member).Result()
	if err != nil {
		return false, fmt.Errorf("failed to sismember key %s: %w", key, err)
	}
	return ok, nil
}
