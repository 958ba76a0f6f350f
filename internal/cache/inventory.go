package cache

import (
	"context"
	"fmt"
	"time"
)

// Key formats.
const (
	UserKeyPrefix  = "user:%d"
	PostKeyPrefix  = "post:%s"
	CategoriesKey  = "categories:list"
	StatsKey       = "admin:stats"
	CommunityKeyFm = "community:%s"
)

// TTLs.
const (
	UserTTL       = 5 * time.Minute
	PostTTL       = 30 * time.Second
	CategoriesTTL = 10 * time.Minute
	StatsTTL      = time.Minute
	CommunityTTL  = 10 * time.Minute
)

// UserKey is the cache key for a user profile.
func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

// PostKey is the cache key for a post by slug.
func PostKey(slug string) string {
	return fmt.Sprintf(PostKeyPrefix, slug)
}

// CommunityKey is the cache key for a community by slug.
func CommunityKey(slug string) string {
	return fmt.Sprintf(CommunityKeyFm, slug)
}

// Invalidate drops keys. Errors are ignored; entries expire by TTL anyway.
func Invalidate(ctx context.Context, keys ...string) {
	if client != nil && len(keys) > 0 {
		client.Del(ctx, keys...)
	}
}

func InvalidateUser(ctx context.Context, userID uint) {
	Invalidate(ctx, UserKey(userID))
}

func InvalidatePost(ctx context.Context, slug string) {
	Invalidate(ctx, PostKey(slug))
}

func InvalidateCategories(ctx context.Context) {
	Invalidate(ctx, CategoriesKey)
}
