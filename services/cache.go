package services

import (
	"context"
	"strconv"
	"time"

	"github.com/cppla/topicbbs/models"
)

// ListCache is the subset of utils.Cache the services rely on.
type ListCache interface {
	GetJSON(ctx context.Context, key string, v interface{}) bool
	SetJSON(ctx context.Context, key string, v interface{}, ttl time.Duration)
	InvalidateByPrefix(ctx context.Context, prefix string)
	Version(ctx context.Context, key string) (int64, bool)
	BumpVersion(ctx context.Context, key string)
}

type noopCache struct{}

func (noopCache) GetJSON(context.Context, string, interface{}) bool           { return false }
func (noopCache) SetJSON(context.Context, string, interface{}, time.Duration) {}
func (noopCache) InvalidateByPrefix(context.Context, string)                  {}
func (noopCache) Version(context.Context, string) (int64, bool)               { return 0, false }
func (noopCache) BumpVersion(context.Context, string)                         {}

func orNoopCache(c ListCache) ListCache {
	if c == nil {
		return noopCache{}
	}
	return c
}

func topicCachePrefix(topic models.Topic) string {
	return "cache:posts:topic:" + string(topic) + ":"
}

// topicVersionKey lives outside topicCachePrefix so prefix invalidation never resets it.
func topicVersionKey(topic models.Topic) string {
	return "cache:posts:version:" + string(topic)
}

func liveListKey(topic models.Topic, version int64) string {
	return topicCachePrefix(topic) + "live:v" + strconv.FormatInt(version, 10)
}

// invalidateTopic must run after the write it follows is durable. Readers that fetched
// before the bump store their result under the old generation, which is never read again.
func invalidateTopic(ctx context.Context, cache ListCache, topic models.Topic) {
	cache.BumpVersion(ctx, topicVersionKey(topic))
	cache.InvalidateByPrefix(ctx, topicCachePrefix(topic))
}
