package services

import (
	"context"
	"time"

	"github.com/cppla/topicbbs/apperrors"
	"github.com/cppla/topicbbs/metrics"
	"github.com/cppla/topicbbs/models"
	"github.com/cppla/topicbbs/store"
)

// Clock returns the current wall-clock time.
type Clock func() time.Time

// EvaluateStatus derives a post status: Expired iff now is at or after the expiration time.
func EvaluateStatus(expiration, now time.Time) models.PostStatus {
	if now.Before(expiration) {
		return models.StatusLive
	}
	return models.StatusExpired
}

// Lifecycle recomputes post status at access time. Nothing sweeps posts in the background,
// so every read that gates behaviour goes through Sync or SyncTopic first.
type Lifecycle struct {
	posts store.PostStore
	now   Clock
}

// NewLifecycle creates a Lifecycle. A nil clock uses time.Now.
func NewLifecycle(posts store.PostStore, now Clock) *Lifecycle {
	if now == nil {
		now = time.Now
	}
	return &Lifecycle{posts: posts, now: now}
}

// Now reports the lifecycle clock.
func (l *Lifecycle) Now() time.Time {
	return l.now()
}

// Sync loads a post, recomputes its status and persists the transition when the stored
// value is stale.
func (l *Lifecycle) Sync(ctx context.Context, id string) (*models.Post, error) {
	post, err := l.posts.FindByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "post")
	}

	now := l.now()
	status := EvaluateStatus(post.ExpirationTime, now)
	if status == post.Status {
		return post, nil
	}
	if status == models.StatusExpired {
		changed, err := l.posts.ExpireDue(ctx, id, now)
		if err != nil {
			return nil, apperrors.Classify(err, "refresh post status")
		}
		if changed {
			metrics.PostsExpired.Inc()
		}
	}
	post.Status = status
	return post, nil
}

// SyncTopic expires every due Live post of the topic.
func (l *Lifecycle) SyncTopic(ctx context.Context, topic models.Topic) error {
	n, err := l.posts.ExpireDueInTopic(ctx, topic, l.now())
	if err != nil {
		return apperrors.Classify(err, "refresh topic status")
	}
	if n > 0 {
		metrics.PostsExpired.Add(float64(n))
	}
	return nil
}
