package services

import (
	"context"
	"time"

	"github.com/samber/lo"

	"github.com/cppla/topicbbs/apperrors"
	"github.com/cppla/topicbbs/models"
	"github.com/cppla/topicbbs/store"
)

// TopicService answers topic-scoped queries. Every query recomputes the status of the
// topic's posts before reading them.
type TopicService struct {
	posts     store.PostStore
	lifecycle *Lifecycle
	cache     ListCache
	cacheTTL  time.Duration
}

// NewTopicService creates a TopicService. cache may be nil; cacheTTL bounds cached Live lists.
func NewTopicService(posts store.PostStore, lifecycle *Lifecycle, cache ListCache, cacheTTL time.Duration) *TopicService {
	return &TopicService{posts: posts, lifecycle: lifecycle, cache: orNoopCache(cache), cacheTTL: cacheTTL}
}

// ListByTopicAndStatus returns the topic's posts in the given status, newest first.
// Unknown topics and statuses are rejected.
func (s *TopicService) ListByTopicAndStatus(ctx context.Context, topicName, statusName string) ([]models.Post, error) {
	topic, err := parseTopic(topicName)
	if err != nil {
		return nil, err
	}
	status, ok := models.ParseStatus(statusName)
	if !ok {
		return nil, apperrors.Validation("status must be Live or Expired")
	}
	if status == models.StatusLive {
		return s.listLive(ctx, topic)
	}
	return s.list(ctx, topic, status)
}

// ListLive returns the topic's Live posts, newest first.
func (s *TopicService) ListLive(ctx context.Context, topicName string) ([]models.Post, error) {
	return s.ListByTopicAndStatus(ctx, topicName, string(models.StatusLive))
}

// ListExpired returns the topic's Expired posts, newest first.
func (s *TopicService) ListExpired(ctx context.Context, topicName string) ([]models.Post, error) {
	return s.ListByTopicAndStatus(ctx, topicName, string(models.StatusExpired))
}

// MostActive returns the Live post of the topic ranked first by RankMostActive.
func (s *TopicService) MostActive(ctx context.Context, topicName string) (*models.Post, error) {
	topic, err := parseTopic(topicName)
	if err != nil {
		return nil, err
	}
	posts, err := s.list(ctx, topic, models.StatusLive)
	if err != nil {
		return nil, err
	}
	best, ok := RankMostActive(posts)
	if !ok {
		return nil, apperrors.New(apperrors.ErrNotFound, "no posts found for this topic")
	}
	return &best, nil
}

// RankMostActive picks the post with the most likes; ties go to more dislikes, then the
// earliest creation time, then the smallest id.
func RankMostActive(posts []models.Post) (models.Post, bool) {
	if len(posts) == 0 {
		return models.Post{}, false
	}
	return lo.MaxBy(posts, moreActive), true
}

func moreActive(a, b models.Post) bool {
	if a.Likes != b.Likes {
		return a.Likes > b.Likes
	}
	if a.Dislikes != b.Dislikes {
		return a.Dislikes > b.Dislikes
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID < b.ID
}

func (s *TopicService) list(ctx context.Context, topic models.Topic, status models.PostStatus) ([]models.Post, error) {
	if err := s.lifecycle.SyncTopic(ctx, topic); err != nil {
		return nil, err
	}
	posts, err := s.posts.FindByTopicAndStatus(ctx, topic, status)
	if err != nil {
		return nil, apperrors.Classify(err, "list posts")
	}
	if status != models.StatusLive {
		return posts, nil
	}
	// a post can reach its expiration between the sync and the read
	now := s.lifecycle.Now()
	live := make([]models.Post, 0, len(posts))
	for _, p := range posts {
		if EvaluateStatus(p.ExpirationTime, now) == models.StatusLive {
			live = append(live, p)
		}
	}
	return live, nil
}

// listLive serves from cache when possible. Entries are keyed by the topic's generation, which
// every write bumps, and never outlive the earliest expiration among the cached posts.
func (s *TopicService) listLive(ctx context.Context, topic models.Topic) ([]models.Post, error) {
	version, cacheable := s.cache.Version(ctx, topicVersionKey(topic))
	key := liveListKey(topic, version)
	if cacheable {
		var cached []models.Post
		if s.cache.GetJSON(ctx, key, &cached) {
			now := s.lifecycle.Now()
			if lo.EveryBy(cached, func(p models.Post) bool { return EvaluateStatus(p.ExpirationTime, now) == models.StatusLive }) {
				return cached, nil
			}
		}
	}

	posts, err := s.list(ctx, topic, models.StatusLive)
	if err != nil {
		return nil, err
	}
	if ttl := s.liveTTL(posts); cacheable && ttl > 0 {
		s.cache.SetJSON(ctx, key, posts, ttl)
	}
	return posts, nil
}

func (s *TopicService) liveTTL(posts []models.Post) time.Duration {
	ttl := s.cacheTTL
	if ttl <= 0 {
		return 0
	}
	if len(posts) == 0 {
		return ttl
	}
	earliest := lo.MinBy(posts, func(a, b models.Post) bool { return a.ExpirationTime.Before(b.ExpirationTime) })
	if left := earliest.ExpirationTime.Sub(s.lifecycle.Now()); left < ttl {
		return left
	}
	return ttl
}

func parseTopic(name string) (models.Topic, error) {
	topic, ok := models.ParseTopic(name)
	if !ok {
		return "", apperrors.Validation("topic must be one of Politics, Health, Sport, Tech")
	}
	return topic, nil
}
