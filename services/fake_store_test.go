package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cppla/topicbbs/models"
	"github.com/cppla/topicbbs/store"
)

// memPostStore is an in-memory store.PostStore with the same guarded-write semantics as the
// gorm implementation. Like database/sql, it refuses work once ctx is done.
type memPostStore struct {
	mu    sync.Mutex
	posts map[string]*models.Post
	seq   int64
}

func newMemPostStore() *memPostStore {
	return &memPostStore{posts: map[string]*models.Post{}}
}

func (s *memPostStore) Create(ctx context.Context, post *models.Post) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("create post: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if post.ID == "" {
		post.ID = uuid.NewString()
	}
	if post.Status == "" {
		post.Status = models.StatusLive
	}
	cp := clonePost(post)
	s.posts[post.ID] = &cp
	return nil
}

func (s *memPostStore) FindByID(ctx context.Context, id string) (*models.Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("find post %s: %w", id, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[id]
	if !ok {
		return nil, fmt.Errorf("find post %s: %w", id, gorm.ErrRecordNotFound)
	}
	cp := clonePost(p)
	return &cp, nil
}

func (s *memPostStore) FindByTopicAndStatus(ctx context.Context, topic models.Topic, status models.PostStatus) ([]models.Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Post{}
	for _, p := range s.posts {
		if p.Topic == topic && p.Status == status {
			out = append(out, clonePost(p))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *memPostStore) ExpireDue(ctx context.Context, id string, now time.Time) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[id]
	if !ok || p.Status != models.StatusLive || now.Before(p.ExpirationTime) {
		return false, nil
	}
	p.Status = models.StatusExpired
	return true, nil
}

func (s *memPostStore) ExpireDueInTopic(ctx context.Context, topic models.Topic, now time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, p := range s.posts {
		if p.Topic == topic && p.Status == models.StatusLive && !now.Before(p.ExpirationTime) {
			p.Status = models.StatusExpired
			n++
		}
	}
	return n, nil
}

func (s *memPostStore) IncrementCounter(ctx context.Context, id string, counter store.Counter, now time.Time) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("increment %s on post %s: %w", counter, id, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[id]
	if !ok {
		return fmt.Errorf("increment %s on post %s: %w", counter, id, gorm.ErrRecordNotFound)
	}
	if !now.Before(p.ExpirationTime) {
		return store.ErrPostNotLive
	}
	switch counter {
	case store.CounterLikes:
		p.Likes++
	case store.CounterDislikes:
		p.Dislikes++
	default:
		return fmt.Errorf("unknown counter %q", counter)
	}
	return nil
}

func (s *memPostStore) AppendComment(ctx context.Context, postID string, comment *models.Comment, now time.Time) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("append comment to post %s: %w", postID, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[postID]
	if !ok {
		return fmt.Errorf("append comment to post %s: %w", postID, gorm.ErrRecordNotFound)
	}
	if !now.Before(p.ExpirationTime) {
		return store.ErrPostNotLive
	}
	s.seq++
	comment.ID = uuid.NewString()
	comment.PostID = postID
	comment.Seq = s.seq
	p.Comments = append(p.Comments, *comment)
	return nil
}

// put stores a post as-is, bypassing status evaluation.
func (s *memPostStore) put(p models.Post) *models.Post {
	_ = s.Create(context.Background(), &p)
	return &p
}

func clonePost(p *models.Post) models.Post {
	cp := *p
	cp.Comments = append([]models.Comment{}, p.Comments...)
	return cp
}

// testClock is a settable clock.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock(t time.Time) *testClock { return &testClock{now: t} }

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

// recordingCache remembers invalidated prefixes and stores values in memory.
type recordingCache struct {
	mu          sync.Mutex
	values      map[string][]byte
	ttls        map[string]time.Duration
	versions    map[string]int64
	invalidated []string
}

func newRecordingCache() *recordingCache {
	return &recordingCache{values: map[string][]byte{}, ttls: map[string]time.Duration{}, versions: map[string]int64{}}
}

func (c *recordingCache) GetJSON(_ context.Context, key string, v interface{}) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.values[key]
	if !ok {
		return false
	}
	return json.Unmarshal(raw, v) == nil
}

func (c *recordingCache) SetJSON(_ context.Context, key string, v interface{}, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = raw
	c.ttls[key] = ttl
}

func (c *recordingCache) InvalidateByPrefix(_ context.Context, prefix string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidated = append(c.invalidated, prefix)
	for k := range c.values {
		if strings.HasPrefix(k, prefix) {
			delete(c.values, k)
			delete(c.ttls, k)
		}
	}
}

func (c *recordingCache) Version(_ context.Context, key string) (int64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.versions[key], true
}

func (c *recordingCache) BumpVersion(_ context.Context, key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.versions[key]++
}

// hookedPostStore runs callbacks around selected memPostStore calls to interleave
// concurrent writes or inject failures at precise points.
type hookedPostStore struct {
	*memPostStore
	afterList func()
	findByID  func(call int) error

	mu    sync.Mutex
	finds int
}

func (h *hookedPostStore) FindByTopicAndStatus(ctx context.Context, topic models.Topic, status models.PostStatus) ([]models.Post, error) {
	posts, err := h.memPostStore.FindByTopicAndStatus(ctx, topic, status)
	if h.afterList != nil {
		h.afterList()
	}
	return posts, err
}

func (h *hookedPostStore) FindByID(ctx context.Context, id string) (*models.Post, error) {
	h.mu.Lock()
	h.finds++
	call := h.finds
	h.mu.Unlock()
	if h.findByID != nil {
		if err := h.findByID(call); err != nil {
			return nil, err
		}
	}
	return h.memPostStore.FindByID(ctx, id)
}
