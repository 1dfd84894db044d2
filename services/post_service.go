package services

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/cppla/topicbbs/apperrors"
	"github.com/cppla/topicbbs/metrics"
	"github.com/cppla/topicbbs/models"
	"github.com/cppla/topicbbs/store"
	"github.com/cppla/topicbbs/utils"
)

// Engagement actions, used in error messages and metrics.
const (
	ActionLike    = "like"
	ActionDislike = "dislike"
	ActionComment = "comment"
)

// postCommitTimeout bounds the cache invalidation and reload that follow a committed write.
const postCommitTimeout = 2 * time.Second

// CreatePostInput carries the caller-supplied fields of a new post.
type CreatePostInput struct {
	Title          string
	Body           string
	Topic          string
	ExpirationTime *time.Time
}

// PostService creates posts and applies engagement operations.
//
// Likes and dislikes are not deduplicated per principal: every call increments, so a retry
// after a successful response counts twice. An error response means nothing was applied.
type PostService struct {
	posts     store.PostStore
	lifecycle *Lifecycle
	cache     ListCache
}

// NewPostService creates a PostService. cache may be nil.
func NewPostService(posts store.PostStore, lifecycle *Lifecycle, cache ListCache) *PostService {
	return &PostService{posts: posts, lifecycle: lifecycle, cache: orNoopCache(cache)}
}

// Create validates and stores a post owned by principal. A post whose expiration time has
// already passed is created Expired.
func (s *PostService) Create(ctx context.Context, principal string, in CreatePostInput) (*models.Post, error) {
	if principal == "" {
		return nil, apperrors.ErrUnauthorized
	}

	// limits apply to what the caller sent, not to the sanitized form
	if utf8.RuneCountInString(strings.TrimSpace(in.Title)) > models.MaxTitleLength {
		return nil, apperrors.Validation("title must not exceed 256 characters")
	}
	if utf8.RuneCountInString(strings.TrimSpace(in.Body)) > models.MaxBodyLength {
		return nil, apperrors.Validation("body must not exceed 2048 characters")
	}
	title := utils.SanitizeText(in.Title)
	body := utils.SanitizeText(in.Body)
	if title == "" || body == "" || strings.TrimSpace(in.Topic) == "" {
		return nil, apperrors.Validation("title, body, and topic are required")
	}
	topic, ok := models.ParseTopic(in.Topic)
	if !ok {
		return nil, apperrors.Validation("topic must be one of Politics, Health, Sport, Tech")
	}
	if in.ExpirationTime == nil || in.ExpirationTime.IsZero() {
		return nil, apperrors.Validation("expirationTime is required")
	}

	now := s.lifecycle.Now()
	post := &models.Post{
		Title:          title,
		Body:           body,
		Topic:          topic,
		OwnerID:        principal,
		ExpirationTime: in.ExpirationTime.UTC(),
		Status:         EvaluateStatus(*in.ExpirationTime, now),
		CreatedAt:      now.UTC(),
		Comments:       []models.Comment{},
	}
	if err := s.posts.Create(ctx, post); err != nil {
		return nil, apperrors.Classify(err, "create post")
	}
	invalidateTopic(ctx, s.cache, topic)
	return post, nil
}

// Get returns a post with its status recomputed.
func (s *PostService) Get(ctx context.Context, id string) (*models.Post, error) {
	return s.lifecycle.Sync(ctx, id)
}

// Like adds one like to a Live post.
func (s *PostService) Like(ctx context.Context, principal, id string) (*models.Post, error) {
	return s.engage(ctx, principal, id, ActionLike, func(now time.Time) error {
		return s.posts.IncrementCounter(ctx, id, store.CounterLikes, now)
	}, func(p *models.Post) { p.Likes++ })
}

// Dislike adds one dislike to a Live post.
func (s *PostService) Dislike(ctx context.Context, principal, id string) (*models.Post, error) {
	return s.engage(ctx, principal, id, ActionDislike, func(now time.Time) error {
		return s.posts.IncrementCounter(ctx, id, store.CounterDislikes, now)
	}, func(p *models.Post) { p.Dislikes++ })
}

// Comment appends a comment authored by principal to a Live post.
func (s *PostService) Comment(ctx context.Context, principal, id, text string) (*models.Post, error) {
	if principal == "" {
		return nil, apperrors.ErrUnauthorized
	}
	if utf8.RuneCountInString(strings.TrimSpace(text)) > models.MaxCommentLength {
		metrics.Engagements.WithLabelValues(ActionComment, "invalid").Inc()
		return nil, apperrors.Validation("comment text must not exceed 1024 characters")
	}
	clean := utils.SanitizeText(text)
	if clean == "" {
		metrics.Engagements.WithLabelValues(ActionComment, "invalid").Inc()
		return nil, apperrors.Validation("comment text is required")
	}
	comment := &models.Comment{UserID: principal, Text: clean}
	return s.engage(ctx, principal, id, ActionComment, func(now time.Time) error {
		comment.CreatedAt = now.UTC()
		return s.posts.AppendComment(ctx, id, comment, now)
	}, func(p *models.Post) { p.Comments = append(p.Comments, *comment) })
}

// engage runs the shared protocol: authenticate, sync status, refuse expired posts, apply
// the guarded mutation and return the reloaded post.
//
// Once apply succeeds the engagement is committed and engage never reports failure: the
// follow-up work runs detached from the request deadline, and if the reload still fails the
// pre-write snapshot with project applied is returned instead. A client error after a like
// therefore means the like was not recorded.
func (s *PostService) engage(ctx context.Context, principal, id, action string, apply func(now time.Time) error, project func(*models.Post)) (*models.Post, error) {
	if principal == "" {
		return nil, apperrors.ErrUnauthorized
	}

	post, err := s.lifecycle.Sync(ctx, id)
	if err != nil {
		metrics.Engagements.WithLabelValues(action, outcome(err)).Inc()
		return nil, err
	}
	if post.Status == models.StatusExpired {
		metrics.Engagements.WithLabelValues(action, "expired").Inc()
		return nil, expiredErr(action)
	}

	if err := apply(s.lifecycle.Now()); err != nil {
		if errors.Is(err, store.ErrPostNotLive) {
			// expired between the status check and the guarded write
			if _, syncErr := s.lifecycle.Sync(ctx, id); syncErr != nil {
				utils.Sugar.Warnf("refresh status after %s on post %s: %v", action, id, syncErr)
			}
			metrics.Engagements.WithLabelValues(action, "expired").Inc()
			return nil, expiredErr(action)
		}
		err = lookupErr(err, "post")
		metrics.Engagements.WithLabelValues(action, outcome(err)).Inc()
		return nil, err
	}
	metrics.Engagements.WithLabelValues(action, "ok").Inc()

	after, cancel := context.WithTimeout(context.WithoutCancel(ctx), postCommitTimeout)
	defer cancel()
	invalidateTopic(after, s.cache, post.Topic)

	updated, err := s.posts.FindByID(after, id)
	if err != nil {
		utils.Sugar.Warnf("reload post %s after %s: %v", id, action, err)
		project(post)
		return post, nil
	}
	updated.Status = EvaluateStatus(updated.ExpirationTime, s.lifecycle.Now())
	return updated, nil
}

func expiredErr(action string) error {
	if action == ActionComment {
		return apperrors.New(apperrors.ErrPostExpired, "cannot comment on an expired post")
	}
	return apperrors.New(apperrors.ErrPostExpired, "cannot "+action+" an expired post")
}

func outcome(err error) string {
	switch apperrors.KindOf(err) {
	case apperrors.ErrNotFound:
		return "not_found"
	case apperrors.ErrTimeout:
		return "timeout"
	case apperrors.ErrValidation:
		return "invalid"
	default:
		return "error"
	}
}
