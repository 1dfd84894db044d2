// Package store persists users and posts through gorm.
package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/cppla/topicbbs/models"
)

var (
	// ErrDuplicateEmail is returned when a user with the same email already exists.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrPostNotLive is returned by guarded writes when the post has reached its expiration time.
	ErrPostNotLive = errors.New("post is not live")
)

// Counter names an engagement counter column on posts.
type Counter string

const (
	CounterLikes    Counter = "likes"
	CounterDislikes Counter = "dislikes"
)

// UserStore is the identity store.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// PostStore holds posts and their embedded comments.
//
// Guarded writes compare against the expiration time inside the same statement or
// row-locked transaction, so concurrent writers on any number of instances never lose
// updates and never mutate an expired post.
type PostStore interface {
	Create(ctx context.Context, post *models.Post) error
	FindByID(ctx context.Context, id string) (*models.Post, error)
	FindByTopicAndStatus(ctx context.Context, topic models.Topic, status models.PostStatus) ([]models.Post, error)
	// ExpireDue flips one post to Expired when its expiration time is at or before now.
	ExpireDue(ctx context.Context, id string, now time.Time) (bool, error)
	// ExpireDueInTopic flips every due Live post of a topic to Expired.
	ExpireDueInTopic(ctx context.Context, topic models.Topic, now time.Time) (int64, error)
	IncrementCounter(ctx context.Context, id string, counter Counter, now time.Time) error
	AppendComment(ctx context.Context, postID string, comment *models.Comment, now time.Time) error
}

// Migrate creates or updates the tables backing both stores.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&models.User{}, &models.Post{}, &models.Comment{})
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") || strings.Contains(msg, "unique constraint")
}
