package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cppla/topicbbs/models"
)

type postStore struct {
	db *gorm.DB
}

// NewPostStore creates a gorm backed PostStore.
func NewPostStore(db *gorm.DB) PostStore {
	return &postStore{db: db}
}

// commentsInOrder sorts by insertion sequence; created_at can go backwards across app hosts.
func commentsInOrder(db *gorm.DB) *gorm.DB {
	return db.Order("seq ASC")
}

func (s *postStore) Create(ctx context.Context, post *models.Post) error {
	post.ExpirationTime = post.ExpirationTime.UTC()
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(post).Error; err != nil {
		return fmt.Errorf("create post: %w", err)
	}
	if post.Comments == nil {
		post.Comments = []models.Comment{}
	}
	return nil
}

func (s *postStore) FindByID(ctx context.Context, id string) (*models.Post, error) {
	var post models.Post
	err := s.db.WithContext(ctx).
		Preload("Comments", commentsInOrder).
		Where("id = ?", id).
		Take(&post).Error
	if err != nil {
		return nil, fmt.Errorf("find post %s: %w", id, err)
	}
	if post.Comments == nil {
		post.Comments = []models.Comment{}
	}
	return &post, nil
}

func (s *postStore) FindByTopicAndStatus(ctx context.Context, topic models.Topic, status models.PostStatus) ([]models.Post, error) {
	posts := []models.Post{}
	err := s.db.WithContext(ctx).
		Preload("Comments", commentsInOrder).
		Where("topic = ? AND status = ?", topic, status).
		Order("created_at DESC").
		Order("id DESC").
		Find(&posts).Error
	if err != nil {
		return nil, fmt.Errorf("find %s posts in %s: %w", status, topic, err)
	}
	for i := range posts {
		if posts[i].Comments == nil {
			posts[i].Comments = []models.Comment{}
		}
	}
	return posts, nil
}

func (s *postStore) ExpireDue(ctx context.Context, id string, now time.Time) (bool, error) {
	res := s.db.WithContext(ctx).Model(&models.Post{}).
		Where("id = ? AND status = ? AND expiration_time <= ?", id, models.StatusLive, now.UTC()).
		Update("status", models.StatusExpired)
	if res.Error != nil {
		return false, fmt.Errorf("expire post %s: %w", id, res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (s *postStore) ExpireDueInTopic(ctx context.Context, topic models.Topic, now time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Model(&models.Post{}).
		Where("topic = ? AND status = ? AND expiration_time <= ?", topic, models.StatusLive, now.UTC()).
		Update("status", models.StatusExpired)
	if res.Error != nil {
		return 0, fmt.Errorf("expire posts in %s: %w", topic, res.Error)
	}
	return res.RowsAffected, nil
}

// IncrementCounter adds one to the counter in a single guarded statement.
func (s *postStore) IncrementCounter(ctx context.Context, id string, counter Counter, now time.Time) error {
	switch counter {
	case CounterLikes, CounterDislikes:
	default:
		return fmt.Errorf("unknown counter %q", counter)
	}
	col := string(counter)
	res := s.db.WithContext(ctx).Model(&models.Post{}).
		Where("id = ? AND expiration_time > ?", id, now.UTC()).
		UpdateColumn(col, gorm.Expr(col+" + ?", 1))
	if res.Error != nil {
		return fmt.Errorf("increment %s on post %s: %w", col, id, res.Error)
	}
	if res.RowsAffected > 0 {
		return nil
	}
	return s.missOrNotLive(ctx, id)
}

// AppendComment inserts the comment while holding the post row lock.
func (s *postStore) AppendComment(ctx context.Context, postID string, comment *models.Comment, now time.Time) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post models.Post
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id", "expiration_time").
			Where("id = ?", postID).
			Take(&post).Error; err != nil {
			return err
		}
		if !now.Before(post.ExpirationTime) {
			return ErrPostNotLive
		}

		var seq int64
		if err := tx.Model(&models.Comment{}).
			Where("post_id = ?", postID).
			Select("COALESCE(MAX(seq), 0)").
			Scan(&seq).Error; err != nil {
			return err
		}

		comment.PostID = postID
		comment.Seq = seq + 1
		if comment.CreatedAt.IsZero() {
			comment.CreatedAt = now.UTC()
		}
		return tx.Create(comment).Error
	})
	if err != nil {
		if errors.Is(err, ErrPostNotLive) {
			return err
		}
		return fmt.Errorf("append comment to post %s: %w", postID, err)
	}
	return nil
}

func (s *postStore) missOrNotLive(ctx context.Context, id string) error {
	var post models.Post
	if err := s.db.WithContext(ctx).Select("id").Where("id = ?", id).Take(&post).Error; err != nil {
		return fmt.Errorf("find post %s: %w", id, err)
	}
	return ErrPostNotLive
}
