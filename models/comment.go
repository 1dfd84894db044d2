package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MaxCommentLength is the upper bound for comment text in characters.
const MaxCommentLength = 1024

// Comment is a reply owned by its parent post. It has no lifecycle of its own.
type Comment struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	PostID    string    `gorm:"size:36;index:idx_comments_post_order,priority:1;not null" json:"post_id"`
	UserID    string    `gorm:"size:36;index;not null" json:"user_id"`
	Text      string    `gorm:"size:1024;not null" json:"text"`
	Seq       int64     `gorm:"index:idx_comments_post_order,priority:2;not null" json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// BeforeCreate assigns the identifier when it is missing.
func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}
