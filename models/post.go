package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	// MaxTitleLength is the upper bound for post titles in characters.
	MaxTitleLength = 256
	// MaxBodyLength is the upper bound for post bodies in characters.
	MaxBodyLength = 2048
)

// Topic is the fixed category a post is filed under.
type Topic string

const (
	TopicPolitics Topic = "Politics"
	TopicHealth   Topic = "Health"
	TopicSport    Topic = "Sport"
	TopicTech     Topic = "Tech"
)

// Topics lists every accepted topic.
var Topics = []Topic{TopicPolitics, TopicHealth, TopicSport, TopicTech}

// ParseTopic resolves a topic name case-insensitively to its canonical form.
func ParseTopic(s string) (Topic, bool) {
	s = strings.TrimSpace(s)
	for _, t := range Topics {
		if strings.EqualFold(s, string(t)) {
			return t, true
		}
	}
	return "", false
}

// PostStatus is derived from the expiration time; it is never authoritative on its own.
type PostStatus string

const (
	StatusLive    PostStatus = "Live"
	StatusExpired PostStatus = "Expired"
)

// ParseStatus resolves a status name case-insensitively.
func ParseStatus(s string) (PostStatus, bool) {
	switch {
	case strings.EqualFold(s, string(StatusLive)):
		return StatusLive, true
	case strings.EqualFold(s, string(StatusExpired)):
		return StatusExpired, true
	}
	return "", false
}

// Post is a time-bounded message filed under a topic.
type Post struct {
	ID             string     `gorm:"primaryKey;size:36" json:"id"`
	Title          string     `gorm:"size:256;not null" json:"title"`
	Body           string     `gorm:"size:2048;not null" json:"body"`
	Topic          Topic      `gorm:"size:16;not null;index:idx_posts_topic_status,priority:1" json:"topic"`
	Status         PostStatus `gorm:"size:16;not null;default:'Live';index:idx_posts_topic_status,priority:2" json:"status"`
	OwnerID        string     `gorm:"size:36;index;not null" json:"owner"`
	ExpirationTime time.Time  `gorm:"not null;index" json:"expiration_time"`
	Likes          int64      `gorm:"not null;default:0" json:"likes"`
	Dislikes       int64      `gorm:"not null;default:0" json:"dislikes"`
	CreatedAt      time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	Comments       []Comment  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"comments"`
}

// BeforeCreate assigns the identifier when it is missing.
func (p *Post) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}
