package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"gorm.io/gorm"
)

// RoleUser is granted to every registered account.
const RoleUser = "user"

// User represents a registered account. Passwords are stored as bcrypt hashes only.
type User struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	Username     string    `gorm:"size:256;not null" json:"username"`
	Email        string    `gorm:"size:256;not null;uniqueIndex" json:"email"`
	PasswordHash string    `gorm:"size:1024;not null" json:"-"`
	Roles        string    `gorm:"size:255;not null;default:'user'" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// BeforeCreate assigns the identifier and default role when they are missing.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if strings.TrimSpace(u.Roles) == "" {
		u.Roles = RoleUser
	}
	now := time.Now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	return nil
}

// BeforeUpdate ensures the UpdatedAt timestamp is refreshed.
func (u *User) BeforeUpdate(tx *gorm.DB) error {
	u.UpdatedAt = time.Now()
	return nil
}

// RoleList splits the stored role column into distinct tags.
func (u User) RoleList() []string {
	if strings.TrimSpace(u.Roles) == "" {
		return []string{RoleUser}
	}
	parts := lo.Map(strings.Split(u.Roles, ","), func(s string, _ int) string {
		return strings.TrimSpace(s)
	})
	return lo.Uniq(lo.Compact(parts))
}

// SetRoles stores the given role tags, falling back to the default role.
func (u *User) SetRoles(roles []string) {
	roles = lo.Uniq(lo.Compact(roles))
	if len(roles) == 0 {
		roles = []string{RoleUser}
	}
	u.Roles = strings.Join(roles, ",")
}
