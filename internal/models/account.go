package models

import (
	"time"
)

// Visibility values for Account.Visibility
const (
	VisibilityPublic  = "public"
	VisibilityPrivate = "private"
)

// Account is the profile record of one user. The relationship engine only
// reads the identity fields and maintains the three counters.
type Account struct {
	ID          string `gorm:"primaryKey;type:varchar(128);column:id"`
	DisplayName string `gorm:"type:varchar(64);not null;default:'';column:display_name"`
	Username    string `gorm:"type:varchar(32);not null;uniqueIndex:social_accounts_ux1;column:username"`
	PhotoURL    string `gorm:"type:varchar(1024);not null;default:'';column:photo_url"`
	AvatarKey   string `gorm:"type:varchar(128);not null;default:'';column:avatar_key"`
	Bio         string `gorm:"type:varchar(280);not null;default:'';column:bio"`
	Visibility  string `gorm:"type:varchar(8);not null;default:'public';column:visibility"`

	// Social stats
	FollowingCount int64 `gorm:"not null;default:0;column:following_count"`
	FollowersCount int64 `gorm:"not null;default:0;column:followers_count"`
	BlockedCount   int64 `gorm:"not null;default:0;column:blocked_count"`

	CreatedAt time.Time `gorm:"not null;column:created_at"`
	UpdatedAt time.Time `gorm:"not null;column:updated_at"`
}

// TableName specifies the table name for Account
func (Account) TableName() string {
	return "social_accounts"
}

// IsPrivate reports whether follows of this account need approval
func (a *Account) IsPrivate() bool {
	return a.Visibility == VisibilityPrivate
}

// Name returns the best human-readable name for the account
func (a *Account) Name() string {
	switch {
	case a.DisplayName != "":
		return a.DisplayName
	case a.Username != "":
		return a.Username
	default:
		return a.ID
	}
}

// Counter columns adjusted by the relationship engine
type Counter string

const (
	CounterFollowing Counter = "following_count"
	CounterFollowers Counter = "followers_count"
	CounterBlocked   Counter = "blocked_count"
)
