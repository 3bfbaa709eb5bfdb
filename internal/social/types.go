package social

import (
	"time"

	"github.com/gamedeck/socialgraph/internal/models"
)

// State is the outcome of a follow attempt
type State string

const (
	StateFollowing State = "following"
	StateRequested State = "requested"
)

// Relation is one entry of a relationship list, describing the other account
type Relation struct {
	UID         string    `json:"uid"`
	DisplayName string    `json:"displayName"`
	Username    string    `json:"username"`
	PhotoURL    string    `json:"photoURL"`
	AvatarKey   string    `json:"avatarKey"`
	Bio         string    `json:"bio"`
	Status      string    `json:"status,omitempty"`
	Since       time.Time `json:"since"`
}

func relationFromEdge(e *models.Edge) Relation {
	return Relation{
		UID:         e.OtherID,
		DisplayName: e.DisplayName,
		Username:    e.Username,
		PhotoURL:    e.PhotoURL,
		AvatarKey:   e.AvatarKey,
		Bio:         e.Bio,
		Status:      e.Status,
		Since:       e.CreatedAt,
	}
}

// Page is one page of a relationship list, newest relation first
type Page struct {
	Items      []Relation `json:"items"`
	NextCursor string     `json:"nextCursor,omitempty"`
}

// Status is every relationship flag a viewer holds towards one account
type Status struct {
	IsFollowing     bool `json:"isFollowing"`
	IsFollowedBy    bool `json:"isFollowedBy"`
	RequestSent     bool `json:"requestSent"`
	RequestReceived bool `json:"requestReceived"`
	IsBlocking      bool `json:"isBlocking"`
	IsBlockedBy     bool `json:"isBlockedBy"`
}

// Counts are an account's denormalized relationship counters
type Counts struct {
	Following int64 `json:"following"`
	Followers int64 `json:"followers"`
	Blocked   int64 `json:"blocked"`
}

func countsOf(acc *models.Account) Counts {
	return Counts{
		Following: acc.FollowingCount,
		Followers: acc.FollowersCount,
		Blocked:   acc.BlockedCount,
	}
}
