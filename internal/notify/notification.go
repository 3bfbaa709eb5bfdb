package notify

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/gamedeck/socialgraph/internal/models"
)

// Type is the kind of notification shown to the recipient
type Type string

const (
	TypeFriendRequest Type = "friend_request"
	TypeNewFollower   Type = "new_follower"
)

// Metadata identifies the account that caused the notification
type Metadata struct {
	SourceUID string `json:"sourceUid"`
}

// Notification is what the relationship engine asks to have delivered
type Notification struct {
	ID        string    `json:"id"`
	Type      Type      `json:"type"`
	Message   string    `json:"message"`
	Metadata  Metadata  `json:"metadata"`
	CreatedAt time.Time `json:"createdAt"`
}

// Sink delivers a notification to a recipient
type Sink interface {
	Deliver(ctx context.Context, recipient string, n Notification) error
}

func newNotification(typ Type, source *models.Account, message string) Notification {
	return Notification{
		ID:        uuid.NewString(),
		Type:      typ,
		Message:   message,
		Metadata:  Metadata{SourceUID: source.ID},
		CreatedAt: time.Now().UTC(),
	}
}

// NewFollower announces that source started following the recipient
func NewFollower(source *models.Account) Notification {
	return newNotification(TypeNewFollower, source, source.Name()+" started following you")
}

// FriendRequest announces that source asked to follow the recipient
func FriendRequest(source *models.Account) Notification {
	return newNotification(TypeFriendRequest, source, source.Name()+" wants to follow you")
}
