package models

import (
	"time"
)

// EdgeKind identifies which of the six relationship collections an edge
// belongs to. Kinds come in mirrored pairs.
type EdgeKind int16

const (
	EdgeFollowing       EdgeKind = 1 // owner follows other
	EdgeFollower        EdgeKind = 2 // other follows owner
	EdgeBlocked         EdgeKind = 3 // owner blocked other
	EdgeBlockedBy       EdgeKind = 4 // other blocked owner
	EdgeRequestIncoming EdgeKind = 5 // other asked to follow owner
	EdgeRequestOutgoing EdgeKind = 6 // owner asked to follow other
)

// RequestStatusPending is the only status a stored request ever carries;
// resolved requests are deleted.
const RequestStatusPending = "pending"

// Mirror returns the kind stored under the other account for the same relation
func (k EdgeKind) Mirror() EdgeKind {
	switch k {
	case EdgeFollowing:
		return EdgeFollower
	case EdgeFollower:
		return EdgeFollowing
	case EdgeBlocked:
		return EdgeBlockedBy
	case EdgeBlockedBy:
		return EdgeBlocked
	case EdgeRequestIncoming:
		return EdgeRequestOutgoing
	case EdgeRequestOutgoing:
		return EdgeRequestIncoming
	}
	return 0
}

// IsRequest reports whether the kind is one half of a follow request
func (k EdgeKind) IsRequest() bool {
	return k == EdgeRequestIncoming || k == EdgeRequestOutgoing
}

func (k EdgeKind) String() string {
	switch k {
	case EdgeFollowing:
		return "following"
	case EdgeFollower:
		return "follower"
	case EdgeBlocked:
		return "blocked"
	case EdgeBlockedBy:
		return "blocked_by"
	case EdgeRequestIncoming:
		return "request_incoming"
	case EdgeRequestOutgoing:
		return "request_outgoing"
	}
	return "unknown"
}

// AllEdgeKinds lists every kind in declaration order
var AllEdgeKinds = []EdgeKind{
	EdgeFollowing, EdgeFollower,
	EdgeBlocked, EdgeBlockedBy,
	EdgeRequestIncoming, EdgeRequestOutgoing,
}

// Edge is one directed relationship document owned by OwnerID. It carries a
// snapshot of the other account taken when the edge was written.
type Edge struct {
	OwnerID string   `gorm:"primaryKey;type:varchar(128);column:owner_id;index:social_edges_owner_kind_seq,priority:1"`
	OtherID string   `gorm:"primaryKey;type:varchar(128);column:other_id;index:social_edges_owner_kind_seq,priority:4"`
	Kind    EdgeKind `gorm:"primaryKey;type:smallint;column:kind;index:social_edges_owner_kind_seq,priority:2"`

	DisplayName string `gorm:"type:varchar(64);not null;default:'';column:display_name"`
	Username    string `gorm:"type:varchar(32);not null;default:'';column:username"`
	PhotoURL    string `gorm:"type:varchar(1024);not null;default:'';column:photo_url"`
	AvatarKey   string `gorm:"type:varchar(128);not null;default:'';column:avatar_key"`
	Bio         string `gorm:"type:varchar(280);not null;default:'';column:bio"`
	Status      string `gorm:"type:varchar(16);not null;default:'';column:status"`

	// Seq orders edges newest first. The server clock makes it strictly
	// increasing per process; edges written with an explicit Seq may tie, and
	// listings break ties on other_id.
	Seq       int64     `gorm:"not null;column:seq;index:social_edges_owner_kind_seq,priority:3"`
	CreatedAt time.Time `gorm:"not null;column:created_at"`
}

// TableName specifies the table name for Edge
func (Edge) TableName() string {
	return "social_edges"
}

// SnapshotOf copies the denormalized identity of acc into the edge
func (e *Edge) SnapshotOf(acc *Account) {
	e.DisplayName = acc.DisplayName
	e.Username = acc.Username
	e.PhotoURL = acc.PhotoURL
	e.AvatarKey = acc.AvatarKey
	e.Bio = acc.Bio
}
