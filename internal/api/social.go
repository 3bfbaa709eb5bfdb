package api

import (
	"encoding/json"

	"github.com/gin-gonic/gin"

	"github.com/gamedeck/socialgraph/internal/social"
)

// SocialAPI exposes the relationship engine as social_api methods
type SocialAPI struct {
	engine *social.Engine
}

// NewSocialAPI creates a new social API
func NewSocialAPI(engine *social.Engine) *SocialAPI {
	return &SocialAPI{engine: engine}
}

type okResult struct {
	OK bool `json:"ok"`
}

type followResult struct {
	State social.State `json:"state"`
}

// actorAndTarget reads the single account parameter of a mutating method
func actorAndTarget(c *gin.Context, params json.RawMessage, name string) (string, string, error) {
	actor := ActingAccount(c)
	if actor == "" {
		return "", "", social.ErrAuthRequired
	}
	p, err := parseParams(params)
	if err != nil {
		return "", "", err
	}
	target, err := p.String(0, name)
	if err != nil {
		return "", "", err
	}
	return actor, target, nil
}

func pair(params json.RawMessage, first, second string) (string, string, error) {
	p, err := parseParams(params)
	if err != nil {
		return "", "", err
	}
	a, err := p.String(0, first)
	if err != nil {
		return "", "", err
	}
	b, err := p.String(1, second)
	if err != nil {
		return "", "", err
	}
	return a, b, nil
}

// Follow handles social_api.follow
func (s *SocialAPI) Follow(c *gin.Context, params json.RawMessage) (interface{}, error) {
	actor, target, err := actorAndTarget(c, params, "target")
	if err != nil {
		return nil, err
	}
	state, err := s.engine.Follow(c.Request.Context(), actor, target)
	if err != nil {
		return nil, err
	}
	return followResult{State: state}, nil
}

// Unfollow handles social_api.unfollow
func (s *SocialAPI) Unfollow(c *gin.Context, params json.RawMessage) (interface{}, error) {
	actor, target, err := actorAndTarget(c, params, "target")
	if err != nil {
		return nil, err
	}
	if err := s.engine.Unfollow(c.Request.Context(), actor, target); err != nil {
		return nil, err
	}
	return okResult{OK: true}, nil
}

// Block handles social_api.block
func (s *SocialAPI) Block(c *gin.Context, params json.RawMessage) (interface{}, error) {
	actor, target, err := actorAndTarget(c, params, "target")
	if err != nil {
		return nil, err
	}
	if err := s.engine.Block(c.Request.Context(), actor, target); err != nil {
		return nil, err
	}
	return okResult{OK: true}, nil
}

// Unblock handles social_api.unblock
func (s *SocialAPI) Unblock(c *gin.Context, params json.RawMessage) (interface{}, error) {
	actor, target, err := actorAndTarget(c, params, "target")
	if err != nil {
		return nil, err
	}
	if err := s.engine.Unblock(c.Request.Context(), actor, target); err != nil {
		return nil, err
	}
	return okResult{OK: true}, nil
}

// ApproveFollowRequest handles social_api.approve_follow_request
func (s *SocialAPI) ApproveFollowRequest(c *gin.Context, params json.RawMessage) (interface{}, error) {
	actor, requester, err := actorAndTarget(c, params, "requester")
	if err != nil {
		return nil, err
	}
	if err := s.engine.ApproveFollowRequest(c.Request.Context(), actor, requester); err != nil {
		return nil, err
	}
	return okResult{OK: true}, nil
}

// RejectFollowRequest handles social_api.reject_follow_request
func (s *SocialAPI) RejectFollowRequest(c *gin.Context, params json.RawMessage) (interface{}, error) {
	actor, requester, err := actorAndTarget(c, params, "requester")
	if err != nil {
		return nil, err
	}
	if err := s.engine.RejectFollowRequest(c.Request.Context(), actor, requester); err != nil {
		return nil, err
	}
	return okResult{OK: true}, nil
}

// CancelFollowRequest handles social_api.cancel_follow_request
func (s *SocialAPI) CancelFollowRequest(c *gin.Context, params json.RawMessage) (interface{}, error) {
	actor, target, err := actorAndTarget(c, params, "target")
	if err != nil {
		return nil, err
	}
	if err := s.engine.CancelFollowRequest(c.Request.Context(), actor, target); err != nil {
		return nil, err
	}
	return okResult{OK: true}, nil
}

// lookupPair reads the two accounts of a point lookup on behalf of an
// acting account
func lookupPair(c *gin.Context, params json.RawMessage, first, second string) (string, string, string, error) {
	actor := ActingAccount(c)
	if actor == "" {
		return "", "", "", social.ErrAuthRequired
	}
	a, b, err := pair(params, first, second)
	if err != nil {
		return "", "", "", err
	}
	return actor, a, b, nil
}

// partyPair reads a lookup only the two accounts themselves may make:
// pending requests and blocks are never shown to third parties.
func partyPair(c *gin.Context, params json.RawMessage, first, second string) (string, string, error) {
	actor, a, b, err := lookupPair(c, params, first, second)
	if err != nil {
		return "", "", err
	}
	if actor != a && actor != b {
		return "", "", NewError(ErrForbidden, "only the accounts involved can see this relationship")
	}
	return a, b, nil
}

// IsFollowing handles social_api.is_following. Third parties see the answer
// when they could see it in account's following list.
func (s *SocialAPI) IsFollowing(c *gin.Context, params json.RawMessage) (interface{}, error) {
	actor, a, b, err := lookupPair(c, params, "account", "other")
	if err != nil {
		return nil, err
	}
	if actor != a && actor != b {
		allowed, err := s.engine.CanView(c.Request.Context(), actor, a)
		if err != nil {
			return nil, err
		}
		if !allowed {
			return nil, NewError(ErrForbidden, "this account's lists are private")
		}
	}
	return s.engine.IsFollowing(c.Request.Context(), a, b)
}

// HasPendingRequest handles social_api.has_pending_request
func (s *SocialAPI) HasPendingRequest(c *gin.Context, params json.RawMessage) (interface{}, error) {
	from, to, err := partyPair(c, params, "from", "to")
	if err != nil {
		return nil, err
	}
	return s.engine.HasPendingRequestFrom(c.Request.Context(), from, to)
}

// IsBlocking handles social_api.is_blocking
func (s *SocialAPI) IsBlocking(c *gin.Context, params json.RawMessage) (interface{}, error) {
	a, b, err := partyPair(c, params, "account", "other")
	if err != nil {
		return nil, err
	}
	return s.engine.IsBlocking(c.Request.Context(), a, b)
}

// IsBlockedBy handles social_api.is_blocked_by
func (s *SocialAPI) IsBlockedBy(c *gin.Context, params json.RawMessage) (interface{}, error) {
	a, b, err := partyPair(c, params, "account", "other")
	if err != nil {
		return nil, err
	}
	return s.engine.IsBlockedBy(c.Request.Context(), a, b)
}

// GetRelationshipStatus handles social_api.get_relationship_status
func (s *SocialAPI) GetRelationshipStatus(c *gin.Context, params json.RawMessage) (interface{}, error) {
	viewer := ActingAccount(c)
	if viewer == "" {
		return nil, social.ErrAuthRequired
	}
	p, err := parseParams(params)
	if err != nil {
		return nil, err
	}
	targets, err := p.Strings("target")
	if err != nil {
		return nil, err
	}
	return s.engine.StatusFor(c.Request.Context(), viewer, targets)
}

func (s *SocialAPI) list(p positional, offset int, uid string, fn func(uid string, limit int, cursor string) (*social.Page, error)) (interface{}, error) {
	limit, err := p.OptInt(offset, "limit")
	if err != nil {
		return nil, err
	}
	cursor, err := p.OptString(offset+1, "cursor")
	if err != nil {
		return nil, err
	}
	return fn(uid, limit, cursor)
}

// listOf serves a public list: [uid, limit?, cursor?]. Private accounts only
// show their lists to the owner and followers.
func (s *SocialAPI) listOf(c *gin.Context, params json.RawMessage, fn func(uid string, limit int, cursor string) (*social.Page, error)) (interface{}, error) {
	p, err := parseParams(params)
	if err != nil {
		return nil, err
	}
	uid, err := p.String(0, "account")
	if err != nil {
		return nil, err
	}
	allowed, err := s.engine.CanView(c.Request.Context(), ActingAccount(c), uid)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, NewError(ErrForbidden, "this account's lists are private")
	}
	return s.list(p, 1, uid, fn)
}

// listOwn serves a list of the acting account: [limit?, cursor?]
func (s *SocialAPI) listOwn(c *gin.Context, params json.RawMessage, fn func(uid string, limit int, cursor string) (*social.Page, error)) (interface{}, error) {
	actor := ActingAccount(c)
	if actor == "" {
		return nil, social.ErrAuthRequired
	}
	p, err := parseParams(params)
	if err != nil {
		return nil, err
	}
	return s.list(p, 0, actor, fn)
}

// ListFollowers handles social_api.list_followers
func (s *SocialAPI) ListFollowers(c *gin.Context, params json.RawMessage) (interface{}, error) {
	return s.listOf(c, params, func(uid string, limit int, cursor string) (*social.Page, error) {
		return s.engine.ListFollowers(c.Request.Context(), uid, limit, cursor)
	})
}

// ListFollowing handles social_api.list_following
func (s *SocialAPI) ListFollowing(c *gin.Context, params json.RawMessage) (interface{}, error) {
	return s.listOf(c, params, func(uid string, limit int, cursor string) (*social.Page, error) {
		return s.engine.ListFollowing(c.Request.Context(), uid, limit, cursor)
	})
}

// ListBlocked handles social_api.list_blocked
func (s *SocialAPI) ListBlocked(c *gin.Context, params json.RawMessage) (interface{}, error) {
	return s.listOwn(c, params, func(uid string, limit int, cursor string) (*social.Page, error) {
		return s.engine.ListBlocked(c.Request.Context(), uid, limit, cursor)
	})
}

// ListIncomingRequests handles social_api.list_incoming_requests
func (s *SocialAPI) ListIncomingRequests(c *gin.Context, params json.RawMessage) (interface{}, error) {
	return s.listOwn(c, params, func(uid string, limit int, cursor string) (*social.Page, error) {
		return s.engine.ListIncomingRequests(c.Request.Context(), uid, limit, cursor)
	})
}

// ListOutgoingRequests handles social_api.list_outgoing_requests
func (s *SocialAPI) ListOutgoingRequests(c *gin.Context, params json.RawMessage) (interface{}, error) {
	return s.listOwn(c, params, func(uid string, limit int, cursor string) (*social.Page, error) {
		return s.engine.ListOutgoingRequests(c.Request.Context(), uid, limit, cursor)
	})
}

// GetFollowCount handles social_api.get_follow_count
func (s *SocialAPI) GetFollowCount(c *gin.Context, params json.RawMessage) (interface{}, error) {
	p, err := parseParams(params)
	if err != nil {
		return nil, err
	}
	uid, err := p.String(0, "account")
	if err != nil {
		return nil, err
	}
	return s.engine.FollowCounts(c.Request.Context(), uid)
}

// CanViewProfile handles social_api.can_view_profile
func (s *SocialAPI) CanViewProfile(c *gin.Context, params json.RawMessage) (interface{}, error) {
	p, err := parseParams(params)
	if err != nil {
		return nil, err
	}
	owner, err := p.String(0, "owner")
	if err != nil {
		return nil, err
	}
	return s.engine.CanView(c.Request.Context(), ActingAccount(c), owner)
}
