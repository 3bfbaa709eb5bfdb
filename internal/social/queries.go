package social

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/gamedeck/socialgraph/internal/cache"
	"github.com/gamedeck/socialgraph/internal/db"
	"github.com/gamedeck/socialgraph/internal/models"
)

func (e *Engine) hasEdge(ctx context.Context, kind models.EdgeKind, owner, other string) (bool, error) {
	if !validAccountID(owner) || !validAccountID(other) || owner == other {
		return false, nil
	}
	edge, err := e.edges.Get(ctx, kind, owner, other)
	if err != nil {
		return false, fmt.Errorf("failed to read %s edge: %w", kind, err)
	}
	return edge != nil, nil
}

// IsFollowing reports whether a follows b
func (e *Engine) IsFollowing(ctx context.Context, a, b string) (bool, error) {
	return e.hasEdge(ctx, models.EdgeFollowing, a, b)
}

// HasPendingRequestFrom reports whether from has a pending request to follow to
func (e *Engine) HasPendingRequestFrom(ctx context.Context, from, to string) (bool, error) {
	return e.hasEdge(ctx, models.EdgeRequestIncoming, to, from)
}

// IsBlocking reports whether a has blocked b
func (e *Engine) IsBlocking(ctx context.Context, a, b string) (bool, error) {
	return e.hasEdge(ctx, models.EdgeBlocked, a, b)
}

// IsBlockedBy reports whether b has blocked a
func (e *Engine) IsBlockedBy(ctx context.Context, a, b string) (bool, error) {
	return e.hasEdge(ctx, models.EdgeBlockedBy, a, b)
}

func (e *Engine) list(ctx context.Context, kind models.EdgeKind, uid string, pageSize int, cursor string) (*Page, error) {
	if !validAccountID(uid) {
		return nil, ErrInvalidTarget
	}
	edgePage, err := e.edges.List(ctx, kind, uid, e.clampPageSize(pageSize), cursor)
	if err != nil {
		if errors.Is(err, db.ErrInvalidCursor) {
			return nil, ErrInvalidCursor
		}
		return nil, fmt.Errorf("failed to list %s edges: %w", kind, err)
	}

	page := &Page{
		Items:      make([]Relation, 0, len(edgePage.Edges)),
		NextCursor: edgePage.NextCursor,
	}
	for i := range edgePage.Edges {
		page.Items = append(page.Items, relationFromEdge(&edgePage.Edges[i]))
	}
	return page, nil
}

// ListFollowers returns the accounts following uid, newest first
func (e *Engine) ListFollowers(ctx context.Context, uid string, pageSize int, cursor string) (*Page, error) {
	return e.list(ctx, models.EdgeFollower, uid, pageSize, cursor)
}

// ListFollowing returns the accounts uid follows, newest first
func (e *Engine) ListFollowing(ctx context.Context, uid string, pageSize int, cursor string) (*Page, error) {
	return e.list(ctx, models.EdgeFollowing, uid, pageSize, cursor)
}

// ListBlocked returns the accounts uid has blocked, newest first
func (e *Engine) ListBlocked(ctx context.Context, uid string, pageSize int, cursor string) (*Page, error) {
	return e.list(ctx, models.EdgeBlocked, uid, pageSize, cursor)
}

// ListIncomingRequests returns the accounts waiting for uid to approve them
func (e *Engine) ListIncomingRequests(ctx context.Context, uid string, pageSize int, cursor string) (*Page, error) {
	return e.list(ctx, models.EdgeRequestIncoming, uid, pageSize, cursor)
}

// ListOutgoingRequests returns the private accounts uid has asked to follow
func (e *Engine) ListOutgoingRequests(ctx context.Context, uid string, pageSize int, cursor string) (*Page, error) {
	return e.list(ctx, models.EdgeRequestOutgoing, uid, pageSize, cursor)
}

// StatusFor returns viewer's relationship flags towards each target. It is
// used to label search results, so results may be served from cache.
func (e *Engine) StatusFor(ctx context.Context, viewer string, targets []string) (map[string]Status, error) {
	if viewer == "" || !validAccountID(viewer) {
		return nil, ErrAuthRequired
	}
	if len(targets) > maxStatusTargets {
		return nil, ErrTooManyTargets
	}

	result := make(map[string]Status, len(targets))
	var misses []string
	// Cache keys are fixed before the store read so that a write committed
	// in between bumps the version past them.
	keys := make(map[string]string)
	for _, target := range targets {
		if _, seen := result[target]; seen {
			continue
		}
		if !validAccountID(target) || target == viewer {
			result[target] = Status{}
			continue
		}

		result[target] = Status{}
		if key, ok := e.statusKey(ctx, viewer, target); ok {
			var st Status
			found, err := e.cache.GetJSON(ctx, key, &st)
			if err != nil {
				e.logger.Debug("Status cache read failed", zap.String("target", target), zap.Error(err))
			}
			if found {
				result[target] = st
				continue
			}
			keys[target] = key
		}
		misses = append(misses, target)
	}

	if len(misses) == 0 {
		return result, nil
	}

	edges, err := e.edges.Between(ctx, viewer, misses)
	if err != nil {
		return nil, fmt.Errorf("failed to read relationship status: %w", err)
	}
	for _, edge := range edges {
		st := result[edge.OtherID]
		switch edge.Kind {
		case models.EdgeFollowing:
			st.IsFollowing = true
		case models.EdgeFollower:
			st.IsFollowedBy = true
		case models.EdgeRequestOutgoing:
			st.RequestSent = true
		case models.EdgeRequestIncoming:
			st.RequestReceived = true
		case models.EdgeBlocked:
			st.IsBlocking = true
		case models.EdgeBlockedBy:
			st.IsBlockedBy = true
		}
		result[edge.OtherID] = st
	}

	for target, key := range keys {
		if err := e.cache.SetJSON(ctx, key, result[target], e.statusTTL); err != nil {
			e.logger.Debug("Status cache write failed", zap.String("target", target), zap.Error(err))
		}
	}
	return result, nil
}

// statusKey returns the current cache key for the pair. It reports false
// when the cache is off or its version cannot be read.
func (e *Engine) statusKey(ctx context.Context, viewer, target string) (string, bool) {
	if e.cache == nil {
		return "", false
	}
	version, err := e.cache.Counter(ctx, cache.StatusVersionKey(viewer, target))
	if err != nil {
		if !errors.Is(err, cache.ErrCacheDisabled) {
			e.logger.Debug("Status cache version read failed", zap.String("target", target), zap.Error(err))
		}
		return "", false
	}
	return cache.StatusKey(viewer, target, version), true
}

// FollowCounts returns uid's relationship counters
func (e *Engine) FollowCounts(ctx context.Context, uid string) (Counts, error) {
	if !validAccountID(uid) {
		return Counts{}, ErrInvalidTarget
	}
	acc, err := e.accounts.GetByID(ctx, uid)
	if err != nil {
		return Counts{}, fmt.Errorf("failed to read account: %w", err)
	}
	if acc == nil {
		return Counts{}, ErrTargetNotFound
	}
	return countsOf(acc), nil
}
