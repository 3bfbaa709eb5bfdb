package social

import (
	"context"
	"fmt"

	"github.com/gamedeck/socialgraph/internal/models"
)

// AccessOptions carries what the caller already knows about the viewer
type AccessOptions struct {
	IsFollower bool
}

// CanViewerAccessProfile decides whether viewer may see profile's favourites,
// reviews and follow lists. Owners and followers always may; anyone may see a
// public profile.
func CanViewerAccessProfile(viewer string, profile *models.Account, opts AccessOptions) bool {
	if profile == nil {
		return false
	}
	if viewer != "" && viewer == profile.ID {
		return true
	}
	if !profile.IsPrivate() {
		return true
	}
	return opts.IsFollower
}

// CanView loads owner's profile and the viewer's follow edge and applies
// CanViewerAccessProfile
func (e *Engine) CanView(ctx context.Context, viewer, owner string) (bool, error) {
	if !validAccountID(owner) {
		return false, ErrInvalidTarget
	}
	profile, err := e.accounts.GetByID(ctx, owner)
	if err != nil {
		return false, fmt.Errorf("failed to read account: %w", err)
	}
	if profile == nil {
		return false, ErrTargetNotFound
	}

	var opts AccessOptions
	if viewer != "" && viewer != owner && profile.IsPrivate() {
		opts.IsFollower, err = e.IsFollowing(ctx, viewer, owner)
		if err != nil {
			return false, err
		}
	}
	return CanViewerAccessProfile(viewer, profile, opts), nil
}
