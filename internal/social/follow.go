package social

import (
	"context"

	"github.com/gamedeck/socialgraph/internal/db"
	"github.com/gamedeck/socialgraph/internal/models"
	"github.com/gamedeck/socialgraph/internal/notify"
)

// Follow makes source follow target. A private target gets a pending follow
// request instead. Following an account already followed, or re-requesting a
// pending request, changes nothing.
func (e *Engine) Follow(ctx context.Context, source, target string) (State, error) {
	var (
		state   State
		pending *notify.Notification
	)

	err := e.mutate(ctx, "follow", source, target, func(tx *db.Tx) error {
		pending = nil

		targetAcc, err := tx.Account(target)
		if err != nil {
			return err
		}
		if targetAcc == nil {
			return ErrTargetNotFound
		}
		sourceAcc, err := tx.Account(source)
		if err != nil {
			return err
		}
		if sourceAcc == nil {
			return ErrProfileMissing
		}

		if blocking, err := tx.Exists(models.EdgeBlocked, source, target); err != nil {
			return err
		} else if blocking {
			return ErrFollowBlockedTarget
		}
		if blockedBy, err := tx.Exists(models.EdgeBlockedBy, source, target); err != nil {
			return err
		} else if blockedBy {
			return ErrFollowBlockedByTarget
		}

		following, err := tx.Exists(models.EdgeFollowing, source, target)
		if err != nil {
			return err
		}
		if following {
			state = StateFollowing
			return nil
		}

		if targetAcc.IsPrivate() {
			state = StateRequested
			return e.requestFollow(tx, sourceAcc, targetAcc, &pending)
		}

		state = StateFollowing
		if err := tx.PutMirrored(models.EdgeFollowing, sourceAcc, targetAcc); err != nil {
			return err
		}
		// A stale request left over from when the target was private
		if _, err := tx.DeleteMirrored(models.EdgeRequestOutgoing, source, target); err != nil {
			return err
		}
		if err := tx.AdjustCounter(source, models.CounterFollowing, 1); err != nil {
			return err
		}
		if err := tx.AdjustCounter(target, models.CounterFollowers, 1); err != nil {
			return err
		}
		n := notify.NewFollower(sourceAcc)
		pending = &n
		return nil
	})
	if err != nil {
		return "", err
	}

	e.deliver(target, pending)
	return state, nil
}

func (e *Engine) requestFollow(tx *db.Tx, source, target *models.Account, pending **notify.Notification) error {
	outgoing, err := tx.Exists(models.EdgeRequestOutgoing, source.ID, target.ID)
	if err != nil {
		return err
	}
	incoming, err := tx.Exists(models.EdgeRequestIncoming, target.ID, source.ID)
	if err != nil {
		return err
	}
	if outgoing && incoming {
		return nil
	}

	if err := tx.PutMirrored(models.EdgeRequestOutgoing, source, target); err != nil {
		return err
	}
	if err := tx.TouchUpdatedAt(source.ID, target.ID); err != nil {
		return err
	}
	n := notify.FriendRequest(source)
	*pending = &n
	return nil
}

// Unfollow removes source's follow of target. Unfollowing an account that is
// not followed changes nothing.
func (e *Engine) Unfollow(ctx context.Context, source, target string) error {
	return e.mutate(ctx, "unfollow", source, target, func(tx *db.Tx) error {
		following, err := tx.Exists(models.EdgeFollowing, source, target)
		if err != nil {
			return err
		}
		if !following {
			return nil
		}

		if _, err := tx.DeleteMirrored(models.EdgeFollowing, source, target); err != nil {
			return err
		}
		if err := tx.AdjustCounter(source, models.CounterFollowing, -1); err != nil {
			return err
		}
		return tx.AdjustCounter(target, models.CounterFollowers, -1)
	})
}
