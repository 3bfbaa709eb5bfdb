package social

import (
	"context"

	"github.com/gamedeck/socialgraph/internal/db"
	"github.com/gamedeck/socialgraph/internal/models"
)

// Block makes source block target, severing every follow and pending request
// between the two in both directions. Only source's blocked counter changes.
func (e *Engine) Block(ctx context.Context, source, target string) error {
	return e.mutate(ctx, "block", source, target, func(tx *db.Tx) error {
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

		blocked, err := tx.Exists(models.EdgeBlocked, source, target)
		if err != nil {
			return err
		}
		if blocked {
			return nil
		}

		if err := tx.PutMirrored(models.EdgeBlocked, sourceAcc, targetAcc); err != nil {
			return err
		}

		if err := severFollow(tx, source, target); err != nil {
			return err
		}
		if err := severFollow(tx, target, source); err != nil {
			return err
		}

		// Both directions of request: Incoming(target, source) and Incoming(source, target)
		if _, err := tx.DeleteMirrored(models.EdgeRequestIncoming, target, source); err != nil {
			return err
		}
		if _, err := tx.DeleteMirrored(models.EdgeRequestIncoming, source, target); err != nil {
			return err
		}

		return tx.AdjustCounter(source, models.CounterBlocked, 1)
	})
}

// severFollow removes follower -> followee along with its counters
func severFollow(tx *db.Tx, follower, followee string) error {
	following, err := tx.Exists(models.EdgeFollowing, follower, followee)
	if err != nil {
		return err
	}
	if !following {
		// A lone mirror carries no counter
		_, err := tx.DeleteEdge(models.EdgeFollower, followee, follower)
		return err
	}

	if _, err := tx.DeleteMirrored(models.EdgeFollowing, follower, followee); err != nil {
		return err
	}
	if err := tx.AdjustCounter(follower, models.CounterFollowing, -1); err != nil {
		return err
	}
	return tx.AdjustCounter(followee, models.CounterFollowers, -1)
}

// Unblock lifts source's block of target. Earlier follows and requests are not
// restored.
func (e *Engine) Unblock(ctx context.Context, source, target string) error {
	return e.mutate(ctx, "unblock", source, target, func(tx *db.Tx) error {
		blocked, err := tx.Exists(models.EdgeBlocked, source, target)
		if err != nil {
			return err
		}
		if !blocked {
			return nil
		}

		if _, err := tx.DeleteMirrored(models.EdgeBlocked, source, target); err != nil {
			return err
		}
		return tx.AdjustCounter(source, models.CounterBlocked, -1)
	})
}
