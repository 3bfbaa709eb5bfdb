package social

import (
	"context"

	"github.com/gamedeck/socialgraph/internal/db"
	"github.com/gamedeck/socialgraph/internal/models"
	"github.com/gamedeck/socialgraph/internal/notify"
)

// ApproveFollowRequest accepts requester's pending request to follow target
func (e *Engine) ApproveFollowRequest(ctx context.Context, target, requester string) error {
	var pending *notify.Notification

	err := e.mutate(ctx, "approve_follow_request", target, requester, func(tx *db.Tx) error {
		pending = nil

		incoming, err := tx.Exists(models.EdgeRequestIncoming, target, requester)
		if err != nil {
			return err
		}
		if !incoming {
			return ErrRequestNotFound
		}

		following, err := tx.Exists(models.EdgeFollowing, requester, target)
		if err != nil {
			return err
		}
		if following {
			_, err := tx.DeleteMirrored(models.EdgeRequestIncoming, target, requester)
			return err
		}

		requesterAcc, err := tx.Account(requester)
		if err != nil {
			return err
		}
		if requesterAcc == nil {
			return ErrTargetNotFound
		}
		targetAcc, err := tx.Account(target)
		if err != nil {
			return err
		}
		if targetAcc == nil {
			return ErrProfileMissing
		}

		if err := tx.PutMirrored(models.EdgeFollowing, requesterAcc, targetAcc); err != nil {
			return err
		}
		if _, err := tx.DeleteMirrored(models.EdgeRequestIncoming, target, requester); err != nil {
			return err
		}
		if err := tx.AdjustCounter(requester, models.CounterFollowing, 1); err != nil {
			return err
		}
		if err := tx.AdjustCounter(target, models.CounterFollowers, 1); err != nil {
			return err
		}
		n := notify.NewFollower(requesterAcc)
		pending = &n
		return nil
	})
	if err != nil {
		return err
	}

	e.deliver(target, pending)
	return nil
}

// RejectFollowRequest discards requester's pending request to follow target.
// Rejecting a request that does not exist changes nothing.
func (e *Engine) RejectFollowRequest(ctx context.Context, target, requester string) error {
	return e.mutate(ctx, "reject_follow_request", target, requester, func(tx *db.Tx) error {
		_, err := tx.DeleteMirrored(models.EdgeRequestIncoming, target, requester)
		return err
	})
}

// CancelFollowRequest withdraws source's pending request to follow target
func (e *Engine) CancelFollowRequest(ctx context.Context, source, target string) error {
	return e.mutate(ctx, "cancel_follow_request", source, target, func(tx *db.Tx) error {
		_, err := tx.DeleteMirrored(models.EdgeRequestOutgoing, source, target)
		return err
	})
}
