package social

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/gamedeck/socialgraph/internal/db"
	"github.com/gamedeck/socialgraph/internal/models"
)

// RecountResult reports an account's counters before and after a recount
type RecountResult struct {
	UID    string `json:"uid"`
	Before Counts `json:"before"`
	After  Counts `json:"after"`
}

// Drifted reports whether the recount had to correct anything
func (r RecountResult) Drifted() bool {
	return r.Before != r.After
}

// Recount recomputes uid's counters from its edges, repairing drift left by
// writes made outside the engine
func (e *Engine) Recount(ctx context.Context, uid string) (RecountResult, error) {
	result := RecountResult{UID: uid}
	if !validAccountID(uid) {
		return result, ErrInvalidTarget
	}

	err := e.store.RunTransaction(ctx, func(tx *db.Tx) error {
		acc, err := tx.Account(uid)
		if err != nil {
			return err
		}
		if acc == nil {
			return ErrTargetNotFound
		}
		result.Before = countsOf(acc)

		if result.After.Following, err = tx.CountEdges(uid, models.EdgeFollowing); err != nil {
			return err
		}
		if result.After.Followers, err = tx.CountEdges(uid, models.EdgeFollower); err != nil {
			return err
		}
		if result.After.Blocked, err = tx.CountEdges(uid, models.EdgeBlocked); err != nil {
			return err
		}

		if result.Before == result.After {
			return nil
		}
		return tx.SetCounters(uid, result.After.Following, result.After.Followers, result.After.Blocked)
	})
	if errors.Is(err, db.ErrRetriesExhausted) {
		return result, tryAgain(err)
	}
	if err != nil {
		if _, ok := KindOf(err); ok {
			return result, err
		}
		return result, fmt.Errorf("recount %s: %w", uid, err)
	}

	if result.Drifted() {
		e.logger.Warn("Corrected drifted counters",
			zap.String("uid", uid),
			zap.Any("before", result.Before),
			zap.Any("after", result.After))
	}
	return result, nil
}

// RecountAll walks every account in ID order, recounting each. fn is called
// with every result; it may be nil.
func (e *Engine) RecountAll(ctx context.Context, batchSize int, fn func(RecountResult)) (int, error) {
	if batchSize <= 0 {
		batchSize = 500
	}
	var (
		after   string
		drifted int
	)
	for {
		ids, err := e.accounts.ListIDs(ctx, after, batchSize)
		if err != nil {
			return drifted, fmt.Errorf("failed to list accounts: %w", err)
		}
		for _, uid := range ids {
			res, err := e.Recount(ctx, uid)
			if errors.Is(err, ErrTargetNotFound) {
				continue
			}
			if err != nil {
				return drifted, err
			}
			if res.Drifted() {
				drifted++
			}
			if fn != nil {
				fn(res)
			}
		}
		if len(ids) < batchSize {
			return drifted, nil
		}
		after = ids[len(ids)-1]
	}
}
