package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/gamedeck/socialgraph/internal/models"
	"github.com/gamedeck/socialgraph/pkg/logging"
	"github.com/gamedeck/socialgraph/pkg/telemetry"
)

// DefaultMaxAttempts bounds RunTransaction when no limit is configured
const DefaultMaxAttempts = 5

// Store is the transactional edge store. All relationship mutations go
// through RunTransaction so that mirrored edges and counters commit together.
type Store struct {
	db          *gorm.DB
	clock       *SeqClock
	maxAttempts int
	backoff     time.Duration
	retries     metric.Int64Counter
	logger      *zap.Logger
}

// NewStore creates a store on top of an open database
func NewStore(database *DB, maxAttempts int) *Store {
	if maxAttempts < 1 {
		maxAttempts = DefaultMaxAttempts
	}

	retries, err := telemetry.Meter().Int64Counter(
		"social.store.tx_retries",
		metric.WithDescription("Transactions re-run after a concurrent modification"),
	)
	if err != nil {
		logging.GetLogger().Warn("Failed to create tx retry counter", zap.Error(err))
	}

	return &Store{
		db:          database.DB,
		clock:       NewSeqClock(),
		maxAttempts: maxAttempts,
		backoff:     10 * time.Millisecond,
		retries:     retries,
		logger:      logging.WithComponent("edge-store"),
	}
}

// Repository returns a repository for reads outside a transaction
func (s *Store) Repository() *Repository {
	return NewRepository(s.db)
}

func (s *Store) txOptions() []*sql.TxOptions {
	if s.db.Dialector.Name() == "postgres" {
		return []*sql.TxOptions{{Isolation: sql.LevelSerializable}}
	}
	return nil
}

// RunTransaction executes fn with all-or-nothing semantics. Any error returned
// by fn rolls the transaction back. When the store aborts the transaction
// because of a concurrent modification, fn is run again against fresh reads,
// so fn must derive every write from what it reads inside tx.
func (s *Store) RunTransaction(ctx context.Context, fn func(tx *Tx) error) error {
	for attempt := 1; ; attempt++ {
		err := s.db.WithContext(ctx).Transaction(func(gtx *gorm.DB) error {
			return fn(&Tx{db: gtx, clock: s.clock})
		}, s.txOptions()...)
		if err == nil {
			return nil
		}
		if !IsRetryable(err) {
			return err
		}

		if s.retries != nil {
			s.retries.Add(ctx, 1, metric.WithAttributes(attribute.Int("attempt", attempt)))
		}
		if attempt >= s.maxAttempts {
			s.logger.Warn("Transaction retries exhausted", zap.Int("attempts", attempt), zap.Error(err))
			return fmt.Errorf("%w after %d attempts: %v", ErrRetriesExhausted, attempt, err)
		}
		s.logger.Debug("Retrying transaction", zap.Int("attempt", attempt), zap.Error(err))

		timer := time.NewTimer(time.Duration(attempt) * s.backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// Tx is the view of the store inside one transaction attempt
type Tx struct {
	db    *gorm.DB
	clock *SeqClock
}

// Account reads a profile, returning nil if it does not exist
func (t *Tx) Account(uid string) (*models.Account, error) {
	var account models.Account
	if err := t.db.Where("id = ?", uid).Take(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read account %s: %w", uid, err)
	}
	return &account, nil
}

// Edge reads one edge, returning nil if it does not exist
func (t *Tx) Edge(kind models.EdgeKind, owner, other string) (*models.Edge, error) {
	var edge models.Edge
	err := t.db.
		Where("owner_id = ? AND other_id = ? AND kind = ?", owner, other, kind).
		Take(&edge).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read %s edge: %w", kind, err)
	}
	return &edge, nil
}

// Exists reports whether an edge is present
func (t *Tx) Exists(kind models.EdgeKind, owner, other string) (bool, error) {
	edge, err := t.Edge(kind, owner, other)
	return edge != nil, err
}

// PutEdge writes an edge, replacing any existing document with the same key.
// A zero Seq is assigned from the server clock.
func (t *Tx) PutEdge(edge *models.Edge) error {
	if edge.OwnerID == edge.OtherID {
		return fmt.Errorf("refusing self edge for %s", edge.OwnerID)
	}
	if edge.Seq == 0 {
		edge.Seq, edge.CreatedAt = t.clock.Next()
	}
	err := t.db.Clauses(clause.OnConflict{UpdateAll: true}).Create(edge).Error
	if err != nil {
		return fmt.Errorf("failed to write %s edge: %w", edge.Kind, err)
	}
	return nil
}

// DeleteEdge removes an edge and reports whether it existed
func (t *Tx) DeleteEdge(kind models.EdgeKind, owner, other string) (bool, error) {
	res := t.db.
		Where("owner_id = ? AND other_id = ? AND kind = ?", owner, other, kind).
		Delete(&models.Edge{})
	if res.Error != nil {
		return false, fmt.Errorf("failed to delete %s edge: %w", kind, res.Error)
	}
	return res.RowsAffected > 0, nil
}

// PutMirrored writes kind(a, b) carrying b's snapshot together with its mirror
// kind.Mirror()(b, a) carrying a's snapshot. Both halves share one sequence
// number.
func (t *Tx) PutMirrored(kind models.EdgeKind, a, b *models.Account) error {
	seq, now := t.clock.Next()

	status := ""
	if kind.IsRequest() {
		status = models.RequestStatusPending
	}

	forward := &models.Edge{OwnerID: a.ID, OtherID: b.ID, Kind: kind, Status: status, Seq: seq, CreatedAt: now}
	forward.SnapshotOf(b)
	if err := t.PutEdge(forward); err != nil {
		return err
	}

	mirror := &models.Edge{OwnerID: b.ID, OtherID: a.ID, Kind: kind.Mirror(), Status: status, Seq: seq, CreatedAt: now}
	mirror.SnapshotOf(a)
	return t.PutEdge(mirror)
}

// DeleteMirrored removes kind(a, b) and its mirror. It reports whether
// either half existed.
func (t *Tx) DeleteMirrored(kind models.EdgeKind, a, b string) (bool, error) {
	forward, err := t.DeleteEdge(kind, a, b)
	if err != nil {
		return false, err
	}
	mirror, err := t.DeleteEdge(kind.Mirror(), b, a)
	if err != nil {
		return false, err
	}
	return forward || mirror, nil
}

// AdjustCounter adds delta to one of the account's relationship counters
func (t *Tx) AdjustCounter(uid string, counter models.Counter, delta int64) error {
	if delta == 0 {
		return nil
	}
	col := string(counter)
	err := t.db.Model(&models.Account{}).
		Where("id = ?", uid).
		UpdateColumn(col, gorm.Expr(col+" + ?", delta)).Error
	if err != nil {
		return fmt.Errorf("failed to adjust %s for %s: %w", col, uid, err)
	}
	return nil
}

// TouchUpdatedAt bumps updated_at on each account
func (t *Tx) TouchUpdatedAt(uids ...string) error {
	_, now := t.clock.Next()
	err := t.db.Model(&models.Account{}).
		Where("id IN ?", uids).
		UpdateColumn("updated_at", now).Error
	if err != nil {
		return fmt.Errorf("failed to touch accounts: %w", err)
	}
	return nil
}

// CountEdges counts the edges of one kind owned by owner
func (t *Tx) CountEdges(owner string, kind models.EdgeKind) (int64, error) {
	var count int64
	err := t.db.Model(&models.Edge{}).
		Where("owner_id = ? AND kind = ?", owner, kind).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count %s edges: %w", kind, err)
	}
	return count, nil
}

// SetCounters overwrites all three relationship counters
func (t *Tx) SetCounters(uid string, following, followers, blocked int64) error {
	err := t.db.Model(&models.Account{}).
		Where("id = ?", uid).
		UpdateColumns(map[string]interface{}{
			string(models.CounterFollowing): following,
			string(models.CounterFollowers): followers,
			string(models.CounterBlocked):   blocked,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to set counters for %s: %w", uid, err)
	}
	return nil
}
