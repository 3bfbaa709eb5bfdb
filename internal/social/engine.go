// Package social implements the relationship engine: following, follow
// requests for private accounts, and blocking.
package social

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/gamedeck/socialgraph/internal/cache"
	"github.com/gamedeck/socialgraph/internal/db"
	"github.com/gamedeck/socialgraph/internal/notify"
	"github.com/gamedeck/socialgraph/pkg/logging"
	"github.com/gamedeck/socialgraph/pkg/telemetry"
)

const (
	defaultPageSize   = 50
	defaultMaxPage    = 200
	defaultStatusTTL  = 30 * time.Second
	maxStatusTargets  = 100
	maxAccountIDBytes = 128
)

// Notifier accepts notifications for best-effort delivery. It must not block.
type Notifier interface {
	Notify(recipient string, n notify.Notification)
}

// StatusCache holds StatusFor results. Entries are keyed by a per-pair
// version that every committed write bumps, so a read that raced a write
// stores its result under a version nobody reads again.
// *cache.Cache implements it.
type StatusCache interface {
	Counter(ctx context.Context, key string) (int64, error)
	Bump(ctx context.Context, ttl time.Duration, keys ...string) error
	GetJSON(ctx context.Context, key string, dst interface{}) (bool, error)
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// Options tune an Engine. Zero values fall back to defaults.
type Options struct {
	Cache           StatusCache
	StatusTTL       time.Duration
	DefaultPageSize int
	MaxPageSize     int
}

// Engine executes relationship operations on behalf of an acting account
type Engine struct {
	store     *db.Store
	accounts  *db.AccountRepository
	edges     *db.EdgeRepository
	notifier  Notifier
	cache     StatusCache
	statusTTL time.Duration
	pageSize  int
	maxPage   int
	ops       metric.Int64Counter
	logger    *zap.Logger
}

// NewEngine creates an engine on top of store. notifier may be nil.
func NewEngine(store *db.Store, notifier Notifier, opts Options) *Engine {
	repo := store.Repository()

	e := &Engine{
		store:     store,
		accounts:  db.NewAccountRepository(repo),
		edges:     db.NewEdgeRepository(repo),
		notifier:  notifier,
		cache:     opts.Cache,
		statusTTL: opts.StatusTTL,
		pageSize:  opts.DefaultPageSize,
		maxPage:   opts.MaxPageSize,
		logger:    logging.WithComponent("social"),
	}
	if e.statusTTL <= 0 {
		e.statusTTL = defaultStatusTTL
	}
	if e.maxPage <= 0 {
		e.maxPage = defaultMaxPage
	}
	if e.pageSize <= 0 || e.pageSize > e.maxPage {
		e.pageSize = min(defaultPageSize, e.maxPage)
	}

	ops, err := telemetry.Meter().Int64Counter(
		"social.relationship.operations",
		metric.WithDescription("Relationship operations by name and outcome"),
	)
	if err != nil {
		e.logger.Warn("Failed to create operations counter", zap.Error(err))
	}
	e.ops = ops
	return e
}

func validAccountID(uid string) bool {
	if uid == "" || len(uid) > maxAccountIDBytes {
		return false
	}
	for _, r := range uid {
		if r == '/' || unicode.IsSpace(r) || unicode.IsControl(r) {
			return false
		}
	}
	return true
}

// checkPair validates the acting account and the account it acts on
func checkPair(actor, target string) error {
	if actor == "" {
		return ErrAuthRequired
	}
	if !validAccountID(actor) {
		return ErrAuthRequired
	}
	if !validAccountID(target) || actor == target {
		return ErrInvalidTarget
	}
	return nil
}

// mutate runs body as one store transaction and finishes the operation:
// tracing, metrics, logging and status cache invalidation for the pair
func (e *Engine) mutate(ctx context.Context, op, actor, target string, body func(tx *db.Tx) error) error {
	ctx, span := telemetry.StartSpan(ctx, "social."+op, trace.WithAttributes(
		attribute.String("social.actor", actor),
		attribute.String("social.target", target),
	))
	defer span.End()

	err := checkPair(actor, target)
	if err == nil {
		err = e.store.RunTransaction(ctx, body)
		if errors.Is(err, db.ErrRetriesExhausted) {
			err = tryAgain(err)
		}
	}
	e.record(ctx, op, err)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if _, ok := KindOf(err); ok {
			return err
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		logging.WithAccount(actor).Error("Relationship operation failed",
			zap.String("component", "social"),
			zap.String("op", op),
			zap.String("target", target),
			zap.Error(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	e.invalidateStatus(ctx, actor, target)
	logging.WithAccount(actor).Debug("Relationship operation committed",
		zap.String("component", "social"),
		zap.String("op", op),
		zap.String("target", target))
	return nil
}

func (e *Engine) record(ctx context.Context, op string, err error) {
	if e.ops == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
		if kind, ok := KindOf(err); ok {
			outcome = strings.ToLower(string(kind))
		}
	}
	e.ops.Add(ctx, 1, metric.WithAttributes(
		attribute.String("op", op),
		attribute.String("outcome", outcome),
	))
}

// deliver hands a committed notification to the notifier
func (e *Engine) deliver(recipient string, n *notify.Notification) {
	if n == nil || e.notifier == nil {
		return
	}
	e.notifier.Notify(recipient, *n)
}

// invalidateStatus moves both directions of the pair to a new cache version.
// Versions outlive the entries they guard.
func (e *Engine) invalidateStatus(ctx context.Context, a, b string) {
	if e.cache == nil {
		return
	}
	err := e.cache.Bump(ctx, 2*e.statusTTL+time.Minute,
		cache.StatusVersionKey(a, b), cache.StatusVersionKey(b, a))
	if err != nil && !errors.Is(err, cache.ErrCacheDisabled) {
		e.logger.Warn("Failed to invalidate relationship status",
			zap.String("a", a),
			zap.String("b", b),
			zap.Error(err))
	}
}

func (e *Engine) clampPageSize(size int) int {
	if size <= 0 {
		return e.pageSize
	}
	if size > e.maxPage {
		return e.maxPage
	}
	return size
}
