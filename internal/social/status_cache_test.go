package social_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/gamedeck/socialgraph/internal/db"
	"github.com/gamedeck/socialgraph/internal/db/dbtest"
	"github.com/gamedeck/socialgraph/internal/models"
	"github.com/gamedeck/socialgraph/internal/social"
)

// memoryCache is an in-process StatusCache. beforeSet runs once, ahead of
// the next SetJSON, outside the lock.
type memoryCache struct {
	mu        sync.Mutex
	values    map[string][]byte
	counters  map[string]int64
	beforeSet func()
}

func newMemoryCache() *memoryCache {
	return &memoryCache{values: map[string][]byte{}, counters: map[string]int64{}}
}

func (c *memoryCache) Counter(_ context.Context, key string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counters[key], nil
}

func (c *memoryCache) Bump(_ context.Context, _ time.Duration, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range keys {
		c.counters[key]++
	}
	return nil
}

func (c *memoryCache) GetJSON(_ context.Context, key string, dst interface{}) (bool, error) {
	c.mu.Lock()
	raw, ok := c.values[key]
	c.mu.Unlock()
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dst)
}

func (c *memoryCache) SetJSON(_ context.Context, key string, value interface{}, _ time.Duration) error {
	c.mu.Lock()
	hook := c.beforeSet
	c.beforeSet = nil
	c.mu.Unlock()
	if hook != nil {
		hook()
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = raw
	return nil
}

func (c *memoryCache) entries() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.values)
}

func newCachedEngine(t *testing.T, statuses social.StatusCache, uids ...string) *social.Engine {
	t.Helper()
	database := dbtest.New(t)
	for _, uid := range uids {
		dbtest.Account(t, database, uid, models.VisibilityPublic)
	}
	return social.NewEngine(db.NewStore(database, 5), nil, social.Options{Cache: statuses})
}

func TestStatusForServesCachedResult(t *testing.T) {
	statuses := newMemoryCache()
	engine := newCachedEngine(t, statuses, "alice", "bob")
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		status, err := engine.StatusFor(ctx, "alice", []string{"bob"})
		mustOK(t, err, "status read %d", i)
		if status["bob"] != (social.Status{}) {
			t.Errorf("read %d: status = %+v, want zero", i, status["bob"])
		}
	}
	if n := statuses.entries(); n != 1 {
		t.Errorf("cache entries = %d, want 1", n)
	}

	_, err := engine.Follow(ctx, "alice", "bob")
	mustOK(t, err, "alice follows bob")

	// Both directions move to a new version after the write.
	status, err := engine.StatusFor(ctx, "alice", []string{"bob"})
	mustOK(t, err, "status after follow")
	if !status["bob"].IsFollowing {
		t.Errorf("alice towards bob = %+v, want IsFollowing", status["bob"])
	}
	status, err = engine.StatusFor(ctx, "bob", []string{"alice"})
	mustOK(t, err, "reverse status after follow")
	if !status["alice"].IsFollowedBy {
		t.Errorf("bob towards alice = %+v, want IsFollowedBy", status["alice"])
	}
}

func TestStatusForDropsResultOlderThanAWrite(t *testing.T) {
	statuses := newMemoryCache()
	engine := newCachedEngine(t, statuses, "alice", "bob")
	ctx := context.Background()

	// The follow commits after the status read hit the store but before its
	// result reaches the cache.
	statuses.beforeSet = func() {
		_, err := engine.Follow(ctx, "alice", "bob")
		mustOK(t, err, "alice follows bob")
	}

	status, err := engine.StatusFor(ctx, "alice", []string{"bob"})
	mustOK(t, err, "status racing follow")
	if status["bob"].IsFollowing {
		t.Fatalf("status read before the follow committed = %+v", status["bob"])
	}

	status, err = engine.StatusFor(ctx, "alice", []string{"bob"})
	mustOK(t, err, "status after follow")
	if !status["bob"].IsFollowing {
		t.Errorf("status after follow = %+v, want IsFollowing; stale entry was served", status["bob"])
	}
}
