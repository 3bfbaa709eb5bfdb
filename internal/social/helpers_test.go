package social_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/gamedeck/socialgraph/internal/db"
	"github.com/gamedeck/socialgraph/internal/db/dbtest"
	"github.com/gamedeck/socialgraph/internal/models"
	"github.com/gamedeck/socialgraph/internal/notify"
	"github.com/gamedeck/socialgraph/internal/social"
)

type delivery struct {
	recipient    string
	notification notify.Notification
}

type recorder struct {
	mu   sync.Mutex
	sent []delivery
}

func (r *recorder) Notify(recipient string, n notify.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, delivery{recipient: recipient, notification: n})
}

func (r *recorder) all() []delivery {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]delivery(nil), r.sent...)
}

type fixture struct {
	engine   *social.Engine
	database *db.DB
	notes    *recorder
}

func newFixture(t *testing.T, pageSizes ...int) *fixture {
	t.Helper()

	database := dbtest.New(t)
	notes := &recorder{}
	opts := social.Options{}
	if len(pageSizes) == 2 {
		opts.DefaultPageSize, opts.MaxPageSize = pageSizes[0], pageSizes[1]
	}
	return &fixture{
		engine:   social.NewEngine(db.NewStore(database, 5), notes, opts),
		database: database,
		notes:    notes,
	}
}

func (f *fixture) public(t *testing.T, uids ...string) {
	t.Helper()
	for _, uid := range uids {
		dbtest.Account(t, f.database, uid, models.VisibilityPublic)
	}
}

func (f *fixture) private(t *testing.T, uids ...string) {
	t.Helper()
	for _, uid := range uids {
		dbtest.Account(t, f.database, uid, models.VisibilityPrivate)
	}
}

func (f *fixture) hasEdge(t *testing.T, kind models.EdgeKind, owner, other string) bool {
	t.Helper()
	edge, err := db.NewEdgeRepository(db.NewRepository(f.database.DB)).Get(context.Background(), kind, owner, other)
	if err != nil {
		t.Fatalf("failed to read edge: %v", err)
	}
	return edge != nil
}

func (f *fixture) counts(t *testing.T, uid string) social.Counts {
	t.Helper()
	counts, err := f.engine.FollowCounts(context.Background(), uid)
	if err != nil {
		t.Fatalf("failed to read counts for %s: %v", uid, err)
	}
	return counts
}

func (f *fixture) edgeCount(t *testing.T) int64 {
	t.Helper()
	var n int64
	if err := f.database.DB.Model(&models.Edge{}).Count(&n).Error; err != nil {
		t.Fatalf("failed to count edges: %v", err)
	}
	return n
}

func (f *fixture) setVisibility(t *testing.T, uid, visibility string) {
	t.Helper()
	err := f.database.DB.Model(&models.Account{}).Where("id = ?", uid).Update("visibility", visibility).Error
	if err != nil {
		t.Fatalf("failed to set visibility: %v", err)
	}
}

type pairKey struct {
	kind         models.EdgeKind
	owner, other string
}

// checkInvariants verifies mirrored edges, counters and block exclusion
// across the whole store
func (f *fixture) checkInvariants(t *testing.T) {
	t.Helper()

	var edges []models.Edge
	if err := f.database.DB.Find(&edges).Error; err != nil {
		t.Fatalf("failed to load edges: %v", err)
	}
	var accounts []models.Account
	if err := f.database.DB.Find(&accounts).Error; err != nil {
		t.Fatalf("failed to load accounts: %v", err)
	}

	set := make(map[pairKey]bool, len(edges))
	owned := make(map[string]map[models.EdgeKind]int64)
	for _, e := range edges {
		if e.OwnerID == e.OtherID {
			t.Errorf("self edge %s for %s", e.Kind, e.OwnerID)
		}
		set[pairKey{e.Kind, e.OwnerID, e.OtherID}] = true
		if owned[e.OwnerID] == nil {
			owned[e.OwnerID] = make(map[models.EdgeKind]int64)
		}
		owned[e.OwnerID][e.Kind]++
	}
	has := func(kind models.EdgeKind, owner, other string) bool {
		return set[pairKey{kind, owner, other}]
	}

	for k := range set {
		if !has(k.kind.Mirror(), k.other, k.owner) {
			t.Errorf("%s(%s,%s) has no mirror", k.kind, k.owner, k.other)
		}
		switch k.kind {
		case models.EdgeFollowing:
			if has(models.EdgeRequestIncoming, k.other, k.owner) {
				t.Errorf("%s follows %s with a pending request", k.owner, k.other)
			}
		case models.EdgeBlocked:
			a, b := k.owner, k.other
			if has(models.EdgeFollowing, a, b) || has(models.EdgeFollowing, b, a) ||
				has(models.EdgeRequestIncoming, a, b) || has(models.EdgeRequestIncoming, b, a) {
				t.Errorf("%s blocked %s but a follow or request survives", a, b)
			}
		}
	}

	for _, acc := range accounts {
		got := social.Counts{
			Following: owned[acc.ID][models.EdgeFollowing],
			Followers: owned[acc.ID][models.EdgeFollower],
			Blocked:   owned[acc.ID][models.EdgeBlocked],
		}
		stored := social.Counts{Following: acc.FollowingCount, Followers: acc.FollowersCount, Blocked: acc.BlockedCount}
		if got != stored {
			t.Errorf("counters for %s = %+v, edges say %+v", acc.ID, stored, got)
		}
	}
}

func mustOK(t *testing.T, err error, format string, args ...interface{}) {
	t.Helper()
	if err != nil {
		t.Fatalf("%s: %v", fmt.Sprintf(format, args...), err)
	}
}
