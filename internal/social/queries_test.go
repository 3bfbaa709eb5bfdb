package social_test

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"testing"

	"github.com/gamedeck/socialgraph/internal/models"
	"github.com/gamedeck/socialgraph/internal/social"
)

func uids(page *social.Page) []string {
	out := make([]string, len(page.Items))
	for i, item := range page.Items {
		out[i] = item.UID
	}
	return out
}

func TestListFollowersNewestFirst(t *testing.T) {
	f := newFixture(t, 2, 3)
	f.public(t, "alice", "ben", "cid", "dee", "eve")
	ctx := context.Background()

	for _, uid := range []string{"ben", "cid", "dee", "eve"} {
		_, err := f.engine.Follow(ctx, uid, "alice")
		mustOK(t, err, "%s follows alice", uid)
	}

	first, err := f.engine.ListFollowers(ctx, "alice", 0, "")
	mustOK(t, err, "first page")
	if got := fmt.Sprint(uids(first)); got != "[eve dee]" {
		t.Errorf("Expected default page [eve dee], got %s", got)
	}
	if first.NextCursor == "" {
		t.Fatal("Expected a next cursor")
	}
	if first.Items[0].DisplayName != "Eve" || first.Items[0].Username != "eve" {
		t.Errorf("Expected eve's snapshot, got %+v", first.Items[0])
	}

	second, err := f.engine.ListFollowers(ctx, "alice", 10, first.NextCursor)
	mustOK(t, err, "second page")
	if got := fmt.Sprint(uids(second)); got != "[cid ben]" {
		t.Errorf("Expected [cid ben], got %s", got)
	}
	if second.NextCursor != "" {
		t.Errorf("Expected last page, got cursor %q", second.NextCursor)
	}

	following, err := f.engine.ListFollowing(ctx, "ben", 10, "")
	mustOK(t, err, "following")
	if got := fmt.Sprint(uids(following)); got != "[alice]" {
		t.Errorf("Expected ben to follow [alice], got %s", got)
	}

	_, err = f.engine.ListFollowers(ctx, "alice", 2, "not a cursor!")
	if !errors.Is(err, social.ErrInvalidCursor) {
		t.Errorf("Expected ErrInvalidCursor, got %v", err)
	}
}

func TestListRequestsAndBlocked(t *testing.T) {
	f := newFixture(t)
	f.public(t, "ben", "cid")
	f.private(t, "alice")
	ctx := context.Background()

	_, err := f.engine.Follow(ctx, "ben", "alice")
	mustOK(t, err, "ben requests")
	_, err = f.engine.Follow(ctx, "cid", "alice")
	mustOK(t, err, "cid requests")
	mustOK(t, f.engine.Block(ctx, "alice", "cid"), "alice blocks cid")

	incoming, err := f.engine.ListIncomingRequests(ctx, "alice", 10, "")
	mustOK(t, err, "incoming")
	if got := fmt.Sprint(uids(incoming)); got != "[ben]" {
		t.Errorf("Expected incoming [ben], got %s", got)
	}
	if incoming.Items[0].Status != models.RequestStatusPending {
		t.Errorf("Expected pending status, got %q", incoming.Items[0].Status)
	}

	outgoing, err := f.engine.ListOutgoingRequests(ctx, "ben", 10, "")
	mustOK(t, err, "outgoing")
	if got := fmt.Sprint(uids(outgoing)); got != "[alice]" {
		t.Errorf("Expected outgoing [alice], got %s", got)
	}

	blocked, err := f.engine.ListBlocked(ctx, "alice", 10, "")
	mustOK(t, err, "blocked")
	if got := fmt.Sprint(uids(blocked)); got != "[cid]" {
		t.Errorf("Expected blocked [cid], got %s", got)
	}
}

func TestStatusFor(t *testing.T) {
	f := newFixture(t)
	f.public(t, "alice", "bob", "carl")
	f.private(t, "dana")
	ctx := context.Background()

	_, err := f.engine.Follow(ctx, "alice", "bob")
	mustOK(t, err, "alice follows bob")
	_, err = f.engine.Follow(ctx, "bob", "alice")
	mustOK(t, err, "bob follows alice")
	mustOK(t, f.engine.Block(ctx, "carl", "alice"), "carl blocks alice")
	_, err = f.engine.Follow(ctx, "alice", "dana")
	mustOK(t, err, "alice requests dana")

	status, err := f.engine.StatusFor(ctx, "alice", []string{"bob", "carl", "dana", "alice", "nobody"})
	mustOK(t, err, "status")

	want := map[string]social.Status{
		"bob":    {IsFollowing: true, IsFollowedBy: true},
		"carl":   {IsBlockedBy: true},
		"dana":   {RequestSent: true},
		"alice":  {},
		"nobody": {},
	}
	for uid, w := range want {
		if got := status[uid]; got != w {
			t.Errorf("Status for %s = %+v, want %+v", uid, got, w)
		}
	}

	if _, err := f.engine.StatusFor(ctx, "", []string{"bob"}); !errors.Is(err, social.ErrAuthRequired) {
		t.Errorf("Expected ErrAuthRequired, got %v", err)
	}
	many := make([]string, 101)
	for i := range many {
		many[i] = fmt.Sprintf("u%d", i)
	}
	if _, err := f.engine.StatusFor(ctx, "alice", many); !errors.Is(err, social.ErrTooManyTargets) {
		t.Errorf("Expected ErrTooManyTargets, got %v", err)
	}
}

func TestCanViewerAccessProfile(t *testing.T) {
	public := &models.Account{ID: "pub", Visibility: models.VisibilityPublic}
	private := &models.Account{ID: "priv", Visibility: models.VisibilityPrivate}

	tests := []struct {
		name     string
		viewer   string
		profile  *models.Account
		follower bool
		want     bool
	}{
		{"owner of private", "priv", private, false, true},
		{"stranger on public", "x", public, false, true},
		{"anonymous on public", "", public, false, true},
		{"stranger on private", "x", private, false, false},
		{"follower on private", "x", private, true, true},
		{"anonymous on private", "", private, false, false},
		{"missing profile", "x", nil, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := social.CanViewerAccessProfile(tt.viewer, tt.profile, social.AccessOptions{IsFollower: tt.follower})
			if got != tt.want {
				t.Errorf("CanViewerAccessProfile() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCanView(t *testing.T) {
	f := newFixture(t)
	f.public(t, "alice", "carl")
	f.private(t, "bob")
	ctx := context.Background()

	_, err := f.engine.Follow(ctx, "alice", "bob")
	mustOK(t, err, "request")
	mustOK(t, f.engine.ApproveFollowRequest(ctx, "bob", "alice"), "approve")

	tests := []struct {
		viewer, owner string
		want          bool
	}{
		{"alice", "bob", true},
		{"carl", "bob", false},
		{"bob", "bob", true},
		{"bob", "carl", true},
	}
	for _, tt := range tests {
		got, err := f.engine.CanView(ctx, tt.viewer, tt.owner)
		mustOK(t, err, "can view %s/%s", tt.viewer, tt.owner)
		if got != tt.want {
			t.Errorf("CanView(%s, %s) = %v, want %v", tt.viewer, tt.owner, got, tt.want)
		}
	}

	if _, err := f.engine.CanView(ctx, "alice", "nobody"); !errors.Is(err, social.ErrTargetNotFound) {
		t.Errorf("Expected ErrTargetNotFound, got %v", err)
	}
}

func TestRecount(t *testing.T) {
	f := newFixture(t)
	f.public(t, "alice", "bob", "carl")
	ctx := context.Background()

	_, err := f.engine.Follow(ctx, "alice", "bob")
	mustOK(t, err, "follow")
	mustOK(t, f.engine.Block(ctx, "alice", "carl"), "block")

	err = f.database.DB.Model(&models.Account{}).Where("id = ?", "alice").
		Updates(map[string]interface{}{"following_count": 7, "blocked_count": 0}).Error
	mustOK(t, err, "tamper")

	res, err := f.engine.Recount(ctx, "alice")
	mustOK(t, err, "recount")
	if !res.Drifted() {
		t.Error("Expected drift to be reported")
	}
	if res.Before.Following != 7 || res.After != (social.Counts{Following: 1, Blocked: 1}) {
		t.Errorf("Unexpected recount result: %+v", res)
	}
	f.checkInvariants(t)

	drifted, err := f.engine.RecountAll(ctx, 2, nil)
	mustOK(t, err, "recount all")
	if drifted != 0 {
		t.Errorf("Expected no drift after repair, got %d", drifted)
	}

	if _, err := f.engine.Recount(ctx, "nobody"); !errors.Is(err, social.ErrTargetNotFound) {
		t.Errorf("Expected ErrTargetNotFound, got %v", err)
	}
}

func TestConcurrentOperationsKeepInvariants(t *testing.T) {
	f := newFixture(t)
	f.public(t, "ann", "ben")
	f.private(t, "cid", "dee")
	accounts := []string{"ann", "ben", "cid", "dee"}
	ctx := context.Background()

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed))
			for i := 0; i < 40; i++ {
				a := accounts[rng.Intn(len(accounts))]
				b := accounts[rng.Intn(len(accounts))]
				if a == b {
					continue
				}
				var err error
				switch rng.Intn(7) {
				case 0, 1:
					_, err = f.engine.Follow(ctx, a, b)
				case 2:
					err = f.engine.Unfollow(ctx, a, b)
				case 3:
					err = f.engine.Block(ctx, a, b)
				case 4:
					err = f.engine.Unblock(ctx, a, b)
				case 5:
					err = f.engine.ApproveFollowRequest(ctx, a, b)
				case 6:
					err = f.engine.CancelFollowRequest(ctx, a, b)
				}
				if err == nil {
					continue
				}
				if errors.Is(err, social.ErrFollowBlockedTarget) ||
					errors.Is(err, social.ErrFollowBlockedByTarget) ||
					errors.Is(err, social.ErrRequestNotFound) {
					continue
				}
				t.Errorf("unexpected error: %v", err)
			}
		}(int64(w))
	}
	wg.Wait()

	f.checkInvariants(t)
}
