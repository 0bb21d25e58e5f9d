package forum

import (
	"context"
	"math/big"
	"testing"

	"github.com/nodespeak/nodespeak/chain"
	"github.com/nodespeak/nodespeak/models"
)

func TestSelectionTransitions(t *testing.T) {
	member := models.Community{ID: 1, IsMember: true}
	stranger := models.Community{ID: 2}

	sel := NewSelection().SelectTopic("Dev", false)
	if sel.State != StateCommunityList || sel.Topic != "Dev" {
		t.Fatalf("topic without access = %+v", sel)
	}

	sel, changed := sel.SelectCommunity(stranger)
	if !changed || sel.State != StateCommunityList || *sel.CommunityID != 2 || sel.Topic != "" {
		t.Fatalf("select stranger = %+v changed=%v", sel, changed)
	}

	sel, changed = sel.SelectCommunity(member)
	if !changed || sel.State != StatePostList {
		t.Fatalf("select member = %+v", sel)
	}
	if _, changed = sel.SelectCommunity(member); changed {
		t.Error("reselecting the same id is not a change")
	}

	sel = sel.ToggleCreatePost()
	if sel.State != StatePostCreateForm {
		t.Fatalf("toggle create post = %s", sel.State)
	}
	if sel = sel.ToggleCreatePost(); sel.State != StatePostList {
		t.Fatalf("toggle back = %s", sel.State)
	}
	if sel = sel.ToggleView(); sel.State != StateCommunityList {
		t.Fatalf("toggle view = %s", sel.State)
	}
	if sel = sel.ToggleCreateCommunity(); sel.State != StateCommunityCreateForm {
		t.Fatalf("toggle create community = %s", sel.State)
	}
	if sel = sel.ToggleCreateCommunity(); sel.State != StateCommunityList {
		t.Fatalf("toggle back = %s", sel.State)
	}

	sel = sel.SelectTopic("Dev", true)
	if sel.State != StatePostList || sel.Topic != "Dev" {
		t.Fatalf("topic with access = %+v", sel)
	}
	if sel = sel.ClearTopic(); sel.Topic != "" {
		t.Fatal("clear topic")
	}

	sel, expanded := sel.ToggleComments(7)
	if !expanded || len(sel.ExpandedComments) != 1 {
		t.Fatalf("expand = %+v", sel)
	}
	sel, expanded = sel.ToggleComments(7)
	if expanded || len(sel.ExpandedComments) != 0 {
		t.Fatalf("collapse = %+v", sel)
	}
}

func TestSelectionIsValue(t *testing.T) {
	a, _ := NewSelection().SelectCommunity(models.Community{ID: 1})
	b, _ := a.SelectCommunity(models.Community{ID: 2})
	if *a.CommunityID != 1 || *b.CommunityID != 2 {
		t.Error("transitions must not alias the previous selection")
	}
}

func TestSessionFetchesPostsOnlyOnChange(t *testing.T) {
	h := newHarness(Options{})
	h.contract.addCommunity(1, bob, "cid-1", "General")
	h.contract.setMember(1, alice, true)
	ctx := context.Background()
	if _, err := h.svc.RefreshCommunities(ctx); err != nil {
		t.Fatal(err)
	}

	sess := NewSession(h.svc)
	sel, err := sess.SelectCommunity(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if sel.State != StatePostList {
		t.Errorf("state = %s", sel.State)
	}
	if _, err := sess.SelectCommunity(ctx, 1); err != nil {
		t.Fatal(err)
	}
	if n := h.contract.read("posts"); n != 1 {
		t.Errorf("posts read %d times, want 1", n)
	}
}

func TestSessionTopicPillNeedsAccess(t *testing.T) {
	h := newHarness(Options{})
	h.contract.addCommunity(1, bob, "cid-1", "General")
	ctx := context.Background()
	if _, err := h.svc.RefreshCommunities(ctx); err != nil {
		t.Fatal(err)
	}
	sess := NewSession(h.svc)
	if sel := sess.SelectTopic("General"); sel.State != StateCommunityList {
		t.Errorf("no access: state = %s", sel.State)
	}

	h.contract.setMember(1, alice, true)
	if _, err := h.svc.RefreshCommunities(ctx); err != nil {
		t.Fatal(err)
	}
	if sel := sess.SelectTopic("General"); sel.State != StatePostList {
		t.Errorf("with access: state = %s", sel.State)
	}
}

func TestSessionFilteredPostsAndTopics(t *testing.T) {
	h := newHarness(Options{})
	h.contract.addCommunity(1, bob, "cid-1", "General", "Dev")
	h.contract.addCommunity(2, bob, "cid-2", "General")
	h.contract.setMember(1, alice, true)
	h.contract.posts[1] = []chain.RawPost{
		{Id: 1, CommunityId: 1, Topic: "General", Timestamp: big.NewInt(10), IsActive: true},
		{Id: 2, CommunityId: 1, Topic: "Dev", Timestamp: big.NewInt(20), IsActive: true},
	}
	h.contract.posts[2] = []chain.RawPost{
		{Id: 3, CommunityId: 2, Topic: "general", Timestamp: big.NewInt(30), IsActive: true},
	}
	ctx := context.Background()
	if _, err := h.svc.RefreshCommunities(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := h.svc.RefreshFeed(ctx); err != nil {
		t.Fatal(err)
	}

	sess := NewSession(h.svc)
	posts := sess.FilteredPosts()
	if len(posts) != 2 || posts[0].ID != 2 {
		t.Fatalf("accessible feed = %+v", posts)
	}
	if topics := sess.AvailableTopics(); len(topics) != 2 {
		t.Errorf("feed topics = %v, want case-insensitive dedupe", topics)
	}

	sess.SelectTopic("Dev")
	if posts := sess.FilteredPosts(); len(posts) != 1 || posts[0].ID != 2 {
		t.Errorf("topic filter = %+v", posts)
	}

	if _, err := sess.SelectCommunity(ctx, 2); err != nil {
		t.Fatal(err)
	}
	if posts := sess.FilteredPosts(); len(posts) != 1 || posts[0].ID != 3 {
		t.Errorf("selected community posts = %+v", posts)
	}
	if topics := sess.AvailableTopics(); len(topics) != 1 || topics[0] != "General" {
		t.Errorf("community topics = %v", topics)
	}
}

func TestSessionToggleCommentsFetchesOnce(t *testing.T) {
	h := newHarness(Options{})
	h.contract.comments[7] = []chain.RawComment{{Id: 1, Content: "hi", Timestamp: big.NewInt(1), IsActive: true}}
	sess := NewSession(h.svc)
	ctx := context.Background()

	_, comments, err := sess.ToggleComments(ctx, 7)
	if err != nil || len(comments) != 1 {
		t.Fatalf("expand = %v, %v", comments, err)
	}
	sess.ToggleComments(ctx, 7)
	if _, _, err := sess.ToggleComments(ctx, 7); err != nil {
		t.Fatal(err)
	}
	if n := h.contract.read("comments"); n != 1 {
		t.Errorf("comments read %d times, want 1", n)
	}
}
