package forum

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/nodespeak/nodespeak/chain"
)

func TestListCommunitiesPartialFailure(t *testing.T) {
	f := newFakeContract()
	c := newFakeContent()
	f.addCommunity(1, bob, "cid-1", "General")
	f.addCommunity(2, bob, "cid-missing", "General")
	f.addCommunity(3, bob, "cid-3", "General", "Dev")
	c.put("cid-1", meta("Gophers", "All things Go"))
	c.put("cid-3", meta("Builders", "Ship it"))

	r := NewReader(f, c, 2, nil)
	list, err := r.ListCommunities(context.Background(), alice)
	if err != nil {
		t.Fatalf("ListCommunities: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("len = %d, want 3", len(list))
	}
	if list[0].Name != "Gophers" || list[2].Name != "Builders" || list[2].TopicCount != 2 {
		t.Errorf("resolved records wrong: %+v / %+v", list[0], list[2])
	}
	if list[1].Name != "Community #2" || list[1].Description != "No description available" {
		t.Errorf("placeholder = %q / %q", list[1].Name, list[1].Description)
	}
}

func TestListCommunitiesSkipsInactive(t *testing.T) {
	f := newFakeContract()
	f.addCommunity(1, bob, "cid-1")
	f.communities = append(f.communities, chain.RawCommunity{Id: 2, Creator: bob, IsActive: false})

	list, err := NewReader(f, newFakeContent(), 0, nil).ListCommunities(context.Background(), common.Address{})
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].ID != 1 {
		t.Fatalf("list = %+v", list)
	}
}

func TestCreatorIsAlwaysMember(t *testing.T) {
	f := newFakeContract()
	f.addCommunity(4, alice, "cid-4")
	// The membership mapping disagrees; the creator flag must win.
	f.setMember(4, alice, false)

	viewer := common.HexToAddress(strings.ToUpper("0x00000000000000000000000000000000000000AA"))
	c, err := NewReader(f, newFakeContent(), 0, nil).Community(context.Background(), 4, viewer)
	if err != nil {
		t.Fatal(err)
	}
	if !c.IsCreator || !c.IsMember {
		t.Fatalf("IsCreator=%v IsMember=%v, want both true", c.IsCreator, c.IsMember)
	}
}

func TestNoViewerDefaults(t *testing.T) {
	f := newFakeContract()
	f.addCommunity(1, bob, "cid-1")
	f.setMember(1, alice, true)

	list, err := NewReader(f, newFakeContent(), 0, nil).ListCommunities(context.Background(), common.Address{})
	if err != nil {
		t.Fatal(err)
	}
	c := list[0]
	if c.IsMember || c.IsCreator {
		t.Errorf("without a viewer membership flags must be false: %+v", c)
	}
	if c.MemberCount != 2 {
		t.Errorf("MemberCount = %d, want 2 from contract", c.MemberCount)
	}
	if f.read("isMember") != 0 {
		t.Error("membership must not be queried without a viewer")
	}
}

func TestCommunityNotFound(t *testing.T) {
	_, err := NewReader(newFakeContract(), newFakeContent(), 0, nil).Community(context.Background(), 99, alice)
	if !errors.Is(err, ErrCommunityNotFound) {
		t.Fatalf("err = %v", err)
	}
}

func TestPostsSortedNewestFirst(t *testing.T) {
	f := newFakeContract()
	c := newFakeContent()
	f.posts[3] = []chain.RawPost{
		{Id: 1, CommunityId: 3, ContentCID: "p1", Timestamp: big.NewInt(100), IsActive: true},
		{Id: 2, CommunityId: 3, ContentCID: "p2", Timestamp: big.NewInt(300), IsActive: true, ImageCID: "img2"},
		{Id: 3, CommunityId: 3, ContentCID: "p3", Timestamp: big.NewInt(200), IsActive: false},
		{Id: 4, CommunityId: 3, ContentCID: "p4", Timestamp: big.NewInt(100), IsActive: true},
		{Id: 5, CommunityId: 3, ContentCID: "missing", Timestamp: big.NewInt(250), IsActive: true},
	}
	c.put("p1", "<p>one</p>")
	c.put("p2", `<p>two</p><script>alert(1)</script>`)
	c.put("p4", "four")

	posts, err := NewReader(f, c, 0, nil).ListPostsForCommunity(context.Background(), 3)
	if err != nil {
		t.Fatal(err)
	}
	var ids []uint32
	for _, p := range posts {
		ids = append(ids, p.ID)
	}
	want := []uint32{2, 5, 4, 1}
	if len(ids) != len(want) {
		t.Fatalf("ids = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("ids = %v, want %v", ids, want)
		}
	}
	if strings.Contains(posts[0].Content, "script") || !strings.Contains(posts[0].Content, "two") {
		t.Errorf("content not sanitized: %q", posts[0].Content)
	}
	if posts[0].ImageURL != "https://img.example/ipfs/img2" {
		t.Errorf("ImageURL = %q", posts[0].ImageURL)
	}
	if posts[1].Content != "" {
		t.Errorf("unresolved body should be empty, got %q", posts[1].Content)
	}
	if posts[0].Timestamp != 300 {
		t.Errorf("Timestamp = %d", posts[0].Timestamp)
	}
}

func TestCommentsFilteredAndSorted(t *testing.T) {
	f := newFakeContract()
	f.comments[7] = []chain.RawComment{
		{Id: 1, Author: alice, Content: "first", Timestamp: big.NewInt(10), IsActive: true},
		{Id: 2, Author: bob, Content: "hidden", Timestamp: big.NewInt(20), IsActive: false},
		{Id: 3, Author: bob, Content: "latest", Timestamp: big.NewInt(30), IsActive: true},
	}
	comments, err := NewReader(f, newFakeContent(), 0, nil).ListComments(context.Background(), 7)
	if err != nil {
		t.Fatal(err)
	}
	if len(comments) != 2 || comments[0].Content != "latest" || comments[1].PostID != 7 {
		t.Fatalf("comments = %+v", comments)
	}
}
