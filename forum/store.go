package forum

import (
	"sync"

	"github.com/nodespeak/nodespeak/models"
	"github.com/nodespeak/nodespeak/utils"
)

// Patch is a speculative change to one community, applied on top of the last
// authoritative snapshot until a refresh that started after it settles.
type Patch interface {
	Community() uint32
	apply(c *models.Community, fold bool)
}

// MembershipPatch sets the viewer's membership and adjusts the member count.
type MembershipPatch struct {
	CommunityID uint32
	IsMember    bool
}

func (p MembershipPatch) Community() uint32 { return p.CommunityID }

func (p MembershipPatch) apply(c *models.Community, _ bool) {
	if c.IsCreator || c.IsMember == p.IsMember {
		return
	}
	c.IsMember = p.IsMember
	if p.IsMember {
		c.MemberCount++
	} else if c.MemberCount > 0 {
		c.MemberCount--
	}
}

// TopicPatch appends a topic confirmed on chain.
type TopicPatch struct {
	CommunityID uint32
	Topic       string
}

func (p TopicPatch) Community() uint32 { return p.CommunityID }

func (p TopicPatch) apply(c *models.Community, fold bool) {
	if utils.ContainsString(c.Topics, p.Topic, fold) {
		return
	}
	c.Topics = append(c.Topics, p.Topic)
	c.TopicCount++
}

type pendingPatch struct {
	seq   uint64
	patch Patch
}

// Store holds the authoritative snapshot of communities plus pending patches,
// and the last fetched post and comment lists.
type Store struct {
	mu          sync.RWMutex
	fold        bool
	seq         uint64
	communities []models.Community
	patches     []pendingPatch
	posts       map[uint32][]models.Post
	feed        []models.Post
	comments    map[uint32][]models.Comment
}

// NewStore creates an empty store. fold makes topic comparisons case-insensitive.
func NewStore(fold bool) *Store {
	return &Store{
		fold:     fold,
		posts:    make(map[uint32][]models.Post),
		comments: make(map[uint32][]models.Comment),
	}
}

// BeginRefresh returns the generation a refresh starting now will settle.
// Patches applied before this call are superseded by that refresh.
func (s *Store) BeginRefresh() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seq
}

// Apply records a patch and returns its sequence number.
func (s *Store) Apply(p Patch) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	s.patches = append(s.patches, pendingPatch{seq: s.seq, patch: p})
	return s.seq
}

// SettleCommunities replaces the snapshot with a refresh started at gen.
func (s *Store) SettleCommunities(gen uint64, list []models.Community) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.communities = make([]models.Community, len(list))
	for i, c := range list {
		s.communities[i] = c.Clone()
	}
	s.dropLocked(gen, func(uint32) bool { return true })
}

// SettleCommunity replaces one community with a refresh started at gen.
func (s *Store) SettleCommunity(gen uint64, c models.Community) {
	s.mu.Lock()
	defer s.mu.Unlock()
	replaced := false
	for i := range s.communities {
		if s.communities[i].ID == c.ID {
			s.communities[i] = c.Clone()
			replaced = true
			break
		}
	}
	if !replaced {
		s.communities = append(s.communities, c.Clone())
	}
	s.dropLocked(gen, func(id uint32) bool { return id == c.ID })
}

func (s *Store) dropLocked(gen uint64, match func(uint32) bool) {
	kept := s.patches[:0]
	for _, p := range s.patches {
		if p.seq <= gen && match(p.patch.Community()) {
			continue
		}
		kept = append(kept, p)
	}
	s.patches = kept
}

// Pending is the number of patches not yet superseded.
func (s *Store) Pending() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.patches)
}

// Communities returns the snapshot with pending patches applied.
func (s *Store) Communities() []models.Community {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Community, len(s.communities))
	for i, c := range s.communities {
		out[i] = s.viewLocked(c)
	}
	return out
}

// Community returns one community with pending patches applied.
func (s *Store) Community(id uint32) (models.Community, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.communities {
		if c.ID == id {
			return s.viewLocked(c), true
		}
	}
	return models.Community{}, false
}

func (s *Store) viewLocked(c models.Community) models.Community {
	view := c.Clone()
	for _, p := range s.patches {
		if p.patch.Community() == c.ID {
			p.patch.apply(&view, s.fold)
		}
	}
	return view
}

// AnyAccessible reports whether the viewer is member or creator of any community.
func (s *Store) AnyAccessible() bool {
	for _, c := range s.Communities() {
		if c.Accessible() {
			return true
		}
	}
	return false
}

func (s *Store) SetPosts(communityID uint32, posts []models.Post) {
	s.mu.Lock()
	s.posts[communityID] = posts
	s.mu.Unlock()
}

func (s *Store) Posts(communityID uint32) ([]models.Post, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	posts, ok := s.posts[communityID]
	return append([]models.Post(nil), posts...), ok
}

func (s *Store) SetFeed(posts []models.Post) {
	s.mu.Lock()
	s.feed = posts
	s.mu.Unlock()
}

func (s *Store) Feed() []models.Post {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Post(nil), s.feed...)
}

func (s *Store) SetComments(postID uint32, comments []models.Comment) {
	s.mu.Lock()
	s.comments[postID] = comments
	s.mu.Unlock()
}

func (s *Store) Comments(postID uint32) ([]models.Comment, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	comments, ok := s.comments[postID]
	return append([]models.Comment(nil), comments...), ok
}

// Reset forgets everything, used when the viewing account changes.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.communities = nil
	s.patches = nil
	s.posts = make(map[uint32][]models.Post)
	s.feed = nil
	s.comments = make(map[uint32][]models.Comment)
}
