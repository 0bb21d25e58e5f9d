package forum

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/nodespeak/nodespeak/models"
	"github.com/nodespeak/nodespeak/utils"
)

// ViewState is the screen the UI shows.
type ViewState string

const (
	StateCommunityList       ViewState = "community_list"
	StateCommunityCreateForm ViewState = "community_create_form"
	StatePostList            ViewState = "post_list"
	StatePostCreateForm      ViewState = "post_create_form"
)

// Selection is the UI selection state. Transitions are pure and return a new value.
type Selection struct {
	State            ViewState `json:"state"`
	CommunityID      *uint32   `json:"selected_community_id,omitempty"`
	Topic            string    `json:"selected_topic,omitempty"`
	ExpandedComments []uint32  `json:"expanded_comments"`
}

// NewSelection starts on the community list.
func NewSelection() Selection {
	return Selection{State: StateCommunityList, ExpandedComments: []uint32{}}
}

func (s Selection) clone() Selection {
	out := s
	if s.CommunityID != nil {
		id := *s.CommunityID
		out.CommunityID = &id
	}
	out.ExpandedComments = append([]uint32{}, s.ExpandedComments...)
	return out
}

// SelectCommunity highlights c and clears the topic filter. It moves to the
// post list only when the viewer is member or creator. changed reports
// whether the selected id differs from before.
func (s Selection) SelectCommunity(c models.Community) (next Selection, changed bool) {
	next = s.clone()
	changed = s.CommunityID == nil || *s.CommunityID != c.ID
	id := c.ID
	next.CommunityID = &id
	next.Topic = ""
	if c.Accessible() {
		next.State = StatePostList
	} else {
		next.State = StateCommunityList
	}
	return next, changed
}

// SelectTopic filters by topic and moves to the post list when the viewer
// can access any community.
func (s Selection) SelectTopic(topic string, anyAccessible bool) Selection {
	next := s.clone()
	next.Topic = topic
	if anyAccessible {
		next.State = StatePostList
	}
	return next
}

func (s Selection) ClearTopic() Selection {
	next := s.clone()
	next.Topic = ""
	return next
}

func (s Selection) ToggleCreateCommunity() Selection {
	next := s.clone()
	if s.State == StateCommunityCreateForm {
		next.State = StateCommunityList
	} else {
		next.State = StateCommunityCreateForm
	}
	return next
}

func (s Selection) ToggleCreatePost() Selection {
	next := s.clone()
	if s.State == StatePostCreateForm {
		next.State = StatePostList
	} else {
		next.State = StatePostCreateForm
	}
	return next
}

// ToggleView flips between the community list and the post list.
func (s Selection) ToggleView() Selection {
	next := s.clone()
	if s.State == StateCommunityList || s.State == StateCommunityCreateForm {
		next.State = StatePostList
	} else {
		next.State = StateCommunityList
	}
	return next
}

// ToggleComments expands or collapses the comments of a post.
func (s Selection) ToggleComments(postID uint32) (next Selection, expanded bool) {
	next = s.clone()
	for i, id := range next.ExpandedComments {
		if id == postID {
			next.ExpandedComments = append(next.ExpandedComments[:i], next.ExpandedComments[i+1:]...)
			return next, false
		}
	}
	next.ExpandedComments = append(next.ExpandedComments, postID)
	return next, true
}

// Session binds a Selection to the service, triggering the reads a
// selection change implies.
type Session struct {
	mu  sync.Mutex
	sel Selection
	svc *Service
}

func NewSession(svc *Service) *Session {
	return &Session{sel: NewSelection(), svc: svc}
}

func (s *Session) Selection() Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sel.clone()
}

func (s *Session) update(fn func(Selection) Selection) Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sel = fn(s.sel)
	return s.sel.clone()
}

// SelectCommunity selects id. Posts are fetched only when the id changes.
func (s *Session) SelectCommunity(ctx context.Context, id uint32) (Selection, error) {
	c, err := s.svc.Community(ctx, id)
	if err != nil {
		return s.Selection(), err
	}
	var changed bool
	sel := s.update(func(cur Selection) Selection {
		var next Selection
		next, changed = cur.SelectCommunity(c)
		return next
	})
	if changed {
		if _, err := s.svc.RefreshPosts(ctx, id); err != nil {
			return sel, err
		}
	}
	return sel, nil
}

func (s *Session) SelectTopic(topic string) Selection {
	anyAccessible := s.svc.Store().AnyAccessible()
	return s.update(func(cur Selection) Selection { return cur.SelectTopic(strings.TrimSpace(topic), anyAccessible) })
}

func (s *Session) ClearTopic() Selection {
	return s.update(Selection.ClearTopic)
}

func (s *Session) ToggleCreateCommunity() Selection {
	return s.update(Selection.ToggleCreateCommunity)
}

func (s *Session) ToggleCreatePost() Selection {
	return s.update(Selection.ToggleCreatePost)
}

func (s *Session) ToggleView() Selection {
	return s.update(Selection.ToggleView)
}

// ToggleComments expands a post's comments, fetching them on first expand.
func (s *Session) ToggleComments(ctx context.Context, postID uint32) (Selection, []models.Comment, error) {
	var expanded bool
	sel := s.update(func(cur Selection) Selection {
		var next Selection
		next, expanded = cur.ToggleComments(postID)
		return next
	})
	if !expanded {
		return sel, nil, nil
	}
	if comments, ok := s.svc.Store().Comments(postID); ok {
		return sel, comments, nil
	}
	comments, err := s.svc.Comments(ctx, postID)
	return sel, comments, err
}

// Reset returns to the initial selection.
func (s *Session) Reset() Selection {
	return s.update(func(Selection) Selection { return NewSelection() })
}

// FilteredPosts lists posts of the selected community, or of every community
// the viewer can access, narrowed by the topic filter.
func (s *Session) FilteredPosts() []models.Post {
	sel := s.Selection()
	store := s.svc.Store()

	var posts []models.Post
	if sel.CommunityID != nil {
		if own, ok := store.Posts(*sel.CommunityID); ok {
			posts = own
		} else {
			for _, p := range store.Feed() {
				if p.CommunityID == *sel.CommunityID {
					posts = append(posts, p)
				}
			}
		}
	} else {
		accessible := map[uint32]bool{}
		for _, c := range store.Communities() {
			if c.Accessible() {
				accessible[c.ID] = true
			}
		}
		for _, p := range store.Feed() {
			if accessible[p.CommunityID] {
				posts = append(posts, p)
			}
		}
	}

	out := make([]models.Post, 0, len(posts))
	for _, p := range posts {
		if sel.Topic == "" || p.Topic == sel.Topic {
			out = append(out, p)
		}
	}
	SortPosts(out)
	return out
}

// AvailableTopics lists the selected community's topics, or the topics seen
// across the feed when no community is selected.
func (s *Session) AvailableTopics() []string {
	sel := s.Selection()
	store := s.svc.Store()
	fold := s.svc.foldTopics()

	if sel.CommunityID != nil {
		if c, ok := store.Community(*sel.CommunityID); ok {
			return utils.UniqueStrings(c.Topics, fold)
		}
		return []string{}
	}
	var seen []string
	for _, p := range store.Feed() {
		seen = append(seen, p.Topic)
	}
	topics := utils.UniqueStrings(seen, fold)
	sort.Strings(topics)
	return topics
}
