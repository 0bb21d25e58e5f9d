package models

// Community is the view model of an on-chain community joined with its
// off-chain metadata and the viewer's membership.
type Community struct {
	ID          uint32   `json:"id"`
	Creator     string   `json:"creator"`
	ContentCID  string   `json:"content_cid"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Topics      []string `json:"topics"`
	TopicCount  int      `json:"topic_count"`
	PostCount   int      `json:"post_count"`
	MemberCount int      `json:"member_count"`
	IsMember    bool     `json:"is_member"`
	IsCreator   bool     `json:"is_creator"`
}

// Accessible reports whether the viewer may read and post in the community.
func (c Community) Accessible() bool {
	return c.IsMember || c.IsCreator
}

// Clone returns a copy that does not share the topic slice.
func (c Community) Clone() Community {
	out := c
	out.Topics = append([]string(nil), c.Topics...)
	return out
}

// CommunityMetadata is the JSON blob pinned for each community.
type CommunityMetadata struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}
