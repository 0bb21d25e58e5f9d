package models

// Post is a forum post as shown to the viewer. Content is the resolved and
// sanitized body; ImageURL is derived from ImageCID through the image gateway.
type Post struct {
	ID           uint32 `json:"id"`
	CommunityID  uint32 `json:"community_id"`
	Author       string `json:"author"`
	Title        string `json:"title"`
	ContentCID   string `json:"content_cid"`
	Content      string `json:"content"`
	ImageCID     string `json:"image_cid,omitempty"`
	ImageURL     string `json:"image_url,omitempty"`
	Topic        string `json:"topic"`
	LikeCount    int    `json:"like_count"`
	CommentCount int    `json:"comment_count"`
	Timestamp    int64  `json:"timestamp"` // unix seconds, assigned by the contract
	IsActive     bool   `json:"is_active"`
}
