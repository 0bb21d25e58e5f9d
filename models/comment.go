package models

// Comment represents a reply to a post. Comment text is stored inline on chain.
type Comment struct {
	ID        uint32 `json:"id"`
	PostID    uint32 `json:"post_id"`
	Author    string `json:"author"`
	Content   string `json:"content"`
	Timestamp int64  `json:"timestamp"`
	IsActive  bool   `json:"is_active"`
}
