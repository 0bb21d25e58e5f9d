package chain

import (
	"fmt"
	"strings"
)

// Contract write methods.
const (
	MethodCreateCommunity     = "createCommunity"
	MethodJoinCommunity       = "joinCommunity"
	MethodLeaveCommunity      = "leaveCommunity"
	MethodAddTopic            = "addTopicToCommunity"
	MethodDeactivateCommunity = "deactivateCommunity"
	MethodCreatePost          = "createPost"
	MethodLikePost            = "likePost"
	MethodDeactivatePost      = "deactivatePost"
	MethodAddComment          = "addComment"
	MethodDeactivateComment   = "deactivateComment"
)

// Call is one encoded-on-demand contract write.
type Call struct {
	Method string
	Args   []interface{}
}

func (c Call) String() string {
	parts := make([]string, len(c.Args))
	for i, a := range c.Args {
		parts[i] = fmt.Sprint(a)
	}
	return c.Method + "(" + strings.Join(parts, ", ") + ")"
}

func CreateCommunity(contentCID string, topics []string) Call {
	return Call{Method: MethodCreateCommunity, Args: []interface{}{contentCID, topics}}
}

func JoinCommunity(id uint32) Call {
	return Call{Method: MethodJoinCommunity, Args: []interface{}{id}}
}

func LeaveCommunity(id uint32) Call {
	return Call{Method: MethodLeaveCommunity, Args: []interface{}{id}}
}

func AddTopic(id uint32, topic string) Call {
	return Call{Method: MethodAddTopic, Args: []interface{}{id, topic}}
}

func DeactivateCommunity(id uint32) Call {
	return Call{Method: MethodDeactivateCommunity, Args: []interface{}{id}}
}

func CreatePost(communityID uint32, title, contentCID, imageCID, topic string) Call {
	return Call{Method: MethodCreatePost, Args: []interface{}{communityID, title, contentCID, imageCID, topic}}
}

func LikePost(postID uint32) Call {
	return Call{Method: MethodLikePost, Args: []interface{}{postID}}
}

func DeactivatePost(postID uint32) Call {
	return Call{Method: MethodDeactivatePost, Args: []interface{}{postID}}
}

func AddComment(postID uint32, content string) Call {
	return Call{Method: MethodAddComment, Args: []interface{}{postID, content}}
}

func DeactivateComment(postID, commentID uint32) Call {
	return Call{Method: MethodDeactivateComment, Args: []interface{}{postID, commentID}}
}
