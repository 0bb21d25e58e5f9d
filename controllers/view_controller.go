package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nodespeak/nodespeak/forum"
	"github.com/nodespeak/nodespeak/utils"
)

// ViewController drives the node's UI selection state.
type ViewController struct {
	svc     *forum.Service
	session *forum.Session
}

// NewViewController creates a new ViewController instance.
func NewViewController(svc *forum.Service, session *forum.Session) *ViewController {
	return &ViewController{svc: svc, session: session}
}

func (v *ViewController) render(ctx *gin.Context, sel forum.Selection) {
	utils.Success(ctx, gin.H{
		"selection":        sel,
		"posts":            v.session.FilteredPosts(),
		"available_topics": v.session.AvailableTopics(),
	})
}

// Get returns the selection with the posts and topics it implies.
func (v *ViewController) Get(ctx *gin.Context) {
	v.render(ctx, v.session.Selection())
}

// SelectCommunity selects a community, fetching its posts when it changed.
func (v *ViewController) SelectCommunity(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	sel, err := v.session.SelectCommunity(ctx.Request.Context(), id)
	if err != nil {
		respondError(ctx, v.svc, err, gin.H{"selection": sel})
		return
	}
	v.render(ctx, sel)
}

// SelectTopic sets the topic filter.
func (v *ViewController) SelectTopic(ctx *gin.Context) {
	var req struct {
		Topic string `json:"topic" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid request payload")
		return
	}
	v.render(ctx, v.session.SelectTopic(req.Topic))
}

// ClearTopic removes the topic filter.
func (v *ViewController) ClearTopic(ctx *gin.Context) {
	v.render(ctx, v.session.ClearTopic())
}

// Toggle flips one of the forms or the main view.
func (v *ViewController) Toggle(ctx *gin.Context) {
	var sel forum.Selection
	switch ctx.Param("what") {
	case "create-community":
		sel = v.session.ToggleCreateCommunity()
	case "create-post":
		sel = v.session.ToggleCreatePost()
	case "view":
		sel = v.session.ToggleView()
	default:
		utils.Error(ctx, http.StatusNotFound, 40400, "unknown toggle")
		return
	}
	v.render(ctx, sel)
}

// ToggleComments expands or collapses a post's comments.
func (v *ViewController) ToggleComments(ctx *gin.Context) {
	postID, ok := parseID(ctx, "postId")
	if !ok {
		return
	}
	sel, comments, err := v.session.ToggleComments(ctx.Request.Context(), postID)
	if err != nil {
		respondError(ctx, v.svc, err, gin.H{"selection": sel})
		return
	}
	utils.Success(ctx, gin.H{"selection": sel, "comments": comments})
}

// Reset returns to the community list.
func (v *ViewController) Reset(ctx *gin.Context) {
	v.render(ctx, v.session.Reset())
}
