package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nodespeak/nodespeak/forum"
	"github.com/nodespeak/nodespeak/utils"
)

// CommunityController serves community reads and membership writes.
type CommunityController struct {
	svc *forum.Service
}

// NewCommunityController creates a new CommunityController instance.
func NewCommunityController(svc *forum.Service) *CommunityController {
	return &CommunityController{svc: svc}
}

// ListCommunities returns the store view, re-reading the chain on ?refresh=1
// or when nothing has been loaded yet.
func (c *CommunityController) ListCommunities(ctx *gin.Context) {
	list := c.svc.Communities()
	if len(list) == 0 || wantRefresh(ctx) {
		var err error
		list, err = c.svc.RefreshCommunities(ctx.Request.Context())
		if err != nil {
			respondError(ctx, c.svc, err, gin.H{"communities": list})
			return
		}
	}
	utils.Success(ctx, gin.H{"communities": list, "total": len(list)})
}

// GetCommunity returns one community.
func (c *CommunityController) GetCommunity(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	get := c.svc.Community
	if wantRefresh(ctx) {
		get = c.svc.RefreshCommunity
	}
	community, err := get(ctx.Request.Context(), id)
	if err != nil {
		respondError(ctx, c.svc, err, nil)
		return
	}
	utils.Success(ctx, gin.H{"community": community})
}

// ListTopics returns a community's topics straight from the contract.
func (c *CommunityController) ListTopics(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	topics, err := c.svc.Reader().CommunityTopics(ctx.Request.Context(), id)
	if err != nil {
		respondError(ctx, c.svc, err, nil)
		return
	}
	utils.Success(ctx, gin.H{"topics": topics})
}

// CreateCommunity pins metadata and creates a community.
func (c *CommunityController) CreateCommunity(ctx *gin.Context) {
	var req forum.CreateCommunityInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid request payload")
		return
	}
	receipt, err := c.svc.CreateCommunity(ctx.Request.Context(), req)
	if err != nil {
		respondError(ctx, c.svc, err, nil)
		return
	}
	utils.Success(ctx, gin.H{"receipt": receipt, "communities": c.svc.Communities()})
}

// Join joins a community. Already being a member is reported as skipped.
func (c *CommunityController) Join(ctx *gin.Context) {
	c.membership(ctx, c.svc.JoinCommunity)
}

// Leave leaves a community.
func (c *CommunityController) Leave(ctx *gin.Context) {
	c.membership(ctx, c.svc.LeaveCommunity)
}

// Deactivate deactivates a community the account created.
func (c *CommunityController) Deactivate(ctx *gin.Context) {
	c.membership(ctx, c.svc.DeactivateCommunity)
}

func (c *CommunityController) membership(ctx *gin.Context, write func(context.Context, uint32) (*forum.Receipt, error)) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	receipt, err := write(ctx.Request.Context(), id)
	view, _ := c.svc.Store().Community(id)
	if err != nil {
		respondError(ctx, c.svc, err, gin.H{"community": view})
		return
	}
	utils.Success(ctx, gin.H{"receipt": receipt, "community": view})
}

// AddTopic appends a topic to a community.
func (c *CommunityController) AddTopic(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	var req struct {
		Topic string `json:"topic" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid request payload")
		return
	}
	receipt, err := c.svc.AddTopic(ctx.Request.Context(), id, req.Topic)
	view, _ := c.svc.Store().Community(id)
	if err != nil {
		respondError(ctx, c.svc, err, nil)
		return
	}
	utils.Success(ctx, gin.H{"receipt": receipt, "community": view})
}
