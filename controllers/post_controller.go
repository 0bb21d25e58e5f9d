package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/nodespeak/nodespeak/forum"
	"github.com/nodespeak/nodespeak/utils"
)

// maxImageSize bounds an uploaded post image.
const maxImageSize = 10 * 1024 * 1024

// PostController manages posts, likes and comments.
type PostController struct {
	svc *forum.Service
}

// NewPostController creates a new PostController instance.
func NewPostController(svc *forum.Service) *PostController {
	return &PostController{svc: svc}
}

// Feed returns posts across all communities, newest first.
func (p *PostController) Feed(ctx *gin.Context) {
	posts := p.svc.Store().Feed()
	if len(posts) == 0 || wantRefresh(ctx) {
		var err error
		posts, err = p.svc.RefreshFeed(ctx.Request.Context())
		if err != nil {
			respondError(ctx, p.svc, err, gin.H{"posts": posts})
			return
		}
	}
	utils.Success(ctx, gin.H{"posts": posts, "total": len(posts)})
}

// ListCommunityPosts returns one community's posts.
func (p *PostController) ListCommunityPosts(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	posts, cached := p.svc.Store().Posts(id)
	if !cached || wantRefresh(ctx) {
		var err error
		posts, err = p.svc.RefreshPosts(ctx.Request.Context(), id)
		if err != nil {
			respondError(ctx, p.svc, err, gin.H{"posts": posts})
			return
		}
	}
	utils.Success(ctx, gin.H{"posts": posts, "total": len(posts)})
}

// CreatePost accepts JSON or a multipart form with an optional "image" file.
func (p *PostController) CreatePost(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}

	in := forum.CreatePostInput{CommunityID: id}
	if strings.HasPrefix(ctx.ContentType(), "multipart/") {
		in.Title = ctx.PostForm("title")
		in.Content = ctx.PostForm("content")
		in.Topic = ctx.PostForm("topic")

		if fh, err := ctx.FormFile("image"); err == nil {
			if fh.Size > maxImageSize {
				utils.Error(ctx, http.StatusBadRequest, 40032, "image size exceeds 10MB")
				return
			}
			f, err := fh.Open()
			if err != nil {
				utils.Error(ctx, http.StatusBadRequest, 40031, "failed to read image")
				return
			}
			defer f.Close()
			in.ImageName = fh.Filename
			in.Image = f
		}
	} else {
		var req struct {
			Title   string `json:"title"`
			Content string `json:"content"`
			Topic   string `json:"topic"`
		}
		if err := ctx.ShouldBindJSON(&req); err != nil {
			utils.Error(ctx, http.StatusBadRequest, 40020, "invalid request payload")
			return
		}
		in.Title, in.Content, in.Topic = req.Title, req.Content, req.Topic
	}

	receipt, err := p.svc.CreatePost(ctx.Request.Context(), in)
	if err != nil {
		respondError(ctx, p.svc, err, nil)
		return
	}
	posts, _ := p.svc.Store().Posts(id)
	utils.Success(ctx, gin.H{"receipt": receipt, "posts": posts})
}

// LikePost likes a post once per account.
func (p *PostController) LikePost(ctx *gin.Context) {
	communityID, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	postID, ok := parseID(ctx, "postId")
	if !ok {
		return
	}
	receipt, err := p.svc.LikePost(ctx.Request.Context(), communityID, postID)
	if err != nil {
		respondError(ctx, p.svc, err, nil)
		return
	}
	utils.Success(ctx, gin.H{"receipt": receipt})
}

// DeactivatePost hides a post the account authored.
func (p *PostController) DeactivatePost(ctx *gin.Context) {
	communityID, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	postID, ok := parseID(ctx, "postId")
	if !ok {
		return
	}
	receipt, err := p.svc.DeactivatePost(ctx.Request.Context(), communityID, postID)
	if err != nil {
		respondError(ctx, p.svc, err, nil)
		return
	}
	utils.Success(ctx, gin.H{"receipt": receipt})
}

// ListComments returns a post's active comments.
func (p *PostController) ListComments(ctx *gin.Context) {
	postID, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	comments, err := p.svc.Comments(ctx.Request.Context(), postID)
	if err != nil {
		respondError(ctx, p.svc, err, gin.H{"comments": comments})
		return
	}
	utils.Success(ctx, gin.H{"comments": comments, "total": len(comments)})
}

// CreateComment comments on a post. community_id selects which post list to refresh.
func (p *PostController) CreateComment(ctx *gin.Context) {
	postID, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	var req struct {
		CommunityID uint32 `json:"community_id"`
		Content     string `json:"content" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid request payload")
		return
	}
	receipt, err := p.svc.AddComment(ctx.Request.Context(), req.CommunityID, postID, req.Content)
	if err != nil {
		respondError(ctx, p.svc, err, nil)
		return
	}
	comments, _ := p.svc.Store().Comments(postID)
	utils.Success(ctx, gin.H{"receipt": receipt, "comments": comments})
}

// DeactivateComment hides a comment the account authored.
func (p *PostController) DeactivateComment(ctx *gin.Context) {
	postID, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	commentID, ok := parseID(ctx, "commentId")
	if !ok {
		return
	}
	receipt, err := p.svc.DeactivateComment(ctx.Request.Context(), postID, commentID)
	if err != nil {
		respondError(ctx, p.svc, err, nil)
		return
	}
	utils.Success(ctx, gin.H{"receipt": receipt})
}
