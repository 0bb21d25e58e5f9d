package forum

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/nodespeak/nodespeak/chain"
	"github.com/nodespeak/nodespeak/models"
	"github.com/nodespeak/nodespeak/utils"
)

const (
	placeholderDescription = "No description available"
	defaultConcurrency     = 8
)

func placeholderName(id uint32) string {
	return fmt.Sprintf("Community #%d", id)
}

// Reader turns raw contract records into view models, resolving off-chain
// content per record in parallel. A record whose content cannot be resolved
// keeps placeholder values; it never fails the batch.
type Reader struct {
	contract    ChainReader
	content     ContentResolver
	concurrency int
	sanitize    func(string) string
	log         *zap.Logger
}

func NewReader(contract ChainReader, content ContentResolver, concurrency int, log *zap.Logger) *Reader {
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Reader{
		contract:    contract,
		content:     content,
		concurrency: concurrency,
		sanitize:    utils.Sanitize,
		log:         log,
	}
}

// ListCommunities returns active communities in contract order. A zero viewer
// means no connected account.
func (r *Reader) ListCommunities(ctx context.Context, viewer common.Address) ([]models.Community, error) {
	raws, err := r.contract.ActiveCommunities(ctx)
	if err != nil {
		return nil, fmt.Errorf("list communities: %w", err)
	}
	active := make([]chain.RawCommunity, 0, len(raws))
	for _, raw := range raws {
		if raw.IsActive {
			active = append(active, raw)
		}
	}

	out := make([]models.Community, len(active))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i := range active {
		i := i
		g.Go(func() error {
			out[i] = r.community(gctx, active[i], viewer)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Community reads one community.
func (r *Reader) Community(ctx context.Context, id uint32, viewer common.Address) (models.Community, error) {
	raw, err := r.contract.Community(ctx, id)
	if err != nil {
		return models.Community{}, fmt.Errorf("get community %d: %w", id, err)
	}
	if !raw.IsActive || (raw.Id == 0 && raw.Creator == (common.Address{})) {
		return models.Community{}, fmt.Errorf("%w: %d", ErrCommunityNotFound, id)
	}
	return r.community(ctx, raw, viewer), nil
}

func (r *Reader) community(ctx context.Context, raw chain.RawCommunity, viewer common.Address) models.Community {
	c := models.Community{
		ID:          raw.Id,
		Creator:     raw.Creator.Hex(),
		ContentCID:  raw.ContentCID,
		Name:        placeholderName(raw.Id),
		Description: placeholderDescription,
		Topics:      append([]string{}, raw.Topics...),
		TopicCount:  len(raw.Topics),
		PostCount:   int(raw.PostCount),
	}

	var meta models.CommunityMetadata
	if err := r.content.ResolveJSON(ctx, raw.ContentCID, &meta); err != nil {
		r.log.Warn("community metadata unavailable", zap.Uint32("community", raw.Id), zap.String("cid", raw.ContentCID), zap.Error(err))
	} else {
		if name := strings.TrimSpace(meta.Name); name != "" {
			c.Name = name
		}
		if desc := strings.TrimSpace(meta.Description); desc != "" {
			c.Description = desc
		}
	}

	if count, err := r.contract.MemberCount(ctx, raw.Id); err != nil {
		r.log.Warn("member count unavailable", zap.Uint32("community", raw.Id), zap.Error(err))
	} else {
		c.MemberCount = int(count)
	}

	if viewer == (common.Address{}) {
		return c
	}
	// Byte equality of addresses is the case-insensitive hex comparison.
	c.IsCreator = raw.Creator == viewer
	if c.IsCreator {
		c.IsMember = true
		return c
	}
	member, err := r.contract.IsMember(ctx, raw.Id, viewer)
	if err != nil {
		r.log.Warn("membership query failed", zap.Uint32("community", raw.Id), zap.Error(err))
		return c
	}
	c.IsMember = member
	return c
}

// IsMember queries membership directly.
func (r *Reader) IsMember(ctx context.Context, id uint32, account common.Address) (bool, error) {
	return r.contract.IsMember(ctx, id, account)
}

// CommunityTopics reads a community's topic list.
func (r *Reader) CommunityTopics(ctx context.Context, id uint32) ([]string, error) {
	topics, err := r.contract.CommunityTopics(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("community %d topics: %w", id, err)
	}
	return topics, nil
}

// IsTopicValid asks the contract whether topic belongs to the community.
func (r *Reader) IsTopicValid(ctx context.Context, id uint32, topic string) (bool, error) {
	valid, err := r.contract.IsTopicValid(ctx, id, topic)
	if err != nil {
		return false, fmt.Errorf("community %d topic %q: %w", id, topic, err)
	}
	return valid, nil
}

// ListPostsForCommunity returns the active posts of one community, newest first.
func (r *Reader) ListPostsForCommunity(ctx context.Context, id uint32) ([]models.Post, error) {
	raws, err := r.contract.CommunityPosts(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("community %d posts: %w", id, err)
	}
	return r.posts(ctx, raws)
}

// ListAllPosts returns active posts across every community, newest first.
func (r *Reader) ListAllPosts(ctx context.Context) ([]models.Post, error) {
	raws, err := r.contract.ActivePosts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return r.posts(ctx, raws)
}

func (r *Reader) posts(ctx context.Context, raws []chain.RawPost) ([]models.Post, error) {
	active := make([]chain.RawPost, 0, len(raws))
	for _, raw := range raws {
		if raw.IsActive {
			active = append(active, raw)
		}
	}

	out := make([]models.Post, len(active))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i := range active {
		i := i
		g.Go(func() error {
			out[i] = r.post(gctx, active[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	SortPosts(out)
	return out, nil
}

func (r *Reader) post(ctx context.Context, raw chain.RawPost) models.Post {
	p := models.Post{
		ID:           raw.Id,
		CommunityID:  raw.CommunityId,
		Author:       raw.Author.Hex(),
		Title:        raw.Title,
		ContentCID:   raw.ContentCID,
		ImageCID:     raw.ImageCID,
		ImageURL:     r.content.ImageURL(raw.ImageCID),
		Topic:        raw.Topic,
		LikeCount:    int(raw.LikeCount),
		CommentCount: int(raw.CommentCount),
		Timestamp:    chain.Unix(raw.Timestamp),
		IsActive:     raw.IsActive,
	}
	body, err := r.content.ResolveText(ctx, raw.ContentCID)
	if err != nil {
		r.log.Warn("post body unavailable", zap.Uint32("post", raw.Id), zap.String("cid", raw.ContentCID), zap.Error(err))
		return p
	}
	p.Content = r.sanitize(body)
	return p
}

// ListComments returns the active comments of a post, newest first.
func (r *Reader) ListComments(ctx context.Context, postID uint32) ([]models.Comment, error) {
	raws, err := r.contract.Comments(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("post %d comments: %w", postID, err)
	}
	out := make([]models.Comment, 0, len(raws))
	for _, raw := range raws {
		if !raw.IsActive {
			continue
		}
		out = append(out, models.Comment{
			ID:        raw.Id,
			PostID:    postID,
			Author:    raw.Author.Hex(),
			Content:   raw.Content,
			Timestamp: chain.Unix(raw.Timestamp),
			IsActive:  true,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Timestamp != out[j].Timestamp {
			return out[i].Timestamp > out[j].Timestamp
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

// SortPosts orders posts newest first; equal timestamps fall back to id.
func SortPosts(posts []models.Post) {
	sort.SliceStable(posts, func(i, j int) bool {
		if posts[i].Timestamp != posts[j].Timestamp {
			return posts[i].Timestamp > posts[j].Timestamp
		}
		return posts[i].ID > posts[j].ID
	})
}
