package forum

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/nodespeak/nodespeak/chain"
	"github.com/nodespeak/nodespeak/events"
	"github.com/nodespeak/nodespeak/models"
	"github.com/nodespeak/nodespeak/utils"
	"github.com/nodespeak/nodespeak/wallet"
)

// Options are the forum behaviour switches from configuration.
type Options struct {
	SimulateWrites       bool
	ConfirmTimeout       time.Duration
	CommunityCooldown    time.Duration
	AllowTopicAdd        bool
	RefreshAfterTopicAdd bool
	TopicCaseSensitive   bool
	ResolveConcurrency   int
}

// Deps are the collaborators of a Service.
type Deps struct {
	Contract  Contract
	Content   ContentResolver
	Pinner    ContentPinner
	Signer    Signer
	Journal   Journal
	Publisher events.Publisher
}

// CreateCommunityInput is the form for a new community.
type CreateCommunityInput struct {
	Name        string   `json:"name" validate:"required,max=100"`
	Description string   `json:"description" validate:"max=2000"`
	Topics      []string `json:"topics" validate:"required,min=1,max=20,dive,max=50"`
}

// CreatePostInput is the form for a new post. Image is optional.
type CreatePostInput struct {
	CommunityID uint32    `json:"community_id"`
	Title       string    `json:"title" validate:"required,max=200"`
	Content     string    `json:"content" validate:"required,max=100000"`
	Topic       string    `json:"topic" validate:"required,max=50"`
	ImageName   string    `json:"-"`
	Image       io.Reader `json:"-" validate:"-"`
}

type commentInput struct {
	Content string `validate:"required,max=2000"`
}

type topicInput struct {
	Topic string `validate:"required,max=50"`
}

// Service is the forum facade used by the HTTP layer.
type Service struct {
	reader    *Reader
	orch      *Orchestrator
	store     *Store
	signer    Signer
	pinner    ContentPinner
	journal   Journal
	cooldowns *Cooldowns
	busy      *InFlight
	validate  *validator.Validate
	opts      Options
	log       *zap.Logger
}

func NewService(deps Deps, opts Options, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	if deps.Journal == nil {
		deps.Journal = NopJournal{}
	}
	return &Service{
		reader: NewReader(deps.Contract, deps.Content, opts.ResolveConcurrency, log.Named("reader")),
		orch: NewOrchestrator(deps.Contract, deps.Signer, NewInFlight(), deps.Journal, deps.Publisher, OrchestratorConfig{
			Simulate:       opts.SimulateWrites,
			ConfirmTimeout: opts.ConfirmTimeout,
		}, log.Named("tx")),
		store:     NewStore(!opts.TopicCaseSensitive),
		signer:    deps.Signer,
		pinner:    deps.Pinner,
		journal:   deps.Journal,
		cooldowns: NewCooldowns(opts.CommunityCooldown),
		busy:      NewInFlight(),
		validate:  validator.New(),
		opts:      opts,
		log:       log,
	}
}

func (s *Service) Store() *Store            { return s.store }
func (s *Service) Reader() *Reader          { return s.reader }
func (s *Service) InFlight() *InFlight      { return s.orch.InFlight() }
func (s *Service) Refreshing() []string     { return s.busy.Active() }
func (s *Service) Options() Options         { return s.opts }
func (s *Service) Message(err error) string { return UserMessage(err, s.opts.CommunityCooldown) }
func (s *Service) foldTopics() bool         { return !s.opts.TopicCaseSensitive }

// CooldownRemaining reports the local cooldown left for the connected account.
func (s *Service) CooldownRemaining() time.Duration {
	account, err := s.signer.Account()
	if err != nil {
		return 0
	}
	return s.cooldowns.Remaining(account.Hex())
}

// RecentTransactions lists the newest journaled writes.
func (s *Service) RecentTransactions(ctx context.Context, limit int) ([]models.TxRecord, error) {
	return s.journal.Recent(ctx, limit)
}

// viewer is the connected account, or the zero address without one.
func (s *Service) viewer() common.Address {
	account, err := s.signer.Account()
	if err != nil {
		return common.Address{}
	}
	return account
}

func (s *Service) check(v interface{}) error {
	if err := s.validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return nil
}

// RefreshCommunities re-reads all communities. An overlapping call returns
// the current view without reading. A failed read keeps the previous view.
func (s *Service) RefreshCommunities(ctx context.Context) ([]models.Community, error) {
	if !s.busy.Acquire("communities") {
		return s.store.Communities(), nil
	}
	defer s.busy.Release("communities")

	gen := s.store.BeginRefresh()
	list, err := s.reader.ListCommunities(ctx, s.viewer())
	if err != nil {
		s.log.Error("refresh communities failed", zap.Error(err))
		return s.store.Communities(), err
	}
	s.store.SettleCommunities(gen, list)
	return s.store.Communities(), nil
}

// RefreshCommunity re-reads one community.
func (s *Service) RefreshCommunity(ctx context.Context, id uint32) (models.Community, error) {
	key := "community:" + strconv.FormatUint(uint64(id), 10)
	if !s.busy.Acquire(key) {
		c, ok := s.store.Community(id)
		if !ok {
			return c, ErrInFlight
		}
		return c, nil
	}
	defer s.busy.Release(key)

	gen := s.store.BeginRefresh()
	c, err := s.reader.Community(ctx, id, s.viewer())
	if err != nil {
		return models.Community{}, err
	}
	s.store.SettleCommunity(gen, c)
	c, _ = s.store.Community(id)
	return c, nil
}

// Communities is the current view without reading the chain.
func (s *Service) Communities() []models.Community { return s.store.Communities() }

// Community returns the stored community, reading it when unknown.
func (s *Service) Community(ctx context.Context, id uint32) (models.Community, error) {
	if c, ok := s.store.Community(id); ok {
		return c, nil
	}
	return s.RefreshCommunity(ctx, id)
}

// RefreshPosts re-reads one community's posts.
func (s *Service) RefreshPosts(ctx context.Context, communityID uint32) ([]models.Post, error) {
	key := "posts:" + strconv.FormatUint(uint64(communityID), 10)
	if !s.busy.Acquire(key) {
		posts, _ := s.store.Posts(communityID)
		return posts, nil
	}
	defer s.busy.Release(key)

	posts, err := s.reader.ListPostsForCommunity(ctx, communityID)
	if err != nil {
		s.log.Error("refresh posts failed", zap.Uint32("community", communityID), zap.Error(err))
		prev, _ := s.store.Posts(communityID)
		return prev, err
	}
	s.store.SetPosts(communityID, posts)
	return posts, nil
}

// RefreshFeed re-reads posts across all communities.
func (s *Service) RefreshFeed(ctx context.Context) ([]models.Post, error) {
	if !s.busy.Acquire("feed") {
		return s.store.Feed(), nil
	}
	defer s.busy.Release("feed")

	posts, err := s.reader.ListAllPosts(ctx)
	if err != nil {
		s.log.Error("refresh feed failed", zap.Error(err))
		return s.store.Feed(), err
	}
	s.store.SetFeed(posts)
	return posts, nil
}

// Comments re-reads the comments of a post.
func (s *Service) Comments(ctx context.Context, postID uint32) ([]models.Comment, error) {
	key := "comments:" + strconv.FormatUint(uint64(postID), 10)
	if !s.busy.Acquire(key) {
		comments, _ := s.store.Comments(postID)
		return comments, nil
	}
	defer s.busy.Release(key)

	comments, err := s.reader.ListComments(ctx, postID)
	if err != nil {
		s.log.Error("refresh comments failed", zap.Uint32("post", postID), zap.Error(err))
		prev, _ := s.store.Comments(postID)
		return prev, err
	}
	s.store.SetComments(postID, comments)
	return comments, nil
}

func (s *Service) refreshCommunities(ctx context.Context) error {
	_, err := s.RefreshCommunities(ctx)
	return err
}

func (s *Service) refreshPosts(communityID uint32) func(context.Context) error {
	return func(ctx context.Context) error {
		if _, err := s.RefreshPosts(ctx, communityID); err != nil {
			return err
		}
		_, err := s.RefreshFeed(ctx)
		return err
	}
}

// CreateCommunity pins the metadata blob and creates the community.
func (s *Service) CreateCommunity(ctx context.Context, in CreateCommunityInput) (*Receipt, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	in.Topics = utils.UniqueStrings(in.Topics, s.foldTopics())
	if err := s.check(in); err != nil {
		return nil, err
	}

	return s.orch.Execute(ctx, Write{
		Target: "community:create",
		Call:   chain.Call{Method: chain.MethodCreateCommunity},
		PreCheck: func(ctx context.Context, account common.Address) (bool, error) {
			if left := s.cooldowns.Remaining(account.Hex()); left > 0 {
				return false, fmt.Errorf("%w: %s remaining", ErrCooldownActive, left.Round(time.Second))
			}
			return false, nil
		},
		Prepare: func(ctx context.Context) (chain.Call, error) {
			cid, err := s.pinner.PinJSON(ctx, "community-"+slug(in.Name)+".json", models.CommunityMetadata{
				Name:        in.Name,
				Description: in.Description,
			})
			if err != nil {
				return chain.Call{}, fmt.Errorf("pin community metadata: %w", err)
			}
			return chain.CreateCommunity(cid, in.Topics), nil
		},
		OnConfirmed: func(account common.Address, _ *types.Receipt) {
			s.cooldowns.Start(account.Hex())
		},
		Refresh: s.refreshCommunities,
	})
}

// JoinCommunity joins id. Joining a community the account already belongs to
// sends nothing and marks it joined.
func (s *Service) JoinCommunity(ctx context.Context, id uint32) (*Receipt, error) {
	receipt, err := s.orch.Execute(ctx, Write{
		Target: membershipTarget(id),
		Call:   chain.JoinCommunity(id),
		PreCheck: func(ctx context.Context, account common.Address) (bool, error) {
			c, err := s.Community(ctx, id)
			switch {
			case errors.Is(err, ErrCommunityNotFound):
				return false, err
			case err != nil:
				s.log.Warn("community lookup before join failed", zap.Uint32("community", id), zap.Error(err))
			case c.IsCreator || strings.EqualFold(c.Creator, account.Hex()):
				return true, nil
			}
			member, err := s.reader.IsMember(ctx, id, account)
			if err != nil {
				s.log.Warn("membership pre-check failed", zap.Uint32("community", id), zap.Error(err))
				return false, nil
			}
			if member {
				s.store.Apply(MembershipPatch{CommunityID: id, IsMember: true})
			}
			return member, nil
		},
		OnConfirmed: func(common.Address, *types.Receipt) {
			s.store.Apply(MembershipPatch{CommunityID: id, IsMember: true})
		},
		Refresh: s.refreshCommunities,
	})
	if errors.Is(err, ErrAlreadyMember) {
		s.store.Apply(MembershipPatch{CommunityID: id, IsMember: true})
		return &Receipt{Skipped: true, Method: chain.MethodJoinCommunity, Account: s.viewer().Hex()}, nil
	}
	return receipt, err
}

// LeaveCommunity leaves id. Creators cannot leave.
func (s *Service) LeaveCommunity(ctx context.Context, id uint32) (*Receipt, error) {
	receipt, err := s.orch.Execute(ctx, Write{
		Target: membershipTarget(id),
		Call:   chain.LeaveCommunity(id),
		PreCheck: func(ctx context.Context, account common.Address) (bool, error) {
			c, err := s.Community(ctx, id)
			if err != nil {
				return false, err
			}
			if strings.EqualFold(c.Creator, account.Hex()) {
				return false, ErrCreatorCannotLeave
			}
			member, err := s.reader.IsMember(ctx, id, account)
			if err != nil {
				s.log.Warn("membership pre-check failed", zap.Uint32("community", id), zap.Error(err))
				return false, nil
			}
			if !member {
				s.store.Apply(MembershipPatch{CommunityID: id, IsMember: false})
			}
			return !member, nil
		},
		OnConfirmed: func(common.Address, *types.Receipt) {
			s.store.Apply(MembershipPatch{CommunityID: id, IsMember: false})
		},
		Refresh: s.refreshCommunities,
	})
	if errors.Is(err, ErrNotAMember) {
		s.store.Apply(MembershipPatch{CommunityID: id, IsMember: false})
		return &Receipt{Skipped: true, Method: chain.MethodLeaveCommunity, Account: s.viewer().Hex()}, nil
	}
	return receipt, err
}

// AddTopic appends topic to a community when topic addition is enabled.
func (s *Service) AddTopic(ctx context.Context, id uint32, topic string) (*Receipt, error) {
	if !s.opts.AllowTopicAdd {
		return nil, ErrTopicAddDisabled
	}
	topic = strings.TrimSpace(topic)
	if err := s.check(topicInput{Topic: topic}); err != nil {
		return nil, err
	}

	w := Write{
		Target: "community:" + strconv.FormatUint(uint64(id), 10) + ":topics",
		Call:   chain.AddTopic(id, topic),
		PreCheck: func(ctx context.Context, _ common.Address) (bool, error) {
			c, err := s.Community(ctx, id)
			if err != nil {
				return false, err
			}
			if utils.ContainsString(c.Topics, topic, s.foldTopics()) {
				return false, ErrDuplicateTopic
			}
			return false, nil
		},
		OnConfirmed: func(common.Address, *types.Receipt) {
			s.store.Apply(TopicPatch{CommunityID: id, Topic: topic})
		},
	}
	if s.opts.RefreshAfterTopicAdd {
		w.Refresh = s.refreshCommunities
	}
	return s.orch.Execute(ctx, w)
}

// CreatePost validates membership and topic, pins the body and optional
// image, then creates the post.
func (s *Service) CreatePost(ctx context.Context, in CreatePostInput) (*Receipt, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Topic = strings.TrimSpace(in.Topic)
	if err := s.check(in); err != nil {
		return nil, err
	}
	id := in.CommunityID
	topic := in.Topic

	return s.orch.Execute(ctx, Write{
		Target: "community:" + strconv.FormatUint(uint64(id), 10) + ":post",
		Call:   chain.Call{Method: chain.MethodCreatePost},
		PreCheck: func(ctx context.Context, account common.Address) (bool, error) {
			c, err := s.Community(ctx, id)
			if err != nil {
				return false, err
			}
			if !c.Accessible() && !strings.EqualFold(c.Creator, account.Hex()) {
				member, err := s.reader.IsMember(ctx, id, account)
				if err != nil {
					return false, fmt.Errorf("check membership: %w", err)
				}
				if !member {
					return false, ErrNotAMember
				}
			}
			canonical, ok := matchTopic(c.Topics, topic, s.foldTopics())
			if !ok {
				// The stored list may predate a topic added elsewhere.
				valid, err := s.reader.IsTopicValid(ctx, id, topic)
				if err != nil {
					s.log.Warn("topic check failed", zap.Uint32("community", id), zap.String("topic", topic), zap.Error(err))
				}
				if !valid {
					return false, fmt.Errorf("%w: %q not in %v", ErrTopicNotInCommunity, topic, c.Topics)
				}
				s.store.Apply(TopicPatch{CommunityID: id, Topic: topic})
				canonical = topic
			}
			topic = canonical
			return false, nil
		},
		Prepare: func(ctx context.Context) (chain.Call, error) {
			contentCID, err := s.pinner.PinText(ctx, "post-"+slug(in.Title)+".html", in.Content)
			if err != nil {
				return chain.Call{}, fmt.Errorf("pin post body: %w", err)
			}
			imageCID := ""
			if in.Image != nil {
				name := in.ImageName
				if name == "" {
					name = "image"
				}
				if imageCID, err = s.pinner.PinFile(ctx, name, models.PinImage, in.Image); err != nil {
					return chain.Call{}, fmt.Errorf("pin post image: %w", err)
				}
			}
			return chain.CreatePost(id, in.Title, contentCID, imageCID, topic), nil
		},
		Refresh: s.refreshPosts(id),
	})
}

// LikePost likes a post; communityID selects the list to refresh.
func (s *Service) LikePost(ctx context.Context, communityID, postID uint32) (*Receipt, error) {
	return s.orch.Execute(ctx, Write{
		Target:  postTarget(postID, "like"),
		Call:    chain.LikePost(postID),
		Refresh: s.refreshPosts(communityID),
	})
}

// AddComment comments on a post.
func (s *Service) AddComment(ctx context.Context, communityID, postID uint32, text string) (*Receipt, error) {
	text = strings.TrimSpace(text)
	if err := s.check(commentInput{Content: text}); err != nil {
		return nil, err
	}
	refreshPosts := s.refreshPosts(communityID)
	return s.orch.Execute(ctx, Write{
		Target: postTarget(postID, "comment"),
		Call:   chain.AddComment(postID, text),
		Refresh: func(ctx context.Context) error {
			if _, err := s.Comments(ctx, postID); err != nil {
				return err
			}
			return refreshPosts(ctx)
		},
	})
}

// DeactivatePost soft-deletes a post.
func (s *Service) DeactivatePost(ctx context.Context, communityID, postID uint32) (*Receipt, error) {
	return s.orch.Execute(ctx, Write{
		Target:  postTarget(postID, "deactivate"),
		Call:    chain.DeactivatePost(postID),
		Refresh: s.refreshPosts(communityID),
	})
}

// DeactivateComment soft-deletes a comment.
func (s *Service) DeactivateComment(ctx context.Context, postID, commentID uint32) (*Receipt, error) {
	return s.orch.Execute(ctx, Write{
		Target: postTarget(postID, "comment:"+strconv.FormatUint(uint64(commentID), 10)),
		Call:   chain.DeactivateComment(postID, commentID),
		Refresh: func(ctx context.Context) error {
			_, err := s.Comments(ctx, postID)
			return err
		},
	})
}

// DeactivateCommunity soft-deletes a community.
func (s *Service) DeactivateCommunity(ctx context.Context, id uint32) (*Receipt, error) {
	return s.orch.Execute(ctx, Write{
		Target:  "community:" + strconv.FormatUint(uint64(id), 10) + ":deactivate",
		Call:    chain.DeactivateCommunity(id),
		Refresh: s.refreshCommunities,
	})
}

// WatchAccounts drops per-account state whenever the wallet account changes.
func (s *Service) WatchAccounts(ctx context.Context, changes <-chan wallet.AccountEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-changes:
			if !ok {
				return
			}
			s.store.Reset()
			s.log.Info("viewing account changed", zap.String("account", ev.Account))
			if ev.Account == "" {
				continue
			}
			if _, err := s.RefreshCommunities(ctx); err != nil {
				s.log.Warn("refresh after account change failed", zap.Error(err))
			}
		}
	}
}

func membershipTarget(id uint32) string {
	return "community:" + strconv.FormatUint(uint64(id), 10) + ":membership"
}

func postTarget(postID uint32, action string) string {
	return "post:" + strconv.FormatUint(uint64(postID), 10) + ":" + action
}

func matchTopic(topics []string, topic string, fold bool) (string, bool) {
	for _, t := range topics {
		if t == topic {
			return t, true
		}
	}
	if fold {
		for _, t := range topics {
			if strings.EqualFold(t, topic) {
				return t, true
			}
		}
	}
	return "", false
}

func slug(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case b.Len() > 0 && !strings.HasSuffix(b.String(), "-"):
			b.WriteByte('-')
		}
		if b.Len() >= 40 {
			break
		}
	}
	out := strings.Trim(b.String(), "-")
	if out == "" {
		return "untitled"
	}
	return out
}
