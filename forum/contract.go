package forum

import (
	"context"
	"io"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/nodespeak/nodespeak/chain"
)

// ChainReader is the read side of the forum contract; *chain.Forum implements it.
type ChainReader interface {
	ActiveCommunities(ctx context.Context) ([]chain.RawCommunity, error)
	Community(ctx context.Context, id uint32) (chain.RawCommunity, error)
	CommunityPosts(ctx context.Context, id uint32) ([]chain.RawPost, error)
	ActivePosts(ctx context.Context) ([]chain.RawPost, error)
	Comments(ctx context.Context, postID uint32) ([]chain.RawComment, error)
	IsMember(ctx context.Context, id uint32, account common.Address) (bool, error)
	MemberCount(ctx context.Context, id uint32) (uint32, error)
	CommunityTopics(ctx context.Context, id uint32) ([]string, error)
	IsTopicValid(ctx context.Context, id uint32, topic string) (bool, error)
}

// ChainWriter sends state-changing calls.
type ChainWriter interface {
	Simulate(ctx context.Context, from common.Address, call chain.Call) (uint64, error)
	Submit(opts *bind.TransactOpts, call chain.Call) (*types.Transaction, error)
	WaitConfirmed(ctx context.Context, tx *types.Transaction) (*types.Receipt, error)
}

// Contract is the full forum contract surface.
type Contract interface {
	ChainReader
	ChainWriter
}

// Signer exposes the connected account; *wallet.Wallet implements it.
type Signer interface {
	Account() (common.Address, error)
	TransactOpts(ctx context.Context) (*bind.TransactOpts, error)
}

// ContentResolver reads off-chain content; *content.Resolver implements it.
type ContentResolver interface {
	ResolveJSON(ctx context.Context, cid string, v interface{}) error
	ResolveText(ctx context.Context, cid string) (string, error)
	ImageURL(cid string) string
}

// ContentPinner stores off-chain content; *content.Pinner implements it.
type ContentPinner interface {
	PinFile(ctx context.Context, name, kind string, r io.Reader) (string, error)
	PinText(ctx context.Context, name, text string) (string, error)
	PinJSON(ctx context.Context, name string, v interface{}) (string, error)
}
