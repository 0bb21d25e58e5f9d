package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
)

var (
	ErrInvalidAddress = errors.New("invalid forum contract address")
	ErrChainMismatch  = errors.New("rpc endpoint serves a different chain")
	ErrEmptyResult    = errors.New("contract returned no values")
)

// Backend is what the forum binding needs from an RPC client; *ethclient.Client satisfies it.
type Backend interface {
	bind.ContractBackend
	bind.DeployBackend
}

// Forum is a typed binding of the forum contract.
type Forum struct {
	address  common.Address
	abi      abi.ABI
	backend  Backend
	contract *bind.BoundContract
}

// ParseABI parses the forum contract interface.
func ParseABI() (abi.ABI, error) {
	return abi.JSON(strings.NewReader(forumABI))
}

// New binds the forum contract deployed at address.
func New(address string, backend Backend) (*Forum, error) {
	if !common.IsHexAddress(address) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAddress, address)
	}
	parsed, err := ParseABI()
	if err != nil {
		return nil, fmt.Errorf("parse forum abi: %w", err)
	}
	addr := common.HexToAddress(address)
	return &Forum{
		address:  addr,
		abi:      parsed,
		backend:  backend,
		contract: bind.NewBoundContract(addr, parsed, backend, backend, backend),
	}, nil
}

// Dial connects to rpcURL, checks the chain id when wantChainID is non-zero and binds the contract.
func Dial(ctx context.Context, rpcURL, address string, wantChainID int64) (*Forum, *ethclient.Client, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, nil, fmt.Errorf("dial %s: %w", rpcURL, err)
	}
	if wantChainID != 0 {
		id, err := client.ChainID(ctx)
		if err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("query chain id: %w", err)
		}
		if id.Int64() != wantChainID {
			client.Close()
			return nil, nil, fmt.Errorf("%w: got %s, want %d", ErrChainMismatch, id, wantChainID)
		}
	}
	forum, err := New(address, client)
	if err != nil {
		client.Close()
		return nil, nil, err
	}
	return forum, client, nil
}

// Address returns the bound contract address.
func (f *Forum) Address() common.Address { return f.address }

func (f *Forum) call(ctx context.Context, method string, args ...interface{}) (interface{}, error) {
	var out []interface{}
	if err := f.contract.Call(&bind.CallOpts{Context: ctx}, &out, method, args...); err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%s: %w", method, ErrEmptyResult)
	}
	return out[0], nil
}

func (f *Forum) ActiveCommunities(ctx context.Context) ([]RawCommunity, error) {
	v, err := f.call(ctx, "getActiveCommunities")
	if err != nil {
		return nil, err
	}
	return decodeCommunities(v), nil
}

func (f *Forum) Community(ctx context.Context, id uint32) (RawCommunity, error) {
	v, err := f.call(ctx, "getCommunity", id)
	if err != nil {
		return RawCommunity{}, err
	}
	return *abi.ConvertType(v, new(RawCommunity)).(*RawCommunity), nil
}

func (f *Forum) CommunityPosts(ctx context.Context, id uint32) ([]RawPost, error) {
	v, err := f.call(ctx, "getCommunityPosts", id)
	if err != nil {
		return nil, err
	}
	return decodePosts(v), nil
}

// ActivePosts returns every active post across communities.
func (f *Forum) ActivePosts(ctx context.Context) ([]RawPost, error) {
	v, err := f.call(ctx, "getActivePosts")
	if err != nil {
		return nil, err
	}
	return decodePosts(v), nil
}

func (f *Forum) Comments(ctx context.Context, postID uint32) ([]RawComment, error) {
	v, err := f.call(ctx, "getComments", postID)
	if err != nil {
		return nil, err
	}
	return decodeComments(v), nil
}

func (f *Forum) IsMember(ctx context.Context, id uint32, account common.Address) (bool, error) {
	v, err := f.call(ctx, "isMember", id, account)
	if err != nil {
		return false, err
	}
	return *abi.ConvertType(v, new(bool)).(*bool), nil
}

func (f *Forum) MemberCount(ctx context.Context, id uint32) (uint32, error) {
	v, err := f.call(ctx, "getCommunityMemberCount", id)
	if err != nil {
		return 0, err
	}
	return *abi.ConvertType(v, new(uint32)).(*uint32), nil
}

func (f *Forum) CommunityTopics(ctx context.Context, id uint32) ([]string, error) {
	v, err := f.call(ctx, "getCommunityTopics", id)
	if err != nil {
		return nil, err
	}
	return *abi.ConvertType(v, new([]string)).(*[]string), nil
}

func (f *Forum) IsTopicValid(ctx context.Context, id uint32, topic string) (bool, error) {
	v, err := f.call(ctx, "isCommunityTopicValid", id, topic)
	if err != nil {
		return false, err
	}
	return *abi.ConvertType(v, new(bool)).(*bool), nil
}

// Simulate dry-runs call from the given account through gas estimation.
// A revert surfaces as the returned error; see RevertReason.
func (f *Forum) Simulate(ctx context.Context, from common.Address, call Call) (uint64, error) {
	data, err := f.abi.Pack(call.Method, call.Args...)
	if err != nil {
		return 0, fmt.Errorf("pack %s: %w", call.Method, err)
	}
	to := f.address
	gas, err := f.backend.EstimateGas(ctx, ethereum.CallMsg{From: from, To: &to, Data: data})
	if err != nil {
		return 0, fmt.Errorf("simulate %s: %w", call.Method, err)
	}
	return gas, nil
}

// Submit signs and sends call.
func (f *Forum) Submit(opts *bind.TransactOpts, call Call) (*types.Transaction, error) {
	tx, err := f.contract.Transact(opts, call.Method, call.Args...)
	if err != nil {
		return nil, fmt.Errorf("submit %s: %w", call.Method, err)
	}
	return tx, nil
}

// WaitConfirmed blocks until tx is included in a block or ctx is done.
func (f *Forum) WaitConfirmed(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
	receipt, err := bind.WaitMined(ctx, f.backend, tx)
	if err != nil {
		return nil, fmt.Errorf("wait %s: %w", tx.Hash().Hex(), err)
	}
	return receipt, nil
}

// RevertReason extracts the decoded revert string from an RPC error when the
// node supplied revert data, falling back to the error text.
func RevertReason(err error) string {
	if err == nil {
		return ""
	}
	var dataErr rpc.DataError
	if errors.As(err, &dataErr) {
		if hexData, ok := dataErr.ErrorData().(string); ok {
			if raw, decodeErr := hexutil.Decode(hexData); decodeErr == nil {
				if reason, unpackErr := abi.UnpackRevert(raw); unpackErr == nil {
					return reason
				}
			}
		}
	}
	return err.Error()
}

// IsRevert reports whether err is the node rejecting a call during
// execution rather than a transport or signing failure.
func IsRevert(err error) bool {
	if err == nil {
		return false
	}
	var dataErr rpc.DataError
	if errors.As(err, &dataErr) && dataErr.ErrorData() != nil {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "execution reverted")
}

// Unix converts a contract timestamp to seconds, clamping values that do not fit.
func Unix(ts *big.Int) int64 {
	if ts == nil || ts.Sign() < 0 {
		return 0
	}
	if !ts.IsInt64() {
		return 1<<63 - 1
	}
	return ts.Int64()
}

func decodeCommunities(v interface{}) []RawCommunity {
	return *abi.ConvertType(v, new([]RawCommunity)).(*[]RawCommunity)
}

func decodePosts(v interface{}) []RawPost {
	return *abi.ConvertType(v, new([]RawPost)).(*[]RawPost)
}

func decodeComments(v interface{}) []RawComment {
	return *abi.ConvertType(v, new([]RawComment)).(*[]RawComment)
}
