package forum

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/nodespeak/nodespeak/chain"
	"github.com/nodespeak/nodespeak/content"
	"github.com/nodespeak/nodespeak/events"
	"github.com/nodespeak/nodespeak/models"
	"github.com/nodespeak/nodespeak/wallet"
)

var (
	alice = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	bob   = common.HexToAddress("0x00000000000000000000000000000000000000bb")
)

type fakeContract struct {
	mu          sync.Mutex
	communities []chain.RawCommunity
	posts       map[uint32][]chain.RawPost
	comments    map[uint32][]chain.RawComment
	members     map[uint32]map[common.Address]bool

	simulateErr   error
	submitErr     error
	receiptStatus uint64
	memberErr     error

	// waiting is signalled when WaitConfirmed starts; gate blocks it until closed.
	waiting chan struct{}
	gate    chan struct{}
	// listGate blocks ActiveCommunities until closed.
	listGate chan struct{}

	submitted []chain.Call
	simulated []chain.Call
	reads     map[string]int
	nonce     uint64
}

func newFakeContract() *fakeContract {
	return &fakeContract{
		posts:         map[uint32][]chain.RawPost{},
		comments:      map[uint32][]chain.RawComment{},
		members:       map[uint32]map[common.Address]bool{},
		receiptStatus: types.ReceiptStatusSuccessful,
		reads:         map[string]int{},
	}
}

func (f *fakeContract) addCommunity(id uint32, creator common.Address, cid string, topics ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.communities = append(f.communities, chain.RawCommunity{Id: id, Creator: creator, ContentCID: cid, Topics: topics, IsActive: true})
	f.setMemberLocked(id, creator, true)
}

func (f *fakeContract) setMember(id uint32, account common.Address, member bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.setMemberLocked(id, account, member)
}

func (f *fakeContract) setMemberLocked(id uint32, account common.Address, member bool) {
	if f.members[id] == nil {
		f.members[id] = map[common.Address]bool{}
	}
	f.members[id][account] = member
}

func (f *fakeContract) read(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reads[name]
}

func (f *fakeContract) submittedCalls() []chain.Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]chain.Call(nil), f.submitted...)
}

func (f *fakeContract) ActiveCommunities(ctx context.Context) ([]chain.RawCommunity, error) {
	f.mu.Lock()
	f.reads["communities"]++
	gate := f.listGate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]chain.RawCommunity, len(f.communities))
	copy(out, f.communities)
	return out, nil
}

func (f *fakeContract) Community(ctx context.Context, id uint32) (chain.RawCommunity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads["community"]++
	for _, c := range f.communities {
		if c.Id == id {
			return c, nil
		}
	}
	return chain.RawCommunity{}, nil
}

func (f *fakeContract) CommunityPosts(ctx context.Context, id uint32) ([]chain.RawPost, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads["posts"]++
	return append([]chain.RawPost(nil), f.posts[id]...), nil
}

func (f *fakeContract) ActivePosts(ctx context.Context) ([]chain.RawPost, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads["feed"]++
	var out []chain.RawPost
	for _, ps := range f.posts {
		out = append(out, ps...)
	}
	return out, nil
}

func (f *fakeContract) Comments(ctx context.Context, postID uint32) ([]chain.RawComment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads["comments"]++
	return append([]chain.RawComment(nil), f.comments[postID]...), nil
}

func (f *fakeContract) IsMember(ctx context.Context, id uint32, account common.Address) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads["isMember"]++
	if f.memberErr != nil {
		return false, f.memberErr
	}
	return f.members[id][account], nil
}

func (f *fakeContract) MemberCount(ctx context.Context, id uint32) (uint32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := uint32(0)
	for _, m := range f.members[id] {
		if m {
			n++
		}
	}
	return n, nil
}

func (f *fakeContract) CommunityTopics(ctx context.Context, id uint32) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.communities {
		if c.Id == id {
			return append([]string(nil), c.Topics...), nil
		}
	}
	return nil, fmt.Errorf("community %d not found", id)
}

func (f *fakeContract) IsTopicValid(ctx context.Context, id uint32, topic string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads["topicValid"]++
	for _, c := range f.communities {
		if c.Id == id {
			for _, t := range c.Topics {
				if t == topic {
					return true, nil
				}
			}
		}
	}
	return false, nil
}

func (f *fakeContract) Simulate(ctx context.Context, from common.Address, call chain.Call) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.simulated = append(f.simulated, call)
	if f.simulateErr != nil {
		return 0, f.simulateErr
	}
	return 50000, nil
}

func (f *fakeContract) Submit(opts *bind.TransactOpts, call chain.Call) (*types.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	f.submitted = append(f.submitted, call)
	f.nonce++
	switch call.Method {
	case chain.MethodJoinCommunity:
		f.setMemberLocked(call.Args[0].(uint32), opts.From, true)
	case chain.MethodLeaveCommunity:
		f.setMemberLocked(call.Args[0].(uint32), opts.From, false)
	case chain.MethodAddTopic:
		id, topic := call.Args[0].(uint32), call.Args[1].(string)
		for i := range f.communities {
			if f.communities[i].Id == id {
				f.communities[i].Topics = append(f.communities[i].Topics, topic)
			}
		}
	}
	return types.NewTransaction(f.nonce, common.Address{}, big.NewInt(0), 21000, big.NewInt(1), nil), nil
}

func (f *fakeContract) WaitConfirmed(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
	f.mu.Lock()
	waiting, gate, status := f.waiting, f.gate, f.receiptStatus
	f.mu.Unlock()
	if waiting != nil {
		waiting <- struct{}{}
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return &types.Receipt{Status: status, BlockNumber: big.NewInt(100), GasUsed: 42000, TxHash: tx.Hash()}, nil
}

type fakeSigner struct {
	mu        sync.Mutex
	account   common.Address
	connected bool
}

func (s *fakeSigner) Account() (common.Address, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.connected {
		return common.Address{}, wallet.ErrWalletNotConnected
	}
	return s.account, nil
}

func (s *fakeSigner) TransactOpts(ctx context.Context) (*bind.TransactOpts, error) {
	account, err := s.Account()
	if err != nil {
		return nil, err
	}
	return &bind.TransactOpts{From: account, Context: ctx}, nil
}

type fakeContent struct {
	mu    sync.Mutex
	blobs map[string]string
}

func newFakeContent() *fakeContent { return &fakeContent{blobs: map[string]string{}} }

func (c *fakeContent) put(cid, body string) {
	c.mu.Lock()
	c.blobs[cid] = body
	c.mu.Unlock()
}

func (c *fakeContent) ResolveText(ctx context.Context, cid string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	body, ok := c.blobs[cid]
	if !ok {
		return "", fmt.Errorf("%w: %s", content.ErrContentUnavailable, cid)
	}
	return body, nil
}

func (c *fakeContent) ResolveJSON(ctx context.Context, cid string, v interface{}) error {
	body, err := c.ResolveText(ctx, cid)
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(body), v)
}

func (c *fakeContent) ImageURL(cid string) string {
	if cid == "" {
		return ""
	}
	return "https://img.example/ipfs/" + cid
}

type fakePinner struct {
	mu   sync.Mutex
	pins []string
}

func (p *fakePinner) PinFile(ctx context.Context, name, kind string, r io.Reader) (string, error) {
	if _, err := io.ReadAll(r); err != nil {
		return "", err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pins = append(p.pins, name)
	return fmt.Sprintf("QmPin%d", len(p.pins)), nil
}

func (p *fakePinner) PinText(ctx context.Context, name, text string) (string, error) {
	return p.PinFile(ctx, name, models.PinText, strings.NewReader(text))
}

func (p *fakePinner) PinJSON(ctx context.Context, name string, v interface{}) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return p.PinFile(ctx, name, models.PinJSON, strings.NewReader(string(data)))
}

func (p *fakePinner) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pins)
}

type recordingJournal struct {
	mu       sync.Mutex
	statuses map[string]string
}

func (j *recordingJournal) Record(_ context.Context, rec *models.TxRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.statuses == nil {
		j.statuses = map[string]string{}
	}
	j.statuses[rec.TxHash] = rec.Status
	return nil
}

func (j *recordingJournal) Update(_ context.Context, txHash, status string, _ uint64, _ string) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if _, ok := j.statuses[txHash]; !ok {
		return errors.New("unknown tx")
	}
	j.statuses[txHash] = status
	return nil
}

func (j *recordingJournal) Recent(context.Context, int) ([]models.TxRecord, error) { return nil, nil }

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, ev events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

type harness struct {
	contract  *fakeContract
	content   *fakeContent
	pinner    *fakePinner
	signer    *fakeSigner
	journal   *recordingJournal
	publisher *recordingPublisher
	svc       *Service
}

func newHarness(opts Options) *harness {
	h := &harness{
		contract:  newFakeContract(),
		content:   newFakeContent(),
		pinner:    &fakePinner{},
		signer:    &fakeSigner{account: alice, connected: true},
		journal:   &recordingJournal{},
		publisher: &recordingPublisher{},
	}
	h.svc = NewService(Deps{
		Contract:  h.contract,
		Content:   h.content,
		Pinner:    h.pinner,
		Signer:    h.signer,
		Journal:   h.journal,
		Publisher: h.publisher,
	}, opts, nil)
	return h
}

func meta(name, description string) string {
	data, _ := json.Marshal(models.CommunityMetadata{Name: name, Description: description})
	return string(data)
}
