package wallet

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// AccountEvent is sent to subscribers when the active account changes.
// Account is empty after a disconnect.
type AccountEvent struct {
	Account string `json:"account"`
}

// Status describes the wallet for the status endpoint.
type Status struct {
	Available bool   `json:"available"`
	Connected bool   `json:"connected"`
	Provider  string `json:"provider,omitempty"`
	Account   string `json:"account,omitempty"`
	ChainID   int64  `json:"chain_id"`
}

// Wallet tracks the connected account of a provider.
type Wallet struct {
	mu        sync.RWMutex
	provider  Provider
	chainID   *big.Int
	account   common.Address
	connected bool

	subsMu  sync.Mutex
	subs    map[int]chan AccountEvent
	nextSub int

	log *zap.Logger
}

// New wraps provider; a nil provider yields a wallet that reports unavailable.
func New(provider Provider, chainID int64, log *zap.Logger) *Wallet {
	if log == nil {
		log = zap.NewNop()
	}
	return &Wallet{
		provider: provider,
		chainID:  big.NewInt(chainID),
		subs:     make(map[int]chan AccountEvent),
		log:      log,
	}
}

// Available reports whether a provider with at least one account exists.
func (w *Wallet) Available() bool {
	return w.provider != nil && len(w.provider.Accounts()) > 0
}

// Connect activates the provider's first account.
func (w *Wallet) Connect(ctx context.Context) (common.Address, error) {
	if !w.Available() {
		return common.Address{}, ErrWalletUnavailable
	}
	account := w.provider.Accounts()[0]

	w.mu.Lock()
	changed := !w.connected || w.account != account
	w.account = account
	w.connected = true
	w.mu.Unlock()

	if changed {
		w.log.Info("wallet connected", zap.String("provider", w.provider.Name()), zap.String("account", account.Hex()))
		w.notify(AccountEvent{Account: account.Hex()})
	}
	return account, nil
}

// Disconnect forgets the active account.
func (w *Wallet) Disconnect() {
	w.mu.Lock()
	was := w.connected
	w.connected = false
	w.account = common.Address{}
	w.mu.Unlock()

	if was {
		w.log.Info("wallet disconnected")
		w.notify(AccountEvent{})
	}
}

// Account returns the active account.
func (w *Wallet) Account() (common.Address, error) {
	if w.provider == nil {
		return common.Address{}, ErrWalletUnavailable
	}
	w.mu.RLock()
	defer w.mu.RUnlock()
	if !w.connected {
		return common.Address{}, ErrWalletNotConnected
	}
	return w.account, nil
}

// SwitchAccount makes another provider account active.
func (w *Wallet) SwitchAccount(hexAddr string) error {
	if w.provider == nil {
		return ErrWalletUnavailable
	}
	if !common.IsHexAddress(hexAddr) {
		return fmt.Errorf("%w: %q", ErrUnknownAccount, hexAddr)
	}
	target := common.HexToAddress(hexAddr)
	found := false
	for _, a := range w.provider.Accounts() {
		if a == target {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("%w: %s", ErrUnknownAccount, target.Hex())
	}

	w.mu.Lock()
	changed := !w.connected || w.account != target
	w.account = target
	w.connected = true
	w.mu.Unlock()

	if changed {
		w.log.Info("wallet account switched", zap.String("account", target.Hex()))
		w.notify(AccountEvent{Account: target.Hex()})
	}
	return nil
}

// TransactOpts returns signing options for the active account bound to ctx.
func (w *Wallet) TransactOpts(ctx context.Context) (*bind.TransactOpts, error) {
	account, err := w.Account()
	if err != nil {
		return nil, err
	}
	opts, err := w.provider.Transactor(account, w.chainID)
	if err != nil {
		return nil, err
	}
	opts.Context = ctx
	return opts, nil
}

// Subscribe returns a channel of account changes and a cancel func.
// Slow subscribers miss events rather than block the wallet.
func (w *Wallet) Subscribe() (<-chan AccountEvent, func()) {
	ch := make(chan AccountEvent, 4)
	w.subsMu.Lock()
	id := w.nextSub
	w.nextSub++
	w.subs[id] = ch
	w.subsMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			w.subsMu.Lock()
			delete(w.subs, id)
			w.subsMu.Unlock()
			close(ch)
		})
	}
}

func (w *Wallet) notify(ev AccountEvent) {
	w.subsMu.Lock()
	defer w.subsMu.Unlock()
	for id, ch := range w.subs {
		select {
		case ch <- ev:
		default:
			w.log.Warn("account event dropped", zap.Int("subscriber", id))
		}
	}
}

// Status snapshots the wallet state.
func (w *Wallet) Status() Status {
	st := Status{Available: w.Available(), ChainID: w.chainID.Int64()}
	if w.provider != nil {
		st.Provider = w.provider.Name()
	}
	w.mu.RLock()
	defer w.mu.RUnlock()
	st.Connected = w.connected
	if w.connected {
		st.Account = w.account.Hex()
	}
	return st
}
