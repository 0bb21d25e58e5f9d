package wallet

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

func newKeyProvider(t *testing.T) *KeyProvider {
	t.Helper()
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatal(err)
	}
	p, err := NewKeyProvider(hexutil.Encode(crypto.FromECDSA(key)))
	if err != nil {
		t.Fatalf("NewKeyProvider: %v", err)
	}
	return p
}

type emptyProvider struct{ name string }

func (p emptyProvider) Name() string               { return p.name }
func (p emptyProvider) Accounts() []common.Address { return nil }
func (p emptyProvider) Transactor(common.Address, *big.Int) (*bind.TransactOpts, error) {
	return nil, ErrUnknownAccount
}

func TestSelect(t *testing.T) {
	key := newKeyProvider(t)
	other := newKeyProvider(t)

	if _, err := Select(nil, ""); !errors.Is(err, ErrWalletUnavailable) {
		t.Fatalf("err = %v, want ErrWalletUnavailable", err)
	}
	if _, err := Select([]Provider{emptyProvider{name: "keystore"}}, "keystore"); !errors.Is(err, ErrWalletUnavailable) {
		t.Fatalf("provider without accounts must not be selected, err = %v", err)
	}

	got, err := Select([]Provider{emptyProvider{name: "keystore"}, key}, "keystore")
	if err != nil || got != Provider(key) {
		t.Fatalf("fallback = %v, %v", got, err)
	}

	named := &renamed{KeyProvider: other, name: "keystore"}
	got, err = Select([]Provider{key, named}, "keystore")
	if err != nil || got != Provider(named) {
		t.Fatalf("preferred = %v, %v", got, err)
	}
}

type renamed struct {
	*KeyProvider
	name string
}

func (r *renamed) Name() string { return r.name }

func TestConnectLifecycle(t *testing.T) {
	p := newKeyProvider(t)
	w := New(p, 1337, nil)

	if _, err := w.Account(); !errors.Is(err, ErrWalletNotConnected) {
		t.Fatalf("Account before connect err = %v", err)
	}

	events, cancel := w.Subscribe()
	defer cancel()

	addr, err := w.Connect(context.Background())
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if ev := <-events; ev.Account != addr.Hex() {
		t.Errorf("event = %+v, want %s", ev, addr.Hex())
	}

	opts, err := w.TransactOpts(context.Background())
	if err != nil {
		t.Fatalf("TransactOpts: %v", err)
	}
	if opts.From != addr || opts.Context == nil {
		t.Errorf("opts From=%s ctx=%v", opts.From.Hex(), opts.Context)
	}

	w.Disconnect()
	if ev := <-events; ev.Account != "" {
		t.Errorf("disconnect event = %+v", ev)
	}
	if st := w.Status(); st.Connected || !st.Available || st.ChainID != 1337 {
		t.Errorf("status = %+v", st)
	}
}

func TestWalletWithoutProvider(t *testing.T) {
	w := New(nil, 1, nil)
	if _, err := w.Connect(context.Background()); !errors.Is(err, ErrWalletUnavailable) {
		t.Fatalf("Connect err = %v", err)
	}
	if _, err := w.Account(); !errors.Is(err, ErrWalletUnavailable) {
		t.Fatalf("Account err = %v", err)
	}
	if st := w.Status(); st.Available || st.Connected {
		t.Errorf("status = %+v", st)
	}
}

func TestSwitchAccountRejectsUnknown(t *testing.T) {
	w := New(newKeyProvider(t), 1, nil)
	stranger := newKeyProvider(t).Accounts()[0]
	if err := w.SwitchAccount(stranger.Hex()); !errors.Is(err, ErrUnknownAccount) {
		t.Fatalf("err = %v, want ErrUnknownAccount", err)
	}
	if err := w.SwitchAccount("nope"); !errors.Is(err, ErrUnknownAccount) {
		t.Fatalf("err = %v, want ErrUnknownAccount", err)
	}
}

func TestKeystoreProvider(t *testing.T) {
	dir := t.TempDir()
	ks := keystore.NewKeyStore(dir, keystore.LightScryptN, keystore.LightScryptP)
	first, err := ks.NewAccount("pw")
	if err != nil {
		t.Fatal(err)
	}
	second, err := ks.NewAccount("pw")
	if err != nil {
		t.Fatal(err)
	}

	p := NewKeystoreProvider(dir, second.Address.Hex(), "pw")
	accs := p.Accounts()
	if len(accs) != 2 || accs[0] != second.Address {
		t.Fatalf("accounts = %v, want %s first", accs, second.Address.Hex())
	}

	opts, err := p.Transactor(first.Address, big.NewInt(1))
	if err != nil {
		t.Fatalf("Transactor: %v", err)
	}
	if opts.From != first.Address {
		t.Errorf("From = %s", opts.From.Hex())
	}

	bad := NewKeystoreProvider(dir, "", "wrong")
	if _, err := bad.Transactor(first.Address, big.NewInt(1)); err == nil {
		t.Error("wrong password should fail to unlock")
	}
}
