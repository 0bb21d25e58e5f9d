package wallet

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

var (
	ErrWalletUnavailable  = errors.New("no wallet provider available")
	ErrWalletNotConnected = errors.New("wallet not connected")
	ErrUnknownAccount     = errors.New("account not managed by provider")
)

// Provider is a source of signing accounts.
type Provider interface {
	Name() string
	Accounts() []common.Address
	Transactor(account common.Address, chainID *big.Int) (*bind.TransactOpts, error)
}

// KeyProvider signs with a single raw private key.
type KeyProvider struct {
	key     *ecdsa.PrivateKey
	address common.Address
}

// NewKeyProvider parses a hex private key, with or without 0x prefix.
func NewKeyProvider(hexKey string) (*KeyProvider, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(hexKey), "0x"))
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	return &KeyProvider{key: key, address: crypto.PubkeyToAddress(key.PublicKey)}, nil
}

func (p *KeyProvider) Name() string { return "key" }

func (p *KeyProvider) Accounts() []common.Address { return []common.Address{p.address} }

func (p *KeyProvider) Transactor(account common.Address, chainID *big.Int) (*bind.TransactOpts, error) {
	if account != p.address {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAccount, account.Hex())
	}
	return bind.NewKeyedTransactorWithChainID(p.key, chainID)
}

// KeystoreProvider signs with accounts from an encrypted keystore directory.
type KeystoreProvider struct {
	ks       *keystore.KeyStore
	password string
	primary  common.Address
}

// NewKeystoreProvider opens dir. When primary is set that account is listed first.
func NewKeystoreProvider(dir, primary, password string) *KeystoreProvider {
	p := &KeystoreProvider{
		ks:       keystore.NewKeyStore(dir, keystore.StandardScryptN, keystore.StandardScryptP),
		password: password,
	}
	if common.IsHexAddress(primary) {
		p.primary = common.HexToAddress(primary)
	}
	return p
}

func (p *KeystoreProvider) Name() string { return "keystore" }

func (p *KeystoreProvider) Accounts() []common.Address {
	accs := p.ks.Accounts()
	out := make([]common.Address, 0, len(accs))
	for _, a := range accs {
		if a.Address == p.primary {
			out = append([]common.Address{a.Address}, out...)
			continue
		}
		out = append(out, a.Address)
	}
	return out
}

func (p *KeystoreProvider) Transactor(account common.Address, chainID *big.Int) (*bind.TransactOpts, error) {
	acc := accounts.Account{Address: account}
	if !p.ks.HasAddress(account) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAccount, account.Hex())
	}
	if err := p.ks.Unlock(acc, p.password); err != nil {
		return nil, fmt.Errorf("unlock %s: %w", account.Hex(), err)
	}
	return bind.NewKeyStoreTransactorWithChainID(p.ks, acc, chainID)
}

// Select picks the provider named preferred when it has accounts, otherwise
// the first provider that has any.
func Select(providers []Provider, preferred string) (Provider, error) {
	var fallback Provider
	for _, p := range providers {
		if p == nil || len(p.Accounts()) == 0 {
			continue
		}
		if preferred != "" && p.Name() == preferred {
			return p, nil
		}
		if fallback == nil {
			fallback = p
		}
	}
	if fallback == nil {
		return nil, ErrWalletUnavailable
	}
	return fallback, nil
}
