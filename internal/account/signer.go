// Package account implements the concrete AccountService Delivery
// delegates signing to: a local-key signer holding ECDSA keys in memory,
// one per configured chain, producing go-ethereum keyed transactors.
package account

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Service is the AccountService contract Delivery providers use to sign
// transactions before submission: it never accepts an unsigned tx and
// hands back raw signature bytes; instead it produces transactors that
// know how to sign. Keys never leave this package.
type Service interface {
	Transactor(chainID uint64) (*bind.TransactOpts, error)
	Address(chainID uint64) (common.Address, error)
}

// LocalSigner holds one ECDSA private key per chain ID in memory. This is
// the reference AccountService implementation; a KMS/remote-signer backed
// Service is a documented extension point satisfying the same interface.
type LocalSigner struct {
	keys map[uint64]*ecdsa.PrivateKey
}

// NewLocalSigner builds a signer from a map of chainID -> hex-encoded
// private key (with or without 0x prefix).
func NewLocalSigner(keysByChain map[uint64]string) (*LocalSigner, error) {
	ls := &LocalSigner{keys: make(map[uint64]*ecdsa.PrivateKey, len(keysByChain))}
	for chainID, hexKey := range keysByChain {
		key, err := crypto.HexToECDSA(trim0x(hexKey))
		if err != nil {
			return nil, fmt.Errorf("account: invalid private key for chain %d: %w", chainID, err)
		}
		ls.keys[chainID] = key
	}
	return ls, nil
}

func trim0x(s string) string {
	if len(s) > 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return s[2:]
	}
	return s
}

// Transactor returns a *bind.TransactOpts bound to chainID, mirroring the
// teacher's CreateTransactor.
func (l *LocalSigner) Transactor(chainID uint64) (*bind.TransactOpts, error) {
	key, ok := l.keys[chainID]
	if !ok {
		return nil, fmt.Errorf("account: no key configured for chain %d", chainID)
	}
	return bind.NewKeyedTransactorWithChainID(key, new(big.Int).SetUint64(chainID))
}

// Address returns the public address corresponding to the key configured
// for chainID.
func (l *LocalSigner) Address(chainID uint64) (common.Address, error) {
	key, ok := l.keys[chainID]
	if !ok {
		return common.Address{}, fmt.Errorf("account: no key configured for chain %d", chainID)
	}
	return crypto.PubkeyToAddress(key.PublicKey), nil
}

var _ Service = (*LocalSigner)(nil)
