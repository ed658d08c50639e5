// Package evm implements delivery.Provider and account.NonceSource over an
// EVM RPC endpoint via go-ethereum's ethclient, grounded on the teacher's
// chain-client and confirmation-tracker patterns.
package evm

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"golang.org/x/time/rate"

	"github.com/oif-labs/intentsolver/internal/account"
	"github.com/oif-labs/intentsolver/internal/delivery"
	"github.com/oif-labs/intentsolver/internal/solvererr"
	"github.com/oif-labs/intentsolver/internal/types"
)

const defaultPollInterval = 3 * time.Second

// Provider is a delivery.Provider backed by a single EVM RPC endpoint.
type Provider struct {
	name    string
	client  *ethclient.Client
	chainID uint64
	account account.Service
	nonces  *account.Tracker
	limiter *rate.Limiter
}

// NewProvider dials rpcURL and returns a Provider named name for chainID,
// signing through acct and rate-limited to ratePerSecond outbound calls
// (0 disables limiting).
func NewProvider(name, rpcURL string, chainID uint64, acct account.Service, ratePerSecond float64) (*Provider, error) {
	client, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, solvererr.Configuration(fmt.Errorf("evm provider %s: dial %s: %w", name, rpcURL, err))
	}
	p := &Provider{name: name, client: client, chainID: chainID, account: acct}
	p.nonces = account.NewTracker(p)
	if ratePerSecond > 0 {
		p.limiter = rate.NewLimiter(rate.Limit(ratePerSecond), 1)
	}
	return p, nil
}

func (p *Provider) Name() string { return p.name }

// PendingNonceAt implements account.NonceSource.
func (p *Provider) PendingNonceAt(ctx context.Context, chainID uint64, address string) (uint64, error) {
	if chainID != p.chainID {
		return 0, fmt.Errorf("evm provider %s: chain mismatch %d != %d", p.name, chainID, p.chainID)
	}
	return p.client.PendingNonceAt(ctx, common.HexToAddress(address))
}

func (p *Provider) wait() error {
	if p.limiter == nil {
		return nil
	}
	return p.limiter.Wait(context.Background())
}

// Submit signs and sends tx, reserving (and, on retry, reusing) a nonce
// keyed by reservationKey.
func (p *Provider) Submit(ctx context.Context, tx *types.Transaction, reservationKey string) (string, error) {
	if err := p.wait(); err != nil {
		return "", err
	}

	addr, err := p.account.Address(p.chainID)
	if err != nil {
		return "", solvererr.Configuration(err)
	}
	nonce, err := p.nonces.Reserve(ctx, p.chainID, addr.Hex(), reservationKey)
	if err != nil {
		return "", classifyNetErr(err)
	}

	opts, err := p.account.Transactor(p.chainID)
	if err != nil {
		return "", solvererr.Configuration(err)
	}

	gasPrice := new(big.Int).SetUint64(tx.GasPrice)
	if tx.GasPrice == 0 {
		gasPrice, err = p.client.SuggestGasPrice(ctx)
		if err != nil {
			return "", classifyNetErr(err)
		}
	}

	gasLimit := tx.GasLimit
	if gasLimit == 0 {
		gasLimit = 200_000
	}

	legacyTx := gethtypes.NewTx(&gethtypes.LegacyTx{
		Nonce:    nonce,
		To:       addrPtr(tx.To),
		Value:    new(big.Int).SetUint64(tx.Value),
		Gas:      gasLimit,
		GasPrice: gasPrice,
		Data:     tx.Data,
	})

	signed, err := opts.Signer(opts.From, legacyTx)
	if err != nil {
		return "", solvererr.Configuration(fmt.Errorf("sign: %w", err))
	}

	if err := p.client.SendTransaction(ctx, signed); err != nil {
		return "", classifyNetErr(err)
	}
	return signed.Hash().Hex(), nil
}

func addrPtr(a types.Address) *common.Address {
	if a == "" {
		return nil
	}
	addr := common.HexToAddress(string(a))
	return &addr
}

// classifyNetErr wraps every non-nil error as Transient, so the delivery
// Service retries it on the same provider before failing over. It does not
// tell network failures apart from other RPC errors (such as a rejected
// transaction); those are retried as well.
func classifyNetErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, ethereum.NotFound) {
		return solvererr.Transient(err)
	}
	return solvererr.Transient(err) // conservative default: RPC-layer errors retried
}

// WaitForConfirmation polls for a mined receipt and block height until
// current - receipt.block + 1 >= confirmations or ctx is done.
func (p *Provider) WaitForConfirmation(ctx context.Context, txHash string, confirmations int) (*types.Receipt, error) {
	hash := common.HexToHash(txHash)
	ticker := time.NewTicker(defaultPollInterval)
	defer ticker.Stop()

	for {
		receipt, err := p.client.TransactionReceipt(ctx, hash)
		if err == nil {
			current, berr := p.client.BlockNumber(ctx)
			if berr == nil && current >= receipt.BlockNumber.Uint64() &&
				current-receipt.BlockNumber.Uint64()+1 >= uint64(confirmations) {
				return toReceipt(receipt), nil
			}
		} else if !errors.Is(err, ethereum.NotFound) {
			return nil, classifyNetErr(err)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// GetReceipt returns the current receipt without waiting for additional
// confirmations.
func (p *Provider) GetReceipt(ctx context.Context, txHash string) (*types.Receipt, error) {
	receipt, err := p.client.TransactionReceipt(ctx, common.HexToHash(txHash))
	if err != nil {
		if errors.Is(err, ethereum.NotFound) {
			return nil, solvererr.NotFound
		}
		return nil, classifyNetErr(err)
	}
	return toReceipt(receipt), nil
}

var _ delivery.Provider = (*Provider)(nil)

func toReceipt(r *gethtypes.Receipt) *types.Receipt {
	return &types.Receipt{
		TxHash:      r.TxHash.Hex(),
		BlockNumber: r.BlockNumber.Uint64(),
		BlockHash:   r.BlockHash.Hex(),
		Status:      r.Status == gethtypes.ReceiptStatusSuccessful,
		GasUsed:     r.GasUsed,
	}
}
