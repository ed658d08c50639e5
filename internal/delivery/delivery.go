// Package delivery signs and submits transactions, waits for confirmation
// depth, and reports receipts, fanning out across an ordered list of
// providers for fail-over.
package delivery

import (
	"context"
	"errors"
	"time"

	"github.com/oif-labs/intentsolver/internal/solvererr"
	"github.com/oif-labs/intentsolver/internal/types"
)

// Provider is a single chain endpoint capable of submitting and confirming
// transactions. Signing happens inside Submit via the provider's own
// configured AccountService; the full tx+signature leaves this module as
// a single atomic call.
type Provider interface {
	Name() string
	Submit(ctx context.Context, tx *types.Transaction, reservationKey string) (txHash string, err error)
	WaitForConfirmation(ctx context.Context, txHash string, confirmations int) (*types.Receipt, error)
	GetReceipt(ctx context.Context, txHash string) (*types.Receipt, error)
}

const (
	retryBaseDelay = time.Second
	retryMaxDelay  = 30 * time.Second
	maxRetries     = 3
)

// confirmationTimeout scales with n per the spec: 20s/confirmation,
// capped at 1h.
func confirmationTimeout(n int) time.Duration {
	d := time.Duration(n) * 20 * time.Second
	if d > time.Hour {
		return time.Hour
	}
	if d <= 0 {
		d = 20 * time.Second
	}
	return d
}

// Service fans a submit/confirm request out across providers in order:
// first success wins, network-class errors advance to the next provider.
type Service struct {
	providers []Provider
}

// New builds a Service over providers, tried in the given order.
func New(providers ...Provider) *Service {
	return &Service{providers: providers}
}

// Submit tries each provider in order until one accepts the transaction.
// Transient failures are retried per-provider with exponential backoff
// (base 1s, cap 30s, <=3 attempts) before advancing to the next provider;
// reverts are not retried.
func (s *Service) Submit(ctx context.Context, tx *types.Transaction, reservationKey string) (providerName, txHash string, err error) {
	var lastErr error
	for _, p := range s.providers {
		hash, perr := submitWithRetry(ctx, p, tx, reservationKey)
		if perr == nil {
			return p.Name(), hash, nil
		}
		lastErr = perr
	}
	if lastErr == nil {
		lastErr = errors.New("delivery: no providers configured")
	}
	return "", "", lastErr
}

func submitWithRetry(ctx context.Context, p Provider, tx *types.Transaction, reservationKey string) (string, error) {
	delay := retryBaseDelay
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		hash, err := p.Submit(ctx, tx, reservationKey)
		if err == nil {
			return hash, nil
		}
		lastErr = err
		if !solvererr.IsTransient(err) {
			return "", err
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
		if delay > retryMaxDelay {
			delay = retryMaxDelay
		}
	}
	return "", lastErr
}

// WaitForConfirmation polls providerName until confirmations depth is
// reached or the scaled timeout elapses.
func (s *Service) WaitForConfirmation(ctx context.Context, providerName, txHash string, confirmations int) (*types.Receipt, error) {
	p := s.findProvider(providerName)
	if p == nil {
		return nil, errors.New("delivery: unknown provider " + providerName)
	}
	timeout := confirmationTimeout(confirmations)
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return p.WaitForConfirmation(cctx, txHash, confirmations)
}

// GetReceipt fetches the current receipt from providerName without
// waiting for additional confirmations.
func (s *Service) GetReceipt(ctx context.Context, providerName, txHash string) (*types.Receipt, error) {
	p := s.findProvider(providerName)
	if p == nil {
		return nil, errors.New("delivery: unknown provider " + providerName)
	}
	return p.GetReceipt(ctx, txHash)
}

func (s *Service) findProvider(name string) Provider {
	for _, p := range s.providers {
		if p.Name() == name {
			return p
		}
	}
	return nil
}
