// Package oracleattest implements a settlement.Strategy that polls an
// HTTP attestation endpoint for fill proofs, modeled after the teacher's
// attestation-collector shape but simplified to the single-proof contract
// the orchestrator needs.
package oracleattest

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/oif-labs/intentsolver/internal/orderregistry"
	"github.com/oif-labs/intentsolver/internal/solvererr"
	"github.com/oif-labs/intentsolver/internal/types"
)

// factoryLookup is the slice of the order registry this strategy needs:
// resolving the claim transaction for a given standard.
type factoryLookup interface {
	FactoryFor(std types.OrderStandard) (orderregistry.Factory, bool)
}

// attestationResponse is the JSON shape expected back from the endpoint.
type attestationResponse struct {
	Attested         bool   `json:"attested"`
	FillBlock        uint64 `json:"fill_block"`
	AttestationBytes string `json:"attestation_bytes"` // base64, optional
}

// Strategy polls endpointURL+"?order_id=...&fill_tx=..." for an
// attestation, and builds claim transactions via the order's own factory.
type Strategy struct {
	endpointURL        string
	httpClient         *http.Client
	estimatedSeconds    int64
	registry           factoryLookup
}

// New builds a Strategy polling endpointURL, resolving claim transactions
// through registry, with estimateSeconds as the fixed attestation-time
// estimate reported to the sweeper.
func New(endpointURL string, registry factoryLookup, estimateSeconds int64) *Strategy {
	return &Strategy{
		endpointURL:     endpointURL,
		httpClient:      &http.Client{Timeout: 10 * time.Second},
		estimatedSeconds: estimateSeconds,
		registry:        registry,
	}
}

func (s *Strategy) Name() string { return "oracle_attest" }

// CheckAttestation polls the configured endpoint for (order_id, fill_tx).
// A non-attested response is not an error: it simply yields (nil, nil) so
// the sweeper retries on its next pass.
func (s *Strategy) CheckAttestation(ctx context.Context, order *types.Order, record *types.SettlementRecord) (*types.FillProof, error) {
	url := fmt.Sprintf("%s?order_id=%x&fill_tx=%s", s.endpointURL, order.OrderID, record.FillTx)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, solvererr.Configuration(err)
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, solvererr.Transient(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, solvererr.Transient(fmt.Errorf("oracleattest: status %d", resp.StatusCode))
	}

	var out attestationResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, solvererr.Parse(fmt.Errorf("oracleattest: decode: %w", err))
	}
	if !out.Attested {
		return nil, nil
	}

	var attestationBytes []byte
	if out.AttestationBytes != "" {
		attestationBytes, err = base64.StdEncoding.DecodeString(out.AttestationBytes)
		if err != nil {
			return nil, solvererr.Parse(fmt.Errorf("oracleattest: bad attestation_bytes: %w", err))
		}
	}

	return &types.FillProof{
		FillTx:           record.FillTx,
		FillBlock:        out.FillBlock,
		AttestationBytes: attestationBytes,
	}, nil
}

// ClaimSettlement dispatches to the order's own factory to build the
// chain-specific claim transaction from the proof.
func (s *Strategy) ClaimSettlement(ctx context.Context, order *types.Order, proof *types.FillProof) (*types.Transaction, error) {
	f, ok := s.registry.FactoryFor(order.Standard)
	if !ok {
		return nil, solvererr.Configuration(fmt.Errorf("oracleattest: no factory registered for standard %q", order.Standard))
	}
	return f.GenerateClaimTransaction(order, proof)
}

// EstimateAttestationTime returns the strategy's fixed configured estimate.
func (s *Strategy) EstimateAttestationTime(order *types.Order) int64 {
	return s.estimatedSeconds
}

// IsClaimed reports whether record is already SettlementCompleted. It does
// not query the attestation endpoint or the origin chain, so a claim that
// is not reflected in this solver's own settlement record is not detected.
func (s *Strategy) IsClaimed(ctx context.Context, order *types.Order, record *types.SettlementRecord) (bool, error) {
	return record.Status == types.SettlementCompleted, nil
}
