package eip7683

import (
	"testing"

	"github.com/oif-labs/intentsolver/internal/types"
)

func TestFactory_ParseRoundTripsOrderFields(t *testing.T) {
	env := sampleEnvelope()
	raw := EncodeOnchain(env)

	f := NewFactory()
	if err := f.ValidateFormat(raw); err != nil {
		t.Fatalf("ValidateFormat: %v", err)
	}
	order, err := f.Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if order.OrderID != env.OrderID {
		t.Errorf("OrderID mismatch: got %x, want %x", order.OrderID, env.OrderID)
	}
	if order.Standard != types.StandardEIP7683 {
		t.Errorf("Standard = %v", order.Standard)
	}
	if order.OriginChain != types.ChainID(env.OriginChainID) {
		t.Errorf("OriginChain = %v, want %v", order.OriginChain, env.OriginChainID)
	}
	if len(order.Outputs) != 1 || len(order.Inputs) != 1 {
		t.Fatalf("expected single input/output, got in=%d out=%d", len(order.Inputs), len(order.Outputs))
	}
}

func TestFactory_ValidateFormatRejectsWrongMarker(t *testing.T) {
	raw := EncodeOnchain(sampleEnvelope())
	raw[0] = MarkerGasless
	f := NewFactory()
	if err := f.ValidateFormat(raw); err != ErrWrongMarker {
		t.Fatalf("err = %v, want ErrWrongMarker", err)
	}
}

func TestFactory_GenerateFillTransactionUsesDestinationOutput(t *testing.T) {
	env := sampleEnvelope()
	raw := EncodeOnchain(env)
	f := NewFactory()
	order, err := f.Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	tx, err := f.GenerateFillTransaction(order, types.ExecutionParams{GasPrice: 7})
	if err != nil {
		t.Fatalf("GenerateFillTransaction: %v", err)
	}
	if tx.ChainID != order.Outputs[0].ChainID {
		t.Errorf("tx.ChainID = %v, want %v", tx.ChainID, order.Outputs[0].ChainID)
	}
	if tx.To != order.Outputs[0].Recipient {
		t.Errorf("tx.To = %v, want %v", tx.To, order.Outputs[0].Recipient)
	}
	if tx.GasPrice != 7 {
		t.Errorf("tx.GasPrice = %d, want 7", tx.GasPrice)
	}
}

func TestFactory_GenerateClaimTransactionCarriesProof(t *testing.T) {
	env := sampleEnvelope()
	raw := EncodeOnchain(env)
	f := NewFactory()
	order, err := f.Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	proof := &types.FillProof{AttestationBytes: []byte("proof-bytes")}
	tx, err := f.GenerateClaimTransaction(order, proof)
	if err != nil {
		t.Fatalf("GenerateClaimTransaction: %v", err)
	}
	if tx.ChainID != order.OriginChain {
		t.Errorf("tx.ChainID = %v, want origin chain %v", tx.ChainID, order.OriginChain)
	}
	if tx.To != order.User {
		t.Errorf("tx.To = %v, want order.User %v", tx.To, order.User)
	}
}

func TestFactory_EventSignaturesNonEmpty(t *testing.T) {
	f := NewFactory()
	sigs := f.EventSignatures()
	if len(sigs) != 1 {
		t.Fatalf("expected exactly one event signature, got %d", len(sigs))
	}
}
