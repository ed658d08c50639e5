package eip7683

import (
	"encoding/binary"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/oif-labs/intentsolver/internal/orderregistry"
	"github.com/oif-labs/intentsolver/internal/types"
)

// openEventSignature is the canonical event signature this factory's
// on-chain source filters for; its keccak256 is the topic0 value.
const openEventSignature = "Open(bytes32,address,uint256,uint32,uint32,bytes32,bytes)"

// Factory implements orderregistry.Factory for the EIP-7683 on-chain
// (0x02) order variant.
type Factory struct {
	eventSig [32]byte
}

// NewFactory returns the on-chain EIP-7683 factory.
func NewFactory() *Factory {
	return &Factory{eventSig: crypto.Keccak256Hash([]byte(openEventSignature)).Bytes32()}
}

var _ orderregistry.Factory = (*Factory)(nil)

func (f *Factory) Standard() types.OrderStandard { return types.StandardEIP7683 }

func (f *Factory) EventSignatures() [][32]byte { return [][32]byte{f.eventSig} }

func (f *Factory) ValidateFormat(raw []byte) error {
	if len(raw) < MinOnchainLength {
		return ErrTooShort
	}
	if raw[0] != MarkerOnchain {
		return ErrWrongMarker
	}
	return nil
}

func (f *Factory) Parse(raw []byte) (*types.Order, error) {
	env, err := DecodeOnchain(raw)
	if err != nil {
		return nil, err
	}
	inner, err := DecodeInner(env.OrderData)
	if err != nil {
		return nil, err
	}

	order := &types.Order{
		OrderID:           env.OrderID, // 0x02 trusts the on-chain-provided id
		Standard:          types.StandardEIP7683,
		OriginChain:       types.ChainID(env.OriginChainID),
		DestinationChains: []types.ChainID{types.ChainID(inner.DestChainID)},
		CreatedAt:         time.Unix(int64(env.Timestamp), 0).UTC(),
		ExpiresAt:         time.Unix(int64(env.FillDeadline), 0).UTC(),
		User:              addrToAddress(env.User),
		Inputs: []types.TokenAmount{{
			Token:  addrToAddress(inner.InputToken),
			Amount: inner.InputAmount.Uint64(),
		}},
		Outputs: []types.Output{{
			Token:     addrToAddress(inner.OutputToken),
			Amount:    inner.OutputAmount.Uint64(),
			Recipient: addrToAddress(inner.Recipient),
			ChainID:   types.ChainID(inner.DestChainID),
		}},
		RawPayload: append([]byte(nil), raw...),
	}
	return order, nil
}

func addrToAddress(a [20]byte) types.Address {
	const hexdigits = "0123456789abcdef"
	out := make([]byte, 2+40)
	out[0], out[1] = '0', 'x'
	for i, b := range a {
		out[2+i*2] = hexdigits[b>>4]
		out[2+i*2+1] = hexdigits[b&0x0f]
	}
	return types.Address(out)
}

func (f *Factory) ToFillInstructions(order *types.Order) ([]types.FillInstruction, error) {
	env, err := DecodeOnchain(order.RawPayload)
	if err != nil {
		return nil, err
	}
	return []types.FillInstruction{{
		DestinationChain:    order.Outputs[0].ChainID,
		DestinationContract: order.Outputs[0].Recipient,
		FillData:            env.OrderData,
	}}, nil
}

// GenerateFillTransaction builds the destination-chain fill call: the
// output's recipient as To, the order id followed by the 8-byte big-endian
// output amount as calldata, and the strategy's chosen gas price.
func (f *Factory) GenerateFillTransaction(order *types.Order, params types.ExecutionParams) (*types.Transaction, error) {
	out := order.Outputs[0]
	data := make([]byte, 0, 32+20+8)
	data = append(data, order.OrderID[:]...)
	amt := make([]byte, 8)
	binary.BigEndian.PutUint64(amt, out.Amount)
	data = append(data, amt...)

	return &types.Transaction{
		ChainID:  out.ChainID,
		To:       out.Recipient,
		Data:     data,
		GasPrice: params.GasPrice,
	}, nil
}

// GenerateClaimTransaction builds the origin-chain claim call, carrying
// the fill proof's attestation bytes as calldata.
func (f *Factory) GenerateClaimTransaction(order *types.Order, proof *types.FillProof) (*types.Transaction, error) {
	data := make([]byte, 0, 32+len(proof.AttestationBytes))
	data = append(data, order.OrderID[:]...)
	data = append(data, proof.AttestationBytes...)

	return &types.Transaction{
		ChainID: order.OriginChain,
		To:      order.User,
		Data:    data,
	}, nil
}
