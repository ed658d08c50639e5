// Package gasless7683 implements the EIP-7683 gasless (off-chain,
// EIP-712-signed) order variant: discriminator 0x01, no on-chain event
// signature (it is only ever produced by the off-chain discovery source),
// and an order_id that is always the EIP-712 hash since there is no
// trusted on-chain record to defer to.
package gasless7683

import (
	"encoding/binary"
	"errors"
	"time"

	"github.com/oif-labs/intentsolver/internal/orderregistry"
	"github.com/oif-labs/intentsolver/internal/orderregistry/eip7683"
	"github.com/oif-labs/intentsolver/internal/types"
)

// minLength is marker(1) | user(20) | nonce(32,BE) | origin_chain_id(32,BE)
// | open_deadline(4,BE) | fill_deadline(4,BE) | order_data_type(32) |
// order_data_len(4,BE), before the variable-length order_data.
const minLength = 1 + 20 + 32 + 32 + 4 + 4 + 32 + 4

var (
	ErrTooShort    = errors.New("gasless7683: input shorter than minimum envelope")
	ErrWrongMarker = errors.New("gasless7683: marker byte is not the gasless discriminator")
	ErrLenMismatch = errors.New("gasless7683: declared order_data_len does not match remaining bytes")
)

type envelope struct {
	user          [20]byte
	nonce         uint64
	originChainID uint64
	openDeadline  uint32
	fillDeadline  uint32
	orderDataType [32]byte
	orderData     []byte
}

func decode(raw []byte) (*envelope, error) {
	if len(raw) < minLength {
		return nil, ErrTooShort
	}
	if raw[0] != eip7683.MarkerGasless {
		return nil, ErrWrongMarker
	}
	off := 1
	var e envelope
	copy(e.user[:], raw[off:off+20])
	off += 20
	e.nonce = binary.BigEndian.Uint64(raw[off+24 : off+32])
	off += 32
	e.originChainID = binary.BigEndian.Uint64(raw[off+24 : off+32])
	off += 32
	e.openDeadline = binary.BigEndian.Uint32(raw[off : off+4])
	off += 4
	e.fillDeadline = binary.BigEndian.Uint32(raw[off : off+4])
	off += 4
	copy(e.orderDataType[:], raw[off:off+32])
	off += 32
	dataLen := binary.BigEndian.Uint32(raw[off : off+4])
	off += 4
	if uint32(len(raw)-off) != dataLen {
		return nil, ErrLenMismatch
	}
	e.orderData = append([]byte(nil), raw[off:]...)
	return &e, nil
}

// Factory implements orderregistry.Factory for the gasless EIP-7683
// variant.
type Factory struct {
	verifyingContract [20]byte
}

// NewFactory returns the gasless factory, hashed against verifyingContract
// (the settler contract address used in the EIP-712 domain separator).
func NewFactory(verifyingContract [20]byte) *Factory {
	return &Factory{verifyingContract: verifyingContract}
}

var _ orderregistry.Factory = (*Factory)(nil)

func (f *Factory) Standard() types.OrderStandard { return types.StandardEIP7683Gasless }

// EventSignatures is empty: gasless orders are signed off-chain and have
// no on-chain event to filter for.
func (f *Factory) EventSignatures() [][32]byte { return nil }

func (f *Factory) ValidateFormat(raw []byte) error {
	if len(raw) < minLength {
		return ErrTooShort
	}
	if raw[0] != eip7683.MarkerGasless {
		return ErrWrongMarker
	}
	return nil
}

func (f *Factory) Parse(raw []byte) (*types.Order, error) {
	env, err := decode(raw)
	if err != nil {
		return nil, err
	}
	inner, err := eip7683.DecodeInner(env.orderData)
	if err != nil {
		return nil, err
	}

	domain := eip7683.DomainSeparator(env.originChainID, f.verifyingContract)
	structHash := eip7683.StructHash(env.user, env.nonce, env.originChainID, env.openDeadline, env.fillDeadline, env.orderDataType, env.orderData)
	orderID := eip7683.OrderID(domain, structHash)

	order := &types.Order{
		OrderID:           orderID,
		Standard:          types.StandardEIP7683Gasless,
		OriginChain:       types.ChainID(env.originChainID),
		DestinationChains: []types.ChainID{types.ChainID(inner.DestChainID)},
		CreatedAt:         time.Now().UTC(),
		ExpiresAt:         time.Unix(int64(env.fillDeadline), 0).UTC(),
		User:              addrToAddress(env.user),
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
	env, err := decode(order.RawPayload)
	if err != nil {
		return nil, err
	}
	return []types.FillInstruction{{
		DestinationChain:    order.Outputs[0].ChainID,
		DestinationContract: order.Outputs[0].Recipient,
		FillData:            env.orderData,
	}}, nil
}

func (f *Factory) GenerateFillTransaction(order *types.Order, params types.ExecutionParams) (*types.Transaction, error) {
	out := order.Outputs[0]
	data := make([]byte, 0, 32+8)
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
