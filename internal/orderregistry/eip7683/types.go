// Package eip7683 implements the EIP-7683 on-chain order variant: the
// worked example from the order registry's design, with the exact byte
// layout and EIP-712 hashing the external interfaces section specifies.
package eip7683

import "errors"

// MarkerGasless and MarkerOnchain are the one-byte discriminators every
// raw intent begins with.
const (
	MarkerGasless byte = 0x01
	MarkerOnchain byte = 0x02
)

// MinOnchainLength is the minimum length of the marker(1) | order_id(32) |
// user(20) | origin_chain_id(32,BE) | timestamp(8,BE) | fill_deadline(4,BE)
// | order_data_type(32) | order_data_len(4,BE) envelope, before the
// variable-length order_data that follows it.
const MinOnchainLength = 1 + 32 + 20 + 32 + 8 + 4 + 32 + 4

// innerDataLength is the fixed size of this implementation's order_data
// sub-encoding: a single input and a single output, since order_data's
// internal layout is left opaque by the standard and only has to round-
// trip through this factory.
// input_token(20) | input_amount(32,BE) | output_token(20) |
// output_amount(32,BE) | recipient(20) | dest_chain_id(32,BE)
const innerDataLength = 20 + 32 + 20 + 32 + 20 + 32

var (
	ErrTooShort       = errors.New("eip7683: input shorter than minimum on-chain envelope")
	ErrWrongMarker    = errors.New("eip7683: marker byte does not match on-chain discriminator")
	ErrLengthMismatch = errors.New("eip7683: declared order_data_len does not match remaining bytes")
	ErrInnerTooShort  = errors.New("eip7683: order_data shorter than the single input/output encoding")
)

// OnchainEnvelope is the decoded fixed-layout header of an on-chain
// EIP-7683 order, before order_data is further interpreted.
type OnchainEnvelope struct {
	OrderID       [32]byte
	User          [20]byte
	OriginChainID uint64 // low 64 bits of the 32-byte big-endian field
	Timestamp     uint64
	FillDeadline  uint32
	OrderDataType [32]byte
	OrderData     []byte
}
