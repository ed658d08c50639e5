package eip7683

import (
	"encoding/binary"
	"math/big"
)

// DecodeOnchain parses the exact on-chain envelope:
// marker(1) | order_id(32) | user(20) | origin_chain_id(32,BE) |
// timestamp(8,BE) | fill_deadline(4,BE) | order_data_type(32) |
// order_data_len(4,BE) | order_data(*).
func DecodeOnchain(raw []byte) (*OnchainEnvelope, error) {
	if len(raw) < MinOnchainLength {
		return nil, ErrTooShort
	}
	if raw[0] != MarkerOnchain {
		return nil, ErrWrongMarker
	}
	off := 1
	var env OnchainEnvelope
	copy(env.OrderID[:], raw[off:off+32])
	off += 32
	copy(env.User[:], raw[off:off+20])
	off += 20

	chainIDBig := new(big.Int).SetBytes(raw[off : off+32])
	env.OriginChainID = chainIDBig.Uint64()
	off += 32

	env.Timestamp = binary.BigEndian.Uint64(raw[off : off+8])
	off += 8

	env.FillDeadline = binary.BigEndian.Uint32(raw[off : off+4])
	off += 4

	copy(env.OrderDataType[:], raw[off:off+32])
	off += 32

	dataLen := binary.BigEndian.Uint32(raw[off : off+4])
	off += 4

	if uint32(len(raw)-off) != dataLen {
		return nil, ErrLengthMismatch
	}
	env.OrderData = append([]byte(nil), raw[off:]...)
	return &env, nil
}

// EncodeOnchain is the inverse of DecodeOnchain, used by tests asserting
// the bijection and by any component that needs to re-emit the envelope
// (e.g. a test harness simulating the settler contract).
func EncodeOnchain(env *OnchainEnvelope) []byte {
	out := make([]byte, 0, MinOnchainLength+len(env.OrderData))
	out = append(out, MarkerOnchain)
	out = append(out, env.OrderID[:]...)
	out = append(out, env.User[:]...)

	chainIDBytes := make([]byte, 32)
	new(big.Int).SetUint64(env.OriginChainID).FillBytes(chainIDBytes)
	out = append(out, chainIDBytes...)

	ts := make([]byte, 8)
	binary.BigEndian.PutUint64(ts, env.Timestamp)
	out = append(out, ts...)

	fd := make([]byte, 4)
	binary.BigEndian.PutUint32(fd, env.FillDeadline)
	out = append(out, fd...)

	out = append(out, env.OrderDataType[:]...)

	dl := make([]byte, 4)
	binary.BigEndian.PutUint32(dl, uint32(len(env.OrderData)))
	out = append(out, dl...)
	out = append(out, env.OrderData...)
	return out
}

// InnerData is this factory's fixed-layout order_data sub-encoding: a
// single input and single output.
type InnerData struct {
	InputToken    [20]byte
	InputAmount   *big.Int
	OutputToken   [20]byte
	OutputAmount  *big.Int
	Recipient     [20]byte
	DestChainID   uint64
}

// DecodeInner parses order_data per this factory's single-input/single-
// output layout.
func DecodeInner(data []byte) (*InnerData, error) {
	if len(data) < innerDataLength {
		return nil, ErrInnerTooShort
	}
	var in InnerData
	off := 0
	copy(in.InputToken[:], data[off:off+20])
	off += 20
	in.InputAmount = new(big.Int).SetBytes(data[off : off+32])
	off += 32
	copy(in.OutputToken[:], data[off:off+20])
	off += 20
	in.OutputAmount = new(big.Int).SetBytes(data[off : off+32])
	off += 32
	copy(in.Recipient[:], data[off:off+20])
	off += 20
	in.DestChainID = new(big.Int).SetBytes(data[off : off+32]).Uint64()
	return &in, nil
}

// EncodeInner is the inverse of DecodeInner.
func EncodeInner(in *InnerData) []byte {
	out := make([]byte, 0, innerDataLength)
	out = append(out, in.InputToken[:]...)
	amt := make([]byte, 32)
	in.InputAmount.FillBytes(amt)
	out = append(out, amt...)
	out = append(out, in.OutputToken[:]...)
	amt2 := make([]byte, 32)
	in.OutputAmount.FillBytes(amt2)
	out = append(out, amt2...)
	out = append(out, in.Recipient[:]...)
	dc := make([]byte, 32)
	new(big.Int).SetUint64(in.DestChainID).FillBytes(dc)
	out = append(out, dc...)
	return out
}
