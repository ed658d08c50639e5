package eip7683

import (
	"encoding/binary"

	"github.com/ethereum/go-ethereum/crypto"
)

// domainName and domainVersion fix the EIP-712 domain this solver verifies
// orders against, per the external interfaces section.
const (
	domainName    = "OIF Settler"
	domainVersion = "1.0.0"
)

// DomainSeparator computes keccak256("EIP712Domain" || domainName ||
// domainVersion || chain_id || verifying_contract) exactly as specified.
func DomainSeparator(chainID uint64, verifyingContract [20]byte) [32]byte {
	chainIDBytes := make([]byte, 32)
	binary.BigEndian.PutUint64(chainIDBytes[24:], chainID)

	var buf []byte
	buf = append(buf, []byte("EIP712Domain")...)
	buf = append(buf, []byte(domainName)...)
	buf = append(buf, []byte(domainVersion)...)
	buf = append(buf, chainIDBytes...)
	buf = append(buf, verifyingContract[:]...)
	return crypto.Keccak256Hash(buf).Bytes32()
}

// StructHash hashes the order's canonical fields: user, nonce, origin
// chain id, open/fill deadlines, order_data_type, and the hash of
// order_data, in that order.
func StructHash(user [20]byte, nonce uint64, originChainID uint64, openDeadline, fillDeadline uint32, orderDataType [32]byte, orderData []byte) [32]byte {
	var buf []byte
	buf = append(buf, user[:]...)

	nonceBytes := make([]byte, 32)
	binary.BigEndian.PutUint64(nonceBytes[24:], nonce)
	buf = append(buf, nonceBytes...)

	chainBytes := make([]byte, 32)
	binary.BigEndian.PutUint64(chainBytes[24:], originChainID)
	buf = append(buf, chainBytes...)

	odBytes := make([]byte, 4)
	binary.BigEndian.PutUint32(odBytes, openDeadline)
	buf = append(buf, odBytes...)

	fdBytes := make([]byte, 4)
	binary.BigEndian.PutUint32(fdBytes, fillDeadline)
	buf = append(buf, fdBytes...)

	buf = append(buf, orderDataType[:]...)

	dataHash := crypto.Keccak256Hash(orderData)
	buf = append(buf, dataHash.Bytes()...)

	return crypto.Keccak256Hash(buf).Bytes32()
}

// OrderID computes the final EIP-712 order id:
// keccak256(0x1901 || domain || struct_hash).
func OrderID(domain, structHash [32]byte) [32]byte {
	buf := make([]byte, 0, 2+32+32)
	buf = append(buf, 0x19, 0x01)
	buf = append(buf, domain[:]...)
	buf = append(buf, structHash[:]...)
	return crypto.Keccak256Hash(buf).Bytes32()
}
