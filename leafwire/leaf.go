package leafwire

import (
	"encoding/binary"

	"github.com/pkt-cash/leafledger/er"
	"golang.org/x/crypto/sha3"
)

// ScriptType distinguishes the two kinds of script carrier. Empty denotes
// a leaf with no owning logic of its own (unspendable except by an
// operator, or not meant to be spent by script at all); Wasm denotes guest
// bytecode evaluated by the sandbox.
type ScriptType uint8

const (
	ScriptEmpty ScriptType = 0
	ScriptWasm  ScriptType = 1
)

// Script is the logical view of a Leaf's Data when that leaf is used to
// carry a locking or operator script. Data is script-private state and is
// deliberately excluded from the address computation, so a script may
// mutate it without changing its own identity.
type Script struct {
	Version uint8
	Type    ScriptType
	Code    []byte
	Args    []byte
	Data    []byte
}

// Address derives the 20-byte SHA3-256 address of s: the first
// AddressSize bytes of SHA3-256(version || type || code || args).
func (s Script) Address() Address {
	h := sha3.New256()
	h.Write([]byte{s.Version, byte(s.Type)})
	h.Write(s.Code)
	h.Write(s.Args)
	sum := h.Sum(nil)
	var a Address
	copy(a[:], sum[:AddressSize])
	return a
}

// Leaf is an immutable, once-produced unspent ledger entry.
type Leaf struct {
	Version  uint8
	Owner    Address
	IndexKey IndexKey
	// Operator, when non-zero, names another leaf whose Data is
	// executable bytecode that must also approve any transaction
	// spending this leaf. The canonical wire form always carries the
	// full 36-byte LeafId, not just the producing txid.
	Operator LeafId
	Data     []byte
}

// leafFixedHeaderSize is version(1) + owner(20) + index_key(32) +
// op_txid(32) + op_index(4) + data_len(4), the canonical standalone-Leaf
// wire header.
const leafFixedHeaderSize = 1 + AddressSize + IndexKeySize + TxidSize + 4 + 4

// Encode renders the canonical storage/standalone wire form of a Leaf.
func (l Leaf) Encode() []byte {
	out := make([]byte, leafFixedHeaderSize+len(l.Data))
	i := 0
	out[i] = l.Version
	i++
	copy(out[i:], l.Owner[:])
	i += AddressSize
	copy(out[i:], l.IndexKey[:])
	i += IndexKeySize
	copy(out[i:], l.Operator.Txid[:])
	i += TxidSize
	binary.BigEndian.PutUint32(out[i:], l.Operator.Index)
	i += 4
	binary.BigEndian.PutUint32(out[i:], uint32(len(l.Data)))
	i += 4
	copy(out[i:], l.Data)
	return out
}

// DecodeLeaf parses the canonical storage/standalone wire form of a Leaf.
func DecodeLeaf(data []byte) (Leaf, er.R) {
	if len(data) < leafFixedHeaderSize {
		return Leaf{}, ErrWrongLengthForLeaf(len(data), leafFixedHeaderSize)
	}
	var l Leaf
	i := 0
	l.Version = data[i]
	i++
	copy(l.Owner[:], data[i:i+AddressSize])
	i += AddressSize
	copy(l.IndexKey[:], data[i:i+IndexKeySize])
	i += IndexKeySize
	copy(l.Operator.Txid[:], data[i:i+TxidSize])
	i += TxidSize
	l.Operator.Index = binary.BigEndian.Uint32(data[i : i+4])
	i += 4
	dataLen := binary.BigEndian.Uint32(data[i : i+4])
	i += 4
	expected := leafFixedHeaderSize + int(dataLen)
	if len(data) != expected {
		return Leaf{}, ErrWrongLengthForLeaf(len(data), expected)
	}
	l.Data = append([]byte(nil), data[i:]...)
	return l, nil
}

// HasOperator reports whether l names an operator leaf.
func (l Leaf) HasOperator() bool {
	return !l.Operator.IsZero()
}
