package leafwire

import (
	"encoding/binary"
	"encoding/hex"

	"github.com/pkt-cash/leafledger/er"
)

// TxidSize, AddressSize and IndexKeySize are the fixed widths of Txid,
// Address and IndexKey respectively. Array length can't be a Go type
// parameter, so each width gets its own named array type; fromSlice
// below is the shared length-checking constructor for all of them.
const (
	TxidSize     = 32
	AddressSize  = 20
	IndexKeySize = 32
	LeafIdSize   = TxidSize + 4 // txid + little-endian u32 index, on the wire
)

// Txid is a transaction identifier: SHA3-256 of an UnsignedTransaction's
// canonical bytes. The zero value is reserved as "absent".
type Txid [TxidSize]byte

// IsZero reports whether t is the all-zero "absent" sentinel.
func (t Txid) IsZero() bool { return t == Txid{} }

func (t Txid) String() string { return hex.EncodeToString(t[:]) }

// Address is a 20-byte script identifier.
type Address [AddressSize]byte

func (a Address) String() string { return hex.EncodeToString(a[:]) }

// IndexKey is an opaque 32-byte secondary-index key chosen by a leaf's
// producer.
type IndexKey [IndexKeySize]byte

func (k IndexKey) String() string { return hex.EncodeToString(k[:]) }

// LeafId names a leaf by the txid of its producing transaction and its
// 0-based position in that transaction's output list. The zero value
// denotes "no operator".
type LeafId struct {
	Txid  Txid
	Index uint32
}

// IsZero reports whether id is the all-zero "no operator" sentinel.
func (id LeafId) IsZero() bool {
	return id.Txid.IsZero() && id.Index == 0
}

// Compare orders LeafId lexicographically on Txid then numerically on
// Index, giving a total ordering suitable for tree-backed sets and maps.
func (id LeafId) Compare(other LeafId) int {
	for i := 0; i < TxidSize; i++ {
		if id.Txid[i] != other.Txid[i] {
			if id.Txid[i] < other.Txid[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case id.Index < other.Index:
		return -1
	case id.Index > other.Index:
		return 1
	default:
		return 0
	}
}

func (id LeafId) String() string {
	return id.Txid.String() + ":" + hex.EncodeToString(encodeU32BE(id.Index))
}

// EncodeLeafIdWire writes the 36-byte wire form of a LeafId as it appears
// inside an UnsignedTransaction's input list: 32-byte txid followed by a
// 4-byte little-endian index.
func EncodeLeafIdWire(id LeafId) []byte {
	out := make([]byte, LeafIdSize)
	copy(out[:TxidSize], id.Txid[:])
	binary.LittleEndian.PutUint32(out[TxidSize:], id.Index)
	return out
}

// DecodeLeafIdWire parses the 36-byte input-list wire form of a LeafId.
func DecodeLeafIdWire(data []byte) (LeafId, er.R) {
	if len(data) != LeafIdSize {
		return LeafId{}, ErrWrongLengthForLeafId(len(data), LeafIdSize)
	}
	var id LeafId
	copy(id.Txid[:], data[:TxidSize])
	id.Index = binary.LittleEndian.Uint32(data[TxidSize:])
	return id, nil
}

func fromSlice(dst []byte, src []byte) er.R {
	if len(src) != len(dst) {
		return ErrWrongLengthForFixedBytes(len(src), len(dst))
	}
	copy(dst, src)
	return nil
}

// TxidFromSlice builds a Txid from exactly TxidSize bytes.
func TxidFromSlice(b []byte) (Txid, er.R) {
	var t Txid
	if err := fromSlice(t[:], b); err != nil {
		return Txid{}, err
	}
	return t, nil
}

// AddressFromSlice builds an Address from exactly AddressSize bytes.
func AddressFromSlice(b []byte) (Address, er.R) {
	var a Address
	if err := fromSlice(a[:], b); err != nil {
		return Address{}, err
	}
	return a, nil
}

// IndexKeyFromSlice builds an IndexKey from exactly IndexKeySize bytes.
func IndexKeyFromSlice(b []byte) (IndexKey, er.R) {
	var k IndexKey
	if err := fromSlice(k[:], b); err != nil {
		return IndexKey{}, err
	}
	return k, nil
}

// AddressIndexKey zero-pads a 20-byte Address into the 32-byte IndexKey
// space so a script leaf can be looked up by the address it serves: a
// leaf carrying a Script in its Data is stored with IndexKey equal to
// AddressIndexKey(script.Address()), letting get_leaf_by_index_key answer
// "which leaf(s) serve address A".
func AddressIndexKey(a Address) IndexKey {
	var k IndexKey
	copy(k[:AddressSize], a[:])
	return k
}

func encodeU32BE(v uint32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, v)
	return b
}
