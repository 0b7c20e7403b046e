package leafwire

import (
	"encoding/binary"

	"github.com/pkt-cash/leafledger/er"
	"golang.org/x/crypto/sha3"
)

// UnsignedTransaction is a batch of input LeafIds consumed and output
// Leaves produced, before any unlocker witnesses are attached. Its Txid
// is a pure function of its canonical encoding.
type UnsignedTransaction struct {
	Version uint8
	Nonce   uint64
	Inputs  []LeafId
	Outputs []Leaf
}

// outputBodyFixedSize is the fixed portion of one output body: version(1)
// + owner(20) + index_key(32) + op_txid(32) + op_index(4), not counting
// the variable-length data that trails it.
const outputBodyFixedSize = 1 + AddressSize + IndexKeySize + TxidSize + 4

// Encode renders the canonical wire form: a fixed header, the output
// length table, the input LeafIds, then the output bodies.
func (u UnsignedTransaction) Encode() []byte {
	inputCount := len(u.Inputs)
	outputCount := len(u.Outputs)

	size := 1 + 8 + 4 + 4 + 4*outputCount + LeafIdSize*inputCount
	for _, o := range u.Outputs {
		size += outputBodyFixedSize + len(o.Data)
	}

	out := make([]byte, size)
	i := 0
	out[i] = u.Version
	i++
	binary.BigEndian.PutUint64(out[i:], u.Nonce)
	i += 8
	binary.BigEndian.PutUint32(out[i:], uint32(inputCount))
	i += 4
	binary.BigEndian.PutUint32(out[i:], uint32(outputCount))
	i += 4
	for _, o := range u.Outputs {
		binary.BigEndian.PutUint32(out[i:], uint32(len(o.Data)))
		i += 4
	}
	for _, in := range u.Inputs {
		copy(out[i:], EncodeLeafIdWire(in))
		i += LeafIdSize
	}
	for _, o := range u.Outputs {
		out[i] = o.Version
		i++
		copy(out[i:], o.Owner[:])
		i += AddressSize
		copy(out[i:], o.IndexKey[:])
		i += IndexKeySize
		copy(out[i:], o.Operator.Txid[:])
		i += TxidSize
		binary.BigEndian.PutUint32(out[i:], o.Operator.Index)
		i += 4
		copy(out[i:], o.Data)
		i += len(o.Data)
	}
	return out
}

// DecodeUnsignedTransaction parses the wire form Encode produces.
func DecodeUnsignedTransaction(data []byte) (UnsignedTransaction, er.R) {
	const headerSize = 1 + 8 + 4 + 4
	if len(data) < headerSize {
		return UnsignedTransaction{}, ErrWrongLengthForTx(len(data), headerSize)
	}
	var u UnsignedTransaction
	i := 0
	u.Version = data[i]
	i++
	u.Nonce = binary.BigEndian.Uint64(data[i:])
	i += 8
	inputCount := binary.BigEndian.Uint32(data[i:])
	i += 4
	outputCount := binary.BigEndian.Uint32(data[i:])
	i += 4

	if len(data) < i+4*int(outputCount) {
		return UnsignedTransaction{}, ErrWrongLengthForTx(len(data), i+4*int(outputCount))
	}
	outputLens := make([]uint32, outputCount)
	for o := range outputLens {
		outputLens[o] = binary.BigEndian.Uint32(data[i:])
		i += 4
	}

	if len(data) < i+LeafIdSize*int(inputCount) {
		return UnsignedTransaction{}, ErrWrongLengthForTx(len(data), i+LeafIdSize*int(inputCount))
	}
	if inputCount > 0 {
		u.Inputs = make([]LeafId, inputCount)
	}
	for in := range u.Inputs {
		id, err := DecodeLeafIdWire(data[i : i+LeafIdSize])
		if err != nil {
			return UnsignedTransaction{}, err
		}
		u.Inputs[in] = id
		i += LeafIdSize
	}

	if outputCount > 0 {
		u.Outputs = make([]Leaf, outputCount)
	}
	for o := range u.Outputs {
		dataLen := int(outputLens[o])
		bodyLen := outputBodyFixedSize + dataLen
		if len(data) < i+bodyLen {
			return UnsignedTransaction{}, ErrWrongLengthForTx(len(data), i+bodyLen)
		}
		var leaf Leaf
		j := i
		leaf.Version = data[j]
		j++
		copy(leaf.Owner[:], data[j:j+AddressSize])
		j += AddressSize
		copy(leaf.IndexKey[:], data[j:j+IndexKeySize])
		j += IndexKeySize
		copy(leaf.Operator.Txid[:], data[j:j+TxidSize])
		j += TxidSize
		leaf.Operator.Index = binary.BigEndian.Uint32(data[j:])
		j += 4
		leaf.Data = append([]byte(nil), data[j:j+dataLen]...)
		u.Outputs[o] = leaf
		i += bodyLen
	}

	if i != len(data) {
		return UnsignedTransaction{}, ErrWrongLengthForTx(len(data), i)
	}

	return u, nil
}

// Hash computes the Txid: SHA3-256 of u's canonical encoding. Unlockers
// never participate, so witness malleability can never change a Txid.
func (u UnsignedTransaction) Hash() Txid {
	sum := sha3.Sum256(u.Encode())
	var t Txid
	copy(t[:], sum[:])
	return t
}

// Transaction is an UnsignedTransaction plus one unlocker per input, in
// the same order as Inputs. Unlockers are excluded from the Txid.
type Transaction struct {
	Unsigned  UnsignedTransaction
	Unlockers [][]byte
}

// Hash delegates to the embedded UnsignedTransaction, so a Transaction's
// identity never depends on its unlockers.
func (t Transaction) Hash() Txid {
	return t.Unsigned.Hash()
}

// Encode renders the signed wire form: the unsigned prefix verbatim,
// then unlocker bodies and lengths written in reverse order, then the
// unlocker count.
func (t Transaction) Encode() []byte {
	unsigned := t.Unsigned.Encode()
	n := len(t.Unlockers)

	bodiesLen := 0
	for _, u := range t.Unlockers {
		bodiesLen += len(u)
	}

	out := make([]byte, len(unsigned)+bodiesLen+4*n+4)
	copy(out, unsigned)
	i := len(unsigned)

	for j := n - 1; j >= 0; j-- {
		copy(out[i:], t.Unlockers[j])
		i += len(t.Unlockers[j])
	}
	for j := n - 1; j >= 0; j-- {
		binary.BigEndian.PutUint32(out[i:], uint32(len(t.Unlockers[j])))
		i += 4
	}
	binary.BigEndian.PutUint32(out[i:], uint32(n))

	return out
}

// DecodeTransaction parses the signed wire form Encode produces. The
// trailer is read from the end first: count, then the reversed length
// table, then the reversed bodies, leaving the unsigned prefix to be
// parsed independently.
func DecodeTransaction(data []byte) (Transaction, er.R) {
	if len(data) < 4 {
		return Transaction{}, ErrWrongLengthForTx(len(data), 4)
	}
	end := len(data)
	end -= 4
	count := binary.BigEndian.Uint32(data[end:])

	lensEnd := end
	lensStart := lensEnd - 4*int(count)
	if lensStart < 0 {
		return Transaction{}, ErrWrongLengthForUnlockScript(len(data), 4*int(count))
	}
	revLens := make([]int, count)
	for j := range revLens {
		revLens[j] = int(binary.BigEndian.Uint32(data[lensStart+4*j:]))
	}

	bodiesLen := 0
	for _, l := range revLens {
		bodiesLen += l
	}
	bodiesStart := lensStart - bodiesLen
	if bodiesStart < 0 {
		return Transaction{}, ErrWrongLengthForUnlockScript(len(data), bodiesLen)
	}

	revUnlockers := make([][]byte, count)
	off := bodiesStart
	for j, l := range revLens {
		if off+l > lensStart {
			return Transaction{}, ErrWrongLengthForUnlockScript(len(data), off+l)
		}
		revUnlockers[j] = append([]byte(nil), data[off:off+l]...)
		off += l
	}

	unlockers := make([][]byte, count)
	for j := range revUnlockers {
		unlockers[int(count)-1-j] = revUnlockers[j]
	}

	unsigned, err := DecodeUnsignedTransaction(data[:bodiesStart])
	if err != nil {
		return Transaction{}, err
	}

	// Input/unlocker count parity is a Checker concern, not a codec one:
	// a Transaction with mismatched counts must still decode so the
	// Checker can reject it with the right error.
	return Transaction{Unsigned: unsigned, Unlockers: unlockers}, nil
}
