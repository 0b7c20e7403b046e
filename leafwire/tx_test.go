package leafwire_test

import (
	"testing"

	"github.com/pkt-cash/leafledger/leafwire"
	"github.com/stretchr/testify/require"
)

func fill(b byte, n int) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = b
	}
	return out
}

func txidOf(b byte) leafwire.Txid {
	var t leafwire.Txid
	copy(t[:], fill(b, leafwire.TxidSize))
	return t
}

// S1 — round trip of an unsigned transaction.
func TestRoundTripUnsignedTransaction(t *testing.T) {
	var owner leafwire.Address
	copy(owner[:], fill(3, leafwire.AddressSize))
	var idxKey leafwire.IndexKey
	copy(idxKey[:], fill(4, leafwire.IndexKeySize))

	u := leafwire.UnsignedTransaction{
		Version: 1,
		Nonce:   12345,
		Inputs: []leafwire.LeafId{
			{Txid: txidOf(1), Index: 0},
			{Txid: txidOf(2), Index: 1},
		},
		Outputs: []leafwire.Leaf{
			{
				Version:  1,
				Owner:    owner,
				IndexKey: idxKey,
				Operator: leafwire.LeafId{Txid: txidOf(5), Index: 2},
				Data:     []byte{60, 70, 80, 90},
			},
		},
	}

	encoded := u.Encode()
	decoded, err := leafwire.DecodeUnsignedTransaction(encoded)
	require.Nil(t, err)
	require.Equal(t, u, decoded)
	require.Equal(t, encoded, decoded.Encode())
}

// S2 — signed transaction with trailing unlockers, reverse-order trailer.
func TestRoundTripSignedTransactionTrailer(t *testing.T) {
	u := leafwire.UnsignedTransaction{
		Version: 1,
		Nonce:   1,
		Inputs: []leafwire.LeafId{
			{Txid: txidOf(1), Index: 0},
			{Txid: txidOf(2), Index: 0},
		},
	}
	tx := leafwire.Transaction{
		Unsigned:  u,
		Unlockers: [][]byte{{10, 20, 30}, {40, 50}},
	}

	encoded := tx.Encode()
	unsignedLen := len(u.Encode())
	trailer := encoded[unsignedLen:]

	expected := append([]byte{}, 40, 50, 10, 20, 30) // bodies, reverse order
	expected = append(expected, 0, 0, 0, 2)           // len(U1)=2, BE
	expected = append(expected, 0, 0, 0, 3)           // len(U0)=3, BE
	expected = append(expected, 0, 0, 0, 2)           // count=2, BE
	require.Equal(t, expected, trailer)

	decoded, err := leafwire.DecodeTransaction(encoded)
	require.Nil(t, err)
	require.Equal(t, tx, decoded)
	require.Equal(t, encoded, decoded.Encode())
}

// S3 — an unlocker/input length mismatch must still decode cleanly; it is
// the Checker's job to reject it.
func TestTransactionWithMismatchedUnlockersDecodes(t *testing.T) {
	u := leafwire.UnsignedTransaction{
		Version: 1,
		Inputs: []leafwire.LeafId{
			{Txid: txidOf(1), Index: 0},
			{Txid: txidOf(2), Index: 0},
		},
	}
	tx := leafwire.Transaction{
		Unsigned:  u,
		Unlockers: [][]byte{{10, 20, 30}},
	}
	decoded, err := leafwire.DecodeTransaction(tx.Encode())
	require.Nil(t, err)
	require.Len(t, decoded.Unlockers, 1)
	require.Len(t, decoded.Unsigned.Inputs, 2)
}

// Hash purity (property 2): permuting or mutating unlockers must never
// change the Txid, and hashing the same unsigned bytes twice must agree.
func TestHashPurity(t *testing.T) {
	u := leafwire.UnsignedTransaction{
		Version: 2,
		Nonce:   7,
		Inputs:  []leafwire.LeafId{{Txid: txidOf(9), Index: 3}},
	}
	h1 := u.Hash()
	h2 := u.Hash()
	require.Equal(t, h1, h2)

	t1 := leafwire.Transaction{Unsigned: u, Unlockers: [][]byte{{1, 2, 3}}}
	t2 := leafwire.Transaction{Unsigned: u, Unlockers: [][]byte{{9, 9, 9, 9, 9}}}
	require.Equal(t, t1.Hash(), t2.Hash())
	require.Equal(t, h1, t1.Hash())
}

func TestDecodeUnsignedTransactionWrongLength(t *testing.T) {
	_, err := leafwire.DecodeUnsignedTransaction([]byte{1, 2, 3})
	require.NotNil(t, err)
	require.True(t, leafwire.IsWrongLengthForTx(err))
}
