package leafdb

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pkt-cash/leafledger/leafwire"
)

func openTestStorage(t *testing.T) *BoltStorage {
	t.Helper()
	path := filepath.Join(t.TempDir(), "leaves.db")
	s, err := OpenBoltStorage(path)
	require.Nil(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleLeaf(owner byte, indexKey byte) leafwire.Leaf {
	var o leafwire.Address
	o[0] = owner
	var k leafwire.IndexKey
	k[0] = indexKey
	return leafwire.Leaf{Version: 1, Owner: o, IndexKey: k, Data: []byte("payload")}
}

func sampleId(txidByte byte, index uint32) leafwire.LeafId {
	var id leafwire.LeafId
	id.Txid[0] = txidByte
	id.Index = index
	return id
}

func TestStoreAndGetLeafRoundTrip(t *testing.T) {
	s := openTestStorage(t)

	view, err := s.OpenLeafStorage()
	require.Nil(t, err)

	id := sampleId(1, 0)
	leaf := sampleLeaf(9, 7)
	require.Nil(t, view.StoreLeaf(id, leaf))

	got, found, err := view.GetLeaf(id)
	require.Nil(t, err)
	require.True(t, found)
	require.Equal(t, leaf, got)

	require.Nil(t, view.Commit(1))

	view2, err := s.OpenLeafStorage()
	require.Nil(t, err)
	got2, found2, err := view2.GetLeaf(id)
	require.Nil(t, err)
	require.True(t, found2)
	require.Equal(t, leaf, got2)
	require.Nil(t, view2.Discard())
}

func TestGetLeafUnknownNotFound(t *testing.T) {
	s := openTestStorage(t)
	view, err := s.OpenLeafStorage()
	require.Nil(t, err)
	_, found, err := view.GetLeaf(sampleId(0xff, 9))
	require.Nil(t, err)
	require.False(t, found)
	require.Nil(t, view.Discard())
}

func TestOpenLeafStorageExclusive(t *testing.T) {
	s := openTestStorage(t)
	view, err := s.OpenLeafStorage()
	require.Nil(t, err)

	_, err2 := s.OpenLeafStorage()
	require.NotNil(t, err2)
	require.True(t, ErrConflict.Is(err2))

	require.Nil(t, view.Discard())

	view3, err3 := s.OpenLeafStorage()
	require.Nil(t, err3)
	require.Nil(t, view3.Discard())
}

func TestSpentMarkingIdempotent(t *testing.T) {
	s := openTestStorage(t)
	view, err := s.OpenLeafStorage()
	require.Nil(t, err)

	id := sampleId(2, 0)
	require.Nil(t, view.StoreLeaf(id, sampleLeaf(1, 1)))
	require.Nil(t, view.Commit(1))

	view2, err := s.OpenLeafStorage()
	require.Nil(t, err)
	spentBefore, err := view2.IsLeafSpent(id)
	require.Nil(t, err)
	require.False(t, spentBefore)

	require.Nil(t, view2.MarkLeafAsSpent(id))
	require.Nil(t, view2.MarkLeafAsSpent(id))
	spentAfter, err := view2.IsLeafSpent(id)
	require.Nil(t, err)
	require.True(t, spentAfter)
	require.Nil(t, view2.Commit(2))

	view3, err := s.OpenLeafStorage()
	require.Nil(t, err)
	spentPersisted, err := view3.IsLeafSpent(id)
	require.Nil(t, err)
	require.True(t, spentPersisted)
	require.Nil(t, view3.Discard())
}

func TestGetLeafByIndexKey(t *testing.T) {
	s := openTestStorage(t)
	view, err := s.OpenLeafStorage()
	require.Nil(t, err)

	var k leafwire.IndexKey
	k[0] = 0x42
	idA := sampleId(1, 0)
	idB := sampleId(1, 1)
	leafA := leafwire.Leaf{Version: 1, IndexKey: k, Data: []byte("a")}
	leafB := leafwire.Leaf{Version: 1, IndexKey: k, Data: []byte("b")}
	require.Nil(t, view.StoreLeaf(idA, leafA))
	require.Nil(t, view.StoreLeaf(idB, leafB))

	results, err := view.GetLeafByIndexKey(k)
	require.Nil(t, err)
	require.Len(t, results, 2)

	require.Nil(t, view.Commit(1))

	view2, err := s.OpenLeafStorage()
	require.Nil(t, err)
	results2, err := view2.GetLeafByIndexKey(k)
	require.Nil(t, err)
	require.Len(t, results2, 2)
	require.Nil(t, view2.Discard())
}

func TestPurgeSpentLeavesRemovesOnlySpent(t *testing.T) {
	s := openTestStorage(t)
	view, err := s.OpenLeafStorage()
	require.Nil(t, err)

	keep := sampleId(1, 0)
	gone := sampleId(2, 0)
	require.Nil(t, view.StoreLeaf(keep, sampleLeaf(1, 1)))
	require.Nil(t, view.StoreLeaf(gone, sampleLeaf(2, 2)))
	require.Nil(t, view.MarkLeafAsSpent(gone))
	require.Nil(t, view.Commit(1))

	view2, err := s.OpenLeafStorage()
	require.Nil(t, err)
	require.Nil(t, view2.PurgeSpentLeaves())
	require.Nil(t, view2.Commit(2))

	view3, err := s.OpenLeafStorage()
	require.Nil(t, err)
	_, foundKeep, err := view3.GetLeaf(keep)
	require.Nil(t, err)
	require.True(t, foundKeep)
	_, foundGone, err := view3.GetLeaf(gone)
	require.Nil(t, err)
	require.False(t, foundGone)
	spentGone, err := view3.IsLeafSpent(gone)
	require.Nil(t, err)
	require.False(t, spentGone)
	require.Nil(t, view3.Discard())
}

func TestRevertToVersionRemovesNewerLeavesAndSpentMarks(t *testing.T) {
	s := openTestStorage(t)

	v1, err := s.OpenLeafStorage()
	require.Nil(t, err)
	id1 := sampleId(1, 0)
	require.Nil(t, v1.StoreLeaf(id1, sampleLeaf(1, 1)))
	require.Nil(t, v1.Commit(1))

	v2, err := s.OpenLeafStorage()
	require.Nil(t, err)
	id2 := sampleId(2, 0)
	require.Nil(t, v2.StoreLeaf(id2, sampleLeaf(2, 2)))
	require.Nil(t, v2.MarkLeafAsSpent(id1))
	require.Nil(t, v2.Commit(2))

	require.Nil(t, s.RevertToVersion(1))

	v3, err := s.OpenLeafStorage()
	require.Nil(t, err)
	_, found1, err := v3.GetLeaf(id1)
	require.Nil(t, err)
	require.True(t, found1, "leaf committed at the retained version must survive")
	_, found2, err := v3.GetLeaf(id2)
	require.Nil(t, err)
	require.False(t, found2, "leaf committed after the target version must be wiped")
	spent1, err := v3.IsLeafSpent(id1)
	require.Nil(t, err)
	require.False(t, spent1, "spent mark applied after the target version must be lifted")
	require.Nil(t, v3.Discard())
}

func TestRevertToVersionRejectedWhileViewOpen(t *testing.T) {
	s := openTestStorage(t)
	view, err := s.OpenLeafStorage()
	require.Nil(t, err)
	defer view.Discard()

	err2 := s.RevertToVersion(0)
	require.NotNil(t, err2)
	require.True(t, ErrConflict.Is(err2))
}

func TestCommitRejectsNonMonotonicVersion(t *testing.T) {
	s := openTestStorage(t)

	v1, err := s.OpenLeafStorage()
	require.Nil(t, err)
	require.Nil(t, v1.StoreLeaf(sampleId(1, 0), sampleLeaf(1, 1)))
	require.Nil(t, v1.Commit(5))

	v2, err := s.OpenLeafStorage()
	require.Nil(t, err)
	err2 := v2.Commit(5)
	require.NotNil(t, err2)
	require.Nil(t, v2.Discard())
}

func TestCommitThenReuseFails(t *testing.T) {
	s := openTestStorage(t)
	view, err := s.OpenLeafStorage()
	require.Nil(t, err)
	require.Nil(t, view.Commit(1))

	err2 := view.StoreLeaf(sampleId(9, 0), sampleLeaf(1, 1))
	require.NotNil(t, err2)
	require.True(t, ErrConflict.Is(err2))
}
