package leafdb

import (
	"encoding/binary"

	bolt "go.etcd.io/bbolt"

	"github.com/pkt-cash/leafledger/er"
	"github.com/pkt-cash/leafledger/leafwire"
)

// errNonMonotonicVersion guards the invariant that the commit version is
// a monotonic u64 assigned at commit; it is declared under the same
// StorageError type as the rest of this package's errors.
var errNonMonotonicVersion = StorageError.CodeWithDetail("NonMonotonicVersion", "commit version must exceed the currently committed version")

// boltLeafStorage is one batch's exclusive view. Stores and spent-marks
// are buffered in memory and only written into the underlying bbolt
// transaction's buckets, stamped with the commit version, when Commit is
// called.
type boltLeafStorage struct {
	parent *BoltStorage
	tx     *bolt.Tx

	pendingStores map[leafwire.LeafId]leafwire.Leaf
	pendingSpent  map[leafwire.LeafId]struct{}

	done bool
}

func (v *boltLeafStorage) StoreLeaf(leafId leafwire.LeafId, leaf leafwire.Leaf) er.R {
	if v.done {
		return ErrConflict.New("view already committed or discarded", nil)
	}
	if v.pendingStores == nil {
		v.pendingStores = make(map[leafwire.LeafId]leafwire.Leaf)
	}
	v.pendingStores[leafId] = leaf
	return nil
}

func (v *boltLeafStorage) GetLeaf(leafId leafwire.LeafId) (leafwire.Leaf, bool, er.R) {
	if l, ok := v.pendingStores[leafId]; ok {
		return l, true, nil
	}
	raw := v.tx.Bucket(bucketLeaves).Get(leafIdKey(leafId))
	if raw == nil {
		return leafwire.Leaf{}, false, nil
	}
	leaf, err := decodeStoredLeaf(raw)
	if err != nil {
		return leafwire.Leaf{}, false, err
	}
	return leaf, true, nil
}

func (v *boltLeafStorage) GetLeafByIndexKey(indexKey leafwire.IndexKey) ([]LeafWithId, er.R) {
	var out []LeafWithId

	for id, leaf := range v.pendingStores {
		if leaf.IndexKey == indexKey {
			out = append(out, LeafWithId{LeafId: id, Leaf: leaf})
		}
	}

	index := v.tx.Bucket(bucketIndex)
	leaves := v.tx.Bucket(bucketLeaves)
	c := index.Cursor()
	prefix := indexKey[:]
	for k, _ := c.Seek(prefix); k != nil && hasPrefix(k, prefix); k, _ = c.Next() {
		idKey := k[leafwire.IndexKeySize:]
		raw := leaves.Get(idKey)
		if raw == nil {
			continue // purged since the index entry was written
		}
		leaf, err := decodeStoredLeaf(raw)
		if err != nil {
			return nil, err
		}
		id, err := leafIdFromKey(idKey)
		if err != nil {
			return nil, err
		}
		out = append(out, LeafWithId{LeafId: id, Leaf: leaf})
	}
	return out, nil
}

func (v *boltLeafStorage) IsLeafSpent(leafId leafwire.LeafId) (bool, er.R) {
	if _, ok := v.pendingSpent[leafId]; ok {
		return true, nil
	}
	return v.tx.Bucket(bucketSpent).Get(leafIdKey(leafId)) != nil, nil
}

func (v *boltLeafStorage) MarkLeafAsSpent(leafId leafwire.LeafId) er.R {
	if v.done {
		return ErrConflict.New("view already committed or discarded", nil)
	}
	if v.pendingSpent == nil {
		v.pendingSpent = make(map[leafwire.LeafId]struct{})
	}
	v.pendingSpent[leafId] = struct{}{}
	return nil
}

// PurgeSpentLeaves acts on already-durable data immediately, since it is a
// compaction concern independent of this batch's pending writes.
func (v *boltLeafStorage) PurgeSpentLeaves() er.R {
	spent := v.tx.Bucket(bucketSpent)
	leaves := v.tx.Bucket(bucketLeaves)
	index := v.tx.Bucket(bucketIndex)

	var toPurge [][]byte
	c := spent.Cursor()
	for k, _ := c.First(); k != nil; k, _ = c.Next() {
		toPurge = append(toPurge, append([]byte(nil), k...))
	}

	for _, key := range toPurge {
		if raw := leaves.Get(key); raw != nil {
			if leaf, err := decodeStoredLeaf(raw); err == nil {
				_ = index.Delete(indexEntryKey(leaf.IndexKey, mustLeafId(key)))
			}
		}
		if err := leaves.Delete(key); err != nil {
			return ioErr(err)
		}
		if err := spent.Delete(key); err != nil {
			return ioErr(err)
		}
	}
	return nil
}

// Discard abandons the view without publishing any pending write. The
// Runtime calls this on any batch failure so a partially checked batch
// never reaches durable storage.
func (v *boltLeafStorage) Discard() er.R {
	if v.done {
		return nil
	}
	v.done = true
	if err := v.tx.Rollback(); err != nil {
		v.release()
		return ioErr(err)
	}
	v.release()
	return nil
}

func (v *boltLeafStorage) Commit(version uint64) er.R {
	if v.done {
		return ErrConflict.New("view already committed or discarded", nil)
	}

	current := v.parent.currentVersion(v.tx)
	if version <= current {
		return errNonMonotonicVersion.New("", nil)
	}

	leaves := v.tx.Bucket(bucketLeaves)
	index := v.tx.Bucket(bucketIndex)
	spent := v.tx.Bucket(bucketSpent)
	meta := v.tx.Bucket(bucketMeta)

	versioned := encodeVersion(version)
	for id, leaf := range v.pendingStores {
		value := append(append([]byte(nil), versioned...), leaf.Encode()...)
		if err := leaves.Put(leafIdKey(id), value); err != nil {
			return v.abortCommit(err)
		}
		if err := index.Put(indexEntryKey(leaf.IndexKey, id), versioned); err != nil {
			return v.abortCommit(err)
		}
	}
	for id := range v.pendingSpent {
		if err := spent.Put(leafIdKey(id), versioned); err != nil {
			return v.abortCommit(err)
		}
	}
	if err := meta.Put(metaVersionKey, versioned); err != nil {
		return v.abortCommit(err)
	}

	if err := v.tx.Commit(); err != nil {
		v.done = true
		v.release()
		return ioErr(err)
	}
	v.done = true
	v.release()
	log.Infof("committed batch: %d new leaves, %d newly spent, version=%d",
		len(v.pendingStores), len(v.pendingSpent), version)
	return nil
}

func (v *boltLeafStorage) abortCommit(err error) er.R {
	_ = v.tx.Rollback()
	v.done = true
	v.release()
	return ioErr(err)
}

func (v *boltLeafStorage) release() {
	v.parent.mu.Lock()
	v.parent.open = false
	v.parent.mu.Unlock()
}

func decodeStoredLeaf(raw []byte) (leafwire.Leaf, er.R) {
	if len(raw) < 8 {
		return leafwire.Leaf{}, ioErr(er.Errorf("corrupt stored leaf record (length %d)", len(raw)))
	}
	return leafwire.DecodeLeaf(raw[8:])
}

func hasPrefix(b, prefix []byte) bool {
	if len(b) < len(prefix) {
		return false
	}
	for i := range prefix {
		if b[i] != prefix[i] {
			return false
		}
	}
	return true
}

func leafIdFromKey(k []byte) (leafwire.LeafId, er.R) {
	if len(k) != leafIdKeySize {
		return leafwire.LeafId{}, leafwire.ErrWrongLengthForLeafId(len(k), leafIdKeySize)
	}
	var id leafwire.LeafId
	copy(id.Txid[:], k[:leafwire.TxidSize])
	id.Index = binary.BigEndian.Uint32(k[leafwire.TxidSize:])
	return id, nil
}

func mustLeafId(k []byte) leafwire.LeafId {
	id, err := leafIdFromKey(k)
	if err != nil {
		return leafwire.LeafId{}
	}
	return id
}
