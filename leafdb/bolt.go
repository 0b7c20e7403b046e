package leafdb

import (
	"encoding/binary"
	"sync"

	bolt "go.etcd.io/bbolt"

	"github.com/pkt-cash/leafledger/er"
	"github.com/pkt-cash/leafledger/leafwire"
	"github.com/pkt-cash/leafledger/ledgerlog"
)

var log = ledgerlog.New(ledgerlog.TagLeafDB)

var (
	bucketLeaves = []byte("leaves")
	bucketIndex  = []byte("index")
	bucketSpent  = []byte("spent")
	bucketMeta   = []byte("meta")
)

var metaVersionKey = []byte("version")

// BoltStorage is the go.etcd.io/bbolt-backed Storage implementation.
type BoltStorage struct {
	db *bolt.DB

	mu   sync.Mutex
	open bool // a view is currently checked out
}

// OpenBoltStorage opens or creates a bbolt database at path and ensures
// the four buckets leafdb needs exist.
func OpenBoltStorage(path string) (*BoltStorage, er.R) {
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, ioErr(err)
	}
	uerr := db.Update(func(tx *bolt.Tx) error {
		for _, b := range [][]byte{bucketLeaves, bucketIndex, bucketSpent, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return err
			}
		}
		return nil
	})
	if uerr != nil {
		_ = db.Close()
		return nil, ioErr(uerr)
	}
	return &BoltStorage{db: db}, nil
}

func (s *BoltStorage) Close() er.R {
	if err := s.db.Close(); err != nil {
		return ioErr(err)
	}
	return nil
}

func (s *BoltStorage) currentVersion(tx *bolt.Tx) uint64 {
	v := tx.Bucket(bucketMeta).Get(metaVersionKey)
	if len(v) != 8 {
		return 0
	}
	return binary.BigEndian.Uint64(v)
}

// OpenLeafStorage grants exclusive mutation access for one batch. Only one
// view may be open at a time; a second concurrent call fails with
// ErrConflict.
func (s *BoltStorage) OpenLeafStorage() (LeafStorage, er.R) {
	s.mu.Lock()
	if s.open {
		s.mu.Unlock()
		return nil, ErrConflict.Default()
	}
	s.open = true
	s.mu.Unlock()

	tx, err := s.db.Begin(true)
	if err != nil {
		s.mu.Lock()
		s.open = false
		s.mu.Unlock()
		return nil, ioErr(err)
	}
	return &boltLeafStorage{parent: s, tx: tx}, nil
}

// RevertToVersion wipes every leaf created, and lifts every spent mark
// applied, at a version greater than version by walking the leaves and
// spent buckets with a cursor.
func (s *BoltStorage) RevertToVersion(version uint64) er.R {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.open {
		return ErrConflict.New("cannot revert while a leaf storage view is open", nil)
	}

	uerr := s.db.Update(func(tx *bolt.Tx) error {
		leaves := tx.Bucket(bucketLeaves)
		if err := deleteNewerThan(leaves, version); err != nil {
			return err
		}
		spent := tx.Bucket(bucketSpent)
		if err := deleteNewerThan(spent, version); err != nil {
			return err
		}
		index := tx.Bucket(bucketIndex)
		if err := pruneIndexForDeleted(index, leaves); err != nil {
			return err
		}
		cur := s.currentVersion(tx)
		if version < cur {
			return tx.Bucket(bucketMeta).Put(metaVersionKey, encodeVersion(version))
		}
		return nil
	})
	if uerr != nil {
		return ioErr(uerr)
	}
	log.Infof("reverted leaf storage to version %d", version)
	return nil
}

func deleteNewerThan(bucket *bolt.Bucket, version uint64) error {
	c := bucket.Cursor()
	var toDelete [][]byte
	for k, v := c.First(); k != nil; k, v = c.Next() {
		if len(v) < 8 {
			continue
		}
		storedAt := binary.BigEndian.Uint64(v[:8])
		if storedAt > version {
			toDelete = append(toDelete, append([]byte(nil), k...))
		}
	}
	for _, k := range toDelete {
		if err := bucket.Delete(k); err != nil {
			return err
		}
	}
	return nil
}

// pruneIndexForDeleted removes index entries whose target leaf no longer
// exists in leaves, which happens after deleteNewerThan runs on leaves.
func pruneIndexForDeleted(index, leaves *bolt.Bucket) error {
	c := index.Cursor()
	var toDelete [][]byte
	for k, _ := c.First(); k != nil; k, _ = c.Next() {
		if len(k) < leafwire.IndexKeySize+leafIdKeySize {
			continue
		}
		leafKey := k[leafwire.IndexKeySize:]
		if leaves.Get(leafKey) == nil {
			toDelete = append(toDelete, append([]byte(nil), k...))
		}
	}
	for _, k := range toDelete {
		if err := index.Delete(k); err != nil {
			return err
		}
	}
	return nil
}

func encodeVersion(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

const leafIdKeySize = leafwire.TxidSize + 4

// leafIdKey encodes a LeafId big-endian so bbolt's byte-lexicographic key
// order matches LeafId.Compare's numeric order on Index for a fixed Txid.
func leafIdKey(id leafwire.LeafId) []byte {
	k := make([]byte, leafIdKeySize)
	copy(k, id.Txid[:])
	binary.BigEndian.PutUint32(k[leafwire.TxidSize:], id.Index)
	return k
}

func indexEntryKey(indexKey leafwire.IndexKey, id leafwire.LeafId) []byte {
	k := make([]byte, leafwire.IndexKeySize+leafIdKeySize)
	copy(k, indexKey[:])
	copy(k[leafwire.IndexKeySize:], leafIdKey(id))
	return k
}
