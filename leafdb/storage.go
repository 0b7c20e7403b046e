// Package leafdb defines the durable Leaf Storage contract and a
// go.etcd.io/bbolt-backed implementation of it, in a bucket/cursor style.
package leafdb

import (
	"github.com/pkt-cash/leafledger/er"
	"github.com/pkt-cash/leafledger/leafwire"
)

// LeafWithId pairs a Leaf with the LeafId it was stored under, the return
// shape get_leaf_by_index_key requires.
type LeafWithId struct {
	LeafId leafwire.LeafId
	Leaf   leafwire.Leaf
}

// Committable is kept distinct from LeafStorage so a caller that only
// needs to mutate a view doesn't also need the authority to commit it.
type Committable interface {
	// Commit publishes every buffered write under version and consumes
	// the view; it must not be used again afterward.
	Commit(version uint64) er.R
}

// LeafStorage is the capability set a batch mutates through. One view is
// opened per batch and is exclusive to it.
type LeafStorage interface {
	Committable

	// StoreLeaf inserts leaf under leafId. Implementations may treat a
	// second store for the same id as an error or an idempotent replace;
	// this implementation replaces.
	StoreLeaf(leafId leafwire.LeafId, leaf leafwire.Leaf) er.R

	// GetLeaf performs a point lookup. found is false for unknown or
	// purged ids.
	GetLeaf(leafId leafwire.LeafId) (leaf leafwire.Leaf, found bool, err er.R)

	// GetLeafByIndexKey returns every currently-unpurged leaf bearing
	// indexKey, in unspecified order.
	GetLeafByIndexKey(indexKey leafwire.IndexKey) ([]LeafWithId, er.R)

	// IsLeafSpent reports whether leafId has been marked spent. The
	// Checker asks this directly rather than relying on GetLeaf's
	// absence, since a spent leaf still exists until purged.
	IsLeafSpent(leafId leafwire.LeafId) (bool, er.R)

	// MarkLeafAsSpent is idempotent: calling it twice on the same id has
	// the same effect as calling it once.
	MarkLeafAsSpent(leafId leafwire.LeafId) er.R

	// PurgeSpentLeaves erases every leaf marked spent at or before the
	// currently committed version.
	PurgeSpentLeaves() er.R

	// Discard abandons the view without publishing any buffered write.
	Discard() er.R
}

// Storage is the top-level handle a process holds; OpenLeafStorage grants
// exclusive per-batch access, RevertToVersion rolls back published state.
type Storage interface {
	// RevertToVersion removes every effect committed at a version greater
	// than version: produced leaves vanish, spent marks are lifted.
	RevertToVersion(version uint64) er.R

	// OpenLeafStorage opens a fresh view. Implementations MAY reject a
	// second concurrent open against the same underlying database.
	OpenLeafStorage() (LeafStorage, er.R)

	// Close releases the underlying database handle.
	Close() er.R
}
