// Package checker implements the batch transaction admission procedure:
// existence, intra-batch forward references, double-spend rejection, and
// operator collection. A TransactionChecker is single-use: construct a
// fresh one per batch.
package checker

import (
	"github.com/emirpasic/gods/maps/treemap"
	"github.com/emirpasic/gods/sets/treeset"

	"github.com/pkt-cash/leafledger/er"
	"github.com/pkt-cash/leafledger/leafdb"
	"github.com/pkt-cash/leafledger/ledgerlog"
	"github.com/pkt-cash/leafledger/leafwire"
)

var log = ledgerlog.New(ledgerlog.TagChecker)

func leafIdComparator(a, b interface{}) int {
	return a.(leafwire.LeafId).Compare(b.(leafwire.LeafId))
}

// OperatorReference pairs an operator leaf with the unsigned transaction
// whose input first referenced it, the form validate_operator must see.
type OperatorReference struct {
	Leaf     leafwire.Leaf
	Unsigned leafwire.UnsignedTransaction
}

// TransactionChecker carries three ordered collections across the
// transactions of one batch: a buffer of not-yet-durable output leaf ids,
// the leaf ids already consumed within the batch (from the buffer or from
// storage), and a map of the distinct operator leaves referenced so far.
type TransactionChecker struct {
	storage leafdb.LeafStorage

	bufferLeafIds     *treeset.Set
	usedBufferLeafIds *treeset.Set
	operators         *treemap.Map

	// producedLeaves backs bufferLeafIds with the actual output bodies so
	// a forward-referenced input can be filled immediately rather than
	// deferred to the caller.
	producedLeaves map[leafwire.LeafId]leafwire.Leaf
}

// New builds a fresh, empty TransactionChecker bound to storage for the
// storage-backed resolution steps of Check.
func New(storage leafdb.LeafStorage) *TransactionChecker {
	return &TransactionChecker{
		storage:           storage,
		bufferLeafIds:     treeset.NewWith(leafIdComparator),
		usedBufferLeafIds: treeset.NewWith(leafIdComparator),
		operators:         treemap.NewWith(leafIdComparator),
		producedLeaves:    make(map[leafwire.LeafId]leafwire.Leaf),
	}
}

// Operators returns the LeafId -> OperatorReference map collected so far,
// keyed by operator id and deduplicated to the transaction that first
// referenced each one. The Runtime reads this after the whole batch has
// been checked to drive validate_operator.
func (c *TransactionChecker) Operators() *treemap.Map {
	return c.operators
}

// Check runs the five-step admission procedure against one transaction
// and returns its FilledTransaction on success. Any
// failure aborts the whole batch; callers must discard the storage view
// without committing.
func (c *TransactionChecker) Check(tx leafwire.Transaction) (leafwire.FilledTransaction, er.R) {
	txid := tx.Unsigned.Hash()

	if len(tx.Unsigned.Inputs) != len(tx.Unlockers) {
		return leafwire.FilledTransaction{}, ErrInputLengthMismatch(txid)
	}

	// Outputs enter the buffer before any input is resolved, so a later
	// transaction in the batch may reference them; self-reference is
	// impossible since txid is unknowable before hashing.
	for i, out := range tx.Unsigned.Outputs {
		id := leafwire.LeafId{Txid: txid, Index: uint32(i)}
		c.bufferLeafIds.Add(id)
		c.producedLeaves[id] = out
	}

	inputs := make([]leafwire.Leaf, len(tx.Unsigned.Inputs))
	for i, id := range tx.Unsigned.Inputs {
		leaf, err := c.resolveInput(id, tx.Unsigned)
		if err != nil {
			return leafwire.FilledTransaction{}, err
		}
		inputs[i] = leaf
	}

	return leafwire.FilledTransaction{
		Inputs:    inputs,
		Unlockers: tx.Unlockers,
		Outputs:   tx.Unsigned.Outputs,
	}, nil
}

func (c *TransactionChecker) resolveInput(id leafwire.LeafId, unsigned leafwire.UnsignedTransaction) (leafwire.Leaf, er.R) {
	if c.usedBufferLeafIds.Contains(id) {
		return leafwire.Leaf{}, ErrDoubleSpendInBatch(id)
	}

	if c.bufferLeafIds.Contains(id) {
		c.usedBufferLeafIds.Add(id)
		leaf := c.producedLeaves[id]
		if err := c.collectOperator(leaf, unsigned); err != nil {
			return leafwire.Leaf{}, err
		}
		return leaf, nil
	}

	leaf, found, err := c.storage.GetLeaf(id)
	if err != nil {
		return leafwire.Leaf{}, err
	}
	if !found {
		return leafwire.Leaf{}, ErrInputNotFound(id)
	}
	spent, err := c.storage.IsLeafSpent(id)
	if err != nil {
		return leafwire.Leaf{}, err
	}
	if spent {
		return leafwire.Leaf{}, ErrInputNotFound(id)
	}

	c.usedBufferLeafIds.Add(id)
	if err := c.collectOperator(leaf, unsigned); err != nil {
		return leafwire.Leaf{}, err
	}
	return leaf, nil
}

// collectOperator resolves leaf's operator, if any, the first time it is
// referenced by a resolved input, and records it alongside unsigned, the
// form of the transaction that referenced it.
func (c *TransactionChecker) collectOperator(leaf leafwire.Leaf, unsigned leafwire.UnsignedTransaction) er.R {
	if !leaf.HasOperator() {
		return nil
	}
	opId := leaf.Operator
	if _, ok := c.operators.Get(opId); ok {
		return nil
	}
	if opLeaf, ok := c.producedLeaves[opId]; ok {
		c.operators.Put(opId, OperatorReference{Leaf: opLeaf, Unsigned: unsigned})
		return nil
	}
	opLeaf, found, err := c.storage.GetLeaf(opId)
	if err != nil {
		return err
	}
	if !found {
		return ErrOperatorNotFound(opId)
	}
	c.operators.Put(opId, OperatorReference{Leaf: opLeaf, Unsigned: unsigned})
	return nil
}
