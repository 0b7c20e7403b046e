// Package runtime orchestrates one batch end to end: open a storage view,
// run the Checker over every transaction, run the Sandbox over every
// unlocker and every distinct operator, then commit.
package runtime

import (
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pkt-cash/leafledger/checker"
	"github.com/pkt-cash/leafledger/er"
	"github.com/pkt-cash/leafledger/leafdb"
	"github.com/pkt-cash/leafledger/ledgerlog"
	"github.com/pkt-cash/leafledger/leafwire"
	"github.com/pkt-cash/leafledger/sandbox"
)

var log = ledgerlog.New(ledgerlog.TagRuntime)

// Runtime binds a durable Storage to a script Executor and drives batches
// against them.
type Runtime struct {
	storage  leafdb.Storage
	executor *sandbox.Executor
}

// New builds a Runtime over storage and executor, both of which it treats
// as already-initialized, process-wide collaborators.
func New(storage leafdb.Storage, executor *sandbox.Executor) *Runtime {
	return &Runtime{storage: storage, executor: executor}
}

// RunBatch checks, validates, and commits transactions as a single unit,
// committing every output and spend under version on success or
// discarding the view entirely on any failure: either everything in the
// batch lands at version V, or nothing does.
func (r *Runtime) RunBatch(transactions []leafwire.Transaction, version uint64) er.R {
	if len(transactions) == 0 {
		return ErrEmptyBatch()
	}

	start := time.Now()
	batchesTotal.Inc()
	defer func() { batchSeconds.Observe(time.Since(start).Seconds()) }()

	view, err := r.storage.OpenLeafStorage()
	if err != nil {
		batchesFailedTotal.Inc()
		return err
	}
	ok := false
	defer func() {
		if !ok {
			if discarder, can := view.(interface{ Discard() er.R }); can {
				if derr := discarder.Discard(); derr != nil {
					log.Errorf("failed to discard storage view after failed batch: %v", derr)
				}
			}
		}
	}()

	c := checker.New(view)
	filled := make([]leafwire.FilledTransaction, 0, len(transactions))
	ids := make([]leafwire.Txid, 0, len(transactions))
	for _, tx := range transactions {
		f, cerr := c.Check(tx)
		if cerr != nil {
			batchesFailedTotal.Inc()
			return cerr
		}
		filled = append(filled, f)
		ids = append(ids, tx.Unsigned.Hash())
	}

	if err := r.validateScripts(view, filled, transactions); err != nil {
		batchesFailedTotal.Inc()
		return err
	}

	if err := r.validateOperators(c); err != nil {
		batchesFailedTotal.Inc()
		return err
	}

	if err := r.writeResults(view, filled, transactions, ids); err != nil {
		batchesFailedTotal.Inc()
		return err
	}

	if err := view.Commit(version); err != nil {
		batchesFailedTotal.Inc()
		return err
	}
	ok = true
	log.Infof("committed batch of %d transactions at version %d", len(transactions), version)
	return nil
}

// validateScripts runs validate_script for every input of every
// transaction. Distinct inputs have no mutual ordering requirement and
// may run in parallel, so each transaction's inputs fan out through an
// errgroup.
func (r *Runtime) validateScripts(view leafdb.LeafStorage, filled []leafwire.FilledTransaction, transactions []leafwire.Transaction) er.R {
	for ti, f := range filled {
		unsigned := transactions[ti].Unsigned
		var group errgroup.Group
		for i := range f.Inputs {
			i := i
			input := f.Inputs[i]
			unlocker := f.Unlockers[i]
			inputId := unsigned.Inputs[i]
			group.Go(func() error {
				script, derr := r.resolveScript(view, input.Owner)
				if derr != nil {
					return derr
				}
				if verr := r.executor.ValidateScript(script, unsigned, unlocker, inputId); verr != nil {
					return verr
				}
				return nil
			})
		}
		if err := group.Wait(); err != nil {
			return er.E(err)
		}
	}
	return nil
}

// resolveScript finds the unique Script whose derived address equals
// owner by looking up script-carrying leaves indexed under
// AddressIndexKey(owner) and decoding candidates until one actually
// hashes to owner.
func (r *Runtime) resolveScript(view leafdb.LeafStorage, owner leafwire.Address) (leafwire.Script, er.R) {
	candidates, err := view.GetLeafByIndexKey(leafwire.AddressIndexKey(owner))
	if err != nil {
		return leafwire.Script{}, err
	}
	for _, candidate := range candidates {
		script, derr := leafwire.DecodeScript(candidate.Leaf.Data)
		if derr != nil {
			continue
		}
		if script.Address() == owner {
			return script, nil
		}
	}
	return leafwire.Script{}, ErrScriptNotFound(owner)
}

// validateOperators runs validate_operator exactly once per distinct
// operator LeafId collected by the checker across the whole batch, each
// against the unsigned form of the transaction that first referenced it.
func (r *Runtime) validateOperators(c *checker.TransactionChecker) er.R {
	ops := c.Operators()
	keys := ops.Keys()
	if len(keys) == 0 {
		return nil
	}

	var group errgroup.Group
	for _, k := range keys {
		k := k
		opId := k.(leafwire.LeafId)
		v, _ := ops.Get(opId)
		ref := v.(checker.OperatorReference)
		group.Go(func() error {
			return er.AsStd(r.executor.ValidateOperator(ref.Leaf.Data, opId, ref.Unsigned))
		})
	}
	if err := group.Wait(); err != nil {
		return er.E(err)
	}
	return nil
}

// writeResults stores every output leaf and marks every input leaf spent.
func (r *Runtime) writeResults(view leafdb.LeafStorage, filled []leafwire.FilledTransaction, transactions []leafwire.Transaction, ids []leafwire.Txid) er.R {
	for ti, f := range filled {
		txid := ids[ti]
		for i, out := range f.Outputs {
			leafId := leafwire.LeafId{Txid: txid, Index: uint32(i)}
			if err := view.StoreLeaf(leafId, out); err != nil {
				return err
			}
		}
		for _, inputId := range transactions[ti].Unsigned.Inputs {
			if err := view.MarkLeafAsSpent(inputId); err != nil {
				return err
			}
		}
	}
	return nil
}
