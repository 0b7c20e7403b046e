package runtime_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/pkt-cash/leafledger/checker"
	"github.com/pkt-cash/leafledger/leafdb"
	"github.com/pkt-cash/leafledger/leafwire"
	"github.com/pkt-cash/leafledger/runtime"
	"github.com/pkt-cash/leafledger/sandbox"
)

// passingModule is (module (func (export "_entry") (result i32) i32.const 0)),
// the same minimal fixture sandbox's own tests use.
var passingModule = []byte{
	0x00, 0x61, 0x73, 0x6D, 0x01, 0x00, 0x00, 0x00,
	0x01, 0x05, 0x01, 0x60, 0x00, 0x01, 0x7F,
	0x03, 0x02, 0x01, 0x00,
	0x07, 0x0A, 0x01, 0x06, 0x5F, 0x65, 0x6E, 0x74, 0x72, 0x79, 0x00, 0x00,
	0x0A, 0x06, 0x01, 0x04, 0x00, 0x41, 0x00, 0x0B,
}

func newScenarioRuntime() (*runtime.Runtime, *leafdb.BoltStorage, leafwire.Script) {
	dir := GinkgoT().TempDir()

	store, err := leafdb.OpenBoltStorage(filepath.Join(dir, "leaves.db"))
	Expect(err).To(BeNil())
	GinkgoT().Cleanup(func() { _ = store.Close() })

	cfgPath := filepath.Join(dir, "wasmtime-cache.toml")
	Expect(writeCacheConfig(cfgPath)).To(Succeed())
	exec, serr := sandbox.NewExecutor(sandbox.Config{ConfigPath: cfgPath}, dir)
	Expect(serr).To(BeNil())

	script := leafwire.Script{Version: 1, Type: leafwire.ScriptWasm, Code: passingModule}

	view, verr := store.OpenLeafStorage()
	Expect(verr).To(BeNil())
	scriptLeafId := leafwire.LeafId{Index: 0}
	scriptLeafId.Txid[0] = 0xF0
	scriptLeaf := leafwire.Leaf{
		Version:  1,
		IndexKey: leafwire.AddressIndexKey(script.Address()),
		Data:     leafwire.EncodeScript(script),
	}
	Expect(view.StoreLeaf(scriptLeafId, scriptLeaf)).To(BeNil())
	Expect(view.Commit(1)).To(BeNil())

	return runtime.New(store, exec), store, script
}

func spendableLeaf(owner leafwire.Address) leafwire.Leaf {
	return leafwire.Leaf{Version: 1, Owner: owner}
}

var _ = Describe("Runtime batch orchestration", func() {
	It("admits a forward reference within a batch without consulting storage for it (S4)", func() {
		rt, store, script := newScenarioRuntime()

		producer := leafwire.Transaction{
			Unsigned: leafwire.UnsignedTransaction{
				Version: 1,
				Nonce:   1,
				Outputs: []leafwire.Leaf{spendableLeaf(script.Address())},
			},
			Unlockers: nil,
		}
		producerTxid := producer.Unsigned.Hash()
		producedId := leafwire.LeafId{Txid: producerTxid, Index: 0}

		consumer := leafwire.Transaction{
			Unsigned: leafwire.UnsignedTransaction{
				Version: 1,
				Nonce:   2,
				Inputs:  []leafwire.LeafId{producedId},
			},
			Unlockers: [][]byte{{}},
		}

		err := rt.RunBatch([]leafwire.Transaction{producer, consumer}, 2)
		Expect(err).To(BeNil())

		view, verr := store.OpenLeafStorage()
		Expect(verr).To(BeNil())
		defer view.Discard()

		_, found, gerr := view.GetLeaf(producedId)
		Expect(gerr).To(BeNil())
		Expect(found).To(BeTrue())

		spent, serr := view.IsLeafSpent(producedId)
		Expect(serr).To(BeNil())
		Expect(spent).To(BeTrue())
	})

	It("rejects a double spend across a batch and leaves storage unchanged (S5)", func() {
		rt, store, script := newScenarioRuntime()

		preId := leafwire.LeafId{Index: 0}
		preId.Txid[0] = 0xAB
		seedView, serr := store.OpenLeafStorage()
		Expect(serr).To(BeNil())
		Expect(seedView.StoreLeaf(preId, spendableLeaf(script.Address()))).To(BeNil())
		Expect(seedView.Commit(2)).To(BeNil())

		txA := leafwire.Transaction{
			Unsigned:  leafwire.UnsignedTransaction{Version: 1, Nonce: 10, Inputs: []leafwire.LeafId{preId}},
			Unlockers: [][]byte{{}},
		}
		txB := leafwire.Transaction{
			Unsigned:  leafwire.UnsignedTransaction{Version: 1, Nonce: 11, Inputs: []leafwire.LeafId{preId}},
			Unlockers: [][]byte{{}},
		}

		err := rt.RunBatch([]leafwire.Transaction{txA, txB}, 3)
		Expect(err).NotTo(BeNil())
		Expect(checker.IsDoubleSpendInBatch(err)).To(BeTrue())

		view, verr := store.OpenLeafStorage()
		Expect(verr).To(BeNil())
		defer view.Discard()
		spent, ierr := view.IsLeafSpent(preId)
		Expect(ierr).To(BeNil())
		Expect(spent).To(BeFalse(), "a failed batch must not leave any partial effect durable")
	})

	It("validates an operator referenced by a non-last transaction in the batch", func() {
		rt, store, script := newScenarioRuntime()

		opId := leafwire.LeafId{Index: 0}
		opId.Txid[0] = 0x77
		seedView, serr := store.OpenLeafStorage()
		Expect(serr).To(BeNil())
		Expect(seedView.StoreLeaf(opId, leafwire.Leaf{Version: 1, Data: passingModule})).To(BeNil())

		guardedId := leafwire.LeafId{Index: 0}
		guardedId.Txid[0] = 0x88
		guardedLeaf := spendableLeaf(script.Address())
		guardedLeaf.Operator = opId
		Expect(seedView.StoreLeaf(guardedId, guardedLeaf)).To(BeNil())
		Expect(seedView.Commit(4)).To(BeNil())

		// txA, the first transaction in the batch, is the one that
		// references the operator; txB is unrelated and comes last.
		txA := leafwire.Transaction{
			Unsigned:  leafwire.UnsignedTransaction{Version: 1, Nonce: 20, Inputs: []leafwire.LeafId{guardedId}},
			Unlockers: [][]byte{{}},
		}
		txB := leafwire.Transaction{
			Unsigned: leafwire.UnsignedTransaction{
				Version: 1,
				Nonce:   21,
				Outputs: []leafwire.Leaf{spendableLeaf(script.Address())},
			},
			Unlockers: nil,
		}

		err := rt.RunBatch([]leafwire.Transaction{txA, txB}, 5)
		Expect(err).To(BeNil())

		view, verr := store.OpenLeafStorage()
		Expect(verr).To(BeNil())
		defer view.Discard()
		spent, ierr := view.IsLeafSpent(guardedId)
		Expect(ierr).To(BeNil())
		Expect(spent).To(BeTrue())
	})
})

func writeCacheConfig(path string) error {
	return os.WriteFile(path, []byte("[cache]\nenabled = false\n"), 0600)
}
