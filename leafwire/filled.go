package leafwire

// FilledTransaction is the Checker's output: a Transaction whose inputs
// have been resolved to full Leaves, either from the batch's own buffer
// or from durable storage.
type FilledTransaction struct {
	Inputs    []Leaf
	Unlockers [][]byte
	Outputs   []Leaf
}
