package runtime

import (
	"github.com/pkt-cash/leafledger/er"
	"github.com/pkt-cash/leafledger/leafwire"
)

// BatchError groups failures the Runtime itself raises, as opposed to
// failures bubbled up unchanged from checker/sandbox/leafdb.
var BatchError = er.NewErrorType("BatchError")

var (
	errEmptyBatch     = BatchError.CodeWithDetail("EmptyBatch", "batch contains no transactions")
	errScriptNotFound = BatchError.CodeWithDetail("ScriptNotFound", "no script leaf resolves to this owner address")
)

// ErrEmptyBatch is returned by RunBatch for a batch with zero transactions.
func ErrEmptyBatch() er.R { return errEmptyBatch.Default() }

// ErrScriptNotFound is returned when an input's owner address resolves to
// no known script leaf.
func ErrScriptNotFound(owner leafwire.Address) er.R {
	return errScriptNotFound.New("owner "+owner.String(), nil)
}
