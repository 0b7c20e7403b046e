package leafdb

import "github.com/pkt-cash/leafledger/er"

// StorageError is the ErrorType every leafdb failure is declared under:
// NotFound, Conflict, IoBacked, or NonMonotonicVersion (leaf_view.go).
var StorageError = er.NewErrorType("StorageError")

var (
	// ErrNotFound is returned by operations that require an existing
	// leaf or bucket and don't find one.
	ErrNotFound = StorageError.CodeWithDetail("NotFound", "leaf not found")

	// ErrConflict is returned when two views attempt to mutate the same
	// underlying database concurrently.
	ErrConflict = StorageError.CodeWithDetail("Conflict", "conflicting storage view already open")

	// ErrIoBacked wraps an I/O failure from the underlying engine; the
	// original error is available via errors.Unwrap/er.R.Unwrap.
	ErrIoBacked = StorageError.CodeWithDetail("IoBacked", "storage I/O failure")
)

func ioErr(cause error) er.R {
	return ErrIoBacked.New(cause.Error(), cause)
}
