package checker

import (
	"github.com/pkt-cash/leafledger/er"
	"github.com/pkt-cash/leafledger/leafwire"
)

// CheckerError is the ErrorType every Check failure is declared under.
var CheckerError = er.NewErrorType("CheckerError")

var (
	errInputLengthMismatch = CheckerError.CodeWithDetail("InputLengthMismatch", "input count does not match unlocker count")
	errDoubleSpendInBatch  = CheckerError.CodeWithDetail("DoubleSpendInBatch", "leaf id already consumed earlier in this batch")
	errInputNotFound       = CheckerError.CodeWithDetail("InputNotFound", "input leaf not found or already spent")
	errOperatorNotFound    = CheckerError.CodeWithDetail("OperatorNotFound", "operator leaf not found")
)

// ErrInputLengthMismatch builds the InputLengthMismatch(txid) error.
func ErrInputLengthMismatch(txid leafwire.Txid) er.R {
	return errInputLengthMismatch.New("txid "+txid.String(), nil)
}

// ErrDoubleSpendInBatch builds the DoubleSpendInBatch(leaf_id) error.
func ErrDoubleSpendInBatch(leafId leafwire.LeafId) er.R {
	return errDoubleSpendInBatch.New("leaf "+leafId.String(), nil)
}

// ErrInputNotFound builds the InputNotFound(leaf_id) error. It is also
// returned for an input that resolves in storage but is already marked
// spent: spent is treated the same as absent from the Checker's point
// of view.
func ErrInputNotFound(leafId leafwire.LeafId) er.R {
	return errInputNotFound.New("leaf "+leafId.String(), nil)
}

// ErrOperatorNotFound builds the OperatorNotFound(leaf_id) error.
func ErrOperatorNotFound(leafId leafwire.LeafId) er.R {
	return errOperatorNotFound.New("leaf "+leafId.String(), nil)
}

// IsInputLengthMismatch reports whether err is an InputLengthMismatch failure.
func IsInputLengthMismatch(err er.R) bool { return errInputLengthMismatch.Is(err) }

// IsDoubleSpendInBatch reports whether err is a DoubleSpendInBatch failure.
func IsDoubleSpendInBatch(err er.R) bool { return errDoubleSpendInBatch.Is(err) }

// IsInputNotFound reports whether err is an InputNotFound failure.
func IsInputNotFound(err er.R) bool { return errInputNotFound.Is(err) }

// IsOperatorNotFound reports whether err is an OperatorNotFound failure.
func IsOperatorNotFound(err er.R) bool { return errOperatorNotFound.Is(err) }
