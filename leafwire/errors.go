package leafwire

import (
	"fmt"

	"github.com/pkt-cash/leafledger/er"
)

// CodecError is the ErrorType every length-mismatch failure in this
// package is declared under.
var CodecError = er.NewErrorType("CodecError")

var (
	errWrongLengthForLeafId        = CodecError.CodeWithDetail("WrongLengthForLeafId", "wrong length for leaf id")
	errWrongLengthForFixedBytes    = CodecError.CodeWithDetail("WrongLengthForFixedBytes", "wrong length for fixed bytes")
	errWrongLengthForLeaf          = CodecError.CodeWithDetail("WrongLengthForLeaf", "wrong length for leaf")
	errWrongLengthForTx            = CodecError.CodeWithDetail("WrongLengthForTx", "wrong length for tx")
	errWrongLengthForScript        = CodecError.CodeWithDetail("WrongLengthForScript", "wrong length for script")
	errWrongLengthForUnlockScript  = CodecError.CodeWithDetail("WrongLengthForUnlockScript", "wrong length for unlock script")
)

// lengthErr renders the "actual, expected" pair shared by every
// WrongLengthFor* variant.
func lengthErr(code *er.ErrorCode, actual, expected int) er.R {
	return code.New(fmt.Sprintf("actual %d, expected %d", actual, expected), nil)
}

// ErrWrongLengthForLeafId builds the WrongLengthForLeafId error.
func ErrWrongLengthForLeafId(actual, expected int) er.R {
	return lengthErr(errWrongLengthForLeafId, actual, expected)
}

// ErrWrongLengthForFixedBytes builds the WrongLengthForFixedBytes error.
func ErrWrongLengthForFixedBytes(actual, expected int) er.R {
	return lengthErr(errWrongLengthForFixedBytes, actual, expected)
}

// ErrWrongLengthForLeaf builds the WrongLengthForLeaf error.
func ErrWrongLengthForLeaf(actual, expected int) er.R {
	return lengthErr(errWrongLengthForLeaf, actual, expected)
}

// ErrWrongLengthForTx builds the WrongLengthForTx error.
func ErrWrongLengthForTx(actual, expected int) er.R {
	return lengthErr(errWrongLengthForTx, actual, expected)
}

// ErrWrongLengthForScript builds the WrongLengthForScript error.
func ErrWrongLengthForScript(actual, expected int) er.R {
	return lengthErr(errWrongLengthForScript, actual, expected)
}

// ErrWrongLengthForUnlockScript builds the WrongLengthForUnlockScript error.
func ErrWrongLengthForUnlockScript(actual, expected int) er.R {
	return lengthErr(errWrongLengthForUnlockScript, actual, expected)
}

// IsWrongLengthForLeafId reports whether err is a WrongLengthForLeafId failure.
func IsWrongLengthForLeafId(err er.R) bool { return errWrongLengthForLeafId.Is(err) }

// IsWrongLengthForFixedBytes reports whether err is a WrongLengthForFixedBytes failure.
func IsWrongLengthForFixedBytes(err er.R) bool { return errWrongLengthForFixedBytes.Is(err) }

// IsWrongLengthForLeaf reports whether err is a WrongLengthForLeaf failure.
func IsWrongLengthForLeaf(err er.R) bool { return errWrongLengthForLeaf.Is(err) }

// IsWrongLengthForTx reports whether err is a WrongLengthForTx failure.
func IsWrongLengthForTx(err er.R) bool { return errWrongLengthForTx.Is(err) }

// IsWrongLengthForScript reports whether err is a WrongLengthForScript failure.
func IsWrongLengthForScript(err er.R) bool { return errWrongLengthForScript.Is(err) }

// IsWrongLengthForUnlockScript reports whether err is a WrongLengthForUnlockScript failure.
func IsWrongLengthForUnlockScript(err er.R) bool { return errWrongLengthForUnlockScript.Is(err) }
