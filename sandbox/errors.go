package sandbox

import "github.com/pkt-cash/leafledger/er"

// SandboxError is the ErrorType every script/operator evaluation failure
// is declared under.
var SandboxError = er.NewErrorType("SandboxError")

var (
	errCompileFailed     = SandboxError.CodeWithDetail("CompileFailed", "failed to compile guest module")
	errTrapped           = SandboxError.CodeWithDetail("Trapped", "guest module trapped or returned non-zero")
	errMissingEntryPoint = SandboxError.CodeWithDetail("MissingEntryPoint", "guest module has no _entry export")
	errEngineInit        = SandboxError.CodeWithDetail("EngineInit", "sandbox engine failed to initialize")
)

// ErrCompileFailed wraps a module compilation failure with cause.
func ErrCompileFailed(cause error) er.R {
	return errCompileFailed.New(cause.Error(), cause)
}

// ErrTrapped reports a guest trap or non-zero _entry return, tagged with
// the input or operator leaf id that was being evaluated.
func ErrTrapped(detail string, cause error) er.R {
	if cause != nil {
		return errTrapped.New(detail, cause)
	}
	return errTrapped.New(detail, nil)
}

// ErrMissingEntryPoint reports a guest module with no _entry export.
func ErrMissingEntryPoint(detail string) er.R {
	return errMissingEntryPoint.New(detail, nil)
}

// ErrEngineInit wraps an engine construction failure; this is fatal to
// the process.
func ErrEngineInit(cause error) er.R {
	return errEngineInit.New(cause.Error(), cause)
}

// IsCompileFailed reports whether err is a CompileFailed failure.
func IsCompileFailed(err er.R) bool { return errCompileFailed.Is(err) }

// IsTrapped reports whether err is a Trapped failure.
func IsTrapped(err er.R) bool { return errTrapped.Is(err) }

// IsMissingEntryPoint reports whether err is a MissingEntryPoint failure.
func IsMissingEntryPoint(err er.R) bool { return errMissingEntryPoint.Is(err) }

// IsEngineInit reports whether err is an EngineInit failure.
func IsEngineInit(err er.R) bool { return errEngineInit.Is(err) }
