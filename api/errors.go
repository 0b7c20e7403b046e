package api

import "github.com/pkt-cash/leafledger/er"

// APIError groups failures the HTTP layer itself raises, as opposed to
// failures bubbled up unchanged from runtime/checker/sandbox/leafdb.
var APIError = er.NewErrorType("APIError")

var (
	errBadRequest   = APIError.CodeWithDetail("BadRequest", "malformed batch submission")
	errUnauthorized = APIError.CodeWithDetail("Unauthorized", "missing or invalid macaroon")
	errRateLimited  = APIError.CodeWithDetail("RateLimited", "too many requests from this address")
)

// ErrBadRequest wraps a decode failure with detail.
func ErrBadRequest(detail string) er.R { return errBadRequest.New(detail, nil) }

// ErrUnauthorized is returned when the macaroon header is missing or
// fails verification.
func ErrUnauthorized() er.R { return errUnauthorized.Default() }

// ErrRateLimited is returned when a remote address exceeds its token
// bucket.
func ErrRateLimited() er.R { return errRateLimited.Default() }
