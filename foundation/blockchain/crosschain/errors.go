package crosschain

import "errors"

// Kinds of failure. Every error returned by this package matches exactly
// one of these with errors.Is.
var (
	// ErrNotFound means a transaction, block, checkpoint or anchor is absent.
	// A caller may retry after the chains progress.
	ErrNotFound = errors.New("not found")

	// ErrDataUnavailable means data exists but cannot be read, such as a
	// pruned block body or a view invalidated by a reorg.
	ErrDataUnavailable = errors.New("data unavailable")

	// ErrMalformedInput means an upstream payload could not be parsed and
	// should be rejected outright.
	ErrMalformedInput = errors.New("malformed input")

	// ErrProofIntegrity means a merkle verification did not match. A proof
	// failing its own self-check is never handed to a caller.
	ErrProofIntegrity = errors.New("proof integrity")

	// ErrWindowMismatch means the notarization windows of the chains are out
	// of sync, or the proof is stale or forged.
	ErrWindowMismatch = errors.New("window mismatch")
)

// Set of specific failures.
var (
	ErrTransactionNotFound      = newError(ErrNotFound, "transaction not found")
	ErrBlockNotFound            = newError(ErrNotFound, "block not found")
	ErrNotarizationNotFound     = newError(ErrNotFound, "notarization not found")
	ErrTransactionNotInBlock    = newError(ErrNotFound, "transaction not located in block")
	ErrAnchorNotFound           = newError(ErrNotFound, "anchor notarization not found")
	ErrBackNotarizationNotFound = newError(ErrNotFound, "back notarization not found")
	ErrNoFurtherNotarization    = newError(ErrNotFound, "no further notarization")

	ErrBlockDataUnavailable = newError(ErrDataUnavailable, "block data not available")
	ErrStaleView            = newError(ErrDataUnavailable, "chain reorganized during read")

	ErrMalformedImportTransaction = newError(ErrMalformedInput, "malformed import transaction")
	ErrMalformedBurnTransaction   = newError(ErrMalformedInput, "malformed burn transaction")
	ErrMalformedProof             = newError(ErrMalformedInput, "malformed proof")

	ErrBlockMoMMismatch      = newError(ErrProofIntegrity, "failed merkle block->MoM")
	ErrTxBlockMismatch       = newError(ErrProofIntegrity, "failed merkle tx->block")
	ErrProofValidationFailed = newError(ErrProofIntegrity, "failed validating MoM")
	ErrProofCheckFailed      = newError(ErrProofIntegrity, "proof check failed")
	ErrPayoutsMismatch       = newError(ErrProofIntegrity, "payouts do not match burn")

	ErrNoMomsFound    = newError(ErrWindowMismatch, "no MoMs found")
	ErrMomNotInWindow = newError(ErrWindowMismatch, "MoM not within MoMoM set")
	ErrWrongTarget    = newError(ErrWindowMismatch, "burn targets a different chain")
)

// =============================================================================

// kindError is a specific failure that unwraps to its kind.
type kindError struct {
	kind error
	msg  string
}

func newError(kind error, msg string) error {
	return &kindError{kind: kind, msg: msg}
}

// Error implements the error interface.
func (ke *kindError) Error() string {
	return ke.msg
}

// Unwrap returns the kind of the failure.
func (ke *kindError) Unwrap() error {
	return ke.kind
}

// Kind returns the kind the error belongs to, or nil if the error did not
// come from this package.
func Kind(err error) error {
	for _, kind := range []error{ErrNotFound, ErrDataUnavailable, ErrMalformedInput, ErrProofIntegrity, ErrWindowMismatch} {
		if errors.Is(err, kind) {
			return kind
		}
	}

	return nil
}
