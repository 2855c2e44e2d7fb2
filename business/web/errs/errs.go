// Package errs provides types and support related to web v1 functionality.
package errs

import (
	"errors"
	"net/http"

	"github.com/ardanlabs/chainrelay/foundation/blockchain/crosschain"
)

// Response is the form used for API responses from failures in the API.
type Response struct {
	Error     string            `json:"error"`
	Kind      string            `json:"kind,omitempty"`
	Retryable bool              `json:"retryable,omitempty"`
	Fields    map[string]string `json:"fields,omitempty"`
}

// Trusted is used to pass an error during the request through the
// application with web specific context.
type Trusted struct {
	Err    error
	Status int
}

// NewTrusted wraps a provided error with an HTTP status code. This
// function should be used when handlers encounter expected errors.
func NewTrusted(err error, status int) error {
	return &Trusted{err, status}
}

// Error implements the error interface. It uses the default message of the
// wrapped error. This is what will be shown in the services' logs.
func (re *Trusted) Error() string {
	return re.Err.Error()
}

// Unwrap returns the wrapped error.
func (re *Trusted) Unwrap() error {
	return re.Err
}

// IsTrusted checks if an error of type RequestError exists.
func IsTrusted(err error) bool {
	var re *Trusted
	return errors.As(err, &re)
}

// GetTrusted returns a copy of the RequestError pointer.
func GetTrusted(err error) *Trusted {
	var re *Trusted
	if !errors.As(err, &re) {
		return nil
	}
	return re
}

// =============================================================================

// kinds maps each crosschain failure kind to the status returned to clients.
var kinds = map[error]int{
	crosschain.ErrNotFound:        http.StatusNotFound,
	crosschain.ErrWindowMismatch:  http.StatusConflict,
	crosschain.ErrMalformedInput:  http.StatusBadRequest,
	crosschain.ErrProofIntegrity:  http.StatusUnprocessableEntity,
	crosschain.ErrDataUnavailable: http.StatusServiceUnavailable,
}

// FromKind converts a crosschain failure into a trusted error carrying the
// status for its kind. It returns nil when the error has no kind.
func FromKind(err error) *Trusted {
	kind := crosschain.Kind(err)
	if kind == nil {
		return nil
	}

	return &Trusted{Err: err, Status: kinds[kind]}
}

// KindName returns the name of the failure kind, or an empty string.
func KindName(err error) string {
	kind := crosschain.Kind(err)
	if kind == nil {
		return ""
	}
	return kind.Error()
}

// Retryable reports whether the failure may succeed later once the chains
// have progressed.
func Retryable(err error) bool {
	return errors.Is(err, crosschain.ErrNotFound) || errors.Is(err, crosschain.ErrWindowMismatch)
}
