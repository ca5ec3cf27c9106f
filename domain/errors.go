package domain

import (
	"errors"
	"fmt"
)

// ErrNoChanges is returned by pull-request gateways when the forge rejects
// a pull request because the working branch has no commits beyond the base.
var ErrNoChanges = errors.New("no changes between branches")

// ExtractionErrorKind classifies extraction failures.
type ExtractionErrorKind string

const (
	ExtractionNotFound          ExtractionErrorKind = "not_found"
	ExtractionMalformedDocument ExtractionErrorKind = "malformed_document"
)

// ExtractionError reports a failed placeholder extraction. NotFound is
// recoverable (substituted as the empty string); MalformedDocument escalates
// to a hard failure for the repository.
type ExtractionError struct {
	Kind   ExtractionErrorKind
	Detail string
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction %s: %s", e.Kind, e.Detail)
}

// NewExtractionNotFound builds a NotFound extraction error.
func NewExtractionNotFound(format string, args ...any) *ExtractionError {
	return &ExtractionError{Kind: ExtractionNotFound, Detail: fmt.Sprintf(format, args...)}
}

// NewMalformedDocument builds a MalformedDocument extraction error.
func NewMalformedDocument(format string, args ...any) *ExtractionError {
	return &ExtractionError{Kind: ExtractionMalformedDocument, Detail: fmt.Sprintf(format, args...)}
}

// IsExtractionNotFound reports whether err is a NotFound extraction error.
func IsExtractionNotFound(err error) bool {
	var ee *ExtractionError
	return errors.As(err, &ee) && ee.Kind == ExtractionNotFound
}

// IsMalformedDocument reports whether err is a MalformedDocument extraction error.
func IsMalformedDocument(err error) bool {
	var ee *ExtractionError
	return errors.As(err, &ee) && ee.Kind == ExtractionMalformedDocument
}

// HardFailure aborts one repository's placeholder resolution. It is fatal
// for that repository's entire action, never for the batch.
type HardFailure struct {
	Placeholder string
	Err         error
}

func (e *HardFailure) Error() string {
	return fmt.Sprintf("placeholder %q: %v", e.Placeholder, e.Err)
}

func (e *HardFailure) Unwrap() error { return e.Err }

// AsHardFailure extracts a HardFailure from an error chain.
func AsHardFailure(err error) (*HardFailure, bool) {
	var hf *HardFailure
	ok := errors.As(err, &hf)
	return hf, ok
}

// GatewayErrorKind classifies forge gateway failures.
type GatewayErrorKind string

const (
	GatewayNotFound         GatewayErrorKind = "not_found"
	GatewayPermissionDenied GatewayErrorKind = "permission_denied"
	GatewayRateLimited      GatewayErrorKind = "rate_limited"
	GatewayConflict         GatewayErrorKind = "conflict"
	GatewayTimeout          GatewayErrorKind = "timeout"
	GatewayUnknown          GatewayErrorKind = "unknown"
)

// GatewayError wraps a forge API failure with its classification and the
// operation that raised it.
type GatewayError struct {
	Kind GatewayErrorKind
	Op   string
	Err  error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *GatewayError) Unwrap() error { return e.Err }

// NewGatewayError builds a classified gateway error.
func NewGatewayError(kind GatewayErrorKind, op string, err error) *GatewayError {
	return &GatewayError{Kind: kind, Op: op, Err: err}
}

// AsGatewayError extracts a GatewayError from an error chain.
func AsGatewayError(err error) (*GatewayError, bool) {
	var ge *GatewayError
	ok := errors.As(err, &ge)
	return ge, ok
}

// IsGatewayKind reports whether err is a gateway error of the given kind.
func IsGatewayKind(err error, kind GatewayErrorKind) bool {
	ge, ok := AsGatewayError(err)
	return ok && ge.Kind == kind
}

// IsRateLimited reports whether err is a rate-limit gateway error.
func IsRateLimited(err error) bool {
	return IsGatewayKind(err, GatewayRateLimited)
}

// IsGatewayNotFound reports whether err is a not-found gateway error.
func IsGatewayNotFound(err error) bool {
	return IsGatewayKind(err, GatewayNotFound)
}
