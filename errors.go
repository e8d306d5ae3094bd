package cbkit

import (
	"errors"
	"fmt"

	gocb "github.com/couchbase/gocb/v2"
)

// Common errors
var (
	// ErrClosed is returned when operating on a closed client.
	ErrClosed = errors.New("client closed")

	// ErrTooManySubdocOps is returned when a lookup or mutate request
	// would exceed the server's 16-operation sub-document limit.
	ErrTooManySubdocOps = errors.New("sub-document request exceeds 16 operations")

	// ErrKeyTooLong is returned for keys longer than 250 bytes.
	ErrKeyTooLong = errors.New("key exceeds 250 bytes")

	// ErrKeyListTooLong is returned when a USE KEYS list would exceed the
	// server's ~1772-byte cap.
	ErrKeyListTooLong = errors.New("USE KEYS list exceeds server cap")
)

// Kind is a coarse classification of an SDK error, used for reporting and
// retry decisions. The taxonomy is the vendor SDK's; Classify only maps
// sentinel errors onto names.
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindExists
	KindCasMismatch
	KindTimeout
	KindParsing
	KindUnavailable
	KindAuth
	KindInvalidArgument
	KindPathNotFound
	KindTxnFailed
	KindTxnAmbiguous
	KindTxnExpired
)

// String returns the classification name.
func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "document_not_found"
	case KindExists:
		return "document_exists"
	case KindCasMismatch:
		return "cas_mismatch"
	case KindTimeout:
		return "timeout"
	case KindParsing:
		return "parsing_failure"
	case KindUnavailable:
		return "service_unavailable"
	case KindAuth:
		return "authentication_failure"
	case KindInvalidArgument:
		return "invalid_argument"
	case KindPathNotFound:
		return "path_not_found"
	case KindTxnFailed:
		return "transaction_failed"
	case KindTxnAmbiguous:
		return "transaction_commit_ambiguous"
	case KindTxnExpired:
		return "transaction_expired"
	default:
		return "unknown"
	}
}

// Classify maps an error returned by the SDK (or the kit) to a Kind.
func Classify(err error) Kind {
	if err == nil {
		return KindUnknown
	}

	var ambiguous *gocb.TransactionCommitAmbiguousError
	if errors.As(err, &ambiguous) {
		return KindTxnAmbiguous
	}
	var expired *gocb.TransactionExpiredError
	if errors.As(err, &expired) {
		return KindTxnExpired
	}
	var failed *gocb.TransactionFailedError
	if errors.As(err, &failed) {
		return KindTxnFailed
	}

	switch {
	case errors.Is(err, gocb.ErrDocumentNotFound):
		return KindNotFound
	case errors.Is(err, gocb.ErrDocumentExists):
		return KindExists
	case errors.Is(err, gocb.ErrCasMismatch):
		return KindCasMismatch
	case errors.Is(err, gocb.ErrTimeout):
		return KindTimeout
	case errors.Is(err, gocb.ErrParsingFailure):
		return KindParsing
	case errors.Is(err, gocb.ErrServiceNotAvailable),
		errors.Is(err, gocb.ErrTemporaryFailure):
		return KindUnavailable
	case errors.Is(err, gocb.ErrAuthenticationFailure):
		return KindAuth
	case errors.Is(err, gocb.ErrInvalidArgument),
		errors.Is(err, ErrTooManySubdocOps),
		errors.Is(err, ErrKeyTooLong),
		errors.Is(err, ErrKeyListTooLong):
		return KindInvalidArgument
	case errors.Is(err, gocb.ErrPathNotFound):
		return KindPathNotFound
	default:
		return KindUnknown
	}
}

// IsTransient reports whether an error is worth retrying: timeouts and
// temporary service failures. Not-found, exists, CAS mismatch and syntax
// errors are never transient.
func IsTransient(err error) bool {
	switch Classify(err) {
	case KindTimeout, KindUnavailable:
		return true
	default:
		return false
	}
}

// OpError wraps an SDK error with the operation and key it occurred on.
type OpError struct {
	Op  string
	Key string
	Err error
}

func (e *OpError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("cbkit %s %q: %v", e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("cbkit %s: %v", e.Op, e.Err)
}

func (e *OpError) Unwrap() error {
	return e.Err
}

// ConnectionError represents a failure to reach the cluster.
type ConnectionError struct {
	Endpoint string
	Err      error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("failed to connect to %s: %v", e.Endpoint, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}
