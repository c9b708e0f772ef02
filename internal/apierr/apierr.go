package apierr

import (
	"errors"
	"net/http"

	"github.com/repomind/repomind/internal/gateway"
)

// Kind is the user-facing failure taxonomy. Chat and review share one
// classifier so the same failure always renders the same text no
// matter which feature hit it.
type Kind int

const (
	Unknown Kind = iota
	Unauthenticated
	NotFound
	ServerRejected
	NetworkUnreachable

	// Core-local conditions, never produced by transport classification
	MissingContext
	ConcurrentOperationRejected
)

func (k Kind) String() string {
	switch k {
	case Unauthenticated:
		return "unauthenticated"
	case NotFound:
		return "not_found"
	case ServerRejected:
		return "server_rejected"
	case NetworkUnreachable:
		return "network_unreachable"
	case MissingContext:
		return "missing_context"
	case ConcurrentOperationRejected:
		return "concurrent_operation_rejected"
	default:
		return "unknown"
	}
}

// Stable user-facing messages, one per kind. The unauthenticated text
// is fixed and never taken from the server body: a 401 response may
// not carry a structured body at all.
const (
	msgUnauthenticated = "Authentication required. Please login with GitHub."
	msgNotFound        = "The requested resource was not found."
	msgServerRejected  = "The RepoMind service rejected the request. Please try again."
	msgNetwork         = "Unable to reach the RepoMind service. Please check your connection."
	msgUnknown         = "Something went wrong. Please try again."
	msgMissingContext  = "No repository selected. Run 'repomind repo select' first."
	msgConcurrent      = "Another request is still in progress. Wait for it to finish."
)

// Error is a classified failure: a taxonomy kind plus the stable
// human-readable message to render for it.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

// ErrMissingContext is returned when a repository context is required
// but absent. Callers must redirect to repository selection instead of
// issuing a doomed request.
var ErrMissingContext = &Error{Kind: MissingContext, Message: msgMissingContext}

// ErrConcurrentOperation is returned when a second turn or trigger is
// attempted while one is already in flight.
var ErrConcurrentOperation = &Error{Kind: ConcurrentOperationRejected, Message: msgConcurrent}

// NotFoundError builds a NotFound failure with a context-specific
// message, e.g. an empty review result set.
func NotFoundError(message string) *Error {
	if message == "" {
		message = msgNotFound
	}
	return &Error{Kind: NotFound, Message: message}
}

// Classify maps any failure coming out of the gateway to its taxonomy
// kind and stable message. Already-classified errors pass through
// unchanged.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}

	var classified *Error
	if errors.As(err, &classified) {
		return classified
	}

	var te *gateway.TransportError
	if !errors.As(err, &te) {
		return &Error{Kind: Unknown, Message: msgUnknown}
	}

	switch {
	case te.NoResponse():
		return &Error{Kind: NetworkUnreachable, Message: msgNetwork}
	case te.StatusCode == http.StatusUnauthorized:
		return &Error{Kind: Unauthenticated, Message: msgUnauthenticated}
	case te.StatusCode == http.StatusNotFound:
		return &Error{Kind: NotFound, Message: msgNotFound}
	case te.StatusCode >= 200 && te.StatusCode <= 299:
		// 2xx with an undecodable body
		return &Error{Kind: Unknown, Message: msgUnknown}
	case te.ServerMessage != "":
		return &Error{Kind: ServerRejected, Message: te.ServerMessage}
	default:
		return &Error{Kind: ServerRejected, Message: msgServerRejected}
	}
}
