package graphql

import (
	"errors"
	"fmt"

	"github.com/vektah/gqlparser/v2/gqlerror"
)

// Kind classifies a failed GraphQL call.
type Kind int

const (
	// KindGraphQL means the service answered with a non-empty "errors" list.
	KindGraphQL Kind = iota + 1
	// KindUnauthorized means HTTP 401: the token is missing or invalid.
	KindUnauthorized
	// KindRateLimited means HTTP 429.
	KindRateLimited
	// KindServiceUnavailable means HTTP 503.
	KindServiceUnavailable
	// KindRequest covers every other non-2xx status.
	KindRequest
	// KindNoData means a 2xx envelope without errors and without data.
	KindNoData
)

func (k Kind) String() string {
	switch k {
	case KindGraphQL:
		return "graphql"
	case KindUnauthorized:
		return "unauthorized"
	case KindRateLimited:
		return "rate_limited"
	case KindServiceUnavailable:
		return "service_unavailable"
	case KindRequest:
		return "request"
	case KindNoData:
		return "no_data"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Sentinels for errors.Is. Each matches any *Error of the same Kind.
var (
	ErrGraphQL            = &Error{Kind: KindGraphQL}
	ErrUnauthorized       = &Error{Kind: KindUnauthorized}
	ErrRateLimited        = &Error{Kind: KindRateLimited}
	ErrServiceUnavailable = &Error{Kind: KindServiceUnavailable}
	ErrRequest            = &Error{Kind: KindRequest}
	ErrNoData             = &Error{Kind: KindNoData}
)

const (
	msgUnauthorized       = "You are not authorized to access this resource. Make sure that you pass a valid token."
	msgRateLimited        = "You have reached the rate limit. Please try again later."
	msgServiceUnavailable = "Service unavailable. Please try again later."
	msgNoData             = "There is no data in the response."
)

// Error is the typed failure returned by Execute for everything except
// transport failures, which are returned as produced by the HTTP client.
type Error struct {
	Kind    Kind
	Message string
	// StatusCode is the HTTP status of the response, when there was one.
	StatusCode int
	// Errors holds the full GraphQL error list for KindGraphQL.
	Errors gqlerror.List
}

func (e *Error) Error() string {
	return e.Message
}

// Is reports whether target is an *Error of the same Kind, so the package
// sentinels work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// KindOf returns the Kind of err, or 0 when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

func newGraphQLError(status int, list gqlerror.List) *Error {
	return &Error{
		Kind:       KindGraphQL,
		Message:    list[0].Message,
		StatusCode: status,
		Errors:     list,
	}
}

func newRequestError(status int, statusText string) *Error {
	return &Error{
		Kind:       KindRequest,
		Message:    fmt.Sprintf("GraphQL request failed with status %d: %s", status, statusText),
		StatusCode: status,
	}
}
