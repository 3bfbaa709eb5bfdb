package api

import (
	"errors"
	"fmt"

	"github.com/gamedeck/socialgraph/internal/social"
)

// Standard JSON-RPC error codes
const (
	ErrParseError     = -32700
	ErrInvalidRequest = -32600
	ErrMethodNotFound = -32601
	ErrInvalidParams  = -32602
	ErrInternalError  = -32603
)

// Relationship error codes, in the implementation-defined server range
const (
	ErrServerError     = -32000
	ErrAuthRequired    = -32001
	ErrForbidden       = -32003
	ErrNotFound        = -32004
	ErrBlocked         = -32009
	ErrRequestNotFound = -32014
	ErrRateLimited     = -32029
	ErrTryAgain        = -32050
)

// Error represents an API error
type Error struct {
	Code    int
	Message string
}

// NewError creates a new API error
func NewError(code int, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// Error implements the error interface
func (e *Error) Error() string {
	return fmt.Sprintf("API error %d: %s", e.Code, e.Message)
}

func invalidParams(format string, args ...interface{}) *Error {
	return NewError(ErrInvalidParams, fmt.Sprintf(format, args...))
}

var kindCodes = map[social.Kind]int{
	social.KindAuthRequired:    ErrAuthRequired,
	social.KindInvalidTarget:   ErrInvalidParams,
	social.KindInvalidArgument: ErrInvalidParams,
	social.KindNotFound:        ErrNotFound,
	social.KindBlocked:         ErrBlocked,
	social.KindRequestNotFound: ErrRequestNotFound,
	social.KindTransient:       ErrTryAgain,
}

// toRPCError converts a handler error into its wire form. The second result
// reports whether the error is the caller's fault rather than the server's.
func toRPCError(err error) (*JSONRPCError, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return &JSONRPCError{Code: apiErr.Code, Message: apiErr.Message}, true
	}

	var socialErr *social.Error
	if errors.As(err, &socialErr) {
		code, ok := kindCodes[socialErr.Kind]
		if !ok {
			code = ErrServerError
		}
		return &JSONRPCError{
			Code:    code,
			Message: socialErr.Message,
			Data:    map[string]string{"code": socialErr.Code, "kind": string(socialErr.Kind)},
		}, socialErr.Kind != social.KindTransient
	}

	return &JSONRPCError{Code: ErrServerError, Message: "Server error", Data: err.Error()}, false
}
