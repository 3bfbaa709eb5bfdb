package social

import (
	"errors"
	"fmt"
)

// Kind groups engine errors by how callers should react to them
type Kind string

const (
	KindAuthRequired    Kind = "AuthRequired"
	KindInvalidTarget   Kind = "InvalidTarget"
	KindInvalidArgument Kind = "InvalidArgument"
	KindNotFound        Kind = "NotFound"
	KindBlocked         Kind = "Conflict-Blocked"
	KindRequestNotFound Kind = "RequestNotFound"
	KindTransient       Kind = "TransientStoreConflict"
)

// Error is a terminal engine error surfaced to the caller verbatim
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return e.Code + ": " + e.Message
}

// Is matches any *Error carrying the same code
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

func (e *Error) Unwrap() error {
	return e.Err
}

var (
	ErrAuthRequired          = &Error{Kind: KindAuthRequired, Code: "AUTH_REQUIRED", Message: "an acting account is required"}
	ErrInvalidTarget         = &Error{Kind: KindInvalidTarget, Code: "INVALID_TARGET", Message: "target must be another valid account"}
	ErrInvalidCursor         = &Error{Kind: KindInvalidArgument, Code: "INVALID_CURSOR", Message: "cursor was not issued by this listing"}
	ErrTooManyTargets        = &Error{Kind: KindInvalidArgument, Code: "TOO_MANY_TARGETS", Message: "too many accounts in one status lookup"}
	ErrTargetNotFound        = &Error{Kind: KindNotFound, Code: "TARGET_NOT_FOUND", Message: "target account not found"}
	ErrProfileMissing        = &Error{Kind: KindNotFound, Code: "PROFILE_MISSING", Message: "acting account has no profile"}
	ErrFollowBlockedTarget   = &Error{Kind: KindBlocked, Code: "FOLLOW_BLOCKED_TARGET", Message: "you have blocked this account"}
	ErrFollowBlockedByTarget = &Error{Kind: KindBlocked, Code: "FOLLOW_BLOCKED_BY_TARGET", Message: "this account has blocked you"}
	ErrRequestNotFound       = &Error{Kind: KindRequestNotFound, Code: "REQUEST_NOT_FOUND", Message: "no pending follow request"}
	ErrTryAgain              = &Error{Kind: KindTransient, Code: "TRY_AGAIN", Message: "the relationship changed concurrently, try again"}
)

func tryAgain(cause error) error {
	return &Error{Kind: ErrTryAgain.Kind, Code: ErrTryAgain.Code, Message: ErrTryAgain.Message, Err: cause}
}

// KindOf returns the kind of an engine error
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}
