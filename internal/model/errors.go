package model

import "errors"

// Error kinds. Every domain error unwraps to exactly one of these so transport
// layers can map a failure without knowing every specific sentinel.
var (
	ErrValidation      = errors.New("validation failed")
	ErrNotFound        = errors.New("not found")
	ErrForbidden       = errors.New("forbidden")
	ErrConflict        = errors.New("conflict")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrUnavailable     = errors.New("service unavailable")
)

// Error is a domain error with a machine-readable code and a kind.
type Error struct {
	Kind    error
	Code    string
	Message string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Kind }

func newError(kind error, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// Codes reported in error envelopes.
const (
	CodeValidation         = "VALIDATION_ERROR"
	CodeCannotFollowSelf   = "CANNOT_FOLLOW_SELF"
	CodeCannotMessageSelf  = "CANNOT_MESSAGE_SELF"
	CodeContentRequired    = "CONTENT_REQUIRED"
	CodeContentTooLong     = "CONTENT_TOO_LONG"
	CodeCaptionTooLong     = "CAPTION_TOO_LONG"
	CodeInvalidUsername    = "INVALID_USERNAME"
	CodeDisplayNameTooLong = "DISPLAY_NAME_TOO_LONG"
	CodeMediaMissing       = "MEDIA_NOT_FOUND"
	CodeUserNotFound       = "USER_NOT_FOUND"
	CodePostNotFound       = "POST_NOT_FOUND"
	CodeCommentNotFound    = "COMMENT_NOT_FOUND"
	CodeConversationGone   = "CONVERSATION_NOT_FOUND"
	CodeNotCommentOwner    = "NOT_COMMENT_OWNER"
	CodeNotPostOwner       = "NOT_POST_OWNER"
	CodeNotParticipant     = "NOT_PARTICIPANT"
	CodeUsernameTaken      = "USERNAME_TAKEN"
	CodeHandleExhausted    = "HANDLE_UNAVAILABLE"
	CodeTokenMissing       = "TOKEN_MISSING"
	CodeTokenExpired       = "TOKEN_EXPIRED"
	CodeTokenInvalid       = "TOKEN_INVALID"
)

// KindOf returns the kind a domain error belongs to, or nil for unclassified errors.
func KindOf(err error) error {
	for _, kind := range []error{ErrValidation, ErrNotFound, ErrForbidden, ErrConflict, ErrUnauthenticated, ErrUnavailable} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}

// CodeOf returns the code of the first *Error in the chain.
func CodeOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}
