// Package errs holds error types shared by the TUtils packages.
package errs

import "fmt"

// UnexpectedMemberError reports an enum member or variant value that the
// code handling it does not know about. It signals a programming error and
// is normally raised with panic rather than returned.
type UnexpectedMemberError struct {
	// Member is the offending value, formatted with %v.
	Member any

	// Message describes where the value was encountered.
	Message string

	// Err is an optional underlying cause.
	Err error
}

// NewUnexpectedMember creates an UnexpectedMemberError for member.
func NewUnexpectedMember(message string, member any) *UnexpectedMemberError {
	return &UnexpectedMemberError{Member: member, Message: message}
}

// Error implements the error interface.
func (e *UnexpectedMemberError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v: %v", e.Message, e.Member, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Member)
}

// Unwrap returns the underlying cause, if any.
func (e *UnexpectedMemberError) Unwrap() error {
	return e.Err
}
