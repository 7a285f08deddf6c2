package translate

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes translation errors for diagnostics and CLI output.
type ErrorCode string

const (
	// ErrCodeUnknownMember indicates a path segment that names no member.
	ErrCodeUnknownMember ErrorCode = "UNKNOWN_MEMBER"

	// ErrCodeUnsupportedClause indicates a node kind the translator does not
	// handle.
	ErrCodeUnsupportedClause ErrorCode = "UNSUPPORTED_CLAUSE"

	// ErrCodeMalformedChain indicates a nil or cyclic access chain.
	ErrCodeMalformedChain ErrorCode = "MALFORMED_CHAIN"
)

// ErrUnexpectedFilterShape is returned when the filter binder produces
// something other than source.Where(predicate). It means the binder and
// the translator disagree about the clause contract.
var ErrUnexpectedFilterShape = errors.New("unexpected filter shape")

// UnknownMemberError reports a path segment that does not resolve to a
// member of the current type. It indicates a mismatch between the query
// and the type model and is never retried.
type UnknownMemberError struct {
	// Type is the name of the type the member was looked up on.
	Type string

	// Member is the unresolved segment.
	Member string

	// Path is the full member path being resolved, if known.
	Path string
}

// Error implements the error interface.
func (e *UnknownMemberError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: type %s has no member %q (path %s)", ErrCodeUnknownMember, e.Type, e.Member, e.Path)
	}
	return fmt.Sprintf("%s: type %s has no member %q", ErrCodeUnknownMember, e.Type, e.Member)
}

// Code returns ErrCodeUnknownMember.
func (e *UnknownMemberError) Code() ErrorCode { return ErrCodeUnknownMember }

// UnsupportedClauseError reports an ordering, filter or expansion node the
// translator does not recognize.
type UnsupportedClauseError struct {
	// Kind names the clause or node kind.
	Kind string

	// Detail describes what was unsupported.
	Detail string
}

// Error implements the error interface.
func (e *UnsupportedClauseError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrCodeUnsupportedClause, e.Kind, e.Detail)
}

// Code returns ErrCodeUnsupportedClause.
func (e *UnsupportedClauseError) Code() ErrorCode { return ErrCodeUnsupportedClause }

// MalformedChainError reports an access chain with a nil or cyclic source
// reference. It is a caller bug, not a recoverable condition.
type MalformedChainError struct {
	Reason string
}

// Error implements the error interface.
func (e *MalformedChainError) Error() string {
	return fmt.Sprintf("%s: %s", ErrCodeMalformedChain, e.Reason)
}

// Code returns ErrCodeMalformedChain.
func (e *MalformedChainError) Code() ErrorCode { return ErrCodeMalformedChain }

// IsUnknownMember returns true if err is or wraps an *UnknownMemberError.
// Uses errors.As to handle wrapped errors.
func IsUnknownMember(err error) bool {
	var e *UnknownMemberError
	return errors.As(err, &e)
}

// IsUnsupportedClause returns true if err is or wraps an
// *UnsupportedClauseError.
func IsUnsupportedClause(err error) bool {
	var e *UnsupportedClauseError
	return errors.As(err, &e)
}

// IsMalformedChain returns true if err is or wraps a *MalformedChainError.
func IsMalformedChain(err error) bool {
	var e *MalformedChainError
	return errors.As(err, &e)
}

// CodeOf returns the ErrorCode carried by err, or "" when err is not a
// translation error.
func CodeOf(err error) ErrorCode {
	var coded interface{ Code() ErrorCode }
	if errors.As(err, &coded) {
		return coded.Code()
	}
	return ""
}
