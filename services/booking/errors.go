package booking

import "fmt"

// Code classifies lifecycle failures. Guard violations are expected outcomes
// that callers branch on; only CodeUnexpected signals an infrastructure fault.
type Code string

const (
	CodeValidation     Code = "validation"
	CodeNotFound       Code = "not_found"
	CodeAlreadyUsed    Code = "already_used"
	CodeAlreadyRated   Code = "already_rated"
	CodeInvalidState   Code = "invalid_state"
	CodeNotEligible    Code = "not_eligible"
	CodeForbidden      Code = "forbidden"
	CodeInvalidToken   Code = "invalid_token"
	CodeAlreadyHandled Code = "already_handled"
	CodeUnexpected     Code = "unexpected"
)

type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error with the same code, so errors.Is(err, ErrNotFound) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

var (
	ErrValidation     = &Error{Code: CodeValidation, Message: "invalid input"}
	ErrNotFound       = &Error{Code: CodeNotFound, Message: "not found"}
	ErrAlreadyUsed    = &Error{Code: CodeAlreadyUsed, Message: "link cannot be used again"}
	ErrAlreadyRated   = &Error{Code: CodeAlreadyRated, Message: "booking already rated"}
	ErrInvalidState   = &Error{Code: CodeInvalidState, Message: "booking cannot be changed"}
	ErrNotEligible    = &Error{Code: CodeNotEligible, Message: "booking cannot be rated yet"}
	ErrForbidden      = &Error{Code: CodeForbidden, Message: "not a party to this booking"}
	ErrInvalidToken   = &Error{Code: CodeInvalidToken, Message: "invalid or expired link"}
	ErrAlreadyHandled = &Error{Code: CodeAlreadyHandled, Message: "request already handled"}
	ErrUnexpected     = &Error{Code: CodeUnexpected, Message: "unexpected error"}
)

func newError(code Code, msg string) *Error {
	return &Error{Code: code, Message: msg}
}

func unexpected(msg string, err error) *Error {
	return &Error{Code: CodeUnexpected, Message: msg, Err: err}
}
