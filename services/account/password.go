package account

import (
	"errors"
	"fmt"
	"regexp"
)

// ErrWeakPassword wraps every password rule violation.
var ErrWeakPassword = errors.New("weak password")

var (
	hasLetter = regexp.MustCompile(`[A-Za-z]`)
	hasNumber = regexp.MustCompile(`[0-9]`)
)

// VerifyPasswordComplexity checks that the password meets complexity requirements.
func VerifyPasswordComplexity(pw string) error {
	if len(pw) < 8 {
		return fmt.Errorf("%w: password must be at least 8 characters long", ErrWeakPassword)
	}
	if !hasLetter.MatchString(pw) {
		return fmt.Errorf("%w: password must include at least one letter", ErrWeakPassword)
	}
	if !hasNumber.MatchString(pw) {
		return fmt.Errorf("%w: password must include at least one number", ErrWeakPassword)
	}
	return nil
}
