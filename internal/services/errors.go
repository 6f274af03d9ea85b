package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	ErrValidation        = errors.New("validation failed")
	ErrDuplicateRecord   = errors.New("duplicate record")
	ErrNotFound          = errors.New("not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrForbidden         = errors.New("forbidden")
	ErrBadCreds          = errors.New("invalid email or password")
)

// ValidationError names the rule a request broke. It matches ErrValidation.
type ValidationError struct {
	Rule string
	Msg  string
}

func (e *ValidationError) Error() string { return e.Rule + ": " + e.Msg }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func invalid(rule, format string, args ...any) error {
	return &ValidationError{Rule: rule, Msg: fmt.Sprintf(format, args...)}
}

// RuleOf returns the violated rule, or "" when err is not a ValidationError.
func RuleOf(err error) string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Rule
	}
	return ""
}

func newID(prefix string) string { return prefix + "-" + uuid.NewString() }

func nowUTC() time.Time { return time.Now().UTC() }
