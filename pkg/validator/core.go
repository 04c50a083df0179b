package validator

import (
	"errors"
	"fmt"
	"strings"
)

// FieldError is a single failed validation with the offending field name and
// a message that is safe to show to end users.
type FieldError struct {
	Field   string
	Message string
}

// Errors collects all failed rules from one Apply call.
type Errors []FieldError

func (e Errors) Error() string {
	if len(e) == 0 {
		return "validation failed"
	}
	parts := make([]string, 0, len(e))
	for _, fe := range e {
		parts = append(parts, fmt.Sprintf("%s: %s", fe.Field, fe.Message))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Fields returns the names of all fields that failed, deduplicated.
func (e Errors) Fields() []string {
	seen := make(map[string]bool, len(e))
	var fields []string
	for _, fe := range e {
		if !seen[fe.Field] {
			fields = append(fields, fe.Field)
			seen[fe.Field] = true
		}
	}
	return fields
}

// Rule is a single check paired with the error reported when it fails.
type Rule struct {
	Check func() bool
	Error FieldError
}

// Apply runs every rule and returns the accumulated Errors, or nil when all pass.
func Apply(rules ...Rule) error {
	var failed Errors
	for _, rule := range rules {
		if !rule.Check() {
			failed = append(failed, rule.Error)
		}
	}
	if len(failed) == 0 {
		return nil
	}
	return failed
}

// Extract returns the Errors value carried by err, or nil.
func Extract(err error) Errors {
	var ve Errors
	if errors.As(err, &ve) {
		return ve
	}
	return nil
}

// IsValidationError reports whether err is (or wraps) validation Errors.
func IsValidationError(err error) bool {
	return Extract(err) != nil
}
