// ABOUTME: Field validation for note input and query parameters.
// ABOUTME: Collects every failing field into a single Error instead of stopping at the first.

package validate

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	MaxTitleLength   = 200
	MaxContentLength = 4000
)

// Rule names reported in FieldError.Rule.
const (
	RuleRequired  = "required"
	RuleMaxLength = "max_length"
	RuleOneOf     = "one_of"
	RuleInteger   = "integer"
)

// FieldError describes one failed rule on one field.
type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

func (f FieldError) Error() string {
	return f.Field + ": " + f.Message
}

// Error is returned whenever caller input breaks a field or query constraint.
type Error struct {
	Fields []FieldError
}

func (e *Error) Error() string {
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.Error()
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// Add records a failure.
func (e *Error) Add(field, rule, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Rule: rule, Message: message})
}

// Err returns nil when nothing failed, so callers can return it directly.
func (e *Error) Err() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

// Has reports whether field failed any rule.
func (e *Error) Has(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

// NoteInput trims title and content and checks both. The trimmed values are
// returned even on failure.
func NoteInput(title, content string) (string, string, error) {
	title = strings.TrimSpace(title)
	content = strings.TrimSpace(content)

	verr := &Error{}
	switch n := utf8.RuneCountInString(title); {
	case n == 0:
		verr.Add("title", RuleRequired, "title is required")
	case n > MaxTitleLength:
		verr.Add("title", RuleMaxLength, fmt.Sprintf("title must be at most %d characters", MaxTitleLength))
	}
	if utf8.RuneCountInString(content) > MaxContentLength {
		verr.Add("content", RuleMaxLength, fmt.Sprintf("content must be at most %d characters", MaxContentLength))
	}
	return title, content, verr.Err()
}
