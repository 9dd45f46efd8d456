// ABOUTME: Tests for note field validation.
// ABOUTME: Covers trimming, length bounds, and multi-field error collection.

package validate

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoteInputTrims(t *testing.T) {
	title, content, err := NoteInput("  Groceries \n", "\tmilk  ")
	require.NoError(t, err)
	assert.Equal(t, "Groceries", title)
	assert.Equal(t, "milk", content)
}

func TestNoteInputRules(t *testing.T) {
	tests := []struct {
		name    string
		title   string
		content string
		fields  []string
	}{
		{name: "valid", title: "A", content: "B"},
		{name: "empty content allowed", title: "A", content: ""},
		{name: "empty title", title: "", fields: []string{"title"}},
		{name: "whitespace title", title: "   \t", fields: []string{"title"}},
		{name: "title at limit", title: strings.Repeat("x", MaxTitleLength)},
		{name: "title over limit", title: strings.Repeat("x", MaxTitleLength+1), fields: []string{"title"}},
		{name: "title limit counts runes", title: strings.Repeat("é", MaxTitleLength)},
		{name: "title over limit after trim is fine", title: " " + strings.Repeat("x", MaxTitleLength) + " "},
		{name: "content at limit", title: "A", content: strings.Repeat("y", MaxContentLength)},
		{name: "content over limit", title: "A", content: strings.Repeat("y", MaxContentLength+1), fields: []string{"content"}},
		{name: "both fail", title: "", content: strings.Repeat("y", MaxContentLength+1), fields: []string{"title", "content"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := NoteInput(tt.title, tt.content)
			if len(tt.fields) == 0 {
				assert.NoError(t, err)
				return
			}

			var verr *Error
			require.True(t, errors.As(err, &verr), "expected *Error, got %v", err)
			require.Len(t, verr.Fields, len(tt.fields))
			for _, f := range tt.fields {
				assert.True(t, verr.Has(f), "expected failure on %s", f)
			}
		})
	}
}

func TestEmptyErrIsNil(t *testing.T) {
	verr := &Error{}
	assert.NoError(t, verr.Err())

	verr.Add("sort", RuleOneOf, "invalid sort key")
	assert.EqualError(t, verr.Err(), "validation failed: sort: invalid sort key")
}
