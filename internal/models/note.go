// ABOUTME: Note model representing a short text note with audit timestamps.
// ABOUTME: Provides constructor and methods for note lifecycle.

package models

import (
	"errors"
	"time"
)

var ErrNoteNotFound = errors.New("note not found")

// Note is the only persisted entity. ID is assigned by the store on insert.
// UpdatedAt stays nil until the first update.
type Note struct {
	ID        int64      `json:"id"`
	Title     string     `json:"title"`
	Content   string     `json:"content"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

// Now returns the current UTC time truncated to microseconds, the finest
// resolution every backend round-trips.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

func NewNote(title, content string) *Note {
	return &Note{
		Title:     title,
		Content:   content,
		CreatedAt: Now(),
	}
}

// Touch stamps UpdatedAt, never earlier than CreatedAt.
func (n *Note) Touch() {
	now := Now()
	if now.Before(n.CreatedAt) {
		now = n.CreatedAt
	}
	n.UpdatedAt = &now
}

// SortTime is UpdatedAt, or CreatedAt for notes never updated.
func (n *Note) SortTime() time.Time {
	if n.UpdatedAt != nil {
		return *n.UpdatedAt
	}
	return n.CreatedAt
}

// Clone returns a deep copy so stores never share mutable state with callers.
func (n *Note) Clone() *Note {
	c := *n
	if n.UpdatedAt != nil {
		t := *n.UpdatedAt
		c.UpdatedAt = &t
	}
	return &c
}
