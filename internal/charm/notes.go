// ABOUTME: Note store on Charm KV storage
// ABOUTME: Uses type-prefixed keys (note:<id>) and a counter key for id allocation

package charm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/charm/kv"
	"github.com/dgraph-io/badger/v3"
	"github.com/harper/notes/internal/models"
)

const (
	// NotePrefix is the key prefix for notes.
	NotePrefix = "note:"

	// counterKey holds the last id handed out. It only grows, so ids of
	// deleted notes are never reissued.
	counterKey = "meta:last_id"
)

// NoteData represents a note stored in charm KV.
type NoteData struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	CreatedAt int64  `json:"created_at"`
	UpdatedAt *int64 `json:"updated_at,omitempty"`
}

// ToModel converts NoteData to a models.Note.
func (n *NoteData) ToModel() *models.Note {
	note := &models.Note{
		ID:        n.ID,
		Title:     n.Title,
		Content:   n.Content,
		CreatedAt: time.UnixMicro(n.CreatedAt).UTC(),
	}
	if n.UpdatedAt != nil {
		t := time.UnixMicro(*n.UpdatedAt).UTC()
		note.UpdatedAt = &t
	}
	return note
}

// FromModel creates NoteData from a models.Note.
func FromModel(note *models.Note) *NoteData {
	nd := &NoteData{
		ID:        note.ID,
		Title:     note.Title,
		Content:   note.Content,
		CreatedAt: note.CreatedAt.UnixMicro(),
	}
	if note.UpdatedAt != nil {
		u := note.UpdatedAt.UnixMicro()
		nd.UpdatedAt = &u
	}
	return nd
}

func noteKey(id int64) []byte {
	return []byte(NotePrefix + strconv.FormatInt(id, 10))
}

func (c *Client) Insert(ctx context.Context, note *models.Note) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.Do(func(k *kv.KV) error {
		id, err := nextID(k)
		if err != nil {
			return err
		}
		stored := note.Clone()
		stored.ID = id
		if err := putNote(k, stored); err != nil {
			return err
		}
		note.ID = id
		return nil
	})
}

func (c *Client) Get(ctx context.Context, id int64) (*models.Note, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var note *models.Note
	err := c.DoReadOnly(func(k *kv.KV) error {
		var err error
		note, err = getNote(k, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return note, nil
}

func (c *Client) Update(ctx context.Context, note *models.Note) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.Do(func(k *kv.KV) error {
		if _, err := getNote(k, note.ID); err != nil {
			return err
		}
		return putNote(k, note)
	})
}

func (c *Client) Delete(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.Do(func(k *kv.KV) error {
		if _, err := getNote(k, id); err != nil {
			return err
		}
		return k.Delete(noteKey(id))
	})
}

func (c *Client) Scan(ctx context.Context, fn func(*models.Note) error) error {
	prefix := []byte(NotePrefix)
	return c.DoReadOnly(func(k *kv.KV) error {
		keys, err := k.Keys()
		if err != nil {
			return err
		}
		for _, key := range keys {
			if !bytes.HasPrefix(key, prefix) {
				continue
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := k.Get(key)
			if errors.Is(err, badger.ErrKeyNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			var nd NoteData
			if err := json.Unmarshal(data, &nd); err != nil {
				return fmt.Errorf("unmarshal %s: %w", key, err)
			}
			if err := fn(nd.ToModel()); err != nil {
				return err
			}
		}
		return nil
	})
}

func nextID(k *kv.KV) (int64, error) {
	var last int64
	data, err := k.Get([]byte(counterKey))
	switch {
	case errors.Is(err, badger.ErrKeyNotFound):
	case err != nil:
		return 0, err
	default:
		last, err = strconv.ParseInt(string(data), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("parse id counter: %w", err)
		}
	}
	next := last + 1
	if err := k.Set([]byte(counterKey), []byte(strconv.FormatInt(next, 10))); err != nil {
		return 0, err
	}
	return next, nil
}

func getNote(k *kv.KV, id int64) (*models.Note, error) {
	data, err := k.Get(noteKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, models.ErrNoteNotFound
	}
	if err != nil {
		return nil, err
	}
	var nd NoteData
	if err := json.Unmarshal(data, &nd); err != nil {
		return nil, fmt.Errorf("unmarshal note: %w", err)
	}
	return nd.ToModel(), nil
}

func putNote(k *kv.KV, note *models.Note) error {
	encoded, err := json.Marshal(FromModel(note))
	if err != nil {
		return fmt.Errorf("marshal note: %w", err)
	}
	return k.Set(noteKey(note.ID), encoded)
}
