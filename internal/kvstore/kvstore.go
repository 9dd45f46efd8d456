// ABOUTME: Embedded Badger key-value note store.
// ABOUTME: Uses type-prefixed, id-ordered keys and a Badger sequence for ids.

package kvstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/harper/notes/internal/models"
	"github.com/rs/zerolog"
)

const (
	// NotePrefix is the key prefix for notes.
	NotePrefix = "note:"

	seqKey       = "seq:note"
	seqBandwidth = 64
	maxAttempts  = 3
)

// noteData is the stored JSON form of a note.
type noteData struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	CreatedAt int64  `json:"created_at"`
	UpdatedAt *int64 `json:"updated_at,omitempty"`
}

func (n *noteData) toModel() *models.Note {
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

func fromModel(note *models.Note) *noteData {
	nd := &noteData{
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

// noteKey zero-pads ids so key order matches id order.
func noteKey(id int64) []byte {
	return []byte(fmt.Sprintf("%s%020d", NotePrefix, id))
}

// Store keeps notes in a Badger database. Ids come from a leased Badger
// sequence, so a crash may skip ids but never hands one out twice.
type Store struct {
	db  *badger.DB
	seq *badger.Sequence
}

type config struct {
	inMemory bool
	logger   *zerolog.Logger
}

// Option configures Open.
type Option func(*config)

// WithInMemory keeps everything in memory; nothing survives Close.
func WithInMemory() Option {
	return func(c *config) {
		c.inMemory = true
	}
}

// WithLogger routes Badger's internal logging through l.
func WithLogger(l zerolog.Logger) Option {
	return func(c *config) {
		c.logger = &l
	}
}

func Open(dir string, opts ...Option) (*Store, error) {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}

	var bopts badger.Options
	if cfg.inMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
		bopts = badger.DefaultOptions(dir)
	}
	if cfg.logger != nil {
		bopts = bopts.WithLogger(badgerLogger{cfg.logger.With().Str("component", "badger").Logger()})
	} else {
		bopts = bopts.WithLogger(nil)
	}

	kv, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	seq, err := kv.GetSequence([]byte(seqKey), seqBandwidth)
	if err != nil {
		_ = kv.Close()
		return nil, fmt.Errorf("open id sequence: %w", err)
	}
	return &Store{db: kv, seq: seq}, nil
}

func (s *Store) Close() error {
	releaseErr := s.seq.Release()
	if err := s.db.Close(); err != nil {
		return err
	}
	return releaseErr
}

// nextID skips the sequence's zero so ids start at 1.
func (s *Store) nextID() (int64, error) {
	for {
		n, err := s.seq.Next()
		if err != nil {
			return 0, err
		}
		if n > 0 {
			return int64(n), nil
		}
	}
}

func (s *Store) Insert(ctx context.Context, note *models.Note) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	id, err := s.nextID()
	if err != nil {
		return fmt.Errorf("allocate id: %w", err)
	}

	stored := note.Clone()
	stored.ID = id
	encoded, err := json.Marshal(fromModel(stored))
	if err != nil {
		return fmt.Errorf("marshal note: %w", err)
	}
	if err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(noteKey(id), encoded)
	}); err != nil {
		return err
	}
	note.ID = id
	return nil
}

func (s *Store) Get(ctx context.Context, id int64) (*models.Note, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var note *models.Note
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		note, err = getNote(txn, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return note, nil
}

// Update retries Badger write conflicts so concurrent updates resolve as
// last-writer-wins instead of surfacing ErrConflict.
func (s *Store) Update(ctx context.Context, note *models.Note) error {
	encoded, err := json.Marshal(fromModel(note))
	if err != nil {
		return fmt.Errorf("marshal note: %w", err)
	}
	return s.retry(ctx, func(txn *badger.Txn) error {
		if _, err := getNote(txn, note.ID); err != nil {
			return err
		}
		return txn.Set(noteKey(note.ID), encoded)
	})
}

func (s *Store) Delete(ctx context.Context, id int64) error {
	return s.retry(ctx, func(txn *badger.Txn) error {
		if _, err := getNote(txn, id); err != nil {
			return err
		}
		return txn.Delete(noteKey(id))
	})
}

func (s *Store) retry(ctx context.Context, fn func(txn *badger.Txn) error) error {
	var err error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err = s.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
	}
	return err
}

func (s *Store) Scan(ctx context.Context, fn func(*models.Note) error) error {
	prefix := []byte(NotePrefix)
	return s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var nd noteData
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &nd)
			}); err != nil {
				return fmt.Errorf("decode %s: %w", it.Item().Key(), err)
			}
			if err := fn(nd.toModel()); err != nil {
				return err
			}
		}
		return nil
	})
}

func getNote(txn *badger.Txn, id int64) (*models.Note, error) {
	item, err := txn.Get(noteKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, models.ErrNoteNotFound
	}
	if err != nil {
		return nil, err
	}
	var nd noteData
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &nd)
	}); err != nil {
		return nil, fmt.Errorf("unmarshal note: %w", err)
	}
	return nd.toModel(), nil
}
