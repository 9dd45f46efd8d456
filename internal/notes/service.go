// ABOUTME: Note lifecycle operations and listing over an explicit store handle.
// ABOUTME: Validates input, stamps audit times, and delegates persistence to a Store.

package notes

import (
	"context"
	"errors"
	"fmt"

	"github.com/harper/notes/internal/models"
	"github.com/harper/notes/internal/query"
	"github.com/harper/notes/internal/validate"
	"github.com/rs/zerolog"
)

// Store is the durable keyed record store behind the service. Implementations
// return models.ErrNoteNotFound for missing ids and must never reuse an id.
type Store interface {
	// Insert assigns note.ID.
	Insert(ctx context.Context, note *models.Note) error
	Get(ctx context.Context, id int64) (*models.Note, error)
	// Update replaces title, content and updatedAt of an existing note.
	Update(ctx context.Context, note *models.Note) error
	Delete(ctx context.Context, id int64) error
	// Scan calls fn for every stored note, in no particular order.
	Scan(ctx context.Context, fn func(*models.Note) error) error
	Close() error
}

// Lister is implemented by stores that evaluate a listing query natively.
// Results must match query.Apply over a full scan.
type Lister interface {
	List(ctx context.Context, q query.Query) (query.Page, error)
}

// Service holds no state besides its collaborators; every call is one
// self-contained exchange with the store.
type Service struct {
	store Store
	log   zerolog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger used for lifecycle events.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Service) {
		s.log = l
	}
}

func NewService(store Store, opts ...Option) *Service {
	s := &Service{store: store, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IsNotFound reports whether err means the note does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, models.ErrNoteNotFound)
}

// IsValidation reports whether err is caller input failing validation.
func IsValidation(err error) bool {
	var verr *validate.Error
	return errors.As(err, &verr)
}

func (s *Service) Create(ctx context.Context, title, content string) (*models.Note, error) {
	title, content, err := validate.NoteInput(title, content)
	if err != nil {
		return nil, err
	}

	note := models.NewNote(title, content)
	if err := s.store.Insert(ctx, note); err != nil {
		return nil, fmt.Errorf("insert note: %w", err)
	}

	s.log.Debug().Int64("id", note.ID).Msg("note created")
	return note, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*models.Note, error) {
	note, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, s.wrap(err, "get note")
	}
	return note, nil
}

// Update checks existence before validating, so an unknown id reports
// ErrNoteNotFound even when the input is also invalid.
func (s *Service) Update(ctx context.Context, id int64, title, content string) (*models.Note, error) {
	note, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, s.wrap(err, "get note")
	}

	title, content, err = validate.NoteInput(title, content)
	if err != nil {
		return nil, err
	}

	note.Title = title
	note.Content = content
	note.Touch()

	if err := s.store.Update(ctx, note); err != nil {
		return nil, s.wrap(err, "update note")
	}

	s.log.Debug().Int64("id", id).Msg("note updated")
	return note, nil
}

// Delete hard-deletes the note. Deleting an absent id reports
// ErrNoteNotFound and changes nothing; callers treating that as success get
// idempotent deletes.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return s.wrap(err, "delete note")
	}
	s.log.Debug().Int64("id", id).Msg("note deleted")
	return nil
}

// List parses p and returns the requested page. Invalid parameters fail
// before the store is touched.
func (s *Service) List(ctx context.Context, p query.Params) (query.Page, error) {
	q, err := p.Parse()
	if err != nil {
		return query.Page{}, err
	}

	if l, ok := s.store.(Lister); ok {
		page, err := l.List(ctx, q)
		if err != nil {
			return query.Page{}, fmt.Errorf("list notes: %w", err)
		}
		return page, nil
	}

	var all []*models.Note
	err = s.store.Scan(ctx, func(n *models.Note) error {
		all = append(all, n)
		return nil
	})
	if err != nil {
		return query.Page{}, fmt.Errorf("scan notes: %w", err)
	}
	return query.Apply(all, q), nil
}

// All returns every note in ascending id order.
func (s *Service) All(ctx context.Context) ([]*models.Note, error) {
	var all []*models.Note
	err := s.store.Scan(ctx, func(n *models.Note) error {
		all = append(all, n)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan notes: %w", err)
	}
	q := query.Query{Sort: query.SortID, Dir: query.Asc, Page: 1, PageSize: max(len(all), 1)}
	return query.Apply(all, q).Items, nil
}

// wrap leaves ErrNoteNotFound bare and annotates infrastructure failures.
func (s *Service) wrap(err error, op string) error {
	if IsNotFound(err) {
		return models.ErrNoteNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}
