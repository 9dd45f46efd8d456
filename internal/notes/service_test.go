// ABOUTME: Tests for note lifecycle operations and listing.
// ABOUTME: Runs against an in-memory scan-only store and a store that counts calls.

package notes

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/harper/notes/internal/models"
	"github.com/harper/notes/internal/query"
	"github.com/harper/notes/internal/validate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore keeps notes in a map and has no native List, so the service
// falls back to scanning.
type memStore struct {
	mu     sync.Mutex
	nextID int64
	notes  map[int64]*models.Note
	calls  int
	failOn string
}

func newMemStore() *memStore {
	return &memStore{notes: map[int64]*models.Note{}}
}

var errBoom = errors.New("disk on fire")

func (m *memStore) enter(op string) error {
	m.calls++
	if m.failOn == op {
		return errBoom
	}
	return nil
}

func (m *memStore) Insert(_ context.Context, n *models.Note) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("insert"); err != nil {
		return err
	}
	m.nextID++
	n.ID = m.nextID
	m.notes[n.ID] = n.Clone()
	return nil
}

func (m *memStore) Get(_ context.Context, id int64) (*models.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("get"); err != nil {
		return nil, err
	}
	n, ok := m.notes[id]
	if !ok {
		return nil, models.ErrNoteNotFound
	}
	return n.Clone(), nil
}

func (m *memStore) Update(_ context.Context, n *models.Note) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("update"); err != nil {
		return err
	}
	if _, ok := m.notes[n.ID]; !ok {
		return models.ErrNoteNotFound
	}
	m.notes[n.ID] = n.Clone()
	return nil
}

func (m *memStore) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("delete"); err != nil {
		return err
	}
	if _, ok := m.notes[id]; !ok {
		return models.ErrNoteNotFound
	}
	delete(m.notes, id)
	return nil
}

func (m *memStore) Scan(_ context.Context, fn func(*models.Note) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("scan"); err != nil {
		return err
	}
	for _, n := range m.notes {
		if err := fn(n.Clone()); err != nil {
			return err
		}
	}
	return nil
}

func (m *memStore) Close() error { return nil }

func newTestService(t *testing.T) (*Service, *memStore) {
	t.Helper()
	store := newMemStore()
	return NewService(store), store
}

func TestCreateAndGetRoundTrip(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, "A", "B")
	require.NoError(t, err)
	assert.NotZero(t, created.ID)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "A", got.Title)
	assert.Equal(t, "B", got.Content)
	assert.Nil(t, got.UpdatedAt)
	assert.Equal(t, created.CreatedAt, got.CreatedAt)

	time.Sleep(time.Millisecond)
	_, err = svc.Update(ctx, created.ID, "A2", "B2")
	require.NoError(t, err)

	got, err = svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "A2", got.Title)
	assert.Equal(t, "B2", got.Content)
	require.NotNil(t, got.UpdatedAt)
	assert.False(t, got.UpdatedAt.Before(got.CreatedAt))
	assert.Equal(t, created.CreatedAt, got.CreatedAt, "createdAt never changes")
}

func TestCreateTrimsAndDefaultsContent(t *testing.T) {
	svc, _ := newTestService(t)

	note, err := svc.Create(context.Background(), "  Title  ", "")
	require.NoError(t, err)
	assert.Equal(t, "Title", note.Title)
	assert.Equal(t, "", note.Content)
}

func TestCreateValidation(t *testing.T) {
	svc, store := newTestService(t)

	_, err := svc.Create(context.Background(), "", strings.Repeat("x", validate.MaxContentLength+1))
	require.True(t, IsValidation(err))

	var verr *validate.Error
	require.True(t, errors.As(err, &verr))
	assert.True(t, verr.Has("title"))
	assert.True(t, verr.Has("content"))
	assert.Zero(t, store.calls, "invalid input never reaches the store")
}

func TestGetMissing(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Get(context.Background(), 42)
	assert.ErrorIs(t, err, models.ErrNoteNotFound)
}

func TestUpdateMissingBeatsValidation(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Update(context.Background(), 42, "", "")
	assert.True(t, IsNotFound(err))
	assert.False(t, IsValidation(err))
}

func TestUpdateValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	note, err := svc.Create(ctx, "keep", "me")
	require.NoError(t, err)

	_, err = svc.Update(ctx, note.ID, "   ", "")
	require.True(t, IsValidation(err))

	got, err := svc.Get(ctx, note.ID)
	require.NoError(t, err)
	assert.Equal(t, "keep", got.Title)
	assert.Nil(t, got.UpdatedAt)
}

func TestDeleteIsIdempotent(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	note, err := svc.Create(ctx, "gone", "")
	require.NoError(t, err)
	other, err := svc.Create(ctx, "stays", "")
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, note.ID))
	for i := 0; i < 3; i++ {
		assert.ErrorIs(t, svc.Delete(ctx, note.ID), models.ErrNoteNotFound)
	}

	assert.Len(t, store.notes, 1)
	_, err = svc.Get(ctx, other.ID)
	assert.NoError(t, err)
}

func TestIDsAreNotReused(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.Create(ctx, "one", "")
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, first.ID))

	second, err := svc.Create(ctx, "two", "")
	require.NoError(t, err)
	assert.Greater(t, second.ID, first.ID)
}

func TestListRejectsBadSortWithoutTouchingStore(t *testing.T) {
	svc, store := newTestService(t)

	_, err := svc.List(context.Background(), query.Params{Sort: "bogus"})
	require.True(t, IsValidation(err))
	assert.Zero(t, store.calls)
}

func TestListFiltersAndCounts(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	for _, title := range []string{"Shopping List", "Shop hours", "Work"} {
		_, err := svc.Create(ctx, title, "")
		require.NoError(t, err)
	}

	for _, size := range []int{1, 2, 50} {
		page, err := svc.List(ctx, query.Params{Filter: "SHOP", PageSize: size})
		require.NoError(t, err)
		assert.Equal(t, 2, page.Total)
		assert.Len(t, page.Items, min(size, 2))
	}
}

func TestListStableUnderTies(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	stamp := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		n, err := svc.Create(ctx, "tie", "")
		require.NoError(t, err)
		store.notes[n.ID].CreatedAt = stamp
		store.notes[n.ID].UpdatedAt = &stamp
	}

	var walked []int64
	for page := 1; page <= 5; page++ {
		res, err := svc.List(ctx, query.Params{Page: page, PageSize: 1})
		require.NoError(t, err)
		require.Len(t, res.Items, 1)
		walked = append(walked, res.Items[0].ID)
	}
	assert.Equal(t, []int64{5, 4, 3, 2, 1}, walked)
}

func TestStoreFailuresPropagate(t *testing.T) {
	ctx := context.Background()
	for _, op := range []string{"insert", "get", "delete", "scan"} {
		t.Run(op, func(t *testing.T) {
			svc, store := newTestService(t)
			store.failOn = op

			var err error
			switch op {
			case "insert":
				_, err = svc.Create(ctx, "t", "")
			case "get":
				_, err = svc.Get(ctx, 1)
			case "delete":
				err = svc.Delete(ctx, 1)
			case "scan":
				_, err = svc.List(ctx, query.Params{})
			}
			assert.ErrorIs(t, err, errBoom)
			assert.False(t, IsNotFound(err))
			assert.False(t, IsValidation(err))
		})
	}
}

func TestAllOrdersByID(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	for _, title := range []string{"c", "a", "b"} {
		_, err := svc.Create(ctx, title, "")
		require.NoError(t, err)
	}
	all, err := svc.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"c", "a", "b"}, []string{all[0].Title, all[1].Title, all[2].Title})
}
