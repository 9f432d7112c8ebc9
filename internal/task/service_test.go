package task

import (
	"context"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tasknest/api/internal/logging"
)

// fakeStore is an in-memory Store for service tests
type fakeStore struct {
	nextID int64
	tasks  map[int64]*Task
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		nextID: 1,
		tasks:  make(map[int64]*Task),
	}
}

func (s *fakeStore) Create(ctx context.Context, t *Task) error {
	now := time.Now()
	t.ID = s.nextID
	t.CreatedAt = now
	t.UpdatedAt = now
	s.nextID++

	copied := *t
	s.tasks[t.ID] = &copied
	return nil
}

func (s *fakeStore) ListByOwner(ctx context.Context, ownerID int64, isComplete *bool) ([]*Task, error) {
	var result []*Task
	for _, t := range s.tasks {
		if t.UserID != ownerID {
			continue
		}
		if isComplete != nil && t.IsComplete != *isComplete {
			continue
		}
		copied := *t
		result = append(result, &copied)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (s *fakeStore) CountByOwner(ctx context.Context, ownerID int64) (int, error) {
	count := 0
	for _, t := range s.tasks {
		if t.UserID == ownerID {
			count++
		}
	}
	return count, nil
}

func (s *fakeStore) GetOwned(ctx context.Context, ownerID, taskID int64) (*Task, error) {
	t, ok := s.tasks[taskID]
	if !ok || t.UserID != ownerID {
		return nil, ErrNotFound
	}
	copied := *t
	return &copied, nil
}

func (s *fakeStore) Update(ctx context.Context, t *Task) (*Task, error) {
	existing, ok := s.tasks[t.ID]
	if !ok || existing.UserID != t.UserID {
		return nil, ErrNotFound
	}

	existing.Title = t.Title
	existing.Description = t.Description
	existing.IsComplete = t.IsComplete
	existing.UpdatedAt = time.Now()

	copied := *existing
	return &copied, nil
}

func (s *fakeStore) DeleteOwned(ctx context.Context, ownerID, taskID int64) error {
	t, ok := s.tasks[taskID]
	if !ok || t.UserID != ownerID {
		return ErrNotFound
	}
	delete(s.tasks, taskID)
	return nil
}

func newTestService() (*Service, *fakeStore) {
	store := newFakeStore()
	return NewService(store, logging.NewLogger(true)), store
}

func strPtr(s string) *string {
	return &s
}

func TestCreateAssignsOwnerAndTrims(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	created, err := svc.Create(ctx, 42, CreateInput{Title: "  buy milk  "})
	require.NoError(t, err)

	assert.Equal(t, int64(42), created.UserID)
	assert.Equal(t, "buy milk", created.Title)
	assert.Nil(t, created.Description)
	assert.False(t, created.IsComplete)
	assert.NotZero(t, created.ID)
}

func TestCreateValidation(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Create(ctx, 1, CreateInput{Title: "  "})
	assert.ErrorIs(t, err, ErrTitleRequired)

	_, err = svc.Create(ctx, 1, CreateInput{Title: strings.Repeat("a", 201)})
	assert.ErrorIs(t, err, ErrTitleTooLong)

	_, err = svc.Create(ctx, 1, CreateInput{
		Title:       "ok",
		Description: strPtr(strings.Repeat("d", 1001)),
	})
	assert.ErrorIs(t, err, ErrDescriptionTooLong)
}

func TestCreateCountsCharactersNotBytes(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	// 200 two-byte characters is 400 bytes but exactly at the limit
	title := strings.Repeat("é", 200)
	created, err := svc.Create(ctx, 1, CreateInput{Title: title})
	require.NoError(t, err)
	assert.Equal(t, title, created.Title)

	_, err = svc.Create(ctx, 1, CreateInput{Title: strings.Repeat("é", 201)})
	assert.ErrorIs(t, err, ErrTitleTooLong)

	desc := strings.Repeat("漢", 1000)
	created, err = svc.Create(ctx, 1, CreateInput{Title: "ok", Description: &desc})
	require.NoError(t, err)
	require.NotNil(t, created.Description)
	assert.Equal(t, desc, *created.Description)

	tooLong := strings.Repeat("漢", 1001)
	_, err = svc.Create(ctx, 1, CreateInput{Title: "ok", Description: &tooLong})
	assert.ErrorIs(t, err, ErrDescriptionTooLong)
}

func TestCreateNormalizesEmptyDescription(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	created, err := svc.Create(ctx, 1, CreateInput{Title: "ok", Description: strPtr("   ")})
	require.NoError(t, err)
	assert.Nil(t, created.Description)

	created, err = svc.Create(ctx, 1, CreateInput{Title: "ok", Description: strPtr("  details  ")})
	require.NoError(t, err)
	require.NotNil(t, created.Description)
	assert.Equal(t, "details", *created.Description)
}

func TestListFiltersAndCounts(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.Create(ctx, 1, CreateInput{Title: "pending"})
		require.NoError(t, err)
	}
	done, err := svc.Create(ctx, 1, CreateInput{Title: "done"})
	require.NoError(t, err)
	_, err = svc.Toggle(ctx, 1, done.ID)
	require.NoError(t, err)

	// Another user's task must never show up
	_, err = svc.Create(ctx, 2, CreateInput{Title: "not mine"})
	require.NoError(t, err)

	all, err := svc.List(ctx, 1, "")
	require.NoError(t, err)
	assert.Equal(t, 4, all.TotalCount)
	assert.Equal(t, 4, all.FilteredCount)
	assert.Len(t, all.Tasks, 4)

	complete, err := svc.List(ctx, 1, "complete")
	require.NoError(t, err)
	assert.Equal(t, 4, complete.TotalCount)
	assert.Equal(t, 1, complete.FilteredCount)
	assert.LessOrEqual(t, complete.FilteredCount, complete.TotalCount)

	incomplete, err := svc.List(ctx, 1, "incomplete")
	require.NoError(t, err)
	assert.Equal(t, 3, incomplete.FilteredCount)
}

func TestListUnknownFilterIsUnfiltered(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Create(ctx, 1, CreateInput{Title: "a"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, 1, CreateInput{Title: "b"})
	require.NoError(t, err)

	for _, filter := range []string{"bogus", "COMPLETE", "done", "all"} {
		result, err := svc.List(ctx, 1, filter)
		require.NoError(t, err)
		assert.Equal(t, 2, result.FilteredCount, "filter %q should be ignored", filter)
	}
}

func TestGetOtherOwnersTaskIsNotFound(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	created, err := svc.Create(ctx, 1, CreateInput{Title: "mine"})
	require.NoError(t, err)

	_, err = svc.Get(ctx, 2, created.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Get(ctx, 1, created.ID+1000)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdatePartial(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	created, err := svc.Create(ctx, 1, CreateInput{
		Title:       "original",
		Description: strPtr("keep me"),
	})
	require.NoError(t, err)

	// Only title supplied: description must survive
	updated, err := svc.Update(ctx, 1, created.ID, UpdateInput{Title: strPtr("  renamed  ")})
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Title)
	require.NotNil(t, updated.Description)
	assert.Equal(t, "keep me", *updated.Description)

	// Only description supplied: title must survive
	updated, err = svc.Update(ctx, 1, created.ID, UpdateInput{Description: strPtr("new details")})
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Title)
	require.NotNil(t, updated.Description)
	assert.Equal(t, "new details", *updated.Description)
}

func TestUpdateValidationMatchesCreate(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	created, err := svc.Create(ctx, 1, CreateInput{Title: "ok"})
	require.NoError(t, err)

	_, err = svc.Update(ctx, 1, created.ID, UpdateInput{Title: strPtr("   ")})
	assert.ErrorIs(t, err, ErrTitleRequired)

	_, err = svc.Update(ctx, 1, created.ID, UpdateInput{Title: strPtr(strings.Repeat("a", 201))})
	assert.ErrorIs(t, err, ErrTitleTooLong)
}

func TestUpdateOtherOwnersTaskIsNotFound(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	created, err := svc.Create(ctx, 1, CreateInput{Title: "mine"})
	require.NoError(t, err)

	_, err = svc.Update(ctx, 2, created.ID, UpdateInput{Title: strPtr("stolen")})
	assert.ErrorIs(t, err, ErrNotFound)

	// Unchanged for the owner
	got, err := svc.Get(ctx, 1, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "mine", got.Title)
}

func TestDelete(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	created, err := svc.Create(ctx, 1, CreateInput{Title: "mine"})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(ctx, 2, created.ID), ErrNotFound)
	require.NoError(t, svc.Delete(ctx, 1, created.ID))
	assert.ErrorIs(t, svc.Delete(ctx, 1, created.ID), ErrNotFound)
}

func TestToggleTwiceRestoresState(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	created, err := svc.Create(ctx, 1, CreateInput{Title: "mine"})
	require.NoError(t, err)
	require.False(t, created.IsComplete)

	once, err := svc.Toggle(ctx, 1, created.ID)
	require.NoError(t, err)
	assert.True(t, once.IsComplete)

	twice, err := svc.Toggle(ctx, 1, created.ID)
	require.NoError(t, err)
	assert.False(t, twice.IsComplete)
}

func TestToggleOtherOwnersTaskIsNotFound(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	created, err := svc.Create(ctx, 1, CreateInput{Title: "mine"})
	require.NoError(t, err)

	_, err = svc.Toggle(ctx, 2, created.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
