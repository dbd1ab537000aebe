package controller

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillworks/quill/pkg/model"
	"github.com/quillworks/quill/pkg/schema"
	"github.com/quillworks/quill/pkg/storage"
	"github.com/quillworks/quill/pkg/storage/storagetest"
)

func newRegistry(t *testing.T) *storage.Registry {
	t.Helper()
	r := storage.NewRegistry()
	require.NoError(t, schema.RegisterAll(r))
	r.Freeze()
	return r
}

func notesController(t *testing.T, adapter storage.Adapter) *Controller {
	t.Helper()
	c, err := New(schema.ModelNotes, adapter, newRegistry(t), Hooks{
		PreCreate: model.NormalizeNoteCreate,
		PreUpdate: model.StampUpdate,
	})
	require.NoError(t, err)
	return c
}

func usersController(t *testing.T, adapter storage.Adapter) *Controller {
	t.Helper()
	c, err := New(schema.ModelUsers, adapter, newRegistry(t), Hooks{
		PreCreate: model.NormalizeUserCreate,
		PreUpdate: model.StampUpdate,
	})
	require.NoError(t, err)
	return c
}

func TestNoteLifecycle(t *testing.T) {
	ctx := context.Background()
	c := notesController(t, storagetest.New(storage.Postgres))

	created, err := c.Create(ctx, storage.Record{
		"title":   "Note A",
		"content": "first",
	})
	require.NoError(t, err)

	id := created.ID()
	require.NotEmpty(t, id)
	_, err = uuid.Parse(id)
	require.NoError(t, err, "client-side keys are uuids")
	assert.Equal(t, "private", created["visibility"], "visibility defaults")
	assert.Equal(t, []string{}, created["tags"], "tags default to empty")
	assert.NotNil(t, created["created_at"])

	got, err := c.Read(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Note A", got["title"])

	updated, err := c.Update(ctx, id, storage.Record{"content": "second"})
	require.NoError(t, err)
	assert.Equal(t, "second", updated["content"])
	assert.Equal(t, "Note A", updated["title"], "unpatched fields survive")
	assert.NotNil(t, updated["updated_at"])

	deleted, err := c.Delete(ctx, id)
	require.NoError(t, err)
	assert.True(t, deleted)

	_, err = c.Read(ctx, id)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestCreateOnServerKeyedBackend(t *testing.T) {
	ctx := context.Background()
	c := notesController(t, storagetest.New(storage.MySQL).WithServerIDs())

	created, err := c.Create(ctx, storage.Record{"title": "serial"})
	require.NoError(t, err)
	assert.Equal(t, "1", created.ID(), "server assigns the key")
}

func TestUpdateCannotChangeKey(t *testing.T) {
	ctx := context.Background()
	c := notesController(t, storagetest.New(storage.Postgres))

	created, err := c.Create(ctx, storage.Record{"title": "fixed"})
	require.NoError(t, err)

	updated, err := c.Update(ctx, created.ID(), storage.Record{
		"id":    "someone-else",
		"title": "renamed",
	})
	require.NoError(t, err)
	assert.Equal(t, created.ID(), updated.ID())
	assert.Equal(t, "renamed", updated["title"])
}

func TestDuplicateUsernameIsConstraintViolation(t *testing.T) {
	ctx := context.Background()
	adapter := storagetest.New(storage.Postgres).WithUnique("users", "username", "email")
	c := usersController(t, adapter)

	_, err := c.Create(ctx, storage.Record{
		"username":        "admin",
		"email":           "admin@example.com",
		"hashed_password": "x",
	})
	require.NoError(t, err)

	_, err = c.Create(ctx, storage.Record{
		"username":        "admin",
		"email":           "other@example.com",
		"hashed_password": "x",
	})
	assert.ErrorIs(t, err, storage.ErrConstraintViolation)
}

func TestConcurrentDuplicateCreatesConflictOnce(t *testing.T) {
	ctx := context.Background()
	adapter := storagetest.New(storage.Postgres).WithUnique("users", "username")
	c := usersController(t, adapter)

	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		email := fmt.Sprintf("writer%d@example.com", i)
		go func() {
			_, err := c.Create(ctx, storage.Record{
				"username":        "admin",
				"email":           email,
				"hashed_password": "x",
			})
			errs <- err
		}()
	}

	var conflicts, successes int
	for i := 0; i < 2; i++ {
		switch err := <-errs; {
		case err == nil:
			successes++
		case errors.Is(err, storage.ErrConstraintViolation):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, successes, "exactly one writer wins")
	assert.Equal(t, 1, conflicts, "exactly one writer sees the conflict")
}

func TestMissingRecordOperations(t *testing.T) {
	ctx := context.Background()
	c := notesController(t, storagetest.New(storage.Postgres))

	_, err := c.Read(ctx, uuid.NewString())
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = c.Update(ctx, uuid.NewString(), storage.Record{"title": "x"})
	assert.ErrorIs(t, err, storage.ErrNotFound)

	deleted, err := c.Delete(ctx, uuid.NewString())
	require.NoError(t, err)
	assert.False(t, deleted, "deleting a missing record is not an error")
}

func TestListFilterSkipLimit(t *testing.T) {
	ctx := context.Background()
	c := notesController(t, storagetest.New(storage.Postgres))

	for _, title := range []string{"a", "b", "c", "d"} {
		visibility := "private"
		if title == "b" || title == "d" {
			visibility = "public"
		}
		_, err := c.Create(ctx, storage.Record{"title": title, "visibility": visibility})
		require.NoError(t, err)
	}

	all, err := c.List(ctx, nil, 0, 0)
	require.NoError(t, err)
	assert.Len(t, all, 4)

	public, err := c.List(ctx, storage.Record{"visibility": "public"}, 0, 0)
	require.NoError(t, err)
	require.Len(t, public, 2)
	assert.Equal(t, "b", public[0]["title"])
	assert.Equal(t, "d", public[1]["title"])

	page, err := c.List(ctx, nil, 1, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "b", page[0]["title"])
	assert.Equal(t, "c", page[1]["title"])

	past, err := c.List(ctx, nil, 10, 2)
	require.NoError(t, err)
	assert.Empty(t, past)
}

func TestFindOne(t *testing.T) {
	ctx := context.Background()
	c := usersController(t, storagetest.New(storage.Postgres))

	_, err := c.Create(ctx, storage.Record{
		"username":        "admin",
		"email":           "admin@example.com",
		"hashed_password": "x",
	})
	require.NoError(t, err)

	found, err := c.FindOne(ctx, storage.Record{"username": "admin"})
	require.NoError(t, err)
	assert.Equal(t, "admin@example.com", found["email"])

	_, err = c.FindOne(ctx, storage.Record{"username": "ghost"})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestNewFailsWithoutSchema(t *testing.T) {
	r := storage.NewRegistry()
	r.Freeze()

	_, err := New("widgets", storagetest.New(storage.Postgres), r, Hooks{})
	assert.ErrorIs(t, err, storage.ErrSchemaNotRegistered)
}

func TestAsRecordDropsUnsetOptionalFields(t *testing.T) {
	title := "patched"
	rec, err := AsRecord(model.NoteUpdate{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "patched", rec["title"])
	assert.NotContains(t, rec, "content")
	assert.NotContains(t, rec, "tags")
}
