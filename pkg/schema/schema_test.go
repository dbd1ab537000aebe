package schema

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/quillworks/quill/pkg/storage"
)

func TestNotesPostgresToDB(t *testing.T) {
	s := NotesPostgres()

	out, err := s.ToDB(storage.Record{
		"id":    "6f1f9a30-0c3f-4a0e-9b1c-6a5d2e8f0a11",
		"title": "Go modules",
		"tags":  []string{"go", "tooling"},
	})
	require.NoError(t, err)

	assert.Equal(t, "6f1f9a30-0c3f-4a0e-9b1c-6a5d2e8f0a11", out["id"])
	assert.Equal(t, pq.StringArray{"go", "tooling"}, out["tags"])
}

func TestNotesPostgresFromDB(t *testing.T) {
	s := NotesPostgres()
	now := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

	out, err := s.FromDB(storage.Record{
		"id":         []byte(uuid.MustParse("6f1f9a30-0c3f-4a0e-9b1c-6a5d2e8f0a11").String()),
		"title":      "Go modules",
		"tags":       "{go,tooling}",
		"created_at": now,
	})
	require.NoError(t, err)

	assert.Equal(t, "6f1f9a30-0c3f-4a0e-9b1c-6a5d2e8f0a11", out["id"])
	assert.Equal(t, []string{"go", "tooling"}, out["tags"])
	assert.Equal(t, now, out["created_at"])
}

func TestTagsDefaultToEmptyList(t *testing.T) {
	for name, s := range map[string]storage.Schema{
		"postgres":  NotesPostgres(),
		"mysql":     NotesMySQL(),
		"sqlserver": NotesSQLServer(),
		"mongodb":   NotesMongoDB(),
	} {
		t.Run(name, func(t *testing.T) {
			out, err := s.FromDB(storage.Record{"title": "bare"})
			require.NoError(t, err)
			assert.Equal(t, []string{}, out["tags"])

			out, err = s.FromDB(storage.Record{"title": "null tags", "tags": nil})
			require.NoError(t, err)
			assert.Equal(t, []string{}, out["tags"])
		})
	}
}

func TestMalformedStoredListReadsAsEmpty(t *testing.T) {
	out, err := NotesMySQL().FromDB(storage.Record{"tags": "not json"})
	require.NoError(t, err)
	assert.Equal(t, []string{}, out["tags"])

	out, err = NotesPostgres().FromDB(storage.Record{"tags": 42})
	require.NoError(t, err)
	assert.Equal(t, []string{}, out["tags"])
}

func TestNotesMySQLIDConversions(t *testing.T) {
	s := NotesMySQL()

	out, err := s.ToDB(storage.Record{"id": "7", "user_id": "12"})
	require.NoError(t, err)
	assert.Equal(t, int64(7), out["id"])
	assert.Equal(t, int64(12), out["user_id"])

	_, err = s.ToDB(storage.Record{"id": "not-a-number"})
	require.Error(t, err)

	back, err := s.FromDB(storage.Record{"id": int64(7), "title": "x"})
	require.NoError(t, err)
	assert.Equal(t, "7", back["id"])
}

func TestNotesMySQLTagsStoredAsJSON(t *testing.T) {
	s := NotesMySQL()

	out, err := s.ToDB(storage.Record{"tags": []string{"a", "b"}})
	require.NoError(t, err)
	assert.JSONEq(t, `["a","b"]`, out["tags"].(string))

	back, err := s.FromDB(storage.Record{"tags": []byte(`["a","b"]`)})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, back["tags"])
}

func TestUsersSQLServerGUIDNormalization(t *testing.T) {
	id := uuid.MustParse("01020304-0506-0708-090a-0b0c0d0e0f10")
	raw := make([]byte, 16)
	copy(raw, id[:])
	raw[0], raw[1], raw[2], raw[3] = id[3], id[2], id[1], id[0]
	raw[4], raw[5] = id[5], id[4]
	raw[6], raw[7] = id[7], id[6]

	out, err := UsersSQLServer().FromDB(storage.Record{"id": raw, "username": "admin"})
	require.NoError(t, err)
	assert.Equal(t, id.String(), out["id"])
}

func TestUsersMongoDBIDMapping(t *testing.T) {
	s := UsersMongoDB()
	oid := primitive.NewObjectID()

	out, err := s.ToDB(storage.Record{"id": oid.Hex(), "username": "admin"})
	require.NoError(t, err)
	assert.Equal(t, oid, out["_id"])
	assert.NotContains(t, out, "id")

	back, err := s.FromDB(storage.Record{"_id": oid, "username": "admin"})
	require.NoError(t, err)
	assert.Equal(t, oid.Hex(), back["id"])
	assert.NotContains(t, back, "_id")
}

func TestUsersMongoDBUniqueIndexes(t *testing.T) {
	assert.Equal(t, []string{"username", "email"}, UsersMongoDB().UniqueIndexes())
	assert.Empty(t, NotesMongoDB().UniqueIndexes())
}

func TestIsActiveNormalization(t *testing.T) {
	out, err := UsersMySQL().FromDB(storage.Record{"is_active": int64(1)})
	require.NoError(t, err)
	assert.Equal(t, true, out["is_active"])

	out, err = UsersMySQL().FromDB(storage.Record{"is_active": int64(0)})
	require.NoError(t, err)
	assert.Equal(t, false, out["is_active"])
}

func TestServerGeneratedIDFlags(t *testing.T) {
	assert.False(t, NotesPostgres().ServerGeneratesID())
	assert.False(t, NotesSQLServer().ServerGeneratesID())
	assert.True(t, NotesMySQL().ServerGeneratesID())
	assert.True(t, NotesMongoDB().ServerGeneratesID())
}

func TestRegisterAll(t *testing.T) {
	r := storage.NewRegistry()
	require.NoError(t, RegisterAll(r))
	r.Freeze()

	for _, model := range []string{ModelNotes, ModelUsers} {
		for _, backend := range storage.Backends() {
			s, err := r.Schema(model, backend)
			require.NoError(t, err, "%s on %s", model, backend)
			assert.Equal(t, model, s.Collection())
		}
	}
}
