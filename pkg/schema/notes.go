package schema

import "github.com/quillworks/quill/pkg/storage"

const notesPostgresDDL = `
CREATE TABLE IF NOT EXISTS notes (
    id UUID PRIMARY KEY,
    title VARCHAR(255) NOT NULL,
    content TEXT,
    visibility VARCHAR(50) DEFAULT 'private',
    tags TEXT[],
    user_id UUID,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_notes_title ON notes (title);
CREATE INDEX IF NOT EXISTS idx_notes_user_id ON notes (user_id)`

const notesMySQLDDL = `
CREATE TABLE IF NOT EXISTS notes (
    id BIGINT AUTO_INCREMENT PRIMARY KEY,
    title VARCHAR(255) NOT NULL,
    content TEXT,
    visibility VARCHAR(50) DEFAULT 'private',
    tags TEXT,
    user_id BIGINT,
    created_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
    updated_at DATETIME(3) NULL,
    INDEX idx_notes_title (title),
    INDEX idx_notes_user_id (user_id)
)`

const notesSQLServerDDL = `
IF OBJECT_ID('notes', 'U') IS NULL
CREATE TABLE notes (
    id UNIQUEIDENTIFIER PRIMARY KEY,
    title NVARCHAR(255) NOT NULL,
    content NVARCHAR(MAX),
    visibility NVARCHAR(50) DEFAULT 'private',
    tags NVARCHAR(MAX),
    user_id UNIQUEIDENTIFIER,
    created_at DATETIME2 NOT NULL DEFAULT SYSUTCDATETIME(),
    updated_at DATETIME2
);
IF NOT EXISTS (SELECT 1 FROM sys.indexes WHERE name = 'idx_notes_title' AND object_id = OBJECT_ID('notes'))
CREATE INDEX idx_notes_title ON notes (title);
IF NOT EXISTS (SELECT 1 FROM sys.indexes WHERE name = 'idx_notes_user_id' AND object_id = OBJECT_ID('notes'))
CREATE INDEX idx_notes_user_id ON notes (user_id)`

// NotesPostgres maps notes onto a Postgres table with a client-side
// UUID key and a native text array for tags.
func NotesPostgres() storage.Schema {
	return &tableSchema{
		collection: ModelNotes,
		ddl:        notesPostgresDDL,
		idColumn:   "id",
		toDB: map[string]func(any) (any, error){
			"tags": toPgArray,
		},
		fromDB: map[string]func(any) any{
			"id":         fromUUID,
			"user_id":    fromUUID,
			"tags":       fromPgArray("tags"),
			"created_at": fromTime,
			"updated_at": fromTime,
		},
		listDefaults: []string{"tags"},
	}
}

// NotesMySQL maps notes onto a MySQL table. The key is a server-side
// AUTO_INCREMENT integer surfaced as its decimal string, and tags are
// stored as a JSON text column.
func NotesMySQL() storage.Schema {
	return &tableSchema{
		collection: ModelNotes,
		ddl:        notesMySQLDDL,
		serverID:   true,
		idColumn:   "id",
		toDB: map[string]func(any) (any, error){
			"id":      toInt64,
			"user_id": toInt64,
			"tags":    toJSONList,
		},
		fromDB: map[string]func(any) any{
			"id":         fromInt,
			"user_id":    fromInt,
			"tags":       fromJSONList("tags"),
			"created_at": fromTime,
			"updated_at": fromTime,
		},
		listDefaults: []string{"tags"},
	}
}

// NotesSQLServer maps notes onto a SQL Server table with a client-side
// UNIQUEIDENTIFIER key and tags stored as a JSON text column.
func NotesSQLServer() storage.Schema {
	return &tableSchema{
		collection: ModelNotes,
		ddl:        notesSQLServerDDL,
		idColumn:   "id",
		toDB: map[string]func(any) (any, error){
			"tags": toJSONList,
		},
		fromDB: map[string]func(any) any{
			"id":         fromMSSQLUUID,
			"user_id":    fromMSSQLUUID,
			"tags":       fromJSONList("tags"),
			"created_at": fromTime,
			"updated_at": fromTime,
		},
		listDefaults: []string{"tags"},
	}
}

// NotesMongoDB maps notes onto a collection keyed by a server-side
// ObjectID, with tags as a native array.
func NotesMongoDB() storage.Schema {
	return &tableSchema{
		collection: ModelNotes,
		serverID:   true,
		idColumn:   "_id",
		toDB: map[string]func(any) (any, error){
			"id": toObjectID,
		},
		fromDB: map[string]func(any) any{
			"id":         fromObjectID,
			"tags":       fromNativeList("tags"),
			"created_at": fromTime,
			"updated_at": fromTime,
		},
		listDefaults: []string{"tags"},
	}
}
