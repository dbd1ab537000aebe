package schema

import "github.com/quillworks/quill/pkg/storage"

// RegisterAll registers every model/backend schema pair with r.
// Callers freeze the registry once registration is complete.
func RegisterAll(r *storage.Registry) error {
	pairs := []struct {
		model   string
		backend storage.Backend
		schema  storage.Schema
	}{
		{ModelNotes, storage.Postgres, NotesPostgres()},
		{ModelNotes, storage.MySQL, NotesMySQL()},
		{ModelNotes, storage.SQLServer, NotesSQLServer()},
		{ModelNotes, storage.MongoDB, NotesMongoDB()},
		{ModelUsers, storage.Postgres, UsersPostgres()},
		{ModelUsers, storage.MySQL, UsersMySQL()},
		{ModelUsers, storage.SQLServer, UsersSQLServer()},
		{ModelUsers, storage.MongoDB, UsersMongoDB()},
	}
	for _, p := range pairs {
		if err := r.Register(p.model, p.backend, p.schema); err != nil {
			return err
		}
	}
	return nil
}
