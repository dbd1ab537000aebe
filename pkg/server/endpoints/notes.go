package endpoints

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/quillworks/quill/pkg/controller"
	"github.com/quillworks/quill/pkg/model"
	"github.com/quillworks/quill/pkg/server"
	"github.com/quillworks/quill/pkg/storage"
)

// RegisterNotesEndpoints registers the /api/notes CRUD endpoints.
func RegisterNotesEndpoints(s *server.Server) {
	notes := s.Notes

	s.Perms.RegisterRoute("POST", "/api/notes", "notes:create")
	s.Perms.RegisterRoute("GET", "/api/notes", "notes:list")
	s.Perms.RegisterRoute("GET", "/api/notes/{id}", "notes:read")
	s.Perms.RegisterRoute("PATCH", "/api/notes/{id}", "notes:update")
	s.Perms.RegisterRoute("DELETE", "/api/notes/{id}", "notes:delete")

	notesRouter := s.Router.PathPrefix("/api/notes").Subrouter()
	notesRouter.Use(s.Auth.Middleware)
	notesRouter.Use(s.Enforcer.Middleware)

	notesRouter.HandleFunc("", handleCreateNote(notes)).Methods("POST")
	notesRouter.HandleFunc("", handleListNotes(notes)).Methods("GET")
	notesRouter.HandleFunc("/{id}", handleGetNote(notes)).Methods("GET")
	notesRouter.HandleFunc("/{id}", handleUpdateNote(notes)).Methods("PATCH")
	notesRouter.HandleFunc("/{id}", handleDeleteNote(notes)).Methods("DELETE")
}

func handleCreateNote(notes *controller.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload model.NoteCreate
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid JSON body")
			return
		}
		defer func() { _ = r.Body.Close() }()

		if payload.Title == "" {
			respondWithError(w, http.StatusBadRequest, "title is required")
			return
		}

		rec, err := controller.AsRecord(payload)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		created, err := notes.Create(r.Context(), rec)
		if err != nil {
			respondWithStorageError(w, err)
			return
		}
		respondWithJSON(w, http.StatusCreated, created)
	}
}

func handleListNotes(notes *controller.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter := storage.Record{}
		for _, field := range []string{"visibility", "user_id", "title"} {
			if v := r.URL.Query().Get(field); v != "" {
				filter[field] = v
			}
		}

		skip, limit := pagination(r)
		records, err := notes.List(r.Context(), filter, skip, limit)
		if err != nil {
			respondWithStorageError(w, err)
			return
		}
		respondWithJSON(w, http.StatusOK, records)
	}
}

func handleGetNote(notes *controller.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec, err := notes.Read(r.Context(), mux.Vars(r)["id"])
		if err != nil {
			respondWithStorageError(w, err)
			return
		}
		respondWithJSON(w, http.StatusOK, rec)
	}
}

func handleUpdateNote(notes *controller.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload model.NoteUpdate
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid JSON body")
			return
		}
		defer func() { _ = r.Body.Close() }()

		patch, err := controller.AsRecord(payload)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		if len(patch) == 0 {
			respondWithError(w, http.StatusBadRequest, "empty patch")
			return
		}

		updated, err := notes.Update(r.Context(), mux.Vars(r)["id"], patch)
		if err != nil {
			respondWithStorageError(w, err)
			return
		}
		respondWithJSON(w, http.StatusOK, updated)
	}
}

func handleDeleteNote(notes *controller.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		deleted, err := notes.Delete(r.Context(), mux.Vars(r)["id"])
		if err != nil {
			respondWithStorageError(w, err)
			return
		}
		if !deleted {
			respondWithError(w, http.StatusNotFound, "not found")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func pagination(r *http.Request) (skip, limit int) {
	if v := r.URL.Query().Get("skip"); v != "" {
		if i, err := strconv.Atoi(v); err == nil && i > 0 {
			skip = i
		}
	}
	limit = 100
	if v := r.URL.Query().Get("limit"); v != "" {
		if i, err := strconv.Atoi(v); err == nil && i > 0 {
			limit = i
		}
	}
	return skip, limit
}
