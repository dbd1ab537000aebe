package endpoints

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/quillworks/quill/pkg/controller"
	"github.com/quillworks/quill/pkg/model"
	"github.com/quillworks/quill/pkg/security"
	"github.com/quillworks/quill/pkg/server"
	"github.com/quillworks/quill/pkg/storage"
)

// RegisterUsersEndpoints registers the /api/users CRUD endpoints.
func RegisterUsersEndpoints(s *server.Server) {
	users := s.Users

	s.Perms.RegisterRoute("POST", "/api/users", "users:create")
	s.Perms.RegisterRoute("GET", "/api/users", "users:list")
	s.Perms.RegisterRoute("GET", "/api/users/{id}", "users:read")
	s.Perms.RegisterRoute("PATCH", "/api/users/{id}", "users:update")
	s.Perms.RegisterRoute("DELETE", "/api/users/{id}", "users:delete")

	usersRouter := s.Router.PathPrefix("/api/users").Subrouter()
	usersRouter.Use(s.Auth.Middleware)
	usersRouter.Use(s.Enforcer.Middleware)

	usersRouter.HandleFunc("", handleCreateUser(users)).Methods("POST")
	usersRouter.HandleFunc("", handleListUsers(users)).Methods("GET")
	usersRouter.HandleFunc("/{id}", handleGetUser(users)).Methods("GET")
	usersRouter.HandleFunc("/{id}", handleUpdateUser(users)).Methods("PATCH")
	usersRouter.HandleFunc("/{id}", handleDeleteUser(users)).Methods("DELETE")
}

func handleCreateUser(users *controller.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload model.UserCreate
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid JSON body")
			return
		}
		defer func() { _ = r.Body.Close() }()

		if payload.Username == "" || payload.Email == "" || payload.Password == "" {
			respondWithError(w, http.StatusBadRequest, "username, email and password are required")
			return
		}

		hashed, err := security.HashPassword(payload.Password)
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, err.Error())
			return
		}

		rec, err := controller.AsRecord(payload)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		delete(rec, "password")
		rec["hashed_password"] = hashed

		created, err := users.Create(r.Context(), rec)
		if err != nil {
			respondWithStorageError(w, err)
			return
		}
		respondWithJSON(w, http.StatusCreated, sanitizeUser(created))
	}
}

func handleListUsers(users *controller.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter := storage.Record{}
		for _, field := range []string{"username", "email", "role"} {
			if v := r.URL.Query().Get(field); v != "" {
				filter[field] = v
			}
		}

		skip, limit := pagination(r)
		records, err := users.List(r.Context(), filter, skip, limit)
		if err != nil {
			respondWithStorageError(w, err)
			return
		}

		out := make([]storage.Record, len(records))
		for i, rec := range records {
			out[i] = sanitizeUser(rec)
		}
		respondWithJSON(w, http.StatusOK, out)
	}
}

func handleGetUser(users *controller.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec, err := users.Read(r.Context(), mux.Vars(r)["id"])
		if err != nil {
			respondWithStorageError(w, err)
			return
		}
		respondWithJSON(w, http.StatusOK, sanitizeUser(rec))
	}
}

func handleUpdateUser(users *controller.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload model.UserUpdate
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

		updated, err := users.Update(r.Context(), mux.Vars(r)["id"], patch)
		if err != nil {
			respondWithStorageError(w, err)
			return
		}
		respondWithJSON(w, http.StatusOK, sanitizeUser(updated))
	}
}

func handleDeleteUser(users *controller.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		deleted, err := users.Delete(r.Context(), mux.Vars(r)["id"])
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

// sanitizeUser strips credential material before a user record leaves
// the API.
func sanitizeUser(rec storage.Record) storage.Record {
	out := rec.Clone()
	delete(out, "hashed_password")
	return out
}
