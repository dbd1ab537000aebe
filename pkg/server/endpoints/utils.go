package endpoints

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/quillworks/quill/pkg/storage"
)

func respondWithError(w http.ResponseWriter, code int, payload interface{}) {
	respondWithJSON(w, code, map[string]interface{}{"error": payload})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, _ := json.Marshal(payload)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}

// respondWithStorageError maps the storage error taxonomy onto protocol
// outcomes. This is the only layer that does so.
func respondWithStorageError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		respondWithError(w, http.StatusNotFound, "not found")
	case errors.Is(err, storage.ErrConstraintViolation):
		respondWithError(w, http.StatusConflict, "conflicts with an existing record")
	case errors.Is(err, storage.ErrMalformedValue):
		respondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, storage.ErrConnection):
		respondWithError(w, http.StatusServiceUnavailable, "storage unavailable")
	default:
		respondWithError(w, http.StatusInternalServerError, err.Error())
	}
}
