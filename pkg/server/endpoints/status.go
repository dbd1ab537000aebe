package endpoints

import (
	"net/http"
	"os"

	"github.com/quillworks/quill/pkg/server"
)

// VersionResponse is the / banner.
type VersionResponse struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// HealthResponse reports per-backend connectivity.
type HealthResponse struct {
	Status   string            `json:"status"`
	Backends map[string]string `json:"backends"`
}

// RegisterStatusEndpoints registers the version banner and health
// endpoints. Neither requires authentication.
func RegisterStatusEndpoints(s *server.Server) {
	s.Router.HandleFunc("/", handleVersion()).Methods("GET")
	s.Router.HandleFunc("/health", handleHealth(s)).Methods("GET")
}

func handleVersion() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		version := os.Getenv("QUILL_VERSION_DISPLAY")
		if version == "" {
			version = "0.1.0"
		}
		respondWithJSON(w, http.StatusOK, VersionResponse{Name: "quill", Version: version})
	}
}

func handleHealth(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response := HealthResponse{Status: "ok", Backends: map[string]string{}}
		code := http.StatusOK

		for _, adapter := range s.Adapters {
			if err := adapter.Ping(r.Context()); err != nil {
				response.Backends[adapter.Kind().String()] = "unreachable"
				response.Status = "degraded"
				code = http.StatusServiceUnavailable
				continue
			}
			response.Backends[adapter.Kind().String()] = "ok"
		}

		respondWithJSON(w, code, response)
	}
}
