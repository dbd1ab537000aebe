package endpoints

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/quillworks/quill/pkg/schema"
	"github.com/quillworks/quill/pkg/security"
	"github.com/quillworks/quill/pkg/server"
	"github.com/quillworks/quill/pkg/storage"
)

// LoginRequest carries the credentials for /api/auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is the issued access token.
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// RegisterAuthEndpoints registers the /api/auth endpoints. Login is the
// only unauthenticated API route.
func RegisterAuthEndpoints(s *server.Server) {
	s.Router.HandleFunc("/api/auth/login", handleLogin(s)).Methods("POST")
}

func handleLogin(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid JSON body")
			return
		}
		defer func() { _ = r.Body.Close() }()

		if req.Username == "" || req.Password == "" {
			respondWithError(w, http.StatusBadRequest, "username and password are required")
			return
		}

		user, err := s.Users.FindOne(r.Context(), storage.Record{"username": req.Username})
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				// Burn a comparison so a missing user costs the same as
				// a wrong password.
				security.VerifyPassword(dummyHash, req.Password)
				respondWithError(w, http.StatusUnauthorized, "invalid credentials")
				return
			}
			respondWithStorageError(w, err)
			return
		}

		hashed, _ := user["hashed_password"].(string)
		if !security.VerifyPassword(hashed, req.Password) {
			respondWithError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		if active, ok := user["is_active"].(bool); ok && !active {
			respondWithError(w, http.StatusUnauthorized, "account disabled")
			return
		}

		role, _ := user["role"].(string)
		permissions, _ := user["permissions"].([]string)

		token, err := s.Signer.Issue(user.ID(), req.Username, role, permissions)
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, err.Error())
			return
		}

		s.Log.Info("login", "username", req.Username, "model", schema.ModelUsers)
		respondWithJSON(w, http.StatusOK, LoginResponse{
			AccessToken: token,
			TokenType:   "Bearer",
			ExpiresIn:   s.Config.TokenTTLSeconds,
		})
	}
}

// dummyHash is a bcrypt hash of a random string, used to equalize
// timing on unknown usernames.
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"
