package server

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/quillworks/quill/pkg/config"
	"github.com/quillworks/quill/pkg/controller"
	"github.com/quillworks/quill/pkg/rbac"
	"github.com/quillworks/quill/pkg/security"
	"github.com/quillworks/quill/pkg/server/middleware"
	"github.com/quillworks/quill/pkg/storage"
)

type Server struct {
	Router   *mux.Router
	Config   *config.Config
	Notes    *controller.Controller
	Users    *controller.Controller
	Perms    *rbac.Registry
	Signer   *security.Signer
	Auth     *middleware.TokenAuthenticator
	Enforcer *middleware.Enforcer
	Adapters []storage.Adapter
	Log      *slog.Logger
	srv      *http.Server
}

func NewServer(
	cfg *config.Config,
	notes *controller.Controller,
	users *controller.Controller,
	perms *rbac.Registry,
	signer *security.Signer,
	adapters []storage.Adapter,
	log *slog.Logger,
) *Server {
	if log == nil {
		log = slog.Default()
	}

	router := mux.NewRouter().UseEncodedPath()
	if cfg.RateLimitPerSecond > 0 {
		limiter := middleware.NewRateLimiter(float64(cfg.RateLimitPerSecond), cfg.RateLimitBurst)
		router.Use(limiter.Middleware)
	}

	srv := &http.Server{
		Handler: handlers.LoggingHandler(os.Stdout, router),
		Addr:    cfg.ListenAddress,
		// Good practice: enforce timeouts for servers you create!
		WriteTimeout: 15 * time.Second,
		ReadTimeout:  15 * time.Second,
	}

	return &Server{
		Router:   router,
		Config:   cfg,
		Notes:    notes,
		Users:    users,
		Perms:    perms,
		Signer:   signer,
		Auth:     middleware.NewTokenAuthenticator(signer),
		Enforcer: middleware.NewEnforcer(perms),
		Adapters: adapters,
		Log:      log,
		srv:      srv,
	}
}

func (s *Server) Start() error {
	s.Log.Info("server listening", "addr", s.srv.Addr)
	return s.srv.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
