package integration

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/quillworks/quill/pkg/bootstrap"
	"github.com/quillworks/quill/pkg/config"
	"github.com/quillworks/quill/pkg/controller"
	"github.com/quillworks/quill/pkg/model"
	"github.com/quillworks/quill/pkg/rbac"
	"github.com/quillworks/quill/pkg/schema"
	"github.com/quillworks/quill/pkg/security"
	"github.com/quillworks/quill/pkg/server"
	"github.com/quillworks/quill/pkg/server/endpoints"
	"github.com/quillworks/quill/pkg/storage"
	"github.com/quillworks/quill/pkg/storage/postgres"
)

const (
	adminUsername = "admin"
	adminPassword = "integration-secret"
	serverPort    = "18080"
)

// TestContext holds all the resources needed for integration tests.
type TestContext struct {
	Container  testcontainers.Container
	Adapter    *postgres.Adapter
	Server     *server.Server
	ServerURL  string
	HTTPClient *http.Client
}

// NewTestContext starts a PostgreSQL testcontainer, runs the full
// bootstrap against it and serves the API in-process.
func NewTestContext(ctx context.Context) (*TestContext, error) {
	pgContainer, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("quill_test"),
		tcpostgres.WithUsername("quill"),
		tcpostgres.WithPassword("quill"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start postgres container: %w", err)
	}

	host, err := pgContainer.Host(ctx)
	if err != nil {
		_ = pgContainer.Terminate(ctx)
		return nil, fmt.Errorf("failed to get container host: %w", err)
	}
	port, err := pgContainer.MappedPort(ctx, "5432")
	if err != nil {
		_ = pgContainer.Terminate(ctx)
		return nil, fmt.Errorf("failed to get container port: %w", err)
	}
	connStr := fmt.Sprintf("postgres://quill:quill@%s:%s/quill_test?sslmode=disable", host, port.Port())

	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	adapter := postgres.New(connStr, log)
	if err := adapter.Connect(ctx); err != nil {
		_ = pgContainer.Terminate(ctx)
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	registry := storage.NewRegistry()
	if err := schema.RegisterAll(registry); err != nil {
		_ = pgContainer.Terminate(ctx)
		return nil, fmt.Errorf("failed to register schemas: %w", err)
	}
	registry.Freeze()

	perms := rbac.Defaults()
	initializer := &bootstrap.Initializer{
		Registry: registry,
		Adapters: []storage.Adapter{adapter},
		Perms:    perms,
		Admin: bootstrap.AdminConfig{
			Username: adminUsername,
			Email:    "admin@quill.test",
			Password: adminPassword,
		},
		Log: log,
	}
	if _, err := initializer.Run(ctx); err != nil {
		_ = pgContainer.Terminate(ctx)
		return nil, fmt.Errorf("bootstrap failed: %w", err)
	}

	srv, err := startInlineServer(adapter, registry, perms, log)
	if err != nil {
		_ = pgContainer.Terminate(ctx)
		return nil, err
	}

	serverURL := fmt.Sprintf("http://127.0.0.1:%s", serverPort)
	if err := waitForServer(serverURL, 30*time.Second); err != nil {
		_ = srv.Shutdown(ctx)
		_ = pgContainer.Terminate(ctx)
		return nil, fmt.Errorf("server failed to become ready: %w", err)
	}

	return &TestContext{
		Container:  pgContainer,
		Adapter:    adapter,
		Server:     srv,
		ServerURL:  serverURL,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}, nil
}

// startInlineServer runs the API server in-process, wired the same way
// the quillctl server command wires it.
func startInlineServer(adapter storage.Adapter, registry *storage.Registry, perms *rbac.Registry, log *slog.Logger) (*server.Server, error) {
	cfg := &config.Config{
		Backends:        []string{adapter.Kind().String()},
		ListenAddress:   "127.0.0.1:" + serverPort,
		TokenSecret:     "integration-token-secret",
		TokenTTLSeconds: 1800,
	}

	notes, err := controller.New(schema.ModelNotes, adapter, registry, controller.Hooks{
		PreCreate: model.NormalizeNoteCreate,
		PreUpdate: model.StampUpdate,
	})
	if err != nil {
		return nil, err
	}
	users, err := controller.New(schema.ModelUsers, adapter, registry, controller.Hooks{
		PreCreate: model.NormalizeUserCreate,
		PreUpdate: model.StampUpdate,
	})
	if err != nil {
		return nil, err
	}

	signer := security.NewSigner(cfg.TokenSecret, cfg.TokenTTL())
	srv := server.NewServer(cfg, notes, users, perms, signer, []storage.Adapter{adapter}, log)
	endpoints.RegisterAll(srv)

	go func() {
		_ = srv.Start()
	}()

	return srv, nil
}

// waitForServer polls the health endpoint until it responds or times out.
func waitForServer(serverURL string, timeout time.Duration) error {
	client := &http.Client{Timeout: 2 * time.Second}
	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		resp, err := client.Get(serverURL + "/health")
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		time.Sleep(100 * time.Millisecond)
	}

	return fmt.Errorf("server did not become ready within %v", timeout)
}

// Close cleans up all test resources.
func (tc *TestContext) Close(ctx context.Context) {
	if tc.Server != nil {
		_ = tc.Server.Shutdown(ctx)
	}
	if tc.Adapter != nil {
		_ = tc.Adapter.Close(ctx)
	}
	if tc.Container != nil {
		_ = tc.Container.Terminate(ctx)
	}
}
