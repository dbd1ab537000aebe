// Package postgres implements the storage.Adapter contract for
// PostgreSQL. Primary keys are uuid columns populated client-side and
// sequence-typed fields are stored as native arrays.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	pgdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/quillworks/quill/pkg/storage"
)

// Adapter talks to one PostgreSQL database through a pooled
// connection. It is safe for concurrent use once connected.
type Adapter struct {
	dsn string
	db  *gorm.DB
	log *slog.Logger
}

// New returns an unconnected adapter for the given connection URL.
func New(dsn string, log *slog.Logger) *Adapter {
	return &Adapter{dsn: dsn, log: log}
}

// NewWithDB wraps an existing connection, mainly for tests.
func NewWithDB(conn *sql.DB, log *slog.Logger) (*Adapter, error) {
	db, err := gorm.Open(
		pgdriver.New(pgdriver.Config{Conn: conn}),
		&gorm.Config{
			Logger:         logger.Default.LogMode(logger.Silent),
			TranslateError: true,
		},
	)
	if err != nil {
		return nil, err
	}
	return &Adapter{db: db, log: log}, nil
}

func (a *Adapter) Kind() storage.Backend { return storage.Postgres }

// Connect opens the connection pool. Debug SQL logging follows the
// process log level.
func (a *Adapter) Connect(ctx context.Context) error {
	if a.db != nil {
		return nil
	}

	logMode := logger.Silent
	if a.log != nil && a.log.Enabled(ctx, slog.LevelDebug) {
		logMode = logger.Info
	}

	db, err := gorm.Open(
		pgdriver.New(pgdriver.Config{
			DSN:                  a.dsn,
			PreferSimpleProtocol: true, // disables implicit prepared statement usage
		}),
		&gorm.Config{
			Logger:         logger.Default.LogMode(logMode),
			TranslateError: true,
		},
	)
	if err != nil {
		return storage.ConnectionError(err)
	}

	a.db = db
	return nil
}

func (a *Adapter) Close(ctx context.Context) error {
	if a.db == nil {
		return nil
	}
	sqlDB, err := a.db.DB()
	if err != nil {
		return err
	}
	a.db = nil
	return sqlDB.Close()
}

func (a *Adapter) Ping(ctx context.Context) error {
	sqlDB, err := a.db.DB()
	if err != nil {
		return err
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return storage.ConnectionError(err)
	}
	return nil
}

// EnsureStorage executes the schema's DDL. Statements use
// "IF NOT EXISTS" forms and are executed one by one so a partial prior
// run does not abort a re-run.
func (a *Adapter) EnsureStorage(ctx context.Context, schema storage.Schema) error {
	for _, stmt := range splitStatements(schema.CreateStatement()) {
		if err := a.db.WithContext(ctx).Exec(stmt).Error; err != nil {
			return fmt.Errorf("create storage for %s: %w", schema.Collection(), err)
		}
	}
	return nil
}

func (a *Adapter) Create(ctx context.Context, collection string, rec storage.Record) (storage.Record, error) {
	id := rec.ID()
	if id == "" {
		return nil, fmt.Errorf("postgres create on %s: record has no id", collection)
	}

	tx := a.db.WithContext(ctx).Table(collection).Create(map[string]any(rec))
	if tx.Error != nil {
		return nil, translate(tx.Error)
	}
	return a.Read(ctx, collection, id)
}

func (a *Adapter) Read(ctx context.Context, collection, id string) (storage.Record, error) {
	idv, err := castID(id)
	if err != nil {
		return nil, storage.ErrNotFound
	}

	var row map[string]any
	tx := a.db.WithContext(ctx).Table(collection).Where("id = ?", idv).Take(&row)
	if tx.Error != nil {
		return nil, translate(tx.Error)
	}
	return storage.Record(row), nil
}

func (a *Adapter) Update(ctx context.Context, collection, id string, patch storage.Record) (storage.Record, error) {
	idv, err := castID(id)
	if err != nil {
		return nil, storage.ErrNotFound
	}

	// Existence is checked up front: engines report zero affected rows
	// both for missing records and for no-op updates.
	if _, err := a.Read(ctx, collection, id); err != nil {
		return nil, err
	}

	if len(patch) > 0 {
		tx := a.db.WithContext(ctx).Table(collection).Where("id = ?", idv).Updates(map[string]any(patch))
		if tx.Error != nil {
			return nil, translate(tx.Error)
		}
	}
	return a.Read(ctx, collection, id)
}

func (a *Adapter) Delete(ctx context.Context, collection, id string) (bool, error) {
	idv, err := castID(id)
	if err != nil {
		return false, nil
	}

	tx := a.db.WithContext(ctx).Exec(fmt.Sprintf("DELETE FROM %s WHERE id = ?", collection), idv)
	if tx.Error != nil {
		return false, translate(tx.Error)
	}
	return tx.RowsAffected > 0, nil
}

func (a *Adapter) List(ctx context.Context, collection string, filter storage.Record, skip, limit int) ([]storage.Record, error) {
	q := a.db.WithContext(ctx).Table(collection).Order("id").Limit(limit).Offset(skip)

	if len(filter) > 0 {
		where := make(map[string]any, len(filter))
		for field, value := range filter {
			if field == "id" {
				s, _ := value.(string)
				idv, err := castID(s)
				if err != nil {
					return []storage.Record{}, nil
				}
				where[field] = idv
				continue
			}
			where[field] = value
		}
		q = q.Where(where)
	}

	var rows []map[string]any
	if err := q.Find(&rows).Error; err != nil {
		return nil, translate(err)
	}

	out := make([]storage.Record, 0, len(rows))
	for _, row := range rows {
		out = append(out, storage.Record(row))
	}
	return out, nil
}

// castID converts the external string id to the engine's uuid type.
// Values that are not valid uuids cannot match any stored key.
func castID(id string) (uuid.UUID, error) {
	return uuid.Parse(id)
}

func translate(err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return storage.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey), errors.Is(err, gorm.ErrForeignKeyViolated):
		return fmt.Errorf("%w: %v", storage.ErrConstraintViolation, err)
	default:
		return err
	}
}

func splitStatements(ddl string) []string {
	var out []string
	for _, stmt := range strings.Split(ddl, ";") {
		if stmt = strings.TrimSpace(stmt); stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}
