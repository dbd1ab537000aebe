// Package mysql implements the storage.Adapter contract for MySQL.
// Primary keys are AUTO_INCREMENT columns assigned by the server and
// sequence-typed fields are stored as JSON-encoded strings, since the
// engine has no native array column.
package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	mysqldriver "gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/quillworks/quill/pkg/storage"
)

// Adapter talks to one MySQL database through a pooled connection.
type Adapter struct {
	dsn string
	db  *gorm.DB
	log *slog.Logger
}

// New returns an unconnected adapter. The DSN is in go-sql-driver
// format and should carry parseTime=true so DATETIME columns scan as
// time.Time.
func New(dsn string, log *slog.Logger) *Adapter {
	return &Adapter{dsn: dsn, log: log}
}

// NewWithDB wraps an existing connection, mainly for tests.
func NewWithDB(conn *sql.DB, log *slog.Logger) (*Adapter, error) {
	db, err := gorm.Open(
		mysqldriver.New(mysqldriver.Config{Conn: conn, SkipInitializeWithVersion: true}),
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

func (a *Adapter) Kind() storage.Backend { return storage.MySQL }

func (a *Adapter) Connect(ctx context.Context) error {
	if a.db != nil {
		return nil
	}

	logMode := logger.Silent
	if a.log != nil && a.log.Enabled(ctx, slog.LevelDebug) {
		logMode = logger.Info
	}

	db, err := gorm.Open(mysqldriver.Open(a.dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logMode),
		TranslateError: true,
	})
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

// EnsureStorage executes the schema's DDL. MySQL has no
// CREATE INDEX IF NOT EXISTS, so schemas declare indexes inline in the
// CREATE TABLE statement and the whole DDL is a single statement.
func (a *Adapter) EnsureStorage(ctx context.Context, schema storage.Schema) error {
	if err := a.db.WithContext(ctx).Exec(schema.CreateStatement()).Error; err != nil {
		return fmt.Errorf("create storage for %s: %w", schema.Collection(), err)
	}
	return nil
}

// Create inserts the record and resolves the server-assigned key.
// LAST_INSERT_ID is connection-scoped, so both statements run on a
// single pooled connection.
func (a *Adapter) Create(ctx context.Context, collection string, rec storage.Record) (storage.Record, error) {
	var id int64
	err := a.db.WithContext(ctx).Connection(func(tx *gorm.DB) error {
		if err := tx.Table(collection).Create(map[string]any(rec)).Error; err != nil {
			return err
		}
		return tx.Raw("SELECT LAST_INSERT_ID()").Scan(&id).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	return a.Read(ctx, collection, strconv.FormatInt(id, 10))
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

	// The driver reports affected rows, not matched rows, so a no-op
	// update is indistinguishable from a missing record. Existence is
	// checked with a read instead.
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

// castID converts the external string id to the engine's integer key.
func castID(id string) (int64, error) {
	return strconv.ParseInt(id, 10, 64)
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
