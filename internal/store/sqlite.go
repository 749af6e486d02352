package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"pulse-mapper/internal/pulse"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// =============================================================================
// Executor Interface - Shared by DB and Transaction
// =============================================================================

// executor abstracts database operations that can be performed on both
// a database connection and a transaction.
type executor interface {
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
	NamedExecContext(ctx context.Context, query string, arg any) (sql.Result, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// =============================================================================
// SQLiteStore
// =============================================================================

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db  *sqlx.DB
	log *zap.Logger
}

// SQLiteOption configures a SQLiteStore.
type SQLiteOption func(*SQLiteStore)

// WithLogger sets the logger used by the store.
func WithLogger(log *zap.Logger) SQLiteOption {
	return func(s *SQLiteStore) {
		if log != nil {
			s.log = log
		}
	}
}

// sqliteDSN turns on foreign keys, keeping any query the caller already set.
func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "?") {
		return dsn + "&_foreign_keys=on"
	}

	return dsn + "?_foreign_keys=on"
}

// NewSQLiteStore opens the database at dsn and runs migrations.
func NewSQLiteStore(dsn string, opts ...SQLiteOption) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite3", sqliteDSN(dsn))
	if err != nil {
		return nil, NewStoreError("NewSQLiteStore", "", "failed to open database", ErrConnectionFailed)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, NewStoreError("NewSQLiteStore", "", "failed to ping database", ErrConnectionFailed)
	}

	// A single connection keeps ":memory:" databases shared across calls.
	db.SetMaxOpenConns(1)

	if err := runMigrations(db.DB); err != nil {
		db.Close()
		return nil, NewStoreError("NewSQLiteStore", "", err.Error(), ErrMigrationFailed)
	}

	s := &SQLiteStore{db: db, log: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}

	s.log.Debug("sqlite store opened", zap.String("dsn", dsn))

	return s, nil
}

// runMigrations runs database migrations using embedded SQL files.
func runMigrations(db *sql.DB) error {
	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// =============================================================================
// Template Operations
// =============================================================================

// templateRow represents a template row in the database.
type templateRow struct {
	ID           string `db:"id"`
	Name         string `db:"name"`
	Kind         string `db:"kind"`
	Parameters   string `db:"parameters"`
	Channels     string `db:"channels"`
	Measurements string `db:"measurements"`
	Document     string `db:"document"`
	CreatedAt    string `db:"created_at"`
	UpdatedAt    string `db:"updated_at"`
}

func (s *SQLiteStore) Save(ctx context.Context, rec *Record) error {
	if err := saveTemplate(ctx, s.db, rec); err != nil {
		return err
	}

	stored, err := loadTemplate(ctx, s.db, rec.Name)
	if err != nil {
		return err
	}

	*rec = *stored

	s.log.Info("template saved",
		zap.String("name", rec.Name),
		zap.String("kind", string(rec.Kind)),
		zap.Stringer("id", rec.ID))

	return nil
}

func (s *SQLiteStore) Load(ctx context.Context, name string) (*Record, error) {
	return loadTemplate(ctx, s.db, name)
}

func (s *SQLiteStore) List(ctx context.Context) ([]Record, error) {
	return listTemplates(ctx, s.db)
}

func (s *SQLiteStore) Delete(ctx context.Context, name string) error {
	if err := deleteTemplate(ctx, s.db, name); err != nil {
		return err
	}

	s.log.Info("template deleted", zap.String("name", name))

	return nil
}

func saveTemplate(ctx context.Context, exec executor, rec *Record) error {
	if err := ValidateName(rec.Name); err != nil {
		return NewStoreError("Save", rec.Name, "invalid name", ErrInvalidName)
	}

	row, err := recordToRow(rec)
	if err != nil {
		return NewStoreError("Save", rec.Name, err.Error(), ErrInvalidData)
	}

	query := `
		INSERT INTO templates (
			id, name, kind, parameters, channels, measurements, document,
			created_at, updated_at
		) VALUES (
			:id, :name, :kind, :parameters, :channels, :measurements, :document,
			:created_at, :updated_at
		)
		ON CONFLICT(name) DO UPDATE SET
			kind = excluded.kind,
			parameters = excluded.parameters,
			channels = excluded.channels,
			measurements = excluded.measurements,
			document = excluded.document,
			updated_at = excluded.updated_at`

	if _, err := exec.NamedExecContext(ctx, query, row); err != nil {
		return NewStoreError("Save", rec.Name, err.Error(), err)
	}

	return nil
}

func loadTemplate(ctx context.Context, exec executor, name string) (*Record, error) {
	query := `SELECT * FROM templates WHERE name = ?`

	var row templateRow
	err := exec.GetContext(ctx, &row, query, name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NewStoreError("Load", name, "template not found", ErrNotFound)
		}
		return nil, NewStoreError("Load", name, err.Error(), err)
	}

	return rowToRecord(&row)
}

func listTemplates(ctx context.Context, exec executor) ([]Record, error) {
	query := `SELECT * FROM templates ORDER BY name`

	var rows []templateRow
	if err := exec.SelectContext(ctx, &rows, query); err != nil {
		return nil, NewStoreError("List", "", err.Error(), err)
	}

	records := make([]Record, 0, len(rows))
	for i := range rows {
		rec, err := rowToRecord(&rows[i])
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}

	return records, nil
}

func deleteTemplate(ctx context.Context, exec executor, name string) error {
	query := `DELETE FROM templates WHERE name = ?`

	result, err := exec.ExecContext(ctx, query, name)
	if err != nil {
		return NewStoreError("Delete", name, err.Error(), err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return NewStoreError("Delete", name, err.Error(), err)
	}
	if n == 0 {
		return NewStoreError("Delete", name, "template not found", ErrNotFound)
	}

	return nil
}

// =============================================================================
// Row Conversion
// =============================================================================

func recordToRow(rec *Record) (map[string]any, error) {
	params, err := json.Marshal(nonNil(rec.Parameters))
	if err != nil {
		return nil, fmt.Errorf("failed to serialize parameters: %w", err)
	}
	channels, err := json.Marshal(nonNil(rec.Channels))
	if err != nil {
		return nil, fmt.Errorf("failed to serialize channels: %w", err)
	}
	measurements, err := json.Marshal(nonNil(rec.Measurements))
	if err != nil {
		return nil, fmt.Errorf("failed to serialize measurements: %w", err)
	}

	id := rec.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	now := time.Now().UTC()
	created, updated := rec.CreatedAt, rec.UpdatedAt
	if created.IsZero() {
		created = now
	}
	if updated.IsZero() {
		updated = now
	}

	return map[string]any{
		"id":           id.String(),
		"name":         rec.Name,
		"kind":         string(rec.Kind),
		"parameters":   string(params),
		"channels":     string(channels),
		"measurements": string(measurements),
		"document":     rec.Document,
		"created_at":   created.Format(time.RFC3339Nano),
		"updated_at":   updated.Format(time.RFC3339Nano),
	}, nil
}

func rowToRecord(row *templateRow) (*Record, error) {
	id, err := uuid.Parse(row.ID)
	if err != nil {
		return nil, NewStoreError("rowToRecord", row.Name, "invalid id", ErrInvalidData)
	}

	rec := &Record{
		ID:       id,
		Name:     row.Name,
		Kind:     pulse.Kind(row.Kind),
		Document: row.Document,
	}

	if err := json.Unmarshal([]byte(row.Parameters), &rec.Parameters); err != nil {
		return nil, NewStoreError("rowToRecord", row.Name, "failed to deserialize parameters", ErrInvalidData)
	}
	if err := json.Unmarshal([]byte(row.Channels), &rec.Channels); err != nil {
		return nil, NewStoreError("rowToRecord", row.Name, "failed to deserialize channels", ErrInvalidData)
	}
	if err := json.Unmarshal([]byte(row.Measurements), &rec.Measurements); err != nil {
		return nil, NewStoreError("rowToRecord", row.Name, "failed to deserialize measurements", ErrInvalidData)
	}

	rec.CreatedAt, err = time.Parse(time.RFC3339Nano, row.CreatedAt)
	if err != nil {
		return nil, NewStoreError("rowToRecord", row.Name, "invalid created_at", ErrInvalidData)
	}
	rec.UpdatedAt, err = time.Parse(time.RFC3339Nano, row.UpdatedAt)
	if err != nil {
		return nil, NewStoreError("rowToRecord", row.Name, "invalid updated_at", ErrInvalidData)
	}

	return rec, nil
}

func nonNil(names []string) []string {
	if names == nil {
		return []string{}
	}

	return names
}
