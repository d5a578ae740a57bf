package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"
)

// Driver names accepted by SQLiteConfig.Driver.
const (
	DriverCGO    = "sqlite3" // github.com/mattn/go-sqlite3
	DriverPureGo = "sqlite"  // modernc.org/sqlite
)

// SQLiteConfig contains configuration for the SQLite store.
type SQLiteConfig struct {
	// Path is the database file path. ":memory:" keeps the database in
	// memory for the lifetime of the store.
	Path string

	// Driver is the database/sql driver name, DriverCGO or DriverPureGo.
	// Default: DriverPureGo
	Driver string

	// MaxOpenConns is the maximum number of open connections to the database.
	// Default: 10
	MaxOpenConns int

	// WALMode enables Write-Ahead Logging mode for better concurrency.
	// Default: true
	WALMode bool

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// DefaultSQLiteConfig returns the default SQLite configuration.
func DefaultSQLiteConfig() *SQLiteConfig {
	return &SQLiteConfig{
		Path:         "data/history.db",
		Driver:       DriverPureGo,
		MaxOpenConns: 10,
		WALMode:      true,
		BusyTimeout:  5 * time.Second,
	}
}

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	config *SQLiteConfig
	logger *slog.Logger
}

// NewSQLiteStore opens the database, creates the schema and verifies its
// version.
func NewSQLiteStore(config *SQLiteConfig) (*SQLiteStore, error) {
	if config == nil {
		config = DefaultSQLiteConfig()
	}
	if config.Driver == "" {
		config.Driver = DriverPureGo
	}
	if config.Driver != DriverCGO && config.Driver != DriverPureGo {
		return nil, NewStorageError("sqlite", "open", fmt.Errorf("unknown driver %q", config.Driver))
	}

	logger := slog.Default().With("component", "history.sqlite")

	inMemory := config.Path == ":memory:"
	if !inMemory {
		if dir := filepath.Dir(config.Path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, NewStorageError("sqlite", "create_dir", err)
			}
		}
	}

	db, err := sql.Open(config.Driver, config.Path)
	if err != nil {
		return nil, NewStorageError("sqlite", "open", err)
	}

	// Every connection to ":memory:" is a separate database.
	if inMemory {
		db.SetMaxOpenConns(1)
	} else if config.MaxOpenConns > 0 {
		db.SetMaxOpenConns(config.MaxOpenConns)
	}

	s := &SQLiteStore{
		db:     db,
		config: config,
		logger: logger,
	}

	if err := s.initialize(inMemory); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("SQLite history store initialized",
		"path", config.Path,
		"driver", config.Driver,
		"wal_mode", config.WALMode && !inMemory,
	)

	return s, nil
}

func (s *SQLiteStore) initialize(inMemory bool) error {
	if s.config.WALMode && !inMemory {
		if _, err := s.db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
			return NewStorageError("sqlite", "enable_wal", err)
		}
	}

	busyTimeoutMs := s.config.BusyTimeout.Milliseconds()
	if _, err := s.db.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d;", busyTimeoutMs)); err != nil {
		return NewStorageError("sqlite", "set_busy_timeout", err)
	}

	if _, err := s.db.Exec(Schema); err != nil {
		return NewStorageError("sqlite", "create_schema", err)
	}

	if _, err := s.db.Exec(InsertSchemaVersion, SchemaVersion); err != nil {
		return NewStorageError("sqlite", "insert_schema_version", err)
	}

	var version int
	err := s.db.QueryRow(GetSchemaVersion).Scan(&version)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return NewStorageError("sqlite", "get_schema_version", err)
	}
	if version != SchemaVersion {
		return NewStorageError("sqlite", "schema_version_mismatch",
			fmt.Errorf("expected schema version %d, got %d", SchemaVersion, version))
	}

	s.logger.Debug("schema version verified", "version", version)
	return nil
}

// Record inserts or replaces a job.
func (s *SQLiteStore) Record(ctx context.Context, job *Job) error {
	query := `INSERT OR REPLACE INTO export_jobs (` + jobColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		job.ID, job.Source, job.RequestedFormat, nullString(job.Format), nullString(job.FileName), job.Status,
		job.Records, job.Columns, job.Bytes, job.Delivered,
		nullString(job.Error), nullString(job.ErrorType),
		job.StartedAt.UnixNano(), job.Duration.Milliseconds(),
	)
	if err != nil {
		return NewStorageError("sqlite", "record", err)
	}
	return nil
}

// Get returns a job by id.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*Job, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+jobColumns+` FROM export_jobs WHERE id = ?`, id)
	if err != nil {
		return nil, NewStorageError("sqlite", "get", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, NewStorageError("sqlite", "get", err)
		}
		return nil, ErrNotFound
	}
	job, err := scanJob(rows)
	if err != nil {
		return nil, NewStorageError("sqlite", "scan", err)
	}
	return job, nil
}

// List returns matching jobs ordered by start time.
func (s *SQLiteStore) List(ctx context.Context, query *Query) ([]*Job, error) {
	if query == nil {
		query = &Query{}
	}

	whereClause, args := buildWhereClause(query)
	sqlQuery := `SELECT ` + jobColumns + ` FROM export_jobs`
	if whereClause != "" {
		sqlQuery += " WHERE " + whereClause
	}

	order := "DESC"
	if query.SortOrder == "asc" {
		order = "ASC"
	}
	sqlQuery += fmt.Sprintf(" ORDER BY started_at %s, id %s", order, order)

	limit := query.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	sqlQuery += fmt.Sprintf(" LIMIT %d", limit)
	if query.Offset > 0 {
		sqlQuery += fmt.Sprintf(" OFFSET %d", query.Offset)
	}

	rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, NewStorageError("sqlite", "list", err)
	}
	defer rows.Close()

	jobs := make([]*Job, 0)
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, NewStorageError("sqlite", "scan", err)
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, NewStorageError("sqlite", "list", err)
	}
	return jobs, nil
}

// Count returns the number of matching jobs.
func (s *SQLiteStore) Count(ctx context.Context, query *Query) (int64, error) {
	if query == nil {
		query = &Query{}
	}

	whereClause, args := buildWhereClause(query)
	sqlQuery := "SELECT COUNT(*) FROM export_jobs"
	if whereClause != "" {
		sqlQuery += " WHERE " + whereClause
	}

	var count int64
	if err := s.db.QueryRowContext(ctx, sqlQuery, args...).Scan(&count); err != nil {
		return 0, NewStorageError("sqlite", "count", err)
	}
	return count, nil
}

// Delete removes matching jobs.
func (s *SQLiteStore) Delete(ctx context.Context, query *Query) (int64, error) {
	if query == nil {
		query = &Query{}
	}

	whereClause, args := buildWhereClause(query)
	sqlQuery := "DELETE FROM export_jobs"
	if whereClause != "" {
		sqlQuery += " WHERE " + whereClause
	}

	result, err := s.db.ExecContext(ctx, sqlQuery, args...)
	if err != nil {
		return 0, NewStorageError("sqlite", "delete", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, NewStorageError("sqlite", "delete", err)
	}

	s.logger.Debug("deleted export jobs", "count", deleted)
	return deleted, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return NewStorageError("sqlite", "close", err)
	}
	s.logger.Info("SQLite history store closed")
	return nil
}

// buildWhereClause builds a SQL WHERE clause (without "WHERE") from the
// query filters.
func buildWhereClause(query *Query) (string, []any) {
	var conditions []string
	var args []any

	if query.StartTime != nil {
		conditions = append(conditions, "started_at >= ?")
		args = append(args, query.StartTime.UnixNano())
	}
	if query.EndTime != nil {
		conditions = append(conditions, "started_at <= ?")
		args = append(args, query.EndTime.UnixNano())
	}
	if query.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, query.Status)
	}
	if query.Format != "" {
		conditions = append(conditions, "format = ?")
		args = append(args, query.Format)
	}
	if query.Source != "" {
		conditions = append(conditions, "source = ?")
		args = append(args, query.Source)
	}
	if len(query.IDs) > 0 {
		conditions = append(conditions, "id IN (?"+strings.Repeat(", ?", len(query.IDs)-1)+")")
		for _, id := range query.IDs {
			args = append(args, id)
		}
	}

	return strings.Join(conditions, " AND "), args
}

func scanJob(rows *sql.Rows) (*Job, error) {
	var (
		job                               Job
		format, fileName, errMsg, errType sql.NullString
		startedAt, durationMs             int64
	)
	err := rows.Scan(
		&job.ID, &job.Source, &job.RequestedFormat, &format, &fileName, &job.Status,
		&job.Records, &job.Columns, &job.Bytes, &job.Delivered,
		&errMsg, &errType, &startedAt, &durationMs,
	)
	if err != nil {
		return nil, err
	}
	job.Format = format.String
	job.FileName = fileName.String
	job.Error = errMsg.String
	job.ErrorType = errType.String
	job.StartedAt = time.Unix(0, startedAt).UTC()
	job.Duration = time.Duration(durationMs) * time.Millisecond
	return &job, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
