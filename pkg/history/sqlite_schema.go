package history

// SchemaVersion is the current database schema version.
const SchemaVersion = 1

// Schema contains the SQL statements to create the history schema.
const Schema = `
CREATE TABLE IF NOT EXISTS export_jobs (
    id TEXT PRIMARY KEY,
    source TEXT NOT NULL,
    requested_format TEXT NOT NULL,
    format TEXT,
    file_name TEXT,
    status TEXT NOT NULL,
    records INTEGER NOT NULL DEFAULT 0,
    columns INTEGER NOT NULL DEFAULT 0,
    bytes INTEGER NOT NULL DEFAULT 0,
    delivered BOOLEAN NOT NULL DEFAULT 0,
    error TEXT,
    error_type TEXT,
    -- Unix nanoseconds, sortable and driver independent
    started_at INTEGER NOT NULL,
    duration_ms INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_export_jobs_started_at ON export_jobs(started_at);
CREATE INDEX IF NOT EXISTS idx_export_jobs_status ON export_jobs(status);
CREATE INDEX IF NOT EXISTS idx_export_jobs_format ON export_jobs(format);
`

// InsertSchemaVersion inserts the schema version into the schema_version table.
const InsertSchemaVersion = `
INSERT INTO schema_version (version, applied_at)
VALUES (?, datetime('now'))
ON CONFLICT(version) DO NOTHING;
`

// GetSchemaVersion retrieves the current schema version from the database.
const GetSchemaVersion = `
SELECT version FROM schema_version ORDER BY version DESC LIMIT 1;
`

const jobColumns = `id, source, requested_format, format, file_name, status,
    records, columns, bytes, delivered, error, error_type, started_at, duration_ms`
