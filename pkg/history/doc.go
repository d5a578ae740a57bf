// Package history keeps an audit log of export jobs.
//
// Every call through export.Dispatcher produces an export.Outcome. The
// Recorder observer turns outcomes into Job rows and writes them to a Store:
// MemoryStore for tests and short-lived processes, SQLiteStore for the
// server and CLI. Rows can be listed with a Query and pruned by the
// retention package.
//
// # SQLite drivers
//
// SQLiteStore registers both the cgo driver (github.com/mattn/go-sqlite3,
// driver name "sqlite3") and the pure Go driver (modernc.org/sqlite, driver
// name "sqlite"). SQLiteConfig.Driver selects one; builds without cgo
// should use "sqlite".
package history
