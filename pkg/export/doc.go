// Package export encodes record sets into downloadable artifacts.
//
// # Export Formats
//
// The export package provides encoders for:
//
//   - CSV:  union of all field names as the header row, RFC 4180 style quoting
//   - JSON: the records as given, pretty-printed with two-space indentation
//   - PDF:  a landscape, striped table rendered through a TableRenderer
//
// Formats are matched case-insensitively, so "CSV", "csv" and "Csv" select
// the same encoder. Anything else is rejected with *UnsupportedFormatError
// before any work is done.
//
// # Dispatching
//
// Dispatcher is the entry point used by the CLI, the HTTP server and the
// inbox watcher:
//
//	d := export.NewDispatcher(export.WithSink(delivery.NewFileSink("out")))
//
//	// Validates, encodes and delivers "bookings.csv"
//	err := d.Export(ctx, records, "csv", "bookings")
//
// Input validation happens first (*record.InvalidInputError), then format
// selection, then encoding. The artifact is only handed to the Sink once it
// has been fully encoded in memory, so a failed export never delivers a
// partial file.
//
// # File Names
//
// The caller supplies a base name (default "export"). CSV and PDF artifacts
// get ".csv" and ".pdf" appended; JSON artifacts use the base name as given.
//
// # PDF Rendering
//
// PDFEncoder turns records into a Table and hands it to a TableRenderer.
// FPDFRenderer is the production renderer. Tests inject a fake renderer to
// inspect headers, rows and column widths without producing a document.
//
// # Error Handling
//
// Encoders return *ExportError wrapping the underlying failure (a value
// that has no JSON form, a renderer error, a writer error). Nothing is
// retried.
package export
