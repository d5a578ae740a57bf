// Package delivery provides export.Sink implementations that hand an
// artifact to its destination.
//
// FileSink writes into a directory through a temporary file that is renamed
// into place, so readers never observe a partially written export. The
// temporary file is removed on every exit path. WriterSink copies the body
// to any io.Writer, HTTPSink sends it as an attachment on an HTTP response
// and MemorySink keeps artifacts in memory for tests and dry runs.
package delivery
