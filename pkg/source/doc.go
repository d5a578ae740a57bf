// Package source loads record sets from files.
//
// Three input kinds are supported, chosen by file extension:
//
//   - .json: an array of objects, field order preserved
//   - .xlsx: the first worksheet, first row is the header
//   - .csv: comma-separated with a header row
//
// Spreadsheet and CSV rows shorter than the header, and empty cells, leave
// the field out of the record, so ragged rows stay ragged through export.
package source
