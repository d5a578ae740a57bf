// Package record defines the ragged-schema record model shared by every
// exporter.
//
// A Record is an ordered association of field names to Values. Records in
// the same RecordSet do not have to share a field set: the dashboard tables
// that feed the exporter mix bookings, customers and vehicles, and optional
// fields are simply absent. Field order is significant because it decides
// column order for tabular formats.
//
// # Values
//
// Value is a small tagged union over the kinds the dashboard produces:
//
//   - Null:   JSON null or an absent pointer
//   - String: any text
//   - Number: integers and floats; numbers decoded from JSON keep their literal
//   - Bool:   true or false
//   - Time:   timestamps, rendered as RFC 3339
//   - Raw:    nested objects and arrays, kept as compact JSON text
//
// # Building record sets
//
// Callers either decode JSON text:
//
//	rs, err := record.ParseJSON(body)
//
// or normalize in-memory Go values:
//
//	rs, err := record.Normalize([]map[string]any{{"name": "Alice"}})
//
// Both fail with *InvalidInputError when the input is not a sequence of
// records.
//
// # Headers
//
// CollectHeaders returns the union of field names in first-seen order. It is
// the column list for CSV and PDF output.
package record
