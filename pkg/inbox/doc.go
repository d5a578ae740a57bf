// Package inbox turns a drop folder into an export queue.
//
// Other back-office services schedule exports by writing an input file into
// the inbox directory. The file name selects the output:
//
//	<base>.<format>.<json|xlsx|csv>
//
// bookings.csv.json exports the JSON array in the file as bookings.csv into
// the output directory; fleet.pdf.xlsx renders the first sheet of a workbook
// as fleet.pdf. Without a format segment (bookings.json) the default format
// applies. A segment that is not a format name stays in the base name, so
// fleet-2025.03.json exports as fleet-2025.03 in the default format.
//
// A file is picked up once it has not changed for the settle delay. After
// processing it is moved to processed/ or, on any error, to failed/ next to
// a <name>.error file holding the error message. Files present when the
// watcher starts are processed too. Hidden files and subdirectories are
// ignored.
package inbox
