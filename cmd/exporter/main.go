// Exporter turns fleet dashboard records into CSV, JSON and PDF files.
//
// Usage:
//
//	# Export a JSON array of records to exports/bookings.csv
//	exporter export bookings.json --format csv
//
//	# Write a PDF to stdout
//	exporter export bookings.json --format pdf --out - > bookings.pdf
//
//	# Serve the HTTP API, the inbox watcher and scheduled retention
//	exporter serve --config /etc/exporter/exporter.yaml
//
//	# Process the drop folder once
//	exporter watch --once
//
//	# Show the latest export jobs
//	exporter history list --status failed
package main

func main() {
	Execute()
}
