// Package notify publishes export completion events as CloudEvents.
//
// A Webhook observes every export outcome and POSTs a structured-mode
// CloudEvent (application/cloudevents+json) to a configured URL:
//
//   - io.fleetdesk.export.completed when the artifact was delivered
//   - io.fleetdesk.export.failed otherwise
//
// The event ID is the export job ID, so receivers can deduplicate. Sending
// happens in the background; a failed notification is logged and never
// affects the export itself.
package notify
