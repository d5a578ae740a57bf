// Package logging builds the exporter's structured logger.
//
// # Overview
//
// The package wraps log/slog with a handler that:
//   - writes JSON, text or console output at a configurable level
//   - adds job_id, request_id and trace_id from the context
//   - redacts PII (e-mail addresses, phone numbers, card numbers and
//     secrets) from attribute values
//
// Components log through slog.Default(), so the logger is installed once at
// startup:
//
//	logger, err := logging.New(logging.Config{
//	    Level:     "info",
//	    Format:    "json",
//	    RedactPII: true,
//	})
//	if err != nil {
//	    return err
//	}
//	slog.SetDefault(logger)
//
// # Context Fields
//
//	ctx = logging.WithJobID(ctx, "0192...")
//	slog.InfoContext(ctx, "export delivered")  // includes job_id
//
// # PII Redaction
//
// Exported rows often carry customer data, and error messages can quote
// them. With RedactPII enabled:
//
//   - Emails: jane.doe@example.com → j***@example.com
//   - Phones: +1 555-123-4567 → ***-***-****
//   - Cards: 4111 1111 1111 1111 → ****-****-****-1111
//   - Keys named password, token, secret or authorization → ***
package logging
