package export

import (
	"context"
)

// Artifact is the product of one export call.
type Artifact struct {
	Name     string // File name including the format extension, if any
	MIMEType string // Media type of Body
	Format   Format // Format that produced Body
	Body     []byte // Encoded document
	Records  int    // Number of exported records
	Columns  int    // Number of columns (0 for JSON)
}

// Size returns the length of the body in bytes.
func (a *Artifact) Size() int { return len(a.Body) }

// Sink delivers an artifact to its destination: a directory, an HTTP
// response, a terminal. Implementations release any transient resource
// they create before returning, whether delivery succeeds or not.
type Sink interface {
	Deliver(ctx context.Context, a *Artifact) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ctx context.Context, a *Artifact) error

// Deliver calls f(ctx, a).
func (f SinkFunc) Deliver(ctx context.Context, a *Artifact) error {
	return f(ctx, a)
}
