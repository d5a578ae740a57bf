package delivery

import (
	"context"
	"io"
	"sync"

	"fleetdesk/exporter/pkg/export"
)

// WriterSink writes artifact bodies to W, for example standard output.
type WriterSink struct {
	mu sync.Mutex
	W  io.Writer
}

// NewWriterSink creates a sink writing to w.
func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{W: w}
}

// Deliver implements export.Sink.
func (s *WriterSink) Deliver(ctx context.Context, a *export.Artifact) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.W.Write(a.Body); err != nil {
		return NewDeliveryError("writer", a.Name, err)
	}
	return nil
}

// MemorySink keeps delivered artifacts in memory.
type MemorySink struct {
	mu        sync.Mutex
	artifacts []*export.Artifact
}

// NewMemorySink creates an empty memory sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

// Deliver implements export.Sink.
func (s *MemorySink) Deliver(ctx context.Context, a *export.Artifact) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.artifacts = append(s.artifacts, a)
	return nil
}

// Artifacts returns a copy of the delivered artifacts in delivery order.
func (s *MemorySink) Artifacts() []*export.Artifact {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*export.Artifact, len(s.artifacts))
	copy(out, s.artifacts)
	return out
}

// Len returns the number of delivered artifacts.
func (s *MemorySink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.artifacts)
}
