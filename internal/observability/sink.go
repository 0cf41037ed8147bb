// Package observability provides the error sink used by the dispatcher and
// orchestrator to report unexpected failures.
package observability

import (
	"context"
	"log"
)

// Sink receives errors that were caught at a component boundary and converted
// into a normal failure result. Implementations must be safe for concurrent use.
type Sink interface {
	Report(ctx context.Context, component string, err error)
}

// LogSink writes reported errors to the process log.
type LogSink struct{}

// NewLogSink returns a Sink backed by the standard logger.
func NewLogSink() *LogSink {
	return &LogSink{}
}

// Report logs the error with its originating component.
func (s *LogSink) Report(_ context.Context, component string, err error) {
	log.Printf("[error-sink] %s: %v", component, err)
}
