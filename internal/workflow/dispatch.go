package workflow

import (
	"context"
	"fmt"
	"log"

	"github.com/brokerops/statement-collector/internal/browser"
	"github.com/brokerops/statement-collector/internal/carrier"
	"github.com/brokerops/statement-collector/internal/observability"
	"github.com/brokerops/statement-collector/internal/types"
)

// Dispatcher resolves a carrier slug to its routine and runs it against a
// browser session. It owns the session for the duration of one call: acquire,
// run, always release. No routine failure of any kind escapes Dispatch as an
// error; everything is normalized into a failure Result.
type Dispatcher struct {
	provider browser.Provider
	routines Registry
	sink     observability.Sink
}

// NewDispatcher builds a dispatcher over a session provider and a routine
// registry.
func NewDispatcher(provider browser.Provider, routines Registry, sink observability.Sink) *Dispatcher {
	if sink == nil {
		sink = observability.NewLogSink()
	}
	return &Dispatcher{provider: provider, routines: routines, sink: sink}
}

// Dispatch runs the routine registered for slug. An unknown carrier is
// rejected before any resource is acquired.
func (d *Dispatcher) Dispatch(ctx context.Context, slug carrier.Slug, job *types.Job) *Result {
	if slug == carrier.Unknown {
		return Failuref("Unknown carrier for URL: %s", job.Credential.LoginURL)
	}

	sess, err := d.provider.Acquire(ctx)
	if err != nil {
		d.sink.Report(ctx, "dispatcher", fmt.Errorf("session acquisition for %s: %w", slug, err))
		return Failuref("Failed to execute workflow: %v", err)
	}
	defer func() {
		// A release failure is logged but never overrides the result.
		if err := sess.Close(); err != nil {
			log.Printf("[dispatcher] failed to release browser session for %s: %v", slug, err)
		}
	}()

	wf, ok := d.routines[slug]
	if !ok {
		return Failuref("No workflow implemented for carrier: %s", slug)
	}

	return d.invoke(ctx, slug, wf, sess, job)
}

// invoke runs one routine, converting returned errors and panics alike into
// failure results.
func (d *Dispatcher) invoke(ctx context.Context, slug carrier.Slug, wf Workflow, sess browser.Session, job *types.Job) (result *Result) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("workflow for %s panicked: %v", slug, r)
			d.sink.Report(ctx, "dispatcher", err)
			result = Failuref("Failed to execute workflow: %v", r)
		}
	}()

	res, err := wf(ctx, sess, job)
	if err != nil {
		d.sink.Report(ctx, "dispatcher", fmt.Errorf("workflow for %s: %w", slug, err))
		return Failuref("Failed to execute workflow: %v", err)
	}
	if res == nil {
		return Failuref("Failed to execute workflow: routine for %s returned no result", slug)
	}
	if !res.Success {
		// Failure results never carry statements.
		res.Statements = nil
	}
	return res
}
