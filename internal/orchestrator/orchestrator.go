// Package orchestrator drives one collection job end to end: identify the
// carrier, run its workflow, process the statements, and report terminal
// status to the Admin API.
package orchestrator

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/brokerops/statement-collector/internal/admin"
	"github.com/brokerops/statement-collector/internal/carrier"
	"github.com/brokerops/statement-collector/internal/observability"
	"github.com/brokerops/statement-collector/internal/storage"
	"github.com/brokerops/statement-collector/internal/types"
	"github.com/brokerops/statement-collector/internal/workflow"
)

// DefaultJobTimeout bounds one job end to end. Individual statement fetches
// carry their own shorter timeouts.
const DefaultJobTimeout = 10 * time.Minute

// statusRetryDelay is the backoff before the single status-report retry.
const statusRetryDelay = 2 * time.Second

// statusReportTimeout bounds the terminal status report on its own, because
// the report often runs after the job deadline has already expired.
const statusReportTimeout = 30 * time.Second

// Dispatcher runs the carrier workflow for a slug.
type Dispatcher interface {
	Dispatch(ctx context.Context, slug carrier.Slug, job *types.Job) *workflow.Result
}

// Pipeline delivers raw statements as uploaded attachments.
type Pipeline interface {
	Process(ctx context.Context, statements []workflow.Statement, slug carrier.Slug, cutoff time.Time) []storage.Attachment
}

// AdminAPI is the upstream administrative system.
type AdminAPI interface {
	UpdateJobStatus(ctx context.Context, jobID string, update admin.StatusUpdate) error
	CreateInboxEntries(ctx context.Context, jobID string, attachments []storage.Attachment) ([]string, error)
}

// History records job runs. A nil History disables recording.
type History interface {
	CreateJobRun(ctx context.Context, jobID string, slug carrier.Slug) error
	CompleteJobRun(ctx context.Context, jobID, status, failureReason, notes string, attachmentCount int) error
	SaveAttachment(ctx context.Context, jobID string, att storage.Attachment) error
}

// Orchestrator owns the job lifecycle and is the only writer of job status.
type Orchestrator struct {
	dispatcher Dispatcher
	pipeline   Pipeline
	admin      AdminAPI
	history    History
	sink       observability.Sink
	jobTimeout time.Duration
}

// New builds an orchestrator. history may be nil; a zero jobTimeout selects
// DefaultJobTimeout.
func New(dispatcher Dispatcher, pipeline Pipeline, adminAPI AdminAPI, history History, sink observability.Sink, jobTimeout time.Duration) *Orchestrator {
	if sink == nil {
		sink = observability.NewLogSink()
	}
	if jobTimeout <= 0 {
		jobTimeout = DefaultJobTimeout
	}
	return &Orchestrator{
		dispatcher: dispatcher,
		pipeline:   pipeline,
		admin:      adminAPI,
		history:    history,
		sink:       sink,
		jobTimeout: jobTimeout,
	}
}

// Run processes one job to completion. It never returns an error and never
// panics: every outcome, expected or not, ends in exactly one status report.
func (o *Orchestrator) Run(ctx context.Context, job *types.Job) {
	ctx, cancel := context.WithTimeout(ctx, o.jobTimeout)
	defer cancel()

	reported := false
	report := func(update admin.StatusUpdate, attachmentCount int) {
		if reported {
			return
		}
		reported = true
		o.reportStatus(ctx, job.ID, update, attachmentCount)
	}

	// Last line of defense: nothing below may leave the job unreported.
	defer func() {
		if r := recover(); r != nil {
			o.sink.Report(ctx, "orchestrator", fmt.Errorf("job %s panicked: %v", job.ID, r))
			report(admin.StatusUpdate{
				Status:        admin.StatusFailed,
				FailureReason: admin.ReasonCarrierUnavailable,
				Notes:         fmt.Sprintf("internal error: %v", r),
			}, 0)
		}
	}()

	slug := carrier.Identify(job.Credential.LoginURL)
	log.Printf("[orchestrator] job %s: carrier %s", job.ID, slug)

	if o.history != nil {
		if err := o.history.CreateJobRun(ctx, job.ID, slug); err != nil {
			log.Printf("[orchestrator] job %s: failed to record run: %v", job.ID, err)
		}
	}

	result := o.dispatcher.Dispatch(ctx, slug, job)
	if !result.Success {
		report(admin.StatusUpdate{
			Status:        admin.StatusFailed,
			FailureReason: Classify(result.Err),
			Notes:         result.Err,
		}, 0)
		return
	}

	attachments := o.pipeline.Process(ctx, result.Statements, slug, job.PeriodStart)

	if len(attachments) > 0 {
		if _, err := o.admin.CreateInboxEntries(ctx, job.ID, attachments); err != nil {
			o.sink.Report(ctx, "orchestrator", fmt.Errorf("job %s: inbox entry creation: %w", job.ID, err))
			report(admin.StatusUpdate{
				Status:        admin.StatusFailed,
				FailureReason: admin.ReasonCarrierUnavailable,
				Notes:         fmt.Sprintf("failed to deliver attachments: %v", err),
			}, 0)
			return
		}
		if o.history != nil {
			for _, att := range attachments {
				if err := o.history.SaveAttachment(ctx, job.ID, att); err != nil {
					log.Printf("[orchestrator] job %s: failed to record attachment %s: %v", job.ID, att.PublicID, err)
				}
			}
		}
	}

	update := admin.StatusUpdate{Status: admin.StatusSuccess}
	if len(attachments) == 0 {
		// A successful no-op: the workflow ran fine, nothing new this period.
		update.Notes = "no new statements for this period"
	}
	report(update, len(attachments))
}

// reportStatus delivers the terminal status, retrying once. Reporting is
// best-effort: a final failure is logged, never re-raised.
// A timed-out job must still be reported, so the call runs on a context
// detached from the job deadline with its own bound.
func (o *Orchestrator) reportStatus(ctx context.Context, jobID string, update admin.StatusUpdate, attachmentCount int) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), statusReportTimeout)
	defer cancel()

	err := o.admin.UpdateJobStatus(ctx, jobID, update)
	if err != nil {
		log.Printf("[orchestrator] job %s: status report failed, retrying: %v", jobID, err)
		time.Sleep(statusRetryDelay)
		if err = o.admin.UpdateJobStatus(ctx, jobID, update); err != nil {
			log.Printf("[orchestrator] job %s: status report failed permanently: %v", jobID, err)
		}
	}

	if o.history != nil {
		if herr := o.history.CompleteJobRun(ctx, jobID, string(update.Status),
			string(update.FailureReason), update.Notes, attachmentCount); herr != nil {
			log.Printf("[orchestrator] job %s: failed to record completion: %v", jobID, herr)
		}
	}
}
