package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/brokerops/statement-collector/internal/db"
	"github.com/brokerops/statement-collector/internal/types"
)

var validate = validator.New()

// CreateJobRequest is the request body for POST /jobs.
type CreateJobRequest struct {
	JobID      string `json:"job_id" validate:"required"`
	Credential struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
		LoginURL string `json:"login_url" validate:"required,url"`
	} `json:"credential" validate:"required"`
	AccountingPeriodStartDate string `json:"accounting_period_start_date" validate:"required"`
}

// CreateJobResponse is the response for POST /jobs.
type CreateJobResponse struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

// JobRunResponse is the response for GET /jobs/{id}.
type JobRunResponse struct {
	JobID           string `json:"job_id"`
	Carrier         string `json:"carrier"`
	Status          string `json:"status"`
	FailureReason   string `json:"failure_reason,omitempty"`
	Notes           string `json:"notes,omitempty"`
	AttachmentCount int    `json:"attachment_count"`
	CreatedAt       string `json:"created_at"`
}

// handleCreateJob validates a collection request and accepts it for
// background execution. Credentials live only in the job passed to the
// runner; they are never logged or stored.
func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	var req CreateJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if err := validate.Struct(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	periodStart, err := time.Parse("2006-01-02", req.AccountingPeriodStartDate)
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "accounting_period_start_date must be YYYY-MM-DD")
		return
	}

	// The upstream system keys status reports and inbox entries by job_id,
	// so the id must come from the caller; minting one here would produce
	// reports it cannot correlate.
	job := &types.Job{
		ID: req.JobID,
		Credential: types.Credential{
			Username: req.Credential.Username,
			Password: req.Credential.Password,
			LoginURL: req.Credential.LoginURL,
		},
		PeriodStart: periodStart,
	}

	log.Printf("Accepted collection job %s", job.ID)

	// Jobs share no mutable state, so each runs on its own goroutine. The
	// orchestrator applies its own timeout; the request context would die
	// with this response.
	go s.runner.Run(context.Background(), job)

	s.jsonResponse(w, http.StatusAccepted, CreateJobResponse{
		JobID:  job.ID,
		Status: "accepted",
	})
}

// handleGetJob returns the last recorded run for a job.
func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		s.errorResponse(w, http.StatusNotFound, "Job history is not enabled")
		return
	}

	jobID := r.PathValue("id")
	run, err := s.history.GetJobRun(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			s.errorResponse(w, http.StatusNotFound, "Job not found: "+jobID)
			return
		}
		s.errorResponse(w, http.StatusInternalServerError, "Failed to load job: "+err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, JobRunResponse{
		JobID:           run.JobID,
		Carrier:         run.CarrierSlug,
		Status:          run.Status,
		FailureReason:   run.FailureReason,
		Notes:           run.Notes,
		AttachmentCount: run.AttachmentCount,
		CreatedAt:       run.CreatedAt.Format(time.RFC3339),
	})
}
