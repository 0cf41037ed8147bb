// Package admin is the client for the upstream administrative system: inbox
// entry creation and terminal job-status reporting.
package admin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/brokerops/statement-collector/internal/storage"
)

// DefaultTimeout bounds every Admin API call.
const DefaultTimeout = 15 * time.Second

// Status is the terminal outcome of a job.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// FailureReason is the closed taxonomy reported with failed jobs.
type FailureReason string

const (
	ReasonInvalidCredentials FailureReason = "invalid_credentials"
	ReasonRequiresMFA        FailureReason = "requires_mfa"
	ReasonCarrierUnavailable FailureReason = "carrier_unavailable"
	ReasonMissingInstruction FailureReason = "missing_instruction"
	ReasonPasswordChange     FailureReason = "password_change"
)

// StatusUpdate is the terminal event reported once per job.
type StatusUpdate struct {
	Status        Status        `json:"status"`
	FailureReason FailureReason `json:"failure_reason,omitempty"`
	Notes         string        `json:"notes,omitempty"`
}

// Client calls the Admin API with bearer-token auth and a bounded timeout.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClient builds an Admin API client.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: DefaultTimeout},
	}
}

// UpdateJobStatus reports the terminal status for a job.
func (c *Client) UpdateJobStatus(ctx context.Context, jobID string, update StatusUpdate) error {
	path := fmt.Sprintf("/jobs/%s/status", jobID)
	return c.post(ctx, path, update, nil)
}

// CreateInboxEntries creates inbox entries for the delivered attachments and
// returns the created entry ids.
func (c *Client) CreateInboxEntries(ctx context.Context, jobID string, attachments []storage.Attachment) ([]string, error) {
	body := struct {
		JobID       string               `json:"job_id"`
		Attachments []storage.Attachment `json:"attachments"`
	}{JobID: jobID, Attachments: attachments}

	var resp struct {
		CreatedIDs []string `json:"created_ids"`
	}
	if err := c.post(ctx, "/inbox-entries", body, &resp); err != nil {
		return nil, err
	}
	return resp.CreatedIDs, nil
}

// post sends a JSON body and optionally decodes a JSON response into out.
func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("admin API request to %s failed: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("admin API %s returned %d: %s", path, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode admin API response from %s: %w", path, err)
		}
	}
	return nil
}
