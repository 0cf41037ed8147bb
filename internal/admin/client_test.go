package admin

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brokerops/statement-collector/internal/storage"
)

func TestUpdateJobStatus(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody StatusUpdate

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret-key")
	err := c.UpdateJobStatus(context.Background(), "job-42", StatusUpdate{
		Status:        StatusFailed,
		FailureReason: ReasonInvalidCredentials,
		Notes:         "Invalid credentials provided",
	})

	require.NoError(t, err)
	assert.Equal(t, "/jobs/job-42/status", gotPath)
	assert.Equal(t, "Bearer secret-key", gotAuth)
	assert.Equal(t, StatusFailed, gotBody.Status)
	assert.Equal(t, ReasonInvalidCredentials, gotBody.FailureReason)
}

func TestUpdateJobStatus_OmitsEmptyFields(t *testing.T) {
	var raw map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k")
	require.NoError(t, c.UpdateJobStatus(context.Background(), "job-1", StatusUpdate{Status: StatusSuccess}))

	assert.Equal(t, "success", raw["status"])
	assert.NotContains(t, raw, "failure_reason")
	assert.NotContains(t, raw, "notes")
}

func TestCreateInboxEntries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/inbox-entries", r.URL.Path)

		var body struct {
			JobID       string               `json:"job_id"`
			Attachments []storage.Attachment `json:"attachments"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "job-42", body.JobID)
		require.Len(t, body.Attachments, 1)
		assert.Equal(t, "supplier_statements/net_abacus/may", body.Attachments[0].PublicID)

		_ = json.NewEncoder(w).Encode(map[string]any{"created_ids": []string{"entry-1"}})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k")
	ids, err := c.CreateInboxEntries(context.Background(), "job-42", []storage.Attachment{{
		PublicID: "supplier_statements/net_abacus/may",
		Format:   "pdf",
		URL:      "https://cdn.example.com/may.pdf",
		Title:    "may.pdf",
		Etag:     "abc",
	}})

	require.NoError(t, err)
	assert.Equal(t, []string{"entry-1"}, ids)
}

func TestClient_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "wrong")
	err := c.UpdateJobStatus(context.Background(), "job-1", StatusUpdate{Status: StatusSuccess})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestNewClient_TrimsTrailingSlash(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", "k")
	require.NoError(t, c.UpdateJobStatus(context.Background(), "j", StatusUpdate{Status: StatusSuccess}))
	assert.Equal(t, "/jobs/j/status", gotPath)
}
