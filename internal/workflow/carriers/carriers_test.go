package carriers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brokerops/statement-collector/internal/browser"
	"github.com/brokerops/statement-collector/internal/carrier"
	"github.com/brokerops/statement-collector/internal/types"
	"github.com/brokerops/statement-collector/internal/workflow"
)

// scriptedSession answers Extract calls from a queue of canned JSON payloads
// and records every primitive invocation.
type scriptedSession struct {
	extracts   []string
	calls      []string
	actErr     error
	pdfData    []byte
	pdfName    string
	downloaded map[string][]byte
}

func (s *scriptedSession) Goto(_ context.Context, url string) error {
	s.calls = append(s.calls, "goto "+url)
	return nil
}

func (s *scriptedSession) Act(_ context.Context, instruction string) error {
	s.calls = append(s.calls, "act "+instruction)
	return s.actErr
}

func (s *scriptedSession) Extract(_ context.Context, instruction, _ string, out any) error {
	s.calls = append(s.calls, "extract "+instruction)
	if len(s.extracts) == 0 {
		return fmt.Errorf("no scripted extract left")
	}
	payload := s.extracts[0]
	s.extracts = s.extracts[1:]
	return json.Unmarshal([]byte(payload), out)
}

func (s *scriptedSession) Observe(_ context.Context, instruction string) ([]browser.Candidate, error) {
	s.calls = append(s.calls, "observe "+instruction)
	return []browser.Candidate{
		{Selector: "a:nth-of-type(1)", Tag: "a", Text: "2024-05-15"},
	}, nil
}

func (s *scriptedSession) WaitForPDF(_ context.Context, _ time.Duration) ([]byte, string, error) {
	s.calls = append(s.calls, "waitforpdf")
	if s.pdfData == nil {
		return nil, "", fmt.Errorf("no document arrived")
	}
	return s.pdfData, s.pdfName, nil
}

func (s *scriptedSession) DownloadURL(_ context.Context, url string) ([]byte, error) {
	s.calls = append(s.calls, "download "+url)
	if data, ok := s.downloaded[url]; ok {
		return data, nil
	}
	return nil, fmt.Errorf("not found")
}

func (s *scriptedSession) Close() error { return nil }

func testJob() *types.Job {
	return &types.Job{
		ID: "job-1",
		Credential: types.Credential{
			Username: "agent007",
			Password: "hunter2",
			LoginURL: "https://portal.abacus.net/login",
		},
		PeriodStart: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
	}
}

const loggedIn = `{"logged_in": true}`

func TestRegistryCoversKnownCarriers(t *testing.T) {
	registry := Registry()

	// Sentinel is the one known carrier without a routine yet.
	for _, slug := range []carrier.Slug{
		carrier.Abacus, carrier.Assurity, carrier.Ameritas, carrier.Transamerica,
		carrier.MutualOfOmaha, carrier.GuardianLife, carrier.Principal,
		carrier.Foresters, carrier.Protective, carrier.Sagicor, carrier.MutualTrust,
	} {
		assert.Contains(t, registry, slug)
	}
	assert.NotContains(t, registry, carrier.Sentinel)
	assert.NotContains(t, registry, carrier.Unknown)

	for slug := range registry {
		assert.True(t, carrier.IsKnown(slug), "registry holds unknown slug %s", slug)
	}
}

func TestConfirmLoginOutcomes(t *testing.T) {
	tests := []struct {
		name     string
		state    string
		wantFail bool
		fragment string
	}{
		{"logged in", `{"logged_in": true}`, false, ""},
		{"bad password", `{"logged_in": false, "error_message": "The password you entered is incorrect"}`, true, "Invalid credentials"},
		{"bad login no message", `{"logged_in": false}`, true, "login failed"},
		{"mfa wall", `{"logged_in": false, "mfa_required": true}`, true, "Two-factor"},
		{"forced reset", `{"logged_in": false, "password_change_required": true}`, true, "Password change required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sess := &scriptedSession{extracts: []string{tt.state}}
			result, err := confirmLogin(context.Background(), sess)
			require.NoError(t, err)
			if !tt.wantFail {
				assert.Nil(t, result)
				return
			}
			require.NotNil(t, result)
			assert.False(t, result.Success)
			assert.Contains(t, result.Err, tt.fragment)
		})
	}
}

func TestAbacusCollectsReferences(t *testing.T) {
	sess := &scriptedSession{extracts: []string{
		loggedIn,
		`{"statements": [
			{"date": "2024-05-15", "url": "https://portal.abacus.net/statements/123.pdf"},
			{"date": "2024-04-15", "url": "https://portal.abacus.net/statements/122.pdf"}
		]}`,
	}}

	result, err := Abacus(context.Background(), sess, testJob())
	require.NoError(t, err)
	require.True(t, result.Success)
	require.Len(t, result.Statements, 2)

	url, ok := result.Statements[0].URL()
	assert.True(t, ok)
	assert.Equal(t, "https://portal.abacus.net/statements/123.pdf", url)
	assert.Equal(t, "2024-05-15", result.Statements[0].Date)
}

func TestAbacusBadCredentials(t *testing.T) {
	sess := &scriptedSession{extracts: []string{
		`{"logged_in": false, "error_message": "Invalid username or password"}`,
	}}

	result, err := Abacus(context.Background(), sess, testJob())
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.False(t, result.Success)
	assert.Contains(t, result.Err, "Invalid credentials")

	// The routine must stop at the login wall.
	for _, call := range sess.calls {
		assert.NotContains(t, call, "Commission Statements")
	}
}

func TestAmeritasCapturesPDFBytes(t *testing.T) {
	sess := &scriptedSession{
		extracts: []string{
			loggedIn,
			`{"statements": [{"date": "2024-05-20"}]}`,
		},
		pdfData: []byte("%PDF-1.7 content"),
		pdfName: "statement-2024-05-20.pdf",
	}

	result, err := Ameritas(context.Background(), sess, testJob())
	require.NoError(t, err)
	require.True(t, result.Success)
	require.Len(t, result.Statements, 1)

	data, filename, ok := result.Statements[0].Bytes()
	assert.True(t, ok)
	assert.Equal(t, "statement-2024-05-20.pdf", filename)
	assert.Equal(t, []byte("%PDF-1.7 content"), data)
}

func TestAmeritasPDFTimeout(t *testing.T) {
	sess := &scriptedSession{
		extracts: []string{
			loggedIn,
			`{"statements": [{"date": "2024-05-20"}]}`,
		},
	}

	result, err := Ameritas(context.Background(), sess, testJob())
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.False(t, result.Success)
	assert.Contains(t, result.Err, "Timed out")
}

func TestGuardianLifeDownloadsExcelExports(t *testing.T) {
	sess := &scriptedSession{
		extracts: []string{
			loggedIn,
			`{"statements": [{"date": "2024-05-31", "url": "https://guardianlife.com/export/42"}]}`,
		},
		downloaded: map[string][]byte{
			"https://guardianlife.com/export/42": []byte("PK\x03\x04sheet"),
		},
	}

	result, err := GuardianLife(context.Background(), sess, testJob())
	require.NoError(t, err)
	require.True(t, result.Success)
	require.Len(t, result.Statements, 1)

	data, filename, ok := result.Statements[0].Bytes()
	assert.True(t, ok)
	assert.True(t, strings.HasSuffix(filename, ".xlsx"))
	assert.Equal(t, []byte("PK\x03\x04sheet"), data)
}

func TestMutualTrustObservesLinks(t *testing.T) {
	sess := &scriptedSession{
		extracts: []string{loggedIn},
		pdfData:  []byte("%PDF-1.4"),
		pdfName:  "may.pdf",
	}

	result, err := MutualTrust(context.Background(), sess, testJob())
	require.NoError(t, err)
	require.True(t, result.Success)
	require.Len(t, result.Statements, 1)
	assert.Equal(t, "2024-05-15", result.Statements[0].Date)
}

func TestAsReferencesDropsRowsWithoutURL(t *testing.T) {
	rows := []statementRow{
		{Date: "2024-05-01", URL: "https://example.com/a.pdf"},
		{Date: "2024-04-01"},
		{Date: "2024-03-01", URL: "https://example.com/c.pdf"},
	}

	statements := asReferences(rows)
	require.Len(t, statements, 2)
	assert.Equal(t, "2024-05-01", statements[0].Date)
	assert.Equal(t, "2024-03-01", statements[1].Date)
}

var _ workflow.Workflow = Abacus
