// Package carriers holds the per-carrier collection routines. Every carrier
// portal has its own login flow and statement layout, so each routine lives in
// its own file; they share only the login-state check and the extraction
// schemas.
package carriers

import (
	"context"
	"fmt"
	"time"

	"github.com/brokerops/statement-collector/internal/browser"
	"github.com/brokerops/statement-collector/internal/carrier"
	"github.com/brokerops/statement-collector/internal/types"
	"github.com/brokerops/statement-collector/internal/workflow"
)

// pdfWait bounds how long a routine waits for a portal to serve a statement
// document after clicking a view/download control.
const pdfWait = 45 * time.Second

// Registry builds the slug-to-routine table. It is assembled once at startup;
// a known carrier missing here is reported by the dispatcher as having no
// workflow implemented.
func Registry() workflow.Registry {
	return workflow.Registry{
		carrier.Abacus:        Abacus,
		carrier.Assurity:      Assurity,
		carrier.Ameritas:      Ameritas,
		carrier.Transamerica:  Transamerica,
		carrier.MutualOfOmaha: MutualOfOmaha,
		carrier.GuardianLife:  GuardianLife,
		carrier.Principal:     Principal,
		carrier.Foresters:     Foresters,
		carrier.Protective:    Protective,
		carrier.Sagicor:       Sagicor,
		carrier.MutualTrust:   MutualTrust,
	}
}

// loginStateSchema validates the post-login page assessment.
const loginStateSchema = `{
	"type": "object",
	"properties": {
		"logged_in": {"type": "boolean"},
		"mfa_required": {"type": "boolean"},
		"password_change_required": {"type": "boolean"},
		"error_message": {"type": "string"}
	},
	"required": ["logged_in"]
}`

// statementListSchema validates an extracted statement table.
const statementListSchema = `{
	"type": "object",
	"properties": {
		"statements": {
			"type": "array",
			"items": {
				"type": "object",
				"properties": {
					"date": {"type": "string"},
					"url": {"type": "string"}
				},
				"required": ["date"]
			}
		}
	},
	"required": ["statements"]
}`

type loginState struct {
	LoggedIn               bool   `json:"logged_in"`
	MFARequired            bool   `json:"mfa_required"`
	PasswordChangeRequired bool   `json:"password_change_required"`
	ErrorMessage           string `json:"error_message"`
}

type statementRow struct {
	Date string `json:"date"`
	URL  string `json:"url"`
}

type statementList struct {
	Statements []statementRow `json:"statements"`
}

// confirmLogin inspects the page after a sign-in attempt. It returns a
// non-nil failure result when the portal rejected the login or put up an
// interstitial the routine cannot get past; nil means the session is in.
func confirmLogin(ctx context.Context, sess browser.Session) (*workflow.Result, error) {
	var state loginState
	err := sess.Extract(ctx,
		"Determine the login outcome: whether the user is signed in, whether a "+
			"two-factor or verification-code prompt is shown, whether a password "+
			"change is being forced, and any visible error message.",
		loginStateSchema, &state)
	if err != nil {
		return nil, fmt.Errorf("failed to read login state: %w", err)
	}

	switch {
	case state.PasswordChangeRequired:
		return workflow.Failuref("Password change required before portal access"), nil
	case state.MFARequired:
		return workflow.Failuref("Two-factor verification required to continue"), nil
	case !state.LoggedIn:
		if state.ErrorMessage != "" {
			return workflow.Failuref("Invalid credentials: %s", state.ErrorMessage), nil
		}
		return workflow.Failuref("Invalid credentials: login failed"), nil
	}
	return nil, nil
}

// signIn navigates to the job's login URL and submits the credential. The Act
// instructions are deliberately generic; carriers with unusual login forms do
// their own sequence instead of calling this.
func signIn(ctx context.Context, sess browser.Session, job *types.Job) error {
	if err := sess.Goto(ctx, job.Credential.LoginURL); err != nil {
		return fmt.Errorf("failed to open login page: %w", err)
	}
	if err := sess.Act(ctx, fmt.Sprintf("type %q into the username field", job.Credential.Username)); err != nil {
		return fmt.Errorf("failed to enter username: %w", err)
	}
	if err := sess.Act(ctx, fmt.Sprintf("type %q into the password field", job.Credential.Password)); err != nil {
		return fmt.Errorf("failed to enter password: %w", err)
	}
	if err := sess.Act(ctx, "click the sign in button"); err != nil {
		return fmt.Errorf("failed to submit login form: %w", err)
	}
	return nil
}

// asReferences converts extracted rows with URLs into reference statements.
// Rows without a URL are dropped; the routine that extracted them decides
// whether that is worth failing over.
func asReferences(rows []statementRow) []workflow.Statement {
	statements := make([]workflow.Statement, 0, len(rows))
	for _, row := range rows {
		if row.URL == "" {
			continue
		}
		statements = append(statements, workflow.ByReference(row.Date, row.URL))
	}
	return statements
}
