// Package types holds the shared domain types for the statement collector.
package types

import "time"

// Credential holds the portal login for one carrier account.
// Credentials arrive with each job and are never persisted.
type Credential struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
	LoginURL string `json:"login_url" validate:"required,url"`
}

// Job is one statement-collection request. Exactly one workflow invocation
// runs per job; the job ends when its terminal status has been reported.
type Job struct {
	ID         string
	Credential Credential

	// PeriodStart is the accounting period start date. Statements dated on or
	// before it have already been processed and are filtered out.
	PeriodStart time.Time
}
