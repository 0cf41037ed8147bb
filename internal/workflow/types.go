// Package workflow defines the contract every carrier routine satisfies and
// the dispatcher that runs routines against a browser session.
package workflow

import (
	"context"
	"fmt"

	"github.com/brokerops/statement-collector/internal/browser"
	"github.com/brokerops/statement-collector/internal/carrier"
	"github.com/brokerops/statement-collector/internal/types"
)

// Statement is one retrieved commission document. It carries exactly one
// content source: a remote URL to fetch later, or bytes already captured from
// the portal. Construct with ByReference or ByBytes; the zero value is not a
// valid statement.
type Statement struct {
	// Date identifies the accounting period the document covers, as the
	// portal displayed it (normally YYYY-MM-DD).
	Date string

	source source
}

type source interface{ isSource() }

type refSource struct{ url string }
type byteSource struct {
	data     []byte
	filename string
}

func (refSource) isSource()  {}
func (byteSource) isSource() {}

// ByReference builds a statement whose content lives at a remote URL.
func ByReference(date, url string) Statement {
	return Statement{Date: date, source: refSource{url: url}}
}

// ByBytes builds a statement from already-captured bytes. filename may be
// empty; the pipeline substitutes a default.
func ByBytes(date, filename string, data []byte) Statement {
	return Statement{Date: date, source: byteSource{data: data, filename: filename}}
}

// URL returns the remote reference, if this statement carries one.
func (s Statement) URL() (string, bool) {
	src, ok := s.source.(refSource)
	if !ok {
		return "", false
	}
	return src.url, true
}

// Bytes returns the captured content and filename, if this statement carries
// bytes.
func (s Statement) Bytes() ([]byte, string, bool) {
	src, ok := s.source.(byteSource)
	if !ok {
		return nil, "", false
	}
	return src.data, src.filename, true
}

// Valid reports whether the statement carries a content source.
func (s Statement) Valid() bool {
	return s.source != nil
}

// Result is what every carrier routine returns. Success with an empty
// statement list is valid: nothing new this period.
type Result struct {
	Success    bool
	Statements []Statement
	Err        string
}

// Successful wraps statements in a successful result.
func Successful(statements []Statement) *Result {
	return &Result{Success: true, Statements: statements}
}

// Failuref builds a failure result with a formatted message. The message is
// what the orchestrator classifies into a failure reason, so routines phrase
// it for the taxonomy keywords.
func Failuref(format string, args ...any) *Result {
	return &Result{Success: false, Err: fmt.Sprintf(format, args...)}
}

// Workflow is the carrier-specific routine: log in, locate statements for the
// period, return them. Routines report carrier-level outcomes (bad login,
// MFA wall) through the Result and unexpected failures through the error;
// the dispatcher normalizes both.
type Workflow func(ctx context.Context, sess browser.Session, job *types.Job) (*Result, error)

// Registry maps carrier slugs to their routines. It is built once at startup;
// adding a carrier means adding an entry, never touching the dispatcher.
type Registry map[carrier.Slug]Workflow
