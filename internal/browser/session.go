// Package browser provides the remote browser session capability consumed by
// carrier workflows: navigation, natural-language UI actions, structured
// extraction, and byte-exact capture of documents the portal serves.
package browser

import (
	"context"
	"time"
)

// Candidate describes one interactive element on the current page, offered to
// the model when resolving a natural-language instruction.
type Candidate struct {
	Selector string `json:"selector"`
	Tag      string `json:"tag"`
	Text     string `json:"text,omitempty"`
	Name     string `json:"name,omitempty"`
}

// Session is one live browser tab. Carrier workflows consume only this
// surface plus the job's credential fields. A Session is not safe for
// concurrent use; each job owns exactly one.
type Session interface {
	// Goto navigates the tab to url and waits for the document to be ready.
	Goto(ctx context.Context, url string) error

	// Act performs a natural-language UI action ("type jdoe into the
	// username field", "click the Statements tab").
	Act(ctx context.Context, instruction string) error

	// Extract pulls structured data off the current page. The result is
	// validated against the provided JSON schema before being unmarshaled
	// into out.
	Extract(ctx context.Context, instruction, schema string, out any) error

	// Observe returns the interactive elements on the current page that
	// match the instruction.
	Observe(ctx context.Context, instruction string) ([]Candidate, error)

	// WaitForPDF blocks until the tab receives a PDF response or the timeout
	// elapses, returning the document bytes and a filename derived from the
	// response URL.
	WaitForPDF(ctx context.Context, timeout time.Duration) ([]byte, string, error)

	// DownloadURL fetches a document URL directly, carrying the session's
	// cookies so authenticated links resolve.
	DownloadURL(ctx context.Context, url string) ([]byte, error)

	// Close releases the tab and its browser resources.
	Close() error
}

// Provider hands out browser sessions. The dispatcher acquires exactly one
// session per job and guarantees release on every exit path.
type Provider interface {
	Acquire(ctx context.Context) (Session, error)
}
