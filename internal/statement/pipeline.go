package statement

import (
	"context"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/brokerops/statement-collector/internal/carrier"
	"github.com/brokerops/statement-collector/internal/fetch"
	"github.com/brokerops/statement-collector/internal/storage"
	"github.com/brokerops/statement-collector/internal/workflow"
)

// DefaultFilename is used for captured buffers that arrived without a name.
const DefaultFilename = "statement.pdf"

// defaultConcurrency bounds the per-statement workers inside one job.
const defaultConcurrency = 4

// Fetcher downloads a statement referenced by URL.
type Fetcher interface {
	Download(ctx context.Context, url string) ([]byte, error)
}

// HTTPFetcher is the production Fetcher, bounded by the fetch package's
// timeout and size limits.
type HTTPFetcher struct {
	Options *fetch.Options
}

// Download fetches the document at url.
func (f *HTTPFetcher) Download(ctx context.Context, url string) ([]byte, error) {
	return fetch.Download(ctx, url, f.Options)
}

// Pipeline turns raw workflow statements into uploaded attachments.
// Its defining property is per-item failure isolation: one malformed or
// unreachable statement never prevents delivery of the others.
type Pipeline struct {
	uploader    storage.Uploader
	fetcher     Fetcher
	concurrency int
}

// NewPipeline builds a processing pipeline. concurrency <= 0 selects the
// default.
func NewPipeline(uploader storage.Uploader, fetcher Fetcher, concurrency int) *Pipeline {
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	if fetcher == nil {
		fetcher = &HTTPFetcher{}
	}
	return &Pipeline{uploader: uploader, fetcher: fetcher, concurrency: concurrency}
}

// Process filters statements against the cutoff, then resolves, validates,
// and uploads each one independently. The returned attachments keep the
// relative order of their source statements; failed items are logged and
// skipped. Process never returns an error for a per-item failure.
func (p *Pipeline) Process(ctx context.Context, statements []workflow.Statement, slug carrier.Slug, cutoff time.Time) []storage.Attachment {
	filtered := FilterByDate(statements, cutoff)
	if len(filtered) == 0 {
		return nil
	}

	// One result slot per statement so output order matches input order
	// regardless of which upload finishes first.
	results := make([]*storage.Attachment, len(filtered))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)

	for i, stmt := range filtered {
		g.Go(func() error {
			att, err := p.processOne(gctx, stmt, slug)
			if err != nil {
				log.Printf("[pipeline] skipping statement dated %s for %s: %v", stmt.Date, slug, err)
				return nil // per-item failures never abort the batch
			}
			results[i] = att
			return nil
		})
	}
	// Workers only ever return nil.
	_ = g.Wait()

	attachments := make([]storage.Attachment, 0, len(filtered))
	for _, att := range results {
		if att != nil {
			attachments = append(attachments, *att)
		}
	}
	return attachments
}

// processOne resolves content bytes for one statement, validates them, and
// uploads them under the deterministic carrier path.
func (p *Pipeline) processOne(ctx context.Context, stmt workflow.Statement, slug carrier.Slug) (*storage.Attachment, error) {
	data, filename, err := p.resolve(ctx, stmt)
	if err != nil {
		return nil, err
	}

	if err := Validate(data, KindForFilename(filename)); err != nil {
		return nil, err
	}

	att, err := p.uploader.Upload(ctx, data, storage.UploadParams{
		Slug:          slug,
		Filename:      filename,
		StatementDate: stmt.Date,
	})
	if err != nil {
		return nil, fmt.Errorf("upload failed: %w", err)
	}
	return att, nil
}

// resolve produces the content bytes and filename for a statement. Captured
// buffers are used directly; references are fetched within the pipeline's
// bounds.
func (p *Pipeline) resolve(ctx context.Context, stmt workflow.Statement) ([]byte, string, error) {
	if data, filename, ok := stmt.Bytes(); ok {
		if filename == "" {
			filename = DefaultFilename
		}
		return data, filename, nil
	}

	url, ok := stmt.URL()
	if !ok {
		return nil, "", fmt.Errorf("statement carries no content source")
	}

	data, err := p.fetcher.Download(ctx, url)
	if err != nil {
		return nil, "", err
	}
	return data, fetch.FilenameFromURL(url, DefaultFilename), nil
}
