// Package storage persists statement documents to durable object storage and
// returns stable references for the Admin API.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	cldupload "github.com/cloudinary/cloudinary-go/v2/api/uploader"

	"github.com/brokerops/statement-collector/internal/carrier"
)

// uploadFolder is the root folder for all statement uploads.
const uploadFolder = "supplier_statements"

// Attachment is the durable-storage reference for one uploaded statement.
type Attachment struct {
	PublicID string `json:"public_id"`
	Format   string `json:"format"`
	URL      string `json:"url"`
	Title    string `json:"title"`
	Etag     string `json:"etag"`
}

// UploadParams carries the metadata stored alongside the document.
type UploadParams struct {
	Slug          carrier.Slug
	Filename      string
	StatementDate string
}

// Uploader persists statement bytes. Implementations must overwrite on
// repeated uploads of the same logical statement rather than versioning.
type Uploader interface {
	Upload(ctx context.Context, data []byte, p UploadParams) (*Attachment, error)
}

// CloudinaryUploader implements Uploader on Cloudinary raw storage.
type CloudinaryUploader struct {
	cld *cloudinary.Cloudinary
}

// NewCloudinary builds an uploader from a cloudinary:// URL.
func NewCloudinary(cloudinaryURL string) (*CloudinaryUploader, error) {
	if cloudinaryURL == "" {
		return nil, fmt.Errorf("cloudinary URL is required")
	}
	cld, err := cloudinary.NewFromURL(cloudinaryURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create Cloudinary client: %w", err)
	}
	return &CloudinaryUploader{cld: cld}, nil
}

// PublicIDFor returns the deterministic storage path for a statement, keyed
// by carrier slug and filename without extension. Re-uploading the same
// logical statement lands on the same id.
func PublicIDFor(slug carrier.Slug, filename string) string {
	base := strings.TrimSuffix(filename, path.Ext(filename))
	return path.Join(uploadFolder, string(slug), base)
}

// Upload stores the document and returns its attachment reference.
func (u *CloudinaryUploader) Upload(ctx context.Context, data []byte, p UploadParams) (*Attachment, error) {
	publicID := PublicIDFor(p.Slug, p.Filename)

	resp, err := u.cld.Upload.Upload(ctx, bytes.NewReader(data), cldupload.UploadParams{
		PublicID:     publicID,
		ResourceType: "raw",
		Overwrite:    api.Bool(true),
		Tags:         api.CldAPIArray{string(p.Slug)},
		Context: api.CldAPIMap{
			"carrier":        string(p.Slug),
			"statement_date": p.StatementDate,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("upload of %s failed: %w", publicID, err)
	}
	if resp.Error.Message != "" {
		return nil, fmt.Errorf("upload of %s rejected: %s", publicID, resp.Error.Message)
	}

	return &Attachment{
		PublicID: resp.PublicID,
		Format:   formatFor(p.Filename, resp.Format),
		URL:      resp.SecureURL,
		Title:    p.Filename,
		Etag:     resp.Etag,
	}, nil
}

// formatFor prefers the format Cloudinary reports; raw uploads often omit it,
// so fall back to the filename extension.
func formatFor(filename, reported string) string {
	if reported != "" {
		return reported
	}
	return strings.TrimPrefix(path.Ext(filename), ".")
}
