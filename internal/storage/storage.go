// Package storage provides the photo-reference store consumed by the
// approval workflow.
//
// The core stores opaque references, never bytes: upload mechanics (camera
// capture, preview generation) live with external collaborators. This
// package only answers whether a reference resolves to a stored object,
// hands out access URLs, and removes orphaned objects.
//
// Implementations:
// - LocalPhotoStore: filesystem-backed, for development
// - S3PhotoStore: S3-compatible object storage, for production
package storage

import (
	"context"
	"time"
)

// =============================================================================
// Interface Definition
// =============================================================================

// PhotoStore verifies and serves opaque photo/evidence references.
//
// All methods are context-aware for timeout and cancellation support.
type PhotoStore interface {
	// Exists checks whether an object exists for the given reference.
	Exists(ctx context.Context, ref string) (bool, error)

	// URL returns a URL for accessing the referenced object.
	// For private objects this is a presigned URL valid for the specified
	// duration.
	URL(ctx context.Context, ref string, expires time.Duration) (string, error)

	// Delete removes the referenced object. Idempotent: no error when the
	// reference does not resolve.
	Delete(ctx context.Context, ref string) error
}

// =============================================================================
// Configuration
// =============================================================================

// LocalConfig configures filesystem-backed photo storage.
type LocalConfig struct {
	BasePath string // Root directory holding photo objects
	BaseURL  string // Base URL collaborators serve the files under
}

// S3Config configures S3-compatible photo storage.
type S3Config struct {
	Endpoint        string // Custom endpoint for S3-compatible providers; empty for AWS
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	PublicURL       string // Optional public base URL (e.g. custom domain)
}
