package storage

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// =============================================================================
// LocalPhotoStore Implementation
// =============================================================================

// LocalPhotoStore implements PhotoStore against the local filesystem.
//
// Security: Path traversal prevention is enforced in resolvePath().
type LocalPhotoStore struct {
	basePath string // Root directory holding photo objects
	baseURL  string // Base URL for file access
	logger   *slog.Logger
}

// NewLocalPhotoStore creates a new LocalPhotoStore instance.
//
// The base directory is created if it doesn't exist.
func NewLocalPhotoStore(cfg LocalConfig, logger *slog.Logger) (*LocalPhotoStore, error) {
	absPath, err := filepath.Abs(cfg.BasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve base path: %w", err)
	}

	if err := os.MkdirAll(absPath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")

	logger.Info("initialized local photo store",
		"base_path", absPath,
		"base_url", baseURL,
	)

	return &LocalPhotoStore{
		basePath: absPath,
		baseURL:  baseURL,
		logger:   logger,
	}, nil
}

// =============================================================================
// Interface Implementation
// =============================================================================

// Exists checks whether an object exists for the given reference.
func (s *LocalPhotoStore) Exists(ctx context.Context, ref string) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}

	filePath, err := s.resolvePath(ref)
	if err != nil {
		return false, &StorageError{Op: "Exists", Ref: ref, Err: err}
	}

	_, err = os.Stat(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, &StorageError{Op: "Exists", Ref: ref, Err: fmt.Errorf("failed to stat file: %w", err)}
	}

	return true, nil
}

// URL returns a public URL for the referenced object.
// Local storage ignores the expires parameter.
func (s *LocalPhotoStore) URL(ctx context.Context, ref string, expires time.Duration) (string, error) {
	if ctx.Err() != nil {
		return "", ctx.Err()
	}

	if _, err := s.resolvePath(ref); err != nil {
		return "", &StorageError{Op: "URL", Ref: ref, Err: err}
	}

	return fmt.Sprintf("%s/%s", s.baseURL, ref), nil
}

// Delete removes the referenced object. Idempotent.
func (s *LocalPhotoStore) Delete(ctx context.Context, ref string) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	filePath, err := s.resolvePath(ref)
	if err != nil {
		return &StorageError{Op: "Delete", Ref: ref, Err: err}
	}

	err = os.Remove(filePath)
	if err != nil && !os.IsNotExist(err) {
		return &StorageError{Op: "Delete", Ref: ref, Err: fmt.Errorf("failed to delete file: %w", err)}
	}

	s.logger.Debug("deleted photo object", "ref", ref, "path", filePath)

	return nil
}

// =============================================================================
// Internal Helpers
// =============================================================================

// resolvePath converts a photo reference to an absolute file path.
//
// Security: This function prevents path traversal attacks by:
// 1. Rejecting references that contain ".." path components
// 2. Ensuring the resolved path stays within the base directory
func (s *LocalPhotoStore) resolvePath(ref string) (string, error) {
	if ref == "" {
		return "", ErrInvalidRef
	}

	cleanRef := filepath.Clean(ref)
	if strings.Contains(cleanRef, "..") {
		return "", ErrInvalidRef
	}

	absPath := filepath.Join(s.basePath, cleanRef)
	if !strings.HasPrefix(absPath, s.basePath) {
		return "", ErrInvalidRef
	}

	return absPath, nil
}

var _ PhotoStore = (*LocalPhotoStore)(nil)
