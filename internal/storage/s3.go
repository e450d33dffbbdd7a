package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// =============================================================================
// S3PhotoStore Implementation
// =============================================================================

// S3PhotoStore implements PhotoStore against S3-compatible object storage.
type S3PhotoStore struct {
	client        *s3.Client
	presignClient *s3.PresignClient
	bucketName    string
	publicURL     string // Optional public base URL (e.g. custom domain)
	logger        *slog.Logger
}

// NewS3PhotoStore creates a new S3PhotoStore instance.
//
// A custom endpoint enables S3-compatible providers; leave it empty for AWS.
func NewS3PhotoStore(cfg S3Config, logger *slog.Logger) (*S3PhotoStore, error) {
	region := cfg.Region
	if region == "" {
		region = "auto"
	}

	creds := credentials.NewStaticCredentialsProvider(
		cfg.AccessKeyID,
		cfg.SecretAccessKey,
		"",
	)

	awsCfg := aws.Config{
		Region:      region,
		Credentials: creds,
	}

	if cfg.Endpoint != "" {
		endpoint := cfg.Endpoint
		awsCfg.EndpointResolverWithOptions = aws.EndpointResolverWithOptionsFunc(
			func(service, region string, options ...interface{}) (aws.Endpoint, error) {
				return aws.Endpoint{
					URL:           endpoint,
					SigningRegion: region,
				}, nil
			},
		)
	}

	client := s3.NewFromConfig(awsCfg)
	presignClient := s3.NewPresignClient(client)

	logger.Info("initialized S3 photo store",
		"bucket", cfg.BucketName,
		"endpoint", cfg.Endpoint,
		"public_url", cfg.PublicURL,
	)

	return &S3PhotoStore{
		client:        client,
		presignClient: presignClient,
		bucketName:    cfg.BucketName,
		publicURL:     strings.TrimSuffix(cfg.PublicURL, "/"),
		logger:        logger,
	}, nil
}

// =============================================================================
// Interface Implementation
// =============================================================================

// Exists checks whether an object exists for the given reference.
func (s *S3PhotoStore) Exists(ctx context.Context, ref string) (bool, error) {
	if err := s.validateRef(ref); err != nil {
		return false, &StorageError{Op: "Exists", Ref: ref, Err: err}
	}

	// HeadObject checks existence without downloading the object
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(ref),
	})
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return false, nil
		}

		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			if apiErr.ErrorCode() == "NotFound" || apiErr.ErrorCode() == "NoSuchKey" {
				return false, nil
			}
		}

		return false, &StorageError{Op: "Exists", Ref: ref, Err: s.wrapS3Error(err)}
	}

	return true, nil
}

// URL returns a URL for accessing the referenced object.
// If publicURL is configured and expires is 0, returns a public URL.
// Otherwise, returns a presigned URL valid for the specified duration.
func (s *S3PhotoStore) URL(ctx context.Context, ref string, expires time.Duration) (string, error) {
	if err := s.validateRef(ref); err != nil {
		return "", &StorageError{Op: "URL", Ref: ref, Err: err}
	}

	if s.publicURL != "" && expires == 0 {
		return fmt.Sprintf("%s/%s", s.publicURL, ref), nil
	}

	if expires == 0 {
		expires = 15 * time.Minute
	}

	request, err := s.presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(ref),
	}, s3.WithPresignExpires(expires))
	if err != nil {
		return "", &StorageError{Op: "URL", Ref: ref, Err: fmt.Errorf("failed to generate presigned URL: %w", err)}
	}

	return request.URL, nil
}

// Delete removes the referenced object.
// Idempotent: S3 doesn't error when the key doesn't exist.
func (s *S3PhotoStore) Delete(ctx context.Context, ref string) error {
	if err := s.validateRef(ref); err != nil {
		return &StorageError{Op: "Delete", Ref: ref, Err: err}
	}

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(ref),
	})
	if err != nil {
		return &StorageError{Op: "Delete", Ref: ref, Err: s.wrapS3Error(err)}
	}

	s.logger.Debug("deleted photo object", "ref", ref)

	return nil
}

// =============================================================================
// Internal Helpers
// =============================================================================

// validateRef checks if a photo reference is valid.
// Rejects empty references and path traversal attempts.
func (s *S3PhotoStore) validateRef(ref string) error {
	if ref == "" {
		return ErrInvalidRef
	}
	if strings.Contains(ref, "..") {
		return ErrInvalidRef
	}
	return nil
}

// wrapS3Error converts S3 SDK errors to storage errors.
func (s *S3PhotoStore) wrapS3Error(err error) error {
	if err == nil {
		return nil
	}

	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return ErrNotFound
	}

	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return ErrNotFound
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey":
			return ErrNotFound
		case "AccessDenied", "Forbidden":
			return ErrAccessDenied
		}

		if httpErr, ok := err.(interface{ HTTPStatusCode() int }); ok {
			switch httpErr.HTTPStatusCode() {
			case http.StatusNotFound:
				return ErrNotFound
			case http.StatusForbidden:
				return ErrAccessDenied
			}
		}
	}

	return fmt.Errorf("s3 operation failed: %w", err)
}

var _ PhotoStore = (*S3PhotoStore)(nil)
