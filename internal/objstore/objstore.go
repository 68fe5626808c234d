// Package objstore abstracts the S3-compatible object store used for listing
// images and digital product files.
package objstore

import (
	"context"
	"time"
)

// Storage is the narrow surface the core needs from an object store.
type Storage interface {
	// Put uploads an object, overwriting any existing one.
	Put(ctx context.Context, bucket, path string, data []byte, contentType string) error

	// Delete removes an object. Callers treat failures as cleanup debt, not
	// as fatal errors.
	Delete(ctx context.Context, bucket, path string) error

	// SignedURL mints a short-lived download URL for a private object.
	SignedURL(ctx context.Context, bucket, path string, ttl time.Duration) (string, error)
}
