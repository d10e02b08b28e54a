package storage

import (
	"context"
	"io"
)

// Storage defines the interface for object storage operations.
type Storage interface {
	// Put uploads data from a reader. The size parameter is used for
	// the content-length header; the reader is streamed, not buffered,
	// when it is seekable (files staged on disk always are).
	Put(ctx context.Context, r io.Reader, size int64, opts ...Option) (*Object, error)

	// Delete removes an object.
	Delete(ctx context.Context, key string) error

	// URL returns the public URL for an object key.
	URL(key string) string
}

// Object describes an uploaded object.
type Object struct {
	// Key is the provider-side identifier for the object.
	Key string

	// URL is the public URL the object is served from.
	URL string

	// ContentType is the detected or declared MIME type.
	ContentType string

	// Size is the object size in bytes.
	Size int64
}

// Config holds S3-compatible storage configuration.
type Config struct {
	// Bucket is the bucket name (required).
	Bucket string

	// AccessKey is the access key id (required).
	AccessKey string

	// SecretKey is the secret access key (required).
	SecretKey string

	// Endpoint is a custom S3 endpoint URL (optional, for MinIO or
	// other S3-compatible services).
	Endpoint string

	// Region is the AWS region (default: us-east-1).
	Region string

	// PublicURL is a CDN or public URL prefix (optional). If set,
	// object URLs use this prefix instead of the S3 URL.
	PublicURL string

	// PathStyle enables path-style URLs (required for MinIO).
	PathStyle bool
}

// DefaultRegion is used when Config.Region is empty.
const DefaultRegion = "us-east-1"

func (c *Config) applyDefaults() {
	if c.Region == "" {
		c.Region = DefaultRegion
	}
}

func (c *Config) validate() error {
	if c.Bucket == "" || c.AccessKey == "" || c.SecretKey == "" {
		return ErrInvalidConfig
	}
	return nil
}
