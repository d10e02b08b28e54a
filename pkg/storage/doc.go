// Package storage provides S3-compatible object storage for hotel media.
//
// The Storage interface covers the three operations the upload pipeline
// needs: streaming Put, Delete, and public URL construction. The S3
// implementation works against AWS S3 or any S3-compatible endpoint
// (MinIO, DigitalOcean Spaces) via Config.Endpoint and PathStyle.
//
// Object keys are generated as {prefix}/{uuid}.{ext} with the extension
// derived from the detected content type. Validation rules (MaxSize,
// NotEmpty, ImageOnly) operate on declared file metadata so callers can
// reject files before any bytes are sent to the provider.
package storage
