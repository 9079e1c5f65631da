package storage

import (
	"context"
	"io"
	"time"
)

// FileStorage stores generated report artifacts.
type FileStorage interface {
	// Upload writes the object and returns its key
	Upload(ctx context.Context, body io.Reader, size int64, key string, contentType string) (string, error)

	Download(ctx context.Context, key string) (io.ReadCloser, error)

	Delete(ctx context.Context, key string) error

	// GetURL returns a public or presigned URL valid for expiry
	GetURL(ctx context.Context, key string, expiry time.Duration) (string, error)

	Exists(ctx context.Context, key string) (bool, error)
}

const ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
