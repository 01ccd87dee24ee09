package storage

import "context"

// Store persists blobs under a key and serves them from a public URL
type Store interface {
	Save(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}

var (
	_ Store = (*LocalStore)(nil)
	_ Store = (*S3Store)(nil)
)
