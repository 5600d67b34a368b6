package archive

import (
	"context"
	"io"
)

// BlobStorage is the capability set the archive service needs from an
// object store. Get returns (nil, nil) when the key does not exist; callers
// decide whether absence is an error.
type BlobStorage interface {
	Put(ctx context.Context, key string, payload io.Reader) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	PresignedURL(ctx context.Context, key string) (string, error)
}
