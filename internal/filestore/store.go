// Package filestore makes SQLite database files kept in object storage
// openable by the sqlite adapter. Cache maps an s3://bucket/key identifier
// to a local copy, downloading it only when the remote ETag or size changed.
package filestore

import "context"

// Store is what Cache needs from an object storage backend.
type Store interface {
	Ping(ctx context.Context) error
	Close() error

	// StatObject must not transfer the object body.
	StatObject(ctx context.Context, bucket, key string) (*ObjectInfo, error)
	GetObject(ctx context.Context, bucket, key string) (Object, error)
}
