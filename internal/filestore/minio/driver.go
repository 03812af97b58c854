// Package minio reads SQLite database files out of a MinIO or S3 bucket.
//
//	d, err := minio.New(ctx, cfg.FilestoreConfig())
//	...
//	adapter := sqlite.New(sqlite.WithResolver(filestore.NewCache(d, cacheDir)))
package minio

import (
	"context"
	"io"

	miniogo "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/koustreak/sqlgate/internal/errs"
	"github.com/koustreak/sqlgate/internal/filestore"
)

// Driver implements filestore.Store on the MinIO SDK. Safe for concurrent use.
type Driver struct {
	client *miniogo.Client
}

var _ filestore.Store = (*Driver)(nil)

// New builds a client for cfg and pings the server before returning.
func New(ctx context.Context, cfg *filestore.Config) (*Driver, error) {
	d, err := newDriver(cfg)
	if err != nil {
		return nil, err
	}
	if err := d.Ping(ctx); err != nil {
		return nil, err
	}
	return d, nil
}

func newDriver(cfg *filestore.Config) (*Driver, error) {
	client, err := miniogo.New(cfg.Endpoint, &miniogo.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindConnectionFailed, "object store client for "+cfg.Endpoint, err)
	}
	return &Driver{client: client}, nil
}

// Ping lists buckets; credentials are checked as a side effect.
func (d *Driver) Ping(ctx context.Context) error {
	if _, err := d.client.ListBuckets(ctx); err != nil {
		return mapError(err, "object store unreachable")
	}
	return nil
}

// Close is a no-op.
func (d *Driver) Close() error {
	return nil
}

// GetObject opens the database file for download.
func (d *Driver) GetObject(ctx context.Context, bucket, key string) (filestore.Object, error) {
	obj, err := d.client.GetObject(ctx, bucket, key, miniogo.GetObjectOptions{})
	if err != nil {
		return nil, mapError(err, "fetch "+ref(bucket, key))
	}

	// the SDK defers the request until first use
	stat, err := obj.Stat()
	if err != nil {
		_ = obj.Close()
		return nil, mapError(err, "fetch "+ref(bucket, key))
	}

	return &object{ReadCloser: obj, info: toInfo(stat)}, nil
}

// StatObject returns the size and ETag the cache compares against.
func (d *Driver) StatObject(ctx context.Context, bucket, key string) (*filestore.ObjectInfo, error) {
	stat, err := d.client.StatObject(ctx, bucket, key, miniogo.StatObjectOptions{})
	if err != nil {
		return nil, mapError(err, "stat "+ref(bucket, key))
	}
	return toInfo(stat), nil
}

func toInfo(stat miniogo.ObjectInfo) *filestore.ObjectInfo {
	return &filestore.ObjectInfo{
		Key:  stat.Key,
		Size: stat.Size,
		ETag: stat.ETag,
	}
}

type object struct {
	io.ReadCloser
	info *filestore.ObjectInfo
}

func (o *object) Info() *filestore.ObjectInfo {
	return o.info
}
