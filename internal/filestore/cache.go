package filestore

import (
	"context"
	"encoding/json"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/koustreak/sqlgate/internal/errs"
)

// Scheme is the URL scheme of object-store references.
const Scheme = "s3"

// ParseRef splits "s3://bucket/key" into bucket and key.
func ParseRef(ref string) (bucket, key string, err error) {
	u, err := url.Parse(ref)
	if err != nil {
		return "", "", errs.Wrap(errs.ErrKindInvalidInput, "invalid object reference "+ref, err)
	}
	if u.Scheme != Scheme {
		return "", "", errs.Newf(errs.ErrKindInvalidInput, "unsupported scheme %q in %s", u.Scheme, ref)
	}
	key = strings.TrimPrefix(u.Path, "/")
	if u.Host == "" || key == "" {
		return "", "", errs.New(errs.ErrKindInvalidInput, "object reference needs a bucket and a key: "+ref)
	}
	// bucket and key become cache path segments
	if !filepath.IsLocal(u.Host) || !filepath.IsLocal(filepath.FromSlash(key)) {
		return "", "", errs.New(errs.ErrKindInvalidInput, "object reference escapes the cache directory: "+ref)
	}
	return u.Host, key, nil
}

// Cache downloads referenced objects into a local directory and hands back
// their paths. A cached copy is reused while its ETag still matches.
type Cache struct {
	store Store
	dir   string
	mu    sync.Mutex
}

// NewCache returns a Cache storing files under dir.
func NewCache(store Store, dir string) *Cache {
	return &Cache{store: store, dir: dir}
}

type cacheMeta struct {
	ETag string `json:"etag"`
	Size int64  `json:"size"`
}

// Resolve implements the SQLite adapter's resolver: it returns a local path
// holding the current content of ref.
func (c *Cache) Resolve(ctx context.Context, ref string) (string, error) {
	bucket, key, err := ParseRef(ref)
	if err != nil {
		return "", err
	}

	info, err := c.store.StatObject(ctx, bucket, key)
	if err != nil {
		return "", err
	}

	local, err := c.localPath(bucket, key)
	if err != nil {
		return "", err
	}
	metaPath := local + ".meta"

	c.mu.Lock()
	defer c.mu.Unlock()

	if fresh(local, metaPath, info) {
		return local, nil
	}

	if err := os.MkdirAll(filepath.Dir(local), 0o755); err != nil {
		return "", errs.Wrap(errs.ErrKindConnectionFailed, "failed to create cache dir", err)
	}
	if err := c.download(ctx, bucket, key, local); err != nil {
		return "", err
	}

	meta, _ := json.Marshal(cacheMeta{ETag: info.ETag, Size: info.Size})
	if err := os.WriteFile(metaPath, meta, 0o644); err != nil {
		return "", errs.Wrap(errs.ErrKindConnectionFailed, "failed to write cache metadata", err)
	}
	return local, nil
}

func (c *Cache) localPath(bucket, key string) (string, error) {
	local := filepath.Join(c.dir, bucket, filepath.FromSlash(key))
	rel, err := filepath.Rel(c.dir, local)
	if err != nil || !filepath.IsLocal(rel) {
		return "", errs.Newf(errs.ErrKindInvalidInput, "object %s/%s maps outside the cache directory", bucket, key)
	}
	return local, nil
}

func fresh(local, metaPath string, info *ObjectInfo) bool {
	if _, err := os.Stat(local); err != nil {
		return false
	}
	raw, err := os.ReadFile(metaPath)
	if err != nil {
		return false
	}
	var m cacheMeta
	if err := json.Unmarshal(raw, &m); err != nil {
		return false
	}
	return m.ETag == info.ETag && m.Size == info.Size
}

// download writes the object to a temp file beside local and renames it
// into place, so a failed transfer never leaves a truncated database.
func (c *Cache) download(ctx context.Context, bucket, key, local string) error {
	obj, err := c.store.GetObject(ctx, bucket, key)
	if err != nil {
		return err
	}
	defer obj.Close()

	tmp, err := os.CreateTemp(filepath.Dir(local), filepath.Base(local)+".*.part")
	if err != nil {
		return errs.Wrap(errs.ErrKindConnectionFailed, "failed to create cache file", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := io.Copy(tmp, obj); err != nil {
		_ = tmp.Close()
		return errs.Wrap(errs.ErrKindConnectionFailed, "failed to download "+bucket+"/"+key, err)
	}
	if err := tmp.Close(); err != nil {
		return errs.Wrap(errs.ErrKindConnectionFailed, "failed to write cache file", err)
	}
	if err := os.Rename(tmpName, local); err != nil {
		return errs.Wrap(errs.ErrKindConnectionFailed, "failed to move cache file into place", err)
	}
	return nil
}
