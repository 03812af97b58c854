package filestore

import "io"

// ObjectInfo is the metadata Cache compares against its sidecar file to
// decide whether a local copy is still current.
type ObjectInfo struct {
	Key  string
	Size int64
	ETag string
}

// Object is an open download. Close it after reading.
type Object interface {
	io.ReadCloser
	Info() *ObjectInfo
}
