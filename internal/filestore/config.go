package filestore

// Config holds the settings for the object store that hosts SQLite files
// referenced as s3://bucket/key.
type Config struct {
	// Endpoint is the host:port of the storage server, e.g. "localhost:9000".
	// Empty disables object-store resolution.
	Endpoint string

	AccessKey string
	SecretKey string

	// UseSSL controls whether TLS is used for the connection.
	UseSSL bool

	// Region is used by region-aware backends (AWS S3). Leave empty for MinIO.
	Region string

	// CacheDir is where downloaded files are kept between sessions.
	CacheDir string
}

// Enabled reports whether an endpoint is configured.
func (c *Config) Enabled() bool {
	return c != nil && c.Endpoint != ""
}
