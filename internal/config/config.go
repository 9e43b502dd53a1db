// Package config holds the build-time constants that describe how the
// ingestion server is wired: listen port, body size cap, filesystem roots,
// TLS material, and the single-instance lock socket. The core never reads
// environment variables; only cmd/server may translate an operator-supplied
// flag into an Option before constructing the Config.
package config

const (
	// DefaultPort is the TCP port the listener binds when no override is given.
	DefaultPort = 8443

	// DefaultMaxUploadMiB is the default per-upload body size cap, in MiB.
	DefaultMaxUploadMiB = 200

	// DefaultStorageRoot and DefaultTempRoot must share a parent directory so
	// that promotion (storage.Layout.Promote) can rename files across them
	// atomically on a single filesystem.
	DefaultStorageRoot = "/var/lib/hls-ingest/storage"
	DefaultTempRoot    = "/var/lib/hls-ingest/tmp"

	// DefaultLockSocket is the well-known path for the single-instance guard.
	DefaultLockSocket = "/var/lib/hls-ingest/hls-ingest.lock"

	// DefaultCertFile and DefaultKeyFile are PEM paths for the TLS listener.
	DefaultCertFile = "/etc/hls-ingest/server.crt"
	DefaultKeyFile  = "/etc/hls-ingest/server.key"
)

// Config is the full set of constants a server instance is built from.
// The zero value is not useful; construct one with Default and Options.
type Config struct {
	Port           int
	MaxUploadBytes int64
	StorageRoot    string
	TempRoot       string
	LockSocketPath string
	CertFile       string
	KeyFile        string
}

// Option customizes a Config produced by Default. Used by cmd/server to
// bind operator-supplied paths, and by tests to point at temp directories.
type Option func(*Config)

// WithPort overrides the listen port.
func WithPort(port int) Option {
	return func(c *Config) { c.Port = port }
}

// WithMaxUploadMiB overrides the per-upload body size cap, expressed in MiB.
func WithMaxUploadMiB(mib int64) Option {
	return func(c *Config) { c.MaxUploadBytes = mib * 1024 * 1024 }
}

// WithRoots overrides the storage and temp roots. Callers must ensure both
// paths share a parent directory on the same filesystem.
func WithRoots(storageRoot, tempRoot string) Option {
	return func(c *Config) {
		c.StorageRoot = storageRoot
		c.TempRoot = tempRoot
	}
}

// WithLockSocketPath overrides the single-instance guard socket path.
func WithLockSocketPath(path string) Option {
	return func(c *Config) { c.LockSocketPath = path }
}

// WithTLSFiles overrides the certificate and private key PEM paths.
func WithTLSFiles(certFile, keyFile string) Option {
	return func(c *Config) {
		c.CertFile = certFile
		c.KeyFile = keyFile
	}
}

// Default returns the built-in Config, with any Options applied on top.
func Default(opts ...Option) *Config {
	c := &Config{
		Port:           DefaultPort,
		MaxUploadBytes: DefaultMaxUploadMiB * 1024 * 1024,
		StorageRoot:    DefaultStorageRoot,
		TempRoot:       DefaultTempRoot,
		LockSocketPath: DefaultLockSocket,
		CertFile:       DefaultCertFile,
		KeyFile:        DefaultKeyFile,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}
