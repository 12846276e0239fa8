package storage

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/attestia/agent-trust-registry/interfaces"
)

// Factory creates evidence storage backends from location URIs.
//
// Supported URI schemes:
//
//	file:///var/lib/registry/evidence
//	s3://bucket/prefix?region=us-east-1&access_key=AK&secret_key=SK
//	ipfs://127.0.0.1:5001
//	vault://vault.example.com:8200/secret/evidence?token=TOKEN&tls=true
type Factory struct {
	log *slog.Logger
}

// NewStorageBackendFactory creates a factory with the given logger.
func NewStorageBackendFactory(log *slog.Logger) *Factory {
	return &Factory{log: log}
}

// StorageBackendFor creates a single backend for the given location URI.
func (f *Factory) StorageBackendFor(location interfaces.StorageBackendLocation) (interfaces.StorageBackend, error) {
	uri := string(location)
	parsed, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", interfaces.ErrInvalidLocationURI, err)
	}

	switch parsed.Scheme {
	case "file":
		return f.createFileBackend(parsed)
	case "s3":
		return f.createS3Backend(parsed)
	case "ipfs":
		return f.createIPFSBackend(parsed)
	case "vault":
		return f.createVaultBackend(parsed)
	default:
		return nil, fmt.Errorf("%w: unsupported scheme %q", interfaces.ErrInvalidLocationURI, parsed.Scheme)
	}
}

// CreateMultiBackend creates a multi-storage backend from a list of location
// URIs. URIs that fail to parse abort the whole construction so that a typo
// in the configuration does not silently drop a replica.
func (f *Factory) CreateMultiBackend(locations []interfaces.StorageBackendLocation) (interfaces.StorageBackend, error) {
	backends := make([]interfaces.StorageBackend, 0, len(locations))
	for _, location := range locations {
		backend, err := f.StorageBackendFor(location)
		if err != nil {
			return nil, fmt.Errorf("failed to create backend for %s: %w", location, err)
		}
		backends = append(backends, backend)
	}
	return NewMultiStorageBackend(backends, f.log)
}

func (f *Factory) createFileBackend(parsed *url.URL) (interfaces.StorageBackend, error) {
	path := parsed.Path
	if parsed.Host != "" {
		// file://relative/path parses the first segment as host.
		path = parsed.Host + parsed.Path
	}
	if path == "" {
		return nil, fmt.Errorf("%w: file URI requires a path", interfaces.ErrInvalidLocationURI)
	}
	return NewFileBackend(path, f.log)
}

func (f *Factory) createS3Backend(parsed *url.URL) (interfaces.StorageBackend, error) {
	bucket := parsed.Host
	if bucket == "" {
		return nil, fmt.Errorf("%w: s3 URI requires a bucket", interfaces.ErrInvalidLocationURI)
	}
	query := parsed.Query()
	region := query.Get("region")
	if region == "" {
		region = "us-east-1"
	}
	prefix := strings.Trim(parsed.Path, "/")

	return NewS3Backend(bucket, prefix, region,
		query.Get("endpoint"), query.Get("access_key"), query.Get("secret_key"), f.log)
}

func (f *Factory) createIPFSBackend(parsed *url.URL) (interfaces.StorageBackend, error) {
	if parsed.Hostname() == "" {
		return nil, fmt.Errorf("%w: ipfs URI requires an API host", interfaces.ErrInvalidLocationURI)
	}
	port := parsed.Port()
	if port == "" {
		port = "5001"
	}
	return NewIPFSBackend(parsed.Hostname(), port, f.log)
}

func (f *Factory) createVaultBackend(parsed *url.URL) (interfaces.StorageBackend, error) {
	if parsed.Host == "" {
		return nil, fmt.Errorf("%w: vault URI requires a server address", interfaces.ErrInvalidLocationURI)
	}

	segments := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	if len(segments) < 2 {
		return nil, fmt.Errorf("%w: vault URI requires /<mount>/<path>", interfaces.ErrInvalidLocationURI)
	}
	mountPath := segments[0]
	dataPath := strings.Join(segments[1:], "/")

	query := parsed.Query()
	scheme := "http"
	if query.Get("tls") == "true" {
		scheme = "https"
	}
	address := fmt.Sprintf("%s://%s", scheme, parsed.Host)

	return NewVaultBackend(address, mountPath, dataPath, query.Get("token"), f.log)
}
