package storage

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/attestia/agent-trust-registry/interfaces"
)

// MultiStorageBackend combines several evidence backends. Store writes to
// every backend and succeeds if at least one write goes through; Fetch
// returns the first hit.
type MultiStorageBackend struct {
	backends []interfaces.StorageBackend
	log      *slog.Logger
}

// NewMultiStorageBackend creates a multi-storage backend from the provided
// backends. At least one backend is required.
func NewMultiStorageBackend(backends []interfaces.StorageBackend, log *slog.Logger) (*MultiStorageBackend, error) {
	if len(backends) == 0 {
		return nil, fmt.Errorf("no storage backends provided")
	}
	return &MultiStorageBackend{backends: backends, log: log}, nil
}

// Fetch tries each backend in order and returns the first successful result.
func (m *MultiStorageBackend) Fetch(ctx context.Context, id interfaces.EvidenceID, evidenceType interfaces.EvidenceType) ([]byte, error) {
	var lastErr error
	for _, backend := range m.backends {
		data, err := backend.Fetch(ctx, id, evidenceType)
		if err == nil {
			return data, nil
		}
		lastErr = err
		m.log.Debug("Backend fetch miss",
			slog.String("backend", backend.Name()),
			slog.String("evidenceID", id.String()),
			"err", err)
	}
	return nil, fmt.Errorf("all backends failed to fetch evidence %s: %w", id.String(), lastErr)
}

// Store writes to all backends. The returned ID is content-derived so every
// successful backend agrees on it.
func (m *MultiStorageBackend) Store(ctx context.Context, data []byte, evidenceType interfaces.EvidenceType) (interfaces.EvidenceID, error) {
	id := interfaces.ComputeEvidenceID(data)

	var stored int
	var errs []string
	for _, backend := range m.backends {
		if _, err := backend.Store(ctx, data, evidenceType); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", backend.Name(), err))
			m.log.Warn("Backend store failed",
				slog.String("backend", backend.Name()),
				"err", err)
			continue
		}
		stored++
	}

	if stored == 0 {
		return id, fmt.Errorf("all backends failed to store evidence: %s", strings.Join(errs, "; "))
	}
	return id, nil
}

// Available reports true if any underlying backend is available.
func (m *MultiStorageBackend) Available(ctx context.Context) bool {
	for _, backend := range m.backends {
		if backend.Available(ctx) {
			return true
		}
	}
	return false
}

// Name returns a unique identifier for this storage backend.
func (m *MultiStorageBackend) Name() string {
	names := make([]string, 0, len(m.backends))
	for _, backend := range m.backends {
		names = append(names, backend.Name())
	}
	return fmt.Sprintf("multi[%s]", strings.Join(names, ","))
}

// LocationURI returns a comma-separated list of the underlying URIs.
func (m *MultiStorageBackend) LocationURI() string {
	uris := make([]string, 0, len(m.backends))
	for _, backend := range m.backends {
		uris = append(uris, backend.LocationURI())
	}
	return strings.Join(uris, ",")
}

// Backends exposes the underlying backends, used by operational handlers to
// report per-backend availability.
func (m *MultiStorageBackend) Backends() []interfaces.StorageBackend {
	return m.backends
}
