package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	shell "github.com/ipfs/go-ipfs-api"

	"github.com/attestia/agent-trust-registry/interfaces"
)

// IPFSBackend stores evidence on an IPFS node. Evidence IDs are SHA-256
// hashes of the content while IPFS addresses by CID, so the backend keeps a
// local index from evidence ID to the CID returned on store.
type IPFSBackend struct {
	shell       *shell.Shell
	host        string
	port        string
	log         *slog.Logger
	locationURI string

	mu   sync.RWMutex
	cids map[interfaces.EvidenceID]string
}

// NewIPFSBackend creates an IPFS evidence backend connected to the node API
// at host:port.
func NewIPFSBackend(host, port string, log *slog.Logger) (*IPFSBackend, error) {
	apiURL := fmt.Sprintf("%s:%s", host, port)

	return &IPFSBackend{
		shell:       shell.NewShell(apiURL),
		host:        host,
		port:        port,
		log:         log,
		locationURI: fmt.Sprintf("ipfs://%s/", apiURL),
		cids:        make(map[interfaces.EvidenceID]string),
	}, nil
}

// Fetch retrieves evidence by ID. Returns ErrEvidenceNotFound when the ID
// was never stored through this backend, ErrBackendUnavailable when the node
// is unreachable.
func (b *IPFSBackend) Fetch(ctx context.Context, id interfaces.EvidenceID, evidenceType interfaces.EvidenceType) ([]byte, error) {
	if !b.shell.IsUp() {
		b.log.Warn("IPFS node unavailable",
			slog.String("host", b.host),
			slog.String("port", b.port))
		return nil, interfaces.ErrBackendUnavailable
	}

	b.mu.RLock()
	cid, ok := b.cids[id]
	b.mu.RUnlock()
	if !ok {
		return nil, interfaces.ErrEvidenceNotFound
	}

	reader, err := b.shell.Cat(cid)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch evidence from IPFS: %w", err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read evidence from IPFS: %w", err)
	}

	b.log.Debug("Fetched evidence from IPFS",
		slog.String("cid", cid),
		slog.String("evidenceID", id.String()),
		slog.Int("size", len(data)))

	return data, nil
}

// Store adds evidence to IPFS, pins it, and returns its content-derived ID.
func (b *IPFSBackend) Store(ctx context.Context, data []byte, evidenceType interfaces.EvidenceType) (interfaces.EvidenceID, error) {
	id := interfaces.ComputeEvidenceID(data)

	if !b.shell.IsUp() {
		return id, interfaces.ErrBackendUnavailable
	}

	cid, err := b.shell.Add(bytes.NewReader(data), shell.Pin(true))
	if err != nil {
		return id, fmt.Errorf("failed to add evidence to IPFS: %w", err)
	}

	b.mu.Lock()
	b.cids[id] = cid
	b.mu.Unlock()

	b.log.Debug("Stored evidence in IPFS",
		slog.String("cid", cid),
		slog.String("evidenceID", id.String()),
		slog.String("evidenceType", evidenceType.String()))

	return id, nil
}

// Available checks if the IPFS node is accessible.
func (b *IPFSBackend) Available(ctx context.Context) bool {
	return b.shell.IsUp()
}

// Name returns a unique identifier for this storage backend.
func (b *IPFSBackend) Name() string {
	return fmt.Sprintf("ipfs-%s-%s", b.host, b.port)
}

// LocationURI returns the URI that identifies this storage backend.
func (b *IPFSBackend) LocationURI() string {
	return b.locationURI
}
