package storage

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/attestia/agent-trust-registry/interfaces"
)

// FileBackend stores evidence on the local file system, organized by
// evidence type.
type FileBackend struct {
	baseDir     string
	prefixes    map[interfaces.EvidenceType]string
	log         *slog.Logger
	locationURI string
}

// NewFileBackend creates a file storage backend rooted at baseDir, creating
// the per-type subdirectories if needed.
func NewFileBackend(baseDir string, log *slog.Logger) (*FileBackend, error) {
	prefixes := map[interfaces.EvidenceType]string{
		interfaces.AttestationEvidence: "attestations",
		interfaces.FlagReportEvidence:  "flag-reports",
	}

	for _, subdir := range prefixes {
		if err := os.MkdirAll(filepath.Join(baseDir, subdir), 0755); err != nil {
			return nil, fmt.Errorf("failed to create %s directory: %w", subdir, err)
		}
	}

	return &FileBackend{
		baseDir:     baseDir,
		prefixes:    prefixes,
		log:         log,
		locationURI: fmt.Sprintf("file://%s", baseDir),
	}, nil
}

// Fetch retrieves evidence by ID and type. Returns ErrEvidenceNotFound if no
// file exists for the ID.
func (b *FileBackend) Fetch(ctx context.Context, id interfaces.EvidenceID, evidenceType interfaces.EvidenceType) ([]byte, error) {
	filePath := b.filePath(id, evidenceType)

	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return nil, interfaces.ErrEvidenceNotFound
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read evidence file: %w", err)
	}

	b.log.Debug("Fetched evidence from file",
		slog.String("path", filePath),
		slog.Int("size", len(data)))

	return data, nil
}

// Store saves evidence and returns its content-derived ID.
func (b *FileBackend) Store(ctx context.Context, data []byte, evidenceType interfaces.EvidenceType) (interfaces.EvidenceID, error) {
	id := interfaces.ComputeEvidenceID(data)
	filePath := b.filePath(id, evidenceType)

	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return id, fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return id, fmt.Errorf("failed to write evidence file: %w", err)
	}

	b.log.Debug("Stored evidence in file",
		slog.String("path", filePath),
		slog.String("evidenceID", id.String()))

	return id, nil
}

// Available checks the base directory exists.
func (b *FileBackend) Available(ctx context.Context) bool {
	if _, err := os.Stat(b.baseDir); err != nil {
		b.log.Debug("File backend unavailable", "err", err)
		return false
	}
	return true
}

// Name returns a unique identifier for this storage backend.
func (b *FileBackend) Name() string {
	return fmt.Sprintf("file-%s", filepath.Base(b.baseDir))
}

// LocationURI returns the URI that identifies this storage backend.
func (b *FileBackend) LocationURI() string {
	return b.locationURI
}

func (b *FileBackend) filePath(id interfaces.EvidenceID, evidenceType interfaces.EvidenceType) string {
	return filepath.Join(b.baseDir, b.prefixes[evidenceType], id.String())
}
