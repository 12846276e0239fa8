package interfaces

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// EvidenceID is the 32-byte SHA-256 hash uniquely identifying a piece of
// off-chain evidence. Attestation hashes and flag reason hashes commit to
// content stored under these identifiers.
type EvidenceID [32]byte

// NewEvidenceIDFromBytes creates an evidence ID from a raw 32-byte slice.
func NewEvidenceIDFromBytes(source []byte) (EvidenceID, error) {
	if len(source) != 32 {
		return EvidenceID{}, errors.New("invalid EvidenceID conversion from bytes: incorrect length")
	}

	var hash [32]byte
	copy(hash[:], source)
	return EvidenceID(hash), nil
}

// NewEvidenceIDFromHex creates an evidence ID from a hex string.
func NewEvidenceIDFromHex(source string) (EvidenceID, error) {
	clean := strings.TrimPrefix(source, "0x")
	if len(clean) != 64 {
		return EvidenceID{}, errors.New("invalid evidence ID length: hex string must be 64 characters")
	}

	hashBytes, err := hex.DecodeString(clean)
	if err != nil {
		return EvidenceID{}, fmt.Errorf("invalid hex format: %w", err)
	}

	var hash [32]byte
	copy(hash[:], hashBytes)
	return EvidenceID(hash), nil
}

// ComputeEvidenceID calculates the evidence ID for a blob.
func ComputeEvidenceID(data []byte) EvidenceID {
	hash := sha256.Sum256(data)
	return EvidenceID(hash)
}

// String returns hex representation.
func (id EvidenceID) String() string {
	return hex.EncodeToString(id[:])
}

// Bytes returns raw 32-byte hash.
func (id EvidenceID) Bytes() []byte {
	return id[:]
}

// Equal compares two evidence IDs.
func (id EvidenceID) Equal(other EvidenceID) bool {
	return bytes.Equal(id[:], other[:])
}

// EvidenceType indicates the storage namespace for an evidence blob.
type EvidenceType int

const (
	// AttestationEvidence is the material an attestation hash commits to.
	AttestationEvidence EvidenceType = iota

	// FlagReportEvidence is the material a flag reason hash commits to.
	FlagReportEvidence
)

// String returns type name.
func (et EvidenceType) String() string {
	switch et {
	case AttestationEvidence:
		return "attestation"
	case FlagReportEvidence:
		return "flag-report"
	default:
		return "unknown"
	}
}

// StorageBackendLocation is the URI of an evidence storage backend.
type StorageBackendLocation string

// NewStorageBackendLocation validates a backend URI string.
func NewStorageBackendLocation(uri string) (StorageBackendLocation, error) {
	parsed, err := url.Parse(uri)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidLocationURI, err)
	}

	switch parsed.Scheme {
	case "file", "s3", "ipfs", "vault":
	default:
		return "", fmt.Errorf("%w: unsupported scheme %s", ErrInvalidLocationURI, parsed.Scheme)
	}

	return StorageBackendLocation(uri), nil
}

// String returns the URI string.
func (loc StorageBackendLocation) String() string {
	return string(loc)
}

// StorageBackend stores and retrieves content-addressed evidence blobs.
type StorageBackend interface {
	// Fetch retrieves evidence by ID and type.
	Fetch(ctx context.Context, id EvidenceID, evidenceType EvidenceType) ([]byte, error)

	// Store saves evidence and returns its ID.
	Store(ctx context.Context, data []byte, evidenceType EvidenceType) (EvidenceID, error)

	// Available checks if backend is accessible.
	Available(ctx context.Context) bool

	// Name returns identifier for logging.
	Name() string

	// LocationURI returns URI identifying this backend.
	LocationURI() string
}

// StorageBackendFactory creates evidence storage backends.
type StorageBackendFactory interface {
	// StorageBackendFor creates backend from URI.
	// Supports file://, s3://, ipfs://, vault://
	StorageBackendFor(locationURI StorageBackendLocation) (StorageBackend, error)

	// CreateMultiBackend creates aggregated storage backend.
	CreateMultiBackend(locationURIs []StorageBackendLocation) (StorageBackend, error)
}
