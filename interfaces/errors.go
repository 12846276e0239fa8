package interfaces

import (
	"errors"
	"fmt"
)

// Registry error taxonomy. Every precondition violation fails the whole
// operation atomically; handlers map these sentinels to HTTP status codes.
var (
	// ErrUnauthorized is returned when the signer is not permitted to perform
	// a privileged operation.
	ErrUnauthorized = errors.New("unauthorized signer")

	// ErrProtocolPaused is returned for mutating operations while the
	// protocol pause flag is set. Reads are always permitted.
	ErrProtocolPaused = errors.New("protocol paused")

	// ErrAlreadyInitialized is returned when initialize is called twice.
	ErrAlreadyInitialized = errors.New("protocol already initialized")

	// ErrAlreadyExists is returned for duplicate agent or authority records.
	ErrAlreadyExists = errors.New("record already exists")

	// ErrAttestationAlreadyExists is returned when a live attestation already
	// exists for an (agent, authority) pair. The authority must revoke before
	// resubmitting.
	ErrAttestationAlreadyExists = fmt.Errorf("live attestation %w", ErrAlreadyExists)

	// ErrNotFound is returned for missing record references, including
	// operations attempted before the protocol is initialized.
	ErrNotFound = errors.New("record not found")

	// ErrAlreadyRevoked is returned when revoking an attestation twice.
	ErrAlreadyRevoked = errors.New("attestation already revoked")

	// ErrInvalidSignalPayload is returned for a zero attestation hash, a TEE
	// quote attached to a non-TEE signal, or a malformed TEE quote.
	ErrInvalidSignalPayload = errors.New("invalid signal payload")

	// ErrInvalidName is returned for an empty or over-long agent name.
	ErrInvalidName = errors.New("invalid agent name")

	// ErrExpired is returned when acting on a validity window that has
	// already lapsed, such as submitting an attestation expiring in the past.
	ErrExpired = errors.New("validity window expired")
)

// ErrEvidenceNotFound is returned when requested evidence cannot be found in
// any storage backend.
var ErrEvidenceNotFound = errors.New("evidence not found")

// ErrInvalidLocationURI is returned for malformed storage backend URIs.
var ErrInvalidLocationURI = errors.New("invalid storage location URI")

// ErrBackendUnavailable is returned when a storage backend cannot be reached.
var ErrBackendUnavailable = errors.New("storage backend unavailable")
