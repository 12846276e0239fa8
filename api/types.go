// Package api defines the HTTP request and response types shared between the
// registry server and its clients, plus the server configuration.
package api

import (
	"time"

	"github.com/attestia/agent-trust-registry/interfaces"
)

// SignerHeader carries the hex-encoded public key the caller acts as. The
// server treats it as the transaction signer for authorization checks.
const SignerHeader = "X-Trust-Signer"

// InitializeRequest bootstraps the protocol configuration.
type InitializeRequest struct {
	Admin interfaces.Pubkey `json:"admin"`
}

// SetPausedRequest toggles the protocol-wide pause switch.
type SetPausedRequest struct {
	Paused bool `json:"paused"`
}

// TransferAdminRequest hands protocol administration to a new key.
type TransferAdminRequest struct {
	NewAdmin interfaces.Pubkey `json:"new_admin"`
}

// AddAuthorityRequest registers a new attestation authority.
type AddAuthorityRequest struct {
	Pubkey        interfaces.Pubkey        `json:"pubkey"`
	AuthorityType interfaces.AuthorityType `json:"authority_type"`
}

// RegisterAgentRequest creates an agent identity record.
type RegisterAgentRequest struct {
	Wallet interfaces.Pubkey `json:"wallet"`
	Name   string            `json:"name"`
}

// SubmitAttestationRequest records an attestation signed by an authority.
// The signer header identifies the attesting authority.
type SubmitAttestationRequest struct {
	Agent     interfaces.Pubkey          `json:"agent"`
	Signal    interfaces.SignalType      `json:"signal"`
	Hash      interfaces.AttestationHash `json:"hash"`
	ExpiresAt time.Time                  `json:"expires_at"`
	TEEQuote  []byte                     `json:"tee_quote,omitempty"`
}

// FlagAgentRequest marks an agent as suspicious. The reason is an opaque
// commitment, typically the evidence ID of a stored flag report.
type FlagAgentRequest struct {
	Reason interfaces.AttestationHash `json:"reason"`
}

// EpochResponse reports the revocation epoch after an advance.
type EpochResponse struct {
	Epoch uint64 `json:"epoch"`
}

// EvidenceResponse reports the content-derived ID of stored evidence.
type EvidenceResponse struct {
	EvidenceID string `json:"evidence_id"`
}

// StatusResponse is the generic acknowledgement body for mutations that
// return no record.
type StatusResponse struct {
	Status string `json:"status"`
}

// ErrorResponse is the body returned for failed requests.
type ErrorResponse struct {
	Error string `json:"error"`
}
