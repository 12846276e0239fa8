package interfaces

import (
	"time"
)

// AttestationSubmission carries the caller-supplied fields of a new
// attestation. The authority identity comes from the signer, the remaining
// record fields are filled in by the registry.
type AttestationSubmission struct {
	Agent     Pubkey          `json:"agent"`
	Signal    SignalType      `json:"signal"`
	Hash      AttestationHash `json:"hash"`
	ExpiresAt time.Time       `json:"expires_at"`
	TEEQuote  []byte          `json:"tee_quote,omitempty"`
}

// TrustRegistry is the full operation surface of the attestation registry
// and trust derivation engine. Every mutating operation is a single atomic
// state transition: it either fully applies or fails with one of the
// sentinel errors in this package, leaving no partial writes.
type TrustRegistry interface {
	// Initialize creates the protocol config singleton with the given admin.
	// Fails with ErrAlreadyInitialized on a second call.
	Initialize(admin Pubkey) error

	// SetPaused sets the global pause flag. Admin only. While paused, every
	// mutating operation except SetPaused and TransferAdmin fails with
	// ErrProtocolPaused.
	SetPaused(signer Pubkey, paused bool) error

	// TransferAdmin hands the admin role to newAdmin, effective immediately.
	// Admin only.
	TransferAdmin(signer, newAdmin Pubkey) error

	// AdvanceRevocationEpoch increments the global revocation nonce and
	// returns the new value. Admin only.
	AdvanceRevocationEpoch(signer Pubkey) (uint64, error)

	// AddAuthority registers a verifier principal. Admin only. Fails with
	// ErrAlreadyExists if the pubkey already has a record, including a
	// deactivated one: removal is terminal for a pubkey.
	AddAuthority(signer, authority Pubkey, authorityType AuthorityType) error

	// RemoveAuthority deactivates an authority. Admin only. The record
	// persists for audit; historical attestations remain valid until
	// individually revoked or expired.
	RemoveAuthority(signer, authority Pubkey) error

	// RegisterAgent creates the identity record for the signing wallet.
	RegisterAgent(wallet Pubkey, name string) error

	// SubmitAttestation records a claim by the signing authority about an
	// agent. Fails with ErrAttestationAlreadyExists while a live attestation
	// for the pair exists; an expired or revoked record is replaced in place.
	// Derived fields are not updated until the next refresh.
	SubmitAttestation(signer Pubkey, sub AttestationSubmission) error

	// RevokeAttestation flips the revoked flag on the signer's attestation
	// for the agent. Only the original authority may revoke its own record.
	RevokeAttestation(signer, agent Pubkey) error

	// RefreshSignals recomputes the agent's derived fields from its current
	// live attestation set. Permissionless: no signer is required. Returns
	// the refreshed identity.
	RefreshSignals(agent Pubkey) (*AgentIdentity, error)

	// FlagAgent raises the manual flag on an agent with an opaque reason
	// commitment. Any active authority may flag any agent.
	FlagAgent(signer, agent Pubkey, reason AttestationHash) error

	// UnflagAgent clears the flag. Admin only.
	UnflagAgent(signer, agent Pubkey) error

	// Config returns the protocol config singleton.
	Config() (*ProtocolConfig, error)

	// Authority returns the authority record for a pubkey.
	Authority(pubkey Pubkey) (*Authority, error)

	// Agent returns the identity record for an agent wallet.
	Agent(wallet Pubkey) (*AgentIdentity, error)

	// Attestation returns the record for an (agent, authority) pair.
	Attestation(agent, authority Pubkey) (*Attestation, error)

	// AgentAttestations returns all attestation records for an agent,
	// including revoked and expired ones.
	AgentAttestations(agent Pubkey) ([]*Attestation, error)
}
