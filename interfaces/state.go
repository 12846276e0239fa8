package interfaces

import (
	"time"
)

// ProtocolConfig is the singleton global state: admin identity, pause flag,
// audit counters, and the revocation epoch. Counters are monotonic; they are
// never decremented on revocation or removal.
type ProtocolConfig struct {
	Admin             Pubkey `json:"admin"`
	Paused            bool   `json:"paused"`
	TotalAgents       uint64 `json:"total_agents"`
	TotalAttestations uint64 `json:"total_attestations"`

	// RevocationNonce is the global invalidation epoch. It is advanced only
	// by admin action and recorded on new attestations; it does not
	// participate in the live-set predicate.
	RevocationNonce uint64 `json:"revocation_nonce"`
}

// Authority is one registered verifier principal. Removal deactivates the
// record but never deletes it; historical attestations stay attributable.
type Authority struct {
	Pubkey        Pubkey        `json:"pubkey"`
	AuthorityType AuthorityType `json:"authority_type"`
	Active        bool          `json:"active"`

	// AttestationCount counts attestations ever submitted by this authority.
	AttestationCount uint64 `json:"attestation_count"`

	AddedBy Pubkey    `json:"added_by"`
	AddedAt time.Time `json:"added_at"`
}

// AgentIdentity is the per-agent signal hub. TrustScore, InfraType and the
// Has* booleans are derived: they are recomputed only by a signal refresh and
// are always explainable as a pure function of the agent's live attestation
// set at the time of the last refresh.
type AgentIdentity struct {
	Wallet Pubkey `json:"wallet"`
	Name   string `json:"name"`

	InfraType          InfraType `json:"infra_type"`
	HasEconomicStake   bool      `json:"has_economic_stake"`
	HasHardwareBinding bool      `json:"has_hardware_binding"`

	// AttestationCount is informational: it is incremented on submission and
	// corrected to the live-set size on refresh, so it may include expired or
	// revoked attestations between refreshes.
	AttestationCount uint64 `json:"attestation_count"`

	// IsFlagged is a manual circuit-breaker set by any active authority and
	// cleared only by the admin. It persists across refreshes.
	IsFlagged  bool            `json:"is_flagged"`
	FlagReason AttestationHash `json:"flag_reason"`

	TrustScore   uint8     `json:"trust_score"`
	LastVerified time.Time `json:"last_verified"`

	// Nonce increments on every identity mutation. Callers that read, then
	// act across multiple operations can assert the nonce they observed is
	// still current.
	Nonce uint64 `json:"nonce"`

	RegisteredAt time.Time `json:"registered_at"`
}

// Attestation is a single authority's typed claim about one agent. There is
// at most one record per (agent, authority) pair; a new submission replaces
// the record only once the prior one is revoked or expired.
type Attestation struct {
	Agent     Pubkey `json:"agent"`
	Authority Pubkey `json:"authority"`

	// AuthorityType is a snapshot taken at submission time. Later changes to
	// the authority record do not retroactively alter historical attestations.
	AuthorityType AuthorityType `json:"authority_type"`

	Signal SignalType      `json:"signal"`
	Hash   AttestationHash `json:"hash"`

	// TEEQuote is an opaque payload present only for infra-tee attestations.
	TEEQuote []byte `json:"tee_quote,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`

	Revoked   bool      `json:"revoked"`
	RevokedAt time.Time `json:"revoked_at,omitzero"`

	// Epoch is the protocol revocation nonce at submission time, recorded
	// for audit.
	Epoch uint64 `json:"epoch"`
}

// Live reports whether the attestation counts toward signal derivation:
// not revoked and not past its expiry at the given instant. Expiry is
// evaluated lazily; there is no background sweep.
func (a *Attestation) Live(now time.Time) bool {
	return !a.Revoked && now.Before(a.ExpiresAt)
}
