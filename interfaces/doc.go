// Package interfaces defines the shared contract of the agent trust registry.
//
// The registry maintains verifiable trust signals for autonomous software
// agents. Independent authorities submit attestations about an agent's
// infrastructure, economic stake, and hardware binding; a derived trust score
// and infrastructure classification are recomputed permissionlessly from the
// set of currently valid attestations.
//
// # Record Addressing
//
// Four record kinds make up the registry state, each located at a
// deterministic address derived from a fixed seed tag and the relevant
// principal key(s):
//
//	ProtocolConfig  DeriveAddress(SeedProtocolConfig)
//	Authority       DeriveAddress(SeedAuthority, authority)
//	AgentIdentity   DeriveAddress(SeedAgentIdentity, wallet)
//	Attestation     DeriveAddress(SeedAttestation, agent, authority)
//
// The attestation keying means an authority holds at most one live
// attestation per agent at a time.
//
// # Interfaces
//
// TrustRegistry is the operation surface of the registry state machine.
// StorageBackend and StorageBackendFactory describe the content-addressed
// evidence store that attestation hashes and flag reason hashes commit to;
// the registry core never reads evidence, only the 32-byte commitments.
//
// # Errors
//
// All registry failures are typed sentinels (ErrUnauthorized,
// ErrProtocolPaused, ErrAlreadyExists, ...) suitable for errors.Is checks
// and HTTP status mapping.
package interfaces
