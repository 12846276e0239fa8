// Package registry implements the attestation registry and trust derivation
// state machine for autonomous agents.
//
// Four record kinds make up the registry state:
//
//   - ProtocolConfig: the singleton holding the admin identity, pause flag,
//     audit counters, and the revocation epoch.
//   - Authority: one record per registered verifier principal. Removal
//     deactivates but never deletes.
//   - AgentIdentity: the per-agent signal hub with derived trust fields.
//   - Attestation: one record per (agent, authority) pair.
//
// Records live at deterministic addresses derived from seed tags and
// principal keys (see the interfaces package), and every operation is an
// atomic state transition: preconditions are validated in full before any
// write, so a failed operation leaves no partial state.
//
// Trust score and infrastructure classification are never updated on
// submission or revocation. They change only through RefreshSignals, a
// permissionless stateless recomputation over the agent's live attestation
// set, which keeps the derived fields correct under arbitrary interleavings
// of submit and revoke. Staleness between refreshes is expected; callers
// observe the per-agent nonce to detect it.
//
// Expiry is lazy: an attestation past its expiry timestamp is excluded from
// derivation and from the live-collision check on resubmission, but the
// record is never removed.
package registry
