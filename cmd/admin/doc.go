// Package main (cmd/admin) implements the administration client for the
// agent trust registry.
//
// The admin client drives the protocol-level operations over the registry
// HTTP API: initialization, pausing, admin transfer, authority management and
// the revocation epoch. Every command acts as the key given with --signer;
// the server enforces that the key matches the stored protocol admin.
//
// Commands:
//
//	initialize       - Bootstrap the protocol with an admin key
//	pause            - Pause all mutating operations
//	unpause          - Resume mutating operations
//	transfer-admin   - Hand administration to a new key
//	add-authority    - Register an attestation authority
//	remove-authority - Deactivate an authority (permanent for the pubkey)
//	advance-epoch    - Increment the global revocation epoch
//	unflag-agent     - Clear the manual flag on an agent
package main
