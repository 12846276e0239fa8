// Package main (cmd/registry_client) implements a client for the agent
// trust registry API.
//
// The client covers the day-to-day operations of agents and authorities:
// registering agent identities, submitting and revoking attestations,
// refreshing derived trust signals, flagging agents and uploading evidence
// blobs. Mutating commands act as the key given with --signer; reads need no
// signer.
//
// Commands:
//
//	register-agent  - Create an agent identity record
//	submit          - Submit an attestation as the signing authority
//	revoke          - Revoke the signing authority's attestation for an agent
//	refresh         - Recompute an agent's derived trust signals
//	flag            - Flag an agent as suspicious
//	agent           - Show an agent identity record
//	attestations    - List all attestation records for an agent
//	config          - Show the protocol configuration
//	store-evidence  - Upload an evidence blob and print its ID
package main
