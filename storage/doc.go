// Package storage provides content-addressed evidence storage for the trust
// registry. Raw attestation material and flag reports are stored off-chain
// under their SHA-256 digest (interfaces.EvidenceID), so any backend holding
// a blob can serve it and replicas never disagree on identity.
//
// Backends implement interfaces.StorageBackend:
//
//   - FileBackend stores evidence on the local filesystem
//   - S3Backend stores evidence in an S3-compatible object store
//   - IPFSBackend pins evidence to an IPFS node
//   - VaultBackend stores evidence in a HashiCorp Vault KV v2 mount
//   - MultiStorageBackend replicates across several of the above
//
// The Factory builds backends from location URIs so deployments pick their
// replication set through configuration alone.
package storage
