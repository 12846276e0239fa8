// Package interfaces defines the core types and component interfaces for the
// agent trust registry. It provides the contract between the registry state
// machine, the signal derivation engine, the evidence store, and the HTTP
// surface without implementation details.
package interfaces

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
)

// Pubkey identifies a principal: the protocol admin, a registered authority,
// or an agent wallet. It is a 20-byte account address.
type Pubkey [20]byte

// NewPubkeyFromBytes creates a pubkey from a raw 20-byte slice.
func NewPubkeyFromBytes(b []byte) (Pubkey, error) {
	if len(b) != 20 {
		return Pubkey{}, errors.New("invalid pubkey length: must be 20 bytes")
	}

	var pk Pubkey
	copy(pk[:], b)
	return pk, nil
}

// NewPubkeyFromHex creates a pubkey from a hex string, with or without a 0x prefix.
func NewPubkeyFromHex(s string) (Pubkey, error) {
	clean := strings.TrimPrefix(s, "0x")
	if len(clean) != 40 {
		return Pubkey{}, errors.New("invalid pubkey length: hex string must be 40 characters")
	}

	b, err := hex.DecodeString(clean)
	if err != nil {
		return Pubkey{}, fmt.Errorf("invalid hex format: %w", err)
	}

	return NewPubkeyFromBytes(b)
}

// String returns the hex representation of the pubkey.
func (pk Pubkey) String() string {
	return hex.EncodeToString(pk[:])
}

// Bytes returns the raw 20-byte key.
func (pk Pubkey) Bytes() []byte {
	return pk[:]
}

// Equal compares two pubkeys.
func (pk Pubkey) Equal(other Pubkey) bool {
	return pk == other
}

// IsZero reports whether the pubkey is the all-zero key.
func (pk Pubkey) IsZero() bool {
	return pk == Pubkey{}
}

// MarshalJSON encodes the pubkey as a hex string.
func (pk Pubkey) MarshalJSON() ([]byte, error) {
	return json.Marshal(pk.String())
}

// UnmarshalJSON decodes the pubkey from a hex string.
func (pk *Pubkey) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	parsed, err := NewPubkeyFromHex(s)
	if err != nil {
		return err
	}
	*pk = parsed
	return nil
}

// RecordAddress locates a registry record. Every record kind lives at a
// deterministic address derived from a fixed seed tag and the principal
// key(s) that identify it, hashed with Keccak-256.
type RecordAddress [32]byte

// Seed tags for record address derivation. One tag per record kind; the
// composite attestation key hashes both principals.
const (
	SeedProtocolConfig = "trust:protocol-config"
	SeedAuthority      = "trust:authority"
	SeedAgentIdentity  = "trust:agent-identity"
	SeedAttestation    = "trust:attestation"
)

// DeriveAddress computes the record address for a seed tag and key sequence.
func DeriveAddress(tag string, keys ...Pubkey) RecordAddress {
	parts := make([][]byte, 0, len(keys)+1)
	parts = append(parts, []byte(tag))
	for _, k := range keys {
		parts = append(parts, k.Bytes())
	}
	return RecordAddress(crypto.Keccak256Hash(parts...))
}

// ConfigAddress returns the singleton protocol config address.
func ConfigAddress() RecordAddress {
	return DeriveAddress(SeedProtocolConfig)
}

// AuthorityAddress returns the record address for an authority pubkey.
func AuthorityAddress(authority Pubkey) RecordAddress {
	return DeriveAddress(SeedAuthority, authority)
}

// AgentAddress returns the record address for an agent wallet.
func AgentAddress(wallet Pubkey) RecordAddress {
	return DeriveAddress(SeedAgentIdentity, wallet)
}

// AttestationAddress returns the record address for an (agent, authority) pair.
func AttestationAddress(agent, authority Pubkey) RecordAddress {
	return DeriveAddress(SeedAttestation, agent, authority)
}

// String returns the hex representation of the record address.
func (a RecordAddress) String() string {
	return hex.EncodeToString(a[:])
}

// AttestationHash is a fixed-size opaque commitment to off-chain evidence.
// The registry never inspects its contents, only its presence.
type AttestationHash [32]byte

// NewAttestationHashFromBytes creates an attestation hash from a raw 32-byte slice.
func NewAttestationHashFromBytes(b []byte) (AttestationHash, error) {
	if len(b) != 32 {
		return AttestationHash{}, errors.New("invalid attestation hash length: must be 32 bytes")
	}

	var h AttestationHash
	copy(h[:], b)
	return h, nil
}

// NewAttestationHashFromHex creates an attestation hash from a hex string.
func NewAttestationHashFromHex(s string) (AttestationHash, error) {
	clean := strings.TrimPrefix(s, "0x")
	if len(clean) != 64 {
		return AttestationHash{}, errors.New("invalid attestation hash length: hex string must be 64 characters")
	}

	b, err := hex.DecodeString(clean)
	if err != nil {
		return AttestationHash{}, fmt.Errorf("invalid hex format: %w", err)
	}

	return NewAttestationHashFromBytes(b)
}

// String returns the hex representation of the hash.
func (h AttestationHash) String() string {
	return hex.EncodeToString(h[:])
}

// Bytes returns the raw 32-byte hash.
func (h AttestationHash) Bytes() []byte {
	return h[:]
}

// IsZero reports whether the hash is all zeros. A zero hash is rejected on
// submission since it commits to nothing.
func (h AttestationHash) IsZero() bool {
	return bytes.Equal(h[:], make([]byte, 32))
}

// MarshalJSON encodes the hash as a hex string.
func (h AttestationHash) MarshalJSON() ([]byte, error) {
	return json.Marshal(h.String())
}

// UnmarshalJSON decodes the hash from a hex string.
func (h *AttestationHash) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	parsed, err := NewAttestationHashFromHex(s)
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}
