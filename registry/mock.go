package registry

import (
	"github.com/stretchr/testify/mock"

	"github.com/attestia/agent-trust-registry/interfaces"
)

// MockRegistry mocks the interfaces.TrustRegistry interface for handler and
// client tests.
type MockRegistry struct {
	mock.Mock
}

// Initialize mocks the Initialize method
func (m *MockRegistry) Initialize(admin interfaces.Pubkey) error {
	args := m.Called(admin)
	return args.Error(0)
}

// SetPaused mocks the SetPaused method
func (m *MockRegistry) SetPaused(signer interfaces.Pubkey, paused bool) error {
	args := m.Called(signer, paused)
	return args.Error(0)
}

// TransferAdmin mocks the TransferAdmin method
func (m *MockRegistry) TransferAdmin(signer, newAdmin interfaces.Pubkey) error {
	args := m.Called(signer, newAdmin)
	return args.Error(0)
}

// AdvanceRevocationEpoch mocks the AdvanceRevocationEpoch method
func (m *MockRegistry) AdvanceRevocationEpoch(signer interfaces.Pubkey) (uint64, error) {
	args := m.Called(signer)
	return args.Get(0).(uint64), args.Error(1)
}

// AddAuthority mocks the AddAuthority method
func (m *MockRegistry) AddAuthority(signer, authority interfaces.Pubkey, authorityType interfaces.AuthorityType) error {
	args := m.Called(signer, authority, authorityType)
	return args.Error(0)
}

// RemoveAuthority mocks the RemoveAuthority method
func (m *MockRegistry) RemoveAuthority(signer, authority interfaces.Pubkey) error {
	args := m.Called(signer, authority)
	return args.Error(0)
}

// RegisterAgent mocks the RegisterAgent method
func (m *MockRegistry) RegisterAgent(wallet interfaces.Pubkey, name string) error {
	args := m.Called(wallet, name)
	return args.Error(0)
}

// SubmitAttestation mocks the SubmitAttestation method
func (m *MockRegistry) SubmitAttestation(signer interfaces.Pubkey, sub interfaces.AttestationSubmission) error {
	args := m.Called(signer, sub)
	return args.Error(0)
}

// RevokeAttestation mocks the RevokeAttestation method
func (m *MockRegistry) RevokeAttestation(signer, agent interfaces.Pubkey) error {
	args := m.Called(signer, agent)
	return args.Error(0)
}

// RefreshSignals mocks the RefreshSignals method
func (m *MockRegistry) RefreshSignals(agent interfaces.Pubkey) (*interfaces.AgentIdentity, error) {
	args := m.Called(agent)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*interfaces.AgentIdentity), args.Error(1)
}

// FlagAgent mocks the FlagAgent method
func (m *MockRegistry) FlagAgent(signer, agent interfaces.Pubkey, reason interfaces.AttestationHash) error {
	args := m.Called(signer, agent, reason)
	return args.Error(0)
}

// UnflagAgent mocks the UnflagAgent method
func (m *MockRegistry) UnflagAgent(signer, agent interfaces.Pubkey) error {
	args := m.Called(signer, agent)
	return args.Error(0)
}

// Config mocks the Config method
func (m *MockRegistry) Config() (*interfaces.ProtocolConfig, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*interfaces.ProtocolConfig), args.Error(1)
}

// Authority mocks the Authority method
func (m *MockRegistry) Authority(pubkey interfaces.Pubkey) (*interfaces.Authority, error) {
	args := m.Called(pubkey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*interfaces.Authority), args.Error(1)
}

// Agent mocks the Agent method
func (m *MockRegistry) Agent(wallet interfaces.Pubkey) (*interfaces.AgentIdentity, error) {
	args := m.Called(wallet)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*interfaces.AgentIdentity), args.Error(1)
}

// Attestation mocks the Attestation method
func (m *MockRegistry) Attestation(agent, authority interfaces.Pubkey) (*interfaces.Attestation, error) {
	args := m.Called(agent, authority)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*interfaces.Attestation), args.Error(1)
}

// AgentAttestations mocks the AgentAttestations method
func (m *MockRegistry) AgentAttestations(agent interfaces.Pubkey) ([]*interfaces.Attestation, error) {
	args := m.Called(agent)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*interfaces.Attestation), args.Error(1)
}
