package registry

import (
	"fmt"
	"unicode/utf8"

	"github.com/attestia/agent-trust-registry/interfaces"
)

// RegisterAgent creates the identity record for the signing wallet with all
// derived fields at their unverified defaults. One identity per wallet,
// forever.
func (r *Registry) RegisterAgent(wallet interfaces.Pubkey, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cfg, err := r.requireUnpaused()
	if err != nil {
		return err
	}
	if wallet.IsZero() {
		return fmt.Errorf("%w: zero wallet key", interfaces.ErrUnauthorized)
	}
	if err := r.validateName(name); err != nil {
		return err
	}

	addr := interfaces.AgentAddress(wallet)
	if _, ok := r.agents[addr]; ok {
		return fmt.Errorf("agent %s: %w", wallet, interfaces.ErrAlreadyExists)
	}

	r.agents[addr] = &interfaces.AgentIdentity{
		Wallet:       wallet,
		Name:         name,
		InfraType:    interfaces.InfraUnknown,
		RegisteredAt: r.now(),
	}
	cfg.TotalAgents++

	r.log.Info("agent registered", "wallet", wallet.String(), "name", name)
	return nil
}

func (r *Registry) validateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", interfaces.ErrInvalidName)
	}
	if len(name) > r.params.MaxNameLength {
		return fmt.Errorf("%w: name exceeds %d bytes", interfaces.ErrInvalidName, r.params.MaxNameLength)
	}
	if !utf8.ValidString(name) {
		return fmt.Errorf("%w: name is not valid UTF-8", interfaces.ErrInvalidName)
	}
	return nil
}

// FlagAgent raises the manual flag on an agent. Any active authority may
// flag any agent, with or without a live attestation on it: flagging is the
// cheap half of the circuit breaker. The reason is stored only as an opaque
// commitment.
func (r *Registry) FlagAgent(signer, agent interfaces.Pubkey, reason interfaces.AttestationHash) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.requireUnpaused(); err != nil {
		return err
	}
	if _, err := r.requireActiveAuthority(signer); err != nil {
		return err
	}

	identity, ok := r.agents[interfaces.AgentAddress(agent)]
	if !ok {
		return fmt.Errorf("agent %s: %w", agent, interfaces.ErrNotFound)
	}

	identity.IsFlagged = true
	identity.FlagReason = reason
	identity.Nonce++

	r.log.Info("agent flagged", "agent", agent.String(), "authority", signer.String(), "reason", reason.String())
	return nil
}

// UnflagAgent clears the flag. Admin only: clearing requires centralized
// judgment while raising the flag is open to every active authority.
func (r *Registry) UnflagAgent(signer, agent interfaces.Pubkey) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cfg, err := r.requireAdmin(signer)
	if err != nil {
		return err
	}
	if cfg.Paused {
		return interfaces.ErrProtocolPaused
	}

	identity, ok := r.agents[interfaces.AgentAddress(agent)]
	if !ok {
		return fmt.Errorf("agent %s: %w", agent, interfaces.ErrNotFound)
	}

	identity.IsFlagged = false
	identity.FlagReason = interfaces.AttestationHash{}
	identity.Nonce++

	r.log.Info("agent unflagged", "agent", agent.String())
	return nil
}

// RefreshSignals recomputes the agent's derived fields from its current live
// attestation set. The operation is permissionless and idempotent: with no
// intervening attestation changes a second refresh derives the same signals,
// advancing only the verification timestamp and nonce. An agent with zero
// live attestations resets to the unverified baseline rather than erroring.
func (r *Registry) RefreshSignals(agent interfaces.Pubkey) (*interfaces.AgentIdentity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.requireUnpaused(); err != nil {
		return nil, err
	}

	identity, ok := r.agents[interfaces.AgentAddress(agent)]
	if !ok {
		return nil, fmt.Errorf("agent %s: %w", agent, interfaces.ErrNotFound)
	}

	now := r.now()
	summary := r.engine.Derive(r.attestationsFor(agent), now)

	identity.InfraType = summary.InfraType
	identity.HasEconomicStake = summary.HasEconomicStake
	identity.HasHardwareBinding = summary.HasHardwareBinding
	identity.TrustScore = summary.TrustScore
	identity.AttestationCount = uint64(summary.LiveCount)
	identity.LastVerified = now
	identity.Nonce++

	r.log.Info("signals refreshed",
		"agent", agent.String(),
		"trustScore", identity.TrustScore,
		"infraType", identity.InfraType.String(),
		"liveAttestations", summary.LiveCount)

	out := *identity
	return &out, nil
}
