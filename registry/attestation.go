package registry

import (
	"fmt"

	"github.com/attestia/agent-trust-registry/interfaces"
)

// SubmitAttestation records a claim by the signing authority about an agent.
//
// While a live attestation for the (agent, authority) pair exists the
// submission fails with ErrAttestationAlreadyExists: an authority must
// revoke before resubmitting, so an active claim is never silently
// overwritten. An expired or revoked record is replaced in place under the
// same composite key.
//
// Submission does not touch the agent's derived fields; those update on the
// next refresh. This keeps submission cheap when attestations arrive in a
// burst.
func (r *Registry) SubmitAttestation(signer interfaces.Pubkey, sub interfaces.AttestationSubmission) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cfg, err := r.requireUnpaused()
	if err != nil {
		return err
	}
	authority, err := r.requireActiveAuthority(signer)
	if err != nil {
		return err
	}

	identity, ok := r.agents[interfaces.AgentAddress(sub.Agent)]
	if !ok {
		return fmt.Errorf("agent %s: %w", sub.Agent, interfaces.ErrNotFound)
	}

	now := r.now()
	if err := r.validateSubmission(sub, now); err != nil {
		return err
	}

	addr := interfaces.AttestationAddress(sub.Agent, signer)
	prior, replacing := r.attestations[addr]
	if replacing && prior.Live(now) {
		return fmt.Errorf("attestation (%s, %s): %w", sub.Agent, signer, interfaces.ErrAttestationAlreadyExists)
	}

	r.attestations[addr] = &interfaces.Attestation{
		Agent:         sub.Agent,
		Authority:     signer,
		AuthorityType: authority.AuthorityType,
		Signal:        sub.Signal,
		Hash:          sub.Hash,
		TEEQuote:      append([]byte(nil), sub.TEEQuote...),
		CreatedAt:     now,
		ExpiresAt:     sub.ExpiresAt,
		Epoch:         cfg.RevocationNonce,
	}
	if !replacing {
		r.agentIndex[sub.Agent] = append(r.agentIndex[sub.Agent], signer)
	}

	authority.AttestationCount++
	cfg.TotalAttestations++
	identity.AttestationCount++
	identity.Nonce++

	r.log.Info("attestation submitted",
		"agent", sub.Agent.String(),
		"authority", signer.String(),
		"signal", sub.Signal.String(),
		"expiresAt", sub.ExpiresAt)
	return nil
}

// RevokeAttestation flips the revoked flag on the signer's attestation for
// the agent. Only the submitting authority may revoke its own record; no
// third party, the admin included, can censor another authority's claim.
// Revocation takes effect on the agent's derived fields at the next refresh.
func (r *Registry) RevokeAttestation(signer, agent interfaces.Pubkey) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.requireUnpaused(); err != nil {
		return err
	}

	att, ok := r.attestations[interfaces.AttestationAddress(agent, signer)]
	if !ok {
		return fmt.Errorf("attestation (%s, %s): %w", agent, signer, interfaces.ErrNotFound)
	}
	if !att.Authority.Equal(signer) {
		return fmt.Errorf("%w: not the submitting authority", interfaces.ErrUnauthorized)
	}
	if att.Revoked {
		return fmt.Errorf("attestation (%s, %s): %w", agent, signer, interfaces.ErrAlreadyRevoked)
	}

	att.Revoked = true
	att.RevokedAt = r.now()

	r.log.Info("attestation revoked", "agent", agent.String(), "authority", signer.String())
	return nil
}
