package registry

import (
	"fmt"

	"github.com/attestia/agent-trust-registry/interfaces"
)

// Initialize creates the protocol config singleton. It fails with
// ErrAlreadyInitialized on a second call; there is no re-initialization path.
func (r *Registry) Initialize(admin interfaces.Pubkey) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.config != nil {
		return interfaces.ErrAlreadyInitialized
	}
	if admin.IsZero() {
		return fmt.Errorf("%w: zero admin key", interfaces.ErrUnauthorized)
	}

	r.config = &interfaces.ProtocolConfig{Admin: admin}
	r.log.Info("protocol initialized", "admin", admin.String())
	return nil
}

// SetPaused sets the global pause flag. Admin only, and deliberately exempt
// from the pause check so a paused protocol can be resumed.
func (r *Registry) SetPaused(signer interfaces.Pubkey, paused bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cfg, err := r.requireAdmin(signer)
	if err != nil {
		return err
	}

	cfg.Paused = paused
	r.log.Info("protocol pause flag updated", "paused", paused)
	return nil
}

// TransferAdmin hands the admin role to newAdmin, effective immediately.
// Exempt from the pause check so a paused protocol is never left without a
// reachable admin.
func (r *Registry) TransferAdmin(signer, newAdmin interfaces.Pubkey) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cfg, err := r.requireAdmin(signer)
	if err != nil {
		return err
	}
	if newAdmin.IsZero() {
		return fmt.Errorf("%w: zero admin key", interfaces.ErrUnauthorized)
	}

	cfg.Admin = newAdmin
	r.log.Info("admin transferred", "newAdmin", newAdmin.String())
	return nil
}

// AdvanceRevocationEpoch increments the global revocation nonce and returns
// the new value. Admin only. The epoch is an escape hatch for mass
// invalidation layered above the registry, so it stays available while the
// protocol is paused.
func (r *Registry) AdvanceRevocationEpoch(signer interfaces.Pubkey) (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cfg, err := r.requireAdmin(signer)
	if err != nil {
		return 0, err
	}

	cfg.RevocationNonce++
	r.log.Info("revocation epoch advanced", "epoch", cfg.RevocationNonce)
	return cfg.RevocationNonce, nil
}

// AddAuthority registers a verifier principal. A pubkey gets exactly one
// authority record, ever: re-adding a removed authority fails with
// ErrAlreadyExists, so a removed verifier must re-enter under a new key.
func (r *Registry) AddAuthority(signer, authority interfaces.Pubkey, authorityType interfaces.AuthorityType) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cfg, err := r.requireAdmin(signer)
	if err != nil {
		return err
	}
	if cfg.Paused {
		return interfaces.ErrProtocolPaused
	}
	if authority.IsZero() {
		return fmt.Errorf("%w: zero authority key", interfaces.ErrUnauthorized)
	}

	addr := interfaces.AuthorityAddress(authority)
	if _, ok := r.authorities[addr]; ok {
		return fmt.Errorf("authority %s: %w", authority, interfaces.ErrAlreadyExists)
	}

	r.authorities[addr] = &interfaces.Authority{
		Pubkey:        authority,
		AuthorityType: authorityType,
		Active:        true,
		AddedBy:       signer,
		AddedAt:       r.now(),
	}
	r.log.Info("authority added", "authority", authority.String(), "type", authorityType.String())
	return nil
}

// RemoveAuthority deactivates an authority. The record persists for the
// audit trail and its historical attestations remain valid until they are
// individually revoked or expire.
func (r *Registry) RemoveAuthority(signer, authority interfaces.Pubkey) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cfg, err := r.requireAdmin(signer)
	if err != nil {
		return err
	}
	if cfg.Paused {
		return interfaces.ErrProtocolPaused
	}

	auth, ok := r.authorities[interfaces.AuthorityAddress(authority)]
	if !ok {
		return fmt.Errorf("authority %s: %w", authority, interfaces.ErrNotFound)
	}

	auth.Active = false
	r.log.Info("authority removed", "authority", authority.String())
	return nil
}
