package registry

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/attestia/agent-trust-registry/cryptoutils"
	"github.com/attestia/agent-trust-registry/interfaces"
	"github.com/attestia/agent-trust-registry/signal"
)

// DefaultMaxNameLength bounds agent names unless overridden per deployment.
const DefaultMaxNameLength = 64

// Params are the deployment-tunable knobs of the registry.
type Params struct {
	// MaxNameLength bounds agent names in bytes. Zero selects the default.
	MaxNameLength int

	// ValidateTEEQuotes requires infra-tee submissions to carry a
	// structurally valid TDX quote. Off by default: the quote payload is
	// opaque to the registry unless a deployment opts in.
	ValidateTEEQuotes bool
}

// Registry is the attestation registry and trust derivation state machine.
// It implements interfaces.TrustRegistry over an in-memory account ledger.
//
// Every operation is a single atomic state transition: preconditions are
// checked in full before any record is written, and the internal mutex
// serializes transitions the way the ledger's transaction ordering would.
// Concurrent callers racing on the same agent are sequenced; whichever
// lands second sees the first's writes.
type Registry struct {
	mu sync.Mutex

	config       *interfaces.ProtocolConfig
	authorities  map[interfaces.RecordAddress]*interfaces.Authority
	agents       map[interfaces.RecordAddress]*interfaces.AgentIdentity
	attestations map[interfaces.RecordAddress]*interfaces.Attestation

	// agentIndex maps an agent wallet to the authorities holding an
	// attestation record for it, so refresh can scan one agent's records
	// without walking the whole store.
	agentIndex map[interfaces.Pubkey][]interfaces.Pubkey

	engine *signal.Engine
	params Params
	log    *slog.Logger

	// now is the ledger clock, injectable for tests.
	now func() time.Time
}

// Option configures a Registry.
type Option func(*Registry)

// WithParams overrides the deployment parameters.
func WithParams(params Params) Option {
	return func(r *Registry) {
		r.params = params
	}
}

// WithClock overrides the ledger clock.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		r.now = now
	}
}

// New creates a registry with the given derivation engine and logger.
func New(engine *signal.Engine, log *slog.Logger, opts ...Option) *Registry {
	r := &Registry{
		authorities:  make(map[interfaces.RecordAddress]*interfaces.Authority),
		agents:       make(map[interfaces.RecordAddress]*interfaces.AgentIdentity),
		attestations: make(map[interfaces.RecordAddress]*interfaces.Attestation),
		agentIndex:   make(map[interfaces.Pubkey][]interfaces.Pubkey),
		engine:       engine,
		log:          log,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.params.MaxNameLength == 0 {
		r.params.MaxNameLength = DefaultMaxNameLength
	}
	return r
}

// loadConfig returns the config singleton or ErrNotFound before initialize.
// Callers must hold the mutex.
func (r *Registry) loadConfig() (*interfaces.ProtocolConfig, error) {
	if r.config == nil {
		return nil, fmt.Errorf("protocol config: %w", interfaces.ErrNotFound)
	}
	return r.config, nil
}

// requireUnpaused fails mutating operations while the pause flag is set.
// Callers must hold the mutex.
func (r *Registry) requireUnpaused() (*interfaces.ProtocolConfig, error) {
	cfg, err := r.loadConfig()
	if err != nil {
		return nil, err
	}
	if cfg.Paused {
		return nil, interfaces.ErrProtocolPaused
	}
	return cfg, nil
}

// requireAdmin checks the signer against the stored admin.
// Callers must hold the mutex.
func (r *Registry) requireAdmin(signer interfaces.Pubkey) (*interfaces.ProtocolConfig, error) {
	cfg, err := r.loadConfig()
	if err != nil {
		return nil, err
	}
	if !cfg.Admin.Equal(signer) {
		return nil, fmt.Errorf("%w: not the protocol admin", interfaces.ErrUnauthorized)
	}
	return cfg, nil
}

// requireActiveAuthority loads the signer's authority record and checks it
// is active. Callers must hold the mutex.
func (r *Registry) requireActiveAuthority(signer interfaces.Pubkey) (*interfaces.Authority, error) {
	auth, ok := r.authorities[interfaces.AuthorityAddress(signer)]
	if !ok {
		return nil, fmt.Errorf("%w: signer is not a registered authority", interfaces.ErrUnauthorized)
	}
	if !auth.Active {
		return nil, fmt.Errorf("%w: authority is deactivated", interfaces.ErrUnauthorized)
	}
	return auth, nil
}

// validateSubmission checks the caller-supplied attestation fields. The
// quote payload stays opaque unless quote validation is enabled.
func (r *Registry) validateSubmission(sub interfaces.AttestationSubmission, now time.Time) error {
	if !sub.ExpiresAt.After(now) {
		return fmt.Errorf("%w: attestation expires at %s", interfaces.ErrExpired, sub.ExpiresAt.Format(time.RFC3339))
	}
	if sub.Hash.IsZero() {
		return fmt.Errorf("%w: zero attestation hash", interfaces.ErrInvalidSignalPayload)
	}

	if sub.Signal != interfaces.SignalInfraTEE {
		if len(sub.TEEQuote) > 0 {
			return fmt.Errorf("%w: tee quote attached to %s signal", interfaces.ErrInvalidSignalPayload, sub.Signal)
		}
		return nil
	}

	if r.params.ValidateTEEQuotes {
		if err := cryptoutils.ValidateTDXQuote(sub.TEEQuote); err != nil {
			return fmt.Errorf("%w: %v", interfaces.ErrInvalidSignalPayload, err)
		}
	}
	return nil
}

// Config returns a copy of the protocol config singleton. Reads never check
// the pause flag.
func (r *Registry) Config() (*interfaces.ProtocolConfig, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cfg, err := r.loadConfig()
	if err != nil {
		return nil, err
	}
	out := *cfg
	return &out, nil
}

// Authority returns a copy of the authority record for a pubkey.
func (r *Registry) Authority(pubkey interfaces.Pubkey) (*interfaces.Authority, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	auth, ok := r.authorities[interfaces.AuthorityAddress(pubkey)]
	if !ok {
		return nil, fmt.Errorf("authority %s: %w", pubkey, interfaces.ErrNotFound)
	}
	out := *auth
	return &out, nil
}

// Agent returns a copy of the identity record for an agent wallet.
func (r *Registry) Agent(wallet interfaces.Pubkey) (*interfaces.AgentIdentity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	agent, ok := r.agents[interfaces.AgentAddress(wallet)]
	if !ok {
		return nil, fmt.Errorf("agent %s: %w", wallet, interfaces.ErrNotFound)
	}
	out := *agent
	return &out, nil
}

// Attestation returns a copy of the record for an (agent, authority) pair.
func (r *Registry) Attestation(agent, authority interfaces.Pubkey) (*interfaces.Attestation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	att, ok := r.attestations[interfaces.AttestationAddress(agent, authority)]
	if !ok {
		return nil, fmt.Errorf("attestation (%s, %s): %w", agent, authority, interfaces.ErrNotFound)
	}
	out := cloneAttestation(att)
	return &out, nil
}

// AgentAttestations returns copies of all attestation records for an agent,
// including revoked and expired ones.
func (r *Registry) AgentAttestations(agent interfaces.Pubkey) ([]*interfaces.Attestation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.agents[interfaces.AgentAddress(agent)]; !ok {
		return nil, fmt.Errorf("agent %s: %w", agent, interfaces.ErrNotFound)
	}

	records := make([]*interfaces.Attestation, 0, len(r.agentIndex[agent]))
	for _, authority := range r.agentIndex[agent] {
		if att, ok := r.attestations[interfaces.AttestationAddress(agent, authority)]; ok {
			out := cloneAttestation(att)
			records = append(records, &out)
		}
	}
	return records, nil
}

// attestationsFor collects the stored records for one agent without copying.
// Callers must hold the mutex and must not retain the slice elements.
func (r *Registry) attestationsFor(agent interfaces.Pubkey) []*interfaces.Attestation {
	records := make([]*interfaces.Attestation, 0, len(r.agentIndex[agent]))
	for _, authority := range r.agentIndex[agent] {
		if att, ok := r.attestations[interfaces.AttestationAddress(agent, authority)]; ok {
			records = append(records, att)
		}
	}
	return records
}

func cloneAttestation(att *interfaces.Attestation) interfaces.Attestation {
	out := *att
	if att.TEEQuote != nil {
		out.TEEQuote = append([]byte(nil), att.TEEQuote...)
	}
	return out
}

var _ interfaces.TrustRegistry = (*Registry)(nil)
