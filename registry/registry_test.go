package registry

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/attestia/agent-trust-registry/interfaces"
	"github.com/attestia/agent-trust-registry/signal"
)

var (
	admin      = pk(0xAA)
	authorityA = pk(0x01)
	authorityB = pk(0x02)
	authorityC = pk(0x03)
	agentBot1  = pk(0x10)
)

func pk(b byte) interfaces.Pubkey {
	var key interfaces.Pubkey
	key[0] = b
	return key
}

func hash(b byte) interfaces.AttestationHash {
	var h interfaces.AttestationHash
	h[0] = b
	return h
}

// testClock is a mutable ledger clock shared with the registry under test.
type testClock struct {
	now time.Time
}

func (c *testClock) advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func newTestRegistry(t *testing.T, opts ...Option) (*Registry, *testClock) {
	t.Helper()

	clock := &testClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	engine, err := signal.NewEngine(signal.DefaultWeights())
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	opts = append([]Option{WithClock(func() time.Time { return clock.now })}, opts...)
	return New(engine, logger, opts...), clock
}

// newInitializedRegistry sets up the common fixture: initialized protocol,
// two active authorities, one registered agent.
func newInitializedRegistry(t *testing.T) (*Registry, *testClock) {
	t.Helper()

	r, clock := newTestRegistry(t)
	require.NoError(t, r.Initialize(admin))
	require.NoError(t, r.AddAuthority(admin, authorityA, interfaces.AuthorityOracleOperator))
	require.NoError(t, r.AddAuthority(admin, authorityB, interfaces.AuthoritySingle))
	require.NoError(t, r.RegisterAgent(agentBot1, "bot-1"))
	return r, clock
}

func submission(agent interfaces.Pubkey, sig interfaces.SignalType, expires time.Time) interfaces.AttestationSubmission {
	return interfaces.AttestationSubmission{
		Agent:     agent,
		Signal:    sig,
		Hash:      hash(0x7F),
		ExpiresAt: expires,
	}
}

func TestInitialize(t *testing.T) {
	r, _ := newTestRegistry(t)

	// Operations before initialize fail with NotFound.
	err := r.RegisterAgent(agentBot1, "bot-1")
	assert.ErrorIs(t, err, interfaces.ErrNotFound)
	_, err = r.Config()
	assert.ErrorIs(t, err, interfaces.ErrNotFound)

	require.NoError(t, r.Initialize(admin))

	cfg, err := r.Config()
	require.NoError(t, err)
	assert.Equal(t, admin, cfg.Admin)
	assert.False(t, cfg.Paused)
	assert.Equal(t, uint64(0), cfg.TotalAgents)
	assert.Equal(t, uint64(0), cfg.TotalAttestations)
	assert.Equal(t, uint64(0), cfg.RevocationNonce)

	assert.ErrorIs(t, r.Initialize(admin), interfaces.ErrAlreadyInitialized)
}

func TestPauseSemantics(t *testing.T) {
	r, clock := newInitializedRegistry(t)

	assert.ErrorIs(t, r.SetPaused(authorityA, true), interfaces.ErrUnauthorized)
	require.NoError(t, r.SetPaused(admin, true))

	expires := clock.now.Add(30 * 24 * time.Hour)
	assert.ErrorIs(t, r.SubmitAttestation(authorityA, submission(agentBot1, interfaces.SignalInfraCloud, expires)), interfaces.ErrProtocolPaused)
	assert.ErrorIs(t, r.RegisterAgent(pk(0x11), "bot-2"), interfaces.ErrProtocolPaused)
	_, err := r.RefreshSignals(agentBot1)
	assert.ErrorIs(t, err, interfaces.ErrProtocolPaused)
	assert.ErrorIs(t, r.FlagAgent(authorityA, agentBot1, hash(1)), interfaces.ErrProtocolPaused)
	assert.ErrorIs(t, r.RevokeAttestation(authorityA, agentBot1), interfaces.ErrProtocolPaused)
	assert.ErrorIs(t, r.AddAuthority(admin, authorityC, interfaces.AuthoritySingle), interfaces.ErrProtocolPaused)
	assert.ErrorIs(t, r.UnflagAgent(admin, agentBot1), interfaces.ErrProtocolPaused)

	// Reads stay open while paused.
	_, err = r.Agent(agentBot1)
	assert.NoError(t, err)

	// Admin transfer stays possible while paused.
	require.NoError(t, r.TransferAdmin(admin, pk(0xBB)))
	require.NoError(t, r.SetPaused(pk(0xBB), false))

	require.NoError(t, r.RegisterAgent(pk(0x11), "bot-2"))
}

func TestTransferAdmin(t *testing.T) {
	r, _ := newInitializedRegistry(t)

	assert.ErrorIs(t, r.TransferAdmin(authorityA, authorityA), interfaces.ErrUnauthorized)
	assert.ErrorIs(t, r.TransferAdmin(admin, interfaces.Pubkey{}), interfaces.ErrUnauthorized)

	newAdmin := pk(0xBB)
	require.NoError(t, r.TransferAdmin(admin, newAdmin))

	// Effective immediately, no handshake.
	assert.ErrorIs(t, r.SetPaused(admin, true), interfaces.ErrUnauthorized)
	assert.NoError(t, r.SetPaused(newAdmin, true))
}

func TestAuthorityLifecycle(t *testing.T) {
	r, _ := newInitializedRegistry(t)

	auth, err := r.Authority(authorityA)
	require.NoError(t, err)
	assert.True(t, auth.Active)
	assert.Equal(t, interfaces.AuthorityOracleOperator, auth.AuthorityType)
	assert.Equal(t, admin, auth.AddedBy)

	assert.ErrorIs(t, r.AddAuthority(admin, authorityA, interfaces.AuthoritySingle), interfaces.ErrAlreadyExists)
	assert.ErrorIs(t, r.AddAuthority(authorityA, authorityC, interfaces.AuthoritySingle), interfaces.ErrUnauthorized)
	assert.ErrorIs(t, r.RemoveAuthority(admin, authorityC), interfaces.ErrNotFound)

	require.NoError(t, r.RemoveAuthority(admin, authorityA))
	auth, err = r.Authority(authorityA)
	require.NoError(t, err)
	assert.False(t, auth.Active)

	// Removal is terminal: the pubkey cannot re-enter.
	assert.ErrorIs(t, r.AddAuthority(admin, authorityA, interfaces.AuthoritySingle), interfaces.ErrAlreadyExists)
}

func TestRegisterAgent(t *testing.T) {
	r, clock := newInitializedRegistry(t)

	agent, err := r.Agent(agentBot1)
	require.NoError(t, err)
	assert.Equal(t, "bot-1", agent.Name)
	assert.Equal(t, interfaces.InfraUnknown, agent.InfraType)
	assert.Equal(t, uint8(0), agent.TrustScore)
	assert.Equal(t, uint64(0), agent.Nonce)
	assert.Equal(t, clock.now, agent.RegisteredAt)
	assert.False(t, agent.IsFlagged)

	assert.ErrorIs(t, r.RegisterAgent(agentBot1, "bot-1-again"), interfaces.ErrAlreadyExists)
	assert.ErrorIs(t, r.RegisterAgent(pk(0x12), ""), interfaces.ErrInvalidName)

	long := make([]byte, DefaultMaxNameLength+1)
	for i := range long {
		long[i] = 'a'
	}
	assert.ErrorIs(t, r.RegisterAgent(pk(0x12), string(long)), interfaces.ErrInvalidName)

	cfg, err := r.Config()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), cfg.TotalAgents)
}

func TestSubmitAttestationValidation(t *testing.T) {
	r, clock := newInitializedRegistry(t)
	expires := clock.now.Add(30 * 24 * time.Hour)

	// Unregistered signer.
	err := r.SubmitAttestation(authorityC, submission(agentBot1, interfaces.SignalInfraCloud, expires))
	assert.ErrorIs(t, err, interfaces.ErrUnauthorized)

	// Deactivated authority.
	require.NoError(t, r.RemoveAuthority(admin, authorityB))
	err = r.SubmitAttestation(authorityB, submission(agentBot1, interfaces.SignalInfraCloud, expires))
	assert.ErrorIs(t, err, interfaces.ErrUnauthorized)

	// Unknown agent.
	err = r.SubmitAttestation(authorityA, submission(pk(0x77), interfaces.SignalInfraCloud, expires))
	assert.ErrorIs(t, err, interfaces.ErrNotFound)

	// Lapsed validity window.
	err = r.SubmitAttestation(authorityA, submission(agentBot1, interfaces.SignalInfraCloud, clock.now))
	assert.ErrorIs(t, err, interfaces.ErrExpired)

	// Zero hash commits to nothing.
	sub := submission(agentBot1, interfaces.SignalInfraCloud, expires)
	sub.Hash = interfaces.AttestationHash{}
	assert.ErrorIs(t, r.SubmitAttestation(authorityA, sub), interfaces.ErrInvalidSignalPayload)

	// TEE quote on a non-TEE signal.
	sub = submission(agentBot1, interfaces.SignalEconomicStake, expires)
	sub.TEEQuote = []byte{0x01}
	assert.ErrorIs(t, r.SubmitAttestation(authorityA, sub), interfaces.ErrInvalidSignalPayload)

	// TEE quote on a TEE signal is accepted and stored.
	sub = submission(agentBot1, interfaces.SignalInfraTEE, expires)
	sub.TEEQuote = []byte{0x04, 0x00}
	require.NoError(t, r.SubmitAttestation(authorityA, sub))

	att, err := r.Attestation(agentBot1, authorityA)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x04, 0x00}, att.TEEQuote)
	assert.Equal(t, interfaces.AuthorityOracleOperator, att.AuthorityType)
	assert.Equal(t, clock.now, att.CreatedAt)
}

func TestSubmitAttestationCounters(t *testing.T) {
	r, clock := newInitializedRegistry(t)
	expires := clock.now.Add(24 * time.Hour)

	require.NoError(t, r.SubmitAttestation(authorityA, submission(agentBot1, interfaces.SignalInfraCloud, expires)))

	cfg, _ := r.Config()
	assert.Equal(t, uint64(1), cfg.TotalAttestations)

	auth, _ := r.Authority(authorityA)
	assert.Equal(t, uint64(1), auth.AttestationCount)

	agent, _ := r.Agent(agentBot1)
	assert.Equal(t, uint64(1), agent.AttestationCount)
	assert.Equal(t, uint64(1), agent.Nonce)

	// Derived fields stay untouched until refresh.
	assert.Equal(t, uint8(0), agent.TrustScore)
	assert.Equal(t, interfaces.InfraUnknown, agent.InfraType)
}

// Scenario: a single cloud attestation drives infra type and the documented
// single-signal score on refresh.
func TestRefreshSingleCloudAttestation(t *testing.T) {
	r, clock := newInitializedRegistry(t)
	expires := clock.now.Add(30 * 24 * time.Hour)

	require.NoError(t, r.SubmitAttestation(authorityA, submission(agentBot1, interfaces.SignalInfraCloud, expires)))

	agent, err := r.RefreshSignals(agentBot1)
	require.NoError(t, err)

	weights := signal.DefaultWeights()
	assert.Equal(t, interfaces.InfraCloud, agent.InfraType)
	assert.Equal(t, uint8(weights.InfraCloud), agent.TrustScore)
	assert.False(t, agent.HasEconomicStake)
	assert.Equal(t, uint64(1), agent.AttestationCount)
	assert.Equal(t, clock.now, agent.LastVerified)
}

// Scenario: a second authority adds an economic stake attestation; the score
// grows by the stake category's value and infra type is unchanged.
func TestRefreshStakeAddsToScore(t *testing.T) {
	r, clock := newInitializedRegistry(t)
	expires := clock.now.Add(30 * 24 * time.Hour)

	require.NoError(t, r.SubmitAttestation(authorityA, submission(agentBot1, interfaces.SignalInfraCloud, expires)))
	before, err := r.RefreshSignals(agentBot1)
	require.NoError(t, err)

	require.NoError(t, r.SubmitAttestation(authorityB, submission(agentBot1, interfaces.SignalEconomicStake, expires)))
	after, err := r.RefreshSignals(agentBot1)
	require.NoError(t, err)

	weights := signal.DefaultWeights()
	assert.True(t, after.HasEconomicStake)
	assert.Equal(t, interfaces.InfraCloud, after.InfraType)
	assert.Equal(t, before.TrustScore+uint8(weights.EconomicStake), after.TrustScore)
}

// Scenario: revoking the only infra attestation drops the classification to
// unknown while the stake contribution is unaffected.
func TestRefreshAfterRevocation(t *testing.T) {
	r, clock := newInitializedRegistry(t)
	expires := clock.now.Add(30 * 24 * time.Hour)

	require.NoError(t, r.SubmitAttestation(authorityA, submission(agentBot1, interfaces.SignalInfraCloud, expires)))
	require.NoError(t, r.SubmitAttestation(authorityB, submission(agentBot1, interfaces.SignalEconomicStake, expires)))
	require.NoError(t, r.RevokeAttestation(authorityA, agentBot1))

	agent, err := r.RefreshSignals(agentBot1)
	require.NoError(t, err)

	weights := signal.DefaultWeights()
	assert.Equal(t, interfaces.InfraUnknown, agent.InfraType)
	assert.True(t, agent.HasEconomicStake)
	assert.Equal(t, uint8(weights.EconomicStake), agent.TrustScore)
	assert.Equal(t, uint64(1), agent.AttestationCount)
}

// Scenario: two distinct authorities attesting TEE yield the corroboration
// bonus over a single-TEE baseline.
func TestRefreshCorroboratedTEE(t *testing.T) {
	r, clock := newInitializedRegistry(t)
	expires := clock.now.Add(30 * 24 * time.Hour)

	require.NoError(t, r.SubmitAttestation(authorityA, submission(agentBot1, interfaces.SignalInfraTEE, expires)))
	single, err := r.RefreshSignals(agentBot1)
	require.NoError(t, err)

	require.NoError(t, r.SubmitAttestation(authorityB, submission(agentBot1, interfaces.SignalInfraTEE, expires)))
	double, err := r.RefreshSignals(agentBot1)
	require.NoError(t, err)

	weights := signal.DefaultWeights()
	assert.Equal(t, interfaces.InfraTEE, double.InfraType)
	assert.Equal(t, uint8(weights.InfraTEE), single.TrustScore)
	assert.Equal(t, single.TrustScore+uint8(weights.CorroborationBonus), double.TrustScore)
}

// Scenario: resubmission over a live attestation is rejected; after
// revocation it succeeds and replaces the record in place.
func TestResubmissionCollision(t *testing.T) {
	r, clock := newInitializedRegistry(t)
	expires := clock.now.Add(30 * 24 * time.Hour)

	require.NoError(t, r.SubmitAttestation(authorityA, submission(agentBot1, interfaces.SignalInfraCloud, expires)))

	err := r.SubmitAttestation(authorityA, submission(agentBot1, interfaces.SignalInfraTEE, expires))
	assert.ErrorIs(t, err, interfaces.ErrAttestationAlreadyExists)
	assert.ErrorIs(t, err, interfaces.ErrAlreadyExists)

	require.NoError(t, r.RevokeAttestation(authorityA, agentBot1))
	require.NoError(t, r.SubmitAttestation(authorityA, submission(agentBot1, interfaces.SignalInfraTEE, expires)))

	att, err := r.Attestation(agentBot1, authorityA)
	require.NoError(t, err)
	assert.Equal(t, interfaces.SignalInfraTEE, att.Signal)
	assert.False(t, att.Revoked)

	// The replaced record still counts as one live attestation, not two.
	agent, err := r.RefreshSignals(agentBot1)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), agent.AttestationCount)
}

func TestRevocationRules(t *testing.T) {
	r, clock := newInitializedRegistry(t)
	expires := clock.now.Add(30 * 24 * time.Hour)

	require.NoError(t, r.SubmitAttestation(authorityA, submission(agentBot1, interfaces.SignalInfraCloud, expires)))

	// Another authority, the admin included, holds no record for the pair.
	assert.ErrorIs(t, r.RevokeAttestation(authorityB, agentBot1), interfaces.ErrNotFound)
	assert.ErrorIs(t, r.RevokeAttestation(admin, agentBot1), interfaces.ErrNotFound)

	require.NoError(t, r.RevokeAttestation(authorityA, agentBot1))
	assert.ErrorIs(t, r.RevokeAttestation(authorityA, agentBot1), interfaces.ErrAlreadyRevoked)

	att, err := r.Attestation(agentBot1, authorityA)
	require.NoError(t, err)
	assert.True(t, att.Revoked)
	assert.Equal(t, clock.now, att.RevokedAt)
}

func TestExpiryIsLazy(t *testing.T) {
	r, clock := newInitializedRegistry(t)
	expires := clock.now.Add(24 * time.Hour)

	require.NoError(t, r.SubmitAttestation(authorityA, submission(agentBot1, interfaces.SignalInfraDePIN, expires)))
	agent, err := r.RefreshSignals(agentBot1)
	require.NoError(t, err)
	assert.Equal(t, interfaces.InfraDePIN, agent.InfraType)

	clock.advance(25 * time.Hour)

	// The record survives expiry but drops out of derivation.
	att, err := r.Attestation(agentBot1, authorityA)
	require.NoError(t, err)
	assert.False(t, att.Revoked)

	agent, err = r.RefreshSignals(agentBot1)
	require.NoError(t, err)
	assert.Equal(t, interfaces.InfraUnknown, agent.InfraType)
	assert.Equal(t, uint8(0), agent.TrustScore)
	assert.Equal(t, uint64(0), agent.AttestationCount)

	// Expired records do not block resubmission.
	require.NoError(t, r.SubmitAttestation(authorityA, submission(agentBot1, interfaces.SignalInfraDePIN, clock.now.Add(time.Hour))))
}

func TestRefreshIdempotent(t *testing.T) {
	r, clock := newInitializedRegistry(t)
	expires := clock.now.Add(30 * 24 * time.Hour)

	require.NoError(t, r.SubmitAttestation(authorityA, submission(agentBot1, interfaces.SignalInfraTEE, expires)))

	first, err := r.RefreshSignals(agentBot1)
	require.NoError(t, err)
	second, err := r.RefreshSignals(agentBot1)
	require.NoError(t, err)

	assert.Equal(t, first.TrustScore, second.TrustScore)
	assert.Equal(t, first.InfraType, second.InfraType)
	assert.Equal(t, first.HasEconomicStake, second.HasEconomicStake)
	assert.Equal(t, first.Nonce+1, second.Nonce)
}

func TestRefreshUnknownAgent(t *testing.T) {
	r, _ := newInitializedRegistry(t)

	_, err := r.RefreshSignals(pk(0x99))
	assert.ErrorIs(t, err, interfaces.ErrNotFound)
}

func TestFlagUnflag(t *testing.T) {
	r, clock := newInitializedRegistry(t)

	// Flagging requires an active authority.
	assert.ErrorIs(t, r.FlagAgent(authorityC, agentBot1, hash(0x55)), interfaces.ErrUnauthorized)
	require.NoError(t, r.RemoveAuthority(admin, authorityB))
	assert.ErrorIs(t, r.FlagAgent(authorityB, agentBot1, hash(0x55)), interfaces.ErrUnauthorized)

	// The flagging authority needs no attestation on the agent.
	require.NoError(t, r.FlagAgent(authorityA, agentBot1, hash(0x55)))

	agent, err := r.Agent(agentBot1)
	require.NoError(t, err)
	assert.True(t, agent.IsFlagged)
	assert.Equal(t, hash(0x55), agent.FlagReason)
	assert.Equal(t, uint64(1), agent.Nonce)

	// A refresh leaves the flag untouched.
	expires := clock.now.Add(time.Hour)
	require.NoError(t, r.SubmitAttestation(authorityA, submission(agentBot1, interfaces.SignalInfraCloud, expires)))
	refreshed, err := r.RefreshSignals(agentBot1)
	require.NoError(t, err)
	assert.True(t, refreshed.IsFlagged)

	// Clearing is admin only.
	assert.ErrorIs(t, r.UnflagAgent(authorityA, agentBot1), interfaces.ErrUnauthorized)
	require.NoError(t, r.UnflagAgent(admin, agentBot1))

	agent, err = r.Agent(agentBot1)
	require.NoError(t, err)
	assert.False(t, agent.IsFlagged)
	assert.Equal(t, interfaces.AttestationHash{}, agent.FlagReason)
}

func TestAdvanceRevocationEpoch(t *testing.T) {
	r, clock := newInitializedRegistry(t)

	_, err := r.AdvanceRevocationEpoch(authorityA)
	assert.ErrorIs(t, err, interfaces.ErrUnauthorized)

	epoch, err := r.AdvanceRevocationEpoch(admin)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), epoch)

	// New attestations snapshot the current epoch.
	require.NoError(t, r.SubmitAttestation(authorityA, submission(agentBot1, interfaces.SignalGeneral, clock.now.Add(time.Hour))))
	att, err := r.Attestation(agentBot1, authorityA)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), att.Epoch)
}

func TestAgentAttestationsListing(t *testing.T) {
	r, clock := newInitializedRegistry(t)
	expires := clock.now.Add(time.Hour)

	require.NoError(t, r.SubmitAttestation(authorityA, submission(agentBot1, interfaces.SignalInfraCloud, expires)))
	require.NoError(t, r.SubmitAttestation(authorityB, submission(agentBot1, interfaces.SignalEconomicStake, expires)))
	require.NoError(t, r.RevokeAttestation(authorityB, agentBot1))

	// Revoked records stay listed; the listing is the audit view.
	atts, err := r.AgentAttestations(agentBot1)
	require.NoError(t, err)
	assert.Len(t, atts, 2)

	_, err = r.AgentAttestations(pk(0x99))
	assert.ErrorIs(t, err, interfaces.ErrNotFound)
}

func TestTrustScoreStaysBounded(t *testing.T) {
	r, clock := newInitializedRegistry(t)
	expires := clock.now.Add(time.Hour)

	sigs := []interfaces.SignalType{
		interfaces.SignalInfraTEE,
		interfaces.SignalInfraDePIN,
		interfaces.SignalInfraCloud,
		interfaces.SignalEconomicStake,
		interfaces.SignalHardwareBinding,
		interfaces.SignalGeneral,
	}
	next := byte(0x20)
	for _, sig := range sigs {
		for i := 0; i < 3; i++ {
			authority := pk(next)
			next++
			require.NoError(t, r.AddAuthority(admin, authority, interfaces.AuthoritySingle))
			require.NoError(t, r.SubmitAttestation(authority, submission(agentBot1, sig, expires)))
		}
	}

	agent, err := r.RefreshSignals(agentBot1)
	require.NoError(t, err)
	assert.LessOrEqual(t, agent.TrustScore, uint8(100))
	assert.Equal(t, uint8(100), agent.TrustScore)
	assert.Equal(t, interfaces.InfraTEE, agent.InfraType)
	assert.True(t, agent.HasEconomicStake)
	assert.True(t, agent.HasHardwareBinding)
}

func TestValidateTEEQuotesParam(t *testing.T) {
	clock := &testClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	engine, err := signal.NewEngine(signal.DefaultWeights())
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := New(engine, logger,
		WithClock(func() time.Time { return clock.now }),
		WithParams(Params{ValidateTEEQuotes: true}))

	require.NoError(t, r.Initialize(admin))
	require.NoError(t, r.AddAuthority(admin, authorityA, interfaces.AuthoritySingle))
	require.NoError(t, r.RegisterAgent(agentBot1, "bot-1"))

	sub := submission(agentBot1, interfaces.SignalInfraTEE, clock.now.Add(time.Hour))
	sub.TEEQuote = []byte("not a quote")
	assert.ErrorIs(t, r.SubmitAttestation(authorityA, sub), interfaces.ErrInvalidSignalPayload)

	sub.TEEQuote = nil
	assert.ErrorIs(t, r.SubmitAttestation(authorityA, sub), interfaces.ErrInvalidSignalPayload)
}
