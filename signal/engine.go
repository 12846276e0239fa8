package signal

import (
	"time"

	"github.com/attestia/agent-trust-registry/interfaces"
)

// Summary holds the derived fields of an agent identity: everything a signal
// refresh writes except the bookkeeping timestamp and nonce.
type Summary struct {
	InfraType          interfaces.InfraType
	HasEconomicStake   bool
	HasHardwareBinding bool
	TrustScore         uint8

	// LiveCount is the size of the live attestation set the summary was
	// derived from.
	LiveCount int
}

// Engine derives trust signals from attestation sets. Derivation is a pure
// function of the live set: the engine holds only the weight policy and
// never mutates its inputs.
type Engine struct {
	weights Weights
}

// NewEngine creates a derivation engine with the given point table.
func NewEngine(weights Weights) (*Engine, error) {
	if err := weights.Validate(); err != nil {
		return nil, err
	}
	return &Engine{weights: weights}, nil
}

// Weights returns the engine's point table.
func (e *Engine) Weights() Weights {
	return e.weights
}

// Derive recomputes an agent's trust signals from its attestation records.
// Records that are revoked or past expiry at the given instant are excluded.
// An empty live set yields the unverified baseline: unknown infra, no stake
// or binding, score zero.
func (e *Engine) Derive(attestations []*interfaces.Attestation, now time.Time) Summary {
	var s Summary

	// Count live attestations per category. The (agent, authority) record
	// keying guarantees each live attestation in a category comes from a
	// distinct authority.
	perCategory := make(map[interfaces.SignalType]int)

	for _, att := range attestations {
		if att == nil || !att.Live(now) {
			continue
		}
		s.LiveCount++
		perCategory[att.Signal]++

		switch att.Signal {
		case interfaces.SignalInfraTEE:
			s.InfraType = bestInfra(s.InfraType, interfaces.InfraTEE)
		case interfaces.SignalInfraDePIN:
			s.InfraType = bestInfra(s.InfraType, interfaces.InfraDePIN)
		case interfaces.SignalInfraCloud:
			s.InfraType = bestInfra(s.InfraType, interfaces.InfraCloud)
		case interfaces.SignalEconomicStake:
			s.HasEconomicStake = true
		case interfaces.SignalHardwareBinding:
			s.HasHardwareBinding = true
		case interfaces.SignalGeneral:
		}
	}

	score := 0
	for category, count := range perCategory {
		score += e.weights.base(category) + e.corroboration(count)
	}
	if score > e.weights.MaxScore {
		score = e.weights.MaxScore
	}
	s.TrustScore = uint8(score)

	return s
}

// corroboration returns the capped bonus for additional distinct authorities
// attesting the same category.
func (e *Engine) corroboration(count int) int {
	if count <= 1 {
		return 0
	}

	bonus := (count - 1) * e.weights.CorroborationBonus
	if bonus > e.weights.CorroborationCap {
		bonus = e.weights.CorroborationCap
	}
	return bonus
}

// infraPriority orders infrastructure classifications by how costly they are
// to fake: TEE > DePIN > Cloud > Unknown. A stronger signal is never
// downgraded by the presence of a weaker one.
func infraPriority(t interfaces.InfraType) int {
	switch t {
	case interfaces.InfraTEE:
		return 3
	case interfaces.InfraDePIN:
		return 2
	case interfaces.InfraCloud:
		return 1
	default:
		return 0
	}
}

func bestInfra(current, candidate interfaces.InfraType) interfaces.InfraType {
	if infraPriority(candidate) > infraPriority(current) {
		return candidate
	}
	return current
}
