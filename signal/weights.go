package signal

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/attestia/agent-trust-registry/interfaces"
)

// Weights is the trust score point table. Each signal category contributes
// its base value once, plus a corroboration bonus for every additional
// distinct authority attesting the same category, capped per category. The
// final score is clamped to [0, MaxScore].
type Weights struct {
	InfraCloud      int `yaml:"infra_cloud"`
	InfraTEE        int `yaml:"infra_tee"`
	InfraDePIN      int `yaml:"infra_depin"`
	EconomicStake   int `yaml:"economic_stake"`
	HardwareBinding int `yaml:"hardware_binding"`
	General         int `yaml:"general"`

	CorroborationBonus int `yaml:"corroboration_bonus"`
	CorroborationCap   int `yaml:"corroboration_cap"`

	MaxScore int `yaml:"max_score"`
}

// DefaultWeights returns the compiled-in point table. TEE and DePIN signals
// outweigh plain cloud since they are harder to fake.
func DefaultWeights() Weights {
	return Weights{
		InfraCloud:      10,
		InfraTEE:        25,
		InfraDePIN:      20,
		EconomicStake:   20,
		HardwareBinding: 15,
		General:         5,

		CorroborationBonus: 5,
		CorroborationCap:   10,

		MaxScore: 100,
	}
}

// LoadWeights reads a point table from a YAML policy file. Fields omitted
// from the file keep their default values.
func LoadWeights(path string) (Weights, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Weights{}, fmt.Errorf("reading weight policy file: %w", err)
	}

	w := DefaultWeights()
	if err := yaml.Unmarshal(data, &w); err != nil {
		return Weights{}, fmt.Errorf("parsing weight policy file: %w", err)
	}

	if err := w.Validate(); err != nil {
		return Weights{}, err
	}
	return w, nil
}

// Validate checks the table preserves the derivation invariants: every
// contribution is non-negative (monotonicity) and the score bound is within
// the protocol's 0-100 range.
func (w Weights) Validate() error {
	for _, v := range []int{
		w.InfraCloud, w.InfraTEE, w.InfraDePIN,
		w.EconomicStake, w.HardwareBinding, w.General,
		w.CorroborationBonus, w.CorroborationCap,
	} {
		if v < 0 {
			return fmt.Errorf("weight policy: negative point value %d", v)
		}
	}

	if w.MaxScore <= 0 || w.MaxScore > 100 {
		return fmt.Errorf("weight policy: max score %d outside (0, 100]", w.MaxScore)
	}
	return nil
}

// base returns the first-attestation point value for a signal category.
func (w Weights) base(s interfaces.SignalType) int {
	switch s {
	case interfaces.SignalInfraCloud:
		return w.InfraCloud
	case interfaces.SignalInfraTEE:
		return w.InfraTEE
	case interfaces.SignalInfraDePIN:
		return w.InfraDePIN
	case interfaces.SignalEconomicStake:
		return w.EconomicStake
	case interfaces.SignalHardwareBinding:
		return w.HardwareBinding
	case interfaces.SignalGeneral:
		return w.General
	default:
		return 0
	}
}
