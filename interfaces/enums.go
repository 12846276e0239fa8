package interfaces

import (
	"encoding/json"
	"fmt"
)

// AuthorityType classifies a registered verifier. The classification is
// informational: it is snapshotted onto attestations and may affect
// downstream weighting policy, but does not gate attestation acceptance
// beyond the authority being active.
type AuthorityType uint8

const (
	// AuthoritySingle is an independent single-key verifier.
	AuthoritySingle AuthorityType = iota

	// AuthorityMultisigMember is a member of a verifier multisig.
	AuthorityMultisigMember

	// AuthorityOracleOperator is an oracle network operator.
	AuthorityOracleOperator

	// AuthorityNCNValidator is a node-consensus-network validator.
	AuthorityNCNValidator
)

// String returns the authority type name.
func (t AuthorityType) String() string {
	switch t {
	case AuthoritySingle:
		return "single"
	case AuthorityMultisigMember:
		return "multisig-member"
	case AuthorityOracleOperator:
		return "oracle-operator"
	case AuthorityNCNValidator:
		return "ncn-validator"
	default:
		return "unknown"
	}
}

// AuthorityTypeFromString parses an authority type name.
func AuthorityTypeFromString(s string) (AuthorityType, error) {
	switch s {
	case "single":
		return AuthoritySingle, nil
	case "multisig-member":
		return AuthorityMultisigMember, nil
	case "oracle-operator":
		return AuthorityOracleOperator, nil
	case "ncn-validator":
		return AuthorityNCNValidator, nil
	default:
		return AuthoritySingle, fmt.Errorf("unsupported authority type: %s", s)
	}
}

// MarshalJSON encodes the authority type as its string name.
func (t AuthorityType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON decodes the authority type from its string name.
func (t *AuthorityType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	parsed, err := AuthorityTypeFromString(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// SignalType declares what an attestation claims to establish.
type SignalType uint8

const (
	// SignalInfraCloud attests the agent runs on conventional cloud infrastructure.
	SignalInfraCloud SignalType = iota

	// SignalInfraTEE attests the agent runs inside a trusted execution environment.
	SignalInfraTEE

	// SignalInfraDePIN attests the agent runs on decentralized physical infrastructure.
	SignalInfraDePIN

	// SignalEconomicStake attests the agent has economic stake at risk.
	SignalEconomicStake

	// SignalHardwareBinding attests the agent is bound to specific hardware.
	SignalHardwareBinding

	// SignalGeneral is a generic endorsement carrying no specific claim.
	SignalGeneral
)

// String returns the signal type name.
func (s SignalType) String() string {
	switch s {
	case SignalInfraCloud:
		return "infra-cloud"
	case SignalInfraTEE:
		return "infra-tee"
	case SignalInfraDePIN:
		return "infra-depin"
	case SignalEconomicStake:
		return "economic-stake"
	case SignalHardwareBinding:
		return "hardware-binding"
	case SignalGeneral:
		return "general"
	default:
		return "unknown"
	}
}

// SignalTypeFromString parses a signal type name.
func SignalTypeFromString(s string) (SignalType, error) {
	switch s {
	case "infra-cloud":
		return SignalInfraCloud, nil
	case "infra-tee":
		return SignalInfraTEE, nil
	case "infra-depin":
		return SignalInfraDePIN, nil
	case "economic-stake":
		return SignalEconomicStake, nil
	case "hardware-binding":
		return SignalHardwareBinding, nil
	case "general":
		return SignalGeneral, nil
	default:
		return SignalGeneral, fmt.Errorf("unsupported signal type: %s", s)
	}
}

// MarshalJSON encodes the signal type as its string name.
func (s SignalType) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes the signal type from its string name.
func (s *SignalType) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}

	parsed, err := SignalTypeFromString(name)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// InfraType is the derived infrastructure classification of an agent.
type InfraType uint8

const (
	// InfraUnknown means no live infra attestation exists.
	InfraUnknown InfraType = iota

	// InfraCloud is conventional cloud infrastructure.
	InfraCloud

	// InfraTEE is a trusted execution environment.
	InfraTEE

	// InfraDePIN is decentralized physical infrastructure.
	InfraDePIN
)

// String returns the infra type name.
func (t InfraType) String() string {
	switch t {
	case InfraCloud:
		return "cloud"
	case InfraTEE:
		return "tee"
	case InfraDePIN:
		return "depin"
	default:
		return "unknown"
	}
}

// InfraTypeFromString parses an infra type name.
func InfraTypeFromString(s string) (InfraType, error) {
	switch s {
	case "unknown":
		return InfraUnknown, nil
	case "cloud":
		return InfraCloud, nil
	case "tee":
		return InfraTEE, nil
	case "depin":
		return InfraDePIN, nil
	default:
		return InfraUnknown, fmt.Errorf("unsupported infra type: %s", s)
	}
}

// MarshalJSON encodes the infra type as its string name.
func (t InfraType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON decodes the infra type from its string name.
func (t *InfraType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	parsed, err := InfraTypeFromString(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
