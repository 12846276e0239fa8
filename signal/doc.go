// Package signal implements the trust derivation engine: the pure function
// that recomputes an agent's trust score and infrastructure classification
// from its set of currently live attestations.
//
// # Point Table
//
// The default weight policy awards base points per signal category present
// in the live set:
//
//	infra-tee         25
//	infra-depin       20
//	economic-stake    20
//	hardware-binding  15
//	infra-cloud       10
//	general            5
//
// Each additional distinct authority attesting the same category adds a
// corroboration bonus of 5 points, capped at 10 per category. The final
// score is clamped to [0, 100]. Diminishing returns per category mean a
// single authority cannot inflate the score by flooding one signal type.
//
// The table is a deployment policy: it can be overridden with a YAML file
// via LoadWeights. Whatever the constants, the engine guarantees the score
// stays bounded and that adding a live attestation never lowers it.
//
// # Infrastructure Classification
//
// The live set's infra signals reduce to a single classification by
// priority: tee > depin > cloud > unknown. TEE and DePIN evidence is harder
// to fake than a plain cloud claim, so a stronger classification is never
// downgraded by the mere presence of a weaker one.
package signal
