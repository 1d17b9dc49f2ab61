package world

import "math/rand"

// Stage identifies a pipeline stage for RNG stream derivation.
type Stage uint64

const (
	StageHeightmap Stage = iota + 1
	StageErosion
	StageRivers
	StageClimate
	StageSettlementScore
	StageSettlementPick
	StageSettlementInfo
	StageVoronoiFill
	StageCapitals
	StageGovernment
	StagePolitics
	StageReligion
	StageCulture
	StageNames
	StageRoads
	StageRelations
)

// NewRNG returns a deterministic RNG for one entity within one stage.
// Streams for different (stage, entity) pairs are independent of each other,
// so parallel work partitioned by entity stays reproducible.
func NewRNG(seed int64, stage Stage, entity uint64) *rand.Rand {
	mixed := uint64(seed) ^ uint64(stage)*0x9E3779B97F4A7C15 ^ entity*0xBF58476D1CE4E5B9
	mixed ^= mixed >> 31
	mixed *= 0x94D049BB133111EB
	mixed ^= mixed >> 29
	return rand.New(rand.NewSource(int64(mixed)))
}
