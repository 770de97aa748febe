package types

// Arbitration and acceptance thresholds shared across the resolution
// pipeline. Kept in one place so tuning a threshold never requires
// hunting for magic numbers in individual resolvers.
const (
	// ConfidenceExact is assigned to exact cache hits and direct entity
	// attribute matches.
	ConfidenceExact = 1.0

	// ConfidenceRemapped is assigned when a lookup succeeded only after
	// remapping a raw markup index to a logical instance index.
	ConfidenceRemapped = 0.9

	// CacheAcceptThreshold is the minimum confidence at which a cached
	// answer short-circuits further resolution for a field.
	CacheAcceptThreshold = 0.6

	// FuzzyAcceptThreshold is the minimum hybrid fuzzy score for an
	// option-text match to be accepted.
	FuzzyAcceptThreshold = 0.6

	// SkillMatchThreshold is the stricter score required when matching
	// profile skills against multi-select option text.
	SkillMatchThreshold = 0.8

	// CacheLabelConfidence is the classifier confidence above which the
	// classification label itself is used as the cache key.
	CacheLabelConfidence = 0.8

	// ArbitrationMargin is the confidence gap required between the top
	// two classification candidates for the winner to be trusted.
	ArbitrationMargin = 0.15

	// ArbitrationMarginRelaxed replaces ArbitrationMargin for work-auth
	// and sponsorship labels, which carry weak neural signal but are
	// safe to act on when heuristic evidence exists.
	ArbitrationMarginRelaxed = 0.02
)
