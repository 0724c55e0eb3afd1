package reconcile

import "github.com/Ramsey-B/clover/pkg/models"

// Tier thresholds. Each boundary is inclusive on its lower edge.
const (
	perfectThreshold  = 95
	highThreshold     = 80
	moderateThreshold = 60
	lowThreshold      = 40
)

// Classify maps a composite score onto a confidence tier and the action the
// caller must take.
func Classify(score float64) (models.ConfidenceTier, models.MatchAction) {
	switch {
	case score >= perfectThreshold:
		return models.TierPerfect, models.ActionAutoMatch
	case score >= highThreshold:
		return models.TierHigh, models.ActionAutoMatch
	case score >= moderateThreshold:
		return models.TierModerate, models.ActionManualReview
	case score >= lowThreshold:
		return models.TierLow, models.ActionManualMapping
	default:
		return models.TierUnmapped, models.ActionSuggestLedger
	}
}

// AutoMatchable reports whether a tier consumes the matched invoice.
func AutoMatchable(tier models.ConfidenceTier) bool {
	return tier == models.TierPerfect || tier == models.TierHigh
}
