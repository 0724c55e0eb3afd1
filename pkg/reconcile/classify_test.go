package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Ramsey-B/clover/pkg/models"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name   string
		score  float64
		tier   models.ConfidenceTier
		action models.MatchAction
	}{
		{"Hundred", 100, models.TierPerfect, models.ActionAutoMatch},
		{"PerfectLowerBound", 95, models.TierPerfect, models.ActionAutoMatch},
		{"JustBelowPerfect", 94.999, models.TierHigh, models.ActionAutoMatch},
		{"HighLowerBound", 80, models.TierHigh, models.ActionAutoMatch},
		{"JustBelowHigh", 79.999, models.TierModerate, models.ActionManualReview},
		{"ModerateLowerBound", 60, models.TierModerate, models.ActionManualReview},
		{"JustBelowModerate", 59.999, models.TierLow, models.ActionManualMapping},
		{"LowLowerBound", 40, models.TierLow, models.ActionManualMapping},
		{"JustBelowLow", 39.999, models.TierUnmapped, models.ActionSuggestLedger},
		{"Zero", 0, models.TierUnmapped, models.ActionSuggestLedger},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tier, action := Classify(tc.score)
			assert.Equal(t, tc.tier, tier)
			assert.Equal(t, tc.action, action)
		})
	}
}

func TestAutoMatchable(t *testing.T) {
	assert.True(t, AutoMatchable(models.TierPerfect))
	assert.True(t, AutoMatchable(models.TierHigh))
	assert.False(t, AutoMatchable(models.TierModerate))
	assert.False(t, AutoMatchable(models.TierLow))
	assert.False(t, AutoMatchable(models.TierUnmapped))
}
