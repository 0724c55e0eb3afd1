package reconcile

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/clover/pkg/models"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func TestScorer_AmountScore(t *testing.T) {
	scorer := NewScorer(nil)

	t.Run("ExactMatch", func(t *testing.T) {
		score, rate := scorer.AmountScore(d("50000"), d("50000"))
		assert.Equal(t, 100.0, score)
		assert.Nil(t, rate)
	})

	t.Run("WithinTolerance", func(t *testing.T) {
		// 0.2% off, under the 0.5% tolerance
		score, rate := scorer.AmountScore(d("50100"), d("50000"))
		assert.Equal(t, 100.0, score)
		assert.Nil(t, rate)
	})

	t.Run("TaxInclusiveMatch", func(t *testing.T) {
		// 50000 * 1.18 = 59000
		score, rate := scorer.AmountScore(d("59000"), d("50000"))
		assert.Equal(t, 95.0, score)
		require.NotNil(t, rate)
		assert.Equal(t, 0.18, *rate)
	})

	t.Run("TaxExclusiveMatch", func(t *testing.T) {
		// 50000 * (1 - 0.18) = 41000
		score, rate := scorer.AmountScore(d("41000"), d("50000"))
		assert.Equal(t, 95.0, score)
		require.NotNil(t, rate)
		assert.Equal(t, 0.18, *rate)
	})

	t.Run("AllDefaultRates", func(t *testing.T) {
		for _, rate := range DefaultTaxRates {
			bank := d("50000").Mul(decimal.NewFromFloat(1 + rate))
			score, detected := scorer.AmountScore(bank, d("50000"))
			assert.Equal(t, 95.0, score)
			require.NotNil(t, detected)
			assert.Equal(t, rate, *detected)
		}
	})

	t.Run("LinearDecay", func(t *testing.T) {
		// 10% off, no tax rate candidate fits: 100 - 0.1*200 = 80
		score, rate := scorer.AmountScore(d("55000"), d("50000"))
		assert.InDelta(t, 80.0, score, 1e-9)
		assert.Nil(t, rate)
	})

	t.Run("FloorsAtZero", func(t *testing.T) {
		score, rate := scorer.AmountScore(d("100000"), d("50000"))
		assert.Equal(t, 0.0, score)
		assert.Nil(t, rate)
	})

	t.Run("CustomRates", func(t *testing.T) {
		custom := NewScorer([]float64{0.10})
		score, rate := custom.AmountScore(d("55000"), d("50000"))
		assert.Equal(t, 95.0, score)
		require.NotNil(t, rate)
		assert.Equal(t, 0.10, *rate)

		// 18% no longer a candidate
		score, rate = custom.AmountScore(d("59000"), d("50000"))
		assert.Less(t, score, 95.0)
		assert.Nil(t, rate)
	})
}

func TestScorer_DateScore(t *testing.T) {
	scorer := NewScorer(nil)
	base := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name     string
		days     int
		expected float64
	}{
		{"SameDay", 0, 100},
		{"OneDay", 1, 90},
		{"ThreeDays", 3, 90},
		{"FourDays", 4, 70},
		{"SevenDays", 7, 70},
		{"EightDays", 8, 50},
		{"FifteenDays", 15, 50},
		{"SixteenDays", 16, 30},
		{"ThirtyDays", 30, 30},
		{"ThirtyOneDays", 31, 10},
		{"NinetyDays", 90, 10},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			other := base.AddDate(0, 0, tc.days)
			assert.Equal(t, tc.expected, scorer.DateScore(base, other))
			assert.Equal(t, tc.expected, scorer.DateScore(other, base))
		})
	}

	t.Run("IgnoresTimeOfDay", func(t *testing.T) {
		a := time.Date(2024, 1, 15, 23, 59, 0, 0, time.UTC)
		b := time.Date(2024, 1, 15, 0, 1, 0, 0, time.UTC)
		assert.Equal(t, 100.0, scorer.DateScore(a, b))
	})
}

func TestScorer_ReferenceScore(t *testing.T) {
	scorer := NewScorer(nil)

	t.Run("ExactMatch", func(t *testing.T) {
		assert.Equal(t, 100.0, scorer.ReferenceScore("INV-2024-001", "inv 2024 001"))
	})

	t.Run("SubstringInNarration", func(t *testing.T) {
		text := "NEFT CR ABC TECHNOLOGIES INV2024001 SOFTWARE PAYMENT"
		assert.Equal(t, 80.0, scorer.ReferenceScore(text, "INV-2024-001"))
	})

	t.Run("NoMatch", func(t *testing.T) {
		assert.Equal(t, 0.0, scorer.ReferenceScore("NEFT789123", "INV-2024-001"))
	})

	t.Run("EmptyInvoiceNumber", func(t *testing.T) {
		assert.Equal(t, 0.0, scorer.ReferenceScore("NEFT789123", ""))
	})
}

func TestScorer_PartyScore(t *testing.T) {
	scorer := NewScorer(nil)

	t.Run("AllTokensPresent", func(t *testing.T) {
		score := scorer.PartyScore("ABC Technologies Pvt Ltd", "NEFT CR ABC TECHNOLOGIES INV2024001")
		assert.Equal(t, 80.0, score)
	})

	t.Run("SomeTokensPresent", func(t *testing.T) {
		score := scorer.PartyScore("ABC Widgets Pvt Ltd", "NEFT CR ABC TECHNOLOGIES INV2024001")
		assert.Equal(t, 60.0, score)
	})

	t.Run("NoTokensPresent", func(t *testing.T) {
		score := scorer.PartyScore("XYZ Suppliers", "NEFT CR ABC TECHNOLOGIES")
		assert.Equal(t, 0.0, score)
	})

	t.Run("LegalSuffixesIgnored", func(t *testing.T) {
		// LTD appears in the narration but is stripped from the party tokens,
		// so it neither helps nor hurts
		score := scorer.PartyScore("Unrelated Pvt Ltd", "PAYMENT TO SOMEONE LTD")
		assert.Equal(t, 0.0, score)
	})

	t.Run("EmptyPartyName", func(t *testing.T) {
		assert.Equal(t, 0.0, scorer.PartyScore("", "NEFT CR ABC"))
	})
}

func TestScorer_DescriptionScore(t *testing.T) {
	scorer := NewScorer(nil)

	t.Run("WordOverlap", func(t *testing.T) {
		score := scorer.DescriptionScore("NEFT CR ABC TECHNOLOGIES SOFTWARE PAYMENT", "Software development services")
		assert.Equal(t, 60.0, score)
	})

	t.Run("NoOverlap", func(t *testing.T) {
		score := scorer.DescriptionScore("ATM WITHDRAWAL", "Software development services")
		assert.Equal(t, 0.0, score)
	})

	t.Run("StopwordsDoNotCount", func(t *testing.T) {
		score := scorer.DescriptionScore("PAYMENT FOR THE", "payment for a transfer")
		assert.Equal(t, 0.0, score)
	})
}

func TestWeights(t *testing.T) {
	t.Run("DefaultsAreValid", func(t *testing.T) {
		assert.True(t, DefaultWeights().valid())
		assert.InDelta(t, 1.0, DefaultWeights().sum(), 1e-9)
	})

	t.Run("SumNotOne", func(t *testing.T) {
		w := Weights{Amount: 0.5, Date: 0.5, Reference: 0.5}
		assert.False(t, w.valid())
	})

	t.Run("NegativeWeight", func(t *testing.T) {
		w := Weights{Amount: 1.5, Date: -0.5}
		assert.False(t, w.valid())
	})

	t.Run("Composite", func(t *testing.T) {
		// the documented scenario: tax-adjusted amount, same-day date,
		// reference substring, full party tokens, one description word
		factors := models.FactorScores{
			Amount:      95,
			Date:        100,
			Reference:   80,
			Party:       80,
			Description: 60,
		}
		composite := DefaultWeights().Composite(factors)
		assert.InDelta(t, 89.25, composite, 1e-9)

		tier, _ := Classify(composite)
		assert.Equal(t, models.TierHigh, tier)
	})

	t.Run("CompositeBounds", func(t *testing.T) {
		all100 := models.FactorScores{Amount: 100, Date: 100, Reference: 100, Party: 100, Description: 100}
		assert.InDelta(t, 100.0, DefaultWeights().Composite(all100), 1e-9)
		assert.Equal(t, 0.0, DefaultWeights().Composite(models.FactorScores{}))
	})
}
