package reconcile

import (
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/normalizers"
)

// Default factor weights. The composite score is a convex combination, so
// weights must sum to 1.0.
const (
	DefaultAmountWeight      = 0.35
	DefaultDateWeight        = 0.25
	DefaultReferenceWeight   = 0.20
	DefaultPartyWeight       = 0.15
	DefaultDescriptionWeight = 0.05
)

// AmountTolerance is the relative tolerance under which two amounts are
// considered equal (0.5%).
const AmountTolerance = 0.005

// DefaultTaxRates are the GST rates tried when the bank amount does not match
// the invoice amount directly. A bank amount may be tax-inclusive against a
// tax-exclusive invoice, or the reverse.
var DefaultTaxRates = []float64{0.05, 0.12, 0.18, 0.28}

// Weights configures the convex combination of factor scores.
type Weights struct {
	Amount      float64
	Date        float64
	Reference   float64
	Party       float64
	Description float64
}

// DefaultWeights returns the standard weighting scheme.
func DefaultWeights() Weights {
	return Weights{
		Amount:      DefaultAmountWeight,
		Date:        DefaultDateWeight,
		Reference:   DefaultReferenceWeight,
		Party:       DefaultPartyWeight,
		Description: DefaultDescriptionWeight,
	}
}

// sum returns the total weight.
func (w Weights) sum() float64 {
	return w.Amount + w.Date + w.Reference + w.Party + w.Description
}

// valid reports whether the weights form a convex combination.
func (w Weights) valid() bool {
	for _, v := range []float64{w.Amount, w.Date, w.Reference, w.Party, w.Description} {
		if v < 0 {
			return false
		}
	}
	return math.Abs(w.sum()-1.0) <= 1e-9
}

// Scorer computes the per-factor scores. Every factor returns a value in
// [0,100].
type Scorer struct {
	taxRates []float64
}

// NewScorer creates a Scorer with the given tax-rate candidates.
func NewScorer(taxRates []float64) *Scorer {
	if len(taxRates) == 0 {
		taxRates = DefaultTaxRates
	}
	return &Scorer{taxRates: taxRates}
}

// AmountScore scores the unsigned bank amount against the invoice amount.
// Returns the score and, for a tax-rate match, the detected rate.
//
// An exact match (within 0.5% relative tolerance) scores 100. A match via a
// tax-rate candidate scores 95, never 100, signalling the rate was inferred
// rather than stated. Otherwise the score decays linearly with the relative
// difference: a 50% difference floors it at 0.
func (s *Scorer) AmountScore(bankAmount, invoiceAmount decimal.Decimal) (float64, *float64) {
	if relDiff(bankAmount, invoiceAmount) <= AmountTolerance {
		return 100, nil
	}

	for _, rate := range s.taxRates {
		r := decimal.NewFromFloat(rate)
		inclusive := invoiceAmount.Mul(decimal.NewFromInt(1).Add(r))
		exclusive := invoiceAmount.Mul(decimal.NewFromInt(1).Sub(r))
		if relDiff(bankAmount, inclusive) <= AmountTolerance || relDiff(bankAmount, exclusive) <= AmountTolerance {
			detected := rate
			return 95, &detected
		}
	}

	denom := invoiceAmount
	if denom.LessThan(decimal.NewFromInt(1)) {
		denom = decimal.NewFromInt(1)
	}
	d, _ := bankAmount.Sub(invoiceAmount).Abs().Div(denom).Float64()
	return clampScore(100 - d*200), nil
}

// relDiff returns |a-b|/b, or +Inf when b is zero. Zero invoice amounts are
// rejected upstream as a ParseError, so the guard is never the normal path.
func relDiff(a, b decimal.Decimal) float64 {
	if b.IsZero() {
		return math.Inf(1)
	}
	d, _ := a.Sub(b).Abs().Div(b).Float64()
	return d
}

// dateBand maps an absolute day difference onto a score.
type dateBand struct {
	maxDays int
	score   float64
}

// Bank settlement lag is discrete (weekends, clearing cycles), so the date
// factor is an exact lookup table rather than an interpolated curve.
var dateBands = []dateBand{
	{0, 100},
	{3, 90},
	{7, 70},
	{15, 50},
	{30, 30},
}

const dateScoreBeyondBands = 10

// DateScore scores the proximity of two calendar dates.
func (s *Scorer) DateScore(a, b time.Time) float64 {
	days := daysBetween(a, b)
	for _, band := range dateBands {
		if days <= band.maxDays {
			return band.score
		}
	}
	return dateScoreBeyondBands
}

// daysBetween returns the absolute whole-day difference, ignoring the time
// of day.
func daysBetween(a, b time.Time) int {
	ad := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	bd := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	diff := int(ad.Sub(bd).Hours() / 24)
	if diff < 0 {
		diff = -diff
	}
	return diff
}

// ReferenceScore scores the invoice number against the bank reference and
// description text. Both sides are normalized to bare alphanumerics.
//
// References are high-precision identifiers, so substring containment is the
// only partial signal recognized; fuzzy scoring here would be unsafe.
func (s *Scorer) ReferenceScore(bankText, invoiceNumber string) float64 {
	number := normalizers.NormalizeReference(invoiceNumber)
	if number == "" {
		return 0
	}
	text := normalizers.NormalizeReference(bankText)
	if text == number {
		return 100
	}
	if strings.Contains(text, number) {
		return 80
	}
	return 0
}

// PartyScore scores the invoice party name against the bank description.
// Party names rarely appear verbatim in bank narrations; token-subset
// containment approximates fuzzy matching without an edit-distance pass.
func (s *Scorer) PartyScore(partyName, bankDescription string) float64 {
	tokens := normalizers.PartyTokens(partyName)
	if len(tokens) == 0 {
		return 0
	}
	description := strings.ToUpper(bankDescription)
	found := 0
	for _, token := range tokens {
		if strings.Contains(description, token) {
			found++
		}
	}
	switch {
	case found == len(tokens):
		return 80
	case found > 0:
		return 60
	default:
		return 0
	}
}

// DescriptionScore scores overlap between the bank and invoice descriptions.
// Business descriptions are free text and only a weak corroborating signal,
// so any non-empty stopword-filtered intersection scores a flat 60.
func (s *Scorer) DescriptionScore(bankDescription, invoiceDescription string) float64 {
	bankWords := normalizers.DescriptionWords(bankDescription)
	invoiceWords := normalizers.DescriptionWords(invoiceDescription)
	for w := range invoiceWords {
		if _, ok := bankWords[w]; ok {
			return 60
		}
	}
	return 0
}

// Composite combines factor scores with the configured weights. No rounding
// happens here; scores keep full precision until display.
func (w Weights) Composite(f models.FactorScores) float64 {
	return w.Amount*f.Amount +
		w.Date*f.Date +
		w.Reference*f.Reference +
		w.Party*f.Party +
		w.Description*f.Description
}

// clampScore clips a score into [0,100].
func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
