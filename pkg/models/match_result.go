package models

import (
	"math"
	"time"
)

// ConfidenceTier buckets a composite score into a handling category
type ConfidenceTier string

const (
	TierPerfect  ConfidenceTier = "PERFECT"  // [95,100]
	TierHigh     ConfidenceTier = "HIGH"     // [80,95)
	TierModerate ConfidenceTier = "MODERATE" // [60,80)
	TierLow      ConfidenceTier = "LOW"      // [40,60)
	TierUnmapped ConfidenceTier = "UNMAPPED" // [0,40)
)

// MatchAction is what the caller should do with a result
type MatchAction string

const (
	ActionAutoMatch     MatchAction = "auto_match"
	ActionManualReview  MatchAction = "manual_review"
	ActionManualMapping MatchAction = "manual_mapping"
	ActionSuggestLedger MatchAction = "suggest_ledger_account"
)

// FactorScores holds the per-factor breakdown of a composite score.
// Every factor is in [0,100].
type FactorScores struct {
	Amount      float64 `json:"amount"`
	Date        float64 `json:"date"`
	Reference   float64 `json:"reference"`
	Party       float64 `json:"party"`
	Description float64 `json:"description"`
}

// LedgerAccount is a suggested posting account for unmapped transactions
type LedgerAccount struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// MatchResult links one bank transaction to at most one invoice. Every
// transaction in a run yields exactly one result, even with zero candidate
// invoices.
type MatchResult struct {
	ID            string         `json:"id" db:"id"`
	TenantID      string         `json:"tenant_id" db:"tenant_id"`
	RunID         string         `json:"run_id" db:"run_id"`
	TransactionID string         `json:"transaction_id" db:"transaction_id"`
	InvoiceNumber *string        `json:"invoice_number,omitempty" db:"invoice_number"`
	Score         float64        `json:"score" db:"score"`
	Factors       FactorScores   `json:"factors" db:"-"`
	Tier          ConfidenceTier `json:"tier" db:"tier"`
	Action        MatchAction    `json:"action" db:"action"`

	// DetectedTaxRate is set when the amount factor matched via a tax-rate
	// candidate rather than an exact amount (e.g. 0.18 for an 18% match).
	DetectedTaxRate *float64 `json:"detected_tax_rate,omitempty" db:"detected_tax_rate"`

	// SuggestedAccount is populated only for UNMAPPED results.
	SuggestedAccount *LedgerAccount `json:"suggested_account,omitempty" db:"-"`

	Rationale string `json:"rationale" db:"rationale"`

	Status     string     `json:"status" db:"status"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty" db:"resolved_at"`
	ResolvedBy *string    `json:"resolved_by,omitempty" db:"resolved_by"`
}

// MatchResult review statuses. Auto-matched results are terminal; moderate
// and low tiers sit in the review queue until approved or rejected.
const (
	MatchResultStatusAutoMatched = "auto_matched"
	MatchResultStatusPending     = "pending"
	MatchResultStatusApproved    = "approved"
	MatchResultStatusRejected    = "rejected"
	MatchResultStatusUnmapped    = "unmapped"
)

// DisplayScore rounds the composite score to 2 decimals for reporting.
// The stored score keeps full precision.
func (r *MatchResult) DisplayScore() float64 {
	return math.Round(r.Score*100) / 100
}
