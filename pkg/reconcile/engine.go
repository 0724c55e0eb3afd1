package reconcile

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// ErrBadWeights is returned at engine construction when the configured
// factor weights are negative or do not sum to 1.0. This is a programmer
// error, not a runtime condition.
var ErrBadWeights = errors.New("factor weights must be non-negative and sum to 1.0")

// Config contains configuration for the reconciliation engine.
type Config struct {
	Weights      Weights
	TaxRates     []float64     // candidate GST rates for the amount factor
	AccountRules []AccountRule // ordered suggestion rules; defaults apply when empty
}

// DefaultConfig returns the standard engine configuration.
func DefaultConfig() Config {
	return Config{
		Weights:  DefaultWeights(),
		TaxRates: DefaultTaxRates,
	}
}

// Engine matches bank transactions against open invoices. One Engine is safe
// for concurrent runs: all per-run state lives in Reconcile.
type Engine struct {
	logger    ectologger.Logger
	scorer    *Scorer
	suggester *Suggester
	weights   Weights
}

// NewEngine creates a reconciliation engine, failing fast on invalid weights.
func NewEngine(logger ectologger.Logger, cfg Config) (*Engine, error) {
	if !cfg.Weights.valid() {
		return nil, fmt.Errorf("%w: got sum %v", ErrBadWeights, cfg.Weights.sum())
	}
	return &Engine{
		logger:    logger,
		scorer:    NewScorer(cfg.TaxRates),
		suggester: NewSuggester(cfg.AccountRules),
		weights:   cfg.Weights,
	}, nil
}

// Reconcile assigns each bank transaction to the invoice it most likely
// settles. Transactions are processed in the order supplied by the caller:
// matching is greedy, and an invoice consumed by an earlier transaction is
// gone for later ones. Every transaction yields exactly one MatchResult,
// even with zero candidates.
//
// The loop is sequential by design; invoice consumption is a serialization
// point, so parallel scoring would need a re-validating commit phase for no
// gain at statement-batch sizes. The context is checked between transactions;
// results produced before a cancellation are final.
func (e *Engine) Reconcile(ctx context.Context, transactions []*models.BankTransaction, invoices []*models.Invoice) ([]models.MatchResult, error) {
	ctx, span := tracing.StartSpan(ctx, "reconcile.Engine.Reconcile")
	defer span.End()

	log := e.logger.WithContext(ctx).WithFields(map[string]any{
		"transaction_count": len(transactions),
		"invoice_count":     len(invoices),
	})
	log.Debug("Starting reconciliation run")

	results := make([]models.MatchResult, 0, len(transactions))

	for _, txn := range transactions {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		results = append(results, e.matchOne(txn, invoices))
	}

	log.WithFields(map[string]any{"result_count": len(results)}).Debug("Reconciliation run complete")
	return results, nil
}

// matchOne scores a single transaction against all available invoices and
// produces its MatchResult, consuming the best invoice when the tier allows
// auto-matching.
func (e *Engine) matchOne(txn *models.BankTransaction, invoices []*models.Invoice) models.MatchResult {
	var (
		best        *models.Invoice
		bestFactors models.FactorScores
		bestScore   float64 = -1
		bestDays    int
		bestRate    *float64
	)

	direction := txn.Direction()

	for _, inv := range invoices {
		// Hard filter: direction mismatch makes a match nonsensical, and a
		// consumed invoice is no longer available.
		if inv.IsMatched || inv.Direction.SettledBy() != direction {
			continue
		}

		factors, rate := e.scoreFactors(txn, inv)
		score := e.weights.Composite(factors)
		days := daysBetween(txn.Date, inv.Date)

		if better(score, days, inv.Number, bestScore, bestDays, best) {
			best = inv
			bestFactors = factors
			bestScore = score
			bestDays = days
			bestRate = rate
		}
	}

	if best == nil {
		// No candidates at all: a legitimate UNMAPPED result, not an error.
		return e.unmappedResult(txn, models.FactorScores{}, 0, nil, nil)
	}

	tier, action := Classify(bestScore)

	if AutoMatchable(tier) {
		best.IsMatched = true
		number := best.Number
		confidence := bestScore
		txn.MatchedInvoiceID = &number
		txn.MatchConfidence = &confidence

		return models.MatchResult{
			TenantID:        txn.TenantID,
			TransactionID:   txn.ID,
			InvoiceNumber:   &number,
			Score:           bestScore,
			Factors:         bestFactors,
			Tier:            tier,
			Action:          action,
			DetectedTaxRate: bestRate,
			Rationale:       rationale(bestFactors, bestRate),
			Status:          models.MatchResultStatusAutoMatched,
		}
	}

	if tier == models.TierUnmapped {
		return e.unmappedResult(txn, bestFactors, bestScore, bestRate, best)
	}

	// MODERATE or LOW: report the best candidate but leave the invoice in
	// the pool for a possibly better later transaction.
	number := best.Number
	return models.MatchResult{
		TenantID:        txn.TenantID,
		TransactionID:   txn.ID,
		InvoiceNumber:   &number,
		Score:           bestScore,
		Factors:         bestFactors,
		Tier:            tier,
		Action:          action,
		DetectedTaxRate: bestRate,
		Rationale:       rationale(bestFactors, bestRate),
		Status:          models.MatchResultStatusPending,
	}
}

// scoreFactors computes all five factor scores for a transaction/invoice
// pair. The reference factor looks at both the reference field and the
// description, since gateways put the invoice number in either.
func (e *Engine) scoreFactors(txn *models.BankTransaction, inv *models.Invoice) (models.FactorScores, *float64) {
	amountScore, rate := e.scorer.AmountScore(txn.AbsAmount(), inv.Amount)
	return models.FactorScores{
		Amount:      amountScore,
		Date:        e.scorer.DateScore(txn.Date, inv.Date),
		Reference:   e.scorer.ReferenceScore(txn.Reference+" "+txn.Description, inv.Number),
		Party:       e.scorer.PartyScore(inv.PartyName, txn.Description),
		Description: e.scorer.DescriptionScore(txn.Description, inv.Description),
	}, rate
}

// better implements the deterministic candidate ordering: highest composite
// score, then smallest absolute date difference, then smallest invoice
// number.
func better(score float64, days int, number string, bestScore float64, bestDays int, best *models.Invoice) bool {
	if best == nil {
		return true
	}
	if score != bestScore {
		return score > bestScore
	}
	if days != bestDays {
		return days < bestDays
	}
	return number < best.Number
}

// unmappedResult builds the terminal result for a transaction no invoice can
// settle, with a ledger account suggestion for manual handling.
func (e *Engine) unmappedResult(txn *models.BankTransaction, factors models.FactorScores, score float64, rate *float64, best *models.Invoice) models.MatchResult {
	account := e.suggester.Suggest(txn.Direction(), txn.Description)
	result := models.MatchResult{
		TenantID:         txn.TenantID,
		TransactionID:    txn.ID,
		Score:            score,
		Factors:          factors,
		Tier:             models.TierUnmapped,
		Action:           models.ActionSuggestLedger,
		DetectedTaxRate:  rate,
		SuggestedAccount: &account,
		Rationale:        rationale(factors, rate),
		Status:           models.MatchResultStatusUnmapped,
	}
	if best != nil {
		number := best.Number
		result.InvoiceNumber = &number
	}
	return result
}

// rationale summarizes which sub-matches fired, for the review UI and audit
// trail.
func rationale(f models.FactorScores, rate *float64) string {
	var parts []string

	switch {
	case f.Amount >= 100:
		parts = append(parts, "exact amount match")
	case rate != nil:
		parts = append(parts, fmt.Sprintf("GST-aware amount match at %.0f%%", *rate*100))
	case f.Amount > 0:
		parts = append(parts, fmt.Sprintf("amount within %.0f%% of invoice", (100-f.Amount)/2))
	}

	switch {
	case f.Date >= 100:
		parts = append(parts, "same-day date match")
	case f.Date >= 70:
		parts = append(parts, "date within settlement window")
	}

	switch {
	case f.Reference >= 100:
		parts = append(parts, "exact reference match")
	case f.Reference >= 80:
		parts = append(parts, "reference substring match")
	}

	switch {
	case f.Party >= 80:
		parts = append(parts, "all party tokens in narration")
	case f.Party >= 60:
		parts = append(parts, "partial party token match")
	}

	if f.Description > 0 {
		parts = append(parts, "description word overlap")
	}

	if len(parts) == 0 {
		return "no sub-matches fired"
	}
	return strings.Join(parts, "; ")
}
