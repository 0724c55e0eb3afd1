package reconcile

import (
	"context"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/clover/pkg/models"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	engine, err := NewEngine(logger, DefaultConfig())
	require.NoError(t, err)
	return engine
}

func testTxn(id, date, amount, description, reference string) *models.BankTransaction {
	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		panic(err)
	}
	return &models.BankTransaction{
		ID:          id,
		TenantID:    "tenant-1",
		Date:        day,
		Description: description,
		Amount:      d(amount),
		Reference:   reference,
	}
}

func testInvoice(number, date, amount, party, description string, direction models.InvoiceDirection) *models.Invoice {
	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		panic(err)
	}
	return &models.Invoice{
		Number:      number,
		TenantID:    "tenant-1",
		PartyName:   party,
		Amount:      d(amount),
		Date:        day,
		Description: description,
		Direction:   direction,
	}
}

func TestNewEngine(t *testing.T) {
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})

	t.Run("DefaultConfig", func(t *testing.T) {
		engine, err := NewEngine(logger, DefaultConfig())
		require.NoError(t, err)
		assert.NotNil(t, engine)
	})

	t.Run("BadWeightSum", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Weights.Amount = 0.9
		_, err := NewEngine(logger, cfg)
		assert.ErrorIs(t, err, ErrBadWeights)
	})

	t.Run("NegativeWeight", func(t *testing.T) {
		cfg := Config{Weights: Weights{Amount: 1.5, Date: -0.5}}
		_, err := NewEngine(logger, cfg)
		assert.ErrorIs(t, err, ErrBadWeights)
	})
}

func TestEngine_Reconcile(t *testing.T) {
	ctx := context.Background()

	t.Run("TaxAdjustedAutoMatch", func(t *testing.T) {
		engine := newTestEngine(t)
		txn := testTxn("txn-1", "2024-01-15", "59000", "NEFT CR ABC TECHNOLOGIES INV2024001 SOFTWARE PAYMENT", "NEFT789123")
		inv := testInvoice("INV-2024-001", "2024-01-15", "50000", "ABC Technologies Pvt Ltd", "Software development services", models.InvoiceDirectionSales)

		results, err := engine.Reconcile(ctx, []*models.BankTransaction{txn}, []*models.Invoice{inv})
		require.NoError(t, err)
		require.Len(t, results, 1)

		r := results[0]
		assert.Equal(t, 95.0, r.Factors.Amount)
		assert.Equal(t, 100.0, r.Factors.Date)
		assert.Equal(t, 80.0, r.Factors.Reference)
		assert.Equal(t, 80.0, r.Factors.Party)
		assert.Equal(t, 60.0, r.Factors.Description)
		assert.InDelta(t, 89.25, r.Score, 1e-9)
		assert.Equal(t, models.TierHigh, r.Tier)
		assert.Equal(t, models.ActionAutoMatch, r.Action)
		assert.Equal(t, models.MatchResultStatusAutoMatched, r.Status)
		require.NotNil(t, r.DetectedTaxRate)
		assert.Equal(t, 0.18, *r.DetectedTaxRate)
		require.NotNil(t, r.InvoiceNumber)
		assert.Equal(t, "INV-2024-001", *r.InvoiceNumber)

		// auto-match consumes the invoice and annotates the transaction
		assert.True(t, inv.IsMatched)
		require.NotNil(t, txn.MatchedInvoiceID)
		assert.Equal(t, "INV-2024-001", *txn.MatchedInvoiceID)
		require.NotNil(t, txn.MatchConfidence)
		assert.InDelta(t, 89.25, *txn.MatchConfidence, 1e-9)
	})

	t.Run("CloserDateWins", func(t *testing.T) {
		engine := newTestEngine(t)
		// identical invoices except date: the one nearer the transaction
		// scores a higher date band and is reported as the candidate
		txn := testTxn("txn-1", "2024-01-11", "50000", "IMPS ACME SUPPLIES", "")
		early := testInvoice("INV-A", "2024-01-10", "50000", "Acme Supplies", "", models.InvoiceDirectionSales)
		late := testInvoice("INV-B", "2024-01-20", "50000", "Acme Supplies", "", models.InvoiceDirectionSales)

		results, err := engine.Reconcile(ctx, []*models.BankTransaction{txn}, []*models.Invoice{late, early})
		require.NoError(t, err)
		require.Len(t, results, 1)

		require.NotNil(t, results[0].InvoiceNumber)
		assert.Equal(t, "INV-A", *results[0].InvoiceNumber)
	})

	t.Run("DayDiffBreaksEqualScores", func(t *testing.T) {
		engine := newTestEngine(t)
		// both invoices land in the same date band (90) with identical amounts,
		// so only the raw day difference separates them
		txn := testTxn("txn-1", "2024-01-15", "50000", "IMPS ACME SUPPLIES", "")
		closer := testInvoice("INV-Z", "2024-01-16", "50000", "Acme Supplies", "", models.InvoiceDirectionSales)
		farther := testInvoice("INV-A", "2024-01-17", "50000", "Acme Supplies", "", models.InvoiceDirectionSales)

		results, err := engine.Reconcile(ctx, []*models.BankTransaction{txn}, []*models.Invoice{farther, closer})
		require.NoError(t, err)
		require.NotNil(t, results[0].InvoiceNumber)
		assert.Equal(t, "INV-Z", *results[0].InvoiceNumber)
	})

	t.Run("SmallerNumberBreaksFullTie", func(t *testing.T) {
		engine := newTestEngine(t)
		txn := testTxn("txn-1", "2024-01-15", "50000", "IMPS ACME SUPPLIES", "")
		a := testInvoice("INV-001", "2024-01-15", "50000", "Acme Supplies", "", models.InvoiceDirectionSales)
		b := testInvoice("INV-002", "2024-01-15", "50000", "Acme Supplies", "", models.InvoiceDirectionSales)

		// order of the invoice slice must not matter
		for _, pool := range [][]*models.Invoice{{a, b}, {b, a}} {
			a.IsMatched, b.IsMatched = false, false
			txn.MatchedInvoiceID, txn.MatchConfidence = nil, nil

			results, err := engine.Reconcile(ctx, []*models.BankTransaction{txn}, pool)
			require.NoError(t, err)
			require.NotNil(t, results[0].InvoiceNumber)
			assert.Equal(t, "INV-001", *results[0].InvoiceNumber)
		}
	})

	t.Run("DirectionIsHardFilter", func(t *testing.T) {
		engine := newTestEngine(t)
		// debit transaction, sales invoice: a perfect score on every factor
		// still cannot match
		txn := testTxn("txn-1", "2024-01-15", "-50000", "NEFT DR ACME SUPPLIES INV-001", "INV-001")
		inv := testInvoice("INV-001", "2024-01-15", "50000", "Acme Supplies", "", models.InvoiceDirectionSales)

		results, err := engine.Reconcile(ctx, []*models.BankTransaction{txn}, []*models.Invoice{inv})
		require.NoError(t, err)
		require.Len(t, results, 1)

		assert.Equal(t, models.TierUnmapped, results[0].Tier)
		assert.Nil(t, results[0].InvoiceNumber)
		assert.False(t, inv.IsMatched)
	})

	t.Run("DebitMatchesPurchase", func(t *testing.T) {
		engine := newTestEngine(t)
		txn := testTxn("txn-1", "2024-01-15", "-50000", "NEFT DR ACME SUPPLIES INV-001", "INV-001")
		inv := testInvoice("INV-001", "2024-01-15", "50000", "Acme Supplies", "", models.InvoiceDirectionPurchase)

		results, err := engine.Reconcile(ctx, []*models.BankTransaction{txn}, []*models.Invoice{inv})
		require.NoError(t, err)
		assert.Equal(t, models.MatchResultStatusAutoMatched, results[0].Status)
		assert.True(t, inv.IsMatched)
	})

	t.Run("ConsumedInvoiceUnavailable", func(t *testing.T) {
		engine := newTestEngine(t)
		first := testTxn("txn-1", "2024-01-11", "50000", "IMPS ACME SUPPLIES INV-A", "")
		second := testTxn("txn-2", "2024-01-19", "50000", "IMPS ACME SUPPLIES INV-B", "")
		early := testInvoice("INV-A", "2024-01-10", "50000", "Acme Supplies", "", models.InvoiceDirectionSales)
		late := testInvoice("INV-B", "2024-01-20", "50000", "Acme Supplies", "", models.InvoiceDirectionSales)

		results, err := engine.Reconcile(ctx, []*models.BankTransaction{first, second}, []*models.Invoice{early, late})
		require.NoError(t, err)
		require.Len(t, results, 2)

		assert.Equal(t, "INV-A", *results[0].InvoiceNumber)
		assert.Equal(t, "INV-B", *results[1].InvoiceNumber)
		assert.True(t, early.IsMatched)
		assert.True(t, late.IsMatched)
	})

	t.Run("ModerateDoesNotConsume", func(t *testing.T) {
		engine := newTestEngine(t)
		// amount 10% off with no tax-rate fit, party match, same day:
		// 0.35*80 + 0.25*100 + 0.15*80 = 65, MODERATE
		txn := testTxn("txn-1", "2024-01-15", "55000", "NEFT CR ACME SUPPLIES", "")
		inv := testInvoice("INV-001", "2024-01-15", "50000", "Acme Supplies", "Consulting", models.InvoiceDirectionSales)

		results, err := engine.Reconcile(ctx, []*models.BankTransaction{txn}, []*models.Invoice{inv})
		require.NoError(t, err)
		require.Len(t, results, 1)

		r := results[0]
		assert.InDelta(t, 65.0, r.Score, 1e-9)
		assert.Equal(t, models.TierModerate, r.Tier)
		assert.Equal(t, models.ActionManualReview, r.Action)
		assert.Equal(t, models.MatchResultStatusPending, r.Status)
		require.NotNil(t, r.InvoiceNumber)
		assert.Equal(t, "INV-001", *r.InvoiceNumber)

		// the candidate is reported but stays in the pool
		assert.False(t, inv.IsMatched)
		assert.Nil(t, txn.MatchedInvoiceID)
	})

	t.Run("NoCandidatesUnmapped", func(t *testing.T) {
		engine := newTestEngine(t)
		txn := testTxn("txn-1", "2024-01-15", "1250", "INTEREST CREDIT SAVINGS", "")

		results, err := engine.Reconcile(ctx, []*models.BankTransaction{txn}, nil)
		require.NoError(t, err)
		require.Len(t, results, 1)

		r := results[0]
		assert.Equal(t, models.TierUnmapped, r.Tier)
		assert.Equal(t, models.ActionSuggestLedger, r.Action)
		assert.Equal(t, models.MatchResultStatusUnmapped, r.Status)
		require.NotNil(t, r.SuggestedAccount)
		assert.Equal(t, AccountInterestIncome, *r.SuggestedAccount)
		assert.Equal(t, "no sub-matches fired", r.Rationale)
	})

	t.Run("OneResultPerTransaction", func(t *testing.T) {
		engine := newTestEngine(t)
		txns := []*models.BankTransaction{
			testTxn("txn-1", "2024-01-15", "59000", "NEFT CR ABC TECHNOLOGIES INV2024001", ""),
			testTxn("txn-2", "2024-01-16", "-2400", "BANK CHARGES Q4", ""),
			testTxn("txn-3", "2024-01-17", "99999", "RANDOM CREDIT", ""),
		}
		inv := testInvoice("INV-2024-001", "2024-01-15", "50000", "ABC Technologies Pvt Ltd", "", models.InvoiceDirectionSales)

		results, err := engine.Reconcile(ctx, txns, []*models.Invoice{inv})
		require.NoError(t, err)
		require.Len(t, results, len(txns))
		for i, r := range results {
			assert.Equal(t, txns[i].ID, r.TransactionID)
		}
	})

	t.Run("CancelledContext", func(t *testing.T) {
		engine := newTestEngine(t)
		cancelled, cancel := context.WithCancel(context.Background())
		cancel()

		txn := testTxn("txn-1", "2024-01-15", "50000", "IMPS ACME", "")
		results, err := engine.Reconcile(cancelled, []*models.BankTransaction{txn}, nil)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Empty(t, results)
	})
}
