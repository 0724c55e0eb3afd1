package reconcile

import (
	"context"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"

	"github.com/Ramsey-B/clover/internal/repositories/banktransaction"
	"github.com/Ramsey-B/clover/internal/repositories/invoice"
	"github.com/Ramsey-B/clover/internal/repositories/matchresult"
	"github.com/Ramsey-B/clover/internal/repositories/reconciliationrun"
	"github.com/Ramsey-B/clover/pkg/events"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// Service runs the reconciliation pipeline against stored state: load the
// unmatched transactions and open invoices for a tenant, run the engine,
// persist the results and emit events for downstream consumers.
type Service struct {
	log        ectologger.Logger
	engine     *Engine
	normalizer *Normalizer
	txnRepo    *banktransaction.Repository
	invRepo    *invoice.Repository
	resultRepo *matchresult.Repository
	runRepo    *reconciliationrun.Repository
	emitter    *events.Emitter
}

// NewService creates a new reconciliation service. The emitter may be nil
// when Kafka is disabled.
func NewService(
	log ectologger.Logger,
	engine *Engine,
	txnRepo *banktransaction.Repository,
	invRepo *invoice.Repository,
	resultRepo *matchresult.Repository,
	runRepo *reconciliationrun.Repository,
	emitter *events.Emitter,
) *Service {
	return &Service{
		log:        log,
		engine:     engine,
		normalizer: NewNormalizer(),
		txnRepo:    txnRepo,
		invRepo:    invRepo,
		resultRepo: resultRepo,
		runRepo:    runRepo,
		emitter:    emitter,
	}
}

// LoadTransactions normalizes and stores a statement batch. Rows that fail to
// parse are returned per-row so the caller can report them without losing the
// rest of the batch.
func (s *Service) LoadTransactions(ctx context.Context, tenantID string, raws []RawBankTransaction) (int, []error) {
	ctx, span := tracing.StartSpan(ctx, "reconcile.Service.LoadTransactions")
	defer span.End()

	var (
		txns     []*models.BankTransaction
		parseErr []error
	)
	for _, raw := range raws {
		txn, err := s.normalizer.NormalizeTransaction(raw)
		if err != nil {
			parseErr = append(parseErr, err)
			continue
		}
		if txn.ID == "" {
			txn.ID = uuid.NewString()
		}
		txn.TenantID = tenantID
		txns = append(txns, txn)
	}

	if err := s.txnRepo.CreateBatch(ctx, txns); err != nil {
		return 0, append(parseErr, err)
	}

	return len(txns), parseErr
}

// LoadInvoices normalizes and stores an invoice batch.
func (s *Service) LoadInvoices(ctx context.Context, tenantID string, raws []RawInvoice) (int, []error) {
	ctx, span := tracing.StartSpan(ctx, "reconcile.Service.LoadInvoices")
	defer span.End()

	var (
		invs     []*models.Invoice
		parseErr []error
	)
	for _, raw := range raws {
		inv, err := s.normalizer.NormalizeInvoice(raw)
		if err != nil {
			parseErr = append(parseErr, err)
			continue
		}
		inv.TenantID = tenantID
		invs = append(invs, inv)
	}

	if err := s.invRepo.CreateBatch(ctx, invs); err != nil {
		return 0, append(parseErr, err)
	}

	return len(invs), parseErr
}

// Run reconciles all unmatched transactions for a tenant against its open
// invoices and returns the completed run record.
func (s *Service) Run(ctx context.Context, tenantID string) (*models.ReconciliationRun, error) {
	ctx, span := tracing.StartSpan(ctx, "reconcile.Service.Run")
	defer span.End()

	log := s.log.WithContext(ctx).WithFields(map[string]any{"tenant_id": tenantID})

	run, err := s.runRepo.Create(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	transactions, err := s.txnRepo.ListUnmatched(ctx, tenantID)
	if err != nil {
		_ = s.runRepo.Fail(ctx, tenantID, run.ID)
		return nil, err
	}
	invoices, err := s.invRepo.ListOpen(ctx, tenantID)
	if err != nil {
		_ = s.runRepo.Fail(ctx, tenantID, run.ID)
		return nil, err
	}

	results, err := s.engine.Reconcile(ctx, transactions, invoices)
	if err != nil {
		log.WithError(err).Error("Reconciliation engine run failed")
		_ = s.runRepo.Fail(ctx, tenantID, run.ID)
		return nil, err
	}

	if err := s.persistResults(ctx, run, transactions, results); err != nil {
		_ = s.runRepo.Fail(ctx, tenantID, run.ID)
		return nil, err
	}

	run.Transactions = len(results)
	for i := range results {
		switch results[i].Status {
		case models.MatchResultStatusAutoMatched:
			run.AutoMatched++
		case models.MatchResultStatusUnmapped:
			run.Unmapped++
		default:
			run.InReview++
		}
	}

	if err := s.runRepo.Complete(ctx, run); err != nil {
		return nil, err
	}

	if s.emitter != nil {
		s.emitResults(ctx, run, results)
	}

	log.WithFields(map[string]any{
		"run_id":       run.ID,
		"transactions": run.Transactions,
		"auto_matched": run.AutoMatched,
		"in_review":    run.InReview,
		"unmapped":     run.Unmapped,
	}).Info("Reconciliation run completed")

	return run, nil
}

// persistResults writes the run's results and updates transaction and invoice
// state for auto-matched pairs.
func (s *Service) persistResults(ctx context.Context, run *models.ReconciliationRun, transactions []*models.BankTransaction, results []models.MatchResult) error {
	ctx, span := tracing.StartSpan(ctx, "reconcile.Service.persistResults")
	defer span.End()

	for i := range results {
		results[i].RunID = run.ID
	}

	if err := s.resultRepo.CreateBatch(ctx, results); err != nil {
		return err
	}

	var consumed []string
	for _, txn := range transactions {
		if txn.MatchedInvoiceID == nil {
			continue
		}
		if err := s.txnRepo.MarkMatched(ctx, run.TenantID, txn.ID, *txn.MatchedInvoiceID, *txn.MatchConfidence); err != nil {
			return err
		}
		consumed = append(consumed, *txn.MatchedInvoiceID)
	}

	return s.invRepo.MarkMatched(ctx, run.TenantID, consumed)
}

// emitResults publishes per-result events plus the run summary. Emission is
// best-effort: the run already committed, so failures are logged and dropped.
func (s *Service) emitResults(ctx context.Context, run *models.ReconciliationRun, results []models.MatchResult) {
	for i := range results {
		var err error
		switch results[i].Status {
		case models.MatchResultStatusAutoMatched:
			err = s.emitter.EmitMatchCreated(ctx, &results[i])
		case models.MatchResultStatusUnmapped:
			err = s.emitter.EmitMatchUnmapped(ctx, &results[i])
		default:
			err = s.emitter.EmitMatchReview(ctx, &results[i])
		}
		if err != nil {
			s.log.WithContext(ctx).WithError(err).WithFields(map[string]any{
				"result_id": results[i].ID,
			}).Warn("Failed to emit match event")
		}
	}

	if err := s.emitter.EmitRunCompleted(ctx, run); err != nil {
		s.log.WithContext(ctx).WithError(err).Warn("Failed to emit run completed event")
	}
}

// Review resolves a pending match result. Approval consumes the invoice;
// rejection returns it to the open pool and detaches the transaction.
func (s *Service) Review(ctx context.Context, tenantID string, resultID string, approve bool, resolvedBy *string) (*models.MatchResult, error) {
	ctx, span := tracing.StartSpan(ctx, "reconcile.Service.Review")
	defer span.End()

	status := models.MatchResultStatusApproved
	if !approve {
		status = models.MatchResultStatusRejected
	}

	result, err := s.resultRepo.Resolve(ctx, tenantID, resultID, status, resolvedBy)
	if err != nil {
		return nil, err
	}

	if result.InvoiceNumber != nil {
		if approve {
			if err := s.txnRepo.MarkMatched(ctx, tenantID, result.TransactionID, *result.InvoiceNumber, result.Score); err != nil {
				return nil, err
			}
			if err := s.invRepo.MarkMatched(ctx, tenantID, []string{*result.InvoiceNumber}); err != nil {
				return nil, err
			}
		} else {
			if err := s.invRepo.Reopen(ctx, tenantID, *result.InvoiceNumber); err != nil {
				return nil, err
			}
			if err := s.txnRepo.ClearMatch(ctx, tenantID, result.TransactionID); err != nil {
				return nil, err
			}
		}
	}

	if s.emitter != nil {
		var emitErr error
		if approve {
			emitErr = s.emitter.EmitMatchApproved(ctx, result)
		} else {
			emitErr = s.emitter.EmitMatchRejected(ctx, result)
		}
		if emitErr != nil {
			s.log.WithContext(ctx).WithError(emitErr).Warn("Failed to emit review event")
		}
	}

	return result, nil
}
