package banktransaction

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/clover/pkg/database"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

const columns = "id, tenant_id, date, description, amount, reference, running_balance, normalized_description, normalized_reference, matched_invoice_id, match_confidence, created_at"

// Repository handles bank transaction persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new bank transaction repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Create stores a single bank transaction
func (r *Repository) Create(ctx context.Context, txn *models.BankTransaction) (*models.BankTransaction, error) {
	ctx, span := tracing.StartSpan(ctx, "banktransaction.Repository.Create")
	defer span.End()

	if txn.ID == "" {
		txn.ID = uuid.New().String()
	}
	txn.CreatedAt = time.Now().UTC()

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto("bank_transactions")
	sb.Cols("id", "tenant_id", "date", "description", "amount", "reference", "running_balance", "normalized_description", "normalized_reference", "created_at")
	sb.Values(txn.ID, txn.TenantID, txn.Date, txn.Description, txn.Amount, txn.Reference, txn.RunningBalance, txn.NormalizedDescription, txn.NormalizedReference, txn.CreatedAt)

	query, args := sb.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"transaction_id": txn.ID}).Error("Failed to create bank transaction")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to create bank transaction")
	}

	return txn, nil
}

// CreateBatch stores a statement batch. Rows already present (same id) are
// skipped, so re-delivering a statement file is harmless.
func (r *Repository) CreateBatch(ctx context.Context, txns []*models.BankTransaction) error {
	ctx, span := tracing.StartSpan(ctx, "banktransaction.Repository.CreateBatch")
	defer span.End()

	if len(txns) == 0 {
		return nil
	}

	now := time.Now().UTC()
	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto("bank_transactions")
	sb.Cols("id", "tenant_id", "date", "description", "amount", "reference", "running_balance", "normalized_description", "normalized_reference", "created_at")

	for _, txn := range txns {
		if txn.ID == "" {
			txn.ID = uuid.New().String()
		}
		txn.CreatedAt = now
		sb.Values(txn.ID, txn.TenantID, txn.Date, txn.Description, txn.Amount, txn.Reference, txn.RunningBalance, txn.NormalizedDescription, txn.NormalizedReference, txn.CreatedAt)
	}

	query, args := sb.Build()
	query += " ON CONFLICT (id) DO NOTHING"

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to create bank transactions batch")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to create bank transactions")
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{"count": len(txns)}).Debug("Created bank transactions batch")
	return nil
}

// Get retrieves a bank transaction by ID
func (r *Repository) Get(ctx context.Context, tenantID string, id string) (*models.BankTransaction, error) {
	ctx, span := tracing.StartSpan(ctx, "banktransaction.Repository.Get")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns)
	sb.From("bank_transactions")
	sb.Where(
		sb.Equal("id", id),
		sb.Equal("tenant_id", tenantID),
	)

	query, args := sb.Build()
	var txn models.BankTransaction
	if err := r.db.GetContext(ctx, &txn, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("bank transaction %s not found", id))
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get bank transaction")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get bank transaction")
	}

	return &txn, nil
}

// ListUnmatched retrieves transactions not yet consumed by a match, in
// statement order. The engine depends on this ordering being stable.
func (r *Repository) ListUnmatched(ctx context.Context, tenantID string) ([]*models.BankTransaction, error) {
	ctx, span := tracing.StartSpan(ctx, "banktransaction.Repository.ListUnmatched")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns)
	sb.From("bank_transactions")
	sb.Where(
		sb.Equal("tenant_id", tenantID),
		sb.IsNull("matched_invoice_id"),
	)
	sb.OrderBy("date ASC", "id ASC")

	query, args := sb.Build()
	var txns []*models.BankTransaction
	if err := r.db.SelectContext(ctx, &txns, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list unmatched bank transactions")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list unmatched bank transactions")
	}

	return txns, nil
}

// MarkMatched records the invoice a transaction settled and the confidence of
// the match.
func (r *Repository) MarkMatched(ctx context.Context, tenantID string, id string, invoiceNumber string, confidence float64) error {
	ctx, span := tracing.StartSpan(ctx, "banktransaction.Repository.MarkMatched")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update("bank_transactions")
	sb.Set(
		sb.Assign("matched_invoice_id", invoiceNumber),
		sb.Assign("match_confidence", confidence),
	)
	sb.Where(
		sb.Equal("id", id),
		sb.Equal("tenant_id", tenantID),
	)

	query, args := sb.Build()
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to mark bank transaction matched")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to mark bank transaction matched")
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("bank transaction %s not found", id))
	}

	return nil
}

// ClearMatch detaches a transaction from its invoice after a rejected review.
func (r *Repository) ClearMatch(ctx context.Context, tenantID string, id string) error {
	ctx, span := tracing.StartSpan(ctx, "banktransaction.Repository.ClearMatch")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update("bank_transactions")
	sb.Set(
		sb.Assign("matched_invoice_id", nil),
		sb.Assign("match_confidence", nil),
	)
	sb.Where(
		sb.Equal("id", id),
		sb.Equal("tenant_id", tenantID),
	)

	query, args := sb.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to clear bank transaction match")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to clear bank transaction match")
	}

	return nil
}
