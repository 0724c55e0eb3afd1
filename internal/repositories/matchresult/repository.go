package matchresult

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"

	"github.com/Ramsey-B/clover/pkg/database"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

const columns = "id, tenant_id, run_id, transaction_id, invoice_number, score, factors, tier, action, detected_tax_rate, suggested_account, rationale, status, created_at, resolved_at, resolved_by"

// row maps a match result onto its table shape: the factor breakdown and the
// suggested account are jsonb columns.
type row struct {
	models.MatchResult
	Factors          database.JSONB[models.FactorScores]   `db:"factors"`
	SuggestedAccount database.JSONB[*models.LedgerAccount] `db:"suggested_account"`
}

func (r *row) toModel() models.MatchResult {
	result := r.MatchResult
	result.Factors = r.Factors.GetValue()
	result.SuggestedAccount = r.SuggestedAccount.GetValue()
	return result
}

// Repository handles match result persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new match result repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// CreateBatch stores the results of an engine run.
func (r *Repository) CreateBatch(ctx context.Context, results []models.MatchResult) error {
	ctx, span := tracing.StartSpan(ctx, "matchresult.Repository.CreateBatch")
	defer span.End()

	if len(results) == 0 {
		return nil
	}

	now := time.Now().UTC()
	sb := database.NewInsertBuilder()
	sb.InsertInto("match_results")
	sb.Cols("id", "tenant_id", "run_id", "transaction_id", "invoice_number", "score", "factors", "tier", "action", "detected_tax_rate", "suggested_account", "rationale", "status", "created_at")

	for i := range results {
		result := &results[i]
		if result.ID == "" {
			result.ID = uuid.New().String()
		}
		result.CreatedAt = now
		sb.Values(
			result.ID, result.TenantID, result.RunID, result.TransactionID, result.InvoiceNumber,
			result.Score, database.JSONB[models.FactorScores]{Data: result.Factors},
			result.Tier, result.Action, result.DetectedTaxRate,
			database.JSONB[*models.LedgerAccount]{Data: result.SuggestedAccount},
			result.Rationale, result.Status, result.CreatedAt,
		)
	}

	query, args := sb.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to create match results batch")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to create match results")
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{"count": len(results)}).Debug("Created match results batch")
	return nil
}

// Get retrieves a match result by ID
func (r *Repository) Get(ctx context.Context, tenantID string, id string) (*models.MatchResult, error) {
	ctx, span := tracing.StartSpan(ctx, "matchresult.Repository.Get")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select(columns)
	sb.From("match_results")
	sb.Where(
		sb.Equal("id", id),
		sb.Equal("tenant_id", tenantID),
	)

	query, args := sb.Build()
	var rec row
	if err := r.db.GetContext(ctx, &rec, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("match result %s not found", id))
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get match result")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get match result")
	}

	result := rec.toModel()
	return &result, nil
}

// List retrieves match results for a tenant, optionally filtered by run and
// status, highest score first.
func (r *Repository) List(ctx context.Context, tenantID string, runID string, status string, limit int) ([]models.MatchResult, error) {
	ctx, span := tracing.StartSpan(ctx, "matchresult.Repository.List")
	defer span.End()

	if limit < 1 || limit > 500 {
		limit = 100
	}

	sb := database.NewSelectBuilder()
	sb.Select(columns)
	sb.From("match_results")

	where := []string{sb.Equal("tenant_id", tenantID)}
	if runID != "" {
		where = append(where, sb.Equal("run_id", runID))
	}
	if status != "" {
		where = append(where, sb.Equal("status", status))
	}
	sb.Where(where...)
	sb.OrderBy("score DESC", "created_at DESC")
	sb.Limit(limit)

	query, args := sb.Build()
	var recs []row
	if err := r.db.SelectContext(ctx, &recs, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list match results")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list match results")
	}

	results := make([]models.MatchResult, len(recs))
	for i := range recs {
		results[i] = recs[i].toModel()
	}
	return results, nil
}

// Resolve moves a pending result to approved or rejected. Only pending
// results can be resolved; approving an auto-matched result is a no-op the
// caller should never attempt.
func (r *Repository) Resolve(ctx context.Context, tenantID string, id string, status string, resolvedBy *string) (*models.MatchResult, error) {
	ctx, span := tracing.StartSpan(ctx, "matchresult.Repository.Resolve")
	defer span.End()

	now := time.Now().UTC()
	sb := database.NewUpdateBuilder()
	sb.Update("match_results")
	sb.Set(
		sb.Assign("status", status),
		sb.Assign("resolved_at", now),
		sb.Assign("resolved_by", resolvedBy),
	)
	sb.Where(
		sb.Equal("id", id),
		sb.Equal("tenant_id", tenantID),
		sb.Equal("status", models.MatchResultStatusPending),
	)

	query, args := sb.Build()
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to resolve match result")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to resolve match result")
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return nil, httperror.NewHTTPError(http.StatusConflict, fmt.Sprintf("match result %s is not pending review", id))
	}

	return r.Get(ctx, tenantID, id)
}
