package reconciliationrun

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

const columns = "id, tenant_id, status, transactions, auto_matched, in_review, unmapped, started_at, completed_at"

// Repository handles reconciliation run persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new reconciliation run repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Create records the start of a run.
func (r *Repository) Create(ctx context.Context, tenantID string) (*models.ReconciliationRun, error) {
	ctx, span := tracing.StartSpan(ctx, "reconciliationrun.Repository.Create")
	defer span.End()

	run := &models.ReconciliationRun{
		ID:        uuid.New().String(),
		TenantID:  tenantID,
		Status:    models.RunStatusRunning,
		StartedAt: time.Now().UTC(),
	}

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto("reconciliation_runs")
	sb.Cols("id", "tenant_id", "status", "started_at")
	sb.Values(run.ID, run.TenantID, run.Status, run.StartedAt)

	query, args := sb.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to create reconciliation run")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to create reconciliation run")
	}

	return run, nil
}

// Complete records the final counters of a successful run.
func (r *Repository) Complete(ctx context.Context, run *models.ReconciliationRun) error {
	ctx, span := tracing.StartSpan(ctx, "reconciliationrun.Repository.Complete")
	defer span.End()

	now := time.Now().UTC()
	run.Status = models.RunStatusCompleted
	run.CompletedAt = &now

	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update("reconciliation_runs")
	sb.Set(
		sb.Assign("status", run.Status),
		sb.Assign("transactions", run.Transactions),
		sb.Assign("auto_matched", run.AutoMatched),
		sb.Assign("in_review", run.InReview),
		sb.Assign("unmapped", run.Unmapped),
		sb.Assign("completed_at", run.CompletedAt),
	)
	sb.Where(
		sb.Equal("id", run.ID),
		sb.Equal("tenant_id", run.TenantID),
	)

	query, args := sb.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to complete reconciliation run")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to complete reconciliation run")
	}

	return nil
}

// Fail marks a run failed. Counters keep whatever was recorded before the
// failure.
func (r *Repository) Fail(ctx context.Context, tenantID string, id string) error {
	ctx, span := tracing.StartSpan(ctx, "reconciliationrun.Repository.Fail")
	defer span.End()

	now := time.Now().UTC()
	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update("reconciliation_runs")
	sb.Set(
		sb.Assign("status", models.RunStatusFailed),
		sb.Assign("completed_at", now),
	)
	sb.Where(
		sb.Equal("id", id),
		sb.Equal("tenant_id", tenantID),
	)

	query, args := sb.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to mark reconciliation run failed")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to mark reconciliation run failed")
	}

	return nil
}

// Get retrieves a run by ID
func (r *Repository) Get(ctx context.Context, tenantID string, id string) (*models.ReconciliationRun, error) {
	ctx, span := tracing.StartSpan(ctx, "reconciliationrun.Repository.Get")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns)
	sb.From("reconciliation_runs")
	sb.Where(
		sb.Equal("id", id),
		sb.Equal("tenant_id", tenantID),
	)

	query, args := sb.Build()
	var run models.ReconciliationRun
	if err := r.db.GetContext(ctx, &run, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("reconciliation run %s not found", id))
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get reconciliation run")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get reconciliation run")
	}

	return &run, nil
}

// List retrieves recent runs for a tenant, newest first.
func (r *Repository) List(ctx context.Context, tenantID string, limit int) ([]models.ReconciliationRun, error) {
	ctx, span := tracing.StartSpan(ctx, "reconciliationrun.Repository.List")
	defer span.End()

	if limit < 1 || limit > 500 {
		limit = 50
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns)
	sb.From("reconciliation_runs")
	sb.Where(sb.Equal("tenant_id", tenantID))
	sb.OrderBy("started_at DESC")
	sb.Limit(limit)

	query, args := sb.Build()
	var runs []models.ReconciliationRun
	if err := r.db.SelectContext(ctx, &runs, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list reconciliation runs")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list reconciliation runs")
	}

	return runs, nil
}
