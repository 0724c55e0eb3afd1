package invoice

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/clover/pkg/database"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

const columns = "number, tenant_id, party_name, amount, date, description, direction, normalized_party, normalized_description, is_matched, created_at"

// Repository handles invoice persistence. Invoices are keyed by
// (tenant_id, number); the invoice number is the business identifier.
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new invoice repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Create stores a single invoice
func (r *Repository) Create(ctx context.Context, inv *models.Invoice) (*models.Invoice, error) {
	ctx, span := tracing.StartSpan(ctx, "invoice.Repository.Create")
	defer span.End()

	inv.CreatedAt = time.Now().UTC()

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto("invoices")
	sb.Cols("number", "tenant_id", "party_name", "amount", "date", "description", "direction", "normalized_party", "normalized_description", "is_matched", "created_at")
	sb.Values(inv.Number, inv.TenantID, inv.PartyName, inv.Amount, inv.Date, inv.Description, inv.Direction, inv.NormalizedParty, inv.NormalizedDescription, inv.IsMatched, inv.CreatedAt)

	query, args := sb.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"invoice_number": inv.Number}).Error("Failed to create invoice")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to create invoice")
	}

	return inv, nil
}

// CreateBatch stores an invoice batch. Re-delivered invoices update the open
// copy rather than duplicating it, unless already consumed by a match.
func (r *Repository) CreateBatch(ctx context.Context, invs []*models.Invoice) error {
	ctx, span := tracing.StartSpan(ctx, "invoice.Repository.CreateBatch")
	defer span.End()

	if len(invs) == 0 {
		return nil
	}

	now := time.Now().UTC()
	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto("invoices")
	sb.Cols("number", "tenant_id", "party_name", "amount", "date", "description", "direction", "normalized_party", "normalized_description", "is_matched", "created_at")

	for _, inv := range invs {
		inv.CreatedAt = now
		sb.Values(inv.Number, inv.TenantID, inv.PartyName, inv.Amount, inv.Date, inv.Description, inv.Direction, inv.NormalizedParty, inv.NormalizedDescription, inv.IsMatched, inv.CreatedAt)
	}

	query, args := sb.Build()
	query += " ON CONFLICT (tenant_id, number) DO UPDATE SET party_name = EXCLUDED.party_name, amount = EXCLUDED.amount, date = EXCLUDED.date, description = EXCLUDED.description, direction = EXCLUDED.direction, normalized_party = EXCLUDED.normalized_party, normalized_description = EXCLUDED.normalized_description WHERE invoices.is_matched = false"

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to create invoices batch")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to create invoices")
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{"count": len(invs)}).Debug("Created invoices batch")
	return nil
}

// Get retrieves an invoice by number
func (r *Repository) Get(ctx context.Context, tenantID string, number string) (*models.Invoice, error) {
	ctx, span := tracing.StartSpan(ctx, "invoice.Repository.Get")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns)
	sb.From("invoices")
	sb.Where(
		sb.Equal("number", number),
		sb.Equal("tenant_id", tenantID),
	)

	query, args := sb.Build()
	var inv models.Invoice
	if err := r.db.GetContext(ctx, &inv, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("invoice %s not found", number))
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get invoice")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get invoice")
	}

	return &inv, nil
}

// ListOpen retrieves unconsumed invoices for a tenant, ordered by number so
// engine runs see a stable candidate order.
func (r *Repository) ListOpen(ctx context.Context, tenantID string) ([]*models.Invoice, error) {
	ctx, span := tracing.StartSpan(ctx, "invoice.Repository.ListOpen")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns)
	sb.From("invoices")
	sb.Where(
		sb.Equal("tenant_id", tenantID),
		sb.Equal("is_matched", false),
	)
	sb.OrderBy("number ASC")

	query, args := sb.Build()
	var invs []*models.Invoice
	if err := r.db.SelectContext(ctx, &invs, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list open invoices")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list open invoices")
	}

	return invs, nil
}

// MarkMatched consumes invoices after an engine run auto-matches them.
func (r *Repository) MarkMatched(ctx context.Context, tenantID string, numbers []string) error {
	ctx, span := tracing.StartSpan(ctx, "invoice.Repository.MarkMatched")
	defer span.End()

	if len(numbers) == 0 {
		return nil
	}

	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update("invoices")
	sb.Set(sb.Assign("is_matched", true))
	sb.Where(
		sb.Equal("tenant_id", tenantID),
		sb.In("number", numbersToAny(numbers)...),
	)

	query, args := sb.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to mark invoices matched")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to mark invoices matched")
	}

	return nil
}

// Reopen returns an invoice to the open pool after a rejected review.
func (r *Repository) Reopen(ctx context.Context, tenantID string, number string) error {
	ctx, span := tracing.StartSpan(ctx, "invoice.Repository.Reopen")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update("invoices")
	sb.Set(sb.Assign("is_matched", false))
	sb.Where(
		sb.Equal("tenant_id", tenantID),
		sb.Equal("number", number),
	)

	query, args := sb.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to reopen invoice")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to reopen invoice")
	}

	return nil
}

func numbersToAny(numbers []string) []any {
	result := make([]any, len(numbers))
	for i, n := range numbers {
		result[i] = n
	}
	return result
}
