package matchresult

import (
	"net/http"
	"strconv"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/clover/internal/repositories/matchresult"
	ctxutil "github.com/Ramsey-B/clover/pkg/context"
	"github.com/Ramsey-B/clover/pkg/reconcile"
)

// Register registers match result routes
func Register(g *echo.Group) {
	g.GET("", ListMatchResults)
	g.GET("/:id", GetMatchResult)
	g.POST("/:id/approve", ApproveMatchResult)
	g.POST("/:id/reject", RejectMatchResult)
}

// ListMatchResults lists match results with optional run and status filters
func ListMatchResults(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID := ctxutil.GetTenantID(ctx)
	if tenantID == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "tenant_id is required")
	}

	runID := c.QueryParam("run_id")
	status := c.QueryParam("status")
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	ctx, repo, err := ectoinject.GetContext[*matchresult.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	results, err := repo.List(ctx, tenantID, runID, status, limit)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, results)
}

// GetMatchResult gets a match result by ID
func GetMatchResult(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID := ctxutil.GetTenantID(ctx)
	if tenantID == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "tenant_id is required")
	}

	ctx, repo, err := ectoinject.GetContext[*matchresult.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	result, err := repo.Get(ctx, tenantID, c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, result)
}

func review(c echo.Context, approve bool) error {
	ctx := c.Request().Context()

	tenantID := ctxutil.GetTenantID(ctx)
	if tenantID == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "tenant_id is required")
	}

	var resolvedBy *string
	if userID := ctxutil.GetUserID(ctx); userID != "" {
		resolvedBy = &userID
	}

	ctx, service, err := ectoinject.GetContext[*reconcile.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	result, err := service.Review(ctx, tenantID, c.Param("id"), approve, resolvedBy)
	if err != nil {
		return err
	}

	ctx, logger, _ := ectoinject.GetContext[ectologger.Logger](ctx)
	if logger != nil {
		logger.WithContext(ctx).WithFields(map[string]any{
			"result_id": result.ID,
			"status":    result.Status,
		}).Info("Resolved match result")
	}

	return c.JSON(http.StatusOK, result)
}

// ApproveMatchResult approves a pending match, consuming the invoice
func ApproveMatchResult(c echo.Context) error {
	return review(c, true)
}

// RejectMatchResult rejects a pending match, reopening the invoice
func RejectMatchResult(c echo.Context) error {
	return review(c, false)
}
