package reconciliation

import (
	"net/http"
	"strconv"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/clover/internal/repositories/reconciliationrun"
	ctxutil "github.com/Ramsey-B/clover/pkg/context"
	"github.com/Ramsey-B/clover/pkg/reconcile"
)

// Register registers reconciliation run routes
func Register(g *echo.Group) {
	g.POST("/runs", TriggerRun)
	g.GET("/runs", ListRuns)
	g.GET("/runs/:id", GetRun)
}

// TriggerRun reconciles all unmatched transactions for the tenant
func TriggerRun(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID := ctxutil.GetTenantID(ctx)
	if tenantID == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "tenant_id is required")
	}

	ctx, service, err := ectoinject.GetContext[*reconcile.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	run, err := service.Run(ctx, tenantID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, run)
}

// ListRuns lists recent reconciliation runs
func ListRuns(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID := ctxutil.GetTenantID(ctx)
	if tenantID == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "tenant_id is required")
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	ctx, repo, err := ectoinject.GetContext[*reconciliationrun.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	runs, err := repo.List(ctx, tenantID, limit)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, runs)
}

// GetRun gets a reconciliation run by ID
func GetRun(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID := ctxutil.GetTenantID(ctx)
	if tenantID == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "tenant_id is required")
	}

	ctx, repo, err := ectoinject.GetContext[*reconciliationrun.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	run, err := repo.Get(ctx, tenantID, c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, run)
}
