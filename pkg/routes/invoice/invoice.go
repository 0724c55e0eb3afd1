package invoice

import (
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/clover/internal/repositories/invoice"
	ctxutil "github.com/Ramsey-B/clover/pkg/context"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/reconcile"
)

var validate = validator.New()

// Register registers invoice routes
func Register(g *echo.Group) {
	g.POST("", LoadInvoices)
	g.GET("", ListOpenInvoices)
	g.GET("/:number", GetInvoice)
}

// LoadRequest is an invoice batch submitted over HTTP.
type LoadRequest struct {
	Invoices []models.CreateInvoiceRequest `json:"invoices" validate:"required,min=1,dive"`
}

// LoadResponse reports how much of a batch loaded.
type LoadResponse struct {
	Loaded  int      `json:"loaded"`
	Skipped int      `json:"skipped"`
	Errors  []string `json:"errors,omitempty"`
}

// LoadInvoices normalizes and stores an invoice batch
func LoadInvoices(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID := ctxutil.GetTenantID(ctx)
	if tenantID == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "tenant_id is required")
	}

	var req LoadRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx, service, err := ectoinject.GetContext[*reconcile.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	raws := make([]reconcile.RawInvoice, len(req.Invoices))
	for i, inv := range req.Invoices {
		raws[i] = reconcile.RawInvoice{
			Number:      inv.Number,
			PartyName:   inv.PartyName,
			Amount:      inv.Amount,
			Date:        inv.Date,
			Description: inv.Description,
			Direction:   inv.Direction,
		}
	}

	loaded, parseErrs := service.LoadInvoices(ctx, tenantID, raws)

	resp := LoadResponse{Loaded: loaded, Skipped: len(parseErrs)}
	for _, perr := range parseErrs {
		resp.Errors = append(resp.Errors, perr.Error())
	}

	status := http.StatusCreated
	if loaded == 0 && len(parseErrs) > 0 {
		status = http.StatusUnprocessableEntity
	}
	return c.JSON(status, resp)
}

// ListOpenInvoices lists invoices not yet consumed by a match
func ListOpenInvoices(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID := ctxutil.GetTenantID(ctx)
	if tenantID == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "tenant_id is required")
	}

	ctx, repo, err := ectoinject.GetContext[*invoice.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	invoices, err := repo.ListOpen(ctx, tenantID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, invoices)
}

// GetInvoice gets an invoice by number
func GetInvoice(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID := ctxutil.GetTenantID(ctx)
	if tenantID == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "tenant_id is required")
	}

	ctx, repo, err := ectoinject.GetContext[*invoice.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	inv, err := repo.Get(ctx, tenantID, c.Param("number"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, inv)
}
