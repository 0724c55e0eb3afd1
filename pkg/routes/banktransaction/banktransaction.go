package banktransaction

import (
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/clover/internal/repositories/banktransaction"
	ctxutil "github.com/Ramsey-B/clover/pkg/context"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/reconcile"
)

var validate = validator.New()

// Register registers bank transaction routes
func Register(g *echo.Group) {
	g.POST("", LoadBankTransactions)
	g.GET("/:id", GetBankTransaction)
}

// LoadRequest is a statement batch submitted over HTTP.
type LoadRequest struct {
	Transactions []models.CreateBankTransactionRequest `json:"transactions" validate:"required,min=1,dive"`
}

// LoadResponse reports how much of a batch loaded.
type LoadResponse struct {
	Loaded  int      `json:"loaded"`
	Skipped int      `json:"skipped"`
	Errors  []string `json:"errors,omitempty"`
}

// LoadBankTransactions normalizes and stores a statement batch
func LoadBankTransactions(c echo.Context) error {
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

	raws := make([]reconcile.RawBankTransaction, len(req.Transactions))
	for i, t := range req.Transactions {
		raws[i] = reconcile.RawBankTransaction{
			Date:        t.Date,
			Description: t.Description,
			Amount:      t.Amount,
			Reference:   t.Reference,
		}
		if t.RunningBalance != nil {
			raws[i].RunningBalance = *t.RunningBalance
		}
	}

	loaded, parseErrs := service.LoadTransactions(ctx, tenantID, raws)

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

// GetBankTransaction gets a bank transaction by ID
func GetBankTransaction(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID := ctxutil.GetTenantID(ctx)
	if tenantID == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "tenant_id is required")
	}

	ctx, repo, err := ectoinject.GetContext[*banktransaction.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	txn, err := repo.Get(ctx, tenantID, c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, txn)
}
