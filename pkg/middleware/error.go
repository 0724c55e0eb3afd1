package middleware

import (
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	reqcontext "github.com/Ramsey-B/clover/pkg/context"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

type ErrorResponse struct {
	Message   string         `json:"message"`
	RequestID string         `json:"request_id"`
	TraceID   string         `json:"trace_id"`
	Meta      map[string]any `json:"meta"`
}

// Error translates handler errors into JSON responses. Typed HTTP errors keep
// their status and metadata; everything else becomes a 500.
func Error(logger ectologger.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		ctx := c.Request().Context()
		logger.WithContext(ctx).WithError(err).Error("api is returning an error")
		if c.Response().Committed {
			return
		}

		code := http.StatusInternalServerError
		message := "Internal Server Error"
		meta := map[string]any{}

		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if msg, ok := he.Message.(string); ok {
				message = msg
			}
		}

		if ok := httperror.IsHTTPError(err); ok {
			httperr := httperror.ToHTTPError(err)
			code = httperror.GetStatusCode(err)
			message = httperr.Error()
			meta = httperr.Meta
		}

		_ = c.JSON(code, ErrorResponse{
			Message:   message,
			RequestID: reqcontext.GetRequestID(ctx),
			TraceID:   tracing.GetTraceID(ctx),
			Meta:      meta,
		})
	}
}
