package middleware

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	reqcontext "github.com/Ramsey-B/clover/pkg/context"
)

const (
	// HeaderTenantID is the header key for tenant ID
	HeaderTenantID = "X-Tenant-ID"
	// HeaderUserID is the header key for user ID
	HeaderUserID = "X-User-ID"
)

// Context copies identity headers into the request context so lower layers
// can scope queries by tenant.
func Context() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			req := c.Request()

			requestID := req.Header.Get(echo.HeaderXRequestID)
			if requestID == "" {
				requestID = uuid.New().String()
			}

			ctx := req.Context()
			ctx = reqcontext.SetRequestID(ctx, requestID)
			ctx = reqcontext.SetRoute(ctx, req.URL.Path)
			ctx = reqcontext.SetRemoteIP(ctx, c.RealIP())
			ctx = reqcontext.SetTenantID(ctx, req.Header.Get(HeaderTenantID))
			ctx = reqcontext.SetUserID(ctx, req.Header.Get(HeaderUserID))

			c.SetRequest(req.WithContext(ctx))

			return next(c)
		}
	}
}
