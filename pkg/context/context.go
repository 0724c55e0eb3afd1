// Package context carries request-scoped identity values (request ID, tenant,
// user) through the call stack without widening every function signature.
package context

import "context"

type ContextKey string

var (
	RequestIDKey = ContextKey("X-Request-Id")
	TenantIDKey  = ContextKey("X-Tenant-Id")
	UserIDKey    = ContextKey("X-User-Id")
	RouteKey     = ContextKey("X-Route")
	RemoteIPKey  = ContextKey("X-Remote-Ip")
)

func SetRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

func GetRequestID(ctx context.Context) string {
	value, ok := ctx.Value(RequestIDKey).(string)
	if !ok {
		return ""
	}
	return value
}

func SetTenantID(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, TenantIDKey, tenantID)
}

func GetTenantID(ctx context.Context) string {
	value, ok := ctx.Value(TenantIDKey).(string)
	if !ok {
		return ""
	}
	return value
}

func SetUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

func GetUserID(ctx context.Context) string {
	value, ok := ctx.Value(UserIDKey).(string)
	if !ok {
		return ""
	}
	return value
}

func SetRoute(ctx context.Context, route string) context.Context {
	return context.WithValue(ctx, RouteKey, route)
}

func GetRoute(ctx context.Context) string {
	value, ok := ctx.Value(RouteKey).(string)
	if !ok {
		return ""
	}
	return value
}

func SetRemoteIP(ctx context.Context, remoteIP string) context.Context {
	return context.WithValue(ctx, RemoteIPKey, remoteIP)
}

func GetRemoteIP(ctx context.Context) string {
	value, ok := ctx.Value(RemoteIPKey).(string)
	if !ok {
		return ""
	}
	return value
}
