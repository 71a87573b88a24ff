// Package ctxutil provides helpers for request-scoped context values.
//
// Values set through SetValue are mirrored into an embedded *gin.Context so
// handlers and middleware see the same trace id and user identity:
//
//	ctx, traceID := ctxutil.EnsureTraceID(ctx)
//	ctx = ctxutil.SetUserID(ctx, "user-123")
//
// WithAsyncContext detaches work such as after-commit index syncs from the
// request's cancellation while keeping its trace id.
package ctxutil
