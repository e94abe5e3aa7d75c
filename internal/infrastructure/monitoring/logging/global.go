package logging

import (
	"context"

	"go.uber.org/zap"
)

// SetDefault makes l the target of zap.L() and of the standard library log
// package, which net/http uses for connection errors. The returned func
// restores the previous state. Loggers not built by this package are ignored.
func SetDefault(l Logger) (restore func()) {
	zl, ok := l.(*zapLogger)
	if !ok {
		return func() {}
	}
	undoGlobals := zap.ReplaceGlobals(zl.z)
	undoStdLog := zap.RedirectStdLog(zl.z)
	return func() {
		undoStdLog()
		undoGlobals()
	}
}

type requestIDKey struct{}

// ContextWithRequestID stores a request id for WithContext to pick up.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext returns the request id stored in ctx, or "".
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
