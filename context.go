package apikit

import (
	"context"
	"net/http"
)

// typedKey keys a request-scoped value by its Go type.
type typedKey[T any] struct{}

// SetValue returns r carrying val, for middleware that hands a setting down
// to the binding layer or to handlers: the request ID and the multipart
// guard ceiling travel this way. A later SetValue of the same type shadows
// the earlier one, so key your values with a named type (type tenant string)
// rather than a bare string or int64.
func SetValue[T any](r *http.Request, val T) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), typedKey[T]{}, val))
}

// GetValue reads the value of type T stored by SetValue. Handlers receive
// the request context, so this is how they see what middleware attached.
func GetValue[T any](ctx context.Context) (T, bool) {
	val, ok := ctx.Value(typedKey[T]{}).(T)
	return val, ok
}
