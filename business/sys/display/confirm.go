package display

import "context"

type ctxKey int

const confirmKey ctxKey = 1

// WithConfirmation returns a context carrying the user's answer to any
// confirmation asked while handling the request.
func WithConfirmation(ctx context.Context, ok bool) context.Context {
	return context.WithValue(ctx, confirmKey, ok)
}

// Confirmed returns the answer carried by the context.
func Confirmed(ctx context.Context) bool {
	ok, _ := ctx.Value(confirmKey).(bool)
	return ok
}
