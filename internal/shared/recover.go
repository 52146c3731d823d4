package shared

import (
	"context"

	"github.com/charmbracelet/log"
)

// LogError runs fn and returns its result. A returned error or a panic is logged at
// level and swallowed, in which case the zero value of T is returned.
//
// This is an opt-in wrapper for best-effort work; nothing in the data layer uses it implicitly.
func LogError[T any](ctx context.Context, l *log.Logger, level log.Level, fn func(context.Context) (T, error)) (result T) {
	defer func() {
		if r := recover(); r != nil {
			l.Log(level, "recovered", "panic", r)
			var zero T
			result = zero
		}
	}()

	v, err := fn(ctx)
	if err != nil {
		l.Log(level, err.Error())
		var zero T
		return zero
	}
	return v
}
