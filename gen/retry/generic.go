package retry

import "context"

// DoWithResultTyped is a type-safe generic wrapper around Executor.DoWithResult.
// It eliminates the need for type assertions on the return value.
//
// Usage:
//
//	val, err := retry.DoWithResultTyped[int](e, ctx, func(attempt int) (int, error) {
//	    return 42, nil
//	})
func DoWithResultTyped[T any](e Executor, ctx context.Context, op func(attempt int) (T, error)) (T, error) {
	result, err := e.DoWithResult(ctx, func(attempt int) (any, error) {
		return op(attempt)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return result.(T), nil
}
