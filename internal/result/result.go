// Package result provides the tagged success/failure value returned by service wrappers.
package result

// Result holds either a value or an error, never both.
type Result[T any] struct {
	value T
	err   error
}

// Ok wraps a successful value.
func Ok[T any](v T) Result[T] {
	return Result[T]{value: v}
}

// Fail wraps a failure. A nil err is treated as success with the zero value.
func Fail[T any](err error) Result[T] {
	return Result[T]{err: err}
}

// From builds a Result from a conventional (value, error) pair.
func From[T any](v T, err error) Result[T] {
	if err != nil {
		return Fail[T](err)
	}
	return Ok(v)
}

// IsOk reports whether the result is a success.
func (r Result[T]) IsOk() bool { return r.err == nil }

// Err returns the failure, or nil.
func (r Result[T]) Err() error { return r.err }

// Value returns the success value; the zero value on failure.
func (r Result[T]) Value() T { return r.value }

// Unwrap returns the pair form for callers that prefer explicit error returns.
func (r Result[T]) Unwrap() (T, error) {
	return r.value, r.err
}

// Map transforms a successful value and passes failures through.
func Map[T, U any](r Result[T], fn func(T) U) Result[U] {
	if r.err != nil {
		return Fail[U](r.err)
	}
	return Ok(fn(r.value))
}
