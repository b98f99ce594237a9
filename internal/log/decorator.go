package log

import (
	"log/slog"
	"time"
)

// Func wraps fn so every call is logged: "calling" before, then
// "finished" on success or "failed" with the error. prefix is prepended to
// each message, name identifies the function.
func Func(logger *slog.Logger, prefix, name string, fn func() error) func() error {
	wrapped := Call(logger, prefix, name, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return func() error {
		_, err := wrapped()
		return err
	}
}

// Call is Func for functions returning a value.
func Call[T any](logger *slog.Logger, prefix, name string, fn func() (T, error)) func() (T, error) {
	logger = OrDefault(logger)

	return func() (T, error) {
		logger.Info(prefix+"calling", FunctionKey, name)
		start := time.Now()

		value, err := fn()

		elapsed := time.Since(start).Milliseconds()
		if err != nil {
			logger.Error(prefix+"failed", FunctionKey, name, DurationKey, elapsed, "error", err)
			return value, err
		}
		logger.Info(prefix+"finished", FunctionKey, name, DurationKey, elapsed)
		return value, nil
	}
}
