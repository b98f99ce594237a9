package fixture

import (
	"log/slog"
	"testing"

	"github.com/roach88/casegen/internal/mock"
)

// Context is the test context a fixture runs against.
//
// Mocker and Mocked use the resolver's naming: producers are looked up as
// "mock_<symbol>" and patch handles as "mocked_<symbol>", where the symbol is
// lower-cased and its dots replaced by underscores.
type Context interface {
	// T is the running test. It is nil while fixtures are only being
	// discovered.
	T() testing.TB

	// Module is the production package under test.
	Module() string

	Mocker(name string) (func() bool, bool)
	Mocked(name string) (*mock.Handle, bool)

	Logger() *slog.Logger
}

func loggerOf(ctx Context) *slog.Logger {
	if ctx != nil {
		if logger := ctx.Logger(); logger != nil {
			return logger
		}
	}
	return slog.Default()
}
