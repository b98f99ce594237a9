package fixture

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/roach88/casegen/internal/mock"
)

// NoopMocker is the name of the mocker returned when nothing matches.
const NoopMocker = "noop"

// Mocker is a resolved mock producer.
type Mocker struct {
	Name    string
	Install func() bool
}

// Call runs the producer and reports whether the symbol is mocked.
func (m Mocker) Call() bool {
	if m.Install == nil {
		return false
	}
	return m.Install()
}

// MockerName returns the producer name for a symbol, e.g. "symbol.Sub"
// becomes "mock_symbol_sub".
func MockerName(symbol string) string {
	return "mock_" + JoinSymbol(SplitSymbol(symbol))
}

// HandleName returns the patch handle name for a symbol, e.g. "symbol.Sub"
// becomes "mocked_symbol_sub".
func HandleName(symbol string) string {
	return "mocked_" + JoinSymbol(SplitSymbol(symbol))
}

// SplitSymbol splits a dotted symbol into its segments.
func SplitSymbol(symbol string) []string {
	return strings.Split(symbol, ".")
}

// JoinSymbol lower-cases segments and joins them with underscores.
func JoinSymbol(segments []string) string {
	lower := cases.Lower(language.Und)
	parts := make([]string, len(segments))
	for i, segment := range segments {
		parts[i] = lower.String(segment)
	}
	return strings.Join(parts, "_")
}

// FindMocker returns the most specific producer ctx offers for symbol.
//
// "a.b.c" tries mock_a_b_c, then mock_a_b, then mock_a. When none exists the
// result is named NoopMocker and its Call reports false.
func FindMocker(symbol string, ctx Context) Mocker {
	segments := SplitSymbol(symbol)
	for i := len(segments); i > 0; i-- {
		name := "mock_" + JoinSymbol(segments[:i])
		if install, ok := ctx.Mocker(name); ok {
			return Mocker{Name: name, Install: install}
		}
	}
	return Mocker{Name: NoopMocker}
}

// PrepareMock configures the handle addressed by symbol.
//
// The most specific attached handle for a prefix of symbol is used, and the
// remaining segments select nested children with their case preserved:
// with only mocked_symbol attached, "symbol.Sub" configures the child "Sub".
func PrepareMock(ctx Context, symbol string, cfg mock.Config) error {
	segments := SplitSymbol(symbol)
	for i := len(segments); i > 0; i-- {
		handle, ok := ctx.Mocked("mocked_" + JoinSymbol(segments[:i]))
		if !ok {
			continue
		}
		handle.Attr(strings.Join(segments[i:], ".")).Configure(cfg)
		return nil
	}
	return fmt.Errorf("%s: %w", symbol, ErrNoHandle)
}
