package suite

import (
	"log/slog"
	"maps"
	"slices"
	"strings"
	"testing"

	"github.com/roach88/casegen/internal/fixture"
	"github.com/roach88/casegen/internal/log"
	"github.com/roach88/casegen/internal/memo"
	"github.com/roach88/casegen/internal/mock"
)

// Context is the per-method test context fixtures run against.
//
// Every generated method gets a fresh Context, so mock memoization and
// attached handles never leak between methods.
type Context struct {
	suite   *Suite
	t       testing.TB
	module  string
	logger  *slog.Logger
	state   *memo.State
	mockers map[string]func() bool
	handles map[string]*mock.Handle
}

var _ fixture.Context = (*Context)(nil)

// NewContext binds s to t. A nil t gives a context that can instantiate
// fixtures but not run them.
func NewContext(t testing.TB, s *Suite) *Context {
	return newContext(t, s, ProductionModule(s.Package), suiteLogger(s))
}

func newContext(t testing.TB, s *Suite, module string, logger *slog.Logger) *Context {
	c := &Context{
		suite:   s,
		t:       t,
		module:  module,
		logger:  logger,
		state:   memo.NewState(s.MocksMask...),
		mockers: make(map[string]func() bool, len(s.Mockers)),
		handles: make(map[string]*mock.Handle),
	}

	for symbol, install := range s.Mockers {
		wrapped := memo.Wrap(symbol, install)
		c.mockers[fixture.MockerName(symbol)] = func() bool { return wrapped(c) }
	}
	return c
}

// T returns the running test.
func (c *Context) T() testing.TB { return c.t }

// Module returns the production package under test.
func (c *Context) Module() string { return c.module }

// Logger returns the suite logger.
func (c *Context) Logger() *slog.Logger { return c.logger }

// MockState exposes the memo state for memo.Wrap.
func (c *Context) MockState() *memo.State { return c.state }

// Mocks returns the symbols the suite can mock, in sorted order. Without
// an explicit declaration these are the symbols that have a mocker.
func (c *Context) Mocks() []string {
	if c.suite.Mocks != nil {
		return slices.Sorted(slices.Values(c.suite.Mocks))
	}
	return slices.Sorted(maps.Keys(c.suite.Mockers))
}

// MocksMask returns the masked symbols in sorted order.
func (c *Context) MocksMask() []string {
	return c.state.MaskList()
}

// Mask suppresses mocking of symbols for the rest of this method.
func (c *Context) Mask(symbols ...string) {
	c.state.Mask(symbols...)
}

// Mocker returns the memoized producer registered under name, e.g.
// "mock_symbol_sub".
func (c *Context) Mocker(name string) (func() bool, bool) {
	fn, ok := c.mockers[name]
	return fn, ok
}

// Mocked returns the handle attached under name, e.g. "mocked_symbol".
func (c *Context) Mocked(name string) (*mock.Handle, bool) {
	h, ok := c.handles[name]
	return h, ok
}

// Handle returns the handle attached for symbol.
func (c *Context) Handle(symbol string) (*mock.Handle, bool) {
	return c.Mocked(fixture.HandleName(symbol))
}

// IsMocked reports whether the producer for symbol has installed it.
func (c *Context) IsMocked(symbol string) bool {
	mocked, _ := c.state.Mocked(symbol)
	return mocked
}

// Mock runs the most specific producer for symbol and reports whether the
// symbol is now mocked.
func (c *Context) Mock(symbol string) bool {
	return fixture.FindMocker(symbol, c).Call()
}

// SetMocked attaches h for symbol, replacing any previous handle.
func (c *Context) SetMocked(symbol string, h *mock.Handle) {
	c.handles[fixture.HandleName(symbol)] = h
}

// Target returns the patch point registered for symbol.
func (c *Context) Target(symbol string) (any, bool) {
	target, ok := c.suite.Targets[symbol]
	return target, ok
}

// Patch replaces the function variable registered for symbol with a new
// recording handle, attaches the handle as "mocked_<symbol>" and restores
// the original when the test finishes.
func (c *Context) Patch(symbol string) *mock.Handle {
	c.t.Helper()

	target, ok := c.Target(symbol)
	if !ok {
		c.t.Fatalf("patch %s: no target registered", symbol)
		return nil
	}

	h := mock.New(fixture.HandleName(symbol))
	if err := mock.PatchTarget(c.t, target, h); err != nil {
		c.t.Fatalf("patch %s: %v", symbol, err)
		return nil
	}
	c.SetMocked(symbol, h)

	c.logger.Debug("patched", log.SymbolKey, symbol, "handle", h.Name())
	return h
}

// ProductionModule maps a test package path to the package it tests.
//
// The _test suffix is dropped, test_unit segments are removed and test_
// prefixes are stripped, so "test_casegen.test_unit.test_fixtures" becomes
// "casegen.fixtures" and "github.com/x/y/internal/collections_test" becomes
// "github.com/x/y/internal/collections". Paths containing a slash are split
// on slashes, others on dots.
func ProductionModule(pkg string) string {
	sep := "."
	if strings.Contains(pkg, "/") {
		sep = "/"
	}

	var segments []string
	for _, segment := range strings.Split(pkg, sep) {
		if segment == "test_unit" {
			continue
		}
		segment = strings.TrimPrefix(segment, "test_")
		segment = strings.TrimSuffix(segment, "_test")
		segments = append(segments, segment)
	}
	return strings.Join(segments, sep)
}
