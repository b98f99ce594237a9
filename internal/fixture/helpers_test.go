package fixture

import (
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/roach88/casegen/internal/mock"
)

// testContext is a minimal Context backed by maps.
type testContext struct {
	t        testing.TB
	module   string
	mockers  map[string]func() bool
	handles  map[string]*mock.Handle
	logger   *slog.Logger
	installs []string
}

func newTestContext(t testing.TB) *testContext {
	return &testContext{
		t:       t,
		module:  "casegen.fixture",
		mockers: make(map[string]func() bool),
		handles: make(map[string]*mock.Handle),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func (c *testContext) T() testing.TB        { return c.t }
func (c *testContext) Module() string       { return c.module }
func (c *testContext) Logger() *slog.Logger { return c.logger }

func (c *testContext) Mocker(name string) (func() bool, bool) {
	fn, ok := c.mockers[name]
	return fn, ok
}

func (c *testContext) Mocked(name string) (*mock.Handle, bool) {
	h, ok := c.handles[name]
	return h, ok
}

// producer registers a mocker that attaches a handle the first time it runs.
func (c *testContext) producer(name, handle string) {
	c.mockers[name] = func() bool {
		c.installs = append(c.installs, name)
		if _, ok := c.handles[handle]; !ok {
			c.handles[handle] = mock.New(handle)
		}
		return true
	}
}

// recordingTB captures failures instead of failing the enclosing test.
type recordingTB struct {
	testing.TB
	failures []string
}

func (r *recordingTB) Helper()      {}
func (r *recordingTB) Name() string { return "recording" }

func (r *recordingTB) Errorf(format string, args ...any) {
	r.failures = append(r.failures, fmt.Sprintf(format, args...))
}
