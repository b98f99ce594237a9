// Package suite generates one Go subtest per discovered scenario.
//
// A Suite names the fixture kinds it covers and the mocks it can install.
// Build discovers every scenario class registered against those kinds and
// returns a Case whose Run executes each one as t.Run(name, ...), giving
// every scenario its own fresh Context.
package suite

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"regexp"
	"runtime"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/roach88/casegen/internal/config"
	"github.com/roach88/casegen/internal/fixture"
	"github.com/roach88/casegen/internal/log"
	"github.com/roach88/casegen/internal/report"
)

// ErrDuplicateMethod is returned when two fixtures produce the same method
// name.
var ErrDuplicateMethod = errors.New("duplicate test method")

// WarnNoScenarios is logged when a suite declares no fixture kinds.
const WarnNoScenarios = "no scenarios declared for this test-case"

// Outcome is the recorded result of one generated method.
type Outcome = report.Outcome

// Observer receives the outcome of every generated method.
type Observer interface {
	Record(ctx context.Context, o Outcome) error
}

// Suite declares a generated test case.
type Suite struct {
	// Name labels the suite in logs and recorded outcomes.
	Name string

	// Package is the test package path. Empty means the package of the
	// function calling Build; set it explicitly when the last path element
	// contains a dot other than a major version suffix.
	Package string

	// Fixtures are the kinds whose registered scenarios become methods. A
	// nil slice is a configuration mistake and is warned about; an empty
	// slice builds a case without methods.
	Fixtures []*fixture.Kind

	// Mocks lists the symbols the suite can mock.
	Mocks []string

	// MocksMask lists symbols whose mocking is suppressed.
	MocksMask []string

	// Mockers install a mock for a symbol. Each runs at most once per method.
	Mockers map[string]func(*Context)

	// Targets maps symbols to pointers to package-level func variables that
	// Context.Patch may replace.
	Targets map[string]any

	// Registry defaults to fixture.Default.
	Registry *fixture.Registry

	// Config defaults to config.FromEnv.
	Config *config.Config

	// Logger defaults to a logger built from Config.
	Logger *slog.Logger

	// Observer receives outcomes. When nil and Config names a report
	// database, outcomes go to that database.
	Observer Observer

	// NewID generates run identifiers. Defaults to uuid.New.
	NewID func() uuid.UUID
}

// Method runs one scenario.
type Method func(t *testing.T)

// Case is a built suite.
type Case struct {
	Name     string
	Module   string
	Methods  map[string]Method
	Warnings []string

	suite    *Suite
	logger   *slog.Logger
	runID    string
	observer Observer
}

func suiteConfig(s *Suite) *config.Config {
	if s.Config == nil {
		s.Config = config.FromEnv()
	}
	return s.Config
}

func suiteLogger(s *Suite) *slog.Logger {
	if s.Logger == nil {
		s.Logger = log.New(suiteConfig(s).Log)
	}
	return log.WithComponent(s.Logger, "suite")
}

// Build discovers the suite's scenarios and returns the generated case.
func Build(s Suite) (*Case, error) {
	if s.Package == "" {
		s.Package = callerPackage(2)
	}
	if s.Registry == nil {
		s.Registry = fixture.Default
	}

	logger := suiteLogger(&s)
	module := ProductionModule(s.Package)

	c := &Case{
		Name:    s.Name,
		Module:  module,
		Methods: make(map[string]Method),
		suite:   &s,
		logger:  logger,
	}

	if s.Fixtures == nil {
		logger.Warn(WarnNoScenarios, log.SuiteKey, s.Name, "package", s.Package)
		c.Warnings = append(c.Warnings, WarnNoScenarios)
		return c, nil
	}

	discovery := newContext(nil, &s, module, logger)
	fixtures, err := s.Registry.Of(discovery, s.Fixtures...)
	if err != nil {
		return nil, fmt.Errorf("build %s: %w", s.Name, err)
	}

	for _, f := range fixtures {
		name := f.Name()
		if _, exists := c.Methods[name]; exists {
			return nil, fmt.Errorf("build %s: %w: %s", s.Name, ErrDuplicateMethod, name)
		}
		c.Methods[name] = c.method(f.Class())
	}

	logger.Debug("built test case", log.SuiteKey, s.Name, "module", module, "methods", len(c.Methods))
	return c, nil
}

// MustBuild is Build for package-level declarations; it panics on error.
func MustBuild(s Suite) *Case {
	if s.Package == "" {
		s.Package = callerPackage(2)
	}
	c, err := Build(s)
	if err != nil {
		panic(err)
	}
	return c
}

// Names returns the method names in run order.
func (c *Case) Names() []string {
	return slices.Sorted(maps.Keys(c.Methods))
}

// Run executes every method as a subtest of t, in name order.
func (c *Case) Run(t *testing.T) {
	t.Helper()

	for _, warning := range c.Warnings {
		t.Log(warning)
	}

	if err := c.openObserver(t); err != nil {
		t.Fatalf("%s: %v", c.Name, err)
	}

	newID := c.suite.NewID
	if newID == nil {
		newID = uuid.New
	}
	c.runID = newID().String()

	for _, name := range c.Names() {
		t.Run(name, c.Methods[name])
	}
}

func (c *Case) openObserver(t *testing.T) error {
	if c.suite.Observer != nil {
		c.observer = c.suite.Observer
		return nil
	}

	cfg := suiteConfig(c.suite)
	if !cfg.RecordsOutcomes() {
		return nil
	}

	store, err := report.Open(cfg.ReportDB)
	if err != nil {
		return fmt.Errorf("open report database: %w", err)
	}
	t.Cleanup(func() { closeLogged(c.logger, store, "path", cfg.ReportDB) })
	c.observer = store
	return nil
}

// closeLogged closes closer and logs a failure at warn level with args.
func closeLogged(logger *slog.Logger, closer io.Closer, args ...any) {
	if err := closer.Close(); err != nil {
		logger.Warn("failed to close report database", append(args, "error", err)...)
	}
}

func (c *Case) method(class *fixture.Class) Method {
	return func(t *testing.T) {
		t.Helper()
		c.run(t, class)
	}
}

// run executes one scenario against a fresh context bound to t. Setup and
// Run are logged as calls named after the method.
func (c *Case) run(t testing.TB, class *fixture.Class) {
	t.Helper()
	start := time.Now()

	var (
		f       *fixture.Fixture
		failure string
	)
	t.Cleanup(func() { c.observe(t, class, f, start, failure) })

	ctx := newContext(t, c.suite, c.Module, c.logger)
	f, err := class.New(ctx)
	if err != nil {
		failure = err.Error()
		t.Fatalf("%s: %v", class.Name, err)
	}

	t.Log(f.Description())

	if err := log.Func(c.logger, "setup ", f.Name(), f.Setup)(); err != nil {
		failure = err.Error()
		t.Fatalf("%s: %v", f.Description(), err)
	}
	if err := log.Func(c.logger, "run ", f.Name(), f.Run)(); err != nil {
		failure = err.Error()
		t.Fatalf("%s: %v", f.Description(), err)
	}
	f.Check()
}

// observe records the outcome of one method. f is nil when the fixture
// could not be constructed.
func (c *Case) observe(t testing.TB, class *fixture.Class, f *fixture.Fixture, start time.Time, failure string) {
	if c.observer == nil {
		return
	}

	status := report.StatusPass
	switch {
	case t.Skipped():
		status = report.StatusSkip
	case t.Failed():
		status = report.StatusFail
		if failure == "" {
			failure = "check failed"
		}
	}

	outcome := Outcome{
		RunID:    c.runID,
		Suite:    c.Name,
		Module:   c.Module,
		Method:   "test_" + class.Name,
		Category: class.Category(),
		Status:   status,
		Error:    failure,
		Duration: time.Since(start),
	}
	if f != nil {
		outcome.Description = f.Description()
	}
	if err := c.observer.Record(context.Background(), outcome); err != nil {
		c.logger.Warn("failed to record outcome", "method", outcome.Method, "error", err)
	}
}

// callerPackage returns the package path of the function skip frames up.
func callerPackage(skip int) string {
	pc, _, _, ok := runtime.Caller(skip)
	if !ok {
		return ""
	}
	fn := runtime.FuncForPC(pc)
	if fn == nil {
		return ""
	}
	return packageOf(fn.Name())
}

var majorVersion = regexp.MustCompile(`^v[0-9]+$`)

// packageOf strips the function part from a qualified function name such
// as "github.com/x/y/internal/collections_test.TestHelpers.func1". A dot
// followed by a major version element, as in "gopkg.in/yaml.v3.Func", stays
// part of the package path. Other dotted final path elements are ambiguous;
// such packages must set Suite.Package explicitly.
func packageOf(funcName string) string {
	i := strings.LastIndex(funcName, "/") + 1
	for {
		dot := strings.IndexByte(funcName[i:], '.')
		if dot < 0 {
			return funcName
		}
		cut := i + dot
		element, _, more := strings.Cut(funcName[cut+1:], ".")
		if more && majorVersion.MatchString(element) {
			i = cut + 1
			continue
		}
		return funcName[:cut]
	}
}
