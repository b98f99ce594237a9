// Package fixture turns property maps into runnable test fixtures.
//
// A Class is registered against one or more hand-written Kinds and a
// property map. Instantiating the class resolves the properties into
// fixture attributes; the fixture then goes through Setup, Run and Check
// inside a test. Classes carrying an "error" property are error variants:
// their Run captures the error the scenario body produces and Check compares
// it with the expected one.
package fixture

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/roach88/casegen/internal/mock"
)

// Fixture is one instantiated scenario.
type Fixture struct {
	class *Class
	ctx   Context
	kinds []*Kind
	attrs map[string]any
	extra string

	mocks     map[string]mock.Config
	expected  error
	exception error
}

// Class returns the class the fixture was built from.
func (f *Fixture) Class() *Class { return f.class }

// Context returns the owning test context.
func (f *Fixture) Context() Context { return f.ctx }

// Name is the test method name: "test_" followed by the class name.
func (f *Fixture) Name() string {
	return "test_" + f.class.Name
}

// Category returns the class category.
func (f *Fixture) Category() string {
	return f.class.Category()
}

// Description is "<uuid hex>—<module>" plus "—<extra>" when a description
// property is set, rewritten by each kind's Describe hook from the root kind
// to the leaf. Error variants append " → <expected error>".
func (f *Fixture) Description() string {
	desc := Hex(f.class.UUID) + "—" + f.ctx.Module()
	if f.extra != "" {
		desc += "—" + f.extra
	}

	for i := len(f.kinds) - 1; i >= 0; i-- {
		if describe := f.kinds[i].Describe; describe != nil {
			desc = describe(f, desc)
		}
	}

	if f.class.IsError() && f.expected != nil {
		desc += " → " + f.expected.Error()
	}
	return desc
}

// Get returns the attribute called name, or nil.
func (f *Fixture) Get(name string) any {
	return f.attrs[name]
}

// Has reports whether the attribute is set.
func (f *Fixture) Has(name string) bool {
	_, ok := f.attrs[name]
	return ok
}

// Attr returns the attribute called name or a *MissingAttrError.
func (f *Fixture) Attr(name string) (any, error) {
	value, ok := f.attrs[name]
	if !ok {
		return nil, &MissingAttrError{Name: name}
	}
	return value, nil
}

// MustAttr is Attr for property functions that return a bare value. A
// missing attribute panics with *MissingAttrError, which property
// resolution recovers from.
func (f *Fixture) MustAttr(name string) any {
	value, err := f.Attr(name)
	if err != nil {
		panic(err)
	}
	return value
}

// Set stores an attribute.
func (f *Fixture) Set(name string, value any) {
	f.attrs[name] = value
}

// Attrs lists attribute names in sorted order.
func (f *Fixture) Attrs() []string {
	return slices.Sorted(maps.Keys(f.attrs))
}

// Param returns one entry of the "parameters" mapping.
func (f *Fixture) Param(name string) any {
	params, _ := f.attrs[PropParameters].(map[string]any)
	return params[name]
}

// Expected returns the "expected" attribute.
func (f *Fixture) Expected() any {
	return f.attrs[PropExpected]
}

// Decode converts the attribute called name into out by round-tripping it
// through YAML, so loosely typed scenario data lands in typed Go values.
func (f *Fixture) Decode(name string, out any) error {
	value, err := f.Attr(name)
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(value)
	if err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	return nil
}

// Assert returns assertions bound to the running test.
func (f *Fixture) Assert() *assert.Assertions {
	return assert.New(f.ctx.T())
}

// Require returns fatal assertions bound to the running test.
func (f *Fixture) Require() *require.Assertions {
	return require.New(f.ctx.T())
}

// Mocks returns the requested mocks keyed by symbol.
func (f *Fixture) Mocks() map[string]mock.Config {
	return f.mocks
}

// ExpectedError returns the error an error variant must produce.
func (f *Fixture) ExpectedError() error {
	return f.expected
}

// SetExpectedError replaces the expected error, typically from an Init hook.
func (f *Fixture) SetExpectedError(err error) {
	f.expected = err
}

// Exception returns the error captured by Run for error variants.
func (f *Fixture) Exception() error {
	return f.exception
}

// IsError reports whether the fixture is an error variant.
func (f *Fixture) IsError() bool {
	return f.class.IsError()
}

// Setup installs the requested mocks, in symbol order, then runs the
// nearest Setup hook.
//
// For each symbol the producer found by FindMocker runs first, then the
// handle found by PrepareMock is configured. A symbol that was neither
// mocked nor has a handle is skipped; it is masked or has no producer.
func (f *Fixture) Setup() error {
	logger := loggerOf(f.ctx)

	for _, symbol := range slices.Sorted(maps.Keys(f.mocks)) {
		installed := FindMocker(symbol, f.ctx).Call()

		err := PrepareMock(f.ctx, symbol, f.mocks[symbol])
		if errors.Is(err, ErrNoHandle) && !installed {
			logger.Debug("mock skipped", "fixture", f.Name(), "symbol", symbol)
			continue
		}
		if err != nil {
			return fmt.Errorf("setup %s: %w", f.Name(), err)
		}
	}

	if k := firstWith(f.kinds, hasSetup); k != nil {
		if err := k.Setup(f); err != nil {
			return fmt.Errorf("setup %s: %w", f.Name(), err)
		}
	}
	return nil
}

// Run executes the scenario body. For error variants the error returned or
// panicked by the body is captured as the exception and Run returns nil.
func (f *Fixture) Run() error {
	k := firstWith(f.kinds, hasRun)

	if !f.IsError() {
		if k == nil {
			return nil
		}
		return k.Run(f)
	}

	f.exception = capture(k, f)
	return nil
}

func capture(k *Kind, f *Fixture) (err error) {
	if k == nil {
		return nil
	}
	defer func() {
		if recovered := recover(); recovered != nil {
			if e, ok := recovered.(error); ok {
				err = e
				return
			}
			err = fmt.Errorf("panic: %v", recovered)
		}
	}()
	return k.Run(f)
}

// Check verifies the outcome. Error variants first compare the captured
// exception with the expected error, then the nearest Check hook runs.
func (f *Fixture) Check() {
	if f.IsError() {
		f.checkError()
	}
	if k := firstWith(f.kinds, hasCheck); k != nil {
		k.Check(f)
	}
}

func (f *Fixture) checkError() {
	t := f.ctx.T()
	t.Helper()

	if f.exception == nil {
		t.Errorf("%s: expected error %q, got none", f.Name(), describeError(f.expected))
		return
	}
	if !sameError(f.expected, f.exception) {
		t.Errorf("%s: expected error %q, got %q", f.Name(), describeError(f.expected), describeError(f.exception))
	}
}

func describeError(err error) string {
	if err == nil {
		return "<nil>"
	}
	var e *Error
	if errors.As(err, &e) {
		return fmt.Sprintf("%s%v", e.Class, e.Args)
	}
	return err.Error()
}
