package fixture

import (
	"errors"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/casegen/internal/mock"
)

var plainKind = &Kind{Name: "PlainFixture"}

func newClass(props map[string]any, bases ...*Kind) *Class {
	if len(bases) == 0 {
		bases = []*Kind{plainKind}
	}
	ns := Namespace{}
	return NewRegistry().Register(ns, "testdata/plain_94d7c58f6ee44683936c21cb84d1e458.yaml", bases, props)
}

func TestNew_Literal(t *testing.T) {
	f, err := newClass(map[string]any{"foo": "bar"}).New(newTestContext(t))
	require.NoError(t, err)
	assert.Equal(t, "bar", f.Get("foo"))
}

// TestNew_NestedKind tests that a kind-valued property becomes a fixture
// sharing the parent's context.
func TestNew_NestedKind(t *testing.T) {
	ctx := newTestContext(t)
	inner := &Kind{Name: "InnerFixture"}

	f, err := newClass(map[string]any{"inner": inner}).New(ctx)
	require.NoError(t, err)

	nested, ok := f.Get("inner").(*Fixture)
	require.True(t, ok)
	assert.Same(t, ctx, nested.Context())
	assert.Equal(t, "test_InnerFixture", nested.Name())
}

func TestNew_NestedClass(t *testing.T) {
	ctx := newTestContext(t)
	inner := newClass(map[string]any{"x": 1})

	f, err := newClass(map[string]any{"inner": inner}).New(ctx)
	require.NoError(t, err)

	nested, ok := f.Get("inner").(*Fixture)
	require.True(t, ok)
	assert.Same(t, ctx, nested.Context())
	assert.Equal(t, 1, nested.Get("x"))
}

type widget struct{ Size int }

func TestNew_Type(t *testing.T) {
	f, err := newClass(map[string]any{"widget": reflect.TypeOf(widget{})}).New(newTestContext(t))
	require.NoError(t, err)
	assert.Equal(t, &widget{}, f.Get("widget"))
}

func TestNew_ZeroArgFunctionStoredAsIs(t *testing.T) {
	fn := func() any { return "called" }

	f, err := newClass(map[string]any{"fn": fn}).New(newTestContext(t))
	require.NoError(t, err)

	stored, ok := f.Get("fn").(func() any)
	require.True(t, ok)
	assert.Equal(t, "called", stored())
}

func TestNew_SelfFunctionResolved(t *testing.T) {
	f, err := newClass(map[string]any{
		"x":      2,
		"double": func(f *Fixture) any { return f.MustAttr("x").(int) * 2 },
	}).New(newTestContext(t))
	require.NoError(t, err)
	assert.Equal(t, 4, f.Get("double"))
}

// TestNew_SelfFunctionMissingAttribute tests that a function reading an
// attribute nobody provides is kept unresolved.
func TestNew_SelfFunctionMissingAttribute(t *testing.T) {
	f, err := newClass(map[string]any{
		"a": func(f *Fixture) any { return f.MustAttr("nowhere") },
	}).New(newTestContext(t))
	require.NoError(t, err)

	_, unresolved := f.Get("a").(resolver)
	assert.True(t, unresolved)
}

// TestNew_SelfFunctionsResolveInDependencyOrder tests a function reading an
// attribute produced by another function.
func TestNew_SelfFunctionsResolveInDependencyOrder(t *testing.T) {
	f, err := newClass(map[string]any{
		"a": func(f *Fixture) (any, error) { return f.Attr("b") },
		"b": func(f *Fixture) any { return nil },
	}).New(newTestContext(t))
	require.NoError(t, err)

	assert.True(t, f.Has("a"))
	assert.Nil(t, f.Get("a"))
	assert.Nil(t, f.Get("b"))
}

func TestNew_SelfFunctionChain(t *testing.T) {
	f, err := newClass(map[string]any{
		"a": func(f *Fixture) any { return f.MustAttr("b").(string) + "a" },
		"b": func(f *Fixture) any { return f.MustAttr("c").(string) + "b" },
		"c": func(f *Fixture) any { return "c" },
	}).New(newTestContext(t))
	require.NoError(t, err)

	assert.Equal(t, "cba", f.Get("a"))
}

func TestNew_SelfFunctionCycleLeftUnresolved(t *testing.T) {
	f, err := newClass(map[string]any{
		"a": func(f *Fixture) any { return f.MustAttr("b") },
		"b": func(f *Fixture) any { return f.MustAttr("a") },
		"c": func(f *Fixture) any { return "ok" },
	}).New(newTestContext(t))
	require.NoError(t, err)

	assert.Equal(t, "ok", f.Get("c"))
	_, aUnresolved := f.Get("a").(resolver)
	_, bUnresolved := f.Get("b").(resolver)
	assert.True(t, aUnresolved)
	assert.True(t, bUnresolved)
}

func TestNew_SelfFunctionError(t *testing.T) {
	_, err := newClass(map[string]any{
		"a": func(f *Fixture) (any, error) { return nil, errors.New("boom") },
	}).New(newTestContext(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "resolve a: boom")
}

func TestNew_Error(t *testing.T) {
	class := newClass(map[string]any{
		"error": map[string]any{"class": "RuntimeError", "args": []any{"failure"}},
	})
	assert.True(t, class.IsError())

	f, err := class.New(newTestContext(t))
	require.NoError(t, err)
	assert.Equal(t, &Error{Class: "RuntimeError", Args: []any{"failure"}}, f.ExpectedError())
}

func TestNew_ErrorClassValue(t *testing.T) {
	f, err := newClass(map[string]any{
		"error": map[string]any{"class": NewErrorClass("CustomError")},
	}).New(newTestContext(t))
	require.NoError(t, err)
	assert.EqualError(t, f.ExpectedError(), "CustomError")
}

func TestNew_InvalidError(t *testing.T) {
	tests := []struct {
		name  string
		value any
	}{
		{"missing class", map[string]any{"args": []any{"x"}}},
		{"unknown class", map[string]any{"class": "NoSuchError"}},
		{"not a map", "RuntimeError"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newClass(map[string]any{"error": tt.value}).New(newTestContext(t))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidError)
			assert.ErrorIs(t, err, ErrAuthoring)
		})
	}
}

func TestNew_Mocks(t *testing.T) {
	f, err := newClass(map[string]any{
		"mocks": map[string]any{
			"symbol": map[string]any{"return_value": "needle"},
			"client.Get": map[string]any{"side_effect": []any{
				1,
				map[string]any{"class": "KeyError", "args": []any{"k"}},
			}},
		},
	}).New(newTestContext(t))
	require.NoError(t, err)

	mocks := f.Mocks()
	assert.Equal(t, mock.Return("needle"), mocks["symbol"])
	assert.Equal(t, []any{1, &Error{Class: "KeyError", Args: []any{"k"}}}, mocks["client.Get"].SideEffect)
}

func TestNew_MocksInvalid(t *testing.T) {
	_, err := newClass(map[string]any{
		"mocks": map[string]any{"symbol": map[string]any{"unknown": 1}},
	}).New(newTestContext(t))
	assert.ErrorIs(t, err, ErrAuthoring)
}

func TestNew_InitHook(t *testing.T) {
	base := &Kind{
		Name: "CounterFixture",
		Init: func(f *Fixture) error {
			f.Set("parameters", map[string]any{"start": 10})
			return nil
		},
	}
	child := &Kind{Name: "ChildCounterFixture", Parent: base}

	f, err := newClass(map[string]any{}, child).New(newTestContext(t))
	require.NoError(t, err)
	assert.Equal(t, 10, f.Param("start"))
}

func TestNew_InitHookError(t *testing.T) {
	k := &Kind{
		Name: "BrokenFixture",
		Init: func(f *Fixture) error { return errors.New("boom") },
	}

	_, err := newClass(map[string]any{}, k).New(newTestContext(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "init BrokenFixture: boom")
}
