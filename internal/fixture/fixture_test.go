package fixture

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/casegen/internal/mock"
)

func newFixture(t *testing.T, ctx Context, class *Class) *Fixture {
	t.Helper()
	f, err := class.New(ctx)
	require.NoError(t, err)
	return f
}

func TestFixture_Name(t *testing.T) {
	class := &Class{Name: "f_94d7c58f6ee44683936c21cb84d1e458"}
	f := newFixture(t, newTestContext(t), class)
	assert.Equal(t, "test_f_94d7c58f6ee44683936c21cb84d1e458", f.Name())
}

func TestFixture_Category(t *testing.T) {
	class := &Class{Module: "test_torment.test_unit.test_fixtures.fixture_a44bc6dda6654b1395a8c2cbd55d964d"}
	f := newFixture(t, newTestContext(t), class)
	assert.Equal(t, "fixtures", f.Category())
}

func TestFixture_Description(t *testing.T) {
	ctx := newTestContext(t)
	ctx.module = "fixtures"
	class := &Class{UUID: uuid.MustParse("94d7c58f6ee44683936c21cb84d1e458")}

	f := newFixture(t, ctx, class)
	assert.Equal(t, "94d7c58f6ee44683936c21cb84d1e458—fixtures", f.Description())
}

func TestFixture_DescriptionExtra(t *testing.T) {
	ctx := newTestContext(t)
	ctx.module = "stack"
	class := &Class{
		UUID:       uuid.MustParse("d438b6f7a4ed4b4a9c2e1f3a5b6c7d8e"),
		Properties: map[string]any{"description": "needle"},
	}

	f := newFixture(t, ctx, class)
	assert.Equal(t, "d438b6f7a4ed4b4a9c2e1f3a5b6c7d8e—stack—needle", f.Description())
}

// TestFixture_DescribeHooksRootToLeaf tests that Describe hooks compose from
// the root kind outwards.
func TestFixture_DescribeHooksRootToLeaf(t *testing.T) {
	root := &Kind{Name: "Call", Describe: func(f *Fixture, desc string) string {
		return desc + ".up()"
	}}
	leaf := &Kind{Name: "Up", Parent: root, Describe: func(f *Fixture, desc string) string {
		return desc[:len(desc)-1] + "web)"
	}}
	ctx := newTestContext(t)
	ctx.module = "compose"
	class := &Class{UUID: uuid.MustParse("94d7c58f6ee44683936c21cb84d1e458"), Bases: []*Kind{leaf}}

	f := newFixture(t, ctx, class)
	assert.Equal(t, "94d7c58f6ee44683936c21cb84d1e458—compose.up(web)", f.Description())
}

func TestErrorFixture_Description(t *testing.T) {
	expected := &Kind{Name: "Expected", Describe: func(f *Fixture, desc string) string {
		return "expected"
	}}
	class := &Class{
		Bases:      []*Kind{ErrorFixture, expected},
		Properties: map[string]any{"error": map[string]any{"class": "RuntimeError", "args": []any{"failure"}}},
	}

	f := newFixture(t, newTestContext(t), class)
	assert.Equal(t, "expected → failure", f.Description())
}

func TestErrorFixture_RunCapturesError(t *testing.T) {
	failing := &Kind{Name: "Failing", Run: func(f *Fixture) error {
		return &Error{Class: "RuntimeError", Args: []any{"failure"}}
	}}
	class := &Class{
		Bases:      []*Kind{ErrorFixture, failing},
		Properties: map[string]any{"error": map[string]any{"class": "RuntimeError", "args": []any{"failure"}}},
	}

	f := newFixture(t, newTestContext(t), class)
	require.NoError(t, f.Run())

	var got *Error
	require.True(t, errors.As(f.Exception(), &got))
	assert.Equal(t, "RuntimeError", got.Class)
	assert.Equal(t, []any{"failure"}, got.Args)
	f.Check()
}

func TestErrorFixture_RunCapturesPanic(t *testing.T) {
	panicking := &Kind{Name: "Panicking", Run: func(f *Fixture) error {
		panic(&Error{Class: "KeyError", Args: []any{"missing"}})
	}}
	class := &Class{
		Bases:      []*Kind{ErrorFixture, panicking},
		Properties: map[string]any{"error": map[string]any{"class": "KeyError", "args": []any{"missing"}}},
	}

	f := newFixture(t, newTestContext(t), class)
	require.NoError(t, f.Run())
	assert.EqualError(t, f.Exception(), "missing")
	f.Check()
}

func TestErrorFixture_CheckReportsMismatch(t *testing.T) {
	tests := []struct {
		name string
		run  func(f *Fixture) error
		want string
	}{
		{
			name: "no error",
			run:  func(f *Fixture) error { return nil },
			want: "got none",
		},
		{
			name: "wrong class",
			run:  func(f *Fixture) error { return &Error{Class: "ValueError", Args: []any{"failure"}} },
			want: `got "ValueError[failure]"`,
		},
		{
			name: "wrong args",
			run:  func(f *Fixture) error { return &Error{Class: "RuntimeError", Args: []any{"other"}} },
			want: `got "RuntimeError[other]"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recordingTB{}
			ctx := newTestContext(rec)
			class := &Class{
				Name:       "f_case",
				Bases:      []*Kind{ErrorFixture, {Name: "Body", Run: tt.run}},
				Properties: map[string]any{"error": map[string]any{"class": "RuntimeError", "args": []any{"failure"}}},
			}

			f := newFixture(t, ctx, class)
			require.NoError(t, f.Run())
			f.Check()

			require.Len(t, rec.failures, 1)
			assert.Contains(t, rec.failures[0], tt.want)
		})
	}
}

func TestErrorFixture_PlainErrorComparedByMessage(t *testing.T) {
	rec := &recordingTB{}
	class := &Class{
		Bases: []*Kind{ErrorFixture, {Name: "Body", Run: func(f *Fixture) error {
			return errors.New("failure")
		}}},
		Properties: map[string]any{"error": map[string]any{"class": "RuntimeError", "args": []any{"failure"}}},
	}

	f := newFixture(t, newTestContext(rec), class)
	require.NoError(t, f.Run())
	f.Check()
	assert.Empty(t, rec.failures)
}

func TestFixture_LifecycleHooks(t *testing.T) {
	var calls []string
	k := &Kind{
		Name:  "Recorder",
		Setup: func(f *Fixture) error { calls = append(calls, "setup"); return nil },
		Run:   func(f *Fixture) error { calls = append(calls, "run"); return nil },
		Check: func(f *Fixture) { calls = append(calls, "check") },
	}

	f := newFixture(t, newTestContext(t), &Class{Bases: []*Kind{k}})
	require.NoError(t, f.Setup())
	require.NoError(t, f.Run())
	f.Check()

	assert.Equal(t, []string{"setup", "run", "check"}, calls)
}

func TestFixture_HooksInheritFromParent(t *testing.T) {
	ran := false
	parent := &Kind{Name: "Parent", Run: func(f *Fixture) error { ran = true; return nil }}
	child := &Kind{Name: "Child", Parent: parent}

	f := newFixture(t, newTestContext(t), &Class{Bases: []*Kind{child}})
	require.NoError(t, f.Run())
	assert.True(t, ran)
}

func TestFixture_RunErrorPropagates(t *testing.T) {
	k := &Kind{Name: "Failing", Run: func(f *Fixture) error { return errors.New("boom") }}
	f := newFixture(t, newTestContext(t), &Class{Bases: []*Kind{k}})
	assert.EqualError(t, f.Run(), "boom")
}

func TestFixture_SetupInstallsMocks(t *testing.T) {
	ctx := newTestContext(t)
	ctx.producer("mock_symbol", "mocked_symbol")

	class := &Class{Properties: map[string]any{
		"mocks": map[string]any{
			"symbol":     map[string]any{"return_value": "needle"},
			"symbol.Sub": map[string]any{"return_value": "nested"},
		},
	}}

	f := newFixture(t, ctx, class)
	require.NoError(t, f.Setup())

	handle := ctx.handles["mocked_symbol"]
	require.NotNil(t, handle)

	value, err := handle.Call()
	require.NoError(t, err)
	assert.Equal(t, "needle", value)

	value, err = handle.Child("Sub").Call()
	require.NoError(t, err)
	assert.Equal(t, "nested", value)

	assert.Equal(t, []string{"mock_symbol", "mock_symbol"}, ctx.installs)
}

func TestFixture_SetupSkipsUnmockable(t *testing.T) {
	ctx := newTestContext(t)
	class := &Class{Properties: map[string]any{
		"mocks": map[string]any{"unknown": map[string]any{"return_value": 1}},
	}}

	f := newFixture(t, ctx, class)
	assert.NoError(t, f.Setup())
}

// TestFixture_SetupFailsWhenProducerLeavesNoHandle tests that a producer
// reporting success without attaching a handle is an error.
func TestFixture_SetupFailsWhenProducerLeavesNoHandle(t *testing.T) {
	ctx := newTestContext(t)
	ctx.mockers["mock_symbol"] = func() bool { return true }
	class := &Class{Properties: map[string]any{
		"mocks": map[string]any{"symbol": map[string]any{"return_value": 1}},
	}}

	f := newFixture(t, ctx, class)
	err := f.Setup()
	assert.ErrorIs(t, err, ErrNoHandle)
}

func TestFixture_SetupConfiguresPreattachedHandle(t *testing.T) {
	ctx := newTestContext(t)
	ctx.handles["mocked_clock"] = mock.New("mocked_clock")
	class := &Class{Properties: map[string]any{
		"mocks": map[string]any{"clock.Now": map[string]any{"side_effect": []any{1, 2}}},
	}}

	f := newFixture(t, ctx, class)
	require.NoError(t, f.Setup())

	value, err := ctx.handles["mocked_clock"].Attr("Now").Call()
	require.NoError(t, err)
	assert.Equal(t, 1, value)
}

func TestFixture_Attributes(t *testing.T) {
	class := &Class{Properties: map[string]any{
		"parameters": map[string]any{"items": []any{1, 2}},
		"expected":   []any{"a"},
	}}
	f := newFixture(t, newTestContext(t), class)

	assert.Equal(t, []any{1, 2}, f.Param("items"))
	assert.Nil(t, f.Param("missing"))
	assert.Equal(t, []any{"a"}, f.Expected())
	assert.Equal(t, []string{"expected", "parameters"}, f.Attrs())

	_, err := f.Attr("missing")
	assert.ErrorIs(t, err, ErrMissingAttr)
	assert.Panics(t, func() { f.MustAttr("missing") })

	f.Set("added", 3)
	assert.True(t, f.Has("added"))
}

func TestFixture_Decode(t *testing.T) {
	class := &Class{Properties: map[string]any{
		"parameters": map[string]any{"items": []any{
			map[string]any{"a": []any{1, 2}},
		}},
	}}
	f := newFixture(t, newTestContext(t), class)

	var params struct {
		Items []map[string][]int `yaml:"items"`
	}
	require.NoError(t, f.Decode("parameters", &params))
	assert.Equal(t, []map[string][]int{{"a": {1, 2}}}, params.Items)

	assert.ErrorIs(t, f.Decode("missing", &params), ErrMissingAttr)
}

func TestFixture_AssertBoundToContext(t *testing.T) {
	rec := &recordingTB{}
	f := newFixture(t, newTestContext(rec), &Class{})

	f.Assert().Equal(1, 2)
	assert.Len(t, rec.failures, 1)
}

func TestError_Message(t *testing.T) {
	assert.Equal(t, "RuntimeError", (&Error{Class: "RuntimeError"}).Error())
	assert.Equal(t, "failure", (&Error{Class: "RuntimeError", Args: []any{"failure"}}).Error())
	assert.Equal(t, `("a", 1)`, (&Error{Class: "RuntimeError", Args: []any{"a", 1}}).Error())
}

func TestRegisterErrorClass(t *testing.T) {
	RegisterErrorClass("TimeoutError", NewErrorClass("TimeoutError"))
	assert.Contains(t, ErrorClasses(), "TimeoutError")

	err, perr := ParseError(map[string]any{"class": "TimeoutError", "args": "slow"})
	require.NoError(t, perr)
	assert.Equal(t, &Error{Class: "TimeoutError", Args: []any{"slow"}}, err)
}
