package fixture

import (
	"errors"
	"fmt"
	"maps"
	"reflect"
	"slices"

	"github.com/roach88/casegen/internal/depsort"
	"github.com/roach88/casegen/internal/mock"
)

// Reserved property names.
const (
	PropDescription = "description"
	PropError       = "error"
	PropMocks       = "mocks"
	PropParameters  = "parameters"
	PropExpected    = "expected"
)

// resolver computes an attribute from the partially built fixture.
type resolver func(f *Fixture) (any, error)

// New instantiates the class against ctx.
//
// Properties resolve in sorted order: nested kinds and classes become
// fixtures sharing ctx, reflect.Type values become new zero instances, and
// functions taking the fixture are evaluated, retrying in dependency order
// when one reads an attribute another produces. Functions that still cannot
// resolve are stored as they are. The nearest Init hook runs last.
func (c *Class) New(ctx Context) (*Fixture, error) {
	f := &Fixture{
		class: c,
		ctx:   ctx,
		kinds: c.Kinds(),
		attrs: make(map[string]any),
	}

	pending := make(map[string]resolver)
	for _, key := range slices.Sorted(maps.Keys(c.Properties)) {
		value := c.Properties[key]

		switch key {
		case PropDescription:
			f.extra = fmt.Sprint(value)
			continue
		case PropError:
			expected, err := ParseError(value)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", c.Name, err)
			}
			f.expected = expected
			continue
		case PropMocks:
			mocks, err := parseMocks(value)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", c.Name, err)
			}
			f.mocks = mocks
			continue
		}

		switch v := value.(type) {
		case *Kind:
			nested, err := kindClass(v).New(ctx)
			if err != nil {
				return nil, fmt.Errorf("%s.%s: %w", c.Name, key, err)
			}
			f.attrs[key] = nested
		case *Class:
			nested, err := v.New(ctx)
			if err != nil {
				return nil, fmt.Errorf("%s.%s: %w", c.Name, key, err)
			}
			f.attrs[key] = nested
		case reflect.Type:
			f.attrs[key] = reflect.New(v).Interface()
		case func(*Fixture) any:
			pending[key] = func(f *Fixture) (any, error) { return v(f), nil }
		case func(*Fixture) (any, error):
			pending[key] = v
		default:
			f.attrs[key] = value
		}
	}

	if err := f.resolve(pending); err != nil {
		return nil, fmt.Errorf("%s: %w", c.Name, err)
	}

	if k := firstWith(f.kinds, hasInit); k != nil {
		if err := k.Init(f); err != nil {
			return nil, fmt.Errorf("%s: init %s: %w", c.Name, k.Name, err)
		}
	}

	return f, nil
}

// resolve evaluates pending resolvers. A resolver that reports a missing
// attribute records it as a prerequisite; each pass orders the remaining
// resolvers with depsort and stops once a pass makes no progress.
func (f *Fixture) resolve(pending map[string]resolver) error {
	requires := make(map[string][]string, len(pending))

	for len(pending) > 0 {
		graph := make(map[string][]string, len(pending))
		for name := range pending {
			deps := []string{}
			for _, dep := range requires[name] {
				if _, waiting := pending[dep]; waiting || !f.Has(dep) {
					deps = append(deps, dep)
				}
			}
			graph[name] = deps
		}

		order, err := depsort.TopologicalSort(graph)
		if err != nil {
			var unresolvable *depsort.UnresolvableError
			if !errors.As(err, &unresolvable) {
				return err
			}
			order = unresolvable.Resolved
		}

		progress := false
		for _, name := range order {
			value, err := call(pending[name], f)
			var missing *MissingAttrError
			switch {
			case errors.As(err, &missing):
				if !slices.Contains(requires[name], missing.Name) {
					requires[name] = append(requires[name], missing.Name)
					progress = true
				}
			case err != nil:
				return fmt.Errorf("resolve %s: %w", name, err)
			default:
				f.attrs[name] = value
				delete(pending, name)
				progress = true
			}
		}

		if !progress {
			break
		}
	}

	for _, name := range slices.Sorted(maps.Keys(pending)) {
		loggerOf(f.ctx).Debug("attribute left unresolved",
			"class", f.class.Name,
			"attribute", name,
			"requires", requires[name])
		f.attrs[name] = pending[name]
	}
	return nil
}

// call runs r, turning a MustAttr panic into an error.
func call(r resolver, f *Fixture) (value any, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			missing, ok := recovered.(*MissingAttrError)
			if !ok {
				panic(recovered)
			}
			err = missing
		}
	}()
	return r(f)
}

func parseMocks(raw any) (map[string]mock.Config, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case map[string]mock.Config:
		return maps.Clone(v), nil
	case map[string]any:
		mocks := make(map[string]mock.Config, len(v))
		for symbol, entry := range v {
			switch e := entry.(type) {
			case mock.Config:
				mocks[symbol] = e
			case map[string]any:
				cfg, err := mock.ParseConfig(e, errorFromEntry)
				if err != nil {
					return nil, fmt.Errorf("%w: mocks.%s: %v", ErrAuthoring, symbol, err)
				}
				mocks[symbol] = cfg
			case nil:
				mocks[symbol] = mock.Config{}
			default:
				return nil, fmt.Errorf("%w: mocks.%s: want a map, got %T", ErrAuthoring, symbol, entry)
			}
		}
		return mocks, nil
	case []any:
		// A bare list of symbols requests mocks without configuration.
		mocks := make(map[string]mock.Config, len(v))
		for _, symbol := range v {
			mocks[fmt.Sprint(symbol)] = mock.Config{}
		}
		return mocks, nil
	default:
		return nil, fmt.Errorf("%w: mocks: want a map, got %T", ErrAuthoring, raw)
	}
}
