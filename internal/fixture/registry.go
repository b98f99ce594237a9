package fixture

import (
	"errors"
	"fmt"
	"maps"
	"runtime"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Registry collects kinds and registered classes so they can be discovered
// by base kind.
type Registry struct {
	mu      sync.Mutex
	kinds   []*Kind
	classes []*Class
}

// Default is the process-wide registry used by the package-level functions.
var Default = NewRegistry()

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Define records hand-written kinds. Defining a kind twice is a no-op.
func (r *Registry) Define(kinds ...*Kind) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, k := range kinds {
		if !slices.Contains(r.kinds, k) {
			r.kinds = append(r.kinds, k)
		}
	}
}

// Register synthesizes a class from props and records it in ns and r.
//
// The identifier comes from a "_<32 hex>" suffix on source, or is random.
func (r *Registry) Register(ns Namespace, source string, bases []*Kind, props map[string]any) *Class {
	id, ok := SourceUUID(source)
	if !ok {
		id = uuid.New()
	}
	return r.RegisterWithUUID(ns, source, id, bases, props)
}

// RegisterWithUUID is Register with a caller-chosen identifier.
func (r *Registry) RegisterWithUUID(ns Namespace, source string, id uuid.UUID, bases []*Kind, props map[string]any) *Class {
	bases = slices.Clone(bases)
	if _, ok := props[PropError]; ok && !slices.Contains(bases, ErrorFixture) {
		bases = append([]*Kind{ErrorFixture}, bases...)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, base := range bases {
		if !slices.Contains(r.kinds, base) {
			r.kinds = append(r.kinds, base)
		}
	}

	class := &Class{
		Name:       UniqueClassName(ns, id),
		UUID:       id,
		Module:     source,
		Bases:      bases,
		Properties: maps.Clone(props),
	}
	ns[class.Name] = class
	r.classes = append(r.classes, class)
	return class
}

// Classes returns the registered classes in registration order.
func (r *Registry) Classes() []*Class {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.classes)
}

// Of instantiates every leaf that strictly descends from one of kinds.
//
// Leaves are registered classes and defined kinds that no other kind or
// class builds on. The given kinds themselves are never returned. Results
// are ordered by fixture name. A class failing with an ErrAuthoring error
// aborts discovery; other construction failures are logged and skipped.
func (r *Registry) Of(ctx Context, kinds ...*Kind) ([]*Fixture, error) {
	if len(kinds) == 0 {
		return nil, nil
	}

	r.mu.Lock()
	defined := slices.Clone(r.kinds)
	registered := slices.Clone(r.classes)
	r.mu.Unlock()

	descends := func(lin []*Kind) bool {
		for _, k := range lin {
			if slices.Contains(kinds, k) {
				return true
			}
		}
		return false
	}

	var candidates []*Class
	for _, class := range registered {
		if descends(class.Kinds()) {
			candidates = append(candidates, class)
		}
	}
	for _, k := range defined {
		if slices.Contains(kinds, k) || k == ErrorFixture || !isLeaf(k, defined, registered) {
			continue
		}
		if descends(linearize([]*Kind{k})) {
			candidates = append(candidates, kindClass(k))
		}
	}

	slices.SortStableFunc(candidates, func(a, b *Class) int {
		return strings.Compare(a.Name, b.Name)
	})

	fixtures := make([]*Fixture, 0, len(candidates))
	for _, class := range candidates {
		f, err := class.New(ctx)
		if err != nil {
			if errors.Is(err, ErrAuthoring) {
				return nil, err
			}
			loggerOf(ctx).Warn("skipping fixture class",
				"class", class.Name,
				"module", class.Module,
				"error", err)
			continue
		}
		fixtures = append(fixtures, f)
	}
	return fixtures, nil
}

func isLeaf(k *Kind, defined []*Kind, registered []*Class) bool {
	for _, other := range defined {
		if other.Parent == k {
			return false
		}
	}
	for _, class := range registered {
		if slices.Contains(class.Bases, k) {
			return false
		}
	}
	return true
}

// Define records kinds in the Default registry.
func Define(kinds ...*Kind) {
	Default.Define(kinds...)
}

// Register records a class in the Default registry, using the calling file
// as its source.
func Register(ns Namespace, bases []*Kind, props map[string]any) *Class {
	_, file, _, ok := runtime.Caller(1)
	if !ok {
		file = "unknown"
	}
	return Default.Register(ns, file, bases, props)
}

// Of discovers fixtures in the Default registry.
func Of(ctx Context, kinds ...*Kind) ([]*Fixture, error) {
	fixtures, err := Default.Of(ctx, kinds...)
	if err != nil {
		return nil, fmt.Errorf("discover fixtures: %w", err)
	}
	return fixtures, nil
}
