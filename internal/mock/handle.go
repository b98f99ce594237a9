// Package mock provides the call-recording doubles that scenario mocks are
// built from.
//
// A Handle stands in for a function: it records every call, answers with a
// configured return value or a sequence of values and errors, and exposes
// nested children so a dotted path such as "client.Repos.Get" addresses a
// distinct handle. Bind adapts a Handle to a concrete func type and Patch
// swaps it into a package-level function variable for the life of a test.
package mock

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

// ErrExhausted is returned once every value of a side-effect sequence has
// been consumed.
var ErrExhausted = errors.New("mock: side effect sequence exhausted")

// Call records the arguments of one invocation.
type Call struct {
	Args []any
}

// NewCall builds a Call for use in assertions.
func NewCall(args ...any) Call {
	return Call{Args: args}
}

func (c Call) String() string {
	parts := make([]string, len(c.Args))
	for i, arg := range c.Args {
		parts[i] = fmt.Sprintf("%#v", arg)
	}
	return "call(" + strings.Join(parts, ", ") + ")"
}

// Handle is a recording test double.
//
// The zero value is not usable; create handles with New. All methods are
// safe for concurrent use.
type Handle struct {
	name string

	mu         sync.Mutex
	calls      []Call
	children   map[string]*Handle
	returns    any
	hasReturn  bool
	sequence   []any
	inSequence bool
	do         func(args ...any) (any, error)
}

// New creates a handle. The name is used in assertion messages.
func New(name string) *Handle {
	return &Handle{
		name:     name,
		children: make(map[string]*Handle),
	}
}

// Name returns the dotted name of the handle.
func (h *Handle) Name() string {
	return h.name
}

// Child returns the nested handle called name, creating it on first access.
func (h *Handle) Child(name string) *Handle {
	h.mu.Lock()
	defer h.mu.Unlock()

	child, ok := h.children[name]
	if !ok {
		child = New(h.name + "." + name)
		h.children[name] = child
	}
	return child
}

// Attr walks a dotted path of children. An empty path returns h itself.
func (h *Handle) Attr(path string) *Handle {
	current := h
	if path == "" {
		return current
	}
	for _, segment := range strings.Split(path, ".") {
		current = current.Child(segment)
	}
	return current
}

// Configure applies cfg to the handle. Settings not present in cfg are kept.
func (h *Handle) Configure(cfg Config) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if cfg.HasReturn {
		h.returns = cfg.ReturnValue
		h.hasReturn = true
	}
	if cfg.SideEffect != nil {
		h.sequence = append([]any(nil), cfg.SideEffect...)
		h.inSequence = true
	}
	if cfg.Do != nil {
		h.do = cfg.Do
	}
}

// Call records an invocation and returns the configured answer.
//
// Precedence: Do function, then side-effect sequence, then return value.
// Sequence entries that are errors are returned as the error result. An
// unconfigured handle returns nil, nil.
func (h *Handle) Call(args ...any) (any, error) {
	h.mu.Lock()
	h.calls = append(h.calls, Call{Args: args})
	do := h.do

	if do == nil && h.inSequence {
		if len(h.sequence) == 0 {
			h.mu.Unlock()
			return nil, fmt.Errorf("%s: %w", h.name, ErrExhausted)
		}
		next := h.sequence[0]
		h.sequence = h.sequence[1:]
		h.mu.Unlock()

		if err, ok := next.(error); ok {
			return nil, err
		}
		return next, nil
	}

	value := h.returns
	h.mu.Unlock()

	if do != nil {
		return do(args...)
	}
	return value, nil
}

// Calls returns a copy of the recorded calls in order.
func (h *Handle) Calls() []Call {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Call(nil), h.calls...)
}

// CallCount returns the number of recorded calls.
func (h *Handle) CallCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.calls)
}

// Called reports whether the handle was called at least once.
func (h *Handle) Called() bool {
	return h.CallCount() > 0
}

// Reset forgets recorded calls on h and all its children. Configuration is
// kept.
func (h *Handle) Reset() {
	h.mu.Lock()
	h.calls = nil
	children := make([]*Handle, 0, len(h.children))
	for _, child := range h.children {
		children = append(children, child)
	}
	h.mu.Unlock()

	for _, child := range children {
		child.Reset()
	}
}
