package fixture

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
)

var (
	// ErrAuthoring marks mistakes in a scenario definition. Discovery stops
	// on these instead of skipping the class.
	ErrAuthoring = errors.New("fixture authoring error")

	// ErrInvalidError is returned when an "error" property has no usable
	// class.
	ErrInvalidError = fmt.Errorf("%w: invalid error property", ErrAuthoring)

	// ErrNoHandle is returned by PrepareMock when no handle is attached for
	// any prefix of the symbol.
	ErrNoHandle = errors.New("no mock handle attached")

	// ErrMissingAttr is matched by every *MissingAttrError.
	ErrMissingAttr = errors.New("missing attribute")
)

// MissingAttrError reports a read of an attribute that is not set.
type MissingAttrError struct {
	Name string
}

func (e *MissingAttrError) Error() string {
	return fmt.Sprintf("missing attribute %q", e.Name)
}

func (e *MissingAttrError) Is(target error) bool {
	return target == ErrMissingAttr
}

// Error is an expected (or observed) scenario error: a class name plus
// positional arguments.
type Error struct {
	Class string
	Args  []any
}

// Error renders like an exception message: the class name without
// arguments, the argument when there is one, the argument list otherwise.
func (e *Error) Error() string {
	switch len(e.Args) {
	case 0:
		return e.Class
	case 1:
		return fmt.Sprint(e.Args[0])
	default:
		parts := make([]string, len(e.Args))
		for i, arg := range e.Args {
			parts[i] = fmt.Sprintf("%#v", arg)
		}
		return "(" + strings.Join(parts, ", ") + ")"
	}
}

// ErrorClass constructs an error from positional arguments.
type ErrorClass func(args ...any) error

// NewErrorClass returns an ErrorClass producing *Error values named name.
func NewErrorClass(name string) ErrorClass {
	return func(args ...any) error {
		return &Error{Class: name, Args: args}
	}
}

var (
	errorClassesMu sync.RWMutex
	errorClasses   = map[string]ErrorClass{}
)

func init() {
	for _, name := range []string{"RuntimeError", "ValueError", "KeyError", "TypeError", "LookupError"} {
		errorClasses[name] = NewErrorClass(name)
	}
}

// RegisterErrorClass makes class available to scenario files under name.
func RegisterErrorClass(name string, class ErrorClass) {
	errorClassesMu.Lock()
	defer errorClassesMu.Unlock()
	errorClasses[name] = class
}

// LookupErrorClass returns the class registered under name.
func LookupErrorClass(name string) (ErrorClass, bool) {
	errorClassesMu.RLock()
	defer errorClassesMu.RUnlock()
	class, ok := errorClasses[name]
	return class, ok
}

// ErrorClasses lists registered class names in sorted order.
func ErrorClasses() []string {
	errorClassesMu.RLock()
	defer errorClassesMu.RUnlock()
	return slices.Sorted(maps.Keys(errorClasses))
}

// ParseError converts an "error" property into an error value.
//
// Accepted shapes are an error value, or a map with a "class" key (a
// registered class name or an ErrorClass) and an optional "args" list. A
// single non-list "args" value is treated as one argument.
func ParseError(raw any) (error, error) {
	switch v := raw.(type) {
	case error:
		return v, nil
	case map[string]any:
		return parseErrorMap(v)
	default:
		return nil, fmt.Errorf("%w: want a map with a class, got %T", ErrInvalidError, raw)
	}
}

func parseErrorMap(m map[string]any) (error, error) {
	var class ErrorClass
	switch c := m["class"].(type) {
	case nil:
		return nil, fmt.Errorf("%w: class is required", ErrInvalidError)
	case string:
		found, ok := LookupErrorClass(c)
		if !ok {
			return nil, fmt.Errorf("%w: unknown class %q", ErrInvalidError, c)
		}
		class = found
	case ErrorClass:
		class = c
	case func(args ...any) error:
		class = c
	default:
		return nil, fmt.Errorf("%w: class must be a name, got %T", ErrInvalidError, c)
	}

	var args []any
	switch a := m["args"].(type) {
	case nil:
	case []any:
		args = a
	default:
		args = []any{a}
	}

	return class(args...), nil
}

// errorFromEntry recognises error maps inside a side_effect list.
func errorFromEntry(entry any) (error, bool, error) {
	m, ok := entry.(map[string]any)
	if !ok {
		return nil, false, nil
	}
	if _, hasClass := m["class"]; !hasClass {
		return nil, false, nil
	}
	err, parseErr := parseErrorMap(m)
	if parseErr != nil {
		return nil, false, parseErr
	}
	return err, true, nil
}

// sameError reports whether got matches the expected error by class and
// arguments. Errors that are not *Error compare by identity or message.
func sameError(expected, got error) bool {
	if got == nil {
		return expected == nil
	}

	var want *Error
	if errors.As(expected, &want) {
		var have *Error
		if errors.As(got, &have) {
			return have.Class == want.Class && slices.EqualFunc(have.Args, want.Args, func(a, b any) bool {
				return fmt.Sprint(a) == fmt.Sprint(b)
			})
		}
		return got.Error() == want.Error()
	}

	return errors.Is(got, expected) || got.Error() == expected.Error()
}
