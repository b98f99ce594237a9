package mock

import (
	"fmt"
	"math"
	"reflect"
	"testing"
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// Bind returns a function of type F that forwards its arguments to h.
//
// The first non-error result receives the handle's answer converted to the
// declared type; a nil or missing answer yields the zero value. Numbers
// convert only when exact, other values only within the same kind, so a
// configured 65 never becomes "A". A call whose answer cannot convert
// panics. When the
// last result is an error it receives the handle's error. Bind panics if F
// is not a func type.
func Bind[F any](h *Handle) F {
	var zero F
	typ := reflect.TypeOf(&zero).Elem()
	return makeFunc(typ, h).Interface().(F)
}

func makeFunc(typ reflect.Type, h *Handle) reflect.Value {
	if typ.Kind() != reflect.Func {
		panic(fmt.Sprintf("mock: cannot bind %s to %s", h.name, typ))
	}

	return reflect.MakeFunc(typ, func(in []reflect.Value) []reflect.Value {
		args := make([]any, 0, len(in))
		for i, v := range in {
			if typ.IsVariadic() && i == len(in)-1 {
				for j := 0; j < v.Len(); j++ {
					args = append(args, v.Index(j).Interface())
				}
				continue
			}
			args = append(args, v.Interface())
		}

		value, err := h.Call(args...)
		return results(typ, h.name, value, err)
	})
}

func results(typ reflect.Type, name string, value any, err error) []reflect.Value {
	out := make([]reflect.Value, typ.NumOut())
	valueSet := false

	for i := range out {
		rt := typ.Out(i)
		switch {
		case i == typ.NumOut()-1 && rt == errorType:
			if err != nil {
				out[i] = reflect.ValueOf(err)
			} else {
				out[i] = reflect.Zero(rt)
			}
		case !valueSet:
			out[i] = convert(rt, name, value)
			valueSet = true
		default:
			out[i] = reflect.Zero(rt)
		}
	}

	if err != nil && (typ.NumOut() == 0 || typ.Out(typ.NumOut()-1) != errorType) {
		panic(fmt.Sprintf("mock: %s: %v", name, err))
	}
	return out
}

func convert(rt reflect.Type, name string, value any) reflect.Value {
	if value == nil {
		return reflect.Zero(rt)
	}
	v := reflect.ValueOf(value)
	if v.Type().AssignableTo(rt) {
		out := reflect.New(rt).Elem()
		out.Set(v)
		return out
	}
	if out, ok := convertNumber(v, rt); ok {
		return out
	}
	if v.Kind() == rt.Kind() && !isNumber(rt.Kind()) && v.Type().ConvertibleTo(rt) {
		return v.Convert(rt)
	}
	panic(fmt.Sprintf("mock: %s returned %T, want %s", name, value, rt))
}

// convertNumber converts between numeric kinds when the value is
// represented exactly in rt. Fractions, negative values for unsigned types
// and out-of-range values are refused.
func convertNumber(v reflect.Value, rt reflect.Type) (reflect.Value, bool) {
	if !isNumber(v.Kind()) || !isNumber(rt.Kind()) {
		return reflect.Value{}, false
	}
	out := reflect.New(rt).Elem()
	to := rt.Kind()

	switch {
	case isInt(v.Kind()):
		n := v.Int()
		switch {
		case isInt(to) && !out.OverflowInt(n):
			out.SetInt(n)
		case isUint(to) && n >= 0 && !out.OverflowUint(uint64(n)):
			out.SetUint(uint64(n))
		case isFloat(to):
			out.SetFloat(float64(n))
		default:
			return reflect.Value{}, false
		}
	case isUint(v.Kind()):
		n := v.Uint()
		switch {
		case isUint(to) && !out.OverflowUint(n):
			out.SetUint(n)
		case isInt(to) && n <= math.MaxInt64 && !out.OverflowInt(int64(n)):
			out.SetInt(int64(n))
		case isFloat(to):
			out.SetFloat(float64(n))
		default:
			return reflect.Value{}, false
		}
	default:
		f := v.Float()
		integral := f == math.Trunc(f)
		switch {
		case isFloat(to) && !out.OverflowFloat(f):
			out.SetFloat(f)
		case isInt(to) && integral && f >= math.MinInt64 && f < math.MaxInt64 && !out.OverflowInt(int64(f)):
			out.SetInt(int64(f))
		case isUint(to) && integral && f >= 0 && f < math.MaxUint64 && !out.OverflowUint(uint64(f)):
			out.SetUint(uint64(f))
		default:
			return reflect.Value{}, false
		}
	}
	return out, true
}

func isInt(k reflect.Kind) bool    { return k >= reflect.Int && k <= reflect.Int64 }
func isUint(k reflect.Kind) bool   { return k >= reflect.Uint && k <= reflect.Uintptr }
func isFloat(k reflect.Kind) bool  { return k == reflect.Float32 || k == reflect.Float64 }
func isNumber(k reflect.Kind) bool { return isInt(k) || isUint(k) || isFloat(k) }

// Patch replaces *target with repl and restores the original value when the
// test finishes.
func Patch[F any](tb testing.TB, target *F, repl F) {
	tb.Helper()
	original := *target
	*target = repl
	tb.Cleanup(func() { *target = original })
}

// PatchTarget installs h into target, which must be a non-nil pointer to a
// func-typed variable. The original value is restored on cleanup.
func PatchTarget(tb testing.TB, target any, h *Handle) error {
	tb.Helper()

	ptr := reflect.ValueOf(target)
	if ptr.Kind() != reflect.Pointer || ptr.IsNil() {
		return fmt.Errorf("mock: patch target for %s must be a non-nil pointer, got %T", h.name, target)
	}
	elem := ptr.Elem()
	if elem.Kind() != reflect.Func {
		return fmt.Errorf("mock: patch target for %s must point to a func, got %s", h.name, elem.Type())
	}

	original := reflect.New(elem.Type()).Elem()
	original.Set(elem)
	elem.Set(makeFunc(elem.Type(), h))
	tb.Cleanup(func() { elem.Set(original) })
	return nil
}
