package hook

import (
	"fmt"
	"reflect"
)

// PostStyle selects what a PostHook receives.
type PostStyle int

const (
	// PassReturn invokes the post hook with the call's return values,
	// unpacked as its arguments. Use when the artifact of interest is part
	// of the return value.
	PassReturn PostStyle = iota
	// PassReceiver invokes the post hook with the receiver as its sole
	// argument. Use when the artifact of interest is receiver state.
	PassReceiver
)

// PreHook runs before the original call. It receives the receiver (nil for
// plain functions) and the arguments of the call. Mutating args affects only
// the hook's view, never the forwarded call.
type PreHook func(recv any, args []any)

// PostHook runs after the original call returns normally. Its arguments are
// chosen by the PostStyle of the installation.
type PostHook func(vals ...any)

// Wrap composes fn with before/after callbacks and returns a new function of
// the identical type. The wrapper forwards arguments unchanged, returns fn's
// results unchanged and lets panics from fn propagate unchanged; the hooks
// are strictly additive side effects.
//
// fn must be a function value; anything else fails with ErrNotCallable.
func Wrap(fn any, pre PreHook, post PostHook, style PostStyle) (any, error) {
	if fn == nil {
		return nil, fmt.Errorf("%w: nil function", ErrNotCallable)
	}
	fv := reflect.ValueOf(fn)
	if fv.Kind() != reflect.Func {
		return nil, fmt.Errorf("%w: %T", ErrNotCallable, fn)
	}

	wrapper := reflect.MakeFunc(fv.Type(), func(in []reflect.Value) []reflect.Value {
		if pre != nil {
			pre(nil, valuesToAny(in))
		}
		out := fv.Call(in)
		if post != nil {
			firePost(post, style, nil, out)
		}
		return out
	})
	return wrapper.Interface(), nil
}

func firePost(post PostHook, style PostStyle, recv any, out []reflect.Value) {
	switch style {
	case PassReceiver:
		post(recv)
	default:
		post(valuesToAny(out)...)
	}
}

func valuesToAny(vals []reflect.Value) []any {
	out := make([]any, len(vals))
	for i, v := range vals {
		out[i] = v.Interface()
	}
	return out
}

// anyToValues converts caller-supplied arguments to the parameter types of
// fnType, honoring variadic tails. A nil argument becomes the zero value of
// the parameter type.
func anyToValues(fnType reflect.Type, args []any) ([]reflect.Value, error) {
	numIn := fnType.NumIn()
	if fnType.IsVariadic() {
		if len(args) < numIn-1 {
			return nil, fmt.Errorf("expected at least %d arguments, got %d", numIn-1, len(args))
		}
	} else if len(args) != numIn {
		return nil, fmt.Errorf("expected %d arguments, got %d", numIn, len(args))
	}

	in := make([]reflect.Value, len(args))
	for i, arg := range args {
		var want reflect.Type
		if fnType.IsVariadic() && i >= numIn-1 {
			want = fnType.In(numIn - 1).Elem()
		} else {
			want = fnType.In(i)
		}

		if arg == nil {
			in[i] = reflect.Zero(want)
			continue
		}
		av := reflect.ValueOf(arg)
		switch {
		case av.Type().AssignableTo(want):
			in[i] = av
		case av.Type().ConvertibleTo(want):
			in[i] = av.Convert(want)
		default:
			return nil, fmt.Errorf("argument %d: %T is not assignable to %s", i, arg, want)
		}
	}
	return in, nil
}
