// Package handler provides reflection-based method descriptors for the guard.
package handler

import (
	"errors"
	"fmt"
	"reflect"
)

// maxEmbedDepth bounds the search for a promoted receiver.
const maxEmbedDepth = 8

var errorType = reflect.TypeOf((*error)(nil)).Elem()

var (
	// ErrIncorrectArgumentCount is returned when an invocation supplies the
	// wrong number of arguments.
	ErrIncorrectArgumentCount = errors.New("blockguard: incorrect number of arguments")
	// ErrArgumentMismatch is returned when an argument or receiver is not
	// assignable to the declared parameter type.
	ErrArgumentMismatch = errors.New("blockguard: argument mismatch")
)

// InvocationError wraps a failure returned by an invoked method. It marks the
// boundary between the method's own failure and a failure to invoke it.
type InvocationError struct {
	Method string
	Err    error
}

func (e *InvocationError) Error() string {
	return fmt.Sprintf("invocation of %s: %v", e.Method, e.Err)
}

func (e *InvocationError) Unwrap() error {
	return e.Err
}

// Func holds the reflected shape of a declared method.
type Func struct {
	Fn       reflect.Value
	Receiver reflect.Type // nil for static funcs
	Params   []reflect.Type
	Return   reflect.Type // nil for void
	HasError bool
}

// New creates a Func from fn.
// When static is false the first parameter of fn is the receiver, so method
// expressions such as (*Service).Hello can be declared directly.
// Results may be (), (T), (error) or (T, error).
func New(fn any, static bool) (*Func, error) {
	if fn == nil {
		return nil, fmt.Errorf("method cannot be nil")
	}

	fnVal := reflect.ValueOf(fn)
	if fnVal.Kind() != reflect.Func {
		return nil, fmt.Errorf("method must be a function")
	}
	if fnVal.IsNil() {
		return nil, fmt.Errorf("method function cannot be nil")
	}

	fnType := fnVal.Type()
	if fnType.IsVariadic() {
		return nil, fmt.Errorf("variadic methods are not supported")
	}

	f := &Func{Fn: fnVal}

	start := 0
	if !static {
		if fnType.NumIn() < 1 {
			return nil, fmt.Errorf("instance method must take a receiver as its first argument")
		}
		f.Receiver = fnType.In(0)
		start = 1
	}

	f.Params = make([]reflect.Type, 0, fnType.NumIn()-start)
	for i := start; i < fnType.NumIn(); i++ {
		f.Params = append(f.Params, fnType.In(i))
	}

	switch fnType.NumOut() {
	case 0:
	case 1:
		if fnType.Out(0) == errorType {
			f.HasError = true
		} else {
			f.Return = fnType.Out(0)
		}
	case 2:
		if fnType.Out(1) != errorType {
			return nil, fmt.Errorf("method must return (T, error)")
		}
		f.Return = fnType.Out(0)
		f.HasError = true
	default:
		return nil, fmt.Errorf("method must return at most (T, error)")
	}

	return f, nil
}

// Call invokes the func with recv as receiver (ignored for static funcs) and
// args as parameters. A non-nil error result of the func is returned wrapped
// in an InvocationError; argument problems are returned unwrapped.
func (f *Func) Call(name string, recv any, args []any) (any, error) {
	if !f.Fn.IsValid() || f.Fn.IsNil() {
		return nil, fmt.Errorf("method function is nil or invalid")
	}

	if len(args) != len(f.Params) {
		return nil, fmt.Errorf(
			"%w: found %d but expected %d: call %s",
			ErrIncorrectArgumentCount,
			len(args),
			len(f.Params),
			name,
		)
	}

	in := make([]reflect.Value, 0, len(args)+1)

	if f.Receiver != nil {
		rv, ok := Receiver(recv, f.Receiver)
		if !ok {
			return nil, fmt.Errorf("%w: call %s, receiver %T is not a %s", ErrArgumentMismatch, name, recv, f.Receiver)
		}
		in = append(in, rv)
	}

	for i, arg := range args {
		v, err := Value(arg, f.Params[i])
		if err != nil {
			return nil, fmt.Errorf("%w: call %s, argument %d", err, name, i)
		}
		in = append(in, v)
	}

	results := f.Fn.Call(in)

	if f.HasError {
		if errVal := results[len(results)-1]; !errVal.IsNil() {
			return nil, &InvocationError{Method: name, Err: errVal.Interface().(error)}
		}
	}

	if f.Return == nil {
		return nil, nil
	}
	return results[0].Interface(), nil
}

// Value converts arg to a reflect.Value assignable to t.
// A nil arg becomes the zero value of nilable types.
func Value(arg any, t reflect.Type) (reflect.Value, error) {
	if arg == nil {
		switch t.Kind() {
		case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Pointer, reflect.Slice:
			return reflect.Zero(t), nil
		}
		return reflect.Value{}, fmt.Errorf("%w: nil is not assignable to %s", ErrArgumentMismatch, t)
	}

	v := reflect.ValueOf(arg)
	if !v.Type().AssignableTo(t) {
		return reflect.Value{}, fmt.Errorf("%w: %s is not assignable to %s", ErrArgumentMismatch, v.Type(), t)
	}
	return v, nil
}

// Receiver finds a value usable as a receiver of type t. The value itself is
// tried first, then exported embedded fields depth-first, so a method declared
// for an embedded type can be invoked on the embedding value.
func Receiver(recv any, t reflect.Type) (reflect.Value, bool) {
	v := reflect.ValueOf(recv)
	if !v.IsValid() {
		return reflect.Value{}, false
	}
	return promote(v, t, 0)
}

func promote(v reflect.Value, t reflect.Type, depth int) (reflect.Value, bool) {
	if v.Type().AssignableTo(t) {
		return v, true
	}
	if depth >= maxEmbedDepth {
		return reflect.Value{}, false
	}

	s := v
	if s.Kind() == reflect.Pointer {
		if s.IsNil() {
			return reflect.Value{}, false
		}
		s = s.Elem()
		if s.Type().AssignableTo(t) {
			return s, true
		}
	}
	if s.Kind() != reflect.Struct {
		return reflect.Value{}, false
	}

	for i := 0; i < s.NumField(); i++ {
		sf := s.Type().Field(i)
		if !sf.Anonymous || !sf.IsExported() {
			continue
		}
		field := s.Field(i)
		if field.CanAddr() && reflect.PointerTo(field.Type()).AssignableTo(t) {
			return field.Addr(), true
		}
		if found, ok := promote(field, t, depth+1); ok {
			return found, true
		}
	}
	return reflect.Value{}, false
}

// CanReceive reports whether a value of type t can be used as a receiver of
// type recv, directly or through exported embedded fields.
func CanReceive(t, recv reflect.Type) bool {
	return canReceive(t, recv, false, 0)
}

func canReceive(t, recv reflect.Type, addressable bool, depth int) bool {
	if t.AssignableTo(recv) {
		return true
	}
	if depth >= maxEmbedDepth {
		return false
	}

	if t.Kind() == reflect.Pointer {
		t = t.Elem()
		addressable = true
		if t.AssignableTo(recv) {
			return true
		}
	}
	if t.Kind() != reflect.Struct {
		return false
	}

	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.Anonymous || !sf.IsExported() {
			continue
		}
		if addressable && reflect.PointerTo(sf.Type).AssignableTo(recv) {
			return true
		}
		if canReceive(sf.Type, recv, addressable, depth+1) {
			return true
		}
	}
	return false
}
