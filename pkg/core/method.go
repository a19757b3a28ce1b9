package core

import (
	"reflect"
	"strings"

	"github.com/jdziat/simple-block-guard/pkg/internal/handler"
)

// Method describes a method declared on a Class. It is the descriptor both
// for guarded methods and for resolved block handlers.
type Method struct {
	owner    *Class
	name     string
	static   bool
	fn       *handler.Func
	resource *Resource
}

// MethodOption configures a Method at declaration time.
type MethodOption interface {
	applyMethod(*Method)
}

type methodOptionFunc func(*Method)

func (f methodOptionFunc) applyMethod(m *Method) { f(m) }

// Owner returns the class that declares the method.
func (m *Method) Owner() *Class { return m.owner }

// Name returns the method name.
func (m *Method) Name() string { return m.name }

// IsStatic reports whether the method is class-level (no receiver).
func (m *Method) IsStatic() bool { return m.static }

// Params returns the parameter types, excluding the receiver.
func (m *Method) Params() []reflect.Type {
	params := make([]reflect.Type, len(m.fn.Params))
	copy(params, m.fn.Params)
	return params
}

// Return returns the declared return type, or nil for void methods.
func (m *Method) Return() reflect.Type { return m.fn.Return }

// Resource returns the guard declaration, or nil if the method is not guarded.
func (m *Method) Resource() *Resource { return m.resource }

// Signature returns the name and shape of the method.
func (m *Method) Signature() Signature {
	return Signature{Name: m.name, Params: m.Params(), Return: m.fn.Return}
}

// Invoke calls the method. recv is ignored for static methods. A failure
// returned by the method itself comes back wrapped in an *InvocationError;
// invalid receivers or arguments are reported with ErrArgumentMismatch or
// ErrIncorrectArgumentCount, unwrapped.
func (m *Method) Invoke(recv any, args []any) (any, error) {
	return m.fn.Call(m.owner.name+"."+m.name, recv, args)
}

// String renders the method as Owner.Name(params) return.
func (m *Method) String() string {
	var b strings.Builder
	b.WriteString(m.owner.name)
	b.WriteByte('.')
	b.WriteString(m.Signature().String())
	if m.static {
		b.WriteString(" [static]")
	}
	return b.String()
}

// Signature is the name and shape of a declared method.
type Signature struct {
	Name   string
	Params []reflect.Type
	Return reflect.Type
}

func (s Signature) String() string {
	var b strings.Builder
	b.WriteString(s.Name)
	b.WriteString(FormatTypes(s.Params))
	if s.Return != nil {
		b.WriteByte(' ')
		b.WriteString(s.Return.String())
	}
	return b.String()
}

// FormatTypes renders a parameter list as (T1, T2).
func FormatTypes(types []reflect.Type) string {
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = t.String()
	}
	return "(" + strings.Join(names, ", ") + ")"
}
