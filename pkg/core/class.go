package core

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/jdziat/simple-block-guard/pkg/internal/handler"
	"github.com/jdziat/simple-block-guard/pkg/security"
)

// Root is the universal root class. Every class defined without an explicit
// superclass extends Root. Root declares no methods.
var Root = &Class{name: "Root"}

// Class describes a type: its name, optional Go runtime type, superclass and
// the methods declared directly on it, in declaration order.
type Class struct {
	name   string
	goType reflect.Type
	super  *Class

	mu      sync.RWMutex
	methods []*Method
}

// Name returns the class name.
func (c *Class) Name() string { return c.name }

// Type returns the Go runtime type bound to the class, or nil for classes
// that only hold static methods.
func (c *Class) Type() reflect.Type { return c.goType }

// Super returns the superclass, or nil for Root.
func (c *Class) Super() *Class { return c.super }

// IsRoot reports whether c is the universal root class.
func (c *Class) IsRoot() bool { return c == Root }

func (c *Class) String() string { return c.name }

// DeclaredMethods returns the methods declared directly on the class in
// declaration order. Inherited methods are not included.
func (c *Class) DeclaredMethods() []*Method {
	c.mu.RLock()
	defer c.mu.RUnlock()
	methods := make([]*Method, len(c.methods))
	copy(methods, c.methods)
	return methods
}

// Declare declares an instance method. The first parameter of fn is the
// receiver, so method expressions such as (*Service).Hello can be passed
// directly. Declare panics on an invalid name or function, the same way
// misconfigured registrations fail at startup.
func (c *Class) Declare(name string, fn any, opts ...MethodOption) *Method {
	return c.declare(name, fn, false, opts)
}

// DeclareStatic declares a class-level method with no receiver.
func (c *Class) DeclareStatic(name string, fn any, opts ...MethodOption) *Method {
	return c.declare(name, fn, true, opts)
}

func (c *Class) declare(name string, fn any, static bool, opts []MethodOption) *Method {
	if c.IsRoot() {
		panic("blockguard: cannot declare methods on the root class")
	}
	if err := security.ValidateName(name); err != nil {
		panic(fmt.Sprintf("blockguard: invalid method name %q on %s: %v", name, c.name, err))
	}

	f, err := handler.New(fn, static)
	if err != nil {
		panic(fmt.Sprintf("blockguard: method %s.%s: %v", c.name, name, err))
	}

	if !static && c.goType != nil {
		if !handler.CanReceive(c.goType, f.Receiver) {
			panic(fmt.Sprintf("blockguard: method %s.%s: receiver %s does not accept %s", c.name, name, f.Receiver, c.goType))
		}
	}

	m := &Method{
		owner:  c,
		name:   name,
		static: static,
		fn:     f,
	}
	for _, opt := range opts {
		opt.applyMethod(m)
	}

	c.mu.Lock()
	c.methods = append(c.methods, m)
	c.mu.Unlock()
	return m
}
