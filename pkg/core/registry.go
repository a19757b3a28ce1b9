package core

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/jdziat/simple-block-guard/pkg/internal/handler"
	"github.com/jdziat/simple-block-guard/pkg/security"
)

// ClassOption configures a Class at definition time.
type ClassOption interface {
	applyClass(*Class)
}

type classOptionFunc func(*Class)

func (f classOptionFunc) applyClass(c *Class) { f(c) }

// Extends sets the superclass. Without it a class extends Root.
func Extends(super *Class) ClassOption {
	return classOptionFunc(func(c *Class) {
		c.super = super
	})
}

// Registry holds class definitions and maps Go runtime types to classes.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]*Class
	byType map[reflect.Type]*Class
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		byName: make(map[string]*Class),
		byType: make(map[reflect.Type]*Class),
	}
}

// Define defines a class. sample binds the class to the dynamic Go type of a
// value, typically a typed nil such as (*Service)(nil); pass nil for classes
// that only hold static methods. Define panics on an invalid or duplicate
// name, a Go type bound twice, a nil superclass, or a Go type that cannot
// receive the instance methods of its superclass because it does not embed
// the superclass's type.
func (r *Registry) Define(name string, sample any, opts ...ClassOption) *Class {
	if err := security.ValidateName(name); err != nil {
		panic(fmt.Sprintf("blockguard: invalid class name %q: %v", name, err))
	}

	c := &Class{name: name, super: Root}
	if sample != nil {
		c.goType = reflect.TypeOf(sample)
	}
	for _, opt := range opts {
		opt.applyClass(c)
	}
	if c.super == nil {
		panic(fmt.Sprintf("blockguard: class %s extends a nil class", name))
	}
	if c.goType != nil {
		if st := nearestType(c.super); st != nil && !handler.CanReceive(c.goType, st) {
			panic(fmt.Sprintf("blockguard: class %s extends %s, but %s does not embed %s", name, c.super.name, c.goType, st))
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byName[name]; exists {
		panic(fmt.Sprintf("blockguard: class %s already defined", name))
	}
	if c.goType != nil {
		if prev, exists := r.byType[c.goType]; exists {
			panic(fmt.Sprintf("blockguard: type %s already bound to class %s", c.goType, prev.name))
		}
		r.byType[c.goType] = c
	}
	r.byName[name] = c
	return c
}

// Lookup returns a class by name.
func (r *Registry) Lookup(name string) (*Class, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byName[name]
	return c, ok
}

// ClassOf returns the class bound to the dynamic type of target.
func (r *Registry) ClassOf(target any) (*Class, bool) {
	if target == nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byType[reflect.TypeOf(target)]
	return c, ok
}

// nearestType returns the Go type of c or of its nearest typed superclass.
// Instance methods inherited from that class run on the subclass's values.
func nearestType(c *Class) reflect.Type {
	for k := c; k != nil; k = k.super {
		if k.goType != nil {
			return k.goType
		}
	}
	return nil
}
