package resolve

import (
	"reflect"

	"github.com/jdziat/simple-block-guard/pkg/core"
)

// Ancestors returns c followed by its superclasses, ending with core.Root.
func Ancestors(c *core.Class) []*core.Class {
	var chain []*core.Class
	for k := c; k != nil; k = k.Super() {
		chain = append(chain, k)
	}
	return chain
}

// DeclaredMethod returns the method declared on c, or on the nearest
// superclass, whose name equals name and whose parameter types equal params
// exactly. It returns a *core.MethodNotResolvedError when none matches.
func DeclaredMethod(c *core.Class, name string, params []reflect.Type) (*core.Method, error) {
	for _, k := range Ancestors(c) {
		for _, m := range k.DeclaredMethods() {
			if m.Name() == name && sameTypes(m.Params(), params) {
				return m, nil
			}
		}
	}

	className := "<nil>"
	if c != nil {
		className = c.Name()
	}
	return nil, &core.MethodNotResolvedError{Class: className, Name: name, Params: params}
}

func sameTypes(a, b []reflect.Type) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
