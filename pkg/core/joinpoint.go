package core

import "context"

// ProceedFunc performs the real invocation of an intercepted method.
type ProceedFunc func(ctx context.Context) (any, error)

// JoinPoint is the call context an interception layer hands to the guard for
// one intercepted call. It must not be modified while the call is in flight.
type JoinPoint struct {
	// Target is the object the method was called on.
	Target any

	// Class, when set, is used instead of the class of Target's runtime type
	// to resolve the declared method.
	Class *Class

	// Signature is the declared method's name and shape.
	Signature Signature

	// Args are the supplied arguments, one per parameter.
	Args []any

	// Proceed performs the real call.
	Proceed ProceedFunc
}
