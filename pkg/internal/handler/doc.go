// Package handler provides internal reflection-based method descriptors.
//
// This package is internal and should not be imported directly.
// It provides:
//   - Func: the reflected shape of a declared method (receiver, parameters,
//     return type, trailing error result)
//   - Argument and receiver conversion, including promotion through
//     embedded structs
//   - InvocationError, which separates failures raised by an invoked method
//     from failures of the invocation itself
package handler
