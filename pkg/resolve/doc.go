// Package resolve finds methods on the class chain of the core package.
//
// Two lookups are provided, both pure functions of their inputs:
//
//   - DeclaredMethod finds the originally declared method for a call context,
//     by exact name and exact parameter types, walking from a class up to and
//     including Root.
//   - Locator.FindHandler finds a block handler: a method with the handler
//     name whose parameters are the original parameters followed by
//     *core.BlockError, whose return type is assignable to the original
//     return type, and which is static when a static handler is required.
//     The walk starts at the lookup class and stops before Root; the first
//     match in declaration order wins.
//
// Nothing is cached. Every call walks the chain again.
//
// Diagnostics are delivered to a Reporter:
//
//	locator := resolve.NewLocator(resolve.LogReporter(slog.Default()))
//	h, ok := locator.FindHandler(class, "HelloBlockHandler", false, params, ret)
package resolve
