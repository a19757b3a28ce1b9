// Package guard provides the Guard, which runs guarded methods and redirects
// block signals to block handlers.
//
// This package includes:
//   - Guard.Invoke: the interception advice for one call context
//   - Guard.Call: a small interception layer that builds the call context
//     for a target and method name
//   - Hooks (OnBlocked, OnHandled, OnEscalated, OnFailed, OnEvent) and an
//     event stream (Events, Unsubscribe)
//   - Functional options for logging and diagnostics
//
// Most users should import the root package github.com/jdziat/simple-block-guard
// which re-exports the Guard and its options.
package guard
