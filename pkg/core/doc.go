// Package core provides the fundamental types and interfaces for the blockguard package.
//
// This package contains:
//   - Class, Method and Registry: an explicit descriptor model of types,
//     their superclass chains, and their declared instance and static methods
//   - Resource: the guard declaration attached to a protected method
//   - JoinPoint: the call context handed over by an interception layer
//   - BlockError and the fatal resolution errors
//   - Event types for guard monitoring
//   - Storage interface and GORM models for block records and resource stats
//
// Most users should import the root package github.com/jdziat/simple-block-guard
// instead of this package directly.
package core
