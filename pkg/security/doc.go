// Package security provides validation, sanitization, and limits for the blockguard package.
//
// This package includes:
//   - Input validation for class, method, and resource names
//   - Error message sanitization before block records are persisted
//   - Clamping of query limits for the block log
//   - Security-related constants defining maximum sizes and counts
//
// Most users should import the root package github.com/jdziat/simple-block-guard
// which re-exports these limits.
package security
