// Package storage persists the guard's block log and per-resource
// statistics.
//
// GormStorage implements core.Storage on top of GORM and works with any
// dialect GORM supports; the tests run against in-memory SQLite.
package storage
