// Package schedule computes the run times of recurring maintenance work,
// such as pruning the block log past its retention window.
//
// This package includes:
//   - Schedule interface: the next run time after a given instant
//   - Every() for fixed-interval schedules
//   - Daily() and Weekly() for wall-clock schedules in UTC or a given location
//   - Cron() and ParseCron() for five-field cron expressions
package schedule
