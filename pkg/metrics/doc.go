// Package metrics exports guard activity as Prometheus metrics.
//
// Metrics subscribes to a guard's events with Attach and can also be passed
// to guard.WithReporter to count handler resolutions:
//
//	m := metrics.New(metrics.WithRegisterer(reg))
//	g := guard.New(classes, guard.WithReporter(m))
//	m.Attach(g)
package metrics
