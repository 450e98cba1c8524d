/*
Package observability exposes engine lifecycle events as Prometheus metrics.

The Observer translates the engine's LifecycleHooks into counters and
histograms; serving them is the HTTP adapter's job via promhttp.
*/
package observability
